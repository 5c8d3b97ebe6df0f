// pointsctl выполняет административные команды: миграции, каталог, бюджеты, сверка.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/app"
	"github.com/emotionalcenter/amistapp/internal/config"
	"github.com/emotionalcenter/amistapp/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "pointsctl",
	Short:         "Administer the amistapp points ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		lg, err := logging.Init(cfg.LogLevel, cfg.Env)
		if err != nil {
			return err
		}
		logger = lg.Base
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

var errNeedPostgres = errors.New("DATABASE_URL is not set: in-memory data does not outlive this command")

// withApp открывает Postgres-бэкенд и собирает сервисы.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	if !cfg.UsePostgres() {
		return errNeedPostgres
	}
	ctx := cmd.Context()
	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(ctx, app.Build(cfg, backend.Store, backend.Guard, logger, backend.Sinks(cfg, logger)...))
}
