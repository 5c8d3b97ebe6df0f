package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/api"
	"github.com/emotionalcenter/amistapp/internal/app"
	"github.com/emotionalcenter/amistapp/internal/config"
	"github.com/emotionalcenter/amistapp/internal/db"
	"github.com/emotionalcenter/amistapp/internal/jobs"
	"github.com/emotionalcenter/amistapp/internal/logging"
	"github.com/emotionalcenter/amistapp/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Closer()
	logger := lg.Base

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		logger.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty, every token will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := app.Open(ctx, cfg, logger)
	if err != nil {
		observability.CaptureErr(err)
		logger.Fatal("backend", zap.Error(err))
	}
	defer backend.Close()

	// каталог действий идемпотентен, подтягиваем при каждом старте
	n, err := db.Seed(ctx, backend.Store, "")
	if err != nil {
		logger.Fatal("seed catalog", zap.Error(err))
	}
	logger.Info("action catalog ready", zap.Int("actions", n))

	a := app.Build(cfg, backend.Store, backend.Guard, logger, backend.Sinks(cfg, logger)...)

	runner := jobs.New(ctx, logger)
	runner.Every(cfg.ReconcileInterval, "reconcile", jobs.Reconcile(a.Ledger, logger))

	srv := api.New(api.Deps{
		Ledger:     a.Ledger,
		Award:      a.Award,
		Streak:     a.Streak,
		Redemption: a.Redemption,
		Reports:    a.Reports,
		Inbox:      a.Inbox,
		DB:         backend.Store,
		Log:        logger,
		JWTSecret:  []byte(cfg.JWTSecret),
		Location:   cfg.Location(),
	})
	hs := api.Start(ctx, cfg.HTTPAddr, srv.Handler(), logger)

	logger.Info("amistapp started",
		zap.String("env", cfg.Env),
		zap.String("release", cfg.Release),
		zap.Bool("postgres", cfg.UsePostgres()),
		zap.String("tz", cfg.Location().String()),
	)

	<-ctx.Done()
	logger.Info("shutting down")
	<-hs.Done()
	runner.Wait()
}
