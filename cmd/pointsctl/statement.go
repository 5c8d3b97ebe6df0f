package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emotionalcenter/amistapp/internal/app"
	"github.com/emotionalcenter/amistapp/internal/export"
)

func init() {
	rootCmd.AddCommand(statementCmd)
	statementCmd.Flags().StringP("out", "o", "", "output .xlsx (default: generated name)")
	statementCmd.Flags().Int("limit", 500, "movements to include")
}

var statementCmd = &cobra.Command{
	Use:   "statement ACCOUNT_ID",
	Short: "Export an account statement to Excel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			wb, acc, err := export.Statement(ctx, a.Ledger, id, limit, cfg.Location())
			if err != nil {
				return err
			}
			defer wb.Close()
			if out == "" {
				out = export.StatementFilename(acc.Name, time.Now().In(cfg.Location()))
			}
			if err := wb.SaveAs(out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}
