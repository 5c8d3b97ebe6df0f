package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emotionalcenter/amistapp/internal/app"
	"github.com/emotionalcenter/amistapp/internal/db"
)

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("file", "f", "", "catalog TOML (default: built-in catalog)")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the action catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var src string
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			src = string(raw)
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := db.Seed(ctx, a.Store, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d actions upserted\n", n)
			return nil
		})
	},
}
