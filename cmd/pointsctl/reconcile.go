package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emotionalcenter/amistapp/internal/app"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().String("account", "", "check a single account")
	reconcileCmd.Flags().Bool("freeze", false, "freeze every inconsistent account")
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare balances with the movement journal",
	Long: `Recompute every balance from its initial balance and the journal.
Exits non-zero when a mismatch is found. With --freeze the mismatching
accounts are frozen, the same as the periodic job does.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	rawID, _ := cmd.Flags().GetString("account")
	freeze, _ := cmd.Flags().GetBool("freeze")
	if freeze && rawID != "" {
		return fmt.Errorf("--freeze works on all accounts, drop --account")
	}
	var only *uuid.UUID
	if rawID != "" {
		id, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("--account: %w", err)
		}
		only = &id
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		var (
			bad []models.Reconciliation
			err error
		)
		if freeze {
			bad, err = a.Ledger.FreezeInconsistent(ctx)
		} else {
			var all []models.Reconciliation
			all, err = a.Ledger.Reconcile(ctx, only)
			for _, r := range all {
				if !r.Consistent() {
					bad = append(bad, r)
				}
			}
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(bad) == 0 {
			fmt.Fprintln(out, "all balances match the journal")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCOUNT\tBALANCE\tEXPECTED")
		for _, r := range bad {
			fmt.Fprintf(tw, "%s\t%d\t%d\n", r.AccountID, r.Balance, r.Expected)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if freeze {
			return fmt.Errorf("%d accounts frozen", len(bad))
		}
		return fmt.Errorf("%d accounts do not match", len(bad))
	})
}
