package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emotionalcenter/amistapp/internal/app"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/models"
)

func init() {
	rootCmd.AddCommand(accountCmd, replenishCmd, unfreezeCmd)
	accountCmd.AddCommand(accountOpenCmd, accountShowCmd)

	accountOpenCmd.Flags().String("role", "teacher", "teacher or student")
	accountOpenCmd.Flags().String("name", "", "display name")
	accountOpenCmd.Flags().String("teacher-id", "", "teacher of a student account")
	accountOpenCmd.Flags().Int64("budget", -1, "initial teacher budget (default TEACHER_BUDGET)")
	_ = accountOpenCmd.MarkFlagRequired("name")

	replenishCmd.Flags().String("reason", "", "journal reason")
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Open and inspect accounts",
}

var accountOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a teacher or student account",
	Args:  cobra.NoArgs,
	RunE:  runAccountOpen,
}

func runAccountOpen(cmd *cobra.Command, _ []string) error {
	role, _ := cmd.Flags().GetString("role")
	name, _ := cmd.Flags().GetString("name")
	rawTeacher, _ := cmd.Flags().GetString("teacher-id")
	budget, _ := cmd.Flags().GetInt64("budget")

	in := ledger.NewAccount{Role: models.Role(role), Name: name}
	switch in.Role {
	case models.Teacher:
		if budget < 0 {
			budget = cfg.TeacherBudget
		}
		in.InitialBalance = budget
	case models.Student:
		id, err := uuid.Parse(rawTeacher)
		if err != nil {
			return fmt.Errorf("--teacher-id: %w", err)
		}
		in.TeacherID = &id
	default:
		return fmt.Errorf("--role must be teacher or student, got %q", role)
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		acc, err := a.Ledger.OpenAccount(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q balance=%d\n", acc.ID, acc.Role, acc.Name, acc.Balance)
		return nil
	})
}

var accountShowCmd = &cobra.Command{
	Use:   "show ACCOUNT_ID",
	Short: "Print an account and its latest movements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			acc, err := a.Ledger.Account(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %q balance=%d frozen=%t\n", acc.ID, acc.Role, acc.Name, acc.Balance, acc.Frozen)
			list, err := a.Ledger.Movements(ctx, id, 20)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tKIND\tAMOUNT\tREASON")
			for _, m := range list {
				amount := strconv.FormatInt(m.Amount, 10)
				if m.From != nil && *m.From == id {
					amount = "-" + amount
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.CreatedAt.In(cfg.Location()).Format("2006-01-02 15:04"), m.Kind, amount, m.Reason)
			}
			return tw.Flush()
		})
	},
}

var replenishCmd = &cobra.Command{
	Use:   "replenish TEACHER_ID AMOUNT",
	Short: "Top up a teacher budget",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}
		amount, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
		reason, _ := cmd.Flags().GetString("reason")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			m, err := a.Ledger.Replenish(ctx, id, amount, reason)
			if err != nil {
				return err
			}
			acc, err := a.Ledger.Account(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "movement %s, budget now %d\n", m.ID, acc.Balance)
			return nil
		})
	},
}

var unfreezeCmd = &cobra.Command{
	Use:   "unfreeze ACCOUNT_ID",
	Short: "Unfreeze an account after a manual fix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Ledger.Unfreeze(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unfrozen\n", id)
			return nil
		})
	},
}
