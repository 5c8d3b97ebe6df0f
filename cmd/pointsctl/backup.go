package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emotionalcenter/amistapp/internal/backupclient"
)

func init() {
	rootCmd.AddCommand(backupCmd, restoreCmd)
	restoreCmd.Flags().Bool("yes", false, "confirm overwriting the database")
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Ask the pgbackup sidecar for a dump",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, err := backupclient.New(cfg.BackupURL).Backup(cmd.Context())
		if err != nil {
			return fmt.Errorf("backup: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the latest dump (stop the server first)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if ok, _ := cmd.Flags().GetBool("yes"); !ok {
			return fmt.Errorf("restore overwrites every balance, rerun with --yes")
		}
		out, err := backupclient.New(cfg.BackupURL).RestoreLatest(cmd.Context())
		if err != nil {
			return fmt.Errorf("restore: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}
