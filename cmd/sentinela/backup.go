package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/erazemk/sentinela/internal/backup"
)

func newBackupCommand(a *app) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a backup of all data to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			var buf bytes.Buffer
			svc := backup.NewService(database, a.logger, a.cfg.MaxUploadBytes())
			if err := svc.Write(cmd.Context(), &buf, format); err != nil {
				return err
			}

			// Readers never see a partial archive at the destination.
			if err := atomic.WriteFile(output, &buf); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file")
	cmd.Flags().StringVar(&format, "format", backup.FormatZIP, "backup format (zip|json)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func newRestoreCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore FILE",
		Short: "Replace all data with the contents of a backup",
		Long: `Replace all data with the contents of a ZIP or JSON backup.

The backup is validated in full first. If anything is wrong nothing is
written and the problems are listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			database, err := a.openDatabase()
			if err != nil {
				return err
			}
			defer database.Close()

			svc := backup.NewService(database, a.logger, a.cfg.MaxUploadBytes())
			res, err := svc.Restore(cmd.Context(), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Restored %s backup:\n", res.Format)
			for _, name := range backup.Sections {
				fmt.Fprintf(out, "  %-10s %d\n", name, res.Counts[name])
			}
			return nil
		},
	}
}
