package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/config"
	"github.com/erazemk/sentinela/internal/db"
	"github.com/erazemk/sentinela/internal/logging"
)

// app carries the settings and logger shared by every command.
type app struct {
	cfg      *config.Config
	logger   *zap.SugaredLogger
	closeLog func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCommand(&app{cfg: cfg}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Flag defaults come from the
// loaded config, so a flag given on the command line overrides the
// environment.
func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sentinela",
		Short:         "Sentinela armory custody control",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if a.logger != nil {
				return nil
			}
			logger, closeLog, err := logging.New(logging.Options{File: a.cfg.LogFile, Debug: a.cfg.LogDebug})
			if err != nil {
				return err
			}
			a.logger, a.closeLog = logger, closeLog
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.cfg.DBPath, "db", "d", a.cfg.DBPath, "SQLite database path")
	flags.StringVarP(&a.cfg.LogFile, "log", "l", a.cfg.LogFile, "log file path (default: stdout/stderr only)")
	flags.BoolVar(&a.cfg.LogDebug, "debug", a.cfg.LogDebug, "enable debug logging")
	flags.IntVar(&a.cfg.MaxUploadMB, "max-upload-mb", a.cfg.MaxUploadMB, "largest accepted backup or upload, in MB")

	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newBackupCommand(a))
	cmd.AddCommand(newRestoreCommand(a))

	return cmd
}

// openDatabase opens the configured database and ensures its schema.
func (a *app) openDatabase() (*sql.DB, error) {
	database, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring database schema: %w", err)
	}
	a.logger.Infow("database ready", "path", a.cfg.DBPath)
	return database, nil
}
