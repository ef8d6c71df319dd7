package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/sentinela/internal/api"
	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/store"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	cmd.Flags().StringVarP(&a.cfg.Addr, "addr", "a", a.cfg.Addr, "listen address")
	cmd.Flags().StringVar(&a.cfg.Institution, "institution", a.cfg.Institution, "institution name stored on first run")

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	database, err := a.openDatabase()
	if err != nil {
		return err
	}
	defer database.Close()

	institution := a.cfg.Institution
	if institution == "" {
		institution = model.DefaultInstitutionName
	}
	if err := store.InitInstitutionName(ctx, database, institution); err != nil {
		return err
	}

	// Generated and stored on first run.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	if n, err := store.PruneRevokedTokens(ctx, database, time.Now()); err != nil {
		return err
	} else if n > 0 {
		a.logger.Infow("pruned expired token revocations", "count", n)
	}

	deps := api.NewDeps(database, jwtSecret, a.logger, a.cfg.MaxUploadBytes())

	server := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infow("server started", "addr", a.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		a.logger.Infow("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Errorw("server forced to shutdown", "error", err)
		}
	}

	a.logger.Infow("server stopped, closing database")
	return nil
}
