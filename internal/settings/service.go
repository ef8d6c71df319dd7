// Package settings manages the institution name, logo and display theme.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/audit"
	"github.com/erazemk/sentinela/internal/imaging"
	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/store"
)

// Service reads and updates the institution settings.
type Service struct {
	db      *sql.DB
	auditor *audit.Auditor
	logger  *zap.SugaredLogger
}

// NewService creates a Service.
func NewService(db *sql.DB, auditor *audit.Auditor, logger *zap.SugaredLogger) *Service {
	return &Service{db: db, auditor: auditor, logger: logger}
}

// Get returns the settings together with the admin roster.
func (s *Service) Get(ctx context.Context) (*model.AppSettings, error) {
	return store.LoadSettings(ctx, s.db)
}

// UpdateInstitution renames the institution.
func (s *Service) UpdateInstitution(ctx context.Context, session model.Session, name string) (*model.AppSettings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("institution name is required: %w", model.ErrInvalidOperation)
	}
	return s.update(ctx, session, fmt.Sprintf("Nome da instituição alterado para %s.", name), func(q store.Querier) error {
		return store.SetSetting(ctx, q, store.KeyInstitutionName, name)
	})
}

// SetLogo stores an uploaded JPEG or PNG as the institution logo.
func (s *Service) SetLogo(ctx context.Context, session model.Session, r io.Reader) (*model.AppSettings, error) {
	logo, err := imaging.Logo(r)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return nil, fmt.Errorf("%v: %w", err, model.ErrInvalidOperation)
		}
		return nil, err
	}
	return s.update(ctx, session, "Logotipo da instituição atualizado.", func(q store.Querier) error {
		return store.SetSetting(ctx, q, store.KeyInstitutionLogo, logo)
	})
}

// ClearLogo removes the institution logo.
func (s *Service) ClearLogo(ctx context.Context, session model.Session) (*model.AppSettings, error) {
	return s.update(ctx, session, "Logotipo da instituição removido.", func(q store.Querier) error {
		return store.DeleteSetting(ctx, q, store.KeyInstitutionLogo)
	})
}

// SetTheme switches between the light and dark themes.
func (s *Service) SetTheme(ctx context.Context, session model.Session, theme string) (*model.AppSettings, error) {
	if !model.ValidTheme(theme) {
		return nil, fmt.Errorf("unknown theme %q: %w", theme, model.ErrInvalidOperation)
	}
	return s.update(ctx, session, fmt.Sprintf("Tema alterado para %s.", theme), func(q store.Querier) error {
		return store.SetSetting(ctx, q, store.KeyTheme, theme)
	})
}

func (s *Service) update(ctx context.Context, session model.Session, details string, apply func(q store.Querier) error) (*model.AppSettings, error) {
	var settings *model.AppSettings
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := apply(tx); err != nil {
			return err
		}
		if _, err := s.auditor.Add(ctx, tx, session.Name, audit.ActionSettingsUpdated, details); err != nil {
			return err
		}
		var err error
		settings, err = store.LoadSettings(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
