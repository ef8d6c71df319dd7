// Package personnel manages the people who can receive custody of materials.
package personnel

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/audit"
	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/store"
)

// Registry creates, updates and removes personnel records.
type Registry struct {
	db      *sql.DB
	auditor *audit.Auditor
	logger  *zap.SugaredLogger
}

// NewRegistry creates a Registry.
func NewRegistry(db *sql.DB, auditor *audit.Auditor, logger *zap.SugaredLogger) *Registry {
	return &Registry{db: db, auditor: auditor, logger: logger}
}

// Get returns a person, or ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*model.Personnel, error) {
	return get(ctx, r.db, id)
}

func get(ctx context.Context, q store.Querier, id string) (*model.Personnel, error) {
	p, err := store.GetPersonnel(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("personnel %s: %w", id, model.ErrNotFound)
	}
	return p, nil
}

// List returns all personnel ordered by name.
func (r *Registry) List(ctx context.Context) ([]model.Personnel, error) {
	people, err := store.ListPersonnel(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if people == nil {
		people = []model.Personnel{}
	}
	return people, nil
}

// Create registers a person. Registration numbers are unique.
func (r *Registry) Create(ctx context.Context, session model.Session, name, registration, rank string) (*model.Personnel, error) {
	p := &model.Personnel{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(name),
		RegistrationNumber: strings.TrimSpace(registration),
		Rank:               strings.TrimSpace(rank),
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkRegistration(ctx, tx, p); err != nil {
			return err
		}
		if err := store.CreatePersonnel(ctx, tx, p); err != nil {
			return err
		}
		_, err := r.auditor.Add(ctx, tx, session.Name, audit.ActionPersonnelCreated, describe(p))
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces a person's name, registration number and rank.
func (r *Registry) Update(ctx context.Context, session model.Session, id, name, registration, rank string) (*model.Personnel, error) {
	p := &model.Personnel{
		ID:                 id,
		Name:               strings.TrimSpace(name),
		RegistrationNumber: strings.TrimSpace(registration),
		Rank:               strings.TrimSpace(rank),
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	err := store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := get(ctx, tx, id); err != nil {
			return err
		}
		if err := checkRegistration(ctx, tx, p); err != nil {
			return err
		}
		if err := store.UpdatePersonnel(ctx, tx, p); err != nil {
			return err
		}
		_, err := r.auditor.Add(ctx, tx, session.Name, audit.ActionPersonnelUpdated, describe(p))
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a person who holds no open cautela.
func (r *Registry) Delete(ctx context.Context, session model.Session, id string) error {
	return store.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		p, err := get(ctx, tx, id)
		if err != nil {
			return err
		}

		open, err := store.CountOpenCautelas(ctx, tx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%s holds %d open cautelas: %w", p.Name, open, model.ErrInvalidOperation)
		}

		if err := store.DeletePersonnel(ctx, tx, id); err != nil {
			return err
		}
		_, err = r.auditor.Add(ctx, tx, session.Name, audit.ActionPersonnelDeleted, describe(p))
		return err
	})
}

func validate(p *model.Personnel) error {
	if p.Name == "" {
		return fmt.Errorf("name is required: %w", model.ErrInvalidOperation)
	}
	if p.RegistrationNumber == "" {
		return fmt.Errorf("registration number is required: %w", model.ErrInvalidOperation)
	}
	return nil
}

// checkRegistration refuses a registration number held by someone else.
func checkRegistration(ctx context.Context, q store.Querier, p *model.Personnel) error {
	existing, err := store.GetPersonnelByRegistration(ctx, q, p.RegistrationNumber)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != p.ID {
		return fmt.Errorf("registration number %s already in use: %w", p.RegistrationNumber, model.ErrInvalidOperation)
	}
	return nil
}

func describe(p *model.Personnel) string {
	if p.Rank == "" {
		return fmt.Sprintf("%s (matrícula %s).", p.Name, p.RegistrationNumber)
	}
	return fmt.Sprintf("%s %s (matrícula %s).", p.Rank, p.Name, p.RegistrationNumber)
}
