package auth

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

// Gate owns the admin roster: first-login bootstrap, sign-in and the
// SUPER_ADMIN-only roster changes.
type Gate struct {
	db      *sql.DB
	auditor *audit.Auditor
	logger  *zap.SugaredLogger
}

// NewGate creates a Gate.
func NewGate(db *sql.DB, auditor *audit.Auditor, logger *zap.SugaredLogger) *Gate {
	return &Gate{db: db, auditor: auditor, logger: logger}
}

// LoginResult is the outcome of a successful Login.
type LoginResult struct {
	Session      model.Session `json:"session"`
	Bootstrapped bool          `json:"bootstrapped"`
}

// Login signs an admin in by matricula. While the roster is empty, the first
// login creates the single SUPER_ADMIN instead. Check and insert run in one
// transaction, so bootstrap cannot happen twice.
func (g *Gate) Login(ctx context.Context, name, matricula string) (*LoginResult, error) {
	name = strings.TrimSpace(name)
	matricula = strings.TrimSpace(matricula)
	if name == "" || matricula == "" {
		return nil, fmt.Errorf("name and matricula are required: %w", model.ErrInvalidOperation)
	}

	var result *LoginResult
	err := store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		count, err := store.CountAdmins(ctx, tx)
		if err != nil {
			return err
		}

		if count == 0 {
			admin := &model.Admin{
				ID:        uuid.NewString(),
				Name:      name,
				Matricula: matricula,
				Role:      model.RoleSuperAdmin,
			}
			if err := store.InsertAdmin(ctx, tx, admin); err != nil {
				return err
			}
			if _, err := g.auditor.Add(ctx, tx, admin.Name, audit.ActionSystem,
				"Super Administrador registrado e sistema inicializado."); err != nil {
				return err
			}
			result = &LoginResult{Session: model.SessionFor(admin), Bootstrapped: true}
			return nil
		}

		admin, err := store.GetAdminByMatricula(ctx, tx, matricula)
		if err != nil {
			return err
		}
		if admin == nil {
			return fmt.Errorf("unknown matricula: %w", model.ErrAccessDenied)
		}
		if _, err := g.auditor.Add(ctx, tx, admin.Name, audit.ActionLogin,
			fmt.Sprintf("Acesso de %s (matrícula %s).", admin.Name, admin.Matricula)); err != nil {
			return err
		}
		result = &LoginResult{Session: model.SessionFor(admin)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Bootstrapped {
		g.logger.Infow("system bootstrapped", "admin_id", result.Session.AdminID)
	}
	return result, nil
}

// IsBootstrapped reports whether any admin exists.
func (g *Gate) IsBootstrapped(ctx context.Context) (bool, error) {
	n, err := store.CountAdmins(ctx, g.db)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Authenticate returns the current session of an admin, with the role as
// stored now. It fails with ErrAccessDenied if the admin no longer exists.
func (g *Gate) Authenticate(ctx context.Context, adminID string) (*model.Session, error) {
	admin, err := store.GetAdmin(ctx, g.db, adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, fmt.Errorf("admin %s: %w", adminID, model.ErrAccessDenied)
	}
	session := model.SessionFor(admin)
	return &session, nil
}

// ListAdmins returns the roster.
func (g *Gate) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	return store.ListAdmins(ctx, g.db)
}

// AddAdmin adds an ADMIN to the roster. Only the SUPER_ADMIN may do this.
func (g *Gate) AddAdmin(ctx context.Context, session model.Session, name, matricula string) (*model.Admin, error) {
	name = strings.TrimSpace(name)
	matricula = strings.TrimSpace(matricula)

	var admin *model.Admin
	err := store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		actor, err := requireSuperAdmin(ctx, tx, session)
		if err != nil {
			return err
		}
		if name == "" || matricula == "" {
			return fmt.Errorf("name and matricula are required: %w", model.ErrInvalidOperation)
		}

		existing, err := store.GetAdminByMatricula(ctx, tx, matricula)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("matricula %s already registered: %w", matricula, model.ErrInvalidOperation)
		}

		admin = &model.Admin{
			ID:        uuid.NewString(),
			Name:      name,
			Matricula: matricula,
			Role:      model.RoleAdmin,
		}
		if err := store.InsertAdmin(ctx, tx, admin); err != nil {
			return err
		}
		_, err = g.auditor.Add(ctx, tx, actor.Name, audit.ActionAdminAdded,
			fmt.Sprintf("%s (matrícula %s) adicionado como administrador.", admin.Name, admin.Matricula))
		return err
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// RemoveAdmin removes an ADMIN from the roster. Only the SUPER_ADMIN may do
// this; it cannot remove itself or the SUPER_ADMIN.
func (g *Gate) RemoveAdmin(ctx context.Context, session model.Session, adminID string) error {
	return store.WithTx(ctx, g.db, func(tx *sql.Tx) error {
		actor, err := requireSuperAdmin(ctx, tx, session)
		if err != nil {
			return err
		}
		if adminID == actor.ID {
			return fmt.Errorf("cannot remove yourself: %w", model.ErrInvalidOperation)
		}

		target, err := store.GetAdmin(ctx, tx, adminID)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("admin %s: %w", adminID, model.ErrNotFound)
		}
		if target.Role == model.RoleSuperAdmin {
			return fmt.Errorf("cannot remove the super administrator: %w", model.ErrInvalidOperation)
		}

		if err := store.DeleteAdmin(ctx, tx, target.ID); err != nil {
			return err
		}
		_, err = g.auditor.Add(ctx, tx, actor.Name, audit.ActionAdminRemoved,
			fmt.Sprintf("%s (matrícula %s) removido.", target.Name, target.Matricula))
		return err
	})
}

// requireSuperAdmin checks the actor's stored role, not the one in the session.
func requireSuperAdmin(ctx context.Context, q store.Querier, session model.Session) (*model.Admin, error) {
	actor, err := store.GetAdmin(ctx, q, session.AdminID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, fmt.Errorf("admin %s: %w", session.AdminID, model.ErrAccessDenied)
	}
	if actor.Role != model.RoleSuperAdmin {
		return nil, fmt.Errorf("super administrator required: %w", model.ErrForbidden)
	}
	return actor, nil
}
