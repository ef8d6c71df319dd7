// Package audit records the append-only system log of armory operations.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/store"
)

// Actions, in the wording shown to operators.
const (
	ActionSystem           = "Sistema"
	ActionLogin            = "Login"
	ActionCautelaOpened    = "Cautela aberta"
	ActionCautelaReturned  = "Cautela devolvida"
	ActionAdminAdded       = "Administrador adicionado"
	ActionAdminRemoved     = "Administrador removido"
	ActionMaterialCreated  = "Material cadastrado"
	ActionMaterialUpdated  = "Material atualizado"
	ActionMaterialDeleted  = "Material removido"
	ActionStockAdjusted    = "Estoque ajustado"
	ActionPersonnelCreated = "Efetivo cadastrado"
	ActionPersonnelUpdated = "Efetivo atualizado"
	ActionPersonnelDeleted = "Efetivo removido"
	ActionSettingsUpdated  = "Configurações atualizadas"
)

// DefaultListLimit is how many entries List returns when no limit is given.
const DefaultListLimit = 20

// Auditor writes and reads audit entries.
type Auditor struct {
	db     *sql.DB
	logger *zap.SugaredLogger
	now    func() time.Time
}

// New creates an Auditor stamping entries with the wall clock.
func New(db *sql.DB, logger *zap.SugaredLogger) *Auditor {
	return &Auditor{db: db, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for timestamps. Used by tests.
func (a *Auditor) WithClock(now func() time.Time) *Auditor {
	a.now = now
	return a
}

// Now returns the current time on the auditor's clock, in UTC.
func (a *Auditor) Now() time.Time {
	return a.now().UTC()
}

// Add appends an entry. It writes through q so that the entry commits or
// rolls back together with the change it describes.
func (a *Auditor) Add(ctx context.Context, q store.Querier, actor, action, details string) (*model.SystemLog, error) {
	entry := &model.SystemLog{
		ID:          uuid.NewString(),
		Timestamp:   a.Now(),
		ArmorerName: actor,
		Action:      action,
		Details:     details,
	}
	if err := store.InsertLog(ctx, q, entry); err != nil {
		return nil, fmt.Errorf("appending audit entry: %w", err)
	}
	a.logger.Debugw("audit", "actor", actor, "action", action, "details", details)
	return entry, nil
}

// List returns the newest entries first. A limit of 0 or less uses
// DefaultListLimit.
func (a *Auditor) List(ctx context.Context, limit int) ([]model.SystemLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	logs, err := store.ListLogs(ctx, a.db, limit)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []model.SystemLog{}
	}
	return logs, nil
}
