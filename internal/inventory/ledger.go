// Package inventory keeps material stock: total and available quantities.
package inventory

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

// Ledger manages materials and their stock counters.
//
// Every stock change is a single conditional UPDATE, so on the single
// database connection concurrent callers can never drive available_quantity
// below zero or above total_quantity.
type Ledger struct {
	db      *sql.DB
	auditor *audit.Auditor
	logger  *zap.SugaredLogger
}

// NewLedger creates a Ledger.
func NewLedger(db *sql.DB, auditor *audit.Auditor, logger *zap.SugaredLogger) *Ledger {
	return &Ledger{db: db, auditor: auditor, logger: logger}
}

// Get returns a material, or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (*model.Material, error) {
	return getMaterial(ctx, l.db, id)
}

func getMaterial(ctx context.Context, q store.Querier, id string) (*model.Material, error) {
	m, err := store.GetMaterial(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("material %s: %w", id, model.ErrNotFound)
	}
	return m, nil
}

// List returns materials ordered by name, optionally only one category.
func (l *Ledger) List(ctx context.Context, category string) ([]model.Material, error) {
	materials, err := store.ListMaterials(ctx, l.db, category)
	if err != nil {
		return nil, err
	}
	if materials == nil {
		materials = []model.Material{}
	}
	return materials, nil
}

// Categories returns the distinct categories in use.
func (l *Ledger) Categories(ctx context.Context) ([]string, error) {
	categories, err := store.ListCategories(ctx, l.db)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// Reserve takes quantity units of a material out of available stock.
func (l *Ledger) Reserve(ctx context.Context, materialID string, quantity int) (*model.Material, error) {
	var m *model.Material
	err := store.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		m, err = l.ReserveTx(ctx, tx, materialID, quantity)
		return err
	})
	return m, err
}

// ReserveTx is Reserve inside the caller's transaction. On failure nothing
// is written; the returned error is a *model.StockError when stock is short.
func (l *Ledger) ReserveTx(ctx context.Context, q store.Querier, materialID string, quantity int) (*model.Material, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("reserving %d: %w", quantity, model.ErrInvalidQuantity)
	}

	ok, err := store.DecrementAvailable(ctx, q, materialID, quantity)
	if err != nil {
		return nil, err
	}

	m, err := getMaterial(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &model.StockError{
			MaterialID:   m.ID,
			MaterialName: m.Name,
			Available:    m.AvailableQuantity,
			Requested:    quantity,
		}
	}
	return m, nil
}

// Release puts quantity units of a material back into available stock.
func (l *Ledger) Release(ctx context.Context, materialID string, quantity int) (*model.Material, error) {
	var m *model.Material
	err := store.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		m, err = l.ReleaseTx(ctx, tx, materialID, quantity)
		return err
	})
	return m, err
}

// ReleaseTx is Release inside the caller's transaction. A release that would
// push available above total is refused with ErrInventoryCorruption and
// nothing is written.
func (l *Ledger) ReleaseTx(ctx context.Context, q store.Querier, materialID string, quantity int) (*model.Material, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("releasing %d: %w", quantity, model.ErrInvalidQuantity)
	}

	ok, err := store.IncrementAvailable(ctx, q, materialID, quantity)
	if err != nil {
		return nil, err
	}

	m, err := getMaterial(ctx, q, materialID)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.logger.Errorw("release exceeds total",
			"material_id", m.ID, "total", m.TotalQuantity,
			"available", m.AvailableQuantity, "release", quantity)
		return nil, fmt.Errorf("releasing %d of %q (available %d, total %d): %w",
			quantity, m.Name, m.AvailableQuantity, m.TotalQuantity, model.ErrInventoryCorruption)
	}
	return m, nil
}

// AdjustTotal sets a material's total quantity. Units out on open cautelas
// stay issued: available becomes newTotal minus the issued count, and a total
// below the issued count is refused.
func (l *Ledger) AdjustTotal(ctx context.Context, session model.Session, materialID string, newTotal int) (*model.Material, error) {
	var m *model.Material
	err := store.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		m, err = l.AdjustTotalTx(ctx, tx, materialID, newTotal)
		if err != nil {
			return err
		}
		_, err = l.auditor.Add(ctx, tx, session.Name, audit.ActionStockAdjusted,
			fmt.Sprintf("%s: total %d, disponível %d.", m.Name, m.TotalQuantity, m.AvailableQuantity))
		return err
	})
	return m, err
}

// AdjustTotalTx is AdjustTotal inside the caller's transaction, without an
// audit entry.
func (l *Ledger) AdjustTotalTx(ctx context.Context, q store.Querier, materialID string, newTotal int) (*model.Material, error) {
	if newTotal < 0 {
		return nil, fmt.Errorf("total %d: %w", newTotal, model.ErrInvalidQuantity)
	}

	m, err := getMaterial(ctx, q, materialID)
	if err != nil {
		return nil, err
	}

	issued := m.Issued()
	if newTotal < issued {
		return nil, fmt.Errorf("total %d below %d issued units of %q: %w",
			newTotal, issued, m.Name, model.ErrInvalidQuantity)
	}

	if err := store.SetQuantities(ctx, q, m.ID, newTotal, newTotal-issued); err != nil {
		return nil, err
	}
	m.TotalQuantity = newTotal
	m.AvailableQuantity = newTotal - issued
	return m, nil
}

// Create registers a new material with all of its units available.
func (l *Ledger) Create(ctx context.Context, session model.Session, name, category string, total int) (*model.Material, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" {
		return nil, fmt.Errorf("material name is required: %w", model.ErrInvalidOperation)
	}
	if total < 0 {
		return nil, fmt.Errorf("total %d: %w", total, model.ErrInvalidQuantity)
	}

	m := &model.Material{
		ID:                uuid.NewString(),
		Name:              name,
		Category:          category,
		TotalQuantity:     total,
		AvailableQuantity: total,
	}
	err := store.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := store.CreateMaterial(ctx, tx, m); err != nil {
			return err
		}
		_, err := l.auditor.Add(ctx, tx, session.Name, audit.ActionMaterialCreated,
			fmt.Sprintf("%s (%d unidades).", m.Name, m.TotalQuantity))
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Update renames or recategorizes a material. Quantities are not touched.
func (l *Ledger) Update(ctx context.Context, session model.Session, id, name, category string) (*model.Material, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" {
		return nil, fmt.Errorf("material name is required: %w", model.ErrInvalidOperation)
	}

	var m *model.Material
	err := store.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		if m, err = getMaterial(ctx, tx, id); err != nil {
			return err
		}
		if err := store.UpdateMaterial(ctx, tx, id, name, category); err != nil {
			return err
		}
		m.Name = name
		m.Category = category
		_, err = l.auditor.Add(ctx, tx, session.Name, audit.ActionMaterialUpdated, m.Name+".")
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a material that no open cautela holds.
func (l *Ledger) Delete(ctx context.Context, session model.Session, id string) error {
	return store.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		m, err := getMaterial(ctx, tx, id)
		if err != nil {
			return err
		}

		open, err := store.OpenQuantity(ctx, tx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%q has %d units on open cautelas: %w", m.Name, open, model.ErrInvalidOperation)
		}

		if err := store.DeleteMaterial(ctx, tx, id); err != nil {
			return err
		}
		_, err = l.auditor.Add(ctx, tx, session.Name, audit.ActionMaterialDeleted, m.Name+".")
		return err
	})
}
