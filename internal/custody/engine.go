// Package custody issues materials to personnel on cautelas and takes them
// back, keeping stock and the audit log in step.
package custody

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/audit"
	"github.com/erazemk/sentinela/internal/inventory"
	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/store"
)

// Engine is the cautela ledger. Each Issue and Return runs in one database
// transaction: stock changes, the cautela and its audit entry commit together
// or not at all.
type Engine struct {
	db      *sql.DB
	ledger  *inventory.Ledger
	auditor *audit.Auditor
	logger  *zap.SugaredLogger
}

// NewEngine creates an Engine.
func NewEngine(db *sql.DB, ledger *inventory.Ledger, auditor *audit.Auditor, logger *zap.SugaredLogger) *Engine {
	return &Engine{db: db, ledger: ledger, auditor: auditor, logger: logger}
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Status      string
	PersonnelID string
	MaterialID  string
}

// ReturnResult is the outcome of Return. Split is set when a partial return
// moved the unreturned quantities to a new open cautela.
type ReturnResult struct {
	Returned *model.Cautela `json:"returned"`
	Split    *model.Cautela `json:"split,omitempty"`
}

// Discrepancy reports a material whose issued count does not match the
// quantities on open cautelas.
type Discrepancy struct {
	MaterialID   string `json:"material_id"`
	MaterialName string `json:"material_name,omitempty"`
	Total        int    `json:"total_quantity"`
	Available    int    `json:"available_quantity"`
	Open         int    `json:"open_quantity"`
}

// Issue opens a cautela handing items to a person. Either every item is
// reserved and the cautela is stored, or nothing changes.
func (e *Engine) Issue(ctx context.Context, session model.Session, personnelID string, items []model.CautelaItem, notes string) (*model.Cautela, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}

	var cautela *model.Cautela
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		person, err := store.GetPersonnel(ctx, tx, personnelID)
		if err != nil {
			return err
		}
		if person == nil {
			return fmt.Errorf("personnel %s: %w", personnelID, model.ErrNotFound)
		}

		armorer, err := store.GetAdmin(ctx, tx, session.AdminID)
		if err != nil {
			return err
		}
		if armorer == nil {
			return fmt.Errorf("armorer %s: %w", session.AdminID, model.ErrNotFound)
		}

		names := make(map[string]string, len(items))
		for _, it := range items {
			m, err := store.GetMaterial(ctx, tx, it.MaterialID)
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("material %s: %w", it.MaterialID, model.ErrNotFound)
			}
			names[m.ID] = m.Name
		}

		// A failed reservation returns here and the rollback releases the
		// earlier ones.
		for _, it := range items {
			if _, err := e.ledger.ReserveTx(ctx, tx, it.MaterialID, it.Quantity); err != nil {
				return err
			}
		}

		cautela = &model.Cautela{
			ID:          uuid.NewString(),
			PersonnelID: person.ID,
			ArmorerID:   armorer.ID,
			Items:       append([]model.CautelaItem(nil), items...),
			IssuedAt:    e.auditor.Now(),
			Status:      model.CautelaStatusOpen,
			Notes:       strings.TrimSpace(notes),
		}
		if err := store.InsertCautela(ctx, tx, cautela); err != nil {
			return err
		}

		_, err = e.auditor.Add(ctx, tx, armorer.Name, audit.ActionCautelaOpened,
			fmt.Sprintf("%s para %s.", describeItems(cautela.Items, names), describePerson(person, personnelID)))
		return err
	})
	if err != nil {
		return nil, err
	}

	return cautela, nil
}

// Return closes an open cautela. With no items everything is returned. With
// a subset, the cautela is closed holding only the returned quantities and a
// new open cautela, split from it, keeps the rest.
func (e *Engine) Return(ctx context.Context, session model.Session, cautelaID string, items []model.CautelaItem) (*ReturnResult, error) {
	var result *ReturnResult
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		c, err := store.GetCautela(ctx, tx, cautelaID)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("cautela %s: %w", cautelaID, model.ErrNotFound)
		}
		if !c.IsOpen() {
			return fmt.Errorf("cautela %s already returned: %w", cautelaID, model.ErrInvalidState)
		}

		returned, remaining, err := splitLines(c, items)
		if err != nil {
			return err
		}

		names := make(map[string]string, len(returned))
		for _, it := range returned {
			m, err := e.ledger.ReleaseTx(ctx, tx, it.MaterialID, it.Quantity)
			if err != nil {
				return err
			}
			names[m.ID] = m.Name
		}

		now := e.auditor.Now()
		var replace []model.CautelaItem
		if len(remaining) > 0 {
			replace = returned
		}
		ok, err := store.CloseCautela(ctx, tx, c.ID, now, replace)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("cautela %s already returned: %w", cautelaID, model.ErrInvalidState)
		}
		c.Items = returned
		c.Status = model.CautelaStatusReturned
		c.ReturnedAt = &now
		result = &ReturnResult{Returned: c}

		if len(remaining) > 0 {
			split := &model.Cautela{
				ID:          uuid.NewString(),
				PersonnelID: c.PersonnelID,
				ArmorerID:   c.ArmorerID,
				Items:       remaining,
				IssuedAt:    c.IssuedAt,
				Status:      model.CautelaStatusOpen,
				Notes:       c.Notes,
				SplitFrom:   c.ID,
			}
			if err := store.InsertCautela(ctx, tx, split); err != nil {
				return err
			}
			result.Split = split
		}

		person, err := store.GetPersonnel(ctx, tx, c.PersonnelID)
		if err != nil {
			return err
		}
		details := fmt.Sprintf("%s por %s.", describeItems(returned, names), describePerson(person, c.PersonnelID))
		if result.Split != nil {
			details += fmt.Sprintf(" Restante mantido na cautela %s.", result.Split.ID)
		}
		_, err = e.auditor.Add(ctx, tx, session.Name, audit.ActionCautelaReturned, details)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Get returns a cautela, or ErrNotFound.
func (e *Engine) Get(ctx context.Context, id string) (*model.Cautela, error) {
	c, err := store.GetCautela(ctx, e.db, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("cautela %s: %w", id, model.ErrNotFound)
	}
	return c, nil
}

// List returns cautelas newest first.
func (e *Engine) List(ctx context.Context, f Filter) ([]model.Cautela, error) {
	if f.Status != "" && f.Status != model.CautelaStatusOpen && f.Status != model.CautelaStatusReturned {
		return nil, fmt.Errorf("unknown status %q: %w", f.Status, model.ErrInvalidOperation)
	}

	cautelas, err := store.ListCautelas(ctx, e.db, store.CautelaFilter{
		Status:      f.Status,
		PersonnelID: f.PersonnelID,
		MaterialID:  f.MaterialID,
	})
	if err != nil {
		return nil, err
	}
	if cautelas == nil {
		cautelas = []model.Cautela{}
	}
	return cautelas, nil
}

// Outstanding returns how many units of a material are out on open cautelas.
func (e *Engine) Outstanding(ctx context.Context, materialID string) (int, error) {
	if _, err := e.ledger.Get(ctx, materialID); err != nil {
		return 0, err
	}
	return store.OpenQuantity(ctx, e.db, materialID)
}

// CheckConsistency compares every material's issued count with the sum of
// its open cautela lines and returns the materials where they differ.
func (e *Engine) CheckConsistency(ctx context.Context) ([]Discrepancy, error) {
	var materials []model.Material
	var open map[string]int
	err := store.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		var err error
		if materials, err = store.LoadMaterials(ctx, tx); err != nil {
			return err
		}
		open, err = store.OpenQuantities(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	var out []Discrepancy
	for _, m := range materials {
		if m.Issued() != open[m.ID] {
			out = append(out, Discrepancy{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Total:        m.TotalQuantity,
				Available:    m.AvailableQuantity,
				Open:         open[m.ID],
			})
		}
		delete(open, m.ID)
	}
	// Open lines for materials that no longer exist.
	for id, n := range open {
		out = append(out, Discrepancy{MaterialID: id, Open: n})
	}
	for _, d := range out {
		e.logger.Debugw("ledger drift", "material_id", d.MaterialID,
			"total", d.Total, "available", d.Available, "open", d.Open)
	}
	return out, nil
}

func validateItems(items []model.CautelaItem) error {
	if len(items) == 0 {
		return fmt.Errorf("a cautela needs at least one item: %w", model.ErrInvalidOperation)
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return fmt.Errorf("quantity %d for material %s: %w", it.Quantity, it.MaterialID, model.ErrInvalidQuantity)
		}
		if seen[it.MaterialID] {
			return fmt.Errorf("material %s listed twice: %w", it.MaterialID, model.ErrInvalidOperation)
		}
		seen[it.MaterialID] = true
	}
	return nil
}

// splitLines divides a cautela's lines into what is being returned and what
// stays out. An empty request returns everything.
func splitLines(c *model.Cautela, items []model.CautelaItem) (returned, remaining []model.CautelaItem, err error) {
	if len(items) == 0 {
		return append([]model.CautelaItem(nil), c.Items...), nil, nil
	}

	requested := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, nil, fmt.Errorf("quantity %d for material %s: %w", it.Quantity, it.MaterialID, model.ErrInvalidQuantity)
		}
		if _, dup := requested[it.MaterialID]; dup {
			return nil, nil, fmt.Errorf("material %s listed twice: %w", it.MaterialID, model.ErrInvalidOperation)
		}
		held := c.Quantity(it.MaterialID)
		if held == 0 {
			return nil, nil, fmt.Errorf("material %s is not on cautela %s: %w", it.MaterialID, c.ID, model.ErrInvalidOperation)
		}
		if it.Quantity > held {
			return nil, nil, fmt.Errorf("returning %d of material %s but only %d issued: %w",
				it.Quantity, it.MaterialID, held, model.ErrInvalidQuantity)
		}
		requested[it.MaterialID] = it.Quantity
	}

	for _, line := range c.Items {
		n := requested[line.MaterialID]
		if n > 0 {
			returned = append(returned, model.CautelaItem{MaterialID: line.MaterialID, Quantity: n})
		}
		if line.Quantity > n {
			remaining = append(remaining, model.CautelaItem{MaterialID: line.MaterialID, Quantity: line.Quantity - n})
		}
	}
	return returned, remaining, nil
}

func describeItems(items []model.CautelaItem, names map[string]string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		name := names[it.MaterialID]
		if name == "" {
			name = it.MaterialID
		}
		parts[i] = fmt.Sprintf("%dx %s", it.Quantity, name)
	}
	return strings.Join(parts, ", ")
}

func describePerson(p *model.Personnel, id string) string {
	if p == nil {
		return id
	}
	return fmt.Sprintf("%s (matrícula %s)", p.Name, p.RegistrationNumber)
}
