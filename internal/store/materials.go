package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/sentinela/internal/model"
)

const materialColumns = `id, name, category, total_quantity, available_quantity`

// CreateMaterial inserts a new material.
func CreateMaterial(ctx context.Context, q Querier, m *model.Material) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO materials (id, name, category, total_quantity, available_quantity)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Category, m.TotalQuantity, m.AvailableQuantity,
	)
	if err != nil {
		return fmt.Errorf("creating material: %w", err)
	}
	return nil
}

// GetMaterial returns a material by ID, or nil if it does not exist.
func GetMaterial(ctx context.Context, q Querier, id string) (*model.Material, error) {
	m := &model.Material{}
	err := q.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &m.Category, &m.TotalQuantity, &m.AvailableQuantity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting material: %w", err)
	}
	return m, nil
}

// ListMaterials returns materials ordered by name, optionally filtered by category.
func ListMaterials(ctx context.Context, q Querier, category string) ([]model.Material, error) {
	var rows *sql.Rows
	var err error

	if category != "" {
		rows, err = q.QueryContext(ctx,
			`SELECT `+materialColumns+` FROM materials WHERE category = ? ORDER BY name, rowid`, category,
		)
	} else {
		rows, err = q.QueryContext(ctx,
			`SELECT `+materialColumns+` FROM materials ORDER BY name, rowid`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing materials: %w", err)
	}
	defer rows.Close()

	return scanMaterials(rows)
}

// LoadMaterials returns the whole materials collection in insertion order.
func LoadMaterials(ctx context.Context, q Querier) ([]model.Material, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("loading materials: %w", err)
	}
	defer rows.Close()

	return scanMaterials(rows)
}

func scanMaterials(rows *sql.Rows) ([]model.Material, error) {
	var materials []model.Material
	for rows.Next() {
		var m model.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &m.TotalQuantity, &m.AvailableQuantity); err != nil {
			return nil, fmt.Errorf("scanning material: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// ListCategories returns the distinct non-empty material categories.
func ListCategories(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT category FROM materials WHERE category <> '' ORDER BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateMaterial updates a material's descriptive fields.
func UpdateMaterial(ctx context.Context, q Querier, id, name, category string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE materials SET name = ?, category = ? WHERE id = ?`,
		name, category, id,
	)
	if err != nil {
		return fmt.Errorf("updating material: %w", err)
	}
	return nil
}

// DecrementAvailable takes quantity out of a material's available stock.
// The check and the write are one statement; it reports false and changes
// nothing when less than quantity is available.
func DecrementAvailable(ctx context.Context, q Querier, id string, quantity int) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE materials SET available_quantity = available_quantity - ?
		 WHERE id = ? AND available_quantity >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrementing available quantity: %w", err)
	}
	return affected(result)
}

// IncrementAvailable puts quantity back into a material's available stock.
// It reports false and changes nothing when the result would exceed the total.
func IncrementAvailable(ctx context.Context, q Querier, id string, quantity int) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE materials SET available_quantity = available_quantity + ?
		 WHERE id = ? AND available_quantity + ? <= total_quantity`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("incrementing available quantity: %w", err)
	}
	return affected(result)
}

// SetQuantities overwrites both quantity fields of a material.
func SetQuantities(ctx context.Context, q Querier, id string, total, available int) error {
	_, err := q.ExecContext(ctx,
		`UPDATE materials SET total_quantity = ?, available_quantity = ? WHERE id = ?`,
		total, available, id,
	)
	if err != nil {
		return fmt.Errorf("setting material quantities: %w", err)
	}
	return nil
}

// DeleteMaterial removes a material.
func DeleteMaterial(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting material: %w", err)
	}
	return nil
}
