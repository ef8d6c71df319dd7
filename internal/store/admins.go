package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/sentinela/internal/model"
)

// InsertAdmin adds an admin to the roster.
func InsertAdmin(ctx context.Context, q Querier, a *model.Admin) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO admins (id, name, matricula, role) VALUES (?, ?, ?, ?)`,
		a.ID, a.Name, a.Matricula, a.Role,
	)
	if err != nil {
		return fmt.Errorf("inserting admin: %w", err)
	}
	return nil
}

// GetAdmin returns an admin by ID, or nil if they do not exist.
func GetAdmin(ctx context.Context, q Querier, id string) (*model.Admin, error) {
	a := &model.Admin{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, matricula, role FROM admins WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Matricula, &a.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting admin: %w", err)
	}
	return a, nil
}

// GetAdminByMatricula returns an admin by matricula, or nil.
func GetAdminByMatricula(ctx context.Context, q Querier, matricula string) (*model.Admin, error) {
	a := &model.Admin{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, matricula, role FROM admins WHERE matricula = ?`, matricula,
	).Scan(&a.ID, &a.Name, &a.Matricula, &a.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting admin by matricula: %w", err)
	}
	return a, nil
}

// ListAdmins returns the roster in the order admins were added.
func ListAdmins(ctx context.Context, q Querier) ([]model.Admin, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name, matricula, role FROM admins ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	defer rows.Close()

	admins := []model.Admin{}
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.Matricula, &a.Role); err != nil {
			return nil, fmt.Errorf("scanning admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// CountAdmins returns the size of the roster.
func CountAdmins(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return n, nil
}

// DeleteAdmin removes an admin from the roster.
func DeleteAdmin(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting admin: %w", err)
	}
	return nil
}
