package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/sentinela/internal/model"
)

const personnelColumns = `id, name, registration_number, rank`

// CreatePersonnel inserts a new person.
func CreatePersonnel(ctx context.Context, q Querier, p *model.Personnel) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO personnel (id, name, registration_number, rank) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.RegistrationNumber, p.Rank,
	)
	if err != nil {
		return fmt.Errorf("creating personnel: %w", err)
	}
	return nil
}

// GetPersonnel returns a person by ID, or nil if they do not exist.
func GetPersonnel(ctx context.Context, q Querier, id string) (*model.Personnel, error) {
	return getPersonnelWhere(ctx, q, `id = ?`, id)
}

// GetPersonnelByRegistration returns a person by registration number, or nil.
func GetPersonnelByRegistration(ctx context.Context, q Querier, registration string) (*model.Personnel, error) {
	return getPersonnelWhere(ctx, q, `registration_number = ?`, registration)
}

func getPersonnelWhere(ctx context.Context, q Querier, where string, arg any) (*model.Personnel, error) {
	p := &model.Personnel{}
	err := q.QueryRowContext(ctx,
		`SELECT `+personnelColumns+` FROM personnel WHERE `+where, arg,
	).Scan(&p.ID, &p.Name, &p.RegistrationNumber, &p.Rank)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting personnel: %w", err)
	}
	return p, nil
}

// ListPersonnel returns all personnel ordered by name.
func ListPersonnel(ctx context.Context, q Querier) ([]model.Personnel, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+personnelColumns+` FROM personnel ORDER BY name, rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing personnel: %w", err)
	}
	defer rows.Close()

	return scanPersonnel(rows)
}

// LoadPersonnel returns the whole personnel collection in insertion order.
func LoadPersonnel(ctx context.Context, q Querier) ([]model.Personnel, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+personnelColumns+` FROM personnel ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("loading personnel: %w", err)
	}
	defer rows.Close()

	return scanPersonnel(rows)
}

func scanPersonnel(rows *sql.Rows) ([]model.Personnel, error) {
	var people []model.Personnel
	for rows.Next() {
		var p model.Personnel
		if err := rows.Scan(&p.ID, &p.Name, &p.RegistrationNumber, &p.Rank); err != nil {
			return nil, fmt.Errorf("scanning personnel: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// UpdatePersonnel updates a person's fields.
func UpdatePersonnel(ctx context.Context, q Querier, p *model.Personnel) error {
	_, err := q.ExecContext(ctx,
		`UPDATE personnel SET name = ?, registration_number = ?, rank = ? WHERE id = ?`,
		p.Name, p.RegistrationNumber, p.Rank, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating personnel: %w", err)
	}
	return nil
}

// DeletePersonnel removes a person.
func DeletePersonnel(ctx context.Context, q Querier, id string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM personnel WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting personnel: %w", err)
	}
	return nil
}
