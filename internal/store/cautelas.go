package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/sentinela/internal/model"
)

const cautelaColumns = `id, personnel_id, armorer_id, issued_at, status, returned_at, notes, split_from`

// CautelaFilter narrows ListCautelas. Empty fields match everything.
type CautelaFilter struct {
	Status      string
	PersonnelID string
	MaterialID  string
}

// InsertCautela inserts a cautela and its item lines.
func InsertCautela(ctx context.Context, q Querier, c *model.Cautela) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO cautelas (id, personnel_id, armorer_id, issued_at, status, returned_at, notes, split_from)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PersonnelID, c.ArmorerID, formatTime(c.IssuedAt), c.Status,
		formatNullTime(c.ReturnedAt), c.Notes, c.SplitFrom,
	)
	if err != nil {
		return fmt.Errorf("inserting cautela: %w", err)
	}
	return insertItems(ctx, q, c.ID, c.Items)
}

func insertItems(ctx context.Context, q Querier, cautelaID string, items []model.CautelaItem) error {
	for i, it := range items {
		_, err := q.ExecContext(ctx,
			`INSERT INTO cautela_items (cautela_id, position, material_id, quantity) VALUES (?, ?, ?, ?)`,
			cautelaID, i, it.MaterialID, it.Quantity,
		)
		if err != nil {
			return fmt.Errorf("inserting cautela item: %w", err)
		}
	}
	return nil
}

// GetCautela returns a cautela with its items, or nil if it does not exist.
func GetCautela(ctx context.Context, q Querier, id string) (*model.Cautela, error) {
	var c model.Cautela
	var issuedAt string
	var returnedAt sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT `+cautelaColumns+` FROM cautelas WHERE id = ?`, id,
	).Scan(&c.ID, &c.PersonnelID, &c.ArmorerID, &issuedAt, &c.Status, &returnedAt, &c.Notes, &c.SplitFrom)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cautela: %w", err)
	}
	if err := setCautelaTimes(&c, issuedAt, returnedAt); err != nil {
		return nil, err
	}

	cautelas := []model.Cautela{c}
	if err := attachItems(ctx, q, cautelas); err != nil {
		return nil, err
	}
	return &cautelas[0], nil
}

// ListCautelas returns cautelas newest first.
func ListCautelas(ctx context.Context, q Querier, f CautelaFilter) ([]model.Cautela, error) {
	var where []string
	var args []any
	if f.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, f.Status)
	}
	if f.PersonnelID != "" {
		where = append(where, `personnel_id = ?`)
		args = append(args, f.PersonnelID)
	}
	if f.MaterialID != "" {
		where = append(where, `EXISTS (SELECT 1 FROM cautela_items ci WHERE ci.cautela_id = cautelas.id AND ci.material_id = ?)`)
		args = append(args, f.MaterialID)
	}

	query := `SELECT ` + cautelaColumns + ` FROM cautelas`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY issued_at DESC, rowid DESC`

	return queryCautelas(ctx, q, "listing cautelas", query, args...)
}

// LoadCautelas returns the whole cautelas collection in insertion order.
func LoadCautelas(ctx context.Context, q Querier) ([]model.Cautela, error) {
	return queryCautelas(ctx, q, "loading cautelas",
		`SELECT `+cautelaColumns+` FROM cautelas ORDER BY rowid`)
}

func queryCautelas(ctx context.Context, q Querier, op, query string, args ...any) ([]model.Cautela, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cautelas []model.Cautela
	for rows.Next() {
		var c model.Cautela
		var issuedAt string
		var returnedAt sql.NullString
		if err := rows.Scan(&c.ID, &c.PersonnelID, &c.ArmorerID, &issuedAt, &c.Status, &returnedAt, &c.Notes, &c.SplitFrom); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning cautela: %w", err)
		}
		if err := setCautelaTimes(&c, issuedAt, returnedAt); err != nil {
			rows.Close()
			return nil, err
		}
		cautelas = append(cautelas, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// Items are read with a second query, which needs the connection back.
	rows.Close()

	if err := attachItems(ctx, q, cautelas); err != nil {
		return nil, err
	}
	return cautelas, nil
}

func setCautelaTimes(c *model.Cautela, issuedAt string, returnedAt sql.NullString) error {
	var err error
	if c.IssuedAt, err = parseTime(issuedAt); err != nil {
		return err
	}
	if c.ReturnedAt, err = parseNullTime(returnedAt); err != nil {
		return err
	}
	return nil
}

// attachItems fills in the item lines of every cautela with one query.
func attachItems(ctx context.Context, q Querier, cautelas []model.Cautela) error {
	if len(cautelas) == 0 {
		return nil
	}

	index := make(map[string]int, len(cautelas))
	for i, c := range cautelas {
		index[c.ID] = i
		cautelas[i].Items = []model.CautelaItem{}
	}

	var rows *sql.Rows
	var err error
	if len(cautelas) == 1 {
		rows, err = q.QueryContext(ctx,
			`SELECT cautela_id, material_id, quantity FROM cautela_items
			 WHERE cautela_id = ? ORDER BY position`, cautelas[0].ID,
		)
	} else {
		rows, err = q.QueryContext(ctx,
			`SELECT cautela_id, material_id, quantity FROM cautela_items ORDER BY cautela_id, position`,
		)
	}
	if err != nil {
		return fmt.Errorf("loading cautela items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cautelaID string
		var it model.CautelaItem
		if err := rows.Scan(&cautelaID, &it.MaterialID, &it.Quantity); err != nil {
			return fmt.Errorf("scanning cautela item: %w", err)
		}
		if i, ok := index[cautelaID]; ok {
			cautelas[i].Items = append(cautelas[i].Items, it)
		}
	}
	return rows.Err()
}

// CloseCautela marks an open cautela as returned. When items is non-nil the
// cautela's lines are replaced by items first. It reports false and changes
// nothing if the cautela is not open.
func CloseCautela(ctx context.Context, q Querier, id string, returnedAt time.Time, items []model.CautelaItem) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE cautelas SET status = ?, returned_at = ? WHERE id = ? AND status = ?`,
		model.CautelaStatusReturned, formatTime(returnedAt), id, model.CautelaStatusOpen,
	)
	if err != nil {
		return false, fmt.Errorf("closing cautela: %w", err)
	}
	ok, err := affected(result)
	if err != nil || !ok {
		return ok, err
	}

	if items != nil {
		if _, err := q.ExecContext(ctx, `DELETE FROM cautela_items WHERE cautela_id = ?`, id); err != nil {
			return false, fmt.Errorf("clearing cautela items: %w", err)
		}
		if err := insertItems(ctx, q, id, items); err != nil {
			return false, err
		}
	}
	return true, nil
}

// OpenQuantity returns the quantity of a material out on open cautelas.
func OpenQuantity(ctx context.Context, q Querier, materialID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ci.quantity), 0)
		 FROM cautela_items ci JOIN cautelas c ON c.id = ci.cautela_id
		 WHERE c.status = 'OPEN' AND ci.material_id = ?`, materialID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("summing open quantity: %w", err)
	}
	return n, nil
}

// OpenQuantities returns the open quantity of every material that has one.
func OpenQuantities(ctx context.Context, q Querier) (map[string]int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ci.material_id, SUM(ci.quantity)
		 FROM cautela_items ci JOIN cautelas c ON c.id = ci.cautela_id
		 WHERE c.status = 'OPEN' GROUP BY ci.material_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("summing open quantities: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning open quantity: %w", err)
		}
		sums[id] = n
	}
	return sums, rows.Err()
}

// CountOpenCautelas returns the number of open cautelas, optionally only those
// held by one person.
func CountOpenCautelas(ctx context.Context, q Querier, personnelID string) (int, error) {
	query := `SELECT COUNT(*) FROM cautelas WHERE status = 'OPEN'`
	var args []any
	if personnelID != "" {
		query += ` AND personnel_id = ?`
		args = append(args, personnelID)
	}

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting open cautelas: %w", err)
	}
	return n, nil
}
