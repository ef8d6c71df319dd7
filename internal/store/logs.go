package store

import (
	"context"
	"fmt"

	"github.com/erazemk/sentinela/internal/model"
)

// InsertLog appends an audit entry.
func InsertLog(ctx context.Context, q Querier, l *model.SystemLog) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO logs (id, timestamp, armorer_name, action, details) VALUES (?, ?, ?, ?, ?)`,
		l.ID, formatTime(l.Timestamp), l.ArmorerName, l.Action, l.Details,
	)
	if err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}
	return nil
}

// ListLogs returns the newest limit entries, newest first. A limit of 0 or
// less returns every entry.
func ListLogs(ctx context.Context, q Querier, limit int) ([]model.SystemLog, error) {
	query := `SELECT id, timestamp, armorer_name, action, details FROM logs
		ORDER BY timestamp DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	var logs []model.SystemLog
	for rows.Next() {
		var l model.SystemLog
		var ts string
		if err := rows.Scan(&l.ID, &ts, &l.ArmorerName, &l.Action, &l.Details); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		if l.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// LoadLogs returns the whole audit log, newest first.
func LoadLogs(ctx context.Context, q Querier) ([]model.SystemLog, error) {
	return ListLogs(ctx, q, 0)
}
