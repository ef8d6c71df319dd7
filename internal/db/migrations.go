package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: cautelas are listed newest first per person.
	`CREATE INDEX IF NOT EXISTS idx_cautelas_issued_at ON cautelas(issued_at)`,
}

// Migrate runs the idempotent migrations on top of the schema.
func Migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
