package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// Timestamps are stored as fixed-width RFC 3339 text (see store.formatTime)
// so that lexical order is chronological order.
const schema = `
CREATE TABLE IF NOT EXISTS admins (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    matricula TEXT NOT NULL UNIQUE,
    role      TEXT NOT NULL CHECK (role IN ('ADMIN', 'SUPER_ADMIN'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_admins_single_super
    ON admins(role) WHERE role = 'SUPER_ADMIN';

CREATE TABLE IF NOT EXISTS personnel (
    id                  TEXT PRIMARY KEY,
    name                TEXT NOT NULL,
    registration_number TEXT NOT NULL UNIQUE,
    rank                TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS materials (
    id                 TEXT PRIMARY KEY,
    name               TEXT NOT NULL,
    category           TEXT NOT NULL DEFAULT '',
    total_quantity     INTEGER NOT NULL CHECK (total_quantity >= 0),
    available_quantity INTEGER NOT NULL CHECK (available_quantity >= 0),
    CHECK (available_quantity <= total_quantity)
);

CREATE TABLE IF NOT EXISTS cautelas (
    id           TEXT PRIMARY KEY,
    personnel_id TEXT NOT NULL,
    armorer_id   TEXT NOT NULL,
    issued_at    TEXT NOT NULL,
    status       TEXT NOT NULL CHECK (status IN ('OPEN', 'RETURNED')),
    returned_at  TEXT,
    notes        TEXT NOT NULL DEFAULT '',
    split_from   TEXT NOT NULL DEFAULT '',
    CHECK ((status = 'OPEN' AND returned_at IS NULL) OR (status = 'RETURNED' AND returned_at IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_cautelas_status ON cautelas(status);
CREATE INDEX IF NOT EXISTS idx_cautelas_personnel ON cautelas(personnel_id);

CREATE TABLE IF NOT EXISTS cautela_items (
    cautela_id  TEXT NOT NULL REFERENCES cautelas(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    material_id TEXT NOT NULL,
    quantity    INTEGER NOT NULL CHECK (quantity > 0),
    PRIMARY KEY (cautela_id, material_id)
);

CREATE INDEX IF NOT EXISTS idx_cautela_items_material ON cautela_items(material_id);

CREATE TABLE IF NOT EXISTS logs (
    id           TEXT PRIMARY KEY,
    timestamp    TEXT NOT NULL,
    armorer_name TEXT NOT NULL,
    action       TEXT NOT NULL,
    details      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist,
// then applies pending migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return Migrate(db)
}
