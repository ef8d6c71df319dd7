package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
// The single pooled connection keeps the in-memory database alive until cleanup.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, EnsureSchema(database), "creating test database schema")
	return database
}
