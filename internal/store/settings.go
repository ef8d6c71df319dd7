package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/sentinela/internal/model"
)

// Setting keys.
const (
	KeyJWTSecret       = "jwt_secret"
	KeyInstitutionName = "institution_name"
	KeyInstitutionLogo = "institution_logo"
	KeyTheme           = "theme"
)

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		KeyJWTSecret, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	// Always read back (either our insert or the existing value).
	secret, _, err := GetSetting(ctx, q, KeyJWTSecret)
	if err != nil {
		return "", err
	}
	return secret, nil
}

// GetSetting returns the value of a setting and whether it is set.
func GetSetting(ctx context.Context, q Querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores the value of a setting.
func SetSetting(ctx context.Context, q Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting unsets a setting.
func DeleteSetting(ctx context.Context, q Querier, key string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting setting %s: %w", key, err)
	}
	return nil
}

// InitInstitutionName stores name as the institution name unless one is
// already set.
func InitInstitutionName(ctx context.Context, q Querier, name string) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		KeyInstitutionName, name,
	)
	if err != nil {
		return fmt.Errorf("initializing institution name: %w", err)
	}
	return nil
}

// LoadSettings returns the institution settings and the admin roster, with
// defaults for anything not yet set.
func LoadSettings(ctx context.Context, q Querier) (*model.AppSettings, error) {
	s := &model.AppSettings{
		InstitutionName: model.DefaultInstitutionName,
		Theme:           model.ThemeLight,
	}

	rows, err := q.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE key IN (?, ?, ?)`,
		KeyInstitutionName, KeyInstitutionLogo, KeyTheme,
	)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		switch key {
		case KeyInstitutionName:
			s.InstitutionName = value
		case KeyInstitutionLogo:
			s.InstitutionLogo = value
		case KeyTheme:
			s.Theme = value
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	rows.Close()

	if s.Admins, err = ListAdmins(ctx, q); err != nil {
		return nil, err
	}
	return s, nil
}
