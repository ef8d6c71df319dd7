package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RevokeToken records a signed-out token until it would have expired anyway.
// Entries past their expiry are dropped on the way.
func RevokeToken(ctx context.Context, q Querier, jti string, expiresAt time.Time) error {
	if jti == "" {
		return errors.New("revoking token: empty jti")
	}
	if _, err := PruneRevokedTokens(ctx, q, time.Now()); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO UPDATE SET expires_at = excluded.expires_at`,
		jti, formatTime(expiresAt),
	)
	if err != nil {
		return fmt.Errorf("revoking token %s: %w", jti, err)
	}
	return nil
}

// IsTokenRevoked reports whether a token was signed out.
func IsTokenRevoked(ctx context.Context, q Querier, jti string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx,
		`SELECT 1 FROM revoked_tokens WHERE jti = ?`, jti,
	).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("looking up revoked token: %w", err)
	}
	return true, nil
}

// PruneRevokedTokens deletes revocations whose token has expired by now and
// returns how many were removed.
func PruneRevokedTokens(ctx context.Context, q Querier, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx,
		`DELETE FROM revoked_tokens WHERE expires_at < ?`, formatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning revoked tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning revoked tokens: %w", err)
	}
	return n, nil
}
