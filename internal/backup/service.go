// Package backup exports the whole dataset as a portable archive and
// restores it, all or nothing.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/store"
)

// Backup formats.
const (
	FormatZIP  = "zip"
	FormatJSON = "json"
)

// DefaultMaxBytes is the largest archive Restore accepts unless configured.
const DefaultMaxBytes = 32 << 20

// Service creates and restores backups.
type Service struct {
	db       *sql.DB
	logger   *zap.SugaredLogger
	maxBytes int64
	now      func() time.Time
}

// NewService creates a Service. maxBytes bounds both the archive and its
// inflated contents; 0 means DefaultMaxBytes.
func NewService(db *sql.DB, logger *zap.SugaredLogger, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{db: db, logger: logger, maxBytes: maxBytes, now: time.Now}
}

// RestoreResult reports what a successful Restore replaced the data with.
type RestoreResult struct {
	Format string         `json:"format"`
	Counts map[string]int `json:"counts"`
}

// Snapshot reads all five collections at one point in time.
func (s *Service) Snapshot(ctx context.Context) (*model.Dataset, error) {
	var ds *model.Dataset
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		ds, err = store.LoadDataset(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("taking snapshot: %w", err)
	}
	return ds, nil
}

// Create writes a ZIP backup to w. The snapshot is taken first, so nothing is
// held open on the database while w is written.
func (s *Service) Create(ctx context.Context, w io.Writer) error {
	ds, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := writeZip(w, ds, s.now().UTC()); err != nil {
		return err
	}
	s.logger.Infow("backup created", "format", FormatZIP, "counts", counts(ds))
	return nil
}

// CreateJSON writes a single-document JSON backup to w.
func (s *Service) CreateJSON(ctx context.Context, w io.Writer) error {
	ds, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := writeJSON(w, ds); err != nil {
		return err
	}
	s.logger.Infow("backup created", "format", FormatJSON, "counts", counts(ds))
	return nil
}

// Write writes a backup in the given format.
func (s *Service) Write(ctx context.Context, w io.Writer, format string) error {
	switch format {
	case FormatZIP, "":
		return s.Create(ctx, w)
	case FormatJSON:
		return s.CreateJSON(ctx, w)
	default:
		return fmt.Errorf("unknown backup format %q: %w", format, model.ErrInvalidOperation)
	}
}

// Restore replaces all data with the backup read from r, in either format.
// The whole backup is read and validated before anything is written; a
// *ValidationError means the database is untouched. The JWT secret and the
// token revocation list survive a restore.
func (s *Service) Restore(ctx context.Context, r io.Reader) (*RestoreResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, invalid("backup larger than %d bytes", s.maxBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, invalid("backup is empty")
	}

	sections, format, err := readSections(data, s.maxBytes)
	if err != nil {
		return nil, err
	}
	ds, err := decodeDataset(sections)
	if err != nil {
		return nil, err
	}
	if err := validateDataset(ds); err != nil {
		return nil, err
	}

	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return store.ReplaceAll(ctx, tx, ds)
	})
	if err != nil {
		return nil, fmt.Errorf("restoring backup: %w", err)
	}

	result := &RestoreResult{Format: format, Counts: counts(ds)}
	s.logger.Infow("backup restored", "format", format, "counts", result.Counts)
	return result, nil
}
