package store

import (
	"context"
	"fmt"

	"github.com/erazemk/sentinela/internal/model"
)

// LoadDataset reads all five collections. Run it inside a transaction to get
// a point-in-time snapshot.
func LoadDataset(ctx context.Context, q Querier) (*model.Dataset, error) {
	var ds model.Dataset
	var err error

	if ds.Materials, err = LoadMaterials(ctx, q); err != nil {
		return nil, err
	}
	if ds.Personnel, err = LoadPersonnel(ctx, q); err != nil {
		return nil, err
	}
	if ds.Cautelas, err = LoadCautelas(ctx, q); err != nil {
		return nil, err
	}
	if ds.Logs, err = LoadLogs(ctx, q); err != nil {
		return nil, err
	}
	settings, err := LoadSettings(ctx, q)
	if err != nil {
		return nil, err
	}
	ds.Settings = *settings

	// Collections are always arrays in exports, never null.
	if ds.Materials == nil {
		ds.Materials = []model.Material{}
	}
	if ds.Personnel == nil {
		ds.Personnel = []model.Personnel{}
	}
	if ds.Cautelas == nil {
		ds.Cautelas = []model.Cautela{}
	}
	if ds.Logs == nil {
		ds.Logs = []model.SystemLog{}
	}
	return &ds, nil
}

// ReplaceAll rewrites every collection with the contents of ds. The JWT secret
// and the token revocation list are kept. Call it inside a transaction.
func ReplaceAll(ctx context.Context, q Querier, ds *model.Dataset) error {
	for _, stmt := range []string{
		`DELETE FROM cautela_items`,
		`DELETE FROM cautelas`,
		`DELETE FROM materials`,
		`DELETE FROM personnel`,
		`DELETE FROM logs`,
		`DELETE FROM admins`,
	} {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing data: %w", err)
		}
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM settings WHERE key <> ?`, KeyJWTSecret); err != nil {
		return fmt.Errorf("clearing settings: %w", err)
	}

	for i := range ds.Materials {
		if err := CreateMaterial(ctx, q, &ds.Materials[i]); err != nil {
			return err
		}
	}
	for i := range ds.Personnel {
		if err := CreatePersonnel(ctx, q, &ds.Personnel[i]); err != nil {
			return err
		}
	}
	for i := range ds.Cautelas {
		if err := InsertCautela(ctx, q, &ds.Cautelas[i]); err != nil {
			return err
		}
	}
	// Logs are held newest first; inserting oldest first keeps ties in order.
	for i := len(ds.Logs) - 1; i >= 0; i-- {
		if err := InsertLog(ctx, q, &ds.Logs[i]); err != nil {
			return err
		}
	}

	s := ds.Settings
	if err := SetSetting(ctx, q, KeyInstitutionName, s.InstitutionName); err != nil {
		return err
	}
	if s.InstitutionLogo != "" {
		if err := SetSetting(ctx, q, KeyInstitutionLogo, s.InstitutionLogo); err != nil {
			return err
		}
	}
	if err := SetSetting(ctx, q, KeyTheme, s.Theme); err != nil {
		return err
	}
	for i := range s.Admins {
		if err := InsertAdmin(ctx, q, &s.Admins[i]); err != nil {
			return err
		}
	}
	return nil
}
