package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/sentinela/internal/db"
	"github.com/erazemk/sentinela/internal/model"
)

func seedDataset(t *testing.T, q Querier) {
	t.Helper()
	ctx := context.Background()

	m := createTestMaterial(t, q, "Pistol M9", "Armamento", 10)
	p := createTestPersonnel(t, q, "Silva", "123")
	_, err := DecrementAvailable(ctx, q, m.ID, 4)
	require.NoError(t, err)
	insertTestCautela(t, q, p.ID, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		model.CautelaItem{MaterialID: m.ID, Quantity: 4})
	require.NoError(t, InsertAdmin(ctx, q, &model.Admin{ID: "a1", Name: "Cap. Lima", Matricula: "100", Role: model.RoleSuperAdmin}))
	require.NoError(t, InsertLog(ctx, q, &model.SystemLog{ID: "l1", Timestamp: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), ArmorerName: "Cap. Lima", Action: "Sistema"}))
	require.NoError(t, InsertLog(ctx, q, &model.SystemLog{ID: "l2", Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), ArmorerName: "Cap. Lima", Action: "Cautela aberta"}))
	require.NoError(t, SetSetting(ctx, q, KeyTheme, model.ThemeDark))
	require.NoError(t, SetSetting(ctx, q, KeyInstitutionLogo, "data:image/jpeg;base64,AAAA"))
}

func TestLoadDatasetEmpty(t *testing.T) {
	database := db.NewTestDB(t)

	ds, err := LoadDataset(context.Background(), database)
	require.NoError(t, err)
	assert.NotNil(t, ds.Materials)
	assert.NotNil(t, ds.Personnel)
	assert.NotNil(t, ds.Cautelas)
	assert.NotNil(t, ds.Logs)
	assert.Equal(t, model.DefaultInstitutionName, ds.Settings.InstitutionName)
}

func TestReplaceAllRoundTrip(t *testing.T) {
	src := db.NewTestDB(t)
	dst := db.NewTestDB(t)
	ctx := context.Background()

	seedDataset(t, src)
	want, err := LoadDataset(ctx, src)
	require.NoError(t, err)

	// The destination has unrelated data and its own secret.
	createTestMaterial(t, dst, "Rádio", "", 2)
	secret, err := GetJWTSecret(ctx, dst)
	require.NoError(t, err)

	err = WithTx(ctx, dst, func(tx *sql.Tx) error {
		return ReplaceAll(ctx, tx, want)
	})
	require.NoError(t, err)

	got, err := LoadDataset(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	kept, err := GetJWTSecret(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, secret, kept)
}
