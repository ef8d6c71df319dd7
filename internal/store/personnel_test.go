package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/sentinela/internal/db"
	"github.com/erazemk/sentinela/internal/model"
)

func createTestPersonnel(t *testing.T, q Querier, name, registration string) *model.Personnel {
	t.Helper()
	p := &model.Personnel{ID: uuid.NewString(), Name: name, RegistrationNumber: registration, Rank: "Soldado"}
	require.NoError(t, CreatePersonnel(context.Background(), q, p))
	return p
}

func TestCreateAndGetPersonnel(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := createTestPersonnel(t, database, "Silva", "12345")

	got, err := GetPersonnel(ctx, database, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *p, *got)

	byReg, err := GetPersonnelByRegistration(ctx, database, "12345")
	require.NoError(t, err)
	require.NotNil(t, byReg)
	assert.Equal(t, p.ID, byReg.ID)

	missing, err := GetPersonnelByRegistration(ctx, database, "99999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPersonnelRegistrationIsUnique(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestPersonnel(t, database, "Silva", "12345")

	err := CreatePersonnel(ctx, database, &model.Personnel{ID: uuid.NewString(), Name: "Souza", RegistrationNumber: "12345"})
	assert.Error(t, err)
}

func TestListUpdateDeletePersonnel(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	p := createTestPersonnel(t, database, "Souza", "2")
	createTestPersonnel(t, database, "Almeida", "1")

	list, err := ListPersonnel(ctx, database)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Almeida", list[0].Name)

	p.Rank = "Cabo"
	require.NoError(t, UpdatePersonnel(ctx, database, p))
	got, _ := GetPersonnel(ctx, database, p.ID)
	assert.Equal(t, "Cabo", got.Rank)

	require.NoError(t, DeletePersonnel(ctx, database, p.ID))
	loaded, err := LoadPersonnel(ctx, database)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Almeida", loaded[0].Name)
}
