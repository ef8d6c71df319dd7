package audit

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/db"
	"github.com/erazemk/sentinela/internal/store"
)

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(time.Second)
		return t
	}
}

func TestAddAndList(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	a := New(database, zap.NewNop().Sugar()).WithClock(stepClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	for i := 0; i < 25; i++ {
		_, err := a.Add(ctx, database, "Sgt. Silva", ActionLogin, "")
		require.NoError(t, err)
	}
	last, err := a.Add(ctx, database, "Sgt. Silva", ActionCautelaOpened, "Pistol M9 x1")
	require.NoError(t, err)

	logs, err := a.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, DefaultListLimit)
	assert.Equal(t, last.ID, logs[0].ID)
	assert.Equal(t, ActionCautelaOpened, logs[0].Action)
	assert.Equal(t, "Pistol M9 x1", logs[0].Details)

	logs, err = a.List(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, logs, 26)
}

func TestAddRollsBackWithTransaction(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	a := New(database, zap.NewNop().Sugar())

	errAbort := errors.New("abort")
	err := store.WithTx(ctx, database, func(tx *sql.Tx) error {
		if _, err := a.Add(ctx, tx, "Sgt. Silva", ActionMaterialCreated, "Colete"); err != nil {
			return err
		}
		return errAbort
	})
	assert.ErrorIs(t, err, errAbort)

	logs, err := a.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
