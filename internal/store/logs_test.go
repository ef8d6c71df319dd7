package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/sentinela/internal/db"
	"github.com/erazemk/sentinela/internal/model"
)

func TestListLogsNewestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"Login", "Material cadastrado", "Cautela aberta"} {
		require.NoError(t, InsertLog(ctx, database, &model.SystemLog{
			ID:          uuid.NewString(),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			ArmorerName: "Sgt. Silva",
			Action:      action,
		}))
	}

	logs, err := ListLogs(ctx, database, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Cautela aberta", logs[0].Action)
	assert.Equal(t, "Material cadastrado", logs[1].Action)
	assert.True(t, base.Add(2*time.Minute).Equal(logs[0].Timestamp))

	all, err := LoadLogs(ctx, database)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListLogsSameTimestampKeepsInsertionOrder(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, action := range []string{"first", "second"} {
		require.NoError(t, InsertLog(ctx, database, &model.SystemLog{ID: uuid.NewString(), Timestamp: ts, Action: action}))
	}

	logs, err := ListLogs(ctx, database, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].Action)
}
