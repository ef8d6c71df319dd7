package custody

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/audit"
	"github.com/erazemk/sentinela/internal/db"
	"github.com/erazemk/sentinela/internal/inventory"
	"github.com/erazemk/sentinela/internal/model"
	"github.com/erazemk/sentinela/internal/personnel"
	"github.com/erazemk/sentinela/internal/store"
)

type fixture struct {
	db       *sql.DB
	engine   *Engine
	ledger   *inventory.Ledger
	registry *personnel.Registry
	auditor  *audit.Auditor
	session  model.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewTestDB(t)
	logger := zap.NewNop().Sugar()
	clock := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	auditor := audit.New(database, logger).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	ledger := inventory.NewLedger(database, auditor, logger)

	armorer := &model.Admin{ID: "armorer-1", Name: "Sgt. Silva", Matricula: "200", Role: model.RoleAdmin}
	require.NoError(t, store.InsertAdmin(context.Background(), database, armorer))

	return &fixture{
		db:       database,
		engine:   NewEngine(database, ledger, auditor, logger),
		ledger:   ledger,
		registry: personnel.NewRegistry(database, auditor, logger),
		auditor:  auditor,
		session:  model.SessionFor(armorer),
	}
}

func (f *fixture) material(t *testing.T, name string, total int) *model.Material {
	t.Helper()
	m, err := f.ledger.Create(context.Background(), f.session, name, "", total)
	require.NoError(t, err)
	return m
}

func (f *fixture) person(t *testing.T, name, registration string) *model.Personnel {
	t.Helper()
	p, err := f.registry.Create(context.Background(), f.session, name, registration, "Soldado")
	require.NoError(t, err)
	return p
}

func (f *fixture) available(t *testing.T, id string) int {
	t.Helper()
	m, err := f.ledger.Get(context.Background(), id)
	require.NoError(t, err)
	return m.AvailableQuantity
}

func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	d, err := f.engine.CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestPistolScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	souza := f.person(t, "Souza", "1")
	lima := f.person(t, "Lima", "2")

	a, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 4}}, "")
	require.NoError(t, err)
	assert.Equal(t, 6, f.available(t, pistol.ID))

	_, err = f.engine.Issue(ctx, f.session, lima.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 7}}, "")
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 6, f.available(t, pistol.ID))

	res, err := f.engine.Return(ctx, f.session, a.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Split)
	assert.Equal(t, model.CautelaStatusReturned, res.Returned.Status)
	require.NotNil(t, res.Returned.ReturnedAt)
	assert.Equal(t, 10, f.available(t, pistol.ID))

	f.assertConsistent(t)
}

func TestIssueIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	colete := f.material(t, "Colete", 5)
	radio := f.material(t, "Rádio", 2)
	pistol := f.material(t, "Pistol M9", 10)
	souza := f.person(t, "Souza", "1")

	_, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{
		{MaterialID: colete.ID, Quantity: 1},
		{MaterialID: pistol.ID, Quantity: 3},
		{MaterialID: radio.ID, Quantity: 3},
	}, "")
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	var se *model.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, radio.ID, se.MaterialID)
	assert.Equal(t, 2, se.Available)
	assert.Equal(t, 3, se.Requested)

	assert.Equal(t, 5, f.available(t, colete.ID))
	assert.Equal(t, 10, f.available(t, pistol.ID))
	assert.Equal(t, 2, f.available(t, radio.ID))

	list, err := f.engine.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Only the registrations were audited.
	logs, err := f.auditor.List(ctx, 100)
	require.NoError(t, err)
	for _, l := range logs {
		assert.NotEqual(t, audit.ActionCautelaOpened, l.Action)
	}
}

func TestIssueValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	souza := f.person(t, "Souza", "1")

	tests := []struct {
		name        string
		session     model.Session
		personnelID string
		items       []model.CautelaItem
		wantErr     error
	}{
		{"no items", f.session, souza.ID, nil, model.ErrInvalidOperation},
		{"zero quantity", f.session, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 0}}, model.ErrInvalidQuantity},
		{"duplicate material", f.session, souza.ID, []model.CautelaItem{
			{MaterialID: pistol.ID, Quantity: 1},
			{MaterialID: pistol.ID, Quantity: 1},
		}, model.ErrInvalidOperation},
		{"unknown personnel", f.session, "missing", []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 1}}, model.ErrNotFound},
		{"unknown armorer", model.Session{AdminID: "ghost", Name: "Ghost"}, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 1}}, model.ErrNotFound},
		{"unknown material", f.session, souza.ID, []model.CautelaItem{
			{MaterialID: pistol.ID, Quantity: 1},
			{MaterialID: "missing", Quantity: 1},
		}, model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Issue(ctx, tt.session, tt.personnelID, tt.items, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 10, f.available(t, pistol.ID))
		})
	}
}

func TestIssueRecordsCautela(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	colete := f.material(t, "Colete", 5)
	souza := f.person(t, "Souza", "1")

	c, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{
		{MaterialID: pistol.ID, Quantity: 1},
		{MaterialID: colete.ID, Quantity: 1},
	}, " Serviço noturno ")
	require.NoError(t, err)
	assert.Equal(t, model.CautelaStatusOpen, c.Status)
	assert.Equal(t, f.session.AdminID, c.ArmorerID)
	assert.Equal(t, "Serviço noturno", c.Notes)
	assert.Nil(t, c.ReturnedAt)

	got, err := f.engine.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Items, got.Items)
	assert.True(t, c.IssuedAt.Equal(got.IssuedAt))

	logs, err := f.auditor.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, audit.ActionCautelaOpened, logs[0].Action)
	assert.Equal(t, "Sgt. Silva", logs[0].ArmorerName)
	assert.Equal(t, "1x Pistol M9, 1x Colete para Souza (matrícula 1).", logs[0].Details)

	n, err := f.engine.Outstanding(ctx, pistol.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.engine.Outstanding(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestReturnTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	souza := f.person(t, "Souza", "1")

	c, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 4}}, "")
	require.NoError(t, err)

	_, err = f.engine.Return(ctx, f.session, c.ID, nil)
	require.NoError(t, err)

	_, err = f.engine.Return(ctx, f.session, c.ID, nil)
	assert.ErrorIs(t, err, model.ErrInvalidState)
	assert.Equal(t, 10, f.available(t, pistol.ID))

	_, err = f.engine.Return(ctx, f.session, "missing", nil)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPartialReturnSplits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	colete := f.material(t, "Colete", 5)
	radio := f.material(t, "Rádio", 3)
	souza := f.person(t, "Souza", "1")

	c, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{
		{MaterialID: pistol.ID, Quantity: 4},
		{MaterialID: colete.ID, Quantity: 2},
		{MaterialID: radio.ID, Quantity: 1},
	}, "Operação")
	require.NoError(t, err)

	res, err := f.engine.Return(ctx, f.session, c.ID, []model.CautelaItem{
		{MaterialID: radio.ID, Quantity: 1},
		{MaterialID: pistol.ID, Quantity: 1},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Split)

	// Returned lines keep the cautela's order.
	assert.Equal(t, []model.CautelaItem{
		{MaterialID: pistol.ID, Quantity: 1},
		{MaterialID: radio.ID, Quantity: 1},
	}, res.Returned.Items)
	assert.Equal(t, []model.CautelaItem{
		{MaterialID: pistol.ID, Quantity: 3},
		{MaterialID: colete.ID, Quantity: 2},
	}, res.Split.Items)
	assert.Equal(t, c.ID, res.Split.SplitFrom)
	assert.Equal(t, "Operação", res.Split.Notes)
	assert.True(t, c.IssuedAt.Equal(res.Split.IssuedAt))

	stored, err := f.engine.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CautelaStatusReturned, stored.Status)
	assert.Equal(t, res.Returned.Items, stored.Items)

	assert.Equal(t, 7, f.available(t, pistol.ID))
	assert.Equal(t, 3, f.available(t, colete.ID))
	assert.Equal(t, 3, f.available(t, radio.ID))
	f.assertConsistent(t)

	open, err := f.engine.List(ctx, Filter{Status: model.CautelaStatusOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, res.Split.ID, open[0].ID)

	// Returning the rest in full creates no further split.
	res2, err := f.engine.Return(ctx, f.session, res.Split.ID, []model.CautelaItem{
		{MaterialID: colete.ID, Quantity: 2},
		{MaterialID: pistol.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Nil(t, res2.Split)
	assert.Equal(t, 10, f.available(t, pistol.ID))
	f.assertConsistent(t)
}

func TestPartialReturnValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	colete := f.material(t, "Colete", 5)
	souza := f.person(t, "Souza", "1")

	c, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 2}}, "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		items   []model.CautelaItem
		wantErr error
	}{
		{"not on cautela", []model.CautelaItem{{MaterialID: colete.ID, Quantity: 1}}, model.ErrInvalidOperation},
		{"zero", []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 0}}, model.ErrInvalidQuantity},
		{"too many", []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 3}}, model.ErrInvalidQuantity},
		{"duplicate", []model.CautelaItem{
			{MaterialID: pistol.ID, Quantity: 1},
			{MaterialID: pistol.ID, Quantity: 1},
		}, model.ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Return(ctx, f.session, c.ID, tt.items)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 8, f.available(t, pistol.ID))
		})
	}
}

func TestDeleteBlockedByOpenCautela(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	souza := f.person(t, "Souza", "1")

	c, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.ledger.Delete(ctx, f.session, pistol.ID), model.ErrInvalidOperation)
	assert.ErrorIs(t, f.registry.Delete(ctx, f.session, souza.ID), model.ErrInvalidOperation)

	_, err = f.engine.Return(ctx, f.session, c.ID, nil)
	require.NoError(t, err)

	assert.NoError(t, f.registry.Delete(ctx, f.session, souza.ID))
	assert.NoError(t, f.ledger.Delete(ctx, f.session, pistol.ID))
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	colete := f.material(t, "Colete", 5)
	souza := f.person(t, "Souza", "1")
	lima := f.person(t, "Lima", "2")

	first, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 1}}, "")
	require.NoError(t, err)
	second, err := f.engine.Issue(ctx, f.session, lima.ID, []model.CautelaItem{{MaterialID: colete.ID, Quantity: 1}}, "")
	require.NoError(t, err)

	all, err := f.engine.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")

	byPerson, err := f.engine.List(ctx, Filter{PersonnelID: souza.ID})
	require.NoError(t, err)
	require.Len(t, byPerson, 1)
	assert.Equal(t, first.ID, byPerson[0].ID)

	byMaterial, err := f.engine.List(ctx, Filter{MaterialID: colete.ID})
	require.NoError(t, err)
	require.Len(t, byMaterial, 1)
	assert.Equal(t, second.ID, byMaterial[0].ID)

	_, err = f.engine.List(ctx, Filter{Status: "LOST"})
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
}

func TestCheckConsistencyReportsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	// Stock taken without a cautela.
	_, err := f.ledger.Reserve(ctx, pistol.ID, 2)
	require.NoError(t, err)

	d, err := f.engine.CheckConsistency(ctx)
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.Equal(t, pistol.ID, d[0].MaterialID)
	assert.Equal(t, 8, d[0].Available)
	assert.Zero(t, d[0].Open)
}

func TestConcurrentIssuesNeverOverIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pistol := f.material(t, "Pistol M9", 10)
	souza := f.person(t, "Souza", "1")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var issued []string
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := f.engine.Issue(ctx, f.session, souza.ID, []model.CautelaItem{{MaterialID: pistol.ID, Quantity: 3}}, "")
			if err != nil {
				assert.ErrorIs(t, err, model.ErrInsufficientStock)
				return
			}
			mu.Lock()
			issued = append(issued, c.ID)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, issued, 3)
	assert.Equal(t, 1, f.available(t, pistol.ID))
	f.assertConsistent(t)

	// Concurrent returns of the same cautela release it once.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.engine.Return(ctx, f.session, issued[0], nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, f.available(t, pistol.ID))
	f.assertConsistent(t)
}
