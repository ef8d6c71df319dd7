package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erazemk/sentinela/internal/audit"
	"github.com/erazemk/sentinela/internal/db"
	"github.com/erazemk/sentinela/internal/model"
)

func newTestGate(t *testing.T) (*Gate, *audit.Auditor) {
	t.Helper()
	database := db.NewTestDB(t)
	logger := zap.NewNop().Sugar()
	auditor := audit.New(database, logger)
	return NewGate(database, auditor, logger), auditor
}

func TestFirstLoginBootstrapsSuperAdmin(t *testing.T) {
	gate, auditor := newTestGate(t)
	ctx := context.Background()

	ok, err := gate.IsBootstrapped(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := gate.Login(ctx, "Cap. Lima", "100")
	require.NoError(t, err)
	assert.True(t, res.Bootstrapped)
	assert.Equal(t, model.RoleSuperAdmin, res.Session.Role)
	assert.True(t, res.Session.IsSuperAdmin())

	ok, err = gate.IsBootstrapped(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	logs, err := auditor.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, audit.ActionSystem, logs[0].Action)
	assert.Equal(t, "Super Administrador registrado e sistema inicializado.", logs[0].Details)
}

func TestBootstrapNeverRetriggers(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	_, err := gate.Login(ctx, "Cap. Lima", "100")
	require.NoError(t, err)

	_, err = gate.Login(ctx, "Intruso", "999")
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	admins, err := gate.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}

func TestLoginValidation(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		matricula string
	}{
		{"", "100"},
		{"Cap. Lima", ""},
		{"  ", "  "},
	}
	for _, tt := range tests {
		_, err := gate.Login(ctx, tt.name, tt.matricula)
		assert.ErrorIs(t, err, model.ErrInvalidOperation, "Login(%q, %q)", tt.name, tt.matricula)
	}

	ok, err := gate.IsBootstrapped(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "invalid logins must not bootstrap")
}

func TestLoginDoesNotRecheckName(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	_, err := gate.Login(ctx, "Cap. Lima", "100")
	require.NoError(t, err)

	res, err := gate.Login(ctx, "Outro Nome", "100")
	require.NoError(t, err)
	assert.False(t, res.Bootstrapped)
	assert.Equal(t, "Cap. Lima", res.Session.Name)
}

func TestAddedAdminCanLogIn(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	super, err := gate.Login(ctx, "Cap. Lima", "100")
	require.NoError(t, err)

	added, err := gate.AddAdmin(ctx, super.Session, "Sgt. Silva", "200")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, added.Role)

	res, err := gate.Login(ctx, "Sgt. Silva", "200")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Session.Role)
	assert.Equal(t, added.ID, res.Session.AdminID)
}

func TestRoleGate(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	super, err := gate.Login(ctx, "Cap. Lima", "100")
	require.NoError(t, err)
	silva, err := gate.AddAdmin(ctx, super.Session, "Sgt. Silva", "200")
	require.NoError(t, err)
	souza, err := gate.AddAdmin(ctx, super.Session, "Cb. Souza", "300")
	require.NoError(t, err)

	silvaSession := model.SessionFor(silva)

	_, err = gate.AddAdmin(ctx, silvaSession, "Sd. Costa", "400")
	assert.ErrorIs(t, err, model.ErrForbidden)

	err = gate.RemoveAdmin(ctx, silvaSession, souza.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	// A forged session role does not help: the stored role is checked.
	forged := silvaSession
	forged.Role = model.RoleSuperAdmin
	_, err = gate.AddAdmin(ctx, forged, "Sd. Costa", "400")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = gate.AddAdmin(ctx, super.Session, "Dup", "200")
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	_, err = gate.AddAdmin(ctx, super.Session, "", "500")
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	err = gate.RemoveAdmin(ctx, super.Session, super.Session.AdminID)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	err = gate.RemoveAdmin(ctx, super.Session, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, gate.RemoveAdmin(ctx, super.Session, souza.ID))

	_, err = gate.Login(ctx, "Cb. Souza", "300")
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	_, err = gate.Authenticate(ctx, souza.ID)
	assert.ErrorIs(t, err, model.ErrAccessDenied)

	// Removed actors are denied, not forbidden.
	_, err = gate.AddAdmin(ctx, model.SessionFor(souza), "X", "600")
	assert.ErrorIs(t, err, model.ErrAccessDenied)
}

func TestSuperAdminCannotBeRemoved(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	super, err := gate.Login(ctx, "Cap. Lima", "100")
	require.NoError(t, err)

	silva, err := gate.AddAdmin(ctx, super.Session, "Sgt. Silva", "200")
	require.NoError(t, err)
	err = gate.RemoveAdmin(ctx, model.SessionFor(silva), super.Session.AdminID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	session, err := gate.Authenticate(ctx, super.Session.AdminID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleSuperAdmin, session.Role)
}
