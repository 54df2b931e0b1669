package controlplane_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/controlplane"
	"github.com/dmitrymomot/kbm/pkg/pg"
	"github.com/dmitrymomot/kbm/pkg/tenant"
)

func sampleTenant(id tenant.ID, status tenant.Status) *tenant.Tenant {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return &tenant.Tenant{
		ID:           id,
		Name:         "Company " + id.String(),
		Status:       status,
		DatabasePath: "data/tenants/" + id.String() + ".db",
		Quotas:       tenant.DefaultQuotas(),
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, store controlplane.Store) {
	ctx := context.Background()

	_, err := store.FindByIdentifier(ctx, "acme")
	require.ErrorIs(t, err, tenant.ErrTenantNotFound)

	acme := sampleTenant("acme", tenant.StatusActive)
	require.NoError(t, store.Create(ctx, acme))
	require.NoError(t, store.Create(ctx, sampleTenant("globex", tenant.StatusSuspended)))
	require.NoError(t, store.Create(ctx, sampleTenant("initech", tenant.StatusActive)))

	err = store.Create(ctx, sampleTenant("acme", tenant.StatusActive))
	assert.ErrorIs(t, err, controlplane.ErrAlreadyExists)

	got, err := store.FindByIdentifier(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, acme.Name, got.Name)
	assert.Equal(t, acme.Status, got.Status)
	assert.Equal(t, acme.DatabasePath, got.DatabasePath)
	assert.Equal(t, acme.Quotas, got.Quotas)
	assert.True(t, acme.CreatedAt.Equal(got.CreatedAt))

	all, err := store.List(ctx, controlplane.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, tenant.ID("acme"), all[0].ID)
	assert.Equal(t, tenant.ID("initech"), all[2].ID)

	active, err := store.List(ctx, controlplane.Filter{Status: tenant.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	page, err := store.List(ctx, controlplane.Filter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, tenant.ID("globex"), page[0].ID)

	later := acme.UpdatedAt.Add(time.Hour)
	updated, err := store.UpdateStatus(ctx, "acme", tenant.StatusSuspended, later)
	require.NoError(t, err)
	assert.Equal(t, tenant.StatusSuspended, updated.Status)
	assert.True(t, later.Equal(updated.UpdatedAt))

	_, err = store.UpdateStatus(ctx, "ghost", tenant.StatusSuspended, later)
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)

	require.NoError(t, store.Delete(ctx, "acme"))
	assert.ErrorIs(t, store.Delete(ctx, "acme"), tenant.ErrTenantNotFound)
	_, err = store.FindByIdentifier(ctx, "acme")
	assert.ErrorIs(t, err, tenant.ErrTenantNotFound)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	testStore(t, controlplane.NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	reg, err := controlplane.Open(context.Background(), controlplane.Config{
		Driver:     controlplane.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "registry", "master.db"),
	}, pg.Config{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	require.NoError(t, reg.Healthcheck(context.Background()))

	testStore(t, reg.Store)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	reg, err := controlplane.Open(ctx, controlplane.Config{Driver: controlplane.DriverPostgres},
		pg.Config{ConnectionString: url, RetryAttempts: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	// Start from an empty registry.
	all, err := reg.Store.List(ctx, controlplane.Filter{})
	require.NoError(t, err)
	for _, tn := range all {
		require.NoError(t, reg.Store.Delete(ctx, tn.ID))
	}

	testStore(t, reg.Store)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := controlplane.Open(context.Background(), controlplane.Config{Driver: "mongo"}, pg.Config{}, nil)
	assert.ErrorIs(t, err, controlplane.ErrUnknownDriver)
}
