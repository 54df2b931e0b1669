package tenantdb_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/sqlite"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

func TestManager_Path(t *testing.T) {
	t.Parallel()

	m := tenantdb.New(tenantdb.Config{DataDir: "/var/lib/kbm"})
	assert.Equal(t, "/var/lib/kbm/acme.db", m.Path("acme"))
	assert.Equal(t, m.Path("acme"), m.Path("acme"))
}

func TestManager_HandleMissingDatabase(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	_, err := m.Handle(context.Background(), "ghost")
	require.ErrorIs(t, err, tenantdb.ErrDatabaseNotFound)
	assert.ErrorIs(t, err, tenant.ErrNotFound)
	assert.Equal(t, 0, m.Len())
	assert.NoFileExists(t, m.Path("ghost"), "lookup must not create files")
}

func TestManager_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)

	path, err := m.CreateDatabase(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, m.Path("acme"), path)
	assert.FileExists(t, path)

	h1, err := m.Handle(ctx, "acme")
	require.NoError(t, err)
	h2, err := m.Handle(ctx, "acme")
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, 1, m.Len())

	on, err := sqlite.ForeignKeysEnabled(ctx, h1.DB())
	require.NoError(t, err)
	assert.True(t, on)

	_, err = m.CreateDatabase(ctx, "acme")
	assert.ErrorIs(t, err, tenantdb.ErrDatabaseExists)

	require.NoError(t, m.DeleteDatabase(ctx, "acme"))
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+"-wal")
	assert.Equal(t, 0, m.Len())

	_, err = m.Handle(ctx, "acme")
	assert.ErrorIs(t, err, tenantdb.ErrDatabaseNotFound)

	assert.NoError(t, m.DeleteDatabase(ctx, "acme"), "deleting twice is fine")

	_, err = m.CreateDatabase(ctx, "acme")
	assert.NoError(t, err, "identifier can be provisioned again")
}

func TestManager_DeleteWithoutCachedHandle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	first := tenantdb.New(tenantdb.Config{DataDir: dir})
	_, err := first.CreateDatabase(ctx, "acme")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := tenantdb.New(tenantdb.Config{DataDir: dir})
	t.Cleanup(func() { _ = second.Close() })
	require.NoError(t, second.DeleteDatabase(ctx, "acme"))
	assert.NoFileExists(t, filepath.Join(dir, "acme.db"))
}

func TestManager_SchemaFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	m := newManager(t, tenantdb.WithSchema(func(context.Context, *sqlx.DB) error {
		return errors.New("boom")
	}))
	_, err := m.CreateDatabase(context.Background(), "acme")
	require.ErrorIs(t, err, tenantdb.ErrFailedToApplySchema)
	assert.NoFileExists(t, m.Path("acme"))
	assert.Equal(t, 0, m.Len())
}

func TestManager_ForeignKeysEnforced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)
	provision(t, m, "acme")

	h, err := m.Handle(ctx, "acme")
	require.NoError(t, err)
	_, err = h.DB().ExecContext(ctx, "INSERT INTO item_checkouts (item_id) VALUES (999)")
	require.Error(t, err)
	assert.True(t, sqlite.IsForeignKeyViolation(err))
}

func TestManager_ConcurrentFirstAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	setup := tenantdb.New(tenantdb.Config{DataDir: dir})
	_, err := setup.CreateDatabase(ctx, "acme")
	require.NoError(t, err)
	require.NoError(t, setup.Close())

	m := tenantdb.New(tenantdb.Config{DataDir: dir})
	t.Cleanup(func() { _ = m.Close() })

	const workers = 32
	handles := make([]*tenantdb.Handle, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h, err := m.Handle(ctx, "acme")
			assert.NoError(t, err)
			handles[n] = h
		}(i)
	}
	wg.Wait()

	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Metrics().HandleOpens.WithLabelValues("success")))
}

func TestManager_ConcurrentTenants(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)
	ids := []tenant.ID{"acme", "globex", "initech", "umbrella"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id tenant.ID) {
			defer wg.Done()
			_, err := m.CreateDatabase(ctx, id)
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()
	assert.Equal(t, len(ids), m.Len())
}

func TestManager_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := tenantdb.New(tenantdb.Config{DataDir: t.TempDir()})
	provision(t, m, "acme")

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Handle(ctx, "acme")
	assert.ErrorIs(t, err, tenantdb.ErrManagerClosed)
	_, err = m.CreateDatabase(ctx, "globex")
	assert.ErrorIs(t, err, tenantdb.ErrManagerClosed)
	assert.FileExists(t, m.Path("acme"), "closing keeps data")
}

func TestManager_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := newManager(t)
	provision(t, m, "acme")

	h, err := m.Handle(ctx, "acme")
	require.NoError(t, err)
	_, err = h.DB().ExecContext(ctx, `INSERT INTO items (type, label) VALUES ('Key', 'K-1'), ('Lockbox', 'LB-1')`)
	require.NoError(t, err)
	_, err = h.DB().ExecContext(ctx, `INSERT INTO contacts (name) VALUES ('Jo')`)
	require.NoError(t, err)
	_, err = h.DB().ExecContext(ctx, `INSERT INTO item_checkouts (item_id) VALUES (1)`)
	require.NoError(t, err)
	_, err = h.DB().ExecContext(ctx, `INSERT INTO item_checkouts (item_id, returned_at) VALUES (2, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	st, err := m.Stats(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, tenantdb.Stats{Items: 2, ActiveCheckouts: 1, Contacts: 1}, st)

	_, err = m.Stats(ctx, "ghost")
	assert.ErrorIs(t, err, tenantdb.ErrDatabaseNotFound)
}

func TestManager_Exists(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	ok, err := m.Exists("acme")
	require.NoError(t, err)
	assert.False(t, ok)

	provision(t, m, "acme")
	ok, err = m.Exists("acme")
	require.NoError(t, err)
	assert.True(t, ok)

	_, statErr := os.Stat(m.Path("acme"))
	assert.NoError(t, statErr)
}
