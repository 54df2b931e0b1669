package tenantdb_test

import (
	"context"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/sqlite"
	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

func TestSession_UnitOfWork(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	provision(t, m, "acme")
	ctx := sessionContext(t, m, "acme")

	key := &item{Type: "Key", Label: "K-1", Status: "available"}
	require.NoError(t, tenantdb.Add(ctx, key))
	assert.Zero(t, key.ID, "nothing is written before flush")

	items, err := tenantdb.Query[item](ctx)
	require.NoError(t, err)
	require.Len(t, items, 1, "reads autoflush")
	assert.NotZero(t, key.ID)
	assert.Equal(t, key.ID, items[0].ID)

	require.NoError(t, tenantdb.Rollback(ctx))
	items, err = tenantdb.Query[item](ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	sign := &item{Type: "Sign", Label: "S-1", Status: "available"}
	require.NoError(t, tenantdb.Add(ctx, sign))
	require.NoError(t, tenantdb.Commit(ctx))

	other := sessionContext(t, m, "acme")
	got, err := tenantdb.Get[item](other, sign.ID)
	require.NoError(t, err)
	assert.Equal(t, "S-1", got.Label)
}

func TestSession_UpsertAndDelete(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	provision(t, m, "acme")
	ctx := sessionContext(t, m, "acme")

	lb := &item{Type: "Lockbox", Label: "LB-1", Status: "available"}
	require.NoError(t, tenantdb.Add(ctx, lb))
	require.NoError(t, tenantdb.Commit(ctx))

	lb.Status = "checked_out"
	require.NoError(t, tenantdb.Add(ctx, lb))
	require.NoError(t, tenantdb.Commit(ctx))

	got, err := tenantdb.Get[item](ctx, lb.ID)
	require.NoError(t, err)
	assert.Equal(t, "checked_out", got.Status)

	out, err := tenantdb.Query[item](ctx, sq.Eq{"status": "checked_out"})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	n, err := tenantdb.Count[item](ctx, sq.Eq{"status": "available"})
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, tenantdb.Delete(ctx, lb))
	require.NoError(t, tenantdb.Commit(ctx))

	_, err = tenantdb.Get[item](ctx, lb.ID)
	assert.ErrorIs(t, err, tenantdb.ErrRecordNotFound)
	assert.ErrorIs(t, err, tenant.ErrNotFound)

	assert.ErrorIs(t, tenantdb.Delete(ctx, &item{}), tenantdb.ErrMissingPrimaryKey)
}

func TestSession_FlushFailureDiscardsWork(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	provision(t, m, "acme")
	ctx := sessionContext(t, m, "acme")

	require.NoError(t, tenantdb.Add(ctx, &item{Type: "Key", Label: "K-1", Status: "available"}))
	_, err := tenantdb.Exec(ctx, sq.Insert("item_checkouts").Columns("item_id").Values(12345))
	require.Error(t, err)
	assert.True(t, sqlite.IsForeignKeyViolation(err))

	s, err := tenantdb.SessionFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Pending())

	items, err := tenantdb.Query[item](ctx)
	require.NoError(t, err)
	assert.Empty(t, items, "failed statement rolls back the whole unit of work")
}

func TestSession_CloseKeepsSessionUsable(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	provision(t, m, "acme")
	s, err := m.Session(context.Background(), "acme")
	require.NoError(t, err)
	ctx := tenantdb.WithSession(context.Background(), s)

	require.NoError(t, tenantdb.Add(ctx, &item{Type: "Key", Label: "K-1", Status: "available"}))
	require.NoError(t, tenantdb.Flush(ctx))
	require.NoError(t, s.Close())

	items, err := tenantdb.Query[item](ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, tenantdb.Add(ctx, &item{Type: "Key", Label: "K-2", Status: "available"}))
	require.NoError(t, tenantdb.Commit(ctx))
	items, err = tenantdb.Query[item](ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, tenant.ID("acme"), s.TenantID())
}

func TestIsolation(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	provision(t, m, "acme", "globex")
	acme := sessionContext(t, m, "acme")
	globex := sessionContext(t, m, "globex")

	require.NoError(t, tenantdb.Add(acme, &item{Type: "Key", Label: "ACME-1", Status: "available"}))
	require.NoError(t, tenantdb.Commit(acme))
	require.NoError(t, tenantdb.Add(globex, &item{Type: "Sign", Label: "GLOBEX-1", Status: "available"}))
	require.NoError(t, tenantdb.Commit(globex))

	acmeItems, err := tenantdb.Query[item](acme)
	require.NoError(t, err)
	require.Len(t, acmeItems, 1)
	assert.Equal(t, "ACME-1", acmeItems[0].Label)

	globexItems, err := tenantdb.Query[item](globex)
	require.NoError(t, err)
	require.Len(t, globexItems, 1)
	assert.Equal(t, "GLOBEX-1", globexItems[0].Label)
}

func TestFacade_NoSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, err := tenantdb.Query[item](ctx)
	assert.ErrorIs(t, err, tenantdb.ErrNoSession)
	_, err = tenantdb.Get[item](ctx, 1)
	assert.ErrorIs(t, err, tenantdb.ErrNoSession)
	_, err = tenantdb.Count[item](ctx)
	assert.ErrorIs(t, err, tenantdb.ErrNoSession)
	_, err = tenantdb.Exec(ctx, sq.Delete("items"))
	assert.ErrorIs(t, err, tenantdb.ErrNoSession)

	for name, fn := range map[string]func() error{
		"add":      func() error { return tenantdb.Add(ctx, &item{}) },
		"delete":   func() error { return tenantdb.Delete(ctx, &item{ID: 1}) },
		"flush":    func() error { return tenantdb.Flush(ctx) },
		"commit":   func() error { return tenantdb.Commit(ctx) },
		"rollback": func() error { return tenantdb.Rollback(ctx) },
	} {
		err := fn()
		assert.ErrorIs(t, err, tenantdb.ErrNoSession, name)
		assert.ErrorIs(t, err, tenant.ErrUnavailable, name)
	}
}
