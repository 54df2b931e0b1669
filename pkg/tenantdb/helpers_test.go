package tenantdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/tenant"
	"github.com/dmitrymomot/kbm/pkg/tenantdb"
)

type item struct {
	ID     int64  `db:"id"`
	Type   string `db:"type"`
	Label  string `db:"label"`
	Status string `db:"status"`
}

func (item) TableName() string { return "items" }

func (i item) PrimaryKey() (string, any) { return "id", i.ID }

func (i item) Fields() map[string]any {
	return map[string]any{"type": i.Type, "label": i.Label, "status": i.Status}
}

func (i *item) SetID(id int64) { i.ID = id }

func newManager(t *testing.T, opts ...tenantdb.Option) *tenantdb.Manager {
	t.Helper()
	m := tenantdb.New(tenantdb.Config{DataDir: t.TempDir()}, opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func provision(t *testing.T, m *tenantdb.Manager, ids ...tenant.ID) {
	t.Helper()
	for _, id := range ids {
		_, err := m.CreateDatabase(context.Background(), id)
		require.NoError(t, err)
	}
}

func sessionContext(t *testing.T, m *tenantdb.Manager, id tenant.ID) context.Context {
	t.Helper()
	s, err := m.NewSession(context.Background(), id)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return tenantdb.WithSession(context.Background(), s)
}
