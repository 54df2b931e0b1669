package tenant_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/kbm/pkg/tenant"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	valid := map[string]tenant.ID{
		"acme":      "acme",
		"  ACME  ":  "acme",
		"acme-corp": "acme-corp",
		"a1b":       "a1b",
		"123":       "123",
	}
	for raw, want := range valid {
		id, err := tenant.ParseID(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, id)
	}

	invalid := []string{"", "ab", "-acme", "acme-", "ac_me", "ac.me", "ünï", string(make([]byte, 64))}
	for _, raw := range invalid {
		_, err := tenant.ParseID(raw)
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier, raw)
		assert.ErrorIs(t, err, tenant.ErrNotFound, raw)
	}
}

func TestMustParseID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, tenant.ID("acme"), tenant.MustParseID("acme"))
	assert.Panics(t, func() { tenant.MustParseID("x") })
}

func TestStatus_CanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to tenant.Status
		want     bool
	}{
		{tenant.StatusActive, tenant.StatusSuspended, true},
		{tenant.StatusSuspended, tenant.StatusActive, true},
		{tenant.StatusActive, tenant.StatusDeleted, true},
		{tenant.StatusSuspended, tenant.StatusDeleted, true},
		{tenant.StatusDeleted, tenant.StatusActive, false},
		{tenant.StatusDeleted, tenant.StatusSuspended, false},
		{tenant.StatusActive, tenant.Status("archived"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTenant_Active(t *testing.T) {
	t.Parallel()

	var nilTenant *tenant.Tenant
	assert.False(t, nilTenant.Active())
	assert.True(t, (&tenant.Tenant{Status: tenant.StatusActive}).Active())
	assert.False(t, (&tenant.Tenant{Status: tenant.StatusSuspended}).Active())
	assert.Equal(t, tenant.Quotas{MaxUsers: 25, MaxItems: 1000}, tenant.DefaultQuotas())
}

func TestReservedSet(t *testing.T) {
	t.Parallel()

	set := tenant.NewReservedSet(tenant.DefaultReserved...)
	for _, label := range []string{"www", "admin", "api", "app", "mail", "ftp", "localhost", "staging", "dev", "test"} {
		assert.True(t, set.Contains(tenant.ID(label)), label)
	}
	assert.False(t, set.Contains("acme"))

	custom := tenant.NewReservedSet(" Billing ")
	assert.True(t, custom.Contains("billing"))
}
