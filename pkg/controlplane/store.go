package controlplane

import (
	"context"
	"time"

	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// Store persists tenant records. FindByIdentifier and Delete return
// tenant.ErrTenantNotFound for unknown identifiers; Create returns
// ErrAlreadyExists for taken ones.
type Store interface {
	tenant.Provider
	List(ctx context.Context, filter Filter) ([]*tenant.Tenant, error)
	Create(ctx context.Context, t *tenant.Tenant) error
	UpdateStatus(ctx context.Context, id tenant.ID, status tenant.Status, at time.Time) (*tenant.Tenant, error)
	Delete(ctx context.Context, id tenant.ID) error
}

// Filter narrows List. The zero value lists every tenant.
type Filter struct {
	Status tenant.Status
	Limit  uint64
	Offset uint64
}

var columns = []string{
	"subdomain", "company_name", "status", "database_path",
	"max_users", "max_items", "created_at", "updated_at",
}

// accountRow is the shape of an accounts row for both sqlx and pgx scanning.
type accountRow struct {
	Subdomain    string    `db:"subdomain"`
	CompanyName  string    `db:"company_name"`
	Status       string    `db:"status"`
	DatabasePath string    `db:"database_path"`
	MaxUsers     int       `db:"max_users"`
	MaxItems     int       `db:"max_items"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r accountRow) tenant() *tenant.Tenant {
	return &tenant.Tenant{
		ID:           tenant.ID(r.Subdomain),
		Name:         r.CompanyName,
		Status:       tenant.Status(r.Status),
		DatabasePath: r.DatabasePath,
		Quotas:       tenant.Quotas{MaxUsers: r.MaxUsers, MaxItems: r.MaxItems},
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func rowValues(t *tenant.Tenant) map[string]any {
	return map[string]any{
		"subdomain":     t.ID.String(),
		"company_name":  t.Name,
		"status":        string(t.Status),
		"database_path": t.DatabasePath,
		"max_users":     t.Quotas.MaxUsers,
		"max_items":     t.Quotas.MaxItems,
		"created_at":    t.CreatedAt.UTC(),
		"updated_at":    t.UpdatedAt.UTC(),
	}
}
