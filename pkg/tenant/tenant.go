package tenant

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// MinIDLength keeps identifiers meaningful as subdomains.
	MinIDLength = 3
	// MaxIDLength is the DNS label limit.
	MaxIDLength = 63

	DefaultMaxUsers = 25
	DefaultMaxItems = 1000
)

// idPattern allows lowercase alphanumerics and inner hyphens.
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$`)

// ID is a validated tenant identifier. It doubles as the tenant's subdomain
// label and as the name of its database file, so every API in this module
// takes an ID rather than a raw string.
type ID string

// ParseID normalizes and validates a raw identifier.
func ParseID(raw string) (ID, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) < MinIDLength || len(s) > MaxIDLength || !idPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return ID(s), nil
}

// MustParseID is ParseID for identifiers known at compile time.
func MustParseID(raw string) ID {
	id, err := ParseID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string { return string(id) }

// Status is the lifecycle state of a tenant.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusDeleted:
		return true
	}
	return false
}

// CanTransition reports whether a tenant may move from s to next.
// Deleted is terminal.
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() || s == StatusDeleted {
		return false
	}
	return true
}

// Quotas are per-tenant resource limits stored in the control plane.
type Quotas struct {
	MaxUsers int `json:"max_users"`
	MaxItems int `json:"max_items"`
}

// DefaultQuotas returns the limits assigned at signup.
func DefaultQuotas() Quotas {
	return Quotas{MaxUsers: DefaultMaxUsers, MaxItems: DefaultMaxItems}
}

// Tenant is one customer account as recorded in the control plane.
type Tenant struct {
	ID           ID        `json:"id"`
	Name         string    `json:"name"`
	Status       Status    `json:"status"`
	DatabasePath string    `json:"database_path"`
	Quotas       Quotas    `json:"quotas"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether requests for the tenant may be served.
func (t *Tenant) Active() bool {
	return t != nil && t.Status == StatusActive
}

// Provider looks tenants up in the control plane.
type Provider interface {
	// FindByIdentifier returns ErrTenantNotFound when no tenant has the id.
	FindByIdentifier(ctx context.Context, id ID) (*Tenant, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, id ID) (*Tenant, error)

func (f ProviderFunc) FindByIdentifier(ctx context.Context, id ID) (*Tenant, error) {
	return f(ctx, id)
}

// DefaultReserved lists labels that collide with infrastructure routes.
// They never resolve to a tenant and can never be provisioned.
var DefaultReserved = []string{
	"www", "admin", "api", "app", "mail", "ftp", "localhost",
	"staging", "dev", "test", "static", "assets", "health", "metrics",
}

// ReservedSet is a lookup table of reserved labels.
type ReservedSet map[ID]struct{}

// NewReservedSet builds a set from labels. Labels are lower-cased; they are
// not required to pass ParseID so short names like "www" can be listed.
func NewReservedSet(labels ...string) ReservedSet {
	set := make(ReservedSet, len(labels))
	for _, l := range labels {
		set[ID(strings.ToLower(strings.TrimSpace(l)))] = struct{}{}
	}
	return set
}

// Contains reports whether id is reserved.
func (s ReservedSet) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}
