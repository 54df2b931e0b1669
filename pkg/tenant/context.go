package tenant

import (
	"context"
	"log/slog"
)

// Scope is what the resolver decided about a request.
type Scope int

const (
	// ScopeNone means the request never went through the resolver.
	ScopeNone Scope = iota
	// ScopeRoot marks control-plane requests on the bare base domain.
	ScopeRoot
	// ScopeTenant marks requests resolved to an active tenant.
	ScopeTenant
)

func (s Scope) String() string {
	switch s {
	case ScopeRoot:
		return "root"
	case ScopeTenant:
		return "tenant"
	default:
		return "none"
	}
}

type contextKey struct{}

type resolution struct {
	scope  Scope
	tenant *Tenant
}

// WithTenant marks ctx as resolved to t.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, resolution{scope: ScopeTenant, tenant: t})
}

// WithRoot marks ctx as a root-domain request.
func WithRoot(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, resolution{scope: ScopeRoot})
}

// ScopeFromContext reports how the request was resolved.
func ScopeFromContext(ctx context.Context) Scope {
	res, _ := ctx.Value(contextKey{}).(resolution)
	return res.scope
}

// FromContext returns the resolved tenant.
func FromContext(ctx context.Context) (*Tenant, bool) {
	res, ok := ctx.Value(contextKey{}).(resolution)
	if !ok || res.scope != ScopeTenant || res.tenant == nil {
		return nil, false
	}
	return res.tenant, true
}

// IDFromContext returns the resolved tenant's identifier.
func IDFromContext(ctx context.Context) (ID, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return t.ID, true
}

// MustFromContext panics if no tenant is found. Use only in handlers
// mounted behind RequireTenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// LoggerExtractor enriches log records with the resolved tenant id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
