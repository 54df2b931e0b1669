package identity

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/kbm/pkg/tenant"
)

// Principal is an authenticated caller.
type Principal struct {
	Subject string
	role    string
}

var _ tenant.Identity = (*Principal)(nil)

// NewPrincipal is used by tests and by callers that authenticate by other
// means than a bearer token.
func NewPrincipal(subject, role string) *Principal {
	return &Principal{Subject: subject, role: role}
}

func (p *Principal) IsAuthenticated() bool { return p != nil && p.Subject != "" }

func (p *Principal) Role() string {
	if p == nil {
		return ""
	}
	return p.role
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal stored by Middleware.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// FromRequest is a tenant.IdentityFunc. It returns a nil Identity for
// anonymous requests.
func FromRequest(r *http.Request) tenant.Identity {
	p, ok := FromContext(r.Context())
	if !ok {
		return nil
	}
	return p
}
