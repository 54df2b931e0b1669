package tenant

import "net/http"

// Identity is the authenticated principal as seen by the privileged guard.
type Identity interface {
	IsAuthenticated() bool
	Role() string
}

// IdentityFunc extracts the identity of a request. It returns nil for
// anonymous requests.
type IdentityFunc func(r *http.Request) Identity

// RequireTenant rejects requests that were not resolved to a tenant.
func RequireTenant(eh ErrorHandler) func(http.Handler) http.Handler {
	if eh == nil {
		eh = DefaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				eh(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRootDomain rejects requests that carry a tenant. Requests that
// bypassed the resolver are rejected as well, so control-plane routes are
// never reachable without an explicit root decision.
func RequireRootDomain(eh ErrorHandler) func(http.Handler) http.Handler {
	if eh == nil {
		eh = DefaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ScopeFromContext(r.Context()) != ScopeRoot {
				eh(w, r, ErrRootDomainRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePrivilegedRole requires an authenticated identity holding role.
// Anonymous requests get ErrNoIdentity, others ErrInsufficientRole.
func RequirePrivilegedRole(identity IdentityFunc, role string, eh ErrorHandler) func(http.Handler) http.Handler {
	if identity == nil {
		panic("tenant: nil identity func")
	}
	if eh == nil {
		eh = DefaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identity(r)
			if id == nil || !id.IsAuthenticated() {
				eh(w, r, ErrNoIdentity)
				return
			}
			if id.Role() != role {
				eh(w, r, ErrInsufficientRole)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
