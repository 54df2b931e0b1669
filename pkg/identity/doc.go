// Package identity turns an optional HS256 bearer token into the
// tenant.Identity consumed by tenant.RequirePrivilegedRole.
//
// Tokens carry a subject and a role:
//
//	svc, err := identity.New(identity.Config{Secret: "super-secret"})
//	token, err := svc.Issue("alice", "app_admin")
//
// Middleware never rejects a request. A missing or invalid token leaves the
// request anonymous and the privileged guard answers 401:
//
//	r.Use(identity.Middleware(svc))
//	r.With(tenant.RequirePrivilegedRole(identity.FromRequest, "app_admin", nil)).Get(...)
package identity
