// Package tenant resolves HTTP requests to tenants and guards routes by
// resolution outcome.
//
// A request's Host is parsed against a configured base domain. The bare base
// domain (or localhost) is the control plane and resolves to ScopeRoot. A
// single label in front of it names a tenant, which is looked up through a
// Provider, optionally behind a Cache, and must be active. The Binder then
// attaches the tenant's storage to the request context and returns a closer
// the middleware runs at teardown.
//
//	mw := tenant.Middleware("example.com", store, manager,
//		tenant.WithCache(tenant.NewMemoryCache(0)),
//		tenant.WithSkipPaths("/health"),
//	)
//
//	r.With(tenant.RequireTenant(nil)).Get("/items", listItems)
//	r.With(tenant.RequireRootDomain(nil)).Post("/signup", signup)
//
// # Errors
//
// Every error wraps one of four kinds (ErrNotFound, ErrForbidden,
// ErrUnauthenticated, ErrUnavailable) and StatusCode maps the kinds to
// 404, 403, 401 and 500. Reserved, unknown and malformed identifiers are all
// NotFound so probing cannot tell them apart.
package tenant
