// Package tenantdb owns the per-tenant SQLite databases: it opens and caches
// one handle per tenant, hands out units of work (sessions) over those
// handles, provisions and removes database files, and exposes a facade that
// always resolves the session from the request context.
//
// There is no default database. Code that reaches the facade without a
// tenant-bound context gets ErrNoSession instead of touching shared storage.
//
//	m := tenantdb.New(cfg, tenantdb.WithLogger(log))
//	defer m.Close()
//
//	path, err := m.CreateDatabase(ctx, "acme")
//
//	// in a handler behind tenant.Middleware(base, store, m)
//	items, err := tenantdb.Query[Item](r.Context(), sq.Eq{"status": "available"})
//	if err := tenantdb.Add(r.Context(), &item); err != nil { ... }
//	if err := tenantdb.Commit(r.Context()); err != nil { ... }
//
// # Session scope
//
// With ScopeRequest (the default) every request gets its own session, closed
// and discarded at teardown, so uncommitted work never outlives the request.
// ScopeTenant shares one cached session per tenant across requests.
package tenantdb
