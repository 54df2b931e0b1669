// Package controlplane is the registry of tenants and the lifecycle
// operations around it: signup, availability checks, status changes,
// removal and per-tenant statistics.
//
// A Store persists tenant records and doubles as the tenant.Provider the
// request resolver consults. Three stores are provided: SQLiteStore (the
// default, a single file next to the tenant databases), PostgresStore and
// MemoryStore for tests.
//
// Service ties a Store to the tenant databases so that a tenant record never
// exists without its database file, and invalidates the resolver cache on
// every status change.
package controlplane
