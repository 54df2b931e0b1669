// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry.
//
// Expired entries are dropped lazily on access, so the cache never starts
// goroutines of its own. It is used to bound the tenant record cache in front
// of the control plane.
//
//	c := cache.New[tenant.ID, *tenant.Tenant](1024, time.Minute)
//	c.Set("acme", t)
//	t, ok := c.Get("acme")
package cache
