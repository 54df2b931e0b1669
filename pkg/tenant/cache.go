package tenant

import (
	"context"
	"time"

	"github.com/dmitrymomot/kbm/pkg/cache"
)

// DefaultCacheSize bounds the in-memory tenant record cache.
const DefaultCacheSize = 1000

// DefaultCacheTTL is how long a resolved tenant record is trusted.
const DefaultCacheTTL = time.Minute

// Cache holds tenant records in front of the Provider. It never holds
// database handles or sessions. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached record for id.
	Get(ctx context.Context, id ID) (*Tenant, bool)
	// Set stores t for ttl.
	Set(ctx context.Context, t *Tenant, ttl time.Duration)
	// Delete drops the record for id. Lifecycle changes call it so a
	// suspended tenant is not served from a stale entry.
	Delete(ctx context.Context, id ID)
}

// MemoryCache is a bounded LRU of tenant records with lazy expiry.
type MemoryCache struct {
	lru *cache.LRU[ID, *Tenant]
}

// NewMemoryCache creates a MemoryCache holding at most size records.
// A non-positive size falls back to DefaultCacheSize.
func NewMemoryCache(size int, opts ...cache.Option) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &MemoryCache{lru: cache.New[ID, *Tenant](size, DefaultCacheTTL, opts...)}
}

func (c *MemoryCache) Get(_ context.Context, id ID) (*Tenant, bool) {
	return c.lru.Get(id)
}

func (c *MemoryCache) Set(_ context.Context, t *Tenant, ttl time.Duration) {
	if t == nil {
		return
	}
	c.lru.SetWithTTL(t.ID, t, ttl)
}

func (c *MemoryCache) Delete(_ context.Context, id ID) {
	c.lru.Remove(id)
}

// Len returns the number of cached records.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// NopCache disables caching; every request reaches the Provider.
type NopCache struct{}

func (NopCache) Get(context.Context, ID) (*Tenant, bool)  { return nil, false }
func (NopCache) Set(context.Context, *Tenant, time.Duration) {}
func (NopCache) Delete(context.Context, ID)                 {}
