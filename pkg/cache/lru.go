package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used cache. When ttl is positive,
// entries older than ttl are treated as absent and removed on access.
type LRU[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	items    map[K]*list.Element
	eviction *list.List
}

// Option configures an LRU.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now. Tests use it to move time forward.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an LRU holding at most capacity entries. A ttl of zero
// disables expiry. It panics if capacity is not positive.
func New[K comparable, V any](capacity int, ttl time.Duration, opts ...Option) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: capacity must be positive")
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      o.now,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
	}
}

// Get returns the value stored under key and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[K, V])
	if c.expired(e) {
		c.removeElement(elem)
		return zero, false
	}
	c.eviction.MoveToFront(elem)
	return e.value, true
}

// Set stores value under key with the cache's default ttl, evicting the
// least recently used entry when the cache is full.
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL is Set with an explicit ttl. A ttl of zero never expires.
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = expiresAt
		c.eviction.MoveToFront(elem)
		return
	}

	c.items[key] = c.eviction.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	if c.eviction.Len() > c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		c.removeElement(elem)
	}
	return ok
}

// Len returns the number of stored entries, including expired ones not yet
// collected.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Purge removes every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.eviction.Init()
}

// Must be called with lock held.
func (c *LRU[K, V]) expired(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// Must be called with lock held.
func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*entry[K, V]).key)
}
