package resource

import (
	"context"
	"sync"
)

// Cache holds fetched server state per key. Entries are only ever replaced
// by a fresh fetch or dropped; they are never patched locally.
type Cache[V any] struct {
	mu       sync.Mutex
	entries  map[string]V
	versions map[string]uint64
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{
		entries:  map[string]V{},
		versions: map[string]uint64{},
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[V]) Put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = v
}

// Invalidate drops keys so the next read goes to the remote API.
func (c *Cache[V]) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
		c.versions[key]++
	}
}

func (c *Cache[V]) version(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.versions[key]
}

// putIfCurrent stores v unless key was invalidated after version was read.
func (c *Cache[V]) putIfCurrent(key string, v V, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[key] == version {
		c.entries[key] = v
	}
}

// ReadThrough returns the cached value for key, or loads, stores and returns
// it. hit reports whether the value came from the cache. A load that races
// with an invalidation of the same key is returned but not stored.
func ReadThrough[V any](ctx context.Context, cache *Cache[V], key string, load func(context.Context) (V, error)) (value V, hit bool, err error) {
	if v, ok := cache.Get(key); ok {
		return v, true, nil
	}

	version := cache.version(key)
	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, false, err
	}

	cache.putIfCurrent(key, v, version)
	return v, false, nil
}
