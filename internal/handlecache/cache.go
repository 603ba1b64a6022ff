package handlecache

import (
	"sort"
	"sync"
)

// Cache is the in-memory handle mapping. Mutation is additive only.
type Cache struct {
	mu      sync.RWMutex
	handles map[string]string
}

// NewCache wraps a copy of initial.
func NewCache(initial map[string]string) *Cache {
	return &Cache{handles: Normalize(initial)}
}

// Get returns the handle for identifier.
func (c *Cache) Get(identifier string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	handle, ok := c.handles[NormalizeKey(identifier)]
	return handle, ok
}

// Has reports whether identifier has a handle.
func (c *Cache) Has(identifier string) bool {
	_, ok := c.Get(identifier)
	return ok
}

// Put records a handle for identifier.
func (c *Cache) Put(identifier, handle string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[NormalizeKey(identifier)] = handle
}

// Len returns the number of cached handles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

// Snapshot returns a copy of the mapping suitable for Store.Save.
func (c *Cache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.handles))
	for k, v := range c.handles {
		out[k] = v
	}
	return out
}

// Keys returns the cached identifiers in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.handles))
	for k := range c.handles {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
