// internal/verify/cache.go
package verify

import "sync"

// Cache stores final results by product code
type Cache interface {
	Get(productCode string) (*Result, bool)
	Put(productCode string, result *Result)
	Len() int
}

// MemoryCache is an unbounded process-lifetime cache. Entries never expire
// and are never replaced: the first Put for a code wins.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Result
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*Result)}
}

// Get returns a copy of the cached result for productCode
func (c *MemoryCache) Get(productCode string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result, ok := c.entries[productCode]
	if !ok {
		return nil, false
	}
	return result.Clone(), true
}

// Put stores result unless productCode already has an entry
func (c *MemoryCache) Put(productCode string, result *Result) {
	if result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[productCode]; exists {
		return
	}
	c.entries[productCode] = result.Clone()
}

// Len returns the number of cached codes
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
