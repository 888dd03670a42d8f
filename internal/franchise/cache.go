package franchise

import (
	"sync"
	"time"
)

// Cache holds resolved relationship results keyed by content id. Entries
// expire after a fixed TTL; concurrent writers to the same key are
// last-write-wins, which is acceptable because staleness here is a
// performance concern, not a correctness one.
type Cache struct {
	mu      sync.RWMutex
	entries map[int64]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

// NewCache returns a Cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[int64]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached result for a content id, if present and fresh.
func (c *Cache) Get(contentID int64) (Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[contentID]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return Result{}, false
	}
	return entry.result, true
}

// Set stores a result for a content id.
func (c *Cache) Set(contentID int64, result Result) {
	c.mu.Lock()
	c.entries[contentID] = cacheEntry{result: result, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops one content id from the cache.
func (c *Cache) Invalidate(contentID int64) {
	c.mu.Lock()
	delete(c.entries, contentID)
	c.mu.Unlock()
}

// Clear drops every cached entry. Used after administrative re-runs that
// rewrite relationship links in bulk.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[int64]cacheEntry)
	c.mu.Unlock()
}

// Len reports the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
