package googlebooks

import (
	"sync"
	"time"
)

type cacheEntry struct {
	result    *SearchResult
	expiresAt time.Time
}

// queryCache is a TTL cache keyed by query string. It replaces the old
// ambient client-side request cache with an explicit one that callers can
// invalidate after mutations.
type queryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newQueryCache(ttl time.Duration) *queryCache {
	c := &queryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
	go c.janitor()
	return c
}

func (c *queryCache) get(key string) (*SearchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

func (c *queryCache) set(key string, result *SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
}

func (c *queryCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *queryCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *queryCache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for range ticker.C {
		now := time.Now()
		c.mu.Lock()
		for key, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, key)
			}
		}
		c.mu.Unlock()
	}
}
