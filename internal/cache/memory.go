package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-memory expiring caching
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache. A non-positive TTL keeps entries
// for the lifetime of the cache.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
		cleanupInterval = 0
	}
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a score from the cache
func (c *MemoryCache) Get(key string) (int, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(int), true
	}
	return 0, false
}

// Set stores a score with the default TTL
func (c *MemoryCache) Set(key string, score int) {
	c.cache.SetDefault(key, score)
}

// Len returns the number of cached entries, including expired ones not yet cleaned up
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

// Clear removes all entries from the cache
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}

// Entries returns the unexpired entries with their expiry times
func (c *MemoryCache) Entries() map[string]Entry {
	items := c.cache.Items()
	out := make(map[string]Entry, len(items))
	for key, item := range items {
		score, ok := item.Object.(int)
		if !ok {
			continue
		}
		e := Entry{Score: score}
		if item.Expiration > 0 {
			e.ExpiresAt = time.Unix(0, item.Expiration)
		}
		out[key] = e
	}
	return out
}

// Restore adds entries, keeping their remaining lifetime. Expired entries are skipped.
func (c *MemoryCache) Restore(entries map[string]Entry) {
	now := time.Now()
	for key, e := range entries {
		ttl := gocache.NoExpiration
		if !e.ExpiresAt.IsZero() {
			ttl = e.ExpiresAt.Sub(now)
			if ttl <= 0 {
				continue
			}
		}
		c.cache.Set(key, e.Score, ttl)
	}
}
