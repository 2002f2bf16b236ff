package cache

import (
	"fmt"
	"time"
)

// LayeredCache serves scores from memory and persists them to disk between runs
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// OpenLayeredCache creates a memory cache warmed from the snapshot at path.
// A non-positive ttl keeps entries until the snapshot is cleared.
func OpenLayeredCache(path string, ttl time.Duration) (*LayeredCache, error) {
	c := &LayeredCache{
		memory: NewMemoryCache(ttl, 10*time.Minute),
		disk:   NewDiskCache(path),
	}

	entries, err := c.disk.Load()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	c.memory.Restore(entries)

	return c, nil
}

// Get retrieves a score from memory
func (c *LayeredCache) Get(key string) (int, bool) {
	return c.memory.Get(key)
}

// Set stores a score in memory; it reaches disk on Persist
func (c *LayeredCache) Set(key string, score int) {
	c.memory.Set(key, score)
}

// Len returns the number of entries held in memory
func (c *LayeredCache) Len() int {
	return c.memory.Len()
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear() {
	c.memory.Clear()
	_ = c.disk.Clear()
}

// Persist writes the unexpired in-memory entries to disk
func (c *LayeredCache) Persist() error {
	return c.disk.Save(c.memory.Entries())
}

// Path returns the snapshot file location
func (c *LayeredCache) Path() string {
	return c.disk.Path()
}
