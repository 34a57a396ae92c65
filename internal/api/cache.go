package api

import (
	"sync"

	"github.com/ossgrade/ossgrade/pkg/dataset"
)

// ProjectCache is a thread-safe LRU cache for loaded project records.
type ProjectCache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*dataset.Record
	order   []string // oldest first
}

// NewProjectCache creates a cache with the given maximum number of entries.
// If maxSize <= 0, it defaults to 256.
func NewProjectCache(maxSize int) *ProjectCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &ProjectCache{
		maxSize: maxSize,
		entries: make(map[string]*dataset.Record),
	}
}

// Get retrieves a record from the cache, or nil if not found.
func (c *ProjectCache) Get(name string) *dataset.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.entries[name]
	if !ok {
		return nil
	}

	// Move to end (most recently used)
	c.moveToEnd(name)
	return rec
}

// Put adds a record to the cache, evicting the oldest if full.
func (c *ProjectCache) Put(name string, rec *dataset.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[name]; ok {
		c.entries[name] = rec
		c.moveToEnd(name)
		return
	}

	// Evict oldest if at capacity
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[name] = rec
	c.order = append(c.order, name)
}

// Invalidate drops a record so the next read goes to storage.
func (c *ProjectCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[name]; !ok {
		return
	}
	delete(c.entries, name)
	c.removeFromOrder(name)
}

// Len returns the number of cached records.
func (c *ProjectCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ProjectCache) moveToEnd(name string) {
	c.removeFromOrder(name)
	c.order = append(c.order, name)
}

func (c *ProjectCache) removeFromOrder(name string) {
	for i, k := range c.order {
		if k == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
