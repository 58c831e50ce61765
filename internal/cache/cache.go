// Package cache provides a small in-memory TTL cache. It keeps
// short-lived lookup results (such as DuckDuckGo vqd tokens) from
// being re-fetched within a run; nothing is ever persisted.
package cache

import (
	"sync"
	"time"
)

type item struct {
	value     string
	expiresAt time.Time
}

type Cache struct {
	mu    sync.RWMutex
	items map[string]item
}

func New() *Cache {
	return &Cache{
		items: make(map[string]item),
	}
}

func (c *Cache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, exists := c.items[key]
	if !exists {
		return "", false
	}
	if time.Now().After(it.expiresAt) {
		return "", false
	}
	return it.value, true
}

// Cleanup removes expired entries. Long-running callers may invoke it
// periodically; the one-shot CLI never needs to.
func (c *Cache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, k)
		}
	}
}
