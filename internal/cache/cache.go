package cache

import (
	"context"
	"sync"
	"time"
)

// Item represents a cached value with expiration
type Item[V any] struct {
	Value      V
	Expiration time.Time
}

// Cache provides thread-safe in-memory caching with per-entry TTL
type Cache[K comparable, V any] struct {
	items map[K]Item[V]
	mutex sync.RWMutex
	now   func() time.Time
}

// New creates a new cache instance. Expired entries are swept every
// interval until ctx is done.
func New[K comparable, V any](ctx context.Context, interval time.Duration) *Cache[K, V] {
	cache := &Cache[K, V]{
		items: make(map[K]Item[V]),
		now:   time.Now,
	}

	// Start cleanup goroutine
	if interval > 0 {
		go cache.cleanup(ctx, interval)
	}

	return cache
}

// Set stores a value in the cache with TTL
func (c *Cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = Item[V]{
		Value:      value,
		Expiration: c.now().Add(ttl),
	}
}

// Get retrieves a value from the cache
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if c.now().After(item.Expiration) {
		// Item expired, remove it
		c.Delete(key)
		return zero, false
	}

	return item.Value, true
}

// Delete removes a value from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[K, V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[K]Item[V])
}

// Len returns the number of stored entries, expired or not
func (c *Cache[K, V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// sweep removes expired items
func (c *Cache[K, V]) sweep() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.Expiration) {
			delete(c.items, key)
		}
	}
}

// cleanup periodically removes expired items
func (c *Cache[K, V]) cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}
