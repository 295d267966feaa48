// Package cache provides a small time-boxed in-memory cache keyed by organization.
package cache

import (
	"sync"
	"time"

	"github.com/pysugar/tracklens/internal/clock"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// TTL caches values for a fixed duration. An entry older than ttl is treated as a miss.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	clock   clock.Clock
}

// NewTTL creates a cache whose entries expire ttl after they were stored.
func NewTTL[K comparable, V any](ttl time.Duration, c clock.Clock) *TTL[K, V] {
	if c == nil {
		c = clock.Real{}
	}
	return &TTL[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		clock:   c,
	}
}

// Get returns the cached value if it is still within its TTL.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.clock.Now().Sub(e.storedAt) >= c.ttl {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, stamped with the current time.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: c.clock.Now()}
	c.mu.Unlock()
}

// Delete drops key from the cache.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// TTL returns the configured lifetime of an entry.
func (c *TTL[K, V]) TTL() time.Duration {
	return c.ttl
}
