// Package cache provides the bounded, time-limited in-memory caches that sit
// between the aggregation engine and the upstream RPC/price providers.
package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"balance_api/pkg/metrics"
)

type entry struct {
	value      any
	insertedAt time.Time
}

// TTLCache is a concurrency-safe cache with a fixed capacity and a single
// time-to-live window. Entries expire lazily: an expired entry is treated as
// absent on Get, there is no background sweep. When the capacity is reached
// the least-recently-inserted entry is evicted.
type TTLCache struct {
	name     string
	store    *gocache.Cache
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu sync.Mutex // serializes capacity eviction on Put
}

// New creates a cache with the given metrics name, TTL and capacity bound.
func New(name string, ttl time.Duration, capacity int) *TTLCache {
	return &TTLCache{
		name: name,
		// Expiry is tracked on our own entries so the clock can be swapped in
		// tests; go-cache only provides the synchronized store.
		store:    gocache.New(gocache.NoExpiration, 0),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// WithClock replaces the cache's time source. Test hook.
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.now = now
	return c
}

// Get returns the cached value for key if it is present and not expired.
func (c *TTLCache) Get(key string) (any, bool) {
	raw, ok := c.store.Get(key)
	if !ok {
		metrics.CacheMiss(c.name)
		return nil, false
	}
	e := raw.(entry)
	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.store.Delete(key)
		metrics.CacheMiss(c.name)
		return nil, false
	}
	metrics.CacheHit(c.name)
	return e.value, true
}

// Put inserts or overwrites the value for key, stamping it with the current
// time. If the cache is full, expired entries are dropped first and then the
// least-recently-inserted entry is evicted.
func (c *TTLCache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store.Get(key); !exists && c.store.ItemCount() >= c.capacity {
		c.evictOne()
	}
	c.store.Set(key, entry{value: value, insertedAt: c.now()}, gocache.NoExpiration)
}

// evictOne removes expired entries and, if the cache is still full, the
// entry with the oldest insertion time. Caller holds c.mu.
func (c *TTLCache) evictOne() {
	now := c.now()
	oldestKey := ""
	var oldestAt time.Time

	for key, item := range c.store.Items() {
		e := item.Object.(entry)
		if now.Sub(e.insertedAt) >= c.ttl {
			c.store.Delete(key)
			continue
		}
		if oldestKey == "" || e.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.insertedAt
		}
	}

	if c.store.ItemCount() >= c.capacity && oldestKey != "" {
		c.store.Delete(oldestKey)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	return c.store.ItemCount()
}
