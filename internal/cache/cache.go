// Package cache provides the in-memory response cache and request coalescing
// used to avoid redundant round-trips to the Snapfolio backend.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key when the cache cannot serve it.
type FetchFunc func(ctx context.Context) (interface{}, error)

// entry wraps a cached value with expiry and insertion order tracking.
type entry struct {
	value     interface{}
	expiry    time.Time
	insertIdx int64
}

// Cache is a TTL-bounded in-memory cache with request coalescing. A fetch for
// a key that is already in flight is joined, not re-issued; a failed fetch
// leaves no trace, so the next caller retries. Thread-safe.
type Cache struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
	group      singleflight.Group
}

// New creates a Cache with the given TTL and max entry count.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// MakeKey builds a cache key from a resource kind and identifier,
// e.g. MakeKey("news", "005930").
func MakeKey(kind, id string) string {
	return kind + ":" + id
}

// Get returns a cached value if present and not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if time.Now().After(e.expiry) {
		// Expired: remove lazily
		c.mu.Lock()
		if e2, ok2 := c.items[key]; ok2 && time.Now().After(e2.expiry) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set stores a value, timestamping it. Evicts the oldest entry at capacity.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{
		value:     value,
		expiry:    time.Now().Add(c.ttl),
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	// If key already exists, update in place (no capacity change)
	if _, exists := c.items[key]; exists {
		c.items[key] = e
		return
	}

	if c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[key] = e
}

// GetOrFetch returns the cached value for key, or loads it via fetch.
// Concurrent callers for the same key share a single in-flight fetch and
// receive the same result. The flight runs on a context detached from the
// originating caller, so a joiner is not failed by the originator's
// disconnect. A fetch error is returned to all joined callers and is not
// cached.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	fctx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: an earlier caller may have populated
		// the entry between our Get miss and acquiring the flight.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	return v, err
}

// Refresh forces a reload for key, bypassing any live entry while still
// coalescing concurrent refreshers. The flight is detached from the
// originating caller's cancellation, as in GetOrFetch.
func (c *Cache) Refresh(ctx context.Context, key string, fetch FetchFunc) (interface{}, error) {
	c.Remove(key)
	fctx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	return v, err
}

// Remove deletes a single entry.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// InvalidatePrefix removes all entries whose key contains the given fragment.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.Contains(key, prefix) {
			delete(c.items, key)
		}
	}
}

// Clear empties the cache. Used on logout and in tests.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]entry)
}

// Len returns the number of live entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldestIdx int64 = -1

	for key, e := range c.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
