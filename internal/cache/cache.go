// Package cache holds a small TTL cache for chart series responses, keyed
// by ticker/period/interval, to keep repeated chart loads off the upstream
// price feed.
package cache

import (
	"sync"
	"time"

	"github.com/RustColeone/TradingAgents-web-managed/internal/marketdata"
)

// entry wraps a cached series with expiry and insertion order tracking.
type entry struct {
	series    marketdata.Series
	expiry    time.Time
	insertIdx int64
}

// SeriesCache caches chart series lookups. Thread-safe with sync.RWMutex.
type SeriesCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
}

// New creates a SeriesCache with the given TTL and max entry count.
func New(ttl time.Duration, maxEntries int) *SeriesCache {
	return &SeriesCache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// MakeKey builds a cache key from ticker, period, and interval.
func MakeKey(ticker, period, interval string) string {
	return ticker + ":" + period + ":" + interval
}

// Get returns a cached series if found and not expired.
func (c *SeriesCache) Get(key string) (marketdata.Series, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return marketdata.Series{}, false
	}

	if time.Now().After(e.expiry) {
		// Expired: remove lazily
		c.mu.Lock()
		if e2, ok2 := c.items[key]; ok2 && time.Now().After(e2.expiry) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return marketdata.Series{}, false
	}

	return e.series, true
}

// Set stores a series in the cache. Evicts the oldest entry if at capacity.
func (c *SeriesCache) Set(key string, series marketdata.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{
		series:    series,
		expiry:    time.Now().Add(c.ttl),
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	// If key already exists, update in place (no capacity change)
	if _, exists := c.items[key]; exists {
		c.items[key] = e
		return
	}

	// Evict oldest if at capacity
	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[key] = e
}

// Len returns the number of cached entries, expired or not.
func (c *SeriesCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *SeriesCache) evictOldest() {
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
