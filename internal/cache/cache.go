// Package cache provides a concurrency-safe in-memory TTL store for serialized
// API responses. One instance is shared for the lifetime of the process and
// injected explicitly; there is no package-level singleton.
//
// Entries are logically namespaced by key prefix (e.g. "search:",
// "recommendations:") though physically one store. Values are immutable
// serialized snapshots, so writes are last-writer-wins and no cross-key
// locking is needed.
package cache

import (
	"encoding/json/v2"
	"log/slog"
	"sync"
	"time"
)

// Key prefixes for the logical namespaces sharing this store.
const (
	searchPrefix          = "search:"
	recommendationsPrefix = "recommendations:"
)

// SearchKey returns the cache key for a catalog search query.
func SearchKey(query string) string {
	return searchPrefix + query
}

// RecommendationsKey returns the cache key for a user's recommendation set.
func RecommendationsKey(userID string) string {
	return recommendationsPrefix + userID
}

type entry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// Cache is a TTL key/value store safe for concurrent use. Entries expire by
// time, not by access: a periodic sweep reclaims expired entries so unread
// ones eventually free memory even when never queried again.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *slog.Logger
	done    chan struct{}
	stopRm  sync.Once
}

// Options configures the cache.
type Options struct {
	SweepInterval time.Duration // Expired-entry sweep period (default 15m)
	Logger        *slog.Logger  // Logger for cache errors (discards if nil)
}

// New creates a cache and starts its background sweeper.
// Call Close to stop the sweeper.
func New(opts Options) *Cache {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 15 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Cache{
		entries: make(map[string]entry),
		logger:  logger,
		done:    make(chan struct{}),
	}

	go c.sweepLoop(opts.SweepInterval)

	return c
}

// Get returns the serialized value at key, or a miss if absent or expired.
// An expired entry found on read is removed eagerly.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if e.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if cur, ok := c.entries[key]; ok && cur.expired(time.Now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set serializes value and stores it under key with the given ttl.
// A serialization failure is non-fatal: it is logged and the write dropped, so
// a subsequent Get is a miss. Callers proceed as if the write never happened.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache set failed to serialize value, dropping write",
			"key", key,
			"error", err,
		)
		return
	}

	c.mu.Lock()
	c.entries[key] = entry{
		value:     data,
		createdAt: time.Now(),
		ttl:       ttl,
	}
	c.mu.Unlock()
}

// Del removes the entry at key. No-op if the key is absent.
func (c *Cache) Del(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the background sweeper. The cache remains usable afterwards;
// only lazy expiry on Get applies.
func (c *Cache) Close() {
	c.stopRm.Do(func() { close(c.done) })
}

// GetJSON returns the decoded value at key, or a miss if absent, expired, or
// undecodable. A decode failure is degraded to a miss, never surfaced.
func GetJSON[T any](c *Cache, key string) (T, bool) {
	var v T

	data, ok := c.Get(key)
	if !ok {
		return v, false
	}

	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("cache entry failed to decode, treating as miss",
			"key", key,
			"error", err,
		)
		c.Del(key)
		return v, false
	}

	return v, true
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep removes all expired entries.
func (c *Cache) sweep() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	swept := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			swept++
		}
	}

	if swept > 0 {
		c.logger.Debug("cache sweep reclaimed expired entries",
			"swept", swept,
			"remaining", len(c.entries),
		)
	}
}
