package translate

import (
	"sync"
	"sync/atomic"
	"time"
)

// Cache stores completed translations and failure bookkeeping per key.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Lookup returns the translated text for key if present and fresh.
	Lookup(key Key) (string, bool)
	// Insert stores a completed translation, clearing any failure state.
	Insert(key Key, text string)
	// RecordFailure bumps the failure count for key and returns the new count.
	RecordFailure(key Key) int
	// StartCooldown suppresses further requests for key until the window ends.
	StartCooldown(key Key)
	// InCooldown reports whether key is inside its cool-down window.
	InCooldown(key Key) bool
	// Stats returns a point-in-time view of cache effectiveness.
	Stats() Stats
}

// Stats is the counters snapshot exposed on the cache stats endpoint.
type Stats struct {
	Entries   int    `json:"entries"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Cooldowns int    `json:"cooldowns"`
}

type cacheEntry struct {
	text          string
	translated    bool
	createdAt     time.Time
	lastAccess    time.Time
	failures      int
	cooldownUntil time.Time
}

// MemoryCache is the default in-process cache: TTL expiry on read, least
// recently used eviction when over capacity. Failure-only entries (no
// translated text yet) share the same map so cool-down state survives
// between cycles.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[Key]*cacheEntry

	ttl      time.Duration
	capacity int
	cooldown time.Duration

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	now func() time.Time
}

// NewMemoryCache builds a cache with the given TTL, entry capacity and
// cool-down window. A capacity of zero disables the capacity bound.
func NewMemoryCache(ttl time.Duration, capacity int, cooldown time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:  make(map[Key]*cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (c *MemoryCache) Lookup(key Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.translated {
		c.misses.Add(1)
		return "", false
	}
	now := c.now()
	if c.ttl > 0 && now.Sub(e.createdAt) > c.ttl {
		delete(c.entries, key)
		c.evictions.Add(1)
		c.misses.Add(1)
		return "", false
	}
	e.lastAccess = now
	c.hits.Add(1)
	return e.text, true
}

func (c *MemoryCache) Insert(key Key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &cacheEntry{
		text:       text,
		translated: true,
		createdAt:  now,
		lastAccess: now,
	}
	c.evictLocked()
}

func (c *MemoryCache) RecordFailure(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.touchLocked(key)
	e.failures++
	return e.failures
}

func (c *MemoryCache) StartCooldown(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.touchLocked(key)
	e.cooldownUntil = c.now().Add(c.cooldown)
}

func (c *MemoryCache) InCooldown(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	return ok && c.now().Before(e.cooldownUntil)
}

func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
	for _, e := range c.entries {
		if e.translated {
			stats.Entries++
		}
		if now.Before(e.cooldownUntil) {
			stats.Cooldowns++
		}
	}
	return stats
}

// touchLocked returns the entry for key, creating a failure-tracking stub
// when absent. Caller holds c.mu.
func (c *MemoryCache) touchLocked(key Key) *cacheEntry {
	e, ok := c.entries[key]
	if !ok {
		now := c.now()
		e = &cacheEntry{createdAt: now, lastAccess: now}
		c.entries[key] = e
	}
	return e
}

// evictLocked drops expired entries first, then least recently used
// translated entries until within capacity. Caller holds c.mu.
func (c *MemoryCache) evictLocked() {
	now := c.now()
	if c.ttl > 0 {
		for k, e := range c.entries {
			if e.translated && now.Sub(e.createdAt) > c.ttl {
				delete(c.entries, k)
				c.evictions.Add(1)
			}
		}
	}
	if c.capacity <= 0 {
		return
	}
	for len(c.entries) > c.capacity {
		var oldest Key
		var oldestAccess time.Time
		first := true
		for k, e := range c.entries {
			if first || e.lastAccess.Before(oldestAccess) {
				oldest, oldestAccess, first = k, e.lastAccess, false
			}
		}
		delete(c.entries, oldest)
		c.evictions.Add(1)
	}
}
