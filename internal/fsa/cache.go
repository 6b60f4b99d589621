package fsa

import (
	"sort"
	"sync"
	"time"
)

type cacheEntry struct {
	details   Details
	storedAt  time.Time
	expiresAt time.Time
}

// cache keeps recently resolved tickets in memory. When it grows past
// maxSize the oldest entries are dropped.
type cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]cacheEntry
	now     func() time.Time
}

func newCache(ttl time.Duration, maxSize int) *cache {
	return &cache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *cache) get(key string) (Details, bool) {
	if c == nil {
		return Details{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Details{}, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return Details{}, false
	}
	return e.details, true
}

func (c *cache) set(key string, d Details) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry{details: d, storedAt: now, expiresAt: now.Add(c.ttl)}
	if len(c.entries) <= c.maxSize {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].storedAt.After(c.entries[keys[j]].storedAt)
	})
	for _, k := range keys[c.maxSize:] {
		delete(c.entries, k)
	}
}

func (c *cache) clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
