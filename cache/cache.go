// Package cache provides the in-process TTL cache backing the derived read
// views (single-case view, statistics, dashboard, calendars). Entries expire
// after a fixed TTL; mutations evict the affected keys explicitly after the
// write commits. Staleness of aggregate views within the TTL window is an
// accepted bound, not a bug.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Cache is a TTL-bounded key/value store safe for concurrent use
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// New creates a cache whose entries expire after ttl
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, if present and unexpired
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// Delete evicts a single key
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeleteByPrefix evicts every key with the given prefix. Used to drop all
// date-range calendar entries for an actor without tracking each range.
func (c *Cache) DeleteByPrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of live entries, expired ones included until read
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key builders. Aggregate views are scoped per actor; the single-case view
// is scoped per case.

// CaseViewKey is the cache key for a single-case read view
func CaseViewKey(caseID string) string {
	return "case:" + caseID
}

// StatsKey is the cache key for an actor's statistics view
func StatsKey(actorID string) string {
	return "stats:" + actorID
}

// DashboardKey is the cache key for an actor's dashboard view
func DashboardKey(actorID string) string {
	return "dashboard:" + actorID
}

// CalendarKey is the cache key for an actor's calendar view over a range
func CalendarKey(actorID, from, to string) string {
	return "calendar:" + actorID + ":" + from + ":" + to
}

// CalendarPrefix matches every calendar entry for an actor
func CalendarPrefix(actorID string) string {
	return "calendar:" + actorID + ":"
}

// KeySet collects cache keys touched during an operation so they can be
// evicted together once the write has committed. Evicting only after commit
// keeps a rolled-back write from blowing away a still-valid entry.
type KeySet struct {
	keys     []string
	prefixes []string
}

// AddKey records an exact key for post-commit eviction
func (ks *KeySet) AddKey(key string) {
	ks.keys = append(ks.keys, key)
}

// AddPrefix records a key prefix for post-commit eviction
func (ks *KeySet) AddPrefix(prefix string) {
	ks.prefixes = append(ks.prefixes, prefix)
}

// AddActor records every aggregate view scoped to the given actor id.
// Blank ids (unassigned officer/mediator slots) are skipped.
func (ks *KeySet) AddActor(actorID string) {
	if actorID == "" {
		return
	}
	ks.AddKey(StatsKey(actorID))
	ks.AddKey(DashboardKey(actorID))
	ks.AddPrefix(CalendarPrefix(actorID))
}

// Flush evicts every collected key and prefix
func (ks *KeySet) Flush(c *Cache) {
	for _, k := range ks.keys {
		c.Delete(k)
	}
	for _, p := range ks.prefixes {
		c.DeleteByPrefix(p)
	}
}
