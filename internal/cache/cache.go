// Package cache provides the process-wide time-windowed memo for expensive
// aggregation results. Entries expire a fixed duration after insertion,
// matching the upstream pipeline's regeneration cadence; expiry is the sole
// invalidation mechanism. The cache is constructed once at startup and
// injected, never a package singleton, so tests get a fresh instance with a
// fake clock.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache is a bounded key-value store with per-entry TTL. Keys are logical
// operation names ("latest_water_levels", "gauging_stations", ...), not
// per-station parameters. Concurrent misses on the same key may each fetch
// upstream; that duplication is acceptable and never produces wrong data.
type Cache struct {
	clock      clockwork.Clock
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently inserted
	tail    *entry // oldest insertion
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	prev      *entry
	next      *entry
}

// New creates a Cache. A nil clock falls back to the real clock.
func New(clock clockwork.Clock, ttl time.Duration, maxEntries int) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		clock:      clock,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// Get returns the value stored under key, or false when the key is absent
// or its TTL has elapsed. An expired entry is dropped on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		c.remove(e)
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with a fresh TTL, evicting the oldest
// insertions when the entry bound is exceeded.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	for len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

// Len returns the number of stored entries, including any not yet swept
// expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *Cache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *Cache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
