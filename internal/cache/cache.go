// Package cache provides a bounded LRU cache with optional per-entry expiry.
//
// The API keys it by the BLAKE3 digest of a request document, so repeated
// scans of the same upload skip the parse.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Config contains cache configuration options.
type Config struct {
	// MaxEntries is the maximum number of entries (0 = unlimited).
	MaxEntries int

	// TTL is the time-to-live for entries (0 = no expiration).
	TTL time.Duration
}

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used cache.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	cfg     Config
	entries map[K]*list.Element
	order   *list.List // front is most recently used
	stats   Stats
	now     func() time.Time
}

// New creates an empty cache.
func New[K comparable, V any](cfg Config) *LRU[K, V] {
	if cfg.MaxEntries < 0 {
		cfg.MaxEntries = 0
	}
	return &LRU[K, V]{
		cfg:     cfg,
		entries: make(map[K]*list.Element),
		order:   list.New(),
		now:     time.Now,
	}
}

// Get returns the value for key. Expired entries count as misses and are
// dropped.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return zero, false
	}
	e := el.Value.(*entry[K, V])
	if c.expired(e) {
		c.remove(el)
		c.stats.Misses++
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return e.value, true
}

// Put stores value under key, evicting the least recently used entry when
// the cache is full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[K, V])
		e.value = value
		e.expiresAt = c.deadline()
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: c.deadline()})
	if c.cfg.MaxEntries > 0 && c.order.Len() > c.cfg.MaxEntries {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
			c.stats.Evictions++
		}
	}
}

// Remove deletes key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Len returns the number of entries, including expired ones not yet
// collected.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns a snapshot of the counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	return s
}

func (c *LRU[K, V]) deadline() time.Time {
	if c.cfg.TTL <= 0 {
		return time.Time{}
	}
	return c.now().Add(c.cfg.TTL)
}

func (c *LRU[K, V]) expired(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

func (c *LRU[K, V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry[K, V]).key)
}
