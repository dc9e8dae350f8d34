package bank

import (
	"sync"
	"time"
)

// timedCache is a single-value cache with a fixed freshness window.
// An entry is fresh iff now - fetchedAt < window. Stale entries are kept
// around so accessors can fall back to them when a refresh fails.
type timedCache[T any] struct {
	mu        sync.Mutex
	value     T
	ok        bool
	fetchedAt time.Time
	window    time.Duration
}

// fresh returns the cached value if one exists and is still inside the
// freshness window.
func (c *timedCache[T]) fresh(now time.Time) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ok || now.Sub(c.fetchedAt) >= c.window {
		var zero T
		return zero, false
	}
	return c.value, true
}

// last returns the cached value regardless of freshness.
func (c *timedCache[T]) last() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.ok
}

// store replaces the cached value and restarts the freshness window.
func (c *timedCache[T]) store(value T, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
	c.ok = true
	c.fetchedAt = now
}
