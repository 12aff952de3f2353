package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Cache is an in-memory TTL cache. Safe for concurrent use.
//
// MaxValueSize, when positive, bounds accepted payloads; Put returns an
// error for anything larger, mimicking size-limited cache services.
type Cache struct {
	// MaxValueSize is the largest payload Put accepts, in bytes.
	// Zero means unlimited.
	MaxValueSize int

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// NewCache creates an empty Cache with no size limit.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Put stores value under key for at most ttl.
func (c *Cache) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.MaxValueSize > 0 && len(value) > c.MaxValueSize {
		return fmt.Errorf("memory cache: value for %q exceeds %d bytes", key, c.MaxValueSize)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:   append([]byte(nil), value...),
		expires: time.Now().Add(ttl),
	}
	return nil
}

// Get returns the value stored under key, or ok=false if absent or expired.
func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), entry.value...), true, nil
}

// Remove deletes the value stored under key, if any.
func (c *Cache) Remove(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len reports the number of live entries. Expired entries that have not
// been touched since expiry are still counted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
