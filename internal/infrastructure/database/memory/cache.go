package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/turtacn/RateCraft/pkg/errors"
)

// ErrCacheMiss is returned by Cache.Get for absent or expired keys.
var ErrCacheMiss = errors.New(errors.ErrCodeCacheMiss, "cache miss")

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// Cache is an in-process key/value cache with per-key TTL.  Values are
// stored serialized so callers get the same copy semantics as with Redis.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry), now: time.Now}
}

// Get decodes the value at key into dest.
func (c *Cache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)) {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decode cached value")
	}
	return nil
}

// Set stores value at key.  A zero ttl never expires.
func (c *Cache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode cache value")
	}
	e := cacheEntry{data: data}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete removes keys.
func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

// DeleteByPrefix removes every key starting with prefix and returns the count.
func (c *Cache) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (c *Cache) Ping(context.Context) error { return nil }

// Len returns the number of stored keys, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

//Personal.AI order the ending
