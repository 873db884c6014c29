package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeCacheMiss, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "serialization failed")
)

// Cache is a JSON-valued key/value cache.  It satisfies the rating
// engine's CacheStore.
type Cache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	scanCount  int64
	jitter     func(time.Duration) time.Duration
}

type CacheOption func(*Cache)

// WithPrefix namespaces every key.
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = prefix }
}

// WithDefaultTTL is used when Set is called with a zero TTL.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// WithoutJitter disables TTL randomisation.
func WithoutJitter() CacheOption {
	return func(c *Cache) { c.jitter = func(ttl time.Duration) time.Duration { return ttl } }
}

func NewCache(client *Client, log logging.Logger, opts ...CacheOption) *Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &Cache{
		client:     client,
		logger:     log.Named("redis_cache"),
		prefix:     "ratecraft:",
		defaultTTL: 5 * time.Minute,
		scanCount:  100,
		jitter:     jitterTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// jitterTTL spreads expiry by ±10% so keys written together do not expire
// together.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + key
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err)
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitter(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache")
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, fullKeys...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete from cache")
	}
	return nil
}

// DeleteByPrefix walks the keyspace with SCAN and deletes matches batch by
// batch.  The count is of keys deleted before any error.
func (c *Cache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		deleted int64
		cursor  uint64
	)
	match := c.fullKey(prefix) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, c.scanCount).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "failed to scan cache")
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete from cache")
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.logger.Debug("cache prefix deleted", logging.String("prefix", prefix), logging.Int64("keys", deleted))
	return deleted, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

//Personal.AI order the ending
