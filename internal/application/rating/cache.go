package rating

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"
	"time"

	domain "github.com/turtacn/RateCraft/internal/domain/rating"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/pkg/errors"
)

// CacheStore is the best-effort key/value collaborator behind RatingCache.
// Get reports a miss with an error whose code is ErrCodeCacheMiss.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

const (
	keyRateTable = "rating:ratetable:"
	keyTerritory = "rating:territory:"
)

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// RatingCache memoizes the deterministic lookups of a calculation: active
// rate-table resolution and territory factors.  Keys are fingerprints of
// everything the lookup depends on.  Cache failures never fail a lookup;
// they only cost the speed-up.  Concurrent misses on one key may each
// recompute and overwrite; the value converges.
type RatingCache struct {
	store   CacheStore
	ttl     atomic.Int64
	timeout atomic.Int64
	logger  logging.Logger

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// NewRatingCache wraps store.  A nil store yields a pass-through cache.
func NewRatingCache(store CacheStore, ttl time.Duration, logger logging.Logger) *RatingCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &RatingCache{store: store, logger: logger.Named("rating_cache")}
	c.ttl.Store(int64(ttl))
	return c
}

// SetTTL changes the TTL applied to subsequent writes.
func (c *RatingCache) SetTTL(ttl time.Duration) { c.ttl.Store(int64(ttl)) }

// SetTimeout bounds every store read and write.  A store call that overruns
// is abandoned and counted as an error.  Zero leaves calls unbounded.
func (c *RatingCache) SetTimeout(d time.Duration) { c.timeout.Store(int64(d)) }

// Enabled reports whether a store is attached and the TTL is positive.
func (c *RatingCache) Enabled() bool {
	return c != nil && c.store != nil && c.ttl.Load() > 0
}

// Fingerprint hashes the parts of a lookup key.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:16])
}

// RateTableKey is the cache key of an active-rate lookup.  The rate-table
// version is not part of the key since it is only known after the lookup;
// a newly activated version is picked up when the entry expires or after
// InvalidateState.
func RateTableKey(scope domain.RateScope, asOf time.Time) string {
	return keyRateTable + scope.State + ":" +
		Fingerprint(scope.State, string(scope.ProductType), string(scope.CoverageType), asOf.UTC().Format("2006-01-02"))
}

// TerritoryKey is the cache key of a territory factor.
func TerritoryKey(state, code string) string {
	return keyTerritory + state + ":" + Fingerprint(state, code)
}

// RateTable returns the cached table for scope or calls load and stores its
// result.  Load errors are returned and never cached.
func (c *RatingCache) RateTable(ctx context.Context, scope domain.RateScope, asOf time.Time,
	load func(context.Context) (*domain.RateTable, error)) (*domain.RateTable, error) {
	if !c.Enabled() {
		return load(ctx)
	}
	key := RateTableKey(scope, asOf)
	var cached domain.RateTable
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}
	t, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, t)
	return t, nil
}

// Territory returns the cached factor for (state, code) or calls load.
func (c *RatingCache) Territory(ctx context.Context, state, code string,
	load func(context.Context) (domain.TerritoryFactor, error)) (domain.TerritoryFactor, error) {
	if !c.Enabled() {
		return load(ctx)
	}
	key := TerritoryKey(state, code)
	var cached domain.TerritoryFactor
	if c.get(ctx, key, &cached) {
		return cached, nil
	}
	tf, err := load(ctx)
	if err != nil {
		return tf, err
	}
	c.set(ctx, key, tf)
	return tf, nil
}

// InvalidateState drops every cached lookup of state, typically after a new
// rate-table version is activated.
func (c *RatingCache) InvalidateState(ctx context.Context, state string) (int64, error) {
	if c == nil || c.store == nil {
		return 0, nil
	}
	var total int64
	for _, prefix := range []string{keyRateTable + state + ":", keyTerritory + state + ":"} {
		n, err := c.store.DeleteByPrefix(ctx, prefix)
		if err != nil {
			c.errs.Add(1)
			return total, errors.Wrap(err, errors.ErrCodeCacheError, "invalidate rating cache").
				WithDetail("state=" + state)
		}
		total += n
	}
	c.logger.Info("rating cache invalidated", logging.String(logging.FieldState, state), logging.Int64("keys", total))
	return total, nil
}

// Stats returns hit, miss and error counters.
func (c *RatingCache) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Errors: c.errs.Load()}
}

// call runs fn under the configured store timeout.
func (c *RatingCache) call(ctx context.Context, fn func(context.Context) error) error {
	d := time.Duration(c.timeout.Load())
	if d <= 0 {
		return fn(ctx)
	}
	_, err := callWithTimeout(ctx, d, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// get reports a hit.  dest is only valid when it returns true: a read
// abandoned at the timeout may still write to it.
func (c *RatingCache) get(ctx context.Context, key string, dest interface{}) bool {
	err := c.call(ctx, func(ctx context.Context) error { return c.store.Get(ctx, key, dest) })
	switch {
	case err == nil:
		c.hits.Add(1)
		return true
	case errors.IsCode(err, errors.ErrCodeCacheMiss):
		c.misses.Add(1)
	default:
		c.misses.Add(1)
		c.errs.Add(1)
		c.logger.Warn("rating cache read failed", logging.String("key", key), logging.Err(err))
	}
	return false
}

func (c *RatingCache) set(ctx context.Context, key string, value interface{}) {
	ttl := time.Duration(c.ttl.Load())
	err := c.call(ctx, func(ctx context.Context) error { return c.store.Set(ctx, key, value, ttl) })
	if err != nil {
		c.errs.Add(1)
		c.logger.Warn("rating cache write failed", logging.String("key", key), logging.Err(err))
	}
}

//Personal.AI order the ending
