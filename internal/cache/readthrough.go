package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/psyeval/recruitment/pkg/metrics"
	"go.uber.org/zap"
)

// ReadThrough serves key from c and falls back to load on a miss or on any
// cache failure. A successful load is written back with ttl. Cache failures
// are logged and never returned.
func ReadThrough[T any](ctx context.Context, c Cache, kind string, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	logger := zap.S().Named("cache")

	raw, found, err := c.Get(ctx, key)
	switch {
	case err != nil:
		metrics.IncreaseCacheRequestsTotalMetric(kind, metrics.CacheError)
		logger.Warnw("cache read failed", "key", key, "error", err)
	case found:
		var cached T
		uerr := json.Unmarshal(raw, &cached)
		if uerr == nil {
			metrics.IncreaseCacheRequestsTotalMetric(kind, metrics.CacheHit)
			return cached, nil
		}
		logger.Warnw("dropping undecodable cache entry", "key", key, "error", uerr)
	default:
		metrics.IncreaseCacheRequestsTotalMetric(kind, metrics.CacheMiss)
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Warnw("cannot encode value for cache", "key", key, "error", err)
		return value, nil
	}
	if err := c.Set(ctx, key, payload, ttl); err != nil {
		logger.Warnw("cache write failed", "key", key, "error", err)
	}
	return value, nil
}

// Invalidate deletes keys. Failures are logged and swallowed.
func Invalidate(ctx context.Context, c Cache, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		zap.S().Named("cache").Warnw("cache invalidation failed", "keys", keys, "error", err)
	}
}

// ListKey returns the list key of filter under the current generation of ks.
// It returns false when the generation cannot be read, in which case the
// caller should skip the cache.
func ListKey(ctx context.Context, c Cache, ks Keyspace, filter any) (string, bool) {
	raw, found, err := c.Get(ctx, ks.generationKey())
	if err != nil {
		zap.S().Named("cache").Warnw("cannot read list generation", "keyspace", ks.Kind, "error", err)
		return "", false
	}

	var generation int64
	if found {
		generation, err = strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			zap.S().Named("cache").Warnw("corrupted list generation", "keyspace", ks.Kind, "error", err)
			return "", false
		}
	}
	return ks.List(generation, filter), true
}

// InvalidateLists moves ks to a new list generation so that every list
// variant cached so far is no longer addressed.
func InvalidateLists(ctx context.Context, c Cache, ks Keyspace) {
	if _, err := c.Incr(ctx, ks.generationKey()); err != nil {
		zap.S().Named("cache").Warnw("list invalidation failed", "keyspace", ks.Kind, "error", err)
	}
}
