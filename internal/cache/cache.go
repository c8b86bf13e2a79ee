// Package cache memoizes resolved read views. Every backend may fail; callers
// go through ReadThrough and Invalidate, which log and swallow those failures.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/psyeval/recruitment/internal/config"
)

// Cache is the key-value collaborator. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically increments the counter stored at key and returns the
	// new value. Missing keys start at zero.
	Incr(ctx context.Context, key string) (int64, error)
}

// TTLs of the cached views.
type TTLs struct {
	Entity         time.Duration
	List           time.Duration
	Classification time.Duration
}

func TTLsFromConfig(cfg *config.Config) TTLs {
	return TTLs{
		Entity:         cfg.Cache.EntityTTL,
		List:           cfg.Cache.ListTTL,
		Classification: cfg.Cache.ClassificationTTL,
	}
}

// New builds the backend selected by the configuration.
func New(cfg *config.Config) (Cache, error) {
	switch cfg.Cache.Type {
	case "memory", "":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg), nil
	case "none":
		return NewNoop(), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Cache.Type)
	}
}
