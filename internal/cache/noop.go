package cache

import (
	"context"
	"time"
)

// NoopCache never stores anything. Every read is a miss.
type NoopCache struct{}

// Make sure we conform to Cache interface
var _ Cache = NoopCache{}

func NewNoop() NoopCache { return NoopCache{} }

func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopCache) Delete(context.Context, ...string) error { return nil }

func (NoopCache) Incr(context.Context, string) (int64, error) { return 0, nil }
