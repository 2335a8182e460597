package cache

import (
	"context"
	"time"

	"bookshelf-backend/pkg/cache"
)

// NoopCache satisfies cache.Cache without storing anything.
// Used by the in-memory backend and in tests, where Redis is not wired.
type NoopCache struct{}

func NewNoopCache() cache.Cache {
	return NoopCache{}
}

func (NoopCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}

func (NoopCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (NoopCache) Delete(ctx context.Context, keys ...string) error { return nil }

func (NoopCache) DeletePattern(ctx context.Context, pattern string) error { return nil }

func (NoopCache) Ping(ctx context.Context) error { return nil }
