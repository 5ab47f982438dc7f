// Package cache provides the short-TTL cache behind realtime data reads:
// redis-backed in production, in-memory for tests and single-node runs.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when a key is absent or its entry has expired.
var ErrCacheMiss = errors.New("cache miss")

type Service interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}
