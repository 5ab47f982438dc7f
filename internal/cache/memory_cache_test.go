package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var got map[string]int
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, 1, got["a"])
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()

	var got string
	assert.ErrorIs(t, c.Get(context.Background(), "absent", &got), ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache().(*memoryCache)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	var got string
	require.NoError(t, c.Get(ctx, "k", &got))

	// Advance past the TTL: the entry is gone on the next read.
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "realtime:a", 1, 0))
	require.NoError(t, c.Set(ctx, "realtime:b", 2, 0))
	require.NoError(t, c.Set(ctx, "other:c", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, "realtime:*"))

	var got int
	assert.ErrorIs(t, c.Get(ctx, "realtime:a", &got), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "other:c", &got))
}
