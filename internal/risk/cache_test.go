// Package risk provides login risk analysis tests
package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/loginsentry/loginsentry/internal/common/database"
	"github.com/loginsentry/loginsentry/internal/common/testutil"
)

func newTestCache(t *testing.T) (*RedisCache, *testutil.MockRedis) {
	t.Helper()

	mock := testutil.NewMockRedis(zaptest.NewLogger(t))
	require.NoError(t, mock.Setup())
	t.Cleanup(func() { _ = mock.Shutdown() })

	return NewRedisCache(&database.RedisClient{Client: mock.Client()}), mock
}

func TestRedisCache_SetAndTryGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, found, err := cache.TryGet(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))

	val, found, err := cache.TryGet(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", val)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	cache, mock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, mock.FastForward(2*time.Minute))

	_, found, err := cache.TryGet(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_SetTaggedAndRemoveByTag(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetTagged(ctx, "stats-1", "a", time.Minute, TagStatistics))
	require.NoError(t, cache.SetTagged(ctx, "stats-2", "b", time.Minute, TagStatistics, TagRiskSummaries))
	require.NoError(t, cache.Set(ctx, "untagged", "c", time.Minute))

	require.NoError(t, cache.RemoveByTag(ctx, TagStatistics))

	for _, key := range []string{"stats-1", "stats-2"} {
		_, found, err := cache.TryGet(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, "key %s should be invalidated", key)
	}

	val, found, err := cache.TryGet(ctx, "untagged")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "c", val)
}

func TestRedisCache_RemoveByTag_UnknownTag(t *testing.T) {
	cache, _ := newTestCache(t)

	// Removing a tag nobody registered is a no-op, not an error.
	assert.NoError(t, cache.RemoveByTag(context.Background(), "never-used"))
}

func TestRedisCache_RemoveByTag_ClearsTagSet(t *testing.T) {
	cache, mock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetTagged(ctx, "k", "v", time.Minute, TagLoginAudits))
	require.NoError(t, cache.RemoveByTag(ctx, TagLoginAudits))

	keys, err := mock.Keys("cache-tag:*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}
