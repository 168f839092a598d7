// Package risk provides login risk analysis tests
package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestThrottleGate_MarkThenSkip(t *testing.T) {
	cache, _ := newTestCache(t)
	gate := NewThrottleGate(cache, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.False(t, gate.ShouldSkip(ctx, "203.0.113.7"))

	gate.Mark(ctx, "203.0.113.7")

	assert.True(t, gate.ShouldSkip(ctx, "203.0.113.7"))
	assert.False(t, gate.ShouldSkip(ctx, "203.0.113.8"), "marker is per exact IP")
}

func TestThrottleGate_MarkerExpires(t *testing.T) {
	cache, mock := newTestCache(t)
	gate := NewThrottleGate(cache, zaptest.NewLogger(t))
	ctx := context.Background()

	gate.Mark(ctx, "203.0.113.7")
	require.True(t, gate.ShouldSkip(ctx, "203.0.113.7"))

	require.NoError(t, mock.FastForward(6*time.Minute))

	assert.False(t, gate.ShouldSkip(ctx, "203.0.113.7"), "marker must expire after its TTL")
}

func TestThrottleGate_NormalizesKeys(t *testing.T) {
	cache, mock := newTestCache(t)
	gate := NewThrottleGate(cache, zaptest.NewLogger(t))
	ctx := context.Background()

	// Compressed and expanded spellings of the same IPv6 address share one marker.
	gate.Mark(ctx, "2001:db8::1")
	assert.True(t, gate.ShouldSkip(ctx, "2001:0db8:0000:0000:0000:0000:0000:0001"))

	keys, err := mock.Keys("ip-analysis-throttle:*")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "ip-analysis-throttle:2001:0db8:0000:0000:0000:0000:0000:0001", keys[0])
}

func TestThrottleGate_InvalidIP(t *testing.T) {
	cache, mock := newTestCache(t)
	gate := NewThrottleGate(cache, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.False(t, gate.ShouldSkip(ctx, ""))
	assert.False(t, gate.ShouldSkip(ctx, "not-an-ip"))

	gate.Mark(ctx, "not-an-ip")
	keys, err := mock.Keys("ip-analysis-throttle:*")
	require.NoError(t, err)
	assert.Empty(t, keys, "invalid IPs must not create markers")
}

// failingCache errors on every operation, standing in for an unavailable Redis.
type failingCache struct{}

func (failingCache) TryGet(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis down")
}
func (failingCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("redis down")
}
func (failingCache) SetTagged(context.Context, string, string, time.Duration, ...string) error {
	return errors.New("redis down")
}
func (failingCache) RemoveByTag(context.Context, string) error {
	return errors.New("redis down")
}

func TestThrottleGate_CacheUnavailableDegradesToRescan(t *testing.T) {
	gate := NewThrottleGate(failingCache{}, zap.NewNop())
	ctx := context.Background()

	// Lookup failures mean "scan anyway"; Mark failures are swallowed.
	assert.False(t, gate.ShouldSkip(ctx, "203.0.113.7"))
	gate.Mark(ctx, "203.0.113.7")
	assert.False(t, gate.ShouldSkip(ctx, "203.0.113.7"))
}
