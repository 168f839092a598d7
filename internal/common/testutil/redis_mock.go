// Package testutil provides testing utilities for LoginSentry services
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// MockRedis manages a miniredis instance for testing
type MockRedis struct {
	mini    *miniredis.Miniredis
	client  *redis.Client
	logger  *zap.Logger
	mu      sync.RWMutex
	running bool
}

// NewMockRedis creates a new mock Redis instance
func NewMockRedis(logger *zap.Logger) *MockRedis {
	return &MockRedis{
		logger: logger.With(zap.String("component", "mock_redis")),
	}
}

// Setup initializes the miniredis instance and creates a client
func (m *MockRedis) Setup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	mini, err := miniredis.Run()
	if err != nil {
		return fmt.Errorf("failed to start miniredis: %w", err)
	}

	m.mini = mini
	m.client = redis.NewClient(&redis.Options{
		Addr: mini.Addr(),
	})

	m.running = true
	m.logger.Debug("Mock Redis started", zap.String("addr", mini.Addr()))
	return nil
}

// Shutdown closes the miniredis instance
func (m *MockRedis) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	if m.client != nil {
		_ = m.client.Close()
	}
	if m.mini != nil {
		m.mini.Close()
	}

	m.running = false
	m.logger.Debug("Mock Redis stopped")
	return nil
}

// Client returns the Redis client
func (m *MockRedis) Client() *redis.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Mini returns the underlying miniredis instance for direct manipulation
func (m *MockRedis) Mini() *miniredis.Miniredis {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mini
}

// ClearAll removes all keys from the mock Redis
func (m *MockRedis) ClearAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mini == nil {
		return fmt.Errorf("mock redis not running")
	}
	m.mini.FlushAll()
	return nil
}

// ClearData removes all keys matching a pattern
func (m *MockRedis) ClearData(pattern string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.mini == nil {
		return fmt.Errorf("mock redis not running")
	}

	ctx := context.Background()
	iter := m.client.Scan(ctx, 0, pattern, 100).Iterator()
	keys := []string{}

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}

	if len(keys) > 0 {
		return m.client.Del(ctx, keys...).Err()
	}
	return nil
}

// FastForward advances the mock Redis time by the given duration.
// Useful for testing TTL expiration.
func (m *MockRedis) FastForward(d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mini == nil {
		return fmt.Errorf("mock redis not running")
	}

	m.mini.FastForward(d)
	return nil
}

// IsRunning returns true if the mock Redis is running
func (m *MockRedis) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Keys returns all keys matching a pattern
func (m *MockRedis) Keys(pattern string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.mini == nil {
		return nil, fmt.Errorf("mock redis not running")
	}
	return m.client.Keys(context.Background(), pattern).Result()
}
