package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/loginsentry/loginsentry/internal/common/database"
)

// Cache tags used to keep downstream cached views consistent with summary
// changes. Downstream consumers register their cache keys under these tags;
// the engine only removes by tag.
const (
	TagLoginAudits   = "loginaudits"
	TagRiskSummaries = "userloginrisksummary"
	TagStatistics    = "statistics"
)

// Cache is the key/value collaborator used for the IP throttle marker and for
// tag-based invalidation signaling.
type Cache interface {
	TryGet(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetTagged(ctx context.Context, key, value string, ttl time.Duration, tags ...string) error
	RemoveByTag(ctx context.Context, tag string) error
}

// RedisCache implements Cache over Redis. Tag membership is kept in Redis
// sets so RemoveByTag can clear every key registered under a tag.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Cache backed by the given Redis client.
func NewRedisCache(rc *database.RedisClient) *RedisCache {
	return &RedisCache{client: rc.Client}
}

func tagSetKey(tag string) string {
	return "cache-tag:" + tag
}

// TryGet returns the value for key and whether it was present.
func (c *RedisCache) TryGet(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores a value with a TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// SetTagged stores a value with a TTL and registers the key under each tag.
func (c *RedisCache) SetTagged(ctx context.Context, key, value string, ttl time.Duration, tags ...string) error {
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagSetKey(tag), key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set tagged %s: %w", key, err)
	}
	return nil
}

// RemoveByTag deletes every key registered under the tag, then the tag set
// itself. An unknown tag is a no-op.
func (c *RedisCache) RemoveByTag(ctx context.Context, tag string) error {
	setKey := tagSetKey(tag)
	members, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("cache tag members %s: %w", tag, err)
	}
	if len(members) > 0 {
		if err := c.client.Del(ctx, members...).Err(); err != nil {
			return fmt.Errorf("cache remove by tag %s: %w", tag, err)
		}
	}
	if err := c.client.Del(ctx, setKey).Err(); err != nil {
		return fmt.Errorf("cache drop tag set %s: %w", tag, err)
	}
	return nil
}
