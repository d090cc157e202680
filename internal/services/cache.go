package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "cache:"
	// Aggregate views tolerate short staleness; TTL is clamped to 2-5 minutes.
	MinCacheTTL = 2 * time.Minute
	MaxCacheTTL = 5 * time.Minute
)

// CacheService is a JSON cache over Redis for aggregate views such as the
// dashboard and the profile summary.
type CacheService struct {
	rdb     *redis.Client
	enabled bool
	ttl     time.Duration
}

func NewCacheService(rdb *redis.Client, enabled bool, ttl time.Duration) *CacheService {
	if ttl < MinCacheTTL {
		ttl = MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		ttl = MaxCacheTTL
	}
	return &CacheService{rdb: rdb, enabled: enabled, ttl: ttl}
}

// Get retrieves a cached value into dest. A miss or disabled cache returns
// (false, nil).
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.enabled {
		return false, nil
	}
	val, err := c.rdb.Get(ctx, cacheKeyPrefix+key).Result()
	if err != nil {
		return false, nil // miss or backend error, treat as miss
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a value with the configured TTL.
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return nil
	}
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKeyPrefix+key, jsonData, c.ttl).Err()
}

// Delete removes a single cached key.
func (c *CacheService) Delete(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Del(ctx, cacheKeyPrefix+key).Err()
}

// InvalidateUser drops every cached view belonging to the user.
func (c *CacheService) InvalidateUser(ctx context.Context, userID string) error {
	if !c.enabled {
		return nil
	}
	var cursor uint64
	pattern := cacheKeyPrefix + "*:" + userID
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// CacheKey builds a per-user key for a named view.
func CacheKey(view, userID string) string {
	return fmt.Sprintf("%s:%s", view, userID)
}
