package pantry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultCacheTTL = 24 * time.Hour

// RedisCache keeps scan results in Redis as JSON arrays.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, prefix: "cookmate:pantry", ttl: ttl}
}

func (c *RedisCache) key(hash string) string { return c.prefix + ":" + hash }

func (c *RedisCache) Get(ctx context.Context, hash string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pantry cache get: %w", err)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("pantry cache decode: %w", err)
	}
	return out, true, nil
}

func (c *RedisCache) Set(ctx context.Context, hash string, ingredients []string) error {
	if ingredients == nil {
		ingredients = []string{}
	}
	raw, err := json.Marshal(ingredients)
	if err != nil {
		return fmt.Errorf("pantry cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(hash), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("pantry cache set: %w", err)
	}
	return nil
}
