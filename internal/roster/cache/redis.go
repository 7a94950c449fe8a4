package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisCache is a ViewCache shared across console backend replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis returns a RedisCache over client. Entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, orgID, memberID string) (Entry, bool, error) {
	raw, err := c.client.Get(ctx, key(orgID, memberID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, key(orgID, memberID)).Err()
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, orgID, memberID string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(orgID, memberID), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, orgID, memberID string) error {
	return c.client.Del(ctx, key(orgID, memberID)).Err()
}
