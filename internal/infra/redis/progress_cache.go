package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProgressCache implements app.LocalCache on a node-local Redis. Keys are used as given
// ("progress:<user>"); a zero ttl keeps entries until removed.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressCache(client *redis.Client, ttl time.Duration) *ProgressCache {
	return &ProgressCache{client: client, ttl: ttl}
}

func (c *ProgressCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *ProgressCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *ProgressCache) Remove(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
