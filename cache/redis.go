package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ogcard/config"
)

// Redis stores entries in redis, keys are prefixed to share database with
// other applications.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates redis backed cache. Connection is established lazily by
// the client on first command.
func NewRedis(cfg config.RedisConfig) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password.Reveal(),
			DB:       cfg.DB,
		}),
		prefix: cfg.Prefix,
	}
}

// Ping checks connectivity.
func (c *Redis) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("unable to reach redis: %w", err)
	}
	return nil
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("unable to get cache entry: %w", err)
	}
	return data, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("unable to set cache entry: %w", err)
	}
	return nil
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("unable to delete cache entry: %w", err)
	}
	return nil
}

func (c *Redis) Close() error {
	return c.client.Close()
}

var _ Cache = (*Redis)(nil)
