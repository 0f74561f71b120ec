package cachesvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/shule/core"
)

const (
	keyPrefix = "shule:"
	scanCount = 100
)

// RedisCache stores values as JSON under namespaced keys, each with the configured TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ core.Cache = (*RedisCache)(nil)

// NewRedisCache connects to redis and pings it.
func NewRedisCache(ctx context.Context, conf core.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "client.Ping()")
	}
	return &RedisCache{client: client, ttl: conf.TTL}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) error {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.ErrCacheMiss
		}
		return errors.Wrap(err, "client.Get()")
	}
	return errors.Wrap(json.Unmarshal(data, dst), "json.Unmarshal()")
}

func (c *RedisCache) Set(ctx context.Context, key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrap(err, "json.Marshal()")
	}
	return errors.Wrap(c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(), "client.Set()")
}

// Invalidate scans the keys matching prefix and deletes them in batches.
func (c *RedisCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, matchPattern(prefix), scanCount).Iterator()
	batch := make([]string, 0, scanCount)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanCount {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return errors.Wrap(err, "client.Del()")
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "iter.Err()")
	}
	if len(batch) > 0 {
		return errors.Wrap(c.client.Del(ctx, batch...).Err(), "client.Del()")
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// matchPattern escapes the glob characters of prefix for SCAN MATCH.
func matchPattern(prefix string) string {
	escaped := make([]rune, 0, len(keyPrefix)+len(prefix)+1)
	for _, r := range keyPrefix + prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return string(append(escaped, '*'))
}
