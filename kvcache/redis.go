package kvcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const setIfEqualScript = `
local current = redis.call("GET", KEYS[1])
if current == false then
  current = ""
end
if current ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
  redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`

var setIfEqualLua = redis.NewScript(setIfEqualScript)

// RedisClient is the Redis-backed [Client]. All keys are namespaced under a
// configurable prefix so multiple deployments can share one Redis instance.
type RedisClient struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisClient wraps an existing go-redis client. prefix may be empty, in
// which case keys are stored verbatim.
func NewRedisClient(rdb redis.UniversalClient, prefix string) *RedisClient {
	return &RedisClient{redis: rdb, prefix: prefix}
}

func (c *RedisClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

// Get fetches the value stored under key.
//
//	Performance: 1 Redis GET.
func (c *RedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := c.redis.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// Set stores value under key with the given TTL. A non-positive TTL stores
// the key without expiration.
func (c *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := c.redis.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Touch resets the TTL of an existing key. Returns [ErrMiss] when the key
// does not exist.
func (c *RedisClient) Touch(ctx context.Context, key string, ttl time.Duration) error {
	ok, err := c.redis.Expire(ctx, c.key(key), ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrMiss
	}
	return nil
}

// Del removes the given keys. Deleting an absent key is a no-op, not an
// error.
func (c *RedisClient) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = c.key(k)
	}

	if err := c.redis.Del(ctx, namespaced...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// SetIfEqual atomically replaces the value under key only when the stored
// value equals old. An empty old means the key must be absent. The swap runs
// as a Lua script so concurrent writers cannot interleave between the read
// and the write.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
func (c *RedisClient) SetIfEqual(ctx context.Context, key, old, new string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	res, err := setIfEqualLua.Run(
		ctx,
		c.redis,
		[]string{c.key(key)},
		old,
		new,
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res == 1, nil
}

var _ Client = (*RedisClient)(nil)
var _ Swapper = (*RedisClient)(nil)
