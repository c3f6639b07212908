package booking

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyKeyPrefix = "idem:booking:"

// IdempotencyGuard reserves a client-supplied request key for a user.
type IdempotencyGuard interface {
	// Reserve reports false when the key is already held.
	Reserve(ctx context.Context, userID, key string) (bool, error)
	Release(ctx context.Context, userID, key string) error
}

type RedisIdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyGuard(client *redis.Client, ttl time.Duration) *RedisIdempotencyGuard {
	return &RedisIdempotencyGuard{client: client, ttl: ttl}
}

func (g *RedisIdempotencyGuard) Reserve(ctx context.Context, userID, key string) (bool, error) {
	return g.client.SetNX(ctx, idempotencyKeyPrefix+userID+":"+key, 1, g.ttl).Result()
}

func (g *RedisIdempotencyGuard) Release(ctx context.Context, userID, key string) error {
	return g.client.Del(ctx, idempotencyKeyPrefix+userID+":"+key).Err()
}
