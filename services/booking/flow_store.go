package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"studiobook/models"
)

const flowKeyPrefix = "bookingflow:"

type FlowStore interface {
	Save(ctx context.Context, flow models.BookingFlow, ttl time.Duration) error
	Load(ctx context.Context, flowID string) (models.BookingFlow, error)
}

type RedisFlowStore struct {
	client *redis.Client
}

func NewRedisFlowStore(client *redis.Client) *RedisFlowStore {
	return &RedisFlowStore{client: client}
}

func (r *RedisFlowStore) Save(ctx context.Context, flow models.BookingFlow, ttl time.Duration) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal booking flow: %w", err)
	}
	if err := r.client.Set(ctx, flowKeyPrefix+flow.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store booking flow: %w", err)
	}
	return nil
}

func (r *RedisFlowStore) Load(ctx context.Context, flowID string) (models.BookingFlow, error) {
	raw, err := r.client.Get(ctx, flowKeyPrefix+flowID).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.BookingFlow{}, ErrFlowNotFound
	}
	if err != nil {
		return models.BookingFlow{}, fmt.Errorf("failed to load booking flow: %w", err)
	}
	var flow models.BookingFlow
	if err := json.Unmarshal(raw, &flow); err != nil {
		return models.BookingFlow{}, fmt.Errorf("failed to parse booking flow: %w", err)
	}
	return flow, nil
}
