package slot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const draftKeyPrefix = "slotdraft:"

// DraftStore persists editor states between requests.
type DraftStore interface {
	Save(ctx context.Context, state EditorState, ttl time.Duration) error
	Load(ctx context.Context, draftID string) (EditorState, error)
	Delete(ctx context.Context, draftID string) error
}

// RedisDraftStore keeps drafts as JSON with a sliding TTL.
type RedisDraftStore struct {
	client *redis.Client
}

func NewRedisDraftStore(client *redis.Client) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

func (r *RedisDraftStore) Save(ctx context.Context, state EditorState, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal slot draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKeyPrefix+state.DraftID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store slot draft: %w", err)
	}
	return nil
}

func (r *RedisDraftStore) Load(ctx context.Context, draftID string) (EditorState, error) {
	raw, err := r.client.Get(ctx, draftKeyPrefix+draftID).Bytes()
	if errors.Is(err, redis.Nil) {
		return EditorState{}, ErrDraftNotFound
	}
	if err != nil {
		return EditorState{}, fmt.Errorf("failed to load slot draft: %w", err)
	}
	var state EditorState
	if err := json.Unmarshal(raw, &state); err != nil {
		return EditorState{}, fmt.Errorf("failed to parse slot draft: %w", err)
	}
	return state, nil
}

func (r *RedisDraftStore) Delete(ctx context.Context, draftID string) error {
	return r.client.Del(ctx, draftKeyPrefix+draftID).Err()
}
