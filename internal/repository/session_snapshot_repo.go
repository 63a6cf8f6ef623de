package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gema-interview-api/internal/models"
)

// LiveSessionKey is the Redis key holding the live interview session.
const LiveSessionKey = "interview:session:live"

// SessionSnapshotStore persists the live session so it survives a restart.
type SessionSnapshotStore interface {
	// Load returns the stored session. ok is false when nothing has been saved.
	Load(ctx context.Context) (state models.SessionState, ok bool, err error)
	Save(ctx context.Context, state models.SessionState) error
	Clear(ctx context.Context) error
}

type redisSessionSnapshotStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSessionSnapshotStore builds a Redis-backed store. A zero ttl keeps the snapshot until cleared.
func NewSessionSnapshotStore(client *redis.Client, ttl time.Duration) SessionSnapshotStore {
	return &redisSessionSnapshotStore{client: client, key: LiveSessionKey, ttl: ttl}
}

func (s *redisSessionSnapshotStore) Load(ctx context.Context) (models.SessionState, bool, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SessionState{}, false, nil
	}
	if err != nil {
		return models.SessionState{}, false, fmt.Errorf("failed to read session snapshot: %w", err)
	}

	var state models.SessionState
	if err := json.Unmarshal(payload, &state); err != nil {
		return models.SessionState{}, false, fmt.Errorf("failed to decode session snapshot: %w", err)
	}
	if state.Questions == nil {
		state.Questions = []models.Question{}
	}
	if state.ChatHistory == nil {
		state.ChatHistory = []models.ChatMessage{}
	}

	return state, true, nil
}

func (s *redisSessionSnapshotStore) Save(ctx context.Context, state models.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}

	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session snapshot: %w", err)
	}
	return nil
}

func (s *redisSessionSnapshotStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session snapshot: %w", err)
	}
	return nil
}
