package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"spy-game-service/internal/domain"
)

// StateStore persists the saved record as a JSON value per game. The record
// is a small single-writer blob (custom topics, settings, history), so one
// key per game is enough.
type StateStore struct {
	client *redis.Client
}

func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

func (s *StateStore) Load(ctx context.Context, gameID string) (domain.SavedState, error) {
	raw, err := s.client.Get(ctx, s.key(gameID)).Bytes()
	if err == redis.Nil {
		return domain.SavedState{}, domain.ErrStateNotFound
	}
	if err != nil {
		return domain.SavedState{}, fmt.Errorf("load saved state: %w", err)
	}
	var state domain.SavedState
	if err := json.Unmarshal(raw, &state); err != nil {
		return domain.SavedState{}, fmt.Errorf("unmarshal saved state: %w", err)
	}
	return state, nil
}

func (s *StateStore) Save(ctx context.Context, gameID string, state domain.SavedState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal saved state: %w", err)
	}
	// Saved records have no TTL: history and custom topics survive until an
	// explicit data reset.
	if err := s.client.Set(ctx, s.key(gameID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *StateStore) key(gameID string) string {
	return "spy:state:" + gameID
}
