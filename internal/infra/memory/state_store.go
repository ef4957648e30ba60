package memory

import (
	"context"
	"sync"

	"spy-game-service/internal/domain"
)

// StateStore keeps saved records in process memory. Records survive session
// teardown but not a process restart, which matches the contract that a
// restart resumes at setup either way.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]domain.SavedState
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]domain.SavedState)}
}

func (s *StateStore) Load(_ context.Context, gameID string) (domain.SavedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[gameID]
	if !ok {
		return domain.SavedState{}, domain.ErrStateNotFound
	}
	return state, nil
}

func (s *StateStore) Save(_ context.Context, gameID string, state domain.SavedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[gameID] = state
	return nil
}
