package memory

import (
	"sync"

	"spy-game-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.GameSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.GameSession),
	}
}

func (s *SessionStore) GetOrCreate(gameID string, create func() *app.GameSession) *app.GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[gameID]; ok {
		return session
	}
	session := create()
	s.sessions[gameID] = session
	return session
}

func (s *SessionStore) Get(gameID string) (*app.GameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[gameID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[gameID]
	if !ok {
		return
	}
	if session.IsEmpty() {
		delete(s.sessions, gameID)
	}
}
