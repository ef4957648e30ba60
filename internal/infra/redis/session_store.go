package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"spy-game-service/internal/app"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Sessions themselves stay in a local in-memory map so the in-process
//     snapshot broadcast keeps working.
//   - Redis marks session liveness, which an operator can inspect and which
//     could be extended to route cross-instance pub/sub.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.GameSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(gameID), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(gameID)).Err()
	}
}

func (s *SessionStore) key(gameID string) string {
	return "spy:session:" + gameID
}
