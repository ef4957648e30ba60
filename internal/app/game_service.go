package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"spy-game-service/internal/domain"
	"spy-game-service/internal/rng"
)

// SessionRepository abstracts how live game sessions are stored (in-memory,
// Redis-marked, etc). The factory runs under the repository lock so two
// concurrent joins cannot double-create a session.
type SessionRepository interface {
	GetOrCreate(gameID string, create func() *GameSession) *GameSession
	Get(gameID string) (*GameSession, bool)
	DeleteIfEmpty(gameID string)
}

// CatalogRepository loads the built-in topic catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

// StateRepository persists the saved record for a game: custom topics,
// settings, and answer history. In-progress session state never goes here.
type StateRepository interface {
	Load(ctx context.Context, gameID string) (domain.SavedState, error)
	Save(ctx context.Context, gameID string, state domain.SavedState) error
}

// GameService contains the game-session use cases.
type GameService struct {
	sessions SessionRepository
	catalog  CatalogRepository
	states   StateRepository
	src      rng.Source
	now      func() time.Time
}

func NewGameService(sessions SessionRepository, catalog CatalogRepository, states StateRepository) *GameService {
	return NewGameServiceWithSource(sessions, catalog, states, rng.Crypto{})
}

// NewGameServiceWithSource is a test seam for injecting deterministic draws.
func NewGameServiceWithSource(sessions SessionRepository, catalog CatalogRepository, states StateRepository, src rng.Source) *GameService {
	return &GameService{
		sessions: sessions,
		catalog:  catalog,
		states:   states,
		src:      src,
		now:      time.Now,
	}
}

// Join loads (or creates) the session for a game and returns its snapshot.
// The saved record rehydrates custom topics, settings, and history; the
// phase always starts at setup for a fresh session.
func (s *GameService) Join(ctx context.Context, gameID string) (domain.Snapshot, error) {
	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	saved, err := s.states.Load(ctx, gameID)
	if err != nil && err != domain.ErrStateNotFound {
		return domain.Snapshot{}, err
	}

	session := s.sessions.GetOrCreate(gameID, func() *GameSession {
		return NewGameSessionWithClock(gameID, catalog, saved, s.src, s.now)
	})
	return session.snapshot(), nil
}

// Subscribe returns a channel that receives session snapshots for a game.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, gameID string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return nil, nil, domain.ErrGameNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave drops the in-memory session once nothing is watching it. The saved
// record is untouched, so a later Join resumes settings and history.
func (s *GameService) Leave(_ context.Context, gameID string) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return
	}
	if session.IsEmpty() {
		s.sessions.DeleteIfEmpty(gameID)
	}
}

// StartGame assigns roles and moves the session into the reveal phase. An
// unusable topic makes this a silent no-op, leaving the session unchanged.
func (s *GameService) StartGame(ctx context.Context, gameID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap, started := session.startGame()
	if started {
		s.persist(ctx, gameID, session)
	}
	return snap, nil
}

// Advance shows the next player's role, or begins open play after the last
// reveal.
func (s *GameService) Advance(_ context.Context, gameID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	return session.advance(), nil
}

// Finish ends open play and records the end time.
func (s *GameService) Finish(_ context.Context, gameID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	return session.finish(), nil
}

// Restart regenerates a completely new session under the same settings.
func (s *GameService) Restart(ctx context.Context, gameID string) (domain.Snapshot, error) {
	return s.StartGame(ctx, gameID)
}

// Reset abandons the session and returns to setup, preserving settings,
// topics, and history.
func (s *GameService) Reset(_ context.Context, gameID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	return session.reset(), nil
}

// OpenListManagement branches from setup into the topic-editing screen.
func (s *GameService) OpenListManagement(_ context.Context, gameID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	return session.openListManagement(), nil
}

// UpdateSettings applies a partial settings update with the spy-count clamp.
func (s *GameService) UpdateSettings(ctx context.Context, gameID string, patch domain.SettingsPatch) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap := session.updateSettings(patch)
	s.persist(ctx, gameID, session)
	return snap, nil
}

// AddCustomTopic registers a user-created topic.
func (s *GameService) AddCustomTopic(ctx context.Context, gameID string, topic domain.Topic) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap := session.addCustomTopic(topic)
	s.persist(ctx, gameID, session)
	return snap, nil
}

// UpdateCustomTopic replaces a user-created topic.
func (s *GameService) UpdateCustomTopic(ctx context.Context, gameID string, topic domain.Topic) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap := session.updateCustomTopic(topic)
	s.persist(ctx, gameID, session)
	return snap, nil
}

// DeleteCustomTopic removes a user-created topic.
func (s *GameService) DeleteCustomTopic(ctx context.Context, gameID, topicID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap := session.deleteCustomTopic(topicID)
	s.persist(ctx, gameID, session)
	return snap, nil
}

// ToggleItem enables or disables a single answer candidate. An unknown
// topic ID returns domain.ErrTopicNotFound.
func (s *GameService) ToggleItem(ctx context.Context, gameID, topicID, item string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap, err := session.toggleItem(topicID, item)
	if err != nil {
		return snap, err
	}
	s.persist(ctx, gameID, session)
	return snap, nil
}

// AddItem appends an answer candidate to a topic. An unknown topic ID
// returns domain.ErrTopicNotFound.
func (s *GameService) AddItem(ctx context.Context, gameID, topicID, item string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap, err := session.addItem(topicID, item)
	if err != nil {
		return snap, err
	}
	s.persist(ctx, gameID, session)
	return snap, nil
}

// ClearCustomData wipes custom topics and the answer history.
func (s *GameService) ClearCustomData(ctx context.Context, gameID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(gameID)
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	snap := session.clearCustomData()
	s.persist(ctx, gameID, session)
	return snap, nil
}

// persist saves the record best-effort; a storage hiccup must not surface
// into the game flow.
func (s *GameService) persist(ctx context.Context, gameID string, session *GameSession) {
	if err := s.states.Save(ctx, gameID, session.savedState()); err != nil {
		logrus.WithField("gameId", gameID).WithError(err).Warn("failed to persist saved state")
	}
}
