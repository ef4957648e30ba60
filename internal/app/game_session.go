package app

import (
	"sync"
	"time"

	"spy-game-service/internal/domain"
	"spy-game-service/internal/rng"
)

// GameSession is the single mutable aggregate for one device's game. Every
// operation runs to completion under the session mutex, so callers see each
// transition atomically and never a half-applied start.
type GameSession struct {
	id  string
	now func() time.Time
	src rng.Source

	mu sync.RWMutex

	// Persisted across sessions (the saved record).
	base         domain.Catalog
	customTopics []domain.Topic
	settings     domain.Settings
	history      []string

	// In-progress state, discarded on reset and never persisted.
	phase              domain.Phase
	currentPlayerIndex int
	players            []domain.Player
	selectedAnswer     string
	activeSpecialMode  domain.SpecialMode
	startedAt          *time.Time
	endedAt            *time.Time

	subscribers map[chan domain.Snapshot]struct{}
}

// NewGameSession is exported for infrastructure layers that need to seed
// sessions.
func NewGameSession(id string, base domain.Catalog, saved domain.SavedState, src rng.Source) *GameSession {
	return NewGameSessionWithClock(id, base, saved, src, time.Now)
}

// NewGameSessionWithClock allows deterministic timestamps in tests.
func NewGameSessionWithClock(id string, base domain.Catalog, saved domain.SavedState, src rng.Source, now func() time.Time) *GameSession {
	settings := saved.Settings
	if settings.PlayerCount == 0 {
		settings = domain.DefaultSettings()
	}
	return &GameSession{
		id:           id,
		now:          now,
		src:          src,
		base:         base,
		customTopics: saved.CustomTopics,
		settings:     settings,
		history:      saved.History,
		phase:        domain.PhaseSetup,
		subscribers:  make(map[chan domain.Snapshot]struct{}),
	}
}

// startGame runs the full role-assignment algorithm and atomically replaces
// the in-progress state. It reports false, leaving the session untouched,
// when no usable topic resolves.
func (s *GameSession) startGame() (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	topic, ok := s.resolveTopicLocked()
	if !ok {
		return s.snapshotLocked(), false
	}
	enabled := topic.EnabledItems()
	if len(enabled) == 0 {
		return s.snapshotLocked(), false
	}

	answer := chooseAnswer(enabled, s.history, s.src)
	mode := pickSpecialMode(s.settings, s.src)
	players := assignRoles(s.settings, mode, enabled, answer, s.src)
	s.history = appendHistory(s.history, answer)

	s.phase = domain.PhaseRevealing
	s.currentPlayerIndex = 0
	s.players = players
	s.selectedAnswer = answer
	s.activeSpecialMode = mode
	s.startedAt = nil
	s.endedAt = nil
	return s.broadcastLocked(), true
}

// resolveTopicLocked picks the configured topic, or a uniformly random one
// when the settings say so.
func (s *GameSession) resolveTopicLocked() (domain.Topic, bool) {
	subjects := mergeTopics(s.base.Subjects, s.customTopics)
	if s.settings.SelectedTopicID == domain.TopicRandom {
		if len(subjects) == 0 {
			return domain.Topic{}, false
		}
		return subjects[s.src.IntN(len(subjects))], true
	}
	return findTopic(subjects, s.settings.SelectedTopicID)
}

// advance moves the reveal to the next player, or starts open play once the
// last player has seen their role.
func (s *GameSession) advance() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseRevealing {
		return s.snapshotLocked()
	}
	if s.currentPlayerIndex < len(s.players)-1 {
		s.currentPlayerIndex++
	} else {
		s.phase = domain.PhasePlaying
		startedAt := s.now()
		s.startedAt = &startedAt
	}
	return s.broadcastLocked()
}

// finish ends open play and records the end time.
func (s *GameSession) finish() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhasePlaying {
		return s.snapshotLocked()
	}
	s.phase = domain.PhaseFinished
	endedAt := s.now()
	s.endedAt = &endedAt
	return s.broadcastLocked()
}

// reset abandons the session and returns to setup. Settings, topics, and
// history survive; everything generated by startGame is discarded.
func (s *GameSession) reset() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = domain.PhaseSetup
	s.currentPlayerIndex = 0
	s.players = nil
	s.selectedAnswer = ""
	s.activeSpecialMode = domain.ModeNone
	s.startedAt = nil
	s.endedAt = nil
	return s.broadcastLocked()
}

// openListManagement branches from setup into the topic-editing screen.
func (s *GameSession) openListManagement() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseSetup {
		return s.snapshotLocked()
	}
	s.phase = domain.PhaseListManagement
	return s.broadcastLocked()
}

// updateSettings applies a partial update and enforces the player/spy count
// clamps. SpyCount is re-clamped whenever PlayerCount changes.
func (s *GameSession) updateSettings(patch domain.SettingsPatch) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.SelectedTopicID != nil {
		s.settings.SelectedTopicID = *patch.SelectedTopicID
	}
	if patch.PlayerCount != nil {
		s.settings.PlayerCount = clamp(*patch.PlayerCount, domain.MinPlayerCount, domain.MaxPlayerCount)
	}
	if patch.SpyCount != nil {
		s.settings.SpyCount = *patch.SpyCount
	}
	s.settings.SpyCount = clamp(s.settings.SpyCount, 1, s.settings.PlayerCount/2)
	if patch.EveryoneSpy != nil {
		s.settings.EveryoneSpy = *patch.EveryoneSpy
	}
	if patch.EveryoneKnows != nil {
		s.settings.EveryoneKnows = *patch.EveryoneKnows
	}
	if patch.EveryoneDifferent != nil {
		s.settings.EveryoneDifferent = *patch.EveryoneDifferent
	}
	return s.broadcastLocked()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// addCustomTopic appends a user-created topic to the merged view.
func (s *GameSession) addCustomTopic(topic domain.Topic) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	topic.IsCustom = true
	s.customTopics = append(s.customTopics, topic)
	return s.broadcastLocked()
}

// updateCustomTopic replaces a user-created topic wholesale.
func (s *GameSession) updateCustomTopic(topic domain.Topic) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customTopics {
		if s.customTopics[i].ID == topic.ID && s.customTopics[i].IsCustom {
			topic.IsCustom = true
			s.customTopics[i] = topic
			break
		}
	}
	return s.broadcastLocked()
}

// deleteCustomTopic removes a user-created topic. Shadows of built-in
// topics cannot be deleted this way. If the deleted topic was selected the
// settings re-point at the first remaining subject.
func (s *GameSession) deleteCustomTopic(id string) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.Topic, 0, len(s.customTopics))
	for _, topic := range s.customTopics {
		if topic.ID == id && topic.IsCustom {
			continue
		}
		kept = append(kept, topic)
	}
	s.customTopics = kept

	if s.settings.SelectedTopicID == id {
		subjects := mergeTopics(s.base.Subjects, s.customTopics)
		if len(subjects) > 0 {
			s.settings.SelectedTopicID = subjects[0].ID
		} else {
			s.settings.SelectedTopicID = domain.TopicRandom
		}
	}
	return s.broadcastLocked()
}

// toggleItem flips an item between enabled and disabled. For built-in
// topics the change lands in a shadow copy; the base catalog is never
// touched.
func (s *GameSession) toggleItem(topicID, item string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subjects := mergeTopics(s.base.Subjects, s.customTopics)
	topic, ok := findTopic(subjects, topicID)
	if !ok {
		return s.snapshotLocked(), domain.ErrTopicNotFound
	}

	if _, builtin := findTopic(s.base.Subjects, topicID); builtin {
		shadow := topic
		shadow.IsCustom = false
		shadow.DisabledItems = toggleDisabled(shadow.DisabledItems, item)
		s.customTopics = upsertOverride(s.customTopics, shadow)
	} else {
		topic.DisabledItems = toggleDisabled(topic.DisabledItems, item)
		s.customTopics = upsertOverride(s.customTopics, topic)
	}
	return s.broadcastLocked(), nil
}

// addItem appends a new answer candidate to a topic, shadowing built-ins
// the same way toggleItem does. Duplicates are ignored.
func (s *GameSession) addItem(topicID, item string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subjects := mergeTopics(s.base.Subjects, s.customTopics)
	topic, ok := findTopic(subjects, topicID)
	if !ok {
		return s.snapshotLocked(), domain.ErrTopicNotFound
	}
	if containsItem(topic.Items, item) {
		return s.snapshotLocked(), nil
	}

	topic.Items = append(append([]string(nil), topic.Items...), item)
	if _, builtin := findTopic(s.base.Subjects, topicID); builtin {
		topic.IsCustom = false
	}
	s.customTopics = upsertOverride(s.customTopics, topic)
	return s.broadcastLocked(), nil
}

// clearCustomData drops all custom topics, shadow overrides, and the answer
// history, restoring the built-in catalog view.
func (s *GameSession) clearCustomData() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customTopics = nil
	s.history = nil
	return s.broadcastLocked()
}

// savedState extracts the persisted record.
func (s *GameSession) savedState() domain.SavedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SavedState{
		CustomTopics: append([]domain.Topic(nil), s.customTopics...),
		Settings:     s.settings,
		History:      append([]string(nil), s.history...),
	}
}

func (s *GameSession) isEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers) == 0
}

// IsEmpty reports whether the session has no subscribers left.
func (s *GameSession) IsEmpty() bool {
	return s.isEmpty()
}

func (s *GameSession) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *GameSession) broadcastLocked() domain.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow reader never blocks an
			// operation; only the latest state matters to the screen.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *GameSession) snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *GameSession) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		GameID:             s.id,
		Phase:              s.phase,
		CurrentPlayerIndex: s.currentPlayerIndex,
		Players:            append([]domain.Player(nil), s.players...),
		SelectedAnswer:     s.selectedAnswer,
		ActiveSpecialMode:  s.activeSpecialMode,
		StartedAt:          s.startedAt,
		EndedAt:            s.endedAt,
		Settings:           s.settings,
		Subjects:           mergeTopics(s.base.Subjects, s.customTopics),
		History:            append([]string(nil), s.history...),
	}
}
