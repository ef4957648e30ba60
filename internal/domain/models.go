package domain

import "time"

// Phase is the linear progression of a game session.
type Phase string

const (
	PhaseSetup          Phase = "setup"
	PhaseRevealing      Phase = "revealing"
	PhasePlaying        Phase = "playing"
	PhaseFinished       Phase = "finished"
	PhaseListManagement Phase = "list-management"
)

// SpecialMode is one of the rule variants that replaces the default
// spy/normal split for a single session. Empty means no variant is active.
type SpecialMode string

const (
	ModeNone              SpecialMode = ""
	ModeEveryoneSpy       SpecialMode = "everyone-spy"
	ModeEveryoneKnows     SpecialMode = "everyone-knows"
	ModeEveryoneDifferent SpecialMode = "everyone-different"
)

// Role is what a player sees during the reveal phase.
type Role string

const (
	RoleSpy    Role = "spy"
	RoleNormal Role = "normal"
)

// Topic is a named pool of candidate answers. Built-in topics come from the
// catalog and are never mutated; player edits live in shadow copies.
type Topic struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Items         []string `json:"items"`
	DisabledItems []string `json:"disabledItems,omitempty"`
	IsCustom      bool     `json:"isCustom,omitempty"`
}

// EnabledItems returns the items minus the disabled set, recomputed on
// every call so toggles take effect immediately.
func (t Topic) EnabledItems() []string {
	if len(t.DisabledItems) == 0 {
		return append([]string(nil), t.Items...)
	}
	disabled := make(map[string]struct{}, len(t.DisabledItems))
	for _, item := range t.DisabledItems {
		disabled[item] = struct{}{}
	}
	enabled := make([]string, 0, len(t.Items))
	for _, item := range t.Items {
		if _, off := disabled[item]; !off {
			enabled = append(enabled, item)
		}
	}
	return enabled
}

// Catalog is the read-only built-in topic dataset.
type Catalog struct {
	Subjects []Topic `json:"subjects"`
}

// TopicRandom selects a uniformly random topic instead of a fixed one.
const TopicRandom = "random"

// Settings is the moderator configuration for the next session. The
// spyCount clamp (1 <= spyCount <= playerCount/2) is enforced at the
// settings boundary, not inside the controller.
type Settings struct {
	SelectedTopicID   string `json:"selectedTopicId"`
	PlayerCount       int    `json:"playerCount"`
	SpyCount          int    `json:"spyCount"`
	EveryoneSpy       bool   `json:"everyoneSpy"`
	EveryoneKnows     bool   `json:"everyoneKnows"`
	EveryoneDifferent bool   `json:"everyoneDifferent"`
}

const (
	MinPlayerCount = 3
	MaxPlayerCount = 20
)

// DefaultSettings mirrors the out-of-the-box configuration.
func DefaultSettings() Settings {
	return Settings{
		SelectedTopicID: TopicRandom,
		PlayerCount:     6,
		SpyCount:        1,
	}
}

// SettingsPatch is a partial settings update; nil fields are untouched.
type SettingsPatch struct {
	SelectedTopicID   *string `json:"selectedTopicId,omitempty"`
	PlayerCount       *int    `json:"playerCount,omitempty"`
	SpyCount          *int    `json:"spyCount,omitempty"`
	EveryoneSpy       *bool   `json:"everyoneSpy,omitempty"`
	EveryoneKnows     *bool   `json:"everyoneKnows,omitempty"`
	EveryoneDifferent *bool   `json:"everyoneDifferent,omitempty"`
}

// Player is one seat in the session. Answer is empty for spies.
type Player struct {
	PlayerID int    `json:"playerId"`
	Role     Role   `json:"role"`
	Answer   string `json:"answer,omitempty"`
}

// HistoryLimit bounds the anti-repeat answer history.
const HistoryLimit = 5

// Snapshot is the immutable view of a session handed to the presentation
// layer after every operation.
type Snapshot struct {
	GameID             string      `json:"gameId"`
	Phase              Phase       `json:"phase"`
	CurrentPlayerIndex int         `json:"currentPlayerIndex"`
	Players            []Player    `json:"players"`
	SelectedAnswer     string      `json:"selectedAnswer"`
	ActiveSpecialMode  SpecialMode `json:"activeSpecialMode"`
	StartedAt          *time.Time  `json:"startedAt,omitempty"`
	EndedAt            *time.Time  `json:"endedAt,omitempty"`
	Settings           Settings    `json:"settings"`
	Subjects           []Topic     `json:"subjects"`
	History            []string    `json:"history"`
}

// SavedState is the persisted record: custom and shadow topics, settings,
// and the bounded answer history. In-progress session state is deliberately
// absent; a fresh process always resumes at setup.
type SavedState struct {
	CustomTopics []Topic  `json:"customTopics"`
	Settings     Settings `json:"settings"`
	History      []string `json:"history"`
}
