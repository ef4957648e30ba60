package app

import (
	"testing"

	"spy-game-service/internal/domain"
	"spy-game-service/internal/rng"
)

// scriptSource replays a fixed list of draws; exhausted scripts return 0.
type scriptSource struct {
	vals []int
	i    int
}

func (s *scriptSource) IntN(n int) int {
	if s.i >= len(s.vals) {
		return 0
	}
	v := s.vals[s.i] % n
	s.i++
	return v
}

func TestPickSpecialModeNoTogglesEnabled(t *testing.T) {
	settings := domain.Settings{PlayerCount: 6, SpyCount: 1}
	src := &scriptSource{vals: []int{0, 0, 0}}

	if mode := pickSpecialMode(settings, src); mode != domain.ModeNone {
		t.Fatalf("expected no mode, got %q", mode)
	}
	if src.i != 0 {
		t.Fatalf("expected no draws for disabled toggles, consumed %d", src.i)
	}
}

func TestPickSpecialModeSingleTrigger(t *testing.T) {
	settings := domain.Settings{PlayerCount: 6, SpyCount: 1, EveryoneSpy: true, EveryoneKnows: true, EveryoneDifferent: true}
	// spy rolls 4 (<5, triggers), knows and different roll 50, final pick index 0.
	src := &scriptSource{vals: []int{4, 50, 50, 0}}

	if mode := pickSpecialMode(settings, src); mode != domain.ModeEveryoneSpy {
		t.Fatalf("expected everyone-spy, got %q", mode)
	}
}

func TestPickSpecialModeCollapsesToOne(t *testing.T) {
	settings := domain.Settings{PlayerCount: 6, SpyCount: 1, EveryoneSpy: true, EveryoneKnows: true, EveryoneDifferent: true}
	// All three trigger; the collapse draw picks index 1.
	src := &scriptSource{vals: []int{4, 4, 4, 1}}

	if mode := pickSpecialMode(settings, src); mode != domain.ModeEveryoneKnows {
		t.Fatalf("expected everyone-knows, got %q", mode)
	}
	if src.i != 4 {
		t.Fatalf("expected a fresh draw per toggle plus the collapse draw, consumed %d", src.i)
	}
}

func TestPickSpecialModeIndependentDraws(t *testing.T) {
	settings := domain.Settings{PlayerCount: 6, SpyCount: 1, EveryoneSpy: true, EveryoneDifferent: true}
	// Spy misses, different hits: the second toggle must not reuse the first roll.
	src := &scriptSource{vals: []int{99, 2, 0}}

	if mode := pickSpecialMode(settings, src); mode != domain.ModeEveryoneDifferent {
		t.Fatalf("expected everyone-different, got %q", mode)
	}
}

func TestChooseAnswerSkipsRecentAnswers(t *testing.T) {
	enabled := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	history := []string{"A", "B", "C", "D", "E"}

	for draw := 0; draw < 3; draw++ {
		src := &scriptSource{vals: []int{draw}}
		answer := chooseAnswer(enabled, history, src)
		for _, recent := range history {
			if answer == recent {
				t.Fatalf("draw %d selected recent answer %q", draw, answer)
			}
		}
	}
}

func TestChooseAnswerFallsBackWhenAllRecent(t *testing.T) {
	enabled := []string{"A", "B", "C"}
	history := []string{"A", "B", "C", "D", "E"}

	src := &scriptSource{vals: []int{1}}
	if answer := chooseAnswer(enabled, history, src); answer != "B" {
		t.Fatalf("expected fallback to full enabled set, got %q", answer)
	}
}

func TestAssignRolesDefaultSplit(t *testing.T) {
	settings := domain.Settings{PlayerCount: 6, SpyCount: 2}
	enabled := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	players := assignRoles(settings, domain.ModeNone, enabled, "C", rng.Crypto{})
	if len(players) != 6 {
		t.Fatalf("expected 6 players, got %d", len(players))
	}

	spies := 0
	for i, player := range players {
		if player.PlayerID != i+1 {
			t.Fatalf("expected playerId %d at index %d, got %d", i+1, i, player.PlayerID)
		}
		switch player.Role {
		case domain.RoleSpy:
			spies++
			if player.Answer != "" {
				t.Fatalf("spy %d has an answer: %q", player.PlayerID, player.Answer)
			}
		case domain.RoleNormal:
			if player.Answer != "C" {
				t.Fatalf("normal %d has answer %q, want C", player.PlayerID, player.Answer)
			}
		default:
			t.Fatalf("unexpected role %q", player.Role)
		}
	}
	if spies != 2 {
		t.Fatalf("expected 2 spies, got %d", spies)
	}
}

func TestAssignRolesEveryoneSpy(t *testing.T) {
	settings := domain.Settings{PlayerCount: 5, SpyCount: 1}
	players := assignRoles(settings, domain.ModeEveryoneSpy, []string{"A", "B"}, "A", rng.Crypto{})

	if len(players) != 5 {
		t.Fatalf("expected 5 players, got %d", len(players))
	}
	for _, player := range players {
		if player.Role != domain.RoleSpy || player.Answer != "" {
			t.Fatalf("expected answerless spy, got %+v", player)
		}
	}
}

func TestAssignRolesEveryoneKnows(t *testing.T) {
	settings := domain.Settings{PlayerCount: 4, SpyCount: 1}
	players := assignRoles(settings, domain.ModeEveryoneKnows, []string{"A", "B"}, "B", rng.Crypto{})

	for _, player := range players {
		if player.Role != domain.RoleNormal || player.Answer != "B" {
			t.Fatalf("expected normal with answer B, got %+v", player)
		}
	}
}

func TestAssignRolesEveryoneDifferentDistinct(t *testing.T) {
	settings := domain.Settings{PlayerCount: 5, SpyCount: 1}
	enabled := []string{"A", "B", "C", "D", "E", "F", "G", "H"}

	players := assignRoles(settings, domain.ModeEveryoneDifferent, enabled, "A", rng.Crypto{})
	if len(players) != 5 {
		t.Fatalf("expected 5 players, got %d", len(players))
	}

	seen := make(map[string]bool)
	for _, player := range players {
		if player.Role != domain.RoleNormal {
			t.Fatalf("expected normal role, got %+v", player)
		}
		if seen[player.Answer] {
			t.Fatalf("answer %q assigned twice", player.Answer)
		}
		seen[player.Answer] = true
	}
}

func TestAssignRolesEveryoneDifferentExhaustsPoolThenReuses(t *testing.T) {
	settings := domain.Settings{PlayerCount: 10, SpyCount: 1}
	enabled := []string{"A", "B", "C", "D", "E", "F"}
	pool := make(map[string]bool, len(enabled))
	for _, item := range enabled {
		pool[item] = true
	}

	players := assignRoles(settings, domain.ModeEveryoneDifferent, enabled, "A", rng.Crypto{})
	if len(players) != 10 {
		t.Fatalf("expected 10 players, got %d", len(players))
	}

	// The first six draws consume the pool without replacement.
	seen := make(map[string]bool)
	for _, player := range players[:6] {
		if seen[player.Answer] {
			t.Fatalf("answer %q repeated before pool exhaustion", player.Answer)
		}
		seen[player.Answer] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected all 6 pool items used once, got %d", len(seen))
	}
	// The remaining four draw with replacement from the full set.
	for _, player := range players[6:] {
		if !pool[player.Answer] {
			t.Fatalf("fallback answer %q not in enabled pool", player.Answer)
		}
	}
}

func TestAppendHistoryEvictsOldestBeyondLimit(t *testing.T) {
	var history []string
	for _, answer := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		history = appendHistory(history, answer)
		if len(history) > domain.HistoryLimit {
			t.Fatalf("history grew past limit: %v", history)
		}
	}
	want := []string{"C", "D", "E", "F", "G"}
	for i := range want {
		if history[i] != want[i] {
			t.Fatalf("expected history %v, got %v", want, history)
		}
	}
}
