package app

import (
	"spy-game-service/internal/domain"
	"spy-game-service/internal/rng"
)

// specialModeChance is the percentage chance each enabled toggle has of
// activating its mode for a session.
const specialModeChance = 5

// pickSpecialMode rolls each enabled toggle independently and, when more
// than one mode triggers, collapses the result to a single active mode
// chosen uniformly. Draws are never reused across toggles.
func pickSpecialMode(settings domain.Settings, src rng.Source) domain.SpecialMode {
	var triggered []domain.SpecialMode
	if settings.EveryoneSpy && rng.Percent(src) < specialModeChance {
		triggered = append(triggered, domain.ModeEveryoneSpy)
	}
	if settings.EveryoneKnows && rng.Percent(src) < specialModeChance {
		triggered = append(triggered, domain.ModeEveryoneKnows)
	}
	if settings.EveryoneDifferent && rng.Percent(src) < specialModeChance {
		triggered = append(triggered, domain.ModeEveryoneDifferent)
	}
	if len(triggered) == 0 {
		return domain.ModeNone
	}
	return triggered[src.IntN(len(triggered))]
}

// chooseAnswer draws the session's secret answer, skipping recently used
// answers when possible. If every enabled item is in the recent history the
// filter is dropped rather than blocking the game.
func chooseAnswer(enabled, history []string, src rng.Source) string {
	recent := make(map[string]struct{}, len(history))
	for _, answer := range history {
		recent[answer] = struct{}{}
	}
	candidates := make([]string, 0, len(enabled))
	for _, item := range enabled {
		if _, used := recent[item]; !used {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		candidates = enabled
	}
	return candidates[src.IntN(len(candidates))]
}

// assignRoles produces the per-player role list for a session. The default
// branch shuffles a pool of spyCount spy entries among normals; the special
// modes replace the split entirely.
func assignRoles(settings domain.Settings, mode domain.SpecialMode, enabled []string, answer string, src rng.Source) []domain.Player {
	players := make([]domain.Player, 0, settings.PlayerCount)

	switch mode {
	case domain.ModeEveryoneSpy:
		for i := 0; i < settings.PlayerCount; i++ {
			players = append(players, domain.Player{PlayerID: i + 1, Role: domain.RoleSpy})
		}

	case domain.ModeEveryoneKnows:
		for i := 0; i < settings.PlayerCount; i++ {
			players = append(players, domain.Player{PlayerID: i + 1, Role: domain.RoleNormal, Answer: answer})
		}

	case domain.ModeEveryoneDifferent:
		// Draw without replacement until the pool runs dry, then fall back
		// to drawing from the full enabled set.
		remaining := append([]string(nil), enabled...)
		for i := 0; i < settings.PlayerCount; i++ {
			var playerAnswer string
			if len(remaining) > 0 {
				idx := src.IntN(len(remaining))
				playerAnswer = remaining[idx]
				remaining = append(remaining[:idx], remaining[idx+1:]...)
			} else {
				playerAnswer = enabled[src.IntN(len(enabled))]
			}
			players = append(players, domain.Player{PlayerID: i + 1, Role: domain.RoleNormal, Answer: playerAnswer})
		}

	default:
		roles := make([]domain.Role, 0, settings.PlayerCount)
		for i := 0; i < settings.SpyCount; i++ {
			roles = append(roles, domain.RoleSpy)
		}
		for i := 0; i < settings.PlayerCount-settings.SpyCount; i++ {
			roles = append(roles, domain.RoleNormal)
		}
		shuffled := rng.Shuffle(src, roles)
		for i := 0; i < settings.PlayerCount; i++ {
			player := domain.Player{PlayerID: i + 1, Role: shuffled[i]}
			if shuffled[i] == domain.RoleNormal {
				player.Answer = answer
			}
			players = append(players, player)
		}
	}

	return players
}

// appendHistory records an answer and evicts the oldest entries beyond the
// recency window.
func appendHistory(history []string, answer string) []string {
	history = append(history, answer)
	if len(history) > domain.HistoryLimit {
		history = history[len(history)-domain.HistoryLimit:]
	}
	return history
}
