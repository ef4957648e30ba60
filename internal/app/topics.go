package app

import "spy-game-service/internal/domain"

// mergeTopics resolves the effective subjects view: built-in topics with
// their shadow overrides applied, followed by purely custom topics. The
// base slice is never modified.
func mergeTopics(base, overrides []domain.Topic) []domain.Topic {
	shadows := make(map[string]domain.Topic, len(overrides))
	for _, override := range overrides {
		if !override.IsCustom {
			shadows[override.ID] = override
		}
	}

	merged := make([]domain.Topic, 0, len(base)+len(overrides))
	for _, topic := range base {
		if shadow, ok := shadows[topic.ID]; ok {
			merged = append(merged, shadow)
		} else {
			merged = append(merged, topic)
		}
	}
	for _, override := range overrides {
		if override.IsCustom {
			merged = append(merged, override)
		}
	}
	return merged
}

func findTopic(topics []domain.Topic, id string) (domain.Topic, bool) {
	for _, topic := range topics {
		if topic.ID == id {
			return topic, true
		}
	}
	return domain.Topic{}, false
}

func containsItem(items []string, item string) bool {
	for _, existing := range items {
		if existing == item {
			return true
		}
	}
	return false
}

// toggleDisabled flips an item's membership in the disabled set.
func toggleDisabled(disabled []string, item string) []string {
	if containsItem(disabled, item) {
		kept := make([]string, 0, len(disabled)-1)
		for _, existing := range disabled {
			if existing != item {
				kept = append(kept, existing)
			}
		}
		return kept
	}
	return append(append([]string(nil), disabled...), item)
}

// upsertOverride replaces an existing override for the topic or appends a
// new one.
func upsertOverride(overrides []domain.Topic, topic domain.Topic) []domain.Topic {
	for i := range overrides {
		if overrides[i].ID == topic.ID {
			overrides[i] = topic
			return overrides
		}
	}
	return append(overrides, topic)
}
