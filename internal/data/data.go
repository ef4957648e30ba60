// Package data ships the built-in topic catalog. The dataset is embedded in
// the binary, parsed once, and treated as read-only: player-visible edits to
// built-in topics are shadow copies stored with the custom topics.
package data

import (
	_ "embed"
	"encoding/json"
	"sync"

	"spy-game-service/internal/domain"
)

//go:embed subjects.json
var subjectsJSON []byte

var (
	once    sync.Once
	catalog domain.Catalog
)

// BuiltinCatalog returns the embedded default catalog.
func BuiltinCatalog() domain.Catalog {
	once.Do(func() {
		if err := json.Unmarshal(subjectsJSON, &catalog); err != nil {
			// The dataset is compiled into the binary; failing to parse it
			// is a build defect, not a runtime condition.
			panic("data: invalid embedded subjects.json: " + err.Error())
		}
	})
	return catalog
}
