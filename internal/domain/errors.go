package domain

import "errors"

var (
	// ErrGameNotFound is returned when a game session has not been initialized.
	ErrGameNotFound = errors.New("game session not found")
	// ErrTopicNotFound indicates a topic ID that resolves to nothing in the merged view.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrCatalogNotFound indicates the built-in catalog could not be loaded.
	ErrCatalogNotFound = errors.New("topic catalog not found")
	// ErrStateNotFound indicates no saved record exists for a game yet.
	ErrStateNotFound = errors.New("saved state not found")
)
