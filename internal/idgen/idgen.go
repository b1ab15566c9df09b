// Package idgen provides stable random identifier generation for secret notes.
package idgen

import "github.com/google/uuid"

// Generator produces stable random identifiers. Injected wherever
// identifiers are assigned so tests can substitute a deterministic source.
type Generator interface {
	NewID() string
}

// UUID generates RFC 4122 v4 identifiers.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.New().String()
}
