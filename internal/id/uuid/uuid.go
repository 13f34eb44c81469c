// Package uuid generates invocation identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator implements chart.IDGenerator with time-ordered UUID v7 values.
type Generator struct{}

// New creates a Generator.
func New() Generator {
	return Generator{}
}

// NewRawID returns a fresh UUID v7.
func (Generator) NewRawID() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("mint invocation id: %w", err)
	}
	return id, nil
}
