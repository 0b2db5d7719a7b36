// Package id generates opaque entity identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// New creates a new entity identifier.
//
// Identifiers are UUIDv7: 128 bits, time-ordered, so freshly created rows
// cluster at the tail of (created_at, id) indexes.
//
// Returns an error if the system has insufficient entropy for secure random
// generation.
func New() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return u.String(), nil
}

