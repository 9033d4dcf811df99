package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store. This is the generic version of the entity-specific not
	// found errors below.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrUpdateFailed is returned when an update operation fails, for
	// example because the entity does not exist or the update violates
	// constraints.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	// ErrParticipantNotFound indicates that the requested participant does
	// not exist in the store.
	ErrParticipantNotFound = fmt.Errorf("%w: participant", ErrNotFound)

	// ErrJobNotFound indicates that the requested job record does not
	// exist in the store.
	ErrJobNotFound = fmt.Errorf("%w: job", ErrNotFound)
)
