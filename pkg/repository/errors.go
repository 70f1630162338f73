package repository

import (
	"errors"

	"github.com/ammar0144/catalog4go/pkg/store"
)

// Sentinel errors for repository operations
var (
	// ErrNotFound is returned when an id is absent or tombstoned
	ErrNotFound = store.ErrNotFound

	// ErrRelatedEntityNotFound is returned when a write references a missing or tombstoned entity
	ErrRelatedEntityNotFound = errors.New("related entity not found")

	// ErrInvalidEntity is returned when input fails validation
	ErrInvalidEntity = errors.New("invalid entity")
)

// IsNotFound checks if an error is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRelatedEntityNotFound checks if an error is ErrRelatedEntityNotFound
func IsRelatedEntityNotFound(err error) bool {
	return errors.Is(err, ErrRelatedEntityNotFound)
}

// IsInvalidEntity checks if an error is ErrInvalidEntity
func IsInvalidEntity(err error) bool {
	return errors.Is(err, ErrInvalidEntity)
}
