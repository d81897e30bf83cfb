package store

import "errors"

var (
	// ErrNotFound is returned by read-modify-write operations whose target
	// row does not exist.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint
	ErrDuplicate = errors.New("store: duplicate record")

	// ErrInUse is returned when deleting a row other rows still refer to
	ErrInUse = errors.New("store: record in use")
)
