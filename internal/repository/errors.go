package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("entity already exists")

	// ErrNoChange is returned when a guarded update matched no row.
	ErrNoChange = errors.New("no rows changed")
)
