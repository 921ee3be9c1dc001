package store

import "errors"

var (
	// ErrNotFound is returned when no row matches the operation's key, or,
	// for conditional status updates, when no row is in the expected state.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write-once row already exists.
	ErrConflict = errors.New("already exists")
)
