package service

import "errors"

// Taxonomy roots. Specific failures wrap one of these with %w so handlers
// and callers can dispatch on errors.Is.
var (
	// ErrValidation: malformed or missing required field. Rejected before
	// any write lands.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound: the operation references a nonexistent id or entity.
	ErrNotFound = errors.New("not found")
	// ErrTerminalState: attempted mutation of a closed lifecycle. Retrying
	// cannot change the outcome.
	ErrTerminalState = errors.New("lifecycle is closed")
	// ErrInvalidTransition: a status change attempted out of order.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict: a write-once row already exists for the key.
	ErrConflict = errors.New("conflict")
)
