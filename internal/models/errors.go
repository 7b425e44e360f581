package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks a lookup miss (unknown job or certificate id).
	// It is an expected outcome, not a system fault.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks an illegal job state transition. It is a
	// contract violation: logged and surfaced, never swallowed.
	ErrInvalidTransition = errors.New("invalid job state transition")
)

// ValidationError rejects a submission before any job is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// PersistenceError wraps a ledger store failure that exhausted every
// configured tier. It propagates to the caller; it is never absorbed into a
// fabricated success.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
