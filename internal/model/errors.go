package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("upstream unavailable")
)

// ConflictError reports that a proposed interval overlaps existing sessions.
// It unwraps to ErrConflict so callers can match with errors.Is.
type ConflictError struct {
	Conflicts []Session
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict with %d existing session(s)", len(e.Conflicts))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
