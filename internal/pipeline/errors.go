package pipeline

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned for operations on an unknown session ID.
var ErrSessionNotFound = errors.New("pipeline: session not found")

// ErrTargetNotFound is returned for operations on an unknown target site.
var ErrTargetNotFound = errors.New("pipeline: target not found")

// ValidationError marks caller input rejected before any external call was
// made.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("pipeline: invalid input: %s", e.Reason)
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
