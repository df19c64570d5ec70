package engine

import (
	"errors"
	"fmt"
)

// ErrStopped is returned when an edit is submitted after Stop, or was still
// queued when Run's context was cancelled.
var ErrStopped = errors.New("engine stopped")

// EditError reports an edit that failed while being applied.
//
// Failed edits are logged and skipped; the loop keeps running. Do returns
// the EditError to the submitter.
type EditError struct {
	// Op names the edit (e.g. "set_tile").
	Op string

	// Detail identifies the edit's target, if any.
	Detail string

	Err error
}

// Error implements the error interface.
func (e *EditError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *EditError) Unwrap() error {
	return e.Err
}

// IsEditError returns true if err is or wraps an *EditError.
func IsEditError(err error) bool {
	var ee *EditError
	return errors.As(err, &ee)
}
