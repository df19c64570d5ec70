package engine

import (
	"errors"
	"fmt"
)

// Quota bounds how many edits one tick applies.
//
// The refresh budget bounds resolution work per tick, but a burst of
// submissions (a terrain generator writing cell by cell) would still be
// applied in a single tick. With a quota, edits beyond the limit stay queued
// for the next tick in their original order.
//
// A Quota with max <= 0 is unlimited.
type Quota struct {
	max  int
	used int
}

// NewQuota creates a quota allowing max edits per tick.
func NewQuota(max int) *Quota {
	return &Quota{max: max}
}

// Allow consumes one unit and reports whether it was available.
func (q *Quota) Allow() bool {
	if q.max <= 0 {
		q.used++
		return true
	}
	if q.used >= q.max {
		return false
	}
	q.used++
	return true
}

// Remaining returns how many units are left this tick, or -1 if unlimited.
func (q *Quota) Remaining() int {
	if q.max <= 0 {
		return -1
	}
	return q.max - q.used
}

// Reset starts a new tick.
func (q *Quota) Reset() {
	q.used = 0
}

// Used returns the units consumed since the last Reset.
func (q *Quota) Used() int {
	return q.used
}

// Max returns the per-tick limit.
func (q *Quota) Max() int {
	return q.max
}

// QuotaExceededError is logged when a tick stops applying edits because the
// quota ran out. The deferred edits are not lost.
type QuotaExceededError struct {
	Tick     int64
	Limit    int
	Deferred int
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("tick %d reached edit quota %d: %d edits deferred",
		e.Tick, e.Limit, e.Deferred)
}

// IsQuotaExceededError returns true if err is or wraps a *QuotaExceededError.
func IsQuotaExceededError(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
