package engine

import "sync/atomic"

// TickSource hands out strictly increasing tick numbers.
// Implemented by Clock (production) and testutil.Sequence (tests).
type TickSource interface {
	Next() int64
}

// Clock is a monotonic logical tick counter. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first tick is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next tick is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next tick number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last tick handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
