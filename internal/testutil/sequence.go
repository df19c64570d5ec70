// Package testutil provides deterministic stand-ins for tests: a resettable
// tick sequence, a fixed run ID source, and a renderer that records signals.
package testutil

import "sync"

// Sequence is a resettable monotonic counter.
//
// It satisfies store.Sequencer and engine.TickSource so journal rows and tick
// numbers are identical across test runs. Safe for concurrent use.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence returns a sequence whose first Next is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the counter.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last value handed out, 0 before the first Next.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset rewinds to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}

// FixedRunID always returns the same run identifier.
type FixedRunID string

// DefaultRunID is used when a FixedRunID is empty.
const DefaultRunID = "run-00000000-0000-0000-0000-000000000001"

// Generate implements store.RunIDGenerator.
func (f FixedRunID) Generate() string {
	if f == "" {
		return DefaultRunID
	}
	return string(f)
}
