package engine

import "sync"

// submission is one queued edit plus an optional result channel.
type submission struct {
	edit Edit
	done chan error
}

// editQueue is a thread-safe FIFO of submissions.
//
// The signal channel has a buffer of one so many submissions coalesce into a
// single wake-up of the Run loop.
type editQueue struct {
	mu     sync.Mutex
	items  []submission
	closed bool
	signal chan struct{}
}

func newEditQueue() *editQueue {
	return &editQueue{
		items:  make([]submission, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends s. Returns false if the queue is closed.
func (q *editQueue) Enqueue(s submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, s)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TakeAll removes and returns every queued submission in order.
func (q *editQueue) TakeAll() []submission {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = make([]submission, 0, cap(out))
	return out
}

// Take removes and returns up to n submissions from the front in order.
// n < 0 takes everything.
func (q *editQueue) Take(n int) []submission {
	if n < 0 {
		return q.TakeAll()
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if n == 0 || len(q.items) == 0 {
		return nil
	}
	if n >= len(q.items) {
		out := q.items
		q.items = make([]submission, 0, cap(out))
		return out
	}
	out := make([]submission, n)
	copy(out, q.items[:n])
	q.items = append(q.items[:0], q.items[n:]...)
	return out
}

// Wait returns a channel that fires when submissions may be available.
// It is closed by Close.
func (q *editQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued submissions.
func (q *editQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops further submissions and wakes waiters.
func (q *editQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}

// Closed reports whether Close was called.
func (q *editQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
