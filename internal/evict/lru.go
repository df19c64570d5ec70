// Package evict unloads least-recently-used chunks from a partition index.
//
// Eviction never happens implicitly: the host (or internal/engine) calls
// Evict with a chunk limit. Before a chunk is removed every refresh request
// touching it is flushed, then its rendered state is forgotten so that a
// reloaded chunk re-signals every cell.
package evict

import (
	"container/list"
	"log/slog"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/index"
	"github.com/roach88/chunkgrid/internal/refresh"
)

// LRU tracks chunk use order. It is not safe for concurrent use.
type LRU struct {
	ix      *index.Index
	q       *refresh.Queue
	order   *list.List // front = most recently used
	elems   map[grid.ChunkCoord]*list.Element
	pinned  map[grid.ChunkCoord]bool
	onEvict func(coord grid.ChunkCoord)
	logger  *slog.Logger
}

// Option configures an LRU.
type Option func(*LRU)

// WithOnEvict is called after each chunk is removed.
func WithOnEvict(fn func(coord grid.ChunkCoord)) Option {
	return func(l *LRU) {
		l.onEvict = fn
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *LRU) {
		l.logger = logger
	}
}

// New creates a policy over ix. q may be nil when no refresh queue exists.
// Chunks already in the index are tracked oldest-first in row-major order.
func New(ix *index.Index, q *refresh.Queue, opts ...Option) *LRU {
	l := &LRU{
		ix:     ix,
		q:      q,
		order:  list.New(),
		elems:  make(map[grid.ChunkCoord]*list.Element),
		pinned: make(map[grid.ChunkCoord]bool),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.Sync()
	return l
}

// Touch marks coord as most recently used.
func (l *LRU) Touch(coord grid.ChunkCoord) {
	if e, ok := l.elems[coord]; ok {
		l.order.MoveToFront(e)
		return
	}
	l.elems[coord] = l.order.PushFront(coord)
}

// TouchCell marks the chunk owning cell as most recently used.
func (l *LRU) TouchCell(cell grid.Cell) {
	l.Touch(l.ix.Layout().CellToChunk(cell))
}

// Sync starts tracking index chunks the policy has not seen, as least
// recently used, and drops tracked coordinates no longer in the index.
func (l *LRU) Sync() {
	for coord, e := range l.elems {
		if !l.ix.Has(coord) {
			l.order.Remove(e)
			delete(l.elems, coord)
		}
	}
	coords := l.ix.Coords()
	for i := len(coords) - 1; i >= 0; i-- {
		coord := coords[i]
		if _, ok := l.elems[coord]; !ok {
			l.elems[coord] = l.order.PushBack(coord)
		}
	}
}

// Pin excludes coord from eviction until Unpin.
func (l *LRU) Pin(coord grid.ChunkCoord) {
	l.pinned[coord] = true
}

// Unpin makes coord evictable again.
func (l *LRU) Unpin(coord grid.ChunkCoord) {
	delete(l.pinned, coord)
}

// Len returns the number of tracked chunks.
func (l *LRU) Len() int {
	return l.order.Len()
}

// Order returns tracked coordinates from most to least recently used.
func (l *LRU) Order() []grid.ChunkCoord {
	out := make([]grid.ChunkCoord, 0, l.order.Len())
	for e := l.order.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(grid.ChunkCoord))
	}
	return out
}

// Evict removes least recently used unpinned chunks until at most max
// remain tracked. It returns the evicted coordinates in eviction order.
func (l *LRU) Evict(max int) []grid.ChunkCoord {
	var evicted []grid.ChunkCoord
	e := l.order.Back()
	for l.order.Len() > max && e != nil {
		prev := e.Prev()
		coord := e.Value.(grid.ChunkCoord)
		if !l.pinned[coord] {
			l.order.Remove(e)
			delete(l.elems, coord)
			l.evictChunk(coord)
			evicted = append(evicted, coord)
		}
		e = prev
	}
	if len(evicted) > 0 {
		l.logger.Info("chunks evicted", "count", len(evicted), "remaining", l.order.Len())
	}
	return evicted
}

func (l *LRU) evictChunk(coord grid.ChunkCoord) {
	flushed, forgotten := 0, 0
	if l.q != nil {
		flushed = l.q.FlushChunk(coord)
		forgotten = l.q.Forget(coord)
	}
	l.ix.RemoveChunk(coord)
	l.logger.Debug("chunk evicted",
		"coord", coord.String(),
		"flushed", flushed,
		"forgotten", forgotten,
	)
	if l.onEvict != nil {
		l.onEvict(coord)
	}
}
