// Package refresh schedules re-resolution of cells whose neighbors changed.
//
// The Queue is a FIFO of (layer, cell) requests with a pending set that
// coalesces duplicates while a request is still queued. Drain pops at most a
// budget of requests per call, resolves each through the rule evaluator and
// tells the Renderer about outputs that changed since the last signal for
// that cell.
//
// Resolution is pure, so a request that slips past coalescing, or a cell that
// is drained twice, only costs time.
package refresh

import (
	"log/slog"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/rules"
)

// DefaultBudget is the number of requests Drain processes when given a
// non-positive budget.
const DefaultBudget = 100

// Request asks for one cell of one layer to be re-resolved.
type Request struct {
	Layer layer.ID  `json:"layer"`
	Cell  grid.Cell `json:"cell"`
}

// Renderer receives resolved outputs that differ from what it last saw.
type Renderer interface {
	OnResolved(id layer.ID, cell grid.Cell, out rules.Output)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(id layer.ID, cell grid.Cell, out rules.Output)

// OnResolved calls f.
func (f RendererFunc) OnResolved(id layer.ID, cell grid.Cell, out rules.Output) {
	f(id, cell, out)
}

// Stats are cumulative queue counters.
type Stats struct {
	Enqueued  int `json:"enqueued"`
	Coalesced int `json:"coalesced"`
	Resolved  int `json:"resolved"`
	Signalled int `json:"signalled"`
}

// Queue is the refresh queue. It is not safe for concurrent use.
type Queue struct {
	src      rules.Source
	reg      *rules.Registry
	eval     *rules.Evaluator
	renderer Renderer
	logger   *slog.Logger

	fifo     []Request
	head     int
	pending  map[Request]struct{}
	rendered map[Request]rules.Output
	stats    Stats
}

// Option configures a Queue.
type Option func(*Queue)

// WithEvaluator replaces the default evaluator.
func WithEvaluator(e *rules.Evaluator) Option {
	return func(q *Queue) {
		q.eval = e
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// New creates a queue resolving against src with the rule sets in reg.
// renderer may be nil, in which case changed outputs are only recorded.
func New(src rules.Source, reg *rules.Registry, renderer Renderer, opts ...Option) *Queue {
	q := &Queue{
		src:      src,
		reg:      reg,
		renderer: renderer,
		logger:   slog.Default(),
		pending:  make(map[Request]struct{}),
		rendered: make(map[Request]rules.Output),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.eval == nil {
		q.eval = rules.NewEvaluator()
	}
	return q
}

// SetRenderer replaces the render callback.
func (q *Queue) SetRenderer(r Renderer) {
	q.renderer = r
}

// Enqueue adds a request unless an identical one is already pending.
func (q *Queue) Enqueue(id layer.ID, cell grid.Cell) {
	q.push(Request{Layer: id, Cell: cell})
}

func (q *Queue) push(req Request) bool {
	if _, ok := q.pending[req]; ok {
		q.stats.Coalesced++
		return false
	}
	q.pending[req] = struct{}{}
	q.fifo = append(q.fifo, req)
	q.stats.Enqueued++
	return true
}

// EnqueueAround enqueues cell and every cell within radius of it, cell first.
// Use it after a write to refresh the written cell and its same-chunk
// neighbors, which the index does not enqueue.
func (q *Queue) EnqueueAround(id layer.ID, cell grid.Cell, radius int) int {
	n := 0
	if q.push(Request{Layer: id, Cell: cell}) {
		n++
	}
	for _, off := range grid.Neighborhood(radius) {
		if q.push(Request{Layer: id, Cell: cell.Add(off)}) {
			n++
		}
	}
	return n
}

// EnqueueRegion enqueues every cell of region row-major and returns how many
// requests were added.
func (q *Queue) EnqueueRegion(id layer.ID, region grid.Bounds) int {
	n := 0
	region.Cells(func(c grid.Cell) bool {
		if q.push(Request{Layer: id, Cell: c}) {
			n++
		}
		return true
	})
	return n
}

// EnqueueChunk enqueues every cell owned by coord on layer id.
func (q *Queue) EnqueueChunk(id layer.ID, coord grid.ChunkCoord) int {
	return q.EnqueueRegion(id, q.src.Layout().CoreBounds(coord))
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	return len(q.fifo) - q.head
}

// Pending reports whether a request for (id, cell) is queued.
func (q *Queue) Pending(id layer.ID, cell grid.Cell) bool {
	_, ok := q.pending[Request{Layer: id, Cell: cell}]
	return ok
}

// Snapshot returns the queued requests in FIFO order.
func (q *Queue) Snapshot() []Request {
	out := make([]Request, q.Len())
	copy(out, q.fifo[q.head:])
	return out
}

// Clear drops every queued request. Rendered state is kept.
func (q *Queue) Clear() {
	q.fifo = q.fifo[:0]
	q.head = 0
	clear(q.pending)
}

// Stats returns cumulative counters.
func (q *Queue) Stats() Stats {
	return q.stats
}

// Rendered returns the last output signalled for (id, cell).
func (q *Queue) Rendered(id layer.ID, cell grid.Cell) (rules.Output, bool) {
	out, ok := q.rendered[Request{Layer: id, Cell: cell}]
	return out, ok
}

func (q *Queue) pop() Request {
	req := q.fifo[q.head]
	q.head++
	if q.head == len(q.fifo) {
		q.fifo = q.fifo[:0]
		q.head = 0
	} else if q.head > 1024 && q.head*2 > len(q.fifo) {
		n := copy(q.fifo, q.fifo[q.head:])
		q.fifo = q.fifo[:n]
		q.head = 0
	}
	delete(q.pending, req)
	return req
}
