package refresh

import "github.com/roach88/chunkgrid/internal/grid"

// Drain processes up to budget queued requests in FIFO order and returns how
// many it processed. A non-positive budget means DefaultBudget.
//
// Each request is re-resolved against the current grid. The Renderer is
// called only when the output differs from the last one signalled for that
// cell; a cell never signalled before always counts as different.
// Requests beyond the budget stay queued.
func (q *Queue) Drain(budget int) int {
	if budget <= 0 {
		budget = DefaultBudget
	}
	n, signalled := 0, 0
	for n < budget && q.Len() > 0 {
		if q.resolve(q.pop()) {
			signalled++
		}
		n++
	}
	if n > 0 {
		q.logger.Debug("refresh drained",
			"processed", n,
			"signalled", signalled,
			"remaining", q.Len(),
		)
	}
	return n
}

// DrainAll drains until the queue is empty.
func (q *Queue) DrainAll() int {
	total := 0
	for q.Len() > 0 {
		total += q.Drain(DefaultBudget)
	}
	return total
}

// FlushChunk immediately resolves every queued request whose cell lies in
// coord, leaving the others queued in their original order. It must be called
// before the chunk is evicted.
func (q *Queue) FlushChunk(coord grid.ChunkCoord) int {
	layout := q.src.Layout()
	var keep, flush []Request
	for _, req := range q.fifo[q.head:] {
		if layout.CellToChunk(req.Cell) == coord {
			flush = append(flush, req)
		} else {
			keep = append(keep, req)
		}
	}
	if len(flush) == 0 {
		return 0
	}
	q.fifo = append(q.fifo[:0], keep...)
	q.head = 0
	for _, req := range flush {
		delete(q.pending, req)
		q.resolve(req)
	}
	q.logger.Debug("refresh flushed chunk", "coord", coord.String(), "processed", len(flush))
	return len(flush)
}

// Forget drops rendered state for cells in coord, so the next resolution of
// any of them is signalled.
func (q *Queue) Forget(coord grid.ChunkCoord) int {
	layout := q.src.Layout()
	n := 0
	for req := range q.rendered {
		if layout.CellToChunk(req.Cell) == coord {
			delete(q.rendered, req)
			n++
		}
	}
	return n
}

// resolve re-resolves one request and reports whether it was signalled.
func (q *Queue) resolve(req Request) bool {
	q.stats.Resolved++
	out := q.eval.ResolveCell(req.Cell, req.Layer, q.reg, q.src)
	prev, known := q.rendered[req]
	if known && prev == out {
		return false
	}
	q.rendered[req] = out
	q.stats.Signalled++
	if q.renderer == nil {
		q.logger.Warn("render dropped: no renderer", "layer", int(req.Layer), "cell", req.Cell.String())
		return true
	}
	q.renderer.OnResolved(req.Layer, req.Cell, out)
	return true
}
