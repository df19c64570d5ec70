package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/tile"
)

var (
	errNoApply    = errors.New("edit has no apply function")
	errNoEviction = errors.New("eviction is not enabled")
)

// Edit is a unit of mutation applied on the engine goroutine.
type Edit struct {
	// Op names the edit for logs and errors.
	Op string

	// Detail identifies the target (cell, region, chunk).
	Detail string

	Apply func(w *World) error
}

// SetTile writes v at cell on the named layer.
//
// Besides the cross-chunk neighbors the index enqueues, the written cell
// and its Moore neighbors in the same chunk are enqueued too, so a single
// edit refreshes everything whose rule may read the cell.
func SetTile(layerName string, cell grid.Cell, v tile.Value) Edit {
	return Edit{
		Op:     "set_tile",
		Detail: fmt.Sprintf("%s %s=%s", layerName, cell, v),
		Apply: func(w *World) error {
			id, err := w.Index.Layer(layerName)
			if err != nil {
				return err
			}
			return w.setTile(id, cell, v)
		},
	}
}

// ClearTile removes the tile at cell on the named layer.
func ClearTile(layerName string, cell grid.Cell) Edit {
	e := SetTile(layerName, cell, tile.Empty)
	e.Op = "clear_tile"
	e.Detail = fmt.Sprintf("%s %s", layerName, cell)
	return e
}

// Fill writes v to every cell of region as one batch, then enqueues the
// region grown by one cell. Border auto-enqueue is suppressed for the
// writes themselves.
func Fill(layerName string, region grid.Bounds, v tile.Value) Edit {
	return Edit{
		Op:     "fill",
		Detail: fmt.Sprintf("%s %s=%s", layerName, region, v),
		Apply: func(w *World) error {
			id, err := w.Index.Layer(layerName)
			if err != nil {
				return err
			}
			err = w.Index.Batch(func() error {
				var ferr error
				region.Cells(func(c grid.Cell) bool {
					ferr = w.Index.SetTile(id, c, v)
					return ferr == nil
				})
				return ferr
			})
			if err != nil {
				return err
			}
			if w.LRU != nil {
				for _, coord := range w.Index.ExistingChunksOverlapping(region) {
					w.LRU.Touch(coord)
				}
			}
			w.Queue.EnqueueRegion(id, region.Expand(1))
			return nil
		},
	}
}

// EnsureChunk creates the chunk at coord if it does not exist.
func EnsureChunk(coord grid.ChunkCoord) Edit {
	return Edit{
		Op:     "ensure_chunk",
		Detail: coord.String(),
		Apply: func(w *World) error {
			w.Index.EnsureChunk(coord)
			if w.LRU != nil {
				w.LRU.Touch(coord)
			}
			return nil
		},
	}
}

// Rebuild re-partitions the index into layout and re-enqueues every stored
// cell on every layer.
func Rebuild(layout grid.Layout) Edit {
	return Edit{
		Op:     "rebuild",
		Detail: fmt.Sprintf("%dx%d overlap=%d", layout.ChunkSize.W, layout.ChunkSize.H, layout.Overlap),
		Apply: func(w *World) error {
			if _, err := w.Index.Rebuild(layout); err != nil {
				return err
			}
			w.Queue.Clear()
			for _, coord := range w.Index.Coords() {
				c := w.Index.Chunk(coord)
				for id := 0; id < c.NumLayers(); id++ {
					for _, entry := range c.Entries(layer.ID(id)) {
						w.Queue.EnqueueAround(layer.ID(id), c.Origin().Add(entry.Local), 1)
					}
				}
			}
			if w.LRU != nil {
				w.LRU.Sync()
			}
			return nil
		},
	}
}

// Evict removes least recently used chunks until at most max remain.
// Requires an engine built WithEviction.
func Evict(max int) Edit {
	return Edit{
		Op:     "evict",
		Detail: fmt.Sprintf("max=%d", max),
		Apply: func(w *World) error {
			if w.LRU == nil {
				return errNoEviction
			}
			w.LRU.Evict(max)
			return nil
		},
	}
}

// Refresh enqueues every cell of region on the named layer.
func Refresh(layerName string, region grid.Bounds) Edit {
	return Edit{
		Op:     "refresh",
		Detail: fmt.Sprintf("%s %s", layerName, region),
		Apply: func(w *World) error {
			id, err := w.Index.Layer(layerName)
			if err != nil {
				return err
			}
			w.Queue.EnqueueRegion(id, region)
			return nil
		},
	}
}

func (w *World) setTile(id layer.ID, cell grid.Cell, v tile.Value) error {
	if err := w.Index.SetTile(id, cell, v); err != nil {
		return err
	}
	if w.LRU != nil {
		w.LRU.TouchCell(cell)
	}
	w.Queue.Enqueue(id, cell)
	for _, off := range grid.Neighborhood(w.Index.RefreshRadius()) {
		n := cell.Add(off)
		if w.Index.Layout().SameChunk(cell, n) {
			w.Queue.Enqueue(id, n)
		}
	}
	return nil
}
