// Package chunk holds the tile data of one grid partition.
package chunk

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/tile"
)

var (
	// ErrOutOfBounds is returned for local coordinates outside [0, size).
	ErrOutOfBounds = errors.New("local coordinate out of chunk bounds")
	// ErrBadLayer is returned for a layer ID the chunk was not built with.
	ErrBadLayer = errors.New("layer not present in chunk")
)

// Chunk stores sparse per-layer tiles keyed by chunk-local coordinate.
//
// Absent entries read as tile.Empty. Writing tile.Empty deletes the entry, so
// Len counts only non-empty cells.
type Chunk struct {
	coord  grid.ChunkCoord
	origin grid.Cell
	size   grid.Size
	layers []map[grid.Cell]tile.Value
}

// New creates an empty chunk with numLayers layers.
func New(coord grid.ChunkCoord, origin grid.Cell, size grid.Size, numLayers int) *Chunk {
	c := &Chunk{
		coord:  coord,
		origin: origin,
		size:   size,
		layers: make([]map[grid.Cell]tile.Value, numLayers),
	}
	return c
}

// Coord returns the chunk's partition coordinate.
func (c *Chunk) Coord() grid.ChunkCoord { return c.coord }

// Origin returns the absolute cell at local (0,0).
func (c *Chunk) Origin() grid.Cell { return c.origin }

// Size returns the chunk extent.
func (c *Chunk) Size() grid.Size { return c.size }

// Bounds returns the absolute cells this chunk owns.
func (c *Chunk) Bounds() grid.Bounds {
	return grid.BoundsAt(c.origin, c.size)
}

// ExpandedBounds returns Bounds grown by overlap on every side.
func (c *Chunk) ExpandedBounds(overlap int) grid.Bounds {
	return c.Bounds().Expand(overlap)
}

// InBounds reports whether local lies in [0, size).
func (c *Chunk) InBounds(local grid.Cell) bool {
	return local.X >= 0 && local.X < c.size.W && local.Y >= 0 && local.Y < c.size.H
}

// Contains reports whether an absolute cell is owned by this chunk.
func (c *Chunk) Contains(cell grid.Cell) bool {
	return c.Bounds().Contains(cell)
}

// Local converts an absolute cell to this chunk's local coordinate.
func (c *Chunk) Local(cell grid.Cell) grid.Cell {
	return grid.LocalCoord(cell, c.origin)
}

// Get returns the tile at a local coordinate, or tile.Empty.
// Out-of-range coordinates and unknown layers also read as Empty.
func (c *Chunk) Get(id layer.ID, local grid.Cell) tile.Value {
	if int(id) < 0 || int(id) >= len(c.layers) {
		return tile.Empty
	}
	m := c.layers[id]
	if m == nil {
		return tile.Empty
	}
	return m[local]
}

// GetAbs returns the tile at an absolute cell owned by this chunk.
func (c *Chunk) GetAbs(id layer.ID, cell grid.Cell) tile.Value {
	return c.Get(id, c.Local(cell))
}

// Set writes v at a local coordinate. Writing tile.Empty deletes the entry.
// It returns the previous value.
func (c *Chunk) Set(id layer.ID, local grid.Cell, v tile.Value) (tile.Value, error) {
	if int(id) < 0 || int(id) >= len(c.layers) {
		return tile.Empty, fmt.Errorf("%w: %d", ErrBadLayer, id)
	}
	if !c.InBounds(local) {
		return tile.Empty, fmt.Errorf("%w: %s in %dx%d", ErrOutOfBounds, local, c.size.W, c.size.H)
	}
	m := c.layers[id]
	prev := m[local]
	if v.IsEmpty() {
		if m != nil {
			delete(m, local)
		}
		return prev, nil
	}
	if m == nil {
		m = make(map[grid.Cell]tile.Value)
		c.layers[id] = m
	}
	m[local] = v
	return prev, nil
}

// Delete removes the entry at a local coordinate.
func (c *Chunk) Delete(id layer.ID, local grid.Cell) {
	if int(id) < 0 || int(id) >= len(c.layers) {
		return
	}
	delete(c.layers[id], local)
}

// Len returns the number of non-empty cells on a layer.
func (c *Chunk) Len(id layer.ID) int {
	if int(id) < 0 || int(id) >= len(c.layers) {
		return 0
	}
	return len(c.layers[id])
}

// Total returns the number of non-empty cells across all layers.
func (c *Chunk) Total() int {
	n := 0
	for _, m := range c.layers {
		n += len(m)
	}
	return n
}

// NumLayers returns how many layers the chunk was built with.
func (c *Chunk) NumLayers() int { return len(c.layers) }

// Entry is one stored cell.
type Entry struct {
	Local grid.Cell
	Value tile.Value
}

// Entries returns a layer's stored cells sorted row-major by local coordinate.
func (c *Chunk) Entries(id layer.ID) []Entry {
	if int(id) < 0 || int(id) >= len(c.layers) {
		return nil
	}
	m := c.layers[id]
	out := make([]Entry, 0, len(m))
	for local, v := range m {
		out = append(out, Entry{Local: local, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Local, out[j].Local
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

// Each calls fn for every stored cell on a layer in row-major order.
// Iteration stops if fn returns false.
func (c *Chunk) Each(id layer.ID, fn func(local grid.Cell, v tile.Value) bool) {
	for _, e := range c.Entries(id) {
		if !fn(e.Local, e.Value) {
			return
		}
	}
}
