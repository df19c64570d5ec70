// Package index owns every chunk of a partitioned tile grid.
//
// The Index resolves absolute cells to their owning chunk through a single map
// keyed by chunk coordinate, so lookups do not scan. Reads of cells in chunks
// that were never created return tile.Empty and never allocate.
//
// Writes near a chunk edge notify an Invalidator with the neighboring cells
// that belong to other chunks, because rule tiles there may read the written
// cell. Cells in the written cell's own chunk are not enqueued; callers that
// need the written cell or its same-chunk neighbors refreshed enqueue them
// directly.
//
// The Index is not safe for concurrent use. internal/engine serialises
// access from multiple goroutines.
package index

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/chunkgrid/internal/chunk"
	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/tile"
)

// Index is the partition index.
type Index struct {
	layout   grid.Layout
	layers   *layer.Registry
	chunks   map[grid.ChunkCoord]*chunk.Chunk
	inv      Invalidator
	radius   int
	offsets  []grid.Cell
	batching int
	logger   *slog.Logger
}

// New builds an index from cfg.
//
// Returns a *ConfigError for a non-positive chunk size, negative overlap,
// empty or duplicate layer list, or non-positive refresh radius.
func New(cfg Config, opts ...Option) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reg, err := layer.NewRegistry(cfg.Layers...)
	if err != nil {
		return nil, &ConfigError{Field: "layers", Message: err.Error()}
	}

	ix := &Index{
		layout: cfg.Layout,
		layers: reg,
		chunks: make(map[grid.ChunkCoord]*chunk.Chunk),
		radius: DefaultRefreshRadius,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.radius <= 0 {
		return nil, &ConfigError{
			Field:   "refresh_radius",
			Message: fmt.Sprintf("%d must be positive", ix.radius),
		}
	}
	ix.offsets = grid.Neighborhood(ix.radius)

	for cy := 0; cy < cfg.InitialChunks.H; cy++ {
		for cx := 0; cx < cfg.InitialChunks.W; cx++ {
			ix.EnsureChunk(grid.ChunkCoord{X: cx, Y: cy})
		}
	}
	return ix, nil
}

// SetInvalidator replaces the border-write notification target.
// Passing nil disables notifications.
func (ix *Index) SetInvalidator(inv Invalidator) {
	ix.inv = inv
}

// Layout returns the current chunk layout.
func (ix *Index) Layout() grid.Layout {
	return ix.layout
}

// Layers returns the layer registry.
func (ix *Index) Layers() *layer.Registry {
	return ix.layers
}

// Layer resolves a layer name to its ID.
func (ix *Index) Layer(name string) (layer.ID, error) {
	id, ok := ix.layers.Lookup(name)
	if !ok {
		return layer.None, fmt.Errorf("%w: %q", ErrUnknownLayer, name)
	}
	return id, nil
}

// RefreshRadius returns how far from a written cell neighbors are
// invalidated.
func (ix *Index) RefreshRadius() int {
	return ix.radius
}

// EnsureChunk returns the chunk at coord, creating an empty one if absent.
func (ix *Index) EnsureChunk(coord grid.ChunkCoord) *chunk.Chunk {
	if c, ok := ix.chunks[coord]; ok {
		return c
	}
	c := chunk.New(coord, ix.layout.ChunkOrigin(coord), ix.layout.ChunkSize, ix.layers.Len())
	ix.chunks[coord] = c
	ix.logger.Debug("chunk created", "coord", coord.String(), "origin", c.Origin().String())
	return c
}

// Chunk returns the chunk at coord, or nil if it was never created.
func (ix *Index) Chunk(coord grid.ChunkCoord) *chunk.Chunk {
	return ix.chunks[coord]
}

// Has reports whether a chunk exists at coord.
func (ix *Index) Has(coord grid.ChunkCoord) bool {
	_, ok := ix.chunks[coord]
	return ok
}

// Len returns the number of chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Coords returns every chunk coordinate in row-major order.
func (ix *Index) Coords() []grid.ChunkCoord {
	out := make([]grid.ChunkCoord, 0, len(ix.chunks))
	for coord := range ix.chunks {
		out = append(out, coord)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// GetTile returns the tile at an absolute cell.
// Absent chunks and cells read as tile.Empty; no chunk is created.
func (ix *Index) GetTile(id layer.ID, cell grid.Cell) tile.Value {
	coord, local := ix.layout.Locate(cell)
	c, ok := ix.chunks[coord]
	if !ok {
		return tile.Empty
	}
	return c.Get(id, local)
}

// SetTile writes v at an absolute cell, creating the owning chunk if needed.
//
// After the write, every cell within the refresh radius that is owned by a
// different chunk is passed to the Invalidator, edge-adjacent cells first.
// Inside Batch the notification is suppressed.
func (ix *Index) SetTile(id layer.ID, cell grid.Cell, v tile.Value) error {
	if !ix.layers.Valid(id) {
		return fmt.Errorf("%w: id %d", ErrUnknownLayer, id)
	}
	coord, local := ix.layout.Locate(cell)
	c := ix.EnsureChunk(coord)
	if _, err := c.Set(id, local, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	if ix.inv == nil || ix.batching > 0 {
		return nil
	}
	for _, n := range ix.BorderNeighbors(cell) {
		ix.inv.Enqueue(id, n)
	}
	return nil
}

// SetTileByName is SetTile with a layer name.
func (ix *Index) SetTileByName(name string, cell grid.Cell, v tile.Value) error {
	id, err := ix.Layer(name)
	if err != nil {
		return err
	}
	return ix.SetTile(id, cell, v)
}

// ClearTile writes tile.Empty at an absolute cell.
func (ix *Index) ClearTile(id layer.ID, cell grid.Cell) error {
	return ix.SetTile(id, cell, tile.Empty)
}

// BorderNeighbors returns the cells within the refresh radius of cell that are
// owned by a different chunk. Cells well inside a chunk yield nil.
func (ix *Index) BorderNeighbors(cell grid.Cell) []grid.Cell {
	own := ix.layout.CellToChunk(cell)
	var out []grid.Cell
	for _, off := range ix.offsets {
		n := cell.Add(off)
		if ix.layout.CellToChunk(n) != own {
			out = append(out, n)
		}
	}
	return out
}

// Batch runs fn with border auto-enqueue suppressed.
//
// Bulk fills should write inside Batch and then enqueue the affected region
// explicitly (refresh.Queue.EnqueueRegion over ChunksOverlapping) and drain.
// Batches nest.
func (ix *Index) Batch(fn func() error) error {
	ix.batching++
	defer func() { ix.batching-- }()
	return fn()
}

// ChunksOverlapping returns every chunk coordinate whose expanded bounds
// intersect region, whether or not the chunk exists.
func (ix *Index) ChunksOverlapping(region grid.Bounds) []grid.ChunkCoord {
	return ix.layout.ChunksOverlapping(region)
}

// ExistingChunksOverlapping is ChunksOverlapping filtered to created chunks.
func (ix *Index) ExistingChunksOverlapping(region grid.Bounds) []grid.ChunkCoord {
	all := ix.layout.ChunksOverlapping(region)
	out := all[:0]
	for _, coord := range all {
		if ix.Has(coord) {
			out = append(out, coord)
		}
	}
	return out
}

// ChunksAround returns the coordinates within radius chunks of the chunk
// owning center.
func (ix *Index) ChunksAround(center grid.Cell, radius int) []grid.ChunkCoord {
	return ix.layout.ChunksAround(center, radius)
}

// RemoveChunk drops a chunk and its data. It reports whether a chunk existed.
// Callers must flush pending refresh requests for the chunk first; see
// internal/evict.
func (ix *Index) RemoveChunk(coord grid.ChunkCoord) bool {
	if _, ok := ix.chunks[coord]; !ok {
		return false
	}
	delete(ix.chunks, coord)
	ix.logger.Debug("chunk removed", "coord", coord.String())
	return true
}
