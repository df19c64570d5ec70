package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidLayout is wrapped by every error returned from Layout.Validate.
var ErrInvalidLayout = errors.New("invalid chunk layout")

// Layout fixes how the absolute grid is cut into chunks.
//
// Origin is the absolute cell of chunk (0,0)'s local (0,0). ChunkSize is the
// usable area of each chunk. Overlap is the border margin added around a chunk
// when computing expanded bounds; rule tiles near an edge read that far into
// the neighboring chunk.
type Layout struct {
	Origin    Cell `json:"origin" yaml:"origin"`
	ChunkSize Size `json:"chunk_size" yaml:"chunk_size"`
	Overlap   int  `json:"overlap" yaml:"overlap"`
}

// Validate rejects layouts that cannot partition the grid.
func (l Layout) Validate() error {
	if !l.ChunkSize.Valid() {
		return fmt.Errorf("%w: chunk size %dx%d must be positive", ErrInvalidLayout, l.ChunkSize.W, l.ChunkSize.H)
	}
	if l.Overlap < 0 {
		return fmt.Errorf("%w: overlap %d must be non-negative", ErrInvalidLayout, l.Overlap)
	}
	return nil
}

// CellToChunk returns the chunk owning an absolute cell.
func (l Layout) CellToChunk(cell Cell) ChunkCoord {
	return ChunkCoord{
		X: FloorDiv(cell.X-l.Origin.X, l.ChunkSize.W),
		Y: FloorDiv(cell.Y-l.Origin.Y, l.ChunkSize.H),
	}
}

// ChunkOrigin returns the absolute cell at local (0,0) of a chunk.
func (l Layout) ChunkOrigin(coord ChunkCoord) Cell {
	return Cell{
		X: l.Origin.X + coord.X*l.ChunkSize.W,
		Y: l.Origin.Y + coord.Y*l.ChunkSize.H,
	}
}

// Locate returns the owning chunk and the chunk-local coordinate of a cell.
func (l Layout) Locate(cell Cell) (ChunkCoord, Cell) {
	coord := l.CellToChunk(cell)
	return coord, LocalCoord(cell, l.ChunkOrigin(coord))
}

// CoreBounds returns the cells owned by a chunk.
func (l Layout) CoreBounds(coord ChunkCoord) Bounds {
	return BoundsAt(l.ChunkOrigin(coord), l.ChunkSize)
}

// ExpandedBounds returns the core bounds grown by the overlap margin.
func (l Layout) ExpandedBounds(coord ChunkCoord) Bounds {
	return l.CoreBounds(coord).Expand(l.Overlap)
}

// CellInChunk reports whether cell falls inside the chunk's core bounds, or its
// expanded bounds when expanded is set.
func (l Layout) CellInChunk(cell Cell, coord ChunkCoord, expanded bool) bool {
	if expanded {
		return l.ExpandedBounds(coord).Contains(cell)
	}
	return l.CellToChunk(cell) == coord
}

// SameChunk reports whether two absolute cells have the same owner.
func (l Layout) SameChunk(a, b Cell) bool {
	return l.CellToChunk(a) == l.CellToChunk(b)
}

// ChunkRange returns the inclusive range of chunk coordinates whose core bounds
// intersect region. ok is false for an empty region.
func (l Layout) ChunkRange(region Bounds) (lo, hi ChunkCoord, ok bool) {
	if region.Empty() {
		return ChunkCoord{}, ChunkCoord{}, false
	}
	lo = l.CellToChunk(region.Min)
	hi = l.CellToChunk(Cell{X: region.Max.X - 1, Y: region.Max.Y - 1})
	return lo, hi, true
}

// ChunksOverlapping returns every chunk coordinate, row-major, whose expanded
// bounds intersect region.
//
// The region is grown by the overlap margin before the range is computed, so a
// write that touches a chunk's border margin also reports that chunk.
func (l Layout) ChunksOverlapping(region Bounds) []ChunkCoord {
	lo, hi, ok := l.ChunkRange(region.Expand(l.Overlap))
	if !ok {
		return nil
	}
	out := make([]ChunkCoord, 0, (hi.X-lo.X+1)*(hi.Y-lo.Y+1))
	for cy := lo.Y; cy <= hi.Y; cy++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			out = append(out, ChunkCoord{X: cx, Y: cy})
		}
	}
	return out
}

// ChunksAround returns the square of chunk coordinates within radius chunks of
// the chunk owning center, row-major.
func (l Layout) ChunksAround(center Cell, radius int) []ChunkCoord {
	if radius < 0 {
		return nil
	}
	c := l.CellToChunk(center)
	side := 2*radius + 1
	out := make([]ChunkCoord, 0, side*side)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			out = append(out, ChunkCoord{X: c.X + dx, Y: c.Y + dy})
		}
	}
	return out
}
