package grid

import "fmt"

// Cell is an absolute or chunk-local cell coordinate.
// The y axis grows north.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns c translated by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Sub returns c - d.
func (c Cell) Sub(d Cell) Cell {
	return Cell{X: c.X - d.X, Y: c.Y - d.Y}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// ChunkCoord identifies one partition of the grid.
type ChunkCoord struct {
	X int `json:"cx" yaml:"cx"`
	Y int `json:"cy" yaml:"cy"`
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("chunk(%d,%d)", c.X, c.Y)
}

// Less orders chunk coordinates row-major (y, then x).
// Used wherever chunk enumeration must be deterministic.
func (c ChunkCoord) Less(o ChunkCoord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// Size is a width x height extent in cells.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.W > 0 && s.H > 0
}

// Area returns W*H.
func (s Size) Area() int {
	return s.W * s.H
}

// FloorDiv returns floor(a / b) for b > 0.
//
// Unlike Go's / operator it rounds toward negative infinity:
//
//	FloorDiv(-1, 64) == -1
//	FloorDiv(-64, 64) == -1
//	FloorDiv(-65, 64) == -2
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod returns a - FloorDiv(a, b)*b, always in [0, b) for b > 0.
func FloorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// LocalCoord returns cell relative to a chunk origin.
// The result is in [0, size) when cell belongs to the chunk at that origin.
func LocalCoord(cell, chunkOrigin Cell) Cell {
	return cell.Sub(chunkOrigin)
}
