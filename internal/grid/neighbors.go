package grid

// MooreOffsets lists the 8 neighbors of a cell.
// Edge-adjacent neighbors come first (E, W, N, S), then the diagonals, so a
// budgeted consumer refreshes the cells sharing an edge before the corners.
var MooreOffsets = [8]Cell{
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: 1, Y: 1},
	{X: -1, Y: 1},
	{X: 1, Y: -1},
	{X: -1, Y: -1},
}

// Named edge offsets.
var (
	East  = Cell{X: 1, Y: 0}
	West  = Cell{X: -1, Y: 0}
	North = Cell{X: 0, Y: 1}
	South = Cell{X: 0, Y: -1}
)

// Chebyshev returns max(|x|, |y|).
func Chebyshev(c Cell) int {
	return max(abs(c.X), abs(c.Y))
}

// Neighborhood returns every offset with Chebyshev distance 1..radius.
// Radius 1 yields MooreOffsets in their declared order; larger radii append
// each further ring row-major.
func Neighborhood(radius int) []Cell {
	if radius <= 0 {
		return nil
	}
	out := make([]Cell, 0, (2*radius+1)*(2*radius+1)-1)
	out = append(out, MooreOffsets[:]...)
	for r := 2; r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) == r {
					out = append(out, Cell{X: dx, Y: dy})
				}
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
