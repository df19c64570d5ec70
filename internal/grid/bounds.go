package grid

import "fmt"

// Bounds is a half-open axis-aligned cell rectangle [Min, Max).
// A Bounds with Max.X <= Min.X or Max.Y <= Min.Y is empty.
type Bounds struct {
	Min Cell `json:"min" yaml:"min"`
	Max Cell `json:"max" yaml:"max"`
}

// BoundsAt returns the bounds with the given origin and size.
func BoundsAt(origin Cell, size Size) Bounds {
	return Bounds{Min: origin, Max: Cell{X: origin.X + size.W, Y: origin.Y + size.H}}
}

// Empty reports whether the rectangle contains no cells.
func (b Bounds) Empty() bool {
	return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y
}

// Size returns the extent of the rectangle (zero for empty bounds).
func (b Bounds) Size() Size {
	if b.Empty() {
		return Size{}
	}
	return Size{W: b.Max.X - b.Min.X, H: b.Max.Y - b.Min.Y}
}

// Contains reports whether c lies inside b.
func (b Bounds) Contains(c Cell) bool {
	return c.X >= b.Min.X && c.X < b.Max.X && c.Y >= b.Min.Y && c.Y < b.Max.Y
}

// Expand grows b by n cells on every side. Negative n shrinks it.
func (b Bounds) Expand(n int) Bounds {
	return Bounds{
		Min: Cell{X: b.Min.X - n, Y: b.Min.Y - n},
		Max: Cell{X: b.Max.X + n, Y: b.Max.Y + n},
	}
}

// Intersects reports whether b and o share at least one cell.
func (b Bounds) Intersects(o Bounds) bool {
	if b.Empty() || o.Empty() {
		return false
	}
	return b.Min.X < o.Max.X && o.Min.X < b.Max.X &&
		b.Min.Y < o.Max.Y && o.Min.Y < b.Max.Y
}

// Cells calls fn for every cell in b, row-major from Min.
// Iteration stops early if fn returns false.
func (b Bounds) Cells(fn func(Cell) bool) {
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !fn(Cell{X: x, Y: y}) {
				return
			}
		}
	}
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%s..%s)", b.Min, b.Max)
}
