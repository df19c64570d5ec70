package rules

import (
	"fmt"
	"strings"

	"github.com/roach88/chunkgrid/internal/grid"
)

// Orientation is a rigid transform applied to a rule's offsets.
// Rotations are counter-clockwise with y growing north.
type Orientation uint8

const (
	Identity Orientation = iota
	Rot90
	Rot180
	Rot270
	FlipX
	FlipY
	FlipXY
)

var orientationNames = [...]string{"identity", "rot90", "rot180", "rot270", "flip_x", "flip_y", "flip_xy"}

func (o Orientation) String() string {
	if int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return fmt.Sprintf("orientation(%d)", uint8(o))
}

// Apply maps an offset through o.
func (o Orientation) Apply(c grid.Cell) grid.Cell {
	switch o {
	case Rot90:
		return grid.Cell{X: -c.Y, Y: c.X}
	case Rot180, FlipXY:
		return grid.Cell{X: -c.X, Y: -c.Y}
	case Rot270:
		return grid.Cell{X: c.Y, Y: -c.X}
	case FlipX:
		return grid.Cell{X: -c.X, Y: c.Y}
	case FlipY:
		return grid.Cell{X: c.X, Y: -c.Y}
	default:
		return c
	}
}

// Transform selects which orientations of a rule are tried.
type Transform uint8

const (
	// Fixed tries the rule as written.
	Fixed Transform = iota
	// Rotated also tries 90, 180 and 270 degree rotations.
	Rotated
	// MirrorX also tries the rule mirrored across the vertical axis.
	MirrorX
	// MirrorY also tries the rule mirrored across the horizontal axis.
	MirrorY
	// MirrorXY tries both single mirrors and their composition.
	MirrorXY
)

var transformNames = [...]string{"fixed", "rotated", "mirror_x", "mirror_y", "mirror_xy"}

func (t Transform) String() string {
	if int(t) < len(transformNames) {
		return transformNames[t]
	}
	return fmt.Sprintf("transform(%d)", uint8(t))
}

// Valid reports whether t is one of the defined transforms.
func (t Transform) Valid() bool {
	return int(t) < len(transformNames)
}

// ParseTransform is the inverse of Transform.String. Empty means Fixed.
func ParseTransform(s string) (Transform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Fixed, nil
	}
	for i, name := range transformNames {
		if name == s {
			return Transform(i), nil
		}
	}
	return Fixed, fmt.Errorf("unknown transform %q", s)
}

var transformOrientations = [...][]Orientation{
	Fixed:    {Identity},
	Rotated:  {Identity, Rot90, Rot180, Rot270},
	MirrorX:  {Identity, FlipX},
	MirrorY:  {Identity, FlipY},
	MirrorXY: {Identity, FlipX, FlipY, FlipXY},
}

// Orientations lists the orientations tried for t, in order.
func (t Transform) Orientations() []Orientation {
	if !t.Valid() {
		return nil
	}
	return transformOrientations[t]
}
