package rules

import (
	"fmt"
	"strings"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/tile"
)

// Expect is a neighbor condition kind.
type Expect uint8

const (
	Any Expect = iota
	Match
	NotMatch
)

func (e Expect) String() string {
	switch e {
	case Any:
		return "any"
	case Match:
		return "match"
	case NotMatch:
		return "not_match"
	default:
		return fmt.Sprintf("expect(%d)", uint8(e))
	}
}

// Valid reports whether e is one of the defined kinds.
func (e Expect) Valid() bool {
	return e <= NotMatch
}

// ParseExpect accepts the names produced by String, case-insensitively, plus
// the short forms "this" and "not_this".
func ParseExpect(s string) (Expect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any", "":
		return Any, nil
	case "match", "this":
		return Match, nil
	case "not_match", "notmatch", "not_this", "notthis":
		return NotMatch, nil
	default:
		return Any, fmt.Errorf("unknown expectation %q", s)
	}
}

// NeighborCondition constrains the cell at Offset from the evaluated cell.
type NeighborCondition struct {
	Offset grid.Cell
	Expect Expect
}

// Cond is shorthand for a NeighborCondition.
func Cond(dx, dy int, e Expect) NeighborCondition {
	return NeighborCondition{Offset: grid.Cell{X: dx, Y: dy}, Expect: e}
}

// satisfied reports whether neighbor passes e for a set with identity ref.
func (e Expect) satisfied(neighbor tile.Value, ref string, emptyIsDistinct bool) bool {
	switch e {
	case Any:
		return true
	case Match:
		return !neighbor.IsEmpty() && neighbor.Identity() == ref
	case NotMatch:
		if neighbor.IsEmpty() {
			return emptyIsDistinct
		}
		return neighbor.Identity() != ref
	default:
		return false
	}
}
