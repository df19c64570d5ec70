package rules

import (
	"fmt"

	"github.com/roach88/chunkgrid/internal/grid"
)

// Edge bits of a connectivity mask.
const (
	MaskN = 1 << iota
	MaskE
	MaskS
	MaskW
)

// MaskTable maps the 4-bit edge connectivity of a cell to a sprite.
//
// Bit b of the mask is set when the neighbor in direction b has the same
// identity. An empty entry falls through to Fallback.
type MaskTable struct {
	Tile     string     `json:"tile" yaml:"tile"`
	Layer    string     `json:"layer,omitempty" yaml:"layer,omitempty"`
	Sprites  [16]string `json:"sprites" yaml:"sprites"`
	Fallback string     `json:"fallback" yaml:"fallback"`
}

var maskEdges = [4]struct {
	bit    int
	offset grid.Cell
}{
	{MaskN, grid.North},
	{MaskE, grid.East},
	{MaskS, grid.South},
	{MaskW, grid.West},
}

// NewMaskTable builds a table from a slice that must have exactly 16 entries.
func NewMaskTable(tile string, sprites []string, fallback string) (MaskTable, error) {
	if len(sprites) != 16 {
		return MaskTable{}, ValidationErrors{{
			Field:   "sprites",
			Message: fmt.Sprintf("got %d entries, want 16", len(sprites)),
			Code:    ErrMaskTableSize,
		}}
	}
	t := MaskTable{Tile: tile, Fallback: fallback}
	copy(t.Sprites[:], sprites)
	return t, nil
}

// RuleSet compiles the table into an ordinary rule set: one rule per
// non-empty entry, each constraining all four edges. Variant carries the mask.
// Empty neighbors count as unconnected.
func (t MaskTable) RuleSet() RuleSet {
	set := RuleSet{
		Tile:            t.Tile,
		Layer:           t.Layer,
		Default:         Output{Sprite: t.Fallback},
		EmptyIsDistinct: true,
	}
	for mask, sprite := range t.Sprites {
		if sprite == "" {
			continue
		}
		rule := Rule{
			Output:     Output{Sprite: sprite, Variant: mask},
			Conditions: make([]NeighborCondition, 0, len(maskEdges)),
		}
		for _, e := range maskEdges {
			exp := NotMatch
			if mask&e.bit != 0 {
				exp = Match
			}
			rule.Conditions = append(rule.Conditions, NeighborCondition{Offset: e.offset, Expect: exp})
		}
		set.Rules = append(set.Rules, rule)
	}
	return set
}
