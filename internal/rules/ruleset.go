package rules

import "github.com/roach88/chunkgrid/internal/grid"

// Output is what a resolved cell should display.
type Output struct {
	Sprite      string      `json:"sprite" yaml:"sprite"`
	Variant     int         `json:"variant,omitempty" yaml:"variant,omitempty"`
	Orientation Orientation `json:"orientation,omitempty" yaml:"orientation,omitempty"`
}

// IsZero reports whether o is the zero Output.
func (o Output) IsZero() bool {
	return o == Output{}
}

// Rule is one ordered alternative of a RuleSet.
type Rule struct {
	Conditions []NeighborCondition
	Output     Output
	Transform  Transform
}

// RuleSet is the autotile definition for one tile reference.
//
// Once registered a RuleSet is never modified; Registry stores a Clone.
type RuleSet struct {
	// Tile is the reference identity compared by Match and NotMatch.
	Tile string

	// Layer, if set, restricts the set to one layer. Elsewhere the tile
	// renders as a static tile.
	Layer string

	// Default is used when no rule matches.
	Default Output

	// EmptyIsDistinct makes empty neighbors satisfy NotMatch.
	EmptyIsDistinct bool

	Rules []Rule
}

// Clone returns a deep copy.
func (s RuleSet) Clone() RuleSet {
	out := s
	out.Rules = make([]Rule, len(s.Rules))
	for i, r := range s.Rules {
		r.Conditions = append([]NeighborCondition(nil), r.Conditions...)
		out.Rules[i] = r
	}
	return out
}

// Radius returns the largest Chebyshev distance of any condition offset.
func (s *RuleSet) Radius() int {
	r := 0
	for _, rule := range s.Rules {
		for _, c := range rule.Conditions {
			if d := grid.Chebyshev(c.Offset); d > r {
				r = d
			}
		}
	}
	return r
}
