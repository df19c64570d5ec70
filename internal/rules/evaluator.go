package rules

import (
	"github.com/roach88/chunkgrid/internal/chunk"
	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/tile"
)

// Source is the read side of a partition index.
// *index.Index implements it.
type Source interface {
	Layout() grid.Layout
	// Chunk returns nil for chunks that do not exist.
	Chunk(coord grid.ChunkCoord) *chunk.Chunk
	// GetTile returns tile.Empty for absent cells and chunks.
	GetTile(id layer.ID, cell grid.Cell) tile.Value
}

// ReadStats counts neighbor reads by path.
type ReadStats struct {
	Local  int // served from the owning chunk
	Remote int // served by Source.GetTile
}

// Evaluator matches rules against a Source. The zero value is not usable;
// call NewEvaluator.
type Evaluator struct {
	fastPath bool
	stats    ReadStats
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithoutFastPath makes every neighbor read go through Source.GetTile.
func WithoutFastPath() EvaluatorOption {
	return func(e *Evaluator) {
		e.fastPath = false
	}
}

// NewEvaluator returns an evaluator with the same-chunk fast path enabled.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{fastPath: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stats returns cumulative neighbor read counts.
func (e *Evaluator) Stats() ReadStats {
	return e.stats
}

// neighborhood reads neighbors of one evaluated cell.
type neighborhood struct {
	e     *Evaluator
	src   Source
	id    layer.ID
	cell  grid.Cell
	owner *chunk.Chunk
}

func (e *Evaluator) at(src Source, id layer.ID, cell grid.Cell) neighborhood {
	n := neighborhood{e: e, src: src, id: id, cell: cell}
	if e.fastPath {
		n.owner = src.Chunk(src.Layout().CellToChunk(cell))
	}
	return n
}

func (n *neighborhood) read(off grid.Cell) tile.Value {
	abs := n.cell.Add(off)
	if n.owner != nil && n.owner.Contains(abs) {
		n.e.stats.Local++
		return n.owner.GetAbs(n.id, abs)
	}
	n.e.stats.Remote++
	return n.src.GetTile(n.id, abs)
}

func (n *neighborhood) matches(rule *Rule, set *RuleSet, o Orientation) bool {
	for _, c := range rule.Conditions {
		if c.Expect == Any {
			continue
		}
		v := n.read(o.Apply(c.Offset))
		if !c.Expect.satisfied(v, set.Tile, set.EmptyIsDistinct) {
			return false
		}
	}
	return true
}

// Matches reports whether rule holds at cell on layer id in any of its
// transform's orientations.
func (e *Evaluator) Matches(rule Rule, set *RuleSet, id layer.ID, cell grid.Cell, src Source) bool {
	_, ok := e.MatchOrientation(rule, set, id, cell, src)
	return ok
}

// MatchOrientation is Matches that also reports the first orientation that
// held. Conditions are checked in order and evaluation stops at the first
// failure.
func (e *Evaluator) MatchOrientation(rule Rule, set *RuleSet, id layer.ID, cell grid.Cell, src Source) (Orientation, bool) {
	n := e.at(src, id, cell)
	for _, o := range rule.Transform.Orientations() {
		if n.matches(&rule, set, o) {
			return o, true
		}
	}
	return Identity, false
}

// Resolve returns the output of the first rule in set that matches at cell,
// or set.Default. The matched orientation is reported in Output.Orientation.
func (e *Evaluator) Resolve(cell grid.Cell, id layer.ID, set *RuleSet, src Source) Output {
	n := e.at(src, id, cell)
	for i := range set.Rules {
		rule := &set.Rules[i]
		for _, o := range rule.Transform.Orientations() {
			if n.matches(rule, set, o) {
				out := rule.Output
				if o != Identity {
					out.Orientation = o
				}
				return out
			}
		}
	}
	return set.Default
}

// ResolveCell resolves whatever is stored at cell.
//
// A rule tile with a registered set resolves through Resolve. A static tile,
// or a rule tile whose set is unknown or bound to another layer, renders as
// Output{Sprite: ref}. An empty cell yields the zero Output.
func (e *Evaluator) ResolveCell(cell grid.Cell, id layer.ID, reg *Registry, src Source) Output {
	v := src.GetTile(id, cell)
	switch v.Kind {
	case tile.KindEmpty:
		return Output{}
	case tile.KindRule:
		if set, ok := reg.lookupFor(v.Ref, id); ok {
			return e.Resolve(cell, id, set, src)
		}
	}
	return Output{Sprite: v.Ref}
}
