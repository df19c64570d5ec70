package rules

import (
	"fmt"
	"sort"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
)

type entry struct {
	set   RuleSet
	layer layer.ID // layer.None when unrestricted
}

// Registry holds validated, immutable rule sets keyed by tile reference.
// Each partition index gets its own registry; there is no global table.
type Registry struct {
	layers    *layer.Registry
	entries   map[string]*entry
	maxRadius int
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMaxRadius rejects rule sets whose conditions look further than radius
// cells away. Pass the refresh radius of the index the sets will run
// against: a neighbor outside it is never invalidated when it changes, so
// the cell reading it would keep a stale output.
// Default: 0, no limit.
func WithMaxRadius(radius int) RegistryOption {
	return func(r *Registry) {
		r.maxRadius = radius
	}
}

// NewRegistry creates an empty registry. layers resolves RuleSet.Layer and
// may be nil when no set is layer-bound.
func NewRegistry(layers *layer.Registry, opts ...RegistryOption) *Registry {
	r := &Registry{layers: layers, entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates set and stores a copy of it.
// Returns ValidationErrors on any authoring error, including a tile that is
// already registered.
func (r *Registry) Register(set RuleSet) error {
	errs := Validate(&set, r.layers)
	errs = append(errs, r.checkRadius(&set)...)
	if _, dup := r.entries[set.Tile]; dup {
		errs = append(errs, ValidationError{
			Field:   "tile",
			Message: fmt.Sprintf("tile %q is already registered", set.Tile),
			Code:    ErrDuplicateTile,
		})
	}
	if len(errs) > 0 {
		return ValidationErrors(errs)
	}

	e := &entry{set: set.Clone(), layer: layer.None}
	if set.Layer != "" {
		if r.layers == nil {
			return ValidationErrors{{
				Field:   "layer",
				Message: fmt.Sprintf("layer %q given but registry has no layers", set.Layer),
				Code:    ErrUnknownLayerRef,
			}}
		}
		e.layer, _ = r.layers.Lookup(set.Layer)
	}
	r.entries[set.Tile] = e
	return nil
}

// checkRadius reports every condition beyond the registry's max radius.
func (r *Registry) checkRadius(set *RuleSet) []ValidationError {
	if r.maxRadius <= 0 {
		return nil
	}
	var errs []ValidationError
	for i, rule := range set.Rules {
		for j, c := range rule.Conditions {
			if d := grid.Chebyshev(c.Offset); d > r.maxRadius {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("rules[%d].conditions[%d].offset", i, j),
					Message: fmt.Sprintf("offset %s is %d cells away, beyond refresh radius %d", c.Offset, d, r.maxRadius),
					Code:    ErrRadiusExceeded,
				})
			}
		}
	}
	return errs
}

// RadiusLimit returns the limit set with WithMaxRadius, 0 when
// unlimited.
func (r *Registry) RadiusLimit() int {
	return r.maxRadius
}

// MustRegister is Register that panics on error. For tests and static tables.
func (r *Registry) MustRegister(set RuleSet) {
	if err := r.Register(set); err != nil {
		panic(err)
	}
}

// Lookup returns a copy of the registered set for ref. Changing the copy
// does not affect the registry.
func (r *Registry) Lookup(ref string) (RuleSet, bool) {
	e, ok := r.entries[ref]
	if !ok {
		return RuleSet{}, false
	}
	return e.set.Clone(), true
}

func (r *Registry) lookupFor(ref string, id layer.ID) (*RuleSet, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.entries[ref]
	if !ok {
		return nil, false
	}
	if e.layer != layer.None && e.layer != id {
		return nil, false
	}
	return &e.set, true
}

// Tiles returns the registered references, sorted.
func (r *Registry) Tiles() []string {
	out := make([]string, 0, len(r.entries))
	for ref := range r.entries {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered sets.
func (r *Registry) Len() int {
	return len(r.entries)
}

// MaxRadius returns the largest condition distance across all sets.
func (r *Registry) MaxRadius() int {
	m := 0
	for _, e := range r.entries {
		if d := e.set.Radius(); d > m {
			m = d
		}
	}
	return m
}
