// Package layer assigns stable identifiers to named tile layers.
//
// A Registry is owned by one partition index and shared by every chunk in
// it. IDs are dense small integers in registration order, so a chunk can keep
// its layers in a slice indexed by ID.
//
// Names are canonicalised before lookup: surrounding whitespace is trimmed and
// the result is NFC-normalised, so "Grün" and "Grün" are one layer.
package layer

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ID identifies a layer within one registry.
type ID int

// None is returned by lookups that find nothing.
const None ID = -1

var (
	// ErrEmptyName is returned when a layer name is blank after canonicalisation.
	ErrEmptyName = errors.New("layer name is empty")
	// ErrDuplicate is returned by NewRegistry when two names canonicalise to the same layer.
	ErrDuplicate = errors.New("duplicate layer name")
)

// Registry maps layer names to IDs. It is not safe for concurrent mutation.
type Registry struct {
	byName map[string]ID
	names  []string
}

// NewRegistry creates a registry pre-populated with names, in order.
// Duplicate or empty names are configuration errors.
func NewRegistry(names ...string) (*Registry, error) {
	r := &Registry{byName: make(map[string]ID, len(names))}
	for _, n := range names {
		key := Canonical(n)
		if key == "" {
			return nil, ErrEmptyName
		}
		if _, ok := r.byName[key]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, key)
		}
		r.add(key)
	}
	return r, nil
}

// Canonical returns the lookup key for a layer name.
func Canonical(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Intern returns the ID for name, registering it if unseen.
// Calling Intern twice with the same logical name returns the same ID.
func (r *Registry) Intern(name string) (ID, error) {
	key := Canonical(name)
	if key == "" {
		return None, ErrEmptyName
	}
	if id, ok := r.byName[key]; ok {
		return id, nil
	}
	return r.add(key), nil
}

// Lookup returns the ID for name without registering it.
func (r *Registry) Lookup(name string) (ID, bool) {
	id, ok := r.byName[Canonical(name)]
	if !ok {
		return None, false
	}
	return id, true
}

// Name returns the canonical name of id, or "" if id is unknown.
func (r *Registry) Name(id ID) string {
	if !r.Valid(id) {
		return ""
	}
	return r.names[id]
}

// Valid reports whether id was issued by this registry.
func (r *Registry) Valid(id ID) bool {
	return id >= 0 && int(id) < len(r.names)
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	return len(r.names)
}

// Names returns the canonical names in ID order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) add(key string) ID {
	id := ID(len(r.names))
	r.names = append(r.names, key)
	r.byName[key] = id
	return id
}
