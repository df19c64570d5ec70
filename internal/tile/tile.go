// Package tile defines the opaque value stored in a layer cell.
package tile

import (
	"fmt"
	"strings"
)

// Kind tags what a cell holds.
type Kind uint8

const (
	// KindEmpty is the zero value: no tile at the cell.
	KindEmpty Kind = iota
	// KindStatic is a plain tile whose appearance never depends on neighbors.
	KindStatic
	// KindRule references a registered rule set by name.
	KindRule
)

// String returns the lowercase name used in scenario files and logs.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindStatic:
		return "static"
	case KindRule:
		return "rule"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "empty":
		return KindEmpty, nil
	case "static":
		return KindStatic, nil
	case "rule":
		return KindRule, nil
	default:
		return KindEmpty, fmt.Errorf("unknown tile kind %q", s)
	}
}

// Value is what a layer stores at one cell.
//
// The zero Value is Empty. Ref names the tile type; two values have the same
// identity iff their Refs are equal, regardless of Kind, so a static "wall" and
// a rule tile "wall" connect to each other.
type Value struct {
	Kind Kind
	Ref  string
}

// Empty is the neutral value returned for absent cells and chunks.
var Empty = Value{}

// Static returns a static tile value.
func Static(ref string) Value {
	return Value{Kind: KindStatic, Ref: ref}
}

// Rule returns a rule-tile reference.
func Rule(ref string) Value {
	return Value{Kind: KindRule, Ref: ref}
}

// IsEmpty reports whether v holds no tile.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// Identity returns the identity compared by rule conditions.
// Empty values have no identity and return "".
func (v Value) Identity() string {
	if v.IsEmpty() {
		return ""
	}
	return v.Ref
}

func (v Value) String() string {
	if v.IsEmpty() {
		return "empty"
	}
	return v.Kind.String() + ":" + v.Ref
}

// Parse is the inverse of Value.String: "empty", "static:<ref>" or
// "rule:<ref>". A bare reference without a kind prefix is a static tile.
func Parse(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "empty" {
		return Empty, nil
	}
	kindName, ref, ok := strings.Cut(s, ":")
	if !ok {
		return Static(s), nil
	}
	kind, err := ParseKind(kindName)
	if err != nil {
		return Empty, err
	}
	if kind == KindEmpty {
		return Empty, nil
	}
	if ref == "" {
		return Empty, fmt.Errorf("tile %q: missing reference", s)
	}
	return Value{Kind: kind, Ref: ref}, nil
}
