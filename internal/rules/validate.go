package rules

import (
	"fmt"
	"strings"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
)

// Validation error codes (E200-E299)
const (
	ErrTileNameEmpty      = "E201" // tile reference is required
	ErrNoRulesNoDefault   = "E202" // a set needs rules or a default output
	ErrZeroOffset         = "E203" // a condition cannot target the cell itself
	ErrDuplicateOffset    = "E204" // two conditions of one rule share an offset
	ErrUnknownExpectation = "E205" // expectation outside Any/Match/NotMatch
	ErrUnknownLayerRef    = "E206" // layer not present in the registry
	ErrInvalidTransform   = "E207" // transform outside the defined set
	ErrNegativeVariant    = "E208" // output variant must be >= 0
	ErrDuplicateTile      = "E209" // tile already registered
	ErrUnsupportedVersion = "E210" // definition version not understood
	ErrEmptySprite        = "E211" // rule output needs a sprite
	ErrMaskTableSize      = "E212" // mask table must have 16 entries
	ErrRadiusExceeded     = "E213" // condition reaches past the refresh radius
)

// ValidationError represents a rule authoring error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is returned by Register and Compile when a set is invalid.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Codes returns the error codes in order.
func (es ValidationErrors) Codes() []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Code
	}
	return out
}

// Validate checks a rule set. All problems are reported, not just the first.
// layers may be nil, in which case Layer is not checked.
func Validate(set *RuleSet, layers *layer.Registry) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(set.Tile) == "" {
		errs = append(errs, ValidationError{
			Field:   "tile",
			Message: "tile reference is required and must be non-empty",
			Code:    ErrTileNameEmpty,
		})
	}

	if len(set.Rules) == 0 && set.Default.Sprite == "" {
		errs = append(errs, ValidationError{
			Field:   "rules",
			Message: "at least one rule or a default output is required",
			Code:    ErrNoRulesNoDefault,
		})
	}

	if set.Layer != "" && layers != nil {
		if _, ok := layers.Lookup(set.Layer); !ok {
			errs = append(errs, ValidationError{
				Field:   "layer",
				Message: fmt.Sprintf("unknown layer %q", set.Layer),
				Code:    ErrUnknownLayerRef,
			})
		}
	}

	if set.Default.Variant < 0 {
		errs = append(errs, ValidationError{
			Field:   "default.variant",
			Message: fmt.Sprintf("variant %d must be non-negative", set.Default.Variant),
			Code:    ErrNegativeVariant,
		})
	}

	for i, rule := range set.Rules {
		errs = append(errs, validateRule(i, &rule)...)
	}
	return errs
}

func validateRule(i int, rule *Rule) []ValidationError {
	var errs []ValidationError
	prefix := fmt.Sprintf("rules[%d]", i)

	if !rule.Transform.Valid() {
		errs = append(errs, ValidationError{
			Field:   prefix + ".transform",
			Message: fmt.Sprintf("invalid transform %d", rule.Transform),
			Code:    ErrInvalidTransform,
		})
	}
	if rule.Output.Sprite == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".output.sprite",
			Message: "sprite is required",
			Code:    ErrEmptySprite,
		})
	}
	if rule.Output.Variant < 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".output.variant",
			Message: fmt.Sprintf("variant %d must be non-negative", rule.Output.Variant),
			Code:    ErrNegativeVariant,
		})
	}

	seen := make(map[grid.Cell]bool, len(rule.Conditions))
	for j, c := range rule.Conditions {
		field := fmt.Sprintf("%s.conditions[%d]", prefix, j)
		if c.Offset == (grid.Cell{}) {
			errs = append(errs, ValidationError{
				Field:   field + ".offset",
				Message: "offset (0,0) refers to the evaluated cell",
				Code:    ErrZeroOffset,
			})
		}
		if seen[c.Offset] {
			errs = append(errs, ValidationError{
				Field:   field + ".offset",
				Message: fmt.Sprintf("duplicate offset %s", c.Offset),
				Code:    ErrDuplicateOffset,
			})
		}
		seen[c.Offset] = true
		if !c.Expect.Valid() {
			errs = append(errs, ValidationError{
				Field:   field + ".expect",
				Message: fmt.Sprintf("unknown expectation %d", c.Expect),
				Code:    ErrUnknownExpectation,
			})
		}
	}
	return errs
}
