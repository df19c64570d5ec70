package rules

import "fmt"

// DefinitionVersion is the current Definition schema version.
const DefinitionVersion = 1

// Definition is the serialisable form of a RuleSet.
//
// Scenario files and the CUE compiler produce Definitions; Compile turns one
// into a RuleSet. A Version of 0 is read as DefinitionVersion.
type Definition struct {
	Version         int              `json:"version" yaml:"version"`
	Tile            string           `json:"tile" yaml:"tile"`
	Layer           string           `json:"layer,omitempty" yaml:"layer,omitempty"`
	Default         OutputDefinition `json:"default" yaml:"default"`
	EmptyIsDistinct bool             `json:"empty_is_distinct,omitempty" yaml:"empty_is_distinct,omitempty"`
	Rules           []RuleDefinition `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// OutputDefinition is the serialisable form of an Output.
type OutputDefinition struct {
	Sprite  string `json:"sprite" yaml:"sprite"`
	Variant int    `json:"variant,omitempty" yaml:"variant,omitempty"`
}

// RuleDefinition is the serialisable form of a Rule.
type RuleDefinition struct {
	Conditions []ConditionDefinition `json:"conditions" yaml:"conditions"`
	Sprite     string                `json:"sprite" yaml:"sprite"`
	Variant    int                   `json:"variant,omitempty" yaml:"variant,omitempty"`
	Transform  string                `json:"transform,omitempty" yaml:"transform,omitempty"`
}

// ConditionDefinition is the serialisable form of a NeighborCondition.
type ConditionDefinition struct {
	DX     int    `json:"dx" yaml:"dx"`
	DY     int    `json:"dy" yaml:"dy"`
	Expect string `json:"expect" yaml:"expect"`
}

// Compile converts a Definition into a validated RuleSet.
// Layer names are not resolved here; Registry.Register does that.
func Compile(def Definition) (RuleSet, error) {
	var errs ValidationErrors

	if def.Version != 0 && def.Version != DefinitionVersion {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (want %d)", def.Version, DefinitionVersion),
			Code:    ErrUnsupportedVersion,
		})
	}

	set := RuleSet{
		Tile:            def.Tile,
		Layer:           def.Layer,
		Default:         Output{Sprite: def.Default.Sprite, Variant: def.Default.Variant},
		EmptyIsDistinct: def.EmptyIsDistinct,
		Rules:           make([]Rule, 0, len(def.Rules)),
	}

	for i, rd := range def.Rules {
		tr, err := ParseTransform(rd.Transform)
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("rules[%d].transform", i),
				Message: err.Error(),
				Code:    ErrInvalidTransform,
			})
		}
		rule := Rule{
			Output:     Output{Sprite: rd.Sprite, Variant: rd.Variant},
			Transform:  tr,
			Conditions: make([]NeighborCondition, 0, len(rd.Conditions)),
		}
		for j, cd := range rd.Conditions {
			exp, err := ParseExpect(cd.Expect)
			if err != nil {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("rules[%d].conditions[%d].expect", i, j),
					Message: err.Error(),
					Code:    ErrUnknownExpectation,
				})
			}
			rule.Conditions = append(rule.Conditions, Cond(cd.DX, cd.DY, exp))
		}
		set.Rules = append(set.Rules, rule)
	}

	errs = append(errs, Validate(&set, nil)...)
	if len(errs) > 0 {
		return RuleSet{}, errs
	}
	return set, nil
}

// ToDefinition converts a RuleSet back into its serialisable form.
func ToDefinition(set *RuleSet) Definition {
	def := Definition{
		Version:         DefinitionVersion,
		Tile:            set.Tile,
		Layer:           set.Layer,
		Default:         OutputDefinition{Sprite: set.Default.Sprite, Variant: set.Default.Variant},
		EmptyIsDistinct: set.EmptyIsDistinct,
	}
	for _, r := range set.Rules {
		rd := RuleDefinition{Sprite: r.Output.Sprite, Variant: r.Output.Variant}
		if r.Transform != Fixed {
			rd.Transform = r.Transform.String()
		}
		for _, c := range r.Conditions {
			rd.Conditions = append(rd.Conditions, ConditionDefinition{
				DX: c.Offset.X, DY: c.Offset.Y, Expect: c.Expect.String(),
			})
		}
		def.Rules = append(def.Rules, rd)
	}
	return def
}
