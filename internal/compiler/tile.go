// Package compiler turns CUE rule-set files into validated rule sets.
//
// Files declare tiles under `tile:` and connectivity mask tables under
// `mask:`; the struct label is the tile reference. Every value is unified with
// the closed schema in schema.cue before it is decoded, so unknown fields
// and wrongly typed values are reported with their source position.
package compiler

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/roach88/chunkgrid/internal/rules"
)

//go:embed schema.cue
var schemaSource string

// schemaFile names the embedded schema in CUE positions.
const schemaFile = "schema.cue"

func schemaDef(v cue.Value, name string) cue.Value {
	return v.Context().CompileString(schemaSource, cue.Filename(schemaFile)).LookupPath(cue.ParsePath(name))
}

// conform unifies v with a schema definition and checks the result is
// concrete.
func conform(v cue.Value, def string) (cue.Value, error) {
	if err := v.Err(); err != nil {
		return v, formatCUEError(err, v)
	}
	u := schemaDef(v, def).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return u, formatCUEError(err, v)
	}
	return u, nil
}

// label returns the last selector of v's path.
func label(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	name := sels[len(sels)-1].String()
	if unq, err := strconv.Unquote(name); err == nil {
		return unq
	}
	return name
}

// CompileTile parses a CUE tile value into a RuleSet.
//
// The value should be the tile struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`tile: floor: { default: sprite: "floor" }`)
//	set, err := CompileTile(v.LookupPath(cue.ParsePath("tile.floor")))
func CompileTile(v cue.Value) (rules.RuleSet, error) {
	name := label(v)
	u, err := conform(v, "#Tile")
	if err != nil {
		return rules.RuleSet{}, err
	}

	def := rules.Definition{Version: rules.DefinitionVersion, Tile: name}
	if err := u.Decode(&def); err != nil {
		return rules.RuleSet{}, formatCUEError(err, v)
	}
	// Decode would otherwise clear the label-derived fields.
	def.Tile, def.Version = name, rules.DefinitionVersion

	set, err := rules.Compile(def)
	if err != nil {
		var verrs rules.ValidationErrors
		if errors.As(err, &verrs) {
			return rules.RuleSet{}, fromValidation(v, "tile."+name, verrs)
		}
		return rules.RuleSet{}, err
	}
	return set, nil
}

// CompileMask parses a CUE mask value into a MaskTable.
func CompileMask(v cue.Value) (rules.MaskTable, error) {
	name := label(v)
	u, err := conform(v, "#Mask")
	if err != nil {
		return rules.MaskTable{}, err
	}

	var raw struct {
		Layer    string   `json:"layer"`
		Sprites  []string `json:"sprites"`
		Fallback string   `json:"fallback"`
	}
	if err := u.Decode(&raw); err != nil {
		return rules.MaskTable{}, formatCUEError(err, v)
	}

	mt, err := rules.NewMaskTable(name, raw.Sprites, raw.Fallback)
	if err != nil {
		var verrs rules.ValidationErrors
		if errors.As(err, &verrs) {
			return rules.MaskTable{}, fromValidation(v, "mask."+name, verrs)
		}
		return rules.MaskTable{}, err
	}
	mt.Layer = raw.Layer

	set := mt.RuleSet()
	if verrs := rules.Validate(&set, nil); len(verrs) > 0 {
		return rules.MaskTable{}, fromValidation(v, "mask."+name, verrs)
	}
	return mt, nil
}

// Result is the output of compiling a rule-set file or directory.
type Result struct {
	Sets  []rules.RuleSet
	Files int
}

// CompileValue compiles every tile and mask under root, tiles first, each in
// declaration order. All errors are collected.
func CompileValue(root cue.Value) (*Result, []error) {
	res := &Result{}
	var errs []error

	if err := root.Err(); err != nil {
		return res, []error{formatCUEError(err, root)}
	}

	tiles := root.LookupPath(cue.ParsePath("tile"))
	if tiles.Exists() {
		iter, err := tiles.Fields()
		if err != nil {
			return res, []error{formatCUEError(err, tiles)}
		}
		for iter.Next() {
			set, err := CompileTile(iter.Value())
			if err != nil {
				errs = append(errs, err)
				continue
			}
			res.Sets = append(res.Sets, set)
		}
	}

	masks := root.LookupPath(cue.ParsePath("mask"))
	if masks.Exists() {
		iter, err := masks.Fields()
		if err != nil {
			return res, append(errs, formatCUEError(err, masks))
		}
		for iter.Next() {
			mt, err := CompileMask(iter.Value())
			if err != nil {
				errs = append(errs, err)
				continue
			}
			res.Sets = append(res.Sets, mt.RuleSet())
		}
	}

	if !tiles.Exists() && !masks.Exists() {
		errs = append(errs, &CompileError{
			Field:   "tile",
			Message: "no tile or mask declarations found",
			Pos:     root.Pos(),
		})
	}

	seen := make(map[string]bool, len(res.Sets))
	for _, s := range res.Sets {
		if seen[s.Tile] {
			errs = append(errs, &CompileError{
				Field:   "mask." + s.Tile,
				Message: fmt.Sprintf("tile %q declared as both tile and mask", s.Tile),
				Code:    rules.ErrDuplicateTile,
				Pos:     masks.LookupPath(cue.MakePath(cue.Str(s.Tile))).Pos(),
			})
		}
		seen[s.Tile] = true
	}
	return res, errs
}
