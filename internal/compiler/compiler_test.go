package compiler

import (
	"errors"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chunkgrid/internal/rules"
)

func TestCompileTileBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		tile: floor: {
			layer: "Objects"
			default: sprite: "floor"
			rules: [{
				sprite: "floor_shadow_w"
				conditions: [{dx: -1, dy: 0, expect: "not_match"}]
			}]
		}
	`)
	require.NoError(t, v.Err())

	set, err := CompileTile(v.LookupPath(cue.ParsePath("tile.floor")))
	require.NoError(t, err)

	assert.Equal(t, "floor", set.Tile)
	assert.Equal(t, "Objects", set.Layer)
	assert.Equal(t, rules.Output{Sprite: "floor"}, set.Default)
	require.Len(t, set.Rules, 1)
	assert.Equal(t, []rules.NeighborCondition{rules.Cond(-1, 0, rules.NotMatch)}, set.Rules[0].Conditions)
	assert.Equal(t, rules.Fixed, set.Rules[0].Transform)
}

func TestCompileTileTransformAndVariant(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		tile: pipe: {
			default: sprite: "pipe"
			rules: [{
				sprite: "pipe_end", variant: 2, transform: "rotated"
				conditions: [{dx: 1, dy: 0, expect: "this"}]
			}]
		}
	`)

	set, err := CompileTile(v.LookupPath(cue.ParsePath("tile.pipe")))
	require.NoError(t, err)
	assert.Equal(t, rules.Rotated, set.Rules[0].Transform)
	assert.Equal(t, rules.Output{Sprite: "pipe_end", Variant: 2}, set.Rules[0].Output)
	assert.Equal(t, rules.Match, set.Rules[0].Conditions[0].Expect)
}

func TestCompileTileSchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `tile: x: { default: sprite: "x", colour: "red" }`},
		{"bad expectation", `tile: x: { rules: [{sprite: "a", conditions: [{dx: 1, dy: 0, expect: "maybe"}]}] }`},
		{"negative variant", `tile: x: { default: { sprite: "x", variant: -1 } }`},
		{"bad transform", `tile: x: { rules: [{sprite: "a", transform: "spin", conditions: []}] }`},
		{"offset not int", `tile: x: { rules: [{sprite: "a", conditions: [{dx: "1", dy: 0, expect: "any"}]}] }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tt.src, cue.Filename("bad.cue"))
			_, err := CompileTile(v.LookupPath(cue.ParsePath("tile.x")))
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, "cue", ce.Field)
			require.True(t, ce.Pos.IsValid(), "no position: %v", err)
			assert.Equal(t, "bad.cue", ce.Pos.Filename())
			assert.Contains(t, ce.Error(), "bad.cue:1:")
		})
	}
}

func TestCompileTileValidationPositions(t *testing.T) {
	src := `tile: x: {
	rules: [{
		sprite: "a"
		conditions: [
			{dx: 0, dy: 0, expect: "match"},
		]
	}]
}
`
	v := cuecontext.New().CompileString(src, cue.Filename("rules.cue"))
	_, err := CompileTile(v.LookupPath(cue.ParsePath("tile.x")))
	require.Error(t, err)

	var ces CompileErrors
	require.True(t, errors.As(err, &ces), "got %T: %v", err, err)
	require.Len(t, ces, 1)
	assert.Equal(t, rules.ErrZeroOffset, ces[0].Code)
	assert.Equal(t, "tile.x.rules[0].conditions[0].offset", ces[0].Field)
	assert.True(t, ces[0].Pos.IsValid())
	assert.Equal(t, 5, ces[0].Pos.Line())
	assert.Contains(t, ces[0].Error(), "rules.cue:5:")
}

func TestCompileTileNoRulesNoDefault(t *testing.T) {
	v := cuecontext.New().CompileString(`tile: ghost: {}`)
	_, err := CompileTile(v.LookupPath(cue.ParsePath("tile.ghost")))

	var ces CompileErrors
	require.True(t, errors.As(err, &ces))
	assert.Equal(t, rules.ErrNoRulesNoDefault, ces[0].Code)
}

func TestCompileMask(t *testing.T) {
	v := cuecontext.New().CompileString(`
		mask: road: {
			layer: "Ground"
			sprites: ["r0","r1","r2","r3","r4","r5","r6","r7","r8","r9","r10","r11","r12","r13","r14","r15"]
			fallback: "r0"
		}
	`)

	mt, err := CompileMask(v.LookupPath(cue.ParsePath("mask.road")))
	require.NoError(t, err)
	assert.Equal(t, "road", mt.Tile)
	assert.Equal(t, "Ground", mt.Layer)
	assert.Equal(t, "r15", mt.Sprites[15])
	assert.Len(t, mt.RuleSet().Rules, 16)
}

func TestCompileMaskWrongSize(t *testing.T) {
	v := cuecontext.New().CompileString(`mask: road: { sprites: ["a", "b"], fallback: "a" }`)
	_, err := CompileMask(v.LookupPath(cue.ParsePath("mask.road")))

	var ces CompileErrors
	require.True(t, errors.As(err, &ces))
	assert.Equal(t, rules.ErrMaskTableSize, ces[0].Code)
}

func TestCompileBytes(t *testing.T) {
	res, errs := CompileBytes([]byte(`
		tile: a: { default: sprite: "a" }
		tile: b: { default: sprite: "b" }
		mask: c: { sprites: ["c","c","c","c","c","c","c","c","c","c","c","c","c","c","c","c"], fallback: "c" }
	`), "inline.cue")
	require.Empty(t, errs)
	require.Len(t, res.Sets, 3)
	assert.Equal(t, "a", res.Sets[0].Tile)
	assert.Equal(t, "b", res.Sets[1].Tile)
	assert.Equal(t, "c", res.Sets[2].Tile)
	assert.True(t, res.Sets[2].EmptyIsDistinct)
}

func TestCompileBytesCollectsAllErrors(t *testing.T) {
	_, errs := CompileBytes([]byte(`
		tile: a: {}
		tile: b: { default: sprite: "b" }
		tile: c: { bogus: 1 }
	`), "inline.cue")
	assert.Len(t, errs, 2)
}

func TestCompileBytesEmpty(t *testing.T) {
	_, errs := CompileBytes([]byte(`other: 1`), "inline.cue")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no tile or mask declarations")
}

func TestCompileBytesTileAndMaskClash(t *testing.T) {
	_, errs := CompileBytes([]byte(`
		tile: a: { default: sprite: "a" }
		mask: a: { sprites: ["a","a","a","a","a","a","a","a","a","a","a","a","a","a","a","a"], fallback: "a" }
	`), "inline.cue")
	require.Len(t, errs, 1)
	var ce *CompileError
	require.True(t, errors.As(errs[0], &ce))
	assert.Equal(t, rules.ErrDuplicateTile, ce.Code)
}

func TestLoadPathDirectory(t *testing.T) {
	res, errs := LoadPath(filepath.Join("testdata", "dungeon"))
	require.Empty(t, errs)

	assert.Equal(t, 2, res.Files)
	tiles := make([]string, 0, len(res.Sets))
	for _, s := range res.Sets {
		tiles = append(tiles, s.Tile)
	}
	assert.ElementsMatch(t, []string{"floor", "wall", "path"}, tiles)
}

func TestLoadPathSingleFile(t *testing.T) {
	res, errs := LoadPath(filepath.Join("testdata", "dungeon", "floor.cue"))
	require.Empty(t, errs)
	require.Len(t, res.Sets, 1)
	assert.Equal(t, "floor", res.Sets[0].Tile)
}

func TestLoadPathErrors(t *testing.T) {
	_, errs := LoadPath(filepath.Join("testdata", "missing"))
	require.Len(t, errs, 1)
	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeNotFound, le.Code)

	_, errs = LoadPath(t.TempDir())
	require.Len(t, errs, 1)
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}
