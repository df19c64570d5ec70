package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/chunkgrid/internal/rules"
)

func TestCompile_TextIsYAML(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "dungeon.cue", validRules)

	out, err := execute(t, "compile", path)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &result))
	require.Len(t, result.Definitions, 2)

	floor := result.Definitions[0]
	assert.Equal(t, rules.DefinitionVersion, floor.Version)
	assert.Equal(t, "floor", floor.Tile)
	assert.Equal(t, "Objects", floor.Layer)
	require.Len(t, floor.Rules, 1)
	assert.Equal(t, "floor_shadow_w", floor.Rules[0].Sprite)
	assert.Equal(t, []rules.ConditionDefinition{{DX: -1, DY: 0, Expect: "not_match"}}, floor.Rules[0].Conditions)

	assert.True(t, result.Definitions[1].EmptyIsDistinct)
}

func TestCompile_JSON(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "dungeon.cue", validRules)

	out, err := execute(t, "compile", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Definitions, 2)
}

func TestCompile_DefinitionsRoundTrip(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "dungeon.cue", validRules)

	out, err := execute(t, "compile", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	// Compiled definitions must register cleanly on their own.
	reg := rules.NewRegistry(nil)
	for _, def := range resp.Data.Definitions {
		def.Layer = ""
		set, err := rules.Compile(def)
		require.NoError(t, err)
		require.NoError(t, reg.Register(set))
	}
	assert.Equal(t, 2, reg.Len())
}

func TestCompile_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCUE(t, dir, "dungeon.cue", validRules)

	tests := []struct {
		name   string
		decode func([]byte, any) error
	}{
		{"defs.yaml", yaml.Unmarshal},
		{"defs.json", json.Unmarshal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outPath := filepath.Join(dir, tt.name)
			out, err := execute(t, "compile", path, "-o", outPath)
			require.NoError(t, err)
			assert.Contains(t, out, "✓ Compiled 2 tile(s) from 1 file(s)")

			data, err := os.ReadFile(outPath)
			require.NoError(t, err)
			var result CompilationResult
			require.NoError(t, tt.decode(data, &result))
			assert.Len(t, result.Definitions, 2)
		})
	}
}

func TestCompile_MaskExpands(t *testing.T) {
	src := `mask: path: {
	sprites: [
		"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7",
		"p8", "p9", "p10", "p11", "p12", "p13", "p14", "p15",
	]
	fallback: "p0"
}
`
	path := writeCUE(t, t.TempDir(), "path.cue", src)

	out, err := execute(t, "compile", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Definitions, 1)
	assert.Len(t, resp.Data.Definitions[0].Rules, 16)
}

func TestCompile_Invalid(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "bad.cue", `tile: bad: { rules: [] }`)

	out, err := execute(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "[E202]")
}
