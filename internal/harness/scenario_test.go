package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chunkgrid/internal/grid"
)

// writeRules writes a minimal rule file into dir and returns its path.
func writeRules(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "floor.cue")
	src := `tile: floor: { default: sprite: "floor" }`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeRules(t, dir)
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
rules:
  - floor.cue
budget: 4
steps:
  - { op: set, layer: Objects, cell: { x: 1, y: 2 }, tile: "rule:floor" }
  - { op: settle }
assertions:
  - { type: rendered, layer: Objects, cell: { x: 1, y: 2 }, sprite: floor }
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, 4, scenario.Budget)
	assert.Equal(t, []string{filepath.Join(dir, "floor.cue")}, scenario.Rules, "rule paths resolve against the scenario directory")
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, OpSet, scenario.Steps[0].Op)
	assert.Equal(t, &grid.Cell{X: 1, Y: 2}, scenario.Steps[0].Cell)
	assert.Equal(t, "rule:floor", scenario.Steps[0].Tile)
	assert.Nil(t, scenario.Config)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Config(t *testing.T) {
	content := `
name: cfg
description: "custom layout"
config:
  layout: { origin: { x: -8, y: 0 }, chunk_size: { w: 16, h: 8 }, overlap: 2 }
  layers: [Ground, Decor]
  initial_chunks: { w: 1, h: 1 }
refresh_radius: 2
steps:
  - { op: ensure_chunk, chunk: { cx: -1, cy: 3 } }
  - { op: tick, count: 3 }
assertions:
  - type: chunks
    chunks: [{ cx: 0, cy: 0 }, { cx: -1, cy: 3 }]
`
	s, err := ParseScenario([]byte(content), "")
	require.NoError(t, err)
	require.NotNil(t, s.Config)
	assert.Equal(t, grid.Cell{X: -8, Y: 0}, s.Config.Layout.Origin)
	assert.Equal(t, grid.Size{W: 16, H: 8}, s.Config.Layout.ChunkSize)
	assert.Equal(t, 2, s.Config.Layout.Overlap)
	assert.Equal(t, []string{"Ground", "Decor"}, s.Config.Layers)
	assert.Equal(t, 2, s.RefreshRadius)
	assert.Equal(t, &grid.ChunkCoord{X: -1, Y: 3}, s.Steps[0].Chunk)
	assert.Equal(t, 3, s.Steps[1].Count)
	assert.Equal(t, []grid.ChunkCoord{{X: 0, Y: 0}, {X: -1, Y: 3}}, s.Assertions[0].Chunks)
}

func TestParseScenario_InlineDefinitions(t *testing.T) {
	content := `
name: inline
description: "inline rule set"
definitions:
  - tile: pillar
    layer: Objects
    default: { sprite: pillar }
    rules:
      - sprite: pillar_pair
        transform: rotated
        conditions: [{ dx: 1, dy: 0, expect: match }]
steps:
  - { op: tick }
assertions:
  - { type: queue_len, count: 0 }
`
	s, err := ParseScenario([]byte(content), "")
	require.NoError(t, err)
	require.Len(t, s.Definitions, 1)
	def := s.Definitions[0]
	assert.Equal(t, "pillar", def.Tile)
	assert.Equal(t, "pillar", def.Default.Sprite)
	require.Len(t, def.Rules, 1)
	assert.Equal(t, "rotated", def.Rules[0].Transform)
	assert.Equal(t, "match", def.Rules[0].Conditions[0].Expect)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps: [{op: tick}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps: [{op: tick}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nsteps: [{op: tick}]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown field",
			content: "name: n\ndescription: d\nstep: []\nsteps: [{op: tick}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown op",
			content: "name: n\ndescription: d\nsteps: [{op: paint}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: `unknown op "paint"`,
		},
		{
			name:    "set without cell",
			content: "name: n\ndescription: d\nsteps: [{op: set, layer: Objects, tile: x}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "layer and cell are required for set",
		},
		{
			name:    "bad tile",
			content: "name: n\ndescription: d\nsteps: [{op: set, layer: Objects, cell: {x: 0, y: 0}, tile: 'rule:'}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "steps[0]",
		},
		{
			name:    "fill without region",
			content: "name: n\ndescription: d\nsteps: [{op: fill, layer: Objects, tile: x}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "layer and region are required for fill",
		},
		{
			name:    "rebuild without layout",
			content: "name: n\ndescription: d\nsteps: [{op: rebuild}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "layout is required for rebuild",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\nsteps: [{op: settle, count: -1}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "negative budget",
			content: "name: n\ndescription: d\nbudget: -1\nsteps: [{op: tick}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "budget must be non-negative",
		},
		{
			name:    "queue_len without count",
			content: "name: n\ndescription: d\nsteps: [{op: tick}]\nassertions: [{type: queue_len}]\n",
			wantErr: "count is required for queue_len",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nsteps: [{op: tick}]\nassertions: [{type: looks_nice}]\n",
			wantErr: `unknown assertion type "looks_nice"`,
		},
		{
			name:    "missing rules file",
			content: "name: n\ndescription: d\nrules: [nowhere.cue]\nsteps: [{op: tick}]\nassertions: [{type: queue_len, count: 0}]\n",
			wantErr: "rules file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}
