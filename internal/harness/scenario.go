package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/index"
	"github.com/roach88/chunkgrid/internal/rules"
	"github.com/roach88/chunkgrid/internal/tile"
)

// Scenario is one scripted editing session with expectations.
type Scenario struct {
	// Name uniquely identifies the scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Config is the index configuration. Nil means index.DefaultConfig().
	Config *index.Config `yaml:"config,omitempty"`

	// RefreshRadius overrides the index's border invalidation radius.
	RefreshRadius int `yaml:"refresh_radius,omitempty"`

	// Rules lists CUE rule files or directories, relative to the scenario
	// file.
	Rules []string `yaml:"rules,omitempty"`

	// Definitions are rule sets declared inline.
	Definitions []rules.Definition `yaml:"definitions,omitempty"`

	// Budget is the refresh requests drained per tick. Zero means the
	// engine default.
	Budget int `yaml:"budget,omitempty"`

	// EditQuota limits edits applied per tick. Zero means unlimited.
	EditQuota int `yaml:"edit_quota,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step operations.
const (
	OpSet         = "set"
	OpClear       = "clear"
	OpFill        = "fill"
	OpEnsureChunk = "ensure_chunk"
	OpRebuild     = "rebuild"
	OpRefresh     = "refresh"
	OpTick        = "tick"
	OpSettle      = "settle"
	OpEvict       = "evict"
)

// Step is one scenario action. Which fields apply depends on Op.
type Step struct {
	Op string `yaml:"op"`

	// Layer names the layer for set, clear, fill and refresh.
	Layer string `yaml:"layer,omitempty"`

	// Cell is the target of set and clear.
	Cell *grid.Cell `yaml:"cell,omitempty"`

	// Region is the target of fill and refresh.
	Region *grid.Bounds `yaml:"region,omitempty"`

	// Tile is the value for set and fill, in tile.Parse syntax.
	Tile string `yaml:"tile,omitempty"`

	// Chunk is the target of ensure_chunk.
	Chunk *grid.ChunkCoord `yaml:"chunk,omitempty"`

	// Layout is the new layout for rebuild.
	Layout *grid.Layout `yaml:"layout,omitempty"`

	// Count is the tick count for tick and settle, and the chunk limit for
	// evict.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTile        = "tile"
	AssertRendered    = "rendered"
	AssertPending     = "pending"
	AssertQueueLen    = "queue_len"
	AssertChunks      = "chunks"
	AssertSignalCount = "signal_count"
)

// Assertion checks the final grid or the trace. Which fields apply depends
// on Type.
type Assertion struct {
	Type string `yaml:"type"`

	Layer string     `yaml:"layer,omitempty"`
	Cell  *grid.Cell `yaml:"cell,omitempty"`

	// Tile is the expected stored value (tile).
	Tile string `yaml:"tile,omitempty"`

	// Sprite, Variant and Orientation describe the expected output
	// (rendered). Nil Variant and empty Orientation are not checked.
	Sprite      string `yaml:"sprite,omitempty"`
	Variant     *int   `yaml:"variant,omitempty"`
	Orientation string `yaml:"orientation,omitempty"`

	// Pending is the expected queue membership (pending). Default true.
	Pending *bool `yaml:"pending,omitempty"`

	// Count is the expected number (queue_len, signal_count).
	Count *int `yaml:"count,omitempty"`

	// Chunks is the expected set of chunk coordinates (chunks).
	Chunks []grid.ChunkCoord `yaml:"chunks,omitempty"`
}

// LoadScenario reads and validates a scenario file. Rule paths are resolved
// relative to the file's directory.
//
// Unknown fields are rejected so that typos like "assertion:" fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario decodes and validates a scenario document. Relative rule
// paths are joined to baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, p := range scenario.Rules {
		if !filepath.IsAbs(p) && baseDir != "" {
			scenario.Rules[i] = filepath.Join(baseDir, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and per-op step arguments.
// Index configuration is checked later by index.New.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if s.Budget < 0 {
		return fmt.Errorf("budget must be non-negative")
	}
	if s.EditQuota < 0 {
		return fmt.Errorf("edit_quota must be non-negative")
	}

	for _, p := range s.Rules {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("rules file not found: %s", p)
		}
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, st *Step) error {
	switch st.Op {
	case OpSet:
		if err := needLayerCell(st.Layer, st.Cell); err != nil {
			return fmt.Errorf("steps[%d]: %w for set", i, err)
		}
		if _, err := tile.Parse(st.Tile); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	case OpClear:
		if err := needLayerCell(st.Layer, st.Cell); err != nil {
			return fmt.Errorf("steps[%d]: %w for clear", i, err)
		}
	case OpFill, OpRefresh:
		if st.Layer == "" || st.Region == nil {
			return fmt.Errorf("steps[%d]: layer and region are required for %s", i, st.Op)
		}
		if st.Op == OpFill {
			if _, err := tile.Parse(st.Tile); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
	case OpEnsureChunk:
		if st.Chunk == nil {
			return fmt.Errorf("steps[%d]: chunk is required for ensure_chunk", i)
		}
	case OpRebuild:
		if st.Layout == nil {
			return fmt.Errorf("steps[%d]: layout is required for rebuild", i)
		}
	case OpTick, OpSettle, OpEvict:
		if st.Count < 0 {
			return fmt.Errorf("steps[%d]: count must be non-negative for %s", i, st.Op)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", i)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	return nil
}

func needLayerCell(layer string, cell *grid.Cell) error {
	if layer == "" || cell == nil {
		return fmt.Errorf("layer and cell are required")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(i int, a *Assertion) error {
	switch a.Type {
	case AssertTile:
		if err := needLayerCell(a.Layer, a.Cell); err != nil {
			return fmt.Errorf("assertions[%d]: %w for tile", i, err)
		}
		if _, err := tile.Parse(a.Tile); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	case AssertRendered:
		if err := needLayerCell(a.Layer, a.Cell); err != nil {
			return fmt.Errorf("assertions[%d]: %w for rendered", i, err)
		}
	case AssertPending:
		if err := needLayerCell(a.Layer, a.Cell); err != nil {
			return fmt.Errorf("assertions[%d]: %w for pending", i, err)
		}
	case AssertQueueLen:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for queue_len", i)
		}
	case AssertChunks:
		if a.Chunks == nil {
			return fmt.Errorf("assertions[%d]: chunks list is required for chunks", i)
		}
	case AssertSignalCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for signal_count", i)
		}
		if a.Cell != nil && a.Layer == "" {
			return fmt.Errorf("assertions[%d]: layer is required with cell for signal_count", i)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
