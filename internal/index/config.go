package index

import (
	"fmt"
	"log/slog"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
)

// Default configuration values.
const (
	DefaultChunkSize     = 64
	DefaultOverlap       = 1
	DefaultRefreshRadius = 1
)

// DefaultLayers are the layer names used when Config.Layers is not overridden.
var DefaultLayers = []string{"Decor", "Objects", "Ground"}

// Config describes the structure of a partition index.
type Config struct {
	// Layout fixes chunk size, grid origin and border overlap.
	Layout grid.Layout `json:"layout" yaml:"layout"`

	// Layers lists the layer names in ID order. Must be non-empty and unique.
	Layers []string `json:"layers" yaml:"layers"`

	// InitialChunks pre-creates a W x H block of chunks starting at (0,0).
	// The zero value creates none.
	InitialChunks grid.Size `json:"initial_chunks" yaml:"initial_chunks"`
}

// DefaultConfig returns a 64x64 layout with overlap 1, the three default
// layers, and a 4x4 block of initial chunks.
func DefaultConfig() Config {
	return Config{
		Layout: grid.Layout{
			ChunkSize: grid.Size{W: DefaultChunkSize, H: DefaultChunkSize},
			Overlap:   DefaultOverlap,
		},
		Layers:        append([]string(nil), DefaultLayers...),
		InitialChunks: grid.Size{W: 4, H: 4},
	}
}

// Validate checks the configuration without building an index.
func (c Config) Validate() error {
	if err := validateLayout(c.Layout); err != nil {
		return err
	}
	if len(c.Layers) == 0 {
		return &ConfigError{Field: "layers", Message: "at least one layer is required"}
	}
	if _, err := layer.NewRegistry(c.Layers...); err != nil {
		return &ConfigError{Field: "layers", Message: err.Error()}
	}
	if c.InitialChunks.W < 0 || c.InitialChunks.H < 0 {
		return &ConfigError{
			Field:   "initial_chunks",
			Message: fmt.Sprintf("%dx%d must be non-negative", c.InitialChunks.W, c.InitialChunks.H),
		}
	}
	return nil
}

func validateLayout(l grid.Layout) error {
	if !l.ChunkSize.Valid() {
		return &ConfigError{
			Field:   "layout.chunk_size",
			Message: fmt.Sprintf("%dx%d must be positive", l.ChunkSize.W, l.ChunkSize.H),
		}
	}
	if l.Overlap < 0 {
		return &ConfigError{
			Field:   "layout.overlap",
			Message: fmt.Sprintf("%d must be non-negative", l.Overlap),
		}
	}
	return nil
}

// Invalidator receives refresh requests produced by border writes.
// *refresh.Queue implements it.
type Invalidator interface {
	Enqueue(id layer.ID, cell grid.Cell)
}

// Option configures optional Index behavior.
type Option func(*Index)

// WithRefreshRadius sets how far from a written cell neighbors in other
// chunks are invalidated. Radius 1 is the Moore neighborhood.
func WithRefreshRadius(radius int) Option {
	return func(ix *Index) {
		ix.radius = radius
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		ix.logger = logger
	}
}

// WithInvalidator wires border-write notifications at construction time.
// See also SetInvalidator for wiring after the queue is built.
func WithInvalidator(inv Invalidator) Option {
	return func(ix *Index) {
		ix.inv = inv
	}
}
