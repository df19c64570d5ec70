package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/rules"
)

// RunIDGenerator produces journal run identifiers.
// Implemented by UUIDv7Generator (production) and testutil.FixedRunID (tests).
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Sequencer hands out strictly increasing sequence numbers.
type Sequencer interface {
	Next() int64
}

type counter struct{ n atomic.Int64 }

func (c *counter) Next() int64 { return c.n.Add(1) }

// RunOption configures a Journal.
type RunOption func(*Journal)

// WithRunID sets the run ID generator. Default: UUIDv7Generator.
func WithRunID(gen RunIDGenerator) RunOption {
	return func(j *Journal) {
		j.ids = gen
	}
}

// WithSequencer sets the row sequence source. Default: a counter from 1.
func WithSequencer(seq Sequencer) RunOption {
	return func(j *Journal) {
		j.seq = seq
	}
}

// WithJournalLogger sets the structured logger. Default: slog.Default().
func WithJournalLogger(logger *slog.Logger) RunOption {
	return func(j *Journal) {
		j.logger = logger
	}
}

// Journal appends render signals of one run. It implements refresh.Renderer.
//
// OnResolved cannot return an error, so the first write failure is kept and
// reported by Err; later signals are still attempted.
type Journal struct {
	store  *Store
	ctx    context.Context
	runID  string
	layers *layer.Registry
	ids    RunIDGenerator
	seq    Sequencer
	tick   int64
	rows   int
	err    error
	logger *slog.Logger
}

// BeginRun registers a new run and returns its journal.
func (s *Store) BeginRun(ctx context.Context, name string, layout grid.Layout, layers *layer.Registry, opts ...RunOption) (*Journal, error) {
	j := &Journal{
		store:  s,
		ctx:    ctx,
		layers: layers,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.seq == nil {
		j.seq = &counter{}
	}
	j.runID = j.ids.Generate()

	layoutJSON, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("begin run: marshal layout: %w", err)
	}
	layersJSON, err := json.Marshal(layers.Names())
	if err != nil {
		return nil, fmt.Errorf("begin run: marshal layers: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name, layout, layers, started_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, j.runID, name, string(layoutJSON), string(layersJSON), 0)
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	j.logger.Info("journal run started", "run_id", j.runID, "name", name)
	return j, nil
}

// RunID returns the run identifier.
func (j *Journal) RunID() string {
	return j.runID
}

// SetTick stamps subsequent rows with tick. Pass it to
// engine.WithBeforeDrain.
func (j *Journal) SetTick(tick int64) {
	j.tick = tick
}

// Rows returns the number of rows written.
func (j *Journal) Rows() int {
	return j.rows
}

// Err returns the first write error, if any.
func (j *Journal) Err() error {
	return j.err
}

// OnResolved appends one render row.
func (j *Journal) OnResolved(id layer.ID, cell grid.Cell, out rules.Output) {
	err := j.write(id, cell, out)
	if err == nil {
		j.rows++
		return
	}
	if j.err == nil {
		j.err = err
	}
	j.logger.Warn("journal write failed", "run_id", j.runID, "cell", cell.String(), "error", err)
}

func (j *Journal) write(id layer.ID, cell grid.Cell, out rules.Output) error {
	_, err := j.store.db.ExecContext(j.ctx, `
		INSERT INTO renders (run_id, seq, tick, layer, x, y, sprite, variant, orientation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		j.runID,
		j.seq.Next(),
		j.tick,
		j.layers.Name(id),
		cell.X,
		cell.Y,
		out.Sprite,
		out.Variant,
		out.Orientation.String(),
	)
	if err != nil {
		return fmt.Errorf("write render: %w", err)
	}
	return nil
}
