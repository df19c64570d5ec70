package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/chunkgrid/internal/compiler"
	"github.com/roach88/chunkgrid/internal/engine"
	"github.com/roach88/chunkgrid/internal/evict"
	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/index"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/refresh"
	"github.com/roach88/chunkgrid/internal/rules"
	"github.com/roach88/chunkgrid/internal/store"
	"github.com/roach88/chunkgrid/internal/testutil"
	"github.com/roach88/chunkgrid/internal/tile"
)

// Default tick counts for tick and settle steps without a count.
const (
	DefaultTickCount   = 1
	DefaultSettleTicks = 1000
)

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	journal *store.Store
	runIDs  store.RunIDGenerator
	logger  *slog.Logger
}

// WithJournal records every render signal in st under a new run.
func WithJournal(st *store.Store) Option {
	return func(c *runConfig) {
		c.journal = st
	}
}

// WithRunID sets the journal run ID generator.
// Default: testutil.FixedRunID, so journals are reproducible.
func WithRunID(gen store.RunIDGenerator) Option {
	return func(c *runConfig) {
		c.runIDs = gen
	}
}

// WithLogger sets the logger passed to every component.
// Default: a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// runner holds the state of one scenario run.
type runner struct {
	scenario *Scenario
	result   *Result
	ix       *index.Index
	queue    *refresh.Queue
	eng      *engine.Engine
	ticks    *testutil.Sequence
	tick     int64
	journal  *store.Journal
}

// Run executes a scenario and returns the result.
//
// Setup problems (invalid config, rule files that do not compile, a journal
// that cannot be opened) are returned as errors. Rejected edits and failed
// assertions are recorded in the Result instead.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{
		runIDs: testutil.FixedRunID(""),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ixCfg := index.DefaultConfig()
	if scenario.Config != nil {
		ixCfg = *scenario.Config
	}
	ixOpts := []index.Option{index.WithLogger(cfg.logger)}
	if scenario.RefreshRadius > 0 {
		ixOpts = append(ixOpts, index.WithRefreshRadius(scenario.RefreshRadius))
	}
	ix, err := index.New(ixCfg, ixOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	reg := rules.NewRegistry(ix.Layers(), rules.WithMaxRadius(ix.RefreshRadius()))
	if err := loadRules(scenario, reg); err != nil {
		return nil, err
	}

	r := &runner{
		scenario: scenario,
		result:   NewResult(),
		ix:       ix,
		ticks:    testutil.NewSequence(),
	}

	ctx := context.Background()
	if cfg.journal != nil {
		r.journal, err = cfg.journal.BeginRun(ctx, scenario.Name, ix.Layout(), ix.Layers(),
			store.WithRunID(cfg.runIDs),
			store.WithJournalLogger(cfg.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start journal: %w", err)
		}
		r.result.RunID = r.journal.RunID()
	}

	r.queue = refresh.New(ix, reg, refresh.RendererFunc(r.onResolved), refresh.WithLogger(cfg.logger))
	ix.SetInvalidator(r.queue)

	engOpts := []engine.Option{
		engine.WithTickSource(r.ticks),
		engine.WithLogger(cfg.logger),
		engine.WithEviction(evict.New(ix, r.queue, evict.WithLogger(cfg.logger)), 0),
		engine.WithBeforeDrain(r.beforeDrain),
	}
	if scenario.Budget > 0 {
		engOpts = append(engOpts, engine.WithBudget(scenario.Budget))
	}
	if scenario.EditQuota > 0 {
		engOpts = append(engOpts, engine.WithEditQuota(scenario.EditQuota))
	}
	r.eng = engine.New(ix, r.queue, reg, engOpts...)

	for i := range scenario.Steps {
		if err := r.step(i, &scenario.Steps[i]); err != nil {
			return nil, err
		}
	}
	if n := r.eng.Pending(); n > 0 {
		r.result.AddError(fmt.Sprintf("%d edit(s) never applied: end the scenario with a tick or settle step", n))
	}

	actx := &AssertionContext{World: r.eng.World()}
	for _, msg := range EvaluateAssertions(r.result, scenario.Assertions, actx) {
		r.result.AddError(msg)
	}

	r.result.Ticks = r.ticks.Current()
	r.result.Chunks = ix.Len()
	r.result.Stats = r.queue.Stats()
	if r.journal != nil {
		if err := r.journal.Err(); err != nil {
			return r.result, fmt.Errorf("journal: %w", err)
		}
	}
	return r.result, nil
}

// loadRules registers the scenario's CUE rule files and inline definitions.
func loadRules(s *Scenario, reg *rules.Registry) error {
	for _, p := range s.Rules {
		res, errs := compiler.LoadPath(p)
		if len(errs) > 0 {
			return fmt.Errorf("failed to compile rules %s: %w", p, errors.Join(errs...))
		}
		for _, set := range res.Sets {
			if err := reg.Register(set); err != nil {
				return fmt.Errorf("failed to register tile %q from %s: %w", set.Tile, p, err)
			}
		}
	}
	for i, def := range s.Definitions {
		set, err := rules.Compile(def)
		if err != nil {
			return fmt.Errorf("definitions[%d]: %w", i, err)
		}
		if err := reg.Register(set); err != nil {
			return fmt.Errorf("definitions[%d]: %w", i, err)
		}
	}
	return nil
}

func (r *runner) beforeDrain(tick int64) {
	r.tick = tick
	if r.journal != nil {
		r.journal.SetTick(tick)
	}
}

func (r *runner) onResolved(id layer.ID, cell grid.Cell, out rules.Output) {
	r.result.AddSignal(r.tick, r.ix.Layers().Name(id), cell, out)
	if r.journal != nil {
		r.journal.OnResolved(id, cell, out)
	}
}

// step runs one scenario step. Only malformed tile values are returned as
// errors; validateScenario has already rejected them for loaded scenarios.
func (r *runner) step(i int, st *Step) error {
	switch st.Op {
	case OpSet:
		v, err := tile.Parse(st.Tile)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		r.submit(i, engine.SetTile(st.Layer, *st.Cell, v))
	case OpClear:
		r.submit(i, engine.ClearTile(st.Layer, *st.Cell))
	case OpFill:
		v, err := tile.Parse(st.Tile)
		if err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		r.submit(i, engine.Fill(st.Layer, *st.Region, v))
	case OpEnsureChunk:
		r.submit(i, engine.EnsureChunk(*st.Chunk))
	case OpRebuild:
		r.submit(i, engine.Rebuild(*st.Layout))
	case OpRefresh:
		r.submit(i, engine.Refresh(st.Layer, *st.Region))
	case OpEvict:
		r.submit(i, engine.Evict(st.Count))
	case OpTick:
		n := st.Count
		if n == 0 {
			n = DefaultTickCount
		}
		for j := 0; j < n; j++ {
			r.eng.Tick()
		}
	case OpSettle:
		n := st.Count
		if n == 0 {
			n = DefaultSettleTicks
		}
		r.eng.Settle(n)
		if left := r.queue.Len(); left > 0 {
			r.result.AddError(fmt.Sprintf("steps[%d]: %d refresh request(s) left after %d ticks", i, left, n))
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", i, st.Op)
	}
	return nil
}

// submit queues an edit whose failure is recorded against step i.
func (r *runner) submit(i int, edit engine.Edit) {
	apply := edit.Apply
	edit.Apply = func(w *engine.World) error {
		err := apply(w)
		if err != nil {
			r.result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, edit.Op, err))
		}
		return err
	}
	r.eng.Submit(edit)
}
