package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/chunkgrid/internal/evict"
	"github.com/roach88/chunkgrid/internal/index"
	"github.com/roach88/chunkgrid/internal/refresh"
	"github.com/roach88/chunkgrid/internal/rules"
)

// Defaults for engine options.
const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultBudget       = refresh.DefaultBudget
)

// World is the state an Edit may touch. Edits run on the engine goroutine.
type World struct {
	Index *index.Index
	Queue *refresh.Queue
	Rules *rules.Registry

	// LRU is nil unless eviction is enabled.
	LRU *evict.LRU
}

// TickResult summarises one tick.
type TickResult struct {
	Tick      int64 `json:"tick"`
	Edits     int   `json:"edits"`
	Failed    int   `json:"failed"`
	Drained   int   `json:"drained"`
	Remaining int   `json:"remaining"`
	Evicted   int   `json:"evicted"`
}

// Engine is the single-writer edit loop.
//
// Thread-safety model:
//   - Submit(), Do(), Stop(): safe from any goroutine
//   - Run(), Tick(): must be called from exactly one goroutine, never both
type Engine struct {
	world    World
	queue    *editQueue
	ticks    TickSource
	budget   int
	interval time.Duration
	maxLive  int
	quota    *Quota

	beforeDrain func(tick int64)
	afterTick   func(TickResult)
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBudget sets the refresh requests drained per tick.
// Default: 100 (refresh.DefaultBudget).
func WithBudget(n int) Option {
	return func(e *Engine) {
		e.budget = n
	}
}

// WithTickInterval sets the Run loop's tick period.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithTickSource replaces the logical tick clock.
func WithTickSource(ts TickSource) Option {
	return func(e *Engine) {
		e.ticks = ts
	}
}

// WithEviction evicts least recently used chunks at the end of every tick
// while more than maxChunks are live.
func WithEviction(lru *evict.LRU, maxChunks int) Option {
	return func(e *Engine) {
		e.world.LRU = lru
		e.maxLive = maxChunks
	}
}

// WithEditQuota limits the edits applied per tick. Edits over the limit
// stay queued for later ticks. Default: unlimited.
func WithEditQuota(n int) Option {
	return func(e *Engine) {
		e.quota = NewQuota(n)
	}
}

// WithBeforeDrain is called with the tick number before each drain.
func WithBeforeDrain(fn func(tick int64)) Option {
	return func(e *Engine) {
		e.beforeDrain = fn
	}
}

// WithAfterTick is called with every tick's result.
func WithAfterTick(fn func(TickResult)) Option {
	return func(e *Engine) {
		e.afterTick = fn
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine over an index and its refresh queue.
func New(ix *index.Index, q *refresh.Queue, reg *rules.Registry, opts ...Option) *Engine {
	e := &Engine{
		world:    World{Index: ix, Queue: q, Rules: reg},
		queue:    newEditQueue(),
		ticks:    NewClock(),
		budget:   DefaultBudget,
		interval: DefaultTickInterval,
		quota:    NewQuota(0),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if reg != nil && reg.MaxRadius() > ix.RefreshRadius() {
		e.logger.Warn("rule sets read beyond the refresh radius; build the registry with rules.WithMaxRadius",
			"rule_radius", reg.MaxRadius(),
			"refresh_radius", ix.RefreshRadius(),
		)
	}
	return e
}

// Submit queues an edit. Returns false after Stop.
func (e *Engine) Submit(edit Edit) bool {
	return e.queue.Enqueue(submission{edit: edit})
}

// Do queues an edit and waits until it has been applied.
// Returns the edit's *EditError, ErrStopped, or the context error.
func (e *Engine) Do(ctx context.Context, edit Edit) error {
	done := make(chan error, 1)
	if !e.queue.Enqueue(submission{edit: edit, done: done}) {
		return ErrStopped
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of submitted edits not yet applied.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// World exposes the engine's state. Only touch it from the engine goroutine
// or when the engine is not running.
func (e *Engine) World() World {
	return e.world
}

// Run applies edits as they arrive and ticks every interval.
// Blocks until ctx is cancelled or Stop is called.
//
// On Stop, remaining edits are applied and the refresh queue is drained
// completely before Run returns nil. On cancellation, edits still queued are
// discarded and their Do callers get ErrStopped.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "budget", e.budget, "interval", e.interval.String())

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.queue.Close()
			dropped := e.abandon()
			e.logger.Info("engine stopping: context cancelled", "dropped", dropped)
			return ctx.Err()

		case <-ticker.C:
			e.Tick()

		case _, ok := <-e.queue.Wait():
			if ok {
				e.applyPending()
				continue
			}
			e.applyAll()
			drained := e.world.Queue.DrainAll()
			e.logger.Info("engine stopping: queue closed", "drained", drained)
			return nil
		}
	}
}

// Stop closes the submission queue, which makes Run return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Tick applies pending edits, drains up to the budget of refresh requests
// and, if enabled, evicts chunks over the limit.
func (e *Engine) Tick() TickResult {
	res := TickResult{}
	res.Edits, res.Failed = e.applyPending()
	res.Tick = e.ticks.Next()
	if deferred := e.queue.Len(); deferred > 0 && e.quota.Remaining() == 0 {
		e.logger.Debug("edits deferred", "error", &QuotaExceededError{
			Tick:     res.Tick,
			Limit:    e.quota.Max(),
			Deferred: deferred,
		})
	}

	if e.beforeDrain != nil {
		e.beforeDrain(res.Tick)
	}
	res.Drained = e.world.Queue.Drain(e.budget)
	res.Remaining = e.world.Queue.Len()

	if e.world.LRU != nil && e.maxLive > 0 {
		res.Evicted = len(e.world.LRU.Evict(e.maxLive))
	}

	if res.Edits > 0 || res.Drained > 0 || res.Evicted > 0 {
		e.logger.Debug("tick",
			"tick", res.Tick,
			"edits", res.Edits,
			"failed", res.Failed,
			"drained", res.Drained,
			"remaining", res.Remaining,
			"evicted", res.Evicted,
		)
	}
	e.quota.Reset()
	if e.afterTick != nil {
		e.afterTick(res)
	}
	return res
}

// Settle ticks until the refresh queue is empty and no edits are pending,
// or maxTicks ticks have run. It returns the results of the ticks it ran.
func (e *Engine) Settle(maxTicks int) []TickResult {
	var out []TickResult
	for i := 0; i < maxTicks; i++ {
		out = append(out, e.Tick())
		if e.world.Queue.Len() == 0 && e.queue.Len() == 0 {
			break
		}
	}
	return out
}

// applyPending applies queued edits in FIFO order while the tick's quota
// lasts. Failures are logged and reported to Do callers; later edits still
// run.
func (e *Engine) applyPending() (applied, failed int) {
	return e.applyBatch(e.queue.Take(e.quota.Remaining()))
}

// applyAll applies every queued edit regardless of quota.
func (e *Engine) applyAll() (applied, failed int) {
	return e.applyBatch(e.queue.TakeAll())
}

// abandon discards every queued edit without applying it and answers
// waiting Do callers with ErrStopped.
func (e *Engine) abandon() int {
	batch := e.queue.TakeAll()
	for _, s := range batch {
		if s.done != nil {
			s.done <- ErrStopped
		}
	}
	return len(batch)
}

func (e *Engine) applyBatch(batch []submission) (applied, failed int) {
	for _, s := range batch {
		e.quota.Allow()
		err := e.apply(s.edit)
		if err != nil {
			failed++
			e.logger.Warn("edit failed",
				"op", s.edit.Op,
				"detail", s.edit.Detail,
				"error", err,
			)
		}
		if s.done != nil {
			s.done <- err
		}
		applied++
	}
	return applied, failed
}

func (e *Engine) apply(edit Edit) error {
	if edit.Apply == nil {
		return &EditError{Op: edit.Op, Detail: edit.Detail, Err: errNoApply}
	}
	if err := edit.Apply(&e.world); err != nil {
		return &EditError{Op: edit.Op, Detail: edit.Detail, Err: err}
	}
	return nil
}
