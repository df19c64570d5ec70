package harness

import (
	"fmt"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/refresh"
	"github.com/roach88/chunkgrid/internal/rules"
)

// TraceEvent is one render signal.
type TraceEvent struct {
	Tick        int64     `json:"tick"`
	Layer       string    `json:"layer"`
	Cell        grid.Cell `json:"cell"`
	Sprite      string    `json:"sprite"`
	Variant     int       `json:"variant,omitempty"`
	Orientation string    `json:"orientation,omitempty"`
}

// Output returns the rules.Output the event carries.
func (e TraceEvent) Output() rules.Output {
	out := rules.Output{Sprite: e.Sprite, Variant: e.Variant}
	for o := rules.Identity; o <= rules.FlipXY; o++ {
		if o.String() == e.Orientation {
			out.Orientation = o
		}
	}
	return out
}

func (e TraceEvent) String() string {
	sprite := e.Sprite
	if sprite == "" {
		sprite = "-"
	}
	s := fmt.Sprintf("t%d %s %s %s", e.Tick, e.Layer, e.Cell, sprite)
	if e.Variant != 0 {
		s += fmt.Sprintf("#%d", e.Variant)
	}
	if e.Orientation != "" {
		s += "@" + e.Orientation
	}
	return s
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when no assertion failed and no edit was rejected.
	Pass bool `json:"pass"`

	// Trace holds every render signal in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds assertion failures and rejected edits.
	Errors []string `json:"errors,omitempty"`

	// Ticks is the number of engine ticks run.
	Ticks int64 `json:"ticks"`

	// Chunks is the number of chunks in the index after the last step.
	Chunks int `json:"chunks"`

	// Stats are the refresh queue counters after the last step.
	Stats refresh.Stats `json:"stats"`

	// RunID identifies the journal run, when a journal was attached.
	RunID string `json:"run_id,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddSignal appends a render signal to the trace.
func (r *Result) AddSignal(tick int64, layerName string, cell grid.Cell, out rules.Output) {
	ev := TraceEvent{
		Tick:    tick,
		Layer:   layerName,
		Cell:    cell,
		Sprite:  out.Sprite,
		Variant: out.Variant,
	}
	if out.Orientation != rules.Identity {
		ev.Orientation = out.Orientation.String()
	}
	r.Trace = append(r.Trace, ev)
}
