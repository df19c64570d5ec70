package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/rules"
)

// Signal is one render callback.
type Signal struct {
	Layer  layer.ID
	Cell   grid.Cell
	Output rules.Output
}

func (s Signal) String() string {
	out := s.Output.Sprite
	if out == "" {
		out = "-"
	}
	if s.Output.Variant != 0 {
		out += fmt.Sprintf("#%d", s.Output.Variant)
	}
	if s.Output.Orientation != rules.Identity {
		out += "@" + s.Output.Orientation.String()
	}
	return fmt.Sprintf("L%d %s %s", s.Layer, s.Cell, out)
}

// Recorder is a refresh.Renderer that keeps every signal in order.
// Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	signals []Signal
}

// OnResolved records the signal.
func (r *Recorder) OnResolved(id layer.ID, cell grid.Cell, out rules.Output) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, Signal{Layer: id, Cell: cell, Output: out})
}

// Signals returns a copy of the recorded signals.
func (r *Recorder) Signals() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.signals...)
}

// Cells returns the cells of the recorded signals in order.
func (r *Recorder) Cells() []grid.Cell {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]grid.Cell, len(r.signals))
	for i, s := range r.signals {
		out[i] = s.Cell
	}
	return out
}

// Last returns the most recent signal for id and cell.
func (r *Recorder) Last(id layer.ID, cell grid.Cell) (rules.Output, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.signals) - 1; i >= 0; i-- {
		if s := r.signals[i]; s.Layer == id && s.Cell == cell {
			return s.Output, true
		}
	}
	return rules.Output{}, false
}

// Len returns the number of recorded signals.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.signals)
}

// Reset discards recorded signals.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = nil
}

// String renders one signal per line.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var b strings.Builder
	for _, s := range r.signals {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}
