package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/chunkgrid/internal/engine"
	"github.com/roach88/chunkgrid/internal/grid"
	"github.com/roach88/chunkgrid/internal/tile"
)

// traceTail is how many trailing trace events an AssertionError prints.
const traceTail = 10

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		start := max(0, len(e.Trace)-traceTail)
		fmt.Fprintf(&buf, "\nTrace (last %d of %d):\n", len(e.Trace)-start, len(e.Trace))
		for i := start; i < len(e.Trace); i++ {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, e.Trace[i])
		}
	}
	return buf.String()
}

// AssertionContext gives assertions access to the final engine state.
type AssertionContext struct {
	World engine.World
}

func assertTile(w engine.World, a Assertion) error {
	id, err := w.Index.Layer(a.Layer)
	if err != nil {
		return err
	}
	want, err := tile.Parse(a.Tile)
	if err != nil {
		return err
	}
	got := w.Index.GetTile(id, *a.Cell)
	if got != want {
		return &AssertionError{
			Type:     AssertTile,
			Expected: fmt.Sprintf("%s %s holds %s", a.Layer, a.Cell, want),
			Actual:   got.String(),
		}
	}
	return nil
}

// assertRendered checks the last output the queue signalled for a cell.
// It reads the queue's render cache rather than the trace so that a cell
// signalled before an eviction is reported as never rendered.
func assertRendered(w engine.World, trace []TraceEvent, a Assertion) error {
	id, err := w.Index.Layer(a.Layer)
	if err != nil {
		return err
	}
	expected := fmt.Sprintf("%s %s rendered as %q", a.Layer, a.Cell, a.Sprite)
	out, ok := w.Queue.Rendered(id, *a.Cell)
	if !ok {
		return &AssertionError{Type: AssertRendered, Expected: expected, Actual: "never rendered", Trace: trace}
	}

	mismatch := out.Sprite != a.Sprite
	if a.Variant != nil && out.Variant != *a.Variant {
		mismatch = true
	}
	if a.Orientation != "" && out.Orientation.String() != a.Orientation {
		mismatch = true
	}
	if mismatch {
		return &AssertionError{
			Type:     AssertRendered,
			Expected: expected,
			Actual:   fmt.Sprintf("sprite %q variant %d orientation %s", out.Sprite, out.Variant, out.Orientation),
			Trace:    trace,
		}
	}
	return nil
}

func assertPending(w engine.World, a Assertion) error {
	id, err := w.Index.Layer(a.Layer)
	if err != nil {
		return err
	}
	want := a.Pending == nil || *a.Pending
	if got := w.Queue.Pending(id, *a.Cell); got != want {
		return &AssertionError{
			Type:     AssertPending,
			Expected: fmt.Sprintf("%s %s pending=%t", a.Layer, a.Cell, want),
			Actual:   fmt.Sprintf("pending=%t (queue length %d)", got, w.Queue.Len()),
		}
	}
	return nil
}

func assertQueueLen(w engine.World, a Assertion) error {
	if got := w.Queue.Len(); got != *a.Count {
		return &AssertionError{
			Type:     AssertQueueLen,
			Expected: fmt.Sprintf("%d queued requests", *a.Count),
			Actual:   fmt.Sprintf("%d queued requests", got),
		}
	}
	return nil
}

func assertChunks(w engine.World, a Assertion) error {
	want := slices.Clone(a.Chunks)
	slices.SortFunc(want, compareCoords)
	got := w.Index.Coords()
	if !slices.Equal(want, got) {
		return &AssertionError{
			Type:     AssertChunks,
			Expected: formatCoords(want),
			Actual:   formatCoords(got),
		}
	}
	return nil
}

func compareCoords(a, b grid.ChunkCoord) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

func formatCoords(coords []grid.ChunkCoord) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// assertSignalCount counts trace events, for one cell when Cell is set.
func assertSignalCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.Cell != nil && (ev.Layer != a.Layer || ev.Cell != *a.Cell) {
			continue
		}
		count++
	}
	if count != *a.Count {
		target := "trace"
		if a.Cell != nil {
			target = fmt.Sprintf("%s %s", a.Layer, a.Cell)
		}
		return &AssertionError{
			Type:     AssertSignalCount,
			Expected: fmt.Sprintf("%d signals for %s", *a.Count, target),
			Actual:   fmt.Sprintf("%d signals", count),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// Grid assertions need actx; trace assertions only read result.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSignalCount:
			err = assertSignalCount(result.Trace, assertion)
		case AssertTile, AssertRendered, AssertPending, AssertQueueLen, AssertChunks:
			if actx == nil || actx.World.Index == nil {
				err = fmt.Errorf("assertion[%d]: %s requires the engine world", i, assertion.Type)
				break
			}
			switch assertion.Type {
			case AssertTile:
				err = assertTile(actx.World, assertion)
			case AssertRendered:
				err = assertRendered(actx.World, result.Trace, assertion)
			case AssertPending:
				err = assertPending(actx.World, assertion)
			case AssertQueueLen:
				err = assertQueueLen(actx.World, assertion)
			case AssertChunks:
				err = assertChunks(actx.World, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
