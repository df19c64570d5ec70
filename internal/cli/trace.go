package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/chunkgrid/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal string
	RunID   string
	Final   bool  // latest output per cell instead of every signal
	Tick    int64 // only this tick, when > 0
}

// TraceResult holds the rows of one run.
type TraceResult struct {
	Run     store.Run      `json:"run"`
	Mode    string         `json:"mode"` // "signals", "final" or "tick"
	Renders []store.Render `json:"renders"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read a render journal",
		Long: `Read render signals recorded by "chunkgrid run --journal".

Without --run, lists the journal's runs. With --run, prints every render
signal of that run in order; --final prints only the latest output of each
cell, and --tick only the signals of one tick.

Examples:
  chunkgrid trace --journal ./renders.db
  chunkgrid trace --journal ./renders.db --run 0192...
  chunkgrid trace --journal ./renders.db --run 0192... --final --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite render journal (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to show")
	cmd.Flags().BoolVar(&opts.Final, "final", false, "show the latest output per cell")
	cmd.Flags().Int64Var(&opts.Tick, "tick", 0, "show only the signals of one tick")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Final && opts.Tick > 0 {
		return NewExitError(ExitCommandError, "--final and --tick are mutually exclusive")
	}

	if _, err := os.Stat(opts.Journal); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(opts.Journal)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.RunID == "" {
		if formatter.Format == "json" {
			return formatter.Success(runs)
		}
		return outputRunsText(formatter.Writer, runs)
	}

	var run *store.Run
	for i := range runs {
		if runs[i].ID == opts.RunID {
			run = &runs[i]
			break
		}
	}
	if run == nil {
		msg := fmt.Sprintf("run not found: %s", opts.RunID)
		_ = formatter.Error(ErrCodeRunNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	result := TraceResult{Run: *run, Mode: "signals"}
	switch {
	case opts.Final:
		result.Mode = "final"
		result.Renders, err = st.ReadFinal(ctx, run.ID)
	case opts.Tick > 0:
		result.Mode = "tick"
		result.Renders, err = st.ReadTick(ctx, run.ID, opts.Tick)
	default:
		result.Renders, err = st.ReadRenders(ctx, run.ID)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read renders", err)
	}

	if formatter.Format == "json" {
		return formatter.JSON(CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

func outputRunsText(w io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-24s %dx%d  %d render(s)\n",
			r.ID, r.Name, r.Layout.ChunkSize.W, r.Layout.ChunkSize.H, r.Rows)
	}
	return nil
}

func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Run: %s (%s)\n", result.Run.ID, result.Run.Name)
	if verbose {
		l := result.Run.Layout
		fmt.Fprintf(w, "Layout: origin %s, chunk %dx%d, overlap %d\n", l.Origin, l.ChunkSize.W, l.ChunkSize.H, l.Overlap)
		fmt.Fprintf(w, "Layers: %v\n", result.Run.Layers)
	}
	fmt.Fprintln(w)

	if len(result.Renders) == 0 {
		fmt.Fprintln(w, "  (no renders)")
		return nil
	}
	for _, r := range result.Renders {
		fmt.Fprintf(w, "  [%d] t%d %s %s %s\n", r.Seq, r.Tick, r.Layer, r.Cell, formatSprite(r))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d render(s)\n", len(result.Renders))
	return nil
}

// formatSprite renders "-" for an empty sprite and appends a non-zero
// variant and a non-identity orientation.
func formatSprite(r store.Render) string {
	s := r.Sprite
	if s == "" {
		s = "-"
	}
	if r.Variant != 0 {
		s += fmt.Sprintf("#%d", r.Variant)
	}
	if r.Orientation != "" && r.Orientation != "identity" {
		s += "@" + r.Orientation
	}
	return s
}
