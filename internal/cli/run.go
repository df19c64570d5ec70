package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chunkgrid/internal/harness"
	"github.com/roach88/chunkgrid/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Budget  int    // overrides each scenario's refresh budget when > 0
	Journal string // SQLite path; empty disables journaling
	Golden  string // directory of <name>.golden files
	Update  bool   // regenerate golden files
	Filter  string // scenario name glob

	// RunIDs overrides the journal run ID generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Pass    bool     `json:"pass"`
	Ticks   int64    `json:"ticks"`
	Signals int      `json:"signals"`
	RunID   string   `json:"run_id,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// RunResult holds the overall result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario-file-or-dir>...",
		Short: "Run grid scenarios",
		Long: `Run YAML scenarios through the edit engine and check their assertions.

Each argument is a scenario file or a directory searched recursively for
.yaml and .yml files. With --journal every render signal is appended to a
SQLite database under a new run ID; read it back with "chunkgrid trace".
With --golden each trace is compared against <dir>/<name>.golden, and
--update rewrites those files instead.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unwritable journal, etc.)

Examples:
  chunkgrid run ./scenarios
  chunkgrid run ./scenarios --filter "wall_*" --budget 10
  chunkgrid run ./scenarios --journal ./renders.db
  chunkgrid run ./scenarios --golden ./golden --update`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Budget, "budget", 0, "refresh requests drained per tick (overrides scenarios)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite render journal")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "directory of golden trace files")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	if opts.Budget < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--budget must be non-negative, got %d", opts.Budget))
	}
	if opts.Update && opts.Golden == "" {
		return NewExitError(ExitCommandError, "--update requires --golden")
	}

	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	runOpts := []harness.Option{harness.WithLogger(logger)}
	if opts.Journal != "" {
		st, err := store.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Error("error closing journal", "error", cerr)
			}
		}()
		ids := opts.RunIDs
		if ids == nil {
			ids = store.UUIDv7Generator{}
		}
		runOpts = append(runOpts, harness.WithJournal(st), harness.WithRunID(ids))
	}

	result := RunResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	for _, f := range files {
		formatter.VerboseLog("Running %s", f)
		sr := runScenario(f, opts, runOpts)
		if formatter.Format != "json" {
			printScenarioResult(formatter, sr)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    ErrCodeScenarioFailed,
				Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
			}
		}
		if err := formatter.JSON(resp); err != nil {
			return err
		}
	} else if result.Total == 0 {
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
	} else {
		fmt.Fprintln(formatter.Writer)
		fmt.Fprintf(formatter.Writer, "Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file under it, sorted. filter matches the file name without extension.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	sort.Strings(files)
	return files, err
}

// runScenario loads, runs and checks one scenario file.
func runScenario(file string, opts *RunOptions, runOpts []harness.Option) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name
	if opts.Budget > 0 {
		scenario.Budget = opts.Budget
	}

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Pass = result.Pass
	sr.Ticks = result.Ticks
	sr.Signals = len(result.Trace)
	sr.RunID = result.RunID
	sr.Errors = result.Errors

	if opts.Golden != "" {
		if err := checkGolden(scenario.Name, result, opts); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
		}
	}
	return sr
}

// checkGolden compares (or with --update, rewrites) the scenario's golden
// trace.
func checkGolden(name string, result *harness.Result, opts *RunOptions) error {
	path := filepath.Join(opts.Golden, name+".golden")
	data, err := harness.MarshalTrace(name, result.Trace)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}

	if opts.Update {
		if err := os.MkdirAll(opts.Golden, 0755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		return nil
	}

	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no golden file: assertions only
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(want, data) {
		return fmt.Errorf("trace does not match %s (run with --update to regenerate)", path)
	}
	return nil
}

func printScenarioResult(f *OutputFormatter, sr ScenarioResult) {
	if sr.Pass {
		fmt.Fprintf(f.Writer, "✓ %s (%d ticks, %d signals)\n", sr.Name, sr.Ticks, sr.Signals)
		return
	}
	fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", e)
	}
}
