package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/chunkgrid/internal/compiler"
	"github.com/roach88/chunkgrid/internal/index"
	"github.com/roach88/chunkgrid/internal/layer"
	"github.com/roach88/chunkgrid/internal/rules"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Layers []string
	Radius int // refresh radius the sets must fit in
}

// Diagnostic is one problem found in a rule-set file.
type Diagnostic struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Field   string `json:"field"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.File != "" {
		fmt.Fprintf(&b, "%s:%d:%d: ", d.File, d.Line, d.Column)
	}
	if d.Code != "" {
		fmt.Fprintf(&b, "[%s] ", d.Code)
	}
	fmt.Fprintf(&b, "%s: %s", d.Field, d.Message)
	return b.String()
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Files  int          `json:"files"`
	Tiles  []string     `json:"tiles"`
	Errors []Diagnostic `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ %d tile(s) valid in %d file(s): %s", len(r.Tiles), r.Files, strings.Join(r.Tiles, ", "))
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <rules-path>",
		Short: "Validate CUE rule sets",
		Long: `Validate CUE rule-set files without running anything.

The path is a single .cue file or a directory holding one CUE package.
Every tile and mask is checked against the schema, compiled, and
registered against the given layers, so unknown layer names, tiles
declared twice and conditions beyond --refresh-radius are reported too.

Examples:
  chunkgrid validate ./rules
  chunkgrid validate ./rules/dungeon.cue --layers Ground,Objects
  chunkgrid validate ./rules --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Layers, "layers", index.DefaultLayers, "layer names rule sets may bind to")
	cmd.Flags().IntVar(&opts.Radius, "refresh-radius", index.DefaultRefreshRadius, "farthest neighbor a rule may read")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sets, files, diags, err := loadRuleSets(path, opts.Layers, opts.Radius, formatter)
	if err != nil {
		return err
	}

	result := ValidationResult{Valid: len(diags) == 0, Files: files, Tiles: tileNames(sets), Errors: diags}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return formatter.Success(result)
}

// loadRuleSets compiles path and registers every set against layers,
// rejecting conditions beyond radius.
// Rule-set problems come back as diagnostics; a missing or unloadable path
// comes back as an ExitError after the error has been written.
func loadRuleSets(path string, layers []string, radius int, f *OutputFormatter) ([]rules.RuleSet, int, []Diagnostic, error) {
	res, errs := compiler.LoadPath(path)
	if res == nil {
		err := errs[0]
		code := ErrCodeGeneric
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		_ = f.Error(code, err.Error(), nil)
		return nil, 0, nil, WrapExitError(ExitCommandError, "failed to load rules", err)
	}
	f.VerboseLog("Compiled %d rule set(s) from %d CUE file(s) in %s", len(res.Sets), res.Files, path)

	var diags []Diagnostic
	for _, err := range errs {
		diags = append(diags, diagnostics(err)...)
	}

	lreg, err := layer.NewRegistry(layers...)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, 0, nil, WrapExitError(ExitCommandError, "invalid --layers", err)
	}
	if radius <= 0 {
		_ = f.Error(ErrCodeGeneric, fmt.Sprintf("--refresh-radius must be positive, got %d", radius), nil)
		return nil, 0, nil, NewExitError(ExitCommandError, "invalid --refresh-radius")
	}
	reg := rules.NewRegistry(lreg, rules.WithMaxRadius(radius))
	var sets []rules.RuleSet
	for _, set := range res.Sets {
		f.VerboseLog("Registering tile: %s", set.Tile)
		if err := reg.Register(set); err != nil {
			for _, d := range diagnostics(err) {
				d.Field = "tile." + set.Tile + "." + d.Field
				diags = append(diags, d)
			}
			continue
		}
		sets = append(sets, set)
	}
	return sets, res.Files, diags, nil
}

// diagnostics flattens compiler and rule validation errors.
func diagnostics(err error) []Diagnostic {
	var (
		cerrs compiler.CompileErrors
		cerr  *compiler.CompileError
		verrs rules.ValidationErrors
	)
	switch {
	case errors.As(err, &cerrs):
		out := make([]Diagnostic, 0, len(cerrs))
		for _, e := range cerrs {
			out = append(out, compileDiagnostic(e))
		}
		return out
	case errors.As(err, &cerr):
		return []Diagnostic{compileDiagnostic(cerr)}
	case errors.As(err, &verrs):
		out := make([]Diagnostic, 0, len(verrs))
		for _, e := range verrs {
			out = append(out, Diagnostic{Field: e.Field, Code: e.Code, Message: e.Message})
		}
		return out
	}
	return []Diagnostic{{Field: "rules", Message: err.Error()}}
}

func compileDiagnostic(e *compiler.CompileError) Diagnostic {
	d := Diagnostic{Field: e.Field, Code: e.Code, Message: e.Message}
	if e.Pos.IsValid() {
		d.File = e.Pos.Filename()
		d.Line = e.Pos.Line()
		d.Column = e.Pos.Column()
	}
	return d
}

func tileNames(sets []rules.RuleSet) []string {
	names := make([]string, len(sets))
	for i, s := range sets {
		names[i] = s.Tile
	}
	return names
}

// outputValidationErrors writes the diagnostics and returns exit code 1.
func outputValidationErrors(f *OutputFormatter, result ValidationResult) error {
	msg := fmt.Sprintf("%d validation error(s)", len(result.Errors))
	if f.Format == "json" {
		if err := f.Error(ErrCodeInvalidRules, msg, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintf(f.Writer, "✗ %s\n", msg)
	for _, d := range result.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", d)
	}
	return NewExitError(ExitFailure, msg)
}
