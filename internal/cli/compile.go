package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/chunkgrid/internal/index"
	"github.com/roach88/chunkgrid/internal/rules"
)

// ErrCodeWriteFailed is reported when --output cannot be written.
const ErrCodeWriteFailed = "E_WRITE_FAILED"

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Layers []string
	Radius int // refresh radius the sets must fit in
}

// CompilationResult holds the compiled rule sets as versioned definitions.
type CompilationResult struct {
	Definitions []rules.Definition `json:"definitions" yaml:"definitions"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-path>",
		Short: "Compile CUE rule sets to definitions",
		Long: `Compile CUE rule sets into versioned rule definitions.

Definitions are the plain form scenario files embed under "definitions:".
Mask tables are expanded into their sixteen connectivity rules. With
--output the result is written to a file: .yaml and .yml files get YAML,
anything else gets JSON.

Examples:
  chunkgrid compile ./rules
  chunkgrid compile ./rules -o rules.yaml
  chunkgrid compile ./rules --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringSliceVar(&opts.Layers, "layers", index.DefaultLayers, "layer names rule sets may bind to")
	cmd.Flags().IntVar(&opts.Radius, "refresh-radius", index.DefaultRefreshRadius, "farthest neighbor a rule may read")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sets, files, diags, err := loadRuleSets(path, opts.Layers, opts.Radius, formatter)
	if err != nil {
		return err
	}
	if len(diags) > 0 {
		return outputValidationErrors(formatter, ValidationResult{Files: files, Tiles: tileNames(sets), Errors: diags})
	}

	result := CompilationResult{Definitions: make([]rules.Definition, 0, len(sets))}
	for i := range sets {
		result.Definitions = append(result.Definitions, rules.ToDefinition(&sets[i]))
	}

	if opts.Output != "" {
		if err := writeDefinitions(result, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %d definition(s) to %s", len(result.Definitions), opts.Output)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "✓ Compiled %d tile(s) from %d file(s) to %s\n", len(result.Definitions), files, opts.Output)
		return nil
	}
	enc := yaml.NewEncoder(formatter.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

// writeDefinitions writes the result as YAML or JSON depending on the
// file extension.
func writeDefinitions(result CompilationResult, filename string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(result)
	default:
		data, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling definitions: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}
