package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"tiles": 2}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"tiles": float64(2)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := []Diagnostic{{Field: "tile.floor.rules[0]", Code: "E203", Message: "no conditions"}}
	require.NoError(t, formatter.Error(ErrCodeInvalidRules, "1 validation error(s)", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidRules, resp.Error.Code)
	assert.Equal(t, "1 validation error(s)", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(ValidationResult{Valid: true, Files: 2, Tiles: []string{"floor", "wall"}}))
	assert.Equal(t, "✓ 2 tile(s) valid in 2 file(s): floor, wall\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Error("E001", "rules not found", map[string]string{"path": "x"}))
	assert.Contains(t, buf.String(), "Error [E001]: rules not found")
	assert.NotContains(t, buf.String(), "Details:", "details need --verbose")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E001", "rules not found", map[string]string{"path": "x"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			diag := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: tt.verbose}

			formatter.VerboseLog("Registering tile: %s", "floor")

			assert.Empty(t, out.String(), "diagnostics never go to stdout")
			if tt.wantLog {
				assert.Equal(t, "Registering tile: floor\n", diag.String())
			} else {
				assert.Empty(t, diag.String())
			}
		})
	}
}

func TestExitError(t *testing.T) {
	base := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open journal", base)

	assert.Equal(t, "failed to open journal: disk full", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("run: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "1 scenario(s) failed")))
	assert.Equal(t, ExitFailure, GetExitCode(base), "plain errors map to exit code 1")
}
