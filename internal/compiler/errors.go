package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/chunkgrid/internal/rules"
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	// Code is the rules validation code, empty for CUE-level errors.
	Code string
	Pos  token.Pos
}

func (e *CompileError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, msg)
	}
	return fmt.Sprintf("%s: %s", e.Field, msg)
}

// CompileErrors collects every error found in one tile or mask.
type CompileErrors []*CompileError

func (es CompileErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// formatCUEError wraps a CUE error in a *CompileError positioned in the
// user's source. Disjunction failures often carry no position on the first
// error, so every error is searched, positions inside the embedded schema
// are skipped, and v's own position is the last resort.
func formatCUEError(err error, v cue.Value) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error(), Pos: v.Pos()}
	}

	var fallback token.Pos
	for _, e := range errs {
		for _, pos := range errors.Positions(e) {
			if !pos.IsValid() {
				continue
			}
			if pos.Filename() != schemaFile {
				return &CompileError{Field: "cue", Message: errs[0].Error(), Pos: pos}
			}
			if !fallback.IsValid() {
				fallback = pos
			}
		}
	}
	pos := v.Pos()
	if !pos.IsValid() {
		pos = fallback
	}
	return &CompileError{Field: "cue", Message: errs[0].Error(), Pos: pos}
}

// fromValidation maps rule validation errors onto CUE source positions.
// Each error's field path is resolved under v, falling back to the nearest
// existing parent.
func fromValidation(v cue.Value, prefix string, verrs rules.ValidationErrors) CompileErrors {
	out := make(CompileErrors, 0, len(verrs))
	for _, ve := range verrs {
		out = append(out, &CompileError{
			Field:   prefix + "." + ve.Field,
			Message: ve.Message,
			Code:    ve.Code,
			Pos:     fieldPos(v, ve.Field),
		})
	}
	return out
}

func fieldPos(v cue.Value, field string) token.Pos {
	for field != "" {
		if fv := v.LookupPath(cue.ParsePath(field)); fv.Exists() {
			return fv.Pos()
		}
		i := strings.LastIndexAny(field, ".[")
		if i < 0 {
			break
		}
		field = field[:i]
	}
	return v.Pos()
}
