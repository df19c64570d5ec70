package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Load error codes, shared with the CLI's error output.
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeNoFiles    = "NO_FILES"
	ErrCodeLoadFailed = "LOAD_FAILED"
)

// LoadError represents a failure to find or load rule-set files.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CompileBytes compiles one CUE document. filename is used in positions.
func CompileBytes(src []byte, filename string) (*Result, []error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	res, errs := CompileValue(v)
	res.Files = 1
	return res, errs
}

// LoadPath compiles a single .cue file or every .cue file in a directory
// (one CUE package).
func LoadPath(path string) (*Result, []error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules not found: %s", path)}}
	}
	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}}
		}
		return CompileBytes(src, path)
	}

	files, err := FindCUEFiles(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("scanning %s: %v", path, err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: path})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	res, errs := CompileValue(ctx.BuildInstance(inst))
	res.Files = len(files)
	return res, errs
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".cue") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
