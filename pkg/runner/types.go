// Package runner lints whole workspaces: it discovers source files, lints
// them concurrently through a worker pool, caches results by content hash
// and re-lints changed files in watch mode.
package runner

import (
	"time"

	"github.com/gnana997/tokenlint/pkg/lint"
)

// Linter lints one source file. *lint.Plugin implements it.
type Linter interface {
	LintSource(filePath string, source []byte) (*lint.FileResult, error)
}

// Options configures file discovery and concurrency.
type Options struct {
	// Include are doublestar patterns relative to the root. Empty includes
	// every supported source file.
	Include []string `yaml:"include"`

	// Exclude are doublestar patterns relative to the root. A matching
	// directory is skipped entirely.
	Exclude []string `yaml:"exclude"`

	// Workers is the number of lint goroutines; 0 selects
	// util.GetOptimalPoolSize.
	Workers int `yaml:"workers"`
}

// DefaultExclude skips dependency and build output directories.
var DefaultExclude = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/dist/**",
	"**/build/**",
	"**/.next/**",
	"**/coverage/**",
	"**/*.min.js",
	"**/*.d.ts",
}

// DefaultOptions returns options that lint every supported file outside
// DefaultExclude.
func DefaultOptions() Options {
	return Options{
		Exclude: append([]string(nil), DefaultExclude...),
	}
}

// FileError records a file that could not be linted.
type FileError struct {
	FilePath string `json:"file_path"`
	Error    error  `json:"-"`
	Message  string `json:"error"`
}

func newFileError(filePath string, err error) FileError {
	return FileError{FilePath: filePath, Error: err, Message: err.Error()}
}

// ProgressCallback is called after each file is linted.
type ProgressCallback func(done, total int, filePath string)

// Stats summarises one run.
type Stats struct {
	FilesDiscovered int           `json:"files_discovered"`
	FilesLinted     int           `json:"files_linted"`
	FilesSkipped    int           `json:"files_skipped"`
	FilesFailed     int           `json:"files_failed"`
	CacheHits       int           `json:"cache_hits"`
	Errors          int           `json:"errors"`
	Warnings        int           `json:"warnings"`
	WorkerCount     int           `json:"worker_count"`
	Duration        time.Duration `json:"duration_ns"`
}

// Report is the outcome of linting a set of files. Results are sorted by
// path so a report does not depend on worker scheduling.
type Report struct {
	Root    string             `json:"root,omitempty"`
	Results []*lint.FileResult `json:"results"`
	Failed  []FileError        `json:"failed,omitempty"`
	Stats   Stats              `json:"stats"`
}

// Diagnostics returns every diagnostic of the report in file order.
func (r *Report) Diagnostics() []lint.Diagnostic {
	var out []lint.Diagnostic
	for _, res := range r.Results {
		out = append(out, res.Diagnostics...)
	}
	return out
}

// HasErrors reports whether any diagnostic has error severity or any file
// failed.
func (r *Report) HasErrors() bool {
	return r.Stats.Errors > 0 || len(r.Failed) > 0
}
