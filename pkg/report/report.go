// Package report renders lint reports as styled text, JSON or
// golangci-lint compatible issues.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/runner"
	"github.com/gnana997/tokenlint/pkg/util"
)

// Format selects an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatGolangci Format = "golangci"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatGolangci}

// ParseFormat validates a format name; empty selects text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatGolangci:
		return FormatGolangci, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or golangci)", s)
}

// Options configures rendering.
type Options struct {
	Format Format

	// Root makes file paths relative to it when set.
	Root string

	// Sources supplies the offending source lines. Without it text output
	// omits code excerpts and golangci issues carry no SourceLines.
	Sources util.SourceCache

	// Quiet drops warnings.
	Quiet bool

	// EnabledRules lists the rule ids reported as linters in golangci
	// output; nil lists every built-in rule.
	EnabledRules []string
}

// Write renders rep to w.
func Write(w io.Writer, rep *runner.Report, opts Options) error {
	switch opts.Format {
	case "", FormatText:
		return NewTextWriter(w, opts).Write(rep)
	case FormatJSON:
		return writeJSON(w, filtered(rep, opts.Quiet))
	case FormatGolangci:
		return writeJSON(w, NewGolangciReport(filtered(rep, opts.Quiet), opts))
	}
	return fmt.Errorf("unknown output format %q", opts.Format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// displayPath returns path relative to root when possible.
func displayPath(path, root string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// filtered returns rep without warning diagnostics when quiet is set.
func filtered(rep *runner.Report, quiet bool) *runner.Report {
	if !quiet {
		return rep
	}
	out := *rep
	out.Results = make([]*lint.FileResult, 0, len(rep.Results))
	for _, res := range rep.Results {
		kept := *res
		kept.Diagnostics = make([]lint.Diagnostic, 0, len(res.Diagnostics))
		for _, d := range res.Diagnostics {
			if d.Severity != lint.SeverityWarning {
				kept.Diagnostics = append(kept.Diagnostics, d)
			}
		}
		out.Results = append(out.Results, &kept)
	}
	out.Stats.Warnings = 0
	return &out
}
