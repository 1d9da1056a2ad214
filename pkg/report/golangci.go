package report

import (
	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/runner"
)

// Issue is one diagnostic in golangci-lint's JSON shape, so editors and CI
// annotators that read golangci-lint output can consume tokenlint output.
type Issue struct {
	FromLinter  string       `json:"FromLinter"`
	Text        string       `json:"Text"`
	Severity    string       `json:"Severity"`
	SourceLines []string     `json:"SourceLines"`
	Pos         IssuePos     `json:"Pos"`
	LineRange   *LineRange   `json:"LineRange,omitempty"`
	Replacement *Replacement `json:"Replacement"`
}

// IssuePos is the 1-based start of an issue.
type IssuePos struct {
	Filename string `json:"Filename"`
	Offset   int    `json:"Offset"`
	Line     int    `json:"Line"`
	Column   int    `json:"Column"`
}

// LineRange is set for issues spanning several lines.
type LineRange struct {
	From int `json:"From"`
	To   int `json:"To"`
}

// Replacement is reserved for auto-fixes; tokenlint never sets it.
type Replacement struct {
	NewText      string `json:"NewText"`
	InlineLength int    `json:"InlineLength"`
}

// GolangciReport is the top-level golangci-lint JSON document.
type GolangciReport struct {
	Issues []Issue        `json:"Issues"`
	Report GolangciSuffix `json:"Report"`
}

// GolangciSuffix carries the run summary.
type GolangciSuffix struct {
	Linters []GolangciLinter `json:"Linters"`
	Error   string           `json:"Error,omitempty"`
}

// GolangciLinter names a linter that ran.
type GolangciLinter struct {
	Name    string `json:"Name"`
	Enabled bool   `json:"Enabled"`
}

// NewIssue converts a diagnostic.
func NewIssue(d lint.Diagnostic, opts Options) Issue {
	issue := Issue{
		FromLinter:  d.RuleID,
		Text:        d.Message,
		Severity:    string(d.Severity),
		SourceLines: []string{},
		Pos: IssuePos{
			Filename: displayPath(d.FilePath, opts.Root),
			Offset:   int(d.Pos.StartByte),
			Line:     d.Pos.Line,
			Column:   d.Pos.Column,
		},
	}
	if d.Pos.EndLine > d.Pos.Line {
		issue.LineRange = &LineRange{From: d.Pos.Line, To: d.Pos.EndLine}
	}
	if opts.Sources != nil {
		last := d.Pos.Line
		if d.Pos.EndLine > last {
			last = d.Pos.EndLine
		}
		for line := d.Pos.Line; line >= 1 && line <= last; line++ {
			text, err := opts.Sources.Line(d.FilePath, line)
			if err != nil {
				break
			}
			issue.SourceLines = append(issue.SourceLines, text)
		}
	}
	return issue
}

// NewGolangciReport converts a lint report.
func NewGolangciReport(rep *runner.Report, opts Options) GolangciReport {
	out := GolangciReport{Issues: []Issue{}}
	for _, d := range rep.Diagnostics() {
		out.Issues = append(out.Issues, NewIssue(d, opts))
	}
	enabled := opts.EnabledRules
	if enabled == nil {
		enabled = []string{lint.SemanticTokenRuleID, lint.TokenImportRuleID}
	}
	for _, id := range enabled {
		out.Report.Linters = append(out.Report.Linters, GolangciLinter{Name: id, Enabled: true})
	}
	if len(rep.Failed) > 0 {
		out.Report.Error = rep.Failed[0].FilePath + ": " + rep.Failed[0].Message
	}
	return out
}
