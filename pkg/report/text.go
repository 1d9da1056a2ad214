package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/runner"
)

// TextWriter renders diagnostics grouped by file, one line each, followed
// by the offending source line and a caret marker when sources are
// available. Colours adapt to the output: plain text when w is not a
// terminal or NO_COLOR is set.
type TextWriter struct {
	w    io.Writer
	opts Options

	file     lipgloss.Style
	position lipgloss.Style
	errorSev lipgloss.Style
	warnSev  lipgloss.Style
	rule     lipgloss.Style
	gutter   lipgloss.Style
	caret    lipgloss.Style
	summary  lipgloss.Style
	ok       lipgloss.Style
}

// NewTextWriter creates a text writer for w.
func NewTextWriter(w io.Writer, opts Options) *TextWriter {
	r := lipgloss.NewRenderer(w)
	return &TextWriter{
		w:        w,
		opts:     opts,
		file:     r.NewStyle().Bold(true).Underline(true),
		position: r.NewStyle().Faint(true),
		errorSev: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}).Bold(true),
		warnSev:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}),
		rule:     r.NewStyle().Faint(true),
		gutter:   r.NewStyle().Faint(true),
		caret:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}),
		summary:  r.NewStyle().Bold(true),
		ok:       r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}),
	}
}

// Write renders rep.
func (tw *TextWriter) Write(rep *runner.Report) error {
	rep = filtered(rep, tw.opts.Quiet)
	var b strings.Builder

	for _, res := range rep.Results {
		if len(res.Diagnostics) == 0 {
			continue
		}
		b.WriteString(tw.file.Render(displayPath(res.FilePath, tw.opts.Root)))
		b.WriteString("\n")
		for _, d := range res.Diagnostics {
			tw.writeDiagnostic(&b, d)
		}
		b.WriteString("\n")
	}

	for _, f := range rep.Failed {
		fmt.Fprintf(&b, "%s %s: %s\n", tw.errorSev.Render("failed"), displayPath(f.FilePath, tw.opts.Root), f.Message)
	}
	if len(rep.Failed) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(tw.summaryLine(rep))
	b.WriteString("\n")

	_, err := io.WriteString(tw.w, b.String())
	return err
}

func (tw *TextWriter) writeDiagnostic(b *strings.Builder, d lint.Diagnostic) {
	sev := tw.warnSev.Render("warning")
	if d.Severity == lint.SeverityError {
		sev = tw.errorSev.Render("error  ")
	}
	pos := fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column)
	fmt.Fprintf(b, "  %s  %s  %s  %s\n",
		tw.position.Render(fmt.Sprintf("%-7s", pos)), sev, d.Message, tw.rule.Render(d.RuleID))

	line, ok := tw.sourceLine(d)
	if !ok {
		return
	}
	bar := tw.gutter.Render("│")
	fmt.Fprintf(b, "           %s %s\n", bar, line)
	fmt.Fprintf(b, "           %s %s%s\n", bar, caretPadding(line, d.Pos.Column), tw.caret.Render(strings.Repeat("^", caretWidth(line, d))))
}

func (tw *TextWriter) sourceLine(d lint.Diagnostic) (string, bool) {
	if tw.opts.Sources == nil || d.Pos.Line < 1 {
		return "", false
	}
	line, err := tw.opts.Sources.Line(d.FilePath, d.Pos.Line)
	if err != nil {
		return "", false
	}
	return line, true
}

// caretPadding keeps tabs so the caret lines up under the column.
func caretPadding(line string, column int) string {
	var b strings.Builder
	for i := 0; i < column-1 && i < len(line); i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func caretWidth(line string, d lint.Diagnostic) int {
	width := 1
	if d.Pos.EndLine == d.Pos.Line && d.Pos.EndColumn > d.Pos.Column {
		width = d.Pos.EndColumn - d.Pos.Column
	}
	if avail := len(line) - (d.Pos.Column - 1); width > avail && avail > 0 {
		width = avail
	}
	return width
}

func (tw *TextWriter) summaryLine(rep *runner.Report) string {
	problems := rep.Stats.Errors + rep.Stats.Warnings
	files := rep.Stats.FilesLinted + rep.Stats.FilesSkipped
	if problems == 0 && len(rep.Failed) == 0 {
		return tw.ok.Render(fmt.Sprintf("✔ no problems in %s", plural(files, "file")))
	}
	text := fmt.Sprintf("✖ %s (%s, %s) in %s",
		plural(problems, "problem"), plural(rep.Stats.Errors, "error"), plural(rep.Stats.Warnings, "warning"), plural(files, "file"))
	if len(rep.Failed) > 0 {
		text += fmt.Sprintf(", %s could not be linted", plural(len(rep.Failed), "file"))
	}
	return tw.summary.Render(text)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
