package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/tokens"
)

const maxWidth = 80

// rulesOutput is the JSON form of `tokenlint rules --json`.
type rulesOutput struct {
	Rules      []ruleStatus   `json:"rules"`
	Categories []*tokens.Rule `json:"categories"`
}

type ruleStatus struct {
	lint.RuleMeta
	Severity lint.Severity `json:"severity"`
}

func runRules(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rules", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	asJSON := fs.Bool("json", false, "print JSON")
	category := fs.String("category", "", "show one token category only")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fail(stderr, err)
	}
	s, err := newSession(cwd, common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer s.Close()

	out := rulesOutput{Categories: s.plugin.Table().Rules()}
	for _, meta := range s.plugin.Rules() {
		out.Rules = append(out.Rules, ruleStatus{RuleMeta: meta, Severity: s.plugin.Severity(meta.ID)})
	}
	if *category != "" {
		r, ok := s.plugin.Table().Rule(*category)
		if !ok {
			return fail(stderr, fmt.Errorf("unknown category %q (known: %s)",
				*category, strings.Join(s.plugin.Table().Names(), ", ")))
		}
		out.Categories = []*tokens.Rule{r}
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fail(stderr, err)
		}
		return exitOK
	}
	printRulesHuman(stdout, out)
	return exitOK
}

// printRulesHuman prints the lint rules followed by the token categories.
func printRulesHuman(w io.Writer, out rulesOutput) {
	re := lipgloss.NewRenderer(w)
	title := re.NewStyle().Bold(true).Underline(true)
	name := re.NewStyle().Bold(true)
	faint := re.NewStyle().Faint(true)
	sevStyle := map[lint.Severity]lipgloss.Style{
		lint.SeverityError:   re.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"}),
		lint.SeverityWarning: re.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "136", Dark: "221"}),
		lint.SeverityOff:     faint,
	}

	fmt.Fprintln(w, title.Render("Rules"))
	idW := 0
	for _, r := range out.Rules {
		if len(r.ID) > idW {
			idW = len(r.ID)
		}
	}
	for _, r := range out.Rules {
		sev := fmt.Sprintf("%-7s", r.Severity)
		fmt.Fprintf(w, "  %s  %s  %s\n", name.Render(fmt.Sprintf("%-*s", idW, r.ID)), sevStyle[r.Severity].Render(sev), r.Description)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.Render("Token categories"))
	for _, c := range out.Categories {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s\n", name.Render(c.Name))
		fmt.Fprintf(w, "    %s %s\n", faint.Render("tokens:    "), wrapList(c.TokenPatterns, 16))
		fmt.Fprintf(w, "    %s %s\n", faint.Render("properties:"), wrapList(c.AllowedProperties, 16))
	}
}

// wrapList joins items with ", " and wraps at maxWidth, continuing lines at
// indent.
func wrapList(items []string, indent int) string {
	var sb strings.Builder
	lineLen := indent
	for i, item := range items {
		if i > 0 {
			if lineLen+2+len(item) > maxWidth {
				sb.WriteString(",\n")
				sb.WriteString(strings.Repeat(" ", indent))
				lineLen = indent
			} else {
				sb.WriteString(", ")
				lineLen += 2
			}
		}
		sb.WriteString(item)
		lineLen += len(item)
	}
	return sb.String()
}
