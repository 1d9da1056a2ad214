package lint

import (
	"fmt"
	"strings"

	"github.com/gnana997/tokenlint/pkg/estree"
)

// Severity is how a rule's diagnostics are reported.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityOff     Severity = "off"
)

// ParseSeverity accepts error/warning/off and their ESLint spellings
// (2/1/0, "warn").
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "2":
		return SeverityError, nil
	case "warning", "warn", "1":
		return SeverityWarning, nil
	case "off", "0":
		return SeverityOff, nil
	default:
		return "", fmt.Errorf("invalid severity %q (want error, warning or off)", s)
	}
}

// File is one parsed source file handed to rules.
type File struct {
	Path    string
	Source  []byte
	Program *estree.Program
}

// RuleMeta describes a rule and its message templates. Templates use
// {{name}} placeholders filled from DiagnosticData.
type RuleMeta struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Messages    map[string]string `json:"messages"`
	Default     Severity          `json:"default_severity"`
}

// Rule checks one file. Implementations must keep all per-file state local
// to Check so a rule value can be shared by concurrent workers.
type Rule interface {
	Meta() RuleMeta
	Check(f *File) []Diagnostic
}

// DiagnosticData is the structured payload of a diagnostic.
type DiagnosticData struct {
	TokenPath         string `json:"tokenPath,omitempty"`
	Property          string `json:"property,omitempty"`
	SuggestedCategory string `json:"suggestedCategory,omitempty"`
	Category          string `json:"category,omitempty"`
	Module            string `json:"module,omitempty"`
}

func (d DiagnosticData) placeholders() map[string]string {
	return map[string]string{
		"tokenPath":         d.TokenPath,
		"property":          d.Property,
		"suggestedCategory": d.SuggestedCategory,
		"category":          d.Category,
		"module":            d.Module,
	}
}

// Diagnostic is one reported violation.
type Diagnostic struct {
	RuleID    string         `json:"rule_id"`
	MessageID string         `json:"message_id"`
	Message   string         `json:"message"`
	Severity  Severity       `json:"severity"`
	FilePath  string         `json:"file_path"`
	Pos       estree.Span    `json:"position"`
	Data      DiagnosticData `json:"data"`
}

// newDiagnostic renders the message template messageID of meta.
func newDiagnostic(meta RuleMeta, messageID string, anchor estree.Node, data DiagnosticData) Diagnostic {
	d := Diagnostic{
		RuleID:    meta.ID,
		MessageID: messageID,
		Message:   formatMessage(meta.Messages[messageID], data),
		Data:      data,
	}
	if anchor != nil {
		d.Pos = anchor.Pos()
	}
	return d
}

func formatMessage(template string, data DiagnosticData) string {
	values := data.placeholders()
	var b strings.Builder
	for {
		start := strings.Index(template, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(template[start:], "}}")
		if end < 0 {
			break
		}
		b.WriteString(template[:start])
		key := strings.TrimSpace(template[start+2 : start+end])
		if v, ok := values[key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(template[start : start+end+2])
		}
		template = template[start+end+2:]
	}
	b.WriteString(template)
	return b.String()
}
