package lint

import (
	"bytes"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/tokenlint/pkg/estree"
)

// TokenImportRuleID is the id of the raw token import rule.
const TokenImportRuleID = "no-token-import"

// MessageNoTokenImport is the only message of no-token-import.
const MessageNoTokenImport = "noTokenImport"

// DefaultTokenModules match modules exporting raw token values.
var DefaultTokenModules = []string{
	"**/scraps/tokens",
	"**/scraps/tokens/**",
	"**/theme/tokens",
	"**/theme/tokens/**",
}

var tokenImportMeta = RuleMeta{
	ID:          TokenImportRuleID,
	Description: "Disallow importing raw design tokens; read them from the theme instead",
	Messages: map[string]string{
		MessageNoTokenImport: `Do not import tokens from "{{module}}". Use theme.tokens from useTheme() or a styled callback instead.`,
	},
	Default: SeverityWarning,
}

// TokenImportRule reports imports of raw token modules.
type TokenImportRule struct {
	patterns []string
}

// NewTokenImportRule creates the rule. Patterns are doublestar globs
// matched against the import source; empty selects DefaultTokenModules.
// Invalid patterns are dropped with a warning.
func NewTokenImportRule(patterns []string, logger *slog.Logger) *TokenImportRule {
	if len(patterns) == 0 {
		patterns = DefaultTokenModules
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &TokenImportRule{}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			logger.Warn("ignoring invalid token module pattern", "pattern", p)
			continue
		}
		r.patterns = append(r.patterns, p)
	}
	return r
}

// Meta implements Rule.
func (r *TokenImportRule) Meta() RuleMeta {
	return tokenImportMeta
}

// Check implements Rule.
func (r *TokenImportRule) Check(f *File) []Diagnostic {
	var diags []Diagnostic
	for _, stmt := range f.Program.Body {
		decl, ok := stmt.(*estree.ImportDeclaration)
		if !ok || !r.isTokenModule(decl.Source) {
			continue
		}
		diags = append(diags, newDiagnostic(tokenImportMeta, MessageNoTokenImport, decl, DiagnosticData{Module: decl.Source}))
	}
	return diags
}

func (r *TokenImportRule) isTokenModule(source string) bool {
	for _, p := range r.patterns {
		if ok, _ := doublestar.Match(p, source); ok {
			return true
		}
	}
	return false
}

// mentionsTokens is the text pre-check for no-token-import.
func mentionsTokens(source []byte) bool {
	return bytes.Contains(source, []byte("tokens"))
}
