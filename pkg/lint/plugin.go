package lint

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/gnana997/tokenlint/pkg/estree"
	"github.com/gnana997/tokenlint/pkg/parser"
	"github.com/gnana997/tokenlint/pkg/tokens"
)

// PluginConfig configures the rule set.
type PluginConfig struct {
	// Table is the token category table; nil selects tokens.Default.
	Table *tokens.Table

	SemanticToken SemanticTokenOptions

	// TokenModules are the doublestar patterns for no-token-import.
	TokenModules []string

	// Severities overrides rule severities by rule id.
	Severities map[string]Severity

	Logger *slog.Logger
}

// Plugin is the registry of lint rules and their severities. It is safe for
// concurrent use: rules hold no per-file state.
type Plugin struct {
	parser     *parser.ParserManager
	rules      []Rule
	severities map[string]Severity
	logger     *slog.Logger
}

// FileResult is the outcome of linting one file.
type FileResult struct {
	FilePath    string       `json:"file_path"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	// SyntaxErrors is set when the parse tree contained error nodes.
	SyntaxErrors bool `json:"syntax_errors,omitempty"`
	// Skipped is set when no rule needed a full walk of the file.
	Skipped bool `json:"skipped,omitempty"`
}

// NewPlugin registers use-semantic-token and no-token-import.
func NewPlugin(pm *parser.ParserManager, config PluginConfig) (*Plugin, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Plugin{
		parser:     pm,
		severities: make(map[string]Severity),
		logger:     logger,
	}
	p.Register(NewSemanticTokenRule(config.Table, config.SemanticToken))
	p.Register(NewTokenImportRule(config.TokenModules, logger))

	for id, sev := range config.Severities {
		if _, ok := p.rule(id); !ok {
			return nil, fmt.Errorf("unknown rule %q", id)
		}
		p.severities[id] = sev
	}
	return p, nil
}

// Register adds a rule at its default severity, replacing any rule with the
// same id.
func (p *Plugin) Register(r Rule) {
	id := r.Meta().ID
	for i, existing := range p.rules {
		if existing.Meta().ID == id {
			p.rules[i] = r
			return
		}
	}
	p.rules = append(p.rules, r)
}

func (p *Plugin) rule(id string) (Rule, bool) {
	for _, r := range p.rules {
		if r.Meta().ID == id {
			return r, true
		}
	}
	return nil, false
}

// Severity returns the effective severity of a rule.
func (p *Plugin) Severity(id string) Severity {
	if sev, ok := p.severities[id]; ok {
		return sev
	}
	if r, ok := p.rule(id); ok {
		return r.Meta().Default
	}
	return SeverityOff
}

// Rules returns the metadata of every registered rule.
func (p *Plugin) Rules() []RuleMeta {
	metas := make([]RuleMeta, len(p.rules))
	for i, r := range p.rules {
		metas[i] = r.Meta()
	}
	return metas
}

// Table returns the token table used by use-semantic-token.
func (p *Plugin) Table() *tokens.Table {
	if r, ok := p.rule(SemanticTokenRuleID); ok {
		if st, ok := r.(*SemanticTokenRule); ok {
			return st.Table()
		}
	}
	return tokens.Default
}

// ParseSource parses source and converts it to a File.
func (p *Plugin) ParseSource(filePath string, source []byte) (*File, bool, error) {
	tree, err := p.parser.ParseFile(source, filePath)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", filePath, err)
	}
	defer tree.Close()

	hasErrors := tree.RootNode().HasError()
	return &File{
		Path:    filePath,
		Source:  source,
		Program: estree.Convert(tree, source),
	}, hasErrors, nil
}

// LintSource parses source once and runs every enabled rule on it.
func (p *Plugin) LintSource(filePath string, source []byte) (*FileResult, error) {
	result := &FileResult{FilePath: filePath, Diagnostics: []Diagnostic{}}

	// Both rules need theming or token imports; files with neither are
	// not parsed at all.
	if !NeedsAnalysis(source) && !mentionsTokens(source) {
		result.Skipped = true
		return result, nil
	}

	file, hasErrors, err := p.ParseSource(filePath, source)
	if err != nil {
		return nil, err
	}
	result.SyntaxErrors = hasErrors
	if hasErrors {
		p.logger.Warn("source contains syntax errors, linting recovered tree", "file", filePath)
	}

	result.Diagnostics = p.LintFile(file)
	return result, nil
}

// LintFile runs every enabled rule on an already parsed file.
func (p *Plugin) LintFile(file *File) []Diagnostic {
	diags := []Diagnostic{}
	for _, r := range p.rules {
		id := r.Meta().ID
		sev := p.Severity(id)
		if sev == SeverityOff {
			continue
		}
		for _, d := range r.Check(file) {
			d.Severity = sev
			d.FilePath = file.Path
			diags = append(diags, d)
		}
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Pos.StartByte != diags[j].Pos.StartByte {
			return diags[i].Pos.StartByte < diags[j].Pos.StartByte
		}
		return diags[i].RuleID < diags[j].RuleID
	})

	p.logger.Debug("linted file", "file", file.Path, "diagnostics", len(diags))
	return diags
}
