package lint

import (
	"regexp"

	"github.com/gnana997/tokenlint/pkg/estree"
	"github.com/gnana997/tokenlint/pkg/tokens"
)

// SemanticTokenRuleID is the id of the token category rule.
const SemanticTokenRuleID = "use-semantic-token"

const (
	MessageInvalidProperty               = "invalidProperty"
	MessageInvalidPropertyWithSuggestion = "invalidPropertyWithSuggestion"
)

var semanticTokenMeta = RuleMeta{
	ID:          SemanticTokenRuleID,
	Description: "Enforce that theme tokens are only used with CSS properties of their semantic category",
	Messages: map[string]string{
		MessageInvalidProperty:               `Token "{{tokenPath}}" ({{category}}) cannot be used for CSS property "{{property}}".`,
		MessageInvalidPropertyWithSuggestion: `Token "{{tokenPath}}" ({{category}}) cannot be used for CSS property "{{property}}". Use a {{suggestedCategory}} token instead.`,
	},
	Default: SeverityError,
}

// themingUsage is a cheap text check run before parsing a file into
// declarations. Matching too much only costs a full walk.
var themingUsage = regexp.MustCompile("useTheme|\\bstyled\\s*[.(`]|\\bcss\\s*[`({=]|\\bstyle\\s*=")

// NeedsAnalysis reports whether source may contain CSS-in-JS style
// declarations at all.
func NeedsAnalysis(source []byte) bool {
	return themingUsage.Match(source)
}

// SemanticTokenOptions configures use-semantic-token.
type SemanticTokenOptions struct {
	// EnabledCategories restricts enforcement to these rule names.
	// Empty enforces every category.
	EnabledCategories []string `yaml:"enabled_categories" json:"enabledCategories,omitempty"`

	// ThemeModules are the modules useTheme is imported from. Empty selects
	// DefaultThemeModules.
	ThemeModules []string `yaml:"theme_modules" json:"themeModules,omitempty"`
}

// SemanticTokenRule validates every token reference found in style
// declarations against the category table.
type SemanticTokenRule struct {
	table        *tokens.Table
	enabled      map[string]struct{}
	themeModules []string
}

// NewSemanticTokenRule creates the rule. A nil table selects
// tokens.Default.
func NewSemanticTokenRule(table *tokens.Table, opts SemanticTokenOptions) *SemanticTokenRule {
	if table == nil {
		table = tokens.Default
	}
	r := &SemanticTokenRule{
		table:        table,
		themeModules: append([]string(nil), opts.ThemeModules...),
	}
	if len(opts.EnabledCategories) > 0 {
		r.enabled = make(map[string]struct{}, len(opts.EnabledCategories))
		for _, c := range opts.EnabledCategories {
			r.enabled[c] = struct{}{}
		}
	}
	return r
}

// Meta implements Rule.
func (r *SemanticTokenRule) Meta() RuleMeta {
	return semanticTokenMeta
}

// Table returns the rule table in use.
func (r *SemanticTokenRule) Table() *tokens.Table {
	return r.table
}

// Check implements Rule.
func (r *SemanticTokenRule) Check(f *File) []Diagnostic {
	if !NeedsAnalysis(f.Source) {
		return nil
	}
	a := newAnalysis(f.Path, r.themeModules)
	estree.Walk(f.Program, a)
	diags := r.validate(a.collector.Declarations())
	a.collector.Reset()
	return diags
}

func (r *SemanticTokenRule) categoryEnabled(name string) bool {
	if r.enabled == nil {
		return true
	}
	_, ok := r.enabled[name]
	return ok
}

func (r *SemanticTokenRule) validate(decls []StyleDeclaration) []Diagnostic {
	var diags []Diagnostic
	for i := range decls {
		decl := &decls[i]
		for _, info := range decl.Tokens() {
			rule := r.table.FindRuleForToken(info.TokenPath)
			if rule == nil || !r.categoryEnabled(rule.Name) {
				continue
			}
			if rule.Allows(decl.Property.Name) {
				continue
			}

			data := DiagnosticData{
				TokenPath: info.TokenPath,
				Property:  decl.Property.Name,
				Category:  rule.Name,
			}
			messageID := MessageInvalidProperty
			if suggested, ok := r.table.SuggestCategory(decl.Property.Name); ok {
				data.SuggestedCategory = suggested
				messageID = MessageInvalidPropertyWithSuggestion
			}
			diags = append(diags, newDiagnostic(semanticTokenMeta, messageID, info.Node, data))
		}
	}
	return diags
}

// CollectDeclarations runs the extractors over f and returns every style
// declaration found, without validating them.
func CollectDeclarations(f *File, themeModules []string) []StyleDeclaration {
	a := newAnalysis(f.Path, themeModules)
	estree.Walk(f.Program, a)
	return a.collector.Declarations()
}

// analysis is the per-file state of one walk. It is never shared between
// files.
type analysis struct {
	tracker   *ThemeTracker
	collector *Collector
}

func newAnalysis(filePath string, themeModules []string) *analysis {
	tracker := NewThemeTracker(themeModules)
	return &analysis{
		tracker:   tracker,
		collector: NewCollector(filePath, tracker),
	}
}

// Enter implements estree.Visitor.
func (a *analysis) Enter(n estree.Node, path *estree.Path) {
	switch n := n.(type) {
	case *estree.ImportDeclaration:
		a.tracker.HandleImport(n)
	case *estree.VariableDeclarator:
		a.tracker.HandleDeclarator(n)
	case *estree.ArrowFunctionExpression, *estree.FunctionExpression:
		a.tracker.EnterScope()
	case *estree.TaggedTemplateExpression:
		a.extractTaggedTemplate(n)
	case *estree.ObjectExpression:
		a.extractStyledObject(n, path)
	case *estree.JSXAttribute:
		a.extractJSXAttribute(n)
	}
}

// Exit implements estree.Visitor.
func (a *analysis) Exit(n estree.Node, _ *estree.Path) {
	switch n.(type) {
	case *estree.ArrowFunctionExpression, *estree.FunctionExpression:
		a.tracker.ExitScope()
	}
}
