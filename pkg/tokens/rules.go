// Package tokens holds the design-token category table: which token paths
// belong to which semantic category, and which CSS properties each category
// may be assigned to.
package tokens

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Rule is one semantic token category.
type Rule struct {
	// Name is the category, e.g. "content".
	Name string `yaml:"name" json:"name"`

	// TokenPatterns are dotted globs over token paths, checked in order.
	// A "*" segment stands for one or more path segments.
	TokenPatterns []string `yaml:"token_patterns" json:"token_patterns"`

	// AllowedProperties are the kebab-case CSS properties tokens of this
	// category may be used with.
	AllowedProperties []string `yaml:"allowed_properties" json:"allowed_properties"`

	allowed  map[string]struct{}
	matchers []*regexp.Regexp
}

// Allows reports whether property may take a token of this category.
func (r *Rule) Allows(property string) bool {
	_, ok := r.allowed[property]
	return ok
}

// Matches reports whether tokenPath falls under any of the rule's patterns.
func (r *Rule) Matches(tokenPath string) bool {
	for _, m := range r.matchers {
		if m.MatchString(tokenPath) {
			return true
		}
	}
	return false
}

// Table is an immutable, compiled rule list. It is safe for concurrent use.
type Table struct {
	rules          []*Rule
	byName         map[string]*Rule
	propertyToRule map[string]string
}

// NewTable validates and compiles rules. Patterns are compiled once here.
func NewTable(rules []Rule) (*Table, error) {
	t := &Table{
		byName:         make(map[string]*Rule, len(rules)),
		propertyToRule: make(map[string]string),
	}

	for i := range rules {
		src := rules[i]
		if src.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
		if _, dup := t.byName[src.Name]; dup {
			return nil, fmt.Errorf("rule %q: duplicate name", src.Name)
		}
		if len(src.TokenPatterns) == 0 {
			return nil, fmt.Errorf("rule %q: at least one token pattern is required", src.Name)
		}

		r := &Rule{
			Name:              src.Name,
			TokenPatterns:     append([]string(nil), src.TokenPatterns...),
			AllowedProperties: make([]string, 0, len(src.AllowedProperties)),
			allowed:           make(map[string]struct{}, len(src.AllowedProperties)),
		}
		for _, pattern := range src.TokenPatterns {
			re, err := compilePattern(pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", src.Name, err)
			}
			r.matchers = append(r.matchers, re)
		}
		for _, prop := range src.AllowedProperties {
			prop = strings.ToLower(strings.TrimSpace(prop))
			if prop == "" {
				continue
			}
			r.AllowedProperties = append(r.AllowedProperties, prop)
			r.allowed[prop] = struct{}{}
			// Last registered rule wins when two categories share a property.
			t.propertyToRule[prop] = r.Name
		}

		t.rules = append(t.rules, r)
		t.byName[r.Name] = r
	}
	return t, nil
}

// MustNewTable is NewTable for static tables; it panics on error.
func MustNewTable(rules []Rule) *Table {
	t, err := NewTable(rules)
	if err != nil {
		panic(fmt.Sprintf("tokens: invalid rule table: %v", err))
	}
	return t
}

// FindRuleForToken returns the first rule, in declared order, with a
// pattern matching tokenPath. Nil means the token is unconstrained.
func (t *Table) FindRuleForToken(tokenPath string) *Rule {
	for _, r := range t.rules {
		if r.Matches(tokenPath) {
			return r
		}
	}
	return nil
}

// Rule returns the rule with the given name.
func (t *Table) Rule(name string) (*Rule, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Rules returns the rules in declared order.
func (t *Table) Rules() []*Rule {
	return append([]*Rule(nil), t.rules...)
}

// Names returns the rule names in declared order.
func (t *Table) Names() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Name
	}
	return names
}

// SuggestCategory returns the category registered for property in the
// reverse index.
func (t *Table) SuggestCategory(property string) (string, bool) {
	name, ok := t.propertyToRule[property]
	return name, ok
}

// PropertyToRule returns a copy of the property → category reverse index.
func (t *Table) PropertyToRule() map[string]string {
	out := make(map[string]string, len(t.propertyToRule))
	for k, v := range t.propertyToRule {
		out[k] = v
	}
	return out
}

// Properties returns every property in the reverse index, sorted.
func (t *Table) Properties() []string {
	props := make([]string, 0, len(t.propertyToRule))
	for p := range t.propertyToRule {
		props = append(props, p)
	}
	sort.Strings(props)
	return props
}

// MatchesTokenPattern reports whether tokenPath matches pattern. It
// compiles the pattern on every call; tables use precompiled matchers.
func MatchesTokenPattern(tokenPath, pattern string) bool {
	re, err := compilePattern(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(tokenPath)
}

// compilePattern turns a dotted glob into an anchored regexp. A "*" segment
// becomes (\.[^.]+)+ so it consumes at least one whole segment; "content.*"
// therefore never matches bare "content".
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty token pattern")
	}
	segments := strings.Split(pattern, ".")

	var b strings.Builder
	b.WriteString("^")
	for i, seg := range segments {
		switch {
		case seg == "":
			return nil, fmt.Errorf("token pattern %q has an empty segment", pattern)
		case seg == "*" && i == 0:
			b.WriteString(`[^.]+(\.[^.]+)*`)
		case seg == "*":
			b.WriteString(`(\.[^.]+)+`)
		default:
			if i > 0 {
				b.WriteString(`\.`)
			}
			b.WriteString(regexp.QuoteMeta(seg))
		}
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("token pattern %q: %w", pattern, err)
	}
	return re, nil
}
