// Package lint implements the design-token lint rules: theme binding
// tracking, style value decomposition, CSS-in-JS style extraction and the
// rule orchestrators that turn extracted declarations into diagnostics.
package lint

import (
	"github.com/gnana997/tokenlint/pkg/estree"
)

// DeclarationKind names the syntactic surface a declaration came from.
type DeclarationKind string

const (
	KindStyled    DeclarationKind = "styled"
	KindCSSProp   DeclarationKind = "css-prop"
	KindStyleProp DeclarationKind = "style-prop"
)

// ValueKind classifies one candidate value of a style expression.
type ValueKind string

const (
	ValueLiteral       ValueKind = "literal"
	ValueMember        ValueKind = "member"
	ValueTemplateQuasi ValueKind = "template-quasi"
	ValueCall          ValueKind = "call"
	ValueUnknown       ValueKind = "unknown"
)

// TokenInfo identifies a theme token reference such as
// theme.tokens.content.primary.
type TokenInfo struct {
	// TokenPath is the dotted path after the last "tokens" segment.
	TokenPath string
	// TokenName is the last segment of TokenPath.
	TokenName string
	Node      *estree.MemberExpression
}

// StyleValue is one value a style expression may evaluate to. TokenInfo is
// only ever set on ValueMember values.
type StyleValue struct {
	Kind      ValueKind
	Confident bool
	TokenInfo *TokenInfo
}

// BindingSource records how a theme binding was established.
type BindingSource string

const (
	SourceUseTheme    BindingSource = "useTheme"
	SourceCSSCallback BindingSource = "css-callback"
)

// ThemeBinding marks an identifier as referring to the theme object.
type ThemeBinding struct {
	LocalName   string
	Source      BindingSource
	Declaration estree.Node
}

// PropertyRef is a normalised CSS property and the node that declared it.
type PropertyRef struct {
	Name string
	Node estree.Node
}

// DeclarationContext is the analysis state captured when a declaration was
// discovered.
type DeclarationContext struct {
	FilePath string
	ScopeID  int
	Binding  *ThemeBinding
}

// RawRef points back at the syntax that produced a declaration. It is used
// for reporting only.
type RawRef struct {
	Node   estree.Node
	Source estree.Node
}

// StyleDeclaration is one CSS property assignment found in source.
type StyleDeclaration struct {
	Kind     DeclarationKind
	Property PropertyRef
	Values   []StyleValue
	Context  DeclarationContext
	Raw      RawRef
}

// Tokens returns the values of d that reference theme tokens.
func (d *StyleDeclaration) Tokens() []*TokenInfo {
	var out []*TokenInfo
	for _, v := range d.Values {
		if v.TokenInfo != nil {
			out = append(out, v.TokenInfo)
		}
	}
	return out
}
