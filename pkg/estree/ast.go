// Package estree provides a small ESTree/JSX-flavoured syntax tree for
// JavaScript and TypeScript sources.
//
// Only the node shapes the lint rules reason about get their own type. Every
// other construct becomes an *Other node that keeps its children, so a walk
// still reaches nested expressions inside statements the rules do not model.
package estree

// NodeType is the tag of a node variant.
type NodeType int

const (
	TypeOther NodeType = iota
	TypeProgram
	TypeImportDeclaration
	TypeVariableDeclarator
	TypeObjectPattern
	TypeIdentifier
	TypeLiteral
	TypeTemplateLiteral
	TypeTaggedTemplateExpression
	TypeMemberExpression
	TypeCallExpression
	TypeConditionalExpression
	TypeLogicalExpression
	TypeArrowFunctionExpression
	TypeFunctionExpression
	TypeObjectExpression
	TypeProperty
	TypeArrayExpression
	TypeJSXAttribute
)

var typeNames = [...]string{
	TypeOther:                    "Other",
	TypeProgram:                  "Program",
	TypeImportDeclaration:        "ImportDeclaration",
	TypeVariableDeclarator:       "VariableDeclarator",
	TypeObjectPattern:            "ObjectPattern",
	TypeIdentifier:               "Identifier",
	TypeLiteral:                  "Literal",
	TypeTemplateLiteral:          "TemplateLiteral",
	TypeTaggedTemplateExpression: "TaggedTemplateExpression",
	TypeMemberExpression:         "MemberExpression",
	TypeCallExpression:           "CallExpression",
	TypeConditionalExpression:    "ConditionalExpression",
	TypeLogicalExpression:        "LogicalExpression",
	TypeArrowFunctionExpression:  "ArrowFunctionExpression",
	TypeFunctionExpression:       "FunctionExpression",
	TypeObjectExpression:         "ObjectExpression",
	TypeProperty:                 "Property",
	TypeArrayExpression:          "ArrayExpression",
	TypeJSXAttribute:             "JSXAttribute",
}

// String returns the ESTree name of the node type.
func (t NodeType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Other"
}

// Span locates a node in its source file. Line and Column are 1-based.
type Span struct {
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
}

// Node is implemented by every variant.
type Node interface {
	Type() NodeType
	Pos() Span
}

// Program is the root of a file.
type Program struct {
	Span
	Body []Node
}

// ImportSpecifier is one binding introduced by an import declaration.
// Imported is empty for default and namespace imports.
type ImportSpecifier struct {
	Imported  string
	Local     string
	Default   bool
	Namespace bool
}

// ImportDeclaration is `import ... from "source"`.
type ImportDeclaration struct {
	Span
	Source     string
	Specifiers []ImportSpecifier
}

// VariableDeclarator is one `id = init` entry of a var/let/const declaration.
// Init is nil when the declarator has no initializer.
type VariableDeclarator struct {
	Span
	ID   Node
	Init Node
}

// PatternProperty is one entry of an object destructuring pattern.
// Key is the property read; Local is the identifier it is bound to, empty
// when the value is itself a nested pattern.
type PatternProperty struct {
	Key   string
	Local string
	Value Node
}

// ObjectPattern is `{a, b: c, ...rest}` on the left of a binding.
type ObjectPattern struct {
	Span
	Properties []PatternProperty
}

// Identifier is a plain name reference.
type Identifier struct {
	Span
	Name string
}

// LiteralKind distinguishes literal flavours.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralNull
	LiteralRegExp
)

// Literal is a string, number, boolean, null or regex literal.
// Value holds the unquoted text for strings and the raw text otherwise.
type Literal struct {
	Span
	Kind  LiteralKind
	Value string
	Raw   string
}

// TemplateLiteral is a backtick string. len(Quasis) == len(Expressions)+1.
type TemplateLiteral struct {
	Span
	Quasis      []string
	Expressions []Node
}

// TaggedTemplateExpression is `tag` followed by a template literal.
type TaggedTemplateExpression struct {
	Span
	Tag   Node
	Quasi *TemplateLiteral
}

// MemberExpression is `object.property` or `object[property]`.
// PropertyName is set for non-computed access only.
type MemberExpression struct {
	Span
	Object       Node
	Property     Node
	PropertyName string
	Computed     bool
	Optional     bool
}

// CallExpression is `callee(arguments...)`.
type CallExpression struct {
	Span
	Callee    Node
	Arguments []Node
}

// ConditionalExpression is `test ? consequent : alternate`.
type ConditionalExpression struct {
	Span
	Test       Node
	Consequent Node
	Alternate  Node
}

// LogicalExpression is `left || right`, `left && right` or `left ?? right`.
type LogicalExpression struct {
	Span
	Operator string
	Left     Node
	Right    Node
}

// ArrowFunctionExpression is `(params) => body`. When ExpressionBody is
// false, Body is the block statement (an *Other node).
type ArrowFunctionExpression struct {
	Span
	Params         []Node
	Body           Node
	ExpressionBody bool
}

// FunctionExpression is `function (params) { body }`.
type FunctionExpression struct {
	Span
	Params []Node
	Body   Node
}

// ObjectExpression is an object literal.
type ObjectExpression struct {
	Span
	Properties []Node
}

// Property is one `key: value` entry of an object literal. KeyName is the
// identifier or string text of a non-computed key.
type Property struct {
	Span
	Key       Node
	KeyName   string
	Value     Node
	Computed  bool
	Shorthand bool
}

// ArrayExpression is an array literal. Holes are omitted.
type ArrayExpression struct {
	Span
	Elements []Node
}

// JSXAttribute is `name="value"` or `name={expression}` on a JSX element.
// Value is the string literal or the contained expression, nil for a bare
// boolean attribute.
type JSXAttribute struct {
	Span
	Name  string
	Value Node
}

// Other is any construct without a dedicated variant.
type Other struct {
	Span
	Kind     string
	Children []Node
}

func (n *Program) Type() NodeType                  { return TypeProgram }
func (n *ImportDeclaration) Type() NodeType        { return TypeImportDeclaration }
func (n *VariableDeclarator) Type() NodeType       { return TypeVariableDeclarator }
func (n *ObjectPattern) Type() NodeType            { return TypeObjectPattern }
func (n *Identifier) Type() NodeType               { return TypeIdentifier }
func (n *Literal) Type() NodeType                  { return TypeLiteral }
func (n *TemplateLiteral) Type() NodeType          { return TypeTemplateLiteral }
func (n *TaggedTemplateExpression) Type() NodeType { return TypeTaggedTemplateExpression }
func (n *MemberExpression) Type() NodeType         { return TypeMemberExpression }
func (n *CallExpression) Type() NodeType           { return TypeCallExpression }
func (n *ConditionalExpression) Type() NodeType    { return TypeConditionalExpression }
func (n *LogicalExpression) Type() NodeType        { return TypeLogicalExpression }
func (n *ArrowFunctionExpression) Type() NodeType  { return TypeArrowFunctionExpression }
func (n *FunctionExpression) Type() NodeType       { return TypeFunctionExpression }
func (n *ObjectExpression) Type() NodeType         { return TypeObjectExpression }
func (n *Property) Type() NodeType                 { return TypeProperty }
func (n *ArrayExpression) Type() NodeType          { return TypeArrayExpression }
func (n *JSXAttribute) Type() NodeType             { return TypeJSXAttribute }
func (n *Other) Type() NodeType                    { return TypeOther }

// Pos returns the node's location.
func (s Span) Pos() Span { return s }
