package estree

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// Convert builds an ESTree program from a tree-sitter JavaScript, TypeScript
// or TSX parse tree. Syntax errors do not abort conversion; ERROR nodes
// become *Other nodes like any other unmodelled construct.
func Convert(tree *ts.Tree, source []byte) *Program {
	c := &converter{source: source}
	root := tree.RootNode()
	return &Program{Span: c.span(root), Body: c.namedChildren(root)}
}

type converter struct {
	source []byte
}

func (c *converter) span(n *ts.Node) Span {
	start := n.StartPosition()
	end := n.EndPosition()
	return Span{
		StartByte: uint32(n.StartByte()),
		EndByte:   uint32(n.EndByte()),
		Line:      int(start.Row) + 1,
		Column:    int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndColumn: int(end.Column) + 1,
	}
}

func (c *converter) text(n *ts.Node) string {
	return n.Utf8Text(c.source)
}

// namedChildren converts every named, non-comment child of n.
func (c *converter) namedChildren(n *ts.Node) []Node {
	var out []Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := c.convert(n.NamedChild(i)); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// firstNamed returns the first named child that is not a comment.
func firstNamed(n *ts.Node) *ts.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() != "comment" {
			return child
		}
	}
	return nil
}

func (c *converter) convert(n *ts.Node) Node {
	if n == nil {
		return nil
	}

	switch n.Kind() {
	case "comment", "hash_bang_line":
		return nil
	case "program":
		return &Program{Span: c.span(n), Body: c.namedChildren(n)}
	case "import_statement":
		return c.importDeclaration(n)
	case "variable_declarator":
		return &VariableDeclarator{
			Span: c.span(n),
			ID:   c.pattern(n.ChildByFieldName("name")),
			Init: c.convert(n.ChildByFieldName("value")),
		}
	case "object_pattern":
		return c.objectPattern(n)
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "private_property_identifier",
		"this", "undefined":
		return &Identifier{Span: c.span(n), Name: c.text(n)}
	case "string":
		return &Literal{Span: c.span(n), Kind: LiteralString, Value: stringContent(c.text(n)), Raw: c.text(n)}
	case "number":
		return &Literal{Span: c.span(n), Kind: LiteralNumber, Value: c.text(n), Raw: c.text(n)}
	case "true", "false":
		return &Literal{Span: c.span(n), Kind: LiteralBoolean, Value: c.text(n), Raw: c.text(n)}
	case "null":
		return &Literal{Span: c.span(n), Kind: LiteralNull, Value: "null", Raw: "null"}
	case "regex":
		return &Literal{Span: c.span(n), Kind: LiteralRegExp, Value: c.text(n), Raw: c.text(n)}
	case "template_string":
		return c.templateLiteral(n)
	case "call_expression":
		return c.callExpression(n)
	case "member_expression":
		return c.memberExpression(n)
	case "subscript_expression":
		return &MemberExpression{
			Span:     c.span(n),
			Object:   c.convert(n.ChildByFieldName("object")),
			Property: c.convert(n.ChildByFieldName("index")),
			Computed: true,
			Optional: hasChildKind(n, "optional_chain"),
		}
	case "ternary_expression":
		return &ConditionalExpression{
			Span:       c.span(n),
			Test:       c.convert(n.ChildByFieldName("condition")),
			Consequent: c.convert(n.ChildByFieldName("consequence")),
			Alternate:  c.convert(n.ChildByFieldName("alternative")),
		}
	case "binary_expression":
		return c.binaryExpression(n)
	case "parenthesized_expression":
		// ESTree has no parenthesized node.
		if inner := firstNamed(n); inner != nil && n.NamedChildCount() == 1 {
			return c.convert(inner)
		}
	case "arrow_function":
		body := n.ChildByFieldName("body")
		return &ArrowFunctionExpression{
			Span:           c.span(n),
			Params:         c.params(n),
			Body:           c.convert(body),
			ExpressionBody: body != nil && body.Kind() != "statement_block",
		}
	case "function_expression", "function", "generator_function":
		return &FunctionExpression{
			Span:   c.span(n),
			Params: c.params(n),
			Body:   c.convert(n.ChildByFieldName("body")),
		}
	case "object":
		return c.objectExpression(n)
	case "array":
		return &ArrayExpression{Span: c.span(n), Elements: c.namedChildren(n)}
	case "jsx_attribute":
		return c.jsxAttribute(n)
	}

	return &Other{Span: c.span(n), Kind: n.Kind(), Children: c.namedChildren(n)}
}

func (c *converter) importDeclaration(n *ts.Node) Node {
	decl := &ImportDeclaration{Span: c.span(n)}
	if src := n.ChildByFieldName("source"); src != nil {
		decl.Source = stringContent(c.text(src))
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		clause := n.NamedChild(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			part := clause.NamedChild(j)
			switch part.Kind() {
			case "identifier":
				decl.Specifiers = append(decl.Specifiers, ImportSpecifier{Local: c.text(part), Default: true})
			case "namespace_import":
				if id := firstNamed(part); id != nil {
					decl.Specifiers = append(decl.Specifiers, ImportSpecifier{Local: c.text(id), Namespace: true})
				}
			case "named_imports":
				decl.Specifiers = append(decl.Specifiers, c.namedImports(part)...)
			}
		}
	}
	return decl
}

func (c *converter) namedImports(n *ts.Node) []ImportSpecifier {
	var specs []ImportSpecifier
	for i := uint(0); i < n.NamedChildCount(); i++ {
		spec := n.NamedChild(i)
		if spec.Kind() != "import_specifier" {
			continue
		}
		name := spec.ChildByFieldName("name")
		if name == nil {
			continue
		}
		imported := stringContent(c.text(name))
		local := imported
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			local = c.text(alias)
		}
		specs = append(specs, ImportSpecifier{Imported: imported, Local: local})
	}
	return specs
}

// pattern converts the left-hand side of a binding.
func (c *converter) pattern(n *ts.Node) Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "required_parameter", "optional_parameter":
		// TypeScript wraps parameters; the binding is the pattern field.
		if p := n.ChildByFieldName("pattern"); p != nil {
			return c.pattern(p)
		}
	case "object_pattern":
		return c.objectPattern(n)
	}
	return c.convert(n)
}

func (c *converter) objectPattern(n *ts.Node) *ObjectPattern {
	pat := &ObjectPattern{Span: c.span(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "shorthand_property_identifier_pattern":
			name := c.text(child)
			pat.Properties = append(pat.Properties, PatternProperty{
				Key:   name,
				Local: name,
				Value: &Identifier{Span: c.span(child), Name: name},
			})
		case "object_assignment_pattern":
			left := child.ChildByFieldName("left")
			if left == nil {
				continue
			}
			prop := PatternProperty{Value: c.pattern(left)}
			if id, ok := prop.Value.(*Identifier); ok {
				prop.Key, prop.Local = id.Name, id.Name
			}
			pat.Properties = append(pat.Properties, prop)
		case "pair_pattern":
			key := child.ChildByFieldName("key")
			value := c.pattern(child.ChildByFieldName("value"))
			prop := PatternProperty{Value: value}
			if key != nil {
				prop.Key = stringContent(c.text(key))
			}
			if id, ok := value.(*Identifier); ok {
				prop.Local = id.Name
			}
			pat.Properties = append(pat.Properties, prop)
		}
	}
	return pat
}

func (c *converter) params(n *ts.Node) []Node {
	if single := n.ChildByFieldName("parameter"); single != nil {
		return []Node{c.pattern(single)}
	}
	list := n.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var out []Node
	for i := uint(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		if p := c.pattern(child); p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (c *converter) templateLiteral(n *ts.Node) *TemplateLiteral {
	tpl := &TemplateLiteral{Span: c.span(n)}

	// Quasi text is sliced by byte offsets so escape sequences and grammar
	// versions without string_fragment nodes behave the same.
	start, end := n.StartByte()+1, n.EndByte()
	if end > start && end <= uint(len(c.source)) && c.source[end-1] == '`' {
		end--
	}
	cursor := start
	for i := uint(0); i < n.NamedChildCount(); i++ {
		sub := n.NamedChild(i)
		if sub.Kind() != "template_substitution" {
			continue
		}
		tpl.Quasis = append(tpl.Quasis, c.slice(cursor, sub.StartByte()))
		var expr Node
		if inner := firstNamed(sub); inner != nil {
			expr = c.convert(inner)
		}
		if expr == nil {
			expr = &Other{Span: c.span(sub), Kind: "empty_substitution"}
		}
		tpl.Expressions = append(tpl.Expressions, expr)
		cursor = sub.EndByte()
	}
	tpl.Quasis = append(tpl.Quasis, c.slice(cursor, end))
	return tpl
}

func (c *converter) slice(from, to uint) string {
	if from >= to || to > uint(len(c.source)) {
		return ""
	}
	return string(c.source[from:to])
}

func (c *converter) callExpression(n *ts.Node) Node {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")

	// tree-sitter models tag`...` as a call whose arguments are a template.
	if args != nil && args.Kind() == "template_string" {
		return &TaggedTemplateExpression{
			Span:  c.span(n),
			Tag:   c.convert(templateTag(fn)),
			Quasi: c.templateLiteral(args),
		}
	}

	call := &CallExpression{Span: c.span(n), Callee: c.convert(fn)}
	if args != nil {
		call.Arguments = c.namedChildren(args)
	}
	return call
}

// templateTag drops the type arguments of a generic tag such as
// styled(Button)<Props>`...`, which ESTree keeps outside the tag.
func templateTag(n *ts.Node) *ts.Node {
	for n != nil {
		switch n.Kind() {
		case "instantiation_expression", "non_null_expression":
			inner := n.NamedChild(0)
			if inner == nil {
				return n
			}
			n = inner
		default:
			return n
		}
	}
	return n
}

func (c *converter) memberExpression(n *ts.Node) Node {
	prop := n.ChildByFieldName("property")
	m := &MemberExpression{
		Span:     c.span(n),
		Object:   c.convert(n.ChildByFieldName("object")),
		Property: c.convert(prop),
		Optional: hasChildKind(n, "optional_chain"),
	}
	if prop != nil {
		m.PropertyName = c.text(prop)
	}
	return m
}

func (c *converter) binaryExpression(n *ts.Node) Node {
	left := c.convert(n.ChildByFieldName("left"))
	right := c.convert(n.ChildByFieldName("right"))

	var op string
	if o := n.ChildByFieldName("operator"); o != nil {
		op = c.text(o)
	}
	switch op {
	case "||", "&&", "??":
		return &LogicalExpression{Span: c.span(n), Operator: op, Left: left, Right: right}
	}
	return &Other{Span: c.span(n), Kind: n.Kind(), Children: nonNil(left, right)}
}

func (c *converter) objectExpression(n *ts.Node) *ObjectExpression {
	obj := &ObjectExpression{Span: c.span(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "comment":
			continue
		case "pair":
			obj.Properties = append(obj.Properties, c.property(child))
		case "shorthand_property_identifier":
			id := &Identifier{Span: c.span(child), Name: c.text(child)}
			obj.Properties = append(obj.Properties, &Property{
				Span:      c.span(child),
				Key:       id,
				KeyName:   id.Name,
				Value:     id,
				Shorthand: true,
			})
		default:
			if converted := c.convert(child); converted != nil {
				obj.Properties = append(obj.Properties, converted)
			}
		}
	}
	return obj
}

func (c *converter) property(n *ts.Node) *Property {
	prop := &Property{Span: c.span(n), Value: c.convert(n.ChildByFieldName("value"))}
	key := n.ChildByFieldName("key")
	if key == nil {
		return prop
	}
	switch key.Kind() {
	case "computed_property_name":
		prop.Computed = true
		if inner := firstNamed(key); inner != nil {
			prop.Key = c.convert(inner)
		}
	case "string":
		prop.Key = c.convert(key)
		prop.KeyName = stringContent(c.text(key))
	default:
		prop.Key = &Identifier{Span: c.span(key), Name: c.text(key)}
		prop.KeyName = c.text(key)
	}
	return prop
}

func (c *converter) jsxAttribute(n *ts.Node) Node {
	attr := &JSXAttribute{Span: c.span(n)}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "property_identifier", "jsx_namespace_name", "identifier":
			if attr.Name == "" {
				attr.Name = c.text(child)
			}
		case "string":
			attr.Value = c.convert(child)
		case "jsx_expression":
			if inner := firstNamed(child); inner != nil {
				attr.Value = c.convert(inner)
			}
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			attr.Value = c.convert(child)
		}
	}
	return attr
}

func hasChildKind(n *ts.Node, kind string) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.Child(i).Kind() == kind {
			return true
		}
	}
	return false
}

// stringContent strips one layer of matching quotes.
func stringContent(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func nonNil(nodes ...Node) []Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
