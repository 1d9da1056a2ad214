package lint

import (
	"strings"

	"github.com/gnana997/tokenlint/pkg/estree"
)

// Decompose enumerates every value expr may evaluate to. The result is
// never empty. Shapes it does not understand become a single non-confident
// unknown value, so an odd expression never stops analysis of a file.
//
// Arrow functions with an expression body open a scope on tracker for the
// duration of the body, binding their first parameter as a theme callback.
func Decompose(expr estree.Node, tracker *ThemeTracker) []StyleValue {
	var out []StyleValue
	decompose(expr, tracker, &out)
	if len(out) == 0 {
		out = append(out, StyleValue{Kind: ValueUnknown})
	}
	return out
}

func decompose(expr estree.Node, tracker *ThemeTracker, out *[]StyleValue) {
	switch n := expr.(type) {
	case *estree.ConditionalExpression:
		decompose(n.Consequent, tracker, out)
		decompose(n.Alternate, tracker, out)

	case *estree.LogicalExpression:
		decompose(n.Left, tracker, out)
		decompose(n.Right, tracker, out)

	case *estree.MemberExpression:
		info := ExtractTokenInfo(n, tracker)
		*out = append(*out, StyleValue{Kind: ValueMember, Confident: info != nil, TokenInfo: info})

	case *estree.Literal:
		*out = append(*out, StyleValue{Kind: ValueLiteral, Confident: true})

	case *estree.TemplateLiteral:
		if len(n.Expressions) == 0 {
			*out = append(*out, StyleValue{Kind: ValueTemplateQuasi, Confident: true})
			return
		}
		for _, e := range n.Expressions {
			decompose(e, tracker, out)
		}

	case *estree.CallExpression:
		*out = append(*out, StyleValue{Kind: ValueCall})

	case *estree.ArrowFunctionExpression:
		// Block bodies would need return-statement analysis; they are
		// left as unknown.
		if !n.ExpressionBody || n.Body == nil {
			*out = append(*out, StyleValue{Kind: ValueUnknown})
			return
		}
		tracker.EnterScope()
		bindFirstParam(n, tracker)
		decompose(n.Body, tracker, out)
		tracker.ExitScope()

	case *estree.Other:
		// TypeScript wrappers (x as T, x!, x satisfies T) are transparent.
		if inner := unwrapTypeScript(n); inner != nil {
			decompose(inner, tracker, out)
			return
		}
		*out = append(*out, StyleValue{Kind: ValueUnknown})

	default:
		*out = append(*out, StyleValue{Kind: ValueUnknown})
	}
}

// bindFirstParam registers an arrow's simple first parameter as a callback
// binding in the current scope.
func bindFirstParam(fn *estree.ArrowFunctionExpression, tracker *ThemeTracker) {
	if len(fn.Params) == 0 {
		return
	}
	if id, ok := fn.Params[0].(*estree.Identifier); ok {
		tracker.RegisterCallbackBinding(id.Name, fn)
	}
}

func unwrapTypeScript(n *estree.Other) estree.Node {
	switch n.Kind {
	case "as_expression", "satisfies_expression", "non_null_expression", "instantiation_expression":
		// The expression precedes the type.
		if len(n.Children) > 0 {
			return n.Children[0]
		}
	}
	return nil
}

// ExtractTokenInfo recognises theme token accesses such as
// p.theme.tokens.content.primary. It returns nil for anything else,
// including chains broken by computed access or rooted at a call.
func ExtractTokenInfo(member *estree.MemberExpression, tracker *ThemeTracker) *TokenInfo {
	path, ok := memberPath(member)
	if !ok {
		return nil
	}

	last := -1
	for i, seg := range path {
		if seg == "tokens" {
			last = i
		}
	}
	if last < 0 || last == len(path)-1 {
		return nil
	}

	base := path[0]
	if !isConventionalThemeName(base) && !tracker.IsThemeBinding(base) && !containsSegment(path, "theme") {
		return nil
	}

	tokenPath := strings.Join(path[last+1:], ".")
	return &TokenInfo{
		TokenPath: tokenPath,
		TokenName: path[len(path)-1],
		Node:      member,
	}
}

// memberPath flattens a.b.c into [a b c]. The chain must consist of
// non-computed accesses rooted at an identifier.
func memberPath(member *estree.MemberExpression) ([]string, bool) {
	var rev []string
	var cur estree.Node = member
	for {
		switch n := cur.(type) {
		case *estree.MemberExpression:
			if n.Computed || n.PropertyName == "" {
				return nil, false
			}
			rev = append(rev, n.PropertyName)
			cur = n.Object
		case *estree.Identifier:
			rev = append(rev, n.Name)
			path := make([]string, len(rev))
			for i, seg := range rev {
				path[len(rev)-1-i] = seg
			}
			return path, true
		default:
			return nil, false
		}
	}
}

func containsSegment(path []string, seg string) bool {
	for _, s := range path {
		if s == seg {
			return true
		}
	}
	return false
}
