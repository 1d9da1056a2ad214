package lint

import (
	"regexp"
	"strings"

	"github.com/gnana997/tokenlint/pkg/estree"
)

// cssPropertyBeforeValue finds the property whose value is being written at
// the end of a chunk of CSS text. The property must follow "{", "}", ";"
// or the start of the text, and no "{" may follow its colon, so the colon in
// a selector like a:hover is never read as a declaration.
var cssPropertyBeforeValue = regexp.MustCompile(`(?:^|[{};])\s*(--?[A-Za-z][-\w]*|[A-Za-z][-\w]*)\s*:[^;{}]*$`)

// interpolationPlaceholder stands in for earlier ${...} values when the
// preceding CSS text is reassembled.
const interpolationPlaceholder = "x"

// cssPropertyAt returns the CSS property an interpolation at index i of tpl
// is a value of, or "" when it is not inside a declaration. An earlier
// interpolation may be a mixin rather than a value, so the text after it can
// start a declaration; the nearest quasi that does so wins.
func cssPropertyAt(tpl *estree.TemplateLiteral, i int) string {
	if i >= len(tpl.Quasis) {
		return ""
	}
	for from := i; from >= 0; from-- {
		preceding := strings.Join(tpl.Quasis[from:i+1], interpolationPlaceholder)
		if m := cssPropertyBeforeValue.FindStringSubmatch(preceding); m != nil {
			return m[1]
		}
	}
	return ""
}

// isStyledTag reports whether a template tag produces CSS: css, x.css, or
// any member/call chain rooted at styled.
func isStyledTag(tag estree.Node) bool {
	switch n := tag.(type) {
	case *estree.Identifier:
		return n.Name == "css" || n.Name == "styled"
	case *estree.MemberExpression:
		if !n.Computed && n.PropertyName == "css" {
			return true
		}
	}
	return rootIdentifier(tag) == "styled"
}

// isStyledCallee reports whether a call with callee takes style objects as
// arguments: styled.div({...}), styled('div')({...}), css({...}). The bare
// styled(Component, options) factory call is excluded, since its object
// argument is an options bag.
func isStyledCallee(callee estree.Node) bool {
	switch n := callee.(type) {
	case *estree.Identifier:
		return n.Name == "css"
	case *estree.MemberExpression:
		if !n.Computed && n.PropertyName == "css" {
			return true
		}
	}
	return rootIdentifier(callee) == "styled"
}

// rootIdentifier follows callees and member objects down to the identifier
// a chain starts from.
func rootIdentifier(n estree.Node) string {
	for {
		switch v := n.(type) {
		case *estree.Identifier:
			return v.Name
		case *estree.MemberExpression:
			n = v.Object
		case *estree.CallExpression:
			n = v.Callee
		case *estree.Other:
			inner := unwrapTypeScript(v)
			if inner == nil {
				return ""
			}
			n = inner
		default:
			return ""
		}
	}
}

// extractTaggedTemplate records one declaration per interpolation that sits
// in a CSS property value.
func (a *analysis) extractTaggedTemplate(n *estree.TaggedTemplateExpression) {
	if n.Quasi == nil || !isStyledTag(n.Tag) {
		return
	}
	for i, expr := range n.Quasi.Expressions {
		prop := cssPropertyAt(n.Quasi, i)
		if prop == "" {
			continue
		}
		a.collector.add(KindStyled, prop, n.Quasi, expr, n)
	}
}

// extractStyledObject handles the object forms of styled and css. The walk
// visits every object literal; an object is a style block when its
// ancestors lead, through property values and arrow bodies only, to an
// argument of a styled/css call. Nested selector objects are reached by the
// walk as separate blocks.
func (a *analysis) extractStyledObject(obj *estree.ObjectExpression, path *estree.Path) {
	if isLookupSubject(obj, path.Parent()) {
		return
	}
	call, arrow := styledObjectOwner(obj, path)
	if call == nil {
		return
	}
	if arrow != nil {
		// The walk has already opened the arrow's scope.
		bindFirstParam(arrow, a.tracker)
	}
	a.extractObject(obj, KindStyled, call, false)
}

// styledObjectOwner climbs from obj to the styled/css call it is an
// argument of. arrow is the nearest arrow function crossed on the way.
func styledObjectOwner(obj *estree.ObjectExpression, path *estree.Path) (call *estree.CallExpression, arrow *estree.ArrowFunctionExpression) {
	var cur estree.Node = obj
	for depth := 0; depth < path.Depth(); depth++ {
		switch p := path.Ancestor(depth).(type) {
		case *estree.Property:
			if p.Value != cur {
				return nil, nil
			}
			cur = p
		case *estree.ObjectExpression:
			if _, ok := cur.(*estree.Property); !ok {
				return nil, nil
			}
			cur = p
		case *estree.ArrowFunctionExpression:
			if !p.ExpressionBody || p.Body != cur {
				return nil, nil
			}
			if arrow == nil {
				arrow = p
			}
			cur = p
		case *estree.CallExpression:
			if !isStyledCallee(p.Callee) {
				return nil, nil
			}
			for _, arg := range p.Arguments {
				if arg == cur {
					return p, arrow
				}
			}
			return nil, nil
		default:
			return nil, nil
		}
	}
	return nil, nil
}

// isLookupSubject reports whether obj is indexed directly, as in
// ({a: x, b: y})[key]. Such lookup tables hold several unrelated choices
// for one property and are not attributed to it.
func isLookupSubject(obj *estree.ObjectExpression, parent estree.Node) bool {
	m, ok := parent.(*estree.MemberExpression)
	return ok && m.Computed && m.Object == obj
}
