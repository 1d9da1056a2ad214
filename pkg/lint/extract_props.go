package lint

import (
	"github.com/gnana997/tokenlint/pkg/estree"
)

// extractJSXAttribute dispatches css and style props.
func (a *analysis) extractJSXAttribute(attr *estree.JSXAttribute) {
	switch attr.Name {
	case "css":
		a.extractCSSProp(attr)
	case "style":
		// Only literal objects; no flow analysis through variables.
		if obj, ok := attr.Value.(*estree.ObjectExpression); ok {
			a.extractObject(obj, KindStyleProp, attr, false)
		}
	}
}

// extractCSSProp handles css={{...}}, css={[...]} and css={p => ({...})}.
// Tagged templates inside the prop are left to the styled extractor.
func (a *analysis) extractCSSProp(attr *estree.JSXAttribute) {
	switch v := attr.Value.(type) {
	case *estree.ObjectExpression:
		a.extractObject(v, KindCSSProp, attr, true)
	case *estree.ArrayExpression:
		for _, el := range v.Elements {
			if obj, ok := el.(*estree.ObjectExpression); ok {
				a.extractObject(obj, KindCSSProp, attr, true)
			}
		}
	case *estree.ArrowFunctionExpression:
		obj, ok := v.Body.(*estree.ObjectExpression)
		if !v.ExpressionBody || !ok {
			return
		}
		a.tracker.EnterScope()
		bindFirstParam(v, a.tracker)
		a.extractObject(obj, KindCSSProp, attr, true)
		a.tracker.ExitScope()
	}
}

// extractObject records a declaration for every plain property of obj.
// Computed keys are skipped. Nested objects are selector blocks: they are
// recursed into when nested is set and otherwise left to the walk.
func (a *analysis) extractObject(obj *estree.ObjectExpression, kind DeclarationKind, source estree.Node, nested bool) {
	for _, entry := range obj.Properties {
		prop, ok := entry.(*estree.Property)
		if !ok || prop.Computed || prop.KeyName == "" || prop.Value == nil {
			continue
		}
		if inner, ok := prop.Value.(*estree.ObjectExpression); ok {
			if nested {
				a.extractObject(inner, kind, source, true)
			}
			continue
		}
		a.collector.add(kind, prop.KeyName, prop, prop.Value, source)
	}
}
