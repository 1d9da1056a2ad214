package estree

// Visitor receives every node twice: once before its children are walked
// and once after. Enter and Exit calls are always paired.
type Visitor interface {
	Enter(n Node, path *Path)
	Exit(n Node, path *Path)
}

// Path is the chain of ancestors of the node currently being visited.
// The node itself is not part of its path.
type Path struct {
	stack []Node
}

// Parent returns the direct parent, or nil at the root.
func (p *Path) Parent() Node {
	return p.Ancestor(0)
}

// Ancestor returns the ancestor depth levels above the parent
// (0 = parent, 1 = grandparent), or nil when the path is shorter.
func (p *Path) Ancestor(depth int) Node {
	i := len(p.stack) - 1 - depth
	if i < 0 || depth < 0 {
		return nil
	}
	return p.stack[i]
}

// Depth returns the number of ancestors.
func (p *Path) Depth() int {
	return len(p.stack)
}

// Walk traverses the tree rooted at root in source order.
func Walk(root Node, v Visitor) {
	if root == nil {
		return
	}
	p := &Path{}
	walk(root, v, p)
}

func walk(n Node, v Visitor, p *Path) {
	v.Enter(n, p)
	p.stack = append(p.stack, n)
	for _, child := range Children(n) {
		if child != nil {
			walk(child, v, p)
		}
	}
	p.stack = p.stack[:len(p.stack)-1]
	v.Exit(n, p)
}

// Children returns the direct children of n in source order. Nil entries
// may be present and are skipped by Walk.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Program:
		return n.Body
	case *ImportDeclaration, *Identifier, *Literal:
		return nil
	case *VariableDeclarator:
		return []Node{n.ID, n.Init}
	case *ObjectPattern:
		out := make([]Node, 0, len(n.Properties))
		for _, prop := range n.Properties {
			out = append(out, prop.Value)
		}
		return out
	case *TemplateLiteral:
		return n.Expressions
	case *TaggedTemplateExpression:
		if n.Quasi == nil {
			return []Node{n.Tag}
		}
		return []Node{n.Tag, n.Quasi}
	case *MemberExpression:
		return []Node{n.Object, n.Property}
	case *CallExpression:
		return append([]Node{n.Callee}, n.Arguments...)
	case *ConditionalExpression:
		return []Node{n.Test, n.Consequent, n.Alternate}
	case *LogicalExpression:
		return []Node{n.Left, n.Right}
	case *ArrowFunctionExpression:
		return append(append([]Node{}, n.Params...), n.Body)
	case *FunctionExpression:
		return append(append([]Node{}, n.Params...), n.Body)
	case *ObjectExpression:
		return n.Properties
	case *Property:
		if n.Computed {
			return []Node{n.Key, n.Value}
		}
		return []Node{n.Value}
	case *ArrayExpression:
		return n.Elements
	case *JSXAttribute:
		return []Node{n.Value}
	case *Other:
		return n.Children
	default:
		return nil
	}
}

// VisitorFuncs adapts plain functions to the Visitor interface.
// Either function may be nil.
type VisitorFuncs struct {
	OnEnter func(n Node, path *Path)
	OnExit  func(n Node, path *Path)
}

// Enter implements Visitor.
func (f VisitorFuncs) Enter(n Node, path *Path) {
	if f.OnEnter != nil {
		f.OnEnter(n, path)
	}
}

// Exit implements Visitor.
func (f VisitorFuncs) Exit(n Node, path *Path) {
	if f.OnExit != nil {
		f.OnExit(n, path)
	}
}

// Inspect calls fn for every node in pre-order.
func Inspect(root Node, fn func(Node)) {
	Walk(root, VisitorFuncs{OnEnter: func(n Node, _ *Path) { fn(n) }})
}
