package lint

import (
	"github.com/gnana997/tokenlint/pkg/estree"
)

// Collector accumulates the declarations of one file.
type Collector struct {
	filePath     string
	tracker      *ThemeTracker
	declarations []StyleDeclaration
}

// NewCollector creates a collector for filePath that snapshots tracker
// state onto every declaration.
func NewCollector(filePath string, tracker *ThemeTracker) *Collector {
	return &Collector{filePath: filePath, tracker: tracker}
}

// context captures the tracker state at discovery time. It must be taken
// before the value is decomposed, since decomposition opens and closes
// callback scopes of its own.
func (c *Collector) context() DeclarationContext {
	return DeclarationContext{
		FilePath: c.filePath,
		ScopeID:  c.tracker.CurrentScopeID(),
		Binding:  c.tracker.ActiveBinding(),
	}
}

// add decomposes value and records a declaration for property.
func (c *Collector) add(kind DeclarationKind, property string, keyNode, value, source estree.Node) {
	ctx := c.context()
	c.declarations = append(c.declarations, StyleDeclaration{
		Kind:     kind,
		Property: PropertyRef{Name: NormalizeProperty(property), Node: keyNode},
		Values:   Decompose(value, c.tracker),
		Context:  ctx,
		Raw:      RawRef{Node: value, Source: source},
	})
}

// Declarations returns the declarations collected so far, in discovery
// order.
func (c *Collector) Declarations() []StyleDeclaration {
	return c.declarations
}

// Len returns the number of collected declarations.
func (c *Collector) Len() int {
	return len(c.declarations)
}

// Reset drops every collected declaration.
func (c *Collector) Reset() {
	c.declarations = nil
}
