package lint

import (
	"github.com/gnana997/tokenlint/pkg/estree"
)

// DefaultThemeModules are the modules whose useTheme export is tracked.
var DefaultThemeModules = []string{
	"@emotion/react",
	"@emotion/styled",
	"sentry/utils/theme",
	"sentry/utils/useTheme",
}

// conventionalThemeNames are accepted as theme objects without a binding,
// e.g. the p in styled('div')`${p => p.theme.tokens.x}`.
var conventionalThemeNames = map[string]struct{}{
	"theme": {},
	"p":     {},
	"t":     {},
}

// ThemeTracker answers "is this identifier a theme object here?" during a
// single walk of one file. It is not safe for concurrent use; every file
// gets its own tracker.
type ThemeTracker struct {
	themeModules map[string]struct{}
	hookNames    map[string]struct{}

	// module holds file-lifetime bindings from useTheme() declarations.
	module     map[string]*ThemeBinding
	lastModule *ThemeBinding

	// scopes is a stack: nested callbacks may reuse parameter names.
	scopes    []int
	nextScope int
	callbacks map[int]*ThemeBinding
}

// NewThemeTracker creates a tracker. An empty module list selects
// DefaultThemeModules.
func NewThemeTracker(themeModules []string) *ThemeTracker {
	if len(themeModules) == 0 {
		themeModules = DefaultThemeModules
	}
	t := &ThemeTracker{
		themeModules: make(map[string]struct{}, len(themeModules)),
		hookNames:    make(map[string]struct{}),
		module:       make(map[string]*ThemeBinding),
		callbacks:    make(map[int]*ThemeBinding),
	}
	for _, m := range themeModules {
		t.themeModules[m] = struct{}{}
	}
	return t
}

// HandleImport remembers the local name of a useTheme hook imported from a
// theming module.
func (t *ThemeTracker) HandleImport(decl *estree.ImportDeclaration) {
	if _, ok := t.themeModules[decl.Source]; !ok {
		return
	}
	for _, spec := range decl.Specifiers {
		if spec.Imported == "useTheme" {
			t.hookNames[spec.Local] = struct{}{}
		}
	}
}

// HandleDeclarator registers bindings for `const theme = useTheme()` and
// `const {tokens} = useTheme()`.
func (t *ThemeTracker) HandleDeclarator(decl *estree.VariableDeclarator) {
	call, ok := decl.Init.(*estree.CallExpression)
	if !ok {
		return
	}
	callee, ok := call.Callee.(*estree.Identifier)
	if !ok {
		return
	}
	if _, ok := t.hookNames[callee.Name]; !ok {
		return
	}

	switch id := decl.ID.(type) {
	case *estree.Identifier:
		t.addModuleBinding(id.Name, decl)
	case *estree.ObjectPattern:
		for _, prop := range id.Properties {
			if prop.Local != "" {
				t.addModuleBinding(prop.Local, decl)
			}
		}
	}
}

func (t *ThemeTracker) addModuleBinding(name string, decl estree.Node) {
	b := &ThemeBinding{LocalName: name, Source: SourceUseTheme, Declaration: decl}
	t.module[name] = b
	t.lastModule = b
}

// EnterScope opens a function scope and returns its id. Ids increase
// monotonically and are never reused within a file.
func (t *ThemeTracker) EnterScope() int {
	t.nextScope++
	t.scopes = append(t.scopes, t.nextScope)
	return t.nextScope
}

// ExitScope closes the innermost scope and evicts its callback binding.
// It is a no-op at module scope.
func (t *ThemeTracker) ExitScope() {
	if len(t.scopes) == 0 {
		return
	}
	id := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	delete(t.callbacks, id)
}

// RegisterCallbackBinding binds name as a theme object for the current
// scope. At module scope the call is ignored.
func (t *ThemeTracker) RegisterCallbackBinding(name string, decl estree.Node) {
	id := t.CurrentScopeID()
	if id == 0 || name == "" {
		return
	}
	t.callbacks[id] = &ThemeBinding{LocalName: name, Source: SourceCSSCallback, Declaration: decl}
}

// IsThemeBinding reports whether name currently refers to a theme object.
func (t *ThemeTracker) IsThemeBinding(name string) bool {
	if _, ok := t.module[name]; ok {
		return true
	}
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if b, ok := t.callbacks[t.scopes[i]]; ok && b.LocalName == name {
			return true
		}
	}
	return false
}

// ActiveBinding returns the innermost active binding, preferring callback
// bindings over module bindings. Nil when nothing is bound.
func (t *ThemeTracker) ActiveBinding() *ThemeBinding {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if b, ok := t.callbacks[t.scopes[i]]; ok {
			return b
		}
	}
	return t.lastModule
}

// CurrentScopeID returns the innermost scope id, 0 at module scope.
func (t *ThemeTracker) CurrentScopeID() int {
	if len(t.scopes) == 0 {
		return 0
	}
	return t.scopes[len(t.scopes)-1]
}

// Depth returns the number of open scopes.
func (t *ThemeTracker) Depth() int {
	return len(t.scopes)
}

func isConventionalThemeName(name string) bool {
	_, ok := conventionalThemeNames[name]
	return ok
}
