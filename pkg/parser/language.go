package parser

import (
	"path/filepath"
	"strings"
)

// Language is a source grammar the linter can parse.
type Language int

const (
	// LanguageTypeScript covers .ts/.mts/.cts and, with the TSX dialect, .tsx.
	LanguageTypeScript Language = iota
	// LanguageJavaScript covers .js/.jsx/.mjs/.cjs. The grammar accepts JSX.
	LanguageJavaScript
	// LanguageUnknown is returned for anything else.
	LanguageUnknown
)

// String returns the lowercase language name.
func (l Language) String() string {
	switch l {
	case LanguageTypeScript:
		return "typescript"
	case LanguageJavaScript:
		return "javascript"
	default:
		return "unknown"
	}
}

// Dialect selects a grammar variant. Only TypeScript has more than one.
type Dialect struct {
	Language Language
	TSX      bool
}

// String returns a short name such as "tsx" or "javascript".
func (d Dialect) String() string {
	if d.Language == LanguageTypeScript && d.TSX {
		return "tsx"
	}
	return d.Language.String()
}

// DetectDialect maps a file path to its grammar by extension.
func DetectDialect(filePath string) Dialect {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return Dialect{Language: LanguageTypeScript}
	case ".tsx":
		return Dialect{Language: LanguageTypeScript, TSX: true}
	case ".js", ".jsx", ".mjs", ".cjs":
		return Dialect{Language: LanguageJavaScript}
	default:
		return Dialect{Language: LanguageUnknown}
	}
}

// DetectLanguage returns only the language part of DetectDialect.
func DetectLanguage(filePath string) Language {
	return DetectDialect(filePath).Language
}

// IsSupportedFile reports whether filePath has a lintable extension.
func IsSupportedFile(filePath string) bool {
	return DetectLanguage(filePath) != LanguageUnknown
}

// SupportedExtensions lists every extension DetectDialect recognises.
func SupportedExtensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".mts", ".cts"}
}
