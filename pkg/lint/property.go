package lint

import (
	"strings"
	"unicode"
)

// NormalizeProperty converts a style key to its kebab-case CSS name.
//
//	backgroundColor       -> background-color
//	WebkitTextFillColor   -> -webkit-text-fill-color
//	-webkit-text-stroke   -> -webkit-text-stroke
//	--Custom-Prop         -> --custom-prop
//	border-color          -> border-color
func NormalizeProperty(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "-") || strings.Contains(name, "-") {
		return strings.ToLower(name)
	}

	var b strings.Builder
	b.Grow(len(name) + 4)
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
