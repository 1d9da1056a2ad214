package tokens

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesTokenPattern_TrailingWildcard(t *testing.T) {
	assert.True(t, MatchesTokenPattern("content.primary", "content.*"))
	assert.True(t, MatchesTokenPattern("content.onVibrant.light", "content.*"))
	assert.False(t, MatchesTokenPattern("content", "content.*"))
	assert.False(t, MatchesTokenPattern("contentish.primary", "content.*"))
}

func TestMatchesTokenPattern_InnerWildcardIsLeafOnly(t *testing.T) {
	assert.True(t, MatchesTokenPattern("interactive.chonky.embossed.accent.content", "interactive.*.content"))
	assert.True(t, MatchesTokenPattern("interactive.link.content", "interactive.*.content"))
	assert.False(t, MatchesTokenPattern("interactive.chonky.content.primary", "interactive.*.content"))
	assert.False(t, MatchesTokenPattern("interactive.content", "interactive.*.content"))

	assert.True(t, MatchesTokenPattern("interactive.chonky.content.primary", "interactive.*.content.*"))
	assert.False(t, MatchesTokenPattern("interactive.chonky.content", "interactive.*.content.*"))
}

func TestMatchesTokenPattern_LiteralAndLeadingWildcard(t *testing.T) {
	assert.True(t, MatchesTokenPattern("focus.default", "focus.default"))
	assert.False(t, MatchesTokenPattern("focus.defaultX", "focus.default"))
	assert.True(t, MatchesTokenPattern("a.b.muted", "*.muted"))
	assert.False(t, MatchesTokenPattern("muted", "*.muted"))
	assert.False(t, MatchesTokenPattern("anything", ""))
	assert.False(t, MatchesTokenPattern("a..b", "a..b"))
}

func TestMatchesTokenPattern_QuotesRegexMetacharacters(t *testing.T) {
	assert.False(t, MatchesTokenPattern("contentXprimary", "content.primary"))
	assert.True(t, MatchesTokenPattern("content+x.y", "content+x.*"))
}

func TestFindRuleForToken_Default(t *testing.T) {
	cases := map[string]string{
		"content.primary":                            "content",
		"content.onVibrant.light":                    "content",
		"interactive.chonky.embossed.accent.content": "content",
		"interactive.chonky.content.primary":         "content",
		"background.secondary":                       "background",
		"interactive.transparent.background.hover":   "background",
		"border.muted":                               "border",
		"focus.default":                              "focus",
		"graphics.accent.vibrant":                    "graphics",
		"dataviz.semantic.bad":                       "graphics",
	}
	for path, want := range cases {
		rule := FindRuleForToken(path)
		if assert.NotNil(t, rule, path) {
			assert.Equal(t, want, rule.Name, path)
		}
	}

	assert.Nil(t, FindRuleForToken("content"))
	assert.Nil(t, FindRuleForToken("radius.md"))
	assert.Nil(t, FindRuleForToken("interactive.chonky"))
}

func TestFindRuleForToken_FirstDeclaredRuleWins(t *testing.T) {
	table := MustNewTable([]Rule{
		{Name: "first", TokenPatterns: []string{"x.*"}, AllowedProperties: []string{"color"}},
		{Name: "second", TokenPatterns: []string{"x.y"}, AllowedProperties: []string{"fill"}},
	})
	assert.Equal(t, "first", table.FindRuleForToken("x.y").Name)
}

func TestFindRuleForToken_AgreesWithPatternSemantics(t *testing.T) {
	paths := []string{
		"content.primary", "content", "background.primary", "border.accent.vibrant",
		"interactive.a.b.content", "interactive.a.content.x", "graphics.x", "nothing.here",
	}
	for _, path := range paths {
		var want *Rule
		for _, r := range Default.Rules() {
			for _, p := range r.TokenPatterns {
				if MatchesTokenPattern(path, p) {
					want = r
					break
				}
			}
			if want != nil {
				break
			}
		}
		assert.Same(t, want, Default.FindRuleForToken(path), path)
	}
}

func TestPropertyToRule_RoundTrip(t *testing.T) {
	reverse := PropertyToRule()
	require.NotEmpty(t, reverse)
	for prop, name := range reverse {
		rule, ok := Default.Rule(name)
		require.True(t, ok, name)
		assert.True(t, rule.Allows(prop), "%s should allow %s", name, prop)
	}

	_, ok := reverse["background"]
	assert.False(t, ok, "shorthand background has no category")
	assert.Equal(t, "content", reverse["color"])
}

func TestPropertyToRule_LastRegisteredWins(t *testing.T) {
	table := MustNewTable([]Rule{
		{Name: "a", TokenPatterns: []string{"a.*"}, AllowedProperties: []string{"color"}},
		{Name: "b", TokenPatterns: []string{"b.*"}, AllowedProperties: []string{"Color "}},
	})
	name, ok := table.SuggestCategory("color")
	require.True(t, ok)
	assert.Equal(t, "b", name)
}

func TestPropertyToRule_ReturnsCopy(t *testing.T) {
	m := PropertyToRule()
	m["color"] = "tampered"
	name, _ := Default.SuggestCategory("color")
	assert.Equal(t, "content", name)
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable([]Rule{{TokenPatterns: []string{"a.*"}}})
	assert.ErrorContains(t, err, "name is required")

	_, err = NewTable([]Rule{{Name: "a"}})
	assert.ErrorContains(t, err, "at least one token pattern")

	_, err = NewTable([]Rule{{Name: "a", TokenPatterns: []string{"a..b"}}})
	assert.ErrorContains(t, err, "empty segment")

	_, err = NewTable([]Rule{
		{Name: "a", TokenPatterns: []string{"a.*"}},
		{Name: "a", TokenPatterns: []string{"b.*"}},
	})
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - name: ink
    token_patterns: ["ink.*"]
    allowed_properties: [color, fill]
  - name: paper
    token_patterns: ["paper.*", "surface.*.paper"]
    allowed_properties: [background-color]
`), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ink", "paper"}, table.Names())
	assert.Equal(t, "paper", table.FindRuleForToken("surface.raised.paper").Name)
	assert.Equal(t, []string{"background-color", "color", "fill"}, table.Properties())

	_, err = ParseTable([]byte("rules: []"))
	assert.Error(t, err)

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
