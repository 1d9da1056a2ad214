package lint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tokenlint/pkg/parser"
	"github.com/gnana997/tokenlint/pkg/util"
)

// js lets test sources use ~ for backticks.
func js(s string) string {
	return strings.ReplaceAll(s, "~", "`")
}

func testPlugin(t *testing.T, config PluginConfig) *Plugin {
	t.Helper()
	pm := parser.NewParserManager(util.DiscardLogger(), 2)
	t.Cleanup(func() { _ = pm.Close() })

	if config.Logger == nil {
		config.Logger = util.DiscardLogger()
	}
	p, err := NewPlugin(pm, config)
	require.NoError(t, err)
	return p
}

func lintCode(t *testing.T, code string) []Diagnostic {
	t.Helper()
	return lintWith(t, PluginConfig{}, code)
}

func lintWith(t *testing.T, config PluginConfig, code string) []Diagnostic {
	t.Helper()
	p := testPlugin(t, config)
	result, err := p.LintSource("Component.tsx", []byte(js(code)))
	require.NoError(t, err)
	return result.Diagnostics
}

func parseFile(t *testing.T, code string) *File {
	t.Helper()
	p := testPlugin(t, PluginConfig{})
	f, _, err := p.ParseSource("Component.tsx", []byte(js(code)))
	require.NoError(t, err)
	return f
}

func TestSemanticToken_AllowedPropertyHasNoDiagnostic(t *testing.T) {
	diags := lintCode(t, `
const Title = styled('div')~color: ${p => p.theme.tokens.content.primary};~;
`)
	assert.Empty(t, diags)
}

func TestSemanticToken_InvalidPropertyWithoutSuggestion(t *testing.T) {
	diags := lintCode(t, `
const Box = styled('div')~background: ${p => p.theme.tokens.content.primary};~;
`)
	require.Len(t, diags, 1)

	d := diags[0]
	assert.Equal(t, SemanticTokenRuleID, d.RuleID)
	assert.Equal(t, MessageInvalidProperty, d.MessageID)
	assert.Equal(t, "content.primary", d.Data.TokenPath)
	assert.Equal(t, "background", d.Data.Property)
	assert.Empty(t, d.Data.SuggestedCategory)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "Component.tsx", d.FilePath)
	assert.Equal(t, `Token "content.primary" (content) cannot be used for CSS property "background".`, d.Message)
}

func TestSemanticToken_InvalidPropertyWithSuggestion(t *testing.T) {
	diags := lintCode(t, `
const Icon = styled('svg')~
  fill: ${p => p.theme.tokens.content.primary};
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, MessageInvalidPropertyWithSuggestion, diags[0].MessageID)
	assert.Equal(t, "fill", diags[0].Data.Property)
	assert.Equal(t, "graphics", diags[0].Data.SuggestedCategory)
	assert.Contains(t, diags[0].Message, "Use a graphics token instead.")

	// The anchor is the token member expression.
	assert.Equal(t, 3, diags[0].Pos.Line)
	assert.Equal(t, 16, diags[0].Pos.Column)
}

func TestSemanticToken_TernaryReportsEachBranch(t *testing.T) {
	diags := lintCode(t, `
const Box = styled('div')~
  background: ${p => foo ? p.theme.tokens.content.primary : p.theme.tokens.content.accent};
~;
`)
	require.Len(t, diags, 2)
	assert.Equal(t, "content.primary", diags[0].Data.TokenPath)
	assert.Equal(t, "content.accent", diags[1].Data.TokenPath)
	for _, d := range diags {
		assert.Equal(t, "background", d.Data.Property)
	}
}

func TestSemanticToken_LogicalOperandsAreChecked(t *testing.T) {
	diags := lintCode(t, `
const Box = styled('div')~
  color: ${p => p.active && p.theme.tokens.border.accent};
  border-color: ${p => p.override ?? p.theme.tokens.content.muted};
~;
`)
	require.Len(t, diags, 2)
	assert.Equal(t, "color", diags[0].Data.Property)
	assert.Equal(t, "border.accent", diags[0].Data.TokenPath)
	assert.Equal(t, "content", diags[0].Data.SuggestedCategory)
	assert.Equal(t, "border-color", diags[1].Data.Property)
	assert.Equal(t, "border", diags[1].Data.SuggestedCategory)
}

func TestSemanticToken_PseudoSelectorColonIsNotAProperty(t *testing.T) {
	diags := lintCode(t, `
const Link = styled('a')~
  a:hover { color: ${p => p.theme.tokens.background.primary}; }
  &:focus-visible {
    outline-color: ${p => p.theme.tokens.focus.default};
  }
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "color", diags[0].Data.Property)
	assert.Equal(t, "background.primary", diags[0].Data.TokenPath)
	assert.Equal(t, "content", diags[0].Data.SuggestedCategory)
}

func TestSemanticToken_MultiValueDeclarations(t *testing.T) {
	diags := lintCode(t, `
const Box = styled.div~
  border: 1px solid ${p => p.theme.tokens.content.primary};
  padding: ${p => p.theme.space.md} ${p => p.theme.space.lg};
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "border", diags[0].Data.Property)
	assert.Equal(t, MessageInvalidProperty, diags[0].MessageID)
}

func TestSemanticToken_DeclarationsAfterMixins(t *testing.T) {
	cases := map[string]string{
		"mixin on its own line": `
const Label = styled('div')~
  ${p => p.theme.overflowEllipsis}
  background-color: ${p => p.theme.tokens.content.primary};
~;
`,
		"mixin after a declaration": `
const Label = styled('div')~
  color: red; ${p => p.theme.overflowEllipsis} background-color: ${p => p.theme.tokens.content.primary};
~;
`,
	}
	for name, code := range cases {
		t.Run(name, func(t *testing.T) {
			diags := lintCode(t, code)
			require.Len(t, diags, 1)
			assert.Equal(t, "background-color", diags[0].Data.Property)
			assert.Equal(t, "content.primary", diags[0].Data.TokenPath)
			assert.Equal(t, "background", diags[0].Data.SuggestedCategory)
		})
	}

	diags := lintCode(t, `
const Icon = styled('svg')~
  color: red; ${p => p.theme.overflowEllipsis} fill: ${p => p.theme.tokens.content.primary};
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "fill", diags[0].Data.Property)
	assert.Equal(t, "graphics", diags[0].Data.SuggestedCategory)
}

func TestSemanticToken_GenericStyledTag(t *testing.T) {
	diags := lintCode(t, `
const Toggle = styled(Button)<{active: boolean}>~
  color: ${p => p.theme.tokens.background.primary};
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "color", diags[0].Data.Property)
	assert.Equal(t, "background.primary", diags[0].Data.TokenPath)
	assert.Equal(t, "content", diags[0].Data.SuggestedCategory)
}

func TestSemanticToken_BareStyledTag(t *testing.T) {
	diags := lintCode(t, `
const Box = styled~
  border-color: ${p => p.theme.tokens.content.primary};
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "border-color", diags[0].Data.Property)
}

func TestSemanticToken_StyledObjectForms(t *testing.T) {
	diags := lintCode(t, `
const A = styled.div(p => ({
  color: p.theme.tokens.background.primary,
  backgroundColor: p.theme.tokens.background.primary,
  '&:hover': {
    fill: p.theme.tokens.content.primary,
  },
}));
const B = styled('span')({
  borderColor: theme.tokens.content.primary,
});
`)
	require.Len(t, diags, 3)
	assert.Equal(t, "color", diags[0].Data.Property)
	assert.Equal(t, "fill", diags[1].Data.Property)
	assert.Equal(t, "border-color", diags[2].Data.Property)
}

func TestSemanticToken_StyledFactoryOptionsAreNotStyles(t *testing.T) {
	diags := lintCode(t, `
const A = styled(Button, {color: theme.tokens.background.primary})~~;
`)
	assert.Empty(t, diags)
}

func TestSemanticToken_LookupTablesAreSkipped(t *testing.T) {
	diags := lintCode(t, `
const A = styled.div(p => ({
  color: {
    danger: p.theme.tokens.background.danger,
    muted: p.theme.tokens.border.muted,
  }[p.variant],
}));
const B = styled.div~
  color: ${p => ({a: p.theme.tokens.background.primary})[p.kind]};
~;
`)
	assert.Empty(t, diags)
}

func TestSemanticToken_CSSTaggedTemplate(t *testing.T) {
	diags := lintCode(t, `
import {css} from '@emotion/react';
const mixin = (theme) => css~
  stroke: ${theme.tokens.content.primary};
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "stroke", diags[0].Data.Property)
	assert.Equal(t, "graphics", diags[0].Data.SuggestedCategory)
}

func TestSemanticToken_CSSProp(t *testing.T) {
	diags := lintCode(t, `
function Card() {
  const theme = useTheme();
  return (
    <div>
      <span css={{backgroundColor: theme.tokens.content.primary, '&:hover': {color: theme.tokens.content.primary}}} />
      <span css={[{color: theme.tokens.graphics.accent}, css~fill: ${theme.tokens.graphics.accent};~]} />
      <span css={p => ({borderColor: p.tokens.background.primary})} />
    </div>
  );
}
`)
	require.Len(t, diags, 3)

	assert.Equal(t, "background-color", diags[0].Data.Property)
	assert.Equal(t, "background", diags[0].Data.SuggestedCategory)
	assert.Equal(t, "color", diags[1].Data.Property)
	assert.Equal(t, "graphics.accent", diags[1].Data.TokenPath)
	assert.Equal(t, "border-color", diags[2].Data.Property)
	assert.Equal(t, "background.primary", diags[2].Data.TokenPath)
}

func TestSemanticToken_StyleProp(t *testing.T) {
	diags := lintCode(t, `
function Swatch({styles}) {
  const theme = useTheme();
  return (
    <div>
      <svg style={{fill: theme.tokens.border.muted, WebkitTextFillColor: theme.tokens.content.primary}} />
      <svg style={styles} />
    </div>
  );
}
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "fill", diags[0].Data.Property)
	assert.Equal(t, "border.muted", diags[0].Data.TokenPath)
}

func TestSemanticToken_UseThemeBindings(t *testing.T) {
	code := `
import {useTheme as useAppTheme} from '@emotion/react';
function A() {
  const th = useAppTheme();
  const {tokens} = useAppTheme();
  return (
    <div>
      <b style={{color: th.tokens.background.primary}} />
      <i style={{color: tokens.background.primary}} />
    </div>
  );
}
`
	diags := lintCode(t, code)
	require.Len(t, diags, 2)
	assert.Equal(t, "background.primary", diags[0].Data.TokenPath)
	assert.Equal(t, "background.primary", diags[1].Data.TokenPath)

	// The same code with the hook from an unrelated module binds nothing.
	unrelated := strings.Replace(code, "@emotion/react", "./hooks", 1)
	assert.Empty(t, lintCode(t, unrelated))
}

func TestSemanticToken_CallbackBindingsAreScoped(t *testing.T) {
	diags := lintCode(t, `
const Box = styled.div~
  color: ${props => props.tokens.background.primary};
  fill: ${props => props.tokens.background.primary};
  stroke: ${x => props.tokens.background.primary};
  caret-color: ${props => inner => props.tokens.background.primary};
~;
`)
	require.Len(t, diags, 3)
	assert.Equal(t, "color", diags[0].Data.Property)
	assert.Equal(t, "fill", diags[1].Data.Property)
	assert.Equal(t, "caret-color", diags[2].Data.Property)
}

func TestSemanticToken_UnrelatedTokensShapeIsIgnored(t *testing.T) {
	diags := lintCode(t, `
const Box = styled.div~
  color: ${() => config.tokens.background.primary};
  fill: ${() => foo.theme.tokens.background.primary};
~;
`)
	require.Len(t, diags, 1)
	assert.Equal(t, "fill", diags[0].Data.Property)
}

func TestSemanticToken_UnconstrainedTokens(t *testing.T) {
	diags := lintCode(t, `
const Box = styled.div~
  background: ${p => p.theme.tokens.radius.md};
  color: ${p => p.theme.tokens.content};
~;
`)
	assert.Empty(t, diags)
}

func TestSemanticToken_EnabledCategories(t *testing.T) {
	code := `
const Box = styled.div~
  background: ${p => p.theme.tokens.content.primary};
  color: ${p => p.theme.tokens.graphics.accent};
~;
`
	assert.Len(t, lintCode(t, code), 2)

	diags := lintWith(t, PluginConfig{SemanticToken: SemanticTokenOptions{EnabledCategories: []string{"graphics"}}}, code)
	require.Len(t, diags, 1)
	assert.Equal(t, "graphics.accent", diags[0].Data.TokenPath)
}

func TestSemanticToken_FilesWithoutThemingAreSkipped(t *testing.T) {
	p := testPlugin(t, PluginConfig{})
	result, err := p.LintSource("plain.ts", []byte("export const a = foo.bar;\n"))
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Diagnostics)
}

func TestNeedsAnalysis(t *testing.T) {
	assert.True(t, NeedsAnalysis([]byte("const t = useTheme();")))
	assert.True(t, NeedsAnalysis([]byte("styled.div`x`")))
	assert.True(t, NeedsAnalysis([]byte("styled('div')")))
	assert.True(t, NeedsAnalysis([]byte("styled`color: red`")))
	assert.True(t, NeedsAnalysis([]byte("css`color: red`")))
	assert.True(t, NeedsAnalysis([]byte("<a css={{}} />")))
	assert.True(t, NeedsAnalysis([]byte("<a style={{}} />")))
	assert.False(t, NeedsAnalysis([]byte("const styledName = 1; const cssText = '';")))
}

func TestTokenImport(t *testing.T) {
	diags := lintCode(t, `
import {color} from 'sentry/utils/theme/scraps/tokens';
import {space} from 'sentry/styles/space';
import * as raw from '../theme/tokens/dark';
`)
	require.Len(t, diags, 2)
	assert.Equal(t, TokenImportRuleID, diags[0].RuleID)
	assert.Equal(t, MessageNoTokenImport, diags[0].MessageID)
	assert.Equal(t, "sentry/utils/theme/scraps/tokens", diags[0].Data.Module)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, 2, diags[0].Pos.Line)
	assert.Equal(t, "../theme/tokens/dark", diags[1].Data.Module)
}

func TestPlugin_SeverityOverrides(t *testing.T) {
	code := `
import {color} from 'app/scraps/tokens';
const Box = styled.div~background: ${p => p.theme.tokens.content.primary};~;
`
	diags := lintWith(t, PluginConfig{Severities: map[string]Severity{
		TokenImportRuleID:   SeverityOff,
		SemanticTokenRuleID: SeverityWarning,
	}}, code)
	require.Len(t, diags, 1)
	assert.Equal(t, SemanticTokenRuleID, diags[0].RuleID)
	assert.Equal(t, SeverityWarning, diags[0].Severity)

	_, err := NewPlugin(parser.NewParserManager(util.DiscardLogger(), 1), PluginConfig{
		Severities: map[string]Severity{"no-such-rule": SeverityError},
	})
	assert.ErrorContains(t, err, "unknown rule")
}

func TestPlugin_Rules(t *testing.T) {
	p := testPlugin(t, PluginConfig{})
	metas := p.Rules()
	require.Len(t, metas, 2)
	assert.Equal(t, SemanticTokenRuleID, metas[0].ID)
	assert.Equal(t, TokenImportRuleID, metas[1].ID)
	assert.Equal(t, SeverityError, p.Severity(SemanticTokenRuleID))
	assert.Equal(t, SeverityOff, p.Severity("missing"))
}

func TestPlugin_SyntaxErrorsStillLinted(t *testing.T) {
	p := testPlugin(t, PluginConfig{})
	result, err := p.LintSource("Broken.tsx", []byte(js(`
const Box = styled.div~background: ${p => p.theme.tokens.content.primary};~;
const broken = (;
`)))
	require.NoError(t, err)
	assert.True(t, result.SyntaxErrors)
	assert.Len(t, result.Diagnostics, 1)
}

func TestParseSeverity(t *testing.T) {
	for in, want := range map[string]Severity{"error": SeverityError, "2": SeverityError, "warn": SeverityWarning, "WARNING": SeverityWarning, "off": SeverityOff, "0": SeverityOff} {
		got, err := ParseSeverity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestCollectDeclarations(t *testing.T) {
	f := parseFile(t, `
const A = styled.div~
  color: ${p => p.theme.tokens.content.primary};
  margin: 0;
  fill: ${'red'};
~;
const el = <div css={{marginTop: 4}} style={{opacity: x ? 1 : 0}} />;
`)
	decls := CollectDeclarations(f, nil)
	require.Len(t, decls, 4)

	assert.Equal(t, KindStyled, decls[0].Kind)
	assert.Equal(t, "color", decls[0].Property.Name)
	require.Len(t, decls[0].Values, 1)
	assert.Equal(t, ValueMember, decls[0].Values[0].Kind)
	assert.True(t, decls[0].Values[0].Confident)
	require.NotNil(t, decls[0].Values[0].TokenInfo)
	assert.Equal(t, "primary", decls[0].Values[0].TokenInfo.TokenName)
	assert.Equal(t, "Component.tsx", decls[0].Context.FilePath)
	assert.Equal(t, 0, decls[0].Context.ScopeID)

	assert.Equal(t, "fill", decls[1].Property.Name)
	assert.Equal(t, ValueLiteral, decls[1].Values[0].Kind)

	assert.Equal(t, KindCSSProp, decls[2].Kind)
	assert.Equal(t, "margin-top", decls[2].Property.Name)

	assert.Equal(t, KindStyleProp, decls[3].Kind)
	assert.Equal(t, "opacity", decls[3].Property.Name)
	assert.Len(t, decls[3].Values, 2)
}

func TestFormatMessage(t *testing.T) {
	msg := formatMessage("{{ tokenPath }} / {{property}} / {{unknown}} / {{open", DiagnosticData{TokenPath: "a.b", Property: "color"})
	assert.Equal(t, "a.b / color / {{unknown}} / {{open", msg)
}
