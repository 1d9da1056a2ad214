package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTSX(t *testing.T) {
	pm := NewParserManager(nil, 2)
	defer pm.Close()

	src := []byte("const a = <div css={{color: 'red'}} />;")
	tree, err := pm.Parse(src, Dialect{Language: LanguageTypeScript, TSX: true})
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "program", root.Kind())
	assert.Contains(t, root.ToSexp(), "jsx_self_closing_element")
}

func TestParseJavaScriptAcceptsJSX(t *testing.T) {
	pm := NewParserManager(nil, 2)
	defer pm.Close()

	tree, err := pm.ParseFile([]byte("const a = <span style={{color: x}}>hi</span>;"), "a.jsx")
	require.NoError(t, err)
	defer tree.Close()

	assert.False(t, tree.RootNode().HasError())
}

func TestParseFileUnsupportedExtension(t *testing.T) {
	pm := NewParserManager(nil, 1)
	defer pm.Close()

	_, err := pm.ParseFile([]byte("body {}"), "styles.css")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestParseInvalidSyntaxReturnsTree(t *testing.T) {
	pm := NewParserManager(nil, 1)
	defer pm.Close()

	tree, err := pm.ParseFile([]byte("const = = ;"), "broken.ts")
	require.NoError(t, err)
	defer tree.Close()

	assert.True(t, tree.RootNode().HasError())
	assert.Equal(t, int64(1), pm.Stats().ErrorTrees)
}

func TestConcurrentParsingRespectsPoolSize(t *testing.T) {
	pm := NewParserManager(nil, 2)
	defer pm.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := pm.ParseFile([]byte("const x = styled.div`color: red;`;"), "x.ts")
			if assert.NoError(t, err) {
				tree.Close()
			}
		}()
	}
	wg.Wait()

	stats := pm.Stats()
	assert.Equal(t, int64(16), stats.Parses)
	assert.LessOrEqual(t, stats.ParsersCreated, 2)
}

func TestDetectDialect(t *testing.T) {
	cases := map[string]Dialect{
		"a.ts":        {Language: LanguageTypeScript},
		"a.mts":       {Language: LanguageTypeScript},
		"a.tsx":       {Language: LanguageTypeScript, TSX: true},
		"a.JSX":       {Language: LanguageJavaScript},
		"a.cjs":       {Language: LanguageJavaScript},
		"README.md":   {Language: LanguageUnknown},
		"noextension": {Language: LanguageUnknown},
	}
	for path, want := range cases {
		assert.Equal(t, want, DetectDialect(path), path)
	}
	assert.Equal(t, "tsx", DetectDialect("x.tsx").String())
	assert.True(t, IsSupportedFile("x.mjs"))
	assert.False(t, IsSupportedFile("x.css"))
}
