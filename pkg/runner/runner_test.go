package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/parser"
	"github.com/gnana997/tokenlint/pkg/util"
)

const invalidBackground = "import styled from '@emotion/styled';\n" +
	"const Box = styled.div`\n  background: ${p => p.theme.tokens.content.primary};\n`;\n"

const validColor = "import styled from '@emotion/styled';\n" +
	"const Box = styled.div`\n  color: ${p => p.theme.tokens.content.primary};\n`;\n"

const tokenImport = "import {tokens} from 'static/app/utils/theme/tokens';\nexport const x = tokens;\n"

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func testPlugin(t *testing.T) *lint.Plugin {
	t.Helper()
	pm := parser.NewParserManager(util.DiscardLogger(), 4)
	t.Cleanup(func() { _ = pm.Close() })
	p, err := lint.NewPlugin(pm, lint.PluginConfig{Logger: util.DiscardLogger()})
	require.NoError(t, err)
	return p
}

// countingLinter counts calls and fails on files named fail.ts.
type countingLinter struct {
	calls atomic.Int64
	delay time.Duration
}

func (c *countingLinter) LintSource(filePath string, _ []byte) (*lint.FileResult, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if filepath.Base(filePath) == "fail.ts" {
		return nil, errors.New("boom")
	}
	return &lint.FileResult{FilePath: filePath, Diagnostics: []lint.Diagnostic{}}, nil
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestDiscoverFiles_DefaultExcludes(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"src/a.tsx":                  validColor,
		"src/b.js":                   validColor,
		"src/types.d.ts":             "export type A = string;",
		"src/readme.md":              "# docs",
		"node_modules/pkg/index.js":  validColor,
		"packages/x/dist/bundle.js":  validColor,
		"packages/x/src/Button.jsx":  validColor,
		"static/vendor.min.js":       validColor,
		"packages/x/.next/server.js": validColor,
	})

	files, err := DiscoverFiles(root, DefaultOptions(), util.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"packages/x/src/Button.jsx", "src/a.tsx", "src/b.js"}, relPaths(t, root, files))
}

func TestDiscoverFiles_IncludePatterns(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"app/a.tsx":     validColor,
		"app/sub/b.tsx": validColor,
		"lib/c.tsx":     validColor,
	})

	opts := DefaultOptions()
	opts.Include = []string{"app/**/*.tsx"}
	files, err := DiscoverFiles(root, opts, util.DiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"app/a.tsx", "app/sub/b.tsx"}, relPaths(t, root, files))
}

func TestDiscoverFiles_InvalidPattern(t *testing.T) {
	_, err := DiscoverFiles(t.TempDir(), Options{Exclude: []string{"[unclosed"}}, util.DiscardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestRunner_Run(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"src/Bad.tsx":    invalidBackground,
		"src/Good.tsx":   validColor,
		"src/Import.ts":  tokenImport,
		"src/plain.ts":   "export const answer = 42;\n",
		"node_modules/x": invalidBackground,
	})

	r := New(testPlugin(t), nil, nil, util.DiscardLogger())
	report, err := r.Run(context.Background(), root, DefaultOptions(), nil)
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	assert.Equal(t, root, report.Root)
	assert.Equal(t, 4, report.Stats.FilesDiscovered)
	assert.Equal(t, 1, report.Stats.FilesSkipped)
	assert.Equal(t, 3, report.Stats.FilesLinted)
	assert.Equal(t, 1, report.Stats.Errors)
	assert.Equal(t, 1, report.Stats.Warnings)
	assert.True(t, report.HasErrors())

	diags := report.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, lint.SemanticTokenRuleID, diags[0].RuleID)
	assert.True(t, strings.HasSuffix(diags[0].FilePath, "Bad.tsx"))
	assert.Equal(t, lint.TokenImportRuleID, diags[1].RuleID)
}

func TestRunner_ResultsIndependentOfWorkerCount(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 12; i++ {
		name := filepath.Join("src", string(rune('a'+i))+".tsx")
		if i%3 == 0 {
			files[name] = invalidBackground
		} else {
			files[name] = validColor
		}
	}
	root := writeFiles(t, files)
	plugin := testPlugin(t)

	var reports []*Report
	for _, workers := range []int{1, 3, 8} {
		opts := DefaultOptions()
		opts.Workers = workers
		report, err := New(plugin, nil, nil, util.DiscardLogger()).Run(context.Background(), root, opts, nil)
		require.NoError(t, err)
		assert.Equal(t, workers, report.Stats.WorkerCount)
		reports = append(reports, report)
	}

	for _, report := range reports[1:] {
		assert.Equal(t, reports[0].Diagnostics(), report.Diagnostics())
		assert.Equal(t, reports[0].Stats.Errors, report.Stats.Errors)
	}
	assert.Equal(t, 4, reports[0].Stats.Errors)
}

func TestRunner_FailedFilesAndProgress(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.ts":    "",
		"b.ts":    "",
		"fail.ts": "",
	})
	linter := &countingLinter{}

	var mu sync.Mutex
	var seen []int
	report, err := New(linter, nil, nil, util.DiscardLogger()).Run(context.Background(), root, DefaultOptions(),
		func(done, total int, _ string) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 3, total)
			seen = append(seen, done)
		})
	require.NoError(t, err)

	assert.Len(t, report.Results, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "fail.ts", filepath.Base(report.Failed[0].FilePath))
	assert.Equal(t, "boom", report.Failed[0].Message)
	assert.Equal(t, 1, report.Stats.FilesFailed)
	assert.True(t, report.HasErrors())
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRunner_MissingFileFails(t *testing.T) {
	r := New(&countingLinter{}, nil, nil, util.DiscardLogger())
	report, err := r.LintFiles(context.Background(), []string{filepath.Join(t.TempDir(), "missing.ts")}, 2, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	require.Len(t, report.Failed, 1)
}

func TestRunner_Cancellation(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 50; i++ {
		files[filepath.Join("src", strings.Repeat("f", i+1)+".ts")] = ""
	}
	root := writeFiles(t, files)
	paths, err := DiscoverFiles(root, DefaultOptions(), util.DiscardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	linter := &countingLinter{delay: 5 * time.Millisecond}
	r := New(linter, nil, nil, util.DiscardLogger())

	_, err = r.LintFiles(ctx, paths, 2, func(done, _ int, _ string) {
		if done == 3 {
			cancel()
		}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, linter.calls.Load(), int64(50))
}

func TestRunner_EmptyFileList(t *testing.T) {
	report, err := New(&countingLinter{}, nil, nil, util.DiscardLogger()).LintFiles(context.Background(), nil, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.False(t, report.HasErrors())
	assert.Equal(t, util.GetOptimalPoolSize(), report.Stats.WorkerCount)
}

func TestRunner_CacheServesUnchangedFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.tsx": invalidBackground, "b.tsx": validColor})
	cache, err := NewResultCache(16, util.DiscardLogger())
	require.NoError(t, err)
	linter := &countingLinter{}
	r := New(linter, nil, cache, util.DiscardLogger())

	first, err := r.Run(context.Background(), root, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Stats.CacheHits)
	assert.Equal(t, int64(2), linter.calls.Load())

	second, err := r.Run(context.Background(), root, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Stats.CacheHits)
	assert.Equal(t, int64(2), linter.calls.Load())

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.tsx"), []byte(validColor+"\n"), 0o644))
	third, err := r.Run(context.Background(), root, DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Stats.CacheHits)
	assert.Equal(t, int64(3), linter.calls.Load())
}

func TestRunner_ReadsThroughSourceCache(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.tsx": invalidBackground})
	sources := util.NewSourceCache(util.SourceCacheConfig{Logger: util.DiscardLogger()})
	defer sources.Close()

	r := New(testPlugin(t), sources, nil, util.DiscardLogger())
	result, err := r.LintFile(filepath.Join(root, "a.tsx"))
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, 1, sources.Size())

	line, err := sources.Line(filepath.Join(root, "a.tsx"), result.Diagnostics[0].Pos.Line)
	require.NoError(t, err)
	assert.Contains(t, line, "background")
}

func TestRunner_SourceCacheFullFallsBackToDisk(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.tsx": validColor, "b.tsx": invalidBackground})
	sources := util.NewSourceCache(util.SourceCacheConfig{MaxFiles: 1, Logger: util.DiscardLogger()})
	defer sources.Close()

	r := New(testPlugin(t), sources, nil, util.DiscardLogger())
	_, err := r.LintFile(filepath.Join(root, "a.tsx"))
	require.NoError(t, err)

	result, err := r.LintFile(filepath.Join(root, "b.tsx"))
	require.NoError(t, err)
	assert.Len(t, result.Diagnostics, 1)
	assert.Equal(t, 1, sources.Size())
}

func TestResultCache(t *testing.T) {
	cache, err := NewResultCache(2, util.DiscardLogger())
	require.NoError(t, err)

	res := &lint.FileResult{FilePath: "a.ts"}
	hash := ContentHash([]byte("one"))
	cache.Put("a.ts", hash, res)

	got, ok := cache.Get("a.ts", hash)
	require.True(t, ok)
	assert.Same(t, res, got)

	_, ok = cache.Get("a.ts", ContentHash([]byte("two")))
	assert.False(t, ok)

	cache.Put("b.ts", hash, res)
	cache.Put("c.ts", hash, res)
	_, ok = cache.Get("a.ts", hash)
	assert.False(t, ok, "least recently used entry is evicted")

	cache.Remove("b.ts")
	stats := cache.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash([]byte("abc")), ContentHash([]byte("abc")))
	assert.NotEqual(t, ContentHash([]byte("abc")), ContentHash([]byte("abd")))
	assert.Len(t, ContentHash(nil), 16)
}

func TestWorkerPool_StopIsIdempotent(t *testing.T) {
	pool := newWorkerPool(context.Background(), 2, func(string) (*lint.FileResult, bool, error) {
		return &lint.FileResult{}, false, nil
	}, util.DiscardLogger())
	pool.Start()
	pool.Wait()
	pool.Stop()
	pool.Stop()

	assert.Error(t, pool.Submit(fileJob{FilePath: "late.ts"}))
	_, open := <-pool.Results()
	assert.False(t, open)
}

func TestWorkerPool_Stats(t *testing.T) {
	pool := newWorkerPool(context.Background(), 2, func(path string) (*lint.FileResult, bool, error) {
		if path == "bad.ts" {
			return nil, false, errors.New("bad")
		}
		return &lint.FileResult{FilePath: path}, false, nil
	}, util.DiscardLogger())
	pool.Start()
	defer pool.Stop()

	for i, f := range []string{"a.ts", "bad.ts", "b.ts"} {
		require.NoError(t, pool.Submit(fileJob{FilePath: f, JobID: i}))
	}

	results, failures := 0, 0
	for results+failures < 3 {
		select {
		case <-pool.Results():
			results++
		case <-pool.Errors():
			failures++
		}
	}
	assert.Equal(t, 2, results)
	assert.Equal(t, 1, failures)

	stats := pool.GetStats()
	assert.Equal(t, 2, stats.NumWorkers)
	assert.Equal(t, int64(3), stats.JobsSubmitted)
	assert.Equal(t, int64(2), stats.JobsProcessed)
	assert.Equal(t, int64(1), stats.JobsFailed)
}

func TestNewReport(t *testing.T) {
	results := []*lint.FileResult{
		{FilePath: "/p/b.tsx", Diagnostics: []lint.Diagnostic{
			{RuleID: lint.SemanticTokenRuleID, Severity: lint.SeverityError},
			{RuleID: lint.TokenImportRuleID, Severity: lint.SeverityWarning},
		}},
		{FilePath: "/p/a.tsx", Skipped: true, Diagnostics: []lint.Diagnostic{}},
	}

	rep := NewReport("/p", results...)
	assert.Equal(t, "/p", rep.Root)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, "/p/a.tsx", rep.Results[0].FilePath)
	assert.Equal(t, 2, rep.Stats.FilesDiscovered)
	assert.Equal(t, 1, rep.Stats.FilesLinted)
	assert.Equal(t, 1, rep.Stats.FilesSkipped)
	assert.Equal(t, 1, rep.Stats.Errors)
	assert.Equal(t, 1, rep.Stats.Warnings)
	assert.True(t, rep.HasErrors())
}
