// Package parser wraps tree-sitter grammars for JavaScript, TypeScript and
// TSX behind a pooled, goroutine-safe manager.
package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/gnana997/tokenlint/pkg/util"
)

// ParserManager owns one parser pool per dialect.
//
// Pools are created on first use. Callers own the returned trees and must
// Close them; the manager itself must be closed when no longer needed.
//
// Example:
//
//	pm := parser.NewParserManager(logger, 0)
//	defer pm.Close()
//
//	tree, err := pm.ParseFile(src, "Button.tsx")
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	mu       sync.RWMutex
	pools    map[Dialect]*parserPool
	poolSize int
	logger   *slog.Logger

	parses     atomic.Int64
	errorTrees atomic.Int64
}

// NewParserManager creates a manager. poolSize <= 0 selects
// util.GetOptimalPoolSize so the pool matches the runner's worker count.
func NewParserManager(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:    make(map[Dialect]*parserPool),
		poolSize: util.GetOptimalPoolSizeWithOverride(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the given dialect.
//
// Trees containing syntax errors are still returned; the linter analyses
// whatever structure tree-sitter recovered.
func (pm *ParserManager) Parse(source []byte, dialect Dialect) (*ts.Tree, error) {
	if dialect.Language == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}

	pool, err := pm.pool(dialect)
	if err != nil {
		return nil, err
	}

	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire %s parser: %w", dialect, err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	pm.parses.Add(1)
	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", dialect)
	}
	if tree.RootNode().HasError() {
		pm.errorTrees.Add(1)
		pm.logger.Debug("parse tree contains errors", "dialect", dialect.String())
	}
	return tree, nil
}

// ParseFile detects the dialect from filePath and parses source.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	dialect := DetectDialect(filePath)
	if dialect.Language == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, dialect)
}

// Close releases every pooled parser. The manager is unusable afterwards.
func (pm *ParserManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	closed := 0
	for _, pool := range pm.pools {
		closed += pool.close()
	}
	pm.pools = make(map[Dialect]*parserPool)

	pm.logger.Debug("parser manager closed",
		"parsers_closed", closed,
		"parses", pm.parses.Load(),
		"error_trees", pm.errorTrees.Load())
	return nil
}

func (pm *ParserManager) pool(dialect Dialect) (*parserPool, error) {
	pm.mu.RLock()
	pool, ok := pm.pools[dialect]
	pm.mu.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pool, ok = pm.pools[dialect]; ok {
		return pool, nil
	}

	lang, err := grammar(dialect)
	if err != nil {
		return nil, err
	}
	pool = newParserPool(dialect, lang, pm.poolSize, pm.logger)
	pm.pools[dialect] = pool
	pm.logger.Debug("created parser pool", "dialect", dialect.String(), "max_size", pm.poolSize)
	return pool, nil
}

func grammar(dialect Dialect) (*ts.Language, error) {
	switch dialect.Language {
	case LanguageTypeScript:
		if dialect.TSX {
			return ts.NewLanguage(ts_typescript.LanguageTSX()), nil
		}
		return ts.NewLanguage(ts_typescript.LanguageTypescript()), nil
	case LanguageJavaScript:
		return ts.NewLanguage(ts_javascript.Language()), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", dialect.Language)
	}
}

// Stats reports parser usage.
func (pm *ParserManager) Stats() ParserStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	created := 0
	for _, pool := range pm.pools {
		created += pool.size()
	}
	return ParserStats{
		ParsersCreated: created,
		Parses:         pm.parses.Load(),
		ErrorTrees:     pm.errorTrees.Load(),
	}
}

// ParserStats contains parser usage counters.
type ParserStats struct {
	ParsersCreated int
	Parses         int64
	ErrorTrees     int64
}
