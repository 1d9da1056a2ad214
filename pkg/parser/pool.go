package parser

import (
	"fmt"
	"log/slog"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// parserPool hands out tree-sitter parsers for one dialect.
//
// Parsers are created lazily up to maxSize. Once the limit is reached,
// acquire blocks until another goroutine releases a parser. A tree-sitter
// parser must never be used by two goroutines at once.
type parserPool struct {
	dialect  Dialect
	language *ts.Language
	idle     chan *ts.Parser
	maxSize  int

	mu      sync.Mutex
	created int

	logger *slog.Logger
}

func newParserPool(dialect Dialect, language *ts.Language, maxSize int, logger *slog.Logger) *parserPool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &parserPool{
		dialect:  dialect,
		language: language,
		idle:     make(chan *ts.Parser, maxSize),
		maxSize:  maxSize,
		logger:   logger,
	}
}

func (p *parserPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.idle:
		return parser, nil
	default:
	}

	p.mu.Lock()
	if p.created >= p.maxSize {
		p.mu.Unlock()
		return <-p.idle, nil
	}

	parser := ts.NewParser()
	if err := parser.SetLanguage(p.language); err != nil {
		p.mu.Unlock()
		parser.Close()
		return nil, fmt.Errorf("set %s grammar: %w", p.dialect, err)
	}
	p.created++
	created := p.created
	p.mu.Unlock()

	p.logger.Debug("created parser", "dialect", p.dialect.String(), "pool_size", created)
	return parser, nil
}

func (p *parserPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.idle <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool overflow, closing parser", "dialect", p.dialect.String())
	}
}

func (p *parserPool) close() int {
	close(p.idle)
	closed := 0
	for parser := range p.idle {
		parser.Close()
		closed++
	}
	return closed
}

func (p *parserPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
