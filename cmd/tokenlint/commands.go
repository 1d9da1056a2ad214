package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/gnana997/tokenlint/pkg/lint"
	mcpserver "github.com/gnana997/tokenlint/pkg/mcp"
	"github.com/gnana997/tokenlint/pkg/mcplog"
	"github.com/gnana997/tokenlint/pkg/parser"
	"github.com/gnana997/tokenlint/pkg/report"
	"github.com/gnana997/tokenlint/pkg/runner"
	"github.com/gnana997/tokenlint/pkg/util"
)

// commonFlags are accepted by every command that lints.
type commonFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default .tokenlint/config.yaml)")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&c.logFormat, "log-format", "", "log format: text or json")
}

// session is the linter stack built from a project config.
type session struct {
	cfg    *ProjectConfig
	logger *slog.Logger
	parser *parser.ParserManager
	plugin *lint.Plugin
}

func newSession(root string, flags commonFlags, stderr io.Writer) (*session, error) {
	cfg, err := loadProjectConfig(root, flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.LogFormat = flags.logFormat
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.ParseLogLevel(cfg.LogLevel),
		Format: util.ParseLogFormat(cfg.LogFormat),
		Output: stderr,
	})

	pc, err := cfg.pluginConfig(logger)
	if err != nil {
		return nil, err
	}
	pm := parser.NewParserManager(logger, util.GetOptimalPoolSizeWithOverride(cfg.Workers))
	plugin, err := lint.NewPlugin(pm, pc)
	if err != nil {
		_ = pm.Close()
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, parser: pm, plugin: plugin}, nil
}

func (s *session) Close() {
	if err := s.parser.Close(); err != nil {
		s.logger.Warn("closing parsers", "error", err)
	}
}

// newRunner wires the source cache and result cache. The returned cleanup
// releases the mapped sources.
func (s *session) newRunner() (*runner.Runner, util.SourceCache, func(), error) {
	scfg := util.DefaultSourceCacheConfig()
	scfg.Logger = s.logger
	sources := util.NewSourceCache(scfg)

	cache, err := runner.NewResultCache(runner.DefaultCacheSize, s.logger)
	if err != nil {
		_ = sources.Close()
		return nil, nil, nil, err
	}
	cleanup := func() {
		st := cache.Stats()
		s.logger.Debug("result cache", "entries", st.Entries, "hits", st.Hits, "misses", st.Misses, "evictions", st.Evictions)
		if err := sources.Close(); err != nil {
			s.logger.Warn("closing source cache", "error", err)
		}
	}
	return runner.New(s.plugin, sources, cache, s.logger), sources, cleanup, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "tokenlint: %v\n", err)
	return exitUsage
}

// --- lint ---

func runLint(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	format := fs.String("format", "", "output format: text, json or golangci")
	quiet := fs.Bool("quiet", false, "report errors only")
	workers := fs.Int("workers", 0, "number of lint workers (0 = auto)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fail(stderr, err)
	}
	s, err := newSession(cwd, common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer s.Close()

	if *workers > 0 {
		s.cfg.Workers = *workers
	}
	if *format != "" {
		s.cfg.Format = *format
	}
	f, err := report.ParseFormat(s.cfg.Format)
	if err != nil {
		return fail(stderr, err)
	}

	files, err := collectFiles(paths, s.cfg.runnerOptions(), s.logger)
	if err != nil {
		return fail(stderr, err)
	}

	r, sources, cleanup, err := s.newRunner()
	if err != nil {
		return fail(stderr, err)
	}
	defer cleanup()

	ctx, stop := signalContext()
	defer stop()
	rep, err := r.LintFiles(ctx, files, s.cfg.Workers, nil)
	if err != nil {
		return fail(stderr, err)
	}
	rep.Root = cwd
	rep.Stats.FilesDiscovered = len(files)
	s.logger.Info("lint finished",
		"files", len(files), "errors", rep.Stats.Errors, "warnings", rep.Stats.Warnings,
		"cache_hits", rep.Stats.CacheHits, "duration", rep.Stats.Duration)

	opts := report.Options{
		Format:       f,
		Root:         cwd,
		Sources:      sources,
		Quiet:        *quiet,
		EnabledRules: s.cfg.enabledRules(),
	}
	if err := report.Write(stdout, rep, opts); err != nil {
		return fail(stderr, err)
	}
	if rep.HasErrors() {
		return exitProblems
	}
	return exitOK
}

// collectFiles expands directories through runner discovery and keeps
// explicitly named files as long as their extension is supported. Paths
// are absolute, de-duplicated and sorted.
func collectFiles(paths []string, opts runner.Options, logger *slog.Logger) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			files = append(files, p)
		}
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if !parser.IsSupportedFile(abs) {
				return nil, fmt.Errorf("%s: unsupported file type", p)
			}
			add(abs)
			continue
		}
		found, err := runner.DiscoverFiles(abs, opts, logger)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	sort.Strings(files)
	return files, nil
}

// --- watch ---

func runWatch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	debounce := fs.Duration("debounce", runner.DefaultDebounce, "quiet period before a changed file is re-linted")
	quiet := fs.Bool("quiet", false, "report errors only")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fail(stderr, err)
	}

	s, err := newSession(root, common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer s.Close()

	r, sources, cleanup, err := s.newRunner()
	if err != nil {
		return fail(stderr, err)
	}
	defer cleanup()

	ctx, stop := signalContext()
	defer stop()

	opts := report.Options{Format: report.FormatText, Root: root, Sources: sources, Quiet: *quiet}
	var mu sync.Mutex
	write := func(rep *runner.Report) {
		mu.Lock()
		defer mu.Unlock()
		if err := report.Write(stdout, rep, opts); err != nil {
			s.logger.Error("writing report", "error", err)
		}
	}

	options := s.cfg.runnerOptions()
	initial, err := r.Run(ctx, root, options, nil)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return exitOK
		}
		return fail(stderr, err)
	}
	write(initial)

	w, err := runner.NewWatcher(r, runner.WatchOptions{
		Options:  options,
		Debounce: *debounce,
		OnResult: func(res *lint.FileResult) {
			write(runner.NewReport(root, res))
		},
		OnRemove: func(filePath string) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(stdout, "removed %s\n", filePath)
		},
	}, s.logger)
	if err != nil {
		return fail(stderr, err)
	}
	if err := w.Start(root); err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stderr, "watching %s (Ctrl+C to stop)\n", root)

	<-ctx.Done()
	if err := w.Stop(); err != nil {
		s.logger.Warn("stopping watcher", "error", err)
	}
	return exitOK
}

// --- serve ---

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	common.register(fs)
	mcpLog := fs.String("mcp-log", "", "append one JSON line per tool call to this file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fail(stderr, err)
	}
	s, err := newSession(cwd, common, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer s.Close()

	if *mcpLog != "" {
		s.cfg.MCPLog = *mcpLog
	}
	callLog, err := mcplog.NewLogger(s.cfg.MCPLog)
	if err != nil {
		return fail(stderr, err)
	}
	if callLog != nil {
		defer callLog.Close()
	}

	start := time.Now()
	s.logger.Info("serving MCP on stdio", "version", version, "mcp_log", s.cfg.MCPLog)
	srv := mcpserver.NewServer(s.plugin, callLog)
	if err := srv.ServeStdio(); err != nil {
		return fail(stderr, fmt.Errorf("server error: %w", err))
	}
	s.logger.Info("MCP session ended", "uptime", time.Since(start))
	return exitOK
}

// --- init ---

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "overwrite an existing config")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	path, err := writeDefaultConfig(root, *force)
	if err != nil {
		return fail(stderr, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", path)
	return exitOK
}
