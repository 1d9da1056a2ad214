package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/util"
)

// Runner lints workspaces in three phases:
//  1. Discovery - walk the tree and select files with doublestar patterns
//  2. Linting - parse and check files on a worker pool
//  3. Reporting - gather results in path order with run statistics
//
// **Usage:**
//
//	r := runner.New(plugin, sources, cache, logger)
//	report, err := r.Run(ctx, "/path/to/workspace", runner.DefaultOptions(), nil)
type Runner struct {
	linter  Linter
	sources util.SourceCache
	cache   *ResultCache
	logger  *slog.Logger
}

// New creates a runner. sources and cache are optional: without sources
// files are read with os.ReadFile, without cache every file is linted on
// every run.
func New(linter Linter, sources util.SourceCache, cache *ResultCache, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		linter:  linter,
		sources: sources,
		cache:   cache,
		logger:  logger,
	}
}

// Run discovers the files under root selected by options and lints them.
func (r *Runner) Run(ctx context.Context, root string, options Options, progress ProgressCallback) (*Report, error) {
	start := time.Now()
	r.logger.Info("starting lint run", "root", root)

	files, err := DiscoverFiles(root, options, r.logger)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	r.logger.Info("file discovery complete", "files_found", len(files), "duration_ms", time.Since(start).Milliseconds())

	report, err := r.LintFiles(ctx, files, options.Workers, progress)
	if err != nil {
		return nil, err
	}
	report.Root = root
	report.Stats.FilesDiscovered = len(files)
	report.Stats.Duration = time.Since(start)

	r.logger.Info("lint run complete",
		"files_linted", report.Stats.FilesLinted,
		"files_failed", report.Stats.FilesFailed,
		"errors", report.Stats.Errors,
		"warnings", report.Stats.Warnings,
		"duration_ms", report.Stats.Duration.Milliseconds())
	return report, nil
}

// LintFiles lints files concurrently with the given number of workers
// (0 selects util.GetOptimalPoolSize). The report does not depend on the
// worker count. A cancelled ctx aborts the run with ctx's error.
func (r *Runner) LintFiles(ctx context.Context, files []string, workers int, progress ProgressCallback) (*Report, error) {
	start := time.Now()
	workers = util.GetOptimalPoolSizeWithOverride(workers)
	report := &Report{
		Results: make([]*lint.FileResult, 0, len(files)),
		Stats:   Stats{FilesDiscovered: len(files), WorkerCount: workers},
	}
	if len(files) == 0 {
		return report, nil
	}

	pool := newWorkerPool(ctx, workers, r.lintPath, r.logger)
	pool.Start()
	defer pool.Stop()

	// The collector must run before jobs are submitted, otherwise Submit
	// blocks on a full queue while nobody drains the results.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		total := len(files)
		done := 0
		results, errs := pool.Results(), pool.Errors()
		for results != nil || errs != nil {
			select {
			case res, ok := <-results:
				if !ok {
					results = nil
					continue
				}
				report.add(res)
				done++
				if progress != nil {
					progress(done, total, res.FilePath)
				}
			case fileErr, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				r.logger.Warn("file lint failed", "file", fileErr.FilePath, "error", fileErr.Message)
				report.Failed = append(report.Failed, fileErr)
				report.Stats.FilesFailed++
				done++
				if progress != nil {
					progress(done, total, fileErr.FilePath)
				}
			}
		}
	}()

	var submitErr error
	for i, file := range files {
		if err := pool.Submit(fileJob{FilePath: file, JobID: i}); err != nil {
			submitErr = err
			break
		}
	}
	pool.Wait()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lint run cancelled: %w", err)
	}
	if submitErr != nil {
		return nil, submitErr
	}

	report.sort()
	report.Stats.Duration = time.Since(start)
	return report, nil
}

// LintFile lints a single file, serving it from the result cache when its
// content is unchanged.
func (r *Runner) LintFile(filePath string) (*lint.FileResult, error) {
	result, _, err := r.lintPath(filePath)
	return result, err
}

// Invalidate forgets everything cached about filePath.
func (r *Runner) Invalidate(filePath string) {
	if r.sources != nil {
		r.sources.Invalidate(filePath)
	}
	if r.cache != nil {
		r.cache.Remove(filePath)
	}
}

func (r *Runner) lintPath(filePath string) (*lint.FileResult, bool, error) {
	source, err := r.read(filePath)
	if err != nil {
		return nil, false, err
	}

	var hash string
	if r.cache != nil {
		hash = ContentHash(source)
		if cached, ok := r.cache.Get(filePath, hash); ok {
			return cached, true, nil
		}
	}

	result, err := r.linter.LintSource(filePath, source)
	if err != nil {
		return nil, false, err
	}
	if r.cache != nil {
		r.cache.Put(filePath, hash, result)
	}
	return result, false, nil
}

func (r *Runner) read(filePath string) ([]byte, error) {
	if r.sources != nil {
		data, err := r.sources.Read(filePath)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, util.ErrCacheFull) {
			return nil, err
		}
		r.logger.Debug("source cache full, reading file directly", "file", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", filePath, err)
	}
	return data, nil
}

// NewReport builds a report with stats from already linted results.
func NewReport(root string, results ...*lint.FileResult) *Report {
	rep := &Report{Root: root}
	for _, res := range results {
		rep.add(jobResult{FilePath: res.FilePath, Result: res})
	}
	rep.Stats.FilesDiscovered = len(results)
	rep.sort()
	return rep
}

func (rep *Report) add(res jobResult) {
	rep.Results = append(rep.Results, res.Result)
	switch {
	case res.Result.Skipped:
		rep.Stats.FilesSkipped++
	default:
		rep.Stats.FilesLinted++
	}
	if res.CacheHit {
		rep.Stats.CacheHits++
	}
	for _, d := range res.Result.Diagnostics {
		switch d.Severity {
		case lint.SeverityError:
			rep.Stats.Errors++
		case lint.SeverityWarning:
			rep.Stats.Warnings++
		}
	}
}

func (rep *Report) sort() {
	sort.Slice(rep.Results, func(i, j int) bool {
		return rep.Results[i].FilePath < rep.Results[j].FilePath
	})
	sort.Slice(rep.Failed, func(i, j int) bool {
		return rep.Failed[i].FilePath < rep.Failed[j].FilePath
	})
}
