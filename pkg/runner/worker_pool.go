package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/util"
)

// fileJob is one file to lint.
type fileJob struct {
	FilePath string
	JobID    int
}

// jobResult is the outcome of one job.
type jobResult struct {
	FilePath string
	Result   *lint.FileResult
	CacheHit bool
	JobID    int
}

// lintFunc lints one file; it is called concurrently from every worker.
type lintFunc func(filePath string) (*lint.FileResult, bool, error)

// WorkerPool runs lint jobs on a fixed set of goroutines.
//
// **Usage:**
//
//	pool := newWorkerPool(ctx, workers, fn, logger)
//	pool.Start()
//	defer pool.Stop()
//
//	// Start consuming Results() and Errors() before submitting,
//	// otherwise Submit blocks once the queue is full.
//	for _, f := range files {
//	    pool.Submit(fileJob{FilePath: f})
//	}
//	pool.Wait()
//
// Worker count should match the parser pool size so workers never wait
// for a parser; both default to util.GetOptimalPoolSize.
type WorkerPool struct {
	numWorkers int
	jobs       chan fileJob
	results    chan jobResult
	errors     chan FileError
	wg         sync.WaitGroup
	lint       lintFunc
	logger     *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

func newWorkerPool(ctx context.Context, numWorkers int, fn lintFunc, logger *slog.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = util.GetOptimalPoolSize()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan fileJob, numWorkers*2),
		results:    make(chan jobResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		lint:       fn,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spawns the workers. Calling it twice is a no-op.
func (wp *WorkerPool) Start() {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}
	wp.logger.Debug("starting worker pool", "workers", wp.numWorkers)
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for {
		select {
		case <-wp.ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processJob(id, job)
		}
	}
}

func (wp *WorkerPool) processJob(workerID int, job fileJob) {
	result, hit, err := wp.lint(job.FilePath)
	if err != nil {
		wp.logger.Debug("lint failed", "worker_id", workerID, "file", job.FilePath, "error", err)
		wp.jobsFailed.Add(1)
		select {
		case wp.errors <- newFileError(job.FilePath, err):
		case <-wp.ctx.Done():
		}
		return
	}

	wp.jobsProcessed.Add(1)
	select {
	case wp.results <- jobResult{FilePath: job.FilePath, Result: result, CacheHit: hit, JobID: job.JobID}:
	case <-wp.ctx.Done():
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (wp *WorkerPool) Submit(job fileJob) error {
	if wp.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}
	wp.jobsSubmitted.Add(1)
	select {
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool cancelled: %w", wp.ctx.Err())
	case wp.jobs <- job:
		return nil
	}
}

// Results returns the result channel.
func (wp *WorkerPool) Results() <-chan jobResult {
	return wp.results
}

// Errors returns the per-file error channel.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the job queue so workers exit once it drains.
// It is idempotent.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
	}
}

// Wait closes the queue, lets the workers drain it and closes the output
// channels. Consumers see both channels close once every job is done.
func (wp *WorkerPool) Wait() {
	wp.shutdown(false)
}

// Stop cancels outstanding jobs, waits for the workers and closes the
// output channels. It is idempotent and safe to call after Wait.
func (wp *WorkerPool) Stop() {
	wp.shutdown(true)
}

func (wp *WorkerPool) shutdown(cancel bool) {
	if cancel {
		defer wp.cancel()
	}
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}
	wp.FinishSubmitting()
	if cancel {
		wp.cancel()
	}
	wp.wg.Wait()
	close(wp.results)
	close(wp.errors)

	wp.logger.Debug("worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// GetStats returns the pool counters.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:    wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
		QueueLength:   len(wp.jobs),
	}
}

// WorkerPoolStats contains worker pool counters.
type WorkerPoolStats struct {
	NumWorkers    int
	JobsSubmitted int64
	JobsProcessed int64
	JobsFailed    int64
	QueueLength   int
}
