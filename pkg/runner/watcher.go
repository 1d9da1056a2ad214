package runner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/tokenlint/pkg/lint"
)

// DefaultDebounce groups the burst of events editors emit for one save.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures a Watcher.
type WatchOptions struct {
	Options

	// Debounce is how long a file must stay quiet before it is re-linted.
	Debounce time.Duration

	// OnResult receives every re-lint result. It is called from timer
	// goroutines and must be safe for concurrent use.
	OnResult func(*lint.FileResult)

	// OnRemove is called when a watched file is removed or renamed away.
	OnRemove func(filePath string)
}

// Watcher re-lints source files as they change on disk.
//
// **Usage:**
//
//	w, err := runner.NewWatcher(r, runner.WatchOptions{
//	    Options:  runner.DefaultOptions(),
//	    OnResult: func(res *lint.FileResult) { ... },
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(root); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	watcher *fsnotify.Watcher
	runner  *Runner
	options WatchOptions
	logger  *slog.Logger
	root    string

	timers   map[string]*time.Timer
	timersMu sync.Mutex

	stopChan chan struct{}
	done     chan struct{}
	stopped  bool
	started  bool
	mu       sync.Mutex
}

// NewWatcher creates a watcher that lints through r.
func NewWatcher(r *Runner, options WatchOptions, logger *slog.Logger) (*Watcher, error) {
	if err := options.ValidatePatterns(); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		watcher:  fsw,
		runner:   r,
		options:  options,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start watches root and every non-excluded directory below it.
func (w *Watcher) Start(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	w.root = root
	if err := w.addTree(root); err != nil {
		return err
	}
	w.started = true
	w.logger.Info("file watcher started", "root", root)

	go w.eventLoop()
	return nil
}

// Stop stops watching and cancels pending re-lints. It is idempotent.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	close(w.stopChan)
	w.mu.Unlock()

	w.timersMu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.timersMu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}
	w.logger.Info("file watcher stopped")
	return err
}

// Pending returns the number of files waiting for their debounce delay.
func (w *Watcher) Pending() int {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()
	return len(w.timers)
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.options.Excluded(w.rel(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) eventLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.options.Excluded(w.rel(path)) {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	if !w.options.Included(w.rel(path)) {
		return
	}
	w.logger.Debug("file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.schedule(path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.remove(path)
	}
}

// schedule re-lints path once it has been quiet for the debounce delay.
func (w *Watcher) schedule(path string) {
	w.timersMu.Lock()
	defer w.timersMu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.options.Debounce, func() {
		w.timersMu.Lock()
		delete(w.timers, path)
		w.timersMu.Unlock()
		w.relint(path)
	})
}

func (w *Watcher) relint(path string) {
	w.runner.Invalidate(path)
	result, err := w.runner.LintFile(path)
	if err != nil {
		w.logger.Warn("failed to re-lint file", "file", path, "error", err)
		return
	}
	w.logger.Debug("file re-linted", "file", path, "diagnostics", len(result.Diagnostics))
	if w.options.OnResult != nil {
		w.options.OnResult(result)
	}
}

func (w *Watcher) remove(path string) {
	w.timersMu.Lock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
		delete(w.timers, path)
	}
	w.timersMu.Unlock()

	w.runner.Invalidate(path)
	if w.options.OnRemove != nil {
		w.options.OnRemove(path)
	}
}
