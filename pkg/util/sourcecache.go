package util

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edsrzf/mmap-go"
)

// SourceCache gives read access to source files through memory maps.
//
// Files are mapped on first access and stay mapped until Invalidate or
// Close. The linter reads each file once per run and the reporter slices
// the same mapping again to print offending lines, so a mapping saves the
// second read.
//
// If mmap fails (special files, exotic filesystems) the cache falls back to
// os.ReadFile and keeps the bytes on the heap.
type SourceCache interface {
	// Read returns a private copy of the file contents.
	Read(filePath string) ([]byte, error)

	// Snippet returns source[startByte:endByte].
	Snippet(filePath string, startByte, endByte uint32) (string, error)

	// Line returns the 1-based line without its trailing newline.
	Line(filePath string, line int) (string, error)

	// Invalidate drops the mapping for a file that changed on disk.
	Invalidate(filePath string)

	Size() int
	Stats() SourceCacheStats
	Close() error
}

// SourceCacheConfig bounds the cache.
type SourceCacheConfig struct {
	// MaxFiles caps the number of mapped files; 0 means unlimited.
	MaxFiles int
	// MaxMemoryMB caps the total mapped size; 0 means unlimited.
	MaxMemoryMB int
	Logger      *slog.Logger
}

// DefaultSourceCacheConfig suits repositories up to tens of thousands of
// source files.
func DefaultSourceCacheConfig() SourceCacheConfig {
	return SourceCacheConfig{
		MaxFiles:    20000,
		MaxMemoryMB: 2048,
	}
}

// SourceCacheStats are cumulative counters plus the current footprint.
type SourceCacheStats struct {
	Loads         int64
	Hits          int64
	Misses        int64
	MmapFailures  int64
	Invalidations int64
	FilesCached   int
	MappedMB      float64
}

// ErrCacheFull is returned when a new file would exceed a configured limit.
var ErrCacheFull = errors.New("source cache limit reached")

type mappedFile struct {
	data     mmap.MMap
	file     *os.File
	heap     bool
	mappedAt time.Time
}

func (m *mappedFile) bytes() []byte {
	return m.data
}

func (m *mappedFile) release() error {
	if m.heap {
		return nil
	}
	var errs []error
	if m.data != nil {
		if err := m.data.Unmap(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type sourceCache struct {
	config SourceCacheConfig
	logger *slog.Logger

	mu     sync.RWMutex
	files  map[string]*mappedFile
	mapped int64

	loads, hits, misses, mmapFailures, invalidations atomic.Int64
}

// NewSourceCache creates an empty cache.
func NewSourceCache(config SourceCacheConfig) SourceCache {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &sourceCache{
		config: config,
		logger: logger,
		files:  make(map[string]*mappedFile),
	}
}

// view runs fn on the contents of filePath while the mapping is locked,
// loading the file on a miss. fn must not retain data.
func (sc *sourceCache) view(filePath string, fn func(data []byte) error) error {
	sc.mu.RLock()
	if mf, ok := sc.files[filePath]; ok {
		defer sc.mu.RUnlock()
		sc.hits.Add(1)
		return fn(mf.bytes())
	}
	sc.mu.RUnlock()

	sc.mu.Lock()
	defer sc.mu.Unlock()
	mf, ok := sc.files[filePath]
	if ok {
		sc.hits.Add(1)
		return fn(mf.bytes())
	}
	sc.misses.Add(1)

	mf, size, err := sc.load(filePath)
	if err != nil {
		return err
	}
	sc.files[filePath] = mf
	sc.mapped += size
	sc.loads.Add(1)
	return fn(mf.bytes())
}

// load must be called with mu held for writing.
func (sc *sourceCache) load(filePath string) (*mappedFile, int64, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("open %q: %w", filePath, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat %q: %w", filePath, err)
	}
	size := info.Size()

	if err := sc.checkLimits(size); err != nil {
		f.Close()
		return nil, 0, err
	}

	if size == 0 {
		f.Close()
		return &mappedFile{heap: true, mappedAt: time.Now()}, 0, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		sc.mmapFailures.Add(1)
		sc.logger.Warn("mmap failed, reading file instead", "file", filePath, "error", err)

		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, 0, fmt.Errorf("read %q after mmap failure (%v): %w", filePath, err, readErr)
		}
		return &mappedFile{data: mmap.MMap(raw), heap: true, mappedAt: time.Now()}, int64(len(raw)), nil
	}

	return &mappedFile{data: data, file: f, mappedAt: time.Now()}, size, nil
}

func (sc *sourceCache) checkLimits(size int64) error {
	if sc.config.MaxFiles > 0 && len(sc.files) >= sc.config.MaxFiles {
		return fmt.Errorf("%w: %d files (limit %d)", ErrCacheFull, len(sc.files), sc.config.MaxFiles)
	}
	if sc.config.MaxMemoryMB > 0 {
		limit := int64(sc.config.MaxMemoryMB) * 1024 * 1024
		if sc.mapped+size > limit {
			return fmt.Errorf("%w: %.1f MB mapped (limit %d MB)", ErrCacheFull, toMB(sc.mapped+size), sc.config.MaxMemoryMB)
		}
	}
	return nil
}

func (sc *sourceCache) Read(filePath string) ([]byte, error) {
	var out []byte
	err := sc.view(filePath, func(data []byte) error {
		out = bytes.Clone(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (sc *sourceCache) Snippet(filePath string, startByte, endByte uint32) (string, error) {
	var out string
	err := sc.view(filePath, func(data []byte) error {
		if endByte < startByte || int(endByte) > len(data) {
			return fmt.Errorf("invalid byte range [%d,%d) for %q (size %d)", startByte, endByte, filePath, len(data))
		}
		out = string(data[startByte:endByte])
		return nil
	})
	return out, err
}

func (sc *sourceCache) Line(filePath string, line int) (string, error) {
	if line < 1 {
		return "", fmt.Errorf("invalid line %d", line)
	}
	var out string
	err := sc.view(filePath, func(data []byte) error {
		for i := 1; i < line; i++ {
			nl := bytes.IndexByte(data, '\n')
			if nl < 0 {
				return fmt.Errorf("line %d out of range for %q", line, filePath)
			}
			data = data[nl+1:]
		}
		if nl := bytes.IndexByte(data, '\n'); nl >= 0 {
			data = data[:nl]
		}
		out = string(bytes.TrimSuffix(data, []byte("\r")))
		return nil
	})
	return out, err
}

func (sc *sourceCache) Invalidate(filePath string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	mf, ok := sc.files[filePath]
	if !ok {
		return
	}
	delete(sc.files, filePath)
	sc.mapped -= int64(len(mf.bytes()))
	sc.invalidations.Add(1)
	if err := mf.release(); err != nil {
		sc.logger.Warn("failed to release mapping", "file", filePath, "error", err)
	}
}

func (sc *sourceCache) Size() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.files)
}

func (sc *sourceCache) Stats() SourceCacheStats {
	sc.mu.RLock()
	files, mapped := len(sc.files), sc.mapped
	sc.mu.RUnlock()

	return SourceCacheStats{
		Loads:         sc.loads.Load(),
		Hits:          sc.hits.Load(),
		Misses:        sc.misses.Load(),
		MmapFailures:  sc.mmapFailures.Load(),
		Invalidations: sc.invalidations.Load(),
		FilesCached:   files,
		MappedMB:      toMB(mapped),
	}
}

func (sc *sourceCache) Close() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var errs []error
	for path, mf := range sc.files {
		if err := mf.release(); err != nil {
			errs = append(errs, fmt.Errorf("release %q: %w", path, err))
		}
	}
	sc.files = make(map[string]*mappedFile)
	sc.mapped = 0

	sc.logger.Debug("source cache closed",
		"loads", sc.loads.Load(),
		"hits", sc.hits.Load(),
		"mmap_failures", sc.mmapFailures.Load())
	return errors.Join(errs...)
}

func toMB(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
