package runner

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/minio/highwayhash"

	"github.com/gnana997/tokenlint/pkg/lint"
)

// DefaultCacheSize is the number of file results kept by default.
const DefaultCacheSize = 4096

type cachedResult struct {
	hash   string
	result *lint.FileResult
}

// ResultCache remembers lint results per file, keyed by a hash of the
// content they were computed from. An entry is only served while the
// file's content hash is unchanged, so watch mode and repeated runs skip
// unchanged files. Least recently used entries are evicted.
//
// Results depend on the rule configuration; a cache must not be shared
// between plugins configured differently.
type ResultCache struct {
	entries *lru.Cache[string, cachedResult]
	logger  *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewResultCache creates a cache holding up to size files; size <= 0
// selects DefaultCacheSize.
func NewResultCache(size int, logger *slog.Logger) (*ResultCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := lru.New[string, cachedResult](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &ResultCache{entries: entries, logger: logger}, nil
}

// hashKey is the fixed HighwayHash key. Hashes only need to be stable
// within one process, not secret.
var hashKey = []byte("tokenlint/result-cache/highway32")

// ContentHash returns the hex HighwayHash-64 of source.
func ContentHash(source []byte) string {
	return fmt.Sprintf("%016x", highwayhash.Sum64(source, hashKey))
}

// Get returns the cached result for filePath if it was computed from
// content with the given hash.
func (rc *ResultCache) Get(filePath, hash string) (*lint.FileResult, bool) {
	entry, ok := rc.entries.Get(filePath)
	if !ok || entry.hash != hash {
		rc.misses.Add(1)
		return nil, false
	}
	rc.hits.Add(1)
	return entry.result, true
}

// Put stores result for filePath.
func (rc *ResultCache) Put(filePath, hash string, result *lint.FileResult) {
	if rc.entries.Add(filePath, cachedResult{hash: hash, result: result}) {
		rc.evictions.Add(1)
		rc.logger.Debug("result cache full, evicted least recently used file", "file", filePath)
	}
}

// Remove forgets filePath.
func (rc *ResultCache) Remove(filePath string) {
	rc.entries.Remove(filePath)
}

// Len returns the number of cached files.
func (rc *ResultCache) Len() int {
	return rc.entries.Len()
}

// CacheStats are cumulative cache counters.
type CacheStats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Stats returns the cache counters.
func (rc *ResultCache) Stats() CacheStats {
	return CacheStats{
		Entries:   rc.entries.Len(),
		Hits:      rc.hits.Load(),
		Misses:    rc.misses.Load(),
		Evictions: rc.evictions.Load(),
	}
}
