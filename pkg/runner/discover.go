package runner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/tokenlint/pkg/parser"
)

// ValidatePatterns checks the syntax of every include and exclude pattern.
func (o Options) ValidatePatterns() error {
	for _, pattern := range o.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range o.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return nil
}

// Excluded reports whether relPath (slash separated, relative to the root)
// matches an exclude pattern.
func (o Options) Excluded(relPath string) bool {
	for _, pattern := range o.Exclude {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
		// Match the directory itself so the walk can skip it.
		if matched, _ := doublestar.Match(pattern, relPath+"/"); matched {
			return true
		}
	}
	return false
}

// Included reports whether relPath should be linted: it must be a supported
// source file, not excluded, and match an include pattern when any are set.
func (o Options) Included(relPath string) bool {
	if !parser.IsSupportedFile(relPath) || o.Excluded(relPath) {
		return false
	}
	if len(o.Include) == 0 {
		return true
	}
	for _, pattern := range o.Include {
		if m, _ := doublestar.Match(pattern, relPath); m {
			return true
		}
	}
	return false
}

// DiscoverFiles walks root and returns every file selected by options,
// sorted. Unreadable entries are logged and skipped.
func DiscoverFiles(root string, options Options, logger *slog.Logger) ([]string, error) {
	if err := options.ValidatePatterns(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if options.Excluded(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if options.Included(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
