package util

import "runtime"

// GetOptimalPoolSize returns min(max(2*NumCPU, 4), 32).
//
// Tree-sitter parsing runs in cgo, so twice the core count keeps cores busy
// while some goroutines sit in C calls. The runner's worker pool and the
// parser pools both use this value so a worker never waits for a parser.
func GetOptimalPoolSize() int {
	size := runtime.NumCPU() * 2
	if size < 4 {
		size = 4
	}
	if size > 32 {
		size = 32
	}
	return size
}

// GetOptimalPoolSizeWithOverride returns override when positive and
// GetOptimalPoolSize otherwise.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
