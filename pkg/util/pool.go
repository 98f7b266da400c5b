package util

import "runtime"

// GetOptimalPoolSize returns the optimal pool size for CPU-bound tasks.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// 2x the core count keeps the pipeline busy while goroutines sit inside
// CGO calls (tree-sitter parsing); the floor guarantees some parallelism
// on small machines and the cap bounds memory on large ones.
//
// Used for both the parser pool (parsers per grammar) and the indexer
// worker pool. The two MUST agree, otherwise workers block waiting for
// parsers.
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

// GetOptimalPoolSizeWithOverride returns pool size with optional override.
//
// If override > 0, uses override value (for testing/tuning).
// Otherwise, uses GetOptimalPoolSize().
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
