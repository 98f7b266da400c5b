package parser

import (
	"github.com/rustlens/rustlens/pkg/util"
)

// getDefaultPoolSize returns the default pool size based on CPU count.
//
// Delegates to util.GetOptimalPoolSize() so the parser pool and the
// indexer worker pool are always sized identically; a smaller parser pool
// would make workers block waiting for a free parser.
func getDefaultPoolSize() int {
	return util.GetOptimalPoolSize()
}

// getPoolSize returns the pool size to use, allowing for override.
// If override is 0, returns the default based on CPU count.
func getPoolSize(override int) int {
	return util.GetOptimalPoolSizeWithOverride(override)
}
