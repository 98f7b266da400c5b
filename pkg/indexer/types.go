package indexer

import (
	"time"

	"github.com/rustlens/rustlens/pkg/engine"
	"github.com/rustlens/rustlens/pkg/semantic"
)

// FileIndex is the unit of caching in the ItemIndexer: everything the
// workspace index keeps for one analyzed file.
type FileIndex struct {
	// FilePath is the absolute path to the file.
	FilePath string

	// Items are the file's collected definitions.
	Items []*semantic.Item

	// Methods is the file's inherent-method table: self type -> method
	// name -> declared return-type text.
	Methods map[string]map[string]string

	// Result holds the annotations emitted for the file.
	Result *engine.Result

	// Timestamp is when the file was indexed (Unix milliseconds).
	Timestamp int64

	// ContentHash is the SHA-256 of the file content, for change
	// detection. May be empty if not computed.
	ContentHash string
}

// ItemIndexerConfig configures the item indexer.
type ItemIndexerConfig struct {
	// MaxCachedFiles bounds the per-file LRU cache. Evicted files keep
	// their items in the path index; only the per-file detail is dropped.
	// Default: 1000.
	MaxCachedFiles int

	// Debug enables verbose logging.
	Debug bool
}

// DefaultItemIndexerConfig returns the default configuration.
func DefaultItemIndexerConfig() ItemIndexerConfig {
	return ItemIndexerConfig{
		MaxCachedFiles: 1000,
		Debug:          false,
	}
}

// ItemIndexerStats reports the indexer's state.
type ItemIndexerStats struct {
	// IndexedFiles is the total number of files indexed (including
	// reindexes).
	IndexedFiles int

	// TotalItems is the count of items currently in the index.
	TotalItems int

	// CachedFiles is the number of files currently in the LRU cache.
	CachedFiles int

	// DirtyFiles is the number of files marked for recomputation.
	DirtyFiles int

	CacheHits    int64
	CacheMisses  int64
	CacheHitRate float64
	Evictions    int64
}

// ScanOptions configures workspace scanning.
type ScanOptions struct {
	// Include patterns (doublestar glob syntax). Empty means the default
	// Rust sources.
	Include []string

	// Exclude patterns, added to the defaults.
	Exclude []string
}

// DefaultScanOptions returns the recommended scan options for a Cargo
// workspace layout.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		Include: []string{"**/*.rs"},
		Exclude: []string{
			"target/**",
			".git/**",
			"vendor/**",
		},
	}
}

// ScanStats describes one workspace scan.
type ScanStats struct {
	FilesDiscovered int
	FilesIndexed    int
	FilesFailed     int

	ItemsIndexed       int
	HintsEmitted       int
	DiagnosticsEmitted int

	TotalTimeMs     int64
	DiscoveryTimeMs int64
	IndexingTimeMs  int64
	FilesPerSecond  float64

	// WorkerCount is the number of workers used.
	WorkerCount int

	// SuccessRate is FilesIndexed / FilesDiscovered (0.0 - 1.0).
	SuccessRate float64

	// Errors holds per-file failures.
	Errors []FileError

	StartTime time.Time
	EndTime   time.Time
}

// FileError is a failure tied to one file.
type FileError struct {
	FilePath string
	Error    error
}

// ProgressCallback is invoked as files finish indexing.
type ProgressCallback func(indexed, total int, currentFile string)

// WatchOptions configures file watching.
type WatchOptions struct {
	// DebounceMs groups rapid changes to one reindex. Default: 200.
	DebounceMs int

	// IgnorePatterns are base-name patterns skipped during watching.
	IgnorePatterns []string
}

// DefaultWatchOptions returns the recommended watch options.
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		DebounceMs: 200,
		IgnorePatterns: []string{
			"*.swp",
			"*.tmp",
			"*~",
		},
	}
}
