// Package util provides shared infrastructure: structured logging, pool
// sizing, and a memory-mapped file cache.
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// FileCache provides fast repeated access to source files using
// memory-mapped regions.
//
// The indexer and the CLI both read the same files many times (once to
// parse, again to slice out snippet text by byte range); mmap makes the
// byte-range slicing O(1) and lets the OS manage which pages are resident.
//
// Thread-safe: reads don't block each other (RWMutex), only loads and
// Close take the write lock.
type FileCache interface {
	// Get returns the mapped file, loading and mapping it on first access.
	Get(filePath string) (*MappedFile, error)

	// Slice extracts source text by 0-based byte offsets
	// (start inclusive, end exclusive).
	Slice(filePath string, startByte, endByte uint32) (string, error)

	// Size returns the number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases file descriptors.
	Close() error
}

// FileCacheConfig controls FileCache limits.
type FileCacheConfig struct {
	// MaxFiles caps the number of cached files. 0 means unlimited.
	MaxFiles int

	// MaxMemoryMB caps mapped virtual memory (address space, not RAM).
	// 0 means unlimited.
	MaxMemoryMB int

	// Logger for warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns limits suitable for medium workspaces.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:    10000,
		MaxMemoryMB: 2048,
	}
}

// MappedFile is one cached, memory-mapped source file.
type MappedFile struct {
	// Path is the absolute path of the source file.
	Path string

	// Data is the mapped region. Can be sliced directly by byte offset.
	// Nil for empty files.
	Data mmap.MMap

	// File is the underlying descriptor, kept open until Close.
	// Nil when the entry came from the ReadFile fallback.
	File *os.File

	// Size is the file size in bytes.
	Size int64

	// MappedAt is when the file was first mapped.
	MappedAt time.Time
}

// FileCacheStats tracks cache behavior.
type FileCacheStats struct {
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	MmapFailures  int64
	TotalMappedMB float64
}

// NewFileCache creates a FileCache. A nil config gets defaults.
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &fileCache{
		config: *config,
		cache:  make(map[string]*MappedFile),
		logger: config.Logger,
	}
}

type fileCache struct {
	config FileCacheConfig
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*MappedFile

	hits         int64
	misses       int64
	mmapFailures int64
}

func (fc *fileCache) Get(filePath string) (*MappedFile, error) {
	fc.mu.RLock()
	mf, ok := fc.cache[filePath]
	fc.mu.RUnlock()
	if ok {
		fc.count(&fc.hits)
		return mf, nil
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Another goroutine may have loaded it while we waited for the lock.
	if mf, ok := fc.cache[filePath]; ok {
		fc.hits++
		return mf, nil
	}
	fc.misses++

	if err := fc.checkLimitsLocked(filePath); err != nil {
		return nil, err
	}

	mf, err := fc.loadLocked(filePath)
	if err != nil {
		return nil, err
	}
	fc.cache[filePath] = mf
	return mf, nil
}

func (fc *fileCache) Slice(filePath string, startByte, endByte uint32) (string, error) {
	mf, err := fc.Get(filePath)
	if err != nil {
		return "", err
	}
	if endByte < startByte || int64(endByte) > mf.Size {
		return "", fmt.Errorf("invalid byte range [%d:%d) for %q (size %d)",
			startByte, endByte, filePath, mf.Size)
	}
	if len(mf.Data) == 0 {
		return "", nil
	}
	return string(mf.Data[startByte:endByte]), nil
}

func (fc *fileCache) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.cache)
}

func (fc *fileCache) Stats() FileCacheStats {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return FileCacheStats{
		FilesCached:   len(fc.cache),
		CacheHits:     fc.hits,
		CacheMisses:   fc.misses,
		MmapFailures:  fc.mmapFailures,
		TotalMappedMB: fc.mappedMBLocked(),
	}
}

func (fc *fileCache) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var firstErr error
	for path, mf := range fc.cache {
		if mf.File != nil {
			if mf.Data != nil {
				if err := mf.Data.Unmap(); err != nil && firstErr == nil {
					firstErr = fmt.Errorf("failed to unmap %q: %w", path, err)
				}
			}
			mf.File.Close()
		}
	}
	fc.cache = make(map[string]*MappedFile)
	return firstErr
}

// checkLimitsLocked verifies limits before loading one more file.
// Must be called while holding mu.
func (fc *fileCache) checkLimitsLocked(filePath string) error {
	if fc.config.MaxFiles > 0 && len(fc.cache) >= fc.config.MaxFiles {
		return fmt.Errorf("file cache limit reached: %d files (limit %d)",
			len(fc.cache), fc.config.MaxFiles)
	}

	if fc.config.MaxMemoryMB > 0 {
		stat, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("failed to stat %q: %w", filePath, err)
		}
		newMB := float64(stat.Size()) / (1024 * 1024)
		if fc.mappedMBLocked()+newMB >= float64(fc.config.MaxMemoryMB) {
			return fmt.Errorf("file cache memory limit reached (limit %d MB)",
				fc.config.MaxMemoryMB)
		}
	}

	return nil
}

// loadLocked opens and maps a file, falling back to os.ReadFile when
// mmap fails (network filesystems, exotic mounts). Must hold mu.
func (fc *fileCache) loadLocked(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat %q: %w", filePath, err)
	}

	// Zero bytes cannot be mapped.
	if stat.Size() == 0 {
		return &MappedFile{Path: filePath, File: file, MappedAt: time.Now()}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using ReadFile fallback",
			"file", filePath, "error", err)
		fc.mmapFailures++
		file.Close()

		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap and fallback both failed for %q: %w", filePath, readErr)
		}
		return &MappedFile{
			Path:     filePath,
			Data:     mmap.MMap(raw),
			Size:     int64(len(raw)),
			MappedAt: time.Now(),
		}, nil
	}

	return &MappedFile{
		Path:     filePath,
		Data:     data,
		File:     file,
		Size:     stat.Size(),
		MappedAt: time.Now(),
	}, nil
}

func (fc *fileCache) mappedMBLocked() float64 {
	var total int64
	for _, mf := range fc.cache {
		total += mf.Size
	}
	return float64(total) / (1024 * 1024)
}

// count bumps a counter under the write lock; used on the RLock fast path
// where we cannot mutate in place.
func (fc *fileCache) count(field *int64) {
	fc.mu.Lock()
	*field++
	fc.mu.Unlock()
}
