package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rustlens/rustlens/pkg/engine"
	"github.com/rustlens/rustlens/pkg/util"
)

// WorkspaceScanner indexes whole workspaces: discover matching files,
// analyze them in parallel through the worker pool, and feed the results
// into the item indexer.
type WorkspaceScanner struct {
	engine  *engine.Engine
	indexer *ItemIndexer
	files   util.FileCache
	logger  *slog.Logger
}

// NewWorkspaceScanner creates a workspace scanner. files may be nil to
// read straight from the filesystem.
func NewWorkspaceScanner(eng *engine.Engine, indexer *ItemIndexer, files util.FileCache, logger *slog.Logger) *WorkspaceScanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceScanner{
		engine:  eng,
		indexer: indexer,
		files:   files,
		logger:  logger,
	}
}

// Indexer returns the scanner's item indexer.
func (ws *WorkspaceScanner) Indexer() *ItemIndexer {
	return ws.indexer
}

// ScanWorkspace discovers and indexes every matching file under
// rootPath. progressCallback may be nil.
func (ws *WorkspaceScanner) ScanWorkspace(rootPath string, options ScanOptions, progressCallback ProgressCallback) (*ScanStats, error) {
	startTime := time.Now()
	stats := &ScanStats{
		StartTime: startTime,
		Errors:    make([]FileError, 0),
	}

	ws.logger.Info("starting workspace scan", "root", rootPath)

	discoveryStart := time.Now()
	files, err := ws.discoverFiles(rootPath, options)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTimeMs = time.Since(discoveryStart).Milliseconds()

	if len(files) == 0 {
		ws.logger.Warn("no files matched scan patterns", "root", rootPath)
		stats.EndTime = time.Now()
		stats.TotalTimeMs = time.Since(startTime).Milliseconds()
		return stats, nil
	}

	indexingStart := time.Now()
	if err := ws.processFiles(files, stats, progressCallback); err != nil {
		return nil, fmt.Errorf("file processing failed: %w", err)
	}
	stats.IndexingTimeMs = time.Since(indexingStart).Milliseconds()

	stats.EndTime = time.Now()
	stats.TotalTimeMs = time.Since(startTime).Milliseconds()

	if stats.FilesIndexed > 0 && stats.IndexingTimeMs > 0 {
		stats.FilesPerSecond = float64(stats.FilesIndexed) / (float64(stats.IndexingTimeMs) / 1000.0)
	}
	if stats.FilesDiscovered > 0 {
		stats.SuccessRate = float64(stats.FilesIndexed) / float64(stats.FilesDiscovered)
	}

	ws.logger.Info("workspace scan complete",
		"files_indexed", stats.FilesIndexed,
		"files_failed", stats.FilesFailed,
		"items", stats.ItemsIndexed,
		"hints", stats.HintsEmitted,
		"diagnostics", stats.DiagnosticsEmitted,
		"duration_ms", stats.TotalTimeMs)

	return stats, nil
}

// IndexFile analyzes and indexes one file synchronously. Used by the
// watcher for incremental updates.
func (ws *WorkspaceScanner) IndexFile(filePath string, content []byte) (*FileIndex, error) {
	result, table, err := ws.engine.AnalyzeForIndex(context.Background(), filePath, content)
	if err != nil {
		return nil, err
	}
	return ws.indexer.AddFile(filePath, table, result, content), nil
}

// discoverFiles walks the tree collecting files that match the include
// patterns and none of the excludes.
func (ws *WorkspaceScanner) discoverFiles(rootPath string, options ScanOptions) ([]string, error) {
	if len(options.Include) == 0 {
		options.Include = DefaultScanOptions().Include
	}

	for _, pattern := range append(options.Include, options.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern: %s", pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ws.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		for _, pattern := range options.Exclude {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		for _, pattern := range options.Include {
			if matched, _ := doublestar.PathMatch(pattern, relPath); matched {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// processFiles runs the worker pool over the files and indexes results
// as they arrive.
func (ws *WorkspaceScanner) processFiles(files []string, stats *ScanStats, progressCallback ProgressCallback) error {
	totalFiles := len(files)

	numWorkers := util.GetOptimalPoolSize()
	stats.WorkerCount = numWorkers

	pool := NewWorkerPool(numWorkers, ws.engine, ws.files, ws.logger)
	pool.Start()
	defer pool.Stop()

	var indexed, failed atomic.Int32

	// The collector must run before jobs are submitted: submission blocks
	// when the jobs channel fills, and only the collector drains results.
	done := make(chan struct{})
	go func() {
		defer close(done)

		for {
			select {
			case result, ok := <-pool.Results():
				if !ok {
					return
				}

				ws.indexer.AddFile(result.FilePath, result.Table, result.Result, result.Content)

				stats.ItemsIndexed += result.Table.Len()
				stats.HintsEmitted += len(result.Result.Hints)
				stats.DiagnosticsEmitted += len(result.Result.Diagnostics)
				stats.FilesIndexed++

				count := indexed.Add(1)
				if progressCallback != nil {
					progressCallback(int(count), totalFiles, result.FilePath)
				}
				if int(count)+int(failed.Load()) >= totalFiles {
					return
				}

			case fileErr, ok := <-pool.Errors():
				if !ok {
					return
				}

				stats.Errors = append(stats.Errors, fileErr)
				stats.FilesFailed++

				ws.logger.Warn("file analysis failed",
					"file", fileErr.FilePath,
					"error", fileErr.Error)

				count := failed.Add(1)
				if int(indexed.Load())+int(count) >= totalFiles {
					return
				}
			}
		}
	}()

	for i, file := range files {
		if err := pool.Submit(FileJob{FilePath: file, JobID: i}); err != nil {
			return fmt.Errorf("failed to submit job for %s: %w", file, err)
		}
	}
	pool.FinishSubmitting()

	<-done
	return nil
}
