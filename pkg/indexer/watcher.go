package indexer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher reindexes changed files incrementally. Rapid changes to
// the same file are debounced into one reindex.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	scanner *WorkspaceScanner
	indexer *ItemIndexer
	logger  *slog.Logger
	options WatchOptions

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopChan chan struct{}
	stopped  bool
	mu       sync.Mutex
}

// NewFileWatcher creates a file watcher backed by the scanner's engine
// and indexer.
func NewFileWatcher(scanner *WorkspaceScanner, options WatchOptions, logger *slog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.DebounceMs == 0 {
		options.DebounceMs = 200
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &FileWatcher{
		watcher:        watcher,
		scanner:        scanner,
		indexer:        scanner.Indexer(),
		logger:         logger,
		options:        options,
		debounceTimers: make(map[string]*time.Timer),
		stopChan:       make(chan struct{}),
	}, nil
}

// Start begins watching rootPath and its subdirectories in a background
// goroutine.
func (fw *FileWatcher) Start(rootPath string) error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already stopped")
	}
	fw.mu.Unlock()

	// fsnotify watches are per-directory, not recursive.
	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if fw.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set up watches: %w", err)
	}

	fw.logger.Info("file watcher started", "root", rootPath)

	go fw.eventLoop()
	return nil
}

// Stop stops the watcher. Idempotent.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return nil
	}
	fw.stopped = true
	close(fw.stopChan)

	fw.debounceMu.Lock()
	for _, timer := range fw.debounceTimers {
		timer.Stop()
	}
	fw.debounceTimers = make(map[string]*time.Timer)
	fw.debounceMu.Unlock()

	err := fw.watcher.Close()
	fw.logger.Info("file watcher stopped")
	return err
}

func (fw *FileWatcher) eventLoop() {
	for {
		select {
		case <-fw.stopChan:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	filePath := event.Name

	if fw.shouldIgnore(filePath) {
		return
	}
	if !strings.HasSuffix(filePath, ".rs") {
		// New directories need a watch of their own.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(filePath); err == nil && info.IsDir() {
				if err := fw.watcher.Add(filePath); err != nil {
					fw.logger.Warn("failed to watch new directory", "path", filePath, "error", err)
				}
			}
		}
		return
	}

	fw.logger.Debug("file event", "op", event.Op.String(), "file", filePath)

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		fw.debounceReindex(filePath)
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		fw.indexer.RemoveFile(filePath)
	}
}

// debounceReindex schedules a reindex after the debounce delay,
// restarting the clock on every further event for the same file.
func (fw *FileWatcher) debounceReindex(filePath string) {
	// Dirty right away so stale queries are detectable before the
	// debounce fires.
	fw.indexer.InvalidateFile(filePath)

	fw.debounceMu.Lock()
	defer fw.debounceMu.Unlock()

	if timer, exists := fw.debounceTimers[filePath]; exists {
		timer.Stop()
	}

	fw.debounceTimers[filePath] = time.AfterFunc(
		time.Duration(fw.options.DebounceMs)*time.Millisecond,
		func() {
			fw.reindexFile(filePath)

			fw.debounceMu.Lock()
			delete(fw.debounceTimers, filePath)
			fw.debounceMu.Unlock()
		},
	)
}

func (fw *FileWatcher) reindexFile(filePath string) {
	// Read fresh from disk: a cached mapping may predate the change.
	content, err := os.ReadFile(filePath)
	if err != nil {
		fw.logger.Warn("failed to read file for reindexing",
			"file", filePath, "error", err)
		return
	}

	entry, err := fw.scanner.IndexFile(filePath, content)
	if err != nil {
		fw.logger.Warn("failed to reindex file",
			"file", filePath, "error", err)
		return
	}

	fw.logger.Debug("file reindexed",
		"file", filePath,
		"items", len(entry.Items))
}

func (fw *FileWatcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)

	for _, pattern := range fw.options.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	switch base {
	case "target", ".git", "vendor":
		return true
	}
	return false
}

// FileWatcherStats reports watcher state.
type FileWatcherStats struct {
	PendingReindexes int
	IsRunning        bool
}

// Stats returns current watcher statistics.
func (fw *FileWatcher) Stats() FileWatcherStats {
	fw.debounceMu.Lock()
	pending := len(fw.debounceTimers)
	fw.debounceMu.Unlock()

	fw.mu.Lock()
	running := !fw.stopped
	fw.mu.Unlock()

	return FileWatcherStats{
		PendingReindexes: pending,
		IsRunning:        running,
	}
}
