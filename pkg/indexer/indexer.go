// Package indexer maintains the workspace item index: parallel scanning
// of Rust sources, an LRU-backed per-file cache of items and
// annotations, incremental reindexing through a file watcher, and export
// of the indexed workspace as crate metadata.
package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rustlens/rustlens/pkg/engine"
	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/semantic"
)

// ItemIndexer provides O(1) item lookups by qualified path with lazy
// invalidation.
//
// Items are kept in a flat hash map keyed by module-qualified path; a
// reverse file index makes removal cheap, and an LRU cache bounds the
// per-file detail (annotations, method tables). A file change marks the
// entry dirty without recomputing anything until a caller asks.
type ItemIndexer struct {
	// items maps qualified item path -> item (O(1) lookups).
	items map[string]*semantic.Item

	// fileCache bounds per-file detail, evicting least recently used.
	fileCache *lru.Cache[string, *FileIndex]

	// fileToItems maps file path -> item paths, for removal.
	fileToItems map[string][]string

	// dirtyFiles marks files needing recomputation.
	dirtyFiles map[string]bool

	mu sync.RWMutex

	indexedFiles atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	evictions    atomic.Int64

	config ItemIndexerConfig
	logger *slog.Logger
}

// NewItemIndexer creates an item indexer. Call Close when done.
func NewItemIndexer(config ItemIndexerConfig, logger *slog.Logger) *ItemIndexer {
	if config.MaxCachedFiles == 0 {
		config.MaxCachedFiles = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}

	idx := &ItemIndexer{
		items:       make(map[string]*semantic.Item, 4096),
		fileToItems: make(map[string][]string, 256),
		dirtyFiles:  make(map[string]bool, 64),
		config:      config,
		logger:      logger,
	}

	cache, err := lru.NewWithEvict(config.MaxCachedFiles, func(key string, value *FileIndex) {
		idx.evictions.Add(1)
		if config.Debug {
			logger.Debug("evicting file from index cache", "path", key, "items", len(value.Items))
		}
	})
	if err != nil {
		// Only possible with a non-positive size.
		panic(fmt.Sprintf("failed to create file cache: %v", err))
	}
	idx.fileCache = cache

	logger.Info("item indexer initialized", "max_cached_files", config.MaxCachedFiles)
	return idx
}

// AddFile replaces a file's entry in the index with freshly analyzed
// data. Safe for concurrent calls.
func (idx *ItemIndexer) AddFile(filePath string, table *semantic.ItemTable, result *engine.Result, content []byte) *FileIndex {
	items := table.Items()

	entry := &FileIndex{
		FilePath:  filePath,
		Items:     items,
		Methods:   table.MethodSets(),
		Result:    result,
		Timestamp: time.Now().UnixMilli(),
	}
	if content != nil {
		entry.ContentHash = ComputeContentHash(content)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.removeFileLocked(filePath)

	paths := make([]string, 0, len(items))
	for _, it := range items {
		idx.items[it.Path] = it
		paths = append(paths, it.Path)
	}
	idx.fileToItems[filePath] = paths
	idx.fileCache.Add(filePath, entry)
	delete(idx.dirtyFiles, filePath)

	idx.indexedFiles.Add(1)

	if idx.config.Debug {
		idx.logger.Debug("indexed file",
			"path", filePath,
			"items", len(items),
			"hints", len(result.Hints),
			"diagnostics", len(result.Diagnostics))
	}
	return entry
}

// Item retrieves an item by its qualified path.
func (idx *ItemIndexer) Item(path string) (*semantic.Item, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	it, ok := idx.items[path]
	return it, ok
}

// FileOf returns the file that defines the item at the given qualified
// path.
func (idx *ItemIndexer) FileOf(path string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for file, paths := range idx.fileToItems {
		for _, p := range paths {
			if p == path {
				return file, true
			}
		}
	}
	return "", false
}

// FileIndexFor retrieves the cached entry for a file.
func (idx *ItemIndexer) FileIndexFor(filePath string) (*FileIndex, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	entry, ok := idx.fileCache.Get(filePath)
	if ok {
		idx.cacheHits.Add(1)
	} else {
		idx.cacheMisses.Add(1)
	}
	return entry, ok
}

// AllFiles returns a snapshot of every cached file entry.
func (idx *ItemIndexer) AllFiles() []*FileIndex {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := idx.fileCache.Keys()
	out := make([]*FileIndex, 0, len(keys))
	for _, key := range keys {
		if entry, ok := idx.fileCache.Peek(key); ok {
			out = append(out, entry)
		}
	}
	return out
}

// FindItems returns every indexed item matching the predicate.
func (idx *ItemIndexer) FindItems(predicate func(*semantic.Item) bool) []*semantic.Item {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*semantic.Item
	for _, it := range idx.items {
		if predicate(it) {
			out = append(out, it)
		}
	}
	return out
}

// InvalidateFile marks a file dirty without recomputing anything. The
// stale entry stays queryable until the file is reindexed.
func (idx *ItemIndexer) InvalidateFile(filePath string) {
	idx.mu.Lock()
	idx.dirtyFiles[filePath] = true
	idx.mu.Unlock()
}

// IsDirty reports whether a file is marked for recomputation.
func (idx *ItemIndexer) IsDirty(filePath string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dirtyFiles[filePath]
}

// RemoveFile drops a file and its items from the index.
func (idx *ItemIndexer) RemoveFile(filePath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(filePath)
}

// removeFileLocked removes a file's entries. Caller holds the write lock.
func (idx *ItemIndexer) removeFileLocked(filePath string) {
	idx.fileCache.Remove(filePath)

	if paths, ok := idx.fileToItems[filePath]; ok {
		for _, p := range paths {
			delete(idx.items, p)
		}
		delete(idx.fileToItems, filePath)
	}
	delete(idx.dirtyFiles, filePath)
}

// ExportCrate renders the indexed workspace as crate metadata, so one
// workspace's index can serve as another's dependency store.
func (idx *ItemIndexer) ExportCrate(name, version string) *metadata.Crate {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	crate := &metadata.Crate{
		Name:    name,
		Version: version,
	}

	for _, it := range idx.items {
		def := metadata.Def{
			Path: name + "::" + it.Path,
			Kind: string(it.Kind),
		}
		switch it.Kind {
		case semantic.ItemStruct, semantic.ItemEnum, semantic.ItemUnion:
			def.Namespace = metadata.NamespaceType
			def.Signature = &metadata.TypeSig{
				Name:   it.Name,
				Kind:   string(it.Kind),
				Fields: it.Fields,
			}
		case semantic.ItemTypeAlias:
			def.Namespace = metadata.NamespaceType
			def.Signature = &metadata.TypeSig{Name: it.Name, Kind: "generic"}
		default:
			def.Namespace = metadata.NamespaceValue
		}
		crate.Defs = append(crate.Defs, def)
	}

	// Merge per-file method tables into impl blocks.
	merged := make(map[string]map[string]string)
	for _, key := range idx.fileCache.Keys() {
		entry, ok := idx.fileCache.Peek(key)
		if !ok {
			continue
		}
		for typeName, methods := range entry.Methods {
			set := merged[typeName]
			if set == nil {
				set = make(map[string]string, len(methods))
				merged[typeName] = set
			}
			for m, ret := range methods {
				set[m] = ret
			}
		}
	}
	for typeName, methods := range merged {
		impl := metadata.Impl{Type: typeName}
		for m, ret := range methods {
			method := metadata.Method{Name: m}
			if ret != "" {
				method.Return = idx.returnSig(ret)
			}
			impl.Methods = append(impl.Methods, method)
		}
		crate.Impls = append(crate.Impls, impl)
	}

	return crate
}

// returnSig builds a type signature for a declared return-type text,
// borrowing the shape of an indexed item when the name matches one.
// Caller holds at least the read lock.
func (idx *ItemIndexer) returnSig(typeText string) *metadata.TypeSig {
	if it, ok := idx.items[typeText]; ok {
		switch it.Kind {
		case semantic.ItemStruct, semantic.ItemEnum, semantic.ItemUnion:
			return &metadata.TypeSig{Name: it.Name, Kind: string(it.Kind), Fields: it.Fields}
		}
	}
	return &metadata.TypeSig{Name: typeText, Kind: "generic"}
}

// Stats returns current indexer statistics.
func (idx *ItemIndexer) Stats() ItemIndexerStats {
	idx.mu.RLock()
	totalItems := len(idx.items)
	cachedFiles := idx.fileCache.Len()
	dirtyFiles := len(idx.dirtyFiles)
	idx.mu.RUnlock()

	hits := idx.cacheHits.Load()
	misses := idx.cacheMisses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return ItemIndexerStats{
		IndexedFiles: int(idx.indexedFiles.Load()),
		TotalItems:   totalItems,
		CachedFiles:  cachedFiles,
		DirtyFiles:   dirtyFiles,
		CacheHits:    hits,
		CacheMisses:  misses,
		CacheHitRate: hitRate,
		Evictions:    idx.evictions.Load(),
	}
}

// ComputeContentHash computes the SHA-256 of file content, used to skip
// reindexing unchanged files.
func ComputeContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// Close releases the indexer. It cannot be used afterwards.
func (idx *ItemIndexer) Close() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.items = nil
	idx.fileCache.Purge()
	idx.fileToItems = nil
	idx.dirtyFiles = nil

	idx.logger.Info("item indexer closed")
}
