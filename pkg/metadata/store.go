package metadata

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defCacheSize bounds the cross-crate def-path lookup cache.
const defCacheSize = 4096

// Store holds the metadata of every compiled dependency crate and
// answers stable-path queries across all of them.
//
// The store is read-only after loading, so lookups take only a read
// lock; a small LRU memoizes resolved def-paths since the annotation
// passes resolve the same paths for every file they visit.
type Store struct {
	mu      sync.RWMutex
	crates  map[string]*crateEntry
	defLRU  *lru.Cache[string, *Def]
	logger  *slog.Logger
}

type crateEntry struct {
	crate *Crate
	index *Index
}

// NewStore creates an empty metadata store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.New[string, *Def](defCacheSize)
	if err != nil {
		// Only possible with a non-positive size.
		panic(fmt.Sprintf("failed to create def cache: %v", err))
	}

	return &Store{
		crates: make(map[string]*crateEntry),
		defLRU: cache,
		logger: logger,
	}
}

// AddCrate registers already-validated crate metadata.
func (s *Store) AddCrate(crate *Crate, index *Index) {
	if index == nil {
		index = crate.BuildIndex()
	}

	s.mu.Lock()
	s.crates[crate.Name] = &crateEntry{crate: crate, index: index}
	s.mu.Unlock()

	s.logger.Debug("registered crate metadata",
		"crate", crate.Name,
		"version", crate.Version,
		"defs", len(crate.Defs))
}

// LoadFile loads and registers one crate metadata JSON file.
func (s *Store) LoadFile(path string) error {
	crate, index, err := LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", path, err)
	}
	s.AddCrate(crate, index)
	return nil
}

// LoadDir loads every *.json crate metadata file in a directory.
func (s *Store) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read metadata dir %q: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := s.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
		loaded++
	}

	s.logger.Info("loaded crate metadata", "dir", dir, "crates", loaded)
	return nil
}

// Crates returns the names of all registered crates.
func (s *Store) Crates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.crates))
	for name := range s.crates {
		names = append(names, name)
	}
	return names
}

// Def resolves a stable def-path ("std::cmp::Ordering") to its metadata
// entry. The crate is selected by the path's first segment.
func (s *Store) Def(path string) (*Def, bool) {
	if def, ok := s.defLRU.Get(path); ok {
		return def, true
	}

	crateName, _, found := strings.Cut(path, "::")
	if !found {
		crateName = path
	}

	s.mu.RLock()
	entry, ok := s.crates[crateName]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	def, ok := entry.index.DefByPath[path]
	if !ok {
		return nil, false
	}

	s.defLRU.Add(path, def)
	return def, true
}

// ItemType returns the compiled type signature of a type-namespace
// definition, the metadata analogue of asking the compiler for an
// external item's type.
func (s *Store) ItemType(path string) (*TypeSig, bool) {
	def, ok := s.Def(path)
	if !ok || def.Signature == nil {
		return nil, false
	}
	return def.Signature, true
}

// TypeDefByName finds a type-namespace definition by plain type name in
// any registered crate. Used to attach navigation targets to rendered
// type names whose defining crate is not spelled out.
func (s *Store) TypeDefByName(name string) (*Def, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.crates {
		if def, ok := entry.index.DefByName[name]; ok && def.Namespace == NamespaceType {
			return def, true
		}
	}
	return nil, false
}

// Method looks up a method on a type by the type's plain name, searching
// every registered crate's impls.
func (s *Store) Method(typeName, method string) (*Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entry := range s.crates {
		if methods, ok := entry.index.MethodsByType[typeName]; ok {
			if m, ok := methods[method]; ok {
				return m, true
			}
		}
	}
	return nil, false
}
