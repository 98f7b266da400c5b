// Tests for FileCache with mmap-based file access.
package util

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestFiles creates temporary test files for testing.
func setupTestFiles(t *testing.T) map[string]string {
	t.Helper()

	dir := t.TempDir()
	files := make(map[string]string)

	rustCode := `struct Point { x: i32, y: i32 }

fn origin() -> Point {
    Point { x: 0, y: 0 }
}`
	rustPath := filepath.Join(dir, "point.rs")
	require.NoError(t, os.WriteFile(rustPath, []byte(rustCode), 0o644))
	files["point.rs"] = rustPath

	emptyPath := filepath.Join(dir, "empty.rs")
	require.NoError(t, os.WriteFile(emptyPath, []byte{}, 0o644))
	files["empty.rs"] = emptyPath

	largeCode := strings.Repeat("// generated line\n", 1000)
	largePath := filepath.Join(dir, "large.rs")
	require.NoError(t, os.WriteFile(largePath, []byte(largeCode), 0o644))
	files["large.rs"] = largePath

	return files
}

func TestFileCache_BasicOperations(t *testing.T) {
	files := setupTestFiles(t)
	rustPath := files["point.rs"]

	cache := NewFileCache(DefaultFileCacheConfig())
	defer cache.Close()

	assert.Equal(t, 0, cache.Size(), "Initial cache should be empty")

	mf, err := cache.Get(rustPath)
	require.NoError(t, err)
	require.NotNil(t, mf)
	assert.Equal(t, rustPath, mf.Path)
	assert.NotNil(t, mf.Data)
	assert.Greater(t, mf.Size, int64(0))

	assert.Equal(t, 1, cache.Size(), "Cache should contain 1 file")

	// Second Get hits the cache.
	mf2, err := cache.Get(rustPath)
	require.NoError(t, err)
	assert.Equal(t, mf.Path, mf2.Path)

	// Slice by byte offsets: "Point" starts at byte 7.
	code, err := cache.Slice(rustPath, 7, 12)
	require.NoError(t, err)
	assert.Equal(t, "Point", code)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.FilesCached)
	assert.Greater(t, stats.CacheHits, int64(0))
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.Greater(t, stats.TotalMappedMB, float64(0))

	require.NoError(t, cache.Close())
	assert.Equal(t, 0, cache.Size())
}

func TestFileCache_EmptyFile(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	mf, err := cache.Get(files["empty.rs"])
	require.NoError(t, err)
	assert.Nil(t, mf.Data)
	assert.Equal(t, int64(0), mf.Size)

	code, err := cache.Slice(files["empty.rs"], 0, 0)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestFileCache_MissingFile(t *testing.T) {
	cache := NewFileCache(nil)
	defer cache.Close()

	_, err := cache.Get(filepath.Join(t.TempDir(), "absent.rs"))
	require.Error(t, err)
}

func TestFileCache_InvalidRange(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(nil)
	defer cache.Close()

	// End before start.
	_, err := cache.Slice(files["point.rs"], 10, 5)
	require.Error(t, err)

	// Past the end of the file.
	_, err = cache.Slice(files["point.rs"], 0, 1<<20)
	require.Error(t, err)
}

func TestFileCache_MaxFilesLimit(t *testing.T) {
	files := setupTestFiles(t)

	cache := NewFileCache(&FileCacheConfig{MaxFiles: 1})
	defer cache.Close()

	_, err := cache.Get(files["point.rs"])
	require.NoError(t, err)

	_, err = cache.Get(files["large.rs"])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestFileCache_ConcurrentAccess(t *testing.T) {
	files := setupTestFiles(t)
	rustPath := files["point.rs"]

	cache := NewFileCache(nil)
	defer cache.Close()

	const numGoroutines = 50
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	errChan := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			if _, err := cache.Get(rustPath); err != nil {
				errChan <- err
			}
		}()
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		t.Errorf("concurrent Get failed: %v", err)
	}

	// Loaded exactly once regardless of contention.
	assert.Equal(t, 1, cache.Size())
	assert.Equal(t, int64(1), cache.Stats().CacheMisses)
}
