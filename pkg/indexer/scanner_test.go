package indexer

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustlens/rustlens/pkg/util"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestScanWorkspace(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"src/lib.rs": `
struct A(B);
struct B;

impl A { fn into_b(self) -> B { self.0 } }

fn main() {
    let b = A(B)
        .into_b();
}
`,
		"src/colors.rs": "enum Color { Red, Green }\n\nuse Color::*;\n",
		"README.md":     "not rust\n",
		// Build output must be skipped.
		"target/debug/gen.rs": "struct Generated;\n",
	})

	eng := newTestEngine(t)
	idx := NewItemIndexer(DefaultItemIndexerConfig(), slog.Default())
	t.Cleanup(idx.Close)

	files := util.NewFileCache(nil)
	t.Cleanup(func() { _ = files.Close() })

	scanner := NewWorkspaceScanner(eng, idx, files, slog.Default())

	var progressCalls atomic.Int32
	stats, err := scanner.ScanWorkspace(root, DefaultScanOptions(), func(indexed, total int, file string) {
		progressCalls.Add(1)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesDiscovered)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, int32(2), progressCalls.Load())
	assert.InDelta(t, 1.0, stats.SuccessRate, 0.001)

	// Items from both files land in the index.
	_, ok := idx.Item("A")
	assert.True(t, ok)
	_, ok = idx.Item("Color")
	assert.True(t, ok)
	_, ok = idx.Item("Generated")
	assert.False(t, ok)

	// Annotations ride along with the indexed files.
	assert.Equal(t, 1, stats.HintsEmitted)
	assert.Equal(t, 1, stats.DiagnosticsEmitted)

	entry, ok := idx.FileIndexFor(filepath.Join(root, "src", "colors.rs"))
	require.True(t, ok)
	require.Len(t, entry.Result.Diagnostics, 1)
	assert.Equal(t, "enum-glob-use", entry.Result.Diagnostics[0].LintID)

	// The mmap cache served the reads.
	assert.Equal(t, 2, files.Size())
}

func TestScanWorkspace_Empty(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"notes.txt": "nothing here\n"})

	eng := newTestEngine(t)
	idx := NewItemIndexer(DefaultItemIndexerConfig(), slog.Default())
	t.Cleanup(idx.Close)

	scanner := NewWorkspaceScanner(eng, idx, nil, slog.Default())
	stats, err := scanner.ScanWorkspace(root, DefaultScanOptions(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.FilesDiscovered)
	assert.Equal(t, 0, stats.FilesIndexed)
}

func TestScanWorkspace_InvalidPattern(t *testing.T) {
	eng := newTestEngine(t)
	idx := NewItemIndexer(DefaultItemIndexerConfig(), slog.Default())
	t.Cleanup(idx.Close)

	scanner := NewWorkspaceScanner(eng, idx, nil, slog.Default())
	_, err := scanner.ScanWorkspace(t.TempDir(), ScanOptions{Include: []string{"[.rs"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}

func TestIndexFile(t *testing.T) {
	eng := newTestEngine(t)
	idx := NewItemIndexer(DefaultItemIndexerConfig(), slog.Default())
	t.Cleanup(idx.Close)

	scanner := NewWorkspaceScanner(eng, idx, nil, slog.Default())

	entry, err := scanner.IndexFile("/ws/src/solo.rs", []byte("struct Solo;\n"))
	require.NoError(t, err)
	assert.Len(t, entry.Items, 1)

	_, ok := idx.Item("Solo")
	assert.True(t, ok)
}
