package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustlens/rustlens/pkg/engine"
	"github.com/rustlens/rustlens/pkg/indexer"
	"github.com/rustlens/rustlens/pkg/lints"
	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/parser"
)

// --- helpers ---

const chainSource = `
struct A(B);
struct B;

impl A { fn into_b(self) -> B { self.0 } }

fn main() {
    let b = A(B)
        .into_b();
}
`

const globSource = "enum Color { Red, Green }\n\nuse Color::*;\n"

func testServer(t *testing.T, store *metadata.Store, withScanner bool) *Server {
	t.Helper()

	parsers := parser.NewManager(slog.Default())
	t.Cleanup(func() { _ = parsers.Close() })

	eng := engine.New(parsers, engine.Options{
		Store:  store,
		Logger: slog.Default(),
	})

	var scanner *indexer.WorkspaceScanner
	if withScanner {
		idx := indexer.NewItemIndexer(indexer.DefaultItemIndexerConfig(), slog.Default())
		t.Cleanup(idx.Close)
		scanner = indexer.NewWorkspaceScanner(eng, idx, nil, slog.Default())
	}

	return NewServer(Options{
		Engine:  eng,
		Store:   store,
		Scanner: scanner,
		Logger:  slog.Default(),
	})
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func callTool(t *testing.T, s *Server, req mcp.CallToolRequest) *mcp.CallToolResult {
	t.Helper()
	var handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

	switch req.Params.Name {
	case "analyze_file":
		handler = s.handleAnalyzeFile
	case "inlay_hints":
		handler = s.handleInlayHints
	case "lint_file":
		handler = s.handleLintFile
	case "resolve_path":
		handler = s.handleResolvePath
	case "list_lints":
		handler = s.handleListLints
	case "index_workspace":
		handler = s.handleIndexWorkspace
	default:
		t.Fatalf("unknown tool: %s", req.Params.Name)
	}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func makeRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	var arguments any
	if args != nil {
		arguments = args
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- analyze_file ---

func TestHandleAnalyzeFile(t *testing.T) {
	s := testServer(t, nil, false)
	path := writeSource(t, "chain.rs", chainSource)

	result := callTool(t, s, makeRequest("analyze_file", map[string]any{"path": path}))
	assert.False(t, result.IsError)

	var analyzed engine.Result
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &analyzed))
	assert.Equal(t, path, analyzed.FileID)
	assert.Len(t, analyzed.Hints, 1)
	assert.Empty(t, analyzed.Diagnostics)
}

func TestHandleAnalyzeFile_MissingArgument(t *testing.T) {
	s := testServer(t, nil, false)
	result := callTool(t, s, makeRequest("analyze_file", nil))
	assert.True(t, result.IsError)
}

func TestHandleAnalyzeFile_MissingFile(t *testing.T) {
	s := testServer(t, nil, false)
	result := callTool(t, s, makeRequest("analyze_file", map[string]any{
		"path": filepath.Join(t.TempDir(), "absent.rs"),
	}))
	assert.True(t, result.IsError)
}

// --- inlay_hints ---

func TestHandleInlayHints(t *testing.T) {
	s := testServer(t, nil, false)
	path := writeSource(t, "chain.rs", chainSource)

	result := callTool(t, s, makeRequest("inlay_hints", map[string]any{"path": path}))
	assert.False(t, result.IsError)

	var resp struct {
		File  string           `json:"file"`
		Hints []map[string]any `json:"hints"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &resp))
	assert.Equal(t, path, resp.File)
	assert.Len(t, resp.Hints, 1)
}

// --- lint_file ---

func TestHandleLintFile(t *testing.T) {
	s := testServer(t, nil, false)
	path := writeSource(t, "colors.rs", globSource)

	result := callTool(t, s, makeRequest("lint_file", map[string]any{"path": path}))
	assert.False(t, result.IsError)

	var resp struct {
		Diagnostics []lints.Diagnostic `json:"diagnostics"`
		Failed      bool               `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &resp))
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, "enum-glob-use", resp.Diagnostics[0].LintID)
	assert.False(t, resp.Failed)
}

func TestHandleLintFile_DenyFails(t *testing.T) {
	s := testServer(t, nil, false)
	s.engine.Registry().Override("enum-glob-use", lints.LevelDeny)
	path := writeSource(t, "colors.rs", globSource)

	result := callTool(t, s, makeRequest("lint_file", map[string]any{"path": path}))

	var resp struct {
		Failed bool `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &resp))
	assert.True(t, resp.Failed)
}

// --- resolve_path ---

func TestHandleResolvePath_Workspace(t *testing.T) {
	s := testServer(t, nil, true)

	_, err := s.scanner.IndexFile("/ws/src/colors.rs", []byte(globSource))
	require.NoError(t, err)

	result := callTool(t, s, makeRequest("resolve_path", map[string]any{"item": "Color"}))
	assert.False(t, result.IsError)

	var resp resolvedItem
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &resp))
	assert.Equal(t, "workspace", resp.Source)
	require.NotNil(t, resp.Item)
	assert.Equal(t, "Color", resp.Item.Name)
	assert.Equal(t, "/ws/src/colors.rs", resp.File)
}

func TestHandleResolvePath_Metadata(t *testing.T) {
	store := metadata.NewStore(slog.Default())
	store.AddCrate(&metadata.Crate{
		Name:    "std",
		Version: "1.0.0",
		Defs: []metadata.Def{
			{
				Path:      "std::cmp::Ordering",
				Namespace: metadata.NamespaceType,
				Kind:      "enum",
				Signature: &metadata.TypeSig{Name: "Ordering", Kind: "enum", Fields: 3},
			},
		},
	}, nil)

	s := testServer(t, store, false)

	result := callTool(t, s, makeRequest("resolve_path", map[string]any{"item": "std::cmp::Ordering"}))
	assert.False(t, result.IsError)

	var resp resolvedItem
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &resp))
	assert.Equal(t, "metadata", resp.Source)
	require.NotNil(t, resp.Def)
	assert.Equal(t, "enum", resp.Def.Kind)
}

func TestHandleResolvePath_NotFound(t *testing.T) {
	s := testServer(t, nil, false)
	result := callTool(t, s, makeRequest("resolve_path", map[string]any{"item": "no::such::Item"}))
	assert.True(t, result.IsError)
}

// --- list_lints ---

func TestHandleListLints(t *testing.T) {
	s := testServer(t, nil, false)
	s.engine.Registry().Override("enum-glob-use", lints.LevelDeny)

	result := callTool(t, s, makeRequest("list_lints", nil))
	assert.False(t, result.IsError)

	var resp struct {
		Lints []lintInfo `json:"lints"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &resp))
	require.Len(t, resp.Lints, 1)
	assert.Equal(t, "enum-glob-use", resp.Lints[0].ID)
	assert.Equal(t, "warn", resp.Lints[0].DefaultLevel)
	assert.Equal(t, "deny", resp.Lints[0].EffectiveLevel)
}

// --- index_workspace ---

func TestHandleIndexWorkspace(t *testing.T) {
	s := testServer(t, nil, true)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "lib.rs"), []byte(chainSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "colors.rs"), []byte(globSource), 0o644))

	result := callTool(t, s, makeRequest("index_workspace", map[string]any{"root": root}))
	assert.False(t, result.IsError)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultJSON(t, result)), &resp))
	assert.Equal(t, float64(2), resp["files_indexed"])
	assert.Equal(t, float64(1), resp["hints"])
	assert.Equal(t, float64(1), resp["diagnostics"])
}

func TestHandleIndexWorkspace_NoScanner(t *testing.T) {
	s := testServer(t, nil, false)
	result := callTool(t, s, makeRequest("index_workspace", map[string]any{"root": t.TempDir()}))
	assert.True(t, result.IsError)
}
