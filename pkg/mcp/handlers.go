package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rustlens/rustlens/pkg/engine"
	"github.com/rustlens/rustlens/pkg/indexer"
	"github.com/rustlens/rustlens/pkg/lints"
	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/semantic"
)

// jsonResult marshals v as indented JSON for the tool response.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// readFile reads a source file, preferring the mmap cache when present.
func (s *Server) readFile(path string) ([]byte, error) {
	if s.files != nil {
		if mf, err := s.files.Get(path); err == nil {
			return mf.Data, nil
		}
	}
	return os.ReadFile(path)
}

func (s *Server) analyzePath(ctx context.Context, path string) (*engine.Result, error) {
	content, err := s.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.engine.AnalyzeSource(ctx, path, content)
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyzePath(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleInlayHints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyzePath(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"file":  result.FileID,
		"hints": result.Hints,
	})
}

func (s *Server) handleLintFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyzePath(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	failed := false
	for _, d := range result.Diagnostics {
		if d.Level == lints.LevelDeny {
			failed = true
			break
		}
	}

	return jsonResult(map[string]any{
		"file":        result.FileID,
		"diagnostics": result.Diagnostics,
		"failed":      failed,
	})
}

// resolvedItem is the resolve_path response for one match.
type resolvedItem struct {
	// Source is "workspace" or "metadata".
	Source string         `json:"source"`
	Item   *semantic.Item `json:"item,omitempty"`
	File   string         `json:"file,omitempty"`
	Def    *metadata.Def  `json:"def,omitempty"`
}

func (s *Server) handleResolvePath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	itemPath, err := req.RequireString("item")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Workspace definitions shadow compiled metadata, matching the
	// analysis passes' local-first resolution order.
	if s.scanner != nil {
		if it, ok := s.scanner.Indexer().Item(itemPath); ok {
			resp := resolvedItem{Source: "workspace", Item: it}
			if file, ok := s.scanner.Indexer().FileOf(itemPath); ok {
				resp.File = file
			}
			return jsonResult(resp)
		}
	}

	if s.store != nil {
		if def, ok := s.store.Def(itemPath); ok {
			return jsonResult(resolvedItem{Source: "metadata", Def: def})
		}
	}

	return mcp.NewToolResultError(fmt.Sprintf("item not found: %s", itemPath)), nil
}

// lintInfo is one entry of the list_lints response.
type lintInfo struct {
	ID             string `json:"id"`
	Description    string `json:"description"`
	DefaultLevel   string `json:"default_level"`
	EffectiveLevel string `json:"effective_level"`
}

func (s *Server) handleListLints(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	registry := s.engine.Registry()

	var out []lintInfo
	for _, l := range registry.Lints() {
		out = append(out, lintInfo{
			ID:             l.ID,
			Description:    l.Description,
			DefaultLevel:   l.DefaultLevel.String(),
			EffectiveLevel: registry.EffectiveLevel(l.ID).String(),
		})
	}
	return jsonResult(map[string]any{"lints": out})
}

func (s *Server) handleIndexWorkspace(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := req.RequireString("root")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.scanner == nil {
		return mcp.NewToolResultError("no workspace scanner configured"), nil
	}

	stats, err := s.scanner.ScanWorkspace(root, indexer.DefaultScanOptions(), nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	idx := s.scanner.Indexer().Stats()
	return jsonResult(map[string]any{
		"files_discovered": stats.FilesDiscovered,
		"files_indexed":    stats.FilesIndexed,
		"files_failed":     stats.FilesFailed,
		"items_indexed":    stats.ItemsIndexed,
		"hints":            stats.HintsEmitted,
		"diagnostics":      stats.DiagnosticsEmitted,
		"duration_ms":      stats.TotalTimeMs,
		"total_items":      idx.TotalItems,
	})
}
