// Package mcp exposes the annotation engine over the Model Context
// Protocol via stdio transport: file analysis, inlay hints, lint
// diagnostics, definition resolution, and workspace indexing.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rustlens/rustlens/pkg/engine"
	"github.com/rustlens/rustlens/pkg/indexer"
	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/util"
)

const serverVersion = "0.1.0-dev"

// Server wraps the MCP server with the annotation tools.
type Server struct {
	mcpServer *server.MCPServer
	engine    *engine.Engine
	store     *metadata.Store
	// scanner is optional; without it the workspace tools report an
	// error instead of indexing.
	scanner *indexer.WorkspaceScanner
	files   util.FileCache
	logger  *slog.Logger
}

// Options configures the MCP server's collaborators.
type Options struct {
	Engine *engine.Engine
	// Store may be nil; resolve_path then only consults the workspace
	// index.
	Store *metadata.Store
	// Scanner may be nil; index_workspace and resolve_path's workspace
	// side are then unavailable.
	Scanner *indexer.WorkspaceScanner
	// Files may be nil; file reads then go straight to the filesystem.
	Files  util.FileCache
	Logger *slog.Logger
}

// NewServer creates an MCP server with every tool registered.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		engine:  opts.Engine,
		store:   opts.Store,
		scanner: opts.Scanner,
		files:   opts.Files,
		logger:  opts.Logger,
	}

	s.mcpServer = server.NewMCPServer(
		"rustlens",
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.loggingMiddleware()),
	)

	s.mcpServer.AddTool(mcp.NewTool("analyze_file",
		mcp.WithDescription("Analyze a Rust file and return its inlay hints and lint diagnostics."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the Rust source file")),
	), s.handleAnalyzeFile)

	s.mcpServer.AddTool(mcp.NewTool("inlay_hints",
		mcp.WithDescription("Return the chaining inlay hints for a Rust file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the Rust source file")),
	), s.handleInlayHints)

	s.mcpServer.AddTool(mcp.NewTool("lint_file",
		mcp.WithDescription("Run the lint passes over a Rust file and return diagnostics."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the Rust source file")),
	), s.handleLintFile)

	s.mcpServer.AddTool(mcp.NewTool("resolve_path",
		mcp.WithDescription("Resolve a qualified item path against the workspace index and crate metadata."),
		mcp.WithString("item", mcp.Required(), mcp.Description("Qualified item path, e.g. std::cmp::Ordering")),
	), s.handleResolvePath)

	s.mcpServer.AddTool(mcp.NewTool("list_lints",
		mcp.WithDescription("List registered lints with their default and effective levels."),
	), s.handleListLints)

	s.mcpServer.AddTool(mcp.NewTool("index_workspace",
		mcp.WithDescription("Scan and index every Rust file under a workspace root."),
		mcp.WithString("root", mcp.Required(), mcp.Description("Workspace root directory")),
	), s.handleIndexWorkspace)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout and blocks until the
// client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP server", "transport", "stdio")
	return server.ServeStdio(s.mcpServer)
}
