package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rustlens/rustlens/pkg/engine"
	"github.com/rustlens/rustlens/pkg/hints"
	"github.com/rustlens/rustlens/pkg/indexer"
	"github.com/rustlens/rustlens/pkg/lints"
	mcpserver "github.com/rustlens/rustlens/pkg/mcp"
	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/parser"
	"github.com/rustlens/rustlens/pkg/util"
)

// toolchain bundles the pieces every command shares: config, logger,
// parser pools, metadata store, and the engine wired from them.
type toolchain struct {
	cfg     *ProjectConfig
	logger  *slog.Logger
	parsers *parser.Manager
	store   *metadata.Store
	engine  *engine.Engine
}

func newToolchain() (*toolchain, error) {
	cfg, err := loadProjectConfig()
	if err != nil {
		return nil, err
	}

	logger := util.NewLogger(loggerConfig(cfg))
	util.SetDefault(logger)

	parsers := parser.NewManager(logger)

	var store *metadata.Store
	if cfg != nil && len(cfg.MetadataDirs) > 0 {
		store = metadata.NewStore(logger)
		for _, dir := range cfg.MetadataDirs {
			if err := store.LoadDir(dir); err != nil {
				_ = parsers.Close()
				return nil, fmt.Errorf("failed to load metadata from %s: %w", dir, err)
			}
		}
	}

	registry := lints.NewRegistry()
	if err := applyLintOverrides(registry, cfg); err != nil {
		_ = parsers.Close()
		return nil, err
	}

	hintCfg := hints.DefaultConfig()
	if cfg != nil && cfg.Hints != nil {
		hintCfg = cfg.Hints
	}

	unit := ""
	if cfg != nil {
		unit = cfg.Unit
	}

	eng := engine.New(parsers, engine.Options{
		Store:      store,
		HintConfig: hintCfg,
		Registry:   registry,
		UnitName:   unit,
		Logger:     logger,
	})

	return &toolchain{
		cfg:     cfg,
		logger:  logger,
		parsers: parsers,
		store:   store,
		engine:  eng,
	}, nil
}

func (tc *toolchain) close() {
	_ = tc.parsers.Close()
}

func (tc *toolchain) newScanner() (*indexer.WorkspaceScanner, util.FileCache) {
	idx := indexer.NewItemIndexer(indexer.DefaultItemIndexerConfig(), tc.logger)
	files := util.NewFileCache(nil)
	return indexer.NewWorkspaceScanner(tc.engine, idx, files, tc.logger), files
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// errCheckFailed reports deny-level diagnostics; main maps it to a
// nonzero exit after deferred cleanup has run.
var errCheckFailed = errors.New("deny-level diagnostics reported")

// runCheck lints each file and prints the diagnostics. Returns
// errCheckFailed when a deny-level diagnostic fires.
func runCheck(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("check: no files given")
	}

	tc, err := newToolchain()
	if err != nil {
		return err
	}
	defer tc.close()

	failed := false
	var results []*engine.Result
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		result, err := tc.engine.AnalyzeSource(context.Background(), path, content)
		if err != nil {
			return err
		}
		results = append(results, result)

		for _, d := range result.Diagnostics {
			if d.Level == lints.LevelDeny {
				failed = true
			}
		}
	}

	if err := printJSON(results); err != nil {
		return err
	}
	if failed {
		return errCheckFailed
	}
	return nil
}

// runHints prints the inlay hints for each file.
func runHints(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("hints: no files given")
	}

	tc, err := newToolchain()
	if err != nil {
		return err
	}
	defer tc.close()

	out := make(map[string][]hints.InlayHint, len(args))
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		result, err := tc.engine.AnalyzeSource(context.Background(), path, content)
		if err != nil {
			return err
		}
		out[path] = result.Hints
	}

	return printJSON(out)
}

// runIndex scans a workspace, prints the scan statistics, and
// optionally exports the index as crate metadata JSON.
func runIndex(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("index: no workspace root given")
	}
	root := args[0]

	exportPath := ""
	for i := 1; i < len(args); i++ {
		if args[i] == "--export" && i+1 < len(args) {
			exportPath = args[i+1]
			i++
		}
	}

	tc, err := newToolchain()
	if err != nil {
		return err
	}
	defer tc.close()

	scanner, files := tc.newScanner()
	defer func() { _ = files.Close() }()
	defer scanner.Indexer().Close()

	stats, err := scanner.ScanWorkspace(root, indexer.DefaultScanOptions(), nil)
	if err != nil {
		return err
	}
	if err := printJSON(stats); err != nil {
		return err
	}

	if exportPath != "" {
		name := "workspace"
		if tc.cfg != nil && tc.cfg.Unit != "" {
			name = tc.cfg.Unit
		}
		crateVersion := "0.0.0"
		if tc.cfg != nil && tc.cfg.Version != "" {
			crateVersion = tc.cfg.Version
		}

		crate := scanner.Indexer().ExportCrate(name, crateVersion)
		data, err := json.MarshalIndent(crate, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal crate metadata: %w", err)
		}
		if err := os.WriteFile(exportPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportPath, err)
		}
		tc.logger.Info("exported workspace metadata",
			"crate", name, "defs", len(crate.Defs), "path", exportPath)
	}
	return nil
}

// runServe starts the MCP server on stdio.
func runServe(_ []string) error {
	tc, err := newToolchain()
	if err != nil {
		return err
	}
	defer tc.close()

	scanner, files := tc.newScanner()
	defer func() { _ = files.Close() }()
	defer scanner.Indexer().Close()

	srv := mcpserver.NewServer(mcpserver.Options{
		Engine:  tc.engine,
		Store:   tc.store,
		Scanner: scanner,
		Files:   files,
		Logger:  tc.logger,
	})
	return srv.ServeStdio()
}

// runWatch indexes a workspace and reindexes files as they change,
// until interrupted.
func runWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("watch: no workspace root given")
	}
	root := args[0]

	tc, err := newToolchain()
	if err != nil {
		return err
	}
	defer tc.close()

	scanner, files := tc.newScanner()
	defer func() { _ = files.Close() }()
	defer scanner.Indexer().Close()

	stats, err := scanner.ScanWorkspace(root, indexer.DefaultScanOptions(), nil)
	if err != nil {
		return err
	}
	tc.logger.Info("initial scan complete",
		"files", stats.FilesIndexed, "items", stats.ItemsIndexed)

	watcher, err := indexer.NewFileWatcher(scanner, indexer.DefaultWatchOptions(), tc.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(root); err != nil {
		return err
	}
	defer func() { _ = watcher.Stop() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	return nil
}
