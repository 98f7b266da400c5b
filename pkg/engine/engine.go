// Package engine drives the annotation passes: parse a file once, build
// one semantic snapshot, walk every node, and run the hint and lint
// passes against caller-owned accumulators.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/rustlens/rustlens/pkg/hints"
	"github.com/rustlens/rustlens/pkg/lints"
	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/parser"
	"github.com/rustlens/rustlens/pkg/semantic"
	"github.com/rustlens/rustlens/pkg/syntax"
)

// Engine analyzes files and produces hints and diagnostics.
//
// Thread safety: an Engine may analyze many files concurrently. Each
// invocation reads shared state (parsers, metadata store, config) and
// writes only to its own Result.
type Engine struct {
	parsers  *parser.Manager
	store    *metadata.Store
	hintCfg  *hints.Config
	registry *lints.Registry
	// unitName is the analyzed crate's own name, used to localize
	// crate-rooted paths.
	unitName string
	logger   *slog.Logger

	// Prepare, when set, runs after the snapshot is built and before
	// passes run; the host uses it to register macro/attribute
	// expansions for the file.
	Prepare func(fileID string, snap *semantic.Snapshot)
}

// Options configures an Engine.
type Options struct {
	// Store supplies compiled dependency metadata; nil disables
	// external resolution.
	Store *metadata.Store
	// HintConfig defaults to hints.DefaultConfig().
	HintConfig *hints.Config
	// Registry defaults to lints.NewRegistry().
	Registry *lints.Registry
	// UnitName is the analyzed crate's name.
	UnitName string
	Logger   *slog.Logger
}

// Result holds one file's annotations.
type Result struct {
	FileID      string             `json:"file"`
	Hints       []hints.InlayHint  `json:"hints"`
	Diagnostics []lints.Diagnostic `json:"diagnostics"`
}

// New creates an Engine. The parser manager is shared and stays owned
// by the caller.
func New(parsers *parser.Manager, opts Options) *Engine {
	if opts.HintConfig == nil {
		opts.HintConfig = hints.DefaultConfig()
	}
	if opts.Registry == nil {
		opts.Registry = lints.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Engine{
		parsers:  parsers,
		store:    opts.Store,
		hintCfg:  opts.HintConfig,
		registry: opts.Registry,
		unitName: opts.UnitName,
		logger:   opts.Logger,
	}
}

// Registry exposes the lint registry for configuration.
func (e *Engine) Registry() *lints.Registry {
	return e.registry
}

// AnalyzeSource parses source and runs every pass over it.
//
// Cancellation is cooperative at node granularity: when ctx is done, no
// further nodes are visited and the annotations gathered so far are
// returned with ctx.Err(). Each emitted annotation is complete; a
// cancelled run never contains a partial one.
func (e *Engine) AnalyzeSource(ctx context.Context, fileID string, source []byte) (*Result, error) {
	result, _, err := e.AnalyzeForIndex(ctx, fileID, source)
	return result, err
}

// AnalyzeForIndex runs the same passes as AnalyzeSource and additionally
// returns the file's item table for workspace indexing. The table holds
// no tree references and outlives the parse.
func (e *Engine) AnalyzeForIndex(ctx context.Context, fileID string, source []byte) (*Result, *semantic.ItemTable, error) {
	tree, err := e.parsers.Parse(source, parser.LanguageRust)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", fileID, err)
	}
	defer tree.Close()

	snap := semantic.NewSnapshot(tree.RootNode(), source, e.store, e.unitName, e.logger)
	if e.Prepare != nil {
		e.Prepare(fileID, snap)
	}

	result := &Result{FileID: fileID}
	lintCx := &lints.Context{
		Sem:         snap,
		Registry:    e.registry,
		FileID:      fileID,
		Diagnostics: &result.Diagnostics,
	}

	err = e.visit(ctx, tree.RootNode(), snap, lintCx, result)

	e.logger.Debug("analyzed file",
		"file", fileID,
		"hints", len(result.Hints),
		"diagnostics", len(result.Diagnostics))

	return result, snap.Items(), err
}

// visit walks the named-node tree in pre-order, dispatching each node
// to the passes that care about its kind.
func (e *Engine) visit(ctx context.Context, node *ts.Node, snap *semantic.Snapshot, lintCx *lints.Context, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if node.Kind() == "source_file" || node.Kind() == "mod_item" {
		lints.CheckModule(lintCx, node)
	}

	if syntax.IsExpression(node) {
		hints.AppendChainingHints(&result.Hints, snap, e.hintCfg, hints.FileID(result.FileID), node)
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		if err := e.visit(ctx, node.NamedChild(i), snap, lintCx, result); err != nil {
			return err
		}
	}
	return nil
}
