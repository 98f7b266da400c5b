package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustlens/rustlens/pkg/hints"
	"github.com/rustlens/rustlens/pkg/lints"
	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/parser"
	"github.com/rustlens/rustlens/pkg/semantic"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()

	parsers := parser.NewManager(slog.Default())
	t.Cleanup(func() { _ = parsers.Close() })

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return New(parsers, opts)
}

const fixture = `
enum Direction { North, South }

use Direction::*;

struct A(B);
struct B(C);
struct C;

impl A { fn into_b(self) -> B { self.0 } }
impl B { fn into_c(self) -> C { self.0 } }

fn main() {
    let c = A(B(C))
        .into_b()
        .into_c();
}
`

func TestAnalyzeSource_HintsAndDiagnostics(t *testing.T) {
	e := newTestEngine(t, Options{UnitName: "fixture"})

	result, err := e.AnalyzeSource(context.Background(), "src/main.rs", []byte(fixture))
	require.NoError(t, err)
	assert.Equal(t, "src/main.rs", result.FileID)

	require.Len(t, result.Hints, 2)
	assert.Equal(t, "B", result.Hints[0].Label.String())
	assert.Equal(t, "A", result.Hints[1].Label.String())

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "enum-glob-use", result.Diagnostics[0].LintID)
	assert.Equal(t, lints.LevelWarn, result.Diagnostics[0].Level)
}

func TestAnalyzeSource_WithStore(t *testing.T) {
	crate := &metadata.Crate{
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
	}
	require.Empty(t, crate.Validate())
	store := metadata.NewStore(slog.Default())
	store.AddCrate(crate, nil)

	e := newTestEngine(t, Options{Store: store})

	source := "use std::cmp::Ordering::*;\n\nfn main() {}\n"
	result, err := e.AnalyzeSource(context.Background(), "lib.rs", []byte(source))
	require.NoError(t, err)

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "don't use glob imports for enum variants", result.Diagnostics[0].Message)
}

func TestAnalyzeSource_RegistryOverride(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.Registry().Override(lints.EnumGlobUse.ID, lints.LevelAllow)

	result, err := e.AnalyzeSource(context.Background(), "main.rs", []byte(fixture))
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)
	// Hints are unaffected by lint levels.
	assert.Len(t, result.Hints, 2)
}

func TestAnalyzeSource_HintsDisabled(t *testing.T) {
	e := newTestEngine(t, Options{
		HintConfig: &hints.Config{ChainingHints: false},
	})

	result, err := e.AnalyzeSource(context.Background(), "main.rs", []byte(fixture))
	require.NoError(t, err)
	assert.Empty(t, result.Hints)
	assert.Len(t, result.Diagnostics, 1)
}

func TestAnalyzeSource_Cancelled(t *testing.T) {
	e := newTestEngine(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.AnalyzeSource(ctx, "main.rs", []byte(fixture))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Hints)
}

func TestAnalyzeSource_PrepareHook(t *testing.T) {
	e := newTestEngine(t, Options{})

	var called string
	e.Prepare = func(fileID string, snap *semantic.Snapshot) {
		called = fileID
		assert.NotNil(t, snap.Items())
	}

	_, err := e.AnalyzeSource(context.Background(), "hooked.rs", []byte("fn main() {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "hooked.rs", called)
}

func TestAnalyzeSource_ErrorTolerant(t *testing.T) {
	// Broken source still parses into a partial tree; analysis proceeds.
	source := "fn main() { let x = \n"
	e := newTestEngine(t, Options{})

	result, err := e.AnalyzeSource(context.Background(), "broken.rs", []byte(source))
	require.NoError(t, err)
	assert.NotNil(t, result)
}
