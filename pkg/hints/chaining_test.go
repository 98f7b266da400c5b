package hints

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ts "github.com/tree-sitter/go-tree-sitter"
	ts_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/rustlens/rustlens/pkg/semantic"
	"github.com/rustlens/rustlens/pkg/syntax"
)

func parseRust(t *testing.T, source string) *ts.Tree {
	t.Helper()

	p := ts.NewParser()
	require.NotNil(t, p)
	t.Cleanup(p.Close)

	require.NoError(t, p.SetLanguage(ts.NewLanguage(ts_rust.Language())))

	tree := p.Parse([]byte(source), nil)
	require.NotNil(t, tree)
	t.Cleanup(tree.Close)
	return tree
}

// collectHints runs the chaining pass over every expression of a file,
// the way the engine drives it.
func collectHints(t *testing.T, source string, cfg *Config) []InlayHint {
	t.Helper()

	tree := parseRust(t, source)
	snap := semantic.NewSnapshot(tree.RootNode(), []byte(source), nil, "testunit", slog.Default())

	var acc []InlayHint
	var walk func(node *ts.Node)
	walk = func(node *ts.Node) {
		if syntax.IsExpression(node) {
			AppendChainingHints(&acc, snap, cfg, "test.rs", node)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			walk(node.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	return acc
}

func labelTexts(hints []InlayHint) []string {
	texts := make([]string, 0, len(hints))
	for _, h := range hints {
		texts = append(texts, h.Label.String())
	}
	return texts
}

const chainFixture = `
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

func TestChaining_MultiLineChain(t *testing.T) {
	hints := collectHints(t, chainFixture, DefaultConfig())

	// One hint per intermediate link, innermost last; the final link is
	// covered by the binding itself.
	require.Len(t, hints, 2)
	assert.Equal(t, []string{"B", "A"}, labelTexts(hints))

	for _, h := range hints {
		assert.Equal(t, KindChaining, h.Kind)
		require.NotNil(t, h.Tooltip)
		assert.Equal(t, FileID("test.rs"), h.Tooltip.FileID)
		// The tooltip points back at the hint's own anchor.
		assert.Equal(t, h.Range, h.Tooltip.Range)
	}

	// Hints anchor on the chain-link expressions, in source order the
	// outer link first.
	assert.Equal(t, hints[0].Range.StartLine, hints[1].Range.StartLine)
	assert.Greater(t, hints[0].Range.EndLine, hints[1].Range.EndLine)
}

func TestChaining_SingleLineChain(t *testing.T) {
	source := `
struct A(B);
struct B(C);
struct C;

impl A { fn into_b(self) -> B { self.0 } }
impl B { fn into_c(self) -> C { self.0 } }

fn main() {
    let c = A(B(C)).into_b().into_c();
}
`
	hints := collectHints(t, source, DefaultConfig())
	assert.Empty(t, hints)
}

func TestChaining_CommentsDoNotBreakChain(t *testing.T) {
	source := `
struct A(B);
struct B(C);
struct C;

impl A { fn into_b(self) -> B { self.0 } }
impl B { fn into_c(self) -> C { self.0 } }

fn main() {
    let c = A(B(C)) // build
        // keep going
        .into_b()
        .into_c();
}
`
	hints := collectHints(t, source, DefaultConfig())
	require.Len(t, hints, 2)
	assert.Equal(t, []string{"B", "A"}, labelTexts(hints))
}

func TestChaining_RecordConstructionExcluded(t *testing.T) {
	source := `
struct Holder { x: u32 }
struct Out;

impl Holder { fn consume(self) -> Out { Out } }

fn main() {
    let o = Holder { x: 1 }
        .consume();
}
`
	hints := collectHints(t, source, DefaultConfig())
	assert.Empty(t, hints)
}

func TestChaining_ZeroFieldPathSuppressed(t *testing.T) {
	source := `
struct D;

fn main() {
    let x = D
        .to_string();
}
`
	hints := collectHints(t, source, DefaultConfig())
	assert.Empty(t, hints)
}

func TestChaining_EnumPathNotSuppressed(t *testing.T) {
	source := `
enum E { A, B }

const X: E = E::A;

impl E { fn flip(self) -> E { E::B } }

fn main() {
    let y = X
        .flip();
}
`
	hints := collectHints(t, source, DefaultConfig())
	require.Len(t, hints, 1)
	assert.Equal(t, "E", hints[0].Label.String())
}

func TestChaining_NonEmptyRecordPathNotSuppressed(t *testing.T) {
	source := `
struct D { a: u32 }

const X: D = D { a: 0 };

impl D { fn touch(self) -> D { self } }

fn main() {
    let y = X
        .touch();
}
`
	hints := collectHints(t, source, DefaultConfig())
	require.Len(t, hints, 1)
	assert.Equal(t, "D", hints[0].Label.String())
}

func TestChaining_UnknownTypeSilent(t *testing.T) {
	source := `
fn main() {
    let x = mystery()
        .and_then();
}
`
	hints := collectHints(t, source, DefaultConfig())
	assert.Empty(t, hints)
}

func TestChaining_Disabled(t *testing.T) {
	cfg := &Config{ChainingHints: false, NavigationLinks: true}
	hints := collectHints(t, chainFixture, cfg)
	assert.Empty(t, hints)
}

func TestChaining_LabelNavigation(t *testing.T) {
	hints := collectHints(t, chainFixture, DefaultConfig())
	require.Len(t, hints, 2)

	label := hints[0].Label
	// Alternating shape: leading literal, linked type name, trailing
	// literal.
	require.Len(t, label, 3)
	assert.Nil(t, label[0].Linked)
	assert.Equal(t, "B", label[1].Text)
	require.NotNil(t, label[1].Linked)
	assert.True(t, label[1].Linked.IsLocal())
	assert.Nil(t, label[2].Linked)
}

func TestChaining_LabelNavigationDisabled(t *testing.T) {
	cfg := &Config{ChainingHints: true, NavigationLinks: false}
	hints := collectHints(t, chainFixture, cfg)
	require.Len(t, hints, 2)

	for _, h := range hints {
		for _, part := range h.Label {
			assert.Nil(t, part.Linked)
		}
	}
}

func TestChaining_GenericLabel(t *testing.T) {
	source := `
struct B;

fn make() -> Option<B> { None }

fn main() {
    let x = make()
        .unwrap();
}
`
	hints := collectHints(t, source, DefaultConfig())
	require.Len(t, hints, 1)

	label := hints[0].Label
	assert.Equal(t, "Option<B>", label.String())

	// Only the locally defined B is navigable; Option stays literal.
	var linked []string
	for _, part := range label {
		if part.Linked != nil {
			linked = append(linked, part.Text)
		}
	}
	assert.Equal(t, []string{"B"}, linked)
}
