package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ts "github.com/tree-sitter/go-tree-sitter"
	ts_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// --- helpers ---

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

// findNode returns the first node (pre-order) with the given kind whose
// text equals text.
func findNode(root *ts.Node, source, kind, text string) *ts.Node {
	if root.Kind() == kind && string(root.Utf8Text([]byte(source))) == text {
		return root
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		if found := findNode(root.NamedChild(i), source, kind, text); found != nil {
			return found
		}
	}
	return nil
}

// --- chain continuation ---

func TestChainContinuation_LineBreakBeforeDot(t *testing.T) {
	source := "fn main() {\n    let x = a\n        .b();\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	assert.True(t, IsChainContinuation(recv, []byte(source)))
}

func TestChainContinuation_SameLineDot(t *testing.T) {
	source := "fn main() {\n    let x = a.b();\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	// Same-line chains are visually self-evident; no continuation.
	assert.False(t, IsChainContinuation(recv, []byte(source)))
}

func TestChainContinuation_CommentBetween(t *testing.T) {
	source := "fn main() {\n    let x = a // trailing\n        // leading\n        .b();\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	// Comments are trivia: they must not break detection.
	assert.True(t, IsChainContinuation(recv, []byte(source)))
}

func TestChainContinuation_BlockCommentSameLine(t *testing.T) {
	source := "fn main() {\n    let x = a /* note */\n        .b();\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	assert.True(t, IsChainContinuation(recv, []byte(source)))
}

func TestChainContinuation_NoFollowingTokens(t *testing.T) {
	source := "fn main() {\n    a\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	assert.False(t, IsChainContinuation(recv, []byte(source)))
}

func TestChainContinuation_StatementEnd(t *testing.T) {
	source := "fn main() {\n    let x = a;\n    let y = 1;\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	// Next meaningful token is `;`, not a dot.
	assert.False(t, IsChainContinuation(recv, []byte(source)))
}

func TestChainContinuation_MethodCallReceiver(t *testing.T) {
	source := "fn main() {\n    let x = make()\n        .twice()\n        .done();\n}\n"
	tree := parseRust(t, source)

	inner := findNode(tree.RootNode(), source, "call_expression", "make()")
	require.NotNil(t, inner)
	assert.True(t, IsChainContinuation(inner, []byte(source)))

	mid := findNode(tree.RootNode(), source, "call_expression", "make()\n        .twice()")
	require.NotNil(t, mid)
	assert.True(t, IsChainContinuation(mid, []byte(source)))
}

// --- token stream ---

func TestFollowingTokens_SynthesizesWhitespace(t *testing.T) {
	source := "fn main() {\n    let x = a\n        .b();\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	stream := FollowingTokens(recv, []byte(source))

	tok, ok := stream.Next()
	require.True(t, ok)
	assert.Equal(t, TokenWhitespace, tok.Kind)
	assert.True(t, tok.ContainsLineBreak())

	tok, ok = stream.Next()
	require.True(t, ok)
	assert.Equal(t, TokenDot, tok.Kind)
	assert.Equal(t, ".", tok.Text)
}

func TestNextMeaningful_FiltersCommentsAndInlineWhitespace(t *testing.T) {
	source := "fn main() {\n    let x = a // c\n        .b();\n}\n"
	tree := parseRust(t, source)

	recv := findNode(tree.RootNode(), source, "identifier", "a")
	require.NotNil(t, recv)

	stream := FollowingTokens(recv, []byte(source))

	// The space before the comment and the comment itself are dropped;
	// the first retained token is the line-break whitespace.
	tok, ok := stream.NextMeaningful()
	require.True(t, ok)
	assert.Equal(t, TokenWhitespace, tok.Kind)
	assert.True(t, tok.ContainsLineBreak())

	tok, ok = stream.NextMeaningful()
	require.True(t, ok)
	assert.Equal(t, TokenDot, tok.Kind)
}

// --- expression classification ---

func TestClassifyExpr(t *testing.T) {
	source := "fn main() {\n    let p = D;\n    let s = S { f: 1 };\n    let m = a.b();\n}\n"
	tree := parseRust(t, source)

	path := findNode(tree.RootNode(), source, "identifier", "D")
	require.NotNil(t, path)
	assert.Equal(t, ExprPath, ClassifyExpr(path))

	record := findNode(tree.RootNode(), source, "struct_expression", "S { f: 1 }")
	require.NotNil(t, record)
	assert.Equal(t, ExprRecord, ClassifyExpr(record))

	call := findNode(tree.RootNode(), source, "call_expression", "a.b()")
	require.NotNil(t, call)
	assert.Equal(t, ExprChainLink, ClassifyExpr(call))
}
