// Package syntax provides trivia-aware helpers over tree-sitter Rust
// trees: source ranges, node classification, and a filtered sibling-token
// stream used for chain-continuation detection.
package syntax

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// Range identifies a span of source text.
//
// Uses 1-based line/column numbers for LSP compatibility and 0-based byte
// offsets for O(1) source slicing (source[StartByte:EndByte]).
type Range struct {
	StartLine   uint32 `json:"start_line"`
	StartColumn uint32 `json:"start_column"`
	EndLine     uint32 `json:"end_line"`
	EndColumn   uint32 `json:"end_column"`
	StartByte   uint32 `json:"start_byte"`
	EndByte     uint32 `json:"end_byte"`
}

// NodeRange converts a tree-sitter node position to a Range.
func NodeRange(node *ts.Node) Range {
	startPos := node.StartPosition()
	endPos := node.EndPosition()

	return Range{
		StartLine:   uint32(startPos.Row + 1),
		StartColumn: uint32(startPos.Column + 1),
		EndLine:     uint32(endPos.Row + 1),
		EndColumn:   uint32(endPos.Column + 1),
		StartByte:   uint32(node.StartByte()),
		EndByte:     uint32(node.EndByte()),
	}
}

// ExprKind classifies the expression forms the annotation passes care
// about. Everything else is ExprOther.
type ExprKind int

const (
	// ExprOther is any expression not singled out below.
	ExprOther ExprKind = iota
	// ExprRecord is record construction: `Struct { field: value }`.
	ExprRecord
	// ExprPath is a bare path reference: `D`, `module::D`.
	ExprPath
	// ExprChainLink is a method call or field access step: `a.b()`, `a.b`.
	ExprChainLink
)

// expressionKinds is the set of tree-sitter Rust node kinds treated as
// expressions by the pass drivers.
var expressionKinds = map[string]bool{
	"call_expression":          true,
	"field_expression":         true,
	"struct_expression":        true,
	"identifier":               true,
	"scoped_identifier":        true,
	"reference_expression":     true,
	"try_expression":           true,
	"await_expression":         true,
	"index_expression":         true,
	"parenthesized_expression": true,
	"tuple_expression":         true,
	"array_expression":         true,
	"macro_invocation":         true,
	"unary_expression":         true,
	"binary_expression":        true,
}

// IsExpression reports whether the node is an expression form the
// chaining pass should visit.
func IsExpression(node *ts.Node) bool {
	return expressionKinds[node.Kind()]
}

// ClassifyExpr maps a node to its ExprKind.
//
// A bare identifier or scoped path used as a value is ExprPath; a
// field_expression or a call through one is ExprChainLink.
func ClassifyExpr(node *ts.Node) ExprKind {
	switch node.Kind() {
	case "struct_expression":
		return ExprRecord
	case "identifier", "scoped_identifier":
		return ExprPath
	case "field_expression":
		return ExprChainLink
	case "call_expression":
		if fn := node.ChildByFieldName("function"); fn != nil && fn.Kind() == "field_expression" {
			return ExprChainLink
		}
		return ExprOther
	default:
		return ExprOther
	}
}
