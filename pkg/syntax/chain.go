package syntax

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// IsChainContinuation reports whether node is the head of a method/field
// chain that continues on a following line.
//
// A continuation means the node's next meaningful sibling tokens are a
// line-break whitespace followed by `.`, ignoring comments and same-line
// whitespace in between. A bare `.` with no preceding line break is still
// a chain link syntactically, but same-line chains are visually
// self-evident and report no continuation here.
//
// Comments between the expression and the newline or the dot never break
// detection; they are trivia and are filtered out of the stream.
func IsChainContinuation(node *ts.Node, source []byte) bool {
	tokens := FollowingTokens(node, source)

	first, ok := tokens.NextMeaningful()
	if !ok {
		return false
	}
	if first.Kind != TokenWhitespace {
		// Anything but a line break right after the expression: either
		// a same-line `.` or the end of the chain.
		return false
	}

	// Consume any further whitespace runs (comments split the gap into
	// several whitespace tokens).
	next := first
	for next.Kind == TokenWhitespace {
		next, ok = tokens.NextMeaningful()
		if !ok {
			return false
		}
	}

	return next.Kind == TokenDot
}
