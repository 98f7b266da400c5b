package syntax

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// TokenKind classifies a token in the sibling-token stream.
type TokenKind int

const (
	// TokenWhitespace is a synthesized whitespace token. Tree-sitter does
	// not materialize whitespace in the tree, so the stream reconstructs
	// it from the byte gaps between consecutive siblings.
	TokenWhitespace TokenKind = iota
	// TokenComment is a line or block comment.
	TokenComment
	// TokenDot is the `.` of a field access or method call.
	TokenDot
	// TokenOther is any other leaf token.
	TokenOther
)

// Token is one element of the sibling-token stream.
type Token struct {
	Kind TokenKind
	Text string
}

// ContainsLineBreak reports whether the token text spans a line break.
// Only meaningful for whitespace tokens.
func (t Token) ContainsLineBreak() bool {
	return strings.Contains(t.Text, "\n")
}

// TokenStream lazily produces the tokens that follow a node among its
// siblings, in source order.
//
// The stream mirrors how the tree stores trivia: comments are real
// sibling nodes, whitespace is the gap between siblings. Composite
// sibling nodes (an argument list, a name) are not flattened; like a
// token-only sibling walk, they are simply skipped, while the gaps
// around them still surface as whitespace tokens.
//
// The stream is finite and derived fresh from the tree on every call, so
// it is trivially restartable and needs no state beyond the walk itself.
type TokenStream struct {
	source  []byte
	sibling *ts.Node
	// prevEnd is the byte offset where the previously emitted (or
	// skipped) element ended; the gap from prevEnd to the next sibling's
	// start is whitespace.
	prevEnd uint
}

// FollowingTokens returns the raw (unfiltered) token stream of the
// siblings that follow node.
func FollowingTokens(node *ts.Node, source []byte) *TokenStream {
	return &TokenStream{
		source:  source,
		sibling: node.NextSibling(),
		prevEnd: node.EndByte(),
	}
}

// Next returns the next token, or ok=false when the siblings are
// exhausted.
func (s *TokenStream) Next() (Token, bool) {
	for s.sibling != nil {
		start := s.sibling.StartByte()

		// Gap before the current sibling: whitespace trivia.
		if start > s.prevEnd {
			text := string(s.source[s.prevEnd:start])
			s.prevEnd = start
			return Token{Kind: TokenWhitespace, Text: text}, true
		}

		sib := s.sibling
		s.prevEnd = sib.EndByte()
		s.sibling = sib.NextSibling()

		switch {
		case sib.Kind() == "line_comment" || sib.Kind() == "block_comment":
			return Token{Kind: TokenComment, Text: string(sib.Utf8Text(s.source))}, true
		case sib.ChildCount() == 0:
			kind := TokenOther
			if sib.Kind() == "." {
				kind = TokenDot
			}
			return Token{Kind: kind, Text: string(sib.Utf8Text(s.source))}, true
		default:
			// Composite sibling node: skipped, not flattened.
		}
	}

	return Token{}, false
}

// NextMeaningful returns the next token after trivia filtering: comments
// and whitespace that does not cross a line break are dropped, everything
// else (including line-break whitespace) is retained in order.
func (s *TokenStream) NextMeaningful() (Token, bool) {
	for {
		tok, ok := s.Next()
		if !ok {
			return Token{}, false
		}
		switch tok.Kind {
		case TokenComment:
			continue
		case TokenWhitespace:
			if !tok.ContainsLineBreak() {
				continue
			}
			return tok, true
		default:
			return tok, true
		}
	}
}
