package semantic

import (
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/rustlens/rustlens/pkg/metadata"
)

// Snapshot is one immutable view of the semantic world for a single
// file: the unit-local item table, the compiled-dependency metadata
// store, and any registered attribute expansions.
//
// A Snapshot is read-only after construction (expansions excepted, which
// the host registers before passes run), so any number of pass
// invocations may query it concurrently.
type Snapshot struct {
	source   []byte
	items    *ItemTable
	store    *metadata.Store
	unitName string
	logger   *slog.Logger

	// expansions maps an original node's byte range to its single
	// descended node in an expanded rendition of the file.
	expansions map[expansionKey]expansionTarget
}

type expansionKey struct {
	start, end uint
}

type expansionTarget struct {
	node   *ts.Node
	source []byte
}

// NewSnapshot builds a snapshot for one parsed file.
//
// unitName is the analyzed crate's own name; paths rooted at it resolve
// through the local item table. store may be nil when no dependency
// metadata is available — external resolution then always reports
// absence.
func NewSnapshot(root *ts.Node, source []byte, store *metadata.Store, unitName string, logger *slog.Logger) *Snapshot {
	if logger == nil {
		logger = slog.Default()
	}

	return &Snapshot{
		source:     source,
		items:      CollectItems(root, source),
		store:      store,
		unitName:   unitName,
		logger:     logger,
		expansions: make(map[expansionKey]expansionTarget),
	}
}

// Items exposes the unit-local item table (read-only use).
func (s *Snapshot) Items() *ItemTable {
	return s.items
}

// Source returns the file's source bytes.
func (s *Snapshot) Source() []byte {
	return s.source
}

// RegisterExpansion records that original maps to descended after
// macro/attribute expansion. descendedSource is the expanded rendition's
// text, which descended's byte offsets refer to.
//
// The caller keeps the expanded tree alive for the snapshot's lifetime.
func (s *Snapshot) RegisterExpansion(original *ts.Node, descended *ts.Node, descendedSource []byte) {
	key := expansionKey{start: original.StartByte(), end: original.EndByte()}
	s.expansions[key] = expansionTarget{node: descended, source: descendedSource}
}

// Descend maps a node through registered expansions: semantic queries
// run against the returned node and source, while every reported
// position stays anchored at the original. With no expansion registered
// the node descends to itself.
func (s *Snapshot) Descend(node *ts.Node) (*ts.Node, []byte) {
	key := expansionKey{start: node.StartByte(), end: node.EndByte()}
	if target, ok := s.expansions[key]; ok {
		return target.node, target.source
	}
	return node, s.source
}

// TypeOfExpr infers the type of an expression.
//
// The node is first run through expansion; the query target may be a
// different node in a different tree, but the caller's anchor never
// changes. ok=false means no type could be determined — by contract
// that silently disables whatever annotation asked, it is never an
// error.
func (s *Snapshot) TypeOfExpr(node *ts.Node) (Type, bool) {
	desc, src := s.Descend(node)
	ty := s.inferExpr(desc, src, 0)
	if ty.IsUnknown() {
		return Unknown(), false
	}
	return ty, true
}
