package hints

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/rustlens/rustlens/pkg/semantic"
	"github.com/rustlens/rustlens/pkg/syntax"
)

// AppendChainingHints runs the chaining pass on one expression node and
// appends at most one hint to acc.
//
// The pass is total: every internal failure — no continuation, no
// inferable type, suppression — degrades to a no-op. Per node the
// outcome is either nothing or exactly one fully built hint.
//
// Matching order follows the pipeline: syntactic shape first (the
// trivia-tolerant continuation scan), then semantics (type of the
// descended node, reported against the original), then suppression.
func AppendChainingHints(acc *[]InlayHint, sem *semantic.Snapshot, cfg *Config, fileID FileID, expr *ts.Node) {
	if cfg == nil || !cfg.ChainingHints {
		return
	}
	if !syntax.IsExpression(expr) {
		return
	}

	class := syntax.ClassifyExpr(expr)
	// Record construction never reads as a chain link, whatever its type.
	if class == syntax.ExprRecord {
		return
	}

	if !syntax.IsChainContinuation(expr, sem.Source()) {
		return
	}

	ty, ok := sem.TypeOfExpr(expr)
	if !ok || ty.IsUnknown() {
		return
	}

	// A bare path to a zero-field struct is a trivial placeholder value;
	// its type carries nothing worth surfacing.
	if class == syntax.ExprPath {
		if adt, fields, isADT := ty.AsADT(); isADT && adt == semantic.ADTStruct && fields == 0 {
			return
		}
	}

	anchor := syntax.NodeRange(expr)
	*acc = append(*acc, InlayHint{
		Range: anchor,
		Kind:  KindChaining,
		Label: labelOfTy(sem, cfg, ty),
		Tooltip: &Tooltip{
			FileID: fileID,
			Range:  anchor,
		},
	})
}
