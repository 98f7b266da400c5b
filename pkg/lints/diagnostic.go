package lints

import (
	"github.com/rustlens/rustlens/pkg/semantic"
	"github.com/rustlens/rustlens/pkg/syntax"
)

// Diagnostic is one emitted lint finding. Constructed once per match,
// appended to the context's accumulator, never mutated afterward.
type Diagnostic struct {
	Span    syntax.Range `json:"span"`
	LintID  string       `json:"lint"`
	Message string       `json:"message"`
	Level   Level        `json:"level"`
}

// Context carries everything a lint pass needs for one file: the
// semantic snapshot, the registry deciding levels, and the caller-owned
// diagnostics accumulator.
//
// A Context is not shared between goroutines; run one per file.
type Context struct {
	Sem         *semantic.Snapshot
	Registry    *Registry
	FileID      string
	Diagnostics *[]Diagnostic
}

// Report emits a diagnostic for a lint at a span, unless the lint's
// effective level is allow. The message text is fixed per lint; only
// the span varies per finding.
func (cx *Context) Report(lint Lint, span syntax.Range, message string) {
	level := cx.Registry.EffectiveLevel(lint.ID)
	if level == LevelAllow {
		return
	}

	*cx.Diagnostics = append(*cx.Diagnostics, Diagnostic{
		Span:    span,
		LintID:  lint.ID,
		Message: message,
		Level:   level,
	})
}
