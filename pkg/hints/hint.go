// Package hints implements editor-facing inlay hints: the chaining pass
// that labels intermediate chain links with their inferred types.
package hints

import (
	"strings"

	"github.com/rustlens/rustlens/pkg/semantic"
	"github.com/rustlens/rustlens/pkg/syntax"
)

// FileID identifies the source file an annotation belongs to.
type FileID string

// Kind tags the inlay hint variety.
type Kind int

const (
	// KindChaining labels an intermediate link of a multi-line method
	// chain with its inferred type.
	KindChaining Kind = iota
)

// String returns the kind name used in serialized output.
func (k Kind) String() string {
	switch k {
	case KindChaining:
		return "chaining"
	default:
		return "unknown"
	}
}

// LabelPart is one segment of a hint label: literal text, or a type
// reference that carries a jump-to-definition target.
type LabelPart struct {
	Text string `json:"text"`
	// Linked is the definition a consumer can navigate to; nil for
	// literal segments.
	Linked *semantic.Definition `json:"linked,omitempty"`
}

// Label is an ordered segment sequence. It always starts and ends with
// a (possibly empty) literal segment, with reference segments
// interleaved — a structure that stays both renderable and navigable.
type Label []LabelPart

// String flattens the label to plain text.
func (l Label) String() string {
	var b strings.Builder
	for _, part := range l {
		b.WriteString(part.Text)
	}
	return b.String()
}

// Tooltip is a secondary hover reference: instead of inlining expanded
// detail, it points consumers back at a range to run an on-demand hover
// query against.
type Tooltip struct {
	FileID FileID       `json:"file_id"`
	Range  syntax.Range `json:"range"`
}

// InlayHint is one emitted hint. Constructed once per successful match,
// appended to a caller-owned accumulator, never mutated afterward.
type InlayHint struct {
	// Range anchors the hint at the full chain-link expression, so
	// hovering or acting anywhere on the expression targets it.
	Range   syntax.Range `json:"range"`
	Kind    Kind         `json:"kind"`
	Label   Label        `json:"label"`
	Tooltip *Tooltip     `json:"tooltip,omitempty"`
}

// Config toggles hint passes. Read once per invocation; no state
// persists across invocations.
type Config struct {
	// ChainingHints enables the chaining pass.
	ChainingHints bool `yaml:"chaining_hints"`
	// NavigationLinks attaches jump-to-definition targets to type
	// references in labels.
	NavigationLinks bool `yaml:"navigation_links"`
}

// DefaultConfig returns the default hint configuration.
func DefaultConfig() *Config {
	return &Config{
		ChainingHints:   true,
		NavigationLinks: true,
	}
}
