package hints

import (
	"github.com/rustlens/rustlens/pkg/semantic"
)

// labelOfTy renders a type as a label: every named type in the
// signature, including nested generic arguments, becomes a reference
// segment with its definition attached; punctuation stays literal.
func labelOfTy(sem *semantic.Snapshot, cfg *Config, ty semantic.Type) Label {
	label := Label{{}}
	appendTy(&label, sem, cfg, ty)

	// Keep the trailing-literal invariant.
	if label[len(label)-1].Linked != nil {
		label = append(label, LabelPart{})
	}
	return label
}

func appendTy(label *Label, sem *semantic.Snapshot, cfg *Config, ty semantic.Type) {
	name := ty.Name
	if name == "" {
		name = "_"
	}

	var linked *semantic.Definition
	if cfg.NavigationLinks && ty.Kind == semantic.TypeADT {
		if def, ok := sem.TypeDefinition(ty.Name); ok {
			linked = &def
		}
	}

	if linked != nil {
		*label = append(*label, LabelPart{Text: name, Linked: linked})
	} else {
		appendLiteral(label, name)
	}

	if len(ty.Args) == 0 {
		return
	}
	appendLiteral(label, "<")
	for i, arg := range ty.Args {
		if i > 0 {
			appendLiteral(label, ", ")
		}
		appendTy(label, sem, cfg, arg)
	}
	appendLiteral(label, ">")
}

// appendLiteral merges adjacent literal text into one segment so the
// label stays an alternating literal/reference sequence.
func appendLiteral(label *Label, text string) {
	if n := len(*label); n > 0 && (*label)[n-1].Linked == nil {
		(*label)[n-1].Text += text
		return
	}
	*label = append(*label, LabelPart{Text: text})
}
