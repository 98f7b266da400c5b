package lints

import (
	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/rustlens/rustlens/pkg/syntax"
)

// EnumGlobUse finds use items that import all variants of an enum.
// Prefixed variant names are usually better style; re-exports are
// exempt because surfacing every variant is their point.
var EnumGlobUse = Lint{
	ID:           "enum-glob-use",
	Description:  "finds use items that import all variants of an enum",
	DefaultLevel: LevelWarn,
}

const enumGlobUseMessage = "don't use glob imports for enum variants"

// CheckModule runs the glob-import lint over the top-level use items of
// one module node (a file root or an inline `mod` item).
//
// Total: any failed resolution or classification yields no diagnostic
// for that item and the walk continues.
func CheckModule(cx *Context, module *ts.Node) {
	body := module
	if module.Kind() == "mod_item" {
		body = module.ChildByFieldName("body")
		if body == nil {
			return
		}
	}

	// Only direct children: nested modules get their own CheckModule
	// call from the driver.
	for i := uint(0); i < body.NamedChildCount(); i++ {
		item := body.NamedChild(i)
		if item.Kind() == "use_declaration" {
			cx.lintUseItem(item)
		}
	}
}

func (cx *Context) lintUseItem(item *ts.Node) {
	// Re-exports are fine.
	if isPublic(item, cx.Sem.Source()) {
		return
	}

	path, ok := globImportPath(item, cx.Sem.Source())
	if !ok {
		return
	}

	def, ok := cx.Sem.ResolveDefinition(path)
	if !ok {
		return
	}
	if !def.IsEnum() {
		return
	}

	cx.Report(EnumGlobUse, syntax.NodeRange(item), enumGlobUseMessage)
}

// isPublic reports whether the item carries an unrestricted `pub`.
// Scoped visibility (pub(crate), pub(super)) does not re-export outside
// the crate and stays lintable.
func isPublic(item *ts.Node, source []byte) bool {
	for i := uint(0); i < item.NamedChildCount(); i++ {
		child := item.NamedChild(i)
		if child.Kind() == "visibility_modifier" {
			return string(child.Utf8Text(source)) == "pub"
		}
	}
	return false
}

// globImportPath extracts the glob's target path from a use item:
// `use std::cmp::Ordering::*;` yields "std::cmp::Ordering". ok=false
// for every non-glob form.
func globImportPath(item *ts.Node, source []byte) (string, bool) {
	arg := item.ChildByFieldName("argument")
	if arg == nil || arg.Kind() != "use_wildcard" {
		return "", false
	}

	// The wildcard's single named child is the path before `::*`.
	if arg.NamedChildCount() == 0 {
		return "", false
	}
	path := arg.NamedChild(0)
	return string(path.Utf8Text(source)), true
}
