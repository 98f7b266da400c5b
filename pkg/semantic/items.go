// Package semantic implements the semantic oracle for annotation passes:
// a per-file item table, dual-path definition resolution (local tree
// lookup vs compiled crate metadata), shallow type inference, and the
// attribute-expansion mapping between original and descended nodes.
package semantic

import (
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/rustlens/rustlens/pkg/syntax"
)

// ItemKind classifies a named item. Both resolution paths converge on
// this classification, so policy code never cares which path fired.
type ItemKind string

const (
	ItemStruct    ItemKind = "struct"
	ItemEnum      ItemKind = "enum"
	ItemUnion     ItemKind = "union"
	ItemFunction  ItemKind = "fn"
	ItemTrait     ItemKind = "trait"
	ItemModule    ItemKind = "mod"
	ItemConst     ItemKind = "const"
	ItemStatic    ItemKind = "static"
	ItemTypeAlias ItemKind = "type"
)

// Item is one named definition in the currently analyzed unit.
type Item struct {
	Name string
	// Path is the module-qualified path within the unit, e.g. "m::D".
	Path string
	Kind ItemKind
	// Location is the defining item's source range.
	Location syntax.Range

	// Fields is the field count for structs/unions and the variant count
	// for enums.
	Fields int
	// FieldTypes maps field name (or tuple index "0", "1", ...) to the
	// field's type text. Structs only.
	FieldTypes map[string]string
	// ReturnType is the declared return type text. Functions only;
	// empty means unit return.
	ReturnType string
	// TypeText is the declared type text for consts and statics.
	TypeText string
}

// ItemTable is the unit-local side of definition resolution: every named
// item of the analyzed file, addressable by qualified path or plain
// name, plus the unit's inherent impl methods.
type ItemTable struct {
	byPath map[string]*Item
	byName map[string]*Item
	// methods maps self-type name -> method name -> return type text.
	methods map[string]map[string]string
	// imports maps a `use`-introduced plain name to the full path it
	// came from, e.g. Ordering -> std::cmp::Ordering.
	imports map[string]string
}

// CollectItems walks a parsed file and builds its item table.
func CollectItems(root *ts.Node, source []byte) *ItemTable {
	t := &ItemTable{
		byPath:  make(map[string]*Item),
		byName:  make(map[string]*Item),
		methods: make(map[string]map[string]string),
		imports: make(map[string]string),
	}
	t.collect(root, source, "")
	return t
}

// Lookup finds an item by qualified path or, failing that, plain name.
func (t *ItemTable) Lookup(path string) (*Item, bool) {
	if it, ok := t.byPath[path]; ok {
		return it, true
	}
	it, ok := t.byName[path]
	return it, ok
}

// Method returns the return-type text of an inherent method declared in
// this unit. ok=false when the unit declares no such method.
func (t *ItemTable) Method(typeName, method string) (string, bool) {
	methods, ok := t.methods[typeName]
	if !ok {
		return "", false
	}
	ret, ok := methods[method]
	return ret, ok
}

// Len returns the number of collected items.
func (t *ItemTable) Len() int {
	return len(t.byPath)
}

// Items returns all collected items, for indexing and export.
func (t *ItemTable) Items() []*Item {
	items := make([]*Item, 0, len(t.byPath))
	for _, it := range t.byPath {
		items = append(items, it)
	}
	return items
}

func (t *ItemTable) collect(node *ts.Node, source []byte, modPath string) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "struct_item":
			t.addStruct(child, source, modPath)
		case "enum_item":
			t.add(child, source, modPath, ItemEnum, countNamed(child.ChildByFieldName("body"), "enum_variant"))
		case "union_item":
			t.add(child, source, modPath, ItemUnion, countNamed(child.ChildByFieldName("body"), "field_declaration"))
		case "function_item":
			it := t.add(child, source, modPath, ItemFunction, 0)
			if it != nil {
				it.ReturnType = fieldText(child, "return_type", source)
			}
		case "trait_item":
			t.add(child, source, modPath, ItemTrait, 0)
		case "type_item":
			t.add(child, source, modPath, ItemTypeAlias, 0)
		case "const_item", "static_item":
			kind := ItemConst
			if child.Kind() == "static_item" {
				kind = ItemStatic
			}
			it := t.add(child, source, modPath, kind, 0)
			if it != nil {
				it.TypeText = fieldText(child, "type", source)
			}
		case "mod_item":
			it := t.add(child, source, modPath, ItemModule, 0)
			if body := child.ChildByFieldName("body"); body != nil && it != nil {
				t.collect(body, source, it.Path)
			}
		case "impl_item":
			t.addImpl(child, source)
		case "use_declaration":
			t.addUse(child, source)
		}
	}
}

// add records one item; returns the stored entry for follow-up fields.
func (t *ItemTable) add(node *ts.Node, source []byte, modPath string, kind ItemKind, fields int) *Item {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := string(nameNode.Utf8Text(source))

	path := name
	if modPath != "" {
		path = modPath + "::" + name
	}

	it := &Item{
		Name:     name,
		Path:     path,
		Kind:     kind,
		Location: syntax.NodeRange(node),
		Fields:   fields,
	}
	t.byPath[path] = it
	// First declaration wins for plain-name lookup; shadowing across
	// modules is rare enough not to matter for annotation decisions.
	if _, exists := t.byName[name]; !exists {
		t.byName[name] = it
	}
	return it
}

// addStruct records a struct with its field count and field types.
// Handles all three struct forms: record, tuple, and unit.
func (t *ItemTable) addStruct(node *ts.Node, source []byte, modPath string) {
	it := t.add(node, source, modPath, ItemStruct, 0)
	if it == nil {
		return
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		// Unit struct: `struct D;` — zero fields.
		return
	}

	it.FieldTypes = make(map[string]string)
	switch body.Kind() {
	case "field_declaration_list":
		for i := uint(0); i < body.NamedChildCount(); i++ {
			field := body.NamedChild(i)
			if field.Kind() != "field_declaration" {
				continue
			}
			it.Fields++
			name := fieldText(field, "name", source)
			if typ := fieldText(field, "type", source); name != "" && typ != "" {
				it.FieldTypes[name] = typ
			}
		}
	case "ordered_field_declaration_list":
		idx := 0
		for i := uint(0); i < body.NamedChildCount(); i++ {
			field := body.NamedChild(i)
			switch field.Kind() {
			case "attribute_item", "visibility_modifier":
				continue
			}
			it.FieldTypes[strconv.Itoa(idx)] = string(field.Utf8Text(source))
			it.Fields++
			idx++
		}
	}
}

// MethodSets returns a copy of the inherent-method table, keyed by self
// type then method name, with declared return-type text as values.
func (t *ItemTable) MethodSets() map[string]map[string]string {
	out := make(map[string]map[string]string, len(t.methods))
	for typeName, methods := range t.methods {
		set := make(map[string]string, len(methods))
		for name, ret := range methods {
			set[name] = ret
		}
		out[typeName] = set
	}
	return out
}

// ImportPath returns the full path a plain name was imported from.
func (t *ItemTable) ImportPath(name string) (string, bool) {
	path, ok := t.imports[name]
	return path, ok
}

// addUse records the name bindings a `use` declaration introduces.
// Globs and nested use lists introduce no single binding and are left to
// path resolution.
func (t *ItemTable) addUse(node *ts.Node, source []byte) {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return
	}

	switch arg.Kind() {
	case "scoped_identifier":
		path := string(arg.Utf8Text(source))
		if name := fieldText(arg, "name", source); name != "" {
			t.imports[name] = path
		}
	case "use_as_clause":
		path := fieldText(arg, "path", source)
		if alias := fieldText(arg, "alias", source); alias != "" && path != "" {
			t.imports[alias] = path
		}
	}
}

// addImpl records the inherent methods of an impl block.
func (t *ItemTable) addImpl(node *ts.Node, source []byte) {
	typeName := fieldText(node, "type", source)
	if typeName == "" {
		return
	}
	// Strip generic arguments from the self type: `impl Foo<T>` -> Foo.
	if i := strings.IndexByte(typeName, '<'); i >= 0 {
		typeName = typeName[:i]
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}

	methods := t.methods[typeName]
	if methods == nil {
		methods = make(map[string]string)
		t.methods[typeName] = methods
	}

	for i := uint(0); i < body.NamedChildCount(); i++ {
		fn := body.NamedChild(i)
		if fn.Kind() != "function_item" {
			continue
		}
		name := fieldText(fn, "name", source)
		if name == "" {
			continue
		}
		methods[name] = fieldText(fn, "return_type", source)
	}
}

// fieldText returns the text of a named child field, or "".
func fieldText(node *ts.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return string(child.Utf8Text(source))
}

// countNamed counts named children of the given kind.
func countNamed(node *ts.Node, kind string) int {
	if node == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if node.NamedChild(i).Kind() == kind {
			count++
		}
	}
	return count
}

