package semantic

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// maxInferDepth bounds recursive inference through bindings and nested
// expressions; cycles in erroneous code must not hang a pass.
const maxInferDepth = 8

// inferExpr is deliberately shallow inference: declared annotations,
// constructor calls, impl-method return types, and struct field types.
// Whatever it cannot prove comes back unknown, which downstream policy
// turns into silence.
func (s *Snapshot) inferExpr(node *ts.Node, src []byte, depth int) Type {
	if node == nil || depth > maxInferDepth {
		return Unknown()
	}

	switch node.Kind() {
	case "parenthesized_expression":
		return s.inferExpr(node.NamedChild(0), src, depth+1)

	case "reference_expression":
		return s.inferExpr(node.ChildByFieldName("value"), src, depth+1)

	case "struct_expression":
		return s.typeFromText(fieldText(node, "name", src), depth+1)

	case "identifier":
		name := string(node.Utf8Text(src))
		if ty, ok := s.letBindingType(node, name, src, depth); ok {
			return ty
		}
		return s.pathType(name, depth)

	case "scoped_identifier":
		return s.pathType(string(node.Utf8Text(src)), depth)

	case "call_expression":
		return s.inferCall(node, src, depth)

	case "field_expression":
		return s.inferFieldAccess(node, src, depth)

	default:
		return Unknown()
	}
}

// inferCall handles both method calls (a.b()) and path calls (B(x),
// make_b()).
func (s *Snapshot) inferCall(node *ts.Node, src []byte, depth int) Type {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return Unknown()
	}

	switch fn.Kind() {
	case "field_expression":
		recv := fn.ChildByFieldName("value")
		method := fieldText(fn, "field", src)
		if method == "" {
			return Unknown()
		}
		recvTy := s.inferExpr(recv, src, depth+1)
		if recvTy.IsUnknown() || recvTy.Name == "" {
			return Unknown()
		}
		return s.methodReturnType(recvTy.Name, method, depth)

	case "identifier", "scoped_identifier":
		return s.callPathType(string(fn.Utf8Text(src)), depth)

	default:
		return Unknown()
	}
}

// inferFieldAccess types `expr.field` through the receiver's struct
// field types. Tuple fields are addressed by index text ("0", "1").
func (s *Snapshot) inferFieldAccess(node *ts.Node, src []byte, depth int) Type {
	recvTy := s.inferExpr(node.ChildByFieldName("value"), src, depth+1)
	if recvTy.IsUnknown() || recvTy.Name == "" {
		return Unknown()
	}

	field := fieldText(node, "field", src)
	if field == "" {
		return Unknown()
	}

	it, ok := s.items.Lookup(recvTy.Name)
	if !ok || it.FieldTypes == nil {
		return Unknown()
	}
	typeText, ok := it.FieldTypes[field]
	if !ok {
		return Unknown()
	}
	return s.typeFromText(typeText, depth+1)
}

// letBindingType scans enclosing blocks for the nearest preceding
// `let name ...` and types the binding from its annotation or, failing
// that, its initializer.
func (s *Snapshot) letBindingType(node *ts.Node, name string, src []byte, depth int) (Type, bool) {
	pos := node.StartByte()

	for scope := node.Parent(); scope != nil; scope = scope.Parent() {
		kind := scope.Kind()
		if kind != "block" && kind != "source_file" {
			continue
		}

		var binding *ts.Node
		for i := uint(0); i < scope.NamedChildCount(); i++ {
			child := scope.NamedChild(i)
			if child.StartByte() >= pos {
				break
			}
			if child.Kind() != "let_declaration" {
				continue
			}
			pat := child.ChildByFieldName("pattern")
			if pat == nil || pat.Kind() != "identifier" {
				continue
			}
			if string(pat.Utf8Text(src)) == name {
				// Later bindings shadow earlier ones.
				binding = child
			}
		}

		if binding != nil {
			if typeText := fieldText(binding, "type", src); typeText != "" {
				return s.typeFromText(typeText, depth+1), true
			}
			if value := binding.ChildByFieldName("value"); value != nil {
				ty := s.inferExpr(value, src, depth+1)
				return ty, !ty.IsUnknown()
			}
			return Unknown(), false
		}
	}

	return Type{}, false
}

// pathType types a path used as a value: a unit/tuple struct name, an
// enum variant, or a const/static.
func (s *Snapshot) pathType(path string, depth int) Type {
	if it, ok := s.items.Lookup(s.localizePath(path)); ok {
		switch it.Kind {
		case ItemStruct, ItemEnum, ItemUnion:
			return typeFromItem(it)
		case ItemConst, ItemStatic:
			return s.typeFromText(it.TypeText, depth+1)
		default:
			return Unknown()
		}
	}

	if full, ok := s.items.ImportPath(firstSegment(path)); ok {
		path = full + strings.TrimPrefix(path, firstSegment(path))
	}

	if s.store == nil {
		return Unknown()
	}

	if sig, ok := s.store.ItemType(path); ok {
		return typeFromSig(sig)
	}

	// Variant constructor: `Ordering::Less` types as the enum itself.
	if parent, ok := cutLastSegment(path); ok {
		if sig, ok := s.store.ItemType(parent); ok && sig.Kind == "enum" {
			return typeFromSig(sig)
		}
	}

	return Unknown()
}

// callPathType types a call through a path: tuple-struct constructors
// yield the struct, functions yield their declared return type.
func (s *Snapshot) callPathType(path string, depth int) Type {
	if it, ok := s.items.Lookup(s.localizePath(path)); ok {
		switch it.Kind {
		case ItemStruct:
			return typeFromItem(it)
		case ItemFunction:
			return s.typeFromText(it.ReturnType, depth+1)
		default:
			return Unknown()
		}
	}

	if full, ok := s.items.ImportPath(firstSegment(path)); ok {
		path = full + strings.TrimPrefix(path, firstSegment(path))
	}

	if s.store == nil {
		return Unknown()
	}

	if def, ok := s.store.Def(path); ok && def.Signature != nil {
		// For value-namespace entries the signature records the
		// constructor's/function's produced type.
		return typeFromSig(def.Signature)
	}

	return Unknown()
}

// methodReturnType resolves `recv.method()` against unit-local impls
// first, then dependency metadata.
func (s *Snapshot) methodReturnType(typeName, method string, depth int) Type {
	if ret, ok := s.items.Method(typeName, method); ok {
		return s.typeFromText(ret, depth+1)
	}

	if s.store != nil {
		if m, ok := s.store.Method(typeName, method); ok {
			if m.Return == nil {
				return unitType()
			}
			return typeFromSig(m.Return)
		}
	}

	return Unknown()
}

// typeFromText resolves a declared type text ("B", "Option<B>", "&mut
// T") into a Type, classifying the base name through the same dual-path
// lookup as everything else.
func (s *Snapshot) typeFromText(text string, depth int) Type {
	text = normalizeTypeText(text)
	if text == "" {
		return unitType()
	}
	if depth > maxInferDepth {
		return Unknown()
	}

	base, argTexts := splitGenericArgs(text)

	var ty Type
	switch {
	case primitives[base]:
		ty = Type{Kind: TypePrimitive, Name: base}
	default:
		ty = s.namedType(base)
	}

	for _, argText := range argTexts {
		ty.Args = append(ty.Args, s.typeFromText(argText, depth+1))
	}
	return ty
}

// namedType classifies a plain type name: local item, imported path, or
// metadata lookup by name. Names that resolve nowhere (generic
// parameters, missing deps) stay renderable as TypeOther.
func (s *Snapshot) namedType(name string) Type {
	if it, ok := s.items.Lookup(s.localizePath(name)); ok {
		switch it.Kind {
		case ItemStruct, ItemEnum, ItemUnion:
			return typeFromItem(it)
		}
	}

	if s.store != nil {
		if full, ok := s.items.ImportPath(name); ok {
			if sig, ok := s.store.ItemType(full); ok {
				return typeFromSig(sig)
			}
		}
		if strings.Contains(name, "::") {
			if sig, ok := s.store.ItemType(name); ok {
				return typeFromSig(sig)
			}
		}
		if def, ok := s.store.TypeDefByName(name); ok && def.Signature != nil {
			return typeFromSig(def.Signature)
		}
	}

	return Type{Kind: TypeOther, Name: name}
}

// unitType is the `()` type: known, trivially shaped, but not unknown —
// unit-returning chain links still surface hints.
func unitType() Type {
	return Type{Kind: TypeOther, Name: "()"}
}

func firstSegment(path string) string {
	if i := strings.Index(path, "::"); i >= 0 {
		return path[:i]
	}
	return path
}

func cutLastSegment(path string) (string, bool) {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[:i], true
	}
	return "", false
}
