// Package metadata implements the persisted crate-metadata store: the
// resolution path for definitions that live in already-compiled
// dependency crates, reachable only through their serialized metadata.
package metadata

// Namespace tags the last segment of a stable def-path. Only
// type-namespace entries carry a compiled type signature worth
// classifying.
type Namespace string

const (
	NamespaceType  Namespace = "type"
	NamespaceValue Namespace = "value"
	NamespaceMacro Namespace = "macro"
)

// TypeSig is the compiled representation of a type, deep enough to
// classify it (enum vs struct, field count) and to render it with
// navigable type references.
type TypeSig struct {
	Name string `json:"name"`
	// Kind is the type representation: "enum", "struct", "union",
	// "primitive", or "generic".
	Kind string `json:"kind"`
	// Fields is the field count for structs/unions and the variant count
	// for enums.
	Fields int `json:"fields"`
	// Args holds generic arguments, e.g. the T of Option<T>.
	Args []TypeSig `json:"args,omitempty"`
}

// Def is one exported definition of a compiled crate, addressed by its
// stable cross-crate path.
type Def struct {
	// Path is the stable def-path, e.g. "std::cmp::Ordering".
	Path string `json:"path"`
	// Namespace tags the last path segment.
	Namespace Namespace `json:"namespace"`
	// Kind is the item kind: "struct", "enum", "union", "fn", "trait",
	// "mod", "const", "static", "type".
	Kind string `json:"kind"`
	// Signature is the compiled type signature; present for
	// type-namespace entries.
	Signature *TypeSig `json:"signature,omitempty"`
}

// Method is one inherent or trait method usable in chain inference.
type Method struct {
	Name   string   `json:"name"`
	Return *TypeSig `json:"return,omitempty"`
}

// Impl groups the methods a crate provides for one type.
type Impl struct {
	// Type is the self type's plain name, e.g. "Ordering".
	Type    string   `json:"type"`
	Methods []Method `json:"methods"`
}

// Crate is the serialized metadata of one compiled dependency.
type Crate struct {
	Name    string `json:"crate"`
	Version string `json:"version"`
	Defs    []Def  `json:"defs"`
	Impls   []Impl `json:"impls,omitempty"`
}

// Index provides O(1) lookups into one crate's metadata.
// Built during load after validation passes.
type Index struct {
	// DefByPath maps stable def-path -> *Def.
	DefByPath map[string]*Def

	// DefByName maps a definition's last path segment -> *Def. When a
	// name is ambiguous within the crate the type-namespace entry wins.
	DefByName map[string]*Def

	// MethodsByType maps self-type name -> method name -> *Method.
	MethodsByType map[string]map[string]*Method
}
