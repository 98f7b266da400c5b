package semantic

import (
	"strings"

	"github.com/rustlens/rustlens/pkg/metadata"
	"github.com/rustlens/rustlens/pkg/syntax"
)

// Definition is a named entity's resolved identity. Exactly one of the
// two lifecycles applies: local definitions carry the defining range in
// the analyzed unit, external ones carry the owning crate.
type Definition struct {
	// Path is the definition's path as resolved.
	Path string
	// Kind is the converged item-kind classification. Both resolution
	// paths produce it; callers never branch on which path fired.
	Kind ItemKind
	// Local is the defining item's range when the definition lives in
	// the analyzed unit.
	Local *syntax.Range
	// Crate names the owning compiled crate for external definitions.
	Crate string
}

// IsEnum reports whether the definition is an enum type.
func (d Definition) IsEnum() bool {
	return d.Kind == ItemEnum
}

// IsLocal reports whether the definition was resolved in the analyzed
// unit rather than through crate metadata.
func (d Definition) IsLocal() bool {
	return d.Local != nil
}

// ResolveDefinition resolves a path to a definition, trying the local
// item table first and the external metadata store second.
//
// Local path: a definition whose identifying position lies in the
// analyzed unit is looked up directly in the unit's item table and
// classified by its syntactic item kind.
//
// External path: otherwise the stable cross-crate path is consulted; if
// its last segment sits in the type namespace, the entity's compiled
// type signature is fetched and classified by its representation.
//
// Absence is not an error: ok=false silently disables whatever
// annotation asked.
func (s *Snapshot) ResolveDefinition(path string) (Definition, bool) {
	local := s.localizePath(path)
	if it, ok := s.items.Lookup(local); ok {
		loc := it.Location
		return Definition{
			Path:  it.Path,
			Kind:  it.Kind,
			Local: &loc,
		}, true
	}

	if s.store == nil {
		return Definition{}, false
	}

	def, ok := s.store.Def(path)
	if !ok {
		return Definition{}, false
	}

	kind, ok := classifyExternal(def)
	if !ok {
		// Classification-ambiguous: treat like absence.
		return Definition{}, false
	}

	crate, _, _ := strings.Cut(def.Path, "::")
	return Definition{
		Path:  def.Path,
		Kind:  kind,
		Crate: crate,
	}, true
}

// classifyExternal converges metadata on the shared item-kind contract.
//
// Type-namespace entries are classified by their compiled type
// representation, not by the recorded kind string; the two must agree
// for well-formed metadata, and the representation is what actually
// decides enum-specific behavior.
func classifyExternal(def *metadata.Def) (ItemKind, bool) {
	if def.Namespace == metadata.NamespaceType {
		if def.Signature == nil {
			return "", false
		}
		switch def.Signature.Kind {
		case "enum":
			return ItemEnum, true
		case "struct":
			return ItemStruct, true
		case "union":
			return ItemUnion, true
		default:
			return ItemTypeAlias, true
		}
	}

	switch def.Kind {
	case "fn":
		return ItemFunction, true
	case "const":
		return ItemConst, true
	case "static":
		return ItemStatic, true
	case "trait":
		return ItemTrait, true
	case "mod":
		return ItemModule, true
	default:
		return "", false
	}
}

// localizePath strips unit-local path qualifiers so the item table can
// be consulted: "crate::m::D" -> "m::D", "self::D" -> "D", and a leading
// segment equal to the analyzed crate's own name is dropped too.
func (s *Snapshot) localizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "crate::"):
		return path[len("crate::"):]
	case strings.HasPrefix(path, "self::"):
		return path[len("self::"):]
	case s.unitName != "" && strings.HasPrefix(path, s.unitName+"::"):
		return path[len(s.unitName)+2:]
	default:
		return path
	}
}

// TypeDefinition finds the defining item of a plain type name for
// navigation: unit-local items win, then any type-namespace entry in
// the metadata store.
func (s *Snapshot) TypeDefinition(name string) (Definition, bool) {
	if it, ok := s.items.Lookup(name); ok {
		switch it.Kind {
		case ItemStruct, ItemEnum, ItemUnion, ItemTypeAlias:
			loc := it.Location
			return Definition{Path: it.Path, Kind: it.Kind, Local: &loc}, true
		}
	}

	if s.store != nil {
		if def, ok := s.store.TypeDefByName(name); ok {
			if kind, ok := classifyExternal(def); ok {
				crate, _, _ := strings.Cut(def.Path, "::")
				return Definition{Path: def.Path, Kind: kind, Crate: crate}, true
			}
		}
	}

	return Definition{}, false
}
