package semantic

import (
	"strings"

	"github.com/rustlens/rustlens/pkg/metadata"
)

// TypeKind is the coarse classification of an inferred type.
type TypeKind int

const (
	// TypeUnknown means inference could not determine the type.
	TypeUnknown TypeKind = iota
	// TypeADT is a struct, enum, or union with a known shape.
	TypeADT
	// TypePrimitive is a builtin scalar or str.
	TypePrimitive
	// TypeOther is a known name whose shape is not resolvable (generic
	// parameters, unresolved imports).
	TypeOther
)

// ADTKind distinguishes algebraic data type representations.
type ADTKind int

const (
	ADTStruct ADTKind = iota
	ADTEnum
	ADTUnion
)

// Type is the opaque handle the oracle returns for an expression.
//
// Borrowed semantics: a Type is valid for the duration of one pass
// invocation; it holds no tree references and is safe to copy.
type Type struct {
	Kind TypeKind
	// Name is the plain type name, e.g. "Ordering".
	Name string
	// ADT is the representation when Kind == TypeADT.
	ADT ADTKind
	// Fields is the field count (structs/unions) or variant count
	// (enums) when Kind == TypeADT.
	Fields int
	// Args holds generic arguments, e.g. the T of Option<T>.
	Args []Type
}

// Unknown returns the unknown type.
func Unknown() Type {
	return Type{Kind: TypeUnknown}
}

// IsUnknown reports whether inference failed to determine this type.
func (t Type) IsUnknown() bool {
	return t.Kind == TypeUnknown
}

// AsADT returns the algebraic representation, ok=false for non-ADTs.
func (t Type) AsADT() (ADTKind, int, bool) {
	if t.Kind != TypeADT {
		return 0, 0, false
	}
	return t.ADT, t.Fields, true
}

// primitives is the set of builtin Rust type names.
var primitives = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true, "bool": true, "char": true, "str": true,
}

// typeFromSig converts a compiled metadata signature into a Type.
func typeFromSig(sig *metadata.TypeSig) Type {
	if sig == nil {
		return Unknown()
	}

	t := Type{Name: sig.Name, Fields: sig.Fields}
	switch sig.Kind {
	case "enum":
		t.Kind, t.ADT = TypeADT, ADTEnum
	case "struct":
		t.Kind, t.ADT = TypeADT, ADTStruct
	case "union":
		t.Kind, t.ADT = TypeADT, ADTUnion
	case "primitive":
		t.Kind = TypePrimitive
	default:
		t.Kind = TypeOther
	}

	for i := range sig.Args {
		t.Args = append(t.Args, typeFromSig(&sig.Args[i]))
	}
	return t
}

// typeFromItem converts a unit-local item into a Type.
func typeFromItem(it *Item) Type {
	t := Type{Name: it.Name, Fields: it.Fields, Kind: TypeADT}
	switch it.Kind {
	case ItemStruct:
		t.ADT = ADTStruct
	case ItemEnum:
		t.ADT = ADTEnum
	case ItemUnion:
		t.ADT = ADTUnion
	default:
		return Type{Name: it.Name, Kind: TypeOther}
	}
	return t
}

// splitGenericArgs splits "Result<A, B<C>>" into base "Result" and
// top-level argument texts ["A", "B<C>"]. A type text without generics
// comes back with nil args.
func splitGenericArgs(text string) (string, []string) {
	open := strings.IndexByte(text, '<')
	if open < 0 || !strings.HasSuffix(text, ">") {
		return text, nil
	}

	base := strings.TrimSpace(text[:open])
	inner := text[open+1 : len(text)-1]

	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(inner[start:]); rest != "" {
		args = append(args, rest)
	}
	return base, args
}

// normalizeTypeText strips reference sigils and whitespace from a
// declared type text: "&mut B" -> "B".
func normalizeTypeText(text string) string {
	text = strings.TrimSpace(text)
	for {
		switch {
		case strings.HasPrefix(text, "&"):
			text = strings.TrimSpace(text[1:])
		case strings.HasPrefix(text, "mut "):
			text = strings.TrimSpace(text[4:])
		case strings.HasPrefix(text, "'"):
			// Lifetime: drop the token.
			if i := strings.IndexAny(text, " \t"); i >= 0 {
				text = strings.TrimSpace(text[i+1:])
			} else {
				return ""
			}
		default:
			return text
		}
	}
}
