package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// validNamespaces defines the allowed namespace tags.
var validNamespaces = map[Namespace]bool{
	NamespaceType:  true,
	NamespaceValue: true,
	NamespaceMacro: true,
}

// validKinds defines the allowed item kinds.
var validKinds = map[string]bool{
	"struct": true,
	"enum":   true,
	"union":  true,
	"fn":     true,
	"trait":  true,
	"mod":    true,
	"const":  true,
	"static": true,
	"type":   true,
}

// Validate checks the crate metadata for internal consistency.
// Returns a slice of validation errors (empty slice if valid).
func (c *Crate) Validate() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, fmt.Errorf("crate name is required"))
	}
	if c.Version == "" {
		errs = append(errs, fmt.Errorf("crate version is required"))
	}

	defPaths := make(map[string]bool, len(c.Defs))
	for i, def := range c.Defs {
		if def.Path == "" {
			errs = append(errs, fmt.Errorf("defs[%d]: path is required", i))
			continue
		}
		if c.Name != "" && !strings.HasPrefix(def.Path, c.Name+"::") && def.Path != c.Name {
			errs = append(errs, fmt.Errorf("def %q: path must be rooted at crate %q", def.Path, c.Name))
		}
		if defPaths[def.Path] {
			errs = append(errs, fmt.Errorf("defs[%d]: duplicate def path %q", i, def.Path))
			continue
		}
		defPaths[def.Path] = true

		if !validNamespaces[def.Namespace] {
			errs = append(errs, fmt.Errorf("def %q: invalid namespace %q (must be type/value/macro)", def.Path, def.Namespace))
		}
		if !validKinds[def.Kind] {
			errs = append(errs, fmt.Errorf("def %q: invalid kind %q", def.Path, def.Kind))
		}
		if def.Namespace == NamespaceType && def.Signature == nil {
			errs = append(errs, fmt.Errorf("def %q: type-namespace entries require a signature", def.Path))
		}
	}

	implTypes := make(map[string]bool, len(c.Impls))
	for i, impl := range c.Impls {
		if impl.Type == "" {
			errs = append(errs, fmt.Errorf("impls[%d]: type is required", i))
			continue
		}
		if implTypes[impl.Type] {
			errs = append(errs, fmt.Errorf("impls[%d]: duplicate impl block for type %q", i, impl.Type))
			continue
		}
		implTypes[impl.Type] = true

		methodNames := make(map[string]bool, len(impl.Methods))
		for j, m := range impl.Methods {
			if m.Name == "" {
				errs = append(errs, fmt.Errorf("impl %q methods[%d]: name is required", impl.Type, j))
				continue
			}
			if methodNames[m.Name] {
				errs = append(errs, fmt.Errorf("impl %q: duplicate method %q", impl.Type, m.Name))
			}
			methodNames[m.Name] = true
		}
	}

	return errs
}

// BuildIndex creates lookup maps for fast access.
// Should be called after Validate() passes.
func (c *Crate) BuildIndex() *Index {
	idx := &Index{
		DefByPath:     make(map[string]*Def, len(c.Defs)),
		DefByName:     make(map[string]*Def, len(c.Defs)),
		MethodsByType: make(map[string]map[string]*Method, len(c.Impls)),
	}

	for i := range c.Defs {
		def := &c.Defs[i]
		idx.DefByPath[def.Path] = def

		name := lastSegment(def.Path)
		if existing, ok := idx.DefByName[name]; !ok || existing.Namespace != NamespaceType {
			idx.DefByName[name] = def
		}
	}

	for i := range c.Impls {
		impl := &c.Impls[i]
		methods := make(map[string]*Method, len(impl.Methods))
		for j := range impl.Methods {
			methods[impl.Methods[j].Name] = &impl.Methods[j]
		}
		idx.MethodsByType[impl.Type] = methods
	}

	return idx
}

// lastSegment returns the final `::`-separated segment of a def-path.
func lastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

// LoadFromFile loads crate metadata from a JSON file, validates it, and
// builds the index.
func LoadFromFile(path string) (*Crate, *Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses crate metadata from raw JSON bytes, validates it,
// and builds the index.
func LoadFromBytes(data []byte) (*Crate, *Index, error) {
	var crate Crate
	if err := json.Unmarshal(data, &crate); err != nil {
		return nil, nil, fmt.Errorf("failed to parse metadata JSON: %w", err)
	}

	if errs := crate.Validate(); len(errs) > 0 {
		return nil, nil, fmt.Errorf("metadata validation failed: %w", errors.Join(errs...))
	}

	index := crate.BuildIndex()
	return &crate, index, nil
}
