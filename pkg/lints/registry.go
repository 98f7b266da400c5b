// Package lints implements compiler-facing diagnostics: a registry of
// lints with configurable levels and the glob-import pass.
package lints

import (
	"sort"
	"strings"
	"sync"
)

// Level is a lint's reporting level.
type Level int

const (
	// LevelAllow silences the lint entirely.
	LevelAllow Level = iota
	// LevelWarn reports without failing the run.
	LevelWarn
	// LevelDeny reports and marks the run as failed.
	LevelDeny
)

// String returns the level name used in config files and output.
func (l Level) String() string {
	switch l {
	case LevelAllow:
		return "allow"
	case LevelWarn:
		return "warn"
	case LevelDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "allow":
		return LevelAllow, true
	case "warn", "warning":
		return LevelWarn, true
	case "deny", "error":
		return LevelDeny, true
	default:
		return 0, false
	}
}

// Lint declares one lint: its identifier, what it finds, and the level
// it reports at unless configuration overrides it.
type Lint struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	DefaultLevel Level  `json:"default_level"`
}

// Registry maps lint identifiers to their declarations and level
// overrides. Reads are frequent (one lookup per report), writes happen
// only during setup.
type Registry struct {
	mu        sync.RWMutex
	lints     map[string]Lint
	overrides map[string]Level
}

// NewRegistry creates a registry pre-populated with the builtin lints.
func NewRegistry() *Registry {
	r := &Registry{
		lints:     make(map[string]Lint),
		overrides: make(map[string]Level),
	}
	r.Register(EnumGlobUse)
	return r
}

// Register declares a lint. Re-registering an ID replaces the
// declaration but keeps any override.
func (r *Registry) Register(l Lint) {
	r.mu.Lock()
	r.lints[l.ID] = l
	r.mu.Unlock()
}

// Override pins a lint to a level regardless of its default.
func (r *Registry) Override(id string, level Level) {
	r.mu.Lock()
	r.overrides[id] = level
	r.mu.Unlock()
}

// EffectiveLevel returns the level a lint reports at: the override when
// present, the declared default otherwise. Unknown lints are allowed
// (silent).
func (r *Registry) EffectiveLevel(id string) Level {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if level, ok := r.overrides[id]; ok {
		return level
	}
	if l, ok := r.lints[id]; ok {
		return l.DefaultLevel
	}
	return LevelAllow
}

// Lints returns all declared lints sorted by ID.
func (r *Registry) Lints() []Lint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Lint, 0, len(r.lints))
	for _, l := range r.lints {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
