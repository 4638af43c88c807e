// Package world implements the Type World: the mutable registry of
// class names to their supertype, methods and fields (spec.md §3),
// plus the inheritance-lattice operations the Type Checker relies on
// to reach a fixpoint (IsSubtype, Depth, LCA).
package world

import "fmt"

// ObjClass is the distinguished lattice root; its own supertype is
// itself (spec.md §3 invariant (ii)'s sole permitted cycle).
const ObjClass = "Obj"

// NothingClass is the unit type: the sole inhabitant is the literal
// `none`.
const NothingClass = "Nothing"

// IntClass, StringClass and BoolClass name the remaining builtin
// classes the Type Checker assigns to literals directly, without a
// table lookup.
const (
	IntClass    = "Int"
	StringClass = "String"
	BoolClass   = "Bool"
)

// Method is a method's declared signature.
type Method struct {
	Params []string // ordered parameter class names
	Ret    string   // return class name
}

// ClassEntry is one class's record in the Type World.
type ClassEntry struct {
	Super   string
	Methods map[string]*Method
	Fields  map[string]string // field name -> class name
}

func newClassEntry(super string) *ClassEntry {
	return &ClassEntry{
		Super:   super,
		Methods: make(map[string]*Method),
		Fields:  make(map[string]string),
	}
}

// World is the full Type World: class name -> ClassEntry.
type World struct {
	Classes map[string]*ClassEntry
}

// New returns an empty World (no builtins). Most callers want
// LoadBuiltins.
func New() *World {
	return &World{Classes: make(map[string]*ClassEntry)}
}

// Has reports whether name is a known class.
func (w *World) Has(name string) bool {
	_, ok := w.Classes[name]
	return ok
}

// Get returns the entry for name, or nil if unknown.
func (w *World) Get(name string) *ClassEntry {
	return w.Classes[name]
}

// Define registers a new class with the given supertype, failing if
// the name is already taken. Used by the Class Loader.
func (w *World) Define(name, super string) (*ClassEntry, error) {
	if w.Has(name) {
		return nil, fmt.Errorf("class %q already defined", name)
	}
	e := newClassEntry(super)
	w.Classes[name] = e
	return e, nil
}

// CopyMethods deep-copies src's method map into a fresh map, as the
// Class Loader does when a subclass inherits its supertype's methods
// by value (spec.md §4.2).
func CopyMethods(src map[string]*Method) map[string]*Method {
	out := make(map[string]*Method, len(src))
	for name, m := range src {
		params := make([]string, len(m.Params))
		copy(params, m.Params)
		out[name] = &Method{Params: params, Ret: m.Ret}
	}
	return out
}

// CopyFields deep-copies src's field map into a fresh map.
func CopyFields(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for name, typ := range src {
		out[name] = typ
	}
	return out
}

// ---------------------------------------------------------------------
// Lattice operations
// ---------------------------------------------------------------------

// IsSubtype reports whether a is the same class as, or a descendant
// of, b — i.e. whether following super links from a eventually reaches
// b. Every class is its own subtype (reflexivity, testable property
// 1 in spec.md §8).
func (w *World) IsSubtype(a, b string) bool {
	if a == "" || b == "" {
		// ⊥ is not a real class; callers should special-case it before
		// calling IsSubtype. Treat as "no relation" defensively.
		return a == b
	}
	cur := a
	for {
		if cur == b {
			return true
		}
		entry := w.Classes[cur]
		if entry == nil {
			return false
		}
		if entry.Super == cur {
			// Reached Obj's self-loop without matching b.
			return false
		}
		cur = entry.Super
	}
}

// Depth returns the number of super hops from a to Obj. Depth(Obj) ==
// 0.
func (w *World) Depth(a string) int {
	d := 0
	cur := a
	for {
		entry := w.Classes[cur]
		if entry == nil || entry.Super == cur {
			return d
		}
		cur = entry.Super
		d++
	}
}

// LCA computes the least common ancestor of a and b along the
// inheritance tree rooted at Obj (spec.md §4.6). The empty string is
// the bottom sentinel ⊥: lca(⊥, x) = x in either position.
func (w *World) LCA(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	da, db := w.Depth(a), w.Depth(b)
	for da > db {
		a = w.Classes[a].Super
		da--
	}
	for db > da {
		b = w.Classes[b].Super
		db--
	}
	for a != b {
		a = w.Classes[a].Super
		b = w.Classes[b].Super
	}
	return a
}
