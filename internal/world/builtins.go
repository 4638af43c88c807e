package world

import (
	"encoding/json"
	"fmt"
	"io"
)

// builtinMethodJSON and builtinClassJSON mirror the JSON shape
// mandated by spec.md §6:
//
//	{ClassName: {super: string, methods: {name: {params: [string], ret: string}}, fields: {name: string}}}
type builtinMethodJSON struct {
	Params []string `json:"params"`
	Ret    string   `json:"ret"`
}

type builtinClassJSON struct {
	Super   string                       `json:"super"`
	Methods map[string]builtinMethodJSON `json:"methods"`
	Fields  map[string]string            `json:"fields"`
}

// requiredBuiltins is the minimum set of classes spec.md §6 requires
// the builtin table to define.
var requiredBuiltins = []string{ObjClass, "Int", "String", "Bool", "Nothing"}

// LoadBuiltins reads a builtin-type JSON table (spec.md §6) from r and
// returns a populated World. It validates the invariants spec.md §3
// lists for the Type World: every super/param/return name must exist
// as a key, and Obj must be its own supertype.
func LoadBuiltins(r io.Reader) (*World, error) {
	var raw map[string]builtinClassJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("builtin table: invalid JSON: %w", err)
	}

	w := New()
	for name, c := range raw {
		entry := newClassEntry(c.Super)
		for mname, m := range c.Methods {
			params := append([]string(nil), m.Params...)
			entry.Methods[mname] = &Method{Params: params, Ret: m.Ret}
		}
		for fname, ftype := range c.Fields {
			entry.Fields[fname] = ftype
		}
		w.Classes[name] = entry
	}

	for _, name := range requiredBuiltins {
		if !w.Has(name) {
			return nil, fmt.Errorf("builtin table: missing required class %q", name)
		}
	}
	if objEntry := w.Get(ObjClass); objEntry.Super != ObjClass {
		return nil, fmt.Errorf("builtin table: %s.super must be %s (got %q)", ObjClass, ObjClass, objEntry.Super)
	}

	if err := w.validateNames(); err != nil {
		return nil, err
	}
	return w, nil
}

// validateNames enforces spec.md §3 invariant (i): every name
// appearing as a super, parameter type, or return type must exist as
// a key.
func (w *World) validateNames() error {
	for name, e := range w.Classes {
		if !w.Has(e.Super) {
			return fmt.Errorf("class %q: unknown supertype %q", name, e.Super)
		}
		for mname, m := range e.Methods {
			for _, p := range m.Params {
				if !w.Has(p) {
					return fmt.Errorf("class %q method %q: unknown parameter type %q", name, mname, p)
				}
			}
			if !w.Has(m.Ret) {
				return fmt.Errorf("class %q method %q: unknown return type %q", name, mname, m.Ret)
			}
		}
		for fname, ftype := range e.Fields {
			if !w.Has(ftype) {
				return fmt.Errorf("class %q field %q: unknown type %q", name, fname, ftype)
			}
		}
	}
	return nil
}

// OperatorMethodNames is the set of operator method names spec.md §6
// requires every builtin table to define on its numeric/comparable
// classes.
var OperatorMethodNames = []string{
	"PLUS", "MINUS", "TIMES", "DIVIDE", "MOD",
	"NEG", "NEGATE", "EQUALS", "LESS", "ATMOST", "MORE", "ATLEAST",
}
