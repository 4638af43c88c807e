// Package fieldcheck implements the Field Loader (spec.md §4.3): it
// walks each class's constructor, tracking which fields of `this` are
// definitely initialized along the current path, and registers every
// field the constructor initializes unconditionally into the Type
// World so the Type Checker can later resolve it.
//
// Only the constructor is examined here. By the time any other method
// runs, construction has already completed, so every field this pass
// admits into the registry is guaranteed present; field accesses from
// ordinary methods are instead validated by the Type Checker against
// that registry.
package fieldcheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/flow"
	"github.com/quacklang/quackc/internal/world"
)

const phase = "fieldcheck"

// Check walks every class's constructor in prog and installs the
// fields it unconditionally initializes into w.
func Check(w *world.World, prog *ast.Program) error {
	for _, cls := range prog.Classes {
		if err := checkClass(w, cls); err != nil {
			return err
		}
	}
	return nil
}

func checkClass(w *world.World, cls *ast.ClassDecl) error {
	ctor := constructorOf(cls)
	if ctor == nil {
		return nil
	}

	everStored := flow.NewSet()
	collectStores(ctor.Body, everStored)

	c := &checker{everStored: everStored, seen: flow.NewSet()}
	final, err := c.block(ctor.Body, flow.NewSet())
	if err != nil {
		return err
	}

	// A field that was touched on some path but never made it into the
	// unconditional final set is only maybe-initialized by the time the
	// constructor returns, even if every individual read happened to be
	// correctly guarded.
	if free := c.seen.Difference(final); len(free) > 0 {
		return fieldNotOnAllPathsErr(free, ctor.Pos)
	}

	entry := w.Get(cls.Sig.Name)
	for f := range final {
		if _, ok := entry.Fields[f]; !ok {
			// Type is filled in later by the Type Checker as it infers
			// the class of each store_field(this, f, _) it visits.
			entry.Fields[f] = ""
		}
	}
	return nil
}

func fieldNotOnAllPathsErr(free flow.Set, at ast.Pos) error {
	names := make([]string, 0, len(free))
	for n := range free {
		names = append(names, n)
	}
	sort.Strings(names)
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	verb := "is"
	if len(names) > 1 {
		verb = "are"
	}
	return qerrors.New(phase, qerrors.FLD002FieldNotOnAllPaths,
		fmt.Sprintf("field %s %s not initialized on every path through the constructor",
			strings.Join(quoted, ", "), verb), pos(at)).Wrap()
}

func constructorOf(cls *ast.ClassDecl) *ast.MethodDecl {
	for _, m := range cls.Body.Methods {
		if m.Name == ast.ConstructorName {
			return m
		}
	}
	return nil
}

// collectStores finds every store_field(this, f, _) anywhere in b,
// regardless of which branch it sits in, so the immediate-use check
// below can tell a genuinely unknown field name from one that is
// merely conditionally initialized.
func collectStores(b *ast.Block, known flow.Set) {
	for _, s := range b.Stmts {
		collectStoresStmt(s, known)
	}
}

func collectStoresStmt(n ast.Node, known flow.Set) {
	switch s := n.(type) {
	case *ast.StoreField:
		if isThis(s.Object) {
			known.Add(s.Field)
		}
	case *ast.IfStmt:
		collectStores(s.Then, known)
		for _, e := range s.Elifs {
			collectStores(e.Body, known)
		}
		if s.Else != nil {
			collectStores(s.Else, known)
		}
	case *ast.WhileLoop:
		collectStores(s.Body, known)
	case *ast.TypeCase:
		for _, alt := range s.Alts {
			collectStores(alt.Body, known)
		}
	case *ast.Block:
		collectStores(s, known)
	}
}

func isThis(e ast.Expr) bool {
	v, ok := e.(*ast.Var)
	return ok && v.Name == "this"
}

type checker struct {
	everStored flow.Set
	seen       flow.Set
}

func (c *checker) block(b *ast.Block, initialized flow.Set) (flow.Set, error) {
	cur := initialized
	for _, s := range b.Stmts {
		next, err := c.stmt(s, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (c *checker) stmt(n ast.Node, initialized flow.Set) (flow.Set, error) {
	switch s := n.(type) {
	case *ast.RawExprStmt:
		return initialized, c.expr(s.Expr, initialized)
	case *ast.Assign:
		return initialized, c.expr(s.Rhs, initialized)
	case *ast.StoreField:
		if err := c.expr(s.Object, initialized); err != nil {
			return nil, err
		}
		if err := c.expr(s.Value, initialized); err != nil {
			return nil, err
		}
		if isThis(s.Object) {
			initialized = initialized.Clone()
			initialized.Add(s.Field)
			c.seen.Add(s.Field)
		}
		return initialized, nil
	case *ast.RetExp:
		return initialized, c.expr(s.Value, initialized)
	case *ast.IfStmt:
		return c.ifStmt(s, initialized)
	case *ast.WhileLoop:
		if err := c.expr(s.Cond.Expr, initialized); err != nil {
			return nil, err
		}
		if _, err := c.block(s.Body, initialized.Clone()); err != nil {
			return nil, err
		}
		return initialized, nil
	case *ast.TypeCase:
		return c.typeCase(s, initialized)
	case *ast.Block:
		return c.block(s, initialized)
	default:
		return initialized, nil
	}
}

func (c *checker) ifStmt(s *ast.IfStmt, initialized flow.Set) (flow.Set, error) {
	if err := c.expr(s.Cond.Expr, initialized); err != nil {
		return nil, err
	}
	branches := make([]flow.Set, 0, len(s.Elifs)+2)

	thenOut, err := c.block(s.Then, initialized.Clone())
	if err != nil {
		return nil, err
	}
	branches = append(branches, thenOut)

	for _, e := range s.Elifs {
		if err := c.expr(e.Cond.Expr, initialized); err != nil {
			return nil, err
		}
		out, err := c.block(e.Body, initialized.Clone())
		if err != nil {
			return nil, err
		}
		branches = append(branches, out)
	}

	if s.Else != nil {
		out, err := c.block(s.Else, initialized.Clone())
		if err != nil {
			return nil, err
		}
		branches = append(branches, out)
	} else {
		// No else: pretend it added no new fields.
		branches = append(branches, initialized)
	}

	return initialized.Union(flow.Intersect(branches...)), nil
}

func (c *checker) typeCase(s *ast.TypeCase, initialized flow.Set) (flow.Set, error) {
	if err := c.expr(s.Scrutinee, initialized); err != nil {
		return nil, err
	}
	branches := make([]flow.Set, 0, len(s.Alts)+1)
	hasObjDefault := false
	for _, alt := range s.Alts {
		out, err := c.block(alt.Body, initialized.Clone())
		if err != nil {
			return nil, err
		}
		branches = append(branches, out)
		if alt.IsObjDefault() {
			hasObjDefault = true
		}
	}
	if !hasObjDefault {
		// No alternative covers every remaining case: flow may skip the
		// typecase entirely.
		branches = append(branches, initialized)
	}
	return initialized.Union(flow.Intersect(branches...)), nil
}

func (c *checker) expr(e ast.Expr, initialized flow.Set) error {
	switch x := e.(type) {
	case *ast.LoadField:
		if err := c.expr(x.Object, initialized); err != nil {
			return err
		}
		if isThis(x.Object) {
			if !initialized.Has(x.Field) {
				if c.everStored.Has(x.Field) {
					return qerrors.New(phase, qerrors.FLD002FieldNotOnAllPaths,
						fmt.Sprintf("field %q is not initialized on every path reaching this use", x.Field),
						pos(x.Pos)).Wrap()
				}
				return qerrors.New(phase, qerrors.FLD001FieldUndefined,
					fmt.Sprintf("field %q is never assigned in the constructor", x.Field),
					pos(x.Pos)).Wrap()
			}
			c.seen.Add(x.Field)
		}
		return nil
	case *ast.MCall:
		if err := c.expr(x.Recv, initialized); err != nil {
			return err
		}
		for _, a := range x.Args.Values {
			if err := c.expr(a, initialized); err != nil {
				return err
			}
		}
		return nil
	case *ast.CCall:
		for _, a := range x.Args.Values {
			if err := c.expr(a, initialized); err != nil {
				return err
			}
		}
		return nil
	case *ast.AndExp:
		if err := c.expr(x.Left, initialized); err != nil {
			return err
		}
		return c.expr(x.Right, initialized)
	case *ast.OrExp:
		if err := c.expr(x.Left, initialized); err != nil {
			return err
		}
		return c.expr(x.Right, initialized)
	case *ast.Ternary:
		if err := c.expr(x.Cond, initialized); err != nil {
			return err
		}
		if err := c.expr(x.Then, initialized); err != nil {
			return err
		}
		return c.expr(x.Else, initialized)
	case *ast.Assign:
		return c.expr(x.Rhs, initialized)
	case *ast.StoreField:
		if err := c.expr(x.Object, initialized); err != nil {
			return err
		}
		return c.expr(x.Value, initialized)
	case *ast.RetExp:
		return c.expr(x.Value, initialized)
	case *ast.TypeCase:
		_, err := c.typeCase(x, initialized)
		return err
	default:
		return nil
	}
}

func pos(p ast.Pos) *ast.Pos { return &p }
