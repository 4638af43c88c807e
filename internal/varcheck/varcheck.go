// Package varcheck implements the Variable Checker (spec.md §4.5): a
// per-method, path-sensitive definite-assignment pass over local
// variables and typecase-bound names, run after the Return Checker
// and before the Type Checker.
package varcheck

import (
	"fmt"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/flow"
)

const phase = "varcheck"

// Check walks every class's methods (the constructor included, since
// the Class Loader has already folded it into $constructor) and
// verifies that every local variable reference is reachable only on
// paths where it has already been assigned.
func Check(prog *ast.Program) error {
	for _, cls := range prog.Classes {
		for _, m := range cls.Body.Methods {
			if err := checkMethod(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkMethod(m *ast.MethodDecl) error {
	vars := flow.NewSet("this")
	for _, a := range m.FormalArgs {
		vars.Add(a.Name)
	}
	c := &checker{}
	_, err := c.block(m.Body, vars)
	return err
}

type checker struct{}

func (c *checker) block(b *ast.Block, vars flow.Set) (flow.Set, error) {
	cur := vars
	for _, s := range b.Stmts {
		next, err := c.stmt(s, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func (c *checker) stmt(n ast.Node, vars flow.Set) (flow.Set, error) {
	switch s := n.(type) {
	case *ast.RawExprStmt:
		return vars, c.expr(s.Expr, vars)
	case *ast.Assign:
		if err := c.expr(s.Rhs, vars); err != nil {
			return nil, err
		}
		vars = vars.Clone()
		vars.Add(s.Name)
		return vars, nil
	case *ast.StoreField:
		if err := c.expr(s.Object, vars); err != nil {
			return nil, err
		}
		return vars, c.expr(s.Value, vars)
	case *ast.RetExp:
		return vars, c.expr(s.Value, vars)
	case *ast.IfStmt:
		return c.ifStmt(s, vars)
	case *ast.WhileLoop:
		if err := c.expr(s.Cond.Expr, vars); err != nil {
			return nil, err
		}
		if _, err := c.block(s.Body, vars.Clone()); err != nil {
			return nil, err
		}
		return vars, nil
	case *ast.TypeCase:
		return c.typeCase(s, vars)
	case *ast.Block:
		return c.block(s, vars)
	default:
		return vars, nil
	}
}

func (c *checker) ifStmt(s *ast.IfStmt, vars flow.Set) (flow.Set, error) {
	if err := c.expr(s.Cond.Expr, vars); err != nil {
		return nil, err
	}
	branches := make([]flow.Set, 0, len(s.Elifs)+2)

	thenOut, err := c.block(s.Then, vars.Clone())
	if err != nil {
		return nil, err
	}
	branches = append(branches, thenOut)

	for _, e := range s.Elifs {
		if err := c.expr(e.Cond.Expr, vars); err != nil {
			return nil, err
		}
		out, err := c.block(e.Body, vars.Clone())
		if err != nil {
			return nil, err
		}
		branches = append(branches, out)
	}

	if s.Else != nil {
		out, err := c.block(s.Else, vars.Clone())
		if err != nil {
			return nil, err
		}
		branches = append(branches, out)
	} else {
		branches = append(branches, vars)
	}

	return vars.Union(flow.Intersect(branches...)), nil
}

func (c *checker) typeCase(s *ast.TypeCase, vars flow.Set) (flow.Set, error) {
	if err := c.expr(s.Scrutinee, vars); err != nil {
		return nil, err
	}
	branches := make([]flow.Set, 0, len(s.Alts)+1)
	hasObjDefault := false
	for _, alt := range s.Alts {
		branchVars := vars.Clone()
		branchVars.Add(alt.Name)
		out, err := c.block(alt.Body, branchVars)
		if err != nil {
			return nil, err
		}
		if !vars.Has(alt.Name) {
			// The bound name is scoped to its alternative.
			out = out.Clone()
			delete(out, alt.Name)
		}
		branches = append(branches, out)
		if alt.IsObjDefault() {
			hasObjDefault = true
		}
	}
	if !hasObjDefault {
		branches = append(branches, vars)
	}
	return vars.Union(flow.Intersect(branches...)), nil
}

func (c *checker) expr(e ast.Expr, vars flow.Set) error {
	switch x := e.(type) {
	case *ast.Var:
		if !vars.Has(x.Name) {
			return qerrors.New(phase, qerrors.VAR001VarUndefined,
				fmt.Sprintf("variable %q is not defined", x.Name), pos(x.Pos)).Wrap()
		}
		return nil
	case *ast.LoadField:
		return c.expr(x.Object, vars)
	case *ast.MCall:
		if err := c.expr(x.Recv, vars); err != nil {
			return err
		}
		for _, a := range x.Args.Values {
			if err := c.expr(a, vars); err != nil {
				return err
			}
		}
		return nil
	case *ast.CCall:
		for _, a := range x.Args.Values {
			if err := c.expr(a, vars); err != nil {
				return err
			}
		}
		return nil
	case *ast.AndExp:
		if err := c.expr(x.Left, vars); err != nil {
			return err
		}
		return c.expr(x.Right, vars)
	case *ast.OrExp:
		if err := c.expr(x.Left, vars); err != nil {
			return err
		}
		return c.expr(x.Right, vars)
	case *ast.Ternary:
		if err := c.expr(x.Cond, vars); err != nil {
			return err
		}
		if err := c.expr(x.Then, vars); err != nil {
			return err
		}
		return c.expr(x.Else, vars)
	case *ast.Assign:
		return c.expr(x.Rhs, vars)
	case *ast.StoreField:
		if err := c.expr(x.Object, vars); err != nil {
			return err
		}
		return c.expr(x.Value, vars)
	case *ast.RetExp:
		return c.expr(x.Value, vars)
	case *ast.TypeCase:
		_, err := c.typeCase(x, vars)
		return err
	default:
		// Literals need no check.
		return nil
	}
}

func pos(p ast.Pos) *ast.Pos { return &p }
