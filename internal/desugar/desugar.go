// Package desugar implements the Operator Desugarer (spec.md §4.1): an
// in-place AST rewrite that lowers infix/unary operators and
// compound assignments to method-call nodes before any other pass
// runs, and reshapes field stores so their three semantic children
// (object, field name, value) are always explicit.
package desugar

import (
	"strings"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"golang.org/x/text/unicode/norm"
)

const phase = "desugar"

// Program desugars every class's constructor and method bodies, plus
// the program's loose top-level statements, in place.
func Program(prog *ast.Program) error {
	for _, cls := range prog.Classes {
		if cls.Body.Constructor != nil {
			if err := block(cls.Body.Constructor); err != nil {
				return err
			}
		}
		for _, m := range cls.Body.Methods {
			if err := block(m.Body); err != nil {
				return err
			}
		}
	}
	for i, s := range prog.TopStatements {
		rewritten, err := stmt(s)
		if err != nil {
			return err
		}
		prog.TopStatements[i] = rewritten
	}
	return nil
}

func block(b *ast.Block) error {
	if b == nil {
		return nil
	}
	for i, s := range b.Stmts {
		rewritten, err := stmt(s)
		if err != nil {
			return err
		}
		b.Stmts[i] = rewritten
	}
	return nil
}

func stmt(n ast.Node) (ast.Node, error) {
	switch s := n.(type) {
	case *ast.RawExprStmt:
		e, err := expr(s.Expr)
		if err != nil {
			return nil, err
		}
		s.Expr = e
		return s, nil
	case *ast.Assign:
		rhs, err := expr(s.Rhs)
		if err != nil {
			return nil, err
		}
		s.Rhs = rhs
		return s, nil
	case *ast.RawStoreField:
		return storeField(s)
	case *ast.CompoundAssign:
		return compoundAssign(s)
	case *ast.IfStmt:
		if err := condition(s.Cond); err != nil {
			return nil, err
		}
		if err := block(s.Then); err != nil {
			return nil, err
		}
		for _, e := range s.Elifs {
			if err := condition(e.Cond); err != nil {
				return nil, err
			}
			if err := block(e.Body); err != nil {
				return nil, err
			}
		}
		if s.Else != nil {
			if err := block(s.Else); err != nil {
				return nil, err
			}
		}
		return s, nil
	case *ast.WhileLoop:
		if err := condition(s.Cond); err != nil {
			return nil, err
		}
		if err := block(s.Body); err != nil {
			return nil, err
		}
		return s, nil
	case *ast.TypeCase:
		scrut, err := expr(s.Scrutinee)
		if err != nil {
			return nil, err
		}
		s.Scrutinee = scrut
		for _, alt := range s.Alts {
			if err := block(alt.Body); err != nil {
				return nil, err
			}
		}
		return s, nil
	case *ast.RetExp:
		if s.Value == nil {
			s.Value = ast.NewLitNothing(s.Pos)
			return s, nil
		}
		v, err := expr(s.Value)
		if err != nil {
			return nil, err
		}
		s.Value = v
		return s, nil
	case *ast.Block:
		return s, block(s)
	default:
		return s, nil
	}
}

func condition(c *ast.Condition) error {
	e, err := expr(c.Expr)
	if err != nil {
		return err
	}
	c.Expr = e
	return nil
}

// storeField reshapes a raw store into ast.StoreField, rejecting an
// assignment whose left-hand side resolved to a call expression
// (spec.md §4.1: AssignToCall).
func storeField(s *ast.RawStoreField) (ast.Node, error) {
	value, err := expr(s.Value)
	if err != nil {
		return nil, err
	}
	switch lhs := s.Lhs.(type) {
	case *ast.LoadField:
		obj, err := expr(lhs.Object)
		if err != nil {
			return nil, err
		}
		return &ast.StoreField{Object: obj, Field: lhs.Field, Value: value, Pos: s.Pos}, nil
	case *ast.MCall, *ast.CCall:
		pos := s.Pos
		return nil, qerrors.New(phase, qerrors.DSG001AssignToCall,
			"cannot assign to the result of a call expression", &ast.Pos{File: pos.File, Line: pos.Line, Column: pos.Column}).Wrap()
	default:
		return nil, qerrors.New(phase, qerrors.DSG001AssignToCall,
			"left-hand side of assignment is not a field reference", nil).Wrap()
	}
}

// compoundAssign lowers `x op= e` per spec.md §4.1: a local target
// becomes `assign(x, ⊥, m_call(var(x), OPNAME, args(e)))`; a field
// target becomes `store_field(obj, f, m_call(load_field(obj,f),
// OPNAME, args(e)))`.
func compoundAssign(c *ast.CompoundAssign) (ast.Node, error) {
	rhs, err := expr(c.Rhs)
	if err != nil {
		return nil, err
	}
	if c.Object == nil {
		call := &ast.MCall{
			Recv: &ast.Var{Name: c.Name, Pos: c.Pos},
			Name: c.Op.MethodName(),
			Args: &ast.Args{Values: []ast.Expr{rhs}, Pos: c.Pos},
			Pos:  c.Pos,
		}
		return &ast.Assign{Name: c.Name, Rhs: call, Pos: c.Pos}, nil
	}
	obj, err := expr(c.Object)
	if err != nil {
		return nil, err
	}
	load := &ast.LoadField{Object: obj, Field: c.Field, Pos: c.Pos}
	call := &ast.MCall{
		Recv: load,
		Name: c.Op.MethodName(),
		Args: &ast.Args{Values: []ast.Expr{rhs}, Pos: c.Pos},
		Pos:  c.Pos,
	}
	return &ast.StoreField{Object: obj, Field: c.Field, Value: call, Pos: c.Pos}, nil
}

// expr desugars an expression, lowering operator nodes into method
// calls. It returns a (possibly different) Expr to install in the
// parent.
func expr(e ast.Expr) (ast.Expr, error) {
	switch x := e.(type) {
	case *ast.BinaryOp:
		left, err := expr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := expr(x.Right)
		if err != nil {
			return nil, err
		}
		if x.Op == ast.OpNotEquals {
			// notequals(a,b) => m_call(m_call(a, EQUALS, args(b)), NEGATE, args())
			eq := &ast.MCall{
				Recv: left,
				Name: ast.OpEquals.MethodName(),
				Args: &ast.Args{Values: []ast.Expr{right}, Pos: x.Pos},
				Pos:  x.Pos,
			}
			return &ast.MCall{
				Recv: eq,
				Name: ast.OpNegate.MethodName(),
				Args: &ast.Args{Pos: x.Pos},
				Pos:  x.Pos,
			}, nil
		}
		return &ast.MCall{
			Recv: left,
			Name: x.Op.MethodName(),
			Args: &ast.Args{Values: []ast.Expr{right}, Pos: x.Pos},
			Pos:  x.Pos,
		}, nil

	case *ast.UnaryOp:
		inner, err := expr(x.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.MCall{
			Recv: inner,
			Name: x.Op.MethodName(),
			Args: &ast.Args{Pos: x.Pos},
			Pos:  x.Pos,
		}, nil

	case *ast.AndExp:
		l, err := expr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := expr(x.Right)
		if err != nil {
			return nil, err
		}
		x.Left, x.Right = l, r
		return x, nil

	case *ast.OrExp:
		l, err := expr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := expr(x.Right)
		if err != nil {
			return nil, err
		}
		x.Left, x.Right = l, r
		return x, nil

	case *ast.Ternary:
		c, err := expr(x.Cond)
		if err != nil {
			return nil, err
		}
		t, err := expr(x.Then)
		if err != nil {
			return nil, err
		}
		f, err := expr(x.Else)
		if err != nil {
			return nil, err
		}
		x.Cond, x.Then, x.Else = c, t, f
		return x, nil

	case *ast.MCall:
		recv, err := expr(x.Recv)
		if err != nil {
			return nil, err
		}
		x.Recv = recv
		for i, a := range x.Args.Values {
			rewritten, err := expr(a)
			if err != nil {
				return nil, err
			}
			x.Args.Values[i] = rewritten
		}
		return x, nil

	case *ast.CCall:
		for i, a := range x.Args.Values {
			rewritten, err := expr(a)
			if err != nil {
				return nil, err
			}
			x.Args.Values[i] = rewritten
		}
		return x, nil

	case *ast.LoadField:
		obj, err := expr(x.Object)
		if err != nil {
			return nil, err
		}
		x.Object = obj
		return x, nil

	case *ast.Literal:
		canonicalizeTripleQuote(x)
		return x, nil

	case *ast.Assign:
		rhs, err := expr(x.Rhs)
		if err != nil {
			return nil, err
		}
		x.Rhs = rhs
		return x, nil

	case *ast.StoreField:
		obj, err := expr(x.Object)
		if err != nil {
			return nil, err
		}
		val, err := expr(x.Value)
		if err != nil {
			return nil, err
		}
		x.Object, x.Value = obj, val
		return x, nil

	case *ast.RetExp:
		if x.Value == nil {
			x.Value = ast.NewLitNothing(x.Pos)
			return x, nil
		}
		v, err := expr(x.Value)
		if err != nil {
			return nil, err
		}
		x.Value = v
		return x, nil

	case *ast.TypeCase:
		scrut, err := expr(x.Scrutinee)
		if err != nil {
			return nil, err
		}
		x.Scrutinee = scrut
		for _, alt := range x.Alts {
			if err := block(alt.Body); err != nil {
				return nil, err
			}
		}
		return x, nil

	default:
		// Var, bare literals, etc. need no rewriting.
		return e, nil
	}
}

// canonicalizeTripleQuote applies spec.md §4.1's triple-quoted string
// canonicalisation: strip the outer quotes, normalise to NFC (so two
// source encodings of the same text desugar identically — see
// internal/lexer/normalize.go in the example corpus this follows),
// then replace literal newlines with the two-character escape `\n`.
func canonicalizeTripleQuote(lit *ast.Literal) {
	if lit.Kind != ast.LitStringKind || !lit.TripleQuoted {
		return
	}
	v := strings.TrimPrefix(lit.Value, `"""`)
	v = strings.TrimSuffix(v, `"""`)
	normalized := string(norm.NFC.Bytes([]byte(v)))
	normalized = strings.ReplaceAll(normalized, "\n", `\n`)
	lit.Value = normalized
	lit.TripleQuoted = false
}
