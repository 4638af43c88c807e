// Package retcheck implements the Return Checker (spec.md §4.4): it
// verifies that every method whose declared return type is not
// Nothing returns on every control-flow path, and inserts an implicit
// `return none` at the end of any method that is missing one but is
// allowed to fall off the end.
package retcheck

import (
	"fmt"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/world"
)

const phase = "retcheck"

// Check walks every class's methods and either confirms a return on
// every path or appends a synthetic `return none`.
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
	if returnsBlock(m.Body) {
		return nil
	}
	if m.ReturnType != world.NothingClass {
		return qerrors.New(phase, qerrors.RET001MissingReturn,
			fmt.Sprintf("method %q does not return on every path", m.Name), pos(m.Pos)).Wrap()
	}
	m.Body.Stmts = append(m.Body.Stmts, &ast.RetExp{
		Value: ast.NewLitNothing(m.Pos),
		Pos:   m.Pos,
	})
	return nil
}

// returnsBlock reports whether control reaching the start of b is
// guaranteed to hit a return before falling off its end. Since this
// language has no break/continue/exceptions, a statement anywhere in
// a straight-line sequence that guarantees a return makes the whole
// sequence guarantee one, regardless of what follows it.
func returnsBlock(b *ast.Block) bool {
	for _, s := range b.Stmts {
		if returnsStmt(s) {
			return true
		}
	}
	return false
}

func returnsStmt(n ast.Node) bool {
	switch s := n.(type) {
	case *ast.RetExp:
		return true
	case *ast.IfStmt:
		return returnsIf(s)
	case *ast.WhileLoop:
		// A while loop's body may never execute, so it never guarantees
		// a return by itself.
		return false
	case *ast.TypeCase:
		return returnsTypeCase(s)
	case *ast.Block:
		return returnsBlock(s)
	default:
		return false
	}
}

func returnsIf(s *ast.IfStmt) bool {
	if !returnsBlock(s.Then) {
		return false
	}
	for _, e := range s.Elifs {
		if !returnsBlock(e.Body) {
			return false
		}
	}
	if s.Else == nil {
		return false
	}
	return returnsBlock(s.Else)
}

func returnsTypeCase(s *ast.TypeCase) bool {
	hasObjDefault := false
	for _, alt := range s.Alts {
		if alt.IsObjDefault() {
			hasObjDefault = true
		}
		if !returnsBlock(alt.Body) {
			return false
		}
	}
	return hasObjDefault
}

func pos(p ast.Pos) *ast.Pos { return &p }
