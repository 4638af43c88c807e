package varcheck

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
)

func methodWith(body []ast.Node) *ast.Program {
	m := &ast.MethodDecl{
		Name:       "m",
		FormalArgs: []*ast.FormalArg{{Name: "a", Type: "Int"}},
		ReturnType: "Nothing",
		Body:       &ast.Block{Stmts: body},
	}
	cls := &ast.ClassDecl{
		Sig:  &ast.ClassSig{Name: "C"},
		Body: &ast.ClassBody{Methods: []*ast.MethodDecl{m}},
	}
	return &ast.Program{Classes: []*ast.ClassDecl{cls}}
}

func requireVarUndefined(t *testing.T, err error) {
	t.Helper()
	rep, ok := qerrors.AsReport(err)
	require.True(t, ok, "expected a *Report, got %v", err)
	require.Equal(t, qerrors.VAR001VarUndefined, rep.Code)
}

func TestFormalArgsAndThisAreDefinedUpfront(t *testing.T) {
	prog := methodWith([]ast.Node{
		&ast.RawExprStmt{Expr: &ast.Var{Name: "a"}},
		&ast.RawExprStmt{Expr: &ast.Var{Name: "this"}},
	})
	require.NoError(t, Check(prog))
}

func TestUseBeforeAssignFails(t *testing.T) {
	prog := methodWith([]ast.Node{
		&ast.RawExprStmt{Expr: &ast.Var{Name: "y"}},
	})
	requireVarUndefined(t, Check(prog))
}

func TestAssignedOnOneBranchOnlyFailsAfterJoin(t *testing.T) {
	prog := methodWith([]ast.Node{
		&ast.IfStmt{
			Cond: &ast.Condition{Expr: &ast.Var{Name: "a"}},
			Then: &ast.Block{Stmts: []ast.Node{
				&ast.Assign{Name: "y", Rhs: &ast.Literal{Kind: ast.LitNumberKind, Value: "1"}},
			}},
		},
		&ast.RawExprStmt{Expr: &ast.Var{Name: "y"}},
	})
	requireVarUndefined(t, Check(prog))
}

func TestAssignedOnBothBranchesSucceeds(t *testing.T) {
	prog := methodWith([]ast.Node{
		&ast.IfStmt{
			Cond: &ast.Condition{Expr: &ast.Var{Name: "a"}},
			Then: &ast.Block{Stmts: []ast.Node{
				&ast.Assign{Name: "y", Rhs: &ast.Literal{Kind: ast.LitNumberKind, Value: "1"}},
			}},
			Else: &ast.Block{Stmts: []ast.Node{
				&ast.Assign{Name: "y", Rhs: &ast.Literal{Kind: ast.LitNumberKind, Value: "2"}},
			}},
		},
		&ast.RawExprStmt{Expr: &ast.Var{Name: "y"}},
	})
	require.NoError(t, Check(prog))
}

func TestTypeCaseBindingScopedToAlternative(t *testing.T) {
	prog := methodWith([]ast.Node{
		&ast.TypeCase{
			Scrutinee: &ast.Var{Name: "a"},
			Alts: []*ast.TypeAlternative{
				{Name: "x", Type: "Obj", Body: &ast.Block{Stmts: []ast.Node{
					&ast.RawExprStmt{Expr: &ast.Var{Name: "x"}},
				}}},
			},
		},
		&ast.RawExprStmt{Expr: &ast.Var{Name: "x"}},
	})
	requireVarUndefined(t, Check(prog))
}
