package desugar

import (
	"testing"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
)

func progWithTop(stmts ...ast.Node) *ast.Program {
	return &ast.Program{TopStatements: stmts}
}

func TestBinaryOpLowersToMCall(t *testing.T) {
	prog := progWithTop(&ast.RawExprStmt{Expr: &ast.BinaryOp{
		Op:    ast.OpPlus,
		Left:  &ast.Literal{Kind: ast.LitNumberKind, Value: "1"},
		Right: &ast.Literal{Kind: ast.LitNumberKind, Value: "2"},
	}})
	if err := Program(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call, ok := prog.TopStatements[0].(*ast.RawExprStmt).Expr.(*ast.MCall)
	if !ok {
		t.Fatalf("expected an MCall, got %T", prog.TopStatements[0].(*ast.RawExprStmt).Expr)
	}
	if call.Name != ast.OpPlus.MethodName() {
		t.Errorf("MCall.Name = %q, want %q", call.Name, ast.OpPlus.MethodName())
	}
	if len(call.Args.Values) != 1 {
		t.Fatalf("expected one argument, got %d", len(call.Args.Values))
	}
}

func TestNotEqualsLowersToNegatedEquals(t *testing.T) {
	prog := progWithTop(&ast.RawExprStmt{Expr: &ast.BinaryOp{
		Op:    ast.OpNotEquals,
		Left:  &ast.Literal{Kind: ast.LitNumberKind, Value: "1"},
		Right: &ast.Literal{Kind: ast.LitNumberKind, Value: "2"},
	}})
	if err := Program(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outer, ok := prog.TopStatements[0].(*ast.RawExprStmt).Expr.(*ast.MCall)
	if !ok {
		t.Fatalf("expected an MCall, got %T", prog.TopStatements[0].(*ast.RawExprStmt).Expr)
	}
	if outer.Name != ast.OpNegate.MethodName() {
		t.Errorf("outer call = %q, want %s", outer.Name, ast.OpNegate.MethodName())
	}
	inner, ok := outer.Recv.(*ast.MCall)
	if !ok {
		t.Fatalf("expected inner receiver to be an MCall, got %T", outer.Recv)
	}
	if inner.Name != ast.OpEquals.MethodName() {
		t.Errorf("inner call = %q, want %s", inner.Name, ast.OpEquals.MethodName())
	}
}

func TestCompoundAssignOnLocalLowersToAssignOfMCall(t *testing.T) {
	prog := progWithTop(&ast.CompoundAssign{
		Name: "x",
		Op:   ast.OpPlus,
		Rhs:  &ast.Literal{Kind: ast.LitNumberKind, Value: "1"},
	})
	if err := Program(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assign, ok := prog.TopStatements[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected an Assign, got %T", prog.TopStatements[0])
	}
	if assign.Name != "x" {
		t.Errorf("Assign.Name = %q, want x", assign.Name)
	}
	call, ok := assign.Rhs.(*ast.MCall)
	if !ok {
		t.Fatalf("expected Assign.Rhs to be an MCall, got %T", assign.Rhs)
	}
	if _, ok := call.Recv.(*ast.Var); !ok {
		t.Errorf("expected the receiver to be a Var reload of x, got %T", call.Recv)
	}
}

func TestCompoundAssignOnFieldLowersToStoreFieldOfMCall(t *testing.T) {
	prog := progWithTop(&ast.CompoundAssign{
		Object: &ast.Var{Name: "this"},
		Field:  "count",
		Op:     ast.OpPlus,
		Rhs:    &ast.Literal{Kind: ast.LitNumberKind, Value: "1"},
	})
	if err := Program(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store, ok := prog.TopStatements[0].(*ast.StoreField)
	if !ok {
		t.Fatalf("expected a StoreField, got %T", prog.TopStatements[0])
	}
	if store.Field != "count" {
		t.Errorf("StoreField.Field = %q, want count", store.Field)
	}
	call, ok := store.Value.(*ast.MCall)
	if !ok {
		t.Fatalf("expected StoreField.Value to be an MCall, got %T", store.Value)
	}
	if _, ok := call.Recv.(*ast.LoadField); !ok {
		t.Errorf("expected the receiver to reload the field, got %T", call.Recv)
	}
}

func TestAssignToCallResultFails(t *testing.T) {
	prog := progWithTop(&ast.RawStoreField{
		Lhs:   &ast.MCall{Recv: &ast.Var{Name: "this"}, Name: "next", Args: &ast.Args{}},
		Value: &ast.Literal{Kind: ast.LitNumberKind, Value: "1"},
	})
	err := Program(prog)
	rep, ok := qerrors.AsReport(err)
	if !ok {
		t.Fatalf("expected a *Report, got %v", err)
	}
	if rep.Code != qerrors.DSG001AssignToCall {
		t.Errorf("got code %s, want %s", rep.Code, qerrors.DSG001AssignToCall)
	}
}

func TestRawStoreFieldLowersToStoreField(t *testing.T) {
	prog := progWithTop(&ast.RawStoreField{
		Lhs:   &ast.LoadField{Object: &ast.Var{Name: "this"}, Field: "x"},
		Value: &ast.Literal{Kind: ast.LitNumberKind, Value: "1"},
	})
	if err := Program(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store, ok := prog.TopStatements[0].(*ast.StoreField)
	if !ok {
		t.Fatalf("expected a StoreField, got %T", prog.TopStatements[0])
	}
	if store.Field != "x" {
		t.Errorf("StoreField.Field = %q, want x", store.Field)
	}
}

func TestTripleQuotedStringIsCanonicalized(t *testing.T) {
	prog := progWithTop(&ast.RawExprStmt{Expr: &ast.Literal{
		Kind:         ast.LitStringKind,
		Value:        "\"\"\"hello\nworld\"\"\"",
		TripleQuoted: true,
	}})
	if err := Program(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lit := prog.TopStatements[0].(*ast.RawExprStmt).Expr.(*ast.Literal)
	if lit.TripleQuoted {
		t.Error("expected TripleQuoted to be cleared after canonicalisation")
	}
	want := `hello\nworld`
	if lit.Value != want {
		t.Errorf("Value = %q, want %q", lit.Value, want)
	}
}

func TestMissingReturnValueBecomesNothing(t *testing.T) {
	prog := progWithTop(&ast.RetExp{})
	if err := Program(prog); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ret := prog.TopStatements[0].(*ast.RetExp)
	lit, ok := ret.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitNothingKind {
		t.Errorf("expected a synthesised none literal, got %#v", ret.Value)
	}
}
