package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/world"
)

func minimalBuiltins(t *testing.T) *world.World {
	t.Helper()
	w := world.New()
	define := func(name, super string) {
		if _, err := w.Define(name, super); err != nil {
			t.Fatal(err)
		}
	}
	define(world.ObjClass, world.ObjClass)
	w.Classes[world.ObjClass].Super = world.ObjClass
	w.Get(world.ObjClass).Methods[ast.ConstructorName] = &world.Method{Ret: world.NothingClass}
	define(world.IntClass, world.ObjClass)
	w.Get(world.IntClass).Methods[ast.ConstructorName] = &world.Method{Ret: world.NothingClass}
	define(world.StringClass, world.ObjClass)
	w.Get(world.StringClass).Methods[ast.ConstructorName] = &world.Method{Ret: world.NothingClass}
	define(world.BoolClass, world.ObjClass)
	w.Get(world.BoolClass).Methods[ast.ConstructorName] = &world.Method{Ret: world.NothingClass}
	define(world.NothingClass, world.ObjClass)
	w.Get(world.NothingClass).Methods[ast.ConstructorName] = &world.Method{Ret: world.NothingClass}
	return w
}

// parseStub stands in for the external grammar/LALR driver (spec.md
// §1): it ignores the source bytes and returns the given program
// unchanged.
func parseStub(prog *ast.Program) ParseFunc {
	return func(source []byte, filename string) (*ast.Program, error) {
		return prog, nil
	}
}

func writeSourceFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("# stub source, parser is injected"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunProducesOneAsmFilePerClass(t *testing.T) {
	dir := t.TempDir()
	sourcePath := writeSourceFile(t, dir, "prog.qk")

	cls := &ast.ClassDecl{
		Sig: &ast.ClassSig{Name: "Greeter", Super: world.ObjClass},
		Body: &ast.ClassBody{
			Methods: []*ast.MethodDecl{{
				Name:       "greet",
				ReturnType: world.IntClass,
				Body: &ast.Block{Stmts: []ast.Node{
					&ast.RetExp{Value: &ast.Literal{Kind: ast.LitNumberKind, Value: "1"}},
				}},
			}},
		},
	}
	prog := &ast.Program{Classes: []*ast.ClassDecl{cls}}

	cfg := Config{Parse: parseStub(prog), MainClassName: "Main", OutDir: dir}
	res, err := Run(cfg, minimalBuiltins(t), sourcePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Classes) != 1 || res.Classes[0].Name != "Greeter" {
		t.Fatalf("expected one Greeter class, got %#v", res.Classes)
	}
	if len(res.WrittenFiles) != 1 {
		t.Fatalf("expected one written file, got %v", res.WrittenFiles)
	}
	data, err := os.ReadFile(res.WrittenFiles[0])
	if err != nil {
		t.Fatalf("unexpected error reading output: %v", err)
	}
	if !strings.Contains(string(data), ".class Greeter:Obj") {
		t.Errorf("expected the emitted file to declare the class, got %s", data)
	}
	for _, phase := range []string{"parse", "desugar", "classload", "fieldcheck", "retcheck", "varcheck", "typecheck", "codegen", "emit"} {
		if _, ok := res.PhaseTimings[phase]; !ok {
			t.Errorf("expected a phase timing entry for %q", phase)
		}
	}
}

func TestRunStopsAtTreeDumpLevelOne(t *testing.T) {
	dir := t.TempDir()
	sourcePath := writeSourceFile(t, dir, "prog.qk")
	prog := &ast.Program{TopStatements: []ast.Node{
		&ast.RawExprStmt{Expr: &ast.Literal{Kind: ast.LitNumberKind, Value: "1"}},
	}}

	cfg := Config{Parse: parseStub(prog), MainClassName: "Main", TreeDumpLevel: 1, OutDir: dir}
	res, err := Run(cfg, minimalBuiltins(t), sourcePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TreeDump == "" {
		t.Error("expected a non-empty tree dump")
	}
	if res.Classes != nil {
		t.Error("expected no classes to be generated when stopping at tree dump level 1")
	}
}

func TestRunPropagatesFieldCheckError(t *testing.T) {
	dir := t.TempDir()
	sourcePath := writeSourceFile(t, dir, "prog.qk")

	ctorBody := &ast.Block{Stmts: []ast.Node{
		&ast.IfStmt{
			Cond: &ast.Condition{Expr: &ast.Var{Name: "b"}},
			Then: &ast.Block{Stmts: []ast.Node{
				&ast.StoreField{Object: &ast.Var{Name: "this"}, Field: "x", Value: &ast.Literal{Kind: ast.LitNumberKind, Value: "1"}},
			}},
		},
		&ast.RawExprStmt{Expr: &ast.LoadField{Object: &ast.Var{Name: "this"}, Field: "x"}},
	}}
	cls := &ast.ClassDecl{
		Sig: &ast.ClassSig{Name: "C", Super: world.ObjClass, FormalArgs: []*ast.FormalArg{{Name: "b", Type: world.BoolClass}}},
		Body: &ast.ClassBody{Constructor: ctorBody},
	}
	prog := &ast.Program{Classes: []*ast.ClassDecl{cls}}

	cfg := Config{Parse: parseStub(prog), MainClassName: "Main", OutDir: dir}
	_, err := Run(cfg, minimalBuiltins(t), sourcePath)
	rep, ok := qerrors.AsReport(err)
	if !ok {
		t.Fatalf("expected a *Report, got %v", err)
	}
	if rep.Code != qerrors.FLD002FieldNotOnAllPaths {
		t.Errorf("got code %s, want %s", rep.Code, qerrors.FLD002FieldNotOnAllPaths)
	}
}

func TestRunErrorsWithoutParseFunc(t *testing.T) {
	dir := t.TempDir()
	sourcePath := writeSourceFile(t, dir, "prog.qk")
	_, err := Run(Config{OutDir: dir}, minimalBuiltins(t), sourcePath)
	if err == nil {
		t.Fatal("expected an error when no Parse function is configured")
	}
}
