// Package classload implements the Class Loader and Main Block
// Synthesiser (spec.md §4.2 and §2 item 4): it populates the Type
// World from each class's declared signature and lifts loose
// top-level statements into a synthesised class.
package classload

import (
	"fmt"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/world"
)

const phase = "classload"

// Load walks every top-level class declaration, registers it in w,
// and rewrites each class's AST so the constructor becomes its first
// method ($constructor).
func Load(w *world.World, prog *ast.Program) error {
	for _, cls := range prog.Classes {
		if err := loadClass(w, cls); err != nil {
			return err
		}
	}
	return nil
}

func loadClass(w *world.World, cls *ast.ClassDecl) error {
	super := cls.Sig.Super
	if super == "" {
		super = world.ObjClass
	}
	if !w.Has(super) {
		return qerrors.New(phase, qerrors.CLS001UnknownType,
			fmt.Sprintf("unknown supertype %q", super), pos(cls.Sig.Pos)).Wrap()
	}
	superEntry := w.Get(super)

	entry, err := w.Define(cls.Sig.Name, super)
	if err != nil {
		return qerrors.New(phase, qerrors.CLS002DuplicateClass,
			fmt.Sprintf("class %q is already defined", cls.Sig.Name), pos(cls.Sig.Pos)).Wrap()
	}
	entry.Methods = world.CopyMethods(superEntry.Methods)
	entry.Fields = world.CopyFields(superEntry.Fields)

	ctor := synthesizeConstructor(cls)
	cls.Body.Methods = append([]*ast.MethodDecl{ctor}, cls.Body.Methods...)
	cls.Body.Constructor = nil

	for _, m := range cls.Body.Methods {
		entry.Methods[m.Name] = &world.Method{
			Params: paramTypes(m.FormalArgs),
			Ret:    m.ReturnType,
		}
	}
	return nil
}

// synthesizeConstructor extracts the class's constructor block into a
// synthesised $constructor method whose parameters are the class's
// formal arguments and whose return type is the unit type.
func synthesizeConstructor(cls *ast.ClassDecl) *ast.MethodDecl {
	body := cls.Body.Constructor
	if body == nil {
		body = &ast.Block{Pos: cls.Pos}
	}
	return &ast.MethodDecl{
		Name:       ast.ConstructorName,
		FormalArgs: cls.Sig.FormalArgs,
		ReturnType: world.NothingClass,
		Body:       body,
		Pos:        cls.Pos,
	}
}

func paramTypes(args []*ast.FormalArg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Type
	}
	return out
}

func pos(p ast.Pos) *ast.Pos { return &p }

// SynthesizeMain wraps the program's loose top-level statements into a
// synthesised class named className with one constructor, if any such
// statements exist. It has no effect on a program with no top-level
// statements (spec.md §2 item 4).
func SynthesizeMain(prog *ast.Program, className string) {
	if len(prog.TopStatements) == 0 {
		return
	}
	body := &ast.Block{Stmts: prog.TopStatements}
	cls := &ast.ClassDecl{
		Sig: &ast.ClassSig{Name: className, Super: world.ObjClass},
		Body: &ast.ClassBody{
			Constructor: body,
		},
	}
	prog.Classes = append(prog.Classes, cls)
	prog.TopStatements = nil
}
