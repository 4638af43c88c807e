// Package codegen implements the Generator (spec.md §4.7): it lowers
// a type-checked class tree into a stack-machine instruction sequence
// per method, with short-circuit boolean evaluation, structured
// control flow lowered to labelled jumps, and one monotonic label
// counter per label prefix shared across the whole program (so two
// methods never collide on a label name).
package codegen

import (
	"fmt"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/world"
)

const phase = "codegen"

// ClassObject is the Generator's output for one class: its assembly
// is independent of every other class's, which is what lets the
// Emitter write one file per class.
type ClassObject struct {
	Name            string
	Super           string
	Fields          []string // fields first declared by this class
	InheritedFields []string // fields carried from an ancestor
	Methods         []*MethodObject
}

// MethodObject is one compiled method.
type MethodObject struct {
	Name   string
	Args   []string
	Locals map[string]string // local name -> inferred class, insertion order in LocalOrder
	LocalOrder []string
	Code   []string
}

// Generate lowers every class in prog to a ClassObject. w must already
// reflect the fully type-checked program (field types filled in by
// internal/typecheck).
func Generate(w *world.World, prog *ast.Program) ([]*ClassObject, error) {
	g := &generator{w: w, labels: make(map[string]int)}
	out := make([]*ClassObject, 0, len(prog.Classes))
	for _, cls := range prog.Classes {
		co, err := g.class(cls)
		if err != nil {
			return nil, err
		}
		out = append(out, co)
	}
	return out, nil
}

type generator struct {
	w      *world.World
	labels map[string]int

	current       *ClassObject
	currentMethod *MethodObject
	tcCounter     int
}

func (g *generator) label(prefix string) string {
	n := g.labels[prefix]
	g.labels[prefix]++
	return fmt.Sprintf("%s_%d", prefix, n)
}

func (g *generator) emit(line string) {
	g.currentMethod.Code = append(g.currentMethod.Code, "    "+line)
}

func (g *generator) emitLabel(name string) {
	g.currentMethod.Code = append(g.currentMethod.Code, name+":")
}

func (g *generator) emitf(format string, args ...interface{}) {
	g.emit(fmt.Sprintf(format, args...))
}

func (g *generator) class(cls *ast.ClassDecl) (*ClassObject, error) {
	entry := g.w.Get(cls.Sig.Name)
	super := cls.Sig.Super
	if super == "" {
		super = world.ObjClass
	}
	superEntry := g.w.Get(super)

	co := &ClassObject{Name: cls.Sig.Name, Super: super}
	for f := range entry.Fields {
		if superEntry != nil {
			if _, inherited := superEntry.Fields[f]; inherited {
				co.InheritedFields = append(co.InheritedFields, f)
				continue
			}
		}
		co.Fields = append(co.Fields, f)
	}
	g.current = co

	for _, m := range cls.Body.Methods {
		mo, err := g.method(m)
		if err != nil {
			return nil, err
		}
		co.Methods = append(co.Methods, mo)
	}
	return co, nil
}

func (g *generator) method(m *ast.MethodDecl) (*MethodObject, error) {
	mo := &MethodObject{Name: m.Name, Locals: make(map[string]string)}
	for _, a := range m.FormalArgs {
		mo.Args = append(mo.Args, a.Name)
	}
	g.currentMethod = mo

	g.emit("enter")
	for _, s := range m.Body.Stmts {
		if err := g.stmt(s); err != nil {
			return nil, err
		}
	}
	return mo, nil
}

// aliasOf returns "$" when t is the class currently being generated,
// and t otherwise — the receiver alias the original assembly dialect
// uses so a class's own file never has to name itself.
func (g *generator) aliasOf(t string) string {
	if t == g.current.Name {
		return "$"
	}
	return t
}

func (g *generator) stmt(n ast.Node) error {
	switch s := n.(type) {
	case *ast.RawExprStmt:
		if err := g.expr(s.Expr); err != nil {
			return err
		}
		g.emit("pop")
		return nil
	case *ast.Assign:
		return g.assign(s)
	case *ast.StoreField:
		return g.storeField(s)
	case *ast.RetExp:
		return g.retExp(s)
	case *ast.IfStmt:
		return g.ifStmt(s)
	case *ast.WhileLoop:
		return g.whileLoop(s)
	case *ast.TypeCase:
		return g.typeCase(s)
	case *ast.Block:
		for _, st := range s.Stmts {
			if err := g.stmt(st); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func (g *generator) retExp(r *ast.RetExp) error {
	// Constructor $constructor returns the receiver regardless of its
	// declared value: the object under construction, not an evaluated
	// expression.
	if g.currentMethod.Name == ast.ConstructorName {
		g.emit("load $")
		g.emit("return 0")
		return nil
	}
	if err := g.expr(r.Value); err != nil {
		return err
	}
	g.emitf("return %d", len(g.currentMethod.Args))
	return nil
}

func (g *generator) assign(a *ast.Assign) error {
	if err := g.expr(a.Rhs); err != nil {
		return err
	}
	typ := a.Declared
	if typ == "" {
		typ = a.Rhs.GetType()
	}
	if _, ok := g.currentMethod.Locals[a.Name]; !ok {
		g.currentMethod.LocalOrder = append(g.currentMethod.LocalOrder, a.Name)
	}
	g.currentMethod.Locals[a.Name] = typ
	g.emitf("store %s", a.Name)
	return nil
}

func (g *generator) storeField(s *ast.StoreField) error {
	// Value then object: the original dialect pops object, then value,
	// in that order.
	if err := g.expr(s.Value); err != nil {
		return err
	}
	if err := g.expr(s.Object); err != nil {
		return err
	}
	g.emitf("store_field %s:%s", g.aliasOf(s.Object.GetType()), s.Field)
	return nil
}

func (g *generator) expr(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.Literal:
		return g.literal(x)
	case *ast.Var:
		if x.Name == "this" {
			g.emit("load $")
		} else {
			g.emitf("load %s", x.Name)
		}
		return nil
	case *ast.LoadField:
		if err := g.expr(x.Object); err != nil {
			return err
		}
		g.emitf("load_field %s:%s", g.aliasOf(x.Object.GetType()), x.Field)
		return nil
	case *ast.Assign:
		return g.assign(x)
	case *ast.StoreField:
		return g.storeField(x)
	case *ast.AndExp:
		return g.andExp(x)
	case *ast.OrExp:
		return g.orExp(x)
	case *ast.Ternary:
		return g.ternary(x)
	case *ast.MCall:
		return g.mcall(x)
	case *ast.CCall:
		return g.ccall(x)
	case *ast.RetExp:
		return g.retExp(x)
	case *ast.TypeCase:
		return g.typeCase(x)
	default:
		return qerrors.New(phase, qerrors.GEN001LabelCollision,
			fmt.Sprintf("codegen: unhandled expression node %T", e), pos(e.Position())).Wrap()
	}
}

func (g *generator) literal(l *ast.Literal) error {
	switch l.Kind {
	case ast.LitNumberKind:
		g.emitf("const %s", l.Value)
	case ast.LitStringKind:
		g.emitf("const %q", l.Value)
	case ast.LitTrueKind:
		g.emit("const true")
	case ast.LitFalseKind:
		g.emit("const false")
	case ast.LitNothingKind:
		g.emit("const nothing")
	}
	return nil
}

func (g *generator) mcall(m *ast.MCall) error {
	if err := g.expr(m.Recv); err != nil {
		return err
	}
	for _, a := range m.Args.Values {
		if err := g.expr(a); err != nil {
			return err
		}
	}
	if n := len(m.Args.Values); n > 0 {
		g.emitf("roll %d", n)
	}
	g.emitf("call %s:%s", g.aliasOf(m.Recv.GetType()), m.Name)
	return nil
}

func (g *generator) ccall(c *ast.CCall) error {
	for _, a := range c.Args.Values {
		if err := g.expr(a); err != nil {
			return err
		}
	}
	alias := g.aliasOf(c.ClassName)
	g.emitf("new %s", alias)
	if n := len(c.Args.Values); n > 0 {
		// Bring the freshly allocated receiver above its constructor
		// arguments so `call` sees it on top, matching the m_call
		// convention above.
		g.emitf("roll %d", n+1)
	}
	g.emitf("call %s:%s", alias, ast.ConstructorName)
	return nil
}

func (g *generator) andExp(a *ast.AndExp) error {
	falseLabel := g.label("and")
	joinLabel := g.label("and")

	if err := g.expr(a.Left); err != nil {
		return err
	}
	g.emitf("jump_ifnot %s", falseLabel)
	if err := g.expr(a.Right); err != nil {
		return err
	}
	g.emitf("jump_ifnot %s", falseLabel)
	g.emit("const true")
	g.emitf("jump %s", joinLabel)
	g.emitLabel(falseLabel)
	g.emit("const false")
	g.emitLabel(joinLabel)
	return nil
}

func (g *generator) orExp(o *ast.OrExp) error {
	trueLabel := g.label("or")
	joinLabel := g.label("or")

	if err := g.expr(o.Left); err != nil {
		return err
	}
	g.emitf("jump_if %s", trueLabel)
	if err := g.expr(o.Right); err != nil {
		return err
	}
	g.emitf("jump_if %s", trueLabel)
	g.emit("const false")
	g.emitf("jump %s", joinLabel)
	g.emitLabel(trueLabel)
	g.emit("const true")
	g.emitLabel(joinLabel)
	return nil
}

// ternary has no analogue in the original generator (the original
// language exposes if/elif/else only as a statement); it lowers the
// same way an if/else statement does, with the two arm values left on
// the stack instead of executing a return or assignment.
func (g *generator) ternary(t *ast.Ternary) error {
	elseLabel := g.label("tern_else")
	joinLabel := g.label("tern_join")

	if err := g.expr(t.Cond); err != nil {
		return err
	}
	g.emitf("jump_ifnot %s", elseLabel)
	if err := g.expr(t.Then); err != nil {
		return err
	}
	g.emitf("jump %s", joinLabel)
	g.emitLabel(elseLabel)
	if err := g.expr(t.Else); err != nil {
		return err
	}
	g.emitLabel(joinLabel)
	return nil
}

func (g *generator) ifStmt(s *ast.IfStmt) error {
	joinLabel := g.label("join")
	labels := make([]string, 0, len(s.Elifs)+1)
	for range s.Elifs {
		labels = append(labels, g.label("elif"))
	}
	if s.Else != nil {
		labels = append(labels, g.label("else"))
	}

	if err := g.expr(s.Cond.Expr); err != nil {
		return err
	}
	if len(labels) == 0 {
		g.emitf("jump_ifnot %s", joinLabel)
	} else {
		g.emitf("jump_ifnot %s", labels[0])
	}
	if err := g.stmt(s.Then); err != nil {
		return err
	}
	if len(labels) > 0 {
		g.emitf("jump %s", joinLabel)
	}

	idx := 0
	for _, e := range s.Elifs {
		current := labels[idx]
		idx++
		next := joinLabel
		if idx < len(labels) {
			next = labels[idx]
		}
		g.emitLabel(current)
		if err := g.expr(e.Cond.Expr); err != nil {
			return err
		}
		g.emitf("jump_ifnot %s", next)
		if err := g.stmt(e.Body); err != nil {
			return err
		}
		if next != joinLabel {
			g.emitf("jump %s", joinLabel)
		}
	}

	if s.Else != nil {
		g.emitLabel(labels[len(labels)-1])
		if err := g.stmt(s.Else); err != nil {
			return err
		}
	}
	g.emitLabel(joinLabel)
	return nil
}

func (g *generator) whileLoop(w *ast.WhileLoop) error {
	blockLabel := g.label("while_block")
	condLabel := g.label("while_cond")

	g.emitf("jump %s", condLabel)
	g.emitLabel(blockLabel)
	if err := g.stmt(w.Body); err != nil {
		return err
	}
	g.emitLabel(condLabel)
	if err := g.expr(w.Cond.Expr); err != nil {
		return err
	}
	g.emitf("jump_if %s", blockLabel)
	return nil
}

// typeCase has no analogue in the original generator, which never
// implemented a lowering for it. It is stored once into a synthetic
// local (outside the user's own namespace, which cannot start with
// `$`) so each alternative's runtime type test and binding reload it
// without re-evaluating the scrutinee expression or juggling stack
// depth across an arbitrary number of checks.
func (g *generator) typeCase(t *ast.TypeCase) error {
	slot := fmt.Sprintf("$tc%d", g.tcCounter)
	g.tcCounter++

	if err := g.expr(t.Scrutinee); err != nil {
		return err
	}
	g.emitf("store %s", slot)

	joinLabel := g.label("tc_join")
	altLabels := make([]string, len(t.Alts))
	for i := range t.Alts {
		altLabels[i] = g.label("tc_alt")
	}

	hasObjDefault := false
	for i, alt := range t.Alts {
		if alt.IsObjDefault() {
			hasObjDefault = true
			g.emitf("jump %s", altLabels[i])
			break
		}
		g.emitf("load %s", slot)
		g.emitf("is_type %s", alt.Type)
		g.emitf("jump_if %s", altLabels[i])
	}
	if !hasObjDefault {
		g.emitf("jump %s", joinLabel)
	}

	for i, alt := range t.Alts {
		g.emitLabel(altLabels[i])
		g.emitf("load %s", slot)
		if _, ok := g.currentMethod.Locals[alt.Name]; !ok {
			g.currentMethod.LocalOrder = append(g.currentMethod.LocalOrder, alt.Name)
		}
		g.currentMethod.Locals[alt.Name] = alt.Type
		g.emitf("store %s", alt.Name)
		if err := g.stmt(alt.Body); err != nil {
			return err
		}
		g.emitf("jump %s", joinLabel)
	}
	g.emitLabel(joinLabel)
	return nil
}

func pos(p ast.Pos) *ast.Pos { return &p }
