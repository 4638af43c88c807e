// Package typecheck implements the Type Checker (spec.md §4.6): a
// fixpoint pass that assigns a class name to every expression node and
// widens local-variable and field types via least-common-ancestor as
// more assignments are observed, followed by a validating pass over
// the converged tree and a final cross-class check of inherited field
// and overridden method compatibility.
//
// Inference and validation are deliberately split: `is_compatible`/
// `common_ancestor` checks in the original implementation can spuriously
// fail mid-fixpoint, while a node's operand types are still bottom (⊥)
// and waiting on a later iteration to resolve. Running every hard
// check once, after convergence, avoids that.
package typecheck

import (
	"fmt"

	"github.com/quacklang/quackc/internal/ast"
	qerrors "github.com/quacklang/quackc/internal/errors"
	"github.com/quacklang/quackc/internal/world"
)

const phase = "typecheck"

// maxFixpointIterations bounds the inference loop; a well-formed
// method's local types stabilize long before this, since each
// iteration either leaves every node's type unchanged or widens it
// toward Obj, and Obj itself is a fixpoint.
const maxFixpointIterations = 64

// Check type-checks every method of every class in prog, then verifies
// every subclass's inherited fields and overridden methods respect
// nominal-subtyping compatibility.
func Check(w *world.World, prog *ast.Program) error {
	for _, cls := range prog.Classes {
		for _, m := range cls.Body.Methods {
			if err := checkMethod(w, cls, m); err != nil {
				return err
			}
		}
	}
	return checkOverrides(w, prog)
}

func checkMethod(w *world.World, cls *ast.ClassDecl, m *ast.MethodDecl) error {
	locals := map[string]string{"this": cls.Sig.Name}
	for _, a := range m.FormalArgs {
		locals[a.Name] = a.Type
	}
	c := &checker{w: w, locals: locals, className: cls.Sig.Name}

	for i := 0; i < maxFixpointIterations; i++ {
		if !c.inferBlock(m.Body) {
			break
		}
	}
	m.LocalTypes = locals

	if err := c.validateBlock(m.Body, m.ReturnType); err != nil {
		return err
	}
	return nil
}

type checker struct {
	w         *world.World
	locals    map[string]string
	className string
}

func isThis(e ast.Expr) bool {
	v, ok := e.(*ast.Var)
	return ok && v.Name == "this"
}

func literalType(k ast.LiteralKind) string {
	switch k {
	case ast.LitNumberKind:
		return world.IntClass
	case ast.LitStringKind:
		return world.StringClass
	case ast.LitTrueKind, ast.LitFalseKind:
		return world.BoolClass
	default:
		return world.NothingClass
	}
}

// blockValueType is the type a block contributes when used as an
// expression (spec.md §4.6's typecase-as-expression rule): the type of
// its trailing expression statement or return, Nothing otherwise.
func blockValueType(b *ast.Block) string {
	if len(b.Stmts) == 0 {
		return world.NothingClass
	}
	switch s := b.Stmts[len(b.Stmts)-1].(type) {
	case *ast.RawExprStmt:
		return s.Expr.GetType()
	case *ast.RetExp:
		return s.Value.GetType()
	default:
		return world.NothingClass
	}
}

// ---------------------------------------------------------------------
// Inference pass: mutates node.SetType(...) and widens locals/fields,
// never raises an error. Returns whether anything changed.
// ---------------------------------------------------------------------

func (c *checker) inferBlock(b *ast.Block) bool {
	changed := false
	for _, s := range b.Stmts {
		if c.inferStmt(s) {
			changed = true
		}
	}
	return changed
}

func (c *checker) inferStmt(n ast.Node) bool {
	switch s := n.(type) {
	case *ast.RawExprStmt:
		return c.inferExpr(s.Expr)
	case *ast.Assign:
		return c.inferExpr(s)
	case *ast.StoreField:
		return c.inferExpr(s)
	case *ast.RetExp:
		return c.inferExpr(s)
	case *ast.IfStmt:
		changed := c.inferCondition(s.Cond)
		if c.inferBlock(s.Then) {
			changed = true
		}
		for _, e := range s.Elifs {
			if c.inferCondition(e.Cond) {
				changed = true
			}
			if c.inferBlock(e.Body) {
				changed = true
			}
		}
		if s.Else != nil {
			if c.inferBlock(s.Else) {
				changed = true
			}
		}
		return changed
	case *ast.WhileLoop:
		changed := c.inferCondition(s.Cond)
		if c.inferBlock(s.Body) {
			changed = true
		}
		return changed
	case *ast.TypeCase:
		return c.inferExpr(s)
	case *ast.Block:
		return c.inferBlock(s)
	default:
		return false
	}
}

func (c *checker) inferCondition(cond *ast.Condition) bool {
	old := cond.GetType()
	c.inferExpr(cond.Expr)
	cond.SetType(world.BoolClass)
	return cond.GetType() != old
}

func (c *checker) inferExpr(e ast.Expr) bool {
	old := e.GetType()
	switch x := e.(type) {
	case *ast.Literal:
		e.SetType(literalType(x.Kind))

	case *ast.Var:
		if t, ok := c.locals[x.Name]; ok {
			e.SetType(t)
		}

	case *ast.Assign:
		c.inferExpr(x.Rhs)
		base := c.locals[x.Name]
		var widened string
		if x.Declared != "" {
			widened = c.w.LCA(base, x.Declared)
		} else {
			widened = c.w.LCA(base, x.Rhs.GetType())
		}
		c.locals[x.Name] = widened
		e.SetType(widened)

	case *ast.StoreField:
		c.inferExpr(x.Object)
		c.inferExpr(x.Value)
		if isThis(x.Object) {
			entry := c.w.Get(c.className)
			entry.Fields[x.Field] = c.w.LCA(entry.Fields[x.Field], x.Value.GetType())
		}
		e.SetType(x.Value.GetType())

	case *ast.LoadField:
		c.inferExpr(x.Object)
		if x.Object.GetType() != "" {
			if entry := c.w.Get(x.Object.GetType()); entry != nil {
				if ft, ok := entry.Fields[x.Field]; ok {
					e.SetType(ft)
				}
			}
		}

	case *ast.AndExp:
		c.inferExpr(x.Left)
		c.inferExpr(x.Right)
		e.SetType(world.BoolClass)

	case *ast.OrExp:
		c.inferExpr(x.Left)
		c.inferExpr(x.Right)
		e.SetType(world.BoolClass)

	case *ast.Ternary:
		c.inferExpr(x.Cond)
		c.inferExpr(x.Then)
		c.inferExpr(x.Else)
		e.SetType(c.w.LCA(x.Then.GetType(), x.Else.GetType()))

	case *ast.MCall:
		c.inferExpr(x.Recv)
		for _, a := range x.Args.Values {
			c.inferExpr(a)
		}
		if x.Recv.GetType() != "" {
			if entry := c.w.Get(x.Recv.GetType()); entry != nil {
				if method, ok := entry.Methods[x.Name]; ok {
					e.SetType(method.Ret)
				}
			}
		}

	case *ast.CCall:
		for _, a := range x.Args.Values {
			c.inferExpr(a)
		}
		e.SetType(x.ClassName)

	case *ast.RetExp:
		c.inferExpr(x.Value)
		e.SetType(x.Value.GetType())

	case *ast.TypeCase:
		c.inferExpr(x.Scrutinee)
		joined := ""
		for _, alt := range x.Alts {
			if _, ok := c.locals[alt.Name]; !ok {
				c.locals[alt.Name] = alt.Type
			}
			c.inferBlock(alt.Body)
			joined = c.w.LCA(joined, blockValueType(alt.Body))
		}
		e.SetType(joined)
	}
	return e.GetType() != old
}

// ---------------------------------------------------------------------
// Validation pass: read-only over the converged tree, raises the
// first incompatibility found.
// ---------------------------------------------------------------------

func (c *checker) validateBlock(b *ast.Block, retType string) error {
	for _, s := range b.Stmts {
		if err := c.validateStmt(s, retType); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) validateStmt(n ast.Node, retType string) error {
	switch s := n.(type) {
	case *ast.RawExprStmt:
		return c.validateExpr(s.Expr)
	case *ast.Assign:
		return c.validateExpr(s)
	case *ast.StoreField:
		return c.validateExpr(s)
	case *ast.RetExp:
		if err := c.validateExpr(s.Value); err != nil {
			return err
		}
		if !c.w.IsSubtype(s.Value.GetType(), retType) {
			return qerrors.New(phase, qerrors.TC008WrongReturnType,
				fmt.Sprintf("return value of type %q is not a subtype of the declared return type %q",
					s.Value.GetType(), retType), pos(s.Pos)).Wrap()
		}
		return nil
	case *ast.IfStmt:
		if err := c.validateCondition(s.Cond); err != nil {
			return err
		}
		if err := c.validateBlock(s.Then, retType); err != nil {
			return err
		}
		for _, e := range s.Elifs {
			if err := c.validateCondition(e.Cond); err != nil {
				return err
			}
			if err := c.validateBlock(e.Body, retType); err != nil {
				return err
			}
		}
		if s.Else != nil {
			return c.validateBlock(s.Else, retType)
		}
		return nil
	case *ast.WhileLoop:
		if err := c.validateCondition(s.Cond); err != nil {
			return err
		}
		return c.validateBlock(s.Body, retType)
	case *ast.TypeCase:
		if err := c.validateExpr(s.Scrutinee); err != nil {
			return err
		}
		for _, alt := range s.Alts {
			if err := c.validateBlock(alt.Body, retType); err != nil {
				return err
			}
		}
		return nil
	case *ast.Block:
		return c.validateBlock(s, retType)
	default:
		return nil
	}
}

func (c *checker) validateCondition(cond *ast.Condition) error {
	if err := c.validateExpr(cond.Expr); err != nil {
		return err
	}
	if cond.Expr.GetType() != world.BoolClass {
		return qerrors.New(phase, qerrors.TC007BooleanOperandRequired,
			fmt.Sprintf("condition has type %q, expected Bool", cond.Expr.GetType()), pos(cond.Pos)).Wrap()
	}
	return nil
}

func (c *checker) validateExpr(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.Literal, *ast.Var:
		return nil

	case *ast.Assign:
		if err := c.validateExpr(x.Rhs); err != nil {
			return err
		}
		if x.Declared != "" && !c.w.IsSubtype(x.Rhs.GetType(), x.Declared) {
			return qerrors.New(phase, qerrors.TC005NotASubtype,
				fmt.Sprintf("value of type %q is not a subtype of declared type %q", x.Rhs.GetType(), x.Declared),
				pos(x.Pos)).Wrap()
		}
		return nil

	case *ast.StoreField:
		if err := c.validateExpr(x.Object); err != nil {
			return err
		}
		if err := c.validateExpr(x.Value); err != nil {
			return err
		}
		if !isThis(x.Object) && x.Object.GetType() != "" {
			entry := c.w.Get(x.Object.GetType())
			if entry == nil {
				return qerrors.New(phase, qerrors.TC001UnknownType,
					fmt.Sprintf("unknown class %q", x.Object.GetType()), pos(x.Pos)).Wrap()
			}
			if _, ok := entry.Fields[x.Field]; !ok {
				return qerrors.New(phase, qerrors.TC002UnknownField,
					fmt.Sprintf("class %q has no field %q", x.Object.GetType(), x.Field), pos(x.Pos)).Wrap()
			}
		}
		return nil

	case *ast.LoadField:
		if err := c.validateExpr(x.Object); err != nil {
			return err
		}
		if x.Object.GetType() == "" {
			return nil
		}
		entry := c.w.Get(x.Object.GetType())
		if entry == nil {
			return qerrors.New(phase, qerrors.TC001UnknownType,
				fmt.Sprintf("unknown class %q", x.Object.GetType()), pos(x.Pos)).Wrap()
		}
		if _, ok := entry.Fields[x.Field]; !ok {
			return qerrors.New(phase, qerrors.TC002UnknownField,
				fmt.Sprintf("class %q has no field %q", x.Object.GetType(), x.Field), pos(x.Pos)).Wrap()
		}
		return nil

	case *ast.AndExp:
		if err := c.validateExpr(x.Left); err != nil {
			return err
		}
		if err := c.validateExpr(x.Right); err != nil {
			return err
		}
		if x.Left.GetType() != world.BoolClass || x.Right.GetType() != world.BoolClass {
			return qerrors.New(phase, qerrors.TC007BooleanOperandRequired,
				"operands of 'and' must be Bool", pos(x.Pos)).Wrap()
		}
		return nil

	case *ast.OrExp:
		if err := c.validateExpr(x.Left); err != nil {
			return err
		}
		if err := c.validateExpr(x.Right); err != nil {
			return err
		}
		if x.Left.GetType() != world.BoolClass || x.Right.GetType() != world.BoolClass {
			return qerrors.New(phase, qerrors.TC007BooleanOperandRequired,
				"operands of 'or' must be Bool", pos(x.Pos)).Wrap()
		}
		return nil

	case *ast.Ternary:
		if err := c.validateExpr(x.Cond); err != nil {
			return err
		}
		if err := c.validateExpr(x.Then); err != nil {
			return err
		}
		if err := c.validateExpr(x.Else); err != nil {
			return err
		}
		if x.Cond.GetType() != world.BoolClass {
			return qerrors.New(phase, qerrors.TC007BooleanOperandRequired,
				"ternary condition must be Bool", pos(x.Pos)).Wrap()
		}
		return nil

	case *ast.MCall:
		if err := c.validateExpr(x.Recv); err != nil {
			return err
		}
		for _, a := range x.Args.Values {
			if err := c.validateExpr(a); err != nil {
				return err
			}
		}
		entry := c.w.Get(x.Recv.GetType())
		if entry == nil {
			return qerrors.New(phase, qerrors.TC001UnknownType,
				fmt.Sprintf("unknown class %q", x.Recv.GetType()), pos(x.Pos)).Wrap()
		}
		method, ok := entry.Methods[x.Name]
		if !ok {
			return qerrors.New(phase, qerrors.TC003UnknownMethod,
				fmt.Sprintf("class %q has no method %q", x.Recv.GetType(), x.Name), pos(x.Pos)).Wrap()
		}
		return c.validateCallArgs(x.Name, x.Args.Values, method.Params, x.Pos)

	case *ast.CCall:
		for _, a := range x.Args.Values {
			if err := c.validateExpr(a); err != nil {
				return err
			}
		}
		if !c.w.Has(x.ClassName) {
			return qerrors.New(phase, qerrors.TC004UnknownClass,
				fmt.Sprintf("unknown class %q", x.ClassName), pos(x.Pos)).Wrap()
		}
		entry := c.w.Get(x.ClassName)
		ctor := entry.Methods[ast.ConstructorName]
		return c.validateCallArgs(ast.ConstructorName, x.Args.Values, ctor.Params, x.Pos)

	case *ast.RetExp:
		return c.validateExpr(x.Value)

	case *ast.TypeCase:
		if err := c.validateExpr(x.Scrutinee); err != nil {
			return err
		}
		for _, alt := range x.Alts {
			// retType is irrelevant here; a TypeCase used as an
			// expression has no return statements of its own to check.
			if err := c.validateBlock(alt.Body, world.NothingClass); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}

func (c *checker) validateCallArgs(name string, args []ast.Expr, params []string, at ast.Pos) error {
	if len(args) != len(params) {
		return qerrors.New(phase, qerrors.TC006ArityMismatch,
			fmt.Sprintf("%q expects %d argument(s), got %d", name, len(params), len(args)), pos(at)).Wrap()
	}
	for i, a := range args {
		if !c.w.IsSubtype(a.GetType(), params[i]) {
			return qerrors.New(phase, qerrors.TC005NotASubtype,
				fmt.Sprintf("argument %d to %q has type %q, expected a subtype of %q", i+1, name, a.GetType(), params[i]),
				pos(at)).Wrap()
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Cross-class inheritance checks, run once all methods have converged.
// ---------------------------------------------------------------------

func checkOverrides(w *world.World, prog *ast.Program) error {
	for _, cls := range prog.Classes {
		super := cls.Sig.Super
		if super == "" {
			super = world.ObjClass
		}
		if cls.Sig.Name == world.ObjClass {
			continue
		}
		superEntry := w.Get(super)
		if superEntry == nil {
			continue
		}
		entry := w.Get(cls.Sig.Name)

		for f, superType := range superEntry.Fields {
			subType, ok := entry.Fields[f]
			if !ok {
				return qerrors.New(phase, qerrors.TC009InheritedFieldMissing,
					fmt.Sprintf("class %q is missing inherited field %q", cls.Sig.Name, f), pos(cls.Sig.Pos)).Wrap()
			}
			if subType != "" && superType != "" && !w.IsSubtype(subType, superType) {
				return qerrors.New(phase, qerrors.TC010InheritedFieldNotSubtype,
					fmt.Sprintf("field %q has type %q, not a subtype of inherited type %q", f, subType, superType),
					pos(cls.Sig.Pos)).Wrap()
			}
		}

		for _, m := range cls.Body.Methods {
			if m.Name == ast.ConstructorName {
				continue
			}
			superMethod, ok := superEntry.Methods[m.Name]
			if !ok {
				continue
			}
			subParams := paramTypes(m.FormalArgs)
			if len(subParams) != len(superMethod.Params) {
				return qerrors.New(phase, qerrors.TC011OverrideArityMismatch,
					fmt.Sprintf("method %q overrides with a different arity", m.Name), pos(m.Pos)).Wrap()
			}
			for i, sp := range subParams {
				if !w.IsSubtype(superMethod.Params[i], sp) {
					return qerrors.New(phase, qerrors.TC012OverrideParamNotContravariant,
						fmt.Sprintf("method %q parameter %d narrows %q to %q", m.Name, i+1, superMethod.Params[i], sp),
						pos(m.Pos)).Wrap()
				}
			}
			if !w.IsSubtype(m.ReturnType, superMethod.Ret) {
				return qerrors.New(phase, qerrors.TC013OverrideReturnNotCovariant,
					fmt.Sprintf("method %q return type %q is not a subtype of overridden return type %q",
						m.Name, m.ReturnType, superMethod.Ret), pos(m.Pos)).Wrap()
			}
		}
	}
	return nil
}

func paramTypes(args []*ast.FormalArg) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a.Type
	}
	return out
}

func pos(p ast.Pos) *ast.Pos { return &p }
