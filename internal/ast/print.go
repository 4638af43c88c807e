package ast

import (
	"encoding/json"
	"fmt"
)

// Print produces a deterministic, indented JSON dump of a Program,
// used by the `-t`/`--tree` CLI flag (spec.md §6). simplify walks the
// node graph by hand rather than relying on json.Marshal's reflection
// over the Node interface, so every node is dumped as a map tagged
// with its node kind under "type", with an expression's TypeSlot
// decoration under "ty" once it is filled in. Source positions are
// not included.
func Print(prog *Program) string {
	if prog == nil {
		return "null"
	}
	data, err := json.MarshalIndent(simplifyProgram(prog), "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}

func simplifyProgram(p *Program) map[string]interface{} {
	classes := make([]interface{}, len(p.Classes))
	for i, c := range p.Classes {
		classes[i] = simplifyClass(c)
	}
	tops := make([]interface{}, len(p.TopStatements))
	for i, s := range p.TopStatements {
		tops[i] = simplify(s)
	}
	return map[string]interface{}{
		"type":    "Program",
		"classes": classes,
		"top":     tops,
	}
}

func simplifyClass(c *ClassDecl) map[string]interface{} {
	m := map[string]interface{}{
		"type": "class_",
		"name": c.Sig.Name,
	}
	if c.Sig.Super != "" {
		m["super"] = c.Sig.Super
	}
	args := make([]interface{}, len(c.Sig.FormalArgs))
	for i, a := range c.Sig.FormalArgs {
		args[i] = map[string]interface{}{"name": a.Name, "ptype": a.Type}
	}
	m["formal_args"] = args
	if c.Body.Constructor != nil {
		m["constructor"] = simplify(c.Body.Constructor)
	}
	methods := make([]interface{}, len(c.Body.Methods))
	for i, meth := range c.Body.Methods {
		methods[i] = simplifyMethod(meth)
	}
	m["methods"] = methods
	return m
}

func simplifyMethod(m *MethodDecl) map[string]interface{} {
	args := make([]interface{}, len(m.FormalArgs))
	for i, a := range m.FormalArgs {
		args[i] = map[string]interface{}{"name": a.Name, "ptype": a.Type}
	}
	out := map[string]interface{}{
		"type":        "method",
		"name":        m.Name,
		"formal_args": args,
		"ret":         m.ReturnType,
		"body":        simplify(m.Body),
	}
	if len(m.LocalTypes) > 0 {
		out["locals"] = m.LocalTypes
	}
	return out
}

// simplify converts a single Node into a JSON-serialisable structure,
// including the type-decoration slot for expressions.
func simplify(node Node) interface{} {
	if node == nil {
		return nil
	}

	base := map[string]interface{}{}
	if e, ok := node.(Expr); ok {
		if t := e.GetType(); t != "" {
			base["ty"] = t
		}
	}

	switch n := node.(type) {
	case *Block:
		stmts := make([]interface{}, len(n.Stmts))
		for i, s := range n.Stmts {
			stmts[i] = simplify(s)
		}
		base["type"] = "block"
		base["stmts"] = stmts
	case *IfStmt:
		elifs := make([]interface{}, len(n.Elifs))
		for i, e := range n.Elifs {
			elifs[i] = map[string]interface{}{
				"cond": simplify(e.Cond),
				"body": simplify(e.Body),
			}
		}
		base["type"] = "if_stmt"
		base["cond"] = simplify(n.Cond)
		base["then"] = simplify(n.Then)
		base["elifs"] = elifs
		if n.Else != nil {
			base["else"] = simplify(n.Else)
		}
	case *WhileLoop:
		base["type"] = "while_lp"
		base["cond"] = simplify(n.Cond)
		base["body"] = simplify(n.Body)
	case *TypeCase:
		alts := make([]interface{}, len(n.Alts))
		for i, a := range n.Alts {
			alts[i] = map[string]interface{}{
				"name": a.Name,
				"ptype": a.Type,
				"body": simplify(a.Body),
			}
		}
		base["type"] = "typecase"
		base["scrutinee"] = simplify(n.Scrutinee)
		base["alts"] = alts
	case *Condition:
		base["type"] = "condition"
		base["expr"] = simplify(n.Expr)
	case *Var:
		base["type"] = "var"
		base["name"] = n.Name
	case *Literal:
		base["type"] = "lit"
		base["kind"] = int(n.Kind)
		base["value"] = n.Value
	case *AndExp:
		base["type"] = "and_exp"
		base["left"] = simplify(n.Left)
		base["right"] = simplify(n.Right)
	case *OrExp:
		base["type"] = "or_exp"
		base["left"] = simplify(n.Left)
		base["right"] = simplify(n.Right)
	case *Ternary:
		base["type"] = "ternary"
		base["cond"] = simplify(n.Cond)
		base["then"] = simplify(n.Then)
		base["else"] = simplify(n.Else)
	case *Assign:
		base["type"] = "assign"
		base["name"] = n.Name
		base["declared"] = n.Declared
		base["rhs"] = simplify(n.Rhs)
	case *StoreField:
		base["type"] = "store_field"
		base["object"] = simplify(n.Object)
		base["field"] = n.Field
		base["value"] = simplify(n.Value)
	case *LoadField:
		base["type"] = "load_field"
		base["object"] = simplify(n.Object)
		base["field"] = n.Field
	case *RetExp:
		base["type"] = "ret_exp"
		base["value"] = simplify(n.Value)
	case *MCall:
		base["type"] = "m_call"
		base["recv"] = simplify(n.Recv)
		base["name"] = n.Name
		base["args"] = simplifyArgs(n.Args)
	case *CCall:
		base["type"] = "c_call"
		base["class"] = n.ClassName
		base["args"] = simplifyArgs(n.Args)
	case *RawExprStmt:
		base["type"] = "raw_rexp"
		base["expr"] = simplify(n.Expr)
	case *BinaryOp:
		base["type"] = string(n.Op)
		base["left"] = simplify(n.Left)
		base["right"] = simplify(n.Right)
	case *UnaryOp:
		base["type"] = string(n.Op)
		base["expr"] = simplify(n.Expr)
	case *CompoundAssign:
		base["type"] = "compound_assign"
		base["op"] = string(n.Op)
		if n.Object != nil {
			base["object"] = simplify(n.Object)
			base["field"] = n.Field
		} else {
			base["name"] = n.Name
		}
		base["rhs"] = simplify(n.Rhs)
	case *RawStoreField:
		base["type"] = "raw_store_field"
		base["lhs"] = simplify(n.Lhs)
		base["value"] = simplify(n.Value)
	default:
		base["type"] = fmt.Sprintf("%T", node)
		base["repr"] = node.String()
	}
	return base
}

func simplifyArgs(a *Args) []interface{} {
	if a == nil {
		return nil
	}
	out := make([]interface{}, len(a.Values))
	for i, v := range a.Values {
		out[i] = simplify(v)
	}
	return out
}
