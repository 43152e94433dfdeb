//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package negate implements the negation transformer (spec component
// C8): a normalization pass that pushes an explicit "not" node as deep
// into an expression as De Morgan's laws and operator-level negation
// allow, so that [github.com/manetu/polix/pkg/unify] rarely has to
// reason about negation directly.
//
// Comparison and membership operators negate via their registered
// [operator.Descriptor.Negate] counterpart. and/or swap via De Morgan.
// forall/exists swap (with the body negated, the where filter left
// alone, since it restricts the domain rather than asserting over it).
// let pushes the negation into its body only. Double negation elides.
// Anything else — a value-fn, a policy reference, a bare accessor used
// as a boolean, or a connective whose operator has no registered
// negation — has no symbolic negated form, so the "not" node is left in
// place; [HasFallback] reports when that happened.
package negate

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
)

const opNot = "not"
const opAnd = "and"
const opOr = "or"

// Push normalizes every "not" node found anywhere in n, returning a new
// tree with negation pushed down as far as possible. n itself is not
// mutated.
func Push(ops *operator.Registry, n ast.Node) ast.Node {
	switch t := n.(type) {
	case nil:
		return nil
	case *ast.FunctionCall:
		if t.Op == opNot {
			return pushInto(ops, t.Children[0])
		}
		children := make([]ast.Node, len(t.Children))
		for i, c := range t.Children {
			children[i] = Push(ops, c)
		}
		return ast.NewFunctionCall(t.Pos(), t.Op, children)
	case *ast.Quantifier:
		b := t.Binding
		b.Collection = Push(ops, b.Collection)
		b.Where = Push(ops, b.Where)
		return ast.NewQuantifier(t.Pos(), t.QuantKind, b, Push(ops, t.Body))
	case *ast.ValueFn:
		b := t.Binding
		b.Collection = Push(ops, b.Collection)
		b.Where = Push(ops, b.Where)
		return ast.NewValueFn(t.Pos(), t.Name, b)
	case *ast.LetBinding:
		pairs := make([]ast.LetBindingPair, len(t.Bindings))
		for i, p := range t.Bindings {
			pairs[i] = ast.LetBindingPair{Name: p.Name, Expr: Push(ops, p.Expr)}
		}
		return ast.NewLetBinding(t.Pos(), pairs, Push(ops, t.Body))
	case *ast.PolicyReference:
		if len(t.Params) == 0 {
			return t
		}
		params := make(map[string]ast.Node, len(t.Params))
		for k, v := range t.Params {
			params[k] = Push(ops, v)
		}
		return ast.NewPolicyReference(t.Pos(), t.Namespace, t.Name, params)
	default:
		return n
	}
}

// pushInto negates child (the operand of a "not" node just consumed by
// Push) and continues normalizing the result.
func pushInto(ops *operator.Registry, child ast.Node) ast.Node {
	switch t := child.(type) {
	case *ast.FunctionCall:
		switch t.Op {
		case opNot:
			// Double negation: ¬¬x = x, continue normalizing x itself.
			return Push(ops, t.Children[0])
		case opAnd:
			return deMorgan(ops, opOr, t)
		case opOr:
			return deMorgan(ops, opAnd, t)
		default:
			if d, ok := ops.Lookup(t.Op); ok && d.Negate != "" {
				children := make([]ast.Node, len(t.Children))
				for i, c := range t.Children {
					children[i] = Push(ops, c)
				}
				return ast.NewFunctionCall(t.Pos(), d.Negate, children)
			}
			return fallback(ops, t.Pos(), t)
		}
	case *ast.Quantifier:
		dual := dualQuantifier(t.QuantKind)
		if dual == "" {
			return fallback(ops, t.Pos(), t)
		}
		b := t.Binding
		b.Collection = Push(ops, b.Collection)
		b.Where = Push(ops, b.Where)
		return ast.NewQuantifier(t.Pos(), dual, b, pushInto(ops, t.Body))
	case *ast.LetBinding:
		pairs := make([]ast.LetBindingPair, len(t.Bindings))
		for i, p := range t.Bindings {
			pairs[i] = ast.LetBindingPair{Name: p.Name, Expr: Push(ops, p.Expr)}
		}
		return ast.NewLetBinding(t.Pos(), pairs, pushInto(ops, t.Body))
	default:
		return fallback(ops, child.Pos(), child)
	}
}

func deMorgan(ops *operator.Registry, dualOp string, fc *ast.FunctionCall) ast.Node {
	children := make([]ast.Node, len(fc.Children))
	for i, c := range fc.Children {
		children[i] = pushInto(ops, c)
	}
	return ast.NewFunctionCall(fc.Pos(), dualOp, children)
}

func dualQuantifier(kind string) string {
	switch kind {
	case "forall":
		return "exists"
	case "exists":
		return "forall"
	default:
		return ""
	}
}

// fallback wraps n in an explicit "not" node, the marker [HasFallback]
// looks for. Children below n are still normalized via Push, so a
// fallback at one point in the tree doesn't block pushdown elsewhere.
func fallback(ops *operator.Registry, p ast.Position, n ast.Node) ast.Node {
	return ast.NewFunctionCall(p, opNot, []ast.Node{Push(ops, n)})
}

// HasFallback reports whether root contains a "not" node that pushdown
// could not eliminate — i.e. [Push] was already applied and some
// subexpression still has no symbolic negated form.
func HasFallback(root ast.Node) bool {
	found := false
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if found || n == nil {
			return
		}
		switch t := n.(type) {
		case *ast.FunctionCall:
			if t.Op == opNot {
				found = true
				return
			}
			for _, c := range t.Children {
				walk(c)
			}
		case *ast.Quantifier:
			walk(t.Binding.Collection)
			walk(t.Binding.Where)
			walk(t.Body)
		case *ast.ValueFn:
			walk(t.Binding.Collection)
			walk(t.Binding.Where)
		case *ast.LetBinding:
			for _, p := range t.Bindings {
				walk(p.Expr)
			}
			walk(t.Body)
		case *ast.PolicyReference:
			for _, v := range t.Params {
				walk(v)
			}
		}
	}
	walk(root)
	return found
}
