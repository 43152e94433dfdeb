//
//  Copyright © Manetu Inc. All rights reserved.
//

package unify

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/residual"
)

// Evaluate is the unification engine's entry point: it walks root
// against env's document/event and returns the resulting residual.
func Evaluate(env *Env, root ast.Node) (*residual.Residual, error) {
	return evalBool(env, root)
}

func evalBool(env *Env, n ast.Node) (*residual.Residual, error) {
	switch t := n.(type) {
	case *ast.FunctionCall:
		switch t.Op {
		case "and":
			return evalAnd(env, t.Children)
		case "or":
			return evalOr(env, t.Children)
		case "not":
			if len(t.Children) != 1 {
				return nil, runtimeError(t.Pos(), "not takes exactly one operand")
			}
			inner, err := evalBool(env, t.Children[0])
			if err != nil {
				return nil, err
			}
			return residual.Negate(inner), nil
		default:
			return evalComparison(env, t)
		}
	case *ast.Quantifier:
		return evalQuantifier(env, t)
	case *ast.LetBinding:
		return evalLet(env, t)
	case *ast.PolicyReference:
		return evalPolicyReference(env, t)
	default:
		// A bare accessor/literal used directly in boolean position is
		// truthy-tested rather than compared.
		r, err := resolveNode(env, n)
		if err != nil {
			return nil, err
		}
		if r.Complex != nil {
			return r.Complex, nil
		}
		return truthiness(r, n)
	}
}

func truthiness(r resolved, n ast.Node) (*residual.Residual, error) {
	if !r.Known {
		if r.Path != nil {
			return residual.OpenResidual(residualKey(r.NS, r.Path), residual.Constraint{Op: "truthy"}), nil
		}
		return residual.ComplexResidual("unify-unknown-truthy", n), nil
	}
	b, ok := r.Value.(bool)
	if !ok {
		return nil, runtimeError(n.Pos(), "value %v used in boolean position is not a bool", r.Value)
	}
	if b {
		return residual.Empty(), nil
	}
	return nil, nil
}

func evalAnd(env *Env, children []ast.Node) (*residual.Residual, error) {
	acc := residual.Empty()
	for _, c := range children {
		r, err := evalBool(env, c)
		if err != nil {
			return nil, err
		}
		acc = residual.Merge(acc, r)
		if residual.IsContradicted(acc) {
			return acc, nil
		}
	}
	return acc, nil
}

func evalOr(env *Env, children []ast.Node) (*residual.Residual, error) {
	if len(children) == 0 {
		return nil, nil
	}
	acc, err := evalBool(env, children[0])
	if err != nil {
		return nil, err
	}
	for _, c := range children[1:] {
		r, err := evalBool(env, c)
		if err != nil {
			return nil, err
		}
		acc = residual.Combine(acc, r)
	}
	return acc, nil
}

// residualKey disambiguates event-sourced paths from document-sourced
// paths in the flat residual path space by prefixing them with their
// namespace; doc paths, being the primary namespace policies constrain,
// are left bare.
func residualKey(ns string, path ast.Path) ast.Path {
	if ns == traceEvent {
		return append(ast.Path{traceEvent}, path...)
	}
	return path
}

func evalComparison(env *Env, fc *ast.FunctionCall) (*residual.Residual, error) {
	d, ok := env.Ops.Lookup(fc.Op)
	if !ok {
		return residual.ComplexResidual("unify-unknown-operator", fc), nil
	}
	if len(fc.Children) != 2 {
		return nil, runtimeError(fc.Pos(), "operator %q takes exactly two operands, got %d", fc.Op, len(fc.Children))
	}
	left, err := resolveNode(env, fc.Children[0])
	if err != nil {
		return nil, err
	}
	if left.Complex != nil {
		return left.Complex, nil
	}
	right, err := resolveNode(env, fc.Children[1])
	if err != nil {
		return nil, err
	}
	if right.Complex != nil {
		return right.Complex, nil
	}

	switch {
	case left.Known && right.Known:
		if d.Evaluate(left.Value, right.Value) {
			return residual.Empty(), nil
		}
		// A doc/event-sourced left operand compared against a constant
		// (a literal or another doc/event accessor) refutes outright and
		// is keyed as a conflict at its path. Once the right operand is
		// itself context-dependent (param/self/binding) the refutation
		// isn't a fact about the document alone, so it degrades to a
		// complex marker instead of a path-keyed conflict.
		if left.NS != "" && !right.FromContext {
			return residual.ConflictResidual(residualKey(left.NS, left.Path), residual.Constraint{Op: fc.Op, Value: right.Value}, left.Value), nil
		}
		// A left operand with no doc/event path (a binding, self, param or
		// literal value) refuted by a constant right operand is decided by
		// concrete values alone; with no path to key a conflict on, it is
		// the plain contradiction.
		if left.NS == "" && !right.FromContext {
			return nil, nil
		}
		return residual.ComplexResidual("unify-op-failed", fc), nil
	case left.Known != right.Known:
		return evalPartial(fc, fc.Op, d.Flip, left, right)
	default:
		return evalBothUnknown(fc, left, right)
	}
}

// evalPartial handles exactly one operand being unresolved. If the
// unresolved operand traces to a doc/event path, the comparison becomes
// an open constraint at that path (flipping the operator when the
// unresolved operand is on the right, since the constraint is always
// recorded as "path OP value"). If the unresolved operand has no
// traceable path (an unbound binding sub-path, a non-constant let
// value), or the operator has no flip and the unknown side is on the
// right, there is nothing to key the constraint on and evaluation
// suspends as complex.
func evalPartial(fc *ast.FunctionCall, op, flip string, left, right resolved) (*residual.Residual, error) {
	var unknown, known resolved
	var unknownOnRight bool
	if !left.Known {
		unknown, known, unknownOnRight = left, right, false
	} else {
		unknown, known, unknownOnRight = right, left, true
	}
	if unknown.Path == nil {
		return residual.ComplexResidual("unify-untraceable-operand", fc), nil
	}
	effectiveOp := op
	if unknownOnRight {
		if flip == "" {
			return residual.ComplexResidual("unify-asymmetric-unknown", fc), nil
		}
		effectiveOp = flip
	}
	key := residualKey(unknown.NS, unknown.Path)
	return residual.OpenResidual(key, residual.Constraint{Op: effectiveOp, Value: known.Value}), nil
}

func evalBothUnknown(fc *ast.FunctionCall, left, right resolved) (*residual.Residual, error) {
	if left.Path != nil && right.Path != nil {
		lk := residualKey(left.NS, left.Path)
		rk := residualKey(right.NS, right.Path)
		return residual.CrossKeyResidual(lk, fc.Op, rk), nil
	}
	return residual.ComplexResidual("unify-both-unknown", fc), nil
}
