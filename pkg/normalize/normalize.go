//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package normalize implements the normalizing compiler (spec component
// C6): it lowers a policy's AST into canonical constraint-set form — a
// residual whose per-path atom lists have been merged, bound-tightened,
// and checked for local contradiction — independent of any concrete
// document. This is the input the tiered evaluator
// ([github.com/manetu/polix/pkg/evaluator]) compiles ahead of time.
//
// Structurally, a constraint-set is the same [residual.Residual] value
// unification already produces: normalize simply runs
// [github.com/manetu/polix/pkg/unify] against an entirely empty
// document, so every doc/event accessor resolves open, then tightens
// the resulting per-path atom lists. A policy that isn't a plain
// conjunction of atomic constraints — one with a quantifier over a
// document-sourced collection, say — can't be fully normalized without
// concrete data; unification already represents that case as a complex
// marker, which normalize leaves untouched.
package normalize

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/residual"
	"github.com/manetu/polix/pkg/unify"
)

// ConstraintSet normalizes root into canonical constraint-set form.
func ConstraintSet(ops *operator.Registry, reg *registry.Registry, root ast.Node) (*residual.Residual, error) {
	env := unify.NewEnv(ops, reg, map[string]interface{}{}, map[string]interface{}{})
	r, err := unify.Evaluate(env, root)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return tighten(r), nil
}

// tighten rebuilds r path by path, merging duplicate/overlapping bound
// constraints into their tightest equivalent and converting a detected
// local impossibility (e.g. a path required both ">5" and "<3", or
// equal to two distinct literals) into a conflict atom at that path.
func tighten(r *residual.Residual) *residual.Residual {
	out := residual.Empty()
	for _, path := range r.Paths() {
		atoms, _ := r.At(path)
		tightened, ok := tightenPath(atoms)
		if !ok {
			out.AddConstraint(path, residual.Conflict(residual.Constraint{Op: "and"}, "locally unsatisfiable bounds"))
			continue
		}
		for _, a := range tightened {
			out.AddConstraint(path, a)
		}
	}
	for _, ck := range r.CrossKey() {
		out.AddCrossKey(ck)
	}
	for _, c := range r.Complexes() {
		out.AddComplex(c)
	}
	return out
}

type bound struct {
	set       bool
	value     float64
	inclusive bool
}

// tightenPath merges one path's atom list. ok is false when the merged
// bounds are provably empty (e.g. lower bound exceeds upper bound, or
// two distinct equality constraints).
func tightenPath(atoms []residual.Atom) ([]residual.Atom, bool) {
	var lower, upper bound
	var eq *residual.Constraint
	neq := map[interface{}]bool{}
	var passthrough []residual.Atom

	for _, a := range atoms {
		if a.IsConflict() {
			return nil, false
		}
		c := a.Constraint
		switch c.Op {
		case operator.Gt, operator.Gte:
			f, ok := asFloat(c.Value)
			if !ok {
				passthrough = append(passthrough, a)
				continue
			}
			incl := c.Op == operator.Gte
			if !lower.set || f > lower.value || (f == lower.value && !incl) {
				lower = bound{set: true, value: f, inclusive: incl}
			}
		case operator.Lt, operator.Lte:
			f, ok := asFloat(c.Value)
			if !ok {
				passthrough = append(passthrough, a)
				continue
			}
			incl := c.Op == operator.Lte
			if !upper.set || f < upper.value || (f == upper.value && !incl) {
				upper = bound{set: true, value: f, inclusive: incl}
			}
		case operator.Eq:
			if eq != nil && eq.Value != c.Value {
				return nil, false
			}
			cc := c
			eq = &cc
		case operator.Neq:
			neq[c.Value] = true
		default:
			passthrough = append(passthrough, a)
		}
	}

	if lower.set && upper.set {
		switch {
		case lower.value > upper.value:
			return nil, false
		case lower.value == upper.value && !(lower.inclusive && upper.inclusive):
			return nil, false
		}
	}
	if eq != nil {
		if lower.set && !withinLower(asFloatOrZero(eq.Value), lower) {
			return nil, false
		}
		if upper.set && !withinUpper(asFloatOrZero(eq.Value), upper) {
			return nil, false
		}
		if neq[eq.Value] {
			return nil, false
		}
	}

	var out []residual.Atom
	if eq != nil {
		out = append(out, residual.Atom{Constraint: *eq})
	} else {
		if lower.set {
			op := operator.Gt
			if lower.inclusive {
				op = operator.Gte
			}
			out = append(out, residual.Atom{Constraint: residual.Constraint{Op: op, Value: lower.value}})
		}
		if upper.set {
			op := operator.Lt
			if upper.inclusive {
				op = operator.Lte
			}
			out = append(out, residual.Atom{Constraint: residual.Constraint{Op: op, Value: upper.value}})
		}
		for v := range neq {
			out = append(out, residual.Atom{Constraint: residual.Constraint{Op: operator.Neq, Value: v}})
		}
	}
	out = append(out, passthrough...)
	return out, true
}

func withinLower(f float64, b bound) bool {
	if b.inclusive {
		return f >= b.value
	}
	return f > b.value
}

func withinUpper(f float64, b bound) bool {
	if b.inclusive {
		return f <= b.value
	}
	return f < b.value
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asFloatOrZero(v interface{}) float64 {
	f, _ := asFloat(v)
	return f
}
