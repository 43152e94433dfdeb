//
//  Copyright © Manetu Inc. All rights reserved.
//

package evaluator

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/residual"
	"github.com/manetu/polix/pkg/unify"
)

// check is one precomputed constraint test for a path: eval reports
// whether a concrete document value satisfies it, and conflict builds
// the residual to return when it doesn't, given that value as witness.
type check struct {
	eval     func(docValue interface{}) bool
	conflict func(witness interface{}) *residual.Residual
}

// pathPlan is the precomputed evaluation plan for one constraint-set
// path: the residual returned verbatim when the document lacks this
// path, plus the checks to run in order when it doesn't.
type pathPlan struct {
	path   ast.Path
	open   *residual.Residual
	checks []check
}

// t2 is the templated-closure tier: compiled once from a constraint-set
// at a fixed registry version, then evaluated as a flat walk over
// precomputed per-path plans with no AST interpretation or operator
// lookups on the hot path.
type t2 struct {
	plans   []pathPlan
	version uint64
}

func newT2(ops *operator.Registry, cs *residual.Residual, version uint64) *t2 {
	t := &t2{version: version}
	for _, path := range cs.Paths() {
		atoms, _ := cs.At(path)
		plan := pathPlan{path: path}
		var openAtoms []residual.Atom
		for _, a := range atoms {
			openAtoms = append(openAtoms, a)
			plan.checks = append(plan.checks, buildCheck(ops, path, a.Constraint))
		}
		plan.open = residual.Empty()
		for _, a := range openAtoms {
			plan.open.AddConstraint(path, a)
		}
		t.plans = append(t.plans, plan)
	}
	return t
}

func buildCheck(ops *operator.Registry, path ast.Path, c residual.Constraint) check {
	d, ok := ops.Lookup(c.Op)
	expected := c.Value
	return check{
		eval: func(docValue interface{}) bool {
			if !ok {
				return false
			}
			return d.Evaluate(docValue, expected)
		},
		conflict: func(witness interface{}) *residual.Residual {
			return residual.ConflictResidual(path, c, witness)
		},
	}
}

func (t *t2) Evaluate(doc, _ interface{}) (*residual.Residual, error) {
	acc := residual.Empty()
	for _, plan := range t.plans {
		v, ok := unify.LookupPath(doc, plan.path)
		if !ok {
			acc = residual.Merge(acc, plan.open)
			continue
		}
		for _, c := range plan.checks {
			if !c.eval(v) {
				return c.conflict(v), nil
			}
		}
	}
	return acc, nil
}

func (t *t2) Tier() Tier { return T2 }

func (t *t2) RegistryVersion() uint64 { return t.version }
