//
//  Copyright © Manetu Inc. All rights reserved.
//

package unify

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/residual"
)

// resolveCollection resolves a binding's collection expression to a
// concrete slice. A quantifier or value-fn whose collection is not yet
// known (an absent document path) cannot be evaluated element-wise, so
// it suspends as complex rather than erroring — the caller may learn
// enough about the collection's path from a sibling constraint to
// resolve it on a later pass.
func resolveCollection(env *Env, n ast.Node) ([]interface{}, *residual.Residual, error) {
	r, err := resolveNode(env, n)
	if err != nil {
		return nil, nil, err
	}
	if r.Complex != nil {
		return nil, r.Complex, nil
	}
	if !r.Known {
		return nil, residual.ComplexResidual("unify-unknown-collection", n), nil
	}
	items, ok := r.Value.([]interface{})
	if !ok {
		return nil, nil, runtimeError(n.Pos(), "quantifier collection is not a list: %T", r.Value)
	}
	return items, nil, nil
}

func evalQuantifier(env *Env, q *ast.Quantifier) (*residual.Residual, error) {
	items, suspended, err := resolveCollection(env, q.Binding.Collection)
	if err != nil {
		return nil, err
	}
	if suspended != nil {
		return suspended, nil
	}

	var filtered []interface{}
	for _, item := range items {
		elemEnv := env.withBinding(q.Binding.Name, item)
		if q.Binding.Where == nil {
			filtered = append(filtered, item)
			continue
		}
		wr, err := evalBool(elemEnv, q.Binding.Where)
		if err != nil {
			return nil, err
		}
		if residual.IsSatisfied(wr) {
			filtered = append(filtered, item)
		}
		// Open/complex/contradicted where-filters exclude the element
		// from the quantified set: the filter can't be proven true for
		// it, so it contributes nothing to forall/exists either way.
	}

	switch q.QuantKind {
	case "forall":
		acc := residual.Empty()
		for _, item := range filtered {
			elemEnv := env.withBinding(q.Binding.Name, item)
			r, err := evalBool(elemEnv, q.Body)
			if err != nil {
				return nil, err
			}
			acc = residual.Merge(acc, r)
			if residual.IsContradicted(acc) {
				return acc, nil
			}
		}
		return acc, nil
	case "exists":
		if len(filtered) == 0 {
			return nil, nil
		}
		acc, err := evalBool(env.withBinding(q.Binding.Name, filtered[0]), q.Body)
		if err != nil {
			return nil, err
		}
		for _, item := range filtered[1:] {
			r, err := evalBool(env.withBinding(q.Binding.Name, item), q.Body)
			if err != nil {
				return nil, err
			}
			acc = residual.Combine(acc, r)
		}
		return acc, nil
	default:
		return nil, runtimeError(q.Pos(), "unknown quantifier kind %q", q.QuantKind)
	}
}

func evalValueFn(env *Env, vf *ast.ValueFn) (resolved, error) {
	items, suspended, err := resolveCollection(env, vf.Binding.Collection)
	if err != nil {
		return resolved{}, err
	}
	if suspended != nil {
		return resolved{Known: false}, nil
	}

	switch vf.Name {
	case "count", "partial-count":
		n := 0
		sawOpen := false
		for _, item := range items {
			elemEnv := env.withBinding(vf.Binding.Name, item)
			if vf.Binding.Where == nil {
				n++
				continue
			}
			wr, err := evalBool(elemEnv, vf.Binding.Where)
			if err != nil {
				return resolved{}, err
			}
			switch {
			case residual.IsSatisfied(wr):
				n++
			case residual.IsContradicted(wr):
				// excluded, contributes nothing
			default:
				sawOpen = true
			}
		}
		if sawOpen && vf.Name == "count" {
			// A plain count cannot be pinned down while some elements'
			// membership is still undecided; partial-count reports the
			// decided lower bound instead.
			return resolved{Known: false}, nil
		}
		return resolved{Known: true, Value: n}, nil
	default:
		return resolved{}, runtimeError(vf.Pos(), "unknown value function %q", vf.Name)
	}
}
