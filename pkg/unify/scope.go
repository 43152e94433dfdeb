//
//  Copyright © Manetu Inc. All rights reserved.
//

package unify

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/residual"
)

func evalLet(env *Env, lb *ast.LetBinding) (*residual.Residual, error) {
	cur := env
	for _, b := range lb.Bindings {
		r, err := resolveNode(cur, b.Expr)
		if err != nil {
			return nil, err
		}
		if r.Complex != nil {
			return r.Complex, nil
		}
		cur = cur.withSelf(b.Name, selfValue{Known: r.Known, Value: r.Value})
	}
	return evalBool(cur, lb.Body)
}

// evalPolicyReference resolves a named policy from the module registry,
// merges caller-supplied parameter overrides with its declared defaults,
// and evaluates the policy body in a fresh parameter scope. A reference
// to an unregistered namespace/policy, and a required parameter left
// without an override or a default, are semantic soft errors per spec:
// they suspend the enclosing expression as a complex marker rather than
// aborting evaluation, the same as any other missing context.
func evalPolicyReference(env *Env, ref *ast.PolicyReference) (*residual.Residual, error) {
	def, ok := env.Reg.ResolvePolicy(ref.Namespace, ref.Name)
	if !ok {
		return residual.ComplexResidual("unify-unknown-policy", ref), nil
	}

	params := make(map[string]interface{}, len(def.Params))
	for name, spec := range def.Params {
		if spec.HasDefault {
			params[name] = spec.Default
		}
	}
	seen := map[string]bool{}
	for name, expr := range ref.Params {
		r, err := resolveNode(env, expr)
		if err != nil {
			return nil, err
		}
		if r.Complex != nil {
			return r.Complex, nil
		}
		if !r.Known {
			return residual.ComplexResidual("unify-param-unresolved", ref), nil
		}
		params[name] = r.Value
		seen[name] = true
	}
	for name, spec := range def.Params {
		if !spec.HasDefault && !seen[name] {
			if _, ok := params[name]; !ok {
				return residual.ComplexResidual("unify-param-missing", ref), nil
			}
		}
	}

	refEnv := NewEnv(env.Ops, env.Reg, env.Doc, env.Event).withParams(params)
	return evalBool(refEnv, def.Expr)
}
