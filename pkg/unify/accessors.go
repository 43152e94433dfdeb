//
//  Copyright © Manetu Inc. All rights reserved.
//

package unify

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/residual"
)

// resolved is the outcome of resolving an accessor or literal to a
// value.
//
// Known reports whether a concrete value was found. Path and NS, when
// NS is non-empty, are the document/event path this resolution traces
// to — populated whether or not the lookup succeeded, so callers can
// tell a document fact apart from a literal or context value even once
// it is Known (needed to decide conflict-vs-complex on a failed
// comparison; see evalComparison). FromContext marks a value that came
// from a param, self, or quantifier-binding accessor rather than the
// document/event itself or a literal — comparisons against it cannot be
// reduced to a per-document-path conflict. Complex, when non-nil, means
// resolution already suspended as a complex residual; callers must
// propagate it directly rather than inspecting Known/Value.
type resolved struct {
	Known       bool
	Value       interface{}
	Path        ast.Path
	NS          string
	FromContext bool
	Complex     *residual.Residual
}

const (
	traceDoc   = "doc"
	traceEvent = "event"
)

// LookupPath walks root (expected to be nested maps, with []interface{}
// for list-valued segments addressed positionally is not supported —
// paths address map keys only) following path's segments. Exported for
// [github.com/manetu/polix/pkg/evaluator]'s T2 templated evaluator,
// which needs the same document-walking semantics unification uses.
func LookupPath(root interface{}, path ast.Path) (interface{}, bool) {
	cur := root
	for _, seg := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func lookupPath(root interface{}, path ast.Path) (interface{}, bool) {
	return LookupPath(root, path)
}

// resolveNode reduces n to a value, resolving accessors against env.
// Boolean/connective composites (and/or/not) and quantifier/value-fn
// nodes are not values in this grammar and are rejected; callers that
// need a boolean outcome call [evalBool] instead.
func resolveNode(env *Env, n ast.Node) (resolved, error) {
	switch t := n.(type) {
	case *ast.Literal:
		return resolved{Known: true, Value: t.Value}, nil
	case *ast.LiteralWrapper:
		return resolved{Known: true, Value: t.Value}, nil
	case *ast.DocAccessor:
		return resolveDoc(env, t)
	case *ast.EventAccessor:
		v, ok := lookupPath(env.Event, t.Path)
		if !ok {
			return resolved{Complex: residual.ComplexResidual("unify-event-missing", t)}, nil
		}
		return resolved{Known: true, Value: v, Path: t.Path, NS: traceEvent}, nil
	case *ast.SelfAccessor:
		return resolveSelf(env, t)
	case *ast.BindingAccessor:
		return resolveBinding(env, t)
	case *ast.ParamAccessor:
		v, ok := env.params[t.Name]
		if !ok {
			return resolved{Complex: residual.ComplexResidual("unify-param-unbound", t)}, nil
		}
		return resolved{Known: true, Value: v, FromContext: true}, nil
	case *ast.ValueFn:
		return evalValueFn(env, t)
	default:
		return resolved{}, runtimeError(n.Pos(), "node of kind %s is not a value expression", n.Kind())
	}
}

// resolveDoc looks up a document path, expanding a computed field — a
// document value that is itself an unparsed policy expression — by
// recursively resolving it against env. env.computing tracks the paths
// currently being expanded so a field that (directly or transitively)
// refers back to itself is reported as a fatal cycle rather than
// recursing without bound.
func resolveDoc(env *Env, t *ast.DocAccessor) (resolved, error) {
	v, ok := lookupPath(env.Doc, t.Path)
	if !ok {
		return resolved{Known: false, Path: t.Path, NS: traceDoc}, nil
	}
	node, isExpr := v.(ast.Node)
	if !isExpr {
		return resolved{Known: true, Value: v, Path: t.Path, NS: traceDoc}, nil
	}
	key := t.Path.String()
	if env.computing[key] {
		return resolved{}, runtimeError(t.Pos(), "computed field at doc/%s cycles back to itself", key)
	}
	inner, err := resolveNode(env.withComputing(key), node)
	if err != nil {
		return resolved{}, err
	}
	if inner.Complex != nil {
		return resolved{Complex: inner.Complex}, nil
	}
	if !inner.Known {
		return resolved{Known: false, Path: t.Path, NS: traceDoc}, nil
	}
	return resolved{Known: true, Value: inner.Value, Path: t.Path, NS: traceDoc}, nil
}

func resolveSelf(env *Env, t *ast.SelfAccessor) (resolved, error) {
	if len(t.Path) == 0 {
		return resolved{}, runtimeError(t.Pos(), "self accessor has no name")
	}
	name := t.Path[0]
	sv, ok := env.self[name]
	if !ok {
		return resolved{Complex: residual.ComplexResidual("unify-self-missing", t)}, nil
	}
	if !sv.Known {
		return resolved{Known: false}, nil
	}
	v, ok := lookupPath(sv.Value, t.Path[1:])
	if !ok {
		if len(t.Path) == 1 {
			return resolved{Known: true, Value: sv.Value, FromContext: true}, nil
		}
		return resolved{Known: false}, nil
	}
	return resolved{Known: true, Value: v, FromContext: true}, nil
}

func resolveBinding(env *Env, t *ast.BindingAccessor) (resolved, error) {
	ns := t.BindingNS
	if ns == "" {
		ns = t.Namespace
	}
	v, ok := env.bindings[ns]
	if !ok {
		return resolved{}, runtimeError(t.Pos(), "unbound variable %q", ns)
	}
	if len(t.Path) == 0 {
		return resolved{Known: true, Value: v, FromContext: true}, nil
	}
	fv, ok := lookupPath(v, t.Path)
	if !ok {
		return resolved{Known: false}, nil
	}
	return resolved{Known: true, Value: fv, FromContext: true}, nil
}
