//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package unify implements the unification engine (spec component C5):
// it walks a parsed policy's [ast.Node] tree against a (possibly
// partial) document and event context, producing a
// [github.com/manetu/polix/pkg/residual.Residual] rather than a plain
// boolean. Where the document supplies a concrete value the engine
// decides the constraint outright (folding it into Satisfied or a
// Conflict atom); where a path is absent from the document the
// constraint is carried forward as an Open atom keyed on that path, so
// the caller learns exactly what would need to be true for the policy
// to hold.
package unify

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/common"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/registry"
)

// Env is the evaluation environment threaded through a single
// [Evaluate] call: the document and event under test, the operator and
// module registries to consult, and the bindings introduced by
// enclosing quantifiers, let forms, and policy-reference parameters.
//
// Env is extended (never mutated in place) as evaluation descends into
// a binding scope — [Env.withBinding], [Env.withSelf], and
// [Env.withParams] each return a shallow copy with one more entry, so
// sibling subexpressions never see each other's bindings.
type Env struct {
	Doc   interface{}
	Event interface{}
	Ops   *operator.Registry
	Reg   *registry.Registry

	bindings  map[string]interface{} // quantifier-bound variable -> element value
	self      map[string]selfValue   // let-bound name -> resolved value
	params    map[string]interface{} // current policy-reference parameter scope
	computing map[string]bool        // doc paths currently being expanded as computed fields
}

// selfValue is a let-bound value: either a concrete resolved value, or
// (Known=false) a value the engine could not reduce to a constant,
// tracked only so self-accessors referencing it can still report "open"
// rather than erroring.
type selfValue struct {
	Known bool
	Value interface{}
}

// NewEnv creates a root evaluation environment with no bindings.
func NewEnv(ops *operator.Registry, reg *registry.Registry, doc, event interface{}) *Env {
	return &Env{Doc: doc, Event: event, Ops: ops, Reg: reg}
}

func (e *Env) withBinding(name string, value interface{}) *Env {
	out := *e
	out.bindings = cloneAny(e.bindings)
	out.bindings[name] = value
	return &out
}

func (e *Env) withSelf(name string, v selfValue) *Env {
	out := *e
	out.self = cloneSelf(e.self)
	out.self[name] = v
	return &out
}

func (e *Env) withParams(params map[string]interface{}) *Env {
	out := *e
	out.params = params
	return &out
}

// withComputing marks path as in-flight for computed-field expansion,
// so a computed field that (directly or transitively) refers back to its
// own path is caught as a cycle rather than recursing forever.
func (e *Env) withComputing(path string) *Env {
	out := *e
	out.computing = make(map[string]bool, len(e.computing)+1)
	for k, v := range e.computing {
		out.computing[k] = v
	}
	out.computing[path] = true
	return &out
}

func cloneAny(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSelf(m map[string]selfValue) map[string]selfValue {
	out := make(map[string]selfValue, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// runtimeError reports a hard evaluation failure distinct from a
// residual outcome: a computed-field cycle, or a malformed tree that
// scope resolution should have rejected (an unbound quantifier/value-fn
// binding, a self-accessor with no name). Missing document data and
// missing context (unbound param, unbound let variable, unknown policy
// reference) are semantic soft errors and surface as complex markers
// instead — see [residual.ComplexResidual].
func runtimeError(pos ast.Position, format string, args ...interface{}) error {
	return common.NewErrorf(common.ErrKindRuntime, "%s: "+format, append([]interface{}{pos}, args...)...)
}
