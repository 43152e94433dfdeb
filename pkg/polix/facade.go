//
//  Copyright © Manetu Inc. All rights reserved.
//

package polix

import (
	"gopkg.in/yaml.v3"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/evaluator"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/parser"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/registry/loader"
	"github.com/manetu/polix/pkg/residual"
)

// NewRegistry returns an empty module registry. A thin re-export of
// [registry.New] so callers assembling a pipeline by hand don't need to
// import pkg/registry directly for the common case.
func NewRegistry() *registry.Registry { return registry.New() }

// LoadModules validates and loads sources into base, returning a new
// registry on success (base is never mutated; see [loader.LoadModules]).
func LoadModules(base *registry.Registry, ops *operator.Registry, sources []loader.Source) (*registry.Registry, error) {
	return loader.LoadModules(base, parser.New(ops), sources)
}

// Parse parses a single YAML/JSON-decoded policy expression into an AST,
// without the scope-resolution pass [ParsePolicy] performs.
func Parse(ops *operator.Registry, n *yaml.Node) (ast.Node, error) {
	r := parser.New(ops).Parse(n)
	if !r.OK() {
		return nil, r.Err
	}
	return r.Node, nil
}

// ParsePolicy parses and scope-resolves a policy body, rejecting any
// accessor whose binding namespace never resolves to an enclosing
// quantifier, value-fn, or let binding.
func ParsePolicy(ops *operator.Registry, n *yaml.Node) (ast.Node, error) {
	return parser.New(ops).ParsePolicy(n)
}

// Compile compiles root against reg using ops, honoring opts (forced
// tier, optional native compiler). This is the stateless counterpart to
// [Engine.Compile]: no caching, every call re-normalizes and recompiles.
func Compile(ops *operator.Registry, reg *registry.Registry, root ast.Node, opts evaluator.Options) (evaluator.CompiledPolicy, error) {
	return evaluator.Compile(ops, reg, root, opts)
}

// Evaluate runs a compiled policy against a document and event.
func Evaluate(cp evaluator.CompiledPolicy, doc, event interface{}) (*residual.Residual, error) {
	return cp.Evaluate(doc, event)
}

// Residual classification, re-exported for callers that only import
// pkg/polix.
var (
	Classify        = residual.Classify
	IsSatisfied     = residual.IsSatisfied
	IsContradicted  = residual.IsContradicted
	IsOpen          = residual.IsOpen
	ToConstraints   = residual.ToConstraints
	FromConstraints = residual.FromConstraints
)

// Tier aliases, re-exported for callers pinning a forced tier via
// [WithForcedTier] or [evaluator.Options.ForcedTier].
const (
	T0 = evaluator.T0
	T1 = evaluator.T1
	T2 = evaluator.T2
	T3 = evaluator.T3
)
