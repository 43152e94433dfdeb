//
//  Copyright © Manetu Inc. All rights reserved.
//

package evaluator

import (
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/residual"
)

// t1 pairs a T2 templated evaluator with the operator-registry version
// it was compiled against. Required whenever a constraint-set mentions
// an operator outside the built-in set, since that operator could be
// re-registered (different Evaluate behavior) after compilation; every
// call compares the registry's current version against the compiled
// snapshot and falls through to interpreting the original AST (T0) on
// mismatch rather than risk serving a stale closure.
type t1 struct {
	ops     *operator.Registry
	reg     *registry.Registry
	root    ast.Node
	inner   *t2
	fallback *t0
	version uint64
}

func newT1(ops *operator.Registry, reg *registry.Registry, root ast.Node, cs *residual.Residual) *t1 {
	version := ops.Version()
	return &t1{
		ops:      ops,
		reg:      reg,
		root:     root,
		inner:    newT2(ops, cs, version),
		fallback: newT0(ops, reg, root),
		version:  version,
	}
}

func (c *t1) Evaluate(doc, event interface{}) (*residual.Residual, error) {
	if c.ops.Version() != c.version {
		return c.fallback.Evaluate(doc, event)
	}
	return c.inner.Evaluate(doc, event)
}

func (c *t1) Tier() Tier { return T1 }

func (c *t1) RegistryVersion() uint64 { return c.version }
