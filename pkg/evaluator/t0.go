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

// t0 evaluates by re-running unification against the original AST on
// every call. Always applicable; used directly for complex
// constraint-sets and as the fallback underneath T1.
type t0 struct {
	ops  *operator.Registry
	reg  *registry.Registry
	root ast.Node
}

func newT0(ops *operator.Registry, reg *registry.Registry, root ast.Node) *t0 {
	return &t0{ops: ops, reg: reg, root: root}
}

func (c *t0) Evaluate(doc, event interface{}) (*residual.Residual, error) {
	return interpret(c.ops, c.reg, c.root, doc, event)
}

func (c *t0) Tier() Tier { return T0 }

func (c *t0) RegistryVersion() uint64 { return c.ops.Version() }
