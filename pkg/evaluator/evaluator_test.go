//
//  Copyright © Manetu Inc. All rights reserved.
//

package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/residual"
)

func doc(path string) *ast.DocAccessor {
	return ast.NewDocAccessor(ast.Position{}, ast.Path{path})
}

func lit(v interface{}) *ast.Literal {
	return ast.NewLiteral(ast.Position{}, v)
}

func cmp(op string, left, right ast.Node) *ast.FunctionCall {
	return ast.NewFunctionCall(ast.Position{}, op, []ast.Node{left, right})
}

func simplePolicy() ast.Node {
	return ast.NewFunctionCall(ast.Position{}, "and", []ast.Node{
		cmp(">=", doc("age"), lit(18.0)),
		cmp("=", doc("role"), lit("admin")),
	})
}

func TestCompileSelectsT2ForBuiltinOnlyPolicy(t *testing.T) {
	cp, err := Compile(operator.New(), registry.New(), simplePolicy(), Options{})
	require.NoError(t, err)
	assert.Equal(t, T2, cp.Tier())
}

func TestCompileSelectsT0ForComplexPolicy(t *testing.T) {
	ops := operator.New()
	q := ast.NewQuantifier(ast.Position{}, "forall",
		ast.Binding{Name: "u", Collection: doc("users")},
		cmp("=", ast.NewBindingAccessor(ast.Position{}, "u", ast.Path{"role"}), lit("admin")))
	cp, err := Compile(ops, registry.New(), q, Options{})
	require.NoError(t, err)
	assert.Equal(t, T0, cp.Tier())
}

func TestCompileSelectsT1ForCustomOperator(t *testing.T) {
	ops := operator.New()
	ops.Register(operator.Descriptor{ID: "divides", Evaluate: func(v, e interface{}) bool { return true }})
	p := cmp("divides", doc("x"), lit(2))
	cp, err := Compile(ops, registry.New(), p, Options{})
	require.NoError(t, err)
	assert.Equal(t, T1, cp.Tier())
}

func TestTierEquivalenceT0AndT2(t *testing.T) {
	ops := operator.New()
	reg := registry.New()
	policy := simplePolicy()

	t0, err := Compile(ops, reg, policy, Options{ForcedTier: tierPtr(T0)})
	require.NoError(t, err)
	t2, err := Compile(ops, reg, policy, Options{ForcedTier: tierPtr(T2)})
	require.NoError(t, err)

	docs := []map[string]interface{}{
		{"age": 20.0, "role": "admin"},
		{"age": 10.0, "role": "admin"},
		{"age": 20.0},
		{},
	}
	for _, d := range docs {
		r0, err := t0.Evaluate(d, nil)
		require.NoError(t, err)
		r2, err := t2.Evaluate(d, nil)
		require.NoError(t, err)
		assert.Equal(t, residual.Classify(r0), residual.Classify(r2), "doc %v", d)
	}
}

func TestT1FallsBackToT0OnVersionMismatch(t *testing.T) {
	ops := operator.New()
	ops.Register(operator.Descriptor{ID: "divides", Evaluate: func(v, e interface{}) bool { return true }})
	reg := registry.New()
	p := cmp("divides", doc("x"), lit(2))
	cp, err := Compile(ops, reg, p, Options{})
	require.NoError(t, err)
	require.Equal(t, T1, cp.Tier())

	r, err := cp.Evaluate(map[string]interface{}{"x": 4}, nil)
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r))

	// Re-registering the operator bumps the registry version; t1 must
	// detect the mismatch and fall through to interpreting the AST.
	ops.Register(operator.Descriptor{ID: "divides", Evaluate: func(v, e interface{}) bool { return false }})
	r, err = cp.Evaluate(map[string]interface{}{"x": 4}, nil)
	require.NoError(t, err)
	assert.True(t, residual.IsContradicted(r))
}

func TestForceT2OnComplexConstraintSetErrors(t *testing.T) {
	ops := operator.New()
	q := ast.NewQuantifier(ast.Position{}, "forall",
		ast.Binding{Name: "u", Collection: doc("users")},
		cmp("=", ast.NewBindingAccessor(ast.Position{}, "u", ast.Path{"role"}), lit("admin")))
	_, err := Compile(ops, registry.New(), q, Options{ForcedTier: tierPtr(T2)})
	require.Error(t, err)
}

func TestMonotonicityAddingKnownFieldsNeverReopensResidual(t *testing.T) {
	ops := operator.New()
	cp, err := Compile(ops, registry.New(), simplePolicy(), Options{})
	require.NoError(t, err)

	empty, err := cp.Evaluate(map[string]interface{}{}, nil)
	require.NoError(t, err)
	require.True(t, residual.IsOpen(empty))
	openPaths := len(residual.ToConstraints(empty))

	partial, err := cp.Evaluate(map[string]interface{}{"age": 20.0}, nil)
	require.NoError(t, err)
	// Supplying one more known field can only shrink the open residual
	// (fewer outstanding constraints), never grow it.
	if residual.IsOpen(partial) {
		assert.Less(t, len(residual.ToConstraints(partial)), openPaths)
	} else {
		assert.True(t, residual.IsSatisfied(partial) || residual.IsContradicted(partial))
	}

	full, err := cp.Evaluate(map[string]interface{}{"age": 20.0, "role": "admin"}, nil)
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(full))

	refuted, err := cp.Evaluate(map[string]interface{}{"age": 10.0, "role": "admin"}, nil)
	require.NoError(t, err)
	assert.True(t, residual.IsContradicted(refuted))
}

func tierPtr(t Tier) *Tier { return &t }
