//
//  Copyright © Manetu Inc. All rights reserved.
//

package unify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/residual"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func eq(left ast.Node, right ast.Node) *ast.FunctionCall {
	return ast.NewFunctionCall(ast.Position{}, "=", []ast.Node{left, right})
}

func doc(path string) *ast.DocAccessor {
	return ast.NewDocAccessor(ast.Position{}, ast.Path{path})
}

func lit(v interface{}) *ast.Literal {
	return ast.NewLiteral(ast.Position{}, v)
}

func TestEvaluateSatisfiedOnConcreteMatch(t *testing.T) {
	env := NewEnv(operator.New(), registry.New(), map[string]interface{}{"role": "admin"}, nil)
	r, err := Evaluate(env, eq(doc("role"), lit("admin")))
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r))
}

func TestEvaluateContradictedOnConcreteMismatch(t *testing.T) {
	env := NewEnv(operator.New(), registry.New(), map[string]interface{}{"role": "guest"}, nil)
	r, err := Evaluate(env, eq(doc("role"), lit("admin")))
	require.NoError(t, err)
	assert.True(t, residual.IsContradicted(r))
}

func TestEvaluateOpenOnMissingField(t *testing.T) {
	env := NewEnv(operator.New(), registry.New(), map[string]interface{}{}, nil)
	r, err := Evaluate(env, eq(doc("role"), lit("admin")))
	require.NoError(t, err)
	assert.True(t, residual.IsOpen(r))
	atoms, ok := r.At(ast.Path{"role"})
	require.True(t, ok)
	require.Len(t, atoms, 1)
	assert.Equal(t, "=", atoms[0].Constraint.Op)
	assert.Equal(t, "admin", atoms[0].Constraint.Value)
}

func TestEvaluateCrossKeyBothUnknown(t *testing.T) {
	env := NewEnv(operator.New(), registry.New(), map[string]interface{}{}, nil)
	r, err := Evaluate(env, eq(doc("a"), doc("b")))
	require.NoError(t, err)
	require.Len(t, r.CrossKey(), 1)
	assert.Equal(t, ast.Path{"a"}, r.CrossKey()[0].Left)
	assert.Equal(t, ast.Path{"b"}, r.CrossKey()[0].Right)
}

func TestEvaluateAndShortCircuitsOnContradiction(t *testing.T) {
	env := NewEnv(operator.New(), registry.New(), map[string]interface{}{"a": 1}, nil)
	and := ast.NewFunctionCall(ast.Position{}, "and", []ast.Node{
		eq(doc("a"), lit(2)),
		eq(doc("never-reached"), lit("x")),
	})
	r, err := Evaluate(env, and)
	require.NoError(t, err)
	assert.True(t, residual.IsContradicted(r))
}

func TestEvaluateOrSatisfiedDominates(t *testing.T) {
	env := NewEnv(operator.New(), registry.New(), map[string]interface{}{"a": 1}, nil)
	or := ast.NewFunctionCall(ast.Position{}, "or", []ast.Node{
		eq(doc("a"), lit(1)),
		eq(doc("b"), lit(2)),
	})
	r, err := Evaluate(env, or)
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r))
}

func TestEvaluateForallVacuousOnEmptyCollection(t *testing.T) {
	d := map[string]interface{}{"users": []interface{}{}}
	env := NewEnv(operator.New(), registry.New(), d, nil)
	q := ast.NewQuantifier(ast.Position{}, "forall",
		ast.Binding{Name: "u", Collection: doc("users")},
		eq(ast.NewBindingAccessor(ast.Position{}, "u", ast.Path{"role"}), lit("admin")))
	r, err := Evaluate(env, q)
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r), "vacuous forall over an empty collection is satisfied")
}

func TestEvaluateExistsEmptyIsContradicted(t *testing.T) {
	d := map[string]interface{}{"users": []interface{}{}}
	env := NewEnv(operator.New(), registry.New(), d, nil)
	q := ast.NewQuantifier(ast.Position{}, "exists",
		ast.Binding{Name: "u", Collection: doc("users")},
		eq(ast.NewBindingAccessor(ast.Position{}, "u", ast.Path{"role"}), lit("admin")))
	r, err := Evaluate(env, q)
	require.NoError(t, err)
	assert.True(t, residual.IsContradicted(r))
}

func TestEvaluateForallOverConcreteCollection(t *testing.T) {
	d := map[string]interface{}{"users": []interface{}{
		map[string]interface{}{"role": "admin"},
		map[string]interface{}{"role": "admin"},
	}}
	env := NewEnv(operator.New(), registry.New(), d, nil)
	q := ast.NewQuantifier(ast.Position{}, "forall",
		ast.Binding{Name: "u", Collection: doc("users")},
		eq(ast.NewBindingAccessor(ast.Position{}, "u", ast.Path{"role"}), lit("admin")))
	r, err := Evaluate(env, q)
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r))
}

func TestEvaluateValueFnCount(t *testing.T) {
	d := map[string]interface{}{"users": []interface{}{
		map[string]interface{}{"active": true},
		map[string]interface{}{"active": false},
		map[string]interface{}{"active": true},
	}}
	env := NewEnv(operator.New(), registry.New(), d, nil)
	vf := ast.NewValueFn(ast.Position{}, "count",
		ast.Binding{
			Name:       "u",
			Collection: doc("users"),
			Where:      eq(ast.NewBindingAccessor(ast.Position{}, "u", ast.Path{"active"}), lit(true)),
		})
	r, err := Evaluate(env, eq(vf, lit(2)))
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r))
}

func TestEvaluateLetBinding(t *testing.T) {
	d := map[string]interface{}{"a": 5}
	env := NewEnv(operator.New(), registry.New(), d, nil)
	lb := ast.NewLetBinding(ast.Position{},
		[]ast.LetBindingPair{{Name: "x", Expr: doc("a")}},
		eq(ast.NewSelfAccessor(ast.Position{}, ast.Path{"x"}), lit(5)))
	r, err := Evaluate(env, lb)
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r))
}

func TestEvaluatePolicyReferenceWithDefaultParam(t *testing.T) {
	reg := registry.New()
	mod := &registry.Module{
		Namespace: "auth",
		Policies: map[string]registry.PolicyDef{
			"min-level": {
				Expr: ast.NewFunctionCall(ast.Position{}, ">=", []ast.Node{
					doc("level"),
					ast.NewParamAccessor(ast.Position{}, "min"),
				}),
				Params: map[string]registry.ParamSpec{
					"min": {Default: 10, HasDefault: true},
				},
			},
		},
	}
	require.NoError(t, reg.RegisterModule("auth", mod))

	d := map[string]interface{}{"level": 15}
	env := NewEnv(operator.New(), reg, d, nil)
	ref := ast.NewPolicyReference(ast.Position{}, "auth", "min-level", nil)
	r, err := Evaluate(env, ref)
	require.NoError(t, err)
	assert.True(t, residual.IsSatisfied(r))
}

func TestEvaluateUnknownPolicyReferenceIsComplex(t *testing.T) {
	env := NewEnv(operator.New(), registry.New(), map[string]interface{}{}, nil)
	ref := ast.NewPolicyReference(ast.Position{}, "auth", "missing", nil)
	r, err := Evaluate(env, ref)
	require.NoError(t, err)
	require.Len(t, r.Complexes(), 1)
	assert.Equal(t, "unify-unknown-policy", r.Complexes()[0].Reason)
}

func TestEvaluateComparisonAgainstParamDegradesToComplex(t *testing.T) {
	reg := registry.New()
	mod := &registry.Module{
		Namespace: "auth",
		Policies: map[string]registry.PolicyDef{
			"min-level": {
				Expr: ast.NewFunctionCall(ast.Position{}, ">", []ast.Node{
					doc("level"),
					ast.NewParamAccessor(ast.Position{}, "min"),
				}),
				Params: map[string]registry.ParamSpec{
					"min": {Default: 0, HasDefault: true},
				},
			},
		},
	}
	require.NoError(t, reg.RegisterModule("auth", mod))

	d := map[string]interface{}{"level": 5}
	env := NewEnv(operator.New(), reg, d, nil)
	ref := ast.NewPolicyReference(ast.Position{}, "auth", "min-level", map[string]ast.Node{"min": lit(10)})
	r, err := Evaluate(env, ref)
	require.NoError(t, err)
	require.Len(t, r.Complexes(), 1)
	assert.Equal(t, "unify-op-failed", r.Complexes()[0].Reason)
}
