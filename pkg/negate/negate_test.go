//
//  Copyright © Manetu Inc. All rights reserved.
//

package negate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
)

func eq(path string, v interface{}) *ast.FunctionCall {
	return ast.NewFunctionCall(ast.Position{}, "=", []ast.Node{
		ast.NewDocAccessor(ast.Position{}, ast.Path{path}),
		ast.NewLiteral(ast.Position{}, v),
	})
}

func not(n ast.Node) *ast.FunctionCall {
	return ast.NewFunctionCall(ast.Position{}, "not", []ast.Node{n})
}

func TestPushNegatesComparisonOperator(t *testing.T) {
	ops := operator.New()
	out := Push(ops, not(eq("role", "admin")))
	fc, ok := out.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "!=", fc.Op)
	assert.False(t, HasFallback(out))
}

func TestPushDeMorganAnd(t *testing.T) {
	ops := operator.New()
	and := ast.NewFunctionCall(ast.Position{}, "and", []ast.Node{eq("a", 1), eq("b", 2)})
	out := Push(ops, not(and))
	fc, ok := out.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "or", fc.Op)
	require.Len(t, fc.Children, 2)
	assert.Equal(t, "!=", fc.Children[0].(*ast.FunctionCall).Op)
	assert.Equal(t, "!=", fc.Children[1].(*ast.FunctionCall).Op)
}

func TestPushDoubleNegationElides(t *testing.T) {
	ops := operator.New()
	out := Push(ops, not(not(eq("role", "admin"))))
	fc, ok := out.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "=", fc.Op)
}

func TestPushQuantifierDuality(t *testing.T) {
	ops := operator.New()
	q := ast.NewQuantifier(ast.Position{}, "forall",
		ast.Binding{Name: "u", Collection: ast.NewDocAccessor(ast.Position{}, ast.Path{"users"})},
		eq("role", "admin"))
	out := Push(ops, not(q))
	qq, ok := out.(*ast.Quantifier)
	require.True(t, ok)
	assert.Equal(t, "exists", qq.QuantKind)
	assert.Equal(t, "!=", qq.Body.(*ast.FunctionCall).Op)
}

func TestPushFallbackForValueFn(t *testing.T) {
	ops := operator.New()
	vf := ast.NewValueFn(ast.Position{}, "count",
		ast.Binding{Name: "u", Collection: ast.NewDocAccessor(ast.Position{}, ast.Path{"users"})})
	out := Push(ops, not(vf))
	assert.True(t, HasFallback(out))
}

func TestPushFallbackForUnregisteredOperator(t *testing.T) {
	ops := operator.New()
	custom := ast.NewFunctionCall(ast.Position{}, "custom-op", []ast.Node{
		ast.NewDocAccessor(ast.Position{}, ast.Path{"x"}),
	})
	out := Push(ops, not(custom))
	assert.True(t, HasFallback(out))
}
