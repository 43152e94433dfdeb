//
//  Copyright © Manetu Inc. All rights reserved.
//

package normalize

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

func TestConstraintSetTightensOverlappingBounds(t *testing.T) {
	and := ast.NewFunctionCall(ast.Position{}, "and", []ast.Node{
		cmp(">=", doc("age"), lit(18.0)),
		cmp(">", doc("age"), lit(20.0)),
		cmp("<", doc("age"), lit(65.0)),
	})
	cs, err := ConstraintSet(operator.New(), registry.New(), and)
	require.NoError(t, err)
	require.False(t, residual.IsContradicted(cs))
	atoms, ok := cs.At(ast.Path{"age"})
	require.True(t, ok)
	require.Len(t, atoms, 2)
	ops := map[string]interface{}{}
	for _, a := range atoms {
		ops[a.Constraint.Op] = a.Constraint.Value
	}
	assert.Equal(t, 20.0, ops[operator.Gt])
	assert.Equal(t, 65.0, ops[operator.Lt])
}

func TestConstraintSetDetectsImpossibleBounds(t *testing.T) {
	and := ast.NewFunctionCall(ast.Position{}, "and", []ast.Node{
		cmp(">", doc("age"), lit(30.0)),
		cmp("<", doc("age"), lit(10.0)),
	})
	cs, err := ConstraintSet(operator.New(), registry.New(), and)
	require.NoError(t, err)
	assert.True(t, residual.IsContradicted(cs))
}

func TestConstraintSetDetectsConflictingEquality(t *testing.T) {
	and := ast.NewFunctionCall(ast.Position{}, "and", []ast.Node{
		cmp("=", doc("role"), lit("admin")),
		cmp("=", doc("role"), lit("guest")),
	})
	cs, err := ConstraintSet(operator.New(), registry.New(), and)
	require.NoError(t, err)
	assert.True(t, residual.IsContradicted(cs))
}

func TestConstraintSetDedupesEquality(t *testing.T) {
	and := ast.NewFunctionCall(ast.Position{}, "and", []ast.Node{
		cmp("=", doc("role"), lit("admin")),
		cmp("=", doc("role"), lit("admin")),
	})
	cs, err := ConstraintSet(operator.New(), registry.New(), and)
	require.NoError(t, err)
	require.False(t, residual.IsContradicted(cs))
	atoms, ok := cs.At(ast.Path{"role"})
	require.True(t, ok)
	assert.Len(t, atoms, 1)
}
