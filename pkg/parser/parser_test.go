//
//  Copyright © Manetu Inc. All rights reserved.
//

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
)

func mustNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	require.Len(t, doc.Content, 1)
	return doc.Content[0]
}

func newParser() *Parser {
	return New(operator.New())
}

func TestParseScalarLiteral(t *testing.T) {
	n := mustNode(t, `"standalone"`)
	res := newParser().Parse(n)
	require.True(t, res.OK(), "%v", res.Err)
	lit, ok := res.Node.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "standalone", lit.Value)
}

func TestParseDocAccessor(t *testing.T) {
	n := mustNode(t, `doc/user.role`)
	res := newParser().Parse(n)
	require.True(t, res.OK(), "%v", res.Err)
	acc, ok := res.Node.(*ast.DocAccessor)
	require.True(t, ok)
	assert.Equal(t, ast.Path{"user", "role"}, acc.Path)
}

func TestParseMalformedPath(t *testing.T) {
	n := mustNode(t, `doc/user..role`)
	res := newParser().Parse(n)
	require.False(t, res.OK())
	assert.Equal(t, ErrMalformedPath, res.Err.Kind)
}

func TestParseComparisonFunctionCall(t *testing.T) {
	n := mustNode(t, `["=", doc/role, "admin"]`)
	res := newParser().Parse(n)
	require.True(t, res.OK(), "%v", res.Err)
	fc, ok := res.Node.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "=", fc.Op)
	require.Len(t, fc.Children, 2)
	assert.IsType(t, &ast.DocAccessor{}, fc.Children[0])
	assert.IsType(t, &ast.Literal{}, fc.Children[1])
}

func TestParseQuantifierWithWhereAndScopeResolution(t *testing.T) {
	src := `
[forall, [u, doc/users, where, ["=", u/active, true]], ["=", u/role, "admin"]]
`
	n := mustNode(t, src)
	p := newParser()
	node, err := p.ParsePolicy(n)
	require.NoError(t, err)
	q, ok := node.(*ast.Quantifier)
	require.True(t, ok)
	assert.Equal(t, "forall", q.QuantKind)
	assert.Equal(t, "u", q.Binding.Name)
	require.NotNil(t, q.Binding.Where)

	whereCall := q.Binding.Where.(*ast.FunctionCall)
	wAcc := whereCall.Children[0].(*ast.BindingAccessor)
	assert.Equal(t, "u", wAcc.BindingNS)

	bodyCall := q.Body.(*ast.FunctionCall)
	bAcc := bodyCall.Children[0].(*ast.BindingAccessor)
	assert.Equal(t, "u", bAcc.BindingNS)
}

func TestParseUnboundBindingAccessorRejected(t *testing.T) {
	n := mustNode(t, `["=", u/role, "admin"]`)
	p := newParser()
	_, err := p.ParsePolicy(n)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrInvalidBinding, perr.Kind)
}

func TestParseLetBinding(t *testing.T) {
	src := `[let, [x, doc/a, y, self/x], ["=", self/y, 1]]`
	n := mustNode(t, src)
	node, err := newParser().ParsePolicy(n)
	require.NoError(t, err)
	lb, ok := node.(*ast.LetBinding)
	require.True(t, ok)
	require.Len(t, lb.Bindings, 2)
	assert.Equal(t, "x", lb.Bindings[0].Name)
	assert.Equal(t, "y", lb.Bindings[1].Name)
}

func TestParseValueFnCount(t *testing.T) {
	src := `["fn/count", [u, doc/users, where, ["=", u/active, true]]]`
	n := mustNode(t, src)
	node, err := newParser().ParsePolicy(n)
	require.NoError(t, err)
	vf, ok := node.(*ast.ValueFn)
	require.True(t, ok)
	assert.Equal(t, "count", vf.Name)
	assert.Equal(t, "u", vf.Binding.Name)
}

func TestParsePolicyReferenceWithParams(t *testing.T) {
	src := `["auth/min-level", {min: 10}]`
	n := mustNode(t, src)
	node, err := newParser().ParsePolicy(n)
	require.NoError(t, err)
	ref, ok := node.(*ast.PolicyReference)
	require.True(t, ok)
	assert.Equal(t, "auth", ref.Namespace)
	assert.Equal(t, "min-level", ref.Name)
	require.Contains(t, ref.Params, "min")
	lit := ref.Params["min"].(*ast.Literal)
	assert.Equal(t, 10, lit.Value)
}

func TestParseLiteralWrapperBypassesAccessorClassification(t *testing.T) {
	src := `[literal, "doc/role"]`
	n := mustNode(t, src)
	node, err := newParser().ParsePolicy(n)
	require.NoError(t, err)
	lw, ok := node.(*ast.LiteralWrapper)
	require.True(t, ok)
	assert.Equal(t, "doc/role", lw.Value)
}

func TestParseInvalidOperatorHead(t *testing.T) {
	n := mustNode(t, `[42, doc/role]`)
	res := newParser().Parse(n)
	require.False(t, res.OK())
	assert.Equal(t, ErrInvalidOperatorHead, res.Err.Kind)
}
