//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package parser converts a policy's surface syntax — nested prefix
// expressions authored as plain YAML/JSON values — into the typed
// [github.com/manetu/polix/pkg/ast] tree consumed by
// [github.com/manetu/polix/pkg/unify] and
// [github.com/manetu/polix/pkg/normalize].
//
// The surface grammar has two shapes. A scalar token is either a bare
// literal (a string with no recognized namespace prefix, a number, a
// bool, null) or a namespaced accessor written "namespace/path", where
// namespace is one of doc, self, param, event, or a quantifier-bound
// name. A composite is a YAML sequence whose first element is an
// operator token — a comparison/membership/pattern operator, a boolean
// connective, forall/exists, let, literal, a value-fn head (fn/count and
// friends), or a "namespace/name" policy reference — followed by its
// operands.
//
// Parsing is driven directly off *yaml.Node so that every produced AST
// node carries real source line/column information for error reporting.
package parser

import (
	"strings"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
	"gopkg.in/yaml.v3"
)

// reserved accessor namespaces recognized in token classification.
const (
	nsDoc   = "doc"
	nsSelf  = "self"
	nsParam = "param"
	nsEvent = "event"
	nsFn    = "fn"
)

const whereKeyword = "where"

// boolean connectives and special heads handled directly by the parser
// rather than looked up in the operator registry.
const (
	headAnd     = "and"
	headOr      = "or"
	headNot     = "not"
	headForall  = "forall"
	headExists  = "exists"
	headLet     = "let"
	headLiteral = "literal"
)

// Parser converts surface syntax into [ast.Node], resolving operator
// heads against ops. Use [New] with [operator.Default] for typical
// callers, or supply a handle-scoped registry (e.g. one with custom
// operators registered) when parsing policies that rely on them.
type Parser struct {
	ops *operator.Registry
}

// New creates a Parser that resolves operator heads against ops.
func New(ops *operator.Registry) *Parser {
	return &Parser{ops: ops}
}

// Parse converts a single YAML node into an AST, returning a [Result].
func (p *Parser) Parse(n *yaml.Node) Result {
	node, err := p.parseExpr(n)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Node: node}
}

func pos(n *yaml.Node) ast.Position {
	if n == nil {
		return ast.Position{}
	}
	return ast.Position{Line: n.Line, Column: n.Column}
}

// parseExpr dispatches on the yaml.Node's kind: a scalar parses as a
// token (literal or accessor); a sequence parses as a composite form.
func (p *Parser) parseExpr(n *yaml.Node) (ast.Node, error) {
	if n == nil {
		return nil, newErr(ErrUnsupportedNode, ast.Position{}, "nil expression node")
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return p.parseScalar(n)
	case yaml.SequenceNode:
		return p.parseComposite(n)
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return nil, newErr(ErrUnsupportedNode, pos(n), "document must contain exactly one root expression")
		}
		return p.parseExpr(n.Content[0])
	default:
		return nil, newErr(ErrUnsupportedNode, pos(n), "unsupported node kind %v in expression position", n.Kind)
	}
}

// parseScalar classifies a scalar token as a bare literal or a
// namespaced accessor (doc/self/param/event/binding). Non-string scalars
// (numbers, bools, null) are always literals.
func (p *Parser) parseScalar(n *yaml.Node) (ast.Node, error) {
	if n.Tag != "!!str" {
		return p.decodeLiteral(n)
	}
	token := n.Value
	ns, tail, ok := splitNamespace(token)
	if !ok {
		return ast.NewLiteral(pos(n), token), nil
	}
	path, err := parsePath(tail)
	if err != nil {
		return nil, newErr(ErrMalformedPath, pos(n), "%s: %v", token, err)
	}
	switch ns {
	case nsDoc:
		return ast.NewDocAccessor(pos(n), path), nil
	case nsSelf:
		return ast.NewSelfAccessor(pos(n), path), nil
	case nsEvent:
		return ast.NewEventAccessor(pos(n), path), nil
	case nsParam:
		if len(path) != 1 {
			return nil, newErr(ErrMalformedPath, pos(n), "param accessor %q must name exactly one parameter", token)
		}
		return ast.NewParamAccessor(pos(n), path[0]), nil
	default:
		// Any other prefix names a quantifier/let-bound variable;
		// BindingNS is resolved by a later scope-resolution pass.
		return ast.NewBindingAccessor(pos(n), ns, path), nil
	}
}

func (p *Parser) decodeLiteral(n *yaml.Node) (ast.Node, error) {
	var v interface{}
	if err := n.Decode(&v); err != nil {
		return nil, newErr(ErrUnsupportedNode, pos(n), "cannot decode literal scalar: %v", err)
	}
	return ast.NewLiteral(pos(n), v), nil
}

// splitNamespace splits "ns/tail" into (ns, tail, true); returns
// ("", "", false) for a token with no "/" (a bare literal token).
func splitNamespace(token string) (ns, tail string, ok bool) {
	i := strings.IndexByte(token, '/')
	if i < 0 {
		return "", "", false
	}
	return token[:i], token[i+1:], true
}

// parsePath splits a dotted accessor tail into segments. Empty segments
// (leading, trailing, or doubled dots) are malformed.
func parsePath(tail string) (ast.Path, error) {
	if tail == "" {
		return nil, errMalformed("accessor path is empty")
	}
	segs := strings.Split(tail, ".")
	for _, s := range segs {
		if s == "" {
			return nil, errMalformed("accessor path %q has an empty segment", tail)
		}
	}
	return ast.Path(segs), nil
}

type malformedPathErr string

func (e malformedPathErr) Error() string { return string(e) }

func errMalformed(msg string) error { return malformedPathErr(msg) }

// parseComposite dispatches a sequence node on its head token.
func (p *Parser) parseComposite(n *yaml.Node) (ast.Node, error) {
	if len(n.Content) == 0 {
		return nil, newErr(ErrInvalidOperatorHead, pos(n), "empty composite expression")
	}
	headNode := n.Content[0]
	if headNode.Kind != yaml.ScalarNode || headNode.Tag != "!!str" {
		return nil, newErr(ErrInvalidOperatorHead, pos(headNode), "composite head must be a string operator token")
	}
	head := headNode.Value
	operands := n.Content[1:]

	switch head {
	case headAnd, headOr, headNot:
		return p.parseConnective(n, head, operands)
	case headForall, headExists:
		return p.parseQuantifier(n, head, operands)
	case headLet:
		return p.parseLet(n, operands)
	case headLiteral:
		return p.parseLiteralWrapper(n, operands)
	}
	if d, ok := p.ops.Lookup(head); ok {
		return p.parseFunctionCall(n, d.ID, operands)
	}
	if ns, name, ok := splitNamespace(head); ok {
		if ns == nsFn {
			return p.parseValueFn(n, name, operands)
		}
		return p.parsePolicyReference(n, ns, name, operands)
	}
	return nil, newErr(ErrInvalidOperatorHead, pos(headNode), "unrecognized operator head %q", head)
}

func (p *Parser) parseChildren(nodes []*yaml.Node) ([]ast.Node, error) {
	out := make([]ast.Node, 0, len(nodes))
	for _, c := range nodes {
		child, err := p.parseExpr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

func (p *Parser) parseConnective(n *yaml.Node, head string, operands []*yaml.Node) (ast.Node, error) {
	if head == headNot && len(operands) != 1 {
		return nil, newErr(ErrUnsupportedNode, pos(n), "not takes exactly one operand, got %d", len(operands))
	}
	children, err := p.parseChildren(operands)
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionCall(pos(n), head, children), nil
}

func (p *Parser) parseFunctionCall(n *yaml.Node, op string, operands []*yaml.Node) (ast.Node, error) {
	children, err := p.parseChildren(operands)
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionCall(pos(n), op, children), nil
}

func (p *Parser) parseLiteralWrapper(n *yaml.Node, operands []*yaml.Node) (ast.Node, error) {
	if len(operands) != 1 {
		return nil, newErr(ErrUnsupportedNode, pos(n), "literal takes exactly one operand, got %d", len(operands))
	}
	var v interface{}
	if err := operands[0].Decode(&v); err != nil {
		return nil, newErr(ErrUnsupportedNode, pos(operands[0]), "cannot decode literal value: %v", err)
	}
	return ast.NewLiteralWrapper(pos(n), v), nil
}

// parseBinding parses a quantifier/value-fn binding array:
// [name, collectionExpr] or [name, collectionExpr, "where", predicate].
func (p *Parser) parseBinding(n *yaml.Node) (ast.Binding, error) {
	if n.Kind != yaml.SequenceNode || (len(n.Content) != 2 && len(n.Content) != 4) {
		return ast.Binding{}, newErr(ErrInvalidBinding, pos(n), "binding must be [name, collection] or [name, collection, %q, predicate]", whereKeyword)
	}
	nameNode := n.Content[0]
	if nameNode.Kind != yaml.ScalarNode || nameNode.Tag != "!!str" {
		return ast.Binding{}, newErr(ErrInvalidBinding, pos(nameNode), "binding name must be a string")
	}
	collection, err := p.parseExpr(n.Content[1])
	if err != nil {
		return ast.Binding{}, err
	}
	b := ast.Binding{Name: nameNode.Value, Collection: collection}
	if len(n.Content) == 4 {
		kw := n.Content[2]
		if kw.Kind != yaml.ScalarNode || kw.Value != whereKeyword {
			return ast.Binding{}, newErr(ErrInvalidWhere, pos(kw), "expected %q keyword, got %q", whereKeyword, kw.Value)
		}
		where, err := p.parseExpr(n.Content[3])
		if err != nil {
			return ast.Binding{}, newErr(ErrInvalidWhere, pos(n.Content[3]), "%v", err)
		}
		b.Where = where
	}
	return b, nil
}

func (p *Parser) parseQuantifier(n *yaml.Node, head string, operands []*yaml.Node) (ast.Node, error) {
	if len(operands) != 2 {
		return nil, newErr(ErrInvalidBinding, pos(n), "%s takes [binding, body], got %d operands", head, len(operands))
	}
	binding, err := p.parseBinding(operands[0])
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr(operands[1])
	if err != nil {
		return nil, err
	}
	return ast.NewQuantifier(pos(n), head, binding, body), nil
}

func (p *Parser) parseValueFn(n *yaml.Node, name string, operands []*yaml.Node) (ast.Node, error) {
	if len(operands) != 1 {
		return nil, newErr(ErrInvalidValueFnArity, pos(n), "fn/%s takes exactly one binding operand, got %d", name, len(operands))
	}
	binding, err := p.parseBinding(operands[0])
	if err != nil {
		return nil, err
	}
	return ast.NewValueFn(pos(n), name, binding), nil
}

func (p *Parser) parseLet(n *yaml.Node, operands []*yaml.Node) (ast.Node, error) {
	if len(operands) != 2 {
		return nil, newErr(ErrInvalidLetBindings, pos(n), "let takes [bindings, body], got %d operands", len(operands))
	}
	bindingsNode := operands[0]
	if bindingsNode.Kind != yaml.SequenceNode || len(bindingsNode.Content)%2 != 0 {
		return nil, newErr(ErrInvalidLetBindings, pos(bindingsNode), "let bindings must be a flat [name, expr, ...] sequence of even length")
	}
	var pairs []ast.LetBindingPair
	for i := 0; i < len(bindingsNode.Content); i += 2 {
		nameNode := bindingsNode.Content[i]
		if nameNode.Kind != yaml.ScalarNode || nameNode.Tag != "!!str" {
			return nil, newErr(ErrInvalidLetBindings, pos(nameNode), "let binding name must be a string")
		}
		expr, err := p.parseExpr(bindingsNode.Content[i+1])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.LetBindingPair{Name: nameNode.Value, Expr: expr})
	}
	body, err := p.parseExpr(operands[1])
	if err != nil {
		return nil, err
	}
	return ast.NewLetBinding(pos(n), pairs, body), nil
}

func (p *Parser) parsePolicyReference(n *yaml.Node, ns, name string, operands []*yaml.Node) (ast.Node, error) {
	if len(operands) > 1 {
		return nil, newErr(ErrInvalidPolicyReference, pos(n), "policy reference %s/%s takes at most one params map, got %d operands", ns, name, len(operands))
	}
	var params map[string]ast.Node
	if len(operands) == 1 {
		pm := operands[0]
		if pm.Kind != yaml.MappingNode {
			return nil, newErr(ErrInvalidPolicyReference, pos(pm), "policy reference params must be a mapping")
		}
		params = make(map[string]ast.Node, len(pm.Content)/2)
		for i := 0; i+1 < len(pm.Content); i += 2 {
			keyNode := pm.Content[i]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, newErr(ErrInvalidPolicyReference, pos(keyNode), "policy reference param key must be a scalar")
			}
			val, err := p.parseExpr(pm.Content[i+1])
			if err != nil {
				return nil, err
			}
			params[keyNode.Value] = val
		}
	}
	return ast.NewPolicyReference(pos(n), ns, name, params), nil
}
