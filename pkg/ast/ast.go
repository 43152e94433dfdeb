//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package ast defines the typed abstract syntax tree produced by
// [github.com/manetu/polix/pkg/parser] from a policy's surface syntax.
//
// Surface syntax is a nested prefix expression: a YAML/JSON value whose
// composite form is an ordered sequence with an operator token first and
// operands following. The parser performs scope resolution for quantifier
// and let bindings as it builds this tree; downstream components
// ([github.com/manetu/polix/pkg/unify] and
// [github.com/manetu/polix/pkg/normalize]) consume it read-only.
//
// Nodes are immutable once constructed and form a tagged variant over
// [Kind]; callers dispatch with a type switch on the concrete node types
// rather than relying on polymorphic methods, mirroring how OPA's own AST
// package represents terms.
package ast

import "fmt"

// Kind tags the concrete type of a [Node] for fast dispatch without a
// full type switch where only the category is needed (e.g. error
// reporting, metadata extraction).
type Kind int

// Node kinds, one per spec'd AST variant.
const (
	KindLiteral Kind = iota
	KindDocAccessor
	KindBindingAccessor
	KindSelfAccessor
	KindParamAccessor
	KindEventAccessor
	KindLiteralWrapper
	KindFunctionCall
	KindQuantifier
	KindValueFn
	KindLetBinding
	KindPolicyReference
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindDocAccessor:
		return "doc-accessor"
	case KindBindingAccessor:
		return "binding-accessor"
	case KindSelfAccessor:
		return "self-accessor"
	case KindParamAccessor:
		return "param-accessor"
	case KindEventAccessor:
		return "event-accessor"
	case KindLiteralWrapper:
		return "literal-wrapper"
	case KindFunctionCall:
		return "function-call"
	case KindQuantifier:
		return "quantifier"
	case KindValueFn:
		return "value-fn"
	case KindLetBinding:
		return "let-binding"
	case KindPolicyReference:
		return "policy-reference"
	default:
		return "unknown"
	}
}

// Position identifies where a node originated in the surface-syntax
// document, for error reporting. Populated from the underlying YAML
// node's line/column when the policy is parsed from a file.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Path is an ordered sequence of field names addressing into a nested
// document. Paths compare by value (two paths with equal segments are
// equal) and are used both as accessor targets and as residual keys.
type Path []string

// String renders the path as a dotted accessor tail, e.g. "user.role".
func (p Path) String() string {
	s := ""
	for i, seg := range p {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// Equal reports whether two paths have identical segments in the same order.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Append returns a new path with seg appended, leaving p unmodified.
func (p Path) Append(seg string) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// Clone returns an independent copy of the path's segments.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Node is the common interface implemented by every AST variant.
type Node interface {
	Kind() Kind
	Pos() Position
}

// base is embedded by every concrete node type to provide Pos().
type base struct {
	position Position
}

// Pos returns the node's source position.
func (b base) Pos() Position { return b.position }

// Literal is a bare scalar/collection value appearing directly in an
// expression (not wrapped by literal-wrapper, not a namespaced accessor).
type Literal struct {
	base
	Value interface{}
}

// Kind implements [Node].
func (*Literal) Kind() Kind { return KindLiteral }

// NewLiteral constructs a Literal node at the given position.
func NewLiteral(pos Position, value interface{}) *Literal {
	return &Literal{base{pos}, value}
}

// DocAccessor reads a path out of the document under evaluation (doc/...).
type DocAccessor struct {
	base
	Path Path
}

// Kind implements [Node].
func (*DocAccessor) Kind() Kind { return KindDocAccessor }

// NewDocAccessor constructs a DocAccessor node.
func NewDocAccessor(pos Position, path Path) *DocAccessor {
	return &DocAccessor{base{pos}, path}
}

// BindingAccessor reads a path relative to a quantifier or let binding
// (e.g. u/role where u is bound by an enclosing forall). BindingNS is
// populated by scope resolution and names the binding this accessor
// resolves against; it is empty until resolution runs.
type BindingAccessor struct {
	base
	Namespace string
	Path      Path
	BindingNS string
}

// Kind implements [Node].
func (*BindingAccessor) Kind() Kind { return KindBindingAccessor }

// NewBindingAccessor constructs a BindingAccessor node prior to scope resolution.
func NewBindingAccessor(pos Position, namespace string, path Path) *BindingAccessor {
	return &BindingAccessor{base{pos}, namespace, path, ""}
}

// SelfAccessor reads a path out of the let/self scope (self/...).
type SelfAccessor struct {
	base
	Path Path
}

// Kind implements [Node].
func (*SelfAccessor) Kind() Kind { return KindSelfAccessor }

// NewSelfAccessor constructs a SelfAccessor node.
func NewSelfAccessor(pos Position, path Path) *SelfAccessor {
	return &SelfAccessor{base{pos}, path}
}

// ParamAccessor reads a named parameter bound at policy-reference time (param/...).
type ParamAccessor struct {
	base
	Name string
}

// Kind implements [Node].
func (*ParamAccessor) Kind() Kind { return KindParamAccessor }

// NewParamAccessor constructs a ParamAccessor node.
func NewParamAccessor(pos Position, name string) *ParamAccessor {
	return &ParamAccessor{base{pos}, name}
}

// EventAccessor reads a path out of the triggering event context (event/...).
type EventAccessor struct {
	base
	Path Path
}

// Kind implements [Node].
func (*EventAccessor) Kind() Kind { return KindEventAccessor }

// NewEventAccessor constructs an EventAccessor node.
func NewEventAccessor(pos Position, path Path) *EventAccessor {
	return &EventAccessor{base{pos}, path}
}

// LiteralWrapper bypasses accessor classification for its inner value,
// used to compare against a raw value that would otherwise look like a
// namespaced accessor (e.g. the string "doc/role" as data, not a path).
type LiteralWrapper struct {
	base
	Value interface{}
}

// Kind implements [Node].
func (*LiteralWrapper) Kind() Kind { return KindLiteralWrapper }

// NewLiteralWrapper constructs a LiteralWrapper node.
func NewLiteralWrapper(pos Position, value interface{}) *LiteralWrapper {
	return &LiteralWrapper{base{pos}, value}
}

// FunctionCall applies a registered operator to its children, e.g.
// [:= doc/role "admin"] or [:and a b c].
type FunctionCall struct {
	base
	Op       string
	Children []Node
}

// Kind implements [Node].
func (*FunctionCall) Kind() Kind { return KindFunctionCall }

// NewFunctionCall constructs a FunctionCall node.
func NewFunctionCall(pos Position, op string, children []Node) *FunctionCall {
	return &FunctionCall{base{pos}, op, children}
}

// Binding describes the variable introduced by a quantifier: its name,
// the namespace the collection expression targets (doc, binding, etc.),
// the collection path itself, and an optional where filter restricting
// which elements the quantifier body evaluates over.
type Binding struct {
	Name       string
	Collection Node // typically a DocAccessor/BindingAccessor resolving to an iterable
	Where      Node // optional filter, nil if absent
}

// Quantifier is a forall/exists node binding an element name over a
// collection and evaluating a body per element.
type Quantifier struct {
	base
	QuantKind string // "forall" | "exists"
	Binding   Binding
	Body      Node
}

// Kind implements [Node].
func (*Quantifier) Kind() Kind { return KindQuantifier }

// NewQuantifier constructs a Quantifier node.
func NewQuantifier(pos Position, quantKind string, binding Binding, body Node) *Quantifier {
	return &Quantifier{base{pos}, quantKind, binding, body}
}

// ValueFn is a scalar-producing function over a quantifier-shaped binding,
// e.g. fn/count over a filtered collection.
type ValueFn struct {
	base
	Name    string
	Binding Binding
}

// Kind implements [Node].
func (*ValueFn) Kind() Kind { return KindValueFn }

// NewValueFn constructs a ValueFn node.
func NewValueFn(pos Position, name string, binding Binding) *ValueFn {
	return &ValueFn{base{pos}, name, binding}
}

// LetBindingPair is one (name, expression) pair of a let form. Later
// pairs in the same LetBinding may reference earlier ones via self/name.
type LetBindingPair struct {
	Name string
	Expr Node
}

// LetBinding evaluates its Bindings left to right, each extending scope
// for the next, then evaluates Body in the resulting scope.
type LetBinding struct {
	base
	Bindings []LetBindingPair
	Body     Node
}

// Kind implements [Node].
func (*LetBinding) Kind() Kind { return KindLetBinding }

// NewLetBinding constructs a LetBinding node.
func NewLetBinding(pos Position, bindings []LetBindingPair, body Node) *LetBinding {
	return &LetBinding{base{pos}, bindings, body}
}

// PolicyReference invokes a named policy in a registered module,
// optionally overriding its declared parameters.
type PolicyReference struct {
	base
	Namespace string
	Name      string
	Params    map[string]Node // nil if the reference supplied no parameter map
}

// Kind implements [Node].
func (*PolicyReference) Kind() Kind { return KindPolicyReference }

// NewPolicyReference constructs a PolicyReference node.
func NewPolicyReference(pos Position, namespace, name string, params map[string]Node) *PolicyReference {
	return &PolicyReference{base{pos}, namespace, name, params}
}

// ExtractDocKeys returns the set of document paths mentioned anywhere in
// the AST rooted at n, used for document-projection and schema checks.
func ExtractDocKeys(n Node) []Path {
	seen := map[string]Path{}
	var walk func(Node)
	walk = func(n Node) {
		if n == nil {
			return
		}
		switch t := n.(type) {
		case *DocAccessor:
			seen[t.Path.String()] = t.Path
		case *FunctionCall:
			for _, c := range t.Children {
				walk(c)
			}
		case *Quantifier:
			walk(t.Binding.Collection)
			walk(t.Binding.Where)
			walk(t.Body)
		case *ValueFn:
			walk(t.Binding.Collection)
			walk(t.Binding.Where)
		case *LetBinding:
			for _, b := range t.Bindings {
				walk(b.Expr)
			}
			walk(t.Body)
		case *PolicyReference:
			for _, v := range t.Params {
				walk(v)
			}
		}
	}
	walk(n)
	out := make([]Path, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	return out
}
