//
//  Copyright © Manetu Inc. All rights reserved.
//

package parser

import (
	"fmt"

	"github.com/manetu/polix/pkg/ast"
)

// ErrorKind classifies a parse failure. Every kind maps directly to one
// of the surface-syntax error categories the engine's error-handling
// design enumerates for hard parse errors.
type ErrorKind string

// Parse error kinds.
const (
	ErrMalformedPath          ErrorKind = "malformed-path"
	ErrInvalidOperatorHead    ErrorKind = "invalid-operator-head"
	ErrInvalidBinding         ErrorKind = "invalid-binding"
	ErrInvalidWhere           ErrorKind = "invalid-where"
	ErrInvalidLetBindings     ErrorKind = "invalid-let-bindings"
	ErrInvalidValueFnArity    ErrorKind = "invalid-value-fn-arity"
	ErrInvalidPolicyReference ErrorKind = "invalid-policy-reference"
	ErrUnsupportedNode        ErrorKind = "unsupported-node"
)

// Error is a structured parse error carrying its kind, source position,
// and a human-readable detail.
type Error struct {
	Kind   ErrorKind
	Pos    ast.Position
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Detail)
}

func newErr(kind ErrorKind, pos ast.Position, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Pos: pos, Detail: fmt.Sprintf(format, args...)}
}

// Result is the parser's algebraic result type: ok(node) | error(kind,
// position, detail). [Parser.Parse] returns this directly, while
// [Parser.ParsePolicy] returns a plain (ast.Node, error) pair; internal recursive-descent helpers use plain (ast.Node, error) returns
// and propagate the first failure eagerly, which Result.Err surfaces at
// the top level.
type Result struct {
	Node ast.Node
	Err  *Error
}

// OK reports whether parsing succeeded.
func (r Result) OK() bool { return r.Err == nil }
