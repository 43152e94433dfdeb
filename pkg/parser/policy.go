//
//  Copyright © Manetu Inc. All rights reserved.
//

package parser

import (
	"gopkg.in/yaml.v3"

	"github.com/manetu/polix/pkg/ast"
)

// ParsePolicy parses n into an AST, resolves quantifier/let scopes, and
// rejects the policy if any binding accessor is left dangling. It is the
// entry point [github.com/manetu/polix/pkg/registry/loader] uses for
// every policy body found in a module file.
func (p *Parser) ParsePolicy(n *yaml.Node) (ast.Node, error) {
	node, err := p.parseExpr(n)
	if err != nil {
		return nil, err
	}
	ResolveScopes(node)
	if unbound := Unbound(node); len(unbound) > 0 {
		u := unbound[0]
		return nil, newErr(ErrInvalidBinding, u.Pos(), "accessor %q/%s has no enclosing binding", u.Namespace, u.Path)
	}
	return node, nil
}
