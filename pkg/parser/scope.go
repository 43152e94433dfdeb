//
//  Copyright © Manetu Inc. All rights reserved.
//

package parser

import "github.com/manetu/polix/pkg/ast"

// ResolveScopes walks root and, for every [ast.BindingAccessor] whose
// Namespace names a variable bound by an enclosing quantifier or let,
// sets BindingNS to that binding's declared name. Accessors naming no
// enclosing binding are left with BindingNS empty; [Unbound] reports
// those so callers can reject a policy with a dangling reference before
// evaluation.
func ResolveScopes(root ast.Node) {
	resolve(root, nil)
}

// Unbound returns every [ast.BindingAccessor] in root whose Namespace
// does not resolve to any enclosing quantifier/let binding.
func Unbound(root ast.Node) []*ast.BindingAccessor {
	var out []*ast.BindingAccessor
	var walk func(ast.Node, []string)
	walk = func(n ast.Node, scope []string) {
		switch t := n.(type) {
		case nil:
			return
		case *ast.BindingAccessor:
			if !contains(scope, t.Namespace) {
				out = append(out, t)
			}
		case *ast.FunctionCall:
			for _, c := range t.Children {
				walk(c, scope)
			}
		case *ast.Quantifier:
			walk(t.Binding.Collection, scope)
			inner := append(append([]string{}, scope...), t.Binding.Name)
			walk(t.Binding.Where, inner)
			walk(t.Body, inner)
		case *ast.ValueFn:
			walk(t.Binding.Collection, scope)
			inner := append(append([]string{}, scope...), t.Binding.Name)
			walk(t.Binding.Where, inner)
		case *ast.LetBinding:
			names := make([]string, 0, len(t.Bindings))
			for _, b := range t.Bindings {
				walk(b.Expr, append(append([]string{}, scope...), names...))
				names = append(names, b.Name)
			}
			walk(t.Body, append(append([]string{}, scope...), names...))
		case *ast.PolicyReference:
			for _, v := range t.Params {
				walk(v, scope)
			}
		}
	}
	walk(root, nil)
	return out
}

func contains(scope []string, name string) bool {
	for _, s := range scope {
		if s == name {
			return true
		}
	}
	return false
}

func resolve(n ast.Node, scope []string) {
	switch t := n.(type) {
	case nil:
		return
	case *ast.BindingAccessor:
		if contains(scope, t.Namespace) {
			t.BindingNS = t.Namespace
		}
	case *ast.FunctionCall:
		for _, c := range t.Children {
			resolve(c, scope)
		}
	case *ast.Quantifier:
		resolve(t.Binding.Collection, scope)
		inner := append(append([]string{}, scope...), t.Binding.Name)
		resolve(t.Binding.Where, inner)
		resolve(t.Body, inner)
	case *ast.ValueFn:
		resolve(t.Binding.Collection, scope)
		inner := append(append([]string{}, scope...), t.Binding.Name)
		resolve(t.Binding.Where, inner)
	case *ast.LetBinding:
		names := make([]string, 0, len(t.Bindings))
		for _, b := range t.Bindings {
			resolve(b.Expr, append(append([]string{}, scope...), names...))
			names = append(names, b.Name)
		}
		resolve(t.Body, append(append([]string{}, scope...), names...))
	case *ast.PolicyReference:
		for _, v := range t.Params {
			resolve(v, scope)
		}
	}
}
