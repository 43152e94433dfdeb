//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package parse implements the "polixc parse" subcommand: parse a single
// YAML-encoded policy expression and print its AST shape, as a debugging
// aid for policy authors.
package parse

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/polix"
)

// Execute runs the parse subcommand.
func Execute(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: polixc parse <file>")
	}

	data, err := os.ReadFile(path) // #nosec G304 -- CLI tool intentionally reads user-provided paths
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if len(doc.Content) != 1 {
		return fmt.Errorf("%s: expected a single top-level value", path)
	}

	root, err := polix.ParsePolicy(operator.New(), doc.Content[0])
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	printNode(root, 0)
	return nil
}

func printNode(n ast.Node, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch t := n.(type) {
	case *ast.FunctionCall:
		fmt.Printf("%s%s %s\n", indent, t.Kind(), t.Op)
		for _, c := range t.Children {
			printNode(c, depth+1)
		}
	case *ast.Quantifier:
		fmt.Printf("%s%s %s over %s\n", indent, t.Kind(), t.QuantKind, t.Binding.Name)
		printNode(t.Binding.Collection, depth+1)
		if t.Binding.Where != nil {
			fmt.Printf("%swhere:\n", indent)
			printNode(t.Binding.Where, depth+1)
		}
		printNode(t.Body, depth+1)
	case *ast.LetBinding:
		fmt.Printf("%s%s\n", indent, t.Kind())
		for _, b := range t.Bindings {
			fmt.Printf("%s  %s =\n", indent, b.Name)
			printNode(b.Expr, depth+2)
		}
		printNode(t.Body, depth+1)
	case *ast.PolicyReference:
		fmt.Printf("%s%s %s/%s\n", indent, t.Kind(), t.Namespace, t.Name)
	case *ast.DocAccessor:
		fmt.Printf("%sdoc/%s\n", indent, t.Path)
	case *ast.EventAccessor:
		fmt.Printf("%sevent/%s\n", indent, t.Path)
	case *ast.SelfAccessor:
		fmt.Printf("%sself/%s\n", indent, t.Path)
	case *ast.BindingAccessor:
		fmt.Printf("%s%s/%s\n", indent, t.Namespace, t.Path)
	case *ast.ParamAccessor:
		fmt.Printf("%sparam/%s\n", indent, t.Name)
	case *ast.Literal:
		fmt.Printf("%sliteral %v\n", indent, t.Value)
	default:
		fmt.Printf("%s%s\n", indent, n.Kind())
	}
}
