//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package eval implements the "polixc eval" subcommand: compile and
// evaluate a named policy, loaded from a directory of module YAML
// files, against a JSON document, and report the resulting residual's
// classification. Mirrors the teacher's test/decisions subcommand shape
// (load → evaluate → report).
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/manetu/polix/pkg/evaluator"
	"github.com/manetu/polix/pkg/moduleyaml"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/polix"
	"github.com/manetu/polix/pkg/registry/loader"
)

// Execute runs the eval subcommand: polixc eval <moduledir> <ns/policy> <document.json>.
func Execute(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) != 3 {
		return fmt.Errorf("usage: polixc eval <moduledir> <namespace/policy> <document.json>")
	}
	moduleDir, ref, docPath := args[0], args[1], args[2]

	ns, name, ok := strings.Cut(ref, "/")
	if !ok {
		return fmt.Errorf("policy reference must be namespace/name, got %q", ref)
	}

	sources, err := loadSources(moduleDir)
	if err != nil {
		return err
	}

	ops := operator.New()
	reg, err := polix.LoadModules(polix.NewRegistry(), ops, sources)
	if err != nil {
		return fmt.Errorf("loading modules: %w", err)
	}

	def, ok := reg.ResolvePolicy(ns, name)
	if !ok {
		return fmt.Errorf("unknown policy %s/%s", ns, name)
	}

	docData, err := os.ReadFile(docPath) // #nosec G304 -- CLI tool intentionally reads user-provided paths
	if err != nil {
		return fmt.Errorf("reading %s: %w", docPath, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(docData, &doc); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", docPath, err)
	}

	cp, err := polix.Compile(ops, reg, def.Expr, evaluator.Options{})
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	r, err := polix.Evaluate(cp, doc, nil)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	kind := polix.Classify(r)
	fmt.Printf("tier=%s result=%s\n", cp.Tier(), kind)
	if !polix.IsSatisfied(r) && !polix.IsContradicted(r) {
		for _, kv := range polix.ToConstraints(r) {
			fmt.Printf("  %s %s %v\n", kv.Path, kv.Atom.Constraint.Op, kv.Atom.Constraint.Value)
		}
	}
	return nil
}

func loadSources(dir string) ([]loader.Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var sources []loader.Source
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name())) // #nosec G304
		if err != nil {
			return nil, err
		}
		f, err := moduleyaml.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		sources = append(sources, loader.Source{File: f})
	}
	return sources, nil
}
