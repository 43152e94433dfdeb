//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package moduleyaml decodes a policy module's YAML file format into a
// lightweight intermediate representation that retains *yaml.Node for
// every policy body, so [github.com/manetu/polix/pkg/parser] can still
// report accurate source positions. Converting that intermediate form
// into a [github.com/manetu/polix/pkg/registry.Module] is the job of
// [github.com/manetu/polix/pkg/registry/loader], which owns
// cross-module validation (cycles, missing imports) that a single
// file's decoder cannot see.
package moduleyaml

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RawParamSpec is a policy parameter declaration prior to AST parsing of
// its default value.
type RawParamSpec struct {
	Default    *yaml.Node
	HasDefault bool
}

// RawPolicy is one module-file policy entry prior to parsing. Expr holds
// either form the file format allows: a bare expression value (the
// shorthand used when a policy declares no params or description), or
// the expr field of the long form.
type RawPolicy struct {
	Expr        *yaml.Node
	Params      map[string]RawParamSpec
	Description string
}

// File is a decoded module file: its declared namespace, the namespaces
// it imports, and its policies keyed by name.
type File struct {
	Namespace string
	Imports   []string
	Policies  map[string]RawPolicy
}

type fileSyntax struct {
	Namespace string              `yaml:"namespace"`
	Imports   []string            `yaml:"imports"`
	Policies  map[string]yaml.Node `yaml:"policies"`
}

type longFormPolicy struct {
	Expr        yaml.Node                  `yaml:"expr"`
	Description string                     `yaml:"description"`
	Params      map[string]paramSyntax     `yaml:"params"`
}

type paramSyntax struct {
	Default yaml.Node `yaml:"default"`
}

// Decode parses a module file's raw bytes.
func Decode(data []byte) (*File, error) {
	var fs fileSyntax
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("moduleyaml: %w", err)
	}
	if fs.Namespace == "" {
		return nil, fmt.Errorf("moduleyaml: module file missing required \"namespace\"")
	}
	f := &File{
		Namespace: fs.Namespace,
		Imports:   fs.Imports,
		Policies:  make(map[string]RawPolicy, len(fs.Policies)),
	}
	for name, raw := range fs.Policies {
		raw := raw
		policy, err := decodePolicy(&raw)
		if err != nil {
			return nil, fmt.Errorf("moduleyaml: policy %q: %w", name, err)
		}
		f.Policies[name] = policy
	}
	return f, nil
}

// decodePolicy distinguishes the long form (a mapping with an "expr"
// key) from the bare-expression shorthand (any other node, taken
// directly as the policy body).
func decodePolicy(n *yaml.Node) (RawPolicy, error) {
	if n.Kind == yaml.MappingNode && hasKey(n, "expr") {
		var lf longFormPolicy
		if err := n.Decode(&lf); err != nil {
			return RawPolicy{}, err
		}
		expr := lf.Expr
		rp := RawPolicy{
			Expr:        &expr,
			Description: lf.Description,
		}
		if len(lf.Params) > 0 {
			rp.Params = make(map[string]RawParamSpec, len(lf.Params))
			for pname, spec := range lf.Params {
				spec := spec
				hasDefault := spec.Default.Kind != 0
				ps := RawParamSpec{HasDefault: hasDefault}
				if hasDefault {
					d := spec.Default
					ps.Default = &d
				}
				rp.Params[pname] = ps
			}
		}
		return rp, nil
	}
	expr := *n
	return RawPolicy{Expr: &expr}, nil
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}
