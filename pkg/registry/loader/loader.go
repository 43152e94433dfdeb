//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package loader builds a [registry.Registry] from a batch of module
// definitions, validating namespace/import/policy shape, detecting
// circular imports via depth-first three-colour traversal, and
// registering modules in topological (dependency-first) order. A load
// either commits every module or none: validation runs to completion
// against a scratch registry before anything is handed back to the
// caller, so a caller's existing registry is never left partially
// updated by a failed load.
package loader

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/manetu/polix/pkg/moduleyaml"
	"github.com/manetu/polix/pkg/parser"
	"github.com/manetu/polix/pkg/registry"
)

// ErrorKind classifies a load failure.
type ErrorKind string

// Load error kinds.
const (
	ErrInvalidNamespace  ErrorKind = "invalid-namespace"
	ErrInvalidImports    ErrorKind = "invalid-imports"
	ErrInvalidPolicies   ErrorKind = "invalid-policies"
	ErrMissingImports    ErrorKind = "missing-imports"
	ErrDuplicateNS       ErrorKind = "duplicate-namespaces"
	ErrCircularImport    ErrorKind = "circular-import"
)

// Error is a structured load error.
type Error struct {
	Kind   ErrorKind
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Detail) }

func newErr(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Source is one decoded module file to load; its namespace is the
// file's own moduleyaml.File.Namespace.
type Source struct {
	File *moduleyaml.File
}

// LoadModules validates and parses every source, then — only if the
// whole batch validates — registers each module into a new registry
// derived from base (base itself is never mutated) in dependency-first
// order. Pass registry.New() as base for a from-scratch load, or an
// existing handle's [registry.Registry.Clone] to add modules to a
// running registry without risking partial mutation on failure.
func LoadModules(base *registry.Registry, ops *parser.Parser, sources []Source) (*registry.Registry, error) {
	if err := validateShapes(sources); err != nil {
		return nil, err
	}

	byNS := make(map[string]*moduleyaml.File, len(sources))
	for _, s := range sources {
		if _, dup := byNS[s.File.Namespace]; dup {
			return nil, newErr(ErrDuplicateNS, "namespace %q defined more than once in this load", s.File.Namespace)
		}
		byNS[s.File.Namespace] = s.File
	}

	order, err := topoOrder(base, byNS)
	if err != nil {
		return nil, err
	}

	out := base.Clone()
	for _, ns := range order {
		f := byNS[ns]
		mod, err := buildModule(ops, f)
		if err != nil {
			return nil, err
		}
		if err := out.RegisterModule(ns, mod); err != nil {
			return nil, newErr(ErrInvalidNamespace, "%v", err)
		}
	}
	return out, nil
}

func validateShapes(sources []Source) error {
	var errs error
	for _, s := range sources {
		f := s.File
		if f.Namespace == "" {
			errs = multierr.Append(errs, newErr(ErrInvalidNamespace, "module has an empty namespace"))
			continue
		}
		for _, imp := range f.Imports {
			if imp == "" {
				errs = multierr.Append(errs, newErr(ErrInvalidImports, "module %q declares an empty import", f.Namespace))
			}
		}
		if f.Policies == nil {
			errs = multierr.Append(errs, newErr(ErrInvalidPolicies, "module %q declares no policies", f.Namespace))
		}
	}
	return errs
}

// topoOrder returns the namespaces in byNS ordered so that every
// namespace appears after everything it imports, failing if an import
// is missing from both byNS and base, or if the import graph (restricted
// to byNS, since base is assumed already validated and acyclic) contains
// a cycle.
func topoOrder(base *registry.Registry, byNS map[string]*moduleyaml.File) ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(byNS))
	var order []string
	var path []string

	var visit func(ns string) error
	visit = func(ns string) error {
		switch color[ns] {
		case black:
			return nil
		case gray:
			cycle := append(append([]string{}, path...), ns)
			return newErr(ErrCircularImport, "import cycle: %v", cycle)
		}
		f, ok := byNS[ns]
		if !ok {
			// Not part of this batch; it must already be registered.
			if _, ok := base.ResolveNamespace(ns); !ok {
				return newErr(ErrMissingImports, "namespace %q imports unknown namespace %q", path[len(path)-1], ns)
			}
			color[ns] = black
			return nil
		}
		color[ns] = gray
		path = append(path, ns)
		for _, imp := range f.Imports {
			if err := visit(imp); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[ns] = black
		order = append(order, ns)
		return nil
	}

	// Deterministic traversal order so error messages are reproducible.
	names := make([]string, 0, len(byNS))
	for ns := range byNS {
		names = append(names, ns)
	}
	sortStrings(names)
	for _, ns := range names {
		if err := visit(ns); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func buildModule(p *parser.Parser, f *moduleyaml.File) (*registry.Module, error) {
	mod := &registry.Module{
		Namespace: f.Namespace,
		Imports:   f.Imports,
		Policies:  make(map[string]registry.PolicyDef, len(f.Policies)),
	}
	var errs error
	for name, raw := range f.Policies {
		expr, err := p.ParsePolicy(raw.Expr)
		if err != nil {
			errs = multierr.Append(errs, newErr(ErrInvalidPolicies, "module %q policy %q: %v", f.Namespace, name, err))
			continue
		}
		def := registry.PolicyDef{Expr: expr, Description: raw.Description}
		if len(raw.Params) > 0 {
			def.Params = make(map[string]registry.ParamSpec, len(raw.Params))
			for pname, spec := range raw.Params {
				ps := registry.ParamSpec{HasDefault: spec.HasDefault}
				if spec.HasDefault {
					var v interface{}
					if err := spec.Default.Decode(&v); err != nil {
						errs = multierr.Append(errs, newErr(ErrInvalidPolicies, "module %q policy %q param %q: %v", f.Namespace, name, pname, err))
						continue
					}
					ps.Default = v
				}
				def.Params[pname] = ps
			}
		}
		mod.Policies[name] = def
	}
	if errs != nil {
		return nil, errs
	}
	return mod, nil
}
