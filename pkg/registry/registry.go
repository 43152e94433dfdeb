//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package registry implements the module registry (spec component C4):
// namespaced storage for policy modules and aliases, with a monotonic
// version counter bumped on every registration. The compile-cache key
// and the T1 evaluator guard read the operator registry's version
// ([operator.Registry.Version]), not this one, so a module change does
// not trip a T1 guard.
//
// Loading a set of module definitions with cycle detection and
// topological initialization is handled by the sibling
// [github.com/manetu/polix/pkg/registry/loader] package, which builds a
// Registry via [New] and [Registry.RegisterModule].
package registry

import (
	"fmt"
	"sync"

	"github.com/manetu/polix/pkg/ast"
	"github.com/mohae/deepcopy"
)

// Reserved built-in namespaces. Registering a module under any of these
// names is an error.
const (
	NsDoc   = "doc"
	NsSelf  = "self"
	NsParam = "param"
	NsEvent = "event"
	NsFn    = "fn"
)

func isReserved(ns string) bool {
	switch ns {
	case NsDoc, NsSelf, NsParam, NsEvent, NsFn:
		return true
	default:
		return false
	}
}

// ParamSpec describes one declared parameter of a parameterized policy.
type ParamSpec struct {
	Default    interface{}
	HasDefault bool
}

// PolicyDef is a policy definition: its body expression plus optional
// parameter specs and description. Bare-expression policies (no params,
// no description) still populate Expr with Params/Description zero.
type PolicyDef struct {
	Expr        ast.Node
	Params      map[string]ParamSpec
	Description string
}

// Module is a namespaced collection of policy definitions plus the
// namespaces it imports (for dependency/cycle validation during load).
type Module struct {
	Namespace string
	Imports   []string
	Policies  map[string]PolicyDef
}

// Registry is the process-wide or handle-scoped store of modules and
// aliases. Safe for concurrent use: mutation methods take a write lock,
// all reads take a read lock.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*Module
	aliases map[string]string
	version uint64
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		modules: make(map[string]*Module),
		aliases: make(map[string]string),
	}
}

// RegisterModule inserts m under namespace ns, incrementing the registry
// version. Returns an error if ns is a reserved built-in namespace.
func (r *Registry) RegisterModule(ns string, m *Module) error {
	if isReserved(ns) {
		return fmt.Errorf("cannot register module under reserved namespace %q", ns)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[ns] = m
	r.version++
	return nil
}

// RegisterAlias points alias at an existing module namespace target.
// Returns an error if target is not a registered module.
func (r *Registry) RegisterAlias(alias, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[target]; !ok {
		return fmt.Errorf("alias %q targets unknown module %q", alias, target)
	}
	r.aliases[alias] = target
	r.version++
	return nil
}

// UnregisterModule removes ns (and any alias pointing at it becomes
// dangling — callers are responsible for keeping aliases consistent).
func (r *Registry) UnregisterModule(ns string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modules, ns)
	r.version++
}

// ResolveNamespace returns the module registered under ns, following one
// level of alias indirection if ns is an alias.
func (r *Registry) ResolveNamespace(ns string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if target, ok := r.aliases[ns]; ok {
		ns = target
	}
	m, ok := r.modules[ns]
	return m, ok
}

// ResolvePolicy resolves a policy by (namespace, name), following aliases.
func (r *Registry) ResolvePolicy(ns, name string) (PolicyDef, bool) {
	m, ok := r.ResolveNamespace(ns)
	if !ok {
		return PolicyDef{}, false
	}
	p, ok := m.Policies[name]
	return p, ok
}

// PolicyInfo is a lightweight summary of a registered policy, used by
// introspection APIs ([Registry.AllPolicies], [Registry.ParameterizedPolicies]).
type PolicyInfo struct {
	Namespace   string
	Name        string
	Description string
	Params      []string
}

// AllPolicies returns summaries for every policy across every registered
// module (aliases are not separately enumerated).
func (r *Registry) AllPolicies() []PolicyInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PolicyInfo
	for ns, m := range r.modules {
		for name, def := range m.Policies {
			info := PolicyInfo{Namespace: ns, Name: name, Description: def.Description}
			for p := range def.Params {
				info.Params = append(info.Params, p)
			}
			out = append(out, info)
		}
	}
	return out
}

// ParameterizedPolicies returns "namespace/name" for every policy
// declaring one or more parameters.
func (r *Registry) ParameterizedPolicies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for ns, m := range r.modules {
		for name, def := range m.Policies {
			if len(def.Params) > 0 {
				out = append(out, ns+"/"+name)
			}
		}
	}
	return out
}

// ParamDefaults returns the default value map for a policy's declared
// parameters (only those with a default set).
func (r *Registry) ParamDefaults(ns, name string) map[string]interface{} {
	def, ok := r.ResolvePolicy(ns, name)
	if !ok {
		return nil
	}
	out := make(map[string]interface{})
	for k, spec := range def.Params {
		if spec.HasDefault {
			out[k] = spec.Default
		}
	}
	return out
}

// ModuleNamespaces returns every registered module namespace.
func (r *Registry) ModuleNamespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.modules))
	for ns := range r.modules {
		out = append(out, ns)
	}
	return out
}

// AliasNamespaces returns every registered alias namespace.
func (r *Registry) AliasNamespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.aliases))
	for ns := range r.aliases {
		out = append(out, ns)
	}
	return out
}

// Version returns the current registry version, bumped on every mutation.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Clone returns an independent deep copy of the registry: its own lock,
// its own version counter, and deep-copied module/policy data so that
// mutating the clone (e.g. registering a test-only module) never
// disturbs the source registry. Mirrors the teacher's
// Compiler.Clone-over-deepcopy pattern for giving callers an isolated
// configuration snapshot.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := New()
	out.version = r.version
	for ns, m := range r.modules {
		out.modules[ns] = deepcopy.Copy(m).(*Module)
	}
	for alias, target := range r.aliases {
		out.aliases[alias] = target
	}
	return out
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide default registry, built empty on
// first use. Applications that need concurrent mutation with isolated
// testing should prefer their own [New] handle over this default.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
	})
	return defaultReg
}
