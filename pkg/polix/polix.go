//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package polix is the narrow top-level facade over the policy engine,
// mirroring the teacher's pkg/core-over-internal/core split: callers
// needing a single-tenant, batteries-included handle use [Engine];
// callers assembling their own pipeline (e.g. sharing one operator
// registry across several module registries) use the free functions,
// which are thin wrappers over pkg/parser, pkg/registry, pkg/registry/loader,
// pkg/evaluator, and pkg/evaluator/cache.
package polix

import (
	"gopkg.in/yaml.v3"

	"github.com/manetu/polix/internal/logging"
	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/evaluator"
	"github.com/manetu/polix/pkg/evaluator/cache"
	"github.com/manetu/polix/pkg/moduleyaml"
	"github.com/manetu/polix/pkg/negate"
	"github.com/manetu/polix/pkg/normalize"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/parser"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/registry/loader"
	"github.com/manetu/polix/pkg/residual"
)

var logger = logging.GetLogger("polix")

// Engine is a stateful, single-handle policy engine: one operator
// registry, one module registry, and one compiled-policy cache. Safe for
// concurrent use — the registry and cache are each independently
// thread-safe.
type Engine struct {
	ops    *operator.Registry
	reg    *registry.Registry
	parser *parser.Parser
	cache  *cache.Cache
	native evaluator.NativeCompiler
	tier   *evaluator.Tier
}

// New builds an Engine from the given options, defaulting to
// [operator.New]'s built-in operator set, an empty module registry, and
// a cache sized from [internal/config]'s cache.capacity setting.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.ops == nil {
		cfg.ops = operator.New()
	}

	c, err := cache.New(cfg.cacheCapacity)
	if err != nil {
		return nil, err
	}

	return &Engine{
		ops:    cfg.ops,
		reg:    registry.New(),
		parser: parser.New(cfg.ops),
		cache:  c,
		native: cfg.native,
		tier:   cfg.forcedTier,
	}, nil
}

// Operators returns the engine's operator registry, for registering
// custom operators after construction.
func (e *Engine) Operators() *operator.Registry { return e.ops }

// Registry returns the engine's current module registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// ParsePolicy parses and scope-resolves a single policy body (see
// [parser.Parser.ParsePolicy]).
func (e *Engine) ParsePolicy(n *yaml.Node) (ast.Node, error) {
	return e.parser.ParsePolicy(n)
}

// LoadModuleFile decodes raw module YAML and loads it into the engine's
// registry, replacing the registry with the freshly validated result
// only on success (see [loader.LoadModules]'s all-or-nothing guarantee).
func (e *Engine) LoadModuleFile(data []byte) error {
	f, err := moduleyaml.Decode(data)
	if err != nil {
		return err
	}
	next, err := loader.LoadModules(e.reg, e.parser, []loader.Source{{File: f}})
	if err != nil {
		return err
	}
	e.reg = next
	logger.SysDebugf("loaded module namespace=%s policies=%d", f.Namespace, len(f.Policies))
	return nil
}

// LoadModuleFiles decodes and loads several module YAML documents in one
// validated batch.
func (e *Engine) LoadModuleFiles(files [][]byte) error {
	sources := make([]loader.Source, 0, len(files))
	for _, data := range files {
		f, err := moduleyaml.Decode(data)
		if err != nil {
			return err
		}
		sources = append(sources, loader.Source{File: f})
	}
	next, err := loader.LoadModules(e.reg, e.parser, sources)
	if err != nil {
		return err
	}
	e.reg = next
	return nil
}

// NormalizeAndNegate runs the negation-pushdown pass ([negate.Push])
// followed by constraint-set normalization ([normalize.ConstraintSet])
// over root, the sequence [Compile] performs internally for cache-key
// derivation. Exposed separately for callers that want to inspect the
// normalized constraint-set (e.g. a "polixc lint" style dry-run) without
// compiling an evaluator.
func (e *Engine) NormalizeAndNegate(root ast.Node) (*residual.Residual, error) {
	pushed := negate.Push(e.ops, root)
	return normalize.ConstraintSet(e.ops, e.reg, pushed)
}

// Compile compiles root into a [evaluator.CompiledPolicy], using the
// engine's cache keyed by the normalized constraint-set's fingerprint
// together with the operator registry version. Negation pushdown and
// normalization run on every call to derive that key; a cache hit skips
// only [evaluator.Compile] and returns the previously compiled evaluator.
func (e *Engine) Compile(root ast.Node) (evaluator.CompiledPolicy, error) {
	pushed := negate.Push(e.ops, root)
	cs, err := normalize.ConstraintSet(e.ops, e.reg, pushed)
	if err != nil {
		return nil, err
	}
	key := cache.Fingerprint(cs, e.ops.Version())
	return e.cache.CompileCached(key, func() (evaluator.CompiledPolicy, error) {
		return evaluator.Compile(e.ops, e.reg, pushed, evaluator.Options{ForcedTier: e.tier, Native: e.native})
	})
}

// Evaluate compiles (or retrieves from cache) root and evaluates it
// against doc and event in one call.
func (e *Engine) Evaluate(root ast.Node, doc, event interface{}) (*residual.Residual, error) {
	cp, err := e.Compile(root)
	if err != nil {
		return nil, err
	}
	return cp.Evaluate(doc, event)
}

// EvaluatePolicy resolves a registered (namespace, name) policy, compiles
// it, and evaluates it against doc/event.
func (e *Engine) EvaluatePolicy(ns, name string, doc, event interface{}) (*residual.Residual, error) {
	def, ok := e.reg.ResolvePolicy(ns, name)
	if !ok {
		return nil, unknownPolicyError(ns, name)
	}
	return e.Evaluate(def.Expr, doc, event)
}

// CacheStats returns the compiled-policy cache's hit/miss/size snapshot.
func (e *Engine) CacheStats() cache.Stats { return e.cache.Stats() }

// ClearCache empties the compiled-policy cache and resets its stats.
func (e *Engine) ClearCache() { e.cache.Clear() }

// WarmEntry precompiles one policy body ahead of first use.
type WarmEntry struct {
	Root ast.Node
}

// WarmCache precompiles entries into the cache, in order, aborting on
// the first compile error (see [cache.Cache.Warm]).
func (e *Engine) WarmCache(entries []WarmEntry) error {
	warm := make([]cache.WarmEntry, 0, len(entries))
	for _, we := range entries {
		pushed := negate.Push(e.ops, we.Root)
		cs, err := normalize.ConstraintSet(e.ops, e.reg, pushed)
		if err != nil {
			return err
		}
		key := cache.Fingerprint(cs, e.ops.Version())
		root := pushed
		warm = append(warm, cache.WarmEntry{
			Key: key,
			Compile: func() (evaluator.CompiledPolicy, error) {
				return evaluator.Compile(e.ops, e.reg, root, evaluator.Options{ForcedTier: e.tier, Native: e.native})
			},
		})
	}
	return e.cache.Warm(warm)
}
