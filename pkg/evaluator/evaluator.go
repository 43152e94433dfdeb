//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package evaluator implements the multi-tier compiled evaluator (spec
// component C7): it turns a constraint-set (or, for policies an
// analyzer can't reduce to one, the original AST) into a
// [CompiledPolicy] exposing Evaluate(document) → residual.
//
// Four tiers exist, in increasing order of how much has been
// precomputed: T0 falls straight back to
// [github.com/manetu/polix/pkg/unify] against the raw AST and is always
// applicable; T1 wraps a T2 evaluator with an operator-registry version
// guard so runtime operator registration can't silently serve a stale
// compiled closure; T2 precomputes, per constraint-set path, the open
// residual and a conflict-maker closure per constraint so evaluation is
// a single document walk with O(1) per-constraint tests; T3 is an
// optional native-codegen path a platform adapter can register, falling
// back to T2 on emission failure. [Compile] runs the tier-selection
// analyzer and dispatches accordingly, or honors [Options.ForcedTier]
// when the caller requires a specific tier.
package evaluator

import (
	"fmt"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/normalize"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/residual"
	"github.com/manetu/polix/pkg/unify"
)

// Tier labels a compilation strategy.
type Tier int

// Compilation tiers, in order of precomputation depth.
const (
	T0 Tier = iota
	T1
	T2
	T3
)

func (t Tier) String() string {
	switch t {
	case T0:
		return "T0"
	case T1:
		return "T1"
	case T2:
		return "T2"
	case T3:
		return "T3"
	default:
		return "unknown"
	}
}

// CompiledPolicy is an immutable compiled evaluator for a single policy
// body: Evaluate never mutates, and may be called concurrently.
type CompiledPolicy interface {
	Evaluate(doc, event interface{}) (*residual.Residual, error)
	Tier() Tier
	RegistryVersion() uint64
}

// NativeCompiler is the optional T3 hook a platform adapter registers
// (see github.com/manetu/polix/internal/adapters). Compile is expected
// to return an error — rather than panic — for any constraint-set it
// cannot emit native code for; Compile treats that as an ordinary
// fallback to T2, not a hard failure.
type NativeCompiler interface {
	Compile(cs *residual.Residual) (CompiledPolicy, error)
}

// Options configures [Compile].
type Options struct {
	// ForcedTier, if non-nil, requires Compile to use exactly this tier,
	// returning an error if the tier's prerequisites don't hold (e.g.
	// forcing T3 with no NativeCompiler registered).
	ForcedTier *Tier
	// Native enables attempting T3 when the analyzer selects it and a
	// NativeCompiler is available. Ignored if Native is nil.
	Native NativeCompiler
}

// Compile selects a tier for root (forcing it if opts.ForcedTier is
// set) and returns the corresponding [CompiledPolicy].
func Compile(ops *operator.Registry, reg *registry.Registry, root ast.Node, opts Options) (CompiledPolicy, error) {
	if opts.ForcedTier != nil {
		return compileForced(ops, reg, root, *opts.ForcedTier, opts)
	}

	cs, err := normalize.ConstraintSet(ops, reg, root)
	if err != nil {
		return nil, err
	}
	class := classify(cs)

	switch class {
	case classComplex:
		return newT0(ops, reg, root), nil
	case classCustomOps:
		return newT1(ops, reg, root, cs), nil
	default: // classSimple
		if opts.Native != nil {
			if cp, err := opts.Native.Compile(cs); err == nil {
				return cp, nil
			}
			// Native emission failed; fall back to T2 per spec.
		}
		return newT2(ops, cs, ops.Version()), nil
	}
}

func compileForced(ops *operator.Registry, reg *registry.Registry, root ast.Node, tier Tier, opts Options) (CompiledPolicy, error) {
	switch tier {
	case T0:
		return newT0(ops, reg, root), nil
	case T1:
		cs, err := normalize.ConstraintSet(ops, reg, root)
		if err != nil {
			return nil, err
		}
		return newT1(ops, reg, root, cs), nil
	case T2:
		cs, err := normalize.ConstraintSet(ops, reg, root)
		if err != nil {
			return nil, err
		}
		if classify(cs) == classComplex {
			return nil, fmt.Errorf("evaluator: cannot force T2 on a constraint-set containing cross-key or complex entries")
		}
		return newT2(ops, cs, ops.Version()), nil
	case T3:
		if opts.Native == nil {
			return nil, fmt.Errorf("evaluator: cannot force T3 with no native compiler registered")
		}
		cs, err := normalize.ConstraintSet(ops, reg, root)
		if err != nil {
			return nil, err
		}
		return opts.Native.Compile(cs)
	default:
		return nil, fmt.Errorf("evaluator: unknown tier %v", tier)
	}
}

type class int

const (
	classSimple class = iota
	classCustomOps
	classComplex
)

// classify implements the tier-selection analyzer: a constraint-set
// with any cross-key relation or complex marker forces T0 (it can't be
// represented as independent per-path templates at all); one using only
// built-in operators is simple (T2-eligible); any other registered
// operator raises it to T1 so a runtime re-registration is still
// observed via the version guard.
func classify(cs *residual.Residual) class {
	if cs == nil {
		return classSimple
	}
	if len(cs.Complexes()) > 0 || len(cs.CrossKey()) > 0 {
		return classComplex
	}
	for _, path := range cs.Paths() {
		atoms, _ := cs.At(path)
		for _, a := range atoms {
			if !isBuiltinOp(a.Constraint.Op) {
				return classCustomOps
			}
		}
	}
	return classSimple
}

func isBuiltinOp(op string) bool {
	switch op {
	case operator.Eq, operator.Neq, operator.Lt, operator.Lte, operator.Gt, operator.Gte,
		operator.In, operator.NotIn, operator.Matches, operator.NotMatches:
		return true
	default:
		return false
	}
}

// interpret runs the T0 path: unification directly against root.
func interpret(ops *operator.Registry, reg *registry.Registry, root ast.Node, doc, event interface{}) (*residual.Residual, error) {
	env := unify.NewEnv(ops, reg, doc, event)
	return unify.Evaluate(env, root)
}
