//
//  Copyright © Manetu Inc. All rights reserved.
//

package polix

import (
	"github.com/manetu/polix/internal/config"
	"github.com/manetu/polix/pkg/evaluator"
	"github.com/manetu/polix/pkg/operator"
)

// engineConfig holds the configuration assembled by [Option] functions
// before [New] builds the handle.
type engineConfig struct {
	ops           *operator.Registry
	cacheCapacity int
	native        evaluator.NativeCompiler
	forcedTier    *evaluator.Tier
}

// Option is a functional option for configuring [New]'s [Engine].
//
// Mirrors the teacher's pkg/core/options functional-options pattern:
// options are applied left to right over a config built from
// [internal/config] defaults.
type Option func(*engineConfig)

// WithOperatorRegistry supplies a pre-populated operator registry
// (built-ins plus any custom operators) instead of [operator.New]'s
// defaults.
func WithOperatorRegistry(ops *operator.Registry) Option {
	return func(c *engineConfig) { c.ops = ops }
}

// WithCacheCapacity overrides the compiled-policy cache capacity
// (default from [config.CacheCapacityValue]).
func WithCacheCapacity(n int) Option {
	return func(c *engineConfig) { c.cacheCapacity = n }
}

// WithNativeCompiler installs a T3 native-codegen backend. Without this
// option, compilation never attempts T3 and falls through to T2 for
// constraint-sets that would otherwise be T3-eligible.
func WithNativeCompiler(nc evaluator.NativeCompiler) Option {
	return func(c *engineConfig) { c.native = nc }
}

// WithForcedTier pins every [Engine.Compile] call to the given tier,
// bypassing the classifier. Mirrors [evaluator.Options.ForcedTier].
func WithForcedTier(t evaluator.Tier) Option {
	return func(c *engineConfig) { c.forcedTier = &t }
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		cacheCapacity: config.CacheCapacityValue(),
	}
}
