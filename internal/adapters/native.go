//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package adapters provides the cross-platform adapters named by spec
// component C9: the concrete container backing the compiled-policy cache
// (see [github.com/manetu/polix/pkg/evaluator/cache] for the cache
// itself, built on hashicorp/golang-lru) and an optional hook for
// emitting native-compiled evaluators (T3).
//
// This build ships no native codegen backend — NullNativeCompiler always
// declines, and [evaluator.Compile] falls through to T2 whenever native
// compilation fails, per spec.md §4.8's documented fallback behavior.
package adapters

import (
	"github.com/manetu/polix/pkg/evaluator"
	"github.com/manetu/polix/pkg/residual"
)

// NullNativeCompiler implements [evaluator.NativeCompiler] by always
// declining. It exists so callers can wire a NativeCompiler into
// [evaluator.Options] unconditionally and let real native backends be
// swapped in later without touching call sites.
type NullNativeCompiler struct{}

// Compile always returns an error, signaling the caller to fall back to T2.
func (NullNativeCompiler) Compile(cs *residual.Residual) (evaluator.CompiledPolicy, error) {
	return nil, errNoNativeBackend
}

var errNoNativeBackend = nativeError("no native codegen backend available on this platform")

type nativeError string

func (e nativeError) Error() string { return string(e) }
