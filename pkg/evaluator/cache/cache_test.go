//
//  Copyright © Manetu Inc. All rights reserved.
//

package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/manetu/polix/pkg/ast"
	"github.com/manetu/polix/pkg/evaluator"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/registry"
	"github.com/manetu/polix/pkg/residual"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFingerprintStableAcrossPathOrder(t *testing.T) {
	a := residual.Empty().
		AddConstraint(ast.Path{"age"}, residual.Atom{Constraint: residual.Constraint{Op: ">=", Value: 18.0}}).
		AddConstraint(ast.Path{"role"}, residual.Atom{Constraint: residual.Constraint{Op: "=", Value: "admin"}})
	b := residual.Empty().
		AddConstraint(ast.Path{"role"}, residual.Atom{Constraint: residual.Constraint{Op: "=", Value: "admin"}}).
		AddConstraint(ast.Path{"age"}, residual.Atom{Constraint: residual.Constraint{Op: ">=", Value: 18.0}})
	assert.Equal(t, Fingerprint(a, 1), Fingerprint(b, 1))
}

func TestFingerprintChangesWithRegistryVersion(t *testing.T) {
	r := residual.Empty().AddConstraint(ast.Path{"age"}, residual.Atom{Constraint: residual.Constraint{Op: ">=", Value: 18.0}})
	assert.NotEqual(t, Fingerprint(r, 1), Fingerprint(r, 2))
}

func TestCompileCachedHitsAndMisses(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	calls := 0
	compile := func() (evaluator.CompiledPolicy, error) {
		calls++
		p := ast.NewFunctionCall(ast.Position{}, "=", []ast.Node{
			ast.NewDocAccessor(ast.Position{}, ast.Path{"role"}),
			ast.NewLiteral(ast.Position{}, "admin"),
		})
		return evaluator.Compile(operator.New(), registry.New(), p, evaluator.Options{})
	}

	_, err = c.CompileCached("k1", compile)
	require.NoError(t, err)
	_, err = c.CompileCached("k1", compile)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 1, stats.Size)
}

func TestCacheClearResetsStats(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	c.Put("k", nil)
	c.Get("k")
	c.Clear()
	stats := c.Stats()
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)
	assert.Equal(t, 0, stats.Size)
}

func TestCacheWarm(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	err = c.Warm([]WarmEntry{
		{Key: "a", Compile: func() (evaluator.CompiledPolicy, error) { return nil, nil }},
		{Key: "b", Compile: func() (evaluator.CompiledPolicy, error) { return nil, nil }},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Stats().Size)
}

func TestCacheConcurrentAccessIsSafe(t *testing.T) {
	c, err := New(16)
	require.NoError(t, err)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = c.CompileCached("shared-key", func() (evaluator.CompiledPolicy, error) {
				return nil, nil
			})
		}(i)
	}
	wg.Wait()
}
