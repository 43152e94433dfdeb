//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package cachestats implements the "polixc cache-stats" subcommand:
// load a directory of policy modules, warm the compiled-policy cache
// with every declared policy, and print hit/miss/size stats. Diagnostic
// parity with the teacher's serve subcommand exposing runtime
// introspection, without standing up a long-running service.
package cachestats

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/polix"
)

// Execute runs the cache-stats subcommand.
func Execute(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("usage: polixc cache-stats <moduledir>")
	}

	ops := operator.New()
	e, err := polix.New(polix.WithOperatorRegistry(ops))
	if err != nil {
		return err
	}

	n, err := e.LoadModuleDir(dir)
	if err != nil {
		return fmt.Errorf("loading modules: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no .yml/.yaml module files found in %s", dir)
	}

	var warm []polix.WarmEntry
	for _, info := range e.Registry().AllPolicies() {
		def, ok := e.Registry().ResolvePolicy(info.Namespace, info.Name)
		if !ok {
			continue
		}
		warm = append(warm, polix.WarmEntry{Root: def.Expr})
	}
	if err := e.WarmCache(warm); err != nil {
		return fmt.Errorf("warming cache: %w", err)
	}

	stats := e.CacheStats()
	fmt.Printf("size=%d hits=%d misses=%d hit_rate=%.2f\n", stats.Size, stats.Hits, stats.Misses, stats.HitRate)
	return nil
}
