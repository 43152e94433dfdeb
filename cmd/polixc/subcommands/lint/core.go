//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package lint implements the "polixc lint" subcommand: load every
// policy module YAML file under a directory through the registry
// loader and report structural errors (duplicate namespace, missing
// import, circular import) in a multi-error summary, mirroring the
// teacher's lint subcommand's per-file report style.
package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/manetu/polix/pkg/moduleyaml"
	"github.com/manetu/polix/pkg/operator"
	"github.com/manetu/polix/pkg/polix"
	"github.com/manetu/polix/pkg/registry/loader"
)

// Execute runs the lint subcommand.
func Execute(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return fmt.Errorf("usage: polixc lint <dir>")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	var sources []loader.Source
	fileCount := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yml" && ext != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path) // #nosec G304 -- CLI tool intentionally reads user-provided paths
		if err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			continue
		}
		f, err := moduleyaml.Decode(data)
		if err != nil {
			fmt.Printf("✗ %s: %v\n", path, err)
			continue
		}
		fileCount++
		sources = append(sources, loader.Source{File: f})
	}

	if fileCount == 0 {
		return fmt.Errorf("no .yml/.yaml module files found in %s", dir)
	}

	reg, err := polix.LoadModules(polix.NewRegistry(), operator.New(), sources)
	if err != nil {
		fmt.Printf("✗ %d file(s) loaded, structural validation failed:\n  %v\n", fileCount, err)
		return fmt.Errorf("lint failed")
	}

	fmt.Printf("✓ %d module file(s) valid, %d namespace(s) registered\n", fileCount, len(reg.ModuleNamespaces()))
	return nil
}
