//
//  Copyright © Manetu Inc. All rights reserved.
//

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/manetu/polix/cmd/polixc/subcommands/cachestats"
	"github.com/manetu/polix/cmd/polixc/subcommands/eval"
	"github.com/manetu/polix/cmd/polixc/subcommands/lint"
	"github.com/manetu/polix/cmd/polixc/subcommands/parse"
	"github.com/manetu/polix/internal/config"
	"github.com/manetu/polix/internal/logging"
)

var logger = logging.GetLogger("polixc")

func main() {
	config.Init()

	cmd := &cli.Command{
		Name:  "polixc",
		Usage: "A CLI application for authoring and evaluating polix policies",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "trace",
				Aliases: []string{"t"},
				Usage:   "Enable trace-level logging to stderr",
				Value:   logger.IsTraceEnabled(),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Parse a single YAML-encoded policy expression and print its AST",
				ArgsUsage: "<file>",
				Action:    parse.Execute,
			},
			{
				Name:      "lint",
				Usage:     "Validate a directory of policy module YAML files for structural errors",
				ArgsUsage: "<dir>",
				Action:    lint.Execute,
			},
			{
				Name:      "eval",
				Usage:     "Compile and evaluate a named policy against a JSON document",
				ArgsUsage: "<moduledir> <namespace/policy> <document.json>",
				Action:    eval.Execute,
			},
			{
				Name:      "cache-stats",
				Usage:     "Warm the compiled-policy cache from a module directory and print hit/miss stats",
				ArgsUsage: "<moduledir>",
				Action:    cachestats.Execute,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
