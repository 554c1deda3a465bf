// Command lciindex runs the local full-text indexer and query engine's
// interactive REPL (spec §6): `index` walks a tree, `find`/`files` query
// it, `delete` removes an entry, `store` forces a save.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lciindex/internal/config"
	"github.com/standardbeagle/lciindex/internal/debug"
	"github.com/standardbeagle/lciindex/internal/version"
)

func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.LoadKDL(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Project.Root = absRoot

	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Index.Exclude = append(cfg.Index.Exclude, excludeFlags...)
	}
	if storePath := c.String("store"); storePath != "" {
		cfg.Index.StorePath = storePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "lciindex",
		Usage:                  "local full-text indexer and query engine",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "directory tree to index",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "block-file path (overrides config index.store_path)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "additional glob pattern to exclude from indexing",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: runREPL,
	}

	if err := app.Run(os.Args); err != nil {
		debug.CatastrophicError("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
