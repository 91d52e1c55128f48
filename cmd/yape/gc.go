package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/guludo/yape/internal/descriptor"
	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/state"
)

// gcCommand implements the supplemented "yape gc" subcommand
// (SPEC_FULL.md "Supplemented feature: manual GC for CachedStateDB"):
// it removes every CachedStateDB bucket not reachable from the current
// graph's node descriptors.
type gcCommand struct {
	app *application
}

func (c *gcCommand) Help() string {
	return strings.TrimSpace(`
Usage: yape gc

  Remove cache entries in .yape/cache (or YAPE_CACHE_DIR) whose bucket is
  no longer reached by the active graph. Entries are never removed
  automatically; this is the only way to reclaim them.
`)
}

func (c *gcCommand) Synopsis() string {
	return "Remove cache entries unreachable from the current graph"
}

func (c *gcCommand) Run(args []string) int {
	fs := flag.NewFlagSet("gc", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	live := map[string]bool{}
	for _, n := range c.app.graph().RecurseNodes(nil) {
		live[descriptor.Hash(graph.NodeDescriptor(n, true))] = true
	}

	db := state.NewDB(cacheDir())
	removed, err := db.GC(live)
	if err != nil {
		ui.Error(fmt.Sprintf("gc: %s", err))
		return 1
	}
	ui.Output(fmt.Sprintf("removed %d cache entries", removed))
	return 0
}
