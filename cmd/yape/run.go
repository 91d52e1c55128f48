package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/guludo/yape/internal/runner"
)

// runCommand implements "yape run" (spec §6): run selected nodes, or
// every node when none are given; -f/--force re-runs targets even if
// they are already up to date.
type runCommand struct {
	app *application
}

func (c *runCommand) Help() string {
	return strings.TrimSpace(`
Usage: yape run [-f|--force] [TARGET...]

  Run selected nodes and their dependencies. With no TARGET arguments,
  every node reachable from the graph is run.

Options:

  -f, --force    Re-run targets even if their cached result is up to date.
`)
}

func (c *runCommand) Synopsis() string {
	return "Run selected nodes (or all nodes when none given)"
}

func (c *runCommand) Run(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	force := fs.Bool("f", false, "re-run targets even if up to date")
	fs.BoolVar(force, "force", false, "re-run targets even if up to date")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	ctx := buildContext()
	_, err := runner.Run(runner.Options{
		Graph:   c.app.graph(),
		Targets: targetsFromNames(fs.Args()),
		Context: ctx,
		Force:   *force,
	})
	if err != nil {
		ui.Error(fmt.Sprintf("run: %s", err))
		return 1
	}
	return 0
}
