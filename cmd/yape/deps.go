package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/guludo/yape/internal/dotgraph"
	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/target"
)

// depsCommand implements "yape deps" (spec §6): for each target, print
// its full name followed by the full names of its direct dependencies,
// indented. The supplemented --dot flag renders the reachable subgraph
// as Graphviz DOT source instead (internal/dotgraph).
type depsCommand struct {
	app *application
}

func (c *depsCommand) Help() string {
	return strings.TrimSpace(`
Usage: yape deps [--dot] [--json] [TARGET...]

  For each target, print its full name followed by the full names of its
  direct dependencies, indented. With no TARGET arguments, every node
  reachable from the graph is used.

Options:

      --dot    Render the reachable subgraph as Graphviz DOT source.
      --json   Emit one JSON object per target instead of indented text.
`)
}

func (c *depsCommand) Synopsis() string {
	return "Print direct dependencies of each target"
}

type depsEntry struct {
	Name string   `json:"name"`
	Deps []string `json:"deps"`
}

func (c *depsCommand) Run(args []string) int {
	fs := flag.NewFlagSet("deps", flag.ContinueOnError)
	asDot := fs.Bool("dot", false, "render as Graphviz DOT source")
	asJSON := fs.Bool("json", false, "emit JSON entries")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	resolved, err := target.Strings(c.app.graph(), fs.Args())
	if err != nil {
		ui.Error(fmt.Sprintf("deps: %s", err))
		return 1
	}
	targets := resolved.Nodes()

	if *asDot {
		if err := dotgraph.Write(os.Stdout, reachable(targets)); err != nil {
			ui.Error(fmt.Sprintf("deps: %s", err))
			return 1
		}
		return 0
	}

	for _, n := range targets {
		deps := n.DirectNodeRefs()
		if *asJSON {
			entry := depsEntry{Name: n.FullName(), Deps: depNames(deps)}
			b, err := json.Marshal(entry)
			if err != nil {
				ui.Error(fmt.Sprintf("deps: %s", err))
				return 1
			}
			ui.Output(string(b))
			continue
		}
		ui.Output(n.FullName())
		for _, d := range deps {
			ui.Output("  " + d.FullName())
		}
	}
	return 0
}

func depNames(nodes []*graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.FullName()
	}
	return out
}

// reachable returns targets plus every node transitively reachable from
// them, for --dot rendering.
func reachable(targets []*graph.Node) []*graph.Node {
	seen := map[*graph.Node]bool{}
	var out []*graph.Node
	var visit func(*graph.Node)
	visit = func(n *graph.Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
		for _, d := range n.DirectNodeRefs() {
			visit(d)
		}
	}
	for _, t := range targets {
		visit(t)
	}
	return out
}
