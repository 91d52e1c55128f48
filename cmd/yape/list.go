package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/guludo/yape/internal/graph"
)

// listCommand implements "yape list" (spec §6): print full names of
// nodes reachable from the graph; without -a, only nodes with an
// explicitly-assigned name (i.e. not auto-generated).
type listCommand struct {
	app *application
}

func (c *listCommand) Help() string {
	return strings.TrimSpace(`
Usage: yape list [-a|--all] [--json]

  Print the full name of every node reachable from the graph.

Options:

  -a, --all    Include nodes whose name was auto-generated.
      --json   Emit one JSON object per line instead of plain names.
`)
}

func (c *listCommand) Synopsis() string {
	return "Print full names of nodes reachable from the graph"
}

// listEntry is the --json line shape for one node.
type listEntry struct {
	Name   string `json:"name"`
	Always bool   `json:"always"`
}

func (c *listCommand) Run(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	all := fs.Bool("a", false, "include auto-named nodes")
	fs.BoolVar(all, "all", false, "include auto-named nodes")
	asJSON := fs.Bool("json", false, "emit JSON lines")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	nodes := c.app.graph().RecurseNodes(nil)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].FullName() < nodes[j].FullName() })

	for _, n := range nodes {
		if !*all && !isExplicitlyNamed(n) {
			continue
		}
		if *asJSON {
			entry := listEntry{Name: n.FullName(), Always: n.Always()}
			b, err := json.Marshal(entry)
			if err != nil {
				ui.Error(fmt.Sprintf("list: %s", err))
				return 1
			}
			ui.Output(string(b))
		} else {
			ui.Output(n.FullName())
		}
	}
	return 0
}

// isExplicitlyNamed reports whether n's name segment was given by the
// user rather than auto-generated from its operator's default prefix
// (spec 4.D "Nameless nodes auto-generate <prefix> / <prefix>-N names").
// The answer comes from the flag recorded when the node was built
// (graph.WithName), not from the shape of the name itself.
func isExplicitlyNamed(n *graph.Node) bool {
	return n.Name() != "" && n.ExplicitlyNamed()
}
