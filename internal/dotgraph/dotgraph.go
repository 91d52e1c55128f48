// Package dotgraph renders a slice of graph nodes as Graphviz DOT
// language, for the "deps --dot" command (spec §6's supplemented
// dependency-visualization command). The quoting and deterministic
// sorted-output approach is adapted from a Graphviz writer seen
// elsewhere in the dependency graph tooling this project draws its
// ambient stack from.
package dotgraph

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/guludo/yape/internal/graph"
)

// Write renders nodes and the direct-dependency edges among them as a
// single "digraph" in DOT language. Only edges whose both ends are in
// nodes are emitted, so a caller can render a subgraph without pulling
// in every transitive dependency as a dangling reference.
func Write(w io.Writer, nodes []*graph.Node) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString("digraph {\n"); err != nil {
		return err
	}
	if _, err := bw.WriteString("  rankdir=\"BT\";\n"); err != nil {
		return err
	}

	names := make(map[*graph.Node]string, len(nodes))
	in := make(map[*graph.Node]bool, len(nodes))
	for _, n := range nodes {
		names[n] = n.FullName()
		in[n] = true
	}

	sorted := append([]*graph.Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return names[sorted[i]] < names[sorted[j]] })

	for _, n := range sorted {
		if _, err := fmt.Fprintf(bw, "  %s;\n", quote(names[n])); err != nil {
			return err
		}
	}

	type edge struct{ from, to string }
	var edges []edge
	for _, n := range sorted {
		for _, dep := range n.DirectNodeRefs() {
			if !in[dep] {
				continue
			}
			edges = append(edges, edge{from: names[n], to: names[dep]})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for _, e := range edges {
		if _, err := fmt.Fprintf(bw, "  %s -> %s;\n", quote(e.from), quote(e.to)); err != nil {
			return err
		}
	}

	if _, err := bw.WriteString("}\n"); err != nil {
		return err
	}
	return bw.Flush()
}

var validUnquoteID = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func quote(s string) string {
	if validUnquoteID.MatchString(s) && s != "node" && s != "edge" {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
