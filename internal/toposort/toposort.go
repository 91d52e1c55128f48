// Package toposort orders graph nodes for execution and counts, for
// each node, how many times it is depended upon -- the bookkeeping the
// runner uses to release state eagerly once nothing else still needs it
// (spec 4.E).
package toposort

import (
	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/logging"
	"github.com/guludo/yape/internal/yerr"
)

var log = logging.Named("toposort")

// color tracks a node's DFS status for cycle detection.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS path
	black              // fully processed
)

// Sort returns the targets' transitive dependencies plus the targets
// themselves, in an order where every node appears after everything it
// directly depends on (DirectNodeRefs). It is a plain DFS-based
// topological sort; ties among independent subtrees are broken by visit
// order, so the result is deterministic for a given target list.
func Sort(targets []*graph.Node) ([]*graph.Node, error) {
	colors := make(map[*graph.Node]color)
	var order []*graph.Node
	var path []*graph.Node

	var visit func(n *graph.Node) error
	visit = func(n *graph.Node) error {
		switch colors[n] {
		case black:
			return nil
		case gray:
			return cycleError(path, n)
		}
		colors[n] = gray
		path = append(path, n)
		for _, dep := range n.DirectNodeRefs() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		colors[n] = black
		order = append(order, n)
		return nil
	}

	for _, t := range targets {
		if err := visit(t); err != nil {
			log.Warn("cycle detected during sort", "error", err)
			return nil, err
		}
	}
	log.Trace("sorted graph", "targets", len(targets), "order", len(order))
	return order, nil
}

func cycleError(path []*graph.Node, repeated *graph.Node) error {
	start := 0
	for i, n := range path {
		if n == repeated {
			start = i
			break
		}
	}
	names := make([]string, 0, len(path)-start+1)
	for _, n := range path[start:] {
		names = append(names, n.FullName())
	}
	names = append(names, repeated.FullName())
	return yerr.NewCycle(names)
}

// DependantCounts returns, for every node in order, how many distinct
// nodes in order directly depend on it (after deduplicating each node's
// own dependency list, so a node referenced twice by the same dependant
// is only counted once). The runner decrements these counts as
// dependants finish running, releasing a node's state once its count
// reaches zero.
func DependantCounts(order []*graph.Node) map[*graph.Node]int {
	counts := make(map[*graph.Node]int, len(order))
	for _, n := range order {
		counts[n] = 0
	}
	for _, n := range order {
		seen := map[*graph.Node]bool{}
		for _, dep := range n.DirectNodeRefs() {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			counts[dep]++
		}
	}
	return counts
}
