// Package target implements the target reference grammar (spec §6): a
// single node, a slash-separated name path, a sequence of either, a
// mapping from label to either, or a predicate callable over nodes. The
// parser resolves each reference against a graph and keeps enough shape
// information to build a correspondingly-shaped result (scalar, tuple,
// or map) once the runner has computed every node's result.
package target

import (
	"sort"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yerr"
)

// Ref is any of the forms spec §6 allows as a target reference:
//
//   - *graph.Node
//   - a slash-separated name path string
//   - []Ref (a sequence)
//   - map[string]Ref (a label->ref mapping)
//   - func(*graph.Node) bool (a predicate over every node in the graph)
//   - nil, meaning "every node in the graph"
//
// Ref is a plain alias for any, not a defined type: this lets callers
// pass an ordinary []any or map[string]any (as the CLI and library
// callers naturally would) without needing to know about this package's
// named type, while Resolve still type-switches on the concrete shapes
// above.
type Ref = any

// shape tags how a Resolved value should be rebuilt once results are
// available.
type shape int

const (
	shapeScalar shape = iota
	shapeSeq
	shapeMap
)

// Resolved is the result of parsing a Ref against a graph: the flat,
// deduplicated list of nodes it names (in first-seen order) plus enough
// structure to re-shape a per-node result map back into the form the
// original Ref had.
type Resolved struct {
	shape shape

	// node is set when shape == shapeScalar.
	node *graph.Node

	// seq is set when shape == shapeSeq: one sub-Resolved per element.
	seq []*Resolved

	// labels/byLabel are set when shape == shapeMap.
	labels  []string
	byLabel map[string]*Resolved
}

// Nodes returns every node named by the reference, deduplicated, in the
// order they were first encountered during parsing.
func (r *Resolved) Nodes() []*graph.Node {
	seen := map[*graph.Node]bool{}
	var out []*graph.Node
	r.collect(&out, seen)
	return out
}

func (r *Resolved) collect(out *[]*graph.Node, seen map[*graph.Node]bool) {
	switch r.shape {
	case shapeScalar:
		if !seen[r.node] {
			seen[r.node] = true
			*out = append(*out, r.node)
		}
	case shapeSeq:
		for _, sub := range r.seq {
			sub.collect(out, seen)
		}
	case shapeMap:
		for _, label := range r.labels {
			r.byLabel[label].collect(out, seen)
		}
	}
}

// Build shapes results (keyed by node) back into the form of the
// original reference: a scalar reference yields a single value, a
// sequence yields a []any, and a mapping yields a map[string]any.
func (r *Resolved) Build(results map[*graph.Node]any) any {
	switch r.shape {
	case shapeScalar:
		return results[r.node]
	case shapeSeq:
		out := make([]any, len(r.seq))
		for i, sub := range r.seq {
			out[i] = sub.Build(results)
		}
		return out
	case shapeMap:
		out := make(map[string]any, len(r.labels))
		for _, label := range r.labels {
			out[label] = r.byLabel[label].Build(results)
		}
		return out
	default:
		return nil
	}
}

// Resolve parses ref against g (the global graph when g is nil) and
// returns the set of nodes it names plus its shape.
func Resolve(g *graph.Graph, ref Ref) (*Resolved, error) {
	if g == nil {
		g = graph.Global()
	}

	switch v := ref.(type) {
	case nil:
		return allNodes(g), nil
	case *graph.Node:
		return &Resolved{shape: shapeScalar, node: v}, nil
	case graph.Node:
		return &Resolved{shape: shapeScalar, node: &v}, nil
	case string:
		n, err := g.Node(v)
		if err != nil {
			return nil, err
		}
		return &Resolved{shape: shapeScalar, node: n}, nil
	case func(*graph.Node) bool:
		return predicateNodes(g, v), nil
	case []Ref:
		return resolveSeq(g, v)
	case map[string]Ref:
		return resolveMap(g, v)
	default:
		return nil, yerr.NewResolution("unsupported target reference of type %T", ref)
	}
}

func allNodes(g *graph.Graph) *Resolved {
	nodes := g.RecurseNodes(nil)
	seq := make([]*Resolved, len(nodes))
	for i, n := range nodes {
		seq[i] = &Resolved{shape: shapeScalar, node: n}
	}
	return &Resolved{shape: shapeSeq, seq: seq}
}

func predicateNodes(g *graph.Graph, pred func(*graph.Node) bool) *Resolved {
	nodes := g.RecurseNodes(pred)
	seq := make([]*Resolved, len(nodes))
	for i, n := range nodes {
		seq[i] = &Resolved{shape: shapeScalar, node: n}
	}
	return &Resolved{shape: shapeSeq, seq: seq}
}

func resolveSeq(g *graph.Graph, refs []Ref) (*Resolved, error) {
	seq := make([]*Resolved, len(refs))
	for i, r := range refs {
		sub, err := Resolve(g, r)
		if err != nil {
			return nil, err
		}
		seq[i] = sub
	}
	return &Resolved{shape: shapeSeq, seq: seq}, nil
}

func resolveMap(g *graph.Graph, refs map[string]Ref) (*Resolved, error) {
	labels := make([]string, 0, len(refs))
	for label := range refs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	byLabel := make(map[string]*Resolved, len(refs))
	for _, label := range labels {
		sub, err := Resolve(g, refs[label])
		if err != nil {
			return nil, err
		}
		byLabel[label] = sub
	}
	return &Resolved{shape: shapeMap, labels: labels, byLabel: byLabel}, nil
}

// Strings resolves a []string of name paths, the common CLI case (every
// positional TARGET argument is a name path).
func Strings(g *graph.Graph, names []string) (*Resolved, error) {
	if len(names) == 0 {
		return Resolve(g, nil)
	}
	refs := make([]Ref, len(names))
	for i, n := range names {
		refs[i] = n
	}
	return Resolve(g, refs)
}
