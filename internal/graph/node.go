// Package graph implements the Node and Graph container types (spec
// 4.D), the node descriptor algorithm (spec 4.C) that turns a node's
// operator into a cache-key event tuple, and dependency extraction used
// by the scheduler (spec 4.E).
package graph

import (
	"sync"

	"github.com/guludo/yape/internal/descriptor"
	"github.com/guludo/yape/internal/walk"
	"github.com/guludo/yape/internal/yapeop"
)

// Node holds one operator plus the metadata the rest of the system needs
// around it: an optional explicit name, a name-prefix hint for
// auto-naming, the always-run flag, its declared path dependencies, the
// owning graph, and -- for Resource nodes -- the nodes that produce it.
type Node struct {
	mu sync.Mutex

	op yapeop.NodeOp

	name         string
	namePrefix   string
	explicitName bool
	always       bool

	pathIns  []yapeop.PathIn
	pathOuts []yapeop.PathOut

	graph *Graph

	resourceProducers []*Node

	descCache  descriptor.Descriptor
	descCached bool
}

// yapeNode implements yapeop.Node, making *Node usable as an operator
// argument without the yapeop/walk packages importing graph.
func (n *Node) yapeNode() {}

// Name returns the node's name segment (without its graph's prefix).
func (n *Node) Name() string { return n.name }

// ExplicitlyNamed reports whether the node's name was supplied by the
// caller (via WithName) rather than auto-generated from its operator's
// default prefix (spec 4.D).
func (n *Node) ExplicitlyNamed() bool { return n.explicitName }

// FullName returns the "/"-joined path from the root graph to this node.
func (n *Node) FullName() string {
	if n.graph == nil {
		return n.name
	}
	prefix := n.graph.FullName()
	if prefix == "" {
		return n.name
	}
	return prefix + "/" + n.name
}

// Graph returns the graph this node was added to.
func (n *Node) Graph() *Graph { return n.graph }

// Op returns the node's operator.
func (n *Node) Op() yapeop.NodeOp { return n.op }

// SetValue mutates a Value node's cell in place, matching spec 4.A's
// "Value(v) -- a mutable cell" (unlike every other operator, which is
// fixed at construction time). Calling SetValue on a node whose operator
// is not Value is a programming error and panics.
func (n *Node) SetValue(v any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.op.(yapeop.Value); !ok {
		panic("graph: SetValue called on a non-Value node")
	}
	n.op = yapeop.Value{V: v}
}

// Always reports whether the node is always considered must-run.
func (n *Node) Always() bool { return n.always }

// PathIns returns the node's declared PathIn arguments (discovered by
// walking the operator, plus any user-declared extras).
func (n *Node) PathIns() []yapeop.PathIn { return n.pathIns }

// PathOuts returns the node's declared PathOut arguments.
func (n *Node) PathOuts() []yapeop.PathOut { return n.pathOuts }

// ResourceProducers returns the nodes that declare (via ResourceOut) that
// they produce this node's resource. Only meaningful for Resource nodes.
func (n *Node) ResourceProducers() []*Node { return n.resourceProducers }

// DirectNodeRefs returns every *Node directly reachable as an argument of
// this node's operator (not recursively), used to build the dependency
// edges for topological sort (spec 4.E's get_dep_nodes).
func (n *Node) DirectNodeRefs() []*Node {
	events := walk.Walk(n.op)
	var out []*Node
	seen := map[*Node]bool{}
	add := func(v *Node) {
		if v != nil && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, e := range events {
		switch e.Type {
		case walk.EvNode:
			add(e.Node.(*Node))
		case walk.ResourceIn, walk.ResourceOut:
			resNode := e.Node.(*Node)
			add(resNode)
			for _, p := range resNode.resourceProducers {
				add(p)
			}
		}
	}
	for _, pin := range n.pathIns {
		if producer, ok := n.graph.PathProducer(pin.Path); ok {
			add(producer)
		}
	}
	return out
}
