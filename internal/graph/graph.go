package graph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/guludo/yape/internal/logging"
	"github.com/guludo/yape/internal/yerr"
)

var log = logging.Named("graph")

// Graph is a container of nodes and nested subgraphs. Every graph has a
// parent except the root; the PathOut->Node registry is maintained on
// the root only (spec 4.D).
type Graph struct {
	mu sync.Mutex

	name       string
	namePrefix string
	parent     *Graph

	nodes     []*Node
	subgraphs []*Graph

	// children holds both nodes and subgraphs, keyed by their name
	// segment, to enforce that names are unique within a scope
	// regardless of whether they name a node or a subgraph.
	children map[string]any

	// pathOutOwners maps a PathOut path to its declaring node. Only
	// populated on the root graph; other graphs consult root().
	pathOutOwners map[string]*Node

	autoCounters map[string]int
}

// NewGraph creates a detached graph with the given name segment (may be
// empty for an anonymous root such as the global graph).
func NewGraph(name string) *Graph {
	return &Graph{
		name:     name,
		children: map[string]any{},
	}
}

var (
	globalGraph     *Graph
	globalGraphOnce sync.Once
)

// Global returns the process-wide default graph used when no build
// scope is active.
func Global() *Graph {
	globalGraphOnce.Do(func() {
		globalGraph = NewGraph("")
	})
	return globalGraph
}

func (g *Graph) root() *Graph {
	r := g
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// FullName returns the "/"-joined path from the root to this graph.
func (g *Graph) FullName() string {
	if g.parent == nil {
		return g.name
	}
	prefix := g.parent.FullName()
	if prefix == "" {
		return g.name
	}
	return prefix + "/" + g.name
}

// Nodes returns the graph's own nodes, in declaration order.
func (g *Graph) Nodes() []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Subgraphs returns the graph's own subgraphs, in declaration order.
func (g *Graph) Subgraphs() []*Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Graph, len(g.subgraphs))
	copy(out, g.subgraphs)
	return out
}

// RecurseNodes walks this graph and all of its subgraphs depth-first,
// self first, optionally filtered by pred (nil means "all nodes").
func (g *Graph) RecurseNodes(pred func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if pred == nil || pred(n) {
			out = append(out, n)
		}
	}
	for _, sg := range g.Subgraphs() {
		out = append(out, sg.RecurseNodes(pred)...)
	}
	return out
}

// Node looks up a node by slash-separated path relative to g.
func (g *Graph) Node(path string) (*Node, error) {
	segs := strings.Split(path, "/")
	cur := g
	for i, seg := range segs {
		g.mu.Lock()
		child, ok := cur.children[seg]
		g.mu.Unlock()
		if !ok {
			return nil, yerr.NewResolution("no node or subgraph named %q in %q", seg, cur.FullName())
		}
		if i == len(segs)-1 {
			if n, ok := child.(*Node); ok {
				return n, nil
			}
			return nil, yerr.NewResolution("%q is a subgraph, not a node", path)
		}
		sub, ok := child.(*Graph)
		if !ok {
			return nil, yerr.NewResolution("%q is a node, not a subgraph, but path continues past it", strings.Join(segs[:i+1], "/"))
		}
		cur = sub
	}
	return nil, yerr.NewResolution("empty path")
}

// PathProducer returns the node declared to produce PathOut(p), looking
// first at this graph's root and then falling back to the global graph.
func (g *Graph) PathProducer(p string) (*Node, bool) {
	root := g.root()
	root.mu.Lock()
	n, ok := root.pathOutOwners[p]
	root.mu.Unlock()
	if ok {
		return n, true
	}
	if root == Global() {
		return nil, false
	}
	gg := Global()
	gg.mu.Lock()
	defer gg.mu.Unlock()
	n, ok = gg.pathOutOwners[p]
	return n, ok
}

func (g *Graph) registerPathOut(p string, n *Node) error {
	root := g.root()

	// Check the global graph's registry first (mirroring PathProducer's
	// root-then-global lookup order) so that two different root graphs
	// can never silently declare the same PathOut.
	if root != Global() {
		gg := Global()
		gg.mu.Lock()
		existing, ok := gg.pathOutOwners[p]
		gg.mu.Unlock()
		if ok {
			return yerr.NewGraphShape("PathOut(%q) already declared by node %q", p, existing.FullName())
		}
	}

	root.mu.Lock()
	defer root.mu.Unlock()
	if root.pathOutOwners == nil {
		root.pathOutOwners = map[string]*Node{}
	}
	if existing, ok := root.pathOutOwners[p]; ok {
		return yerr.NewGraphShape("PathOut(%q) already declared by node %q", p, existing.FullName())
	}
	root.pathOutOwners[p] = n
	return nil
}

// addChild reserves name in g's namespace, auto-generating one from
// prefix when name is empty, and returns the name actually used.
func (g *Graph) addChild(name, prefix string, child any) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.Contains(name, "/") {
		return "", yerr.NewGraphShape("name %q must not contain '/'", name)
	}

	if name == "" {
		if prefix == "" {
			prefix = "node"
		}
		if g.autoCounters == nil {
			g.autoCounters = map[string]int{}
		}
		if _, taken := g.children[prefix]; !taken {
			name = prefix
		} else {
			n := g.autoCounters[prefix]
			for {
				n++
				candidate := fmt.Sprintf("%s-%d", prefix, n)
				if _, taken := g.children[candidate]; !taken {
					name = candidate
					g.autoCounters[prefix] = n
					break
				}
			}
		}
	} else if _, taken := g.children[name]; taken {
		return "", yerr.NewGraphShape("duplicate name %q in %q", name, g.FullName())
	}

	g.children[name] = child
	return name, nil
}

func (g *Graph) addNode(n *Node) error {
	name, err := g.addChild(n.name, n.namePrefix, n)
	if err != nil {
		return err
	}
	n.name = name
	n.graph = g

	for _, po := range n.pathOuts {
		if err := g.registerPathOut(po.Path, n); err != nil {
			return err
		}
	}

	g.mu.Lock()
	g.nodes = append(g.nodes, n)
	g.mu.Unlock()

	log.Trace("added node", "name", n.FullName())
	return nil
}

// AddSubgraph attaches sub to g under name (or an auto-generated name
// sharing g's single node+subgraph namespace).
func (g *Graph) AddSubgraph(name string, sub *Graph) error {
	actual, err := g.addChild(name, sub.namePrefix, sub)
	if err != nil {
		return err
	}
	sub.name = actual
	sub.parent = g
	g.mu.Lock()
	g.subgraphs = append(g.subgraphs, sub)
	g.mu.Unlock()
	return nil
}

// --- build-scope stack ---

var (
	scopeMu    sync.Mutex
	scopeStack []*Graph
)

// pushScope makes g the innermost active build scope.
func pushScope(g *Graph) {
	scopeMu.Lock()
	defer scopeMu.Unlock()
	scopeStack = append(scopeStack, g)
}

func popScope() {
	scopeMu.Lock()
	defer scopeMu.Unlock()
	if len(scopeStack) > 0 {
		scopeStack = scopeStack[:len(scopeStack)-1]
	}
}

// CurrentScope returns the innermost open build scope, or the global
// graph if none is active.
func CurrentScope() *Graph {
	scopeMu.Lock()
	defer scopeMu.Unlock()
	if len(scopeStack) == 0 {
		return Global()
	}
	return scopeStack[len(scopeStack)-1]
}

// Build opens g as the current build scope for the duration of fn, so
// that nodes and subgraphs created without an explicit graph attach to
// g. Scopes nest: the innermost open scope wins for new nodes. Build does
// not attach g itself to any enclosing scope; a subgraph is only linked
// to its parent through AddSubgraph.
func Build(g *Graph, fn func()) {
	pushScope(g)
	defer popScope()
	fn()
}
