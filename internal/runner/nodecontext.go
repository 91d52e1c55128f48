package runner

import (
	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/state"
)

// NodeContext is the per-node value substituted for yapeop.CTX during
// resolution: currently it only exposes the node's scratch workdir,
// backed by its State.
type NodeContext struct {
	node  *graph.Node
	state state.State
}

// Workdir returns (creating on first call) the node's private scratch
// directory.
func (c *NodeContext) Workdir() (string, error) {
	return c.state.Workdir()
}

// Node returns the node this context belongs to.
func (c *NodeContext) Node() *graph.Node { return c.node }
