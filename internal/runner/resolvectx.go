package runner

import (
	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yapeop"
	"github.com/guludo/yape/internal/yerr"
)

// resolveContext bridges resolver.Context to the active runner Context
// for one node's resolution: PathIn/PathOut pass through as-is (a
// path with no producer inside the graph "resolves to a filesystem path
// as-is", spec §8), Node results come from the namespace, and Resource
// references are resolved via the node's own declared request plus the
// provider stack.
type resolveContext struct {
	ctx    *Context
	nodeCx *NodeContext
}

func (r *resolveContext) PathFor(path string) (string, error) {
	return path, nil
}

func (r *resolveContext) NodeResult(n *graph.Node) (any, error) {
	st, err := r.ctx.Namespace.State(n)
	if err != nil {
		return nil, err
	}
	if !st.HasResult() {
		return nil, yerr.NewResolution("node %q has no result; it must run before its dependants", n.FullName())
	}
	return st.GetResult()
}

func (r *resolveContext) ResourceValue(n *graph.Node) (any, error) {
	res, ok := n.Op().(yapeop.Resource)
	if !ok {
		return nil, yerr.NewResolution("node %q is not a Resource node", n.FullName())
	}
	handle, err := r.NodeResult(n)
	if err != nil {
		return nil, err
	}
	p, err := r.ctx.Providers.Get(res.Request)
	if err != nil {
		return nil, err
	}
	return p.Resolve(handle)
}

func (r *resolveContext) CTXValue() any {
	return r.nodeCx
}
