package runner

import (
	"os"
	"path/filepath"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/logging"
	"github.com/guludo/yape/internal/resolver"
	"github.com/guludo/yape/internal/state"
	"github.com/guludo/yape/internal/target"
	"github.com/guludo/yape/internal/toposort"
	"github.com/guludo/yape/internal/yapeop"
	"github.com/guludo/yape/internal/yerr"
)

var log = logging.Named("runner")

// Options configures one Runner.Run call.
type Options struct {
	// Targets selects which nodes to run; nil means every node in Graph.
	Targets target.Ref
	// Graph is resolved against for Targets; nil means the global graph.
	Graph *graph.Graph
	// Context is entered for the duration of the run if none is already
	// active; nil means the default ".yape"-rooted context.
	Context *Context
	// Force re-runs every target even if already up to date.
	Force bool
	// ReturnResults controls whether Run collects and shapes a return
	// value at all (collecting can be skipped for fire-and-forget runs).
	ReturnResults bool
}

// Run executes targets in dependency order against a single-threaded
// scheduler (spec 4.I): topologically sort, enter a context, and for
// every node that must run, resolve its operator, materialize its
// PathOut parent directories, execute it, persist the result, then
// release any dependency whose dependant count has reached zero and
// which is not itself a target.
func Run(opts Options) (any, error) {
	resolved, err := target.Resolve(opts.Graph, opts.Targets)
	if err != nil {
		return nil, err
	}
	targets := resolved.Nodes()
	targetSet := make(map[*graph.Node]bool, len(targets))
	for _, n := range targets {
		targetSet[n] = true
	}

	order, err := toposort.Sort(targets)
	if err != nil {
		return nil, err
	}
	counts := toposort.DependantCounts(order)

	ctx, unwind, err := acquireContext(opts.Context)
	if err != nil {
		return nil, err
	}
	defer unwind()

	depStatus := make(map[*graph.Node]state.DependencyStatus, len(order))
	results := make(map[*graph.Node]any, len(order))

	for _, n := range order {
		st, err := ctx.Namespace.State(n)
		if err != nil {
			return nil, err
		}

		chk, err := upToDateCheck(n, ctx, depStatus)
		if err != nil {
			return nil, err
		}
		upToDate, err := st.IsUpToDate(chk)
		if err != nil {
			return nil, err
		}

		mustRun := n.Always() || !upToDate
		shouldRun := mustRun || (opts.Force && targetSet[n])

		if shouldRun {
			log.Debug("running node", "name", n.FullName(), "upToDate", upToDate, "forced", opts.Force && targetSet[n])
			if err := runNode(n, st, ctx); err != nil {
				return nil, err
			}
		} else {
			log.Trace("skipping up-to-date node", "name", n.FullName())
		}

		ts, hasTS, err := st.GetTimestamp()
		if err != nil {
			return nil, err
		}
		depStatus[n] = state.DependencyStatus{UpToDate: true, Timestamp: ts, HasTimestamp: hasTS}

		if opts.ReturnResults {
			v, err := st.GetResult()
			if err != nil {
				return nil, err
			}
			results[n] = v
		}

		for _, dep := range n.DirectNodeRefs() {
			if _, tracked := counts[dep]; !tracked {
				continue
			}
			counts[dep]--
			if counts[dep] == 0 && !targetSet[dep] {
				depSt, err := ctx.Namespace.State(dep)
				if err != nil {
					return nil, err
				}
				depSt.Release()
			}
		}
	}

	if !opts.ReturnResults {
		return nil, nil
	}
	return resolved.Build(results), nil
}

func runNode(n *graph.Node, st state.State, ctx *Context) error {
	nodeCx := &NodeContext{node: n, state: st}
	resolvedOp, err := resolver.Resolve(n.Op(), &resolveContext{ctx: ctx, nodeCx: nodeCx}, nil)
	if err != nil {
		return yerr.NewExecution(n.FullName(), err)
	}

	for _, po := range n.PathOuts() {
		if dir := filepath.Dir(po.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return yerr.NewStateIO("creating PathOut parent directory", err)
			}
		}
	}

	result, err := yapeop.RunOp(resolvedOp, ctx.Providers)
	if err != nil {
		return yerr.NewExecution(n.FullName(), err)
	}

	if err := st.SetResult(result); err != nil {
		return err
	}
	return nil
}

func upToDateCheck(n *graph.Node, ctx *Context, depStatus map[*graph.Node]state.DependencyStatus) (state.UpToDateCheck, error) {
	chk := state.UpToDateCheck{
		PathIns:  pathInStrings(n),
		PathOuts: pathOutStrings(n),
	}

	if res, ok := n.Op().(yapeop.Resource); ok {
		chk.IsResource = true
		chk.ResourceExists = func(handle any) (bool, error) {
			p, err := ctx.Providers.Get(res.Request)
			if err != nil {
				return false, err
			}
			return p.Exists(handle)
		}
	}

	for _, dep := range n.DirectNodeRefs() {
		if ds, ok := depStatus[dep]; ok {
			chk.Dependencies = append(chk.Dependencies, ds)
		}
	}

	return chk, nil
}

func pathInStrings(n *graph.Node) []string {
	ins := n.PathIns()
	out := make([]string, len(ins))
	for i, p := range ins {
		out[i] = p.Path
	}
	return out
}

func pathOutStrings(n *graph.Node) []string {
	outs := n.PathOuts()
	out := make([]string, len(outs))
	for i, p := range outs {
		out[i] = p.Path
	}
	return out
}

// acquireContext implements spec 4.I step 3: use the already-active
// context if one exists, entering the supplied (or a default) context
// otherwise. The returned unwind func is a no-op when reusing an
// already-active context.
func acquireContext(supplied *Context) (*Context, func(), error) {
	if a := Active(); a != nil {
		return a, func() {}, nil
	}
	ctx := supplied
	if ctx == nil {
		ctx = DefaultContext(".yape")
	}
	if err := Enter(ctx); err != nil {
		return nil, nil, err
	}
	return ctx, func() { Exit(ctx) }, nil
}
