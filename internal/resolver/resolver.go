// Package resolver implements resolve_op (spec 4.F): turning a node's
// operator, whose arguments still hold PathIn/PathOut/Node/ResourceIn/
// ResourceOut/CTX/UNSET markers, into an operator ready for
// yapeop.RunOp, with every marker replaced by its concrete value.
package resolver

import (
	"fmt"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/logging"
	"github.com/guludo/yape/internal/walk"
	"github.com/guludo/yape/internal/yapeop"
	"github.com/guludo/yape/internal/yerr"
)

var log = logging.Named("resolver")

// Context supplies the concrete values the resolver substitutes for each
// marker. The runner wires an implementation backed by the active
// StateNamespace and resource provider stack; the resolver package
// itself depends on neither, avoiding an import cycle.
type Context interface {
	// PathFor turns a pure-posix PathIn/PathOut path into a real
	// filesystem path.
	PathFor(path string) (string, error)
	// NodeResult returns n's current result, failing if n has not been
	// run (or loaded from cache) yet.
	NodeResult(n *graph.Node) (any, error)
	// ResourceValue returns the user-visible form of the resource node n,
	// via its provider's resolve(handle).
	ResourceValue(n *graph.Node) (any, error)
	// CTXValue returns the value substituted for yapeop.CTX.
	CTXValue() any
}

// CustomResolver may short-circuit the substitution of any pre-walk
// value, returning (value, true, nil) to take over, or (nil, false, nil)
// to let the default substitution rules apply. It is used by rewriters
// that need to remap node references to freshly-created replacements
// (spec 4.F "used by the mingraph rewriter").
type CustomResolver func(raw any) (value any, handled bool, err error)

// Resolve produces a new operator with every argument atom substituted
// by its concrete value, ready for yapeop.RunOp. A cache from value
// identity to resolved value is maintained for the duration of one call,
// mirroring the walk protocol's ValueId/Ref scheme so that shared or
// cyclic argument structure resolves to exactly one object instance.
func Resolve(op yapeop.NodeOp, ctx Context, custom CustomResolver) (yapeop.NodeOp, error) {
	r := &resolveWalker{ctx: ctx, custom: custom, cache: map[walk.IdentityKey]any{}}
	resolved, err := r.resolveOp(op)
	if err != nil {
		log.Debug("resolution failed", "error", err)
		return nil, err
	}
	log.Trace("resolved operator", "type", fmt.Sprintf("%T", op))
	return resolved, nil
}

type resolveWalker struct {
	ctx    Context
	custom CustomResolver
	cache  map[walk.IdentityKey]any
}

func (r *resolveWalker) resolveOp(op yapeop.NodeOp) (yapeop.NodeOp, error) {
	switch op := op.(type) {
	case yapeop.Data:
		// Data already carries its concrete payload.
		return op, nil
	case yapeop.Value:
		v, err := r.resolveValue(op.V)
		if err != nil {
			return nil, err
		}
		return yapeop.Value{V: v}, nil
	case yapeop.GetItem:
		obj, err := r.resolveValue(op.Obj)
		if err != nil {
			return nil, err
		}
		key, err := r.resolveValue(op.Key)
		if err != nil {
			return nil, err
		}
		return yapeop.GetItem{Obj: obj, Key: key}, nil
	case yapeop.GetAttr:
		obj, err := r.resolveValue(op.Obj)
		if err != nil {
			return nil, err
		}
		return yapeop.GetAttr{Obj: obj, Name: op.Name}, nil
	case yapeop.Call:
		fn, err := r.resolveValue(op.Fn)
		if err != nil {
			return nil, err
		}
		argsVal, err := r.resolveValue(yapeop.Tuple(op.Args))
		if err != nil {
			return nil, err
		}
		args, _ := argsVal.(yapeop.Tuple)
		kwVal, err := r.resolveValue(op.Kwargs)
		if err != nil {
			return nil, err
		}
		kw, _ := kwVal.(*yapeop.Dict)
		return yapeop.Call{Fn: fn, Args: []any(args), Kwargs: kw}, nil
	case yapeop.Resource:
		req, err := r.resolveValue(op.Request)
		if err != nil {
			return nil, err
		}
		return yapeop.Resource{Request: req, Handle: op.Handle}, nil
	default:
		return nil, fmt.Errorf("resolver: unknown operator type %T", op)
	}
}

func (r *resolveWalker) resolveValue(v any) (any, error) {
	if r.custom != nil {
		if val, handled, err := r.custom(v); err != nil {
			return nil, err
		} else if handled {
			return val, nil
		}
	}

	key, has := walk.Identity(v)
	if has {
		if cached, ok := r.cache[key]; ok {
			return cached, nil
		}
	}

	val, err := r.resolveValueBody(v)
	if err != nil {
		return nil, err
	}
	if has {
		r.cache[key] = val
	}
	return val, nil
}

func (r *resolveWalker) resolveValueBody(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case yapeop.Sentinel:
		if val == yapeop.CTX {
			return r.ctx.CTXValue(), nil
		}
		return nil, nil // UNSET -> nil
	case yapeop.PathIn:
		return r.ctx.PathFor(val.Path)
	case yapeop.PathOut:
		return r.ctx.PathFor(val.Path)
	case yapeop.ResourceIn:
		n, ok := val.Node.(*graph.Node)
		if !ok {
			return nil, yerr.NewResolution("ResourceIn references a non-graph node value")
		}
		return r.ctx.ResourceValue(n)
	case yapeop.ResourceOut:
		n, ok := val.Node.(*graph.Node)
		if !ok {
			return nil, yerr.NewResolution("ResourceOut references a non-graph node value")
		}
		return r.ctx.ResourceValue(n)
	case *graph.Node:
		return r.ctx.NodeResult(val)
	case *yapeop.FuncRef:
		fn, ok := yapeop.LookupFunc(val.Name)
		if !ok {
			return nil, yerr.NewResolution("no function registered under name %q", val.Name)
		}
		return fn, nil
	case yapeop.List:
		out := make(yapeop.List, len(val))
		for i, e := range val {
			rv, err := r.resolveValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case yapeop.Tuple:
		out := make(yapeop.Tuple, len(val))
		for i, e := range val {
			rv, err := r.resolveValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case *yapeop.Dict:
		out := yapeop.NewDict()
		for _, k := range val.Keys() {
			cv, _ := val.Get(k)
			rv, err := r.resolveValue(cv)
			if err != nil {
				return nil, err
			}
			out.Set(k, rv)
		}
		return out, nil
	default:
		// Other: pass through unchanged.
		return v, nil
	}
}
