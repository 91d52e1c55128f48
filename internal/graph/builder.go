package graph

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/guludo/yape/internal/walk"
	"github.com/guludo/yape/internal/yapeop"
	"github.com/guludo/yape/internal/yerr"
)

// Option configures a node at construction time.
type Option func(*nodeOpts)

type nodeOpts struct {
	name       string
	namePrefix string
	always     bool
	extraIns   []string
	extraOuts  []string
}

// WithName gives the node an explicit name.
func WithName(name string) Option { return func(o *nodeOpts) { o.name = name } }

// WithNamePrefix sets the auto-naming prefix used when no explicit name
// is given.
func WithNamePrefix(p string) Option { return func(o *nodeOpts) { o.namePrefix = p } }

// WithAlways marks the node as always must-run.
func WithAlways() Option { return func(o *nodeOpts) { o.always = true } }

// WithExtraPathIn declares an additional PathIn not otherwise discovered
// by walking the operator.
func WithExtraPathIn(p string) Option {
	return func(o *nodeOpts) { o.extraIns = append(o.extraIns, p) }
}

// WithExtraPathOut declares an additional PathOut not otherwise
// discovered by walking the operator.
func WithExtraPathOut(p string) Option {
	return func(o *nodeOpts) { o.extraOuts = append(o.extraOuts, p) }
}

func applyOpts(opts []Option) nodeOpts {
	var o nodeOpts
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// New builds and registers a node holding op in scope (or the current
// build scope if scope is nil).
func New(scope *Graph, op yapeop.NodeOp, opts ...Option) (*Node, error) {
	if scope == nil {
		scope = CurrentScope()
	}
	o := applyOpts(opts)

	if err := checkArgumentShape(op); err != nil {
		return nil, err
	}

	pathIns, pathOuts := discoverPaths(op)
	for _, extra := range o.extraIns {
		pathIns = append(pathIns, yapeop.PathIn{Path: extra})
	}
	for _, extra := range o.extraOuts {
		pathOuts = append(pathOuts, yapeop.PathOut{Path: extra})
	}

	prefix := o.namePrefix
	if prefix == "" {
		prefix = defaultPrefix(op)
	}

	n := &Node{
		op:           op,
		name:         o.name,
		namePrefix:   prefix,
		explicitName: o.name != "",
		always:       o.always,
		pathIns:      pathIns,
		pathOuts:     pathOuts,
	}

	if err := scope.addNode(n); err != nil {
		return nil, err
	}

	registerResourceProducers(n)
	return n, nil
}

// registerResourceProducers scans n's operator for ResourceOut arguments
// and records n as a producer on the referenced resource node.
func registerResourceProducers(n *Node) {
	for _, e := range walk.Walk(n.op) {
		if e.Type == walk.ResourceOut {
			target := e.Node.(*Node)
			target.mu.Lock()
			target.resourceProducers = append(target.resourceProducers, n)
			target.mu.Unlock()
		}
	}
}

// checkArgumentShape enforces that Resource nodes never appear bare as
// arguments, and that Attr() is never used with a "_"-prefixed name
// (enforced in Attr below; walking alone cannot see the string except
// via GetAttr.Name, checked here too for completeness).
func checkArgumentShape(op yapeop.NodeOp) error {
	if ga, ok := op.(yapeop.GetAttr); ok && strings.HasPrefix(ga.Name, "_") {
		return yerr.NewArgumentShape("attribute name %q must not start with '_'", ga.Name)
	}
	for _, e := range walk.Walk(op) {
		if e.Type != walk.EvNode {
			continue
		}
		target, ok := e.Node.(*Node)
		if !ok {
			continue
		}
		if _, isResource := target.op.(yapeop.Resource); isResource {
			return yerr.NewArgumentShape(
				"resource node %q used as a bare argument; wrap it in ResourceIn or ResourceOut", target.FullName())
		}
	}
	return nil
}

func discoverPaths(op yapeop.NodeOp) ([]yapeop.PathIn, []yapeop.PathOut) {
	var ins []yapeop.PathIn
	var outs []yapeop.PathOut
	for _, e := range walk.Walk(op) {
		switch e.Type {
		case walk.EvPathIn:
			ins = append(ins, yapeop.PathIn{Path: e.Path})
		case walk.EvPathOut:
			outs = append(outs, yapeop.PathOut{Path: e.Path})
		}
	}
	return ins, outs
}

func defaultPrefix(op yapeop.NodeOp) string {
	switch op := op.(type) {
	case yapeop.Call:
		return callableName(op.Fn)
	case yapeop.Data:
		return "data"
	case yapeop.Value:
		return "value"
	case yapeop.GetItem:
		return "item"
	case yapeop.GetAttr:
		if op.Name != "" {
			return op.Name
		}
		return "attr"
	case yapeop.Resource:
		return "resource"
	default:
		return "node"
	}
}

func callableName(fn any) string {
	if ref, ok := fn.(*yapeop.FuncRef); ok && ref.Name != "" {
		return lastSegment(ref.Name)
	}
	if fn == nil {
		return "call"
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() == reflect.Func {
		if f := runtime.FuncForPC(rv.Pointer()); f != nil {
			return lastSegment(f.Name())
		}
	}
	return "call"
}

func lastSegment(s string) string {
	if i := strings.LastIndexAny(s, "./"); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// --- convenience constructors ---

// Data creates a Data node. A non-empty id makes the payload bytes
// irrelevant to the node descriptor: two Data nodes with the same id are
// cache-interchangeable regardless of payload.
func Data(scope *Graph, payload any, id string, opts ...Option) (*Node, error) {
	return New(scope, yapeop.Data{Payload: payload, ID: id}, opts...)
}

// ValueNode creates a mutable Value node, initially holding v (which may
// be yapeop.UNSET).
func ValueNode(scope *Graph, v any, opts ...Option) (*Node, error) {
	return New(scope, yapeop.Value{V: v}, opts...)
}

// CallNode creates a Call node invoking fn with args and kwargs.
func CallNode(scope *Graph, fn any, args []any, kwargs *yapeop.Dict, opts ...Option) (*Node, error) {
	return New(scope, yapeop.Call{Fn: fn, Args: args, Kwargs: kwargs}, opts...)
}

// ResourceNode creates a Resource node declaring request.
func ResourceNode(scope *Graph, request any, opts ...Option) (*Node, error) {
	return New(scope, yapeop.Resource{Request: request}, opts...)
}

// Item builds a GetItem node reading n[key], attached to n's graph.
func (n *Node) Item(key any, opts ...Option) (*Node, error) {
	return New(n.graph, yapeop.GetItem{Obj: n, Key: key}, opts...)
}

// Attr builds a GetAttr node reading n.name, attached to n's graph. Names
// starting with "_" are rejected (spec 7 ArgumentShapeError).
func (n *Node) Attr(name string, opts ...Option) (*Node, error) {
	if strings.HasPrefix(name, "_") {
		return nil, yerr.NewArgumentShape("attribute name %q must not start with '_'", name)
	}
	return New(n.graph, yapeop.GetAttr{Obj: n, Name: name}, opts...)
}
