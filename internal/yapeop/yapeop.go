// Package yapeop defines the operator model: the NodeOp sum type that
// describes every kind of deferred computation a yape node can hold, the
// path and resource markers used as operator arguments, and the two
// sentinel values CTX and UNSET.
//
// This package intentionally knows nothing about graphs, walking, caching
// or execution -- it is the tagged representation only. The walk protocol
// (package walk) interprets it; the resolver (package resolver) and the
// primitive dispatcher (RunOp, below) give it meaning.
package yapeop

import "fmt"

// Sentinel is the type of the two module-wide singletons CTX and UNSET.
type Sentinel struct{ name string }

func (s Sentinel) String() string { return s.name }

var (
	// CTX is the placeholder substituted by the resolver with the
	// per-node execution context at resolve time.
	CTX = Sentinel{"CTX"}
	// UNSET stands for "no value"; it is the default content of a
	// Value operator that has never been set.
	UNSET = Sentinel{"UNSET"}
)

// PathIn wraps a pure-posix path supplied as an operator argument. The
// resolver turns it into a real filesystem path at execution time.
type PathIn struct{ Path string }

// PathOut wraps a pure-posix path declared as a node's output. The
// resolver turns it into a real filesystem path at execution time, and
// the runner ensures its parent directory exists before execution.
type PathOut struct{ Path string }

// ModuleRef identifies a shared module/package by name rather than by
// value, mirroring CPython modules being singletons identified by their
// import name (spec 4.C: "Other(v) ... later replaced by a
// ModuleDescriptor(name) in the node descriptor"). Go has no runtime
// "module object" equivalent, so callers that want this behavior (e.g. a
// Call operator whose Fn comes from a particular plugin package) pass a
// ModuleRef explicitly instead of relying on introspection.
type ModuleRef struct{ Name string }

// Node is implemented by *graph.Node. It is declared here, rather than
// importing the graph package, so that the operator model and the walk
// protocol do not depend on the graph package -- the graph package
// depends on them instead.
type Node interface {
	// yapeNode is unexported so graph.Node is the only implementation.
	yapeNode()
}

// ResourceIn wraps a reference to a Resource node being consumed as an
// argument. Resource nodes must never appear bare as arguments (see
// ArgumentShapeError); this wrapper is how the walk protocol and the
// resolver recognize the intent.
type ResourceIn struct{ Node Node }

// ResourceOut wraps a reference to a Resource node being declared as
// produced by the node that holds this argument.
type ResourceOut struct{ Node Node }

// List marks a nested argument that should be walked and descriptored as
// an ordered, mutable sequence (as opposed to Tuple, an ordered, fixed
// sequence). The distinction only matters for the node descriptor: two
// operators differing only in List-vs-Tuple shape are not cache-equivalent.
type List []any

// Tuple marks a nested argument walked and descriptored as an ordered,
// fixed sequence. Call.Args is always walked with Tuple semantics,
// matching positional arguments being an immutable sequence.
type Tuple []any

// Dict is an explicitly-ordered key/value sequence, used anywhere the
// spec calls for "Dict(keys)" events with keys in iteration (insertion)
// order. A plain Go map cannot be used here because map iteration order
// is intentionally randomized; Dict preserves the order its entries were
// added in, which node-descriptor determinism depends on.
type Dict struct {
	keys   []string
	values []any
	index  map[string]int
}

// NewDict builds a Dict from alternating key/value arguments, e.g.
// NewDict("a", 1, "b", 2).
func NewDict(kv ...any) *Dict {
	d := &Dict{index: map[string]int{}}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		d.Set(key, kv[i+1])
	}
	return d
}

// Set inserts or updates key. Updating an existing key preserves its
// original position, matching Python dict semantics.
func (d *Dict) Set(key string, value any) *Dict {
	if d.index == nil {
		d.index = map[string]int{}
	}
	if i, ok := d.index[key]; ok {
		d.values[i] = value
		return d
	}
	d.index[key] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, value)
	return d
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return d.keys
}

// Get returns the value for key and whether it was present.
func (d *Dict) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.values[i], true
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// NodeOp is the tagged sum of deferred computations a Node may hold.
type NodeOp interface {
	nodeOp()
}

// Data is an inline value. If ID is non-empty, the payload is
// semantically identified by ID alone and its bytes are excluded from
// the node descriptor.
type Data struct {
	Payload any
	ID      string
}

// Value is a mutable cell; V may be UNSET.
type Value struct {
	V any
}

// GetItem is deferred indexed access: Obj[Key].
type GetItem struct {
	Obj any
	Key any
}

// GetAttr is deferred attribute access: Obj.Name.
type GetAttr struct {
	Obj  any
	Name string
}

// Call is invocation of Fn with positional Args and keyed Kwargs. Fn is
// typically a *FuncRef (see RegisterFunc) so that it survives a graph
// save/load round-trip; a bare Go func value works for in-process use
// but cannot be named in a saved graph.
type Call struct {
	Fn     any
	Args   []any
	Kwargs *Dict
}

// Resource declares a resource to be created/resolved by a matching
// provider. Handle is carried through resolution unchanged; a run does
// not fill it in. The handle a provider creates is stored as the node's
// State result instead.
type Resource struct {
	Request any
	Handle  any
}

func (Data) nodeOp()     {}
func (Value) nodeOp()    {}
func (GetItem) nodeOp()  {}
func (GetAttr) nodeOp()  {}
func (Call) nodeOp()     {}
func (Resource) nodeOp() {}

// Indexer lets a value opt into GetItem semantics beyond the built-in
// map/slice/Dict support.
type Indexer interface {
	GetItem(key any) (any, error)
}

// Attrer lets a value opt into GetAttr semantics beyond the built-in
// struct-field/map support.
type Attrer interface {
	GetAttr(name string) (any, error)
}

// ResourceProvider is the narrow slice of the resource model (package
// resource) that RunOp needs in order to execute a Resource operator. It
// is declared here to avoid an import cycle; package resource's Stack
// type implements it.
type ResourceProvider interface {
	CreateFor(request any) (handle any, err error)
}

// RunOp is the core dispatching primitive (4.A): it executes a *resolved*
// operator (one whose arguments are already concrete values, produced by
// the resolver) and returns its result.
//
// providers is used only for Resource operators; it may be nil if op is
// known not to be a Resource.
func RunOp(op NodeOp, providers ResourceProvider) (any, error) {
	switch op := op.(type) {
	case Data:
		return op.Payload, nil
	case Value:
		if op.V == UNSET {
			return nil, nil
		}
		return op.V, nil
	case GetItem:
		return getItem(op.Obj, op.Key)
	case GetAttr:
		return getAttr(op.Obj, op.Name)
	case Call:
		return callFn(op.Fn, op.Args, op.Kwargs)
	case Resource:
		if providers == nil {
			return nil, fmt.Errorf("yapeop: Resource operator resolved without a provider stack")
		}
		return providers.CreateFor(op.Request)
	default:
		return nil, fmt.Errorf("yapeop: unknown operator type %T", op)
	}
}
