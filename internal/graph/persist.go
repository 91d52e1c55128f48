package graph

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-multierror"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/guludo/yape/internal/yapeop"
)

// Save serializes root (and everything reachable from it) to an opaque
// binary form; Load reconstructs a functionally-equivalent graph from
// that form. The wire format is yape's own deterministic, tagged
// msgpack encoding, chosen for its stability across process boundaries.
func Save(root *Graph) ([]byte, error) {
	nodes := root.RecurseNodes(nil)
	nodeIdx := make(map[*Node]int, len(nodes))
	for i, n := range nodes {
		nodeIdx[n] = i
	}

	wireNodes := make([]wireNode, len(nodes))
	for i, n := range nodes {
		op, err := encodeOp(n.op, nodeIdx)
		if err != nil {
			return nil, fmt.Errorf("graph: encoding node %q: %w", n.FullName(), err)
		}
		wireNodes[i] = wireNode{
			Name:       n.name,
			NamePrefix: n.namePrefix,
			Always:     n.always,
			PathIns:    pathInStrs(n.pathIns),
			PathOuts:   pathOutStrs(n.pathOuts),
			Op:         op,
		}
	}

	wf := wireFile{
		Root:  encodeGraphShape(root, nodeIdx),
		Nodes: wireNodes,
	}
	return msgpack.Marshal(wf)
}

// Load reconstructs a graph previously produced by Save.
func Load(data []byte) (*Graph, error) {
	var wf wireFile
	if err := msgpack.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("graph: decoding: %w", err)
	}

	nodes := make([]*Node, len(wf.Nodes))
	for i, wn := range wf.Nodes {
		nodes[i] = &Node{
			name:       wn.Name,
			namePrefix: wn.NamePrefix,
			always:     wn.Always,
			pathIns:    toPathIns(wn.PathIns),
			pathOuts:   toPathOuts(wn.PathOuts),
		}
	}

	root := decodeGraphShape(wf.Root, nodes, nil)

	for i, wn := range wf.Nodes {
		op, err := decodeOp(wn.Op, nodes)
		if err != nil {
			return nil, fmt.Errorf("graph: decoding node %q: %w", wn.Name, err)
		}
		nodes[i].op = op
	}

	var merr *multierror.Error
	for _, n := range root.RecurseNodes(nil) {
		for _, po := range n.pathOuts {
			if err := n.graph.registerPathOut(po.Path, n); err != nil {
				merr = multierror.Append(merr, err)
			}
		}
		registerResourceProducers(n)
	}
	if merr != nil {
		return nil, merr.ErrorOrNil()
	}

	return root, nil
}

func encodeGraphShape(g *Graph, nodeIdx map[*Node]int) wireGraph {
	wg := wireGraph{Name: g.name, NamePrefix: g.namePrefix}
	for _, n := range g.Nodes() {
		wg.Nodes = append(wg.Nodes, nodeIdx[n])
	}
	for _, sub := range g.Subgraphs() {
		wg.Subgraphs = append(wg.Subgraphs, encodeGraphShape(sub, nodeIdx))
	}
	return wg
}

func decodeGraphShape(wg wireGraph, nodes []*Node, parent *Graph) *Graph {
	g := &Graph{name: wg.Name, namePrefix: wg.NamePrefix, parent: parent, children: map[string]any{}}
	for _, idx := range wg.Nodes {
		n := nodes[idx]
		n.graph = g
		g.nodes = append(g.nodes, n)
		g.children[n.name] = n
	}
	for _, wsub := range wg.Subgraphs {
		sub := decodeGraphShape(wsub, nodes, g)
		g.subgraphs = append(g.subgraphs, sub)
		g.children[sub.name] = sub
	}
	return g
}

// --- wire shapes ---

type wireFile struct {
	Root  wireGraph
	Nodes []wireNode
}

type wireGraph struct {
	Name       string
	NamePrefix string
	Nodes      []int
	Subgraphs  []wireGraph
}

type wireNode struct {
	Name       string
	NamePrefix string
	Always     bool
	PathIns    []string
	PathOuts   []string
	Op         wireOp
}

// wireOp carries one NodeOp variant. Kind selects which of the
// value-shaped fields are meaningful; unused fields are left zero.
type wireOp struct {
	Kind string

	// Data
	DataID      string
	DataPayload wireVal

	// Value
	ValueV wireVal

	// GetItem
	ItemObj wireVal
	ItemKey wireVal

	// GetAttr
	AttrObj  wireVal
	AttrName string

	// Call
	CallFn     wireVal
	CallArgs   []wireVal
	CallKwKeys []string
	CallKwVals []wireVal

	// Resource
	ResourceRequest wireVal
}

// wireVal encodes one argument value: a node reference (by index), a
// path/resource/sentinel marker, a nested container, a registered
// function reference, or an opaque msgpack-encoded leaf.
type wireVal struct {
	Kind string

	NodeIdx int

	Path string // pathin, pathout

	FuncName       string // func
	FuncGlobalsSet bool
	FuncGlobals    wireVal

	Items []wireVal // list, tuple

	DictKeys []string // dict
	DictVals []wireVal

	Leaf []byte // other: msgpack-encoded arbitrary value
}

const (
	vkNil      = "nil"
	vkNode     = "node"
	vkResIn    = "resIn"
	vkResOut   = "resOut"
	vkPathIn   = "pathIn"
	vkPathOut  = "pathOut"
	vkCTX      = "ctx"
	vkUNSET    = "unset"
	vkList     = "list"
	vkTuple    = "tuple"
	vkDict     = "dict"
	vkFunc     = "func"
	vkOther    = "other"
)

func encodeOp(op yapeop.NodeOp, idx map[*Node]int) (wireOp, error) {
	var w wireOp
	var err error
	switch op := op.(type) {
	case yapeop.Data:
		w.Kind = "Data"
		w.DataID = op.ID
		w.DataPayload, err = encodeVal(op.Payload, idx)
	case yapeop.Value:
		w.Kind = "Value"
		w.ValueV, err = encodeVal(op.V, idx)
	case yapeop.GetItem:
		w.Kind = "GetItem"
		if w.ItemObj, err = encodeVal(op.Obj, idx); err != nil {
			break
		}
		w.ItemKey, err = encodeVal(op.Key, idx)
	case yapeop.GetAttr:
		w.Kind = "GetAttr"
		w.AttrName = op.Name
		w.AttrObj, err = encodeVal(op.Obj, idx)
	case yapeop.Call:
		w.Kind = "Call"
		if w.CallFn, err = encodeVal(op.Fn, idx); err != nil {
			break
		}
		w.CallArgs = make([]wireVal, len(op.Args))
		for i, a := range op.Args {
			if w.CallArgs[i], err = encodeVal(a, idx); err != nil {
				break
			}
		}
		if err == nil {
			for _, k := range op.Kwargs.Keys() {
				v, _ := op.Kwargs.Get(k)
				wv, e := encodeVal(v, idx)
				if e != nil {
					err = e
					break
				}
				w.CallKwKeys = append(w.CallKwKeys, k)
				w.CallKwVals = append(w.CallKwVals, wv)
			}
		}
	case yapeop.Resource:
		w.Kind = "Resource"
		w.ResourceRequest, err = encodeVal(op.Request, idx)
	default:
		return w, fmt.Errorf("unsupported operator type %T", op)
	}
	return w, err
}

func decodeOp(w wireOp, nodes []*Node) (yapeop.NodeOp, error) {
	switch w.Kind {
	case "Data":
		v, err := decodeVal(w.DataPayload, nodes)
		return yapeop.Data{Payload: v, ID: w.DataID}, err
	case "Value":
		v, err := decodeVal(w.ValueV, nodes)
		return yapeop.Value{V: v}, err
	case "GetItem":
		obj, err := decodeVal(w.ItemObj, nodes)
		if err != nil {
			return nil, err
		}
		key, err := decodeVal(w.ItemKey, nodes)
		return yapeop.GetItem{Obj: obj, Key: key}, err
	case "GetAttr":
		obj, err := decodeVal(w.AttrObj, nodes)
		return yapeop.GetAttr{Obj: obj, Name: w.AttrName}, err
	case "Call":
		fn, err := decodeVal(w.CallFn, nodes)
		if err != nil {
			return nil, err
		}
		args := make([]any, len(w.CallArgs))
		for i, a := range w.CallArgs {
			if args[i], err = decodeVal(a, nodes); err != nil {
				return nil, err
			}
		}
		kw := yapeop.NewDict()
		for i, k := range w.CallKwKeys {
			v, err := decodeVal(w.CallKwVals[i], nodes)
			if err != nil {
				return nil, err
			}
			kw.Set(k, v)
		}
		return yapeop.Call{Fn: fn, Args: args, Kwargs: kw}, nil
	case "Resource":
		req, err := decodeVal(w.ResourceRequest, nodes)
		return yapeop.Resource{Request: req}, err
	default:
		return nil, fmt.Errorf("unknown operator kind %q", w.Kind)
	}
}

func encodeVal(v any, idx map[*Node]int) (wireVal, error) {
	switch val := v.(type) {
	case nil:
		return wireVal{Kind: vkNil}, nil
	case *Node:
		return wireVal{Kind: vkNode, NodeIdx: idx[val]}, nil
	case yapeop.ResourceIn:
		n := val.Node.(*Node)
		return wireVal{Kind: vkResIn, NodeIdx: idx[n]}, nil
	case yapeop.ResourceOut:
		n := val.Node.(*Node)
		return wireVal{Kind: vkResOut, NodeIdx: idx[n]}, nil
	case yapeop.PathIn:
		return wireVal{Kind: vkPathIn, Path: val.Path}, nil
	case yapeop.PathOut:
		return wireVal{Kind: vkPathOut, Path: val.Path}, nil
	case yapeop.Sentinel:
		if val == yapeop.CTX {
			return wireVal{Kind: vkCTX}, nil
		}
		return wireVal{Kind: vkUNSET}, nil
	case yapeop.List:
		items := make([]wireVal, len(val))
		for i, e := range val {
			wv, err := encodeVal(e, idx)
			if err != nil {
				return wireVal{}, err
			}
			items[i] = wv
		}
		return wireVal{Kind: vkList, Items: items}, nil
	case yapeop.Tuple:
		items := make([]wireVal, len(val))
		for i, e := range val {
			wv, err := encodeVal(e, idx)
			if err != nil {
				return wireVal{}, err
			}
			items[i] = wv
		}
		return wireVal{Kind: vkTuple, Items: items}, nil
	case *yapeop.Dict:
		wv := wireVal{Kind: vkDict}
		for _, k := range val.Keys() {
			cv, _ := val.Get(k)
			ev, err := encodeVal(cv, idx)
			if err != nil {
				return wireVal{}, err
			}
			wv.DictKeys = append(wv.DictKeys, k)
			wv.DictVals = append(wv.DictVals, ev)
		}
		return wv, nil
	case *yapeop.FuncRef:
		wv := wireVal{Kind: vkFunc, FuncName: val.Name}
		if val.Globals != nil {
			gv, err := encodeVal(val.Globals, idx)
			if err != nil {
				return wireVal{}, err
			}
			wv.FuncGlobalsSet = true
			wv.FuncGlobals = gv
		}
		return wv, nil
	default:
		warnIfEntryPointType(v)
		b, err := msgpack.Marshal(v)
		if err != nil {
			return wireVal{}, fmt.Errorf("value of type %T cannot be saved: %w", v, err)
		}
		return wireVal{Kind: vkOther, Leaf: b}, nil
	}
}

func decodeVal(w wireVal, nodes []*Node) (any, error) {
	switch w.Kind {
	case vkNil, "":
		return nil, nil
	case vkNode:
		return nodes[w.NodeIdx], nil
	case vkResIn:
		return yapeop.ResourceIn{Node: nodes[w.NodeIdx]}, nil
	case vkResOut:
		return yapeop.ResourceOut{Node: nodes[w.NodeIdx]}, nil
	case vkPathIn:
		return yapeop.PathIn{Path: w.Path}, nil
	case vkPathOut:
		return yapeop.PathOut{Path: w.Path}, nil
	case vkCTX:
		return yapeop.CTX, nil
	case vkUNSET:
		return yapeop.UNSET, nil
	case vkList:
		out := make(yapeop.List, len(w.Items))
		for i, it := range w.Items {
			v, err := decodeVal(it, nodes)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case vkTuple:
		out := make(yapeop.Tuple, len(w.Items))
		for i, it := range w.Items {
			v, err := decodeVal(it, nodes)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case vkDict:
		d := yapeop.NewDict()
		for i, k := range w.DictKeys {
			v, err := decodeVal(w.DictVals[i], nodes)
			if err != nil {
				return nil, err
			}
			d.Set(k, v)
		}
		return d, nil
	case vkFunc:
		ref := &yapeop.FuncRef{Name: w.FuncName}
		if w.FuncGlobalsSet {
			g, err := decodeVal(w.FuncGlobals, nodes)
			if err != nil {
				return nil, err
			}
			ref.Globals, _ = g.(*yapeop.Dict)
		}
		return ref, nil
	case vkOther:
		var v any
		if err := msgpack.Unmarshal(w.Leaf, &v); err != nil {
			return nil, fmt.Errorf("decoding leaf value: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown wire value kind %q", w.Kind)
	}
}

// warnIfEntryPointType logs (never fails) when a value reachable from
// the graph looks like it was defined in the entry-point "main" package:
// such values are fragile across process boundaries, so Save warns
// instead of failing outright.
func warnIfEntryPointType(v any) {
	t := reflect.TypeOf(v)
	if t == nil {
		return
	}
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Map {
		t = t.Elem()
	}
	if t.PkgPath() == "main" {
		log.Warn("graph: value reachable from saved graph is defined in the entry-point package; "+
			"it may not be loadable from a different binary", "type", t.String())
	}
}

func toPathIns(ss []string) []yapeop.PathIn {
	out := make([]yapeop.PathIn, len(ss))
	for i, s := range ss {
		out[i] = yapeop.PathIn{Path: s}
	}
	return out
}

func toPathOuts(ss []string) []yapeop.PathOut {
	out := make([]yapeop.PathOut, len(ss))
	for i, s := range ss {
		out[i] = yapeop.PathOut{Path: s}
	}
	return out
}
