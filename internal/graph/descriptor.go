package graph

import (
	"bytes"
	"sort"

	"github.com/guludo/yape/internal/descriptor"
	"github.com/guludo/yape/internal/walk"
	"github.com/guludo/yape/internal/yapeop"
)

// NodeDescriptor returns the canonical event tuple fingerprinting n for
// cache-equivalence purposes (spec 4.C). When cache is true and n's
// operator is not a mutable Value, the result is memoized on n.
func NodeDescriptor(n *Node, cache bool) descriptor.Descriptor {
	_, isValue := n.op.(yapeop.Value)
	cacheable := cache && !isValue

	if cacheable {
		n.mu.Lock()
		if n.descCached {
			d := n.descCache
			n.mu.Unlock()
			return d
		}
		n.mu.Unlock()
	}

	d := computeNodeDescriptor(n, nil)

	if cacheable {
		n.mu.Lock()
		n.descCache = d
		n.descCached = true
		n.mu.Unlock()
	}
	return d
}

// computeNodeDescriptor is the uncached core of the algorithm. breakFor,
// when non-nil, is the resource node whose own descriptor is currently
// being assembled via its producers' ResourceOut references; encountering
// a reference back to that same node emits a ProducedResourceDescriptor
// marker instead of recursing forever.
func computeNodeDescriptor(n *Node, breakFor *Node) descriptor.Descriptor {
	op := n.op
	if d, ok := op.(yapeop.Data); ok && d.ID != "" {
		// The id alone identifies the data; its payload bytes must not
		// affect the cache key.
		op = yapeop.Data{Payload: nil, ID: d.ID}
	}

	var out descriptor.Descriptor
	out = append(out, descriptor.Event{Tag: descriptor.PathinsDescriptor, Strs: pathInStrs(n.pathIns)})
	out = append(out, descriptor.Event{Tag: descriptor.PathoutsDescriptor, Strs: pathOutStrs(n.pathOuts)})
	out = append(out, resourceProducersDescriptor(n)...)
	out = append(out, convertEvents(walk.Walk(op), breakFor)...)
	return out
}

func resourceProducersDescriptor(n *Node) []descriptor.Event {
	producers := n.resourceProducers
	descs := make([]descriptor.Descriptor, len(producers))
	for i, p := range producers {
		descs[i] = computeNodeDescriptor(p, n)
	}
	// Sort by encoded bytes: since every descriptor here is already
	// reduced to a byte string, this gives a total, deterministic order
	// without needing a separate comparison fallback for values that
	// might not otherwise be comparable.
	sort.Slice(descs, func(i, j int) bool {
		return bytes.Compare(descriptor.Encode(descs[i]), descriptor.Encode(descs[j])) < 0
	})
	out := []descriptor.Event{{Tag: descriptor.ResourceProducersDesc, Int: len(descs)}}
	for _, d := range descs {
		out = append(out, d...)
	}
	return out
}

func convertEvents(events []walk.Event, breakFor *Node) []descriptor.Event {
	out := make([]descriptor.Event, 0, len(events))
	for _, e := range events {
		switch e.Type {
		case walk.OpType:
			out = append(out, descriptor.Event{Tag: descriptor.OpType, Str: e.OpName})
		case walk.DataOp:
			out = append(out, descriptor.Event{Tag: descriptor.DataOp, Bytes: encodeLeaf(e.Value)})
		case walk.EvPathIn:
			out = append(out, descriptor.Event{Tag: descriptor.PathIn, Str: e.Path})
		case walk.EvPathOut:
			out = append(out, descriptor.Event{Tag: descriptor.PathOut, Str: e.Path})
		case walk.ResourceIn:
			out = append(out, descriptor.Event{Tag: descriptor.ResourceIn})
			out = append(out, resourceRefDescriptor(e.Node.(*Node), breakFor)...)
		case walk.ResourceOut:
			out = append(out, descriptor.Event{Tag: descriptor.ResourceOut})
			out = append(out, resourceRefDescriptor(e.Node.(*Node), breakFor)...)
		case walk.EvNode:
			out = append(out, descriptor.Event{Tag: descriptor.Node})
			target := e.Node.(*Node)
			out = append(out, nodeDescriptorWithBreak(target, breakFor)...)
		case walk.EvCTX:
			out = append(out, descriptor.Event{Tag: descriptor.CTX})
		case walk.EvUNSET:
			out = append(out, descriptor.Event{Tag: descriptor.UNSET})
		case walk.EvList:
			out = append(out, descriptor.Event{Tag: descriptor.List, Int: e.Size})
		case walk.EvTuple:
			out = append(out, descriptor.Event{Tag: descriptor.TupleTag, Int: e.Size})
		case walk.EvDict:
			out = append(out, descriptor.Event{Tag: descriptor.DictTag, Strs: e.Keys})
		case walk.EvFunc:
			out = append(out, descriptor.Event{Tag: descriptor.Func, Str: e.FuncName})
		case walk.ValueID:
			out = append(out, descriptor.Event{Tag: descriptor.ValueID, Int: e.ID})
		case walk.Ref:
			out = append(out, descriptor.Event{Tag: descriptor.Ref, Int: e.ID})
		case walk.EvOther:
			if m, ok := e.Value.(yapeop.ModuleRef); ok {
				out = append(out, descriptor.Event{Tag: descriptor.Module, Str: m.Name})
			} else {
				out = append(out, descriptor.Event{Tag: descriptor.Other, Bytes: encodeLeaf(e.Value)})
			}
		}
	}
	return out
}

func resourceRefDescriptor(target *Node, breakFor *Node) []descriptor.Event {
	if target == breakFor {
		return []descriptor.Event{{Tag: descriptor.ProducedResourceDesc}}
	}
	return nodeDescriptorWithBreak(target, breakFor)
}

func nodeDescriptorWithBreak(n *Node, breakFor *Node) descriptor.Descriptor {
	if breakFor == nil {
		return NodeDescriptor(n, true)
	}
	return computeNodeDescriptor(n, breakFor)
}

func encodeLeaf(v any) []byte {
	b, err := descriptor.EncodeValue(v)
	if err != nil {
		// Values that cannot be encoded still need to participate in the
		// descriptor deterministically; we fall back to their Go-syntax
		// representation, which is at least stable for a given value.
		return []byte(sprintFallback(v))
	}
	return b
}

func pathInStrs(ps []yapeop.PathIn) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Path
	}
	return out
}

func pathOutStrs(ps []yapeop.PathOut) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Path
	}
	return out
}
