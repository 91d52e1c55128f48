// Package walk implements the walk protocol (spec 4.B): a deterministic,
// finite traversal of an operator tree that emits a typed event stream,
// deduplicating aliased or cyclic argument structure via reference IDs.
package walk

import (
	"reflect"

	"github.com/guludo/yape/internal/yapeop"
)

// EventType tags an Event by its class: a string equal to the event
// kind's name.
type EventType string

const (
	OpType      EventType = "OpType"
	DataOp      EventType = "DataOp"
	EvPathIn    EventType = "PathIn"
	EvPathOut   EventType = "PathOut"
	ResourceIn  EventType = "ResourceIn"
	ResourceOut EventType = "ResourceOut"
	EvNode      EventType = "Node"
	EvCTX       EventType = "CTX"
	EvUNSET     EventType = "UNSET"
	EvList      EventType = "List"
	EvTuple     EventType = "Tuple"
	EvDict      EventType = "Dict"
	EvFunc      EventType = "Func"
	EvOther     EventType = "Other"
	ValueID     EventType = "ValueId"
	Ref         EventType = "Ref"
)

// Event is one element of the walk's output stream. Only the fields
// relevant to Type are meaningful; the comment on each field below names
// the event types that use it.
type Event struct {
	Type EventType

	OpName string // OpType
	Value  any    // DataOp, EvOther: the raw leaf value
	Path   string // EvPathIn, EvPathOut
	Node   yapeop.Node

	Size int      // EvList, EvTuple: number of following child streams
	Keys []string // EvDict: keys in iteration order, one child stream per key

	FuncName string    // EvFunc
	Globals  *yapeop.Dict

	ID int // ValueID, Ref
}

// Walk produces the finite, canonical event stream for op.
func Walk(op yapeop.NodeOp) []Event {
	w := &walker{seen: map[identKey]int{}}
	return w.walkOp(op)
}

type walker struct {
	seen map[identKey]int
	next int
}

// identKey identifies a Go value for aliasing purposes. Only reference
// types (pointers, slices, maps, funcs) get real identity in Go; plain
// values (ints, strings, PathIn/PathOut, sentinels) are always walked as
// first-visit because they cannot be mutated or form cycles through
// sharing the way Python objects can.
type identKey struct {
	kind reflect.Kind
	ptr  uintptr
}

// IdentityKey is an opaque comparable key identifying a Go value the way
// the walk protocol does, for packages (like resolver) that need to
// mirror its ValueId/Ref dedup cache with their own map.
type IdentityKey = identKey

// Identity returns v's identity key and whether v is a reference type
// that can carry real aliasing (see identKey).
func Identity(v any) (IdentityKey, bool) {
	return identityOf(v)
}

func identityOf(v any) (identKey, bool) {
	if v == nil {
		return identKey{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			return identKey{}, false
		}
		return identKey{kind: rv.Kind(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.IsNil() {
			return identKey{}, false
		}
		return identKey{kind: rv.Kind(), ptr: rv.Pointer()}, true
	}
	return identKey{}, false
}

func (w *walker) walkOp(op yapeop.NodeOp) []Event {
	events := []Event{{Type: OpType, OpName: opCodeName(op)}}

	switch op := op.(type) {
	case yapeop.Data:
		// Data is inspected specially by the descriptor layer (which may
		// replace Payload with nil when ID is set); here we just carry it
		// through unconditionally.
		events = append(events, Event{Type: DataOp, Value: op.Payload})
		return events
	case yapeop.Value:
		events = append(events, w.walkValue(op.V)...)
	case yapeop.GetItem:
		events = append(events, w.walkValue(op.Obj)...)
		events = append(events, w.walkValue(op.Key)...)
	case yapeop.GetAttr:
		events = append(events, w.walkValue(op.Obj)...)
		events = append(events, Event{Type: EvOther, Value: op.Name})
	case yapeop.Call:
		events = append(events, w.walkValue(op.Fn)...)
		events = append(events, w.walkValue(yapeop.Tuple(op.Args))...)
		events = append(events, w.walkValue(op.Kwargs)...)
	case yapeop.Resource:
		events = append(events, w.walkValue(op.Request)...)
	}
	return events
}

func opCodeName(op yapeop.NodeOp) string {
	switch op.(type) {
	case yapeop.Data:
		return "Data"
	case yapeop.Value:
		return "Value"
	case yapeop.GetItem:
		return "GetItem"
	case yapeop.GetAttr:
		return "GetAttr"
	case yapeop.Call:
		return "Call"
	case yapeop.Resource:
		return "Resource"
	default:
		return "Unknown"
	}
}

func (w *walker) walkValue(v any) []Event {
	if key, has := identityOf(v); has {
		if id, ok := w.seen[key]; ok {
			return []Event{{Type: Ref, ID: id}}
		}
		id := w.next
		w.next++
		w.seen[key] = id
		return append([]Event{{Type: ValueID, ID: id}}, w.walkValueBody(v)...)
	}
	return w.walkValueBody(v)
}

func (w *walker) walkValueBody(v any) []Event {
	switch val := v.(type) {
	case nil:
		return []Event{{Type: EvOther, Value: nil}}
	case yapeop.Sentinel:
		if val == yapeop.CTX {
			return []Event{{Type: EvCTX}}
		}
		return []Event{{Type: EvUNSET}}
	case yapeop.PathIn:
		return []Event{{Type: EvPathIn, Path: val.Path}}
	case yapeop.PathOut:
		return []Event{{Type: EvPathOut, Path: val.Path}}
	case yapeop.ResourceIn:
		return []Event{{Type: ResourceIn, Node: val.Node}}
	case yapeop.ResourceOut:
		return []Event{{Type: ResourceOut, Node: val.Node}}
	case yapeop.Node:
		return []Event{{Type: EvNode, Node: val}}
	case *yapeop.FuncRef:
		events := []Event{{Type: EvFunc, FuncName: val.Name, Globals: val.Globals}}
		events = append(events, w.walkValue(val.Globals)...)
		return events
	case yapeop.List:
		events := []Event{{Type: EvList, Size: len(val)}}
		for _, e := range val {
			events = append(events, w.walkValue(e)...)
		}
		return events
	case yapeop.Tuple:
		events := []Event{{Type: EvTuple, Size: len(val)}}
		for _, e := range val {
			events = append(events, w.walkValue(e)...)
		}
		return events
	case *yapeop.Dict:
		keys := val.Keys()
		events := []Event{{Type: EvDict, Keys: keys}}
		for _, k := range keys {
			cv, _ := val.Get(k)
			events = append(events, w.walkValue(cv)...)
		}
		return events
	default:
		return []Event{{Type: EvOther, Value: v}}
	}
}
