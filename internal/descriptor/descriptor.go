// Package descriptor implements the canonical, hash-stable fingerprint of
// a node (spec 4.C): a serializable event tuple whose equality defines
// "two nodes are equivalent for caching purposes", plus its serialized
// byte form, which is the content-address CachedStateDB hashes.
//
// The event *algorithm* (which events to emit, how to recurse into
// dependency nodes, how to break resource-producer self-reference
// cycles) lives in package graph, because it needs the concrete node
// type's fields and cache. This package owns only the event shape and
// its canonical binary encoding, so that graph does not need to concern
// itself with serialization format.
package descriptor

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vmihailenco/msgpack/v5"
)

// Tag names a descriptor event by its walk-event class: a stable string
// equal to the event's kind.
type Tag string

const (
	OpType                    Tag = "OpType"
	DataOp                    Tag = "DataOp"
	PathIn                    Tag = "PathIn"
	PathOut                   Tag = "PathOut"
	ResourceIn                Tag = "ResourceIn"
	ResourceOut               Tag = "ResourceOut"
	Node                      Tag = "Node"
	CTX                       Tag = "CTX"
	UNSET                     Tag = "UNSET"
	List                      Tag = "List"
	TupleTag                  Tag = "Tuple"
	DictTag                   Tag = "Dict"
	Func                      Tag = "Func"
	Other                     Tag = "Other"
	ValueID                   Tag = "ValueId"
	Ref                       Tag = "Ref"
	Module                    Tag = "Module"
	PathinsDescriptor         Tag = "PathinsDescriptor"
	PathoutsDescriptor        Tag = "PathoutsDescriptor"
	ResourceProducersDesc     Tag = "ResourceProducersDescriptor"
	ProducedResourceDesc      Tag = "ProducedResourceDescriptor"
)

// Event is one element of a node descriptor's event tuple. Exactly which
// of Str/Strs/Int/Bytes is populated depends on Tag; see the algorithm in
// package graph for how each walk.Event maps to one of these.
type Event struct {
	Tag   Tag
	Str   string
	Strs  []string
	Int   int
	Bytes []byte
}

// Descriptor is the full event tuple for one node, including the
// recursively-embedded descriptors of any dependency nodes it refers to.
type Descriptor []Event

// Encode produces the canonical byte form of d. Equal Descriptor values
// always produce identical bytes: msgpack encodes the Event struct
// fields positionally (as an array, not a map-with-randomized-order), so
// there is nothing non-deterministic left once Descriptor's event order
// is itself deterministic (guaranteed by the walk protocol).
func Encode(d Descriptor) []byte {
	buf, err := msgpack.Marshal(toWire(d))
	if err != nil {
		// Every field type here is a msgpack-native primitive (string,
		// int, []byte, []string); encoding cannot fail.
		panic("descriptor: unexpected msgpack encode failure: " + err.Error())
	}
	return buf
}

// wireEvent mirrors Event, but implements msgpack.CustomEncoder so that
// it always serializes as a fixed-length array of its fields in
// declaration order, never as a map (whose key order msgpack is free to
// vary) -- this is what makes Encode's output a deterministic function
// of Descriptor's content.
type wireEvent struct {
	Tag   string
	Str   string
	Strs  []string
	Int   int
	Bytes []byte
}

var _ msgpack.CustomEncoder = wireEvent{}

func (e wireEvent) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(5); err != nil {
		return err
	}
	for _, v := range []any{e.Tag, e.Str, e.Strs, e.Int, e.Bytes} {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func toWire(d Descriptor) []wireEvent {
	out := make([]wireEvent, len(d))
	for i, e := range d {
		out[i] = wireEvent{Tag: string(e.Tag), Str: e.Str, Strs: e.Strs, Int: e.Int, Bytes: e.Bytes}
	}
	return out
}

// Hash returns the content address of d: the hex-encoded SHA-256 of its
// canonical encoding (spec 4.G CachedStateDB bucket naming), matching the
// teacher's own use of crypto/sha256 for provider-package content
// addressing (internal/getproviders/hash.go).
func Hash(d Descriptor) string {
	sum := sha256.Sum256(Encode(d))
	return hex.EncodeToString(sum[:])
}

// EncodeValue msgpack-encodes an arbitrary leaf value for embedding in an
// Event's Bytes field (DataOp and Other events). Values that cannot be
// represented in msgpack (e.g. bare functions, channels) cause this to
// return an error rather than panic; package graph's caller then falls
// back to a textual representation of the value.
func EncodeValue(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return msgpack.Marshal(v)
}
