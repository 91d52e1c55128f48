package graph

import "fmt"

// sprintFallback gives a stable textual representation for a leaf value
// that msgpack could not encode (e.g. a bare func or channel slipped in
// as Data/Other payload). It is only ever used for values of that kind;
// ordinary data stays on the msgpack path in encodeLeaf.
func sprintFallback(v any) string {
	return fmt.Sprintf("%#v", v)
}
