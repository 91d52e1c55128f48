package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/state"
	"github.com/guludo/yape/internal/yapeop"
)

func TestDBReusesEntryForEqualDescriptor(t *testing.T) {
	db := state.NewDB(t.TempDir())
	ns := state.New(db.Factory())
	ns2 := state.New(db.Factory())

	g := graph.NewGraph("")
	n1, err := graph.New(g, yapeop.Data{Payload: 1, ID: "shared"})
	require.NoError(t, err)

	g2 := graph.NewGraph("")
	n2, err := graph.New(g2, yapeop.Data{Payload: 2, ID: "shared"})
	require.NoError(t, err)

	s1, err := ns.State(n1)
	require.NoError(t, err)
	require.NoError(t, s1.SetResult("result-1"))

	s2, err := ns2.State(n2)
	require.NoError(t, err)
	v, err := s2.GetResult()
	require.NoError(t, err)
	require.Equal(t, "result-1", v, "same data id means same cache bucket regardless of payload")
}

func TestDBGCRemovesUnreferencedBuckets(t *testing.T) {
	db := state.NewDB(t.TempDir())
	ns := state.New(db.Factory())

	g := graph.NewGraph("")
	n, err := graph.New(g, yapeop.Value{V: 1})
	require.NoError(t, err)

	s, err := ns.State(n)
	require.NoError(t, err)
	require.NoError(t, s.SetResult("v"))

	removed, err := db.GC(map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	removed, err = db.GC(map[string]bool{})
	require.NoError(t, err)
	require.Equal(t, 0, removed)
}
