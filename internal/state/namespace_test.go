package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/state"
)

func TestNamespaceStateIsCreatedOncePerNode(t *testing.T) {
	g := graph.NewGraph("")
	n, err := graph.Data(g, 1, "", graph.WithName("a"))
	require.NoError(t, err)

	calls := 0
	ns := state.New(func(*graph.Node) (state.State, error) {
		calls++
		return state.NewMemory(nil), nil
	})

	s1, err := ns.State(n)
	require.NoError(t, err)
	s2, err := ns.State(n)
	require.NoError(t, err)
	require.Same(t, s1, s2)
	require.Equal(t, 1, calls)
}

func TestNamespaceDescriptorIsMemoized(t *testing.T) {
	g := graph.NewGraph("")
	n, err := graph.Data(g, 1, "", graph.WithName("a"))
	require.NoError(t, err)

	ns := state.New(func(*graph.Node) (state.State, error) { return state.NewMemory(nil), nil })

	calls := 0
	compute := func() []byte {
		calls++
		return []byte("desc")
	}

	d1 := ns.Descriptor(n, compute)
	d2 := ns.Descriptor(n, compute)
	require.Equal(t, d1, d2)
	require.Equal(t, 1, calls)
}

func TestNamespaceReleaseResetsStatesAndDescriptors(t *testing.T) {
	g := graph.NewGraph("")
	n, err := graph.Data(g, 1, "", graph.WithName("a"))
	require.NoError(t, err)

	ns := state.New(func(*graph.Node) (state.State, error) { return state.NewMemory(nil), nil })

	s, err := ns.State(n)
	require.NoError(t, err)
	require.NoError(t, s.SetResult(1))

	ns.Descriptor(n, func() []byte { return []byte("x") })

	ns.Release()

	require.False(t, s.HasResult())

	calls := 0
	ns2State, err := ns.State(n)
	require.NoError(t, err)
	_ = ns2State
	ns.Descriptor(n, func() []byte { calls++; return []byte("y") })
	require.Equal(t, 1, calls)
}

func TestEnterFailsWhenAlreadyActive(t *testing.T) {
	ns1 := state.New(func(*graph.Node) (state.State, error) { return state.NewMemory(nil), nil })
	ns2 := state.New(func(*graph.Node) (state.State, error) { return state.NewMemory(nil), nil })

	require.NoError(t, state.Enter(ns1))
	defer state.Exit(ns1)

	err := state.Enter(ns2)
	require.Error(t, err)
}

func TestExitClearsCurrentAndReleases(t *testing.T) {
	ns := state.New(func(*graph.Node) (state.State, error) { return state.NewMemory(nil), nil })
	require.NoError(t, state.Enter(ns))
	require.Same(t, ns, state.Current())

	state.Exit(ns)
	require.Nil(t, state.Current())
}
