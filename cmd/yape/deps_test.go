package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yapeop"
)

func TestDepNamesReturnsFullNames(t *testing.T) {
	g := graph.NewGraph("")
	a, err := graph.Data(g, 1, "", graph.WithName("a"))
	require.NoError(t, err)
	b, err := graph.Data(g, 2, "", graph.WithName("b"))
	require.NoError(t, err)

	require.Equal(t, []string{"a", "b"}, depNames([]*graph.Node{a, b}))
}

func TestReachableCollectsTransitiveDependenciesOnce(t *testing.T) {
	g := graph.NewGraph("")
	a, err := graph.Data(g, 1, "", graph.WithName("a"))
	require.NoError(t, err)
	b, err := graph.CallNode(g, func(args []any, kw *yapeop.Dict) (any, error) { return nil, nil }, []any{a}, yapeop.NewDict())
	require.NoError(t, err)
	c, err := graph.CallNode(g, func(args []any, kw *yapeop.Dict) (any, error) { return nil, nil }, []any{a, b}, yapeop.NewDict())
	require.NoError(t, err)

	got := reachable([]*graph.Node{c})
	require.ElementsMatch(t, []*graph.Node{a, b, c}, got)
}
