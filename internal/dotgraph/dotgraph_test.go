package dotgraph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/dotgraph"
	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yapeop"
)

func TestWriteEmitsNodesAndEdges(t *testing.T) {
	g := graph.NewGraph("")
	a, err := graph.New(g, yapeop.Data{Payload: 1}, graph.WithName("a"))
	require.NoError(t, err)
	b, err := graph.New(g, yapeop.Call{Fn: &yapeop.FuncRef{Name: "x"}, Args: []any{a}, Kwargs: yapeop.NewDict()}, graph.WithName("b"))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, dotgraph.Write(&buf, []*graph.Node{a, b}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "digraph {\n"))
	require.Contains(t, out, "a;\n")
	require.Contains(t, out, "b;\n")
	require.Contains(t, out, "b -> a;\n")
}

func TestWriteOmitsEdgesOutsideSubset(t *testing.T) {
	g := graph.NewGraph("")
	a, err := graph.New(g, yapeop.Data{Payload: 1}, graph.WithName("a"))
	require.NoError(t, err)
	_, err = graph.New(g, yapeop.Call{Fn: &yapeop.FuncRef{Name: "x"}, Args: []any{a}, Kwargs: yapeop.NewDict()}, graph.WithName("b"))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, dotgraph.Write(&buf, []*graph.Node{a}))
	require.NotContains(t, buf.String(), "->")
}
