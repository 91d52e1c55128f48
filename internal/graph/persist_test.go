package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yapeop"
)

func init() {
	yapeop.RegisterFunc("graph_test.persist.add", func(a, b int) int { return a + b })
}

func TestSaveLoadRoundTripsShapeAndOps(t *testing.T) {
	g := graph.NewGraph("")
	a, err := graph.New(g, yapeop.Data{Payload: 1}, graph.WithName("a"))
	require.NoError(t, err)
	b, err := graph.New(g, yapeop.Data{Payload: 2}, graph.WithName("b"))
	require.NoError(t, err)
	sum, err := graph.New(g, yapeop.Call{
		Fn:     &yapeop.FuncRef{Name: "graph_test.persist.add"},
		Args:   []any{a, b},
		Kwargs: yapeop.NewDict("unit", "m"),
	}, graph.WithName("sum"), graph.WithExtraPathOut("out/sum.txt"))
	require.NoError(t, err)

	sub := graph.NewGraph("")
	require.NoError(t, g.AddSubgraph("nested", sub))
	_, err = graph.New(sub, yapeop.Value{V: "hi"}, graph.WithName("greeting"))
	require.NoError(t, err)

	data, err := graph.Save(g)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	loaded, err := graph.Load(data)
	require.NoError(t, err)

	loadedSum, err := loaded.Node("sum")
	require.NoError(t, err)
	require.Equal(t, "sum", loadedSum.Name())
	require.Equal(t, []yapeop.PathOut{{Path: "out/sum.txt"}}, loadedSum.PathOuts())

	call, ok := loadedSum.Op().(yapeop.Call)
	require.True(t, ok)
	fn, ok := call.Fn.(*yapeop.FuncRef)
	require.True(t, ok)
	require.Equal(t, "graph_test.persist.add", fn.Name)
	require.Len(t, call.Args, 2)
	loadedA, ok := call.Args[0].(*graph.Node)
	require.True(t, ok)
	require.Equal(t, "a", loadedA.Name())

	greeting, err := loaded.Node("nested/greeting")
	require.NoError(t, err)
	require.Equal(t, yapeop.Value{V: "hi"}, greeting.Op())

	require.Equal(t, sum.Name(), loadedSum.Name())
}

func TestSaveLoadPreservesDataID(t *testing.T) {
	g := graph.NewGraph("")
	_, err := graph.New(g, yapeop.Data{Payload: []byte{1, 2, 3}, ID: "shared"}, graph.WithName("d"))
	require.NoError(t, err)

	data, err := graph.Save(g)
	require.NoError(t, err)
	loaded, err := graph.Load(data)
	require.NoError(t, err)

	n, err := loaded.Node("d")
	require.NoError(t, err)
	d, ok := n.Op().(yapeop.Data)
	require.True(t, ok)
	require.Equal(t, "shared", d.ID)
}
