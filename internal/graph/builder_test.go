package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/graph"
	"github.com/guludo/yape/internal/yapeop"
	"github.com/guludo/yape/internal/yerr"
)

func sum(args []any, kw *yapeop.Dict) (any, error) { return nil, nil }

func TestNewAutoNamesFromCallableAndDedups(t *testing.T) {
	g := graph.NewGraph("")

	n1, err := graph.CallNode(g, sum, nil, yapeop.NewDict())
	require.NoError(t, err)
	require.Equal(t, "sum", n1.Name())

	n2, err := graph.CallNode(g, sum, nil, yapeop.NewDict())
	require.NoError(t, err)
	require.Equal(t, "sum-1", n2.Name())

	n3, err := graph.CallNode(g, sum, nil, yapeop.NewDict())
	require.NoError(t, err)
	require.Equal(t, "sum-2", n3.Name())
}

func TestNewRejectsDuplicateExplicitName(t *testing.T) {
	g := graph.NewGraph("")
	_, err := graph.Data(g, 1, "", graph.WithName("a"))
	require.NoError(t, err)

	_, err = graph.Data(g, 2, "", graph.WithName("a"))
	require.Error(t, err)
	var shapeErr *yerr.GraphShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestNewRejectsSlashInName(t *testing.T) {
	g := graph.NewGraph("")
	_, err := graph.Data(g, 1, "", graph.WithName("a/b"))
	require.Error(t, err)
}

func TestNewRejectsDuplicatePathOut(t *testing.T) {
	g := graph.NewGraph("")
	_, err := graph.Data(g, 1, "", graph.WithExtraPathOut("out.bin"))
	require.NoError(t, err)

	_, err = graph.Data(g, 2, "", graph.WithExtraPathOut("out.bin"))
	require.Error(t, err)
	var shapeErr *yerr.GraphShapeError
	require.ErrorAs(t, err, &shapeErr)
}

func TestNewRejectsBareResourceArgument(t *testing.T) {
	g := graph.NewGraph("")
	r, err := graph.ResourceNode(g, "req")
	require.NoError(t, err)

	_, err = graph.CallNode(g, sum, []any{r}, yapeop.NewDict())
	require.Error(t, err)
	var argErr *yerr.ArgumentShapeError
	require.ErrorAs(t, err, &argErr)
}

func TestNewAcceptsWrappedResourceArgument(t *testing.T) {
	g := graph.NewGraph("")
	r, err := graph.ResourceNode(g, "req")
	require.NoError(t, err)

	consumer, err := graph.CallNode(g, sum, []any{yapeop.ResourceIn{Node: r}}, yapeop.NewDict())
	require.NoError(t, err)
	require.Contains(t, consumer.DirectNodeRefs(), r)
}

func TestResourceOutRegistersProducer(t *testing.T) {
	g := graph.NewGraph("")
	r, err := graph.ResourceNode(g, "req")
	require.NoError(t, err)

	producer, err := graph.CallNode(g, sum, []any{yapeop.ResourceOut{Node: r}}, yapeop.NewDict())
	require.NoError(t, err)

	require.Equal(t, []*graph.Node{producer}, r.ResourceProducers())
}

func TestAttrRejectsUnderscorePrefix(t *testing.T) {
	g := graph.NewGraph("")
	n, err := graph.Data(g, struct{ X int }{X: 1}, "")
	require.NoError(t, err)

	_, err = n.Attr("_private")
	require.Error(t, err)
	var argErr *yerr.ArgumentShapeError
	require.ErrorAs(t, err, &argErr)
}

func TestItemAndAttrAttachToSameGraph(t *testing.T) {
	g := graph.NewGraph("")
	n, err := graph.Data(g, map[string]any{"k": 1}, "")
	require.NoError(t, err)

	item, err := n.Item("k")
	require.NoError(t, err)
	require.Equal(t, g, item.Graph())

	attr, err := n.Attr("Field")
	require.NoError(t, err)
	require.Equal(t, g, attr.Graph())
}

func TestDataWithIDIsInterchangeableForCaching(t *testing.T) {
	g := graph.NewGraph("")
	n1, err := graph.Data(g, "payload-a", "shared-id")
	require.NoError(t, err)
	n2, err := graph.Data(g, "payload-b", "shared-id")
	require.NoError(t, err)

	require.Equal(t, graph.NodeDescriptor(n1, false), graph.NodeDescriptor(n2, false))
}

func TestBuildScopeAttachesNodesToInnermostScope(t *testing.T) {
	outer := graph.NewGraph("outer")
	var inner *graph.Node
	graph.Build(outer, func() {
		n, err := graph.Data(nil, 1, "")
		require.NoError(t, err)
		inner = n
	})
	require.Equal(t, outer, inner.Graph())
}
