package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/graph"
)

func TestGraphNodeLookupBySlashPath(t *testing.T) {
	root := graph.NewGraph("")
	sub := graph.NewGraph("")
	require.NoError(t, root.AddSubgraph("sub", sub))

	n, err := graph.Data(sub, 1, "", graph.WithName("leaf"))
	require.NoError(t, err)

	found, err := root.Node("sub/leaf")
	require.NoError(t, err)
	require.Equal(t, n, found)
}

func TestGraphNodeLookupMissingSegment(t *testing.T) {
	root := graph.NewGraph("")
	_, err := root.Node("does/not/exist")
	require.Error(t, err)
}

func TestGraphNodeLookupThroughNonGraphIntermediate(t *testing.T) {
	root := graph.NewGraph("")
	n, err := graph.Data(root, 1, "", graph.WithName("leaf"))
	require.NoError(t, err)
	_ = n

	_, err = root.Node("leaf/deeper")
	require.Error(t, err)
}

func TestRecurseNodesSelfThenSubgraphsDepthFirst(t *testing.T) {
	root := graph.NewGraph("")
	a, err := graph.Data(root, 1, "", graph.WithName("a"))
	require.NoError(t, err)

	sub := graph.NewGraph("")
	require.NoError(t, root.AddSubgraph("sub", sub))
	b, err := graph.Data(sub, 2, "", graph.WithName("b"))
	require.NoError(t, err)

	nodes := root.RecurseNodes(nil)
	require.Equal(t, []*graph.Node{a, b}, nodes)
}

func TestPathProducerFallsBackToGlobalGraph(t *testing.T) {
	global := graph.Global()
	producer, err := graph.Data(global, 1, "", graph.WithExtraPathOut("global/shared/unique-path"))
	require.NoError(t, err)

	root := graph.NewGraph("")
	found, ok := root.PathProducer("global/shared/unique-path")
	require.True(t, ok)
	require.Equal(t, producer, found)
}

func TestRegisterPathOutRejectsCollisionWithGlobalGraph(t *testing.T) {
	global := graph.Global()
	_, err := graph.Data(global, 1, "", graph.WithExtraPathOut("global/shared/cross-root-path"))
	require.NoError(t, err)

	root := graph.NewGraph("")
	_, err = graph.Data(root, 2, "", graph.WithExtraPathOut("global/shared/cross-root-path"))
	require.Error(t, err)
}

func TestAddChildRejectsDuplicateNameAcrossNodeAndSubgraph(t *testing.T) {
	root := graph.NewGraph("")
	_, err := graph.Data(root, 1, "", graph.WithName("x"))
	require.NoError(t, err)

	err = root.AddSubgraph("x", graph.NewGraph(""))
	require.Error(t, err)
}
