package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("without neighbors keeps exactly the existing seeds", func(t *testing.T) {
		t.Parallel()
		g := getTestStore(t)

		sub := Extract(g, []string{"F1", "P1", "does-not-exist"}, false)
		assert.Equal(t, []string{"F1", "P1"}, sub.NodeIDs())
		// Only the F1-P1 edge has both endpoints inside the seed set.
		require.Equal(t, 1, sub.EdgeCount())
		_, ok := sub.Edge("F1", "P1")
		assert.True(t, ok)
	})

	t.Run("with neighbors pulls in the one-hop fringe", func(t *testing.T) {
		t.Parallel()
		g := getTestStore(t)

		sub := Extract(g, []string{"P1"}, true)
		assert.Equal(t, []string{"F1", "F2", "P1"}, sub.NodeIDs())
		assert.Equal(t, 2, sub.EdgeCount())
	})

	t.Run("never mutates the source graph", func(t *testing.T) {
		t.Parallel()
		g := getTestStore(t)
		before := g.NodeCount()
		beforeEdges := g.EdgeCount()

		sub := Extract(g, []string{"F1"}, true)
		sub.AddNode("intruder", schemas.KindMember, nil)

		assert.Equal(t, before, g.NodeCount())
		assert.Equal(t, beforeEdges, g.EdgeCount())
		assert.False(t, g.HasNode("intruder"))
	})

	t.Run("is deterministic for a fixed seed set", func(t *testing.T) {
		t.Parallel()
		g := getTestStore(t)

		a := Snapshot(Extract(g, []string{"P1", "M1"}, true))
		b := Snapshot(Extract(g, []string{"M1", "P1"}, true))
		assert.Empty(t, cmp.Diff(a, b))
	})

	t.Run("empty seed set yields an empty graph", func(t *testing.T) {
		t.Parallel()
		g := getTestStore(t)
		sub := Extract(g, nil, true)
		assert.Equal(t, 0, sub.NodeCount())
		assert.Equal(t, 0, sub.EdgeCount())
	})
}

func TestSnapshot(t *testing.T) {
	t.Parallel()
	g := getTestStore(t)

	sub := Snapshot(g)
	require.Len(t, sub.Nodes, 4)
	require.Len(t, sub.Edges, 3)
	assert.Equal(t, "F1", sub.Nodes[0].ID)
	assert.Equal(t, schemas.KindFraudster, sub.Nodes[0].Kind)
}
