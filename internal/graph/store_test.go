package graph

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/fraudlens-cli/api/schemas"
)

// -- Test Fixture Setup --

type graphTestFixture struct {
	Logger *zap.Logger
}

var globalFixture *graphTestFixture

func TestMain(m *testing.M) {
	// Use Nop logger for cleaner test output. Use NewDevelopment() for debugging.
	globalFixture = &graphTestFixture{Logger: zap.NewNop()}
	exitCode := m.Run()
	_ = globalFixture.Logger.Sync()
	os.Exit(exitCode)
}

// getTestStore returns a small graph with two fraudsters sharing a phone
// and one member hanging off a fraudster.
func getTestStore(t *testing.T) *Store {
	t.Helper()

	g := NewStore(globalFixture.Logger)
	g.AddNode("F1", schemas.KindFraudster, schemas.Attrs{"is_fraudster": true})
	g.AddNode("F2", schemas.KindFraudster, schemas.Attrs{"is_fraudster": true})
	g.AddNode("P1", schemas.KindPhone, nil)
	g.AddNode("M1", schemas.KindMember, nil)

	g.AddEdge("F1", "P1", schemas.RelationUsesPhone, nil)
	g.AddEdge("F2", "P1", schemas.RelationUsesPhone, nil)
	g.AddEdge("F1", "M1", schemas.RelationPotential, nil)
	return g
}

// -- Test Cases --

func TestAddNode(t *testing.T) {
	t.Parallel()

	t.Run("should merge attributes on re-add instead of duplicating", func(t *testing.T) {
		t.Parallel()
		g := NewStore(globalFixture.Logger)
		g.AddNode("A", schemas.KindMember, schemas.Attrs{"x": 1})
		g.AddNode("A", schemas.KindMember, schemas.Attrs{"y": 2})

		require.Equal(t, 1, g.NodeCount())
		node, err := g.Node("A")
		require.NoError(t, err)
		assert.Equal(t, 1, node.Attrs["x"])
		assert.Equal(t, 2, node.Attrs["y"])
	})

	t.Run("should promote unknown kind but never demote a known one", func(t *testing.T) {
		t.Parallel()
		g := NewStore(globalFixture.Logger)
		g.AddNode("A", schemas.KindUnknown, nil)
		g.AddNode("A", schemas.KindPhone, nil)
		kind, err := g.Kind("A")
		require.NoError(t, err)
		assert.Equal(t, schemas.KindPhone, kind)

		g.AddNode("A", schemas.KindUnknown, nil)
		kind, err = g.Kind("A")
		require.NoError(t, err)
		assert.Equal(t, schemas.KindPhone, kind)
	})

	t.Run("should not alias the caller's attribute map", func(t *testing.T) {
		t.Parallel()
		g := NewStore(globalFixture.Logger)
		attrs := schemas.Attrs{"x": 1}
		g.AddNode("A", schemas.KindMember, attrs)
		attrs["x"] = 99

		node, err := g.Node("A")
		require.NoError(t, err)
		assert.Equal(t, 1, node.Attrs["x"])
	})
}

func TestAddEdge(t *testing.T) {
	t.Parallel()

	t.Run("should lazily create missing endpoints with unknown kind", func(t *testing.T) {
		t.Parallel()
		g := NewStore(globalFixture.Logger)
		g.AddEdge("A", "B", schemas.RelationUsesEmail, nil)

		require.Equal(t, 2, g.NodeCount())
		kind, err := g.Kind("A")
		require.NoError(t, err)
		assert.Equal(t, schemas.KindUnknown, kind)
	})

	t.Run("should merge duplicate unordered pairs into one edge", func(t *testing.T) {
		t.Parallel()
		g := NewStore(globalFixture.Logger)
		g.AddEdge("A", "B", schemas.RelationUsesPhone, schemas.Attrs{"w": 1})
		g.AddEdge("B", "A", schemas.RelationUsesEmail, schemas.Attrs{"z": 2})

		require.Equal(t, 1, g.EdgeCount())
		edge, ok := g.Edge("A", "B")
		require.True(t, ok)
		assert.Equal(t, schemas.RelationUsesPhone, edge.Relation, "first non-empty relation wins")
		assert.Equal(t, 1, edge.Attrs["w"])
		assert.Equal(t, 2, edge.Attrs["z"])
	})

	t.Run("should tolerate self-loops without crashing", func(t *testing.T) {
		t.Parallel()
		g := NewStore(globalFixture.Logger)
		g.AddEdge("A", "A", schemas.RelationPotential, nil)
		assert.Equal(t, 1, g.NodeCount())
		assert.Equal(t, 1, g.EdgeCount())
	})
}

func TestNeighborsAndDegree(t *testing.T) {
	t.Parallel()
	g := getTestStore(t)

	t.Run("should return sorted neighbor ids", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"M1", "P1"}, g.Neighbors("F1"))
		assert.Equal(t, []string{"F1", "F2"}, g.Neighbors("P1"))
	})

	t.Run("should return empty set for isolated or missing node", func(t *testing.T) {
		t.Parallel()
		g2 := NewStore(globalFixture.Logger)
		g2.AddNode("lonely", schemas.KindMember, nil)
		assert.Empty(t, g2.Neighbors("lonely"))
		assert.Empty(t, g2.Neighbors("nope"))
	})

	t.Run("should count distinct neighbors as degree", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 2, g.Degree("F1"))
		assert.Equal(t, 2, g.Degree("P1"))
		assert.Equal(t, 0, g.Degree("missing"))
	})
}

func TestNodeLookupErrors(t *testing.T) {
	t.Parallel()
	g := getTestStore(t)

	_, err := g.Node("ghost")
	require.Error(t, err)
	var nfe *NotFoundError
	assert.True(t, errors.As(err, &nfe))
	assert.Equal(t, "ghost", nfe.ID)

	_, _, err = g.Attr("ghost", "x")
	assert.True(t, errors.As(err, &nfe))

	err = g.SetAttr("ghost", "x", 1)
	assert.True(t, errors.As(err, &nfe))
}

func TestDerivedAttributeWrite(t *testing.T) {
	t.Parallel()
	g := getTestStore(t)

	require.NoError(t, g.SetAttr("P1", "suspicious_score", 4.5))
	v, ok, err := g.Attr("P1", "suspicious_score")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4.5, v)

	// The observed kind is untouched by derived writes.
	kind, err := g.Kind("P1")
	require.NoError(t, err)
	assert.Equal(t, schemas.KindPhone, kind)
}

func TestIterationOrder(t *testing.T) {
	t.Parallel()
	g := getTestStore(t)

	assert.Equal(t, []string{"F1", "F2", "M1", "P1"}, g.NodeIDs())
	assert.Equal(t, []string{"F1", "F2"}, g.NodesByKind(schemas.KindFraudster))

	edges := g.Edges()
	require.Len(t, edges, 3)
	assert.Equal(t, "F1", edges[0].A)
}
