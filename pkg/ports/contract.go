package ports

import (
	"context"
	"testing"

	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunGraphStoreContract runs a suite of tests to verify that a GraphStore implementation
// adheres to the defined interface contract. The store must start empty.
func RunGraphStoreContract(t *testing.T, store GraphStore) {
	ctx := context.Background()

	t.Run("Update Unknown Node", func(t *testing.T) {
		err := store.UpdateNodeField(ctx, "missing", domain.FieldText, "x")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)

		_, _, err = store.NodeField(ctx, "missing", domain.FieldText)
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Put Requires ID", func(t *testing.T) {
		err := store.PutNode(ctx, domain.NodeRecord{Type: domain.NodeTypeText})
		assert.ErrorIs(t, err, domain.ErrInvalidRecord)
	})

	t.Run("Field Round Trip", func(t *testing.T) {
		require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "text-1", Type: domain.NodeTypeText}))
		defer func() { _ = store.DeleteNode(ctx, "text-1") }()

		_, ok, err := store.NodeField(ctx, "text-1", domain.FieldText)
		require.NoError(t, err)
		assert.False(t, ok, "field should be unset before the first write")

		require.NoError(t, store.UpdateNodeField(ctx, "text-1", domain.FieldText, "Hi {{a}}"))
		require.NoError(t, store.UpdateNodeField(ctx, "text-1", domain.FieldVariables, []string{"a"}))
		// Identical writes are idempotent.
		require.NoError(t, store.UpdateNodeField(ctx, "text-1", domain.FieldText, "Hi {{a}}"))

		val, ok, err := store.NodeField(ctx, "text-1", domain.FieldText)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Hi {{a}}", val)

		g, err := store.Snapshot(ctx)
		require.NoError(t, err)
		rec, found := g.Node("text-1")
		require.True(t, found)
		td, err := domain.DecodeTextData(rec.Data)
		require.NoError(t, err)
		assert.Equal(t, domain.TextData{Text: "Hi {{a}}", Variables: []string{"a"}}, td)
	})

	t.Run("Last Write Wins", func(t *testing.T) {
		require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "lww", Type: domain.NodeTypeText}))
		defer func() { _ = store.DeleteNode(ctx, "lww") }()

		require.NoError(t, store.UpdateNodeField(ctx, "lww", domain.FieldText, "first"))
		require.NoError(t, store.UpdateNodeField(ctx, "lww", domain.FieldText, "second"))

		val, _, err := store.NodeField(ctx, "lww", domain.FieldText)
		require.NoError(t, err)
		assert.Equal(t, "second", val)
	})

	t.Run("Snapshot Is Isolated", func(t *testing.T) {
		require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "iso", Type: domain.NodeTypeText}))
		defer func() { _ = store.DeleteNode(ctx, "iso") }()
		require.NoError(t, store.UpdateNodeField(ctx, "iso", domain.FieldVariables, []string{"a"}))

		g, err := store.Snapshot(ctx)
		require.NoError(t, err)
		rec, _ := g.Node("iso")
		rec.Data[domain.FieldText] = "mutated by reader"

		_, ok, err := store.NodeField(ctx, "iso", domain.FieldText)
		require.NoError(t, err)
		assert.False(t, ok, "mutating a snapshot must not reach the store")
	})

	t.Run("Edges And Ordering", func(t *testing.T) {
		for _, id := range []string{"a", "b", "c"} {
			require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: id, Type: domain.NodeTypeLLM}))
		}
		defer func() {
			for _, id := range []string{"a", "b", "c"} {
				_ = store.DeleteNode(ctx, id)
			}
		}()

		err := store.PutEdge(ctx, domain.EdgeRecord{ID: "bad", Source: "a", Target: "nope"})
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)

		require.NoError(t, store.PutEdge(ctx, domain.EdgeRecord{ID: "e1", Source: "a", Target: "b"}))
		require.NoError(t, store.PutEdge(ctx, domain.EdgeRecord{ID: "e2", Source: "b", Target: "c"}))

		// Replacing a record keeps its place.
		require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "a", Type: domain.NodeTypeLLM, Position: domain.Position{X: 5}}))

		g, err := store.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, nodeIDs(g))
		assert.Equal(t, []string{"e1", "e2"}, edgeIDs(g))
		rec, _ := g.Node("a")
		assert.Equal(t, 5.0, rec.Position.X)

		// Deleting a node drops incident edges.
		require.NoError(t, store.DeleteNode(ctx, "b"))
		g, err = store.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, nodeIDs(g))
		assert.Empty(t, g.Edges)

		require.NoError(t, store.DeleteEdge(ctx, "unknown"))
		require.NoError(t, store.DeleteNode(ctx, "unknown"))
	})

	t.Run("Delete Edge", func(t *testing.T) {
		require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "x", Type: domain.NodeTypeInput}))
		require.NoError(t, store.PutNode(ctx, domain.NodeRecord{ID: "y", Type: domain.NodeTypeOutput}))
		defer func() {
			_ = store.DeleteNode(ctx, "x")
			_ = store.DeleteNode(ctx, "y")
		}()

		require.NoError(t, store.PutEdge(ctx, domain.EdgeRecord{ID: "xy", Source: "x", Target: "y"}))
		require.NoError(t, store.DeleteEdge(ctx, "xy"))

		g, err := store.Snapshot(ctx)
		require.NoError(t, err)
		assert.Empty(t, g.Edges)
		assert.Len(t, g.Nodes, 2)
	})
}

func nodeIDs(g domain.Graph) []string {
	ids := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func edgeIDs(g domain.Graph) []string {
	ids := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		ids = append(ids, e.ID)
	}
	return ids
}
