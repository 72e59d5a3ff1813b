package ports

import (
	"context"

	"github.com/vikashrahii/pipeline/pkg/domain"
)

// GraphStore holds all nodes and edges of the pipeline graph.
//
// Writes are last-write-wins per field and idempotent for identical values.
// No transaction spans two UpdateNodeField calls; a reader racing between them
// may observe one field updated and the other stale.
type GraphStore interface {
	// UpdateNodeField sets a single data field of an existing node.
	// Returns domain.ErrNodeNotFound if the node does not exist.
	UpdateNodeField(ctx context.Context, nodeID, field string, value any) error

	// NodeField returns a data field of an existing node.
	// The boolean is false when the node exists but the field was never set.
	// Returns domain.ErrNodeNotFound if the node does not exist.
	NodeField(ctx context.Context, nodeID, field string) (any, bool, error)

	// PutNode adds a node or replaces an existing record, keeping its position in graph order.
	PutNode(ctx context.Context, node domain.NodeRecord) error

	// DeleteNode removes a node and every edge touching it. Deleting an unknown node is not an error.
	DeleteNode(ctx context.Context, nodeID string) error

	// PutEdge adds or replaces an edge. Both endpoints must exist.
	PutEdge(ctx context.Context, edge domain.EdgeRecord) error

	// DeleteEdge removes an edge. Deleting an unknown edge is not an error.
	DeleteEdge(ctx context.Context, edgeID string) error

	// Snapshot returns a copy of the whole graph in insertion order.
	Snapshot(ctx context.Context) (domain.Graph, error)
}
