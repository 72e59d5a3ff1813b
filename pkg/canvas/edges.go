package canvas

import (
	"context"
	"fmt"

	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/layout"
)

// EdgeID returns the id the canvas assigns to an edge created without one.
func EdgeID(e domain.EdgeRecord) string {
	return "reactflow__edge-" + e.Source + e.SourceHandle + "-" + e.Target + e.TargetHandle
}

// Connect adds an edge. Handles on mounted text nodes must name a current port:
// the output port on the source side, a variable port on the target side.
func (c *Canvas) Connect(ctx context.Context, e domain.EdgeRecord) (domain.EdgeRecord, error) {
	if e.ID == "" {
		e.ID = EdgeID(e)
	}

	if n, ok := c.textNode(e.Source); ok && e.SourceHandle != "" {
		if e.SourceHandle != layout.OutputPortID(n.ID()) {
			return domain.EdgeRecord{}, fmt.Errorf("%w: %s is not the output port of %s", domain.ErrInvalidRecord, e.SourceHandle, e.Source)
		}
	}
	if n, ok := c.textNode(e.Target); ok && e.TargetHandle != "" {
		if !n.View().Ports.HasInput(e.TargetHandle) {
			return domain.EdgeRecord{}, fmt.Errorf("%w: %s is not an input port of %s", domain.ErrInvalidRecord, e.TargetHandle, e.Target)
		}
	}

	if err := c.store.PutEdge(ctx, e); err != nil {
		return domain.EdgeRecord{}, fmt.Errorf("failed to connect %s: %w", e.ID, err)
	}
	return e, nil
}

// Disconnect removes an edge.
func (c *Canvas) Disconnect(ctx context.Context, edgeID string) error {
	if err := c.store.DeleteEdge(ctx, edgeID); err != nil {
		return fmt.Errorf("failed to disconnect %s: %w", edgeID, err)
	}
	return nil
}

// DanglingEdges returns the edges into a mounted text node whose target handle
// no longer matches any of its input ports.
func (c *Canvas) DanglingEdges(ctx context.Context, nodeID string) ([]domain.EdgeRecord, error) {
	n, ok := c.textNode(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	g, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot graph: %w", err)
	}

	portSet := n.View().Ports
	var dangling []domain.EdgeRecord
	for _, e := range g.EdgesInto(nodeID) {
		if e.TargetHandle != "" && !portSet.HasInput(e.TargetHandle) {
			dangling = append(dangling, e)
		}
	}
	return dangling, nil
}
