package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vikashrahii/pipeline/pkg/domain"
)

// Store implements ports.GraphStore in memory.
// Safe for concurrent use; every write holds the same lock, so a Snapshot
// never observes a half-applied write.
type Store struct {
	mu sync.RWMutex

	nodes     map[string]domain.NodeRecord
	nodeOrder []string
	edges     map[string]domain.EdgeRecord
	edgeOrder []string
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		nodes: make(map[string]domain.NodeRecord),
		edges: make(map[string]domain.EdgeRecord),
	}
}

// UpdateNodeField sets one data field of an existing node.
func (s *Store) UpdateNodeField(ctx context.Context, nodeID, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	if rec.Data == nil {
		rec.Data = make(map[string]any)
	}
	// Copy on write so callers keep ownership of their slices.
	rec.Data[field] = domain.CloneValue(value)
	s.nodes[nodeID] = rec
	return nil
}

// NodeField returns a copy of one data field.
func (s *Store) NodeField(ctx context.Context, nodeID, field string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.nodes[nodeID]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	val, ok := rec.Data[field]
	if !ok {
		return nil, false, nil
	}
	return domain.CloneValue(val), true, nil
}

// PutNode adds or replaces a node record.
func (s *Store) PutNode(ctx context.Context, node domain.NodeRecord) error {
	if node.ID == "" {
		return fmt.Errorf("%w: node id is required", domain.ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node.ID]; !exists {
		s.nodeOrder = append(s.nodeOrder, node.ID)
	}
	s.nodes[node.ID] = node.Clone()
	return nil
}

// DeleteNode removes a node and its incident edges.
func (s *Store) DeleteNode(ctx context.Context, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[nodeID]; !ok {
		return nil
	}
	delete(s.nodes, nodeID)
	s.nodeOrder = slices.DeleteFunc(s.nodeOrder, func(id string) bool { return id == nodeID })

	for id, e := range s.edges {
		if e.Source == nodeID || e.Target == nodeID {
			delete(s.edges, id)
		}
	}
	s.edgeOrder = slices.DeleteFunc(s.edgeOrder, func(id string) bool {
		_, kept := s.edges[id]
		return !kept
	})
	return nil
}

// PutEdge adds or replaces an edge between two existing nodes.
func (s *Store) PutEdge(ctx context.Context, edge domain.EdgeRecord) error {
	if edge.ID == "" || edge.Source == "" || edge.Target == "" {
		return fmt.Errorf("%w: edge id, source and target are required", domain.ErrInvalidRecord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, endpoint := range []string{edge.Source, edge.Target} {
		if _, ok := s.nodes[endpoint]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, endpoint)
		}
	}
	if _, exists := s.edges[edge.ID]; !exists {
		s.edgeOrder = append(s.edgeOrder, edge.ID)
	}
	s.edges[edge.ID] = edge
	return nil
}

// DeleteEdge removes an edge.
func (s *Store) DeleteEdge(ctx context.Context, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[edgeID]; !ok {
		return nil
	}
	delete(s.edges, edgeID)
	s.edgeOrder = slices.DeleteFunc(s.edgeOrder, func(id string) bool { return id == edgeID })
	return nil
}

// Snapshot returns a deep copy of the graph in insertion order.
func (s *Store) Snapshot(ctx context.Context) (domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g := domain.Graph{
		Nodes: make([]domain.NodeRecord, 0, len(s.nodeOrder)),
		Edges: make([]domain.EdgeRecord, 0, len(s.edgeOrder)),
	}
	for _, id := range s.nodeOrder {
		rec := s.nodes[id].Clone()
		if rec.Data == nil {
			rec.Data = map[string]any{}
		}
		g.Nodes = append(g.Nodes, rec)
	}
	for _, id := range s.edgeOrder {
		g.Edges = append(g.Edges, s.edges[id])
	}
	return g, nil
}
