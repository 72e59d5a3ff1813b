package domain

// Graph is the complete set of nodes and edges composed by the user.
// It is the payload submitted to the remote validator.
type Graph struct {
	Nodes []NodeRecord `json:"nodes" yaml:"nodes"`
	Edges []EdgeRecord `json:"edges" yaml:"edges"`
}

// Node returns the record with the given id.
func (g Graph) Node(id string) (NodeRecord, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeRecord{}, false
}

// EdgesInto returns the edges whose target is the given node, in graph order.
func (g Graph) EdgesInto(nodeID string) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range g.Edges {
		if e.Target == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Normalize replaces nil slices with empty ones so the graph encodes as
// {"nodes": [], "edges": []} rather than null.
func (g Graph) Normalize() Graph {
	if g.Nodes == nil {
		g.Nodes = []NodeRecord{}
	}
	if g.Edges == nil {
		g.Edges = []EdgeRecord{}
	}
	return g
}
