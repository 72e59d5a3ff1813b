package submit

import "fmt"

// Result is the validator's verdict on a submitted graph.
type Result struct {
	NumNodes int  `json:"num_nodes"`
	NumEdges int  `json:"num_edges"`
	IsDAG    bool `json:"is_dag"`
}

// Summary renders the result the way it is presented to the user.
func (r Result) Summary() string {
	dag := "No"
	if r.IsDAG {
		dag = "Yes"
	}
	return fmt.Sprintf("Pipeline Analysis Results:\n\nNumber of Nodes: %d\nNumber of Edges: %d\nIs DAG: %s",
		r.NumNodes, r.NumEdges, dag)
}

// response is the raw validator body. Pointers distinguish missing fields from zero values.
type response struct {
	NumNodes *int   `json:"num_nodes"`
	NumEdges *int   `json:"num_edges"`
	IsDAG    *bool  `json:"is_dag"`
	Error    string `json:"error"`
}

func (r response) result() (*Result, error) {
	if r.Error != "" {
		return nil, fmt.Errorf("%w: validator error: %s", ErrResponse, r.Error)
	}
	if r.NumNodes == nil || r.NumEdges == nil || r.IsDAG == nil {
		return nil, fmt.Errorf("%w: missing num_nodes, num_edges or is_dag", ErrResponse)
	}
	return &Result{NumNodes: *r.NumNodes, NumEdges: *r.NumEdges, IsDAG: *r.IsDAG}, nil
}
