package domain

// Node types known to the canvas. Only text nodes carry derivation logic;
// the others travel through the graph as opaque records.
const (
	NodeTypeText   = "text"
	NodeTypeInput  = "customInput"
	NodeTypeOutput = "customOutput"
	NodeTypeLLM    = "llm"
)

// Data field names written by text nodes.
const (
	FieldText      = "text"
	FieldVariables = "variables"
)

// Position is the canvas coordinate of a node's top-left corner.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeRecord represents a node in the pipeline graph.
type NodeRecord struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`

	// Data holds the node's fields keyed by name (e.g. "text", "variables").
	// Values are whatever the owning node published; the graph does not interpret them.
	Data map[string]any `json:"data" yaml:"data"`
}

// EdgeRecord connects an output handle of one node to an input handle of another.
type EdgeRecord struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	Target       string `json:"target" yaml:"target"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	Animated     bool   `json:"animated,omitempty" yaml:"animated,omitempty"`
}

// Clone returns a copy of the record whose Data can be mutated independently.
func (r NodeRecord) Clone() NodeRecord {
	out := r
	if r.Data != nil {
		out.Data = make(map[string]any, len(r.Data))
		for k, v := range r.Data {
			out.Data[k] = CloneValue(v)
		}
	}
	return out
}

// CloneValue copies the container types a node may publish (slices and maps).
// Scalars are returned as-is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case []string:
		if val == nil {
			return val
		}
		return append(make([]string, 0, len(val)), val...)
	case []any:
		if val == nil {
			return val
		}
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
