package layout

// PortKind distinguishes ports that accept edges from the port that emits them.
type PortKind string

const (
	PortInput  PortKind = "target"
	PortOutput PortKind = "source"
)

// Side is the node edge a port is drawn on.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// OutputName is the suffix of every node's single output port id.
const OutputName = "output"

// Port is a named connection point on a node.
type Port struct {
	ID   string   `json:"id"`
	Kind PortKind `json:"type"`
	Side Side     `json:"side"`
	// Offset is the fractional position along Side, 0 at the top and 1 at the bottom.
	Offset float64 `json:"offset"`
	Label  string  `json:"label,omitempty"`
}

// Ports is the full port set of a text node.
type Ports struct {
	Inputs []Port `json:"inputs"`
	Output Port   `json:"output"`
}

// PortID returns the id of the input port for variable name on node nodeID.
// Ids depend only on their arguments, so a port keeps its id (and its edges)
// across edits that leave the variable in place.
func PortID(nodeID, name string) string {
	return nodeID + "-" + name
}

// OutputPortID returns the id of the output port of node nodeID.
func OutputPortID(nodeID string) string {
	return PortID(nodeID, OutputName)
}

// DerivePorts builds one input port per variable plus the output port.
// Input i of n sits at offset (i+1)/(n+1).
func DerivePorts(nodeID string, variables []string) Ports {
	n := len(variables)
	inputs := make([]Port, n)
	for i, name := range variables {
		inputs[i] = Port{
			ID:     PortID(nodeID, name),
			Kind:   PortInput,
			Side:   SideLeft,
			Offset: float64(i+1) / float64(n+1),
			Label:  name,
		}
	}

	return Ports{
		Inputs: inputs,
		Output: Port{
			ID:     OutputPortID(nodeID),
			Kind:   PortOutput,
			Side:   SideRight,
			Offset: 0.5,
		},
	}
}

// IDs returns every port id, inputs first.
func (p Ports) IDs() []string {
	ids := make([]string, 0, len(p.Inputs)+1)
	for _, in := range p.Inputs {
		ids = append(ids, in.ID)
	}
	return append(ids, p.Output.ID)
}

// HasInput reports whether id names one of the input ports.
func (p Ports) HasInput(id string) bool {
	for _, in := range p.Inputs {
		if in.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a copy whose Inputs slice is not shared.
func (p Ports) Clone() Ports {
	p.Inputs = append(make([]Port, 0, len(p.Inputs)), p.Inputs...)
	return p
}
