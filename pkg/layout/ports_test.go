package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDerivePorts_Scenario(t *testing.T) {
	ports := DerivePorts("text-1", []string{"name", "age"})

	want := []Port{
		{ID: "text-1-name", Kind: PortInput, Side: SideLeft, Offset: 1.0 / 3.0, Label: "name"},
		{ID: "text-1-age", Kind: PortInput, Side: SideLeft, Offset: 2.0 / 3.0, Label: "age"},
	}
	if diff := cmp.Diff(want, ports.Inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "text-1-output", ports.Output.ID)
	assert.Equal(t, PortOutput, ports.Output.Kind)
	assert.Equal(t, SideRight, ports.Output.Side)
}

func TestDerivePorts_NoVariables(t *testing.T) {
	ports := DerivePorts("n", nil)

	require.NotNil(t, ports.Inputs)
	assert.Empty(t, ports.Inputs)
	assert.Equal(t, "n-output", ports.Output.ID)
	assert.Equal(t, []string{"n-output"}, ports.IDs())
}

func TestDerivePorts_StableIDsAcrossEdits(t *testing.T) {
	before := DerivePorts("n", []string{"a", "b"})
	after := DerivePorts("n", []string{"c", "b"})

	// "b" moved from index 1 of 2 to index 1 of 2 with a new neighbour; same id.
	assert.Equal(t, before.Inputs[1].ID, after.Inputs[1].ID)
	assert.False(t, after.HasInput("n-a"))
	assert.True(t, after.HasInput("n-c"))
}

func TestPorts_CloneDoesNotShareInputs(t *testing.T) {
	p := DerivePorts("n", []string{"a"})
	c := p.Clone()
	c.Inputs[0].Label = "changed"

	assert.Equal(t, "a", p.Inputs[0].Label)
}

func TestDerivePorts_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nodeID := rapid.StringMatching(`[a-z]+-[0-9]{1,3}`).Draw(t, "node_id")
		variables := rapid.SliceOfDistinct(
			rapid.StringMatching(`[a-zA-Z_$][a-zA-Z0-9_$]{0,6}`),
			func(s string) string { return s },
		).Draw(t, "variables")

		ports := DerivePorts(nodeID, variables)

		if len(ports.Inputs) != len(variables) {
			t.Fatalf("got %d inputs for %d variables", len(ports.Inputs), len(variables))
		}
		prev := 0.0
		for i, in := range ports.Inputs {
			if in.ID != nodeID+"-"+variables[i] {
				t.Fatalf("input %d id = %q, want %q", i, in.ID, nodeID+"-"+variables[i])
			}
			if in.Offset <= 0 || in.Offset >= 1 {
				t.Fatalf("input %d offset %v outside (0,1)", i, in.Offset)
			}
			if in.Offset <= prev {
				t.Fatalf("input %d offset %v not greater than %v", i, in.Offset, prev)
			}
			prev = in.Offset
		}
		if ports.Output.ID != nodeID+"-output" {
			t.Fatalf("output id = %q", ports.Output.ID)
		}
	})
}
