package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline/internal/adapters/file"
	"github.com/vikashrahii/pipeline/internal/presentation/graph"
	"github.com/vikashrahii/pipeline/pkg/domain"
	"github.com/vikashrahii/pipeline/pkg/layout"
	"github.com/vikashrahii/pipeline/pkg/template"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the pipeline graph as a Mermaid diagram",
	Long: `Reads a pipeline graph (JSON or YAML) and prints a Mermaid diagram (graph LR).
Edges whose target port no longer exists on a text node are drawn dotted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := file.LoadGraph(args[0])
		if err != nil {
			return err
		}
		selected, _ := cmd.Flags().GetString("select")
		overlay := &graph.Overlay{DanglingEdges: danglingEdges(g), Selected: selected}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
		return nil
	},
}

// danglingEdges returns the ids of edges that target a text node port its
// current text no longer declares.
func danglingEdges(g domain.Graph) []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Type != domain.NodeTypeText {
			continue
		}
		td, err := domain.DecodeTextData(n.Data)
		if err != nil {
			continue
		}
		ports := layout.DerivePorts(n.ID, template.ExtractVariables(td.Text))
		for _, e := range g.EdgesInto(n.ID) {
			if e.TargetHandle != "" && !ports.HasInput(e.TargetHandle) {
				ids = append(ids, e.ID)
			}
		}
	}
	return ids
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("select", "", "Highlight the node with this id")
}
