package graph

import (
	"fmt"
	"strings"

	"github.com/vikashrahii/pipeline/pkg/domain"
)

// Overlay marks nodes and edges to highlight on the diagram.
type Overlay struct {
	// DanglingEdges are edge ids whose target port no longer exists.
	DanglingEdges []string
	// Selected is the id of the node under inspection.
	Selected string
}

// GenerateMermaid produces a Mermaid flowchart (graph LR) of a pipeline.
// Shapes follow the node type:
//   - Input: [/Parallelogram/]
//   - Output: [\Parallelogram\]
//   - Text: [[Subroutine]], labelled with its variables
//   - Default: [Rectangle]
//
// Edges into a text node are labelled with the variable of their target port.
func GenerateMermaid(g domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, n := range g.Nodes {
		safeID := sanitizeMermaidID(n.ID)

		opener, closer := "[", "]"
		switch n.Type {
		case domain.NodeTypeInput:
			opener, closer = "[/", "/]"
		case domain.NodeTypeOutput:
			opener, closer = "[\\", "\\]"
		case domain.NodeTypeText:
			opener, closer = "[[", "]]"
		}

		label := n.ID
		if n.Type == domain.NodeTypeText {
			if td, err := domain.DecodeTextData(n.Data); err == nil && len(td.Variables) > 0 {
				label = fmt.Sprintf("%s <br/> %s", n.ID, strings.Join(td.Variables, ", "))
			}
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer))
	}

	dangling := make(map[string]bool)
	if overlay != nil {
		for _, id := range overlay.DanglingEdges {
			dangling[id] = true
		}
	}

	for _, e := range g.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		arrow := "-->"
		if dangling[e.ID] {
			arrow = "-.->"
		}
		if v := portVariable(e); v != "" {
			if dangling[e.ID] {
				arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(v))
			} else {
				arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(v))
			}
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, to))
	}

	if overlay != nil && overlay.Selected != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
	}

	return sb.String()
}

// portVariable returns the variable name encoded in an edge's target handle, if any.
func portVariable(e domain.EdgeRecord) string {
	prefix := e.Target + "-"
	if !strings.HasPrefix(e.TargetHandle, prefix) {
		return ""
	}
	return strings.TrimPrefix(e.TargetHandle, prefix)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
