package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/vikashrahii/pipeline/pkg/node"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ViewMarkdown describes a reconciled text node as markdown: its text, its
// port table and its size.
func ViewMarkdown(v node.View, summary string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", v.ID)
	fmt.Fprintf(&sb, "```\n%s\n```\n\n", v.Text)

	if summary != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", summary)
	}

	sb.WriteString("| Port | Type | Side | Offset |\n|---|---|---|---|\n")
	for _, p := range v.Ports.Inputs {
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %.3f |\n", p.ID, p.Kind, p.Side, p.Offset)
	}
	out := v.Ports.Output
	fmt.Fprintf(&sb, "| `%s` | %s | %s | %.3f |\n\n", out.ID, out.Kind, out.Side, out.Offset)

	passes := "pass"
	if v.Passes != 1 {
		passes = "passes"
	}
	fmt.Fprintf(&sb, "**Size:** %.0f x %.0f (%d layout %s)\n", v.Size.Width, v.Size.Height, v.Passes, passes)
	return sb.String()
}
