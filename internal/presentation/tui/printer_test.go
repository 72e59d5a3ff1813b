package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vikashrahii/pipeline/pkg/layout"
	"github.com/vikashrahii/pipeline/pkg/node"
	"github.com/vikashrahii/pipeline/pkg/submit"
)

func sampleView() node.View {
	return node.View{
		ID:        "text-1",
		Text:      "Hello {{name}}",
		Variables: []string{"name"},
		Ports:     layout.DerivePorts("text-1", []string{"name"}),
		Size:      layout.Size{Width: 200, Height: 125},
		Passes:    1,
	}
}

func TestViewMarkdown(t *testing.T) {
	md := ViewMarkdown(sampleView(), "Variables detected: name")

	assert.Contains(t, md, "## text-1")
	assert.Contains(t, md, "Hello {{name}}")
	assert.Contains(t, md, "_Variables detected: name_")
	assert.Contains(t, md, "| `text-1-name` | target | left | 0.500 |")
	assert.Contains(t, md, "| `text-1-output` | source | right | 0.500 |")
	assert.Contains(t, md, "**Size:** 200 x 125 (1 layout pass)")
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinterWithWriter(&buf, false)
	assert.False(t, p.Rich())

	require.NoError(t, p.PrintView(sampleView(), ""))
	assert.Equal(t, ViewMarkdown(sampleView(), ""), buf.String())

	buf.Reset()
	res := submit.Result{NumNodes: 3, NumEdges: 2, IsDAG: true}
	p.Notify(res.Summary())
	assert.Equal(t, res.Summary()+"\n", buf.String(), "plain output carries no escape codes")

	buf.Reset()
	p.Notify(submit.FailureNotice)
	assert.Equal(t, submit.FailureNotice+"\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_|")
}
