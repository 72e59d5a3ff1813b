package layout

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Measurer reports the natural content height of a node's text area when the
// node is rendered at the given width. It is the "measure" step of the
// render, measure, resize cycle.
type Measurer interface {
	Measure(text string, width float64) float64
}

// MeasurerFunc adapts a plain function to Measurer.
type MeasurerFunc func(text string, width float64) float64

// Measure calls f.
func (f MeasurerFunc) Measure(text string, width float64) float64 {
	return f(text, width)
}

// LineMeasurer estimates text area height by wrapping text into fixed-width lines.
type LineMeasurer struct {
	GlyphWidth float64 // average glyph advance
	LineHeight float64
	Inset      float64 // horizontal padding between node edge and text
	Padding    float64 // vertical padding inside the text area
	MinRows    int
}

// NewLineMeasurer returns a measurer tuned for a 12-unit font in a three-row text area.
func NewLineMeasurer() LineMeasurer {
	return LineMeasurer{
		GlyphWidth: 7,
		LineHeight: 16,
		Inset:      32,
		Padding:    8,
		MinRows:    3,
	}
}

// Measure implements Measurer. Explicit newlines always start a new row; long rows wrap.
func (m LineMeasurer) Measure(text string, width float64) float64 {
	perRow := 1
	if m.GlyphWidth > 0 {
		perRow = max(1, int(math.Floor((width-m.Inset)/m.GlyphWidth)))
	}

	rows := 0
	for _, line := range strings.Split(text, "\n") {
		n := utf8.RuneCountInString(line)
		if n == 0 {
			rows++
			continue
		}
		rows += (n + perRow - 1) / perRow
	}
	rows = max(rows, m.MinRows)

	return math.Max(MinContentHeight, float64(rows)*m.LineHeight+m.Padding)
}
