package layout

import (
	"math"
	"unicode/utf8"
)

// Sizing constants, in canvas units.
const (
	MinWidth     = 200
	MaxWidth     = 400
	CharWidth    = 8
	WidthPadding = 40

	BaseHeight  = 100
	PortSpacing = 25

	// MinContentHeight is the text area's floor; only growth beyond it enlarges the node.
	MinContentHeight = 60
)

// Size is a node's rendered width and height.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ComputeSize returns the node size for the given text, measured text area height
// and number of variable ports.
//
//	width  = clamp(200, 400, len(text)*8 + 40)
//	height = max(100, 100 + ports*25 + max(0, measured-60))
func ComputeSize(text string, measuredContentHeight float64, variableCount int) Size {
	width := float64(utf8.RuneCountInString(text))*CharWidth + WidthPadding
	width = math.Max(MinWidth, math.Min(MaxWidth, width))

	var portBand float64
	if variableCount > 0 {
		portBand = float64(variableCount) * PortSpacing
	}

	// NaN compares false and contributes nothing.
	var growth float64
	if measuredContentHeight > MinContentHeight {
		growth = measuredContentHeight - MinContentHeight
	}

	height := math.Max(BaseHeight, BaseHeight+portBand+growth)
	return Size{Width: width, Height: height}
}
