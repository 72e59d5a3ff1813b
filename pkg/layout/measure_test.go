package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineMeasurer(t *testing.T) {
	m := NewLineMeasurer()

	// 200 wide leaves 168 units, 24 glyphs per row.
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"Empty Uses Minimum Rows", "", 60},
		{"Three Short Rows", "a\nb\nc", 60},
		{"Fourth Row Grows", "a\nb\nc\nd", 4*16 + 8},
		{"Long Row Wraps", strings.Repeat("x", 24*5), 5*16 + 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Measure(tt.text, 200))
		})
	}
}

func TestLineMeasurer_WiderNodeWrapsLess(t *testing.T) {
	m := NewLineMeasurer()
	text := strings.Repeat("word ", 60)

	assert.Less(t, m.Measure(text, 400), m.Measure(text, 200))
}

func TestMeasurerFunc(t *testing.T) {
	var f Measurer = MeasurerFunc(func(text string, width float64) float64 { return width / 2 })
	assert.Equal(t, 100.0, f.Measure("ignored", 200))
}
