package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestComputeSize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		measured float64
		vars     int
		want     Size
	}{
		{"Empty Text Hits Width Floor", "", 60, 0, Size{Width: 200, Height: 100}},
		{"Width Grows With Text", strings.Repeat("x", 25), 60, 0, Size{Width: 240, Height: 100}},
		{"Width Reaches Cap Exactly", strings.Repeat("x", 45), 60, 0, Size{Width: 400, Height: 100}},
		{"Width Capped", strings.Repeat("x", 46), 60, 0, Size{Width: 400, Height: 100}},
		{"Ports Add Height", "{{a}}", 60, 2, Size{Width: 200, Height: 150}},
		{"Content Growth Adds Height", "x", 92, 0, Size{Width: 200, Height: 132}},
		{"Content Below Floor Ignored", "x", 20, 1, Size{Width: 200, Height: 125}},
		{"Negative Variable Count Ignored", "x", 60, -3, Size{Width: 200, Height: 100}},
		{"Runes Counted Not Bytes", strings.Repeat("é", 25), 60, 0, Size{Width: 240, Height: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeSize(tt.text, tt.measured, tt.vars))
		})
	}
}

func TestComputeSize_NaNMeasurement(t *testing.T) {
	got := ComputeSize("abc", math.NaN(), 0)
	assert.Equal(t, Size{Width: 200, Height: 100}, got)
}

func TestComputeSize_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		extra := rapid.StringN(0, 10, -1).Draw(t, "extra")
		measured := rapid.Float64Range(0, 2000).Draw(t, "measured")
		more := rapid.Float64Range(0, 500).Draw(t, "more")
		vars := rapid.IntRange(0, 50).Draw(t, "vars")

		base := ComputeSize(text, measured, vars)

		if base.Width < MinWidth || base.Width > MaxWidth {
			t.Fatalf("width %v outside [%d,%d]", base.Width, MinWidth, MaxWidth)
		}
		if base.Height < BaseHeight {
			t.Fatalf("height %v below %d", base.Height, BaseHeight)
		}
		if longer := ComputeSize(text+extra, measured, vars); longer.Width < base.Width {
			t.Fatalf("width shrank when text grew: %v -> %v", base.Width, longer.Width)
		}
		if taller := ComputeSize(text, measured+more, vars); taller.Height < base.Height {
			t.Fatalf("height shrank when content grew: %v -> %v", base.Height, taller.Height)
		}
		if morePorts := ComputeSize(text, measured, vars+1); morePorts.Height <= base.Height {
			t.Fatalf("height did not grow with an extra port: %v -> %v", base.Height, morePorts.Height)
		}
	})
}
