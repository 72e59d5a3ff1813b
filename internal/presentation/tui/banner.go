package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the CLI banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"        _            ___            ", "#818cf8"},
		{"  _ __ (_)_ __  ___ | (_)_ __   ___ ", "#a78bfa"},
		{" | '_ \\| | '_ \\/ _ \\| | | '_ \\ / _ \\", "#c084fc"},
		{" | |_) | | |_) | __/| | | | | |  __/", "#e879f9"},
		{" | .__/|_| .__/\\___||_|_|_| |_|\\___|", "#f472b6"},
		{" |_|     |_|                        ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
