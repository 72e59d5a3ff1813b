package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/vikashrahii/pipeline/pkg/node"
	"github.com/vikashrahii/pipeline/pkg/submit"
	"golang.org/x/term"
)

// Printer writes node views and submission results either as plain text or,
// on a terminal, as rendered markdown with colour.
type Printer struct {
	out     io.Writer
	rich    bool
	render  func(string) (string, error)
	profile termenv.Profile
}

// NewPrinter returns a Printer for f; rich output is enabled when f is a terminal.
func NewPrinter(f *os.File) *Printer {
	return NewPrinterWithWriter(f, term.IsTerminal(int(f.Fd())))
}

// NewPrinterWithWriter returns a Printer with explicit richness.
func NewPrinterWithWriter(w io.Writer, rich bool) *Printer {
	p := &Printer{out: w, rich: rich, profile: termenv.Ascii}
	if rich {
		p.render = NewRenderer()
		p.profile = termenv.ColorProfile()
	}
	return p
}

// Rich reports whether the printer renders markdown and colour.
func (p *Printer) Rich() bool {
	return p.rich
}

// PrintView writes a reconciled node view.
func (p *Printer) PrintView(v node.View, summary string) error {
	md := ViewMarkdown(v, summary)
	if p.rich {
		rendered, err := p.render(md)
		if err == nil {
			md = rendered
		}
	}
	_, err := fmt.Fprint(p.out, md)
	return err
}

// Notify implements submit.Notifier. Result summaries get a coloured verdict.
func (p *Printer) Notify(msg string) {
	if msg == submit.FailureNotice {
		fmt.Fprintln(p.out, p.profile.String(msg).Foreground(p.profile.Color("#ef4444")))
		return
	}

	lines := strings.Split(msg, "\n")
	for i, line := range lines {
		switch line {
		case "Is DAG: Yes":
			lines[i] = p.profile.String(line).Foreground(p.profile.Color("#22c55e")).Bold().String()
		case "Is DAG: No":
			lines[i] = p.profile.String(line).Foreground(p.profile.Color("#f59e0b")).Bold().String()
		}
	}
	fmt.Fprintln(p.out, strings.Join(lines, "\n"))
}

var _ submit.Notifier = (*Printer)(nil)
