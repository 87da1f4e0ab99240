// Package cmdutils renders CLI output.
package cmdutils

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/hugin/hugin/internal/schema"
)

// PrinterOptions select how answers are shown.
type PrinterOptions struct {
	// Raw prints answers as plain text instead of rendered markdown.
	Raw bool
	// OutputOnly prints nothing but the answer text.
	OutputOnly bool
	// Width is the wrap width for rendered markdown; 0 means 100.
	Width int
}

// Printer writes answers to out and everything else to status.
type Printer struct {
	out, status io.Writer
	opts        PrinterOptions
	renderer    *glamour.TermRenderer
}

func NewPrinter(out, status io.Writer, opts PrinterOptions) *Printer {
	p := &Printer{out: out, status: status, opts: opts}
	if opts.Raw || opts.OutputOnly {
		return p
	}
	width := opts.Width
	if width <= 0 {
		width = 100
	}
	style := "dark"
	if !lipgloss.HasDarkBackground() {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		p.renderer = r
	}
	return p
}

// Answer prints the model's final text.
func (p *Printer) Answer(text string) {
	if text == "" {
		return
	}
	if p.opts.OutputOnly {
		fmt.Fprintln(p.out, text)
		return
	}
	body := text
	if p.renderer != nil {
		if rendered, err := p.renderer.Render(text); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	fmt.Fprintf(p.out, "\n%s\n%s\n\n", LabelStyle.Render(logo+" hugin"), body)
}

// Progress shows a tool hint while a turn runs.
func (p *Printer) Progress(hint string) {
	if p.opts.OutputOnly || hint == "" {
		return
	}
	fmt.Fprintln(p.status, ToolActionStyle.Render("↳ "+hint))
}

func (p *Printer) Error(err error) {
	fmt.Fprintln(p.status, ErrorStyle.Render("Error: "+err.Error()))
}

// Info prints a status line unless only the answer is wanted.
func (p *Printer) Info(format string, args ...any) {
	if p.opts.OutputOnly {
		return
	}
	fmt.Fprintf(p.status, format+"\n", args...)
}

func (p *Printer) Banner(subtitle string) {
	if p.opts.OutputOnly {
		return
	}
	fmt.Fprintf(p.status, "%s %s\n", TitleStyle.Render(logo+" hugin"), HintStyle.Render(subtitle))
}

// Catalog lists tools with their descriptions.
func (p *Printer) Catalog(descs []schema.ToolDescriptor) {
	if len(descs) == 0 {
		fmt.Fprintln(p.out, "No tools available.")
		return
	}
	fmt.Fprintf(p.out, "%d tools:\n", len(descs))
	for _, d := range descs {
		desc := d.Description
		if i := strings.IndexByte(desc, '\n'); i >= 0 {
			desc = desc[:i]
		}
		fmt.Fprintf(p.out, "  %s  %s\n", ToolNameStyle.Render(d.Name), HintStyle.Render(desc))
	}
}

func (p *Printer) Usage(u schema.Usage) {
	fmt.Fprintf(p.out, "Model calls: %d  input tokens: %d  output tokens: %d  total: %d\n",
		u.Calls, u.InputTokens, u.OutputTokens, u.Total())
}
