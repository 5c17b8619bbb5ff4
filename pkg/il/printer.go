package il

import (
	"fmt"
	"io"
)

// Printer outputs IL in a readable format
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new IL printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintStatic prints the global variable layout
func (p *Printer) PrintStatic(s *StaticArea) {
	for _, g := range s.Globals() {
		fmt.Fprintf(p.w, "global %s: %s @%d\n", g.Name, g.Typ, g.Offset)
	}
	if len(s.Globals()) > 0 {
		fmt.Fprintf(p.w, "; static size = %d\n\n", s.Size())
	}
}

// PrintFrames prints each frame, separated by blank lines
func (p *Printer) PrintFrames(frames []*Frame) {
	for i, f := range frames {
		p.PrintFrame(f)
		if i < len(frames)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

// PrintFrame prints one function's lines
func (p *Printer) PrintFrame(f *Frame) {
	fmt.Fprintf(p.w, "function %s:\n", f.Name)
	if f.ParamSize() > 0 || f.LocalSize() > 0 {
		fmt.Fprintf(p.w, "  ; params = %d, locals = %d\n", f.ParamSize(), f.LocalSize())
	}
	for _, l := range f.Lines() {
		fmt.Fprintf(p.w, "  %s\n", l)
	}
}
