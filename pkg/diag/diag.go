// Package diag reports syntax, name and type errors found by the front end.
//
// The three kinds propagate differently: a syntax error ends the parse, while
// name and type errors are reported and parsing continues.
package diag

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Kind classifies a diagnostic
type Kind int

const (
	Syntax Kind = iota
	Name
	Type
)

var (
	ErrSyntax = errors.New("syntax error")
	ErrName   = errors.New("name error")
	ErrType   = errors.New("type error")
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax"
	case Name:
		return "name"
	case Type:
		return "type"
	}
	return "unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case Name:
		return ErrName
	case Type:
		return ErrType
	}
	return ErrSyntax
}

// Diagnostic is one reported error. Name is set for name errors only.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Name    string
	Message string
}

// Text returns the message as printed, prefixed with the name for name errors.
func (d Diagnostic) Text() string {
	if d.Name != "" {
		return d.Name + ": " + d.Message
	}
	return d.Message
}

// String renders the console form: Error: "<message>", line <n>
func (d Diagnostic) String() string {
	return fmt.Sprintf("Error: %q, line %d", d.Text(), d.Line)
}

// Error makes a Diagnostic usable as an error wrapping its kind's sentinel.
func (d Diagnostic) Error() string {
	return d.String()
}

func (d Diagnostic) Unwrap() error {
	return d.Kind.sentinel()
}

// Syntaxf builds a syntax diagnostic
func Syntaxf(line int, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: Syntax, Line: line, Message: fmt.Sprintf(format, args...)}
}

// Typef builds a type diagnostic
func Typef(line int, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: Type, Line: line, Message: fmt.Sprintf(format, args...)}
}

// NameErr builds a name diagnostic from a scope error. The scope error text is
// "<name>: <message>"; only the message part is kept.
func NameErr(line int, name string, err error) Diagnostic {
	return Diagnostic{Kind: Name, Line: line, Name: name, Message: errors.Cause(err).Error()}
}

// Namef builds a name diagnostic with its own message
func Namef(line int, name, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: Name, Line: line, Name: name, Message: fmt.Sprintf(format, args...)}
}

// Reporter receives diagnostics as they are found
type Reporter interface {
	Report(Diagnostic)
}

// List collects diagnostics in report order
type List struct {
	Items []Diagnostic
}

func (l *List) Report(d Diagnostic) {
	l.Items = append(l.Items, d)
}

// Len returns the number of diagnostics collected
func (l *List) Len() int {
	return len(l.Items)
}

// Count returns the number of diagnostics of kind k
func (l *List) Count(k Kind) int {
	n := 0
	for _, d := range l.Items {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// Writer prints each diagnostic on its own line as it is reported
type Writer struct {
	w     io.Writer
	color bool
	n     int
}

// NewWriter creates a Writer. With color set the "Error" prefix is
// highlighted with ANSI escapes.
func NewWriter(w io.Writer, color bool) *Writer {
	return &Writer{w: w, color: color}
}

func (w *Writer) Report(d Diagnostic) {
	w.n++
	if w.color {
		fmt.Fprintf(w.w, "\x1b[1;31mError\x1b[0m: %q, line %d\n", d.Text(), d.Line)
		return
	}
	fmt.Fprintln(w.w, d.String())
}

// Count returns the number of diagnostics written
func (w *Writer) Count() int {
	return w.n
}

// Tee forwards each diagnostic to every reporter in order
type Tee []Reporter

func (t Tee) Report(d Diagnostic) {
	for _, r := range t {
		r.Report(d)
	}
}
