package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/raymyers/ralph-il/pkg/types"
)

// Printer outputs the typed AST in a human-readable format
type Printer struct {
	w      io.Writer
	indent int
	typed  bool
}

// NewPrinter creates a new AST printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// WithTypes makes expressions print with their types, as (e : t)
func (p *Printer) WithTypes() *Printer {
	p.typed = true
	return p
}

// PrintProgram prints structs, globals and then functions
func (p *Printer) PrintProgram(prog *Program) {
	for _, s := range prog.Structs {
		p.printStruct(s)
	}
	for _, g := range prog.Globals {
		fmt.Fprintf(p.w, "%s: %s;\n", g.Name, g.Typ)
	}
	if len(prog.Structs)+len(prog.Globals) > 0 && len(prog.Funcs) > 0 {
		fmt.Fprintln(p.w)
	}
	for i, fn := range prog.Funcs {
		p.PrintFunc(fn)
		if i < len(prog.Funcs)-1 {
			fmt.Fprintln(p.w)
		}
	}
}

func (p *Printer) printStruct(s *types.Struct) {
	fmt.Fprintf(p.w, "struct %s {\n", s.Name)
	for _, f := range s.Fields() {
		fmt.Fprintf(p.w, "  %s: %s; // offset %d\n", f.Name, f.Type, f.Offset)
	}
	fmt.Fprintf(p.w, "}; // width %d, align %d\n", s.Width(), s.Align())
}

// PrintFunc prints a function prototype and, when defined, its body
func (p *Printer) PrintFunc(fn *Func) {
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = fmt.Sprintf("%s: %s", prm.Name, prm.Typ)
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	fmt.Fprintf(p.w, "function %s(%s) %s", fn.Name, strings.Join(params, ", "), fn.Typ.Return)
	if !fn.Defined {
		fmt.Fprintln(p.w, ";")
		return
	}
	fmt.Fprintln(p.w, " {")
	p.indent++
	for _, l := range fn.Locals {
		p.writeIndent()
		fmt.Fprintf(p.w, "%s: %s;\n", l.Name, l.Typ)
	}
	p.printStmt(fn.Body)
	p.indent--
	fmt.Fprintln(p.w, "};")
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

func (p *Printer) printStmt(s Stmt) {
	switch st := s.(type) {
	case *Empty:
	case *Sequence:
		p.printStmt(st.First)
		p.printStmt(st.Rest)
	case *Eval:
		p.writeIndent()
		fmt.Fprintf(p.w, "%s;\n", p.expr(st.Expr))
	case *Set:
		p.writeIndent()
		fmt.Fprintf(p.w, "@%s = %s;\n", p.expr(st.Target), p.expr(st.Value))
	case *If:
		p.writeIndent()
		fmt.Fprintf(p.w, "if (%s)\n", p.expr(st.Cond))
		p.printBody(st.Body)
	case *Else:
		p.writeIndent()
		fmt.Fprintf(p.w, "if (%s)\n", p.expr(st.Cond))
		p.printBody(st.Then)
		p.writeIndent()
		fmt.Fprintln(p.w, "else")
		p.printBody(st.Else)
	case *While:
		p.writeIndent()
		fmt.Fprintf(p.w, "while (%s) // loop %d\n", p.expr(st.Cond), st.Loop)
		p.printBody(st.Body)
	case *Do:
		p.writeIndent()
		fmt.Fprintf(p.w, "do // loop %d\n", st.Loop)
		p.printBody(st.Body)
		p.writeIndent()
		fmt.Fprintf(p.w, "while (%s);\n", p.expr(st.Cond))
	case *Break:
		p.writeIndent()
		fmt.Fprintf(p.w, "break; // loop %d\n", st.Loop)
	case *Continue:
		p.writeIndent()
		fmt.Fprintf(p.w, "continue; // loop %d\n", st.Loop)
	case *Return:
		p.writeIndent()
		if st.Value == nil {
			fmt.Fprintln(p.w, "return;")
		} else {
			fmt.Fprintf(p.w, "return %s;\n", p.expr(st.Value))
		}
	default:
		p.writeIndent()
		fmt.Fprintf(p.w, "/* unknown statement %T */\n", s)
	}
}

func (p *Printer) printBody(s Stmt) {
	p.writeIndent()
	fmt.Fprintln(p.w, "{")
	p.indent++
	p.printStmt(s)
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, "}")
}

// expr renders e. Without types it is e.String(); with types every
// compound subexpression is annotated.
func (p *Printer) expr(e Expr) string {
	if !p.typed {
		return e.String()
	}
	var s string
	switch x := e.(type) {
	case *Identifier, *Constant, *Temporary:
		return fmt.Sprintf("(%s : %s)", e, e.ExprType())
	case *Funcall:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = p.expr(a)
		}
		s = fmt.Sprintf("%s(%s)", p.expr(x.Callee), strings.Join(args, ", "))
	case *Binary:
		s = fmt.Sprintf("%s %s %s", p.expr(x.Left), x.Op, p.expr(x.Right))
	case *Unary:
		s = x.Op.String() + p.expr(x.Operand)
	case *Cast:
		s = fmt.Sprintf("%s cast to %s", p.expr(x.Operand), x.Typ)
	case *Access:
		if x.Kind == Arrow {
			s = fmt.Sprintf("%s->[%s]", p.expr(x.Base), p.expr(x.Offset))
		} else {
			s = fmt.Sprintf("%s[%s]", p.expr(x.Base), p.expr(x.Offset))
		}
	case *And:
		s = fmt.Sprintf("%s && %s", p.expr(x.Left), p.expr(x.Right))
	case *Or:
		s = fmt.Sprintf("%s || %s", p.expr(x.Left), p.expr(x.Right))
	case *Rel:
		s = fmt.Sprintf("%s %s %s", p.expr(x.Left), x.Op, p.expr(x.Right))
	default:
		s = fmt.Sprintf("/* unknown expression %T */", e)
	}
	return fmt.Sprintf("(%s : %s)", s, e.ExprType())
}
