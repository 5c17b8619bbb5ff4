// Package il defines the three-address intermediate language: labels,
// instructions and the lines that hold them.
package il

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-il/pkg/ast"
)

// Label names a line within one frame
type Label int

func (l Label) String() string {
	return fmt.Sprintf("l%d", l)
}

// Target is a branch destination that may be absent. An absent target means
// control falls through to the next line.
type Target struct {
	label Label
	ok    bool
}

// Fallthrough is the absent target
var Fallthrough = Target{}

// To makes a present target
func To(l Label) Target {
	return Target{label: l, ok: true}
}

// Label returns the target's label and whether it is present
func (t Target) Label() (Label, bool) {
	return t.label, t.ok
}

func (t Target) String() string {
	if !t.ok {
		return "fallthrough"
	}
	return t.label.String()
}

// Instr is the interface for three-address instructions
type Instr interface {
	implInstr()
	String() string
}

// Assign stores Src into Dst. Dst is a symbol, an access or a dereference;
// Src is a symbol or a single operation on symbols.
type Assign struct {
	Dst ast.Expr
	Src ast.Expr
}

// IfTrue branches to Label when Cond holds
type IfTrue struct {
	Cond  ast.Expr
	Label Label
}

// IfFalse branches to Label when Cond does not hold
type IfFalse struct {
	Cond  ast.Expr
	Label Label
}

// Goto branches unconditionally
type Goto struct {
	Label Label
}

// Param pushes one call argument
type Param struct {
	Value ast.Symbol
}

// Call calls Callee with the Argc most recent params
type Call struct {
	Callee ast.Symbol
	Argc   int
}

// LoadRet copies the value returned by the last call into Dst
type LoadRet struct {
	Dst *ast.Temporary
}

// StoreRet sets the value the function returns
type StoreRet struct {
	Value ast.Symbol
}

// Ret returns from the function
type Ret struct{}

func (Assign) implInstr()   {}
func (IfTrue) implInstr()   {}
func (IfFalse) implInstr()  {}
func (Goto) implInstr()     {}
func (Param) implInstr()    {}
func (Call) implInstr()     {}
func (LoadRet) implInstr()  {}
func (StoreRet) implInstr() {}
func (Ret) implInstr()      {}

func (i Assign) String() string   { return fmt.Sprintf("%s = %s", i.Dst, i.Src) }
func (i IfTrue) String() string   { return fmt.Sprintf("iftrue %s goto %s", i.Cond, i.Label) }
func (i IfFalse) String() string  { return fmt.Sprintf("iffalse %s goto %s", i.Cond, i.Label) }
func (i Goto) String() string     { return "goto " + i.Label.String() }
func (i Param) String() string    { return "param " + i.Value.String() }
func (i Call) String() string     { return fmt.Sprintf("call %s, %d", i.Callee, i.Argc) }
func (i LoadRet) String() string  { return "loadret " + i.Dst.String() }
func (i StoreRet) String() string { return "storeret " + i.Value.String() }
func (Ret) String() string        { return "ret" }

// BranchTarget returns the label an instruction may jump to
func BranchTarget(instr Instr) (Label, bool) {
	switch i := instr.(type) {
	case IfTrue:
		return i.Label, true
	case IfFalse:
		return i.Label, true
	case Goto:
		return i.Label, true
	}
	return 0, false
}

// Line is one instruction with the labels attached before it
type Line struct {
	Labels []Label
	Instr  Instr
}

func (l Line) String() string {
	var sb strings.Builder
	for _, lbl := range l.Labels {
		sb.WriteString(lbl.String())
		sb.WriteString(": ")
	}
	sb.WriteString(l.Instr.String())
	return sb.String()
}
