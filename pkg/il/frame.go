package il

import (
	"fmt"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/types"
)

// Frame layout, as offsets from the frame pointer:
//
//	   +------------------+
//	   | locals           |  +8 and up
//	   +------------------+
//	   | return address   |  +4
//	   +------------------+
//	   | saved FP         |  0   <- FP
//	   +------------------+
//	   | params           |  -4 and down
//	   +------------------+
const (
	localBias = 8
	paramBias = 4
)

// Frame is the per-function code generation state. It is created when the
// function is declared and sealed by EmitEnd once its body is generated.
type Frame struct {
	Name  string
	Entry Label
	Exit  Label

	temps     int
	labels    int
	lines     []Line
	pending   []Label
	localUsed int
	paramUsed int
	locals    []*ast.Identifier
	params    []*ast.Identifier
	sealed    bool
}

// NewFrame creates a frame with the entry and exit labels reserved
func NewFrame(name string) *Frame {
	f := &Frame{Name: name}
	f.Entry = f.NewLabel()
	f.Exit = f.NewLabel()
	return f
}

// AllocTemp returns a fresh temporary. Temporaries are never reused.
func (f *Frame) AllocTemp(t types.Type) *ast.Temporary {
	tmp := &ast.Temporary{Num: f.temps, Typ: t}
	f.temps++
	return tmp
}

// AllocLocal assigns id an aligned offset. Locals and params are counted
// separately; locals sit above the saved frame pointer and return address,
// params below the saved frame pointer.
func (f *Frame) AllocLocal(id *ast.Identifier, isParam bool) {
	t := id.Typ
	if isParam {
		off := types.AlignUp(f.paramUsed, t.Align())
		f.paramUsed = off + t.Width()
		id.Offset = -off - paramBias
		f.params = append(f.params, id)
		return
	}
	off := types.AlignUp(f.localUsed, t.Align())
	f.localUsed = off + t.Width()
	id.Offset = off + localBias
	f.locals = append(f.locals, id)
}

// NewLabel returns the next label
func (f *Frame) NewLabel() Label {
	l := Label(f.labels)
	f.labels++
	return l
}

// EmitLabel attaches l to the next emitted instruction
func (f *Frame) EmitLabel(l Label) {
	f.mustBeOpen()
	f.pending = append(f.pending, l)
}

// Emit appends instr on a new line carrying any pending labels
func (f *Frame) Emit(instr Instr) {
	f.mustBeOpen()
	f.lines = append(f.lines, Line{Labels: f.pending, Instr: instr})
	f.pending = nil
}

// EmitEnd attaches the exit label, appends the return and seals the frame
func (f *Frame) EmitEnd() {
	f.EmitLabel(f.Exit)
	f.Emit(Ret{})
	f.sealed = true
}

func (f *Frame) mustBeOpen() {
	if f.sealed {
		panic(fmt.Sprintf("il: emit into sealed frame %s", f.Name))
	}
}

// Lines returns the emitted lines in order
func (f *Frame) Lines() []Line {
	return f.lines
}

// Instrs returns the emitted instructions without their labels
func (f *Frame) Instrs() []Instr {
	out := make([]Instr, len(f.lines))
	for i, l := range f.lines {
		out[i] = l.Instr
	}
	return out
}

// LocalSize returns the bytes used by locals
func (f *Frame) LocalSize() int { return f.localUsed }

// ParamSize returns the bytes used by params
func (f *Frame) ParamSize() int { return f.paramUsed }

// Locals returns the allocated locals in allocation order
func (f *Frame) Locals() []*ast.Identifier { return f.locals }

// Params returns the allocated params in allocation order
func (f *Frame) Params() []*ast.Identifier { return f.params }

// Temps returns the number of temporaries allocated
func (f *Frame) Temps() int { return f.temps }

// Sealed reports whether EmitEnd has been called
func (f *Frame) Sealed() bool { return f.sealed }

// Check verifies that the frame is sealed and that every label a branch
// refers to is attached to exactly one line.
func (f *Frame) Check() error {
	if !f.sealed {
		return fmt.Errorf("frame %s: not sealed", f.Name)
	}
	attached := make(map[Label]int)
	for _, l := range f.lines {
		for _, lbl := range l.Labels {
			attached[lbl]++
		}
	}
	for lbl, n := range attached {
		if n > 1 {
			return fmt.Errorf("frame %s: label %s attached to %d lines", f.Name, lbl, n)
		}
	}
	for i, l := range f.lines {
		lbl, ok := BranchTarget(l.Instr)
		if !ok {
			continue
		}
		if attached[lbl] != 1 {
			return fmt.Errorf("frame %s: line %d branches to unattached label %s", f.Name, i, lbl)
		}
	}
	return nil
}
