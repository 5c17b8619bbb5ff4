// Package layout describes where the front end placed every struct field,
// global variable and frame slot, and writes the description as YAML.
package layout

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/parser"
	"github.com/raymyers/ralph-il/pkg/types"
)

// Frame layout as seen from the frame pointer:
//
//	+---------------------------+
//	| locals                    |  +8 and up
//	| return address            |  +4
//	| saved FP                  |  0   <- FP
//	| params                    |  -4 and down
//	+---------------------------+
//
// Offsets below are reported exactly as the identifiers carry them.

// Report is the layout of one program
type Report struct {
	Structs []Struct `yaml:"structs,omitempty"`
	Static  Static   `yaml:"static"`
	Frames  []Frame  `yaml:"frames,omitempty"`
}

// Struct is a struct type with its packed fields
type Struct struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Align  int    `yaml:"align"`
	Fields []Slot `yaml:"fields"`
}

// Static is the global variable area
type Static struct {
	Size    int    `yaml:"size"`
	Globals []Slot `yaml:"globals,omitempty"`
}

// Frame is the stack frame of a defined function
type Frame struct {
	Name      string `yaml:"name"`
	ParamSize int    `yaml:"param_size"`
	LocalSize int    `yaml:"local_size"`
	Temps     int    `yaml:"temps"`
	Params    []Slot `yaml:"params,omitempty"`
	Locals    []Slot `yaml:"locals,omitempty"`
}

// Slot is one named piece of storage
type Slot struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Offset int    `yaml:"offset"`
	Width  int    `yaml:"width"`
	Align  int    `yaml:"align"`
}

func slot(name string, t types.Type, offset int) Slot {
	return Slot{Name: name, Type: t.String(), Offset: offset, Width: t.Width(), Align: t.Align()}
}

func slots(ids []*ast.Identifier) []Slot {
	out := make([]Slot, len(ids))
	for i, id := range ids {
		out[i] = slot(id.Name, id.Typ, id.Offset)
	}
	return out
}

// Describe collects the layout decided while parsing res
func Describe(res *parser.Result) Report {
	var r Report
	for _, st := range res.Program.Structs {
		s := Struct{Name: st.Name, Width: st.Width(), Align: st.Align(), Fields: []Slot{}}
		for _, f := range st.Fields() {
			s.Fields = append(s.Fields, slot(f.Name, f.Type, f.Offset))
		}
		r.Structs = append(r.Structs, s)
	}

	r.Static = Static{Size: res.Static.Size(), Globals: slots(res.Static.Globals())}

	for _, u := range res.Units {
		f := u.Frame
		r.Frames = append(r.Frames, Frame{
			Name:      f.Name,
			ParamSize: f.ParamSize(),
			LocalSize: f.LocalSize(),
			Temps:     f.Temps(),
			Params:    slots(f.Params()),
			Locals:    slots(f.Locals()),
		})
	}
	return r
}

// WriteYAML encodes r to w
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "encoding layout")
	}
	return errors.Wrap(enc.Close(), "encoding layout")
}
