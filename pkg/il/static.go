package il

import (
	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/types"
)

// StaticArea lays out global variables, each aligned to its own type
type StaticArea struct {
	used    int
	globals []*ast.Identifier
}

// NewStaticArea creates an empty static area
func NewStaticArea() *StaticArea {
	return &StaticArea{}
}

// Allocate assigns id the next aligned offset and returns it
func (s *StaticArea) Allocate(id *ast.Identifier) int {
	off := types.AlignUp(s.used, id.Typ.Align())
	s.used = off + id.Typ.Width()
	id.Offset = off
	s.globals = append(s.globals, id)
	return off
}

// Size returns the bytes used
func (s *StaticArea) Size() int { return s.used }

// Globals returns the allocated globals in allocation order
func (s *StaticArea) Globals() []*ast.Identifier { return s.globals }
