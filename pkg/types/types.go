// Package types defines the closed type model of the language: basic types,
// pointers, arrays, structs and functions, each with a width and an alignment.
package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Type is the interface for all types
type Type interface {
	implType()
	Width() int
	Align() int
	String() string
}

// Kind names a basic type
type Kind int

const (
	KindInt Kind = iota
	KindUnsignedInt
	KindVoid
	KindNull
	KindChar
	KindInvalid
)

// Basic represents the built-in scalar types. Basic values are singletons;
// compare them by identity.
type Basic struct {
	Kind  Kind
	name  string
	width int
	align int
}

// Pointer represents pointer types
type Pointer struct {
	Ref Type
}

// Array represents fixed-length array types
type Array struct {
	Len  uint32
	Elem Type
}

// MaxWidth is the most storage one object may take. Addresses are 4 bytes
// and offsets are signed.
const MaxWidth = math.MaxInt32

// ErrTooLarge reports a type wider than MaxWidth
var ErrTooLarge = errors.New("storage too large")

// NewArray returns array [n] of elem. It fails with ErrTooLarge when n does
// not fit the length field or the array would be wider than MaxWidth.
func NewArray(n int64, elem Type) (*Array, error) {
	if n < 0 || n > math.MaxUint32 || n*int64(elem.Width()) > MaxWidth {
		return nil, errors.Wrapf(ErrTooLarge, "array [%d] of %s", n, elem)
	}
	return &Array{Len: uint32(n), Elem: elem}, nil
}

// Function represents function types. A function value is an address.
type Function struct {
	Params []Type
	Return Type
}

// Struct represents struct types. Fields are registered one at a time and
// packed at the running byte total; width and alignment are final only after
// Close.
type Struct struct {
	Name   string
	fields []*Field
	index  map[string]*Field
	width  int
	align  int
	closed bool
}

// Field is a named member of a struct at a fixed byte offset
type Field struct {
	Name   string
	Type   Type
	Offset int
}

// Marker methods for Type interface
func (*Basic) implType()    {}
func (*Pointer) implType()  {}
func (*Array) implType()    {}
func (*Function) implType() {}
func (*Struct) implType()   {}

var (
	Int         = &Basic{Kind: KindInt, name: "int", width: 4, align: 4}
	UnsignedInt = &Basic{Kind: KindUnsignedInt, name: "unsigned int", width: 4, align: 4}
	Void        = &Basic{Kind: KindVoid, name: "void"}
	Null        = &Basic{Kind: KindNull, name: "null"}
	Char        = &Basic{Kind: KindChar, name: "char", width: 1, align: 1}

	// Invalid is assigned to nodes that failed a type check. It is accepted
	// everywhere so one error does not cascade into more diagnostics.
	Invalid = &Basic{Kind: KindInvalid, name: "<invalid>"}
)

const pointerSize = 4

// ErrDuplicateField is returned when a struct already has a field of that name
var ErrDuplicateField = errors.New("name already declared at this scope")

func (b *Basic) Width() int     { return b.width }
func (b *Basic) Align() int     { return b.align }
func (b *Basic) String() string { return b.name }

func (*Pointer) Width() int { return pointerSize }
func (*Pointer) Align() int { return pointerSize }

func (p *Pointer) String() string {
	return "pointer to " + p.Ref.String()
}

func (a *Array) Width() int { return int(a.Len) * a.Elem.Width() }
func (a *Array) Align() int { return a.Elem.Align() }

func (a *Array) String() string {
	return fmt.Sprintf("array [%d] of %s", a.Len, a.Elem)
}

func (*Function) Width() int { return pointerSize }
func (*Function) Align() int { return pointerSize }

func (f *Function) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	return fmt.Sprintf("function (%s) %s", strings.Join(params, ", "), f.Return)
}

// NewStruct creates an open struct type with no fields
func NewStruct(name string) *Struct {
	return &Struct{Name: name, index: make(map[string]*Field), align: 1}
}

func (s *Struct) Width() int     { return s.width }
func (s *Struct) Align() int     { return s.align }
func (s *Struct) String() string { return "struct " + s.Name }

// Complete reports whether the struct body has been closed
func (s *Struct) Complete() bool {
	return s.closed
}

// AddField appends a field at the running byte total and returns it. It fails
// with ErrDuplicateField, or ErrTooLarge when the struct would outgrow MaxWidth.
func (s *Struct) AddField(name string, t Type) (*Field, error) {
	if s.closed {
		panic("types: field added to closed struct " + s.Name)
	}
	if _, ok := s.index[name]; ok {
		return nil, errors.Wrap(ErrDuplicateField, name)
	}
	if int64(s.width)+int64(t.Width()) > MaxWidth {
		return nil, errors.Wrapf(ErrTooLarge, "struct %s", s.Name)
	}
	f := &Field{Name: name, Type: t, Offset: s.width}
	s.width += t.Width()
	if t.Align() > s.align {
		s.align = t.Align()
	}
	s.fields = append(s.fields, f)
	s.index[name] = f
	return f, nil
}

// Close marks the struct body as complete
func (s *Struct) Close() {
	s.closed = true
}

// Field returns the field with the given name
func (s *Struct) Field(name string) (*Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Fields returns the fields in declaration order
func (s *Struct) Fields() []*Field {
	return s.fields
}

// IsNumeric reports whether t may be an operand of arithmetic or a condition.
func IsNumeric(t Type) bool {
	switch ty := t.(type) {
	case *Basic:
		return ty.Kind != KindVoid
	case *Pointer, *Function:
		return true
	}
	return false
}

// IsInvalid reports whether t is the poison type
func IsInvalid(t Type) bool {
	return t == Invalid
}

// IsInteger reports whether t is Int, UnsignedInt or Char
func IsInteger(t Type) bool {
	return t == Int || t == UnsignedInt || t == Char
}

// Promote returns the result type of a numeric operation on a and b, or nil
// when no integer type is involved. Pointer, null and function operands are
// left to the caller.
func Promote(a, b Type) Type {
	if !IsNumeric(a) || !IsNumeric(b) {
		return nil
	}
	switch {
	case a == Invalid || b == Invalid:
		return Invalid
	case a == UnsignedInt || b == UnsignedInt:
		return UnsignedInt
	case a == Int || b == Int || a == Char || b == Char:
		return Int
	}
	return nil
}

// Equal checks if two types are equal
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch ta := a.(type) {
	case *Basic:
		return a == b
	case *Pointer:
		tb, ok := b.(*Pointer)
		return ok && Equal(ta.Ref, tb.Ref)
	case *Array:
		tb, ok := b.(*Array)
		return ok && ta.Len == tb.Len && Equal(ta.Elem, tb.Elem)
	case *Struct:
		return a == b
	case *Function:
		tb, ok := b.(*Function)
		if !ok || len(ta.Params) != len(tb.Params) || !Equal(ta.Return, tb.Return) {
			return false
		}
		for i, p := range ta.Params {
			if !Equal(p, tb.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// AlignUp rounds n up to the nearest multiple of align, a power of two.
// An alignment of zero leaves n unchanged.
func AlignUp(n, align int) int {
	if align <= 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
