package ast

import (
	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/types"
)

// Accesses are built with constant offsets where possible. An access into
// inline storage that is itself an access folds into it: the offsets add and
// the outer base and kind are kept. An access through a dereference becomes
// an arrow access on the pointer.

func intConst(v int) *Constant {
	return &Constant{Value: int64(v), Typ: types.Int}
}

func invalidAccess(kind AccessKind, base Expr) *Access {
	return &Access{Kind: kind, Base: base, Offset: intConst(0), Typ: types.Invalid}
}

// NewField builds base.name
func NewField(r diag.Reporter, line int, base Expr, name string) *Access {
	bt := base.ExprType()
	if types.IsInvalid(bt) {
		return invalidAccess(Field, base)
	}
	st, ok := bt.(*types.Struct)
	if !ok {
		typeError(r, line, "struct", bt)
		return invalidAccess(Field, base)
	}
	f, ok := st.Field(name)
	if !ok {
		r.Report(diag.Namef(line, name, "struct has no such field"))
		return invalidAccess(Field, base)
	}
	return NewAccess(r, line, Field, base, intConst(f.Offset), f.Type)
}

// NewArrow builds base->name; base must point to a struct
func NewArrow(r diag.Reporter, line int, base Expr, name string) *Access {
	bt := base.ExprType()
	if types.IsInvalid(bt) {
		return invalidAccess(Arrow, base)
	}
	ptr, ok := bt.(*types.Pointer)
	if !ok {
		typeError(r, line, "pointer", bt)
		return invalidAccess(Arrow, base)
	}
	if types.IsInvalid(ptr.Ref) {
		return invalidAccess(Arrow, base)
	}
	st, ok := ptr.Ref.(*types.Struct)
	if !ok {
		typeError(r, line, "struct", ptr.Ref)
		return invalidAccess(Arrow, base)
	}
	f, ok := st.Field(name)
	if !ok {
		r.Report(diag.Namef(line, name, "struct has no such field"))
		return invalidAccess(Arrow, base)
	}
	return &Access{Kind: Arrow, Base: base, Offset: intConst(f.Offset), Typ: f.Type}
}

// NewIndex builds base[index]. Indexing an array addresses its storage;
// indexing a pointer addresses memory through it. The offset is the index
// scaled by the element width.
func NewIndex(r diag.Reporter, line int, base, index Expr) *Access {
	bt, it := base.ExprType(), index.ExprType()
	if types.IsInvalid(bt) || types.IsInvalid(it) {
		return invalidAccess(Index, base)
	}
	if !types.IsInteger(it) {
		typeError(r, line, "integer", it)
		return invalidAccess(Index, base)
	}
	switch t := bt.(type) {
	case *types.Array:
		off := scale(r, line, index, t.Elem.Width())
		return NewAccess(r, line, Index, base, off, t.Elem)
	case *types.Pointer:
		off := scale(r, line, index, t.Ref.Width())
		return &Access{Kind: Arrow, Base: base, Offset: off, Typ: t.Ref}
	}
	typeError(r, line, "array or pointer", bt)
	return invalidAccess(Index, base)
}

// NewAccess builds an access of typ at offset bytes into the inline storage
// of base.
func NewAccess(r diag.Reporter, line int, kind AccessKind, base, offset Expr, typ types.Type) *Access {
	switch b := base.(type) {
	case *Access:
		return &Access{Kind: b.Kind, Base: b.Base, Offset: addOffsets(r, line, b.Offset, offset), Typ: typ}
	case *Unary:
		if b.Op == Deref {
			return &Access{Kind: Arrow, Base: b.Operand, Offset: offset, Typ: typ}
		}
	}
	return &Access{Kind: kind, Base: base, Offset: offset, Typ: typ}
}

func scale(r diag.Reporter, line int, index Expr, width int) Expr {
	if c, ok := index.(*Constant); ok {
		return intConst(int(c.Value) * width)
	}
	if width == 1 {
		return index
	}
	return NewBinary(r, line, Mul, index, intConst(width))
}

func addOffsets(r diag.Reporter, line int, a, b Expr) Expr {
	ca, aok := a.(*Constant)
	cb, bok := b.(*Constant)
	switch {
	case aok && bok:
		return intConst(int(ca.Value + cb.Value))
	case aok && ca.Value == 0:
		return b
	case bok && cb.Value == 0:
		return a
	}
	return NewBinary(r, line, Add, a, b)
}
