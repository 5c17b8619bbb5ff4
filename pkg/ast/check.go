package ast

import (
	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/types"
)

// The constructors below type-check eagerly. A failed check is reported to r
// and the node is typed types.Invalid; nodes built from an Invalid operand are
// Invalid too but report nothing further.

func typeError(r diag.Reporter, line int, expected string, got types.Type) {
	r.Report(diag.Typef(line, "Expected %s type, encountered %s", expected, got))
}

// NewBinary builds an arithmetic or bitwise operation. Pointer plus or minus
// an integer keeps the pointer type; the difference of two pointers is an int.
func NewBinary(r diag.Reporter, line int, op BinaryOp, left, right Expr) *Binary {
	lt, rt := left.ExprType(), right.ExprType()
	typ := binaryType(op, lt, rt)
	if typ == nil {
		bad := lt
		if types.IsNumeric(lt) {
			bad = rt
		}
		typeError(r, line, "numeric", bad)
		typ = types.Invalid
	}
	return &Binary{Op: op, Left: left, Right: right, Typ: typ}
}

func binaryType(op BinaryOp, a, b types.Type) types.Type {
	if types.IsInvalid(a) || types.IsInvalid(b) {
		return types.Invalid
	}
	_, aPtr := a.(*types.Pointer)
	_, bPtr := b.(*types.Pointer)
	switch {
	case aPtr && types.IsInteger(b) && (op == Add || op == Sub):
		return a
	case bPtr && types.IsInteger(a) && op == Add:
		return b
	case aPtr && bPtr && op == Sub && types.Equal(a, b):
		return types.Int
	}
	return types.Promote(a, b)
}

// NewUnary builds a prefix operation
func NewUnary(r diag.Reporter, line int, op UnaryOp, operand Expr) *Unary {
	t := operand.ExprType()
	u := &Unary{Op: op, Operand: operand, Typ: types.Invalid}
	if types.IsInvalid(t) {
		return u
	}
	switch op {
	case Deref:
		if p, ok := t.(*types.Pointer); ok {
			u.Typ = p.Ref
		} else {
			typeError(r, line, "pointer", t)
		}
	case Addr:
		if IsLvalue(operand) {
			u.Typ = &types.Pointer{Ref: t}
		} else {
			r.Report(diag.Typef(line, "Expected addressable operand, encountered %s", operand))
		}
	case Neg:
		if pt := types.Promote(t, types.Int); pt != nil {
			u.Typ = pt
		} else {
			typeError(r, line, "numeric", t)
		}
	}
	return u
}

// NewCast converts operand to target; both must be numeric
func NewCast(r diag.Reporter, line int, operand Expr, target types.Type) *Cast {
	c := &Cast{Operand: operand, Typ: target}
	t := operand.ExprType()
	switch {
	case types.IsInvalid(t):
		c.Typ = types.Invalid
	case !types.IsNumeric(t):
		typeError(r, line, "numeric", t)
		c.Typ = types.Invalid
	case !types.IsNumeric(target):
		typeError(r, line, "numeric", target)
		c.Typ = types.Invalid
	}
	return c
}

// NewFuncall builds a call. The callee must be a function or a pointer to
// one, and the arguments must match its parameter count.
func NewFuncall(r diag.Reporter, line int, callee Expr, args []Expr) *Funcall {
	call := &Funcall{Callee: callee, Args: args, Typ: types.Invalid}
	for _, a := range args {
		if !types.IsNumeric(a.ExprType()) {
			typeError(r, line, "numeric", a.ExprType())
		}
	}
	ct := callee.ExprType()
	if types.IsInvalid(ct) {
		return call
	}
	fn := calleeFunction(ct)
	if fn == nil {
		typeError(r, line, "pointer or function", ct)
		return call
	}
	if len(args) != len(fn.Params) {
		r.Report(diag.Typef(line, "Expected %d arguments, encountered %d", len(fn.Params), len(args)))
	}
	call.Typ = fn.Return
	return call
}

func calleeFunction(t types.Type) *types.Function {
	switch ty := t.(type) {
	case *types.Function:
		return ty
	case *types.Pointer:
		fn, _ := ty.Ref.(*types.Function)
		return fn
	}
	return nil
}

func logicalType(r diag.Reporter, line int, a, b types.Type) types.Type {
	switch {
	case types.IsInvalid(a) || types.IsInvalid(b):
		return types.Invalid
	case !types.IsNumeric(a):
		typeError(r, line, "numeric", a)
		return types.Invalid
	case !types.IsNumeric(b):
		typeError(r, line, "numeric", b)
		return types.Invalid
	}
	return types.Int
}

// NewAnd builds a short-circuit &&
func NewAnd(r diag.Reporter, line int, left, right Expr) *And {
	return &And{Left: left, Right: right, Typ: logicalType(r, line, left.ExprType(), right.ExprType())}
}

// NewOr builds a short-circuit ||
func NewOr(r diag.Reporter, line int, left, right Expr) *Or {
	return &Or{Left: left, Right: right, Typ: logicalType(r, line, left.ExprType(), right.ExprType())}
}

// NewRel builds a comparison
func NewRel(r diag.Reporter, line int, op RelOp, left, right Expr) *Rel {
	return &Rel{Op: op, Left: left, Right: right, Typ: logicalType(r, line, left.ExprType(), right.ExprType())}
}

func checkCond(r diag.Reporter, line int, cond Expr) {
	if t := cond.ExprType(); !types.IsNumeric(t) {
		typeError(r, line, "numeric", t)
	}
}

// NewIf builds an if without else
func NewIf(r diag.Reporter, line int, cond Expr, body Stmt) *If {
	checkCond(r, line, cond)
	return &If{Cond: cond, Body: body}
}

// NewElse builds an if with else
func NewElse(r diag.Reporter, line int, cond Expr, then, els Stmt) *Else {
	checkCond(r, line, cond)
	return &Else{Cond: cond, Then: then, Else: els}
}

// NewWhile builds a while loop
func NewWhile(r diag.Reporter, line int, loop LoopID, cond Expr, body Stmt) *While {
	checkCond(r, line, cond)
	return &While{Loop: loop, Cond: cond, Body: body}
}

// NewDo builds a do-while loop
func NewDo(r diag.Reporter, line int, loop LoopID, body Stmt, cond Expr) *Do {
	checkCond(r, line, cond)
	return &Do{Loop: loop, Body: body, Cond: cond}
}

// NewSet builds an assignment. The target must be assignable and both sides
// numeric.
func NewSet(r diag.Reporter, line int, target, value Expr) *Set {
	s := &Set{Target: target, Value: value}
	tt, vt := target.ExprType(), value.ExprType()
	if types.IsInvalid(tt) || types.IsInvalid(vt) {
		return s
	}
	switch {
	case !IsLvalue(target):
		r.Report(diag.Typef(line, "Expected assignable target, encountered %s", target))
	case !types.IsNumeric(tt):
		typeError(r, line, "numeric", tt)
	case !types.IsNumeric(vt):
		typeError(r, line, "numeric", vt)
	}
	return s
}

// NewReturn builds a return from a function of type fn
func NewReturn(r diag.Reporter, line int, fn *types.Function, value Expr) *Return {
	ret := &Return{Value: value}
	if value == nil {
		return ret
	}
	vt := value.ExprType()
	switch {
	case types.IsInvalid(vt):
	case fn != nil && fn.Return == types.Void:
		typeError(r, line, "void", vt)
	case !types.IsNumeric(vt):
		typeError(r, line, "numeric", vt)
	}
	return ret
}

// IsLvalue reports whether e names storage: a variable, an access, or a
// dereference.
func IsLvalue(e Expr) bool {
	switch x := e.(type) {
	case *Identifier:
		return x.Storage == Global || x.Storage == Local || x.Storage == Param
	case *Access:
		return true
	case *Unary:
		return x.Op == Deref
	}
	return false
}

// Poison returns a stand-in identifier for a name that could not be
// resolved. Its Invalid type keeps later checks quiet.
func Poison(name string) *Identifier {
	return &Identifier{Name: name, Typ: types.Invalid, Storage: Local}
}
