package ast

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/types"
)

func intVar(name string) *Identifier {
	return &Identifier{Name: name, Typ: types.Int, Storage: Local}
}

func ptrVar(name string, ref types.Type) *Identifier {
	return &Identifier{Name: name, Typ: &types.Pointer{Ref: ref}, Storage: Local}
}

func TestExprInterface(t *testing.T) {
	a := intVar("a")
	exprs := []Expr{
		a,
		&Constant{Value: 1, Typ: types.Int},
		&Temporary{Num: 0, Typ: types.Int},
		&Funcall{Callee: a},
		&Binary{Op: Add, Left: a, Right: a},
		&Unary{Op: Neg, Operand: a},
		&Cast{Operand: a, Typ: types.UnsignedInt},
		&Access{Kind: Field, Base: a, Offset: a},
		&And{Left: a, Right: a},
		&Or{Left: a, Right: a},
		&Rel{Op: Lt, Left: a, Right: a},
	}
	for _, e := range exprs {
		var _ Node = e
		if e.String() == "" {
			t.Errorf("%T has empty String()", e)
		}
	}
}

func TestStmtInterface(t *testing.T) {
	stmts := []Stmt{
		&Eval{}, &If{}, &Else{}, &While{}, &Do{}, &Set{},
		&Break{}, &Continue{}, &Return{}, &Sequence{}, Null,
	}
	for _, s := range stmts {
		var _ Node = s
	}
}

func TestExprStrings(t *testing.T) {
	a, b := intVar("a"), intVar("b")
	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"identifier", a, "a"},
		{"constant", &Constant{Value: 42, Typ: types.Int}, "42"},
		{"null", &Constant{Typ: types.Null}, "null"},
		{"temporary", &Temporary{Num: 3, Typ: types.Int}, "t3"},
		{"binary", &Binary{Op: Shl, Left: a, Right: b}, "a << b"},
		{"rel", &Rel{Op: Ge, Left: a, Right: b}, "a >= b"},
		{"unary", &Unary{Op: Deref, Operand: a}, "*a"},
		{"cast", &Cast{Operand: a, Typ: types.UnsignedInt}, "cast a to unsigned int"},
		{"field", &Access{Kind: Field, Base: a, Offset: &Constant{Value: 4, Typ: types.Int}}, "a[4]"},
		{"arrow", &Access{Kind: Arrow, Base: a, Offset: &Constant{Value: 8, Typ: types.Int}}, "a->[8]"},
		{"call", &Funcall{Callee: intVar("f"), Args: []Expr{a, b}}, "f(a, b)"},
		{"and", &And{Left: a, Right: b}, "a && b"},
		{"or", &Or{Left: a, Right: b}, "a || b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.expr.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBinaryTyping(t *testing.T) {
	u := &Identifier{Name: "u", Typ: types.UnsignedInt, Storage: Local}
	p := ptrVar("p", types.Int)
	q := ptrVar("q", types.Int)
	s := &Identifier{Name: "s", Typ: types.NewStruct("s"), Storage: Local}

	tests := []struct {
		name      string
		op        BinaryOp
		left      Expr
		right     Expr
		want      types.Type
		wantDiags int
	}{
		{"int + int", Add, intVar("a"), intVar("b"), types.Int, 0},
		{"int + unsigned", Add, intVar("a"), u, types.UnsignedInt, 0},
		{"pointer + int", Add, p, intVar("a"), p.Typ, 0},
		{"int + pointer", Add, intVar("a"), p, p.Typ, 0},
		{"pointer - int", Sub, p, intVar("a"), p.Typ, 0},
		{"pointer - pointer", Sub, p, q, types.Int, 0},
		{"pointer + pointer", Add, p, q, types.Invalid, 1},
		{"struct + int", Add, s, intVar("a"), types.Invalid, 1},
		{"int * struct", Mul, intVar("a"), s, types.Invalid, 1},
		{"poisoned", Add, Poison("x"), intVar("a"), types.Invalid, 0},
		{"poisoned struct", Add, Poison("x"), s, types.Invalid, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diag.List
			b := NewBinary(&diags, 1, tt.op, tt.left, tt.right)
			if !types.Equal(b.Typ, tt.want) {
				t.Errorf("type = %s, want %s", b.Typ, tt.want)
			}
			if diags.Len() != tt.wantDiags {
				t.Errorf("got %d diagnostics, want %d: %v", diags.Len(), tt.wantDiags, diags.Items)
			}
		})
	}
}

func TestBinaryTypeErrorMessage(t *testing.T) {
	var diags diag.List
	s := &Identifier{Name: "s", Typ: types.NewStruct("process"), Storage: Local}
	NewBinary(&diags, 9, Add, intVar("a"), s)

	if diags.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", diags.Len())
	}
	want := `Error: "Expected numeric type, encountered struct process", line 9`
	if got := diags.Items[0].String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPoisonDoesNotCascade(t *testing.T) {
	var diags diag.List
	s := &Identifier{Name: "s", Typ: types.NewStruct("s"), Storage: Local}

	bad := NewBinary(&diags, 1, Add, s, intVar("a"))
	sum := NewBinary(&diags, 1, Mul, bad, intVar("b"))
	rel := NewRel(&diags, 1, Lt, sum, intVar("c"))
	and := NewAnd(&diags, 1, rel, intVar("d"))
	NewIf(&diags, 1, and, Null)
	NewSet(&diags, 1, intVar("e"), sum)
	NewUnary(&diags, 1, Neg, sum)
	NewCast(&diags, 1, sum, types.UnsignedInt)

	if diags.Len() != 1 {
		t.Errorf("expected exactly 1 diagnostic, got %d: %v", diags.Len(), diags.Items)
	}
	for _, e := range []Expr{bad, sum, rel, and} {
		if !types.IsInvalid(e.ExprType()) {
			t.Errorf("%s should be Invalid, got %s", e, e.ExprType())
		}
	}
}

func TestUnaryTyping(t *testing.T) {
	var diags diag.List
	p := ptrVar("p", types.UnsignedInt)

	deref := NewUnary(&diags, 1, Deref, p)
	if deref.Typ != types.UnsignedInt {
		t.Errorf("*p type = %s", deref.Typ)
	}

	addr := NewUnary(&diags, 1, Addr, intVar("a"))
	if !types.Equal(addr.Typ, &types.Pointer{Ref: types.Int}) {
		t.Errorf("&a type = %s", addr.Typ)
	}

	neg := NewUnary(&diags, 1, Neg, &Identifier{Name: "u", Typ: types.UnsignedInt, Storage: Local})
	if neg.Typ != types.UnsignedInt {
		t.Errorf("-u type = %s", neg.Typ)
	}
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Items)
	}

	NewUnary(&diags, 1, Deref, intVar("a"))
	NewUnary(&diags, 1, Addr, &Constant{Value: 1, Typ: types.Int})
	if diags.Len() != 2 {
		t.Errorf("expected 2 diagnostics, got %d", diags.Len())
	}
}

func TestFuncallTyping(t *testing.T) {
	fnType := &types.Function{Params: []types.Type{types.Int}, Return: types.Int}
	f := &Identifier{Name: "f", Typ: fnType, Storage: Function}
	fp := ptrVar("fp", fnType)

	tests := []struct {
		name      string
		callee    Expr
		args      []Expr
		want      types.Type
		wantDiags int
	}{
		{"direct", f, []Expr{intVar("a")}, types.Int, 0},
		{"through pointer", fp, []Expr{intVar("a")}, types.Int, 0},
		{"arity", f, nil, types.Int, 1},
		{"not callable", intVar("a"), nil, types.Invalid, 1},
		{"struct argument", f, []Expr{&Identifier{Name: "s", Typ: types.NewStruct("s")}}, types.Int, 1},
		{"poisoned callee", Poison("g"), nil, types.Invalid, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diag.List
			call := NewFuncall(&diags, 1, tt.callee, tt.args)
			if call.Typ != tt.want {
				t.Errorf("type = %s, want %s", call.Typ, tt.want)
			}
			if diags.Len() != tt.wantDiags {
				t.Errorf("got %d diagnostics, want %d: %v", diags.Len(), tt.wantDiags, diags.Items)
			}
		})
	}
}

func TestConditionMustBeNumeric(t *testing.T) {
	s := &Identifier{Name: "s", Typ: types.NewStruct("s"), Storage: Local}

	var diags diag.List
	NewIf(&diags, 1, s, Null)
	NewElse(&diags, 2, s, Null, Null)
	NewWhile(&diags, 3, 0, s, Null)
	NewDo(&diags, 4, 1, Null, s)
	if diags.Len() != 4 {
		t.Fatalf("expected 4 diagnostics, got %d", diags.Len())
	}
	for i, d := range diags.Items {
		if d.Line != i+1 || d.Kind != diag.Type {
			t.Errorf("diagnostic %d = %+v", i, d)
		}
	}

	diags = diag.List{}
	NewDo(&diags, 1, 0, Null, intVar("a"))
	if diags.Len() != 0 {
		t.Errorf("numeric do condition reported: %v", diags.Items)
	}
}

func TestSetTargets(t *testing.T) {
	p := ptrVar("p", types.Int)
	tests := []struct {
		name      string
		target    Expr
		wantDiags int
	}{
		{"variable", intVar("a"), 0},
		{"deref", &Unary{Op: Deref, Operand: p, Typ: types.Int}, 0},
		{"access", &Access{Kind: Arrow, Base: p, Offset: &Constant{Typ: types.Int}, Typ: types.Int}, 0},
		{"constant", &Constant{Value: 1, Typ: types.Int}, 1},
		{"function", &Identifier{Name: "f", Typ: &types.Function{Return: types.Int}, Storage: Function}, 1},
		{"struct", &Identifier{Name: "s", Typ: types.NewStruct("s"), Storage: Local}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diag.List
			NewSet(&diags, 1, tt.target, &Constant{Value: 1, Typ: types.Int})
			if diags.Len() != tt.wantDiags {
				t.Errorf("got %d diagnostics, want %d: %v", diags.Len(), tt.wantDiags, diags.Items)
			}
		})
	}
}

func TestReturnChecks(t *testing.T) {
	voidFn := &types.Function{Return: types.Void}
	intFn := &types.Function{Return: types.Int}

	var diags diag.List
	NewReturn(&diags, 1, intFn, intVar("a"))
	NewReturn(&diags, 1, intFn, nil)
	NewReturn(&diags, 1, voidFn, nil)
	if diags.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Items)
	}

	NewReturn(&diags, 1, voidFn, intVar("a"))
	if diags.Len() != 1 {
		t.Errorf("returning a value from a void function should be reported")
	}
}

func TestSeq(t *testing.T) {
	a, b := &Eval{Expr: intVar("a")}, &Eval{Expr: intVar("b")}
	s, ok := Seq(a, b).(*Sequence)
	if !ok || s.First != a {
		t.Fatalf("expected sequence starting with a, got %#v", s)
	}
	rest, ok := s.Rest.(*Sequence)
	if !ok || rest.First != b || rest.Rest != Null {
		t.Errorf("unexpected tail %#v", s.Rest)
	}
	if Seq() != Null {
		t.Error("empty Seq should be Null")
	}
}

func TestPrinter(t *testing.T) {
	var diags diag.List
	a, b := intVar("a"), intVar("b")
	fn := &Func{
		Name:    "max",
		Typ:     &types.Function{Return: types.Int},
		Locals:  []*Identifier{a, b},
		Defined: true,
		Body: Seq(
			NewElse(&diags, 1, NewRel(&diags, 1, Lt, a, b),
				NewSet(&diags, 1, a, b), NewSet(&diags, 1, b, a)),
			&While{Loop: 0, Cond: a, Body: &Break{Loop: 0}},
			NewReturn(&diags, 1, nil, a),
		),
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintFunc(fn)
	out := buf.String()

	for _, want := range []string{
		"function max(void) int {",
		"  a: int;",
		"  if (a < b)",
		"    @a = b;",
		"  else",
		"  while (a) // loop 0",
		"    break; // loop 0",
		"  return a;",
		"};",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrinterWithTypes(t *testing.T) {
	var buf bytes.Buffer
	prog := &Program{Funcs: []*Func{{
		Name:    "f",
		Typ:     &types.Function{Return: types.Void},
		Defined: true,
		Body:    Seq(&Eval{Expr: &Binary{Op: Add, Left: intVar("a"), Right: &Constant{Value: 1, Typ: types.Int}, Typ: types.Int}}),
	}}}
	NewPrinter(&buf).WithTypes().PrintProgram(prog)

	want := "((a : int) + (1 : int) : int);"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("expected %q in output:\n%s", want, buf.String())
	}
}

func TestPrinterStructs(t *testing.T) {
	s := types.NewStruct("point")
	s.AddField("x", types.Int)
	s.AddField("y", types.Int)
	s.Close()

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(&Program{
		Structs: []*types.Struct{s},
		Globals: []*Identifier{{Name: "origin", Typ: s, Storage: Global}},
	})
	out := buf.String()

	for _, want := range []string{
		"struct point {",
		"  y: int; // offset 4",
		"}; // width 8, align 4",
		"origin: struct point;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
