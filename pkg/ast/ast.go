// Package ast defines the typed syntax tree. Every expression carries the type
// computed when it was built; statements carry no type.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raymyers/ralph-il/pkg/types"
)

// Node is the base interface for all AST nodes
type Node interface {
	implNode()
}

// Expr is the interface for expressions
type Expr interface {
	Node
	implExpr()
	ExprType() types.Type
	String() string
}

// Symbol is an expression that needs no computation: an identifier, a
// constant or a temporary.
type Symbol interface {
	Expr
	implSymbol()
}

// Stmt is the interface for statements
type Stmt interface {
	Node
	implStmt()
}

// BinaryOp is an arithmetic or bitwise operator
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
)

func (op BinaryOp) String() string {
	names := []string{"+", "-", "*", "/", "&", "|", "^", "<<", ">>"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// RelOp is a comparison operator
type RelOp int

const (
	Eq RelOp = iota
	Ne
	Lt
	Gt
	Le
	Ge
)

func (op RelOp) String() string {
	names := []string{"==", "!=", "<", ">", "<=", ">="}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// UnaryOp is a prefix operator
type UnaryOp int

const (
	Deref UnaryOp = iota // *
	Addr                 // &
	Neg                  // -
)

func (op UnaryOp) String() string {
	names := []string{"*", "&", "-"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// AccessKind says how the base of an Access is used
type AccessKind int

const (
	Field AccessKind = iota // base is the storage itself
	Arrow                   // base holds the address of the storage
	Index                   // base is an array
)

func (k AccessKind) String() string {
	switch k {
	case Field:
		return "field"
	case Arrow:
		return "arrow"
	case Index:
		return "index"
	}
	return "?"
}

// Storage says where an identifier lives
type Storage int

const (
	Global Storage = iota
	Local
	Param
	Member   // struct field
	Function // function name
	TypeName // struct tag
)

func (s Storage) String() string {
	names := []string{"global", "local", "param", "field", "function", "type"}
	if int(s) < len(names) {
		return names[s]
	}
	return "?"
}

// --- Expressions ---

// Identifier is a declared name. Offset is assigned by the frame or the
// static area when storage is allocated.
type Identifier struct {
	Name    string
	Typ     types.Type
	Offset  int
	Storage Storage
}

// Constant is a literal value
type Constant struct {
	Value int64
	Typ   types.Type
}

// Temporary is a compiler generated value, numbered per frame
type Temporary struct {
	Num int
	Typ types.Type
}

// Funcall is a call through a function name or a pointer to function
type Funcall struct {
	Callee Expr
	Args   []Expr
	Typ    types.Type
}

// Binary is an arithmetic or bitwise operation
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	Typ   types.Type
}

// Unary is a prefix operation
type Unary struct {
	Op      UnaryOp
	Operand Expr
	Typ     types.Type
}

// Cast converts its operand to Typ
type Cast struct {
	Operand Expr
	Typ     types.Type
}

// Access reads or writes the storage Offset bytes past Base
type Access struct {
	Kind   AccessKind
	Base   Expr
	Offset Expr
	Typ    types.Type
}

// And is the short-circuit &&
type And struct {
	Left  Expr
	Right Expr
	Typ   types.Type
}

// Or is the short-circuit ||
type Or struct {
	Left  Expr
	Right Expr
	Typ   types.Type
}

// Rel is a comparison
type Rel struct {
	Op    RelOp
	Left  Expr
	Right Expr
	Typ   types.Type
}

// Marker methods for Node interface
func (*Identifier) implNode() {}
func (*Constant) implNode()   {}
func (*Temporary) implNode()  {}
func (*Funcall) implNode()    {}
func (*Binary) implNode()     {}
func (*Unary) implNode()      {}
func (*Cast) implNode()       {}
func (*Access) implNode()     {}
func (*And) implNode()        {}
func (*Or) implNode()         {}
func (*Rel) implNode()        {}

// Marker methods for Expr interface
func (*Identifier) implExpr() {}
func (*Constant) implExpr()   {}
func (*Temporary) implExpr()  {}
func (*Funcall) implExpr()    {}
func (*Binary) implExpr()     {}
func (*Unary) implExpr()      {}
func (*Cast) implExpr()       {}
func (*Access) implExpr()     {}
func (*And) implExpr()        {}
func (*Or) implExpr()         {}
func (*Rel) implExpr()        {}

// Marker methods for Symbol interface
func (*Identifier) implSymbol() {}
func (*Constant) implSymbol()   {}
func (*Temporary) implSymbol()  {}

func (e *Identifier) ExprType() types.Type { return e.Typ }
func (e *Constant) ExprType() types.Type   { return e.Typ }
func (e *Temporary) ExprType() types.Type  { return e.Typ }
func (e *Funcall) ExprType() types.Type    { return e.Typ }
func (e *Binary) ExprType() types.Type     { return e.Typ }
func (e *Unary) ExprType() types.Type      { return e.Typ }
func (e *Cast) ExprType() types.Type       { return e.Typ }
func (e *Access) ExprType() types.Type     { return e.Typ }
func (e *And) ExprType() types.Type        { return e.Typ }
func (e *Or) ExprType() types.Type         { return e.Typ }
func (e *Rel) ExprType() types.Type        { return e.Typ }

// BindingName lets identifiers live in a scope table
func (e *Identifier) BindingName() string { return e.Name }

func (e *Identifier) String() string { return e.Name }

func (e *Constant) String() string {
	if e.Typ == types.Null {
		return "null"
	}
	return strconv.FormatInt(e.Value, 10)
}

func (e *Temporary) String() string { return "t" + strconv.Itoa(e.Num) }

func (e *Funcall) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
}

func (e *Binary) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

func (e *Unary) String() string {
	return e.Op.String() + e.Operand.String()
}

func (e *Cast) String() string {
	return fmt.Sprintf("cast %s to %s", e.Operand, e.Typ)
}

func (e *Access) String() string {
	if e.Kind == Arrow {
		return fmt.Sprintf("%s->[%s]", e.Base, e.Offset)
	}
	return fmt.Sprintf("%s[%s]", e.Base, e.Offset)
}

func (e *And) String() string { return fmt.Sprintf("%s && %s", e.Left, e.Right) }
func (e *Or) String() string  { return fmt.Sprintf("%s || %s", e.Left, e.Right) }

func (e *Rel) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

// --- Statements ---

// LoopID names a loop within its function. Break and Continue refer to
// their innermost enclosing loop by this handle.
type LoopID int

// Eval evaluates an expression for its effects
type Eval struct {
	Expr Expr
}

// If runs Body when Cond is nonzero
type If struct {
	Cond Expr
	Body Stmt
}

// Else runs Then or Else depending on Cond
type Else struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

// While tests Cond before each run of Body
type While struct {
	Loop LoopID
	Cond Expr
	Body Stmt
}

// Do runs Body, then repeats while Cond is nonzero
type Do struct {
	Loop LoopID
	Body Stmt
	Cond Expr
}

// Set stores Value into Target
type Set struct {
	Target Expr
	Value  Expr
}

// Break leaves its loop
type Break struct {
	Loop LoopID
}

// Continue starts the next iteration of its loop
type Continue struct {
	Loop LoopID
}

// Return leaves the function, storing Value first when present
type Return struct {
	Value Expr // nil for a bare return
}

// Sequence runs First then Rest
type Sequence struct {
	First Stmt
	Rest  Stmt
}

// Empty is the statement that does nothing
type Empty struct{}

// Null is the shared empty statement
var Null Stmt = &Empty{}

// Marker methods for Node interface
func (*Eval) implNode()     {}
func (*If) implNode()       {}
func (*Else) implNode()     {}
func (*While) implNode()    {}
func (*Do) implNode()       {}
func (*Set) implNode()      {}
func (*Break) implNode()    {}
func (*Continue) implNode() {}
func (*Return) implNode()   {}
func (*Sequence) implNode() {}
func (*Empty) implNode()    {}

// Marker methods for Stmt interface
func (*Eval) implStmt()     {}
func (*If) implStmt()       {}
func (*Else) implStmt()     {}
func (*While) implStmt()    {}
func (*Do) implStmt()       {}
func (*Set) implStmt()      {}
func (*Break) implStmt()    {}
func (*Continue) implStmt() {}
func (*Return) implStmt()   {}
func (*Sequence) implStmt() {}
func (*Empty) implStmt()    {}

// Seq joins statements into a right-leaning Sequence chain ending in Null.
func Seq(stmts ...Stmt) Stmt {
	out := Null
	for i := len(stmts) - 1; i >= 0; i-- {
		out = &Sequence{First: stmts[i], Rest: out}
	}
	return out
}

// --- Top level ---

// Func is a function with its prototype and, once defined, its body
type Func struct {
	Name    string
	Ident   *Identifier
	Typ     *types.Function
	Params  []*Identifier
	Locals  []*Identifier
	Body    Stmt
	Defined bool
	Line    int
}

// Program is everything declared in one source file, in declaration order
type Program struct {
	Structs []*types.Struct
	Globals []*Identifier
	Funcs   []*Func
}

// Func returns the function with the given name
func (p *Program) Func(name string) *Func {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
