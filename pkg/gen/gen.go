// Package gen lowers typed function bodies to three-address IL.
//
// Expressions are generated in one of two ways: Reduce computes a value into
// a symbol, and Jumping branches on the value without materializing it.
// Statements are generated against the label of their first line and the
// label control reaches after them.
package gen

import (
	"fmt"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/il"
	"github.com/raymyers/ralph-il/pkg/types"
)

type loopLabels struct {
	brk  il.Label // after the loop
	cont il.Label // condition recheck
}

// Generator emits the IL of one function into its frame
type Generator struct {
	frame *il.Frame
	loops map[ast.LoopID]loopLabels
}

// New creates a generator writing into frame
func New(frame *il.Frame) *Generator {
	return &Generator{frame: frame, loops: make(map[ast.LoopID]loopLabels)}
}

func (g *Generator) emit(instr il.Instr) {
	g.frame.Emit(instr)
}

func (g *Generator) assignTemp(t types.Type, src ast.Expr) *ast.Temporary {
	tmp := g.frame.AllocTemp(t)
	g.emit(il.Assign{Dst: tmp, Src: src})
	return tmp
}

func constant(v int64) *ast.Constant {
	return &ast.Constant{Value: v, Typ: types.Int}
}

// Reduce emits the code computing e and returns the symbol holding its value.
// Symbols are returned as they are.
func (g *Generator) Reduce(e ast.Expr) ast.Symbol {
	switch x := e.(type) {
	case ast.Symbol:
		return x
	case *ast.Funcall:
		return g.call(x)
	case *ast.Binary:
		l := g.Reduce(x.Left)
		r := g.Reduce(x.Right)
		return g.assignTemp(x.Typ, &ast.Binary{Op: x.Op, Left: l, Right: r, Typ: x.Typ})
	case *ast.Unary:
		var operand ast.Expr
		if x.Op == ast.Addr {
			operand = g.lvalue(x.Operand)
		} else {
			operand = g.Reduce(x.Operand)
		}
		return g.assignTemp(x.Typ, &ast.Unary{Op: x.Op, Operand: operand, Typ: x.Typ})
	case *ast.Cast:
		return g.assignTemp(x.Typ, &ast.Cast{Operand: g.Reduce(x.Operand), Typ: x.Typ})
	case *ast.Access:
		return g.assignTemp(x.Typ, g.lvalue(x))
	case *ast.And, *ast.Or, *ast.Rel:
		return g.materialize(e)
	}
	panic(fmt.Sprintf("gen: unexpected expression %T", e))
}

// lvalue reduces the parts of an assignable expression, keeping its shape:
// a variable stays itself, an access keeps its kind over reduced base and
// offset, a dereference keeps the star over a reduced pointer.
func (g *Generator) lvalue(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.Identifier:
		return x
	case *ast.Access:
		base := g.Reduce(x.Base)
		off := g.Reduce(x.Offset)
		return &ast.Access{Kind: x.Kind, Base: base, Offset: off, Typ: x.Typ}
	case *ast.Unary:
		if x.Op == ast.Deref {
			return &ast.Unary{Op: ast.Deref, Operand: g.Reduce(x.Operand), Typ: x.Typ}
		}
	}
	return g.Reduce(e)
}

func (g *Generator) call(c *ast.Funcall) ast.Symbol {
	args := make([]ast.Symbol, len(c.Args))
	for i, a := range c.Args {
		args[i] = g.Reduce(a)
	}
	callee := g.Reduce(c.Callee)
	for _, a := range args {
		g.emit(il.Param{Value: a})
	}
	g.emit(il.Call{Callee: callee, Argc: len(args)})
	if c.Typ == types.Void {
		return &ast.Constant{Value: 0, Typ: types.Void}
	}
	tmp := g.frame.AllocTemp(c.Typ)
	g.emit(il.LoadRet{Dst: tmp})
	return tmp
}

// materialize computes a logical expression as 0 or 1
func (g *Generator) materialize(e ast.Expr) ast.Symbol {
	f := g.frame.NewLabel()
	end := g.frame.NewLabel()
	tmp := g.frame.AllocTemp(types.Int)
	g.Jumping(e, il.Fallthrough, il.To(f))
	g.emit(il.Assign{Dst: tmp, Src: constant(1)})
	g.emit(il.Goto{Label: end})
	g.frame.EmitLabel(f)
	g.emit(il.Assign{Dst: tmp, Src: constant(0)})
	g.frame.EmitLabel(end)
	return tmp
}

// Jumping emits code that goes to t when e is nonzero and to f otherwise.
// An absent target means falling through to the code that follows.
func (g *Generator) Jumping(e ast.Expr, t, f il.Target) {
	switch x := e.(type) {
	case *ast.Constant:
		g.constJump(x.Value != 0, t, f)
	case *ast.And:
		if c, ok := x.Left.(*ast.Constant); ok {
			if c.Value == 0 {
				g.constJump(false, t, f)
			} else {
				g.Jumping(x.Right, t, f)
			}
			return
		}
		label, ok := f.Label()
		if !ok {
			label = g.frame.NewLabel()
		}
		g.Jumping(x.Left, il.Fallthrough, il.To(label))
		g.Jumping(x.Right, t, f)
		if !ok {
			g.frame.EmitLabel(label)
		}
	case *ast.Or:
		if c, ok := x.Left.(*ast.Constant); ok {
			if c.Value != 0 {
				g.constJump(true, t, f)
			} else {
				g.Jumping(x.Right, t, f)
			}
			return
		}
		label, ok := t.Label()
		if !ok {
			label = g.frame.NewLabel()
		}
		g.Jumping(x.Left, il.To(label), il.Fallthrough)
		g.Jumping(x.Right, t, f)
		if !ok {
			g.frame.EmitLabel(label)
		}
	case *ast.Rel:
		l := g.Reduce(x.Left)
		r := g.Reduce(x.Right)
		g.emitJumps(&ast.Rel{Op: x.Op, Left: l, Right: r, Typ: x.Typ}, t, f)
	default:
		v := g.Reduce(e)
		if c, ok := v.(*ast.Constant); ok {
			g.constJump(c.Value != 0, t, f)
			return
		}
		g.emitJumps(&ast.Rel{Op: ast.Ne, Left: v, Right: constant(0), Typ: types.Int}, t, f)
	}
}

func (g *Generator) constJump(value bool, t, f il.Target) {
	target := f
	if value {
		target = t
	}
	if l, ok := target.Label(); ok {
		g.emit(il.Goto{Label: l})
	}
}

// emitJumps branches on cond: both targets give a conditional branch and a
// goto, a single target gives one conditional branch.
func (g *Generator) emitJumps(cond ast.Expr, t, f il.Target) {
	tl, tok := t.Label()
	fl, fok := f.Label()
	switch {
	case tok && fok:
		g.emit(il.IfTrue{Cond: cond, Label: tl})
		g.emit(il.Goto{Label: fl})
	case tok:
		g.emit(il.IfTrue{Cond: cond, Label: tl})
	case fok:
		g.emit(il.IfFalse{Cond: cond, Label: fl})
	}
}

// Stmt emits s. begin is attached to the line s starts on; after is where
// control continues once s completes.
func (g *Generator) Stmt(s ast.Stmt, begin, after il.Label) {
	switch x := s.(type) {
	case *ast.Empty:
	case *ast.Eval:
		g.Reduce(x.Expr)
	case *ast.Sequence:
		switch {
		case x.First == ast.Null:
			g.Stmt(x.Rest, begin, after)
		case x.Rest == ast.Null:
			g.Stmt(x.First, begin, after)
		default:
			label := g.frame.NewLabel()
			g.Stmt(x.First, begin, label)
			g.frame.EmitLabel(label)
			g.Stmt(x.Rest, label, after)
		}
	case *ast.If:
		label := g.frame.NewLabel()
		g.Jumping(x.Cond, il.Fallthrough, il.To(after))
		g.frame.EmitLabel(label)
		g.Stmt(x.Body, label, after)
	case *ast.Else:
		then := g.frame.NewLabel()
		els := g.frame.NewLabel()
		g.Jumping(x.Cond, il.Fallthrough, il.To(els))
		g.frame.EmitLabel(then)
		g.Stmt(x.Then, then, after)
		g.emit(il.Goto{Label: after})
		g.frame.EmitLabel(els)
		g.Stmt(x.Else, els, after)
	case *ast.While:
		g.loops[x.Loop] = loopLabels{brk: after, cont: begin}
		g.Jumping(x.Cond, il.Fallthrough, il.To(after))
		label := g.frame.NewLabel()
		g.frame.EmitLabel(label)
		g.Stmt(x.Body, label, begin)
		g.emit(il.Goto{Label: begin})
	case *ast.Do:
		label := g.frame.NewLabel()
		g.loops[x.Loop] = loopLabels{brk: after, cont: label}
		g.Stmt(x.Body, begin, label)
		g.frame.EmitLabel(label)
		g.Jumping(x.Cond, il.To(begin), il.Fallthrough)
	case *ast.Set:
		dst := g.lvalue(x.Target)
		src := g.Reduce(x.Value)
		g.emit(il.Assign{Dst: dst, Src: src})
	case *ast.Break:
		g.emit(il.Goto{Label: g.loop(x.Loop).brk})
	case *ast.Continue:
		g.emit(il.Goto{Label: g.loop(x.Loop).cont})
	case *ast.Return:
		if x.Value != nil {
			g.emit(il.StoreRet{Value: g.Reduce(x.Value)})
		}
		g.emit(il.Goto{Label: g.frame.Exit})
	default:
		panic(fmt.Sprintf("gen: unexpected statement %T", s))
	}
}

func (g *Generator) loop(id ast.LoopID) loopLabels {
	l, ok := g.loops[id]
	if !ok {
		panic(fmt.Sprintf("gen: no enclosing loop %d", id))
	}
	return l
}
