package parser

import (
	"math"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/lexer"
	"github.com/raymyers/ralph-il/pkg/scope"
	"github.com/raymyers/ralph-il/pkg/types"
)

// Operators of each binary precedence level. All levels are left
// associative.
var (
	bitOrOps          = map[lexer.Tag]ast.BinaryOp{lexer.TagPipe: ast.BitOr}
	bitXorOps         = map[lexer.Tag]ast.BinaryOp{lexer.TagCaret: ast.BitXor}
	bitAndOps         = map[lexer.Tag]ast.BinaryOp{lexer.TagAmpersand: ast.BitAnd}
	shiftOps          = map[lexer.Tag]ast.BinaryOp{lexer.TagShl: ast.Shl, lexer.TagShr: ast.Shr}
	additiveOps       = map[lexer.Tag]ast.BinaryOp{lexer.TagPlus: ast.Add, lexer.TagMinus: ast.Sub}
	multiplicativeOps = map[lexer.Tag]ast.BinaryOp{lexer.TagStar: ast.Mul, lexer.TagSlash: ast.Div}

	equalityOps   = map[lexer.Tag]ast.RelOp{lexer.TagEq: ast.Eq, lexer.TagNe: ast.Ne}
	relationalOps = map[lexer.Tag]ast.RelOp{
		lexer.TagLt: ast.Lt, lexer.TagGt: ast.Gt, lexer.TagLe: ast.Le, lexer.TagGe: ast.Ge,
	}

	unaryOps = map[lexer.Tag]ast.UnaryOp{
		lexer.TagStar: ast.Deref, lexer.TagAmpersand: ast.Addr, lexer.TagMinus: ast.Neg,
	}
)

func (p *Parser) parseExpression(sc scope.ID) ast.Expr {
	return p.parseOr(sc)
}

func (p *Parser) parseOr(sc scope.ID) ast.Expr {
	left := p.parseAnd(sc)
	for p.curTokenIs(lexer.TagOr) {
		line := p.curToken.Line
		p.nextToken()
		left = ast.NewOr(p.report, line, left, p.parseAnd(sc))
	}
	return left
}

func (p *Parser) parseAnd(sc scope.ID) ast.Expr {
	left := p.parseBitOr(sc)
	for p.curTokenIs(lexer.TagAnd) {
		line := p.curToken.Line
		p.nextToken()
		left = ast.NewAnd(p.report, line, left, p.parseBitOr(sc))
	}
	return left
}

func (p *Parser) parseBitOr(sc scope.ID) ast.Expr {
	return p.parseBinary(sc, bitOrOps, p.parseBitXor)
}

func (p *Parser) parseBitXor(sc scope.ID) ast.Expr {
	return p.parseBinary(sc, bitXorOps, p.parseBitAnd)
}

func (p *Parser) parseBitAnd(sc scope.ID) ast.Expr {
	return p.parseBinary(sc, bitAndOps, p.parseEquality)
}

func (p *Parser) parseEquality(sc scope.ID) ast.Expr {
	return p.parseRel(sc, equalityOps, p.parseRelational)
}

func (p *Parser) parseRelational(sc scope.ID) ast.Expr {
	return p.parseRel(sc, relationalOps, p.parseShift)
}

func (p *Parser) parseShift(sc scope.ID) ast.Expr {
	return p.parseBinary(sc, shiftOps, p.parseAdditive)
}

func (p *Parser) parseAdditive(sc scope.ID) ast.Expr {
	return p.parseBinary(sc, additiveOps, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative(sc scope.ID) ast.Expr {
	return p.parseBinary(sc, multiplicativeOps, p.parseCast)
}

func (p *Parser) parseBinary(sc scope.ID, ops map[lexer.Tag]ast.BinaryOp, operand func(scope.ID) ast.Expr) ast.Expr {
	left := operand(sc)
	for {
		op, ok := ops[p.curToken.Tag]
		if !ok {
			return left
		}
		line := p.curToken.Line
		p.nextToken()
		left = ast.NewBinary(p.report, line, op, left, operand(sc))
	}
}

func (p *Parser) parseRel(sc scope.ID, ops map[lexer.Tag]ast.RelOp, operand func(scope.ID) ast.Expr) ast.Expr {
	left := operand(sc)
	for {
		op, ok := ops[p.curToken.Tag]
		if !ok {
			return left
		}
		line := p.curToken.Line
		p.nextToken()
		left = ast.NewRel(p.report, line, op, left, operand(sc))
	}
}

// cast := unary {'cast' 'to' type}
func (p *Parser) parseCast(sc scope.ID) ast.Expr {
	e := p.parseUnary(sc)
	for p.curTokenIs(lexer.TagCast) {
		line := p.curToken.Line
		p.nextToken()
		p.expect(lexer.TagTo)
		e = ast.NewCast(p.report, line, e, p.parseType())
	}
	return e
}

// unary := ('*' | '&' | '-') unary | postfix
func (p *Parser) parseUnary(sc scope.ID) ast.Expr {
	if op, ok := unaryOps[p.curToken.Tag]; ok {
		line := p.curToken.Line
		p.nextToken()
		return ast.NewUnary(p.report, line, op, p.parseUnary(sc))
	}
	return p.parsePostfix(sc)
}

// postfix := primary {'.' ID | '->' ID | '[' expr ']' | '(' args ')'}
func (p *Parser) parsePostfix(sc scope.ID) ast.Expr {
	e := p.parsePrimary(sc)
	for {
		line := p.curToken.Line
		switch p.curToken.Tag {
		case lexer.TagDot:
			p.nextToken()
			name := p.expect(lexer.TagID).Literal
			e = ast.NewField(p.report, line, e, name)
		case lexer.TagArrow:
			p.nextToken()
			name := p.expect(lexer.TagID).Literal
			e = ast.NewArrow(p.report, line, e, name)
		case lexer.TagLBracket:
			p.nextToken()
			index := p.parseExpression(sc)
			p.expect(lexer.TagRBracket)
			e = ast.NewIndex(p.report, line, e, index)
		case lexer.TagLParen:
			p.nextToken()
			args := p.parseArguments(sc)
			p.expect(lexer.TagRParen)
			e = ast.NewFuncall(p.report, line, e, args)
		default:
			return e
		}
	}
}

func (p *Parser) parseArguments(sc scope.ID) []ast.Expr {
	var args []ast.Expr
	if p.curTokenIs(lexer.TagRParen) {
		return args
	}
	for {
		args = append(args, p.parseExpression(sc))
		if !p.accept(lexer.TagComma) {
			return args
		}
	}
}

// primary := NUM | CHAR | 'null' | 'sizeof' '(' type ')' | '(' expr ')' | ID
func (p *Parser) parsePrimary(sc scope.ID) ast.Expr {
	tok := p.curToken
	switch tok.Tag {
	case lexer.TagNum:
		p.nextToken()
		if tok.Value > math.MaxInt32 {
			p.report.Report(diag.Typef(tok.Line, "Expected int constant of at most %d, encountered %s",
				int64(math.MaxInt32), tok.Literal))
			return &ast.Constant{Value: tok.Value, Typ: types.Invalid}
		}
		return &ast.Constant{Value: tok.Value, Typ: types.Int}
	case lexer.TagChar:
		p.nextToken()
		return &ast.Constant{Value: tok.Value, Typ: types.Char}
	case lexer.TagNull:
		p.nextToken()
		return &ast.Constant{Value: 0, Typ: types.Null}
	case lexer.TagSizeof:
		p.nextToken()
		p.expect(lexer.TagLParen)
		t := p.parseType()
		p.expect(lexer.TagRParen)
		p.checkStorable(tok.Line, t)
		return &ast.Constant{Value: int64(t.Width()), Typ: types.Int}
	case lexer.TagLParen:
		p.nextToken()
		e := p.parseExpression(sc)
		p.expect(lexer.TagRParen)
		return e
	case lexer.TagID:
		p.nextToken()
		if b, err := p.scopes.Find(sc, tok.Literal); err == nil {
			if id, ok := b.(*ast.Identifier); ok {
				return id
			}
		}
		p.report.Report(diag.Namef(tok.Line, tok.Literal, "identifier has not been declared"))
		return ast.Poison(tok.Literal)
	}
	p.syntaxError("expression")
	return nil
}
