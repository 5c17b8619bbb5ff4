package parser

import (
	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/lexer"
	"github.com/raymyers/ralph-il/pkg/scope"
)

// block := '{' var_decl* statement* '}'
//
// Locals are bound in a new scope and given storage in the frame of the
// function that owns the scope.
func (p *Parser) parseBlock(parent scope.ID) ast.Stmt {
	p.expect(lexer.TagLBrace)
	sc := p.scopes.Push(parent)
	f := p.owner(sc)

	for p.curTokenIs(lexer.TagID) && p.peekTokenIs(lexer.TagColon) {
		tok := p.curToken
		id := p.parseVarDecl(ast.Local)
		if err := p.scopes.Add(sc, id); err != nil {
			p.nameError(tok, err)
			continue
		}
		f.frame.AllocLocal(id, false)
		f.fn.Locals = append(f.fn.Locals, id)
	}

	var stmts []ast.Stmt
	for !p.curTokenIs(lexer.TagRBrace) && !p.curTokenIs(lexer.TagEOF) {
		stmts = append(stmts, p.parseStatement(sc))
	}
	p.expect(lexer.TagRBrace)
	p.scopes.Pop(sc)
	return ast.Seq(stmts...)
}

// owner returns the function whose body contains scope sc
func (p *Parser) owner(sc scope.ID) *function {
	id, _ := p.scopes.Owner(sc).(*ast.Identifier)
	if f := p.funcs[id]; f != nil {
		return f
	}
	return p.current
}

func (p *Parser) parseStatement(sc scope.ID) ast.Stmt {
	switch p.curToken.Tag {
	case lexer.TagIf:
		return p.parseIf(sc)
	case lexer.TagWhile:
		return p.parseWhile(sc)
	case lexer.TagDo:
		return p.parseDo(sc)
	case lexer.TagBreak:
		tok := p.expect(lexer.TagBreak)
		loop := p.innermostLoop(tok)
		p.expect(lexer.TagSemicolon)
		return &ast.Break{Loop: loop}
	case lexer.TagContinue:
		tok := p.expect(lexer.TagContinue)
		loop := p.innermostLoop(tok)
		p.expect(lexer.TagSemicolon)
		return &ast.Continue{Loop: loop}
	case lexer.TagReturn:
		return p.parseReturn(sc)
	case lexer.TagLBrace:
		return p.parseBlock(sc)
	case lexer.TagAt:
		return p.parseSet(sc)
	case lexer.TagSemicolon:
		p.nextToken()
		return ast.Null
	}
	e := p.parseExpression(sc)
	p.expect(lexer.TagSemicolon)
	return &ast.Eval{Expr: e}
}

// 'if' '(' expr ')' statement ['else' statement]
func (p *Parser) parseIf(sc scope.ID) ast.Stmt {
	line := p.expect(lexer.TagIf).Line
	p.expect(lexer.TagLParen)
	cond := p.parseExpression(sc)
	p.expect(lexer.TagRParen)
	body := p.parseStatement(sc)
	if p.accept(lexer.TagElse) {
		els := p.parseStatement(sc)
		return ast.NewElse(p.report, line, cond, body, els)
	}
	return ast.NewIf(p.report, line, cond, body)
}

// 'while' '(' expr ')' statement
func (p *Parser) parseWhile(sc scope.ID) ast.Stmt {
	line := p.expect(lexer.TagWhile).Line
	p.expect(lexer.TagLParen)
	cond := p.parseExpression(sc)
	p.expect(lexer.TagRParen)

	loop := p.pushLoop()
	body := p.parseStatement(sc)
	p.popLoop()
	return ast.NewWhile(p.report, line, loop, cond, body)
}

// 'do' statement 'while' '(' expr ')' ';'
func (p *Parser) parseDo(sc scope.ID) ast.Stmt {
	line := p.expect(lexer.TagDo).Line
	loop := p.pushLoop()
	body := p.parseStatement(sc)
	p.popLoop()

	p.expect(lexer.TagWhile)
	p.expect(lexer.TagLParen)
	cond := p.parseExpression(sc)
	p.expect(lexer.TagRParen)
	p.expect(lexer.TagSemicolon)
	return ast.NewDo(p.report, line, loop, body, cond)
}

// 'return' [expr] ';'
func (p *Parser) parseReturn(sc scope.ID) ast.Stmt {
	line := p.expect(lexer.TagReturn).Line
	var value ast.Expr
	if !p.curTokenIs(lexer.TagSemicolon) {
		value = p.parseExpression(sc)
	}
	p.expect(lexer.TagSemicolon)
	return ast.NewReturn(p.report, line, p.current.fn.Typ, value)
}

// '@' unary '=' expr ';'
func (p *Parser) parseSet(sc scope.ID) ast.Stmt {
	line := p.expect(lexer.TagAt).Line
	target := p.parseUnary(sc)
	p.expect(lexer.TagAssign)
	value := p.parseExpression(sc)
	p.expect(lexer.TagSemicolon)
	return ast.NewSet(p.report, line, target, value)
}

func (p *Parser) pushLoop() ast.LoopID {
	id := p.nextLoop
	p.nextLoop++
	p.loops = append(p.loops, id)
	return id
}

func (p *Parser) popLoop() {
	p.loops = p.loops[:len(p.loops)-1]
}

// innermostLoop returns the loop a break or continue at tok refers to. Outside
// of any loop there is nothing to refer to and the parse stops.
func (p *Parser) innermostLoop(tok lexer.Token) ast.LoopID {
	if len(p.loops) == 0 {
		p.fatal(diag.Syntaxf(tok.Line, "%s outside of loop", tok.Tag))
	}
	return p.loops[len(p.loops)-1]
}
