// Package parser implements a recursive descent parser for ralph-il source.
//
// Parsing is the first of two passes: declarations are bound into lexical
// scopes, storage is laid out and every expression is type-checked as its
// node is built. Once the whole file is read the second pass generates the IL
// of each defined function.
package parser

import (
	"github.com/pkg/errors"

	"github.com/raymyers/ralph-il/pkg/ast"
	"github.com/raymyers/ralph-il/pkg/diag"
	"github.com/raymyers/ralph-il/pkg/gen"
	"github.com/raymyers/ralph-il/pkg/il"
	"github.com/raymyers/ralph-il/pkg/lexer"
	"github.com/raymyers/ralph-il/pkg/scope"
	"github.com/raymyers/ralph-il/pkg/types"
)

// Options configures a parse
type Options struct {
	Parallel bool          // generate frames concurrently
	Reporter diag.Reporter // also receives each diagnostic as it is found
}

// Result is everything the front end produces for one source file
type Result struct {
	Program     *ast.Program
	Units       []gen.Unit // defined functions in definition order
	Static      *il.StaticArea
	Diagnostics []diag.Diagnostic
	Generated   bool // false when diagnostics stopped code generation
}

// Frames returns the frame of every defined function in definition order
func (r *Result) Frames() []*il.Frame {
	frames := make([]*il.Frame, len(r.Units))
	for i, u := range r.Units {
		frames[i] = u.Frame
	}
	return frames
}

// parseErrorBreakOut carries a syntax error up to Parse
type parseErrorBreakOut struct {
	d diag.Diagnostic
}

// function is the parse state of a declared function
type function struct {
	fn    *ast.Func
	frame *il.Frame
	scope scope.ID // holds the parameters
}

// Parser parses one source file
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	buffered  []lexer.Token

	opts   Options
	diags  diag.List
	report diag.Reporter

	scopes *scope.Table
	static *il.StaticArea
	prog   *ast.Program
	funcs  map[*ast.Identifier]*function
	units  []gen.Unit

	// state of the function body being parsed
	current  *function
	loops    []ast.LoopID
	nextLoop ast.LoopID
}

// New creates a new Parser for the given lexer
func New(l *lexer.Lexer, opts Options) *Parser {
	p := &Parser{
		l:      l,
		opts:   opts,
		scopes: scope.New(),
		static: il.NewStaticArea(),
		prog:   &ast.Program{},
		funcs:  make(map[*ast.Identifier]*function),
	}
	p.report = &p.diags
	if opts.Reporter != nil {
		p.report = diag.Tee{&p.diags, opts.Reporter}
	}
	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// ParseSource parses src with a fresh lexer
func ParseSource(src string, opts Options) (*Result, error) {
	return New(lexer.New(src), opts).Parse()
}

// Parse reads the whole file, then generates IL for every defined function
// unless a diagnostic was reported. A syntax error stops the parse and is
// returned as the error; it wraps diag.ErrSyntax.
func (p *Parser) Parse() (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			bo, ok := r.(parseErrorBreakOut)
			if !ok {
				panic(r)
			}
			res, err = nil, bo.d
		}
	}()

	p.parseProgram()
	res = &Result{
		Program:     p.prog,
		Units:       p.units,
		Static:      p.static,
		Diagnostics: p.diags.Items,
	}
	if p.diags.Len() > 0 {
		return res, nil
	}
	if err := gen.Program(p.units, p.opts.Parallel); err != nil {
		return nil, err
	}
	res.Generated = true
	return res, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if len(p.buffered) > 0 {
		p.peekToken = p.buffered[0]
		p.buffered = p.buffered[1:]
		return
	}
	p.peekToken = p.l.Scan()
}

// lookAhead returns the token n places after the current one
func (p *Parser) lookAhead(n int) lexer.Token {
	switch n {
	case 0:
		return p.curToken
	case 1:
		return p.peekToken
	}
	for len(p.buffered) < n-1 {
		p.buffered = append(p.buffered, p.l.Scan())
	}
	return p.buffered[n-2]
}

func (p *Parser) curTokenIs(t lexer.Tag) bool {
	return p.curToken.Tag == t
}

func (p *Parser) peekTokenIs(t lexer.Tag) bool {
	return p.peekToken.Tag == t
}

// accept consumes the current token if it has tag t
func (p *Parser) accept(t lexer.Tag) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes and returns the current token, which must have tag t
func (p *Parser) expect(t lexer.Tag) lexer.Token {
	tok := p.curToken
	if tok.Tag != t {
		p.syntaxError(t.String())
	}
	p.nextToken()
	return tok
}

func (p *Parser) syntaxError(expected string) {
	p.fatal(diag.Syntaxf(p.curToken.Line, "Expected %s, encountered \"%s\"", expected, p.curToken))
}

// fatal reports d and abandons the parse
func (p *Parser) fatal(d diag.Diagnostic) {
	p.report.Report(d)
	panic(parseErrorBreakOut{d})
}

func (p *Parser) nameError(tok lexer.Token, err error) {
	p.report.Report(diag.NameErr(tok.Line, tok.Literal, err))
}

// program := struct_decl* function_decl* struct_def* global_var* function_def* EOF
func (p *Parser) parseProgram() {
	for p.curTokenIs(lexer.TagStruct) && p.lookAhead(2).Tag == lexer.TagSemicolon {
		p.parseStructDecl()
	}
	for p.curTokenIs(lexer.TagFunction) && p.lookAhead(2).Tag == lexer.TagLParen {
		p.parseFunctionDecl()
	}
	for p.curTokenIs(lexer.TagStruct) {
		p.parseStructDef()
	}
	for p.curTokenIs(lexer.TagID) && p.peekTokenIs(lexer.TagColon) {
		p.parseGlobal()
	}
	for p.curTokenIs(lexer.TagFunction) {
		p.parseFunctionDef()
	}
	if !p.curTokenIs(lexer.TagEOF) {
		p.syntaxError("EOF")
	}
}

// struct_decl := 'struct' ID ';'
func (p *Parser) parseStructDecl() {
	p.expect(lexer.TagStruct)
	tok := p.expect(lexer.TagID)
	p.expect(lexer.TagSemicolon)

	st := types.NewStruct(tok.Literal)
	id := &ast.Identifier{Name: tok.Literal, Typ: st, Storage: ast.TypeName}
	if err := p.scopes.Add(p.scopes.Root(), id); err != nil {
		p.nameError(tok, err)
		return
	}
	p.prog.Structs = append(p.prog.Structs, st)
}

// function_decl := 'function' ID '(' ('void' | param {',' param}) ')' type ';'
func (p *Parser) parseFunctionDecl() {
	p.expect(lexer.TagFunction)
	tok := p.expect(lexer.TagID)
	p.expect(lexer.TagLParen)

	ident := &ast.Identifier{Name: tok.Literal, Storage: ast.Function}
	f := &function{
		fn:    &ast.Func{Name: tok.Literal, Ident: ident, Line: tok.Line},
		frame: il.NewFrame(tok.Literal),
		scope: p.scopes.PushOwned(p.scopes.Root(), ident),
	}
	ftype := &types.Function{}
	if !p.accept(lexer.TagVoid) {
		for {
			param := p.parseParam(f.scope)
			ftype.Params = append(ftype.Params, param.Typ)
			f.fn.Params = append(f.fn.Params, param)
			f.frame.AllocLocal(param, true)
			if !p.accept(lexer.TagComma) {
				break
			}
		}
	}
	p.expect(lexer.TagRParen)
	ftype.Return = p.parseType()
	p.expect(lexer.TagSemicolon)

	ident.Typ = ftype
	f.fn.Typ = ftype
	p.funcs[ident] = f
	if err := p.scopes.Add(p.scopes.Root(), ident); err != nil {
		p.nameError(tok, err)
		return
	}
	p.prog.Funcs = append(p.prog.Funcs, f.fn)
}

// param := ID ':' type
func (p *Parser) parseParam(sc scope.ID) *ast.Identifier {
	tok := p.expect(lexer.TagID)
	p.expect(lexer.TagColon)
	t := p.parseType()
	p.checkStorable(tok.Line, t)

	id := &ast.Identifier{Name: tok.Literal, Typ: t, Storage: ast.Param}
	if err := p.scopes.Add(sc, id); err != nil {
		p.nameError(tok, err)
	}
	return id
}

// struct_def := 'struct' ID '{' var_decl* '}' ';'
func (p *Parser) parseStructDef() {
	p.expect(lexer.TagStruct)
	tok := p.expect(lexer.TagID)

	st, ok := p.lookupStruct(tok)
	switch {
	case !ok:
		st = types.NewStruct(tok.Literal)
	case st.Complete():
		p.report.Report(diag.Namef(tok.Line, tok.Literal, "struct has already been defined"))
		st = types.NewStruct(tok.Literal)
	}

	p.expect(lexer.TagLBrace)
	for p.curTokenIs(lexer.TagID) {
		ftok := p.curToken
		field := p.parseVarDecl(ast.Member)
		_, err := st.AddField(field.Name, field.Typ)
		switch {
		case errors.Is(err, types.ErrTooLarge):
			p.report.Report(diag.Typef(ftok.Line, "Expected storage of at most %d bytes, encountered %s",
				types.MaxWidth, st))
		case err != nil:
			p.nameError(ftok, err)
		}
	}
	p.expect(lexer.TagRBrace)
	p.expect(lexer.TagSemicolon)
	st.Close()
}

// global_var := ID ':' type ';'
func (p *Parser) parseGlobal() {
	tok := p.curToken
	id := p.parseVarDecl(ast.Global)
	if err := p.scopes.Add(p.scopes.Root(), id); err != nil {
		p.nameError(tok, err)
		return
	}
	p.static.Allocate(id)
	p.prog.Globals = append(p.prog.Globals, id)
}

// var_decl := ID ':' type ';'
func (p *Parser) parseVarDecl(storage ast.Storage) *ast.Identifier {
	tok := p.expect(lexer.TagID)
	p.expect(lexer.TagColon)
	t := p.parseType()
	p.expect(lexer.TagSemicolon)
	p.checkStorable(tok.Line, t)
	return &ast.Identifier{Name: tok.Literal, Typ: t, Storage: storage}
}

// function_def := 'function' ID block ';'
func (p *Parser) parseFunctionDef() {
	p.expect(lexer.TagFunction)
	tok := p.expect(lexer.TagID)

	f, ok := p.lookupFunction(tok)
	p.current = f
	p.loops = nil
	p.nextLoop = 0
	body := p.parseBlock(f.scope)
	p.expect(lexer.TagSemicolon)
	p.current = nil
	if !ok {
		return
	}

	f.fn.Body = body
	f.fn.Defined = true
	p.units = append(p.units, gen.Unit{Func: f.fn, Frame: f.frame})
}

// lookupFunction finds the declared, not yet defined function named by tok.
// Otherwise it reports a name error and returns a scratch function whose
// body is parsed and thrown away.
func (p *Parser) lookupFunction(tok lexer.Token) (*function, bool) {
	if b, err := p.scopes.Find(p.scopes.Root(), tok.Literal); err == nil {
		if id, ok := b.(*ast.Identifier); ok && p.funcs[id] != nil {
			f := p.funcs[id]
			if !f.fn.Defined {
				return f, true
			}
			p.report.Report(diag.Namef(tok.Line, tok.Literal, "function has already been defined"))
			return p.scratchFunction(tok), false
		}
	}
	p.report.Report(diag.Namef(tok.Line, tok.Literal, "function has not been declared"))
	return p.scratchFunction(tok), false
}

func (p *Parser) scratchFunction(tok lexer.Token) *function {
	ident := &ast.Identifier{
		Name:    tok.Literal,
		Typ:     &types.Function{Return: types.Invalid},
		Storage: ast.Function,
	}
	f := &function{
		fn:    &ast.Func{Name: tok.Literal, Ident: ident, Typ: ident.Typ.(*types.Function), Line: tok.Line},
		frame: il.NewFrame(tok.Literal),
		scope: p.scopes.PushOwned(p.scopes.Root(), ident),
	}
	p.funcs[ident] = f
	return f
}

// lookupStruct finds the struct named by tok, reporting a name error if
// there is none.
func (p *Parser) lookupStruct(tok lexer.Token) (*types.Struct, bool) {
	if b, err := p.scopes.Find(p.scopes.Root(), tok.Literal); err == nil {
		if id, ok := b.(*ast.Identifier); ok && id.Storage == ast.TypeName {
			return id.Typ.(*types.Struct), true
		}
	}
	p.report.Report(diag.Namef(tok.Line, tok.Literal, "struct has not been declared"))
	return nil, false
}

// type := 'int' | 'unsigned' 'int' | 'void' | 'struct' ID
//
//	| 'pointer' 'to' type | 'array' '[' NUM ']' 'of' type
//	| 'function' '(' ('void' | type {',' type}) ')' type
func (p *Parser) parseType() types.Type {
	switch p.curToken.Tag {
	case lexer.TagInt:
		p.nextToken()
		return types.Int
	case lexer.TagUnsigned:
		p.nextToken()
		p.expect(lexer.TagInt)
		return types.UnsignedInt
	case lexer.TagVoid:
		p.nextToken()
		return types.Void
	case lexer.TagStruct:
		p.nextToken()
		tok := p.expect(lexer.TagID)
		st, ok := p.lookupStruct(tok)
		if !ok {
			return types.Invalid
		}
		return st
	case lexer.TagPointer:
		p.nextToken()
		p.expect(lexer.TagTo)
		return &types.Pointer{Ref: p.parseType()}
	case lexer.TagArray:
		p.nextToken()
		p.expect(lexer.TagLBracket)
		n := p.expect(lexer.TagNum)
		p.expect(lexer.TagRBracket)
		p.expect(lexer.TagOf)
		elem := p.parseType()
		a, err := types.NewArray(n.Value, elem)
		if err != nil {
			p.report.Report(diag.Typef(n.Line, "Expected storage of at most %d bytes, encountered array [%d] of %s",
				types.MaxWidth, n.Value, elem))
			return types.Invalid
		}
		return a
	case lexer.TagFunction:
		p.nextToken()
		p.expect(lexer.TagLParen)
		ft := &types.Function{}
		if !p.accept(lexer.TagVoid) {
			for {
				ft.Params = append(ft.Params, p.parseType())
				if !p.accept(lexer.TagComma) {
					break
				}
			}
		}
		p.expect(lexer.TagRParen)
		ft.Return = p.parseType()
		return ft
	}
	p.syntaxError("type specifier")
	return nil
}

// checkStorable reports variables that cannot be given storage: void, and
// structs whose body has not been closed yet.
func (p *Parser) checkStorable(line int, t types.Type) {
	switch ty := t.(type) {
	case *types.Struct:
		if !ty.Complete() {
			p.report.Report(diag.Typef(line, "Expected complete type, encountered %s", t))
		}
	case *types.Array:
		p.checkStorable(line, ty.Elem)
	case *types.Basic:
		if ty == types.Void {
			p.report.Report(diag.Typef(line, "Expected object type, encountered %s", t))
		}
	}
}
