// Package parser implements the tree-walking pipeline's recursive-descent,
// precedence-climbing parser.
package parser

import (
	"fmt"

	"glox/internal/ast"
	"glox/internal/token"
)

const maxArgs = 8

// Error is a single parse failure. Parsing never stops at the first one:
// panic-mode recovery discards tokens until a safe synchronization point and
// continues, so a single pass can report every syntax error in the file.
type Error struct {
	Line    int
	Lexeme  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Parse Error [line %d] %s: near %q", e.Line, e.Message, e.Lexeme)
}

// panicError unwinds the recursive descent back to the declaration loop.
type panicError struct{ err *Error }

// Parser consumes a flat token slice and builds an ast.Program.
type Parser struct {
	tokens []token.Token
	idx    int
	Errors []*Error
}

// New creates a Parser over tokens, which must be terminated by an EOF
// token (as produced by lexer.Lexer.Scan).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse runs the full `program → declaration* EOF` grammar, collecting every
// parse error it can recover from rather than stopping at the first.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.atEnd() {
		if d := p.safeDeclaration(); d != nil {
			prog.Decls = append(prog.Decls, d)
		}
	}
	return prog
}

func (p *Parser) safeDeclaration() (d ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(panicError)
			if !ok {
				panic(r)
			}
			p.Errors = append(p.Errors, pe.err)
			p.synchronize()
			d = nil
		}
	}()
	return p.declaration()
}

func (p *Parser) declaration() ast.Stmt {
	switch {
	case p.match(token.Class):
		return p.classDecl()
	case p.match(token.Fun):
		return p.funDecl("function")
	case p.match(token.Var):
		return p.varDecl()
	default:
		return p.statement()
	}
}

func (p *Parser) classDecl() ast.Stmt {
	name := p.consume(token.Identifier, "Expect class name")

	var super *ast.Identifier
	if p.match(token.Less) {
		p.consume(token.Identifier, "Expect superclass name")
		super = &ast.Identifier{Name: p.previous()}
	}

	p.consume(token.LeftBrace, "Expect '{' before class body")

	var methods []*ast.Function
	for !p.check(token.RightBrace) && !p.atEnd() {
		methods = append(methods, p.function("method"))
	}

	p.consume(token.RightBrace, "Expect '}' after class body")
	return &ast.Class{Name: name, Superclass: super, Methods: methods}
}

func (p *Parser) funDecl(kind string) ast.Stmt {
	return p.function(kind)
}

func (p *Parser) function(kind string) *ast.Function {
	name := p.consume(token.Identifier, "Expect "+kind+" name")
	p.consume(token.LeftParen, "Expect '(' after "+kind+" name")

	var params []token.Token
	if !p.check(token.RightParen) {
		params = append(params, p.consume(token.Identifier, "Expect parameter name"))
		for p.match(token.Comma) {
			if len(params) >= maxArgs {
				p.errorAt(p.current(), fmt.Sprintf("Can't have more than %d parameters", maxArgs))
			}
			params = append(params, p.consume(token.Identifier, "Expect parameter name"))
		}
	}
	p.consume(token.RightParen, "Expect ')' after parameters")
	p.consume(token.LeftBrace, "Expect '{' before "+kind+" body")
	body := p.block()
	return &ast.Function{Name: name, Params: params, Body: body}
}

func (p *Parser) varDecl() ast.Stmt {
	name := p.consume(token.Identifier, "Expect variable name")

	var init ast.Expr
	if p.match(token.Equal) {
		init = p.expression()
	}
	p.consume(token.Semicolon, "Expect ';' after variable declaration")
	return &ast.VarDecl{Name: name, Init: init}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.For):
		return p.forStmt()
	case p.match(token.If):
		return p.ifStmt()
	case p.match(token.Print):
		return p.printStmt()
	case p.match(token.Return):
		return p.returnStmt()
	case p.match(token.While):
		return p.whileStmt()
	case p.match(token.Break):
		return p.breakStmt()
	case p.match(token.LeftBrace):
		return &ast.Block{Stmts: p.block()}
	default:
		return p.exprStmt()
	}
}

func (p *Parser) breakStmt() ast.Stmt {
	kw := p.previous()
	p.consume(token.Semicolon, "Expect ';' after 'break'")
	return &ast.Break{Keyword: kw}
}

func (p *Parser) exprStmt() ast.Stmt {
	expr := p.expression()
	p.consume(token.Semicolon, "Expect ';' after expression")
	return &ast.Expression{Expr: expr}
}

func (p *Parser) printStmt() ast.Stmt {
	expr := p.expression()
	p.consume(token.Semicolon, "Expect ';' after value")
	return &ast.Print{Expr: expr}
}

func (p *Parser) returnStmt() ast.Stmt {
	kw := p.previous()
	var val ast.Expr
	if !p.check(token.Semicolon) {
		val = p.expression()
	}
	p.consume(token.Semicolon, "Expect ';' after return value")
	return &ast.Return{Keyword: kw, Value: val}
}

func (p *Parser) ifStmt() ast.Stmt {
	p.consume(token.LeftParen, "Expect '(' after 'if'")
	cond := p.expression()
	p.consume(token.RightParen, "Expect ')' after if condition")
	then := p.statement()
	var els ast.Stmt
	if p.match(token.Else) {
		els = p.statement()
	}
	return &ast.If{Cond: cond, Then: then, Else: els}
}

func (p *Parser) whileStmt() ast.Stmt {
	p.consume(token.LeftParen, "Expect '(' after 'while'")
	cond := p.expression()
	p.consume(token.RightParen, "Expect ')' after while condition")
	body := p.statement()
	return &ast.While{Cond: cond, Body: body}
}

// forStmt desugars `for (init; cond; inc) body` into
// `{ init; while (cond) { body; inc; } }`.
func (p *Parser) forStmt() ast.Stmt {
	p.consume(token.LeftParen, "Expect '(' after 'for'")

	var init ast.Stmt
	switch {
	case p.match(token.Semicolon):
		init = nil
	case p.match(token.Var):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var cond ast.Expr
	if !p.check(token.Semicolon) {
		cond = p.expression()
	}
	p.consume(token.Semicolon, "Expect ';' after loop condition")

	var inc ast.Expr
	if !p.check(token.RightParen) {
		inc = p.expression()
	}
	p.consume(token.RightParen, "Expect ')' after for clauses")

	body := p.statement()

	if inc != nil {
		body = &ast.Block{Stmts: []ast.Stmt{body, &ast.Expression{Expr: inc}}}
	}
	if cond == nil {
		cond = &ast.Literal{Kind: token.True, Tok: token.Token{Kind: token.True, Lexeme: "true"}}
	}
	body = &ast.While{Cond: cond, Body: body}

	if init != nil {
		body = &ast.Block{Stmts: []ast.Stmt{init, body}}
	}
	return body
}

func (p *Parser) block() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RightBrace) && !p.atEnd() {
		if d := p.safeDeclaration(); d != nil {
			stmts = append(stmts, d)
		}
	}
	p.consume(token.RightBrace, "Expect '}' after block")
	return stmts
}

// ---- expressions ----

func (p *Parser) expression() ast.Expr { return p.assignment() }

func (p *Parser) assignment() ast.Expr {
	expr := p.logicOr()

	if p.match(token.Equal) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.Identifier:
			return &ast.Assignment{Name: target.Name, Expr: value}
		case *ast.Get:
			return &ast.Set{Object: target.Object, Name: target.Name, Value: value}
		default:
			p.errorAt(equals, "Invalid assignment target")
		}
	}

	return expr
}

func (p *Parser) logicOr() ast.Expr {
	expr := p.logicAnd()
	for p.match(token.Or) {
		op := p.previous()
		right := p.logicAnd()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) logicAnd() ast.Expr {
	expr := p.equality()
	for p.match(token.And) {
		op := p.previous()
		right := p.equality()
		expr = &ast.Logical{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	expr := p.comparison()
	for p.match(token.EqualEqual, token.BangEqual) {
		op := p.previous()
		right := p.comparison()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.term()
	for p.match(token.Less, token.LessEqual, token.Greater, token.GreaterEqual) {
		op := p.previous()
		right := p.term()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) term() ast.Expr {
	expr := p.factor()
	for p.match(token.Plus, token.Minus) {
		op := p.previous()
		right := p.factor()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) factor() ast.Expr {
	expr := p.unary()
	for p.match(token.Star, token.Slash) {
		op := p.previous()
		right := p.unary()
		expr = &ast.Binary{Left: expr, Op: op, Right: right}
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.Bang, token.Minus) {
		op := p.previous()
		right := p.unary()
		return &ast.Unary{Op: op, Right: right}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()

	for {
		switch {
		case p.match(token.LeftParen):
			expr = p.finishCall(expr)
		case p.match(token.Dot):
			name := p.consume(token.Identifier, "Expect property name after '.'")
			expr = &ast.Get{Object: expr, Name: name}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RightParen) {
		args = append(args, p.expression())
		for p.match(token.Comma) {
			if len(args) >= maxArgs {
				p.errorAt(p.current(), fmt.Sprintf("Can't have more than %d arguments", maxArgs))
			}
			args = append(args, p.expression())
		}
	}
	paren := p.consume(token.RightParen, "Expect ')' after arguments")
	return &ast.Call{Callee: callee, Paren: paren, Args: args}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(token.True):
		return &ast.Literal{Tok: p.previous(), Kind: token.True}
	case p.match(token.False):
		return &ast.Literal{Tok: p.previous(), Kind: token.False}
	case p.match(token.Nil):
		return &ast.Literal{Tok: p.previous(), Kind: token.Nil}
	case p.match(token.Number):
		return &ast.Literal{Tok: p.previous(), Kind: token.Number, Value: p.previous().Literal}
	case p.match(token.String):
		return &ast.Literal{Tok: p.previous(), Kind: token.String, Value: p.previous().Literal}
	case p.match(token.This):
		return &ast.This{Keyword: p.previous()}
	case p.match(token.Super):
		kw := p.previous()
		p.consume(token.Dot, "Expect '.' after 'super'")
		method := p.consume(token.Identifier, "Expect superclass method name")
		return &ast.Super{Keyword: kw, Method: method}
	case p.match(token.Identifier):
		return &ast.Identifier{Name: p.previous()}
	case p.match(token.LeftParen):
		inner := p.expression()
		p.consume(token.RightParen, "Expect ')' after expression")
		return &ast.Grouping{Inner: inner}
	default:
		p.errorAt(p.current(), "Expect expression")
		panic(panicError{p.Errors[len(p.Errors)-1]})
	}
}

// ---- token-stream helpers ----

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(kind token.Kind, msg string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.errorAt(p.current(), msg)
	panic(panicError{p.Errors[len(p.Errors)-1]})
}

func (p *Parser) check(kind token.Kind) bool {
	return !p.atEnd() && p.current().Kind == kind
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if !p.atEnd() {
		p.idx++
	}
	return tok
}

func (p *Parser) atEnd() bool { return p.current().Kind == token.EOF }

func (p *Parser) current() token.Token { return p.tokens[p.idx] }

func (p *Parser) previous() token.Token {
	if p.idx > 0 {
		return p.tokens[p.idx-1]
	}
	return p.current()
}

func (p *Parser) errorAt(tok token.Token, msg string) {
	p.Errors = append(p.Errors, &Error{Line: tok.Line, Lexeme: tok.Lexeme, Message: msg})
}

// synchronize discards tokens until just after a ';' or just before a
// statement-start keyword, to resume panic-mode recovery.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		if p.previous().Kind == token.Semicolon {
			return
		}
		switch p.current().Kind {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}
