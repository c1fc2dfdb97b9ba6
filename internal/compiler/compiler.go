// Package compiler implements the bytecode pipeline's single-pass Pratt
// compiler: it walks a token stream once and emits opcodes directly into a
// chunk.Chunk, with no intermediate AST, grounded on
// original_source/src/compiler.rs. Scope covers expressions, global and
// local variables, print/expression statements, and block/if/while/for/break
// control flow (locals and the jump-based statements are additions beyond
// that original compiler). Function and class declarations are a
// tree-walker-only feature — the bytecode backend has no CALL opcode to
// compile them into, so `fun`/`class` are reported as compile errors here
// rather than silently mis-emitted.
package compiler

import (
	"fmt"

	"glox/internal/chunk"
	"glox/internal/token"
)

// Error is a single compile failure.
type Error struct {
	Line    int
	Lexeme  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Compile Error [line %d] %s: near %q", e.Line, e.Message, e.Lexeme)
}

// precedence is the Pratt ladder, lowest to highest.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

func (p precedence) next() precedence {
	if p == precPrimary {
		return precPrimary
	}
	return p + 1
}

type local struct {
	name  string
	depth int
}

// Compiler turns one token stream into one chunk.Chunk. A fresh Compiler is
// used per top-level compile; it does not recurse into nested function
// compilers since this backend has no functions.
type Compiler struct {
	tokens []token.Token
	idx    int
	chunk  *chunk.Chunk
	Errors []*Error
	panic  bool
	locals []local
	scope  int
	loops  []*breakLoop
}

// New creates a Compiler over tokens (as produced by lexer.Lexer.Scan).
func New(tokens []token.Token) *Compiler {
	return &Compiler{tokens: tokens, chunk: chunk.New()}
}

// Compile runs the full `program → declaration* EOF` grammar, emitting into
// a fresh chunk.Chunk. It always returns the chunk built so far; callers
// check len(Errors) to decide whether to run it.
func (c *Compiler) Compile() *chunk.Chunk {
	for !c.atEnd() {
		c.declaration()
	}
	c.chunk.WriteSimple(c.prevLine(), chunk.Return)
	return c.chunk
}

// ---- token stream helpers ----

func (c *Compiler) current() token.Token { return c.tokens[c.idx] }
func (c *Compiler) atEnd() bool          { return c.current().Kind == token.EOF }

func (c *Compiler) previous() token.Token {
	if c.idx > 0 {
		return c.tokens[c.idx-1]
	}
	return c.current()
}

func (c *Compiler) prevLine() int { return c.previous().Line }

func (c *Compiler) advance() token.Token {
	tok := c.current()
	if !c.atEnd() {
		c.idx++
	}
	return tok
}

func (c *Compiler) check(kind token.Kind) bool { return !c.atEnd() && c.current().Kind == kind }

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, msg string) token.Token {
	if c.check(kind) {
		return c.advance()
	}
	c.errorAt(c.current(), msg)
	return c.current()
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panic {
		return
	}
	c.panic = true
	c.Errors = append(c.Errors, &Error{Line: tok.Line, Lexeme: tok.Lexeme, Message: msg})
}

// synchronize discards tokens until a safe point, mirroring the parser's
// panic-mode recovery: the panic flag suppresses cascading errors until a
// sync point is reached.
func (c *Compiler) synchronize() {
	c.panic = false
	for !c.atEnd() {
		if c.previous().Kind == token.Semicolon {
			return
		}
		switch c.current().Kind {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// ---- declarations & statements ----

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Class):
		c.errorAt(c.previous(), "Classes are not supported by the bytecode backend")
	case c.match(token.Fun):
		c.errorAt(c.previous(), "Functions are not supported by the bytecode backend")
	case c.match(token.Var):
		c.varDecl()
	default:
		c.statement()
	}
	if c.panic {
		c.synchronize()
	}
}

func (c *Compiler) varDecl() {
	line := c.prevLine()
	name := c.consume(token.Identifier, "Expect variable name")

	var slot int
	global := c.scope == 0
	if !global {
		c.declareLocal(name)
	}

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.chunk.WriteSimple(line, chunk.Nil)
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration")

	if global {
		slot = c.chunk.AddConstant(chunk.String(name.Lexeme))
		c.chunk.WriteGlobal(line, chunk.DefineGlobalKind, slot)
	} else {
		c.markInitialized()
	}
}

func (c *Compiler) declareLocal(name token.Token) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scope {
			break
		}
		if l.name == name.Lexeme {
			c.errorAt(name, fmt.Sprintf("Already a variable named %q in this scope", name.Lexeme))
		}
	}
	c.locals = append(c.locals, local{name: name.Lexeme, depth: -1})
}

func (c *Compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scope
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStmt()
	case c.match(token.If):
		c.ifStmt()
	case c.match(token.While):
		c.whileStmt()
	case c.match(token.For):
		c.forStmt()
	case c.match(token.Break):
		c.breakStmt()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.exprStmt()
	}
}

func (c *Compiler) beginScope() { c.scope++ }

func (c *Compiler) endScope() {
	c.scope--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scope {
		c.chunk.WriteSimple(c.prevLine(), chunk.Pop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.atEnd() {
		c.declaration()
	}
	c.consume(token.RightBrace, "Expect '}' after block")
}

func (c *Compiler) printStmt() {
	c.expression()
	line := c.prevLine()
	c.consume(token.Semicolon, "Expect ';' after value")
	c.chunk.WriteSimple(line, chunk.Print)
}

func (c *Compiler) exprStmt() {
	c.expression()
	line := c.prevLine()
	c.consume(token.Semicolon, "Expect ';' after expression")
	c.chunk.WriteSimple(line, chunk.Pop)
}

// breakLoop tracks the innermost loop's exit patch sites so `break`
// statements can forward-patch to wherever the loop ends, even though the
// loop's own end isn't known until the loop finishes compiling. depth is
// the scope depth in effect where the loop's body begins, so break can pop
// exactly the locals the body's own endScope would have popped.
type breakLoop struct {
	breaks []int
	depth  int
}

func (c *Compiler) ifStmt() {
	line := c.prevLine()
	c.consume(token.LeftParen, "Expect '(' after 'if'")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after if condition")

	thenJump := c.chunk.EmitJump(line, chunk.JumpIfFalse)
	c.chunk.WriteSimple(line, chunk.Pop)
	c.statement()

	elseJump := c.chunk.EmitJump(c.prevLine(), chunk.Jump)
	c.chunk.PatchJump(thenJump)
	c.chunk.WriteSimple(c.prevLine(), chunk.Pop)

	if c.match(token.Else) {
		c.statement()
	}
	c.chunk.PatchJump(elseJump)
}

func (c *Compiler) whileStmt() {
	line := c.prevLine()
	loopStart := c.chunk.Len()

	c.consume(token.LeftParen, "Expect '(' after 'while'")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after while condition")

	exitJump := c.chunk.EmitJump(line, chunk.JumpIfFalse)
	c.chunk.WriteSimple(line, chunk.Pop)

	loop := &breakLoop{depth: c.scope}
	c.loops = append(c.loops, loop)
	c.statement()
	c.loops = c.loops[:len(c.loops)-1]

	c.chunk.EmitLoop(c.prevLine(), loopStart)
	c.chunk.PatchJump(exitJump)
	c.chunk.WriteSimple(c.prevLine(), chunk.Pop)
	for _, b := range loop.breaks {
		c.chunk.PatchJump(b)
	}
}

// forStmt desugars `for (init; cond; inc) body` the same way the
// tree-walking parser does, compiling directly to jumps instead of
// building an AST block/while pair.
func (c *Compiler) forStmt() {
	c.beginScope()
	c.consume(token.LeftParen, "Expect '(' after 'for'")

	switch {
	case c.match(token.Semicolon):
	case c.match(token.Var):
		c.varDecl()
	default:
		c.exprStmt()
	}

	loopStart := c.chunk.Len()
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "Expect ';' after loop condition")
		exitJump = c.chunk.EmitJump(c.prevLine(), chunk.JumpIfFalse)
		c.chunk.WriteSimple(c.prevLine(), chunk.Pop)
	} else {
		c.advance() // consume ';'
	}

	if !c.check(token.RightParen) {
		bodyJump := c.chunk.EmitJump(c.prevLine(), chunk.Jump)
		incStart := c.chunk.Len()
		c.expression()
		c.chunk.WriteSimple(c.prevLine(), chunk.Pop)
		c.consume(token.RightParen, "Expect ')' after for clauses")
		c.chunk.EmitLoop(c.prevLine(), loopStart)
		loopStart = incStart
		c.chunk.PatchJump(bodyJump)
	} else {
		c.advance() // consume ')'
	}

	loop := &breakLoop{depth: c.scope}
	c.loops = append(c.loops, loop)
	c.statement()
	c.loops = c.loops[:len(c.loops)-1]

	c.chunk.EmitLoop(c.prevLine(), loopStart)

	if exitJump != -1 {
		c.chunk.PatchJump(exitJump)
		c.chunk.WriteSimple(c.prevLine(), chunk.Pop)
	}
	for _, b := range loop.breaks {
		c.chunk.PatchJump(b)
	}
	c.endScope()
}

func (c *Compiler) breakStmt() {
	line := c.prevLine()
	if len(c.loops) == 0 {
		c.errorAt(c.previous(), "Can't use 'break' outside of a loop")
	}
	c.consume(token.Semicolon, "Expect ';' after 'break'")
	if len(c.loops) > 0 {
		loop := c.loops[len(c.loops)-1]
		for i := len(c.locals) - 1; i >= 0 && c.locals[i].depth > loop.depth; i-- {
			c.chunk.WriteSimple(line, chunk.Pop)
		}
		jump := c.chunk.EmitJump(line, chunk.Jump)
		loop.breaks = append(loop.breaks, jump)
	}
}

// ---- expressions (Pratt) ----

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := rules[c.previous().Kind].prefix
	if prefix == nil {
		c.errorAt(c.previous(), "Expect expression")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for !c.atEnd() && prec <= rules[c.current().Kind].prec {
		c.advance()
		infix := rules[c.previous().Kind].infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAt(c.previous(), "Invalid assignment target")
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression")
}

func (c *Compiler) unary(_ bool) {
	op := c.previous()
	c.parsePrecedence(precUnary)
	switch op.Kind {
	case token.Minus:
		c.chunk.WriteSimple(op.Line, chunk.Negate)
	case token.Bang:
		c.chunk.WriteSimple(op.Line, chunk.Not)
	}
}

func (c *Compiler) binary(_ bool) {
	op := c.previous()
	rule := rules[op.Kind]
	c.parsePrecedence(rule.prec.next())

	switch op.Kind {
	case token.Plus:
		c.chunk.WriteSimple(op.Line, chunk.Add)
	case token.Minus:
		c.chunk.WriteSimple(op.Line, chunk.Subtract)
	case token.Star:
		c.chunk.WriteSimple(op.Line, chunk.Multiply)
	case token.Slash:
		c.chunk.WriteSimple(op.Line, chunk.Divide)
	case token.EqualEqual:
		c.chunk.WriteSimple(op.Line, chunk.Equal)
	case token.BangEqual:
		c.chunk.WriteSimple(op.Line, chunk.Equal)
		c.chunk.WriteSimple(op.Line, chunk.Not)
	case token.Greater:
		c.chunk.WriteSimple(op.Line, chunk.Greater)
	case token.GreaterEqual:
		c.chunk.WriteSimple(op.Line, chunk.Less)
		c.chunk.WriteSimple(op.Line, chunk.Not)
	case token.Less:
		c.chunk.WriteSimple(op.Line, chunk.Less)
	case token.LessEqual:
		c.chunk.WriteSimple(op.Line, chunk.Greater)
		c.chunk.WriteSimple(op.Line, chunk.Not)
	}
}

func (c *Compiler) and_(_ bool) {
	line := c.prevLine()
	endJump := c.chunk.EmitJump(line, chunk.JumpIfFalse)
	c.chunk.WriteSimple(line, chunk.Pop)
	c.parsePrecedence(precAnd)
	c.chunk.PatchJump(endJump)
}

func (c *Compiler) or_(_ bool) {
	line := c.prevLine()
	elseJump := c.chunk.EmitJump(line, chunk.JumpIfFalse)
	endJump := c.chunk.EmitJump(line, chunk.Jump)
	c.chunk.PatchJump(elseJump)
	c.chunk.WriteSimple(line, chunk.Pop)
	c.parsePrecedence(precOr)
	c.chunk.PatchJump(endJump)
}

func (c *Compiler) number(_ bool) {
	tok := c.previous()
	c.chunk.WriteConstant(tok.Line, chunk.Number(tok.Literal.Num))
}

func (c *Compiler) stringLit(_ bool) {
	tok := c.previous()
	c.chunk.WriteConstant(tok.Line, chunk.String(tok.Literal.Str))
}

func (c *Compiler) literal(_ bool) {
	tok := c.previous()
	switch tok.Kind {
	case token.True:
		c.chunk.WriteSimple(tok.Line, chunk.True)
	case token.False:
		c.chunk.WriteSimple(tok.Line, chunk.False)
	case token.Nil:
		c.chunk.WriteSimple(tok.Line, chunk.Nil)
	}
}

func (c *Compiler) variable(canAssign bool) {
	name := c.previous()

	if slot, ok := c.resolveLocal(name); ok {
		if canAssign && c.match(token.Equal) {
			c.expression()
			c.chunk.Write(name.Line, chunk.SetLocal, byte(slot))
		} else {
			c.chunk.Write(name.Line, chunk.GetLocal, byte(slot))
		}
		return
	}

	nameIdx := c.chunk.AddConstant(chunk.String(name.Lexeme))
	if canAssign && c.match(token.Equal) {
		c.expression()
		c.chunk.WriteGlobal(name.Line, chunk.SetGlobalKind, nameIdx)
	} else {
		c.chunk.WriteGlobal(name.Line, chunk.GetGlobalKind, nameIdx)
	}
}

func (c *Compiler) resolveLocal(name token.Token) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name.Lexeme {
			return i, true
		}
	}
	return 0, false
}

// ---- Pratt table ----

type parseFn func(c *Compiler, canAssign bool)

type rule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.LeftParen:    {prefix: (*Compiler).grouping},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, prec: precTerm},
		token.Plus:         {infix: (*Compiler).binary, prec: precTerm},
		token.Slash:        {infix: (*Compiler).binary, prec: precFactor},
		token.Star:         {infix: (*Compiler).binary, prec: precFactor},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, prec: precEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, prec: precEquality},
		token.Greater:      {infix: (*Compiler).binary, prec: precComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, prec: precComparison},
		token.Less:         {infix: (*Compiler).binary, prec: precComparison},
		token.LessEqual:    {infix: (*Compiler).binary, prec: precComparison},
		token.Number:       {prefix: (*Compiler).number},
		token.String:       {prefix: (*Compiler).stringLit},
		token.True:         {prefix: (*Compiler).literal},
		token.False:        {prefix: (*Compiler).literal},
		token.Nil:          {prefix: (*Compiler).literal},
		token.Identifier:   {prefix: (*Compiler).variable},
		token.And:          {infix: (*Compiler).and_, prec: precAnd},
		token.Or:           {infix: (*Compiler).or_, prec: precOr},
	}
}
