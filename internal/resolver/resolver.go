// Package resolver performs a static scope-resolution pass: a single AST
// walk that records, for every variable use, how many enclosing
// environments to skip at runtime.
package resolver

import (
	"fmt"

	"glox/internal/ast"
	"glox/internal/token"
)

// Error is a static resolution failure.
type Error struct {
	Line    int
	Lexeme  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Resolve Error [line %d] %s: near %q", e.Line, e.Message, e.Lexeme)
}

type functionType int

const (
	funcNone functionType = iota
	funcFunction
	funcMethod
	funcInitializer
)

type classType int

const (
	classNone classType = iota
	classClass
	classSubclass
)

// Resolver walks a parsed program and produces Locals, a side-table mapping
// each variable-reference expression (by node identity) to the number of
// enclosing scopes to walk at evaluation time. An expression absent from
// Locals is a free global.
type Resolver struct {
	Locals    map[ast.Expr]int
	Errors    []*Error
	scopes    []map[string]bool
	curFn     functionType
	curCls    classType
	loopDepth int
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{Locals: make(map[ast.Expr]int)}
}

// Resolve walks every top-level declaration in prog.
func (r *Resolver) Resolve(prog *ast.Program) {
	for _, d := range prog.Decls {
		r.stmt(d)
	}
}

func (r *Resolver) beginScope() { r.scopes = append(r.scopes, map[string]bool{}) }
func (r *Resolver) endScope()   { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	scope := r.scopes[len(r.scopes)-1]
	if _, ok := scope[name.Lexeme]; ok {
		r.errorf(name, "Already a variable named %q in this scope", name.Lexeme)
	}
	scope[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

func (r *Resolver) declareSynthetic(name string) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name] = true
}

func (r *Resolver) resolveLocal(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.Locals[expr] = len(r.scopes) - 1 - i
			return
		}
	}
	// not found in any scope: treated as a global at runtime
}

func (r *Resolver) errorf(tok token.Token, format string, args ...any) {
	r.Errors = append(r.Errors, &Error{Line: tok.Line, Lexeme: tok.Lexeme, Message: fmt.Sprintf(format, args...)})
}

// ---- statements ----

func (r *Resolver) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Empty:
		// nothing to resolve

	case *ast.Break:
		if r.loopDepth == 0 {
			r.errorf(n.Keyword, "Can't use 'break' outside of a loop")
		}

	case *ast.Expression:
		r.expr(n.Expr)

	case *ast.Print:
		r.expr(n.Expr)

	case *ast.VarDecl:
		r.declare(n.Name)
		if n.Init != nil {
			r.expr(n.Init)
		}
		r.define(n.Name)

	case *ast.Block:
		r.beginScope()
		for _, d := range n.Stmts {
			r.stmt(d)
		}
		r.endScope()

	case *ast.If:
		r.expr(n.Cond)
		r.stmt(n.Then)
		if n.Else != nil {
			r.stmt(n.Else)
		}

	case *ast.While:
		r.expr(n.Cond)
		r.loopDepth++
		r.stmt(n.Body)
		r.loopDepth--

	case *ast.Function:
		r.declare(n.Name)
		r.define(n.Name)
		r.resolveFunction(n, funcFunction)

	case *ast.Return:
		if r.curFn == funcNone {
			r.errorf(n.Keyword, "Can't return from top-level code")
		}
		if n.Value != nil {
			if r.curFn == funcInitializer {
				r.errorf(n.Keyword, "Can't return a value from an initializer")
			}
			r.expr(n.Value)
		}

	case *ast.Class:
		r.resolveClass(n)

	default:
		panic(fmt.Sprintf("resolver: unhandled stmt %T", s))
	}
}

func (r *Resolver) resolveFunction(fn *ast.Function, typ functionType) {
	enclosing := r.curFn
	r.curFn = typ
	enclosingLoopDepth := r.loopDepth
	r.loopDepth = 0
	r.beginScope()
	for _, p := range fn.Params {
		r.declare(p)
		r.define(p)
	}
	for _, d := range fn.Body {
		r.stmt(d)
	}
	r.endScope()
	r.curFn = enclosing
	r.loopDepth = enclosingLoopDepth
}

func (r *Resolver) resolveClass(c *ast.Class) {
	enclosingCls := r.curCls
	r.curCls = classClass

	r.declare(c.Name)
	r.define(c.Name)

	if c.Superclass != nil {
		if c.Superclass.Name.Lexeme == c.Name.Lexeme {
			r.errorf(c.Superclass.Name, "A class can't inherit from itself")
		}
		r.curCls = classSubclass
		r.expr(c.Superclass)

		r.beginScope()
		r.declareSynthetic("super")
	}

	r.beginScope()
	r.declareSynthetic("this")

	for _, m := range c.Methods {
		typ := funcMethod
		if m.Name.Lexeme == "init" {
			typ = funcInitializer
		}
		r.resolveFunction(m, typ)
	}

	r.endScope()
	if c.Superclass != nil {
		r.endScope()
	}

	r.curCls = enclosingCls
}

// ---- expressions ----

func (r *Resolver) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Literal:
		// nothing to resolve

	case *ast.Identifier:
		if len(r.scopes) > 0 {
			if defined, declared := r.scopes[len(r.scopes)-1][n.Name.Lexeme]; declared && !defined {
				r.errorf(n.Name, "Can't read local variable in its own initializer")
			}
		}
		r.resolveLocal(n, n.Name.Lexeme)

	case *ast.Assignment:
		r.expr(n.Expr)
		r.resolveLocal(n, n.Name.Lexeme)

	case *ast.Grouping:
		r.expr(n.Inner)

	case *ast.Unary:
		r.expr(n.Right)

	case *ast.Binary:
		r.expr(n.Left)
		r.expr(n.Right)

	case *ast.Logical:
		r.expr(n.Left)
		r.expr(n.Right)

	case *ast.Call:
		r.expr(n.Callee)
		for _, a := range n.Args {
			r.expr(a)
		}

	case *ast.Get:
		r.expr(n.Object)

	case *ast.Set:
		r.expr(n.Value)
		r.expr(n.Object)

	case *ast.This:
		if r.curCls == classNone {
			r.errorf(n.Keyword, "Can't use 'this' outside of a class")
			return
		}
		r.resolveLocal(n, "this")

	case *ast.Super:
		switch r.curCls {
		case classNone:
			r.errorf(n.Keyword, "Can't use 'super' outside of a class")
		case classClass:
			r.errorf(n.Keyword, "Can't use 'super' in a class with no superclass")
		default:
			r.resolveLocal(n, "super")
		}

	default:
		panic(fmt.Sprintf("resolver: unhandled expr %T", e))
	}
}
