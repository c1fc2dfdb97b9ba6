package interp

import (
	"fmt"
	"io"
	"time"

	"glox/internal/ast"
	"glox/internal/token"
)

// signal carries non-local control flow out of statement execution: a
// `break` unwinds to the nearest enclosing while, a `return` unwinds all
// the way to the call site — modeled here as an explicit result value
// rather than Go panics, since every exec call already threads an error
// return.
type signal int

const (
	sigNone signal = iota
	sigBreak
	sigReturn
)

// Interpreter walks a resolved AST, evaluating it against a chain of
// Environments.
type Interpreter struct {
	Globals *Environment
	env     *Environment
	locals  map[ast.Expr]int
	repl    bool
	out     io.Writer
}

// New creates an Interpreter. locals is the resolver's side-table; repl
// enables printing the value of bare expression statements. locals may be
// nil — a REPL Runner populates it incrementally via AddLocals as each line
// is resolved.
func New(out io.Writer, locals map[ast.Expr]int, repl bool) *Interpreter {
	if locals == nil {
		locals = make(map[ast.Expr]int)
	}
	globals := NewEnvironment(nil)
	it := &Interpreter{Globals: globals, env: globals, locals: locals, repl: repl, out: out}
	it.defineBuiltins()
	return it
}

// AddLocals merges a resolver's side-table into the Interpreter's, keyed by
// AST node identity so successive REPL lines (each with their own distinct
// node pointers) never collide.
func (it *Interpreter) AddLocals(locals map[ast.Expr]int) {
	for expr, dist := range locals {
		it.locals[expr] = dist
	}
}

func (it *Interpreter) defineBuiltins() {
	it.Globals.Define("clock", &Builtin{
		name: "clock", arity: 0,
		fn: func(_ []Value) (Value, error) {
			return Number(float64(time.Now().UnixNano()) / 1e9), nil
		},
	})
}

// Run executes every top-level declaration in prog, stopping at the first
// runtime error (a file run aborts; a REPL caller resumes at the next
// line).
func (it *Interpreter) Run(prog *ast.Program) error {
	for _, d := range prog.Decls {
		if _, _, err := it.exec(d); err != nil {
			return err
		}
	}
	return nil
}

// ---- statement execution ----

func (it *Interpreter) exec(s ast.Stmt) (Value, signal, error) {
	switch n := s.(type) {
	case *ast.Empty:
		return nil, sigNone, nil

	case *ast.Break:
		return nil, sigBreak, nil

	case *ast.Expression:
		v, err := it.eval(n.Expr)
		if err != nil {
			return nil, sigNone, err
		}
		if it.repl {
			fmt.Fprintln(it.out, v)
		}
		return nil, sigNone, nil

	case *ast.Print:
		v, err := it.eval(n.Expr)
		if err != nil {
			return nil, sigNone, err
		}
		fmt.Fprintln(it.out, v)
		return nil, sigNone, nil

	case *ast.VarDecl:
		var v Value = NilValue
		if n.Init != nil {
			var err error
			v, err = it.eval(n.Init)
			if err != nil {
				return nil, sigNone, err
			}
		}
		it.env.Define(n.Name.Lexeme, v)
		return nil, sigNone, nil

	case *ast.Block:
		return it.execBlock(n.Stmts, NewEnvironment(it.env))

	case *ast.If:
		cond, err := it.eval(n.Cond)
		if err != nil {
			return nil, sigNone, err
		}
		if IsTruthy(cond) {
			return it.exec(n.Then)
		} else if n.Else != nil {
			return it.exec(n.Else)
		}
		return nil, sigNone, nil

	case *ast.While:
		for {
			cond, err := it.eval(n.Cond)
			if err != nil {
				return nil, sigNone, err
			}
			if !IsTruthy(cond) {
				return nil, sigNone, nil
			}
			v, sig, err := it.exec(n.Body)
			if err != nil {
				return nil, sigNone, err
			}
			if sig == sigBreak {
				return nil, sigNone, nil
			}
			if sig == sigReturn {
				return v, sig, nil
			}
		}

	case *ast.Function:
		fn := &Function{decl: n, closure: it.env}
		it.env.Define(n.Name.Lexeme, fn)
		return nil, sigNone, nil

	case *ast.Return:
		var v Value = NilValue
		if n.Value != nil {
			var err error
			v, err = it.eval(n.Value)
			if err != nil {
				return nil, sigNone, err
			}
		}
		return v, sigReturn, nil

	case *ast.Class:
		return it.execClass(n)

	default:
		panic(fmt.Sprintf("interp: unhandled stmt %T", s))
	}
}

// execBlock runs stmts against env, restoring it.env on the way out. It is
// exported-in-package (lowercase) so Function.Call can reuse it for
// activation records.
func (it *Interpreter) execBlock(stmts []ast.Stmt, env *Environment) (Value, signal, error) {
	prev := it.env
	it.env = env
	defer func() { it.env = prev }()

	for _, d := range stmts {
		v, sig, err := it.exec(d)
		if err != nil || sig != sigNone {
			return v, sig, err
		}
	}
	return nil, sigNone, nil
}

func (it *Interpreter) execClass(n *ast.Class) (Value, signal, error) {
	var super *Class
	if n.Superclass != nil {
		sv, err := it.eval(n.Superclass)
		if err != nil {
			return nil, sigNone, err
		}
		sc, ok := sv.(*Class)
		if !ok {
			return nil, sigNone, runtimeErr(n.Superclass.Name.Line, "Superclass must be a class")
		}
		super = sc
	}

	it.env.Define(n.Name.Lexeme, NilValue)

	classEnv := it.env
	if super != nil {
		classEnv = NewEnvironment(it.env)
		classEnv.Define("super", super)
	}

	methods := make(map[string]*Function, len(n.Methods))
	for _, m := range n.Methods {
		methods[m.Name.Lexeme] = &Function{
			decl:    m,
			closure: classEnv,
			isInit:  m.Name.Lexeme == "init",
		}
	}

	class := &Class{Name: n.Name.Lexeme, Superclass: super, Methods: methods}
	it.env.Assign(n.Name.Lexeme, class)
	return nil, sigNone, nil
}

// ---- expression evaluation ----

func (it *Interpreter) eval(e ast.Expr) (Value, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return literalValue(n), nil

	case *ast.Identifier:
		return it.lookupVariable(n.Name, n)

	case *ast.Grouping:
		return it.eval(n.Inner)

	case *ast.Unary:
		return it.evalUnary(n)

	case *ast.Binary:
		return it.evalBinary(n)

	case *ast.Logical:
		return it.evalLogical(n)

	case *ast.Assignment:
		v, err := it.eval(n.Expr)
		if err != nil {
			return nil, err
		}
		if dist, ok := it.locals[n]; ok {
			it.env.AssignAt(dist, n.Name.Lexeme, v)
		} else if !it.Globals.Assign(n.Name.Lexeme, v) {
			return nil, runtimeErr(n.Name.Line, "Undefined variable '%s'", n.Name.Lexeme)
		}
		return v, nil

	case *ast.Call:
		return it.evalCall(n)

	case *ast.Get:
		obj, err := it.eval(n.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(n.Name.Line, "Only instances have properties")
		}
		return inst.Get(n.Name.Lexeme, n.Name.Line)

	case *ast.Set:
		obj, err := it.eval(n.Object)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*Instance)
		if !ok {
			return nil, runtimeErr(n.Name.Line, "Only instances have fields")
		}
		v, err := it.eval(n.Value)
		if err != nil {
			return nil, err
		}
		inst.Set(n.Name.Lexeme, v)
		return v, nil

	case *ast.This:
		return it.lookupVariable(n.Keyword, n)

	case *ast.Super:
		return it.evalSuper(n)

	default:
		panic(fmt.Sprintf("interp: unhandled expr %T", e))
	}
}

func literalValue(n *ast.Literal) Value {
	switch n.Kind {
	case token.True:
		return Bool(true)
	case token.False:
		return Bool(false)
	case token.Nil:
		return NilValue
	case token.Number:
		return Number(n.Value.Num)
	case token.String:
		return String(n.Value.Str)
	default:
		panic("interp: literal with unexpected kind")
	}
}

func (it *Interpreter) lookupVariable(name token.Token, expr ast.Expr) (Value, error) {
	if dist, ok := it.locals[expr]; ok {
		return it.env.GetAt(dist, name.Lexeme), nil
	}
	if v, ok := it.Globals.Get(name.Lexeme); ok {
		return v, nil
	}
	return nil, runtimeErr(name.Line, "Undefined variable '%s'", name.Lexeme)
}

func (it *Interpreter) evalUnary(n *ast.Unary) (Value, error) {
	right, err := it.eval(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Op.Kind {
	case token.Bang:
		return Bool(!IsTruthy(right)), nil
	case token.Minus:
		num, ok := right.(Number)
		if !ok {
			return nil, runtimeErr(n.Op.Line, "Operand must be a number")
		}
		return -num, nil
	default:
		panic("interp: unexpected unary operator")
	}
}

func (it *Interpreter) evalLogical(n *ast.Logical) (Value, error) {
	left, err := it.eval(n.Left)
	if err != nil {
		return nil, err
	}
	// and/or short-circuit but return the truthiness-coerced boolean
	// result, not the deciding operand's raw value.
	if n.Op.Kind == token.Or {
		if IsTruthy(left) {
			return Bool(true), nil
		}
	} else {
		if !IsTruthy(left) {
			return Bool(false), nil
		}
	}
	right, err := it.eval(n.Right)
	if err != nil {
		return nil, err
	}
	return Bool(IsTruthy(right)), nil
}

func (it *Interpreter) evalBinary(n *ast.Binary) (Value, error) {
	left, err := it.eval(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := it.eval(n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op.Kind {
	case token.Plus:
		if ls, ok := left.(String); ok {
			return ls + String(displayForConcat(right)), nil
		}
		if rs, ok := right.(String); ok {
			return String(displayForConcat(left)) + rs, nil
		}
		ln, lok := left.(Number)
		rn, rok := right.(Number)
		if lok && rok {
			return ln + rn, nil
		}
		return nil, runtimeErr(n.Op.Line, "Operands must be two numbers or two strings")
	case token.Minus:
		ln, rn, err := bothNumbers(n.Op.Line, left, right)
		if err != nil {
			return nil, err
		}
		return ln - rn, nil
	case token.Star:
		ln, rn, err := bothNumbers(n.Op.Line, left, right)
		if err != nil {
			return nil, err
		}
		return ln * rn, nil
	case token.Slash:
		ln, rn, err := bothNumbers(n.Op.Line, left, right)
		if err != nil {
			return nil, err
		}
		if rn == 0 {
			return nil, runtimeErr(n.Op.Line, "Division by zero")
		}
		return ln / rn, nil
	case token.Greater:
		ln, rn, err := bothNumbers(n.Op.Line, left, right)
		if err != nil {
			return nil, err
		}
		return Bool(ln > rn), nil
	case token.GreaterEqual:
		ln, rn, err := bothNumbers(n.Op.Line, left, right)
		if err != nil {
			return nil, err
		}
		return Bool(ln >= rn), nil
	case token.Less:
		ln, rn, err := bothNumbers(n.Op.Line, left, right)
		if err != nil {
			return nil, err
		}
		return Bool(ln < rn), nil
	case token.LessEqual:
		ln, rn, err := bothNumbers(n.Op.Line, left, right)
		if err != nil {
			return nil, err
		}
		return Bool(ln <= rn), nil
	case token.EqualEqual:
		return Bool(Equal(left, right)), nil
	case token.BangEqual:
		return Bool(!Equal(left, right)), nil
	default:
		panic("interp: unexpected binary operator")
	}
}

func bothNumbers(line int, left, right Value) (Number, Number, error) {
	ln, lok := left.(Number)
	rn, rok := right.(Number)
	if !lok || !rok {
		return 0, 0, runtimeErr(line, "Operands must be numbers")
	}
	return ln, rn, nil
}

// displayForConcat renders a non-string operand of `+` using its canonical
// display form, so concatenation works with either operand as a string.
func displayForConcat(v Value) string { return v.String() }

func (it *Interpreter) evalCall(n *ast.Call) (Value, error) {
	calleeVal, err := it.eval(n.Callee)
	if err != nil {
		return nil, err
	}
	callee, ok := calleeVal.(Callable)
	if !ok {
		return nil, runtimeErr(n.Paren.Line, "Can only call functions and classes")
	}
	if len(n.Args) != callee.Arity() {
		return nil, runtimeErr(n.Paren.Line, "Expected %d arguments but got %d", callee.Arity(), len(n.Args))
	}

	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := it.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return callee.Call(it, args)
}

func (it *Interpreter) evalSuper(n *ast.Super) (Value, error) {
	dist := it.locals[n]
	superVal := it.env.GetAt(dist, "super")
	super, ok := superVal.(*Class)
	if !ok {
		panic("interp: 'super' bound to a non-class value")
	}
	thisVal := it.env.GetAt(dist-1, "this")
	this, ok := thisVal.(*Instance)
	if !ok {
		panic("interp: 'this' bound to a non-instance value")
	}
	method := super.FindMethod(n.Method.Lexeme)
	if method == nil {
		return nil, runtimeErr(n.Method.Line, "Undefined property '%s'", n.Method.Lexeme)
	}
	return method.bind(this), nil
}
