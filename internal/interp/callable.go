package interp

import (
	"fmt"

	"glox/internal/ast"
)

// Callable is implemented by every value that can appear as a Call callee:
// user closures, classes (as constructors), and built-ins.
type Callable interface {
	Value
	Call(it *Interpreter, args []Value) (Value, error)
	Arity() int
}

// Function is a user-defined closure: an immutable, shared declaration plus
// the environment active when the function was declared.
type Function struct {
	decl    *ast.Function
	closure *Environment
	isInit  bool
}

func (*Function) valueNode() {}

func (f *Function) String() string {
	if f.decl.Name.Lexeme == "" {
		return "<function>"
	}
	return fmt.Sprintf("<fn %s>", f.decl.Name.Lexeme)
}

func (f *Function) Arity() int { return len(f.decl.Params) }

// Call creates a fresh child environment of the closure, binds parameters,
// and runs the body. Initializer methods always return `this` regardless
// of what (if anything) the body itself returns.
func (f *Function) Call(it *Interpreter, args []Value) (Value, error) {
	env := NewEnvironment(f.closure)
	for i, p := range f.decl.Params {
		env.Define(p.Lexeme, args[i])
	}

	ret, sig, err := it.execBlock(f.decl.Body, env)
	if err != nil {
		return nil, err
	}

	if f.isInit {
		return f.closure.GetAt(0, "this"), nil
	}
	if sig == sigReturn {
		return ret, nil
	}
	return NilValue, nil
}

// bind returns a new closure whose captured environment has been extended
// by one scope defining `this` to instance.
func (f *Function) bind(instance *Instance) *Function {
	env := NewEnvironment(f.closure)
	env.Define("this", instance)
	return &Function{decl: f.decl, closure: env, isInit: f.isInit}
}

// Builtin wraps a native Go function as a callable Lox value (e.g. clock()).
type Builtin struct {
	name  string
	arity int
	fn    func(args []Value) (Value, error)
}

func (*Builtin) valueNode() {}
func (b *Builtin) String() string {
	return fmt.Sprintf("<native fn %s>", b.name)
}
func (b *Builtin) Arity() int { return b.arity }
func (b *Builtin) Call(_ *Interpreter, args []Value) (Value, error) { return b.fn(args) }
