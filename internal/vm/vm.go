// Package vm implements the bytecode pipeline's stack machine, grounded on
// original_source/src/vm.rs.
package vm

import (
	"fmt"
	"io"
	"math"

	"glox/internal/chunk"
)

// Error is a VM runtime failure.
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Runtime Error [line %d] %s", e.Line, e.Message)
}

// VM owns the value stack and the global variable table across however many
// chunks it is asked to Interpret.
type VM struct {
	stack   []chunk.Value
	globals map[string]chunk.Value
	out     io.Writer
}

// New creates a VM that writes `print` output to out.
func New(out io.Writer) *VM {
	return &VM{globals: make(map[string]chunk.Value), out: out}
}

func (vm *VM) push(v chunk.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() chunk.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(dist int) chunk.Value { return vm.stack[len(vm.stack)-1-dist] }

// Interpret runs c to completion (a bare Return at the end of every
// compiled chunk) or until a runtime error.
func (vm *VM) Interpret(c *chunk.Chunk) error {
	ip := 0
	line := func() int { return c.Line(ip) }

	for ip < c.Len() {
		op, data := c.Read(ip)
		next := ip + 1 + op.DataLen()

		switch op {
		case chunk.Return:
			return nil

		case chunk.Constant8, chunk.Constant16, chunk.Constant24:
			vm.push(c.Constants[chunk.ReadIndex(data)])

		case chunk.Nil:
			vm.push(chunk.NilValue)
		case chunk.True:
			vm.push(chunk.Bool(true))
		case chunk.False:
			vm.push(chunk.Bool(false))

		case chunk.Pop:
			vm.pop()

		case chunk.Not:
			vm.push(chunk.Bool(chunk.IsFalsey(vm.pop())))

		case chunk.Negate:
			n, ok := vm.peek(0).(chunk.Number)
			if !ok {
				return &Error{Line: line(), Message: "Operand must be a number"}
			}
			vm.stack[len(vm.stack)-1] = -n

		case chunk.Add:
			b, a := vm.pop(), vm.pop()
			if as, ok := a.(chunk.String); ok {
				vm.push(as + chunk.String(displayFor(b)))
				break
			}
			if bs, ok := b.(chunk.String); ok {
				vm.push(chunk.String(displayFor(a)) + bs)
				break
			}
			an, aok := a.(chunk.Number)
			bn, bok := b.(chunk.Number)
			if !aok || !bok {
				return &Error{Line: line(), Message: "Operands must be two numbers or two strings"}
			}
			vm.push(an + bn)

		case chunk.Subtract, chunk.Multiply, chunk.Divide, chunk.Greater, chunk.Less:
			b, a := vm.pop(), vm.pop()
			an, aok := a.(chunk.Number)
			bn, bok := b.(chunk.Number)
			if !aok || !bok {
				return &Error{Line: line(), Message: "Operands must be numbers"}
			}
			switch op {
			case chunk.Subtract:
				vm.push(an - bn)
			case chunk.Multiply:
				vm.push(an * bn)
			case chunk.Divide:
				// Produces IEEE NaN on division by zero rather than erroring
				// (unlike the tree-walker).
				if bn == 0 {
					vm.push(chunk.Number(math.NaN()))
				} else {
					vm.push(an / bn)
				}
			case chunk.Greater:
				vm.push(chunk.Bool(an > bn))
			case chunk.Less:
				vm.push(chunk.Bool(an < bn))
			}

		case chunk.Equal:
			b, a := vm.pop(), vm.pop()
			vm.push(chunk.Bool(chunk.Equal(a, b)))

		case chunk.Print:
			fmt.Fprintln(vm.out, vm.pop())

		case chunk.DefineGlobal8, chunk.DefineGlobal16, chunk.DefineGlobal24:
			name := string(c.Constants[chunk.ReadIndex(data)].(chunk.String))
			vm.globals[name] = vm.pop()

		case chunk.GetGlobal8, chunk.GetGlobal16, chunk.GetGlobal24:
			name := string(c.Constants[chunk.ReadIndex(data)].(chunk.String))
			v, ok := vm.globals[name]
			if !ok {
				return &Error{Line: line(), Message: fmt.Sprintf("Undefined variable '%s'", name)}
			}
			vm.push(v)

		case chunk.SetGlobal8, chunk.SetGlobal16, chunk.SetGlobal24:
			name := string(c.Constants[chunk.ReadIndex(data)].(chunk.String))
			if _, ok := vm.globals[name]; !ok {
				return &Error{Line: line(), Message: fmt.Sprintf("Undefined variable '%s'", name)}
			}
			vm.globals[name] = vm.peek(0)

		case chunk.GetLocal:
			vm.push(vm.stack[data[0]])

		case chunk.SetLocal:
			vm.stack[data[0]] = vm.peek(0)

		case chunk.Jump:
			next = ip + 3 + chunk.ReadIndex(data)

		case chunk.JumpIfFalse:
			if chunk.IsFalsey(vm.peek(0)) {
				next = ip + 3 + chunk.ReadIndex(data)
			}

		case chunk.Loop:
			next = ip + 3 - chunk.ReadIndex(data)

		default:
			return &Error{Line: line(), Message: fmt.Sprintf("unknown opcode %s", op)}
		}

		ip = next
	}

	return nil
}

func displayFor(v chunk.Value) string { return v.String() }
