package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glox/internal/compiler"
	"glox/internal/lexer"
)

func compile(t *testing.T, src string) *compiler.Compiler {
	t.Helper()
	l := lexer.New([]byte(src))
	toks := l.Scan()
	require.Empty(t, l.Errors)
	return compiler.New(toks)
}

func TestClassDeclarationIsACompileError(t *testing.T) {
	c := compile(t, `class Foo {}`)
	c.Compile()
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "Classes are not supported by the bytecode backend")
}

func TestFunDeclarationIsACompileError(t *testing.T) {
	c := compile(t, `fun f() {}`)
	c.Compile()
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "Functions are not supported by the bytecode backend")
}

func TestBreakOutsideLoopIsACompileError(t *testing.T) {
	c := compile(t, `break;`)
	c.Compile()
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "Can't use 'break' outside of a loop")
}

func TestInvalidAssignmentTargetIsACompileError(t *testing.T) {
	c := compile(t, `1 + 2 = 3;`)
	c.Compile()
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "Invalid assignment target")
}

func TestDuplicateLocalIsACompileError(t *testing.T) {
	c := compile(t, `{ var a = 1; var a = 2; }`)
	c.Compile()
	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "Already a variable named")
}

func TestValidProgramCompilesWithoutErrors(t *testing.T) {
	c := compile(t, `
var x = 1 + 2 * 3;
print x;
while (x > 0) {
  x = x - 1;
  if (x == 0) break;
}
`)
	ch := c.Compile()
	require.Empty(t, c.Errors)
	assert.Positive(t, ch.Len())
}
