package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glox/internal/ast"
	"glox/internal/lexer"
	"glox/internal/parser"
	"glox/internal/resolver"
)

func resolveSrc(t *testing.T, src string) *resolver.Resolver {
	t.Helper()
	l := lexer.New([]byte(src))
	toks := l.Scan()
	require.Empty(t, l.Errors)
	p := parser.New(toks)
	prog := p.Parse()
	require.Empty(t, p.Errors)
	r := resolver.New()
	r.Resolve(prog)
	return r
}

func TestSelfReferentialInitializerIsAnError(t *testing.T) {
	r := resolveSrc(t, `var a = "outer"; { var a = a; }`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Can't read local variable in its own initializer")
}

func TestDuplicateLocalInSameScopeIsAnError(t *testing.T) {
	r := resolveSrc(t, `{ var a = 1; var a = 2; }`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Already a variable named")
}

func TestReturnOutsideFunctionIsAnError(t *testing.T) {
	r := resolveSrc(t, `return 1;`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Can't return from top-level code")
}

func TestReturnValueFromInitializerIsAnError(t *testing.T) {
	r := resolveSrc(t, `class Box { init() { return 1; } }`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Can't return a value from an initializer")
}

func TestThisOutsideClassIsAnError(t *testing.T) {
	r := resolveSrc(t, `print this;`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Can't use 'this' outside of a class")
}

func TestSuperWithoutSuperclassIsAnError(t *testing.T) {
	r := resolveSrc(t, `class A { m() { super.m(); } }`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Can't use 'super' in a class with no superclass")
}

func TestClassInheritingFromItselfIsAnError(t *testing.T) {
	r := resolveSrc(t, `class A < A {}`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "A class can't inherit from itself")
}

// super is resolved exactly one scope farther out than this from the same
// usage point, since resolveClass pushes an outer "super" scope and an
// inner "this" scope whenever a superclass is present.
func TestSuperIsOneScopeFartherThanThis(t *testing.T) {
	l := lexer.New([]byte(`class A { m() {} } class B < A { m() { super.m(); print this; } }`))
	toks := l.Scan()
	require.Empty(t, l.Errors)
	p := parser.New(toks)
	prog := p.Parse()
	require.Empty(t, p.Errors)
	r := resolver.New()
	r.Resolve(prog)
	require.Empty(t, r.Errors)

	cls := prog.Decls[1].(*ast.Class)
	body := cls.Methods[0].Body
	superCall := body[0].(*ast.Expression).Expr.(*ast.Call)
	superExpr := superCall.Callee.(*ast.Super)
	thisStmt := body[1].(*ast.Print).Expr.(*ast.This)

	superDist, ok := r.Locals[superExpr]
	require.True(t, ok)
	thisDist, ok := r.Locals[thisStmt]
	require.True(t, ok)
	assert.Equal(t, superDist-1, thisDist)
}

func TestBreakOutsideLoopIsAnError(t *testing.T) {
	r := resolveSrc(t, `break;`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Can't use 'break' outside of a loop")
}

func TestBreakInFunctionBodyWithoutItsOwnLoopIsAnError(t *testing.T) {
	r := resolveSrc(t, `while (true) { fun f() { break; } }`)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0].Error(), "Can't use 'break' outside of a loop")
}

func TestBreakInsideLoopIsNotAnError(t *testing.T) {
	r := resolveSrc(t, `while (true) { break; }`)
	assert.Empty(t, r.Errors)
}

func TestBreakInLoopInsideFunctionIsNotAnError(t *testing.T) {
	r := resolveSrc(t, `fun f() { while (true) { break; } }`)
	assert.Empty(t, r.Errors)
}

func TestGlobalReferenceIsAbsentFromLocals(t *testing.T) {
	l := lexer.New([]byte(`var g = 1; print g;`))
	toks := l.Scan()
	p := parser.New(toks)
	prog := p.Parse()
	r := resolver.New()
	r.Resolve(prog)
	require.Empty(t, r.Errors)

	printStmt := prog.Decls[1].(*ast.Print)
	ident := printStmt.Expr.(*ast.Identifier)
	_, ok := r.Locals[ident]
	assert.False(t, ok)
}
