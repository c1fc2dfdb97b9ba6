package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"glox/internal/ast"
	"glox/internal/token"
)

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Name: token.Token{Kind: token.Identifier, Lexeme: name}}
}

func TestNodeIdentityDistinguishesSyntacticallyEqualExpressions(t *testing.T) {
	a := ident("x")
	b := ident("x")
	locals := map[ast.Expr]int{}
	locals[a] = 0
	locals[b] = 1
	assert.Equal(t, 0, locals[a])
	assert.Equal(t, 1, locals[b])
	assert.Len(t, locals, 2)
}

func TestBinaryStringRendersPrefixForm(t *testing.T) {
	expr := &ast.Binary{
		Left:  &ast.Literal{Tok: token.Token{Lexeme: "1"}},
		Op:    token.Token{Lexeme: "+"},
		Right: &ast.Literal{Tok: token.Token{Lexeme: "2"}},
	}
	assert.Equal(t, "(+ 1 2)", expr.String())
}

func TestClassStringIncludesSuperclass(t *testing.T) {
	cls := &ast.Class{
		Name:       token.Token{Lexeme: "Dog"},
		Superclass: ident("Animal"),
	}
	assert.Contains(t, cls.String(), "class Dog < Animal")
}

func TestVarDeclStringOmitsInitializerWhenNil(t *testing.T) {
	vd := &ast.VarDecl{Name: token.Token{Lexeme: "x"}}
	assert.Equal(t, "var x;", vd.String())
}
