package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"glox/internal/token"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "PLUS", token.Plus.String())
	assert.Equal(t, "BREAK", token.Break.String())
	assert.Equal(t, "UNKNOWN", token.Kind(-1).String())
	assert.Equal(t, "UNKNOWN", token.Kind(9999).String())
}

func TestKeywordsCoverBreak(t *testing.T) {
	kind, ok := token.Keywords["break"]
	assert.True(t, ok)
	assert.Equal(t, token.Break, kind)
}

func TestNewHasNoLiteralPayload(t *testing.T) {
	tok := token.New(token.Identifier, "x", 3, 1)
	assert.Equal(t, "x", tok.Lexeme)
	assert.Equal(t, 3, tok.Line)
	assert.False(t, tok.Literal.IsString)
	assert.False(t, tok.Literal.IsNumber)
}

func TestTokenStringIncludesPosition(t *testing.T) {
	tok := token.New(token.Semicolon, ";", 2, 5)
	assert.Equal(t, `SEMICOLON ";" L2:5`, tok.String())
}
