package chunk_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"glox/internal/chunk"
)

func TestDisassembleListsEveryInstruction(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	c := chunk.New()
	c.WriteConstant(1, chunk.Number(42))
	c.WriteSimple(1, chunk.Return)

	var out bytes.Buffer
	c.Disassemble(&out, "test chunk")

	got := out.String()
	assert.Contains(t, got, "== test chunk ==")
	assert.Contains(t, got, "CONSTANT8")
	assert.Contains(t, got, "(42)")
	assert.Contains(t, got, "RETURN")
}
