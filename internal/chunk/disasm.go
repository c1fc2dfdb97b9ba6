package chunk

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Disassemble writes a human-readable listing of c to w, formatted
// `OFFSET LINE OP [operand]`, colored via github.com/fatih/color the same
// way the CLI colors its other diagnostic output.
func (c *Chunk) Disassemble(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	lastLine := -1
	for offset := 0; offset < len(c.Code); {
		offset, lastLine = c.disassembleInstruction(w, offset, lastLine)
	}
}

func (c *Chunk) disassembleInstruction(w io.Writer, offset, lastLine int) (int, int) {
	op, data := c.Read(offset)
	line := c.Line(offset)

	offsetStr := color.New(color.FgHiBlack).Sprintf("%04d", offset)
	var lineStr string
	if line == lastLine {
		lineStr = color.New(color.FgHiBlack).Sprint("   |")
	} else {
		lineStr = color.New(color.FgYellow).Sprintf("L%04d", line)
	}
	opStr := color.New(color.FgCyan).Sprintf("%-16s", op.String())

	switch op {
	case Constant8, Constant16, Constant24,
		DefineGlobal8, DefineGlobal16, DefineGlobal24,
		GetGlobal8, GetGlobal16, GetGlobal24,
		SetGlobal8, SetGlobal16, SetGlobal24:
		idx := ReadIndex(data)
		fmt.Fprintf(w, "%s  %s  %s %d  (%s)\n", offsetStr, lineStr, opStr, idx, c.Constants[idx])
	case GetLocal, SetLocal:
		fmt.Fprintf(w, "%s  %s  %s %d\n", offsetStr, lineStr, opStr, data[0])
	case Jump, JumpIfFalse:
		dist := ReadIndex(data)
		fmt.Fprintf(w, "%s  %s  %s -> %d\n", offsetStr, lineStr, opStr, offset+3+dist)
	case Loop:
		dist := ReadIndex(data)
		fmt.Fprintf(w, "%s  %s  %s -> %d\n", offsetStr, lineStr, opStr, offset+3-dist)
	default:
		fmt.Fprintf(w, "%s  %s  %s\n", offsetStr, lineStr, opStr)
	}

	return offset + 1 + op.DataLen(), line
}
