// Command glox is the Lox language CLI: zero arguments starts a REPL, one
// argument interprets that file, anything else is a usage error.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chzyer/readline"

	"glox/internal/lox"
	"glox/internal/runio"
)

func main() {
	os.Exit(run())
}

func run() int {
	bytecode := flag.Bool("bytecode", false, "use the bytecode compiler+VM backend instead of the tree-walking interpreter")
	flag.Parse()

	backend := lox.TreeWalk
	if *bytecode {
		backend = lox.Bytecode
	}

	args := flag.Args()
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: glox [-bytecode] [script]")
		return 1
	}

	streams := runio.Std()
	defer streams.Flush()

	if len(args) == 1 {
		r := lox.New(streams, backend, false)
		if err := r.File(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	return repl(streams, backend)
}

// replLine wraps readline.Instance to carry a running line counter into the
// `[LLL]> ` prompt (LLL = the next input's line number).
type replLine struct {
	rl   *readline.Instance
	line int
}

func (r *replLine) Readline() (string, error) {
	r.rl.SetPrompt(fmt.Sprintf("[%03d]> ", r.line))
	src, err := r.rl.Readline()
	r.line++
	return src, err
}

func repl(streams *runio.Streams, backend lox.Backend) int {
	rl, err := readline.New("[001]> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rl.Close()

	r := lox.New(streams, backend, true)
	if err := r.Prompt(&replLine{rl: rl, line: 1}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
