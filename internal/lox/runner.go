// Package lox wires the lexer, parser, resolver, and interpreter (or,
// for -bytecode, the compiler and VM) into the Runner the CLI drives,
// grounded on original_source/src/run.rs.
package lox

import (
	"errors"
	"os"

	"github.com/fatih/color"

	"glox/internal/compiler"
	"glox/internal/interp"
	"glox/internal/lexer"
	"glox/internal/parser"
	"glox/internal/resolver"
	"glox/internal/runio"
	"glox/internal/token"
	"glox/internal/vm"
)

// joinErrors folds a pass's full error slice into one error so a single
// run reports every error it collected, not just the first.
func joinErrors[E error](errs []E) error {
	wrapped := make([]error, len(errs))
	for i, e := range errs {
		wrapped[i] = e
	}
	return errors.Join(wrapped...)
}

// Backend selects which pipeline Runner.Run dispatches to.
type Backend int

const (
	TreeWalk Backend = iota
	Bytecode
)

// Runner owns the interpreter's I/O and, for the tree-walking backend, the
// single long-lived Interpreter a REPL session accumulates state in.
type Runner struct {
	streams *runio.Streams
	backend Backend
	repl    bool
	it      *interp.Interpreter
	vm      *vm.VM

	errColor *color.Color
}

// New creates a Runner. repl enables the auto-`;` REPL line behavior and
// (for the tree-walker) printing of bare expression-statement results.
func New(streams *runio.Streams, backend Backend, repl bool) *Runner {
	r := &Runner{streams: streams, backend: backend, repl: repl}
	r.errColor = color.New(color.FgRed)
	switch backend {
	case TreeWalk:
		r.it = interp.New(streams.Out, nil, repl)
	case Bytecode:
		r.vm = vm.New(streams.Out)
	}
	return r
}

// File buffers path's full contents and interprets it as one program. A
// parse or resolve error aborts without running anything.
func (r *Runner) File(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return r.run(string(src))
}

// Source interprets src directly as one program, as File does for a file's
// contents. Used by tests that want to drive a Runner without touching the
// filesystem.
func (r *Runner) Source(src string) error {
	return r.run(src)
}

// LineReader is the minimal surface Prompt needs from an input source — the
// method set github.com/chzyer/readline's *readline.Instance already
// implements, kept as its own interface so tests can drive Prompt from an
// in-memory fake instead of a real terminal.
type LineReader interface {
	Readline() (string, error)
}

// Prompt drives an interactive REPL, reading one line at a time from lr and
// echoing errors to stderr without aborting the session.
// The prompt string itself (e.g. `[003]> `) is lr's responsibility — most
// LineReader implementations (readline.Instance included) render their own.
func (r *Runner) Prompt(lr LineReader) error {
	for {
		src, err := lr.Readline()
		if err != nil {
			return nil
		}

		// A REPL line missing a trailing `;` gets one appended, so a bare
		// expression like `1 + 1` can be typed without ceremony
		// (original_source/src/run.rs's `prompt`).
		if trimmed := trimTrailingSpace(src); len(trimmed) == 0 || trimmed[len(trimmed)-1] != ';' {
			src = src + ";"
		}

		if err := r.run(src); err != nil {
			r.errColor.Fprintln(r.streams.Err, err.Error())
		}
		r.streams.Flush()
	}
}

func trimTrailingSpace(s string) string {
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\t' || s[i-1] == '\r') {
		i--
	}
	return s[:i]
}

func (r *Runner) run(src string) error {
	lx := lexer.New([]byte(src))
	toks := lx.Scan()
	if len(lx.Errors) > 0 {
		return joinErrors(lx.Errors)
	}

	switch r.backend {
	case Bytecode:
		return r.runBytecode(toks)
	default:
		return r.runTreeWalk(toks)
	}
}

func (r *Runner) runTreeWalk(toks []token.Token) error {
	p := parser.New(toks)
	prog := p.Parse()
	if len(p.Errors) > 0 {
		return joinErrors(p.Errors)
	}

	res := resolver.New()
	res.Resolve(prog)
	if len(res.Errors) > 0 {
		return joinErrors(res.Errors)
	}

	r.it.AddLocals(res.Locals)
	return r.it.Run(prog)
}

func (r *Runner) runBytecode(toks []token.Token) error {
	comp := compiler.New(toks)
	c := comp.Compile()
	if len(comp.Errors) > 0 {
		return joinErrors(comp.Errors)
	}
	return r.vm.Interpret(c)
}
