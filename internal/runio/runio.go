// Package runio provides the Runner's swappable input/output streams.
//
// The original Rust source modeled this as a hand-rolled Writer/Reader enum
// switching between os.Stdout/os.Stderr/an in-memory cursor, because Rust
// has no object-safe way to share one trait object across a stdout handle
// and a Vec<u8> buffer without extra ceremony. Go's io.Writer and io.Reader
// already are that abstraction, so this package is a thin set of
// constructors rather than a reimplementation of the enum.
package runio

import (
	"bufio"
	"io"
	"os"
)

// Streams bundles a Runner's three standard handles, with buffered stdout
// and stderr.
type Streams struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	flushers []*bufio.Writer
}

// Std returns Streams wired to the process's real stdio, each output
// buffered.
func Std() *Streams {
	out := bufio.NewWriter(os.Stdout)
	errw := bufio.NewWriter(os.Stderr)
	return &Streams{Out: out, Err: errw, In: os.Stdin, flushers: []*bufio.Writer{out, errw}}
}

// Buffer returns Streams wired to in-memory buffers, used by the golden-file
// harness and other tests to capture a run without touching the terminal.
func Buffer(out, errw io.Writer, in io.Reader) *Streams {
	return &Streams{Out: out, Err: errw, In: in}
}

// Flush flushes any buffered writers. A no-op for Buffer-backed Streams.
func (s *Streams) Flush() error {
	for _, w := range s.flushers {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
