// Package golden is an in-process table-test runner adapted from a
// reference-interpreter comparison harness that originally shelled out to
// two external binaries: each Case supplies source text and the exact
// stdout/stderr a correct run produces, Run drives it through a lox.Runner
// against in-memory buffers, and any mismatch is reported with a colored
// pass/fail/diff. There is no reference interpreter binary in this
// environment to exec, so the comparison side collapses to "actual vs. the
// case's recorded expectation" rather than "actual vs. a second process".
package golden

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"glox/internal/lox"
	"glox/internal/runio"
)

// Case is one golden-file test: Source is a full Lox program, WantStdout
// and WantStderr are its expected output streams when run from a blank
// Runner.
type Case struct {
	Name       string
	Source     string
	WantStdout string
	WantStderr string
}

const width = 100

var divider = strings.Repeat("-", width)

// Run executes every case under each of backends (the tree-walker alone when
// none are given) and fails t with a colored side-by-side diff for any
// mismatch.
func Run(t *testing.T, cases []Case, backends ...lox.Backend) {
	t.Helper()
	if len(backends) == 0 {
		backends = []lox.Backend{lox.TreeWalk}
	}
	for _, c := range cases {
		for _, backend := range backends {
			name := c.Name
			if backend == lox.Bytecode {
				name += "/bytecode"
			}
			t.Run(name, func(t *testing.T) {
				gotOut, gotErr := execute(c.Source, backend)
				if gotOut != c.WantStdout || gotErr != c.WantStderr {
					t.Errorf("\n%s", diffReport(c.Name, c.WantStdout, gotOut, c.WantStderr, gotErr))
				}
			})
		}
	}
}

func execute(src string, backend lox.Backend) (stdout, stderr string) {
	var out, errBuf bytes.Buffer
	streams := runio.Buffer(&out, &errBuf, nil)
	r := lox.New(streams, backend, false)

	if err := r.Source(src); err != nil {
		fmt.Fprintln(&errBuf, err)
	}
	streams.Flush()
	return out.String(), errBuf.String()
}

func diffReport(name, wantOut, gotOut, wantErr, gotErr string) string {
	var b strings.Builder
	fmt.Fprintln(&b, divider)
	fmt.Fprintf(&b, "  [%s] %s\n", color.RedString("failed"), name)
	if wantOut != gotOut {
		fmt.Fprintln(&b, "stdout (want | got):")
		printSideBySide(&b, wantOut, gotOut)
	}
	if wantErr != gotErr {
		fmt.Fprintln(&b, "stderr (want | got):")
		printSideBySide(&b, wantErr, gotErr)
	}
	fmt.Fprintln(&b, divider)
	return b.String()
}

func printSideBySide(b *strings.Builder, want, got string) {
	wantLines := strings.Split(want, "\n")
	gotLines := strings.Split(got, "\n")
	n := len(wantLines)
	if len(gotLines) > n {
		n = len(gotLines)
	}
	for i := 0; i < n; i++ {
		var w, g string
		if i < len(wantLines) {
			w = wantLines[i]
		}
		if i < len(gotLines) {
			g = gotLines[i]
		}
		spacing := width/2 - len(w)
		if spacing < 1 {
			spacing = 1
		}
		fmt.Fprintf(b, "%s%s%s\n", w, strings.Repeat(" ", spacing), g)
	}
}
