package runio_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"glox/internal/runio"
)

func TestBufferStreamsCaptureWrites(t *testing.T) {
	var out, errw bytes.Buffer
	in := bytes.NewBufferString("hello\n")
	s := runio.Buffer(&out, &errw, in)

	s.Out.Write([]byte("stdout"))
	s.Err.Write([]byte("stderr"))

	assert.Equal(t, "stdout", out.String())
	assert.Equal(t, "stderr", errw.String())
	assert.NoError(t, s.Flush())
}

func TestStdFlushIsSafeWithNoWrites(t *testing.T) {
	s := runio.Std()
	assert.NoError(t, s.Flush())
}
