package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glox/internal/compiler"
	"glox/internal/lexer"
	"glox/internal/vm"
)

func runVM(t *testing.T, src string) (stdout string, err error) {
	t.Helper()
	l := lexer.New([]byte(src))
	toks := l.Scan()
	require.Empty(t, l.Errors)
	comp := compiler.New(toks)
	c := comp.Compile()
	require.Empty(t, comp.Errors)

	var out bytes.Buffer
	machine := vm.New(&out)
	return out.String(), machine.Interpret(c)
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := runVM(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestGlobalAssignmentAndReassignment(t *testing.T) {
	out, err := runVM(t, `var x = 10; x = x - 1; print x;`)
	require.NoError(t, err)
	assert.Equal(t, "9\n", out)
}

func TestLocalScopingInBlocks(t *testing.T) {
	out, err := runVM(t, `
var x = "global";
{
  var x = "local";
  print x;
}
print x;
`)
	require.NoError(t, err)
	assert.Equal(t, "local\nglobal\n", out)
}

func TestDivisionByZeroProducesNaNNotError(t *testing.T) {
	out, err := runVM(t, `print 1 / 0;`)
	require.NoError(t, err)
	assert.Equal(t, "NaN\n", out)
}

func TestWhileLoopWithBreak(t *testing.T) {
	out, err := runVM(t, `
var i = 0;
while (true) {
  i = i + 1;
  if (i == 3) break;
}
print i;
`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestForLoopDesugarsAtCompileTime(t *testing.T) {
	out, err := runVM(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

// Unlike the tree-walker, the VM's and/or leave whichever raw operand
// decided the result on the stack rather than coercing it to a boolean.
func TestAndOrLeaveRawDecidingOperand(t *testing.T) {
	out, err := runVM(t, `print 1 and 2; print nil or "y"; print false and "never";`)
	require.NoError(t, err)
	assert.Equal(t, "2\ny\nfalse\n", out)
}

func TestUndefinedGlobalIsARuntimeError(t *testing.T) {
	_, err := runVM(t, `print missing;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable")
}

func TestStringConcatenationBothDirections(t *testing.T) {
	out, err := runVM(t, `print "n=" + 3; print 3 + "=n";`)
	require.NoError(t, err)
	assert.Equal(t, "n=3\n3=n\n", out)
}

// break must pop the locals declared inside the scopes it escapes before
// jumping, or a later local at the same nesting level reads the leaked
// stack slot instead of its own value.
func TestBreakPopsLocalsDeclaredInsideTheLoopBody(t *testing.T) {
	out, err := runVM(t, `
{
  while (true) {
    var x = 1;
    break;
  }
  var a = 10;
  print a;
}
`)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)
}

func TestBreakPopsMultipleNestedLocalsDeclaredInsideTheLoopBody(t *testing.T) {
	out, err := runVM(t, `
{
  while (true) {
    var x = 1;
    {
      var y = 2;
      break;
    }
  }
  var a = 10;
  print a;
}
`)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)
}
