package interp

import "testing"

func TestRuntimeErrorFormatsLineAndMessage(t *testing.T) {
	err := runtimeErr(7, "Undefined variable '%s'", "x")
	want := "Runtime Error [line 7] Undefined variable 'x'"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}
