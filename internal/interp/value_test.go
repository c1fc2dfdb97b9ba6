package interp

import "testing"

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{NilValue, false},
		{Bool(false), false},
		{Bool(true), true},
		{Number(0), true},
		{String(""), true},
		{Number(1), true},
	}
	for _, c := range cases {
		if got := IsTruthy(c.v); got != c.want {
			t.Errorf("IsTruthy(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqualCrossTypeNeverMatches(t *testing.T) {
	if Equal(Number(0), String("0")) {
		t.Error("Number(0) should not equal String(\"0\")")
	}
	if Equal(NilValue, Bool(false)) {
		t.Error("nil should not equal false")
	}
}

func TestEqualSameTypeStructural(t *testing.T) {
	if !Equal(String("a"), String("a")) {
		t.Error("equal strings should compare equal")
	}
	if Equal(Number(1), Number(2)) {
		t.Error("unequal numbers should not compare equal")
	}
}

func TestNumberStringTrimsTrailingZeros(t *testing.T) {
	if got := Number(3).String(); got != "3" {
		t.Errorf("Number(3).String() = %q, want 3", got)
	}
	if got := Number(3.5).String(); got != "3.5" {
		t.Errorf("Number(3.5).String() = %q, want 3.5", got)
	}
}

func TestTypeName(t *testing.T) {
	if TypeName(Number(1)) != "number" {
		t.Error("TypeName(Number) should be number")
	}
	if TypeName(NilValue) != "nil" {
		t.Error("TypeName(Nil) should be nil")
	}
}
