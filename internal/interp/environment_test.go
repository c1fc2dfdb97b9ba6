package interp

import "testing"

func TestDefineAndGet(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("x", Number(1))
	v, ok := env.Get("x")
	if !ok || v != Number(1) {
		t.Fatalf("Get(x) = %v, %v, want 1, true", v, ok)
	}
}

func TestGetWalksParentChain(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.Define("x", Number(1))
	inner := NewEnvironment(outer)
	v, ok := inner.Get("x")
	if !ok || v != Number(1) {
		t.Fatalf("Get(x) via parent = %v, %v, want 1, true", v, ok)
	}
}

func TestAssignRequiresExistingBinding(t *testing.T) {
	env := NewEnvironment(nil)
	if env.Assign("missing", Number(1)) {
		t.Fatal("Assign to an undeclared name should fail")
	}
}

func TestAssignFindsBindingInParent(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.Define("x", Number(1))
	inner := NewEnvironment(outer)
	if !inner.Assign("x", Number(2)) {
		t.Fatal("Assign should find x in the parent scope")
	}
	v, _ := outer.Get("x")
	if v != Number(2) {
		t.Fatalf("outer x = %v, want 2", v)
	}
}

func TestGetAtAndAssignAtUseExactDistance(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", Number(1))
	mid := NewEnvironment(global)
	mid.Define("x", Number(2))
	inner := NewEnvironment(mid)

	if got := inner.GetAt(1, "x"); got != Number(2) {
		t.Fatalf("GetAt(1, x) = %v, want 2 (mid's binding)", got)
	}
	if got := inner.GetAt(2, "x"); got != Number(1) {
		t.Fatalf("GetAt(2, x) = %v, want 1 (global's binding)", got)
	}

	inner.AssignAt(2, "x", Number(99))
	if got, _ := global.Get("x"); got != Number(99) {
		t.Fatalf("after AssignAt(2), global x = %v, want 99", got)
	}
}

func TestDefineAtGlobalScopePermitsRedefinition(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", Number(1))
	global.Define("x", Number(2))
	v, _ := global.Get("x")
	if v != Number(2) {
		t.Fatalf("redefinition should overwrite, got %v", v)
	}
}
