package value

import (
	"math"
	"testing"
)

func TestKindStringNames(t *testing.T) {
	cases := map[Kind]string{
		KindNull: "null", KindBool: "boolean", KindNumber: "number",
		KindString: "string", KindArray: "array", KindObject: "object",
		KindFunction: "function",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestNumberIsFinite(t *testing.T) {
	if !Number(1.5).IsFinite() {
		t.Error("expected 1.5 to be finite")
	}
	if Number(math.NaN()).IsFinite() {
		t.Error("expected NaN to be non-finite")
	}
	if Number(math.Inf(1)).IsFinite() {
		t.Error("expected +Inf to be non-finite")
	}
}

func TestInternReusesCanonicalString(t *testing.T) {
	a := Intern("shared-key")
	b := Intern("shared-key")
	if a != b {
		t.Fatalf("expected interned strings to be equal, got %q vs %q", a, b)
	}
}

func TestNewArrayWrapsReadyThunks(t *testing.T) {
	arr := NewArray(Number(1), Number(2), Number(3))
	if arr.Len() != 3 {
		t.Fatalf("expected length 3, got %d", arr.Len())
	}
	v, err := arr.Elements[1].Force()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(Number) != 2 {
		t.Fatalf("expected element 1 == 2, got %v", v)
	}
}

func TestEqualsPrimitives(t *testing.T) {
	eq, err := Equals(Number(1), Number(1))
	if err != nil || !eq {
		t.Fatalf("expected 1 == 1, got %v, %v", eq, err)
	}
	eq, err = Equals(Number(1), Number(2))
	if err != nil || eq {
		t.Fatalf("expected 1 != 2, got %v, %v", eq, err)
	}
	eq, err = Equals(String("a"), Bool(true))
	if err != nil || eq {
		t.Fatalf("expected mismatched kinds to compare unequal, got %v, %v", eq, err)
	}
}

func TestEqualsArraysElementwise(t *testing.T) {
	a := NewArray(Number(1), String("x"))
	b := NewArray(Number(1), String("x"))
	eq, err := Equals(a, b)
	if err != nil || !eq {
		t.Fatalf("expected equal arrays, got %v, %v", eq, err)
	}
	c := NewArray(Number(1), String("y"))
	eq, err = Equals(a, c)
	if err != nil || eq {
		t.Fatalf("expected unequal arrays, got %v, %v", eq, err)
	}
}

func TestEqualsObjectsByVisibleFields(t *testing.T) {
	a := NewObject(map[string]*Field{
		"x": {Binder: readyBinderForTest(Number(1))},
		"h": {Visibility: VisibilityHidden, Binder: readyBinderForTest(Number(99))},
	}, []string{"x", "h"}, nil)
	b := NewObject(map[string]*Field{
		"x": {Binder: readyBinderForTest(Number(1))},
	}, []string{"x"}, nil)
	eq, err := Equals(a, b)
	if err != nil || !eq {
		t.Fatalf("expected objects equal ignoring hidden field, got %v, %v", eq, err)
	}
}

func TestCompareNumbersAndStrings(t *testing.T) {
	if c, _ := Compare(Number(1), Number(2)); c != -1 {
		t.Errorf("expected -1, got %d", c)
	}
	if c, _ := Compare(Number(2), Number(1)); c != 1 {
		t.Errorf("expected 1, got %d", c)
	}
	if c, _ := Compare(String("a"), String("b")); c >= 0 {
		t.Errorf("expected a < b, got %d", c)
	}
}

func TestCompareMismatchedKindsErrors(t *testing.T) {
	if _, err := Compare(Number(1), String("a")); err == nil {
		t.Fatal("expected error comparing mismatched kinds")
	}
}

func TestCompareUnorderedKindErrors(t *testing.T) {
	if _, err := Compare(Bool(true), Bool(false)); err == nil {
		t.Fatal("expected error: booleans are not ordered")
	}
}

func TestTypeName(t *testing.T) {
	if TypeName(Null{}) != "null" {
		t.Errorf("expected null")
	}
	if TypeName(&Array{}) != "array" {
		t.Errorf("expected array")
	}
}

func TestSortedStringsDoesNotMutateInput(t *testing.T) {
	in := []string{"b", "a", "c"}
	out := SortedStrings(in)
	if in[0] != "b" {
		t.Fatalf("input slice was mutated: %v", in)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("SortedStrings(%v) = %v, want %v", in, out, want)
		}
	}
}

func readyBinderForTest(v Value) Binder {
	return func(super, self *Object) (Value, error) { return v, nil }
}
