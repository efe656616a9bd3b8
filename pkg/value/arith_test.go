package value

import "testing"

func TestAddNumbers(t *testing.T) {
	v, err := Add(Number(2), Number(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(Number) != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestAddStringsConcatenates(t *testing.T) {
	v, err := Add(String("foo"), String("bar"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(String) != "foobar" {
		t.Fatalf("expected foobar, got %v", v)
	}
}

func TestAddArraysConcatenatesElements(t *testing.T) {
	a := NewArray(Number(1), Number(2))
	b := NewArray(Number(3))
	v, err := Add(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	arr := v.(*Array)
	if arr.Len() != 3 {
		t.Fatalf("expected 3 elements, got %d", arr.Len())
	}
}

func TestAddObjectsConcatenatesLayers(t *testing.T) {
	a := NewObject(map[string]*Field{"x": {Binder: readyBinderForTest(Number(1))}}, []string{"x"}, nil)
	b := NewObject(map[string]*Field{"y": {Binder: readyBinderForTest(Number(2))}}, []string{"y"}, nil)
	v, err := Add(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj := v.(*Object)
	if obj.Super != a {
		t.Fatalf("expected Super to be a, got %v", obj.Super)
	}
	if !HasField(obj, "x") || !HasField(obj, "y") {
		t.Fatalf("expected both x and y reachable, fields=%v", AllFields(obj, true, false))
	}
}

func TestAddTypeMismatchErrors(t *testing.T) {
	if _, err := Add(Number(1), String("x")); err == nil {
		t.Fatal("expected a type-mismatch error adding number + string")
	}
	if _, err := Add(String("x"), Number(1)); err == nil {
		t.Fatal("expected a type-mismatch error adding string + number")
	}
	if _, err := Add(Bool(true), Bool(false)); err == nil {
		t.Fatal("expected booleans to be unsupported by +")
	}
}
