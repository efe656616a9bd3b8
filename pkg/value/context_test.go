package value

import "testing"

func TestContextBindAndLookup(t *testing.T) {
	root := Root()
	c := root.Bind("x", Ready(Number(1)))
	th, ok := c.Lookup("x")
	if !ok {
		t.Fatal("expected x to be bound")
	}
	v, err := th.Force()
	if err != nil || v.(Number) != 1 {
		t.Fatalf("unexpected lookup result: %v, %v", v, err)
	}
	if _, ok := root.Lookup("x"); ok {
		t.Fatal("expected parent context to be unaffected by Bind")
	}
}

func TestContextLookupShadowing(t *testing.T) {
	c := Root().Bind("x", Ready(Number(1))).Bind("x", Ready(Number(2)))
	th, ok := c.Lookup("x")
	if !ok {
		t.Fatal("expected x to resolve")
	}
	v, _ := th.Force()
	if v.(Number) != 2 {
		t.Fatalf("expected innermost binding to win, got %v", v)
	}
}

func TestContextLookupMissing(t *testing.T) {
	c := Root().Bind("x", Ready(Number(1)))
	if _, ok := c.Lookup("y"); ok {
		t.Fatal("expected y to be unbound")
	}
}

func TestContextWithFilePreservesBindings(t *testing.T) {
	c := Root().Bind("x", Ready(Number(1)))
	c2 := c.WithFile("a.jsonnet")
	if c2.File != "a.jsonnet" {
		t.Fatalf("expected File set, got %q", c2.File)
	}
	if _, ok := c2.Lookup("x"); !ok {
		t.Fatal("expected WithFile to preserve existing bindings")
	}
}

func TestContextWithObjectInheritsDollarWhenNil(t *testing.T) {
	outer := &Object{}
	c := Root().WithObject(nil, outer, outer)
	inner := &Object{}
	c2 := c.WithObject(outer, inner, nil)
	if c2.Dollar != outer {
		t.Fatalf("expected Dollar to be inherited from parent context, got %v", c2.Dollar)
	}
	if c2.This != inner {
		t.Fatalf("expected This to be the new inner object")
	}
}

func TestContextWithObjectSetsExplicitDollar(t *testing.T) {
	outer := &Object{}
	inner := &Object{}
	c := Root().WithObject(outer, inner, inner)
	if c.Dollar != inner {
		t.Fatalf("expected explicit Dollar to win, got %v", c.Dollar)
	}
}
