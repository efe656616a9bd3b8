package ast

import "testing"

func TestNodeSpanReturnsTheSpanEmbeddedAtConstruction(t *testing.T) {
	sp := NewSpan("main.jsonnet", 3, 9, 2)
	n := NullLit{base: WithSpan(sp)}

	got := NodeSpan(n)
	if got != sp {
		t.Fatalf("NodeSpan returned %+v, want %+v", got, sp)
	}
}

func TestNewSpanFieldsRoundTrip(t *testing.T) {
	sp := NewSpan("a.libsonnet", 10, 20, 4)
	if sp.File != "a.libsonnet" || sp.Start != 10 || sp.End != 20 || sp.Line != 4 {
		t.Fatalf("unexpected span: %+v", sp)
	}
}

func TestEveryLiteralNodeImplementsNode(t *testing.T) {
	sp := NewSpan("f", 0, 1, 1)
	nodes := []Node{
		NullLit{base: WithSpan(sp)},
		BoolLit{base: WithSpan(sp), Value: true},
		NumberLit{base: WithSpan(sp), Value: 1},
		StringLit{base: WithSpan(sp), Value: "x"},
		SelfExpr{base: WithSpan(sp)},
		DollarExpr{base: WithSpan(sp)},
		SuperExpr{base: WithSpan(sp)},
		Var{base: WithSpan(sp), Name: "x"},
	}
	for i, n := range nodes {
		if NodeSpan(n) != sp {
			t.Errorf("node %d: span mismatch", i)
		}
	}
}

func TestObjectFieldComputedFlagsAreIndependent(t *testing.T) {
	f := ObjectField{Name: "x", Hidden: true}
	if f.Computed || f.ForceVisible || f.Plus {
		t.Fatalf("unexpected defaults on %+v", f)
	}
}
