// Package value implements the runtime value model of the evaluator: the
// tagged Value union, lazily-evaluated Thunks, the Object composition chain
// and the immutable lexical Context. None of the types here know how to
// evaluate an expression tree -- that's pkg/eval's job -- they only define
// what a finished (or in-flight) computation looks like.
package value

import (
	"fmt"
	"math"
	"sort"
	"strings"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value is the evaluator's runtime value: a tagged union over
// {Null, Bool, Number, String, Array, Object, Function}.
type Value interface {
	Kind() Kind
}

// Null is jsonnet's `null`.
type Null struct{}

func (Null) Kind() Kind { return KindNull }

// Bool is jsonnet's `true`/`false`.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

// Number is an IEEE-754 double. NaN/Inf are rejected by arithmetic
// operators (pkg/eval), not by this type -- a Number may transiently hold
// one while being inspected (e.g. std.isNaN is not part of this spec, but
// internal computations must not silently produce one).
type Number float64

func (Number) Kind() Kind { return KindNumber }

// IsFinite reports whether n is usable as an arithmetic operand.
func (n Number) IsFinite() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String is jsonnet's string type. Values are interned through the Intern
// package-level table so that repeated field names and string literals
// share storage, matching the spec's "strings are interned" invariant.
type String string

func (String) Kind() Kind { return KindString }

var internTable = struct {
	m map[string]String
}{m: make(map[string]String)}

// Intern returns a canonical String for s, reusing a previously interned
// value when available.
func Intern(s string) String {
	if v, ok := internTable.m[s]; ok {
		return v
	}
	v := String(s)
	internTable.m[s] = v
	return v
}

// Array is a lazy array: each element is a Thunk, evaluated at most once.
type Array struct {
	Elements []*Thunk
}

func (*Array) Kind() Kind { return KindArray }

// NewArray wraps already-materialized values into an Array of ready Thunks.
func NewArray(vals ...Value) *Array {
	elems := make([]*Thunk, len(vals))
	for i, v := range vals {
		elems[i] = Ready(v)
	}
	return &Array{Elements: elems}
}

func (a *Array) Len() int { return len(a.Elements) }

// Function is a closure: it remembers the context in which it was defined.
type Function struct {
	Name    string
	Params  []Param
	Call    func(args []*Thunk) (Value, error)
	Defined bool // false for std.native stubs resolved later
}

func (*Function) Kind() Kind { return KindFunction }

// Param describes one formal parameter of a function, including an
// optional default-value thunk for named/optional arguments.
type Param struct {
	Name    string
	Default *Thunk // nil if required
}

// Equals implements deep structural equality for primitives and, for
// arrays/objects, recursively over visible fields only, per spec §3/§4.B.
func Equals(a, b Value) (bool, error) {
	if a.Kind() != b.Kind() {
		return false, nil
	}
	switch av := a.(type) {
	case Null:
		return true, nil
	case Bool:
		return av == b.(Bool), nil
	case Number:
		return av == b.(Number), nil
	case String:
		return av == b.(String), nil
	case *Array:
		bv := b.(*Array)
		if len(av.Elements) != len(bv.Elements) {
			return false, nil
		}
		for i := range av.Elements {
			va, err := av.Elements[i].Force()
			if err != nil {
				return false, err
			}
			vb, err := bv.Elements[i].Force()
			if err != nil {
				return false, err
			}
			eq, err := Equals(va, vb)
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case *Object:
		bv := b.(*Object)
		af := VisibleFields(av)
		bf := VisibleFields(bv)
		if len(af) != len(bf) {
			return false, nil
		}
		for _, name := range af {
			found := false
			for _, bn := range bf {
				if bn == name {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
			va, err := GetField(av, name)
			if err != nil {
				return false, err
			}
			vb, err := GetField(bv, name)
			if err != nil {
				return false, err
			}
			eq, err := Equals(va, vb)
			if err != nil || !eq {
				return eq, err
			}
		}
		return true, nil
	case *Function:
		return false, kureerrors.New(kureerrors.ErrCantIndexInto, "functions are not comparable")
	}
	return false, nil
}

// Compare implements the ordering defined on same-typed numbers and
// strings (spec §4.B "Equality and ordering"); mismatched types error.
func Compare(a, b Value) (int, error) {
	if a.Kind() != b.Kind() {
		return 0, kureerrors.New(kureerrors.ErrCantIndexInto, fmt.Sprintf("cannot compare %s and %s", a.Kind(), b.Kind()))
	}
	switch av := a.(type) {
	case Number:
		bv := b.(Number)
		switch {
		case av < bv:
			return -1, nil
		case av > bv:
			return 1, nil
		default:
			return 0, nil
		}
	case String:
		return strings.Compare(string(av), string(b.(String))), nil
	default:
		return 0, kureerrors.New(kureerrors.ErrCantIndexInto, fmt.Sprintf("type %s is not ordered", a.Kind()))
	}
}

// TypeName is the string returned by std.type().
func TypeName(v Value) string { return v.Kind().String() }

// SortedStrings is a small helper used by AllFields when sorted order is
// requested, i.e. std.objectFieldsEx with preserve_order=false (spec §5
// "Ordering guarantees").
func SortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}
