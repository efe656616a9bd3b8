package value

import (
	"fmt"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
)

// Add implements the overloaded `+` operator: arithmetic addition on
// numbers, concatenation on strings and arrays, and layer composition on
// objects (spec §3/§4.B). It is also what GetField uses to combine a
// plus-flagged field's child value with its parent's value.
func Add(a, b Value) (Value, error) {
	switch av := a.(type) {
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return nil, typeMismatch("+", a, b)
		}
		return av + bv, nil
	case String:
		// string + anything stringifies the right side; anything + string
		// stringifies the left side. Full stringification lives in pkg/eval
		// (it needs manifestation), so here we only handle string+string.
		if bv, ok := b.(String); ok {
			return av + bv, nil
		}
		return nil, typeMismatch("+", a, b)
	case *Array:
		bv, ok := b.(*Array)
		if !ok {
			return nil, typeMismatch("+", a, b)
		}
		elems := make([]*Thunk, 0, len(av.Elements)+len(bv.Elements))
		elems = append(elems, av.Elements...)
		elems = append(elems, bv.Elements...)
		return &Array{Elements: elems}, nil
	case *Object:
		bv, ok := b.(*Object)
		if !ok {
			return nil, typeMismatch("+", a, b)
		}
		return Concat(av, bv), nil
	default:
		return nil, typeMismatch("+", a, b)
	}
}

func typeMismatch(op string, a, b Value) error {
	return kureerrors.New(kureerrors.ErrCantIndexInto,
		fmt.Sprintf("operator %s not defined for %s and %s", op, a.Kind(), b.Kind()))
}
