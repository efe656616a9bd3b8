package eval

import (
	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

func (ev *Evaluator) evalIndex(ctx *value.Context, e *ast.Index) (value.Value, error) {
	// `super.field` / `super[e]` index super directly rather than
	// evaluating a Target expression, since `super` is not a first-class
	// value (spec §4.B).
	if isSuper(e.Target) {
		return ev.indexSuper(ctx, e)
	}

	tv, err := ev.force(ctx, e.Target)
	if err != nil {
		return nil, err
	}
	if e.IsSlice {
		return ev.evalSlice(ctx, tv, e)
	}
	if e.Field != "" {
		obj, ok := tv.(*value.Object)
		if !ok {
			return nil, kureerrors.New(kureerrors.ErrCantIndexInto, "field access on non-object ("+value.TypeName(tv)+")")
		}
		return value.GetField(obj, e.Field)
	}

	iv, err := ev.force(ctx, e.Index)
	if err != nil {
		return nil, err
	}
	switch t := tv.(type) {
	case *value.Object:
		key, ok := iv.(value.String)
		if !ok {
			return nil, kureerrors.New(kureerrors.ErrCantIndexInto, "object index must be a string")
		}
		return value.GetField(t, string(key))
	case *value.Array:
		n, ok := iv.(value.Number)
		if !ok {
			return nil, kureerrors.New(kureerrors.ErrCantIndexInto, "array index must be a number")
		}
		return indexArray(t, n)
	case value.String:
		n, ok := iv.(value.Number)
		if !ok {
			return nil, kureerrors.New(kureerrors.ErrCantIndexInto, "string index must be a number")
		}
		return indexString(t, n)
	default:
		return nil, kureerrors.New(kureerrors.ErrCantIndexInto, value.TypeName(tv)+" does not support indexing")
	}
}

func isSuper(n ast.Node) bool {
	_, ok := n.(*ast.SuperExpr)
	return ok
}

func indexArray(a *value.Array, n value.Number) (value.Value, error) {
	f := float64(n)
	if f != float64(int64(f)) {
		return nil, kureerrors.ErrFractionalIndex
	}
	i := int(f)
	if i < 0 || i >= len(a.Elements) {
		return nil, kureerrors.ErrArrayBounds
	}
	return a.Elements[i].Force()
}

func indexString(s value.String, n value.Number) (value.Value, error) {
	f := float64(n)
	if f != float64(int64(f)) {
		return nil, kureerrors.ErrFractionalIndex
	}
	runes := []rune(string(s))
	i := int(f)
	if i < 0 || i >= len(runes) {
		return nil, kureerrors.ErrArrayBounds
	}
	return value.Intern(string(runes[i])), nil
}

func (ev *Evaluator) evalSlice(ctx *value.Context, tv value.Value, e *ast.Index) (value.Value, error) {
	length := -1
	switch t := tv.(type) {
	case *value.Array:
		length = len(t.Elements)
	case value.String:
		length = len([]rune(string(t)))
	default:
		return nil, kureerrors.New(kureerrors.ErrCantIndexInto, "slice target must be array or string")
	}

	from, to, step, err := ev.resolveSliceBounds(ctx, e, length)
	if err != nil {
		return nil, err
	}

	switch t := tv.(type) {
	case *value.Array:
		var out []*value.Thunk
		for i := from; (step > 0 && i < to) || (step < 0 && i > to); i += step {
			out = append(out, t.Elements[i])
		}
		return &value.Array{Elements: out}, nil
	case value.String:
		runes := []rune(string(t))
		var out []rune
		for i := from; (step > 0 && i < to) || (step < 0 && i > to); i += step {
			out = append(out, runes[i])
		}
		return value.Intern(string(out)), nil
	}
	return nil, kureerrors.CreateError("unreachable slice target")
}

func (ev *Evaluator) resolveSliceBounds(ctx *value.Context, e *ast.Index, length int) (from, to, step int, err error) {
	step = 1
	if e.Step != nil {
		v, err := ev.force(ctx, e.Step)
		if err != nil {
			return 0, 0, 0, err
		}
		n, ok := v.(value.Number)
		if !ok {
			return 0, 0, 0, kureerrors.CreateError("slice step must be a number")
		}
		step = int(n)
		if step == 0 {
			return 0, 0, 0, kureerrors.CreateError("slice step must not be zero")
		}
	}
	from = 0
	if step < 0 {
		from = length - 1
	}
	if e.From != nil {
		v, err := ev.force(ctx, e.From)
		if err != nil {
			return 0, 0, 0, err
		}
		n, ok := v.(value.Number)
		if !ok {
			return 0, 0, 0, kureerrors.CreateError("slice bound must be a number")
		}
		from = int(n)
	}
	to = length
	if step < 0 {
		to = -1
	}
	if e.To != nil {
		v, err := ev.force(ctx, e.To)
		if err != nil {
			return 0, 0, 0, err
		}
		n, ok := v.(value.Number)
		if !ok {
			return 0, 0, 0, kureerrors.CreateError("slice bound must be a number")
		}
		to = int(n)
	}
	if from < 0 {
		from = 0
	}
	if from > length {
		from = length
	}
	if to > length {
		to = length
	}
	return from, to, step, nil
}

func (ev *Evaluator) indexSuper(ctx *value.Context, e *ast.Index) (value.Value, error) {
	if ctx.Super == nil {
		return nil, kureerrors.CreateError("no 'super' object in scope")
	}
	if e.Field != "" {
		return value.GetField(ctx.Super, e.Field)
	}
	iv, err := ev.force(ctx, e.Index)
	if err != nil {
		return nil, err
	}
	key, ok := iv.(value.String)
	if !ok {
		return nil, kureerrors.CreateError("super index must be a string")
	}
	return value.GetField(ctx.Super, string(key))
}
