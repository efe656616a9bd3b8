package eval

import (
	"github.com/go-rtk/rtk/pkg/ast"
	"github.com/go-rtk/rtk/pkg/value"
)

func (ev *Evaluator) evalArrayLit(ctx *value.Context, e *ast.ArrayLit) (value.Value, error) {
	elems := make([]*value.Thunk, len(e.Elements))
	for i, el := range e.Elements {
		elems[i] = ev.thunk(ctx, el)
	}
	return &value.Array{Elements: elems}, nil
}

// evalArrayComp implements `[body for x in arr if cond for y in arr2 ...]`
// by recursively expanding each CompSpec: a `for` fans out over its
// source array, an `if` filters the current binding set.
func (ev *Evaluator) evalArrayComp(ctx *value.Context, e *ast.ArrayComp) (value.Value, error) {
	var elems []*value.Thunk
	err := ev.expandComp(ctx, e.Specs, func(c *value.Context) error {
		elems = append(elems, ev.thunk(c, e.Body))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &value.Array{Elements: elems}, nil
}

// expandComp walks specs left to right, invoking emit once per surviving
// binding combination with the fully extended context.
func (ev *Evaluator) expandComp(ctx *value.Context, specs []ast.CompSpec, emit func(*value.Context) error) error {
	if len(specs) == 0 {
		return emit(ctx)
	}
	spec := specs[0]
	rest := specs[1:]
	if !spec.IsFor {
		v, err := ev.force(ctx, spec.Expr)
		if err != nil {
			return err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return typeErr("comprehension if", v)
		}
		if !bool(b) {
			return nil
		}
		return ev.expandComp(ctx, rest, emit)
	}
	v, err := ev.force(ctx, spec.Expr)
	if err != nil {
		return err
	}
	arr, ok := v.(*value.Array)
	if !ok {
		return typeErr("comprehension for (expected array)", v)
	}
	for _, el := range arr.Elements {
		el := el
		child := ctx.Bind(spec.Var, el)
		if err := ev.expandComp(child, rest, emit); err != nil {
			return err
		}
	}
	return nil
}
