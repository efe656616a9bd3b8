package eval

import (
	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

// evalLocal implements `local b1 = e1, b2 = e2, ...; body`. Every binding
// is visible to every other binding's expression (mutual recursion), so
// the child context is built first and each thunk's compute closes over
// that same child context.
func (ev *Evaluator) evalLocal(ctx *value.Context, e *ast.Local) (value.Value, error) {
	child, err := ev.bindLocals(ctx, e.Binds)
	if err != nil {
		return nil, err
	}
	return ev.Eval(child, e.Body)
}

func (ev *Evaluator) bindLocals(ctx *value.Context, binds []ast.LocalBind) (*value.Context, error) {
	// A placeholder child context is extended one binding at a time; since
	// Context.Bind returns a new value referencing the same parent chain,
	// we pre-collect names first so every thunk can look up siblings that
	// haven't been added to `child` yet by closing over a pointer to it.
	childPtr := new(*value.Context)
	*childPtr = ctx

	for _, b := range binds {
		if b.Destructure != nil {
			if err := ev.bindDestructure(childPtr, b); err != nil {
				return nil, err
			}
			continue
		}
		bind := b
		if len(bind.Params) > 0 {
			*childPtr = (*childPtr).Bind(bind.Name, value.NewThunk(func() (value.Value, error) {
				return ev.evalFunctionLit(*childPtr, &ast.Function{Params: bind.Params, Body: bind.Body}), nil
			}))
			continue
		}
		*childPtr = (*childPtr).Bind(bind.Name, value.NewThunk(func() (value.Value, error) {
			return ev.Eval(*childPtr, bind.Body)
		}))
	}
	return *childPtr, nil
}

func (ev *Evaluator) bindDestructure(childPtr **value.Context, b ast.LocalBind) error {
	pat := b.Destructure
	body := b.Body
	srcThunk := value.NewThunk(func() (value.Value, error) {
		return ev.Eval(*childPtr, body)
	})
	if pat.IsObject {
		for _, name := range pat.Names {
			n := name
			*childPtr = (*childPtr).Bind(n, value.NewThunk(func() (value.Value, error) {
				v, err := srcThunk.Force()
				if err != nil {
					return nil, err
				}
				obj, ok := v.(*value.Object)
				if !ok {
					return nil, kureerrors.CreateError("destructuring target is not an object")
				}
				return value.GetField(obj, n)
			}))
		}
		return nil
	}
	for i, name := range pat.Names {
		n, idx := name, i
		*childPtr = (*childPtr).Bind(n, value.NewThunk(func() (value.Value, error) {
			v, err := srcThunk.Force()
			if err != nil {
				return nil, err
			}
			arr, ok := v.(*value.Array)
			if !ok {
				return nil, kureerrors.CreateError("destructuring target is not an array")
			}
			if idx >= len(arr.Elements) {
				return nil, kureerrors.ErrArrayBounds
			}
			return arr.Elements[idx].Force()
		}))
	}
	if pat.Rest != "" {
		rest, skip := pat.Rest, len(pat.Names)
		*childPtr = (*childPtr).Bind(rest, value.NewThunk(func() (value.Value, error) {
			v, err := srcThunk.Force()
			if err != nil {
				return nil, err
			}
			arr, ok := v.(*value.Array)
			if !ok {
				return nil, kureerrors.CreateError("destructuring target is not an array")
			}
			if skip > len(arr.Elements) {
				return value.NewArray(), nil
			}
			return &value.Array{Elements: arr.Elements[skip:]}, nil
		}))
	}
	return nil
}
