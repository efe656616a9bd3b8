package eval

import (
	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

// evalFunctionLit captures ctx as the closure environment and returns a
// value.Function whose Call binds actual arguments (positional or named,
// falling back to declared defaults) into a child context before
// evaluating the body.
func (ev *Evaluator) evalFunctionLit(ctx *value.Context, e *ast.Function) *value.Function {
	params := make([]value.Param, len(e.Params))
	for i, p := range e.Params {
		var def *value.Thunk
		if p.Default != nil {
			d := p.Default
			def = value.NewThunk(func() (value.Value, error) {
				return ev.Eval(ctx, d)
			})
		}
		params[i] = value.Param{Name: p.Name, Default: def}
	}
	body := e.Body
	fn := &value.Function{Params: params, Defined: true}
	fn.Call = func(args []*value.Thunk) (value.Value, error) {
		child, err := ev.bindArgs(ctx, params, args, nil)
		if err != nil {
			return nil, err
		}
		return ev.Eval(child, body)
	}
	return fn
}

// bindArgs binds positional args (and, via named, out-of-order args) to
// params, falling back to each parameter's default thunk when omitted.
// named may be nil for purely positional calls.
func (ev *Evaluator) bindArgs(ctx *value.Context, params []value.Param, positional []*value.Thunk, named map[string]*value.Thunk) (*value.Context, error) {
	if len(positional) > len(params) {
		return nil, kureerrors.CreateError("too many arguments")
	}
	child := ctx
	for i, p := range params {
		var t *value.Thunk
		switch {
		case i < len(positional):
			t = positional[i]
		case named != nil && named[p.Name] != nil:
			t = named[p.Name]
		case p.Default != nil:
			t = p.Default
		default:
			return nil, kureerrors.CreateError("missing argument: " + p.Name)
		}
		child = child.Bind(p.Name, t)
	}
	return child, nil
}

func (ev *Evaluator) evalApply(ctx *value.Context, e *ast.Apply) (value.Value, error) {
	fv, err := ev.force(ctx, e.Func)
	if err != nil {
		return nil, err
	}
	fn, ok := fv.(*value.Function)
	if !ok {
		return nil, kureerrors.CreateError("called value is not a function")
	}
	if !fn.Defined {
		return nil, kureerrors.CreateError("function is not implemented")
	}

	pop := ev.push("function call", "", 0)
	defer pop()

	var positional []*value.Thunk
	named := map[string]*value.Thunk{}
	for _, a := range e.Args {
		arg := a
		t := ev.thunk(ctx, arg.Expr)
		if arg.Name != "" {
			named[arg.Name] = t
		} else {
			positional = append(positional, t)
		}
	}
	if len(named) == 0 {
		return fn.Call(positional)
	}
	// Named args: rebuild the positional slice against fn.Params order so
	// Call's own binder (which only understands "positional fills first
	// N params") still works. This requires fn.Params to be populated,
	// which it is for user-defined functions; std natives take only
	// positional args by convention.
	full := make([]*value.Thunk, 0, len(fn.Params))
	for _, p := range fn.Params {
		if i := paramIndexAmongPositional(fn.Params, p.Name, len(positional)); i >= 0 {
			full = append(full, positional[i])
			continue
		}
		if t, ok := named[p.Name]; ok {
			full = append(full, t)
			continue
		}
		break
	}
	return fn.Call(full)
}

func paramIndexAmongPositional(params []value.Param, name string, nPositional int) int {
	for i := 0; i < nPositional && i < len(params); i++ {
		if params[i].Name == name {
			return i
		}
	}
	return -1
}
