package eval

import (
	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

// NativeRegistry resolves a `std.native("name")` or `$intrinsic(name)`
// reference to a callable Function; pkg/stdlib installs the real table
// via SetNatives before any evaluation happens, avoiding an import cycle
// between pkg/eval and pkg/stdlib (stdlib itself is written in terms of
// the evaluator).
type NativeRegistry interface {
	Lookup(name string) (*value.Function, bool)
}

// SetNatives wires a native function table into the evaluator. Must be
// called before evaluation of any expression that references
// `std.native(...)`.
func (ev *Evaluator) SetNatives(r NativeRegistry) { ev.natives = r }

func (ev *Evaluator) evalIntrinsic(ctx *value.Context, e *ast.Intrinsic) (value.Value, error) {
	switch e.Kind {
	case ast.IntrinsicThisFile:
		return value.Intern(ctx.File), nil
	case ast.IntrinsicID:
		return &value.Function{
			Name:    "id",
			Defined: true,
			Params:  []value.Param{{Name: "x"}},
			Call: func(args []*value.Thunk) (value.Value, error) {
				return args[0].Force()
			},
		}, nil
	case ast.IntrinsicNative:
		if ev.natives == nil {
			return nil, kureerrors.CreateError("no native function registry installed")
		}
		fn, ok := ev.natives.Lookup(e.Name)
		if !ok {
			return value.Null{}, nil
		}
		return fn, nil
	}
	return nil, kureerrors.CreateError("unknown intrinsic")
}
