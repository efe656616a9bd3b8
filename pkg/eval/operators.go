package eval

import (
	"fmt"
	"math"

	"github.com/go-rtk/rtk/pkg/ast"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

func (ev *Evaluator) evalUnary(ctx *value.Context, e *ast.UnaryOp) (value.Value, error) {
	v, err := ev.force(ctx, e.Expr)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "-":
		n, ok := v.(value.Number)
		if !ok {
			return nil, typeErr("unary -", v)
		}
		return -n, nil
	case "+":
		n, ok := v.(value.Number)
		if !ok {
			return nil, typeErr("unary +", v)
		}
		return n, nil
	case "!":
		b, ok := v.(value.Bool)
		if !ok {
			return nil, typeErr("!", v)
		}
		return !b, nil
	case "~":
		n, ok := v.(value.Number)
		if !ok {
			return nil, typeErr("~", v)
		}
		return value.Number(float64(^int64(n))), nil
	}
	return nil, kureerrors.CreateError("unknown unary operator " + e.Op)
}

func typeErr(op string, v value.Value) error {
	return kureerrors.CreateError(fmt.Sprintf("operator %s not defined for %s", op, value.TypeName(v)))
}

func (ev *Evaluator) evalBinary(ctx *value.Context, e *ast.BinaryOp) (value.Value, error) {
	switch e.Op {
	case "&&":
		l, err := ev.force(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		lb, ok := l.(value.Bool)
		if !ok {
			return nil, typeErr("&&", l)
		}
		if !bool(lb) {
			return value.Bool(false), nil
		}
		r, err := ev.force(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(value.Bool)
		if !ok {
			return nil, typeErr("&&", r)
		}
		return rb, nil
	case "||":
		l, err := ev.force(ctx, e.Left)
		if err != nil {
			return nil, err
		}
		lb, ok := l.(value.Bool)
		if !ok {
			return nil, typeErr("||", l)
		}
		if bool(lb) {
			return value.Bool(true), nil
		}
		r, err := ev.force(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(value.Bool)
		if !ok {
			return nil, typeErr("||", r)
		}
		return rb, nil
	}

	l, err := ev.force(ctx, e.Left)
	if err != nil {
		return nil, err
	}
	r, err := ev.force(ctx, e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "==":
		eq, err := value.Equals(l, r)
		return value.Bool(eq), err
	case "!=":
		eq, err := value.Equals(l, r)
		return value.Bool(!eq), err
	case "<", "<=", ">", ">=":
		return ev.compare(e.Op, l, r)
	case "+":
		return ev.add(l, r)
	case "-":
		ln, lok := l.(value.Number)
		rn, rok := r.(value.Number)
		if !lok || !rok {
			return nil, typeErr("-", l)
		}
		return ln - rn, nil
	case "*":
		ln, lok := l.(value.Number)
		rn, rok := r.(value.Number)
		if !lok || !rok {
			return nil, typeErr("*", l)
		}
		return ln * rn, nil
	case "/":
		ln, lok := l.(value.Number)
		rn, rok := r.(value.Number)
		if !lok || !rok {
			return nil, typeErr("/", l)
		}
		if rn == 0 {
			return nil, kureerrors.ErrDivisionByZero
		}
		return ln / rn, nil
	case "%":
		return ev.mod(l, r)
	case "<<", ">>", "&", "|", "^":
		return ev.bitwise(e.Op, l, r)
	case "in":
		return ev.in(l, r)
	}
	return nil, kureerrors.CreateError("unknown binary operator " + e.Op)
}

func (ev *Evaluator) add(l, r value.Value) (value.Value, error) {
	// string + anything and anything + string stringify the non-string
	// side via manifestation; both-string/both-number/both-array/
	// both-object delegate to value.Add.
	ls, lIsStr := l.(value.String)
	rs, rIsStr := r.(value.String)
	if lIsStr && !rIsStr {
		return value.Intern(string(ls) + ev.manifestToString(r)), nil
	}
	if rIsStr && !lIsStr {
		return value.Intern(ev.manifestToString(l) + string(rs)), nil
	}
	return value.Add(l, r)
}

// manifestToString renders a value the way `std.toString` would for the
// `string + x` sugar; full JSON manifestation is pkg/stdlib's job, but the
// common scalar cases are handled directly here to avoid a dependency
// from pkg/eval on pkg/stdlib.
func (ev *Evaluator) manifestToString(v value.Value) string {
	switch vv := v.(type) {
	case value.Null:
		return "null"
	case value.Bool:
		if vv {
			return "true"
		}
		return "false"
	case value.Number:
		return formatNumber(float64(vv))
	default:
		return value.TypeName(v)
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}

func (ev *Evaluator) compare(op string, l, r value.Value) (value.Value, error) {
	c, err := value.Compare(l, r)
	if err != nil {
		return nil, err
	}
	switch op {
	case "<":
		return value.Bool(c < 0), nil
	case "<=":
		return value.Bool(c <= 0), nil
	case ">":
		return value.Bool(c > 0), nil
	default:
		return value.Bool(c >= 0), nil
	}
}

func (ev *Evaluator) mod(l, r value.Value) (value.Value, error) {
	ln, lok := l.(value.Number)
	rn, rok := r.(value.Number)
	if !lok || !rok {
		return nil, typeErr("%", l)
	}
	if rn == 0 {
		return nil, kureerrors.ErrDivisionByZero
	}
	return value.Number(math.Mod(float64(ln), float64(rn))), nil
}

func (ev *Evaluator) bitwise(op string, l, r value.Value) (value.Value, error) {
	ln, lok := l.(value.Number)
	rn, rok := r.(value.Number)
	if !lok || !rok {
		return nil, typeErr(op, l)
	}
	li, ri := int64(ln), int64(rn)
	switch op {
	case "<<":
		return value.Number(float64(li << uint(ri))), nil
	case ">>":
		return value.Number(float64(li >> uint(ri))), nil
	case "&":
		return value.Number(float64(li & ri)), nil
	case "|":
		return value.Number(float64(li | ri)), nil
	case "^":
		return value.Number(float64(li ^ ri)), nil
	}
	return nil, kureerrors.CreateError("unknown bitwise operator " + op)
}

func (ev *Evaluator) in(l, r value.Value) (value.Value, error) {
	key, ok := l.(value.String)
	if !ok {
		return nil, kureerrors.CreateError("left side of 'in' must be a string")
	}
	obj, ok := r.(*value.Object)
	if !ok {
		return nil, kureerrors.CreateError("right side of 'in' must be an object")
	}
	return value.Bool(value.HasField(obj, string(key))), nil
}

func (ev *Evaluator) evalInSuper(ctx *value.Context, e *ast.InSuper) (value.Value, error) {
	v, err := ev.force(ctx, e.Expr)
	if err != nil {
		return nil, err
	}
	key, ok := v.(value.String)
	if !ok {
		return nil, kureerrors.CreateError("left side of 'in super' must be a string")
	}
	if ctx.Super == nil {
		return value.Bool(false), nil
	}
	return value.Bool(value.HasField(ctx.Super, string(key))), nil
}
