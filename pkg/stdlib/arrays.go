package stdlib

import (
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

func stdMakeArray(args []*value.Thunk) (value.Value, error) {
	szv, err := requireNumber(args[0], "makeArray")
	if err != nil {
		return nil, err
	}
	fn, err := requireFunc(args[1], "makeArray")
	if err != nil {
		return nil, err
	}
	n := int(szv)
	elems := make([]*value.Thunk, n)
	for i := 0; i < n; i++ {
		i := i
		elems[i] = value.NewThunk(func() (value.Value, error) {
			return fn.Call([]*value.Thunk{value.Ready(value.Number(float64(i)))})
		})
	}
	return &value.Array{Elements: elems}, nil
}

func stdFilter(args []*value.Thunk) (value.Value, error) {
	fn, err := requireFunc(args[0], "filter")
	if err != nil {
		return nil, err
	}
	arr, err := requireArray(args[1], "filter")
	if err != nil {
		return nil, err
	}
	var out []*value.Thunk
	for _, el := range arr.Elements {
		v, err := fn.Call([]*value.Thunk{el})
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, typeErr("filter (predicate must return boolean)")
		}
		if bool(b) {
			out = append(out, el)
		}
	}
	return &value.Array{Elements: out}, nil
}

func stdMap(args []*value.Thunk) (value.Value, error) {
	fn, err := requireFunc(args[0], "map")
	if err != nil {
		return nil, err
	}
	arr, err := requireArray(args[1], "map")
	if err != nil {
		return nil, err
	}
	out := make([]*value.Thunk, len(arr.Elements))
	for i, el := range arr.Elements {
		el := el
		out[i] = value.NewThunk(func() (value.Value, error) {
			return fn.Call([]*value.Thunk{el})
		})
	}
	return &value.Array{Elements: out}, nil
}

func stdMapWithIndex(args []*value.Thunk) (value.Value, error) {
	fn, err := requireFunc(args[0], "mapWithIndex")
	if err != nil {
		return nil, err
	}
	arr, err := requireArray(args[1], "mapWithIndex")
	if err != nil {
		return nil, err
	}
	out := make([]*value.Thunk, len(arr.Elements))
	for i, el := range arr.Elements {
		i, el := i, el
		out[i] = value.NewThunk(func() (value.Value, error) {
			return fn.Call([]*value.Thunk{value.Ready(value.Number(float64(i))), el})
		})
	}
	return &value.Array{Elements: out}, nil
}

func stdFlatMap(args []*value.Thunk) (value.Value, error) {
	fn, err := requireFunc(args[0], "flatMap")
	if err != nil {
		return nil, err
	}
	arr, err := requireArray(args[1], "flatMap")
	if err != nil {
		return nil, err
	}
	var out []*value.Thunk
	for _, el := range arr.Elements {
		v, err := fn.Call([]*value.Thunk{el})
		if err != nil {
			return nil, err
		}
		sub, ok := v.(*value.Array)
		if !ok {
			return nil, typeErr("flatMap (function must return an array)")
		}
		out = append(out, sub.Elements...)
	}
	return &value.Array{Elements: out}, nil
}

func stdFoldl(args []*value.Thunk) (value.Value, error) {
	fn, err := requireFunc(args[0], "foldl")
	if err != nil {
		return nil, err
	}
	arr, err := requireArray(args[1], "foldl")
	if err != nil {
		return nil, err
	}
	acc := args[2]
	for _, el := range arr.Elements {
		v, err := fn.Call([]*value.Thunk{acc, el})
		if err != nil {
			return nil, err
		}
		acc = value.Ready(v)
	}
	return acc.Force()
}

func stdFoldr(args []*value.Thunk) (value.Value, error) {
	fn, err := requireFunc(args[0], "foldr")
	if err != nil {
		return nil, err
	}
	arr, err := requireArray(args[1], "foldr")
	if err != nil {
		return nil, err
	}
	acc := args[2]
	for i := len(arr.Elements) - 1; i >= 0; i-- {
		v, err := fn.Call([]*value.Thunk{arr.Elements[i], acc})
		if err != nil {
			return nil, err
		}
		acc = value.Ready(v)
	}
	return acc.Force()
}

func stdSort(args []*value.Thunk) (value.Value, error) {
	arr, err := requireArray(args[0], "sort")
	if err != nil {
		return nil, err
	}
	var keyF *value.Function
	if len(args) > 1 {
		if v, err := args[1].Force(); err == nil {
			if f, ok := v.(*value.Function); ok {
				keyF = f
			}
		}
	}
	vals := make([]value.Value, len(arr.Elements))
	for i, el := range arr.Elements {
		v, err := el.Force()
		if err != nil {
			return nil, err
		}
		if keyF != nil {
			kv, err := keyF.Call([]*value.Thunk{value.Ready(v)})
			if err != nil {
				return nil, err
			}
			v = kv
		}
		vals[i] = v
	}
	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	for i := 1; i < len(idx) && sortErr == nil; i++ {
		j := i
		for j > 0 {
			c, err := value.Compare(vals[idx[j-1]], vals[idx[j]])
			if err != nil {
				sortErr = err
				break
			}
			if c <= 0 {
				break
			}
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	if sortErr != nil {
		return nil, sortErr
	}
	out := make([]*value.Thunk, len(arr.Elements))
	for i, id := range idx {
		out[i] = arr.Elements[id]
	}
	return &value.Array{Elements: out}, nil
}

func stdMember(args []*value.Thunk) (value.Value, error) {
	v, err := args[0].Force()
	if err != nil {
		return nil, err
	}
	x, err := args[1].Force()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case *value.Array:
		for _, el := range t.Elements {
			ev, err := el.Force()
			if err != nil {
				return nil, err
			}
			eq, err := value.Equals(ev, x)
			if err != nil {
				return nil, err
			}
			if eq {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case value.String:
		xs, ok := x.(value.String)
		if !ok {
			return nil, typeErr("member")
		}
		return value.Bool(containsRune(string(t), string(xs))), nil
	}
	return nil, typeErr("member")
}

func containsRune(haystack, needle string) bool {
	for _, r := range haystack {
		if string(r) == needle {
			return true
		}
	}
	return false
}

func stdCount(args []*value.Thunk) (value.Value, error) {
	arr, err := requireArray(args[0], "count")
	if err != nil {
		return nil, err
	}
	x, err := args[1].Force()
	if err != nil {
		return nil, err
	}
	n := 0
	for _, el := range arr.Elements {
		ev, err := el.Force()
		if err != nil {
			return nil, err
		}
		eq, err := value.Equals(ev, x)
		if err != nil {
			return nil, err
		}
		if eq {
			n++
		}
	}
	return value.Number(float64(n)), nil
}

func stdAny(args []*value.Thunk) (value.Value, error) {
	arr, err := requireArray(args[0], "any")
	if err != nil {
		return nil, err
	}
	for _, el := range arr.Elements {
		v, err := el.Force()
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, typeErr("any")
		}
		if bool(b) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func stdAll(args []*value.Thunk) (value.Value, error) {
	arr, err := requireArray(args[0], "all")
	if err != nil {
		return nil, err
	}
	for _, el := range arr.Elements {
		v, err := el.Force()
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, typeErr("all")
		}
		if !bool(b) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func stdRange(args []*value.Thunk) (value.Value, error) {
	from, err := requireNumber(args[0], "range")
	if err != nil {
		return nil, err
	}
	to, err := requireNumber(args[1], "range")
	if err != nil {
		return nil, err
	}
	var elems []*value.Thunk
	for i := int(from); i <= int(to); i++ {
		elems = append(elems, value.Ready(value.Number(float64(i))))
	}
	return &value.Array{Elements: elems}, nil
}

func stdReverse(args []*value.Thunk) (value.Value, error) {
	arr, err := requireArray(args[0], "reverse")
	if err != nil {
		return nil, err
	}
	out := make([]*value.Thunk, len(arr.Elements))
	for i, el := range arr.Elements {
		out[len(out)-1-i] = el
	}
	return &value.Array{Elements: out}, nil
}

func stdUniq(args []*value.Thunk) (value.Value, error) {
	arr, err := requireArray(args[0], "uniq")
	if err != nil {
		return nil, err
	}
	var out []*value.Thunk
	var prev value.Value
	for _, el := range arr.Elements {
		v, err := el.Force()
		if err != nil {
			return nil, err
		}
		if prev != nil {
			eq, err := value.Equals(prev, v)
			if err != nil {
				return nil, err
			}
			if eq {
				continue
			}
		}
		out = append(out, el)
		prev = v
	}
	return &value.Array{Elements: out}, nil
}

func stdFlattenArrays(args []*value.Thunk) (value.Value, error) {
	arrs, err := requireArray(args[0], "flattenArrays")
	if err != nil {
		return nil, err
	}
	var out []*value.Thunk
	for _, el := range arrs.Elements {
		v, err := el.Force()
		if err != nil {
			return nil, err
		}
		sub, ok := v.(*value.Array)
		if !ok {
			return nil, typeErr("flattenArrays")
		}
		out = append(out, sub.Elements...)
	}
	return &value.Array{Elements: out}, nil
}

func stdSlice(args []*value.Thunk) (value.Value, error) {
	v, err := args[0].Force()
	if err != nil {
		return nil, err
	}
	arr, ok := v.(*value.Array)
	if !ok {
		return nil, typeErr("slice")
	}
	from, to, step, err := sliceArgs(args[1], args[2], args[3], len(arr.Elements))
	if err != nil {
		return nil, err
	}
	var out []*value.Thunk
	for i := from; (step > 0 && i < to) || (step < 0 && i > to); i += step {
		out = append(out, arr.Elements[i])
	}
	return &value.Array{Elements: out}, nil
}

func sliceArgs(fromT, toT, stepT *value.Thunk, length int) (from, to, step int, err error) {
	step = 1
	if sv, serr := toOptionalNumber(stepT); serr == nil && sv != nil {
		step = int(*sv)
	}
	if step == 0 {
		return 0, 0, 0, kureerrors.CreateError("slice step must not be zero")
	}
	from = 0
	if step < 0 {
		from = length - 1
	}
	if fv, ferr := toOptionalNumber(fromT); ferr == nil && fv != nil {
		from = int(*fv)
	}
	to = length
	if step < 0 {
		to = -1
	}
	if tv, terr := toOptionalNumber(toT); terr == nil && tv != nil {
		to = int(*tv)
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

func toOptionalNumber(t *value.Thunk) (*float64, error) {
	if t == nil {
		return nil, nil
	}
	v, err := t.Force()
	if err != nil {
		return nil, err
	}
	if _, ok := v.(value.Null); ok {
		return nil, nil
	}
	n, ok := v.(value.Number)
	if !ok {
		return nil, typeErr("slice bound")
	}
	f := float64(n)
	return &f, nil
}
