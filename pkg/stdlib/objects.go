package stdlib

import "github.com/go-rtk/rtk/pkg/value"

// stdObjectFieldsEx is std.objectFieldsEx(obj, hidden, preserve_order):
// iteration is insertion order by default, sorted only when
// preserve_order is explicitly passed false (spec §3, §5).
func stdObjectFieldsEx(args []*value.Thunk) (value.Value, error) {
	obj, err := requireObject(args[0], "objectFieldsEx")
	if err != nil {
		return nil, err
	}
	hiddenV, err := args[1].Force()
	if err != nil {
		return nil, err
	}
	hidden, ok := hiddenV.(value.Bool)
	if !ok {
		return nil, typeErr("objectFieldsEx")
	}
	preserveOrder := true
	if len(args) > 2 {
		if v, err := args[2].Force(); err == nil {
			if b, ok := v.(value.Bool); ok {
				preserveOrder = bool(b)
			}
		}
	}
	return stringArray(value.AllFields(obj, bool(hidden), !preserveOrder)), nil
}

func stdObjectHasEx(args []*value.Thunk) (value.Value, error) {
	obj, err := requireObject(args[0], "objectHasEx")
	if err != nil {
		return nil, err
	}
	name, err := requireString(args[1], "objectHasEx")
	if err != nil {
		return nil, err
	}
	hiddenV, err := args[2].Force()
	if err != nil {
		return nil, err
	}
	hidden, ok := hiddenV.(value.Bool)
	if !ok {
		return nil, typeErr("objectHasEx")
	}
	vis, has := value.VisibilityOf(obj, name)
	if !has {
		return value.Bool(false), nil
	}
	if vis == value.VisibilityHidden && !bool(hidden) {
		return value.Bool(false), nil
	}
	return value.Bool(true), nil
}

// stdMapWithKey applies func(key, value) over every visible field of obj,
// producing a new object with the same keys and transformed values.
func stdMapWithKey(args []*value.Thunk) (value.Value, error) {
	fn, err := requireFunc(args[0], "mapWithKey")
	if err != nil {
		return nil, err
	}
	obj, err := requireObject(args[1], "mapWithKey")
	if err != nil {
		return nil, err
	}
	names := value.VisibleFields(obj)
	fields := make(map[string]*value.Field, len(names))
	for _, name := range names {
		name := name
		fv, err := value.GetField(obj, name)
		if err != nil {
			return nil, err
		}
		valThunk := value.Ready(fv)
		fields[name] = &value.Field{Binder: func(super, self *value.Object) (value.Value, error) {
			return fn.Call([]*value.Thunk{value.Ready(value.Intern(name)), valThunk})
		}}
	}
	return value.NewObject(fields, names, nil), nil
}

// stdPrune recursively removes nulls, empty arrays, and empty objects from
// a, descending through arrays and objects; non-empty scalars pass through
// unchanged.
func stdPrune(args []*value.Thunk) (value.Value, error) {
	v, err := args[0].Force()
	if err != nil {
		return nil, err
	}
	return prune(v)
}

func prune(v value.Value) (value.Value, error) {
	switch t := v.(type) {
	case *value.Array:
		var kept []*value.Thunk
		for _, el := range t.Elements {
			ev, err := el.Force()
			if err != nil {
				return nil, err
			}
			pv, err := prune(ev)
			if err != nil {
				return nil, err
			}
			if isEmptyPruned(pv) {
				continue
			}
			kept = append(kept, value.Ready(pv))
		}
		return &value.Array{Elements: kept}, nil
	case *value.Object:
		names := value.VisibleFields(t)
		fields := map[string]*value.Field{}
		var order []string
		for _, name := range names {
			fv, err := value.GetField(t, name)
			if err != nil {
				return nil, err
			}
			pv, err := prune(fv)
			if err != nil {
				return nil, err
			}
			if isEmptyPruned(pv) {
				continue
			}
			pv := pv
			fields[name] = &value.Field{Binder: readyBinder(pv)}
			order = append(order, name)
		}
		return value.NewObject(fields, order, nil), nil
	default:
		return v, nil
	}
}

func isEmptyPruned(v value.Value) bool {
	switch t := v.(type) {
	case value.Null:
		return true
	case *value.Array:
		return len(t.Elements) == 0
	case *value.Object:
		return len(value.VisibleFields(t)) == 0
	default:
		return false
	}
}

func stdGet(args []*value.Thunk) (value.Value, error) {
	obj, err := requireObject(args[0], "get")
	if err != nil {
		return nil, err
	}
	name, err := requireString(args[1], "get")
	if err != nil {
		return nil, err
	}
	includeHidden := true
	if len(args) > 3 {
		if v, err := args[3].Force(); err == nil {
			if b, ok := v.(value.Bool); ok {
				includeHidden = bool(b)
			}
		}
	}
	vis, has := value.VisibilityOf(obj, name)
	if !has || (vis == value.VisibilityHidden && !includeHidden) {
		return args[2].Force()
	}
	return value.GetField(obj, name)
}
