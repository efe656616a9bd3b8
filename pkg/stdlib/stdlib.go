// Package stdlib builds the `std` object every Jsonnet evaluation starts
// with (spec §4.B/§5), implementing the builtins pure Go can express
// directly and leaving host-bridge natives (helm/kustomize/parseYaml) to
// pkg/natives, reached through std.native(name).
package stdlib

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/go-rtk/rtk/pkg/eval"
	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/value"
)

// Natives supplies the host-bridge builtins reachable via std.native.
// pkg/natives implements this; kept as an interface here to avoid a
// import cycle (pkg/natives depends on pkg/stdlib for manifestation
// helpers when rendering helm/kustomize output).
type Natives interface {
	Lookup(name string) (*value.Function, bool)
}

// Build constructs the top-level `std` object, with ExtVars resolved via
// ev.ExtVars and native lookups delegated to natives (may be nil if the
// caller never needs helm/kustomize/parseYaml bridging, e.g. unit tests).
func Build(ev *eval.Evaluator, natives Natives) *value.Object {
	fields := map[string]*value.Field{}
	var order []string
	add := func(name string, params []string, fn func(args []*value.Thunk) (value.Value, error)) {
		ps := make([]value.Param, len(params))
		for i, p := range params {
			ps[i] = value.Param{Name: p}
		}
		f := &value.Function{Name: name, Params: ps, Defined: true, Call: fn}
		if _, dup := fields[name]; !dup {
			order = append(order, name)
		}
		fields[name] = &value.Field{Visibility: value.VisibilityHidden, Binder: readyBinder(f)}
	}
	addConst := func(name string, v value.Value) {
		if _, dup := fields[name]; !dup {
			order = append(order, name)
		}
		fields[name] = &value.Field{Visibility: value.VisibilityHidden, Binder: readyBinder(v)}
	}

	addConst("thisFile", value.Intern(""))

	add("length", []string{"x"}, stdLength)
	add("type", []string{"x"}, func(args []*value.Thunk) (value.Value, error) {
		v, err := args[0].Force()
		if err != nil {
			return nil, err
		}
		return value.Intern(value.TypeName(v)), nil
	})
	isType := func(name string) func([]*value.Thunk) (value.Value, error) {
		return func(args []*value.Thunk) (value.Value, error) {
			v, err := args[0].Force()
			if err != nil {
				return nil, err
			}
			return value.Bool(value.TypeName(v) == name), nil
		}
	}
	add("isObject", []string{"v"}, isType("object"))
	add("isArray", []string{"v"}, isType("array"))
	add("isString", []string{"v"}, isType("string"))
	add("isNumber", []string{"v"}, isType("number"))
	add("isBoolean", []string{"v"}, isType("boolean"))
	add("isFunction", []string{"v"}, isType("function"))
	add("mapWithKey", []string{"func", "obj"}, stdMapWithKey)
	add("prune", []string{"a"}, stdPrune)
	add("makeArray", []string{"sz", "func"}, stdMakeArray)
	add("filter", []string{"func", "arr"}, stdFilter)
	add("map", []string{"func", "arr"}, stdMap)
	add("mapWithIndex", []string{"func", "arr"}, stdMapWithIndex)
	add("flatMap", []string{"func", "arr"}, stdFlatMap)
	add("foldl", []string{"func", "arr", "init"}, stdFoldl)
	add("foldr", []string{"func", "arr", "init"}, stdFoldr)
	add("sort", []string{"arr", "keyF"}, stdSort)
	add("member", []string{"arr", "x"}, stdMember)
	add("count", []string{"arr", "x"}, stdCount)
	add("any", []string{"arr"}, stdAny)
	add("all", []string{"arr"}, stdAll)
	add("range", []string{"from", "to"}, stdRange)
	add("reverse", []string{"arr"}, stdReverse)
	add("uniq", []string{"arr", "keyF"}, stdUniq)
	add("flattenArrays", []string{"arrs"}, stdFlattenArrays)

	add("slice", []string{"indexable", "index", "end", "step"}, stdSlice)
	add("substr", []string{"str", "from", "len"}, stdSubstr)
	add("char", []string{"n"}, stdChar)
	add("codepoint", []string{"str"}, stdCodepoint)
	add("asciiUpper", []string{"str"}, stdAsciiUpper)
	add("asciiLower", []string{"str"}, stdAsciiLower)
	add("join", []string{"sep", "arr"}, stdJoin)
	add("split", []string{"str", "c"}, stdSplit)
	add("splitLimit", []string{"str", "c", "maxsplits"}, stdSplitLimit)
	add("strReplace", []string{"str", "from", "to"}, stdStrReplace)
	add("lstripChars", []string{"str", "chars"}, stdLstripChars)
	add("rstripChars", []string{"str", "chars"}, stdRstripChars)
	add("stripChars", []string{"str", "chars"}, stdStripChars)
	add("startsWith", []string{"a", "b"}, stdStartsWith)
	add("endsWith", []string{"a", "b"}, stdEndsWith)
	add("toString", []string{"a"}, func(args []*value.Thunk) (value.Value, error) {
		v, err := args[0].Force()
		if err != nil {
			return nil, err
		}
		s, err := ManifestJSON(v, "")
		if err != nil {
			return nil, err
		}
		if sv, ok := v.(value.String); ok {
			return sv, nil
		}
		return value.Intern(s), nil
	})

	add("format", []string{"str", "vals"}, stdFormat)

	add("md5", []string{"s"}, func(args []*value.Thunk) (value.Value, error) {
		s, err := requireString(args[0], "md5")
		if err != nil {
			return nil, err
		}
		sum := md5.Sum([]byte(s))
		return value.Intern(hex.EncodeToString(sum[:])), nil
	})
	add("sha256", []string{"s"}, func(args []*value.Thunk) (value.Value, error) {
		s, err := requireString(args[0], "sha256")
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256([]byte(s))
		return value.Intern(hex.EncodeToString(sum[:])), nil
	})
	add("base64", []string{"input"}, func(args []*value.Thunk) (value.Value, error) {
		s, err := requireString(args[0], "base64")
		if err != nil {
			return nil, err
		}
		return value.Intern(base64.StdEncoding.EncodeToString([]byte(s))), nil
	})
	add("base64Decode", []string{"str"}, func(args []*value.Thunk) (value.Value, error) {
		s, err := requireString(args[0], "base64Decode")
		if err != nil {
			return nil, err
		}
		dec, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, kureerrors.CreateError("invalid base64 input: " + err.Error())
		}
		return value.Intern(string(dec)), nil
	})
	add("encodeUTF8", []string{"str"}, func(args []*value.Thunk) (value.Value, error) {
		s, err := requireString(args[0], "encodeUTF8")
		if err != nil {
			return nil, err
		}
		b := []byte(s)
		elems := make([]*value.Thunk, len(b))
		for i, c := range b {
			elems[i] = value.Ready(value.Number(float64(c)))
		}
		return &value.Array{Elements: elems}, nil
	})
	add("decodeUTF8", []string{"arr"}, func(args []*value.Thunk) (value.Value, error) {
		arr, err := requireArray(args[0], "decodeUTF8")
		if err != nil {
			return nil, err
		}
		b := make([]byte, len(arr.Elements))
		for i, t := range arr.Elements {
			v, err := t.Force()
			if err != nil {
				return nil, err
			}
			n, ok := v.(value.Number)
			if !ok {
				return nil, typeErr("decodeUTF8 element")
			}
			b[i] = byte(n)
		}
		return value.Intern(string(b)), nil
	})

	add("objectFieldsEx", []string{"obj", "hidden", "preserve_order"}, stdObjectFieldsEx)
	add("objectFields", []string{"obj"}, func(args []*value.Thunk) (value.Value, error) {
		obj, err := requireObject(args[0], "objectFields")
		if err != nil {
			return nil, err
		}
		return stringArray(value.VisibleFields(obj)), nil
	})
	add("objectHasEx", []string{"obj", "fname", "hidden"}, stdObjectHasEx)
	add("objectHas", []string{"obj", "fname"}, func(args []*value.Thunk) (value.Value, error) {
		obj, err := requireObject(args[0], "objectHas")
		if err != nil {
			return nil, err
		}
		name, err := requireString(args[1], "objectHas")
		if err != nil {
			return nil, err
		}
		vis, ok := value.VisibilityOf(obj, name)
		return value.Bool(ok && vis != value.VisibilityHidden), nil
	})
	add("objectValues", []string{"obj"}, func(args []*value.Thunk) (value.Value, error) {
		obj, err := requireObject(args[0], "objectValues")
		if err != nil {
			return nil, err
		}
		names := value.VisibleFields(obj)
		elems := make([]*value.Thunk, len(names))
		for i, n := range names {
			n := n
			elems[i] = value.NewThunk(func() (value.Value, error) { return value.GetField(obj, n) })
		}
		return &value.Array{Elements: elems}, nil
	})
	add("get", []string{"o", "f", "default", "inc_hidden"}, stdGet)

	add("primitiveEquals", []string{"a", "b"}, func(args []*value.Thunk) (value.Value, error) {
		a, err := args[0].Force()
		if err != nil {
			return nil, err
		}
		b, err := args[1].Force()
		if err != nil {
			return nil, err
		}
		eq, err := value.Equals(a, b)
		return value.Bool(eq), err
	})
	add("equals", []string{"a", "b"}, func(args []*value.Thunk) (value.Value, error) {
		a, err := args[0].Force()
		if err != nil {
			return nil, err
		}
		b, err := args[1].Force()
		if err != nil {
			return nil, err
		}
		eq, err := value.Equals(a, b)
		return value.Bool(eq), err
	})

	add("modulo", []string{"a", "b"}, mathBinOp(math.Mod))
	add("floor", []string{"x"}, mathUnOp(math.Floor))
	add("ceil", []string{"x"}, mathUnOp(math.Ceil))
	add("sqrt", []string{"x"}, mathUnOp(math.Sqrt))
	add("pow", []string{"x", "n"}, mathBinOp(math.Pow))
	add("log", []string{"x"}, mathUnOp(math.Log))
	add("exp", []string{"x"}, mathUnOp(math.Exp))
	add("abs", []string{"x"}, mathUnOp(math.Abs))
	add("sign", []string{"x"}, mathUnOp(func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	}))

	add("extVar", []string{"x"}, func(args []*value.Thunk) (value.Value, error) {
		name, err := requireString(args[0], "extVar")
		if err != nil {
			return nil, err
		}
		v, ok := ev.ExtVars[name]
		if !ok {
			return nil, kureerrors.New(kureerrors.ErrUndefinedExtVar, name)
		}
		return value.Intern(v), nil
	})
	add("native", []string{"name"}, func(args []*value.Thunk) (value.Value, error) {
		name, err := requireString(args[0], "native")
		if err != nil {
			return nil, err
		}
		if natives == nil {
			return value.Null{}, nil
		}
		fn, ok := natives.Lookup(name)
		if !ok {
			return value.Null{}, nil
		}
		return fn, nil
	})
	add("trace", []string{"str", "rest"}, func(args []*value.Thunk) (value.Value, error) {
		s, err := requireString(args[0], "trace")
		if err != nil {
			return nil, err
		}
		fmt.Printf("TRACE: %s\n", s)
		return args[1].Force()
	})

	add("manifestJsonEx", []string{"value", "indent"}, stdManifestJsonEx)
	add("manifestYamlDoc", []string{"value", "indent_array_in_object"}, stdManifestYamlDoc)
	add("parseJson", []string{"str"}, stdParseJSON)
	add("parseYaml", []string{"str"}, func(args []*value.Thunk) (value.Value, error) {
		if natives == nil {
			return nil, kureerrors.CreateError("std.parseYaml requires a natives bridge")
		}
		fn, ok := natives.Lookup("parseYaml")
		if !ok {
			return nil, kureerrors.CreateError("parseYaml native not registered")
		}
		return fn.Call(args)
	})

	std := value.NewObject(fields, order, nil)
	if ev != nil {
		ev.SetStd(std)
	}
	return std
}

func readyBinder(v value.Value) value.Binder {
	return func(super, self *value.Object) (value.Value, error) { return v, nil }
}

func typeErr(where string) error {
	return kureerrors.CreateError("std." + where + ": wrong argument type")
}

func requireString(t *value.Thunk, where string) (string, error) {
	v, err := t.Force()
	if err != nil {
		return "", err
	}
	s, ok := v.(value.String)
	if !ok {
		return "", typeErr(where)
	}
	return string(s), nil
}

func requireNumber(t *value.Thunk, where string) (float64, error) {
	v, err := t.Force()
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.Number)
	if !ok {
		return 0, typeErr(where)
	}
	return float64(n), nil
}

func requireArray(t *value.Thunk, where string) (*value.Array, error) {
	v, err := t.Force()
	if err != nil {
		return nil, err
	}
	a, ok := v.(*value.Array)
	if !ok {
		return nil, typeErr(where)
	}
	return a, nil
}

func requireObject(t *value.Thunk, where string) (*value.Object, error) {
	v, err := t.Force()
	if err != nil {
		return nil, err
	}
	o, ok := v.(*value.Object)
	if !ok {
		return nil, typeErr(where)
	}
	return o, nil
}

func requireFunc(t *value.Thunk, where string) (*value.Function, error) {
	v, err := t.Force()
	if err != nil {
		return nil, err
	}
	f, ok := v.(*value.Function)
	if !ok {
		return nil, typeErr(where)
	}
	return f, nil
}

func stringArray(ss []string) *value.Array {
	elems := make([]*value.Thunk, len(ss))
	for i, s := range ss {
		elems[i] = value.Ready(value.Intern(s))
	}
	return &value.Array{Elements: elems}
}

func mathUnOp(f func(float64) float64) func([]*value.Thunk) (value.Value, error) {
	return func(args []*value.Thunk) (value.Value, error) {
		n, err := requireNumber(args[0], "math")
		if err != nil {
			return nil, err
		}
		return value.Number(f(n)), nil
	}
}

func mathBinOp(f func(float64, float64) float64) func([]*value.Thunk) (value.Value, error) {
	return func(args []*value.Thunk) (value.Value, error) {
		a, err := requireNumber(args[0], "math")
		if err != nil {
			return nil, err
		}
		b, err := requireNumber(args[1], "math")
		if err != nil {
			return nil, err
		}
		return value.Number(f(a, b)), nil
	}
}

func stdLength(args []*value.Thunk) (value.Value, error) {
	v, err := args[0].Force()
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case value.String:
		return value.Number(float64(len([]rune(string(t))))), nil
	case *value.Array:
		return value.Number(float64(len(t.Elements))), nil
	case *value.Object:
		return value.Number(float64(len(value.VisibleFields(t)))), nil
	case *value.Function:
		return value.Number(float64(len(t.Params))), nil
	default:
		return nil, typeErr("length")
	}
}

func sortValues(vals []value.Value) error {
	var sortErr error
	sort.SliceStable(vals, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := value.Compare(vals[i], vals[j])
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	return sortErr
}
