package stdlib

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/kyaml"
	"github.com/go-rtk/rtk/pkg/value"
)

func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ManifestJSON renders v as compact (indent=="") or pretty-printed JSON,
// matching std.manifestJsonEx's contract: object fields are emitted in
// sorted order (spec §5 "Ordering guarantees"), hidden fields are
// excluded.
func ManifestJSON(v value.Value, indent string) (string, error) {
	var b strings.Builder
	if err := writeJSON(&b, v, indent, ""); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeJSON(b *strings.Builder, v value.Value, indent, cur string) error {
	switch t := v.(type) {
	case value.Null:
		b.WriteString("null")
	case value.Bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.Number:
		b.WriteString(formatNumber(float64(t)))
	case value.String:
		enc, err := json.Marshal(string(t))
		if err != nil {
			return err
		}
		b.Write(enc)
	case *value.Array:
		if len(t.Elements) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[")
		next := cur + indent
		for i, el := range t.Elements {
			if i > 0 {
				b.WriteString(",")
			}
			if indent != "" {
				b.WriteString("\n" + next)
			}
			ev, err := el.Force()
			if err != nil {
				return err
			}
			if err := writeJSON(b, ev, indent, next); err != nil {
				return err
			}
		}
		if indent != "" {
			b.WriteString("\n" + cur)
		}
		b.WriteString("]")
	case *value.Object:
		names := value.VisibleFields(t)
		sort.Strings(names)
		if len(names) == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{")
		next := cur + indent
		for i, name := range names {
			if i > 0 {
				b.WriteString(",")
			}
			if indent != "" {
				b.WriteString("\n" + next)
			}
			enc, _ := json.Marshal(name)
			b.Write(enc)
			b.WriteString(": ")
			fv, err := value.GetField(t, name)
			if err != nil {
				return err
			}
			if err := writeJSON(b, fv, indent, next); err != nil {
				return err
			}
		}
		if indent != "" {
			b.WriteString("\n" + cur)
		}
		b.WriteString("}")
	case *value.Function:
		return kureerrors.CreateError("cannot manifest a function value")
	default:
		return fmt.Errorf("cannot manifest %T", v)
	}
	return nil
}

func stdManifestJsonEx(args []*value.Thunk) (value.Value, error) {
	v, err := args[0].Force()
	if err != nil {
		return nil, err
	}
	indent, err := requireString(args[1], "manifestJsonEx")
	if err != nil {
		return nil, err
	}
	s, err := ManifestJSON(v, indent)
	if err != nil {
		return nil, err
	}
	return value.Intern(s), nil
}

// stdManifestYamlDoc is std.manifestYamlDoc: renders v as a single YAML
// document via pkg/kyaml, using jsonnet's own default indent of 4.
func stdManifestYamlDoc(args []*value.Thunk) (value.Value, error) {
	v, err := args[0].Force()
	if err != nil {
		return nil, err
	}
	goVal, err := ToGo(v)
	if err != nil {
		return nil, err
	}
	out, err := kyaml.Marshal(goVal, kyaml.Options{Indent: 4})
	if err != nil {
		return nil, err
	}
	return value.Intern(string(out)), nil
}

func stdParseJSON(args []*value.Thunk) (value.Value, error) {
	s, err := requireString(args[0], "parseJson")
	if err != nil {
		return nil, err
	}
	var raw interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, kureerrors.CreateError("invalid JSON input: " + err.Error())
	}
	return FromGo(raw), nil
}

// FromGo converts a decoded-JSON Go value (map[string]interface{},
// []interface{}, string, float64, bool, nil) into the evaluator's Value
// representation. Shared by std.parseJson and pkg/natives' parseYaml,
// helmTemplate and kustomizeBuild bridges.
func FromGo(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(t)
	case float64:
		return value.Number(t)
	case int:
		return value.Number(float64(t))
	case int64:
		return value.Number(float64(t))
	case string:
		return value.Intern(t)
	case []interface{}:
		elems := make([]*value.Thunk, len(t))
		for i, el := range t {
			elems[i] = value.Ready(FromGo(el))
		}
		return &value.Array{Elements: elems}
	case map[string]interface{}:
		fields := make(map[string]*value.Field, len(t))
		for k, val := range t {
			val := val
			fields[k] = &value.Field{Binder: func(super, self *value.Object) (value.Value, error) {
				return FromGo(val), nil
			}}
		}
		// order is unrecoverable: Go's map[string]interface{} already lost
		// it by the time FromGo sees it. AllFields falls back to a stable
		// sorted order for objects with no recorded Order.
		return value.NewObject(fields, nil, nil)
	case map[interface{}]interface{}:
		fields := make(map[string]*value.Field, len(t))
		for k, val := range t {
			ks := fmt.Sprintf("%v", k)
			val := val
			fields[ks] = &value.Field{Binder: func(super, self *value.Object) (value.Value, error) {
				return FromGo(val), nil
			}}
		}
		return value.NewObject(fields, nil, nil)
	default:
		return value.Intern(fmt.Sprintf("%v", t))
	}
}

// ToGo converts a fully-forced Value back into plain Go data, used by
// pkg/export and pkg/diff to bridge into k8s.io/apimachinery's
// unstructured.Unstructured and sigs.k8s.io/yaml marshaling.
func ToGo(v value.Value) (interface{}, error) {
	switch t := v.(type) {
	case value.Null:
		return nil, nil
	case value.Bool:
		return bool(t), nil
	case value.Number:
		return float64(t), nil
	case value.String:
		return string(t), nil
	case *value.Array:
		out := make([]interface{}, len(t.Elements))
		for i, el := range t.Elements {
			ev, err := el.Force()
			if err != nil {
				return nil, err
			}
			gv, err := ToGo(ev)
			if err != nil {
				return nil, err
			}
			out[i] = gv
		}
		return out, nil
	case *value.Object:
		names := value.VisibleFields(t)
		out := make(map[string]interface{}, len(names))
		for _, n := range names {
			fv, err := value.GetField(t, n)
			if err != nil {
				return nil, err
			}
			gv, err := ToGo(fv)
			if err != nil {
				return nil, err
			}
			out[n] = gv
		}
		return out, nil
	default:
		return nil, kureerrors.CreateError("cannot convert value to Go data")
	}
}
