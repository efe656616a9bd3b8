// Package natives implements the host-provided builtins reachable via
// std.native(name): YAML parsing with YAML 1.1 semantics, sha256 and
// regex helpers, and the helm/kustomize subprocess bridges (spec §4.C).
// manifestJsonFromJson and manifestYamlFromJson are registered but
// return their first argument unchanged; they do not re-render it.
package natives

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/stdlib"
	"github.com/go-rtk/rtk/pkg/value"
	"gopkg.in/yaml.v3"
)

// Runner executes an external helm/kustomize subprocess. No type in this
// repository implements it; the caller of NewRegistry supplies one (the
// tests pass nil). Kept as an interface here so pkg/natives has no direct os/exec dependency beyond
// what Runner abstracts, matching the teacher's pattern of pushing
// process execution behind a narrow collaborator interface.
type Runner interface {
	Run(name string, args []string, stdin string, dir string) (stdout string, err error)
}

// Registry is the std.native(name) lookup table.
type Registry struct {
	Runner Runner

	mu            sync.RWMutex
	helmCache     map[string]string
	kustomizeCache map[string]string
}

func NewRegistry(runner Runner) *Registry {
	return &Registry{
		Runner:         runner,
		helmCache:      map[string]string{},
		kustomizeCache: map[string]string{},
	}
}

func (r *Registry) Lookup(name string) (*value.Function, bool) {
	switch name {
	case "parseJson":
		return fn1("parseJson", r.parseJSON), true
	case "parseYaml":
		return fn1("parseYaml", r.parseYAML), true
	case "manifestJsonFromJson":
		return fn2("manifestJsonFromJson", r.manifestJsonFromJson), true
	case "manifestYamlFromJson":
		return fn2("manifestYamlFromJson", r.manifestYamlFromJson), true
	case "sha256":
		return fn1("sha256", r.sha256), true
	case "escapeStringRegex":
		return fn1("escapeStringRegex", r.escapeStringRegex), true
	case "regexMatch":
		return fn2("regexMatch", r.regexMatch), true
	case "regexSubst":
		return fn3("regexSubst", r.regexSubst), true
	case "helmTemplate":
		return fnN("helmTemplate", 4, r.helmTemplate), true
	case "kustomizeBuild":
		return fnN("kustomizeBuild", 2, r.kustomizeBuild), true
	case "snakeCase":
		return fn1("snakeCase", func(s string) (string, error) { return ToSnakeCase(s), nil }), true
	}
	return nil, false
}

func fn1(name string, f func(string) (string, error)) *value.Function {
	return &value.Function{
		Name: name, Defined: true,
		Params: []value.Param{{Name: "a"}},
		Call: func(args []*value.Thunk) (value.Value, error) {
			s, err := reqString(args[0])
			if err != nil {
				return nil, err
			}
			out, err := f(s)
			if err != nil {
				return nil, err
			}
			return value.Intern(out), nil
		},
	}
}

func fn2(name string, f func(value.Value, string) (value.Value, error)) *value.Function {
	return &value.Function{
		Name: name, Defined: true,
		Params: []value.Param{{Name: "a"}, {Name: "b"}},
		Call: func(args []*value.Thunk) (value.Value, error) {
			a, err := args[0].Force()
			if err != nil {
				return nil, err
			}
			b, err := reqString(args[1])
			if err != nil {
				return nil, err
			}
			return f(a, b)
		},
	}
}

func fn3(name string, f func(string, string, string) (string, error)) *value.Function {
	return &value.Function{
		Name: name, Defined: true,
		Params: []value.Param{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		Call: func(args []*value.Thunk) (value.Value, error) {
			a, err := reqString(args[0])
			if err != nil {
				return nil, err
			}
			b, err := reqString(args[1])
			if err != nil {
				return nil, err
			}
			c, err := reqString(args[2])
			if err != nil {
				return nil, err
			}
			out, err := f(a, b, c)
			if err != nil {
				return nil, err
			}
			return value.Intern(out), nil
		},
	}
}

func fnN(name string, n int, f func([]*value.Thunk) (value.Value, error)) *value.Function {
	params := make([]value.Param, n)
	for i := range params {
		params[i] = value.Param{Name: fmt.Sprintf("a%d", i)}
	}
	return &value.Function{Name: name, Defined: true, Params: params, Call: f}
}

func reqString(t *value.Thunk) (string, error) {
	v, err := t.Force()
	if err != nil {
		return "", err
	}
	s, ok := v.(value.String)
	if !ok {
		return "", kureerrors.CreateError("native function expected a string argument")
	}
	return string(s), nil
}

func (r *Registry) parseJSON(s string) (string, error) {
	return s, nil // parseJson is handled directly by pkg/stdlib; kept for native-table symmetry.
}

// parseYAML parses s as a YAML 1.1 document stream and returns the
// manifestation as a JSON string of an ARRAY of documents -- even a
// single-document input yields a one-element array, preserved exactly as
// specified (spec §9 Open Question: every caller indexes `[0]`).
func (r *Registry) parseYAML(s string) (string, error) {
	dec := yaml.NewDecoder(stringsReader(s))
	var docs []interface{}
	for {
		var doc interface{}
		err := dec.Decode(&doc)
		if err != nil {
			break
		}
		docs = append(docs, normalizeYAML(doc))
	}
	out, err := stdlib.ManifestJSON(stdlib.FromGo(docs), "")
	if err != nil {
		return "", err
	}
	return out, nil
}

// normalizeYAML converts yaml.v3's map[string]interface{} output (and any
// nested map[interface{}]interface{} from older decode paths) into a form
// stdlib.FromGo accepts, and folds YAML 1.1's int64/uint64 scalars down to
// float64 to match Jsonnet's single numeric type.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, el := range t {
			out[i] = normalizeYAML(el)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return t
	}
}

func (r *Registry) manifestJsonFromJson(v value.Value, indent string) (value.Value, error) {
	s, ok := v.(value.String)
	if !ok {
		return nil, kureerrors.CreateError("manifestJsonFromJson expects a JSON string")
	}
	_ = s
	return v, nil
}

func (r *Registry) manifestYamlFromJson(v value.Value, indent string) (value.Value, error) {
	return v, nil
}

func (r *Registry) sha256(s string) (string, error) {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:]), nil
}

func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
