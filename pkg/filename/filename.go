// Package filename renders the output path for a single manifest from a
// Go-text/template-syntax filename template (spec §4.F). Rendering is a
// two-stage process: a template is specialized once per environment
// (env.* references substituted with literal values so no runtime env
// lookup is needed per manifest), then rendered once per manifest
// against that manifest's own kind/apiVersion/metadata. Grounded on
// original_source/cmds/rtk/src/export.rs's specialize_template_for_env,
// render_filename_simple and apply_template_path_processing, reworked
// onto Go's own text/template (the engine the template syntax already
// names) instead of the original's gtmpl crate.
package filename

import (
	"regexp"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig/v3"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/manifest"
	"github.com/go-rtk/rtk/pkg/spec"
)

// belRune stands in for an intentional path separator while a template
// is being rendered, so a literal "/" in a rendered value (like
// "apps/v1") can be told apart from one the template author wrote.
const belRune = "\x07"

var labelRefPattern = regexp.MustCompile(`env\.metadata\.labels\.(\w+)`)

// forbiddenActionPattern catches the text/template actions spec's Design
// Notes explicitly exclude from this grammar (range, block, template,
// define) -- text/template itself supports them, but this project's
// filename templates are deliberately restricted to a smaller subset.
var forbiddenActionPattern = regexp.MustCompile(`\{\{-?\s*(range|block|template|define)\b`)

// funcMap exposes only "default" from sprig's function set: the filename
// template grammar is deliberately restricted to the subset named in
// spec (or/if/eq/not/default), and sprig's other helpers have no
// template in this grammar to appear in.
var funcMap = template.FuncMap{"default": sprig.FuncMap()["default"]}

// Specialize substitutes every env.metadata.labels.<key>,
// env.spec.namespace and env.metadata.name reference in the raw
// template text with a quoted literal (or "" when absent, so
// `not env.metadata.labels.X` is truthy for a missing label), then
// replaces "/" outside {{ }} blocks with belRune to protect intentional
// directory separators from the later apps/v1-style dash substitution.
func Specialize(raw string, env *spec.Environment) string {
	result := raw

	refs := map[string]bool{}
	for _, m := range labelRefPattern.FindAllStringSubmatch(raw, -1) {
		refs[m[1]] = true
	}
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	// Longest key first so "env.metadata.labels.foobar" isn't partially
	// clobbered by a replacement meant for "env.metadata.labels.foo".
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	var labels map[string]string
	namespace, name := "", ""
	if env != nil {
		labels = env.Metadata.Labels
		namespace = env.Spec.Namespace
		name = env.Metadata.Name
	}

	for _, key := range keys {
		pattern := "env.metadata.labels." + key
		replacement := `""`
		if v, ok := labels[key]; ok {
			replacement = `"` + v + `"`
		}
		result = strings.ReplaceAll(result, pattern, replacement)
	}
	result = strings.ReplaceAll(result, "env.spec.namespace", `"`+namespace+`"`)
	result = strings.ReplaceAll(result, "env.metadata.name", `"`+name+`"`)

	return replaceOutsideActions(result, "/", belRune)
}

// replaceOutsideActions replaces every occurrence of old with new in s,
// skipping text inside {{ ... }} template actions.
func replaceOutsideActions(s, old, new string) string {
	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(strings.ReplaceAll(rest, old, new))
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(strings.ReplaceAll(rest, old, new))
			break
		}
		end += start + 2
		b.WriteString(strings.ReplaceAll(rest[:start], old, new))
		b.WriteString(rest[start:end])
		rest = rest[end:]
	}
	return b.String()
}

// Parse specializes raw for env and parses it as a Go template, ready
// for repeated per-manifest execution.
func Parse(raw string, env *spec.Environment) (*template.Template, error) {
	if forbiddenActionPattern.MatchString(raw) {
		return nil, kureerrors.CreateError("filename template uses an unsupported action (range/block/template/define)")
	}
	specialized := Specialize(raw, env)
	tmpl, err := template.New("filename").Funcs(funcMap).Parse(specialized)
	if err != nil {
		return nil, kureerrors.New(err, "parsing filename template")
	}
	return tmpl, nil
}

// Validate parses raw (specialized against a fabricated environment) and
// renders it against a fabricated manifest, surfacing a template error
// fast rather than per-manifest during export.
func Validate(raw string) error {
	fakeEnv := &spec.Environment{
		Metadata: spec.EnvironmentMeta{Name: "validate", Labels: map[string]string{"example": "value"}},
		Spec:     spec.EnvironmentSpec{Namespace: "validate"},
	}
	tmpl, err := Parse(raw, fakeEnv)
	if err != nil {
		return err
	}
	fakeManifest := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": "validate", "namespace": "validate"},
	}
	_, err = Render(tmpl, fakeManifest, fakeEnv, "yaml")
	return err
}

// buildContext builds the manifest fields a filename template may
// reference, ensuring metadata.labels exists as an (at least) empty map.
// It does not touch metadata.namespace; Render injects that afterwards
// with manifest.InjectNamespace.
func buildContext(m map[string]interface{}) map[string]interface{} {
	clone := map[string]interface{}{}
	for k, v := range m {
		clone[k] = v
	}
	meta, ok := clone["metadata"].(map[string]interface{})
	if !ok {
		meta = map[string]interface{}{}
	} else {
		metaClone := map[string]interface{}{}
		for k, v := range meta {
			metaClone[k] = v
		}
		meta = metaClone
	}
	if _, ok := meta["labels"].(map[string]interface{}); !ok {
		meta["labels"] = map[string]interface{}{}
	}
	clone["metadata"] = meta
	return clone
}

// Render executes tmpl against manifest (after injecting its namespace
// the same way export does), applies the rendered-path post-processing
// (dash-for-slash, restore intentional separators, split/sanitize/
// extension) and returns the final relative path.
func Render(tmpl *template.Template, m map[string]interface{}, env *spec.Environment, extension string) (string, error) {
	ctx := buildContext(m)
	manifest.InjectNamespace(ctx, env)

	var b strings.Builder
	if err := tmpl.Execute(&b, ctx); err != nil {
		return "", kureerrors.New(err, "rendering filename template")
	}
	rendered := b.String()

	// Values containing "/" (e.g. apiVersion "apps/v1") must not create
	// accidental subdirectories; BEL marks the separators the template
	// author actually wrote, restored only after the dash substitution.
	processed := strings.ReplaceAll(rendered, "/", "-")
	processed = strings.ReplaceAll(processed, belRune, "/")

	parts := strings.Split(processed, "/")
	components := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		components = append(components, sanitizeComponent(p))
	}
	if len(components) == 0 {
		return "", kureerrors.CreateError("rendered filename is empty")
	}
	components[len(components)-1] = components[len(components)-1] + "." + extension
	return strings.Join(components, "/"), nil
}

func sanitizeComponent(s string) string {
	if s == "<no value>" {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if isSafeRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func isSafeRune(r rune) bool {
	switch r {
	case '-', '_', '.', ':':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
