// Package manifest extracts Kubernetes manifests from an evaluated
// Jsonnet value tree and runs Tanka's injection pipeline over each one
// (namespace, environment label, resource defaults) before export or
// diff see them. Grounded on original_source's export.rs: extraction
// operates on the plain Go data pkg/stdlib.ToGo already produces rather
// than re-walking pkg/value's Value tree, since every caller has already
// forced the tree by the time manifests need collecting.
package manifest

import (
	"encoding/json"
	"fmt"
	"sort"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/spec"
)

// EnvironmentData pairs a parsed Environment spec with the subtree of
// its data field (or, for a single un-wrapped document, the whole
// tree) that ExtractEnvironments found it to own.
type EnvironmentData struct {
	Spec *spec.Environment
	Data interface{}
}

// ExtractEnvironments walks root for every object with kind=="Environment"
// and an apiVersion, deduplicated by metadata.name (the same Environment
// can appear at multiple JSON paths through Jsonnet's object-composition
// `+`). When none are found, root is treated as the manifests of a
// single default environment -- the static spec.json case, where the
// Environment came from pkg/discover rather than from evaluation.
func ExtractEnvironments(root interface{}, defaultEnv *spec.Environment) ([]EnvironmentData, error) {
	var found []EnvironmentData
	collectEnvironments(root, &found)

	seen := map[string]bool{}
	out := make([]EnvironmentData, 0, len(found))
	for _, e := range found {
		name := ""
		if e.Spec != nil {
			name = e.Spec.Metadata.Name
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, e)
	}

	if len(out) > 0 {
		return out, nil
	}
	return []EnvironmentData{{Spec: defaultEnv, Data: root}}, nil
}

func collectEnvironments(v interface{}, out *[]EnvironmentData) {
	switch t := v.(type) {
	case map[string]interface{}:
		if kind, _ := t["kind"].(string); kind == "Environment" {
			if _, hasAPI := t["apiVersion"]; hasAPI {
				var envSpec *spec.Environment
				if raw, err := json.Marshal(t); err == nil {
					var s spec.Environment
					if err := json.Unmarshal(raw, &s); err == nil {
						envSpec = &s
					}
				}
				*out = append(*out, EnvironmentData{Spec: envSpec, Data: t["data"]})
				return
			}
		}
		for _, k := range sortedStringKeys(t) {
			collectEnvironments(t[k], out)
		}
	case []interface{}:
		for _, item := range t {
			collectEnvironments(item, out)
		}
	}
}

// CollectManifests walks data collecting every Kubernetes-shaped object
// (one with both apiVersion and kind), expanding kind=="List" into its
// items and unwrapping a nested kind=="Environment" wrapper into its
// data field. An object with kind and metadata but no apiVersion is a
// hard error, matching Tanka's own manifest validation, with path
// identifying the offending location as a JSON-path-like string.
func CollectManifests(data interface{}, path string) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	if err := collectManifests(data, &out, path); err != nil {
		return nil, err
	}
	return out, nil
}

func collectManifests(v interface{}, out *[]map[string]interface{}, path string) error {
	switch t := v.(type) {
	case map[string]interface{}:
		_, hasAPI := t["apiVersion"]
		_, hasKind := t["kind"]
		_, hasMeta := t["metadata"]

		if hasAPI && hasKind {
			kind, _ := t["kind"].(string)
			switch kind {
			case "Environment":
				if data, ok := t["data"]; ok {
					return collectManifests(data, out, path)
				}
				return nil
			case "List":
				if items, ok := t["items"].([]interface{}); ok {
					for i, item := range items {
						if err := collectManifests(item, out, fmt.Sprintf("%s.items[%d]", path, i)); err != nil {
							return err
						}
					}
				}
				return nil
			}
			*out = append(*out, t)
			return nil
		}
		if hasKind && hasMeta && !hasAPI {
			return kureerrors.CreateError(fmt.Sprintf(
				"found invalid Kubernetes object (at %s): missing attribute \"apiVersion\"", path))
		}

		for _, k := range sortedStringKeys(t) {
			childPath := path + "." + k
			if path == "" {
				childPath = "." + k
			}
			if err := collectManifests(t[k], out, childPath); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		for i, item := range t {
			if err := collectManifests(item, out, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func sortedStringKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
