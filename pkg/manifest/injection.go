package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-rtk/rtk/pkg/spec"
)

// clusterScopedKinds is Tanka's pkg/process/namespace.go list, carried
// over verbatim: Kubernetes kinds that never take a namespace.
var clusterScopedKinds = map[string]bool{
	"APIService":                     true,
	"CertificateSigningRequest":      true,
	"ClusterRole":                    true,
	"ClusterRoleBinding":             true,
	"ComponentStatus":                true,
	"CSIDriver":                      true,
	"CSINode":                        true,
	"CustomResourceDefinition":       true,
	"MutatingWebhookConfiguration":   true,
	"Namespace":                      true,
	"Node":                           true,
	"NodeMetrics":                    true,
	"PersistentVolume":               true,
	"PodSecurityPolicy":              true,
	"PriorityClass":                  true,
	"RuntimeClass":                   true,
	"SelfSubjectAccessReview":        true,
	"SelfSubjectRulesReview":         true,
	"StorageClass":                   true,
	"SubjectAccessReview":            true,
	"TokenReview":                    true,
	"ValidatingWebhookConfiguration": true,
	"VolumeAttachment":               true,
}

// IsClusterScoped reports whether kind is never namespaced.
func IsClusterScoped(kind string) bool { return clusterScopedKinds[kind] }

func ensureMetadata(m map[string]interface{}) map[string]interface{} {
	meta, ok := m["metadata"].(map[string]interface{})
	if !ok {
		meta = map[string]interface{}{}
		m["metadata"] = meta
	}
	return meta
}

// InjectNamespace sets metadata.namespace from env.Spec.Namespace unless
// the resource is cluster-scoped, already carries a non-empty namespace,
// or a tanka.dev/namespaced annotation explicitly overrides the scope
// (the same escape hatch Tanka's process.go honors for CRDs whose
// namespacing isn't known from the kind alone).
func InjectNamespace(manifest map[string]interface{}, env *spec.Environment) {
	kind, _ := manifest["kind"].(string)
	namespaced := !IsClusterScoped(kind)

	meta := ensureMetadata(manifest)
	if annotations, ok := meta["annotations"].(map[string]interface{}); ok {
		if v, ok := annotations["tanka.dev/namespaced"].(string); ok {
			namespaced = v == "true"
		}
	}
	if !namespaced {
		return
	}
	if ns, ok := meta["namespace"].(string); ok && ns != "" {
		return
	}
	if env == nil || env.Spec.Namespace == "" {
		return
	}
	meta["namespace"] = env.Spec.Namespace
}

// InjectEnvironmentLabel sets metadata.labels["tanka.dev/environment"]
// when env.Spec.InjectLabels is true.
func InjectEnvironmentLabel(manifest map[string]interface{}, env *spec.Environment) {
	if env == nil || !env.Spec.InjectLabels {
		return
	}
	meta := ensureMetadata(manifest)
	labels, ok := meta["labels"].(map[string]interface{})
	if !ok {
		labels = map[string]interface{}{}
		meta["labels"] = labels
	}
	labels["tanka.dev/environment"] = GenerateEnvironmentLabel(env)
}

// GenerateEnvironmentLabel hashes "name:namespace" with SHA256 and
// truncates to 48 hex characters, matching Tanka's NameLabel().
func GenerateEnvironmentLabel(env *spec.Environment) string {
	parts := fmt.Sprintf("%s:%s", env.Metadata.Name, env.Metadata.Namespace)
	sum := sha256.Sum256([]byte(parts))
	hexStr := hex.EncodeToString(sum[:])
	if len(hexStr) > 48 {
		return hexStr[:48]
	}
	return hexStr
}

// InjectResourceDefaults merges env.Spec.ResourceDefaults' annotations
// and labels into the manifest's metadata without overriding keys the
// manifest already sets explicitly.
func InjectResourceDefaults(manifest map[string]interface{}, env *spec.Environment) {
	if env == nil || env.Spec.ResourceDefaults == nil {
		return
	}
	defaults := env.Spec.ResourceDefaults
	meta := ensureMetadata(manifest)

	mergeInto := func(key string) {
		defaultVals, ok := defaults[key].(map[string]interface{})
		if !ok {
			return
		}
		existing, ok := meta[key].(map[string]interface{})
		if !ok {
			// Helm templates can leave `annotations:`/`labels:` as null,
			// or the key absent entirely; either way start fresh.
			existing = map[string]interface{}{}
			meta[key] = existing
		}
		for k, v := range defaultVals {
			if _, present := existing[k]; !present {
				existing[k] = v
			}
		}
	}
	mergeInto("annotations")
	mergeInto("labels")
}

func isEmptyOrNullMap(v interface{}) bool {
	if v == nil {
		return true
	}
	m, ok := v.(map[string]interface{})
	return ok && len(m) == 0
}

// StripNullMetadataFields removes metadata.annotations/labels when they
// ended up null or empty, matching Kubernetes' own omission of empty
// maps from stored objects.
func StripNullMetadataFields(manifest map[string]interface{}) {
	meta, ok := manifest["metadata"].(map[string]interface{})
	if !ok {
		return
	}
	for _, key := range []string{"annotations", "labels"} {
		if isEmptyOrNullMap(meta[key]) {
			delete(meta, key)
		}
	}
}

// ProcessedManifest is a single manifest after the full injection
// pipeline, tagged with the environment it was processed under.
type ProcessedManifest struct {
	Manifest map[string]interface{}
	Env      *spec.Environment
}

// Process extracts environments from root, collects each one's
// manifests, and applies the injection pipeline in Tanka's order:
// namespace, environment label, resource defaults, then strips any
// resulting empty metadata fields.
func Process(root interface{}, defaultEnv *spec.Environment) ([]ProcessedManifest, error) {
	envs, err := ExtractEnvironments(root, defaultEnv)
	if err != nil {
		return nil, err
	}

	var out []ProcessedManifest
	for _, e := range envs {
		manifests, err := CollectManifests(e.Data, "")
		if err != nil {
			return nil, err
		}
		for _, m := range manifests {
			InjectNamespace(m, e.Spec)
			InjectEnvironmentLabel(m, e.Spec)
			InjectResourceDefaults(m, e.Spec)
			StripNullMetadataFields(m)
			out = append(out, ProcessedManifest{Manifest: m, Env: e.Spec})
		}
	}
	return out, nil
}
