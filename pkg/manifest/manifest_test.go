package manifest

import (
	"testing"

	"github.com/go-rtk/rtk/pkg/spec"
)

func TestCollectManifestsExpandsList(t *testing.T) {
	data := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "List",
		"items": []interface{}{
			map[string]interface{}{"apiVersion": "v1", "kind": "ConfigMap", "metadata": map[string]interface{}{"name": "a"}},
			map[string]interface{}{"apiVersion": "v1", "kind": "ConfigMap", "metadata": map[string]interface{}{"name": "b"}},
		},
	}
	out, err := CollectManifests(data, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 manifests, got %d", len(out))
	}
}

func TestCollectManifestsUnwrapsEnvironment(t *testing.T) {
	data := map[string]interface{}{
		"apiVersion": "rtk.dev/v1alpha1",
		"kind":       "Environment",
		"data": map[string]interface{}{
			"cm": map[string]interface{}{"apiVersion": "v1", "kind": "ConfigMap", "metadata": map[string]interface{}{"name": "a"}},
		},
	}
	out, err := CollectManifests(data, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 manifest, got %d", len(out))
	}
}

func TestCollectManifestsMissingAPIVersionErrors(t *testing.T) {
	data := map[string]interface{}{
		"foo": map[string]interface{}{
			"kind":     "ConfigMap",
			"metadata": map[string]interface{}{"name": "a"},
		},
	}
	_, err := CollectManifests(data, "")
	if err == nil {
		t.Fatal("expected missing apiVersion error")
	}
	if got := err.Error(); got != `found invalid Kubernetes object (at .foo): missing attribute "apiVersion"` {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestExtractEnvironmentsDeduplicatesByName(t *testing.T) {
	env := func(name string) map[string]interface{} {
		return map[string]interface{}{
			"apiVersion": "rtk.dev/v1alpha1",
			"kind":       "Environment",
			"metadata":   map[string]interface{}{"name": name},
			"spec":       map[string]interface{}{"namespace": "default"},
			"data":       map[string]interface{}{},
		}
	}
	root := map[string]interface{}{
		"a": env("dup"),
		"b": env("dup"),
		"c": env("unique"),
	}
	envs, err := ExtractEnvironments(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected 2 distinct environments, got %d", len(envs))
	}
}

func TestExtractEnvironmentsFallsBackToDefault(t *testing.T) {
	defaultEnv := &spec.Environment{Metadata: spec.EnvironmentMeta{Name: "static"}}
	root := map[string]interface{}{"foo": "bar"}
	envs, err := ExtractEnvironments(root, defaultEnv)
	if err != nil {
		t.Fatal(err)
	}
	if len(envs) != 1 || envs[0].Spec != defaultEnv {
		t.Fatalf("expected fallback to default environment, got %+v", envs)
	}
}

func TestInjectNamespaceSkipsClusterScoped(t *testing.T) {
	env := &spec.Environment{Spec: spec.EnvironmentSpec{Namespace: "prod"}}
	manifest := map[string]interface{}{
		"apiVersion": "rbac.authorization.k8s.io/v1",
		"kind":       "ClusterRole",
		"metadata":   map[string]interface{}{"name": "x"},
	}
	InjectNamespace(manifest, env)
	meta := manifest["metadata"].(map[string]interface{})
	if _, ok := meta["namespace"]; ok {
		t.Fatalf("did not expect namespace on cluster-scoped kind, got %+v", meta)
	}
}

func TestInjectNamespaceHonorsAnnotationOverride(t *testing.T) {
	env := &spec.Environment{Spec: spec.EnvironmentSpec{Namespace: "prod"}}
	manifest := map[string]interface{}{
		"apiVersion": "example.com/v1",
		"kind":       "SomeCRD",
		"metadata": map[string]interface{}{
			"name":        "x",
			"annotations": map[string]interface{}{"tanka.dev/namespaced": "false"},
		},
	}
	InjectNamespace(manifest, env)
	meta := manifest["metadata"].(map[string]interface{})
	if _, ok := meta["namespace"]; ok {
		t.Fatalf("annotation override should have suppressed injection, got %+v", meta)
	}
}

func TestInjectNamespaceDefaultNamespacedKind(t *testing.T) {
	env := &spec.Environment{Spec: spec.EnvironmentSpec{Namespace: "prod"}}
	manifest := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": "x"},
	}
	InjectNamespace(manifest, env)
	meta := manifest["metadata"].(map[string]interface{})
	if meta["namespace"] != "prod" {
		t.Fatalf("expected injected namespace, got %+v", meta)
	}
}

func TestInjectNamespaceDoesNotOverrideExisting(t *testing.T) {
	env := &spec.Environment{Spec: spec.EnvironmentSpec{Namespace: "prod"}}
	manifest := map[string]interface{}{
		"apiVersion": "v1",
		"kind":       "ConfigMap",
		"metadata":   map[string]interface{}{"name": "x", "namespace": "kube-system"},
	}
	InjectNamespace(manifest, env)
	meta := manifest["metadata"].(map[string]interface{})
	if meta["namespace"] != "kube-system" {
		t.Fatalf("expected existing namespace preserved, got %+v", meta)
	}
}

func TestInjectEnvironmentLabelRequiresInjectLabels(t *testing.T) {
	env := &spec.Environment{
		Metadata: spec.EnvironmentMeta{Name: "env1", Namespace: "ns1"},
		Spec:     spec.EnvironmentSpec{InjectLabels: false},
	}
	manifest := map[string]interface{}{"metadata": map[string]interface{}{"name": "x"}}
	InjectEnvironmentLabel(manifest, env)
	meta := manifest["metadata"].(map[string]interface{})
	if _, ok := meta["labels"]; ok {
		t.Fatalf("did not expect labels without injectLabels, got %+v", meta)
	}
}

func TestGenerateEnvironmentLabelIsDeterministicAndTruncated(t *testing.T) {
	env := &spec.Environment{Metadata: spec.EnvironmentMeta{Name: "env1", Namespace: "ns1"}}
	got := GenerateEnvironmentLabel(env)
	if len(got) != 48 {
		t.Fatalf("expected 48 hex chars, got %d (%q)", len(got), got)
	}
	if got2 := GenerateEnvironmentLabel(env); got != got2 {
		t.Fatalf("expected deterministic label, got %q and %q", got, got2)
	}
}

func TestInjectResourceDefaultsDoesNotOverrideExisting(t *testing.T) {
	env := &spec.Environment{
		Spec: spec.EnvironmentSpec{
			ResourceDefaults: map[string]interface{}{
				"annotations": map[string]interface{}{"team": "platform", "owner": "x"},
			},
		},
	}
	manifest := map[string]interface{}{
		"metadata": map[string]interface{}{
			"annotations": map[string]interface{}{"team": "checkout"},
		},
	}
	InjectResourceDefaults(manifest, env)
	annotations := manifest["metadata"].(map[string]interface{})["annotations"].(map[string]interface{})
	if annotations["team"] != "checkout" {
		t.Fatalf("expected existing annotation preserved, got %+v", annotations)
	}
	if annotations["owner"] != "x" {
		t.Fatalf("expected default annotation merged in, got %+v", annotations)
	}
}

func TestInjectResourceDefaultsTreatsNullAnnotationsAsAbsent(t *testing.T) {
	env := &spec.Environment{
		Spec: spec.EnvironmentSpec{
			ResourceDefaults: map[string]interface{}{
				"labels": map[string]interface{}{"team": "platform"},
			},
		},
	}
	manifest := map[string]interface{}{
		"metadata": map[string]interface{}{"labels": nil},
	}
	InjectResourceDefaults(manifest, env)
	labels := manifest["metadata"].(map[string]interface{})["labels"].(map[string]interface{})
	if labels["team"] != "platform" {
		t.Fatalf("expected default label merged into null labels field, got %+v", labels)
	}
}

func TestStripNullMetadataFields(t *testing.T) {
	manifest := map[string]interface{}{
		"metadata": map[string]interface{}{
			"name":        "x",
			"annotations": map[string]interface{}{},
			"labels":      nil,
		},
	}
	StripNullMetadataFields(manifest)
	meta := manifest["metadata"].(map[string]interface{})
	if _, ok := meta["annotations"]; ok {
		t.Fatalf("expected empty annotations stripped, got %+v", meta)
	}
	if _, ok := meta["labels"]; ok {
		t.Fatalf("expected null labels stripped, got %+v", meta)
	}
	if meta["name"] != "x" {
		t.Fatalf("expected name preserved, got %+v", meta)
	}
}

func TestProcessAppliesFullPipeline(t *testing.T) {
	root := map[string]interface{}{
		"env": map[string]interface{}{
			"apiVersion": "rtk.dev/v1alpha1",
			"kind":       "Environment",
			"metadata":   map[string]interface{}{"name": "env1", "namespace": "ns1"},
			"spec": map[string]interface{}{
				"namespace":    "ns1",
				"injectLabels": true,
			},
			"data": map[string]interface{}{
				"cm": map[string]interface{}{
					"apiVersion": "v1",
					"kind":       "ConfigMap",
					"metadata":   map[string]interface{}{"name": "cfg"},
				},
			},
		},
	}
	out, err := Process(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 manifest, got %d", len(out))
	}
	meta := out[0].Manifest["metadata"].(map[string]interface{})
	if meta["namespace"] != "ns1" {
		t.Fatalf("expected injected namespace, got %+v", meta)
	}
	labels, ok := meta["labels"].(map[string]interface{})
	if !ok || labels["tanka.dev/environment"] == "" {
		t.Fatalf("expected environment label injected, got %+v", meta)
	}
}
