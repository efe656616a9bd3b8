package k8sclient

import (
	"context"
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func deployment(namespace, name string, labels map[string]string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]interface{}{
			"namespace": namespace,
			"name":      name,
		},
	}}
	if labels != nil {
		m := map[string]interface{}{}
		for k, v := range labels {
			m[k] = v
		}
		obj.Object["metadata"].(map[string]interface{})["labels"] = m
	}
	return obj
}

func TestFakeGetNotFound(t *testing.T) {
	f := NewFake(nil)
	_, err := f.Get(context.Background(), schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, "default", "web")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestFakeGetReturnsSeededObject(t *testing.T) {
	f := NewFake(nil)
	f.Put(deployment("default", "web", nil))

	obj, err := f.Get(context.Background(), schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, "default", "web")
	if err != nil {
		t.Fatal(err)
	}
	if obj.GetName() != "web" || obj.GetNamespace() != "default" {
		t.Fatalf("unexpected object: %+v", obj.Object)
	}
}

func TestFakePatchMergeAppliesChange(t *testing.T) {
	f := NewFake(nil)
	f.Put(deployment("default", "web", nil))
	gvk := schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}

	patched, err := f.PatchMerge(context.Background(), gvk, "default", "web", []byte(`{"metadata":{"labels":{"tier":"backend"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if patched.GetLabels()["tier"] != "backend" {
		t.Fatalf("expected label to be merged in, got %+v", patched.Object)
	}

	// the seeded object itself is untouched until the caller re-Puts it.
	original, err := f.Get(context.Background(), gvk, "default", "web")
	if err != nil {
		t.Fatal(err)
	}
	if len(original.GetLabels()) != 0 {
		t.Fatalf("expected stored object unchanged, got %+v", original.Object)
	}
}

func TestFakePatchStrategicFallsBackOn415(t *testing.T) {
	f := NewFake(nil)
	f.Put(deployment("default", "web", nil))
	f.UnsupportedPatch["Deployment"] = true
	gvk := schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}

	_, err := f.PatchStrategic(context.Background(), gvk, "default", "web", []byte(`{}`))
	if !IsUnsupportedMediaType(err) {
		t.Fatalf("expected unsupported media type error, got %v", err)
	}

	// the Native strategy's fallback path: a plain merge patch still works.
	if _, err := f.PatchMerge(context.Background(), gvk, "default", "web", []byte(`{}`)); err != nil {
		t.Fatalf("expected merge patch fallback to succeed, got %v", err)
	}
}

func TestFakeListFiltersByNamespaceAndLabelSelector(t *testing.T) {
	f := NewFake(nil)
	gvk := schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}
	f.Put(deployment("default", "web", map[string]string{"tanka.dev/environment": "abc"}))
	f.Put(deployment("default", "other", nil))
	f.Put(deployment("kube-system", "web2", map[string]string{"tanka.dev/environment": "abc"}))

	items, err := f.List(context.Background(), gvk, "default", "tanka.dev/environment=abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].GetName() != "web" {
		t.Fatalf("unexpected list result: %+v", items)
	}
}

func TestFakeNamespaceExists(t *testing.T) {
	f := NewFake(nil)
	f.Namespaces["default"] = true

	ok, err := f.NamespaceExists(context.Background(), "default")
	if err != nil || !ok {
		t.Fatalf("expected default namespace to exist, ok=%v err=%v", ok, err)
	}

	ok, err = f.NamespaceExists(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("expected missing namespace to be absent, ok=%v err=%v", ok, err)
	}
}

func TestFakeCreateDryRunDoesNotPersist(t *testing.T) {
	f := NewFake(nil)
	gvk := schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}

	obj := deployment("default", "web", nil)
	if _, err := f.CreateDryRun(context.Background(), obj); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Get(context.Background(), gvk, "default", "web"); !IsNotFound(err) {
		t.Fatalf("expected dry-run create to leave no trace, got err=%v", err)
	}
}
