package diff

import (
	"context"
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/go-rtk/rtk/pkg/k8sclient"
)

var deploymentGVK = schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}

func TestApplyCreatesAddedResource(t *testing.T) {
	f := newFakeWithNamespace("default")
	m := deploymentManifest("default", "web", 3)
	diffs := []ResourceDiff{{GVK: deploymentGVK, Namespace: "default", Name: "web", Status: StatusAdded}}

	if err := Apply(context.Background(), f, diffs, []map[string]interface{}{m}, ApplyOptions{}); err != nil {
		t.Fatal(err)
	}

	obj, err := f.Get(context.Background(), deploymentGVK, "default", "web")
	if err != nil {
		t.Fatal(err)
	}
	if obj.GetAnnotations() == nil {
		t.Fatal("expected ensureAnnotations to leave a non-nil annotations map on the created object")
	}
}

func TestApplyPatchesChangedResourceClientSide(t *testing.T) {
	f := newFakeWithNamespace("default")
	f.Put(&unstructured.Unstructured{Object: deploymentManifest("default", "web", 1)})
	m := deploymentManifest("default", "web", 9)
	diffs := []ResourceDiff{{GVK: deploymentGVK, Namespace: "default", Name: "web", Status: StatusChanged}}

	if err := Apply(context.Background(), f, diffs, []map[string]interface{}{m}, ApplyOptions{}); err != nil {
		t.Fatal(err)
	}

	obj, err := f.Get(context.Background(), deploymentGVK, "default", "web")
	if err != nil {
		t.Fatal(err)
	}
	replicas := obj.Object["spec"].(map[string]interface{})["replicas"]
	if replicas != float64(9) {
		t.Fatalf("expected replicas patched to 9, got %v", replicas)
	}
}

func TestApplySkipsDeletedUnlessPruneEnabled(t *testing.T) {
	f := newFakeWithNamespace("default")
	f.Put(&unstructured.Unstructured{Object: deploymentManifest("default", "orphan", 1)})
	diffs := []ResourceDiff{{GVK: deploymentGVK, Namespace: "default", Name: "orphan", Status: StatusDeleted}}

	if err := Apply(context.Background(), f, diffs, nil, ApplyOptions{Prune: false}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Get(context.Background(), deploymentGVK, "default", "orphan"); err != nil {
		t.Fatal("expected orphan to survive when Prune is disabled")
	}

	if err := Apply(context.Background(), f, diffs, nil, ApplyOptions{Prune: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Get(context.Background(), deploymentGVK, "default", "orphan"); !k8sclient.IsNotFound(err) {
		t.Fatal("expected orphan to be deleted once Prune is enabled")
	}
}
