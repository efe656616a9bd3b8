package diff

import (
	"context"
	"strings"
	"testing"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"

	"github.com/go-rtk/rtk/pkg/k8sclient"
	"github.com/go-rtk/rtk/pkg/k8sdiscovery"
	"github.com/go-rtk/rtk/pkg/manifest"
	"github.com/go-rtk/rtk/pkg/spec"
)

func deploymentManifest(namespace, name string, replicas int) map[string]interface{} {
	return map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata": map[string]interface{}{
			"namespace": namespace,
			"name":      name,
		},
		"spec": map[string]interface{}{
			"replicas": float64(replicas),
		},
	}
}

func processed(namespace, name string, replicas int) manifest.ProcessedManifest {
	return manifest.ProcessedManifest{
		Manifest: deploymentManifest(namespace, name, replicas),
		Env:      &spec.Environment{Metadata: spec.EnvironmentMeta{Name: "test"}},
	}
}

func newFakeWithNamespace(ns string) *k8sclient.FakeClient {
	f := k8sclient.NewFake(nil)
	f.Namespaces[ns] = true
	return f
}

func TestRunReportsAddedWhenResourceAbsent(t *testing.T) {
	f := newFakeWithNamespace("default")
	e := New(f, Options{Strategy: StrategyNative}, nil)

	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("default", "web", 3)})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Status != StatusAdded {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !strings.Contains(results[0].Unified, "replicas") {
		t.Fatalf("expected unified diff to mention replicas, got %q", results[0].Unified)
	}
}

func TestRunDefersWhenNamespaceMissing(t *testing.T) {
	f := k8sclient.NewFake(nil) // no namespaces seeded
	e := New(f, Options{Strategy: StrategyNative}, nil)

	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("prod", "web", 3)})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != StatusSoonAdded {
		t.Fatalf("expected SoonAdded, got %+v", results[0])
	}
}

func TestRunReportsUnchangedWhenIdentical(t *testing.T) {
	f := newFakeWithNamespace("default")
	existing := &unstructured.Unstructured{Object: deploymentManifest("default", "web", 3)}
	f.Put(existing)

	e := New(f, Options{Strategy: StrategyNative}, nil)
	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("default", "web", 3)})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != StatusUnchanged {
		t.Fatalf("expected Unchanged, got %+v", results[0])
	}
}

func TestRunReportsChangedWhenFieldDiffers(t *testing.T) {
	f := newFakeWithNamespace("default")
	f.Put(&unstructured.Unstructured{Object: deploymentManifest("default", "web", 1)})

	e := New(f, Options{Strategy: StrategyNative}, nil)
	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("default", "web", 5)})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != StatusChanged {
		t.Fatalf("expected Changed, got %+v", results[0])
	}
}

func TestNativeStrategyFallsBackToMergePatchOn415(t *testing.T) {
	f := newFakeWithNamespace("default")
	f.Put(&unstructured.Unstructured{Object: deploymentManifest("default", "web", 1)})
	f.UnsupportedPatch["Deployment"] = true

	e := New(f, Options{Strategy: StrategyNative}, nil)
	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("default", "web", 5)})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Err != nil {
		t.Fatalf("expected 415 to be handled via merge-patch fallback, got err=%v", results[0].Err)
	}
	if results[0].Status != StatusChanged {
		t.Fatalf("expected Changed, got %+v", results[0])
	}
}

func TestSubsetStrategyIgnoresExtraClusterFields(t *testing.T) {
	f := newFakeWithNamespace("default")
	existing := deploymentManifest("default", "web", 3)
	existing["status"] = map[string]interface{}{"readyReplicas": float64(3)}
	f.Put(&unstructured.Unstructured{Object: existing})

	e := New(f, Options{Strategy: StrategySubset}, nil)
	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("default", "web", 3)})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != StatusUnchanged {
		t.Fatalf("expected Unchanged (status should be ignored by subset), got %+v", results[0])
	}
}

func TestSubsetStrategyUsesDashedHeader(t *testing.T) {
	f := newFakeWithNamespace("default")
	f.Put(&unstructured.Unstructured{Object: deploymentManifest("default", "web", 1)})

	e := New(f, Options{Strategy: StrategySubset}, nil)
	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("default", "web", 5)})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := results[0].Header(), "apps-v1.Deployment.default.web"; got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
}

func TestValidateStrategyRunsPreflightThenNative(t *testing.T) {
	f := newFakeWithNamespace("default")
	e := New(f, Options{Strategy: StrategyValidate}, nil)
	ms := []manifest.ProcessedManifest{
		processed("default", "web", 3),
		processed("default", "api", 3),
	}
	results, err := e.Run(context.Background(), ms)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Status != StatusAdded {
			t.Fatalf("expected Added for %s (neither resource exists yet), got %+v", r.Name, r)
		}
	}
}

func TestValidateStrategyAbortsOnPreflightFailure(t *testing.T) {
	f := newFakeWithNamespace("default")
	f.RejectApply["default/api"] = true

	e := New(f, Options{Strategy: StrategyValidate}, nil)
	ms := []manifest.ProcessedManifest{
		processed("default", "web", 3),
		processed("default", "api", 3),
	}
	if _, err := e.Run(context.Background(), ms); err == nil {
		t.Fatal("expected preflight failure for 'api' to abort the whole batch")
	}
}

func TestRunSortsResultsByGroupVersionKindNamespaceName(t *testing.T) {
	f := newFakeWithNamespace("default")
	e := New(f, Options{Strategy: StrategyNative}, nil)

	ms := []manifest.ProcessedManifest{
		processed("default", "zebra", 1),
		processed("default", "alpha", 1),
	}
	results, err := e.Run(context.Background(), ms)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Name != "alpha" || results[1].Name != "zebra" {
		t.Fatalf("expected sorted order alpha, zebra; got %s, %s", results[0].Name, results[1].Name)
	}
}

type listOnlyDiscovery struct {
	discovery.DiscoveryInterface
}

func (listOnlyDiscovery) ServerGroupsAndResources() ([]*metav1.APIGroup, []*metav1.APIResourceList, error) {
	return nil, []*metav1.APIResourceList{{
		GroupVersion: "apps/v1",
		APIResources: []metav1.APIResource{
			{Name: "deployments", Kind: "Deployment", Namespaced: true, Verbs: metav1.Verbs{"get", "list", "patch"}},
		},
	}}, nil
}

func TestScanPruneReportsUnmanifestedOwnedResource(t *testing.T) {
	disco := k8sdiscovery.New(listOnlyDiscovery{})
	if err := disco.Prime(); err != nil {
		t.Fatal(err)
	}
	f := k8sclient.NewFake(disco)
	f.Namespaces["default"] = true

	orphan := &unstructured.Unstructured{Object: deploymentManifest("default", "orphan", 1)}
	orphan.SetAnnotations(map[string]string{"kubectl.kubernetes.io/last-applied-configuration": "{}"})
	orphan.SetLabels(map[string]string{"tanka.dev/environment": "abc123"})
	f.Put(orphan)

	owned := &unstructured.Unstructured{Object: deploymentManifest("default", "web", 3)}
	owned.SetLabels(map[string]string{"tanka.dev/environment": "abc123"})
	f.Put(owned)

	e := New(f, Options{
		Strategy:            StrategyNative,
		WithPrune:           true,
		InjectLabelsEnabled: true,
		EnvLabel:            "abc123",
	}, nil)

	results, err := e.Run(context.Background(), []manifest.ProcessedManifest{processed("default", "web", 3)})
	if err != nil {
		t.Fatal(err)
	}

	var deleted []string
	for _, r := range results {
		if r.Status == StatusDeleted {
			deleted = append(deleted, r.Name)
		}
	}
	if len(deleted) != 1 || deleted[0] != "orphan" {
		t.Fatalf("expected exactly one Deleted diff for 'orphan', got %+v", deleted)
	}
}

func TestScanPruneUsesClosedListFallbackWhenRequested(t *testing.T) {
	// No discovery cache wired at all; UsePartialDiscoveryFallback makes
	// the prune scan still find the orphan via the fixed kind list.
	f := k8sclient.NewFake(nil)
	f.Namespaces["default"] = true

	orphan := &unstructured.Unstructured{Object: deploymentManifest("default", "orphan", 1)}
	orphan.SetAnnotations(map[string]string{"kubectl.kubernetes.io/last-applied-configuration": "{}"})
	orphan.SetLabels(map[string]string{"tanka.dev/environment": "abc123"})
	f.Put(orphan)

	e := New(f, Options{
		Strategy:                    StrategyNative,
		WithPrune:                   true,
		InjectLabelsEnabled:         true,
		EnvLabel:                    "abc123",
		UsePartialDiscoveryFallback: true,
	}, nil)

	results, err := e.Run(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Status != StatusDeleted || results[0].Name != "orphan" {
		t.Fatalf("expected a single Deleted diff for 'orphan' via the closed-list fallback, got %+v", results)
	}
}

func TestHeaderFormatsClusterScopedWithEmptyNamespace(t *testing.T) {
	d := ResourceDiff{GVK: schema.GroupVersionKind{Group: "", Version: "v1", Kind: "Namespace"}, Name: "prod"}
	if got, want := d.Header(), ".v1.Namespace..prod"; got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
}
