package k8sclient

import (
	"context"
	"encoding/json"
	"sort"

	jsonpatch "github.com/evanphx/json-patch/v5"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"

	"github.com/go-rtk/rtk/pkg/k8sdiscovery"
)

// FakeClient is an in-memory Client for pkg/diff's tests, grounded on
// the same object+namespace map shape a real cluster exposes rather
// than recording call expectations -- tests set up cluster state, run
// a strategy, and assert on the resulting ResourceDiff.
type FakeClient struct {
	Objects    map[schema.GroupVersionKind]map[string]*unstructured.Unstructured // key: namespace/name
	Namespaces map[string]bool
	// UnsupportedPatch, when non-empty, lists kinds whose
	// PatchStrategic call returns IsUnsupportedMediaType, simulating a
	// CRD the Native strategy must fall back to PatchMerge for.
	UnsupportedPatch map[string]bool
	// RejectApply, when non-empty, lists "namespace/name" keys whose
	// PatchApply call fails outright, simulating a server-side-apply
	// dry-run rejecting a malformed manifest during Validate's
	// pre-flight pass.
	RejectApply map[string]bool
	disco       *k8sdiscovery.Cache
}

// NewFake builds an empty FakeClient. disco may be nil if the scenario
// under test never needs a real discovery lookup (FakeClient doesn't
// consult it for resource naming).
func NewFake(disco *k8sdiscovery.Cache) *FakeClient {
	return &FakeClient{
		Objects:          map[schema.GroupVersionKind]map[string]*unstructured.Unstructured{},
		Namespaces:       map[string]bool{},
		UnsupportedPatch: map[string]bool{},
		RejectApply:      map[string]bool{},
		disco:            disco,
	}
}

func key(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// Put seeds obj into the fake cluster as existing state.
func (f *FakeClient) Put(obj *unstructured.Unstructured) {
	gvk := obj.GroupVersionKind()
	if f.Objects[gvk] == nil {
		f.Objects[gvk] = map[string]*unstructured.Unstructured{}
	}
	f.Objects[gvk][key(obj.GetNamespace(), obj.GetName())] = obj.DeepCopy()
}

func (f *FakeClient) Discovery() *k8sdiscovery.Cache { return f.disco }

func (f *FakeClient) Get(_ context.Context, gvk schema.GroupVersionKind, namespace, name string) (*unstructured.Unstructured, error) {
	if m, ok := f.Objects[gvk]; ok {
		if obj, ok := m[key(namespace, name)]; ok {
			return obj.DeepCopy(), nil
		}
	}
	return nil, apierrors.NewNotFound(schema.GroupResource{Group: gvk.Group, Resource: gvk.Kind}, name)
}

func (f *FakeClient) CreateDryRun(_ context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	// A dry-run create returns the server-mutated form; the fake has no
	// admission/defaulting webhooks to simulate, so it echoes obj back
	// unchanged without storing it.
	return obj.DeepCopy(), nil
}

func (f *FakeClient) patch(gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error) {
	existing, err := f.Get(context.Background(), gvk, namespace, name)
	if err != nil {
		return nil, err
	}
	existingJSON, err := json.Marshal(existing.Object)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(existingJSON, data)
	if err != nil {
		return nil, err
	}
	var out unstructured.Unstructured
	if err := json.Unmarshal(merged, &out.Object); err != nil {
		return nil, err
	}
	return &out, nil
}

func (f *FakeClient) PatchStrategic(_ context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error) {
	if f.UnsupportedPatch[gvk.Kind] {
		return nil, apierrors.NewGenericServerResponse(415, "patch", schema.GroupResource{Group: gvk.Group, Resource: gvk.Kind}, name, "strategic merge patch not supported", 0, false)
	}
	return f.patch(gvk, namespace, name, data)
}

func (f *FakeClient) PatchMerge(_ context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error) {
	return f.patch(gvk, namespace, name, data)
}

// PatchApply simulates server-side-apply's upsert semantics: applying
// to a resource that doesn't exist yet creates it from the patch body,
// matching a real apiserver's dry-run SSA response.
func (f *FakeClient) PatchApply(_ context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error) {
	if f.RejectApply[key(namespace, name)] {
		return nil, apierrors.NewInvalid(schema.GroupKind{Group: gvk.Group, Kind: gvk.Kind}, name, nil)
	}
	merged, err := f.patch(gvk, namespace, name, data)
	if apierrors.IsNotFound(err) {
		var out unstructured.Unstructured
		if jerr := json.Unmarshal(data, &out.Object); jerr != nil {
			return nil, jerr
		}
		return &out, nil
	}
	return merged, err
}

func (f *FakeClient) List(_ context.Context, gvk schema.GroupVersionKind, namespace, labelSelector string) ([]unstructured.Unstructured, error) {
	sel, err := labels.Parse(labelSelector)
	if err != nil {
		return nil, err
	}
	var out []unstructured.Unstructured
	var keys []string
	m := f.Objects[gvk]
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		obj := m[k]
		if namespace != "" && obj.GetNamespace() != namespace {
			continue
		}
		if !sel.Matches(labels.Set(obj.GetLabels())) {
			continue
		}
		out = append(out, *obj.DeepCopy())
	}
	return out, nil
}

func (f *FakeClient) NamespaceExists(_ context.Context, name string) (bool, error) {
	return f.Namespaces[name], nil
}

func (f *FakeClient) Create(_ context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	f.Put(obj)
	return obj.DeepCopy(), nil
}

func (f *FakeClient) Patch(_ context.Context, gvk schema.GroupVersionKind, namespace, name string, pt types.PatchType, data []byte, _ bool) (*unstructured.Unstructured, error) {
	merged, err := f.patch(gvk, namespace, name, data)
	if apierrors.IsNotFound(err) && pt == types.ApplyPatchType {
		merged = &unstructured.Unstructured{}
		if jerr := json.Unmarshal(data, &merged.Object); jerr != nil {
			return nil, jerr
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}
	f.Put(merged)
	return merged.DeepCopy(), nil
}

func (f *FakeClient) Delete(_ context.Context, gvk schema.GroupVersionKind, namespace, name string) error {
	if m, ok := f.Objects[gvk]; ok {
		delete(m, key(namespace, name))
	}
	return nil
}

var _ Client = (*FakeClient)(nil)
