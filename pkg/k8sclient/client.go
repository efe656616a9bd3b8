// Package k8sclient is the thin collaborator pkg/diff talks to instead
// of calling k8s.io/client-go/dynamic directly: GET, strategic-merge and
// JSON-merge PATCH, dry-run POST/PATCH, and label-selector LIST, each
// scoped to a single (group, version, kind, namespace). None of the
// example repos wire a live cluster client (the teacher's internal/k8s
// and internal/kubernetes packages only build typed objects locally,
// never talk to a server), so this package is grounded on
// k8s.io/client-go/dynamic's own idiom directly -- the teacher's go.mod
// already carries client-go transitively for the diff engine to use,
// and dynamic.Interface is the standard way Go tools diff arbitrary
// GVKs the way Tanka/kubectl do.
package k8sclient

import (
	"context"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"

	"github.com/go-rtk/rtk/pkg/k8sdiscovery"
)

// FieldManager is the field-manager name every server-side-apply PATCH
// this tool issues identifies itself with.
const FieldManager = "tanka"

// Client is pkg/diff's entire surface onto a live cluster.
type Client interface {
	Get(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string) (*unstructured.Unstructured, error)
	// CreateDryRun performs a dry-run create, returning the server-
	// mutated form used to compute an Added diff without persisting
	// anything.
	CreateDryRun(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	// PatchStrategic issues a dry-run strategic-merge patch (Native
	// strategy). A CRD that doesn't support strategic-merge answers with
	// HTTP 415, which IsUnsupportedMediaType detects, so the caller can
	// fall back to PatchMerge.
	PatchStrategic(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error)
	// PatchMerge issues a dry-run RFC 7386 JSON merge patch, the
	// strategic-merge fallback for CRDs.
	PatchMerge(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error)
	// PatchApply issues a dry-run, force-conflicts server-side-apply
	// PATCH under FieldManager (Server strategy, and Validate's
	// pre-flight check).
	PatchApply(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error)
	// List returns every resource of gvk matching selector, namespace
	// "" meaning cluster-scoped or all-namespaces.
	List(ctx context.Context, gvk schema.GroupVersionKind, namespace, labelSelector string) ([]unstructured.Unstructured, error)
	// NamespaceExists backs the SoonAdded namespace-deferral check.
	NamespaceExists(ctx context.Context, name string) (bool, error)
	// Discovery exposes the resource-scope cache so callers can map a
	// GVK to its plural resource name and namespaced bit.
	Discovery() *k8sdiscovery.Cache

	// Create performs a real (non-dry-run) create, used by pkg/diff's
	// Apply surface when a resource doesn't exist yet.
	Create(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error)
	// Patch performs a real (non-dry-run) patch of the given type,
	// force-conflicts when force is true (only meaningful for
	// types.ApplyPatchType).
	Patch(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, pt types.PatchType, data []byte, force bool) (*unstructured.Unstructured, error)
	// Delete performs a real delete, used by pkg/diff's Apply surface
	// to act on Deleted (prune) diffs.
	Delete(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string) error
}

// dynamicClient is the Client backed by a real cluster connection.
type dynamicClient struct {
	dyn   dynamic.Interface
	disco *k8sdiscovery.Cache
}

// New builds a Client from an already-constructed dynamic client and
// discovery interface (assembled by cmd/rtk from a *rest.Config).
func New(dyn dynamic.Interface, discoClient discovery.DiscoveryInterface) Client {
	return &dynamicClient{dyn: dyn, disco: k8sdiscovery.New(discoClient)}
}

func (c *dynamicClient) Discovery() *k8sdiscovery.Cache { return c.disco }

func (c *dynamicClient) resourceFor(gvk schema.GroupVersionKind, namespace string) (dynamic.ResourceInterface, error) {
	res, err := c.disco.Lookup(gvk)
	if err != nil {
		return nil, err
	}
	gvr := schema.GroupVersionResource{Group: gvk.Group, Version: gvk.Version, Resource: res.Name}
	ri := c.dyn.Resource(gvr)
	if res.Namespaced && namespace != "" {
		return ri.Namespace(namespace), nil
	}
	return ri, nil
}

func (c *dynamicClient) Get(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string) (*unstructured.Unstructured, error) {
	ri, err := c.resourceFor(gvk, namespace)
	if err != nil {
		return nil, err
	}
	return ri.Get(ctx, name, metav1.GetOptions{})
}

func (c *dynamicClient) CreateDryRun(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	gvk := obj.GroupVersionKind()
	ri, err := c.resourceFor(gvk, obj.GetNamespace())
	if err != nil {
		return nil, err
	}
	return ri.Create(ctx, obj, metav1.CreateOptions{DryRun: []string{metav1.DryRunAll}, FieldManager: FieldManager})
}

func (c *dynamicClient) PatchStrategic(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error) {
	ri, err := c.resourceFor(gvk, namespace)
	if err != nil {
		return nil, err
	}
	return ri.Patch(ctx, name, types.StrategicMergePatchType, data, metav1.PatchOptions{DryRun: []string{metav1.DryRunAll}})
}

func (c *dynamicClient) PatchMerge(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error) {
	ri, err := c.resourceFor(gvk, namespace)
	if err != nil {
		return nil, err
	}
	return ri.Patch(ctx, name, types.MergePatchType, data, metav1.PatchOptions{DryRun: []string{metav1.DryRunAll}})
}

func (c *dynamicClient) PatchApply(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, data []byte) (*unstructured.Unstructured, error) {
	ri, err := c.resourceFor(gvk, namespace)
	if err != nil {
		return nil, err
	}
	force := true
	return ri.Patch(ctx, name, types.ApplyPatchType, data, metav1.PatchOptions{
		DryRun:       []string{metav1.DryRunAll},
		Force:        &force,
		FieldManager: FieldManager,
	})
}

func (c *dynamicClient) List(ctx context.Context, gvk schema.GroupVersionKind, namespace, labelSelector string) ([]unstructured.Unstructured, error) {
	ri, err := c.resourceFor(gvk, namespace)
	if err != nil {
		return nil, err
	}
	list, err := ri.List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (c *dynamicClient) Create(ctx context.Context, obj *unstructured.Unstructured) (*unstructured.Unstructured, error) {
	gvk := obj.GroupVersionKind()
	ri, err := c.resourceFor(gvk, obj.GetNamespace())
	if err != nil {
		return nil, err
	}
	return ri.Create(ctx, obj, metav1.CreateOptions{FieldManager: FieldManager})
}

func (c *dynamicClient) Patch(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string, pt types.PatchType, data []byte, force bool) (*unstructured.Unstructured, error) {
	ri, err := c.resourceFor(gvk, namespace)
	if err != nil {
		return nil, err
	}
	opts := metav1.PatchOptions{FieldManager: FieldManager}
	if pt == types.ApplyPatchType && force {
		opts.Force = &force
	}
	return ri.Patch(ctx, name, pt, data, opts)
}

func (c *dynamicClient) Delete(ctx context.Context, gvk schema.GroupVersionKind, namespace, name string) error {
	ri, err := c.resourceFor(gvk, namespace)
	if err != nil {
		return err
	}
	return ri.Delete(ctx, name, metav1.DeleteOptions{})
}

func (c *dynamicClient) NamespaceExists(ctx context.Context, name string) (bool, error) {
	gvk := schema.GroupVersionKind{Group: "", Version: "v1", Kind: "Namespace"}
	_, err := c.Get(ctx, gvk, "", name)
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("k8sclient: checking namespace %s: %w", name, err)
}
