package diff

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"

	"github.com/go-rtk/rtk/pkg/k8sclient"
)

// ApplyOptions configures Apply.
type ApplyOptions struct {
	// ServerSide selects a force-conflicts server-side-apply PATCH over
	// the default strategic-merge-with-CRD-fallback patch.
	ServerSide bool
	Force      bool
	// Prune, when true, actually deletes resources carrying a Deleted
	// diff instead of only reporting them.
	Prune bool
}

// Apply performs the create/patch/delete calls a previously computed
// diff batch implies, confirming pkg/diff's only transport boundary is
// the injected k8sclient.Client interface rather than anything
// reimplemented here. It re-derives the desired manifest bodies from
// manifests (the same batch Run was called with) rather than from
// ResourceDiff, since ResourceDiff only carries rendered diff text.
func Apply(ctx context.Context, client k8sclient.Client, diffs []ResourceDiff, manifests []map[string]interface{}, opts ApplyOptions) error {
	byKey := make(map[string]map[string]interface{}, len(manifests))
	for _, m := range manifests {
		gvk, namespace, name, err := resourceIdentity(m)
		if err != nil {
			continue
		}
		byKey[pruneKey(gvk, namespace, name)] = m
	}

	for _, d := range diffs {
		if d.Err != nil {
			continue
		}
		k := pruneKey(d.GVK, d.Namespace, d.Name)
		switch d.Status {
		case StatusUnchanged:
			continue
		case StatusDeleted:
			if !opts.Prune {
				continue
			}
			if err := client.Delete(ctx, d.GVK, d.Namespace, d.Name); err != nil {
				return fmt.Errorf("diff: deleting %s: %w", d.Header(), err)
			}
		case StatusAdded, StatusSoonAdded:
			m, ok := byKey[k]
			if !ok {
				continue
			}
			if _, err := client.Create(ctx, &unstructured.Unstructured{Object: ensureAnnotations(m)}); err != nil {
				return fmt.Errorf("diff: creating %s: %w", d.Header(), err)
			}
		case StatusChanged:
			m, ok := byKey[k]
			if !ok {
				continue
			}
			if err := applyPatch(ctx, client, d, ensureAnnotations(m), opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyPatch(ctx context.Context, client k8sclient.Client, d ResourceDiff, m map[string]interface{}, opts ApplyOptions) error {
	data, err := marshalJSON(m)
	if err != nil {
		return err
	}

	if opts.ServerSide {
		_, err := client.Patch(ctx, d.GVK, d.Namespace, d.Name, types.ApplyPatchType, data, opts.Force)
		if err != nil {
			return fmt.Errorf("diff: server-side-apply patching %s: %w", d.Header(), err)
		}
		return nil
	}

	_, err = client.Patch(ctx, d.GVK, d.Namespace, d.Name, types.StrategicMergePatchType, data, false)
	if k8sclient.IsUnsupportedMediaType(err) {
		_, err = client.Patch(ctx, d.GVK, d.Namespace, d.Name, types.MergePatchType, data, false)
	}
	if err != nil {
		return fmt.Errorf("diff: patching %s: %w", d.Header(), err)
	}
	return nil
}

// ensureAnnotations guarantees metadata.annotations exists, matching
// kubectl's own always-present annotations map.
func ensureAnnotations(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	metadata, _ := out["metadata"].(map[string]interface{})
	meta := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if _, ok := meta["annotations"]; !ok {
		meta["annotations"] = map[string]interface{}{}
	}
	out["metadata"] = meta
	return out
}
