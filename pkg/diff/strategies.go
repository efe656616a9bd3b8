package diff

import (
	"context"
	"encoding/json"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/go-rtk/rtk/pkg/k8sclient"
	"github.com/go-rtk/rtk/pkg/kyaml"
)

func marshalJSON(m map[string]interface{}) ([]byte, error) {
	return json.Marshal(m)
}

// nativeDiff implements the spec's strategy 1: GET, dry-run-create if
// absent, else dry-run strategic-merge patch with a JSON-merge-patch
// fallback on HTTP 415 -- the same fallback pkg/patch's
// ApplyStrategicMergePatch uses locally, here driven by the cluster's
// own response instead of a local scheme lookup.
func nativeDiff(ctx context.Context, client k8sclient.Client, base ResourceDiff, desired map[string]interface{}) (ResourceDiff, error) {
	current, err := client.Get(ctx, base.GVK, base.Namespace, base.Name)
	if apierrors.IsNotFound(err) {
		return addedDiff(ctx, client, base, desired)
	}
	if err != nil {
		return base, err
	}

	data, err := marshalJSON(desired)
	if err != nil {
		return base, err
	}

	patched, err := client.PatchStrategic(ctx, base.GVK, base.Namespace, base.Name, data)
	if k8sclient.IsUnsupportedMediaType(err) {
		patched, err = client.PatchMerge(ctx, base.GVK, base.Namespace, base.Name, data)
	}
	if err != nil {
		return base, err
	}

	return compareDiff(base, current, patched)
}

// serverDiff implements strategy 2: GET, dry-run-create if absent,
// else a dry-run force-conflicts server-side-apply PATCH.
func serverDiff(ctx context.Context, client k8sclient.Client, base ResourceDiff, desired map[string]interface{}) (ResourceDiff, error) {
	current, err := client.Get(ctx, base.GVK, base.Namespace, base.Name)
	if apierrors.IsNotFound(err) {
		return addedDiff(ctx, client, base, desired)
	}
	if err != nil {
		return base, err
	}

	data, err := marshalJSON(desired)
	if err != nil {
		return base, err
	}
	patched, err := client.PatchApply(ctx, base.GVK, base.Namespace, base.Name, data)
	if err != nil {
		return base, err
	}

	return compareDiff(base, current, patched)
}

// subsetDiff implements strategy 4: filter the current object down to
// only the fields present in the manifest (structural intersection,
// arrays compared by index) and YAML-compare against the manifest
// directly -- no dry-run API call when the object exists; an absent
// object goes through addedDiff's dry-run create.
func subsetDiff(ctx context.Context, client k8sclient.Client, base ResourceDiff, desired map[string]interface{}) (ResourceDiff, error) {
	current, err := client.Get(ctx, base.GVK, base.Namespace, base.Name)
	if apierrors.IsNotFound(err) {
		return addedDiff(ctx, client, base, desired)
	}
	if err != nil {
		return base, err
	}

	strippedCurrent := stripFields(current.Object)
	strippedDesired := stripFields(desired)
	subset := intersect(strippedCurrent, strippedDesired)

	return yamlCompare(base, subset, strippedDesired)
}

func addedDiff(ctx context.Context, client k8sclient.Client, base ResourceDiff, desired map[string]interface{}) (ResourceDiff, error) {
	created, err := client.CreateDryRun(ctx, &unstructured.Unstructured{Object: desired})
	if err != nil {
		return base, err
	}
	desiredYAML, err := kyaml.Marshal(stripFields(created.Object), kyaml.Options{KubernetesFieldOrder: true})
	if err != nil {
		return base, err
	}
	base.Status = StatusAdded
	var uerr error
	base.Unified, uerr = renderUnified(base, "", string(desiredYAML))
	if uerr != nil {
		return base, uerr
	}
	return base, nil
}

func compareDiff(base ResourceDiff, current *unstructured.Unstructured, desired *unstructured.Unstructured) (ResourceDiff, error) {
	return yamlCompare(base, stripFields(current.Object), stripFields(desired.Object))
}

func yamlCompare(base ResourceDiff, current, desired map[string]interface{}) (ResourceDiff, error) {
	currentYAML, err := kyaml.Marshal(current, kyaml.Options{KubernetesFieldOrder: true})
	if err != nil {
		return base, err
	}
	desiredYAML, err := kyaml.Marshal(desired, kyaml.Options{KubernetesFieldOrder: true})
	if err != nil {
		return base, err
	}

	if string(currentYAML) == string(desiredYAML) {
		base.Status = StatusUnchanged
		return base, nil
	}

	base.Status = StatusChanged
	unified, err := renderUnified(base, string(currentYAML), string(desiredYAML))
	if err != nil {
		return base, err
	}
	base.Unified = unified
	return base, nil
}
