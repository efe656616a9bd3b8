package diff

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/go-rtk/rtk/pkg/kyaml"
)

// owningManagers is the closed set of field managers a prune scan
// treats as "this tool (or something compatible with it) created this
// resource" -- carrying kustomize-controller alongside tanka/kubectl
// since Flux's in-cluster kustomize-controller applies manifests the
// same way this tool's export pipeline would.
var owningManagers = map[string]bool{
	"tanka":                     true,
	"kubectl-client-side-apply": true,
	"kustomize-controller":      true,
}

const lastAppliedAnnotation = "kubectl.kubernetes.io/last-applied-configuration"
const environmentLabelKey = "tanka.dev/environment"

// closedListKinds is the fixed core/apps/batch/networking/rbac fallback
// Tanka's own orphan scan uses when full discovery aggregation isn't
// available; every kind here is assumed list-capable without needing
// a discovery document to confirm it.
var closedListKinds = []schema.GroupVersionKind{
	{Group: "", Version: "v1", Kind: "ConfigMap"},
	{Group: "", Version: "v1", Kind: "Secret"},
	{Group: "", Version: "v1", Kind: "Service"},
	{Group: "", Version: "v1", Kind: "ServiceAccount"},
	{Group: "", Version: "v1", Kind: "PersistentVolumeClaim"},
	{Group: "apps", Version: "v1", Kind: "Deployment"},
	{Group: "apps", Version: "v1", Kind: "StatefulSet"},
	{Group: "apps", Version: "v1", Kind: "DaemonSet"},
	{Group: "batch", Version: "v1", Kind: "Job"},
	{Group: "batch", Version: "v1", Kind: "CronJob"},
	{Group: "networking.k8s.io", Version: "v1", Kind: "Ingress"},
	{Group: "networking.k8s.io", Version: "v1", Kind: "NetworkPolicy"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "Role"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "RoleBinding"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRole"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRoleBinding"},
}

// pruneTargets returns the (gvk) list scanPrune enumerates: the full
// discovery cache ordinarily, or the fixed closedListKinds when
// opts.UsePartialDiscoveryFallback is set (or no discovery cache is
// wired at all) -- mirroring the real Tanka implementation's hardcoded
// kind list as a fallback path for clusters without aggregated
// discovery.
func (e *Engine) pruneTargets() []schema.GroupVersionKind {
	if !e.opts.UsePartialDiscoveryFallback && e.client.Discovery() != nil {
		var out []schema.GroupVersionKind
		for _, res := range e.client.Discovery().All() {
			if res.SupportsVerb("list") {
				out = append(out, res.GVK)
			}
		}
		return out
	}
	return closedListKinds
}

// scanPrune lists every target resource type carrying
// tanka.dev/environment=<EnvLabel> and reports one Deleted diff per
// returned resource that isn't in keyset and looks owned by this tool
// (last-applied-configuration annotation, or a managed-fields entry
// naming one of owningManagers). A listing failure for one type is
// logged and skipped -- the spec's "prune-scan failure ... is logged
// and skipped" rule, not fatal the way a diff failure is.
func (e *Engine) scanPrune(ctx context.Context, keyset map[string]bool) ([]ResourceDiff, error) {
	if !e.opts.InjectLabelsEnabled || e.opts.EnvLabel == "" {
		return nil, nil
	}
	selector := fmt.Sprintf("%s=%s", environmentLabelKey, e.opts.EnvLabel)

	var out []ResourceDiff
	for _, gvk := range e.pruneTargets() {
		items, err := e.client.List(ctx, gvk, "", selector)
		if err != nil {
			e.log.Warn("diff: prune scan for %s failed, skipping: %v", gvk, err)
			continue
		}
		for _, item := range items {
			if !isOwned(item) || keyset[pruneKey(gvk, item.GetNamespace(), item.GetName())] {
				continue
			}
			d := ResourceDiff{GVK: gvk, Namespace: item.GetNamespace(), Name: item.GetName(), Status: StatusDeleted}
			currentYAML, err := kyaml.Marshal(stripFields(item.Object), kyaml.Options{KubernetesFieldOrder: true})
			if err != nil {
				return nil, err
			}
			d.Unified, err = renderUnified(d, string(currentYAML), "")
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func isOwned(item unstructured.Unstructured) bool {
	annotations := item.GetAnnotations()
	if annotations[lastAppliedAnnotation] != "" {
		return true
	}
	for _, mf := range item.GetManagedFields() {
		if owningManagers[mf.Manager] {
			return true
		}
	}
	return false
}
