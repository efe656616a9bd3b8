// Package k8sdiscovery caches the cluster's API resource list -- which
// (group, version, kind) triples exist, whether each is namespaced, and
// which verbs it supports -- so pkg/diff and pkg/manifest's namespace
// injection don't pay a discovery round-trip per resource. Grounded on
// the teacher's internal/gvk package (GVK tuple shape, mutex-guarded
// registry-of-factories idiom reused here as a registry of looked-up
// resources) wired onto k8s.io/client-go/discovery, already in the
// teacher's go.mod, for the real server-side lookup internal/gvk never
// needed since Kure's GVKs were all compile-time known.
package k8sdiscovery

import (
	"fmt"
	"sync"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
)

// Resource describes one (group, version, kind)'s server-reported
// scope and capabilities.
type Resource struct {
	GVK        schema.GroupVersionKind
	Name       string // plural resource name, e.g. "deployments"
	Namespaced bool
	Verbs      []string
}

// SupportsVerb reports whether the resource's discovery document lists
// verb among its supported verbs (e.g. "patch", "list", "delete").
func (r Resource) SupportsVerb(verb string) bool {
	for _, v := range r.Verbs {
		if v == verb {
			return true
		}
	}
	return false
}

// Cache wraps a discovery.DiscoveryInterface with a (group,version,kind)
// lookup table, preferring one aggregated-discovery call up front and
// falling back to lazy per-group-version calls for servers or groups
// the aggregated call didn't cover (older API servers predating
// aggregated discovery, or groups added after the cache was built).
type Cache struct {
	client discovery.DiscoveryInterface

	mu        sync.RWMutex
	resources map[schema.GroupVersionKind]Resource
	groups    map[schema.GroupVersion]bool // group-versions already fetched
}

// New wraps client for resource-scope lookups. client is typically
// built from *rest.Config via discovery.NewDiscoveryClientForConfigOrDie
// by the caller (pkg/k8sclient).
func New(client discovery.DiscoveryInterface) *Cache {
	return &Cache{
		client:    client,
		resources: map[schema.GroupVersionKind]Resource{},
		groups:    map[schema.GroupVersion]bool{},
	}
}

// Prime performs one aggregated ServerGroupsAndResources call, populating
// the cache for every group-version the server reports. Safe to skip --
// Lookup falls back to per-group-version fetches for cache misses -- but
// calling it once avoids N lazy round-trips for an export/diff run that
// touches N different kinds.
func (c *Cache) Prime() error {
	_, lists, err := c.client.ServerGroupsAndResources()
	if err != nil && len(lists) == 0 {
		return fmt.Errorf("k8sdiscovery: priming aggregated discovery: %w", err)
	}
	// Partial results (err != nil but lists non-empty) happen when one
	// group's discovery document is broken; index what did come back
	// rather than discarding the whole batch.
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, list := range lists {
		gv, perr := schema.ParseGroupVersion(list.GroupVersion)
		if perr != nil {
			continue
		}
		c.indexList(gv, list)
		c.groups[gv] = true
	}
	return nil
}

// indexList must be called with mu held.
func (c *Cache) indexList(gv schema.GroupVersion, list *metav1.APIResourceList) {
	for _, res := range list.APIResources {
		// Subresources (e.g. "deployments/status") carry a "/" in Name
		// and aren't independently diffable manifests; skip them.
		if containsSlash(res.Name) {
			continue
		}
		gvk := gv.WithKind(res.Kind)
		c.resources[gvk] = Resource{
			GVK:        gvk,
			Name:       res.Name,
			Namespaced: res.Namespaced,
			Verbs:      []string(res.Verbs),
		}
	}
}

func containsSlash(s string) bool {
	for _, r := range s {
		if r == '/' {
			return true
		}
	}
	return false
}

// Lookup resolves gvk's resource descriptor, fetching its group-version
// from the server on a cache miss rather than requiring a prior Prime.
func (c *Cache) Lookup(gvk schema.GroupVersionKind) (Resource, error) {
	gv := gvk.GroupVersion()

	c.mu.RLock()
	res, ok := c.resources[gvk]
	fetched := c.groups[gv]
	c.mu.RUnlock()
	if ok {
		return res, nil
	}
	if fetched {
		return Resource{}, fmt.Errorf("k8sdiscovery: %s not found in group %s", gvk.Kind, gv)
	}

	list, err := c.client.ServerResourcesForGroupVersion(gv.String())
	if err != nil {
		return Resource{}, fmt.Errorf("k8sdiscovery: discovering %s: %w", gv, err)
	}

	c.mu.Lock()
	c.indexList(gv, list)
	c.groups[gv] = true
	res, ok = c.resources[gvk]
	c.mu.Unlock()
	if !ok {
		return Resource{}, fmt.Errorf("k8sdiscovery: %s not found in group %s", gvk.Kind, gv)
	}
	return res, nil
}

// All returns a snapshot of every resource indexed so far (via Prime
// or a lazy Lookup). pkg/diff's prune scan calls this after Prime to
// enumerate every listable kind instead of hardcoding one.
func (c *Cache) All() []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Resource, 0, len(c.resources))
	for _, r := range c.resources {
		out = append(out, r)
	}
	return out
}

// IsNamespaced is a convenience wrapper for callers (pkg/manifest's
// injection, pkg/diff's orphan listing) that only need the scope bit
// and are willing to treat a lookup failure as "assume namespaced",
// matching kubectl's own conservative default.
func (c *Cache) IsNamespaced(gvk schema.GroupVersionKind) bool {
	res, err := c.Lookup(gvk)
	if err != nil {
		return true
	}
	return res.Namespaced
}
