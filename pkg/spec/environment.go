// Package spec defines the Environment resource type that Jsonnet
// evaluation must produce, in both its static-spec-file and inline-TLA
// forms (spec §2/§3).
package spec

// Environment is the `kind: Environment` wrapper object every export
// target resolves to after evaluation.
type Environment struct {
	APIVersion string            `json:"apiVersion"`
	Kind       string            `json:"kind"`
	Metadata   EnvironmentMeta   `json:"metadata"`
	Spec       EnvironmentSpec   `json:"spec"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

type EnvironmentMeta struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// EnvironmentSpec carries the fields pkg/manifest's injection step reads:
// the target cluster namespace, resource defaults, and (for file-backed
// environments) the evaluated Jsonnet entrypoint path.
type EnvironmentSpec struct {
	APIServer        string                 `json:"apiServer,omitempty"`
	Namespace        string                 `json:"namespace,omitempty"`
	ResourceDefaults map[string]interface{} `json:"resourceDefaults,omitempty"`
	InjectLabels     bool                   `json:"injectLabels,omitempty"`
	// DiffStrategy, when set, pins pkg/diff's strategy selection
	// ("native", "server", "validate", "subset"), overriding the
	// ApplyStrategy/cluster-version auto-selection rule.
	DiffStrategy string `json:"diffStrategy,omitempty"`
	// ApplyStrategy selects server-side apply ("server") over the
	// default client-side strategic merge; pkg/diff reads this when
	// DiffStrategy is unset.
	ApplyStrategy string `json:"applyStrategy,omitempty"`
}

// Discovered is one environment found by pkg/discover: either a static
// spec.json next to a main.jsonnet entrypoint, or an inline environment
// whose Jsonnet document itself evaluates to an Environment object.
type Discovered struct {
	Path       string // directory containing the environment
	Entrypoint string // main.jsonnet (or equivalent) absolute path
	Inline     bool
	// Static is true when the environment was found via spec.json rather
	// than evaluation of an inline main.jsonnet.
	Static bool
	// Name discriminates multiple sub-environments found within the same
	// inline main.jsonnet; empty when the directory holds a single
	// environment (static or inline).
	Name string
	// ExportJsonnetImplementation, when non-empty, selects jrsonnet-
	// compatible manifest formatting instead of the default.
	ExportJsonnetImplementation string
	Labels                      map[string]string
}
