package config

import (
	"strconv"
	"strings"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	kureerrors "github.com/go-rtk/rtk/pkg/errors"
	"github.com/go-rtk/rtk/pkg/k8sclient"
)

// BuildClusterClient resolves a kubeconfig (in-cluster config first when
// neither kubeconfigPath nor kubeContext is set, otherwise or on failure
// the explicit path or the client-go default loading rules) and wraps it as a
// k8sclient.Client for the diff/apply commands. kubeconfigPath and
// kubeContext come straight from GlobalOptions; either may be empty.
// BuildClusterClient also returns the raw discovery client so callers
// can run ClusterAtLeast113 without re-deriving it from the wrapped
// k8sclient.Client, which only exposes the cached k8sdiscovery.Cache.
func BuildClusterClient(kubeconfigPath, kubeContext string) (k8sclient.Client, discovery.DiscoveryInterface, error) {
	cfg, err := restConfig(kubeconfigPath, kubeContext)
	if err != nil {
		return nil, nil, kureerrors.New(err, "loading kubeconfig")
	}

	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return nil, nil, kureerrors.New(err, "creating dynamic client")
	}

	disc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return nil, nil, kureerrors.New(err, "creating discovery client")
	}

	client := k8sclient.New(dyn, disc)
	if err := client.Discovery().Prime(); err != nil {
		return nil, nil, kureerrors.New(err, "priming discovery cache")
	}
	return client, disc, nil
}

// ClusterAtLeast113 reports whether disc's server version is 1.13 or
// newer, the cutoff diff.SelectStrategy uses to prefer strategic-merge
// (Native) over the no-server-side-apply-assumed Subset strategy.
func ClusterAtLeast113(disc discovery.DiscoveryInterface) (bool, error) {
	info, err := disc.ServerVersion()
	if err != nil {
		return false, kureerrors.New(err, "querying server version")
	}
	major, err := strconv.Atoi(strings.TrimFunc(info.Major, func(r rune) bool { return r < '0' || r > '9' }))
	if err != nil {
		return false, kureerrors.New(err, "parsing server major version "+info.Major)
	}
	minor, err := strconv.Atoi(strings.TrimFunc(info.Minor, func(r rune) bool { return r < '0' || r > '9' }))
	if err != nil {
		return false, kureerrors.New(err, "parsing server minor version "+info.Minor)
	}
	if major != 1 {
		return major > 1, nil
	}
	return minor >= 13, nil
}

func restConfig(kubeconfigPath, kubeContext string) (*rest.Config, error) {
	if kubeconfigPath == "" && kubeContext == "" {
		if cfg, err := rest.InClusterConfig(); err == nil {
			return cfg, nil
		}
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		rules.ExplicitPath = kubeconfigPath
	}
	overrides := &clientcmd.ConfigOverrides{}
	if kubeContext != "" {
		overrides.CurrentContext = kubeContext
	}

	return clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
}
