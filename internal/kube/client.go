package kube

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Options selects the kubeconfig file and context to use.
type Options struct {
	Kubeconfig string
	Context    string
}

// pickKubeconfigPath chooses the kubeconfig file to load.
// Priority:
//  1. explicitPath (flag)
//  2. KUBECONFIG env (first existing entry if multiple)
//  3. empty string (caller decides next steps)
func pickKubeconfigPath(explicitPath string) string {
	if strings.TrimSpace(explicitPath) != "" {
		return explicitPath
	}

	env := strings.TrimSpace(os.Getenv("KUBECONFIG"))
	if env == "" {
		return ""
	}

	for _, p := range filepath.SplitList(env) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// No existing entry found, return the raw env so errors are descriptive.
	return env
}

// RawConfig returns the parsed kubeconfig, without resolving credentials.
// With no explicit path and no KUBECONFIG, the default loading rules apply.
func RawConfig(kubeconfigPath string) (*clientcmdapi.Config, error) {
	chosen := pickKubeconfigPath(kubeconfigPath)
	if chosen == "" {
		rules := clientcmd.NewDefaultClientConfigLoadingRules()
		raw, err := rules.Load()
		if err != nil {
			return nil, fmt.Errorf("load kube config: default rules: %w", err)
		}
		return raw, nil
	}

	abs := chosen
	if a, err := filepath.Abs(chosen); err == nil {
		abs = a
	}
	raw, err := clientcmd.LoadFromFile(abs)
	if err != nil {
		return nil, fmt.Errorf("load kube config: read kubeconfig file (path=%q): %w", abs, err)
	}
	return raw, nil
}

// LoadConfig returns a Kubernetes rest.Config for opts.
// It explicitly loads kubeconfig from file when a path is provided (or KUBECONFIG env is set),
// so failures produce real parse errors instead of "no configuration provided".
func LoadConfig(opts Options) (*rest.Config, error) {
	overrides := &clientcmd.ConfigOverrides{CurrentContext: strings.TrimSpace(opts.Context)}

	// 1) If we have a kubeconfig path (explicit or env), load it explicitly.
	if chosen := pickKubeconfigPath(opts.Kubeconfig); chosen != "" {
		rawCfg, err := RawConfig(chosen)
		if err != nil {
			return nil, err
		}
		cfg, err := clientcmd.NewDefaultClientConfig(*rawCfg, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("load kube config: kubeconfig (path=%q currentContext=%q): %w",
				chosen, rawCfg.CurrentContext, err)
		}
		return cfg, nil
	}

	// 2) No kubeconfig path: try in-cluster, unless a context was asked for.
	if overrides.CurrentContext == "" {
		if cfg, err := rest.InClusterConfig(); err == nil {
			return cfg, nil
		}
	}

	// 3) Final fallback: default loading rules (HOME/.kube/config etc.)
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kube config: default rules: %w", err)
	}
	return cfg, nil
}

// NewClient returns a clientset and its rest config for opts.
func NewClient(opts Options) (kubernetes.Interface, *rest.Config, error) {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create kube client: %w", err)
	}

	return cs, cfg, nil
}
