package kube

import (
	"fmt"
	"strings"

	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
)

// Target describes the cluster a kubeconfig context points at.
type Target struct {
	Context string
	// Cluster is the EKS cluster name when the context's cluster is an EKS
	// ARN, otherwise the kubeconfig cluster entry name.
	Cluster string
	// Region is parsed from an EKS ARN and empty otherwise.
	Region string
}

// ResolveTarget finds the cluster behind context, or behind the current
// context when context is empty.
func ResolveTarget(raw *clientcmdapi.Config, context string) (Target, error) {
	name := context
	if name == "" {
		name = raw.CurrentContext
	}
	if name == "" {
		return Target{}, fmt.Errorf("kubeconfig has no current context")
	}
	kctx, ok := raw.Contexts[name]
	if !ok || kctx == nil {
		return Target{}, fmt.Errorf("context %q not found in kubeconfig", name)
	}
	t := Target{Context: name, Cluster: kctx.Cluster}
	if region, cluster, ok := parseEKSARN(kctx.Cluster); ok {
		t.Region, t.Cluster = region, cluster
	}
	return t, nil
}

// parseEKSARN splits arn:<partition>:eks:<region>:<account>:cluster/<name>.
func parseEKSARN(s string) (region, cluster string, ok bool) {
	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "eks" {
		return "", "", false
	}
	name, found := strings.CutPrefix(parts[5], "cluster/")
	if !found || name == "" {
		return "", "", false
	}
	return parts[3], name, true
}
