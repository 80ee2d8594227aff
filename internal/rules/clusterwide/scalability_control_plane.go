package clusterwide

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const urlControlPlane = "https://aws.github.io/aws-eks-best-practices/scalability/docs/control-plane/"

type eksVersion struct {
	rules.Base
	deps rules.Deps
}

func newEKSVersion(d rules.Deps) rules.ClusterRule {
	return &eksVersion{rules.NewBase(meta(
		pillarScalability, sectionControlPlane, "check_EKS_version",
		"EKS Version should be in standard support.",
		urlControlPlane,
	)), d}
}

func (r *eksVersion) Check(ctx context.Context, s *snapshot.Cluster) (model.Finding, error) {
	if r.deps.EKS == nil {
		return model.Finding{}, rules.MissingCapability("eks client")
	}
	out, err := r.deps.EKS.DescribeCluster(ctx, &eks.DescribeClusterInput{Name: aws.String(s.Cluster)})
	if err != nil {
		return model.Finding{}, fmt.Errorf("describe cluster %s: %w", s.Cluster, err)
	}
	if out.Cluster == nil || aws.ToString(out.Cluster.Version) == "" {
		return model.Finding{}, fmt.Errorf("describe cluster %s: no version reported", s.Cluster)
	}
	version := aws.ToString(out.Cluster.Version)

	supported, err := r.standardSupport(ctx)
	if err != nil {
		return model.Finding{}, err
	}
	if supported[version] {
		return rules.Pass(r.Meta(), "Cluster Version", ""), nil
	}
	return rules.Fail(r.Meta(), "Cluster Version", "", []string{version}), nil
}

func (r *eksVersion) standardSupport(ctx context.Context) (map[string]bool, error) {
	supported := map[string]bool{}
	in := &eks.DescribeClusterVersionsInput{}
	for {
		page, err := r.deps.EKS.DescribeClusterVersions(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("describe cluster versions: %w", err)
		}
		for _, v := range page.ClusterVersions {
			if v.VersionStatus == ekstypes.VersionStatusStandardSupport {
				supported[aws.ToString(v.ClusterVersion)] = true
			}
		}
		if aws.ToString(page.NextToken) == "" {
			return supported, nil
		}
		in.NextToken = page.NextToken
	}
}

type kubectlCompression struct {
	rules.Base
	deps rules.Deps
}

func newKubectlCompression(d rules.Deps) rules.ClusterRule {
	return &kubectlCompression{rules.NewBase(meta(
		pillarScalability, sectionControlPlane, "check_kubectl_compression",
		"`disable-compression` in kubeconfig should equal True",
		urlControlPlane+"#disable-kubectl-compression",
	)), d}
}

// Check reads the first kubeconfig cluster entry, by name, whose name
// contains the cluster name. No matching entry is a failure.
func (r *kubectlCompression) Check(_ context.Context, s *snapshot.Cluster) (model.Finding, error) {
	if r.deps.KubeConfig == nil {
		return model.Finding{}, rules.MissingCapability("kubeconfig")
	}
	cfg, err := r.deps.KubeConfig()
	if err != nil {
		return model.Finding{}, fmt.Errorf("read kubeconfig: %w", err)
	}
	names := make([]string, 0, len(cfg.Clusters))
	for name := range cfg.Clusters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !strings.Contains(name, s.Cluster) {
			continue
		}
		if c := cfg.Clusters[name]; c != nil && c.DisableCompression {
			return rules.Pass(r.Meta(), "Compression Setting", ""), nil
		}
		return rules.Fail(r.Meta(), "Compression Setting", "", []string{name}), nil
	}
	return rules.Fail(r.Meta(), "Compression Setting", "", []string{s.Cluster}), nil
}
