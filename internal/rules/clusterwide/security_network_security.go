package clusterwide

import (
	"context"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

type defaultDenyPolicy struct{ rules.Base }

func newDefaultDenyPolicy(rules.Deps) rules.ClusterRule {
	return &defaultDenyPolicy{rules.NewBase(meta(
		pillarSecurity, sectionNetworkSecurity, "check_default_deny_policy_exists",
		"Namespaces that does not have default network deny policies.",
		"https://aws.github.io/aws-eks-best-practices/security/docs/network/#create-a-default-deny-policy",
	), snapshot.NetworkPolicies)}
}

// Check flags namespaces without any network policy at all.
func (r *defaultDenyPolicy) Check(_ context.Context, s *snapshot.Cluster) (model.Finding, error) {
	covered := make([]string, 0, len(s.NetworkPolicies))
	for _, p := range s.NetworkPolicies {
		covered = append(covered, p.Namespace)
	}
	return rules.Result(r.Meta(), "Namespace", "", uncovered(s.Namespaces, covered)), nil
}
