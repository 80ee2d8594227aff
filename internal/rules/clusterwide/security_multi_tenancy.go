package clusterwide

import (
	"context"
	"sort"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

type namespaceQuotas struct{ rules.Base }

func newNamespaceQuotas(rules.Deps) rules.ClusterRule {
	return &namespaceQuotas{rules.NewBase(meta(
		pillarSecurity, sectionMultiTenancy, "ensure_namespace_quotas_exist",
		"Namespaces should have quotas assigned.",
		"https://aws.github.io/aws-eks-best-practices/security/docs/multitenancy/#namespaces",
	), snapshot.ResourceQuotas)}
}

func (r *namespaceQuotas) Check(_ context.Context, s *snapshot.Cluster) (model.Finding, error) {
	covered := make([]string, 0, len(s.ResourceQuotas))
	for _, q := range s.ResourceQuotas {
		covered = append(covered, q.Namespace)
	}
	return rules.Result(r.Meta(), "Namespace", "", uncovered(s.Namespaces, covered)), nil
}

// uncovered returns the members of universe that are not in covered, sorted.
// Entries of covered outside universe are ignored.
func uncovered(universe, covered []string) []string {
	rest := make(map[string]struct{}, len(universe))
	for _, ns := range universe {
		rest[ns] = struct{}{}
	}
	for _, ns := range covered {
		delete(rest, ns)
	}
	out := make([]string, 0, len(rest))
	for ns := range rest {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}
