package namespaced

import (
	"context"
	"slices"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const urlIAM = "https://aws.github.io/aws-eks-best-practices/security/docs/iam/"

var anonymousSubjects = map[string]bool{
	"system:anonymous":       true,
	"system:unauthenticated": true,
}

// publicInfoViewer is bound to system:unauthenticated by default and is safe.
const publicInfoViewer = "system:public-info-viewer"

func hasWildcard(policy []rbacv1.PolicyRule) bool {
	for _, r := range policy {
		if slices.Contains(r.Verbs, "*") || slices.Contains(r.Resources, "*") {
			return true
		}
	}
	return false
}

func bindsAnonymous(name string, subjects []rbacv1.Subject) bool {
	if name == publicInfoViewer {
		return false
	}
	for _, s := range subjects {
		if anonymousSubjects[s.Name] {
			return true
		}
	}
	return false
}

type wildcardRoles struct{ rules.Base }

func newWildcardRoles(rules.Deps) rules.NamespaceRule {
	return &wildcardRoles{rules.NewBase(meta(
		pillarSecurity, sectionIAM, "restrict_wildcard_for_roles",
		"Roles should not have '*' in Verbs or Resources.",
		urlIAM+"#employ-least-privileged-access-when-creating-rolebindings-and-clusterrolebindings",
	), snapshot.Roles)}
}

func (r *wildcardRoles) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for _, role := range s.Roles {
		if hasWildcard(role.Rules) {
			offenders = append(offenders, role.Name)
		}
	}
	return rules.Result(r.Meta(), "Role", s.Namespace, offenders), nil
}

type wildcardClusterRoles struct{ rules.Base }

func newWildcardClusterRoles(rules.Deps) rules.NamespaceRule {
	return &wildcardClusterRoles{rules.NewBase(meta(
		pillarSecurity, sectionIAM, "restrict_wildcard_for_cluster_roles",
		"ClusterRoles should not have '*' in Verbs or Resources.",
		urlIAM+"#employ-least-privileged-access-when-creating-rolebindings-and-clusterrolebindings",
	), snapshot.ClusterRoles)}
}

func (r *wildcardClusterRoles) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for _, role := range s.ClusterRoles {
		if hasWildcard(role.Rules) {
			offenders = append(offenders, role.Name)
		}
	}
	return rules.Result(r.Meta(), "ClusterRole", s.Namespace, offenders), nil
}

type anonymousRoleBindings struct{ rules.Base }

func newAnonymousRoleBindings(rules.Deps) rules.NamespaceRule {
	return &anonymousRoleBindings{rules.NewBase(meta(
		pillarSecurity, sectionIAM, "disable_anonymous_access_for_roles",
		"Don't bind roles to anonymous or unauthenticated groups.",
		urlIAM+"#review-and-revoke-unnecessary-anonymous-access",
	), snapshot.RoleBindings)}
}

func (r *anonymousRoleBindings) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for _, b := range s.RoleBindings {
		if bindsAnonymous(b.Name, b.Subjects) {
			offenders = append(offenders, b.Name)
		}
	}
	return rules.Result(r.Meta(), "RoleBinding", s.Namespace, offenders), nil
}

type anonymousClusterRoleBindings struct{ rules.Base }

func newAnonymousClusterRoleBindings(rules.Deps) rules.NamespaceRule {
	return &anonymousClusterRoleBindings{rules.NewBase(meta(
		pillarSecurity, sectionIAM, "disable_anonymous_access_for_cluster_roles",
		"Don't bind clusterroles to anonymous or unauthenticated groups.",
		urlIAM+"#review-and-revoke-unnecessary-anonymous-access",
	), snapshot.ClusterRoleBindings)}
}

func (r *anonymousClusterRoleBindings) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for _, b := range s.ClusterRoleBindings {
		if bindsAnonymous(b.Name, b.Subjects) {
			offenders = append(offenders, b.Name)
		}
	}
	return rules.Result(r.Meta(), "ClusterRoleBinding", s.Namespace, offenders), nil
}

func newServiceAccountTokenMounts(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarSecurity, sectionIAM, "disable_service_account_token_mounts",
		"Auto-mounting of Service Account tokens is not allowed.",
		urlIAM+"#disable-auto-mounting-of-service-account-tokens",
	), func(p podView) bool {
		mount := p.Spec.AutomountServiceAccountToken
		return mount == nil || *mount
	})
}

func newRunAsRoot(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarSecurity, sectionIAM, "disable_run_as_root_user",
		"Running as root is not allowed.",
		urlIAM+"#run-the-application-as-a-non-root-user",
	), func(p podView) bool {
		return p.anyContainer(p.runsAsRoot)
	})
}

// dedicatedAccounts flags service accounts shared by more than one workload
// of a kind. Offenders are service account names, not workloads.
type dedicatedAccounts struct {
	rules.Base
	accounts func(*snapshot.Namespaced) []string
}

func (r *dedicatedAccounts) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	counts := map[string]int{}
	for _, sa := range r.accounts(s) {
		if sa == "" {
			sa = "default"
		}
		counts[sa]++
	}
	var shared []string
	for sa, n := range counts {
		if n > 1 {
			shared = append(shared, sa)
		}
	}
	sort.Strings(shared)
	return rules.Result(r.Meta(), "ServiceAccount", s.Namespace, shared), nil
}

func serviceAccountOf(spec corev1.PodTemplateSpec) string {
	return spec.Spec.ServiceAccountName
}

func newDedicatedDeploymentAccounts(rules.Deps) rules.NamespaceRule {
	return &dedicatedAccounts{
		Base: rules.NewBase(meta(
			pillarSecurity, sectionIAM, "use_dedicated_service_accounts_for_each_deployment",
			"Don't share service accounts between Deployments",
			urlIAM+"#use-dedicated-service-accounts-for-each-application",
		), snapshot.Deployments),
		accounts: func(s *snapshot.Namespaced) []string {
			return collectAccounts(s.Deployments, func(d appsv1.Deployment) corev1.PodTemplateSpec { return d.Spec.Template })
		},
	}
}

func newDedicatedStatefulSetAccounts(rules.Deps) rules.NamespaceRule {
	return &dedicatedAccounts{
		Base: rules.NewBase(meta(
			pillarSecurity, sectionIAM, "use_dedicated_service_accounts_for_each_stateful_set",
			"Don't share service accounts between StatefulSets",
			urlIAM+"#use-dedicated-service-accounts-for-each-application",
		), snapshot.StatefulSets),
		accounts: func(s *snapshot.Namespaced) []string {
			return collectAccounts(s.StatefulSets, func(d appsv1.StatefulSet) corev1.PodTemplateSpec { return d.Spec.Template })
		},
	}
}

func newDedicatedDaemonSetAccounts(rules.Deps) rules.NamespaceRule {
	return &dedicatedAccounts{
		Base: rules.NewBase(meta(
			pillarSecurity, sectionIAM, "use_dedicated_service_accounts_for_each_daemon_set",
			"Don't share service accounts between DaemonSets",
			urlIAM+"#use-dedicated-service-accounts-for-each-application",
		), snapshot.DaemonSets),
		accounts: func(s *snapshot.Namespaced) []string {
			return collectAccounts(s.DaemonSets, func(d appsv1.DaemonSet) corev1.PodTemplateSpec { return d.Spec.Template })
		},
	}
}

func collectAccounts[W any](workloads []W, template func(W) corev1.PodTemplateSpec) []string {
	out := make([]string, 0, len(workloads))
	for _, w := range workloads {
		out = append(out, serviceAccountOf(template(w)))
	}
	return out
}
