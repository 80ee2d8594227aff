// Package namespaced implements the rules evaluated once per namespace
// against a *snapshot.Namespaced.
package namespaced

import (
	"context"

	"github.com/asjarre/hardeneks/internal/catalog"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const (
	pillarSecurity    = "security"
	pillarReliability = "reliability"

	sectionIAM               = "iam"
	sectionPodSecurity       = "pod_security"
	sectionNetworkSecurity   = "network_security"
	sectionEncryptionSecrets = "encryption_secrets"
	sectionApplications      = "applications"
)

func meta(pillar, section, id, message, url string) model.RuleMeta {
	return model.RuleMeta{
		Scope:   string(catalog.NamespaceBased),
		Pillar:  pillar,
		Section: section,
		ID:      id,
		Message: message,
		URL:     url,
	}
}

// Registry returns a registry holding every built-in namespaced rule.
func Registry() *rules.Registry[*snapshot.Namespaced] {
	r := rules.NewRegistry[*snapshot.Namespaced](catalog.NamespaceBased)

	iam := []struct {
		id string
		f  rules.Factory[*snapshot.Namespaced]
	}{
		{"restrict_wildcard_for_roles", newWildcardRoles},
		{"restrict_wildcard_for_cluster_roles", newWildcardClusterRoles},
		{"disable_anonymous_access_for_roles", newAnonymousRoleBindings},
		{"disable_anonymous_access_for_cluster_roles", newAnonymousClusterRoleBindings},
		{"disable_service_account_token_mounts", newServiceAccountTokenMounts},
		{"disable_run_as_root_user", newRunAsRoot},
		{"use_dedicated_service_accounts_for_each_deployment", newDedicatedDeploymentAccounts},
		{"use_dedicated_service_accounts_for_each_stateful_set", newDedicatedStatefulSetAccounts},
		{"use_dedicated_service_accounts_for_each_daemon_set", newDedicatedDaemonSetAccounts},
	}
	for _, e := range iam {
		r.MustRegister(pillarSecurity, sectionIAM, e.id, e.f)
	}

	r.MustRegister(pillarSecurity, sectionPodSecurity, "ensure_namespace_psa_exist", newNamespacePSA)
	r.MustRegister(pillarSecurity, sectionPodSecurity, "disallow_container_socket_mount", newContainerSocketMount)
	r.MustRegister(pillarSecurity, sectionPodSecurity, "disallow_host_path_or_make_it_read_only", newHostPath)
	r.MustRegister(pillarSecurity, sectionPodSecurity, "disallow_privilege_escalation", newPrivilegeEscalation)
	r.MustRegister(pillarSecurity, sectionPodSecurity, "use_read_only_root_file_system", newReadOnlyRootFS)

	r.MustRegister(pillarSecurity, sectionNetworkSecurity, "use_encryption_with_aws_load_balancers", newLoadBalancerEncryption)

	r.MustRegister(pillarSecurity, sectionEncryptionSecrets, "disallow_secrets_from_env_vars", newSecretsInEnv)

	r.MustRegister(pillarReliability, sectionApplications, "avoid_running_singleton_pods", newSingletonPods)
	r.MustRegister(pillarReliability, sectionApplications, "run_multiple_replicas", newMultipleReplicas)
	r.MustRegister(pillarReliability, sectionApplications, "schedule_replicas_across_nodes", newSpreadReplicas)
	r.MustRegister(pillarReliability, sectionApplications, "check_horizontal_pod_autoscaling_exists", newHPAExists)
	r.MustRegister(pillarReliability, sectionApplications, "check_readiness_probes", newReadinessProbes)
	r.MustRegister(pillarReliability, sectionApplications, "check_liveness_probes", newLivenessProbes)
	r.MustRegister(pillarReliability, sectionApplications, "set_requests_limits_for_containers", newRequestsLimits)

	return r
}

// podCheck is a rule that flags each pod for which offends returns true.
type podCheck struct {
	rules.Base
	offends func(pod podView) bool
}

func newPodCheck(m model.RuleMeta, offends func(podView) bool) *podCheck {
	return &podCheck{Base: rules.NewBase(m, snapshot.Pods), offends: offends}
}

func (r *podCheck) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for i := range s.Pods {
		if r.offends(podView{&s.Pods[i]}) {
			offenders = append(offenders, s.Pods[i].Name)
		}
	}
	return rules.Result(r.Meta(), "Pod", s.Namespace, offenders), nil
}
