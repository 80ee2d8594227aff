// Package clusterwide implements the rules evaluated once per cluster against
// a *snapshot.Cluster.
package clusterwide

import (
	"github.com/asjarre/hardeneks/internal/catalog"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const (
	pillarSecurity    = "security"
	pillarScalability = "scalability"

	sectionIAM               = "iam"
	sectionMultiTenancy      = "multi_tenancy"
	sectionNetworkSecurity   = "network_security"
	sectionEncryptionSecrets = "encryption_secrets"
	sectionControlPlane      = "control_plane"
)

func meta(pillar, section, id, message, url string) model.RuleMeta {
	return model.RuleMeta{
		Scope:   string(catalog.ClusterWide),
		Pillar:  pillar,
		Section: section,
		ID:      id,
		Message: message,
		URL:     url,
	}
}

// Registry returns a registry holding every built-in cluster-wide rule.
func Registry() *rules.Registry[*snapshot.Cluster] {
	r := rules.NewRegistry[*snapshot.Cluster](catalog.ClusterWide)

	r.MustRegister(pillarSecurity, sectionIAM, "check_endpoint_public_access", newEndpointPublicAccess)
	r.MustRegister(pillarSecurity, sectionIAM, "check_access_to_instance_profile", newInstanceProfileAccess)
	r.MustRegister(pillarSecurity, sectionIAM, "check_aws_node_daemonset_service_account", newAWSNodeServiceAccount)

	r.MustRegister(pillarSecurity, sectionMultiTenancy, "ensure_namespace_quotas_exist", newNamespaceQuotas)

	r.MustRegister(pillarSecurity, sectionNetworkSecurity, "check_default_deny_policy_exists", newDefaultDenyPolicy)

	r.MustRegister(pillarSecurity, sectionEncryptionSecrets, "use_encryption_with_ebs", newEBSEncryption)
	r.MustRegister(pillarSecurity, sectionEncryptionSecrets, "use_encryption_with_efs", newEFSEncryption)
	r.MustRegister(pillarSecurity, sectionEncryptionSecrets, "use_efs_access_points", newEFSAccessPoints)

	r.MustRegister(pillarScalability, sectionControlPlane, "check_EKS_version", newEKSVersion)
	r.MustRegister(pillarScalability, sectionControlPlane, "check_kubectl_compression", newKubectlCompression)

	return r
}
