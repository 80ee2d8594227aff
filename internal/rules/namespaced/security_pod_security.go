package namespaced

import (
	"context"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const urlPodSecurity = "https://aws.github.io/aws-eks-best-practices/security/docs/pods/"

const psaLabelPrefix = "pod-security.kubernetes.io/"

var psaModes = []string{"enforce", "audit", "warn"}

var containerSockets = map[string]bool{
	"/var/run/docker.sock":                true,
	"/run/docker.sock":                    true,
	"/var/run/containerd/containerd.sock": true,
	"/run/containerd/containerd.sock":     true,
	"/var/run/crio/crio.sock":             true,
	"/run/crio/crio.sock":                 true,
}

type namespacePSA struct{ rules.Base }

func newNamespacePSA(rules.Deps) rules.NamespaceRule {
	return &namespacePSA{rules.NewBase(meta(
		pillarSecurity, sectionPodSecurity, "ensure_namespace_psa_exist",
		"Namespaces should have psa modes.",
		urlPodSecurity+"#pod-security-standards-pss-and-pod-security-admission-psa",
	), snapshot.Namespaces)}
}

// Check flags the namespace when it carries no Pod Security Admission mode
// label. Other namespaces in the collection are not considered.
func (r *namespacePSA) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for _, ns := range s.Namespaces {
		if ns.Name != s.Namespace {
			continue
		}
		if !hasPSALabel(ns.Labels) {
			offenders = append(offenders, ns.Name)
		}
	}
	return rules.Result(r.Meta(), "Namespace", s.Namespace, offenders), nil
}

func hasPSALabel(labels map[string]string) bool {
	for _, mode := range psaModes {
		if labels[psaLabelPrefix+mode] != "" {
			return true
		}
	}
	return false
}

func newContainerSocketMount(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarSecurity, sectionPodSecurity, "disallow_container_socket_mount",
		"Container socket mounts are not allowed.",
		urlPodSecurity+"#never-run-docker-in-docker-or-mount-the-socket-in-the-container",
	), func(p podView) bool {
		for _, hp := range p.hostPathVolumes() {
			if containerSockets[strings.TrimSuffix(hp.Path, "/")] {
				return true
			}
		}
		return false
	})
}

func newHostPath(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarSecurity, sectionPodSecurity, "disallow_host_path_or_make_it_read_only",
		"Restrict the use of hostpath.",
		urlPodSecurity+"#restrict-the-use-of-hostpath-or-if-hostpath-is-necessary-restrict-which-prefixes-can-be-used-and-configure-the-volume-as-read-only",
	), func(p podView) bool {
		hostPaths := p.hostPathVolumes()
		if len(hostPaths) == 0 {
			return false
		}
		return p.anyContainer(func(c *corev1.Container) bool {
			for _, m := range c.VolumeMounts {
				if _, ok := hostPaths[m.Name]; ok && !m.ReadOnly {
					return true
				}
			}
			return false
		})
	})
}

func newPrivilegeEscalation(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarSecurity, sectionPodSecurity, "disallow_privilege_escalation",
		"Privilege escalation should be disallowed.",
		urlPodSecurity+"#do-not-allow-privileged-escalation",
	), func(p podView) bool {
		return p.anyContainer(func(c *corev1.Container) bool {
			sc := c.SecurityContext
			return sc == nil || sc.AllowPrivilegeEscalation == nil || *sc.AllowPrivilegeEscalation
		})
	})
}

func newReadOnlyRootFS(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarSecurity, sectionPodSecurity, "use_read_only_root_file_system",
		"Configure your images with a read-only root file system.",
		urlPodSecurity+"#configure-your-images-with-read-only-root-file-system",
	), func(p podView) bool {
		return p.anyContainer(func(c *corev1.Container) bool {
			sc := c.SecurityContext
			return sc == nil || sc.ReadOnlyRootFilesystem == nil || !*sc.ReadOnlyRootFilesystem
		})
	})
}
