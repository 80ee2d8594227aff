package namespaced

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/asjarre/hardeneks/internal/rules"
)

func newSecretsInEnv(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarSecurity, sectionEncryptionSecrets, "disallow_secrets_from_env_vars",
		"Disallow secrets from env vars.",
		"https://aws.github.io/aws-eks-best-practices/security/docs/data/#use-volume-mounts-instead-of-environment-variables",
	), func(p podView) bool {
		return p.anyAppContainer(readsSecretFromEnv)
	})
}

func readsSecretFromEnv(c *corev1.Container) bool {
	for _, env := range c.Env {
		if env.ValueFrom != nil && env.ValueFrom.SecretKeyRef != nil {
			return true
		}
	}
	for _, src := range c.EnvFrom {
		if src.SecretRef != nil {
			return true
		}
	}
	return false
}
