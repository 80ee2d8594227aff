package namespaced

import (
	"context"

	corev1 "k8s.io/api/core/v1"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const (
	annotationSSLCert  = "service.beta.kubernetes.io/aws-load-balancer-ssl-cert"
	annotationSSLPorts = "service.beta.kubernetes.io/aws-load-balancer-ssl-ports"
)

type loadBalancerEncryption struct{ rules.Base }

func newLoadBalancerEncryption(rules.Deps) rules.NamespaceRule {
	return &loadBalancerEncryption{rules.NewBase(meta(
		pillarSecurity, sectionNetworkSecurity, "use_encryption_with_aws_load_balancers",
		"Make sure you specify an ssl cert.",
		"https://aws.github.io/aws-eks-best-practices/security/docs/network/#use-encryption-with-aws-load-balancers",
	), snapshot.Services)}
}

// Check requires both the certificate and the ports annotation on every
// LoadBalancer service.
func (r *loadBalancerEncryption) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for _, svc := range s.Services {
		if svc.Spec.Type != corev1.ServiceTypeLoadBalancer {
			continue
		}
		if svc.Annotations[annotationSSLCert] == "" || svc.Annotations[annotationSSLPorts] == "" {
			offenders = append(offenders, svc.Name)
		}
	}
	return rules.Result(r.Meta(), "Service", s.Namespace, offenders), nil
}
