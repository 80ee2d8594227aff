package namespaced

import (
	"context"
	"sort"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

const urlApplications = "https://aws.github.io/aws-eks-best-practices/reliability/docs/application/"

var spreadTopologyKeys = map[string]bool{
	corev1.LabelHostname:     true,
	corev1.LabelTopologyZone: true,
}

func newSingletonPods(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarReliability, sectionApplications, "avoid_running_singleton_pods",
		"Avoid running pods without deployments.",
		urlApplications+"#avoid-running-singleton-pods",
	), func(p podView) bool {
		return len(p.OwnerReferences) == 0
	})
}

// deploymentCheck flags each deployment for which offends returns true.
type deploymentCheck struct {
	rules.Base
	offends func(*appsv1.Deployment) bool
}

func (r *deploymentCheck) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	var offenders []string
	for i := range s.Deployments {
		if r.offends(&s.Deployments[i]) {
			offenders = append(offenders, s.Deployments[i].Name)
		}
	}
	return rules.Result(r.Meta(), "Deployment", s.Namespace, offenders), nil
}

func newMultipleReplicas(rules.Deps) rules.NamespaceRule {
	return &deploymentCheck{
		Base: rules.NewBase(meta(
			pillarReliability, sectionApplications, "run_multiple_replicas",
			"Avoid running single replica deployments",
			urlApplications+"#run-multiple-replicas",
		), snapshot.Deployments),
		offends: func(d *appsv1.Deployment) bool {
			// An unset replica count defaults to one.
			return d.Spec.Replicas == nil || *d.Spec.Replicas < 2
		},
	}
}

func newSpreadReplicas(rules.Deps) rules.NamespaceRule {
	return &deploymentCheck{
		Base: rules.NewBase(meta(
			pillarReliability, sectionApplications, "schedule_replicas_across_nodes",
			"Spread replicas across AZs and Nodes",
			urlApplications+"#schedule-replicas-across-nodes",
		), snapshot.Deployments),
		offends: func(d *appsv1.Deployment) bool {
			return !spreadsReplicas(d.Spec.Template.Spec)
		},
	}
}

func spreadsReplicas(spec corev1.PodSpec) bool {
	for _, c := range spec.TopologySpreadConstraints {
		if spreadTopologyKeys[c.TopologyKey] {
			return true
		}
	}
	if a := spec.Affinity; a != nil && a.PodAntiAffinity != nil {
		anti := a.PodAntiAffinity
		for _, t := range anti.RequiredDuringSchedulingIgnoredDuringExecution {
			if spreadTopologyKeys[t.TopologyKey] {
				return true
			}
		}
		for _, t := range anti.PreferredDuringSchedulingIgnoredDuringExecution {
			if spreadTopologyKeys[t.PodAffinityTerm.TopologyKey] {
				return true
			}
		}
	}
	return false
}

type hpaExists struct{ rules.Base }

func newHPAExists(rules.Deps) rules.NamespaceRule {
	return &hpaExists{rules.NewBase(meta(
		pillarReliability, sectionApplications, "check_horizontal_pod_autoscaling_exists",
		"Deploy horizontal pod autoscaler for deployments",
		urlApplications+"#horizontal-pod-autoscaler-hpa",
	), snapshot.Deployments, snapshot.HorizontalPodAutoscalers)}
}

// Check reports deployments that no autoscaler targets.
func (r *hpaExists) Check(_ context.Context, s *snapshot.Namespaced) (model.Finding, error) {
	missing := make(map[string]struct{}, len(s.Deployments))
	for _, d := range s.Deployments {
		missing[d.Name] = struct{}{}
	}
	for _, hpa := range s.HorizontalPodAutoscalers {
		if hpa.Spec.ScaleTargetRef.Kind == "Deployment" {
			delete(missing, hpa.Spec.ScaleTargetRef.Name)
		}
	}
	offenders := make([]string, 0, len(missing))
	for name := range missing {
		offenders = append(offenders, name)
	}
	sort.Strings(offenders)
	return rules.Result(r.Meta(), "Deployment", s.Namespace, offenders), nil
}

func newReadinessProbes(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarReliability, sectionApplications, "check_readiness_probes",
		"Define readiness probes for pods.",
		urlApplications+"#use-readiness-probe-to-detect-partial-unavailability",
	), func(p podView) bool {
		return p.anyAppContainer(func(c *corev1.Container) bool { return c.ReadinessProbe == nil })
	})
}

func newLivenessProbes(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarReliability, sectionApplications, "check_liveness_probes",
		"Define liveness probes for pods.",
		urlApplications+"#use-liveness-probe-to-remove-unhealthy-pods",
	), func(p podView) bool {
		return p.anyAppContainer(func(c *corev1.Container) bool { return c.LivenessProbe == nil })
	})
}

func newRequestsLimits(rules.Deps) rules.NamespaceRule {
	return newPodCheck(meta(
		pillarReliability, sectionApplications, "set_requests_limits_for_containers",
		"Set requests and limits for each container.",
		urlApplications+"#set-requests-and-limits-for-each-container",
	), func(p podView) bool {
		return p.anyAppContainer(func(c *corev1.Container) bool {
			return len(c.Resources.Requests) == 0 || len(c.Resources.Limits) == 0
		})
	})
}
