package namespaced

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv1 "k8s.io/api/autoscaling/v1"
	corev1 "k8s.io/api/core/v1"
	rbacv1 "k8s.io/api/rbac/v1"

	"github.com/asjarre/hardeneks/internal/catalog"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
	"github.com/asjarre/hardeneks/internal/testutil"
)

var testScope = snapshot.Scope{Region: "us-east-1", Context: "test", Cluster: "prod"}

func run(t *testing.T, id string, s *snapshot.Namespaced) model.Finding {
	t.Helper()
	reg := Registry()
	for _, c := range reg.Coordinates() {
		if c.ID != id {
			continue
		}
		rule, err := reg.Resolve(c, rules.Deps{})
		require.NoError(t, err)
		f, err := rule.Check(context.Background(), s)
		require.NoError(t, err)
		require.True(t, f.Consistent(), "inconsistent finding %+v", f)
		assert.Equal(t, s.Namespace, f.Namespace)
		return f
	}
	t.Fatalf("rule %s not registered", id)
	return model.Finding{}
}

func TestRegistry_MatchesDefaultCatalog(t *testing.T) {
	var declared []rules.Coordinate
	for _, s := range catalog.Default().Sections(catalog.NamespaceBased) {
		for _, id := range s.Rules {
			declared = append(declared, rules.Coordinate{Scope: catalog.NamespaceBased, Pillar: s.Pillar, Section: s.Name, ID: id})
		}
	}
	assert.ElementsMatch(t, declared, Registry().Coordinates())
}

func TestPodRules(t *testing.T) {
	pods := testutil.LoadItems[corev1.Pod](t, "testdata/pods.yaml")
	s := snapshot.NewNamespaced(testScope, "shop", snapshot.WithPods(pods))

	cases := map[string][]string{
		"disable_service_account_token_mounts":    {"root-singleton", "host-ro"},
		"disable_run_as_root_user":                {"root-singleton"},
		"disallow_container_socket_mount":         {"root-singleton"},
		"disallow_host_path_or_make_it_read_only": {"root-singleton"},
		"disallow_privilege_escalation":           {"root-singleton", "host-ro"},
		"use_read_only_root_file_system":          {"root-singleton", "host-ro"},
		"disallow_secrets_from_env_vars":          {"root-singleton", "host-ro"},
		"avoid_running_singleton_pods":            {"root-singleton"},
		"check_readiness_probes":                  {"root-singleton", "host-ro"},
		"check_liveness_probes":                   {"root-singleton", "host-ro"},
		"set_requests_limits_for_containers":      {"root-singleton", "host-ro"},
	}
	for id, want := range cases {
		t.Run(id, func(t *testing.T) {
			f := run(t, id, s)
			assert.Equal(t, model.StatusFail, f.Status)
			assert.Equal(t, "Pod", f.ResourceType)
			assert.Equal(t, want, f.Resources)
		})
	}
}

func TestAllRules_EmptyCollectionsPass(t *testing.T) {
	reg := Registry()
	s := snapshot.NewNamespaced(testScope, "empty")
	covered := snapshot.NewKindSet()

	for _, c := range reg.Coordinates() {
		rule, err := reg.Resolve(c, rules.Deps{})
		require.NoError(t, err)
		for _, k := range rule.Requires() {
			assert.Contains(t, snapshot.NamespacedKinds, k, c.ID)
		}
		covered.Add(rule.Requires()...)

		f := run(t, c.ID, s)
		assert.True(t, f.Passed(), c.ID)
		assert.Empty(t, f.Resources, c.ID)
	}

	assert.Subset(t, snapshot.NamespacedKinds, covered.Sorted())
}

func TestRunAsRoot_ContainerOverridesPod(t *testing.T) {
	root := int64(0)
	nonRoot := true
	pod := testutil.Pod("shop", "override", testutil.Container("app"))
	pod.Spec.SecurityContext = &corev1.PodSecurityContext{RunAsNonRoot: &nonRoot}
	pod.Spec.Containers[0].SecurityContext = &corev1.SecurityContext{RunAsUser: &root}

	f := run(t, "disable_run_as_root_user", snapshot.NewNamespaced(testScope, "shop", snapshot.WithPods([]corev1.Pod{pod})))
	assert.Equal(t, []string{"override"}, f.Resources)
}

func TestRunAsRoot_InitContainerCounts(t *testing.T) {
	nonRoot := true
	pod := testutil.Pod("shop", "init-root", testutil.Container("app"))
	pod.Spec.Containers[0].SecurityContext = &corev1.SecurityContext{RunAsNonRoot: &nonRoot}
	pod.Spec.InitContainers = []corev1.Container{testutil.Container("setup")}

	f := run(t, "disable_run_as_root_user", snapshot.NewNamespaced(testScope, "shop", snapshot.WithPods([]corev1.Pod{pod})))
	assert.Equal(t, []string{"init-root"}, f.Resources)
}

func TestDedicatedServiceAccounts(t *testing.T) {
	deployments := testutil.LoadItems[appsv1.Deployment](t, "testdata/workloads.yaml")
	s := snapshot.NewNamespaced(testScope, "shop", snapshot.WithDeployments(deployments))

	f := run(t, "use_dedicated_service_accounts_for_each_deployment", s)
	assert.Equal(t, []string{"shared-sa"}, f.Resources)
	assert.Equal(t, "ServiceAccount", f.ResourceType)
}

func TestDedicatedServiceAccounts_EmptyNameIsDefault(t *testing.T) {
	sets := []appsv1.StatefulSet{
		{ObjectMeta: testutil.Meta("shop", "a")},
		{ObjectMeta: testutil.Meta("shop", "b")},
	}
	sets[1].Spec.Template.Spec.ServiceAccountName = "default"
	daemons := []appsv1.DaemonSet{{ObjectMeta: testutil.Meta("shop", "c")}}

	s := snapshot.NewNamespaced(testScope, "shop", snapshot.WithStatefulSets(sets), snapshot.WithDaemonSets(daemons))
	assert.Equal(t, []string{"default"}, run(t, "use_dedicated_service_accounts_for_each_stateful_set", s).Resources)
	assert.True(t, run(t, "use_dedicated_service_accounts_for_each_daemon_set", s).Passed())
}

func TestDeploymentRules(t *testing.T) {
	deployments := testutil.LoadItems[appsv1.Deployment](t, "testdata/workloads.yaml")
	hpas := []autoscalingv1.HorizontalPodAutoscaler{{
		ObjectMeta: testutil.Meta("shop", "api"),
		Spec: autoscalingv1.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv1.CrossVersionObjectReference{Kind: "Deployment", Name: "api"},
			MaxReplicas:    10,
		},
	}, {
		ObjectMeta: testutil.Meta("shop", "worker"),
		Spec: autoscalingv1.HorizontalPodAutoscalerSpec{
			ScaleTargetRef: autoscalingv1.CrossVersionObjectReference{Kind: "StatefulSet", Name: "worker"},
			MaxReplicas:    3,
		},
	}}
	s := snapshot.NewNamespaced(testScope, "shop",
		snapshot.WithDeployments(deployments),
		snapshot.WithHorizontalPodAutoscalers(hpas),
	)

	assert.Equal(t, []string{"cron", "billing"}, run(t, "run_multiple_replicas", s).Resources)
	assert.Equal(t, []string{"cron", "billing"}, run(t, "schedule_replicas_across_nodes", s).Resources)
	assert.Equal(t, []string{"billing", "cron", "worker"}, run(t, "check_horizontal_pod_autoscaling_exists", s).Resources)
}

func TestWildcardRoles(t *testing.T) {
	roles := []rbacv1.Role{
		{ObjectMeta: testutil.Meta("shop", "narrow"), Rules: []rbacv1.PolicyRule{{Verbs: []string{"get"}, Resources: []string{"pods"}}}},
		{ObjectMeta: testutil.Meta("shop", "all-verbs"), Rules: []rbacv1.PolicyRule{{Verbs: []string{"*"}, Resources: []string{"pods"}}}},
		{ObjectMeta: testutil.Meta("shop", "all-resources"), Rules: []rbacv1.PolicyRule{
			{Verbs: []string{"get"}, Resources: []string{"pods"}},
			{Verbs: []string{"list"}, Resources: []string{"*"}},
		}},
	}
	clusterRoles := []rbacv1.ClusterRole{
		{ObjectMeta: testutil.Meta("", "cluster-admin"), Rules: []rbacv1.PolicyRule{{Verbs: []string{"*"}, Resources: []string{"*"}}}},
		{ObjectMeta: testutil.Meta("", "view")},
	}
	s := snapshot.NewNamespaced(testScope, "shop", snapshot.WithRoles(roles), snapshot.WithClusterRoles(clusterRoles))

	assert.Equal(t, []string{"all-verbs", "all-resources"}, run(t, "restrict_wildcard_for_roles", s).Resources)

	f := run(t, "restrict_wildcard_for_cluster_roles", s)
	assert.Equal(t, []string{"cluster-admin"}, f.Resources)
	assert.Equal(t, "ClusterRole", f.ResourceType)
}

func TestAnonymousBindings(t *testing.T) {
	bindings := testutil.LoadItems[rbacv1.RoleBinding](t, "testdata/rbac.yaml")
	clusterBindings := []rbacv1.ClusterRoleBinding{
		{ObjectMeta: testutil.Meta("", "system:public-info-viewer"), Subjects: []rbacv1.Subject{{Kind: "Group", Name: "system:unauthenticated"}}},
		{ObjectMeta: testutil.Meta("", "anonymous-admin"), Subjects: []rbacv1.Subject{{Kind: "User", Name: "system:anonymous"}}},
	}
	s := snapshot.NewNamespaced(testScope, "shop", snapshot.WithRoleBindings(bindings), snapshot.WithClusterRoleBindings(clusterBindings))

	assert.Equal(t, []string{"open-door", "guest"}, run(t, "disable_anonymous_access_for_roles", s).Resources)
	assert.Equal(t, []string{"anonymous-admin"}, run(t, "disable_anonymous_access_for_cluster_roles", s).Resources)
}

func TestNamespacePSA(t *testing.T) {
	labelled := corev1.Namespace{ObjectMeta: testutil.Meta("", "shop")}
	labelled.Labels = map[string]string{"pod-security.kubernetes.io/enforce": "restricted"}
	bare := corev1.Namespace{ObjectMeta: testutil.Meta("", "shop")}
	other := corev1.Namespace{ObjectMeta: testutil.Meta("", "other")}

	f := run(t, "ensure_namespace_psa_exist", snapshot.NewNamespaced(testScope, "shop", snapshot.WithNamespaces([]corev1.Namespace{labelled, other})))
	assert.True(t, f.Passed())

	f = run(t, "ensure_namespace_psa_exist", snapshot.NewNamespaced(testScope, "shop", snapshot.WithNamespaces([]corev1.Namespace{bare})))
	assert.Equal(t, []string{"shop"}, f.Resources)
}

func TestLoadBalancerEncryption(t *testing.T) {
	svc := func(name string, typ corev1.ServiceType, annotations map[string]string) corev1.Service {
		s := corev1.Service{ObjectMeta: testutil.Meta("shop", name)}
		s.Annotations = annotations
		s.Spec.Type = typ
		return s
	}
	services := []corev1.Service{
		svc("internal", corev1.ServiceTypeClusterIP, nil),
		svc("bare", corev1.ServiceTypeLoadBalancer, nil),
		svc("cert-only", corev1.ServiceTypeLoadBalancer, map[string]string{
			"service.beta.kubernetes.io/aws-load-balancer-ssl-cert": "arn:aws:acm:us-east-1:111122223333:certificate/abc",
		}),
		svc("tls", corev1.ServiceTypeLoadBalancer, map[string]string{
			"service.beta.kubernetes.io/aws-load-balancer-ssl-cert":  "arn:aws:acm:us-east-1:111122223333:certificate/abc",
			"service.beta.kubernetes.io/aws-load-balancer-ssl-ports": "443",
		}),
	}
	f := run(t, "use_encryption_with_aws_load_balancers", snapshot.NewNamespaced(testScope, "shop", snapshot.WithServices(services)))
	assert.Equal(t, []string{"bare", "cert-only"}, f.Resources)
	assert.Equal(t, "Service", f.ResourceType)
}
