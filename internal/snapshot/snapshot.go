// Package snapshot holds the point-in-time resource views that rules evaluate.
//
// A snapshot is a partial view: only the collections requested for the current
// batch are fetched. Every other collection is an empty slice, so rules never
// have to tell "not fetched" apart from "fetched but empty".
//
// Snapshots are read-only once constructed. Rules must not modify them.
package snapshot

import (
	appsv1 "k8s.io/api/apps/v1"
	autoscalingv1 "k8s.io/api/autoscaling/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	rbacv1 "k8s.io/api/rbac/v1"
	storagev1 "k8s.io/api/storage/v1"
)

// Scope identifies the cluster a snapshot was taken from.
type Scope struct {
	Region  string `json:"region"`
	Context string `json:"context"`
	Cluster string `json:"cluster"`
}

// Cluster is the cluster-wide snapshot.
type Cluster struct {
	Scope
	// Namespaces lists the namespace names known to exist.
	Namespaces []string

	ResourceQuotas    []corev1.ResourceQuota
	NetworkPolicies   []networkingv1.NetworkPolicy
	StorageClasses    []storagev1.StorageClass
	PersistentVolumes []corev1.PersistentVolume

	kinds []Kind
}

// Namespaced is the snapshot of a single namespace.
type Namespaced struct {
	Scope
	Namespace string

	Pods                     []corev1.Pod
	Services                 []corev1.Service
	Roles                    []rbacv1.Role
	ClusterRoles             []rbacv1.ClusterRole
	RoleBindings             []rbacv1.RoleBinding
	ClusterRoleBindings      []rbacv1.ClusterRoleBinding
	DaemonSets               []appsv1.DaemonSet
	StatefulSets             []appsv1.StatefulSet
	Deployments              []appsv1.Deployment
	HorizontalPodAutoscalers []autoscalingv1.HorizontalPodAutoscaler
	ServiceAccounts          []corev1.ServiceAccount
	Namespaces               []corev1.Namespace

	kinds []Kind
}

// ClusterOption supplies one collection of a cluster snapshot.
type ClusterOption func(*Cluster)

// NamespacedOption supplies one collection of a namespaced snapshot.
type NamespacedOption func(*Namespaced)

// NewCluster builds a cluster-wide snapshot. Collections not supplied through
// an option are empty.
func NewCluster(scope Scope, namespaces []string, opts ...ClusterOption) *Cluster {
	c := &Cluster{
		Scope:             scope,
		Namespaces:        orEmpty(namespaces),
		ResourceQuotas:    []corev1.ResourceQuota{},
		NetworkPolicies:   []networkingv1.NetworkPolicy{},
		StorageClasses:    []storagev1.StorageClass{},
		PersistentVolumes: []corev1.PersistentVolume{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewNamespaced builds a snapshot of one namespace. Collections not supplied
// through an option are empty.
func NewNamespaced(scope Scope, namespace string, opts ...NamespacedOption) *Namespaced {
	n := &Namespaced{
		Scope:                    scope,
		Namespace:                namespace,
		Pods:                     []corev1.Pod{},
		Services:                 []corev1.Service{},
		Roles:                    []rbacv1.Role{},
		ClusterRoles:             []rbacv1.ClusterRole{},
		RoleBindings:             []rbacv1.RoleBinding{},
		ClusterRoleBindings:      []rbacv1.ClusterRoleBinding{},
		DaemonSets:               []appsv1.DaemonSet{},
		StatefulSets:             []appsv1.StatefulSet{},
		Deployments:              []appsv1.Deployment{},
		HorizontalPodAutoscalers: []autoscalingv1.HorizontalPodAutoscaler{},
		ServiceAccounts:          []corev1.ServiceAccount{},
		Namespaces:               []corev1.Namespace{},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Kinds returns the collections that were explicitly supplied, in the order
// they were supplied.
func (c *Cluster) Kinds() []Kind { return append([]Kind(nil), c.kinds...) }

// Kinds returns the collections that were explicitly supplied, in the order
// they were supplied.
func (n *Namespaced) Kinds() []Kind { return append([]Kind(nil), n.kinds...) }

func WithResourceQuotas(items []corev1.ResourceQuota) ClusterOption {
	return func(c *Cluster) { c.ResourceQuotas = orEmpty(items); c.kinds = append(c.kinds, ResourceQuotas) }
}

func WithNetworkPolicies(items []networkingv1.NetworkPolicy) ClusterOption {
	return func(c *Cluster) { c.NetworkPolicies = orEmpty(items); c.kinds = append(c.kinds, NetworkPolicies) }
}

func WithStorageClasses(items []storagev1.StorageClass) ClusterOption {
	return func(c *Cluster) { c.StorageClasses = orEmpty(items); c.kinds = append(c.kinds, StorageClasses) }
}

func WithPersistentVolumes(items []corev1.PersistentVolume) ClusterOption {
	return func(c *Cluster) { c.PersistentVolumes = orEmpty(items); c.kinds = append(c.kinds, PersistentVolumes) }
}

func WithPods(items []corev1.Pod) NamespacedOption {
	return func(n *Namespaced) { n.Pods = orEmpty(items); n.kinds = append(n.kinds, Pods) }
}

func WithServices(items []corev1.Service) NamespacedOption {
	return func(n *Namespaced) { n.Services = orEmpty(items); n.kinds = append(n.kinds, Services) }
}

func WithRoles(items []rbacv1.Role) NamespacedOption {
	return func(n *Namespaced) { n.Roles = orEmpty(items); n.kinds = append(n.kinds, Roles) }
}

func WithClusterRoles(items []rbacv1.ClusterRole) NamespacedOption {
	return func(n *Namespaced) { n.ClusterRoles = orEmpty(items); n.kinds = append(n.kinds, ClusterRoles) }
}

func WithRoleBindings(items []rbacv1.RoleBinding) NamespacedOption {
	return func(n *Namespaced) { n.RoleBindings = orEmpty(items); n.kinds = append(n.kinds, RoleBindings) }
}

func WithClusterRoleBindings(items []rbacv1.ClusterRoleBinding) NamespacedOption {
	return func(n *Namespaced) {
		n.ClusterRoleBindings = orEmpty(items)
		n.kinds = append(n.kinds, ClusterRoleBindings)
	}
}

func WithDaemonSets(items []appsv1.DaemonSet) NamespacedOption {
	return func(n *Namespaced) { n.DaemonSets = orEmpty(items); n.kinds = append(n.kinds, DaemonSets) }
}

func WithStatefulSets(items []appsv1.StatefulSet) NamespacedOption {
	return func(n *Namespaced) { n.StatefulSets = orEmpty(items); n.kinds = append(n.kinds, StatefulSets) }
}

func WithDeployments(items []appsv1.Deployment) NamespacedOption {
	return func(n *Namespaced) { n.Deployments = orEmpty(items); n.kinds = append(n.kinds, Deployments) }
}

func WithHorizontalPodAutoscalers(items []autoscalingv1.HorizontalPodAutoscaler) NamespacedOption {
	return func(n *Namespaced) {
		n.HorizontalPodAutoscalers = orEmpty(items)
		n.kinds = append(n.kinds, HorizontalPodAutoscalers)
	}
}

func WithServiceAccounts(items []corev1.ServiceAccount) NamespacedOption {
	return func(n *Namespaced) { n.ServiceAccounts = orEmpty(items); n.kinds = append(n.kinds, ServiceAccounts) }
}

func WithNamespaces(items []corev1.Namespace) NamespacedOption {
	return func(n *Namespaced) { n.Namespaces = orEmpty(items); n.kinds = append(n.kinds, Namespaces) }
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
