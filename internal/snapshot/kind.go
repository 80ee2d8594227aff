package snapshot

import "sort"

// Kind names one resource collection of a snapshot.
type Kind string

// Cluster-wide collections.
const (
	ResourceQuotas    Kind = "resource_quotas"
	NetworkPolicies   Kind = "network_policies"
	StorageClasses    Kind = "storage_classes"
	PersistentVolumes Kind = "persistent_volumes"
)

// Namespaced collections.
const (
	Pods                     Kind = "pods"
	Services                 Kind = "services"
	Roles                    Kind = "roles"
	ClusterRoles             Kind = "cluster_roles"
	RoleBindings             Kind = "role_bindings"
	ClusterRoleBindings      Kind = "cluster_role_bindings"
	DaemonSets               Kind = "daemon_sets"
	StatefulSets             Kind = "stateful_sets"
	Deployments              Kind = "deployments"
	HorizontalPodAutoscalers Kind = "hpas"
	ServiceAccounts          Kind = "service_accounts"
	Namespaces               Kind = "namespaces"
)

// ClusterKinds lists every collection of the cluster-wide snapshot.
var ClusterKinds = []Kind{ResourceQuotas, NetworkPolicies, StorageClasses, PersistentVolumes}

// NamespacedKinds lists every collection of the namespaced snapshot.
var NamespacedKinds = []Kind{
	Pods, Services, Roles, ClusterRoles, RoleBindings, ClusterRoleBindings,
	DaemonSets, StatefulSets, Deployments, HorizontalPodAutoscalers,
	ServiceAccounts, Namespaces,
}

// KindSet is a set of collection kinds.
type KindSet map[Kind]struct{}

// NewKindSet returns a set holding kinds.
func NewKindSet(kinds ...Kind) KindSet {
	s := KindSet{}
	s.Add(kinds...)
	return s
}

// Add inserts kinds into the set.
func (s KindSet) Add(kinds ...Kind) {
	for _, k := range kinds {
		s[k] = struct{}{}
	}
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the kinds in lexical order.
func (s KindSet) Sorted() []Kind {
	out := make([]Kind, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
