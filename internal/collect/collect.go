// Package collect fetches the Kubernetes resources rules read and assembles
// them into snapshots. Only the collections a run asks for are fetched.
package collect

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	rbacv1 "k8s.io/api/rbac/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/kubernetes"

	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

// Policy decides what a failed fetch does to the run.
type Policy int

const (
	// Degrade records a collector skip and leaves the collection empty.
	Degrade Policy = iota
	// FailFast aborts snapshot construction with a *FetchError.
	FailFast
)

// FetchError reports a collection that could not be fetched.
type FetchError struct {
	Kind      snapshot.Kind
	Namespace string
	Err       error
}

func (e *FetchError) Error() string {
	if e.Namespace != "" {
		return fmt.Sprintf("collect %s in %s: %v", e.Kind, e.Namespace, e.Err)
	}
	return fmt.Sprintf("collect %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsRBAC reports whether the fetch was denied by the API server.
func (e *FetchError) IsRBAC() bool {
	return apierrors.IsForbidden(e.Err) || apierrors.IsUnauthorized(e.Err)
}

// Collector builds snapshots from a cluster. Cluster-scoped RBAC objects are
// fetched once and shared by every namespaced snapshot it builds.
type Collector struct {
	cs     kubernetes.Interface
	policy Policy
	logger *zap.Logger

	mu                  sync.Mutex
	clusterRoles        *cached[rbacv1.ClusterRole]
	clusterRoleBindings *cached[rbacv1.ClusterRoleBinding]
}

type cached[T any] struct {
	items []T
	err   error
}

// New returns a collector. A nil logger discards log output.
func New(cs kubernetes.Interface, policy Policy, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{cs: cs, policy: policy, logger: logger}
}

// Cluster builds the cluster-wide snapshot holding kinds. Namespaces is the
// universe coverage rules compare against.
func (c *Collector) Cluster(ctx context.Context, scope snapshot.Scope, namespaces []string, kinds []snapshot.Kind) (*snapshot.Cluster, []model.CollectorSkip, error) {
	var (
		opts  []snapshot.ClusterOption
		skips []model.CollectorSkip
	)
	for _, kind := range kinds {
		opt, err := c.clusterOption(ctx, kind)
		if err != nil {
			ferr := &FetchError{Kind: kind, Err: err}
			skip, fatal := c.handle(ferr)
			if fatal {
				return nil, skips, ferr
			}
			skips = append(skips, skip)
			continue
		}
		opts = append(opts, opt)
	}
	return snapshot.NewCluster(scope, namespaces, opts...), skips, nil
}

// Namespaced builds the snapshot of namespace holding kinds.
func (c *Collector) Namespaced(ctx context.Context, scope snapshot.Scope, namespace string, kinds []snapshot.Kind) (*snapshot.Namespaced, []model.CollectorSkip, error) {
	var (
		opts  []snapshot.NamespacedOption
		skips []model.CollectorSkip
	)
	for _, kind := range kinds {
		opt, err := c.namespacedOption(ctx, namespace, kind)
		if err != nil {
			ferr := &FetchError{Kind: kind, Namespace: namespace, Err: err}
			skip, fatal := c.handle(ferr)
			if fatal {
				return nil, skips, ferr
			}
			skips = append(skips, skip)
			continue
		}
		opts = append(opts, opt)
	}
	return snapshot.NewNamespaced(scope, namespace, opts...), skips, nil
}

func (c *Collector) handle(err *FetchError) (model.CollectorSkip, bool) {
	if c.policy == FailFast {
		return model.CollectorSkip{}, true
	}
	c.logger.Warn("Collector skipped",
		zap.String("kind", string(err.Kind)),
		zap.String("namespace", err.Namespace),
		zap.Bool("rbac", err.IsRBAC()),
		zap.Error(err.Err),
	)
	return model.CollectorSkip{
		Name:   string(err.Kind),
		Reason: err.Err.Error(),
		RBAC:   err.IsRBAC(),
	}, false
}

func (c *Collector) clusterOption(ctx context.Context, kind snapshot.Kind) (snapshot.ClusterOption, error) {
	switch kind {
	case snapshot.ResourceQuotas:
		items, err := ResourceQuotas(ctx, c.cs, "")
		return snapshot.WithResourceQuotas(items), err
	case snapshot.NetworkPolicies:
		items, err := NetworkPolicies(ctx, c.cs, "")
		return snapshot.WithNetworkPolicies(items), err
	case snapshot.StorageClasses:
		items, err := StorageClasses(ctx, c.cs)
		return snapshot.WithStorageClasses(items), err
	case snapshot.PersistentVolumes:
		items, err := PVs(ctx, c.cs)
		return snapshot.WithPersistentVolumes(items), err
	default:
		return nil, fmt.Errorf("%s is not a cluster-wide collection", kind)
	}
}

func (c *Collector) namespacedOption(ctx context.Context, ns string, kind snapshot.Kind) (snapshot.NamespacedOption, error) {
	switch kind {
	case snapshot.Pods:
		items, err := Pods(ctx, c.cs, ns)
		return snapshot.WithPods(items), err
	case snapshot.Services:
		items, err := Services(ctx, c.cs, ns)
		return snapshot.WithServices(items), err
	case snapshot.Roles:
		items, err := Roles(ctx, c.cs, ns)
		return snapshot.WithRoles(items), err
	case snapshot.RoleBindings:
		items, err := RoleBindings(ctx, c.cs, ns)
		return snapshot.WithRoleBindings(items), err
	case snapshot.ClusterRoles:
		items, err := c.sharedClusterRoles(ctx)
		return snapshot.WithClusterRoles(items), err
	case snapshot.ClusterRoleBindings:
		items, err := c.sharedClusterRoleBindings(ctx)
		return snapshot.WithClusterRoleBindings(items), err
	case snapshot.DaemonSets:
		items, err := DaemonSets(ctx, c.cs, ns)
		return snapshot.WithDaemonSets(items), err
	case snapshot.StatefulSets:
		items, err := StatefulSets(ctx, c.cs, ns)
		return snapshot.WithStatefulSets(items), err
	case snapshot.Deployments:
		items, err := Deployments(ctx, c.cs, ns)
		return snapshot.WithDeployments(items), err
	case snapshot.HorizontalPodAutoscalers:
		items, err := HPAs(ctx, c.cs, ns)
		return snapshot.WithHorizontalPodAutoscalers(items), err
	case snapshot.ServiceAccounts:
		items, err := ServiceAccounts(ctx, c.cs, ns)
		return snapshot.WithServiceAccounts(items), err
	case snapshot.Namespaces:
		items, err := Namespace(ctx, c.cs, ns)
		return snapshot.WithNamespaces(items), err
	default:
		return nil, fmt.Errorf("%s is not a namespaced collection", kind)
	}
}

func (c *Collector) sharedClusterRoles(ctx context.Context) ([]rbacv1.ClusterRole, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clusterRoles == nil {
		items, err := ClusterRoles(ctx, c.cs)
		c.clusterRoles = &cached[rbacv1.ClusterRole]{items: items, err: err}
	}
	return c.clusterRoles.items, c.clusterRoles.err
}

func (c *Collector) sharedClusterRoleBindings(ctx context.Context) ([]rbacv1.ClusterRoleBinding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clusterRoleBindings == nil {
		items, err := ClusterRoleBindings(ctx, c.cs)
		c.clusterRoleBindings = &cached[rbacv1.ClusterRoleBinding]{items: items, err: err}
	}
	return c.clusterRoleBindings.items, c.clusterRoleBindings.err
}
