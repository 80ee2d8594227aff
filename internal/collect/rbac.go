package collect

import (
	"context"

	rbacv1 "k8s.io/api/rbac/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

func Roles(ctx context.Context, cs kubernetes.Interface, namespace string) ([]rbacv1.Role, error) {
	list, err := cs.RbacV1().Roles(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func RoleBindings(ctx context.Context, cs kubernetes.Interface, namespace string) ([]rbacv1.RoleBinding, error) {
	list, err := cs.RbacV1().RoleBindings(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// ClusterRoles lists every cluster role. The result is the same for every
// namespace, so callers cache it per run.
func ClusterRoles(ctx context.Context, cs kubernetes.Interface) ([]rbacv1.ClusterRole, error) {
	list, err := cs.RbacV1().ClusterRoles().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

func ClusterRoleBindings(ctx context.Context, cs kubernetes.Interface) ([]rbacv1.ClusterRoleBinding, error) {
	list, err := cs.RbacV1().ClusterRoleBindings().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
