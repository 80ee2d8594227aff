package collect

import (
	"context"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ResourceQuotas lists quotas of namespace, or of every namespace when it is empty.
func ResourceQuotas(ctx context.Context, cs kubernetes.Interface, namespace string) ([]corev1.ResourceQuota, error) {
	list, err := cs.CoreV1().ResourceQuotas(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
