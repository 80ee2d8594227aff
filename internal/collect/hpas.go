package collect

import (
	"context"

	autoscalingv1 "k8s.io/api/autoscaling/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// HPAs lists autoscaling/v1 autoscalers; scaleTargetRef is all the rules read.
func HPAs(ctx context.Context, cs kubernetes.Interface, namespace string) ([]autoscalingv1.HorizontalPodAutoscaler, error) {
	list, err := cs.AutoscalingV1().HorizontalPodAutoscalers(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}
