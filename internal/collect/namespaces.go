package collect

import (
	"context"
	"sort"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Namespaces lists the names of the namespaces to evaluate, sorted. Names for
// which ignored returns true are dropped; include, when non-empty, further
// restricts the result.
func Namespaces(ctx context.Context, cs kubernetes.Interface, include []string, ignored func(string) bool) ([]string, error) {
	list, err := cs.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		if !InScope(ns.Name, include) {
			continue
		}
		if ignored != nil && ignored(ns.Name) {
			continue
		}
		out = append(out, ns.Name)
	}
	sort.Strings(out)
	return out, nil
}

// Namespace fetches the namespace object itself, for its labels.
func Namespace(ctx context.Context, cs kubernetes.Interface, name string) ([]corev1.Namespace, error) {
	ns, err := cs.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, err
	}
	return []corev1.Namespace{*ns}, nil
}
