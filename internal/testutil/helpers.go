// Package testutil provides shared test helpers: fixture loading and small
// builders for Kubernetes objects used across rule and collector tests.
package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

// LoadFixture reads a YAML file into out.
// Fails the test immediately if the file can't be read or parsed.
func LoadFixture(t *testing.T, path string, out any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read fixture %s", path)
	require.NoError(t, yaml.Unmarshal(data, out), "failed to parse fixture %s", path)
}

// LoadItems reads a Kubernetes List document and returns its items typed as T.
func LoadItems[T any](t *testing.T, path string) []T {
	t.Helper()
	var list struct {
		Items []T `json:"items"`
	}
	LoadFixture(t, path, &list)
	return list.Items
}

// Meta returns object metadata for name in namespace.
func Meta(namespace, name string) metav1.ObjectMeta {
	return metav1.ObjectMeta{Namespace: namespace, Name: name}
}

// Pod returns a pod named name in namespace with the given containers.
func Pod(namespace, name string, containers ...corev1.Container) corev1.Pod {
	return corev1.Pod{
		ObjectMeta: Meta(namespace, name),
		Spec:       corev1.PodSpec{Containers: containers},
	}
}

// Container returns a container with only its name set.
func Container(name string) corev1.Container {
	return corev1.Container{Name: name, Image: "public.ecr.aws/docker/library/busybox:1.36"}
}
