package kube

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/asjarre/hardeneks/internal/config"
)

const kubeconfig = `apiVersion: v1
kind: Config
current-context: prod
clusters:
  - name: arn:aws:eks:eu-west-1:111122223333:cluster/prod
    cluster:
      server: https://example.eks.amazonaws.com
      disable-compression: true
  - name: kind-dev
    cluster:
      server: https://127.0.0.1:6443
contexts:
  - name: prod
    context:
      cluster: arn:aws:eks:eu-west-1:111122223333:cluster/prod
      user: prod
  - name: dev
    context:
      cluster: kind-dev
      user: dev
users:
  - name: prod
    user:
      token: abc
  - name: dev
    user:
      token: def
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0o600))
	return path
}

func TestRawConfig(t *testing.T) {
	raw, err := RawConfig(writeKubeconfig(t))
	require.NoError(t, err)
	assert.Equal(t, "prod", raw.CurrentContext)
	assert.True(t, raw.Clusters["arn:aws:eks:eu-west-1:111122223333:cluster/prod"].DisableCompression)

	_, err = RawConfig(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestPickKubeconfigPath_Env(t *testing.T) {
	path := writeKubeconfig(t)
	t.Setenv("KUBECONFIG", filepath.Join(t.TempDir(), "absent")+string(os.PathListSeparator)+path)

	assert.Equal(t, path, pickKubeconfigPath(""))
	assert.Equal(t, "explicit", pickKubeconfigPath("explicit"))
}

func TestRawConfig_KubeconfigListFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a")
	second := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(first, []byte(kubeconfig), 0o600))
	require.NoError(t, os.WriteFile(second, []byte(kubeconfig), 0o600))
	t.Setenv("KUBECONFIG", first+string(os.PathListSeparator)+second)

	cfg := config.Defaults()
	assert.Empty(t, cfg.Kubeconfig)

	raw, err := RawConfig(cfg.Kubeconfig)
	require.NoError(t, err)
	assert.Equal(t, "prod", raw.CurrentContext)

	restCfg, err := LoadConfig(Options{Kubeconfig: cfg.Kubeconfig})
	require.NoError(t, err)
	assert.Equal(t, "https://example.eks.amazonaws.com", restCfg.Host)
}

func TestLoadConfig_ContextOverride(t *testing.T) {
	path := writeKubeconfig(t)

	cfg, err := LoadConfig(Options{Kubeconfig: path})
	require.NoError(t, err)
	assert.Equal(t, "https://example.eks.amazonaws.com", cfg.Host)

	cfg, err = LoadConfig(Options{Kubeconfig: path, Context: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)

	_, err = LoadConfig(Options{Kubeconfig: path, Context: "nope"})
	assert.Error(t, err)
}

func TestResolveTarget(t *testing.T) {
	raw, err := RawConfig(writeKubeconfig(t))
	require.NoError(t, err)

	target, err := ResolveTarget(raw, "")
	require.NoError(t, err)
	assert.Equal(t, Target{Context: "prod", Cluster: "prod", Region: "eu-west-1"}, target)

	target, err = ResolveTarget(raw, "dev")
	require.NoError(t, err)
	assert.Equal(t, Target{Context: "dev", Cluster: "kind-dev"}, target)

	_, err = ResolveTarget(raw, "missing")
	assert.Error(t, err)
	_, err = ResolveTarget(&clientcmdapi.Config{}, "")
	assert.Error(t, err)
}
