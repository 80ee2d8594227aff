package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/fake"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/asjarre/hardeneks/internal/catalog"
	"github.com/asjarre/hardeneks/internal/config"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
	"github.com/asjarre/hardeneks/internal/testutil"
)

func newTestScanner(cfg config.Config) *scanner {
	cart := testutil.Pod("shop", "cart", testutil.Container("app"))
	cs := fake.NewClientset(
		&corev1.Namespace{ObjectMeta: testutil.Meta("", "kube-system")},
		&corev1.Namespace{ObjectMeta: testutil.Meta("", "shop")},
		&corev1.Namespace{ObjectMeta: testutil.Meta("", "billing")},
		&cart,
	)
	kubeconfig := clientcmdapi.NewConfig()
	kubeconfig.Clusters["demo"] = &clientcmdapi.Cluster{Server: "https://demo", DisableCompression: true}

	return &scanner{
		cfg:  cfg,
		cat:  catalog.Default(),
		kube: cs,
		deps: rules.Deps{
			Kube:       cs,
			KubeConfig: func() (*clientcmdapi.Config, error) { return kubeconfig, nil },
		},
		scope:  snapshot.Scope{Cluster: "demo", Region: "eu-west-1", Context: "demo"},
		logger: zap.NewNop(),
	}
}

func TestScan_BothScopes(t *testing.T) {
	cfg := config.Defaults()
	report, err := newTestScanner(cfg).scan(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, string(catalog.ClusterWide), report.Results[0].Scope)
	assert.Equal(t, "billing", report.Results[1].Namespace)
	assert.Equal(t, "shop", report.Results[2].Namespace)

	// AWS-backed rules have no clients and report execution errors instead
	// of findings.
	cluster := report.Results[0]
	assert.Len(t, cluster.Errors, 4)
	assert.Len(t, cluster.Findings, catalog.Default().Len(catalog.ClusterWide)-4)
	for _, e := range cluster.Errors {
		assert.Equal(t, "execution", e.Kind)
	}

	assert.Len(t, report.Results[2].Findings, catalog.Default().Len(catalog.NamespaceBased))
	assert.Empty(t, report.Results[2].Errors)
	assert.Greater(t, report.Summary.Failed, 0)
	assert.Equal(t, 4, report.Summary.Errors)
	assert.False(t, report.EndedAt.Before(report.StartedAt))
}

func TestScan_NamespaceFilterAndScopeFlags(t *testing.T) {
	cfg := config.Defaults()
	cfg.NamespacesOnly = true
	cfg.Namespaces = []string{"shop", "kube-system"}

	report, err := newTestScanner(cfg).scan(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "shop", report.Results[0].Namespace)

	cfg = config.Defaults()
	cfg.ClusterOnly = true
	report, err = newTestScanner(cfg).scan(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, string(catalog.ClusterWide), report.Results[0].Scope)
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(config.Defaults()).scan(ctx)
	assert.Error(t, err)
}

func TestExitPolicy(t *testing.T) {
	failing := &model.Report{Summary: model.Summary{Failed: 1}}
	clean := &model.Report{Summary: model.Summary{Passed: 3}}

	cfg := config.Defaults()
	assert.NoError(t, exitPolicy(cfg, failing))

	cfg.ExitCode = true
	assert.NoError(t, exitPolicy(cfg, clean))

	err := exitPolicy(cfg, failing)
	var ec *exitCodeError
	require.True(t, errors.As(err, &ec))
	assert.Equal(t, 2, ec.code)
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{
		"kubeconfig", "context", "cluster", "region", "config", "namespace",
		"cluster-only", "namespaces-only", "concurrency", "timeout", "fail-fast",
		"output", "out", "exit-code", "log-format", "verbose", "no-color",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "o", cmd.Flags().Lookup("output").Shorthand)
}

func TestRootCmd_InvalidFlagsRejectedBeforeConnecting(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--cluster-only", "--namespaces-only"})

	err := cmd.Execute()
	require.Error(t, err)
	var ec *exitCodeError
	assert.False(t, errors.As(err, &ec))
}

func TestRootCmd_BadCatalog(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", t.TempDir() + "/missing.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}
