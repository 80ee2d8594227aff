package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_FromEnvironment(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "eu-central-1")
	t.Setenv("HARDENEKS_CONCURRENCY", "8")
	t.Setenv("HARDENEKS_TIMEOUT", "90s")
	t.Setenv("HARDENEKS_CONFIG", "/etc/hardeneks/config.yaml")

	c := Defaults()
	assert.Equal(t, "eu-central-1", c.Region)
	assert.Equal(t, 8, c.Concurrency)
	assert.Equal(t, 90*time.Second, c.Timeout)
	assert.Equal(t, "/etc/hardeneks/config.yaml", c.CatalogPath)
	assert.Equal(t, OutputTable, c.Output)
	require.NoError(t, c.Validate())
}

func TestDefaults_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HARDENEKS_CONCURRENCY", "many")
	t.Setenv("HARDENEKS_TIMEOUT", "soon")

	c := Defaults()
	assert.Equal(t, 4, c.Concurrency)
	assert.Equal(t, 5*time.Minute, c.Timeout)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := Defaults()
		c.Output = OutputJSON
		c.LogFormat = "json"
		c.Concurrency = 1
		return c
	}

	c := base()
	require.NoError(t, c.Validate())

	c = base()
	c.ClusterOnly, c.NamespacesOnly = true, true
	assert.ErrorContains(t, c.Validate(), "mutually exclusive")

	c = base()
	c.Concurrency = 0
	assert.ErrorContains(t, c.Validate(), "concurrency")

	c = base()
	c.Output = "html"
	assert.ErrorContains(t, c.Validate(), "unknown output format")

	c = base()
	c.LogFormat = "logfmt"
	assert.ErrorContains(t, c.Validate(), "unknown log format")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("HARDENEKS_TEST_ONLY=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HARDENEKS_TEST_ONLY") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "absent.env")))
	assert.Equal(t, "from-file", os.Getenv("HARDENEKS_TEST_ONLY"))
}
