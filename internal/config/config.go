// Package config holds the run options and their environment defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Output formats.
const (
	OutputTable    = "table"
	OutputJSON     = "json"
	OutputYAML     = "yaml"
	OutputCSV      = "csv"
	OutputMarkdown = "markdown"
)

var outputs = []string{OutputTable, OutputJSON, OutputYAML, OutputCSV, OutputMarkdown}

// Config is everything a run needs besides the catalog contents.
type Config struct {
	Kubeconfig string
	Context    string
	Cluster    string
	Region     string
	// CatalogPath is empty for the built-in catalog.
	CatalogPath string

	Namespaces     []string
	ClusterOnly    bool
	NamespacesOnly bool

	Concurrency int
	Timeout     time.Duration
	FailFast    bool

	Output   string
	OutPath  string
	ExitCode bool

	LogFormat string
	Verbose   bool
}

// LoadDotEnv loads .env style files into the process environment when they
// exist. Variables already set are not overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Defaults returns the configuration implied by the environment.
func Defaults() Config {
	return Config{
		Context:     getEnv("HARDENEKS_CONTEXT", ""),
		Cluster:     getEnv("HARDENEKS_CLUSTER", ""),
		Region:      getEnv("AWS_REGION", getEnv("AWS_DEFAULT_REGION", "")),
		CatalogPath: getEnv("HARDENEKS_CONFIG", ""),
		Concurrency: getEnvAsInt("HARDENEKS_CONCURRENCY", 4),
		Timeout:     getEnvAsDuration("HARDENEKS_TIMEOUT", 5*time.Minute),
		Output:      getEnv("HARDENEKS_OUTPUT", OutputTable),
		LogFormat:   getEnv("HARDENEKS_LOG_FORMAT", "text"),
	}
}

// Validate checks option values and combinations.
func (c *Config) Validate() error {
	if c.ClusterOnly && c.NamespacesOnly {
		return fmt.Errorf("--cluster-only and --namespaces-only are mutually exclusive")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	valid := false
	for _, o := range outputs {
		if c.Output == o {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown output format %q (want one of %v)", c.Output, outputs)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
