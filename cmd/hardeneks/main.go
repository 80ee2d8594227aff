package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asjarre/hardeneks/internal/config"
)

var version = "dev"

// exitCodeError carries a process exit code that is not a failure of the
// tool itself.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Defaults()
	var noColor bool

	cmd := &cobra.Command{
		Use:   "hardeneks",
		Short: "Check an EKS cluster against the EKS best practices",
		Long: `hardeneks evaluates a running EKS cluster against a catalog of best
practice rules and reports, per rule, whether the cluster passes and which
resources offend.

Examples:
  # Check the current kubeconfig context
  hardeneks

  # Check two namespaces only and fail CI on any finding
  hardeneks --namespaces-only --namespace shop --namespace billing --exit-code

  # Write a markdown report with a custom catalog
  hardeneks --config ./hardeneks.yaml -o markdown --out ./reports`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, noColor, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Kubeconfig, "kubeconfig", cfg.Kubeconfig, "Path to kubeconfig (default: first existing KUBECONFIG entry, then ~/.kube/config)")
	f.StringVar(&cfg.Context, "context", cfg.Context, "Kubeconfig context to use (default: current context)")
	f.StringVar(&cfg.Cluster, "cluster", cfg.Cluster, "EKS cluster name (default: derived from the context)")
	f.StringVar(&cfg.Region, "region", cfg.Region, "AWS region (default: AWS_REGION or derived from the context)")
	f.StringVar(&cfg.CatalogPath, "config", cfg.CatalogPath, "Rule catalog file (default: built-in catalog)")
	f.StringSliceVar(&cfg.Namespaces, "namespace", cfg.Namespaces, "Namespace to check; repeatable (default: all not ignored)")
	f.BoolVar(&cfg.ClusterOnly, "cluster-only", false, "Run cluster-wide rules only")
	f.BoolVar(&cfg.NamespacesOnly, "namespaces-only", false, "Run namespaced rules only")
	f.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Rules evaluated in parallel per scope")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Timeout for the whole run (0 disables)")
	f.BoolVar(&cfg.FailFast, "fail-fast", false, "Abort when a resource collection cannot be fetched")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: table, json, yaml, csv, markdown")
	f.StringVar(&cfg.OutPath, "out", "", "Write the report to this file or directory instead of stdout")
	f.BoolVar(&cfg.ExitCode, "exit-code", false, "Exit with status 2 when any rule fails")
	f.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVar(&noColor, "no-color", false, "Disable colored table output")

	return cmd
}
