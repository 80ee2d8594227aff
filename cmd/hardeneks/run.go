package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"k8s.io/client-go/kubernetes"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/asjarre/hardeneks/internal/catalog"
	"github.com/asjarre/hardeneks/internal/cloud"
	"github.com/asjarre/hardeneks/internal/collect"
	"github.com/asjarre/hardeneks/internal/config"
	"github.com/asjarre/hardeneks/internal/engine"
	"github.com/asjarre/hardeneks/internal/kube"
	"github.com/asjarre/hardeneks/internal/logging"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/output"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/rules/clusterwide"
	"github.com/asjarre/hardeneks/internal/rules/namespaced"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

func run(ctx context.Context, cfg config.Config, noColor bool, stdout, stderr io.Writer) error {
	logger, err := logging.Setup(cfg.LogFormat, cfg.Verbose, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	s, err := connect(ctx, cfg, cat, logger)
	if err != nil {
		return err
	}
	report, err := s.scan(ctx)
	if err != nil {
		return err
	}

	if cfg.OutPath != "" {
		path, err := output.WriteFile(cfg.OutPath, cfg.Output, report)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(stdout, "Report written: %s\n", path)
	} else if err := output.Render(stdout, cfg.Output, report, noColor || color.NoColor); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return exitPolicy(cfg, report)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}

// exitPolicy returns an *exitCodeError when --exit-code is set and a rule failed.
func exitPolicy(cfg config.Config, r *model.Report) error {
	if cfg.ExitCode && r.Summary.Failed > 0 {
		return &exitCodeError{code: 2}
	}
	return nil
}

// scanner runs both scopes against one cluster.
type scanner struct {
	cfg    config.Config
	cat    *catalog.Catalog
	kube   kubernetes.Interface
	deps   rules.Deps
	scope  snapshot.Scope
	logger *zap.Logger
}

// connect resolves the target cluster and builds the Kubernetes and AWS
// clients. AWS configuration problems are not fatal: rules needing AWS then
// report execution errors.
func connect(ctx context.Context, cfg config.Config, cat *catalog.Catalog, logger *zap.Logger) (*scanner, error) {
	raw, err := kube.RawConfig(cfg.Kubeconfig)
	if err != nil {
		return nil, err
	}
	target, err := kube.ResolveTarget(raw, cfg.Context)
	if err != nil {
		return nil, err
	}
	if cfg.Cluster == "" {
		cfg.Cluster = target.Cluster
	}
	if cfg.Region == "" {
		cfg.Region = target.Region
	}

	cs, restCfg, err := kube.NewClient(kube.Options{Kubeconfig: cfg.Kubeconfig, Context: target.Context})
	if err != nil {
		return nil, err
	}
	logger.Debug("Connected",
		zap.String("cluster", cfg.Cluster),
		zap.String("context", target.Context),
		zap.String("endpoint", restCfg.Host),
	)

	deps := rules.Deps{
		Kube: cs,
		KubeConfig: func() (*clientcmdapi.Config, error) {
			return kube.RawConfig(cfg.Kubeconfig)
		},
	}
	aws, err := cloud.NewClients(ctx, cfg.Region)
	if err != nil {
		logger.Warn("AWS clients unavailable; AWS-backed rules will error", zap.Error(err))
	} else {
		deps.EKS, deps.EC2 = aws.EKS, aws.EC2
		cfg.Region = aws.Region
	}

	return &scanner{
		cfg:    cfg,
		cat:    cat,
		kube:   cs,
		deps:   deps,
		scope:  snapshot.Scope{Region: cfg.Region, Context: target.Context, Cluster: cfg.Cluster},
		logger: logger,
	}, nil
}

func (s *scanner) scan(ctx context.Context) (*model.Report, error) {
	report := model.NewReport(s.scope.Cluster, s.scope.Region, s.scope.Context, version, time.Now().UTC())

	policy := collect.Degrade
	if s.cfg.FailFast {
		policy = collect.FailFast
	}
	collector := collect.New(s.kube, policy, s.logger)

	universe, err := collect.Namespaces(ctx, s.kube, nil, s.cat.Ignored)
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}

	opts := []engine.Option{engine.WithLogger(s.logger), engine.WithConcurrency(s.cfg.Concurrency)}

	if !s.cfg.NamespacesOnly {
		reg := clusterwide.Registry()
		snap, skips, err := collector.Cluster(ctx, s.scope, universe, engine.Required(s.cat, reg))
		if err != nil {
			return nil, err
		}
		res, err := engine.New(reg, s.deps, opts...).Run(ctx, s.cat, snap)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, model.ScopeResult{
			Scope:    string(catalog.ClusterWide),
			Findings: res.Findings,
			Errors:   res.RuleErrors(""),
			Skips:    skips,
		})
	}

	if !s.cfg.ClusterOnly {
		reg := namespaced.Registry()
		eng := engine.New(reg, s.deps, opts...)
		kinds := engine.Required(s.cat, reg)
		for _, ns := range universe {
			if !collect.InScope(ns, s.cfg.Namespaces) {
				continue
			}
			snap, skips, err := collector.Namespaced(ctx, s.scope, ns, kinds)
			if err != nil {
				return nil, err
			}
			res, err := eng.Run(ctx, s.cat, snap)
			if err != nil {
				return nil, err
			}
			report.Results = append(report.Results, model.ScopeResult{
				Scope:     string(catalog.NamespaceBased),
				Namespace: ns,
				Findings:  res.Findings,
				Errors:    res.RuleErrors(ns),
				Skips:     skips,
			})
		}
	}

	report.EndedAt = time.Now().UTC()
	report.Summary = model.Summarize(&report)
	return &report, nil
}
