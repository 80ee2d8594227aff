// Package engine evaluates the catalog's rules for one scope against a
// snapshot and collects findings and per-rule errors in catalog order.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/asjarre/hardeneks/internal/catalog"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/rules"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

// Result holds the findings and errors of one run, both in catalog order.
// Errors are *ResolutionError or *ExecutionError values.
type Result struct {
	Findings []model.Finding
	Errors   []error
}

// RuleErrors returns Errors in report form.
func (r *Result) RuleErrors(namespace string) []model.RuleError {
	out := make([]model.RuleError, 0, len(r.Errors))
	for _, err := range r.Errors {
		out = append(out, RuleError(err, namespace))
	}
	return out
}

type Option func(*options)

type options struct {
	logger      *zap.Logger
	concurrency int
}

// WithLogger sets the logger rule failures are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConcurrency bounds how many rules run at once. Values below 1 mean 1.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// Engine runs the rules of one registry. It is safe to call Run repeatedly,
// including concurrently.
type Engine[S any] struct {
	registry *rules.Registry[S]
	deps     rules.Deps
	opts     options
}

// New returns an engine resolving rules from registry with deps.
func New[S any](registry *rules.Registry[S], deps rules.Deps, opts ...Option) *Engine[S] {
	o := options{logger: zap.NewNop(), concurrency: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[S]{registry: registry, deps: deps, opts: o}
}

// Plan lists the coordinates the catalog declares for scope, in pillar,
// section, identifier order.
func Plan(cat *catalog.Catalog, scope catalog.Scope) []rules.Coordinate {
	var out []rules.Coordinate
	for _, s := range cat.Sections(scope) {
		for _, id := range s.Rules {
			out = append(out, rules.Coordinate{Scope: scope, Pillar: s.Pillar, Section: s.Name, ID: id})
		}
	}
	return out
}

// Required returns the snapshot collections read by the resolvable rules the
// catalog declares for the registry's scope.
func Required[S any](cat *catalog.Catalog, registry *rules.Registry[S]) []snapshot.Kind {
	kinds := snapshot.NewKindSet()
	for _, c := range Plan(cat, registry.Scope()) {
		rule, err := resolve(registry, c, rules.Deps{})
		if err != nil {
			continue
		}
		kinds.Add(rule.Requires()...)
	}
	return kinds.Sorted()
}

type slot struct {
	finding *model.Finding
	err     error
}

// Run evaluates every rule the catalog declares for the engine's scope.
// A rule that cannot be resolved or fails is recorded in Result.Errors and
// does not stop the others. When ctx is cancelled, rules that had not
// started contribute nothing and Run returns the partial result with
// ctx.Err().
func (e *Engine[S]) Run(ctx context.Context, cat *catalog.Catalog, snap S) (*Result, error) {
	plan := Plan(cat, e.registry.Scope())
	slots := make([]slot, len(plan))

	var g errgroup.Group
	g.SetLimit(e.opts.concurrency)
	for i, coord := range plan {
		if ctx.Err() != nil {
			break
		}
		rule, err := resolve(e.registry, coord, e.deps)
		if err != nil {
			slots[i].err = err
			e.logFailure(coord, err)
			continue
		}
		g.Go(func() error {
			slots[i] = e.evaluate(ctx, coord, rule, snap)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{Findings: []model.Finding{}, Errors: []error{}}
	for _, s := range slots {
		switch {
		case s.finding != nil:
			res.Findings = append(res.Findings, *s.finding)
		case s.err != nil:
			res.Errors = append(res.Errors, s.err)
		}
	}
	e.opts.logger.Debug("Scope evaluated",
		zap.String("scope", string(e.registry.Scope())),
		zap.Int("rules", len(plan)),
		zap.Int("findings", len(res.Findings)),
		zap.Int("errors", len(res.Errors)),
	)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// resolve instantiates the rule at coord. A missing rule is a
// *ResolutionError and a panicking factory an *ExecutionError.
func resolve[S any](registry *rules.Registry[S], coord rules.Coordinate, deps rules.Deps) (rule rules.Rule[S], err error) {
	defer func() {
		if r := recover(); r != nil {
			rule, err = nil, &ExecutionError{Coordinate: coord, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	rule, err = registry.Resolve(coord, deps)
	if err != nil {
		return nil, &ResolutionError{Coordinate: coord, Err: err}
	}
	return rule, nil
}

func (e *Engine[S]) evaluate(ctx context.Context, coord rules.Coordinate, rule rules.Rule[S], snap S) (out slot) {
	if ctx.Err() != nil {
		return slot{}
	}
	defer func() {
		if r := recover(); r != nil {
			out = slot{err: &ExecutionError{Coordinate: coord, Err: fmt.Errorf("panic: %v", r)}}
			e.logFailure(coord, out.err)
		}
	}()

	f, err := rule.Check(ctx, snap)
	if err != nil {
		if ctx.Err() != nil {
			return slot{}
		}
		out = slot{err: &ExecutionError{Coordinate: coord, Err: err}}
		e.logFailure(coord, out.err)
		return out
	}
	if !f.Consistent() {
		out = slot{err: &ExecutionError{Coordinate: coord, Err: errInconsistent}}
		e.logFailure(coord, out.err)
		return out
	}
	return slot{finding: &f}
}

func (e *Engine[S]) logFailure(coord rules.Coordinate, err error) {
	e.opts.logger.Warn("Rule evaluation failed",
		zap.String("rule", coord.ID),
		zap.String("pillar", coord.Pillar),
		zap.String("section", coord.Section),
		zap.Error(err),
	)
}
