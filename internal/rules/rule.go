// Package rules defines the rule contract, the capabilities injected into
// rules, and the registry that maps catalog coordinates to implementations.
package rules

import (
	"context"
	"errors"
	"fmt"

	"k8s.io/client-go/kubernetes"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/asjarre/hardeneks/internal/cloud"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

// Rule is one policy check over a snapshot of type S.
//
// Check must produce exactly one Finding. It reads only the snapshot, except
// for rules documented as making a single read-only call through Deps; such
// calls are not retried and their failures are returned as errors.
type Rule[S any] interface {
	Meta() model.RuleMeta
	// Requires lists the snapshot collections Check reads.
	Requires() []snapshot.Kind
	Check(ctx context.Context, s S) (model.Finding, error)
}

type (
	ClusterRule   = Rule[*snapshot.Cluster]
	NamespaceRule = Rule[*snapshot.Namespaced]
)

// Deps carries the external capabilities a rule may use.
// A nil capability makes the rules that need it fail.
type Deps struct {
	EKS  cloud.EKSAPI
	EC2  cloud.EC2API
	Kube kubernetes.Interface
	// KubeConfig returns the parsed kubeconfig of the current user.
	KubeConfig func() (*clientcmdapi.Config, error)
}

// ErrMissingCapability is returned by rules whose Deps capability is nil.
var ErrMissingCapability = errors.New("capability not configured")

// Pass returns a passing finding.
func Pass(meta model.RuleMeta, resourceType, namespace string) model.Finding {
	return model.Finding{
		Rule:         meta,
		Status:       model.StatusPass,
		ResourceType: resourceType,
		Resources:    []string{},
		Namespace:    namespace,
	}
}

// Fail returns a failing finding listing offenders.
func Fail(meta model.RuleMeta, resourceType, namespace string, offenders []string) model.Finding {
	return model.Finding{
		Rule:         meta,
		Status:       model.StatusFail,
		ResourceType: resourceType,
		Resources:    offenders,
		Namespace:    namespace,
	}
}

// Result returns Pass when offenders is empty and Fail otherwise.
// Offenders are deduplicated, keeping first occurrence order.
func Result(meta model.RuleMeta, resourceType, namespace string, offenders []string) model.Finding {
	offenders = Dedupe(offenders)
	if len(offenders) == 0 {
		return Pass(meta, resourceType, namespace)
	}
	return Fail(meta, resourceType, namespace, offenders)
}

// Dedupe drops repeated entries, keeping first occurrence order.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Base implements Meta and Requires for embedding.
type Base struct {
	meta     model.RuleMeta
	requires []snapshot.Kind
}

// NewBase returns a Base with metadata and required collections.
func NewBase(meta model.RuleMeta, requires ...snapshot.Kind) Base {
	return Base{meta: meta, requires: requires}
}

func (b Base) Meta() model.RuleMeta { return b.meta }

func (b Base) Requires() []snapshot.Kind { return append([]snapshot.Kind(nil), b.requires...) }

// MissingCapability returns the error for a rule whose capability is absent.
func MissingCapability(name string) error {
	return fmt.Errorf("%s: %w", name, ErrMissingCapability)
}
