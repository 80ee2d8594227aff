package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asjarre/hardeneks/internal/catalog"
	"github.com/asjarre/hardeneks/internal/model"
	"github.com/asjarre/hardeneks/internal/snapshot"
)

type fakeRule struct {
	Base
	deps Deps
}

func (r *fakeRule) Check(_ context.Context, s *snapshot.Cluster) (model.Finding, error) {
	return Pass(r.Meta(), "Thing", ""), nil
}

func fakeFactory(pillar, section, id string) Factory[*snapshot.Cluster] {
	return func(d Deps) ClusterRule {
		return &fakeRule{
			Base: NewBase(model.RuleMeta{Scope: string(catalog.ClusterWide), Pillar: pillar, Section: section, ID: id}, snapshot.StorageClasses),
			deps: d,
		}
	}
}

func TestRegister_AndResolve(t *testing.T) {
	r := NewRegistry[*snapshot.Cluster](catalog.ClusterWide)
	require.NoError(t, r.Register("security", "iam", "a", fakeFactory("security", "iam", "a")))
	require.NoError(t, r.Register("security", "iam", "b", fakeFactory("security", "iam", "b")))

	rule, err := r.Resolve(Coordinate{Scope: catalog.ClusterWide, Pillar: "security", Section: "iam", ID: "a"}, Deps{})
	require.NoError(t, err)
	assert.Equal(t, "a", rule.Meta().ID)
	assert.Equal(t, []snapshot.Kind{snapshot.StorageClasses}, rule.Requires())

	coords := r.Coordinates()
	require.Len(t, coords, 2)
	assert.Equal(t, "cluster_wide/security/iam/a", coords[0].String())
	assert.Equal(t, catalog.ClusterWide, r.Scope())
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry[*snapshot.Cluster](catalog.ClusterWide)
	require.NoError(t, r.Register("security", "iam", "a", fakeFactory("security", "iam", "a")))

	err := r.Register("security", "iam", "a", fakeFactory("security", "iam", "a"))
	assert.ErrorContains(t, err, "already registered")
}

func TestRegister_MetadataMismatch(t *testing.T) {
	r := NewRegistry[*snapshot.Cluster](catalog.ClusterWide)

	err := r.Register("security", "iam", "a", fakeFactory("security", "other", "a"))
	assert.ErrorContains(t, err, "metadata declares")
	assert.Error(t, r.Register("security", "iam", "a", nil))
	assert.Empty(t, r.Coordinates())
}

func TestResolve_Unknown(t *testing.T) {
	r := NewRegistry[*snapshot.Cluster](catalog.ClusterWide)
	require.NoError(t, r.Register("security", "iam", "a", fakeFactory("security", "iam", "a")))

	// Same identifier under a different section does not resolve.
	_, err := r.Resolve(Coordinate{Scope: catalog.ClusterWide, Pillar: "security", Section: "network", ID: "a"}, Deps{})
	assert.True(t, errors.Is(err, ErrNotRegistered))
}

func TestResolve_PassesDeps(t *testing.T) {
	r := NewRegistry[*snapshot.Cluster](catalog.ClusterWide)
	r.MustRegister("security", "iam", "a", fakeFactory("security", "iam", "a"))

	deps := Deps{EKS: nil, EC2: nil}
	rule, err := r.Resolve(Coordinate{Scope: catalog.ClusterWide, Pillar: "security", Section: "iam", ID: "a"}, deps)
	require.NoError(t, err)
	fr, ok := rule.(*fakeRule)
	require.True(t, ok)
	assert.Equal(t, deps, fr.deps)
}

func TestMustRegister_Panics(t *testing.T) {
	r := NewRegistry[*snapshot.Cluster](catalog.ClusterWide)
	r.MustRegister("security", "iam", "a", fakeFactory("security", "iam", "a"))

	assert.Panics(t, func() { r.MustRegister("security", "iam", "a", fakeFactory("security", "iam", "a")) })
}

func TestResult(t *testing.T) {
	meta := model.RuleMeta{ID: "r"}

	pass := Result(meta, "Pod", "ns", nil)
	assert.Equal(t, model.StatusPass, pass.Status)
	assert.NotNil(t, pass.Resources)
	assert.Empty(t, pass.Resources)
	assert.Equal(t, "ns", pass.Namespace)

	fail := Result(meta, "Pod", "ns", []string{"b", "a", "b"})
	assert.Equal(t, model.StatusFail, fail.Status)
	assert.Equal(t, []string{"b", "a"}, fail.Resources)
	assert.True(t, fail.Consistent())
}

func TestMissingCapability(t *testing.T) {
	err := MissingCapability("eks client")
	assert.True(t, errors.Is(err, ErrMissingCapability))
	assert.Contains(t, err.Error(), "eks client")
}
