// Package catalog holds the rule catalog: which rule identifiers are active,
// grouped by scope, pillar and section, in declaration order.
package catalog

import (
	"fmt"
	"slices"
)

// Scope selects the snapshot variant a group of rules runs against.
type Scope string

const (
	ClusterWide    Scope = "cluster_wide"
	NamespaceBased Scope = "namespace_based"
)

// Scopes lists the known scopes in evaluation order.
var Scopes = []Scope{ClusterWide, NamespaceBased}

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return slices.Contains(Scopes, s)
}

// Section is one subcategory of a pillar with its ordered rule identifiers.
type Section struct {
	Pillar string
	Name   string
	Rules  []string
}

type pillar struct {
	name     string
	sections []*Section
}

// Catalog is read-only once loaded. It is independent of any cluster.
type Catalog struct {
	// IgnoreNamespaces are skipped by namespaced runs.
	IgnoreNamespaces []string

	scopes map[Scope][]*pillar
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{scopes: map[Scope][]*pillar{}}
}

// Add appends rule identifiers under scope/pillarName/section, creating the
// pillar and section on first use. Declaration order is kept.
func (c *Catalog) Add(scope Scope, pillarName, section string, ids ...string) *Catalog {
	if c.scopes == nil {
		c.scopes = map[Scope][]*pillar{}
	}
	var p *pillar
	for _, existing := range c.scopes[scope] {
		if existing.name == pillarName {
			p = existing
			break
		}
	}
	if p == nil {
		p = &pillar{name: pillarName}
		c.scopes[scope] = append(c.scopes[scope], p)
	}
	var s *Section
	for _, existing := range p.sections {
		if existing.Name == section {
			s = existing
			break
		}
	}
	if s == nil {
		s = &Section{Pillar: pillarName, Name: section}
		p.sections = append(p.sections, s)
	}
	s.Rules = append(s.Rules, ids...)
	return c
}

// Sections returns the sections of scope in pillar order, then section order.
// A scope the catalog does not declare has no sections.
func (c *Catalog) Sections(scope Scope) []Section {
	var out []Section
	for _, p := range c.scopes[scope] {
		for _, s := range p.sections {
			out = append(out, Section{
				Pillar: s.Pillar,
				Name:   s.Name,
				Rules:  append([]string(nil), s.Rules...),
			})
		}
	}
	return out
}

// Len returns the number of rule identifiers declared for scope.
func (c *Catalog) Len(scope Scope) int {
	n := 0
	for _, s := range c.Sections(scope) {
		n += len(s.Rules)
	}
	return n
}

// Ignored reports whether namespace is excluded from namespaced runs.
func (c *Catalog) Ignored(namespace string) bool {
	for _, ns := range c.IgnoreNamespaces {
		if ns == namespace {
			return true
		}
	}
	return false
}

// Validate checks the structural shape of the catalog.
func (c *Catalog) Validate() error {
	for scope, pillars := range c.scopes {
		if !scope.Valid() {
			return &ConfigError{Msg: fmt.Sprintf("unknown scope %q", scope)}
		}
		for _, p := range pillars {
			if p.name == "" {
				return &ConfigError{Msg: fmt.Sprintf("%s: empty pillar name", scope)}
			}
			if len(p.sections) == 0 {
				return &ConfigError{Msg: fmt.Sprintf("%s/%s: pillar has no sections", scope, p.name)}
			}
			for _, s := range p.sections {
				if err := validateSection(scope, s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateSection(scope Scope, s *Section) error {
	where := fmt.Sprintf("%s/%s/%s", scope, s.Pillar, s.Name)
	if s.Name == "" {
		return &ConfigError{Msg: fmt.Sprintf("%s/%s: empty section name", scope, s.Pillar)}
	}
	if len(s.Rules) == 0 {
		return &ConfigError{Msg: where + ": section has no rules"}
	}
	seen := map[string]bool{}
	for _, id := range s.Rules {
		if id == "" {
			return &ConfigError{Msg: where + ": empty rule identifier"}
		}
		if seen[id] {
			return &ConfigError{Msg: fmt.Sprintf("%s: rule %q listed twice", where, id)}
		}
		seen[id] = true
	}
	return nil
}

// ConfigError reports a structurally invalid catalog.
type ConfigError struct {
	Path string
	Line int
	Msg  string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("config error: %s:%d: %s", e.Path, e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("config error: %s: %s", e.Path, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("config error: line %d: %s", e.Line, e.Msg)
	default:
		return "config error: " + e.Msg
	}
}
