package rules

import (
	"errors"
	"fmt"
	"sync"

	"github.com/asjarre/hardeneks/internal/catalog"
)

// ErrNotRegistered is returned by Resolve for unknown coordinates.
var ErrNotRegistered = errors.New("rule not registered")

// Coordinate addresses one rule implementation.
type Coordinate struct {
	Scope   catalog.Scope
	Pillar  string
	Section string
	ID      string
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", c.Scope, c.Pillar, c.Section, c.ID)
}

// Factory instantiates a rule with its capabilities.
type Factory[S any] func(Deps) Rule[S]

// Registry maps coordinates of one scope to rule factories.
// It is safe for concurrent use.
type Registry[S any] struct {
	scope     catalog.Scope
	mu        sync.RWMutex
	factories map[Coordinate]Factory[S]
	order     []Coordinate
}

// NewRegistry creates an empty registry for scope.
func NewRegistry[S any](scope catalog.Scope) *Registry[S] {
	return &Registry[S]{
		scope:     scope,
		factories: make(map[Coordinate]Factory[S]),
	}
}

// Scope returns the scope every rule of the registry runs in.
func (r *Registry[S]) Scope() catalog.Scope { return r.scope }

// Register adds a factory under pillar/section/id. The rule it builds must
// carry the same coordinates in its metadata.
func (r *Registry[S]) Register(pillar, section, id string, f Factory[S]) error {
	if f == nil {
		return fmt.Errorf("rule %q: nil factory", id)
	}
	coord := Coordinate{Scope: r.scope, Pillar: pillar, Section: section, ID: id}
	meta := f(Deps{}).Meta()
	if meta.Scope != string(r.scope) || meta.Pillar != pillar || meta.Section != section || meta.ID != id {
		return fmt.Errorf("rule %s: metadata declares %s/%s/%s/%s", coord, meta.Scope, meta.Pillar, meta.Section, meta.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[coord]; exists {
		return fmt.Errorf("rule %s already registered", coord)
	}
	r.factories[coord] = f
	r.order = append(r.order, coord)
	return nil
}

// MustRegister is Register for package initialisation; it panics on error.
func (r *Registry[S]) MustRegister(pillar, section, id string, f Factory[S]) {
	if err := r.Register(pillar, section, id, f); err != nil {
		panic(err)
	}
}

// Resolve instantiates the rule registered at coord.
func (r *Registry[S]) Resolve(coord Coordinate, deps Deps) (Rule[S], error) {
	r.mu.RLock()
	f, ok := r.factories[coord]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotRegistered
	}
	return f(deps), nil
}

// Coordinates returns every registered coordinate in registration order.
func (r *Registry[S]) Coordinates() []Coordinate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Coordinate(nil), r.order...)
}
