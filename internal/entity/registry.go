package entity

import (
	"fmt"
	"sort"
)

// Registry holds the entity graph. It is populated once by the schema
// producer, frozen, and read-only afterwards; lookups after Freeze are safe
// from any number of goroutines without locking.
type Registry struct {
	entities map[string]*Entity
	frozen   bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[string]*Entity)}
}

// Register adds an entity to the registry. Duplicate names and registration
// after Freeze are schema-producer bugs and fail with an error so the
// producer can abort initialization.
func (r *Registry) Register(e *Entity) error {
	if r.frozen {
		return fmt.Errorf("register %q: registry is frozen", e.Name)
	}
	if e.Name == "" {
		return fmt.Errorf("register: entity name is empty")
	}
	if _, ok := r.entities[e.Name]; ok {
		return fmt.Errorf("register %q: duplicate entity", e.Name)
	}
	r.entities[e.Name] = e
	return nil
}

// Freeze marks the end of registration. The registry is immutable afterwards.
func (r *Registry) Freeze() { r.frozen = true }

// Resolve returns the entity registered under name. Resolving an unknown
// name is a programmer error, not a request-time condition, and panics.
func (r *Registry) Resolve(name string) *Entity {
	e, ok := r.entities[name]
	if !ok {
		panic(fmt.Sprintf("entity: unknown entity %q", name))
	}
	return e
}

// Lookup returns the entity registered under name, if any.
func (r *Registry) Lookup(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Names returns all registered entity names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered entities.
func (r *Registry) Len() int { return len(r.entities) }
