package validation

import (
	"fmt"
	"sort"
	"sync"
)

// Factory instantiates a validator plugin. The result is checked against
// event.Validator when it is resolved, so a factory registered under the
// wrong name surfaces as a type error rather than a panic.
type Factory func() (any, error)

// Registry maps fully-qualified plugin names to factories.
// It acts as the central place deployments register their validators in.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[name] = factory
}

// RegisterValidator registers a factory returning the given instance.
// Validators are expected to be stateless, so sharing is safe.
func (r *Registry) RegisterValidator(name string, v any) {
	r.Register(name, func() (any, error) { return v, nil })
}

// Unregister removes name. It is a no-op for unknown names.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.factories, name)
}

// Lookup returns the factory for name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("no validator registered as %q", name)
	}
	return factory, nil
}

// IsRegistered reports whether name has a factory.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
