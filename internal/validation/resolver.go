package validation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aevon-lab/envelope/internal/event"
)

// ClassKey is the configuration key naming the active validator plugin.
const ClassKey = "header.validator.class"

// Resolver is an event.ValidatorSource that looks up the configured plugin
// name in a Registry on every call. Nothing is memoized: a configuration
// change is visible to the next build.
type Resolver struct {
	registry *Registry
	name     func() string
}

// NewResolver creates a resolver reading the plugin name through name.
// An empty name selects event.DefaultValidator.
func NewResolver(registry *Registry, name func() string) *Resolver {
	return &Resolver{
		registry: registry,
		name:     name,
	}
}

// Resolve implements event.ValidatorSource.
func (r *Resolver) Resolve() (event.Validator, error) {
	name := ""
	if r.name != nil {
		name = strings.TrimSpace(r.name())
	}
	if name == "" {
		return event.DefaultValidator{}, nil
	}

	if r.registry == nil {
		return nil, &event.ValidatorLoadError{Key: ClassKey, Name: name, Err: fmt.Errorf("no validator registry configured")}
	}

	factory, err := r.registry.Lookup(name)
	if err != nil {
		return nil, &event.ValidatorLoadError{Key: ClassKey, Name: name, Err: err}
	}

	instance, err := instantiate(factory)
	if err != nil {
		return nil, &event.ValidatorLoadError{Key: ClassKey, Name: name, Err: err}
	}

	v, ok := instance.(event.Validator)
	if !ok {
		return nil, &event.ValidatorTypeError{Name: name, Type: fmt.Sprintf("%T", instance)}
	}

	slog.Debug("Resolved validator", "name", name, "type", fmt.Sprintf("%T", v))
	return v, nil
}

// instantiate runs factory, turning a panic into an error so a broken
// plugin fails the build instead of the process.
func instantiate(factory Factory) (instance any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("validator factory panicked: %v", rec)
		}
	}()

	instance, err = factory()
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, fmt.Errorf("validator factory returned nil")
	}
	return instance, nil
}
