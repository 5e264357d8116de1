package convert

import (
	"fmt"
	"log/slog"

	"github.com/aevon-lab/envelope/internal/event"
)

// Converter moves events between specification versions. Builders it
// returns are bound to its factory, so the factory's validator runs when
// the converted event is built.
type Converter struct {
	factory *event.Factory
}

// New creates a converter. A nil factory behaves like event.NewFactory().
func New(factory *event.Factory) *Converter {
	if factory == nil {
		factory = event.NewFactory()
	}
	return &Converter{factory: factory}
}

// ToOtherVersion returns a builder of the version e does not have, seeded
// with every attribute and extension of e.
func (c *Converter) ToOtherVersion(e *event.Event) *event.Builder {
	return c.To(e.SpecVersion().Other(), e)
}

// To returns a builder of version v seeded from e. Converting to the
// event's own version yields a plain copy.
func (c *Converter) To(v event.SpecVersion, e *event.Event) *event.Builder {
	return c.factory.From(v, e)
}

// Convert builds e as version v. The target version's validation runs in
// full, so a valid source event can still be refused.
func (c *Converter) Convert(v event.SpecVersion, e *event.Event) (*event.Event, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("convert event %q: unsupported specversion %q", e.ID(), string(v))
	}

	out, err := c.To(v, e).Build()
	if err != nil {
		return nil, fmt.Errorf("convert event %q from %s to %s: %w", e.ID(), e.SpecVersion(), v, err)
	}

	slog.Debug("Converted event",
		"id", e.ID(),
		"from", e.SpecVersion().String(),
		"to", v.String())
	return out, nil
}
