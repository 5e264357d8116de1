package event

import "fmt"

// Factory creates builders bound to a validator source. The zero value is
// not usable; use NewFactory.
type Factory struct {
	source ValidatorSource
}

// Option configures a Factory.
type Option func(*Factory)

// WithValidator makes every build run v.
func WithValidator(v Validator) Option {
	return func(f *Factory) {
		f.source = Static(v)
	}
}

// WithValidatorSource makes every build resolve its validator from s.
func WithValidatorSource(s ValidatorSource) Option {
	return func(f *Factory) {
		f.source = s
	}
}

// NewFactory creates a factory. Without options builds use DefaultValidator.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New returns an empty builder for version v. It panics on an unknown
// version; use ParseSpecVersion to validate external input first.
func (f *Factory) New(v SpecVersion) *Builder {
	if !v.Valid() {
		panic(fmt.Sprintf("event: unknown specversion %q", string(v)))
	}
	return newBuilder(f, v)
}

func (f *Factory) V1() *Builder  { return f.New(V1) }
func (f *Factory) V03() *Builder { return f.New(V03) }

// From returns a builder for version v seeded with a copy of every
// attribute and extension of e.
func (f *Factory) From(v SpecVersion, e *Event) *Builder {
	b := f.New(v)
	b.id = e.id
	b.source = cloneURL(e.source)
	b.typ = e.typ
	b.dataContentType = e.dataContentType
	b.dataSchema = cloneURL(e.dataSchema)
	b.subject = e.subject
	b.time = e.time
	b.data = e.data.clone()
	b.extensions = copyExtensions(e.extensions)
	return b
}

// FromBuilder returns a builder for version v seeded with a copy of the
// state of other. The result is bound to f, not to other's factory.
func (f *Factory) FromBuilder(v SpecVersion, other *Builder) *Builder {
	if !v.Valid() {
		panic(fmt.Sprintf("event: unknown specversion %q", string(v)))
	}
	c := other.copyTo(v)
	c.factory = f
	return c
}

func (f *Factory) resolve() (Validator, error) {
	if f == nil || f.source == nil {
		return DefaultValidator{}, nil
	}
	v, err := f.source.Resolve()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return DefaultValidator{}, nil
	}
	return v, nil
}

var defaultFactory = NewFactory()

// NewV1 returns an empty 1.0 builder using the default validator.
func NewV1() *Builder { return defaultFactory.V1() }

// NewV03 returns an empty 0.3 builder using the default validator.
func NewV03() *Builder { return defaultFactory.V03() }

// NewV1From seeds a 1.0 builder from e.
func NewV1From(e *Event) *Builder { return defaultFactory.From(V1, e) }

// NewV03From seeds a 0.3 builder from e.
func NewV03From(e *Event) *Builder { return defaultFactory.From(V03, e) }
