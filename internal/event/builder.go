package event

import (
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Builder accumulates attributes for one event. Setters never fail and
// return the receiver for chaining; Build is the only fallible step.
//
// Builders come from a Factory. The zero value accepts setters but its
// Build fails because it has no specversion.
//
// A Builder is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
type Builder struct {
	factory *Factory
	version SpecVersion

	id     string
	source *url.URL
	typ    string

	dataContentType string
	dataSchema      *url.URL
	subject         string
	time            time.Time
	data            Data

	extensions map[string]ExtensionValue
}

func newBuilder(f *Factory, v SpecVersion) *Builder {
	return &Builder{
		factory:    f,
		version:    v,
		extensions: make(map[string]ExtensionValue),
	}
}

// SpecVersion returns the version the builder produces.
func (b *Builder) SpecVersion() SpecVersion { return b.version }

// ID returns the identifier set so far.
func (b *Builder) ID() string { return b.id }

// Type returns the type set so far.
func (b *Builder) Type() string { return b.typ }

// Source returns a copy of the source set so far, or nil.
func (b *Builder) Source() *url.URL { return cloneURL(b.source) }

func (b *Builder) WithID(id string) *Builder {
	b.id = id
	return b
}

// WithGeneratedID sets a random UUID as identifier.
func (b *Builder) WithGeneratedID() *Builder {
	b.id = uuid.NewString()
	return b
}

func (b *Builder) WithSource(source *url.URL) *Builder {
	b.source = cloneURL(source)
	return b
}

func (b *Builder) WithType(typ string) *Builder {
	b.typ = typ
	return b
}

func (b *Builder) WithSubject(subject string) *Builder {
	b.subject = subject
	return b
}

// WithTime sets the event time. The zero time clears it.
func (b *Builder) WithTime(t time.Time) *Builder {
	b.time = t
	return b
}

func (b *Builder) WithDataSchema(schema *url.URL) *Builder {
	b.dataSchema = cloneURL(schema)
	return b
}

func (b *Builder) WithDataContentType(contentType string) *Builder {
	b.dataContentType = contentType
	return b
}

// WithData sets content type, schema and payload together, replacing all
// three.
func (b *Builder) WithData(contentType string, schema *url.URL, payload Data) *Builder {
	b.dataContentType = contentType
	b.dataSchema = cloneURL(schema)
	b.data = payload.clone()
	return b
}

// WithoutData clears content type, schema and payload.
func (b *Builder) WithoutData() *Builder {
	return b.WithData("", nil, Data{})
}

// WithExtension sets an extension; the last write for a name wins. A zero
// ExtensionValue removes the extension.
func (b *Builder) WithExtension(name string, value ExtensionValue) *Builder {
	if value.IsZero() {
		delete(b.extensions, name)
		return b
	}
	if b.extensions == nil {
		b.extensions = make(map[string]ExtensionValue)
	}
	b.extensions[name] = value
	return b
}

func (b *Builder) WithoutExtension(name string) *Builder {
	delete(b.extensions, name)
	return b
}

// NewBuilder returns an independent builder holding a copy of the current
// state. Changes to either builder do not affect the other.
func (b *Builder) NewBuilder() *Builder {
	return b.copyTo(b.version)
}

func (b *Builder) copyTo(v SpecVersion) *Builder {
	c := newBuilder(b.factory, v)
	c.id = b.id
	c.source = cloneURL(b.source)
	c.typ = b.typ
	c.dataContentType = b.dataContentType
	c.dataSchema = cloneURL(b.dataSchema)
	c.subject = b.subject
	c.time = b.time
	c.data = b.data.clone()
	c.extensions = copyExtensions(b.extensions)
	return c
}

// Build validates the accumulated attributes and returns an immutable
// Event. Checks run in a fixed order: mandatory attributes (id, source,
// type), extension names, validator resolution, extension values and
// finally the validator's own mandatory rules. On failure no event is
// returned and the builder is left untouched, so it can be fixed and built
// again.
func (b *Builder) Build() (*Event, error) {
	if !b.version.Valid() {
		return nil, &InvalidValueError{Name: "specversion", Reason: fmt.Sprintf("unknown version %q", string(b.version))}
	}
	set := b.version.Attributes()
	for _, attr := range set.Mandatory() {
		if b.missing(attr) {
			return nil, &MissingAttributeError{Name: set.Name(attr)}
		}
	}

	names := make([]string, 0, len(b.extensions))
	for name := range b.extensions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		switch {
		case !ValidExtensionName(name):
			return nil, &InvalidValueError{Name: name, Extension: true, Reason: "name must contain only lowercase letters and digits"}
		case set.IsReserved(name):
			return nil, &InvalidValueError{Name: name, Extension: true, Reason: "name is reserved for a context attribute"}
		}
	}

	validator, err := b.factory.resolve()
	if err != nil {
		return nil, err
	}

	e := b.snapshot()

	var errs []error
	ev, ok := validator.(ExtensionValidator)
	if !ok {
		ev = DefaultValidator{}
	}
	for _, name := range names {
		value := e.extensions[name]
		if err := ev.ValidateExtension(name, value); err != nil {
			errs = append(errs, &ExtensionTypeError{Name: name, Kind: value.Kind(), Err: err})
		}
	}
	for _, v := range validator.ValidateMandatory(e) {
		errs = append(errs, v.err())
	}

	switch len(errs) {
	case 0:
		return e, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, &ViolationsError{Errors: errs}
	}
}

func (b *Builder) missing(attr Attribute) bool {
	switch attr {
	case AttrID:
		return b.id == ""
	case AttrSource:
		return b.source == nil || b.source.String() == ""
	case AttrType:
		return b.typ == ""
	}
	return false
}

func (b *Builder) snapshot() *Event {
	return &Event{
		specVersion:     b.version,
		id:              b.id,
		source:          cloneURL(b.source),
		typ:             b.typ,
		dataContentType: b.dataContentType,
		dataSchema:      cloneURL(b.dataSchema),
		subject:         b.subject,
		time:            b.time,
		data:            b.data.clone(),
		extensions:      copyExtensions(b.extensions),
	}
}
