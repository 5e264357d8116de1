package event

import (
	"net/url"
	"sort"
	"time"
)

// Event is a built, validated envelope. It is immutable: every accessor
// returns a copy, so an Event can be shared between goroutines freely.
type Event struct {
	specVersion SpecVersion
	id          string
	source      *url.URL
	typ         string

	dataContentType string
	dataSchema      *url.URL
	subject         string
	time            time.Time
	data            Data

	extensions map[string]ExtensionValue
}

func (e *Event) SpecVersion() SpecVersion { return e.specVersion }
func (e *Event) ID() string               { return e.id }
func (e *Event) Type() string             { return e.typ }
func (e *Event) Subject() string          { return e.subject }
func (e *Event) DataContentType() string  { return e.dataContentType }

// Source returns a copy of the source reference.
func (e *Event) Source() *url.URL {
	return cloneURL(e.source)
}

// DataSchema returns a copy of the data schema reference, or nil.
func (e *Event) DataSchema() *url.URL {
	return cloneURL(e.dataSchema)
}

// Time returns the event time and whether it is set.
func (e *Event) Time() (time.Time, bool) {
	return e.time, !e.time.IsZero()
}

// Data returns a copy of the payload.
func (e *Event) Data() Data {
	return e.data.clone()
}

// Extension returns the named extension value.
func (e *Event) Extension(name string) (ExtensionValue, bool) {
	v, ok := e.extensions[name]
	return v, ok
}

// Extensions returns a copy of all extensions.
func (e *Event) Extensions() map[string]ExtensionValue {
	return copyExtensions(e.extensions)
}

// ExtensionNames returns the extension names in lexical order.
func (e *Event) ExtensionNames() []string {
	names := make([]string, 0, len(e.extensions))
	for name := range e.extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Attribute reads an attribute by its name in the event's version. The
// value is a string, *url.URL or time.Time; absent optional attributes
// report false.
func (e *Event) Attribute(name string) (any, bool) {
	attr, ok := e.specVersion.Attributes().Lookup(name)
	if !ok {
		return nil, false
	}
	switch attr {
	case AttrSpecVersion:
		return e.specVersion.String(), true
	case AttrID:
		return e.id, true
	case AttrSource:
		return e.Source(), true
	case AttrType:
		return e.typ, true
	case AttrDataContentType:
		return e.dataContentType, e.dataContentType != ""
	case AttrDataSchema:
		return e.DataSchema(), e.dataSchema != nil
	case AttrSubject:
		return e.subject, e.subject != ""
	case AttrTime:
		return e.time, !e.time.IsZero()
	}
	return nil, false
}

// Equal reports whether both events carry the same version, attributes,
// payload and extensions.
func (e *Event) Equal(other *Event) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.specVersion != other.specVersion ||
		e.id != other.id ||
		e.typ != other.typ ||
		e.subject != other.subject ||
		e.dataContentType != other.dataContentType ||
		!sameURL(e.source, other.source) ||
		!sameURL(e.dataSchema, other.dataSchema) ||
		!e.time.Equal(other.time) ||
		!e.data.Equal(other.data) {
		return false
	}
	if len(e.extensions) != len(other.extensions) {
		return false
	}
	for name, v := range e.extensions {
		ov, ok := other.extensions[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}

func sameURL(a, b *url.URL) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}
