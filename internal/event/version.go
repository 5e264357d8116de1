package event

import "fmt"

// SpecVersion identifies the envelope specification an event conforms to.
type SpecVersion string

const (
	// V03 is the legacy 0.3 specification.
	V03 SpecVersion = "0.3"
	// V1 is the current 1.0 specification.
	V1 SpecVersion = "1.0"
)

// ParseSpecVersion converts the textual version tag into a SpecVersion.
func ParseSpecVersion(s string) (SpecVersion, error) {
	switch SpecVersion(s) {
	case V03:
		return V03, nil
	case V1:
		return V1, nil
	default:
		return "", fmt.Errorf("unsupported specversion %q (must be 0.3 or 1.0)", s)
	}
}

func (v SpecVersion) String() string {
	return string(v)
}

// Valid reports whether v is one of the known versions.
func (v SpecVersion) Valid() bool {
	return v == V03 || v == V1
}

// Other returns the version an event converts into.
func (v SpecVersion) Other() SpecVersion {
	if v == V03 {
		return V1
	}
	return V03
}

// Attribute names a context attribute independently of the version naming it.
type Attribute int

const (
	AttrSpecVersion Attribute = iota
	AttrID
	AttrSource
	AttrType
	AttrDataContentType
	AttrDataSchema
	AttrSubject
	AttrTime
)

// AttributeSet describes which attributes a specification version defines,
// what it calls them and which of them are mandatory.
type AttributeSet struct {
	version   SpecVersion
	names     map[Attribute]string
	mandatory []Attribute
	optional  []Attribute
}

var attributeSets = map[SpecVersion]*AttributeSet{
	V03: newAttributeSet(V03, "schemaurl"),
	V1:  newAttributeSet(V1, "dataschema"),
}

func newAttributeSet(v SpecVersion, schemaName string) *AttributeSet {
	return &AttributeSet{
		version: v,
		names: map[Attribute]string{
			AttrSpecVersion:     "specversion",
			AttrID:              "id",
			AttrSource:          "source",
			AttrType:            "type",
			AttrDataContentType: "datacontenttype",
			AttrDataSchema:      schemaName,
			AttrSubject:         "subject",
			AttrTime:            "time",
		},
		// Order matters: it drives which missing attribute is reported first.
		mandatory: []Attribute{AttrID, AttrSource, AttrType},
		optional:  []Attribute{AttrDataContentType, AttrDataSchema, AttrSubject, AttrTime},
	}
}

// Attributes returns the attribute set of v. It panics on an unknown version.
func (v SpecVersion) Attributes() *AttributeSet {
	set, ok := attributeSets[v]
	if !ok {
		panic(fmt.Sprintf("event: unknown specversion %q", string(v)))
	}
	return set
}

// Version returns the specification version this set belongs to.
func (s *AttributeSet) Version() SpecVersion {
	return s.version
}

// Name returns the version-specific name of attr.
func (s *AttributeSet) Name(attr Attribute) string {
	return s.names[attr]
}

// Lookup resolves a version-specific attribute name.
func (s *AttributeSet) Lookup(name string) (Attribute, bool) {
	for attr, n := range s.names {
		if n == name {
			return attr, true
		}
	}
	return 0, false
}

// Mandatory returns the mandatory attributes in check order.
func (s *AttributeSet) Mandatory() []Attribute {
	out := make([]Attribute, len(s.mandatory))
	copy(out, s.mandatory)
	return out
}

// Optional returns the optional attributes.
func (s *AttributeSet) Optional() []Attribute {
	out := make([]Attribute, len(s.optional))
	copy(out, s.optional)
	return out
}

// IsReserved reports whether name is taken by an attribute of this version
// and therefore cannot be used as an extension name.
func (s *AttributeSet) IsReserved(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}
