package event

// Violation is a single rule failure reported by a Validator.
type Violation struct {
	// Name is the attribute or extension at fault.
	Name string

	// Extension is true when Name refers to an extension.
	Extension bool

	// Missing marks an absent value. When false, Reason explains why the
	// present value was refused.
	Missing bool
	Reason  string
}

// MissingExtension is a shorthand for the common violation of an absent
// mandatory extension.
func MissingExtension(name string) Violation {
	return Violation{Name: name, Extension: true, Missing: true}
}

// MissingAttribute is a shorthand for an absent attribute.
func MissingAttribute(name string) Violation {
	return Violation{Name: name, Missing: true}
}

func (v Violation) err() error {
	if v.Missing {
		return &MissingAttributeError{Name: v.Name, Extension: v.Extension}
	}
	return &InvalidValueError{Name: v.Name, Extension: v.Extension, Reason: v.Reason}
}

// Validator imposes rules on top of the base attribute set. It runs on the
// candidate event after the mandatory attributes have been checked.
type Validator interface {
	ValidateMandatory(e *Event) []Violation
}

// ExtensionValidator is optionally implemented by a Validator that restricts
// the accepted extension values.
type ExtensionValidator interface {
	ValidateExtension(name string, value ExtensionValue) error
}

// ValidatorSource yields the validator for a build. Resolve is called once
// per Build, so implementations backed by configuration pick up changes on
// the next build.
type ValidatorSource interface {
	Resolve() (Validator, error)
}

// ValidatorSourceFunc adapts a function to ValidatorSource.
type ValidatorSourceFunc func() (Validator, error)

func (f ValidatorSourceFunc) Resolve() (Validator, error) {
	return f()
}

// Static returns a source that always yields v.
func Static(v Validator) ValidatorSource {
	return ValidatorSourceFunc(func() (Validator, error) {
		return v, nil
	})
}

// DefaultValidator enforces nothing beyond the base attribute set and
// accepts every extension kind.
type DefaultValidator struct{}

func (DefaultValidator) ValidateMandatory(*Event) []Violation {
	return nil
}

func (DefaultValidator) ValidateExtension(string, ExtensionValue) error {
	return nil
}
