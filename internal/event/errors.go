package event

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels grouping the typed errors below; match them with errors.Is.
var (
	ErrMissingAttribute = errors.New("missing attribute")
	ErrInvalidValue     = errors.New("invalid value")
	ErrExtensionType    = errors.New("extension type not accepted")
	ErrValidatorLoad    = errors.New("validator could not be loaded")
	ErrValidatorType    = errors.New("validator does not implement CloudEventValidator")
)

// MissingAttributeError reports an absent mandatory attribute or extension.
type MissingAttributeError struct {
	Name      string
	Extension bool
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("%s '%s' cannot be null", subject(e.Extension), e.Name)
}

func (e *MissingAttributeError) Is(target error) bool {
	return target == ErrMissingAttribute
}

// InvalidValueError reports a present attribute or extension whose value
// was refused, either by the base rules or by a validator.
type InvalidValueError struct {
	Name      string
	Extension bool
	Reason    string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s '%s' is invalid: %s", subject(e.Extension), e.Name, e.Reason)
}

func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidValue
}

// ExtensionTypeError reports an extension value whose kind the active
// validator does not accept.
type ExtensionTypeError struct {
	Name string
	Kind ExtensionKind
	Err  error
}

func (e *ExtensionTypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Extension '%s' of kind %s not accepted: %v", e.Name, e.Kind, e.Err)
	}
	return fmt.Sprintf("Extension '%s' of kind %s not accepted", e.Name, e.Kind)
}

func (e *ExtensionTypeError) Is(target error) bool {
	return target == ErrExtensionType
}

func (e *ExtensionTypeError) Unwrap() error {
	return e.Err
}

// ValidatorLoadError reports a configured validator that could not be
// resolved or instantiated.
type ValidatorLoadError struct {
	Key  string
	Name string
	Err  error
}

func (e *ValidatorLoadError) Error() string {
	msg := fmt.Sprintf("Unable to load the %s passed as vm argument = %q", e.Key, e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidatorLoadError) Is(target error) bool {
	return target == ErrValidatorLoad
}

func (e *ValidatorLoadError) Unwrap() error {
	return e.Err
}

// ValidatorTypeError reports a resolved plugin that does not implement
// Validator.
type ValidatorTypeError struct {
	Name string
	Type string
}

func (e *ValidatorTypeError) Error() string {
	return fmt.Sprintf("Passed class is not an instance of CloudEventValidator: %q (%s)", e.Name, e.Type)
}

func (e *ValidatorTypeError) Is(target error) bool {
	return target == ErrValidatorType
}

// ViolationsError aggregates several validation failures from one build.
type ViolationsError struct {
	Errors []error
}

func (e *ViolationsError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

func (e *ViolationsError) Unwrap() []error {
	return e.Errors
}

func subject(extension bool) string {
	if extension {
		return "Extension"
	}
	return "Attribute"
}
