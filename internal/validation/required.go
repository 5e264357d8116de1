package validation

import "github.com/aevon-lab/envelope/internal/event"

// NamespaceValidatorName is the registry name of the built-in validator
// requiring a "namespace" extension.
const NamespaceValidatorName = "io.aevon.validation.NamespaceValidator"

// RequiredExtensions is a validator demanding that every listed extension
// is present. Missing extensions are reported in the listed order.
type RequiredExtensions []string

func (r RequiredExtensions) ValidateMandatory(e *event.Event) []event.Violation {
	var out []event.Violation
	for _, name := range r {
		if _, ok := e.Extension(name); !ok {
			out = append(out, event.MissingExtension(name))
		}
	}
	return out
}

// RegisterBuiltins registers the validators shipped with the module.
func RegisterBuiltins(r *Registry) {
	r.RegisterValidator(NamespaceValidatorName, RequiredExtensions{"namespace"})
}
