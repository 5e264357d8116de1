package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/aevon-lab/envelope/internal/event"
)

// Format identifies the language a rule definition is written in.
type Format string

const (
	FormatYaml     Format = "yaml"
	FormatProtobuf Format = "protobuf"
)

// Definition is a raw rule file before compilation.
type Definition struct {
	// Name is the file base name; compilers fall back to it when the
	// definition does not name itself.
	Name        string
	Format      Format
	Source      []byte
	Fingerprint string
}

// ComputeFingerprint calculates SHA-256 hash of the definition.
func ComputeFingerprint(source []byte) string {
	hash := sha256.Sum256(source)
	return hex.EncodeToString(hash[:])
}

// ExtensionRule constrains one extension.
type ExtensionRule struct {
	Name     string
	Kind     event.ExtensionKind
	Required bool
	Enum     []string
	Pattern  *regexp.Regexp
}

// accepts reports whether the rule admits a value of kind k. Number rules
// also admit integers.
func (r *ExtensionRule) accepts(k event.ExtensionKind) bool {
	if r.Kind == k {
		return true
	}
	return r.Kind == event.KindNumber && k == event.KindInt
}

// RuleSet is a compiled, format-independent validator. It implements
// event.Validator and event.ExtensionValidator and is safe to share.
type RuleSet struct {
	Name               string
	Description        string
	Format             Format
	Fingerprint        string
	RequiredAttributes []string

	// Strict rejects extensions that have no rule.
	Strict bool

	Extensions map[string]*ExtensionRule
}

// Validate checks the rule set is internally consistent. Compilers call it
// before handing a rule set out.
func (s *RuleSet) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("rule set name is required")
	}
	for _, name := range s.RequiredAttributes {
		if _, ok := lookupAttribute(name); !ok {
			return fmt.Errorf("required attribute %q is not a context attribute", name)
		}
	}
	for name, rule := range s.Extensions {
		if !event.ValidExtensionName(name) {
			return fmt.Errorf("extension %q: name must contain only lowercase letters and digits", name)
		}
		switch rule.Kind {
		case event.KindString, event.KindBool, event.KindInt, event.KindNumber:
		default:
			return fmt.Errorf("extension %q: unsupported kind %q", name, rule.Kind)
		}
		if (len(rule.Enum) > 0 || rule.Pattern != nil) && rule.Kind != event.KindString {
			return fmt.Errorf("extension %q: enum and pattern apply to string extensions only", name)
		}
	}
	return nil
}

// ValidateExtension implements event.ExtensionValidator.
func (s *RuleSet) ValidateExtension(name string, value event.ExtensionValue) error {
	rule, ok := s.Extensions[name]
	if !ok {
		if s.Strict {
			return fmt.Errorf("extension is not declared by %s", s.Name)
		}
		return nil
	}
	if !rule.accepts(value.Kind()) {
		return fmt.Errorf("expected %s, got %s", rule.Kind, value.Kind())
	}
	return nil
}

// ValidateMandatory implements event.Validator. Attributes are checked in
// declaration order, then extensions by name.
func (s *RuleSet) ValidateMandatory(e *event.Event) []event.Violation {
	var out []event.Violation

	set := e.SpecVersion().Attributes()
	for _, name := range s.RequiredAttributes {
		attr, _ := lookupAttribute(name)
		versioned := set.Name(attr)
		if _, present := e.Attribute(versioned); !present {
			out = append(out, event.MissingAttribute(versioned))
		}
	}

	names := make([]string, 0, len(s.Extensions))
	for name := range s.Extensions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rule := s.Extensions[name]
		value, present := e.Extension(name)
		if !present {
			if rule.Required {
				out = append(out, event.MissingExtension(name))
			}
			continue
		}
		if reason := checkValue(rule, value); reason != "" {
			out = append(out, event.Violation{Name: name, Extension: true, Reason: reason})
		}
	}
	return out
}

func checkValue(rule *ExtensionRule, value event.ExtensionValue) string {
	text := value.String()
	if len(rule.Enum) > 0 {
		found := false
		for _, allowed := range rule.Enum {
			if allowed == text {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("value %q not in enum %v", text, rule.Enum)
		}
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(text) {
		return fmt.Sprintf("value %q does not match pattern %q", text, rule.Pattern.String())
	}
	return ""
}

// lookupAttribute accepts the attribute names of either version, so a rule
// written as "dataschema" also applies to 0.3 events as "schemaurl".
func lookupAttribute(name string) (event.Attribute, bool) {
	if attr, ok := event.V1.Attributes().Lookup(name); ok {
		return attr, true
	}
	return event.V03.Attributes().Lookup(name)
}
