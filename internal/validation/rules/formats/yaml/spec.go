package yaml

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aevon-lab/envelope/internal/event"
	"gopkg.in/yaml.v3"
)

// RuleSpec is the on-disk YAML shape of a rule set.
type RuleSpec struct {
	Name               string                    `yaml:"name"`
	Description        string                    `yaml:"description,omitempty"`
	Strict             bool                      `yaml:"strict,omitempty"`
	RequiredAttributes []string                  `yaml:"required_attributes,omitempty"`
	Extensions         map[string]*ExtensionSpec `yaml:"extensions,omitempty"`
}

// ExtensionSpec defines a single extension rule.
//
// Extensions support two declaration styles:
//
//	Shorthand (scalar): namespace: string!
//	Long form (mapping): region:
//	                       type: string!
//	                       enum: [eu, us]
//
// Type names: string, bool, int, number
// Append "!" to mark an extension as required.
type ExtensionSpec struct {
	Type     string   `yaml:"type"`
	Required bool     `yaml:"required,omitempty"`
	Enum     []string `yaml:"enum,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`

	kind event.ExtensionKind
}

// UnmarshalYAML supports both shorthand and long-form declarations.
func (s *ExtensionSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return s.parseTypeString(value.Value)
	}

	type specAlias ExtensionSpec
	var alias specAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*s = ExtensionSpec(alias)

	if s.Type == "" {
		return fmt.Errorf("extension missing 'type'")
	}
	return s.parseTypeString(s.Type)
}

func (s *ExtensionSpec) parseTypeString(t string) error {
	if strings.HasSuffix(t, "!") {
		s.Required = true
		t = strings.TrimSuffix(t, "!")
	}

	switch t {
	case "string":
		s.kind = event.KindString
	case "bool":
		s.kind = event.KindBool
	case "int":
		s.kind = event.KindInt
	case "number":
		s.kind = event.KindNumber
	default:
		return fmt.Errorf("unsupported type %q (must be: string, bool, int, number)", t)
	}
	s.Type = string(s.kind)
	return nil
}

// Kind returns the parsed extension kind.
func (s *ExtensionSpec) Kind() event.ExtensionKind {
	return s.kind
}

func (s *ExtensionSpec) compilePattern() (*regexp.Regexp, error) {
	if s.Pattern == "" {
		return nil, nil
	}
	if len(s.Pattern) > 1000 {
		return nil, fmt.Errorf("pattern too long (max 1000 chars)")
	}
	compiled, err := regexp.Compile(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}
	return compiled, nil
}
