package yaml

import (
	"context"
	"fmt"

	"github.com/aevon-lab/envelope/internal/validation/rules"
	"gopkg.in/yaml.v3"
)

// Compiler compiles YAML rule definitions.
type Compiler struct{}

// NewCompiler creates a new YAML compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses a YAML rule definition. A definition without a name takes
// the file name.
func (c *Compiler) Compile(ctx context.Context, def *rules.Definition) (*rules.RuleSet, error) {
	if def.Format != rules.FormatYaml {
		return nil, fmt.Errorf("expected yaml format, got %s", def.Format)
	}

	var spec RuleSpec
	if err := yaml.Unmarshal(def.Source, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules: %w", err)
	}

	name := spec.Name
	if name == "" {
		name = def.Name
	}

	set := &rules.RuleSet{
		Name:               name,
		Description:        spec.Description,
		Format:             rules.FormatYaml,
		Fingerprint:        def.Fingerprint,
		RequiredAttributes: spec.RequiredAttributes,
		Strict:             spec.Strict,
		Extensions:         make(map[string]*rules.ExtensionRule, len(spec.Extensions)),
	}
	if set.Fingerprint == "" {
		set.Fingerprint = rules.ComputeFingerprint(def.Source)
	}

	for extName, ext := range spec.Extensions {
		if ext == nil {
			return nil, fmt.Errorf("extension %q: type cannot be empty", extName)
		}
		pattern, err := ext.compilePattern()
		if err != nil {
			return nil, fmt.Errorf("extension %q: %w", extName, err)
		}
		set.Extensions[extName] = &rules.ExtensionRule{
			Name:     extName,
			Kind:     ext.Kind(),
			Required: ext.Required,
			Enum:     ext.Enum,
			Pattern:  pattern,
		}
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid YAML rules: %w", err)
	}
	return set, nil
}
