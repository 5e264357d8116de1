package protobuf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aevon-lab/envelope/internal/event"
	"github.com/aevon-lab/envelope/internal/validation/rules"
	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Compiler compiles protobuf rule definitions.
//
// The first top-level message describes the extensions: each field is an
// extension of the mapped kind. Fields without presence tracking (plain
// proto3 scalars) and proto2 required fields are mandatory; proto3
// optional fields are not. The message full name is the validator name.
type Compiler struct{}

// NewCompiler creates a new protobuf compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses a .proto rule definition.
func (c *Compiler) Compile(ctx context.Context, def *rules.Definition) (*rules.RuleSet, error) {
	if def.Format != rules.FormatProtobuf {
		return nil, fmt.Errorf("expected protobuf format, got %s", def.Format)
	}

	fileName := strings.ReplaceAll(def.Name, ".", "_") + ".proto"
	resolver := &singleFileResolver{
		fileName: fileName,
		content:  string(def.Source),
	}

	compiler := protocompile.Compiler{
		Resolver:       protocompile.WithStandardImports(resolver),
		SourceInfoMode: protocompile.SourceInfoNone,
	}

	files, err := compiler.Compile(ctx, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to compile proto: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files compiled")
	}

	messages := files[0].Messages()
	if messages.Len() == 0 {
		return nil, fmt.Errorf("proto must define at least one message")
	}
	msg := messages.Get(0)

	set := &rules.RuleSet{
		Name:        string(msg.FullName()),
		Format:      rules.FormatProtobuf,
		Fingerprint: def.Fingerprint,
		Extensions:  make(map[string]*rules.ExtensionRule, msg.Fields().Len()),
	}
	if set.Fingerprint == "" {
		set.Fingerprint = rules.ComputeFingerprint(def.Source)
	}

	fields := msg.Fields()
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		kind, err := kindOf(fd)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fd.Name(), err)
		}
		name := string(fd.Name())
		set.Extensions[name] = &rules.ExtensionRule{
			Name:     name,
			Kind:     kind,
			Required: fd.Cardinality() == protoreflect.Required || !fd.HasPresence(),
		}
	}

	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid protobuf rules: %w", err)
	}
	return set, nil
}

func kindOf(fd protoreflect.FieldDescriptor) (event.ExtensionKind, error) {
	if fd.IsList() || fd.IsMap() {
		return "", fmt.Errorf("repeated and map fields cannot describe an extension")
	}

	switch fd.Kind() {
	case protoreflect.StringKind:
		return event.KindString, nil
	case protoreflect.BoolKind:
		return event.KindBool, nil
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint32Kind, protoreflect.Fixed32Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return event.KindInt, nil
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return event.KindNumber, nil
	default:
		return "", fmt.Errorf("unsupported field kind %s", fd.Kind())
	}
}

// singleFileResolver provides proto content for compilation.
type singleFileResolver struct {
	fileName string
	content  string
}

func (r *singleFileResolver) FindFileByPath(path string) (protocompile.SearchResult, error) {
	if path == r.fileName {
		return protocompile.SearchResult{
			Source: strings.NewReader(r.content),
		}, nil
	}
	return protocompile.SearchResult{}, fmt.Errorf("file not found: %s", path)
}
