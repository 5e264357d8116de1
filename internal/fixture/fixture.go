// Package fixture reads event descriptions from YAML files and turns them
// into builders.
//
// A file holds one or more YAML documents separated by "---":
//
//	specversion: "1.0"
//	generate_id: true
//	source: /payments
//	type: payment.created
//	time: 2024-01-02T15:04:05Z
//	datacontenttype: application/json
//	data:
//	  amount: 12
//	extensions:
//	  namespace: billing
//	  retries: 3
package fixture

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aevon-lab/envelope/internal/event"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// Fixture is one event description.
type Fixture struct {
	// Origin names the file and document the fixture came from.
	Origin string `yaml:"-"`

	SpecVersion     string         `yaml:"specversion"`
	ID              string         `yaml:"id,omitempty"`
	GenerateID      bool           `yaml:"generate_id,omitempty"`
	Source          string         `yaml:"source,omitempty"`
	Type            string         `yaml:"type,omitempty"`
	Subject         string         `yaml:"subject,omitempty"`
	Time            string         `yaml:"time,omitempty"`
	DataContentType string         `yaml:"datacontenttype,omitempty"`
	DataSchema      string         `yaml:"dataschema,omitempty"`
	Data            yaml.Node      `yaml:"data,omitempty"`
	Extensions      map[string]any `yaml:"extensions,omitempty"`
}

// LoadFile reads every fixture document in path.
func LoadFile(path string) ([]*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture file: %w", err)
	}
	defer f.Close()

	return Decode(f, path)
}

// Decode reads every fixture document from r. origin labels the fixtures
// for error reporting.
func Decode(r io.Reader, origin string) ([]*Fixture, error) {
	dec := yaml.NewDecoder(r)

	var out []*Fixture
	for doc := 1; ; doc++ {
		var fx Fixture
		err := dec.Decode(&fx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", origin, doc, err)
		}
		fx.Origin = fmt.Sprintf("%s#%d", origin, doc)
		out = append(out, &fx)
	}
	return out, nil
}

// Builder converts the fixture into a builder bound to f. Malformed values
// (unknown version, bad URL or time, unsupported extension value) are
// reported here; attribute rules are left to Build.
func (fx *Fixture) Builder(f *event.Factory) (*event.Builder, error) {
	specVersion := fx.SpecVersion
	if specVersion == "" {
		specVersion = event.V1.String()
	}
	version, err := event.ParseSpecVersion(specVersion)
	if err != nil {
		return nil, fx.errorf("%w", err)
	}

	b := f.New(version).
		WithID(fx.ID).
		WithType(fx.Type).
		WithSubject(fx.Subject)
	if fx.GenerateID {
		b.WithGeneratedID()
	}

	if fx.Source != "" {
		source, err := url.Parse(fx.Source)
		if err != nil {
			return nil, fx.errorf("source: %w", err)
		}
		b.WithSource(source)
	}

	if fx.Time != "" {
		t, err := time.Parse(time.RFC3339Nano, fx.Time)
		if err != nil {
			return nil, fx.errorf("time: %w", err)
		}
		b.WithTime(t)
	}

	var schema *url.URL
	if fx.DataSchema != "" {
		schema, err = url.Parse(fx.DataSchema)
		if err != nil {
			return nil, fx.errorf("dataschema: %w", err)
		}
	}

	data, err := fx.data()
	if err != nil {
		return nil, fx.errorf("data: %w", err)
	}
	b.WithData(fx.DataContentType, schema, data)

	for name, raw := range fx.Extensions {
		value, err := event.ExtensionValueOf(raw)
		if err != nil {
			return nil, fx.errorf("extension %q: %w", name, err)
		}
		b.WithExtension(name, value)
	}
	return b, nil
}

// data decodes the payload. Mappings become Struct data; scalars are JSON
// text under a JSON content type and raw bytes otherwise.
func (fx *Fixture) data() (event.Data, error) {
	switch fx.Data.Kind {
	case 0:
		return event.Data{}, nil
	case yaml.MappingNode:
		var m map[string]any
		if err := fx.Data.Decode(&m); err != nil {
			return event.Data{}, err
		}
		s, err := structpb.NewStruct(m)
		if err != nil {
			return event.Data{}, err
		}
		return event.StructData(s), nil
	case yaml.ScalarNode:
		text := fx.Data.Value
		if isJSON(fx.DataContentType) {
			if !json.Valid([]byte(text)) {
				return event.Data{}, fmt.Errorf("content type %q but payload is not valid JSON", fx.DataContentType)
			}
			return event.JSONData(json.RawMessage(text)), nil
		}
		return event.BytesData([]byte(text)), nil
	default:
		return event.Data{}, fmt.Errorf("payload must be a string or a mapping")
	}
}

func (fx *Fixture) errorf(format string, args ...any) error {
	return fmt.Errorf("%s: "+format, append([]any{fx.Origin}, args...)...)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || mediaType == "text/json" || strings.HasSuffix(mediaType, "+json")
}
