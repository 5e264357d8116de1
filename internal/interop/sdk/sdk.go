// Package sdk converts envelopes to and from the CloudEvents Go SDK event
// type, so built events can be handed to SDK clients and SDK events can be
// revalidated here.
package sdk

import (
	"fmt"
	"math"
	"mime"
	"net/url"
	"strings"

	"github.com/aevon-lab/envelope/internal/event"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/types"
	"google.golang.org/protobuf/encoding/protojson"
)

// ToSDK copies e into an SDK event. Number extensions travel as their
// decimal text and integers outside the int32 range as strings, matching
// the SDK's extension type system.
func ToSDK(e *event.Event) (cloudevents.Event, error) {
	ce := cloudevents.NewEvent(e.SpecVersion().String())
	ce.SetID(e.ID())
	ce.SetSource(e.Source().String())
	ce.SetType(e.Type())
	if e.Subject() != "" {
		ce.SetSubject(e.Subject())
	}
	if t, ok := e.Time(); ok {
		ce.SetTime(t)
	}
	if schema := e.DataSchema(); schema != nil {
		ce.SetDataSchema(schema.String())
	}
	if e.DataContentType() != "" {
		ce.SetDataContentType(e.DataContentType())
	}

	if err := setData(&ce, e); err != nil {
		return cloudevents.Event{}, fmt.Errorf("event %q: %w", e.ID(), err)
	}

	for _, name := range e.ExtensionNames() {
		v, _ := e.Extension(name)
		ce.SetExtension(name, extensionToSDK(v))
	}

	if err := ce.Validate(); err != nil {
		return cloudevents.Event{}, fmt.Errorf("event %q is not a valid SDK event: %w", e.ID(), err)
	}
	return ce, nil
}

func setData(ce *cloudevents.Event, e *event.Event) error {
	data := e.Data()
	contentType := e.DataContentType()

	switch data.Kind() {
	case event.DataNone:
		return nil
	case event.DataStruct:
		s, _ := data.Struct()
		raw, err := protojson.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal struct data: %w", err)
		}
		if contentType == "" {
			contentType = cloudevents.ApplicationJSON
		}
		setEncoded(ce, contentType, raw)
	default:
		raw, _ := data.Bytes()
		if contentType == "" && data.Kind() == event.DataJSON {
			contentType = cloudevents.ApplicationJSON
		}
		setEncoded(ce, contentType, raw)
	}
	return nil
}

// setEncoded stores already encoded data as is. SetData would run it
// through the SDK codecs, which refuse unknown media types.
func setEncoded(ce *cloudevents.Event, contentType string, raw []byte) {
	if contentType != "" {
		ce.SetDataContentType(contentType)
	}
	ce.DataEncoded = raw
}

func extensionToSDK(v event.ExtensionValue) any {
	switch v.Kind() {
	case event.KindBool:
		b, _ := v.AsBool()
		return b
	case event.KindInt:
		i, _ := v.AsInt()
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i)
		}
	}
	return v.String()
}

// FromSDK returns a builder of the SDK event's version bound to f, so the
// factory's validator runs when the caller builds it.
func FromSDK(f *event.Factory, ce cloudevents.Event) (*event.Builder, error) {
	version, err := event.ParseSpecVersion(ce.SpecVersion())
	if err != nil {
		return nil, err
	}

	b := f.New(version).
		WithID(ce.ID()).
		WithType(ce.Type()).
		WithSubject(ce.Subject()).
		WithTime(ce.Time()).
		WithDataContentType(ce.DataContentType())

	if ce.Source() != "" {
		source, err := url.Parse(ce.Source())
		if err != nil {
			return nil, fmt.Errorf("parse source: %w", err)
		}
		b.WithSource(source)
	}
	var schema *url.URL
	if ce.DataSchema() != "" {
		schema, err = url.Parse(ce.DataSchema())
		if err != nil {
			return nil, fmt.Errorf("parse dataschema: %w", err)
		}
		b.WithDataSchema(schema)
	}

	if raw := ce.Data(); len(raw) > 0 {
		if isJSON(ce.DataContentType()) {
			b.WithData(ce.DataContentType(), schema, event.JSONData(raw))
		} else {
			b.WithData(ce.DataContentType(), schema, event.BytesData(raw))
		}
	}

	for name, v := range ce.Extensions() {
		value, err := extensionFromSDK(v)
		if err != nil {
			return nil, fmt.Errorf("extension %q: %w", name, err)
		}
		b.WithExtension(name, value)
	}
	return b, nil
}

func extensionFromSDK(v any) (event.ExtensionValue, error) {
	switch val := v.(type) {
	case bool:
		return event.Bool(val), nil
	case int32:
		return event.Int(int64(val)), nil
	case string:
		return event.String(val), nil
	}
	text, err := types.Format(v)
	if err != nil {
		return event.ExtensionValue{}, err
	}
	return event.String(text), nil
}

// isJSON reports whether contentType carries JSON. An absent content type
// defaults to JSON.
func isJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || mediaType == "text/json" || strings.HasSuffix(mediaType, "+json")
}
