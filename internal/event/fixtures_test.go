package event_test

import (
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/aevon-lab/envelope/internal/event"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	testID                  = "1"
	testType                = "mock.test"
	testSubject             = "sub"
	testDataContentTypeJSON = "application/json"
	testDataContentTypeText = "text/plain"
)

var (
	testSource     = mustURL("http://localhost/source")
	testDataSchema = mustURL("http://localhost/schema")
	testTime       = time.Date(2018, time.April, 26, 14, 48, 9, 0, time.UTC)
	testDataJSON   = event.JSONData(json.RawMessage(`{"a":"b"}`))
	testDataText   = event.BytesData([]byte("hello"))
)

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func mustBuild(t *testing.T, b *event.Builder) *event.Event {
	t.Helper()
	e, err := b.Build()
	require.NoError(t, err)
	return e
}

// v1Events mirrors the spread of shapes a consumer sees: bare minimum, full
// attribute set, every data variant and extensions of every kind.
func v1Events(t *testing.T) map[string]*event.Event {
	t.Helper()
	return map[string]*event.Event{
		"minimal": mustBuild(t, event.NewV1().
			WithID(testID).
			WithType(testType).
			WithSource(testSource)),
		"with subject and time": mustBuild(t, event.NewV1().
			WithID(testID).
			WithType(testType).
			WithSource(testSource).
			WithSubject(testSubject).
			WithTime(testTime)),
		"json data": mustBuild(t, event.NewV1().
			WithID(testID).
			WithType(testType).
			WithSource(testSource).
			WithData(testDataContentTypeJSON, testDataSchema, testDataJSON).
			WithSubject(testSubject).
			WithTime(testTime)),
		"text data": mustBuild(t, event.NewV1().
			WithID(testID).
			WithType(testType).
			WithSource(testSource).
			WithData(testDataContentTypeText, nil, testDataText)),
		"struct data": mustBuild(t, event.NewV1().
			WithID(testID).
			WithType(testType).
			WithSource(testSource).
			WithData(testDataContentTypeJSON, nil, event.StructData(mustStruct(t, map[string]any{"a": "b", "n": 1.0})))),
		"extensions": mustBuild(t, event.NewV1().
			WithID(testID).
			WithType(testType).
			WithSource(testSource).
			WithExtension("astring", event.String("aaa")).
			WithExtension("aboolean", event.Bool(true)).
			WithExtension("anumber", event.Int(10)).
			WithExtension("adecimal", event.Float(1.25))),
	}
}
