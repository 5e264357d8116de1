package event

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// DataKind is the discriminator of the Data union.
type DataKind int

const (
	DataNone DataKind = iota
	DataBytes
	DataJSON
	DataStruct
)

func (k DataKind) String() string {
	switch k {
	case DataNone:
		return "none"
	case DataBytes:
		return "bytes"
	case DataJSON:
		return "json"
	case DataStruct:
		return "struct"
	default:
		return fmt.Sprintf("DataKind(%d)", int(k))
	}
}

// Data is an opaque event payload. Exactly one variant is populated,
// selected by Kind. The payload is never interpreted by this package.
type Data struct {
	kind   DataKind
	raw    []byte
	object *structpb.Struct
}

// BytesData wraps raw bytes. The slice is copied.
func BytesData(b []byte) Data {
	return Data{kind: DataBytes, raw: bytes.Clone(b)}
}

// JSONData wraps already serialized JSON text. The text is copied as is.
func JSONData(raw json.RawMessage) Data {
	return Data{kind: DataJSON, raw: bytes.Clone(raw)}
}

// StructData wraps a structured object. The message is cloned.
func StructData(s *structpb.Struct) Data {
	if s == nil {
		return Data{}
	}
	return Data{kind: DataStruct, object: proto.Clone(s).(*structpb.Struct)}
}

// Kind returns which variant is populated.
func (d Data) Kind() DataKind {
	return d.kind
}

// IsZero reports whether no payload is set.
func (d Data) IsZero() bool {
	return d.kind == DataNone
}

// Bytes returns a copy of the payload for the Bytes and JSON variants.
func (d Data) Bytes() ([]byte, bool) {
	if d.kind != DataBytes && d.kind != DataJSON {
		return nil, false
	}
	return bytes.Clone(d.raw), true
}

// Struct returns a copy of the payload for the Struct variant.
func (d Data) Struct() (*structpb.Struct, bool) {
	if d.kind != DataStruct {
		return nil, false
	}
	return proto.Clone(d.object).(*structpb.Struct), true
}

// Equal compares kind and content.
func (d Data) Equal(other Data) bool {
	if d.kind != other.kind {
		return false
	}
	switch d.kind {
	case DataNone:
		return true
	case DataStruct:
		return proto.Equal(d.object, other.object)
	default:
		return bytes.Equal(d.raw, other.raw)
	}
}

func (d Data) clone() Data {
	switch d.kind {
	case DataBytes, DataJSON:
		return Data{kind: d.kind, raw: bytes.Clone(d.raw)}
	case DataStruct:
		return StructData(d.object)
	default:
		return Data{}
	}
}
