package event

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"
)

// ExtensionKind is the type tag of an extension value.
type ExtensionKind string

const (
	KindString ExtensionKind = "string"
	KindBool   ExtensionKind = "bool"
	KindInt    ExtensionKind = "int"
	KindNumber ExtensionKind = "number"
)

// ExtensionValue is a scalar extension attribute value.
//
// The value keeps the kind it was created with, so validators can check
// input types, alongside a normalized textual form that is used for
// equality and output. Bool(true) and String("true") therefore compare
// equal even though their kinds differ.
type ExtensionValue struct {
	kind ExtensionKind
	text string

	b bool
	i int64
	d decimal.Decimal
}

// String creates a string extension value.
func String(s string) ExtensionValue {
	return ExtensionValue{kind: KindString, text: s}
}

// Bool creates a boolean extension value.
func Bool(b bool) ExtensionValue {
	return ExtensionValue{kind: KindBool, text: strconv.FormatBool(b), b: b}
}

// Int creates an integer extension value.
func Int(i int64) ExtensionValue {
	return ExtensionValue{kind: KindInt, text: strconv.FormatInt(i, 10), i: i}
}

// Number creates an arbitrary precision numeric extension value.
func Number(d decimal.Decimal) ExtensionValue {
	return ExtensionValue{kind: KindNumber, text: d.String(), d: d}
}

// Float creates a numeric extension value from a float. The float is
// converted to its shortest exact decimal representation. It panics on NaN
// and infinities; use ExtensionValueOf for untrusted input.
func Float(f float64) ExtensionValue {
	if !finite(f) {
		panic(fmt.Sprintf("event: extension value %v is not a finite number", f))
	}
	return Number(decimal.NewFromFloat(f))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ExtensionValueOf converts a Go scalar into an ExtensionValue. It is meant
// for callers decoding loosely typed input, such as YAML fixtures or SDK
// events; typed code should use the constructors directly.
func ExtensionValueOf(v any) (ExtensionValue, error) {
	switch val := v.(type) {
	case ExtensionValue:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case uint64:
		if val > math.MaxInt64 {
			return Number(decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0)), nil
		}
		return Int(int64(val)), nil
	case float32:
		return floatValue(float64(val))
	case float64:
		return floatValue(val)
	case decimal.Decimal:
		return Number(val), nil
	case nil:
		return ExtensionValue{}, fmt.Errorf("extension value cannot be null")
	default:
		return ExtensionValue{}, fmt.Errorf("unsupported extension value type %T", v)
	}
}

func floatValue(f float64) (ExtensionValue, error) {
	if !finite(f) {
		return ExtensionValue{}, fmt.Errorf("extension value %v is not a finite number", f)
	}
	return Float(f), nil
}

// Kind returns the type tag the value was created with.
func (v ExtensionValue) Kind() ExtensionKind {
	return v.kind
}

// IsZero reports whether v was never assigned.
func (v ExtensionValue) IsZero() bool {
	return v.kind == ""
}

// String returns the normalized textual form.
func (v ExtensionValue) String() string {
	return v.text
}

// AsBool returns the boolean value. String values "true" and "false" are
// accepted as well.
func (v ExtensionValue) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		switch v.text {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// AsInt returns the integer value for Int values and for any other value
// whose normalized form is an integer.
func (v ExtensionValue) AsInt() (int64, bool) {
	if v.kind == KindInt {
		return v.i, true
	}
	if v.kind == KindBool {
		return 0, false
	}
	i, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// AsDecimal returns the numeric value of Int and Number values, and of
// strings holding a decimal number.
func (v ExtensionValue) AsDecimal() (decimal.Decimal, bool) {
	switch v.kind {
	case KindNumber:
		return v.d, true
	case KindInt:
		return decimal.NewFromInt(v.i), true
	case KindString:
		d, err := decimal.NewFromString(v.text)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// Equal compares normalized forms.
func (v ExtensionValue) Equal(other ExtensionValue) bool {
	return v.IsZero() == other.IsZero() && v.text == other.text
}

var extensionNamePattern = regexp.MustCompile(`^[a-z0-9]+$`)

// ValidExtensionName reports whether name is made of lowercase ASCII letters
// and digits only.
func ValidExtensionName(name string) bool {
	return extensionNamePattern.MatchString(name)
}

func copyExtensions(in map[string]ExtensionValue) map[string]ExtensionValue {
	out := make(map[string]ExtensionValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
