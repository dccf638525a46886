package feature

import (
	"bytes"
	"fmt"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind string

// Value kind constants.
const (
	KindNull   Kind = "null"
	KindString Kind = "string"
	KindFloat  Kind = "float"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
	KindBytes  Kind = "bytes"
)

// Value is a closed tagged variant over the scalar kinds an attribute may
// hold. The zero Value is the null value. Values are immutable; Bytes
// copies its backing slice on the way in and out.
type Value struct {
	kind Kind
	s    string
	f    float64
	i    int64
	b    bool
	t    time.Time
	raw  []byte
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Float wraps a float64.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Int wraps an int64.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Bool wraps a bool.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Time wraps a time.Time.
func Time(v time.Time) Value { return Value{kind: KindTime, t: v} }

// Bytes wraps a byte slice. The slice is copied.
func Bytes(v []byte) Value {
	cpy := make([]byte, len(v))
	copy(cpy, v)
	return Value{kind: KindBytes, raw: cpy}
}

// Kind returns the variant the value holds. The zero Value reports KindNull.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind() == KindNull }

// AsString returns the string variant. ok is false for other kinds.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsFloat returns the float variant. ok is false for other kinds.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsInt returns the int variant. ok is false for other kinds.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsBool returns the bool variant. ok is false for other kinds.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsTime returns the time variant. ok is false for other kinds.
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

// AsBytes returns a copy of the bytes variant. ok is false for other kinds.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	cpy := make([]byte, len(v.raw))
	copy(cpy, v.raw)
	return cpy, true
}

// Equal reports whether two values hold the same kind and the same content.
// Null equals only null. Times compare with time.Time.Equal.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindString:
		return v.s == other.s
	case KindFloat:
		return v.f == other.f
	case KindInt:
		return v.i == other.i
	case KindBool:
		return v.b == other.b
	case KindTime:
		return v.t.Equal(other.t)
	case KindBytes:
		return bytes.Equal(v.raw, other.raw)
	default:
		return false
	}
}

// Interface returns the value as a plain Go value (nil, string, float64,
// int64, bool, time.Time or []byte copy). Useful for serialisation.
func (v Value) Interface() any {
	switch v.Kind() {
	case KindString:
		return v.s
	case KindFloat:
		return v.f
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindBytes:
		b, _ := v.AsBytes()
		return b
	default:
		return nil
	}
}

// FromInterface converts a plain Go value into a Value. Unsupported types
// (and nil) map to null; smaller integer and float widths are widened.
func FromInterface(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null()
	case string:
		return String(val)
	case float64:
		return Float(val)
	case float32:
		return Float(float64(val))
	case int:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case bool:
		return Bool(val)
	case time.Time:
		return Time(val)
	case []byte:
		return Bytes(val)
	default:
		return Null()
	}
}

// String returns a display representation for logging.
func (v Value) String() string {
	switch v.Kind() {
	case KindNull:
		return "null"
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindBytes:
		return fmt.Sprintf("bytes[%d]", len(v.raw))
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
