package dbexec

import (
	"bytes"
	"fmt"
	"strconv"
)

// Kind identifies which case of a Value is populated.
type Kind uint8

// Value kinds. The zero Kind is not a valid case.
const (
	Integer Kind = iota + 1
	Text
	Real
	Blob
	Bool
)

// String returns the kind name, e.g. "Integer".
func (k Kind) String() string {
	switch k {
	case Integer:
		return "Integer"
	case Text:
		return "Text"
	case Real:
		return "Real"
	case Blob:
		return "Blob"
	case Bool:
		return "Bool"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one decoded cell. Exactly one case is populated, reported by Kind.
// The zero Value has no kind and is never produced by decoding.
type Value struct {
	kind Kind
	i    int64
	s    string
	f    float64
	b    []byte
	t    bool
}

// IntegerValue returns an Integer value.
func IntegerValue(v int64) Value { return Value{kind: Integer, i: v} }

// TextValue returns a Text value.
func TextValue(v string) Value { return Value{kind: Text, s: v} }

// RealValue returns a Real value.
func RealValue(v float64) Value { return Value{kind: Real, f: v} }

// BlobValue returns a Blob value holding a copy of v. A nil slice becomes empty.
func BlobValue(v []byte) Value {
	b := make([]byte, len(v))
	copy(b, v)
	return Value{kind: Blob, b: b}
}

// BoolValue returns a Bool value.
func BoolValue(v bool) Value { return Value{kind: Bool, t: v} }

// Kind reports which case is populated.
func (v Value) Kind() Kind { return v.kind }

// AsInteger returns the integer and whether v is an Integer.
func (v Value) AsInteger() (int64, bool) { return v.i, v.kind == Integer }

// AsText returns the string and whether v is Text.
func (v Value) AsText() (string, bool) { return v.s, v.kind == Text }

// AsReal returns the float and whether v is Real.
func (v Value) AsReal() (float64, bool) { return v.f, v.kind == Real }

// AsBlob returns a copy of the bytes and whether v is a Blob.
func (v Value) AsBlob() ([]byte, bool) {
	if v.kind != Blob {
		return nil, false
	}
	return bytes.Clone(v.b), true
}

// AsBool returns the boolean and whether v is a Bool.
func (v Value) AsBool() (bool, bool) { return v.t, v.kind == Bool }

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Integer:
		return v.i == o.i
	case Text:
		return v.s == o.s
	case Real:
		return v.f == o.f
	case Blob:
		return bytes.Equal(v.b, o.b)
	case Bool:
		return v.t == o.t
	default:
		return true
	}
}

// String formats the value for logs and CLI output.
func (v Value) String() string {
	switch v.kind {
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Text:
		return v.s
	case Real:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case Blob:
		return fmt.Sprintf("<%d bytes>", len(v.b))
	case Bool:
		return strconv.FormatBool(v.t)
	default:
		return "<invalid>"
	}
}
