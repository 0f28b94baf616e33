// Package codec packs and unpacks the fixed set of wire value types.
// Multi-byte values are little-endian; strings carry a one byte length.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Type is one wire type of the argument codec. The zero value is not a
// valid type.
type Type uint8

const (
	Bool Type = iota + 1
	Char
	Int
	Float
	String
	Int8
	Int16
	Int32
	Uint16
	Uint32
)

// MaxStringLen is the largest string the 1-byte length prefix can describe.
const MaxStringLen = 255

// Byte is the Go value of a Char: a single raw byte on the wire.
type Byte byte

var (
	ErrUnknownType   = errors.New("codec: unknown type")
	ErrTypeMismatch  = errors.New("codec: value does not match type")
	ErrShortBuffer   = errors.New("codec: short buffer")
	ErrStringTooLong = errors.New("codec: string longer than 255 bytes")
	ErrOutOfRange    = errors.New("codec: value out of range")
)

var typeNames = map[Type]string{
	Bool:   "bool",
	Char:   "char",
	Int:    "int",
	Float:  "float",
	String: "string",
	Int8:   "int8",
	Int16:  "int16",
	Int32:  "int32",
	Uint16: "uint16",
	Uint32: "uint32",
}

// widths holds the encoded size of every fixed-width type.
var widths = map[Type]int{
	Bool:   1,
	Char:   1,
	Int:    4,
	Float:  4,
	Int8:   1,
	Int16:  2,
	Int32:  4,
	Uint16: 2,
	Uint32: 4,
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Valid reports whether t is part of the codec table.
func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Width returns the fixed encoded size of t, or 0 for variable-width types.
func (t Type) Width() int {
	return widths[t]
}

// ParseType resolves a wire type by name ("int", "uint16", ...).
func ParseType(name string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "str" {
		return String, nil
	}
	for t, n := range typeNames {
		if n == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// TypeOf infers the wire type of a typed Go value.
func TypeOf(v any) (Type, error) {
	switch v.(type) {
	case bool:
		return Bool, nil
	case Byte, uint8:
		return Char, nil
	case int:
		return Int, nil
	case float32, float64:
		return Float, nil
	case string:
		return String, nil
	case int8:
		return Int8, nil
	case int16:
		return Int16, nil
	case int32:
		return Int32, nil
	case uint16:
		return Uint16, nil
	case uint32:
		return Uint32, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnknownType, v)
	}
}

// Pack encodes v as t.
func Pack(t Type, v any) ([]byte, error) {
	return AppendPack(make([]byte, 0, t.Width()+1), t, v)
}

// AppendPack appends the encoding of v as t to dst. On error dst is returned
// unchanged.
func AppendPack(dst []byte, t Type, v any) ([]byte, error) {
	le := binary.LittleEndian
	switch t {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return dst, mismatch(t, v)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case Char:
		switch c := v.(type) {
		case Byte:
			return append(dst, byte(c)), nil
		case uint8:
			return append(dst, c), nil
		}
		return dst, mismatch(t, v)
	case Int:
		n, ok := v.(int)
		if !ok {
			return dst, mismatch(t, v)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return dst, fmt.Errorf("%w: %d does not fit int", ErrOutOfRange, n)
		}
		return le.AppendUint32(dst, uint32(int32(n))), nil
	case Float:
		switch f := v.(type) {
		case float32:
			return le.AppendUint32(dst, math.Float32bits(f)), nil
		case float64:
			return le.AppendUint32(dst, math.Float32bits(float32(f))), nil
		}
		return dst, mismatch(t, v)
	case String:
		s, ok := v.(string)
		if !ok {
			return dst, mismatch(t, v)
		}
		if len(s) > MaxStringLen {
			return dst, fmt.Errorf("%w: %d", ErrStringTooLong, len(s))
		}
		dst = append(dst, byte(len(s)))
		return append(dst, s...), nil
	case Int8:
		n, ok := v.(int8)
		if !ok {
			return dst, mismatch(t, v)
		}
		return append(dst, byte(n)), nil
	case Int16:
		n, ok := v.(int16)
		if !ok {
			return dst, mismatch(t, v)
		}
		return le.AppendUint16(dst, uint16(n)), nil
	case Int32:
		n, ok := v.(int32)
		if !ok {
			return dst, mismatch(t, v)
		}
		return le.AppendUint32(dst, uint32(n)), nil
	case Uint16:
		n, ok := v.(uint16)
		if !ok {
			return dst, mismatch(t, v)
		}
		return le.AppendUint16(dst, n), nil
	case Uint32:
		n, ok := v.(uint32)
		if !ok {
			return dst, mismatch(t, v)
		}
		return le.AppendUint32(dst, n), nil
	default:
		return dst, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// Unpack decodes one value of type t from the front of b and reports how
// many bytes it consumed.
func Unpack(t Type, b []byte) (int, any, error) {
	if !t.Valid() {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	if t == String {
		if len(b) < 1 {
			return 0, nil, fmt.Errorf("%w: string prefix", ErrShortBuffer)
		}
		n := int(b[0])
		if len(b) < 1+n {
			return 0, nil, fmt.Errorf("%w: string needs %d bytes, have %d", ErrShortBuffer, n, len(b)-1)
		}
		return 1 + n, string(b[1 : 1+n]), nil
	}

	w := t.Width()
	if len(b) < w {
		return 0, nil, fmt.Errorf("%w: %s needs %d bytes, have %d", ErrShortBuffer, t, w, len(b))
	}
	le := binary.LittleEndian
	var v any
	switch t {
	case Bool:
		v = b[0] != 0
	case Char:
		v = Byte(b[0])
	case Int:
		v = int(int32(le.Uint32(b)))
	case Float:
		v = math.Float32frombits(le.Uint32(b))
	case Int8:
		v = int8(b[0])
	case Int16:
		v = int16(le.Uint16(b))
	case Int32:
		v = int32(le.Uint32(b))
	case Uint16:
		v = le.Uint16(b)
	case Uint32:
		v = le.Uint32(b)
	}
	return w, v, nil
}

func mismatch(t Type, v any) error {
	return fmt.Errorf("%w: %s from %T", ErrTypeMismatch, t, v)
}
