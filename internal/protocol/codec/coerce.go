package codec

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Encoder converts an application value into the exact Go value its wire
// type packs.
type Encoder interface {
	Type() Type
	Encode(v any) (any, error)
}

// As is the stock Encoder for a wire type; it accepts anything Coerce does.
type As Type

func (a As) Type() Type { return Type(a) }

func (a As) Encode(v any) (any, error) { return Coerce(Type(a), v) }

type funcEncoder struct {
	t  Type
	fn func(any) (any, error)
}

func (f funcEncoder) Type() Type { return f.t }

func (f funcEncoder) Encode(v any) (any, error) {
	out, err := f.fn(v)
	if err != nil {
		return nil, err
	}
	return Coerce(f.t, out)
}

// EncoderFunc wraps fn as an Encoder for t. The result of fn is coerced to t.
func EncoderFunc(t Type, fn func(any) (any, error)) Encoder {
	return funcEncoder{t: t, fn: fn}
}

// Coerce converts v (numbers of any width, numeric strings, bools) into the
// Go value that t packs, rejecting values that would not survive the
// conversion.
func Coerce(t Type, v any) (any, error) {
	switch t {
	case Bool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, coerceErr(t, v, err)
		}
		return b, nil
	case Char:
		switch c := v.(type) {
		case Byte:
			return c, nil
		case string:
			if len(c) != 1 {
				return nil, fmt.Errorf("%w: char from %d-byte string", ErrOutOfRange, len(c))
			}
			return Byte(c[0]), nil
		}
		n, err := integer(t, v, 0, math.MaxUint8)
		if err != nil {
			return nil, err
		}
		return Byte(n), nil
	case Int:
		n, err := integer(t, v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return int(n), nil
	case Float:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, coerceErr(t, v, err)
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %g does not fit float", ErrOutOfRange, f)
		}
		return float32(f), nil
	case String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, coerceErr(t, v, err)
		}
		if len(s) > MaxStringLen {
			return nil, fmt.Errorf("%w: %d", ErrStringTooLong, len(s))
		}
		return s, nil
	case Int8:
		n, err := integer(t, v, math.MinInt8, math.MaxInt8)
		if err != nil {
			return nil, err
		}
		return int8(n), nil
	case Int16:
		n, err := integer(t, v, math.MinInt16, math.MaxInt16)
		if err != nil {
			return nil, err
		}
		return int16(n), nil
	case Int32:
		n, err := integer(t, v, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return int32(n), nil
	case Uint16:
		n, err := integer(t, v, 0, math.MaxUint16)
		if err != nil {
			return nil, err
		}
		return uint16(n), nil
	case Uint32:
		n, err := integer(t, v, 0, math.MaxUint32)
		if err != nil {
			return nil, err
		}
		return uint32(n), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

func integer(t Type, v any, lo, hi int64) (int64, error) {
	switch f := v.(type) {
	case float32:
		if float32(math.Trunc(float64(f))) != f {
			return 0, fmt.Errorf("%w: %s from fractional %v", ErrOutOfRange, t, f)
		}
	case float64:
		if math.Trunc(f) != f {
			return 0, fmt.Errorf("%w: %s from fractional %v", ErrOutOfRange, t, f)
		}
	case Byte:
		v = uint8(f)
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, coerceErr(t, v, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d does not fit %s", ErrOutOfRange, n, t)
	}
	return n, nil
}

func coerceErr(t Type, v any, err error) error {
	return fmt.Errorf("%w: %s from %T: %v", ErrTypeMismatch, t, v, err)
}
