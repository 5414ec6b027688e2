package s7type

import (
	"math"

	"github.com/s7ua-go/s7ua/ports"
)

// numericCodec handles the plain S7 scalar types that need no special
// framing: BOOL, BYTE, WORD, DWORD, INT, DINT, LINT, USINT, UINT, UDINT,
// ULINT, REAL, LREAL. The contract table in spec.md §4.1 spells out the
// tricky time/BCD types only; these fundamentals round-trip the wire
// value's natural Go representation.
type numericCodec struct {
	s7   S7Type
	name string
	// decode converts a wire Value to the host representation.
	decode func(ports.Value) (any, error)
	// encode converts a host value back to wire shape.
	encode func(any) (ports.Value, error)
}

func (c numericCodec) TargetType() string { return c.name }

func (c numericCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	return c.decode(w)
}

func (c numericCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	return c.encode(h)
}

func mismatchDecode(t S7Type, expected string, w ports.Value) error {
	return &TypeMismatchError{S7Type: t, Expected: expected, Wire: &w}
}

func mismatchEncode(t S7Type, expected string, h any) error {
	return &TypeMismatchError{S7Type: t, Expected: expected, Host: h}
}

func newBoolCodec() Codec {
	return numericCodec{
		s7: BOOL, name: "bool",
		decode: func(w ports.Value) (any, error) {
			if w.Kind != ports.KindBool {
				u, err := w.AsUint64()
				if err != nil {
					return nil, mismatchDecode(BOOL, "bool", w)
				}
				return u != 0, nil
			}
			return w.Bool, nil
		},
		encode: func(h any) (ports.Value, error) {
			b, ok := h.(bool)
			if !ok {
				return ports.Value{}, mismatchEncode(BOOL, "bool", h)
			}
			return ports.BoolValue(b), nil
		},
	}
}

func newByteCodec() Codec {
	return numericCodec{
		s7: BYTE, name: "uint8",
		decode: func(w ports.Value) (any, error) {
			u, err := w.AsUint64()
			if err != nil || u > 0xff {
				return nil, mismatchDecode(BYTE, "unsigned 8-bit", w)
			}
			return uint8(u), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok || v < 0 || v > 0xff {
				return ports.Value{}, mismatchEncode(BYTE, "uint8", h)
			}
			return ports.Uint8Value(uint8(v)), nil
		},
	}
}

func newWordCodec() Codec {
	return numericCodec{
		s7: WORD, name: "uint16",
		decode: func(w ports.Value) (any, error) {
			u, err := w.AsUint64()
			if err != nil || u > 0xffff {
				return nil, mismatchDecode(WORD, "unsigned 16-bit", w)
			}
			return uint16(u), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok || v < 0 || v > 0xffff {
				return ports.Value{}, mismatchEncode(WORD, "uint16", h)
			}
			return ports.Uint16Value(uint16(v)), nil
		},
	}
}

func newDWordCodec() Codec {
	return numericCodec{
		s7: DWORD, name: "uint32",
		decode: func(w ports.Value) (any, error) {
			u, err := w.AsUint64()
			if err != nil || u > 0xffffffff {
				return nil, mismatchDecode(DWORD, "unsigned 32-bit", w)
			}
			return uint32(u), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := h.(uint32)
			if !ok {
				if iv, ok2 := asInt(h); ok2 && iv >= 0 {
					return ports.Uint32Value(uint32(iv)), nil
				}
				return ports.Value{}, mismatchEncode(DWORD, "uint32", h)
			}
			return ports.Uint32Value(v), nil
		},
	}
}

func newIntCodec() Codec {
	return numericCodec{
		s7: INT, name: "int16",
		decode: func(w ports.Value) (any, error) {
			i, err := w.AsInt64()
			if err != nil || i < math.MinInt16 || i > math.MaxInt16 {
				return nil, mismatchDecode(INT, "signed 16-bit", w)
			}
			return int16(i), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok || v < math.MinInt16 || v > math.MaxInt16 {
				return ports.Value{}, mismatchEncode(INT, "int16", h)
			}
			return ports.Int16Value(int16(v)), nil
		},
	}
}

func newDIntCodec() Codec {
	return numericCodec{
		s7: DINT, name: "int32",
		decode: func(w ports.Value) (any, error) {
			i, err := w.AsInt64()
			if err != nil || i < math.MinInt32 || i > math.MaxInt32 {
				return nil, mismatchDecode(DINT, "signed 32-bit", w)
			}
			return int32(i), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok || v < math.MinInt32 || v > math.MaxInt32 {
				return ports.Value{}, mismatchEncode(DINT, "int32", h)
			}
			return ports.Int32Value(int32(v)), nil
		},
	}
}

func newLIntCodec() Codec {
	return numericCodec{
		s7: LINT, name: "int64",
		decode: func(w ports.Value) (any, error) {
			i, err := w.AsInt64()
			if err != nil {
				return nil, mismatchDecode(LINT, "signed 64-bit", w)
			}
			return i, nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok {
				return ports.Value{}, mismatchEncode(LINT, "int64", h)
			}
			return ports.Int64Value(int64(v)), nil
		},
	}
}

func newUSIntCodec() Codec {
	return numericCodec{
		s7: USINT, name: "uint8",
		decode: func(w ports.Value) (any, error) {
			u, err := w.AsUint64()
			if err != nil || u > 0xff {
				return nil, mismatchDecode(USINT, "unsigned 8-bit", w)
			}
			return uint8(u), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok || v < 0 || v > 0xff {
				return ports.Value{}, mismatchEncode(USINT, "uint8", h)
			}
			return ports.Uint8Value(uint8(v)), nil
		},
	}
}

func newUIntCodec() Codec {
	return numericCodec{
		s7: UINT, name: "uint16",
		decode: func(w ports.Value) (any, error) {
			u, err := w.AsUint64()
			if err != nil || u > 0xffff {
				return nil, mismatchDecode(UINT, "unsigned 16-bit", w)
			}
			return uint16(u), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok || v < 0 || v > 0xffff {
				return ports.Value{}, mismatchEncode(UINT, "uint16", h)
			}
			return ports.Uint16Value(uint16(v)), nil
		},
	}
}

func newUDIntCodec() Codec {
	return numericCodec{
		s7: UDINT, name: "uint32",
		decode: func(w ports.Value) (any, error) {
			u, err := w.AsUint64()
			if err != nil || u > 0xffffffff {
				return nil, mismatchDecode(UDINT, "unsigned 32-bit", w)
			}
			return uint32(u), nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := asInt(h)
			if !ok || v < 0 {
				return ports.Value{}, mismatchEncode(UDINT, "uint32", h)
			}
			return ports.Uint32Value(uint32(v)), nil
		},
	}
}

func newULIntCodec() Codec {
	return numericCodec{
		s7: ULINT, name: "uint64",
		decode: func(w ports.Value) (any, error) {
			u, err := w.AsUint64()
			if err != nil {
				return nil, mismatchDecode(ULINT, "unsigned 64-bit", w)
			}
			return u, nil
		},
		encode: func(h any) (ports.Value, error) {
			v, ok := h.(uint64)
			if !ok {
				if iv, ok2 := asInt(h); ok2 && iv >= 0 {
					return ports.Uint64Value(uint64(iv)), nil
				}
				return ports.Value{}, mismatchEncode(ULINT, "uint64", h)
			}
			return ports.Uint64Value(v), nil
		},
	}
}

func newRealCodec() Codec {
	return numericCodec{
		s7: REAL, name: "float32",
		decode: func(w ports.Value) (any, error) {
			if w.Kind != ports.KindFloat32 && w.Kind != ports.KindFloat64 {
				return nil, mismatchDecode(REAL, "float32", w)
			}
			return float32(w.Float64), nil
		},
		encode: func(h any) (ports.Value, error) {
			switch v := h.(type) {
			case float32:
				return ports.Value{Kind: ports.KindFloat32, Float64: float64(v)}, nil
			case float64:
				return ports.Value{Kind: ports.KindFloat32, Float64: v}, nil
			default:
				return ports.Value{}, mismatchEncode(REAL, "float32", h)
			}
		},
	}
}

func newLRealCodec() Codec {
	return numericCodec{
		s7: LREAL, name: "float64",
		decode: func(w ports.Value) (any, error) {
			if w.Kind != ports.KindFloat32 && w.Kind != ports.KindFloat64 {
				return nil, mismatchDecode(LREAL, "float64", w)
			}
			return w.Float64, nil
		},
		encode: func(h any) (ports.Value, error) {
			switch v := h.(type) {
			case float64:
				return ports.Value{Kind: ports.KindFloat64, Float64: v}, nil
			case float32:
				return ports.Value{Kind: ports.KindFloat64, Float64: float64(v)}, nil
			default:
				return ports.Value{}, mismatchEncode(LREAL, "float64", h)
			}
		},
	}
}
