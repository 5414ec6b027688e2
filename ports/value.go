package ports

import "fmt"

// Kind tags the alternative a Value currently holds. This is the explicit,
// tagged-variant replacement for the source's universal object box
// (spec.md §9): codecs pattern-match Kind instead of relying on runtime
// reflection over an untyped interface.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBytes
	KindExtensionObject
	KindArray
	KindMatrix
)

// ExtensionObject carries a type id alongside its raw binary body, the
// OPC UA envelope used for structured payloads such as the S7 DTL type
// (spec.md §6).
type ExtensionObject struct {
	TypeID string
	Body   []byte
}

// Matrix is a row-major, two-dimensional payload with explicit
// dimensions, mirroring the OPC UA variant matrix shape.
type Matrix struct {
	Dims []int
	Flat []Value
}

// Value is the closed sum type covering every primitive wire shape the
// OPC UA stack surfaces: signed/unsigned integers of each width, a byte
// sequence, an extension object, an array, and a matrix. Exactly one
// field beside Kind is meaningful at a time.
type Value struct {
	Kind Kind

	Bool    bool
	Int     int64
	Uint    uint64
	Float64 float64
	Bytes   []byte
	Ext     *ExtensionObject
	Array   []Value
	Mat     *Matrix
}

// Null reports whether the value carries no payload.
func (v Value) Null() bool { return v.Kind == KindNull }

// NullValue is the canonical null Value.
var NullValue = Value{Kind: KindNull}

func Uint8Value(u uint8) Value   { return Value{Kind: KindUint8, Uint: uint64(u)} }
func Uint16Value(u uint16) Value { return Value{Kind: KindUint16, Uint: uint64(u)} }
func Uint32Value(u uint32) Value { return Value{Kind: KindUint32, Uint: uint64(u)} }
func Uint64Value(u uint64) Value { return Value{Kind: KindUint64, Uint: u} }
func Int8Value(i int8) Value     { return Value{Kind: KindInt8, Int: int64(i)} }
func Int16Value(i int16) Value   { return Value{Kind: KindInt16, Int: int64(i)} }
func Int32Value(i int32) Value   { return Value{Kind: KindInt32, Int: int64(i)} }
func Int64Value(i int64) Value   { return Value{Kind: KindInt64, Int: i} }
func BoolValue(b bool) Value     { return Value{Kind: KindBool, Bool: b} }
func BytesValue(b []byte) Value  { return Value{Kind: KindBytes, Bytes: b} }
func ExtValue(e *ExtensionObject) Value {
	return Value{Kind: KindExtensionObject, Ext: e}
}
func ArrayValue(vs []Value) Value { return Value{Kind: KindArray, Array: vs} }
func MatrixValue(m *Matrix) Value { return Value{Kind: KindMatrix, Mat: m} }

// AsUint64 extracts an unsigned integer regardless of the exact width
// Kind, returning an error for shapes that are not integral.
func (v Value) AsUint64() (uint64, error) {
	switch v.Kind {
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return v.Uint, nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		if v.Int < 0 {
			return 0, fmt.Errorf("ports: negative value %d has no unsigned representation", v.Int)
		}
		return uint64(v.Int), nil
	default:
		return 0, fmt.Errorf("ports: value of kind %d is not an integer", v.Kind)
	}
}

// AsInt64 extracts a signed integer regardless of the exact width Kind.
func (v Value) AsInt64() (int64, error) {
	switch v.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.Int, nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return int64(v.Uint), nil
	default:
		return 0, fmt.Errorf("ports: value of kind %d is not an integer", v.Kind)
	}
}

// AsBytes extracts a raw byte sequence.
func (v Value) AsBytes() ([]byte, error) {
	if v.Kind != KindBytes {
		return nil, fmt.Errorf("ports: value of kind %d is not a byte sequence", v.Kind)
	}
	return v.Bytes, nil
}
