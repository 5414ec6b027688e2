package s7type

import (
	"github.com/s7ua-go/s7ua/ports"
)

// arrayCodec lifts an inner element Codec to operate on an ordered
// one-dimensional sequence of the element's host type, or on a row-major
// two-dimensional matrix of the same element type (spec.md §4.1,
// "Composite: element-wise array converter"). The inner codec always
// converts one scalar element; arrayCodec itself decides array vs matrix
// shape from the wire Kind (decode) or the host Go type (encode).
type arrayCodec struct {
	inner Codec
}

// NewArrayCodec wraps an element codec so it decodes/encodes arrays
// ([]any) and row-major matrices ([][]any) of that element instead of
// single scalars.
func NewArrayCodec(inner Codec) Codec {
	return arrayCodec{inner: inner}
}

func (c arrayCodec) TargetType() string {
	return "ordered sequence of " + c.inner.TargetType()
}

func (c arrayCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}

	switch w.Kind {
	case ports.KindArray:
		out := make([]any, len(w.Array))
		for i, elem := range w.Array {
			v, err := c.inner.Decode(elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case ports.KindMatrix:
		if w.Mat == nil || len(w.Mat.Dims) != 2 {
			return nil, mismatchDecode(STRUCT, "2-D matrix", w)
		}
		rows, cols := w.Mat.Dims[0], w.Mat.Dims[1]
		if rows*cols != len(w.Mat.Flat) {
			return nil, mismatchDecode(STRUCT, "row-major matrix matching its dimensions", w)
		}
		out := make([][]any, rows)
		for r := 0; r < rows; r++ {
			row := make([]any, cols)
			for col := 0; col < cols; col++ {
				v, err := c.inner.Decode(w.Mat.Flat[r*cols+col])
				if err != nil {
					return nil, err
				}
				row[col] = v
			}
			out[r] = row
		}
		return out, nil

	default:
		return nil, mismatchDecode(STRUCT, "array or matrix", w)
	}
}

func (c arrayCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}

	switch seq := h.(type) {
	case []any:
		if len(seq) == 0 {
			return ports.NullValue, nil
		}
		elems := make([]ports.Value, len(seq))
		for i, h := range seq {
			v, err := c.inner.Encode(h)
			if err != nil {
				return ports.Value{}, err
			}
			elems[i] = v
		}
		return ports.ArrayValue(elems), nil

	case [][]any:
		if len(seq) == 0 {
			return ports.NullValue, nil
		}
		return c.encodeMatrix(seq)

	default:
		return ports.Value{}, mismatchEncode(STRUCT, "ordered sequence", h)
	}
}

// encodeMatrix flattens row-major rows into a Matrix, applying the inner
// scalar codec to every element and requiring every row share one length.
func (c arrayCodec) encodeMatrix(rows [][]any) (ports.Value, error) {
	innerLen := len(rows[0])
	var flat []ports.Value
	for _, row := range rows {
		if len(row) != innerLen {
			return ports.Value{}, &OutOfRangeError{S7Type: STRUCT, Value: row, Reason: "matrix rows must share a common length"}
		}
		for _, h := range row {
			v, err := c.inner.Encode(h)
			if err != nil {
				return ports.Value{}, err
			}
			flat = append(flat, v)
		}
	}
	return ports.MatrixValue(&ports.Matrix{Dims: []int{len(rows), innerLen}, Flat: flat}), nil
}
