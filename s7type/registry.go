package s7type

import (
	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua/ports"
)

// passthroughCodec is the default codec for UNKNOWN: values flow through
// unchanged until a caller re-types the variable (spec.md §4.1).
type passthroughCodec struct{}

func (passthroughCodec) TargetType() string { return "wire value" }
func (passthroughCodec) Decode(w ports.Value) (any, error) { return w, nil }
func (passthroughCodec) Encode(h any) (ports.Value, error) {
	if v, ok := h.(ports.Value); ok {
		return v, nil
	}
	return ports.Value{}, mismatchEncode(UNKNOWN, "ports.Value", h)
}

// Registry is the closed mapping from S7Type to its bidirectional Codec
// (spec.md §4.1). It is built once at construction and is safe for
// concurrent read-only use by every caller that shares it.
type Registry struct {
	scalars map[S7Type]Codec
	arrays  map[S7Type]Codec
	pass    Codec
}

// NewRegistry builds the full scalar codec table. log may be nil; when
// set, codecs that validate a year range log a warning instead of failing
// (spec.md §4.1: "Year outside ... is a warning, not an error").
func NewRegistry(log *zap.SugaredLogger) *Registry {
	scalars := map[S7Type]Codec{
		BOOL:          newBoolCodec(),
		BYTE:          newByteCodec(),
		WORD:          newWordCodec(),
		DWORD:         newDWordCodec(),
		CHAR:          charCodec{},
		WCHAR:         wcharCodec{},
		INT:           newIntCodec(),
		DINT:          newDIntCodec(),
		LINT:          newLIntCodec(),
		USINT:         newUSIntCodec(),
		UINT:          newUIntCodec(),
		UDINT:         newUDIntCodec(),
		ULINT:         newULIntCodec(),
		REAL:          newRealCodec(),
		LREAL:         newLRealCodec(),
		DATE:          dateCodec{},
		TIME_OF_DAY:   timeOfDayCodec{},
		LTIME_OF_DAY:  ltimeOfDayCodec{},
		TIME:          timeCodec{},
		LTIME:         ltimeCodec{},
		S5TIME:        s5TimeCodec{},
		DATE_AND_TIME: dateAndTimeCodec{log: log},
		DTL:           dtlCodec{log: log},
		COUNTER:       counterCodec{},
		UNKNOWN:       passthroughCodec{},
	}

	arrays := make(map[S7Type]Codec, len(scalars))
	for t, c := range scalars {
		arrays[t] = NewArrayCodec(c)
	}

	return &Registry{scalars: scalars, arrays: arrays, pass: passthroughCodec{}}
}

// For resolves the scalar codec for an S7Type, falling back to the
// pass-through codec for UNKNOWN or any type this registry has no entry
// for (spec.md §4.1: "A selector function returns the pass-through codec
// for unknown types").
func (r *Registry) For(t S7Type) Codec {
	if c, ok := r.scalars[t]; ok {
		return c
	}
	return r.pass
}

// ForArray resolves the array/matrix-lifted codec for an S7Type, used
// when a Variable's declared shape is an array or matrix rather than a
// scalar.
func (r *Registry) ForArray(t S7Type) Codec {
	if c, ok := r.arrays[t]; ok {
		return c
	}
	return NewArrayCodec(r.pass)
}
