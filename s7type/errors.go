package s7type

import (
	"errors"
	"fmt"

	"github.com/s7ua-go/s7ua/ports"
)

// ErrTypeMismatch is the sentinel behind every TypeMismatchError, so
// callers can test with errors.Is without depending on the concrete type.
var ErrTypeMismatch = errors.New("s7type: wire value shape mismatch")

// ErrOutOfRange is the sentinel behind every OutOfRangeError.
var ErrOutOfRange = errors.New("s7type: value out of range for wire encoding")

// TypeMismatchError reports that a wire value's shape (decode) or a host
// value's Go type (encode) does not match what an S7Type's codec
// expected, carrying enough context to diagnose without re-reading the
// PLC (spec.md §7, kind 3). Exactly one of Wire or Host is set.
type TypeMismatchError struct {
	S7Type   S7Type
	Expected string
	Wire     *ports.Value // set on decode mismatches
	Host     any          // set on encode mismatches
}

func (e *TypeMismatchError) Error() string {
	if e.Wire != nil {
		return fmt.Sprintf("s7type: %s: expected %s, got wire kind %d", e.S7Type, e.Expected, e.Wire.Kind)
	}
	return fmt.Sprintf("s7type: %s: expected %s, got host value of type %T", e.S7Type, e.Expected, e.Host)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// OutOfRangeError reports that a host value cannot be represented in the
// target wire encoding (spec.md §7, kind 4): S5TIME, DATE, COUNTER and
// similar bounded encodings.
type OutOfRangeError struct {
	S7Type S7Type
	Value  any
	Reason string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("s7type: %s: value %v out of range: %s", e.S7Type, e.Value, e.Reason)
}

func (e *OutOfRangeError) Unwrap() error { return ErrOutOfRange }

// BCDError reports an invalid nibble (>9) encountered while decoding a
// binary-coded-decimal field. No panic: every BCD-using codec returns
// this instead (spec.md §8 invariant).
type BCDError struct {
	Byte  byte
	Field string
}

func (e *BCDError) Error() string {
	return fmt.Sprintf("s7type: invalid BCD nibble in byte 0x%02x (%s)", e.Byte, e.Field)
}
