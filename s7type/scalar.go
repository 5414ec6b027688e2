package s7type

import (
	"time"

	"github.com/s7ua-go/s7ua/ports"
)

// epoch1990 is the S7 DATE zero point.
var epoch1990 = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// --- CHAR / WCHAR -----------------------------------------------------

// charCodec converts CHAR: an unsigned 8-bit wire value to an 8-bit code
// point. Identity conversion; encode accepts both byte and uint8 host
// values per the contract table.
type charCodec struct{}

func (charCodec) TargetType() string { return "8-bit code point" }

func (charCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	u, err := w.AsUint64()
	if err != nil || u > 0xff {
		return nil, &TypeMismatchError{S7Type: CHAR, Expected: "unsigned 8-bit", Wire: &w}
	}
	return byte(u), nil
}

func (charCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	switch v := h.(type) {
	case byte:
		return ports.Uint8Value(v), nil
	case rune:
		if v < 0 || v > 0xff {
			return ports.Value{}, &OutOfRangeError{S7Type: CHAR, Value: h, Reason: "outside 8-bit range"}
		}
		return ports.Uint8Value(byte(v)), nil
	case int:
		if v < 0 || v > 0xff {
			return ports.Value{}, &OutOfRangeError{S7Type: CHAR, Value: h, Reason: "outside 8-bit range"}
		}
		return ports.Uint8Value(byte(v)), nil
	default:
		return ports.Value{}, &TypeMismatchError{S7Type: CHAR, Expected: "byte-like host value", Host: h}
	}
}

// wcharCodec converts WCHAR: an unsigned 16-bit wire value to a 16-bit
// code point. Identity conversion.
type wcharCodec struct{}

func (wcharCodec) TargetType() string { return "16-bit code point" }

func (wcharCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	u, err := w.AsUint64()
	if err != nil || u > 0xffff {
		return nil, &TypeMismatchError{S7Type: WCHAR, Expected: "unsigned 16-bit", Wire: &w}
	}
	return uint16(u), nil
}

func (wcharCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	switch v := h.(type) {
	case uint16:
		return ports.Uint16Value(v), nil
	case rune:
		if v < 0 || v > 0xffff {
			return ports.Value{}, &OutOfRangeError{S7Type: WCHAR, Value: h, Reason: "outside 16-bit range"}
		}
		return ports.Uint16Value(uint16(v)), nil
	default:
		return ports.Value{}, &TypeMismatchError{S7Type: WCHAR, Expected: "uint16-like host value", Host: h}
	}
}

// --- DATE --------------------------------------------------------------

// dateCodec converts DATE: an unsigned 16-bit day count since 1990-01-01
// to a calendar date. Dates before 1990-01-01 or after 2099-12-31 are
// rejected in both directions.
type dateCodec struct{}

func (dateCodec) TargetType() string { return "calendar date" }

func (dateCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	u, err := w.AsUint64()
	if err != nil || u > 0xffff {
		return nil, &TypeMismatchError{S7Type: DATE, Expected: "unsigned 16-bit", Wire: &w}
	}
	t := epoch1990.AddDate(0, 0, int(u))
	if t.Year() < 1990 || t.Year() > 2099 {
		return nil, &OutOfRangeError{S7Type: DATE, Value: u, Reason: "decoded date outside [1990-01-01, 2099-12-31]"}
	}
	return t, nil
}

func (dateCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	t, ok := h.(time.Time)
	if !ok {
		return ports.Value{}, &TypeMismatchError{S7Type: DATE, Expected: "time.Time", Host: h}
	}
	lo := time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)
	hi := time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)
	if t.Before(lo) || t.After(hi) {
		return ports.Value{}, &OutOfRangeError{S7Type: DATE, Value: h, Reason: "outside [1990-01-01, 2099-12-31]"}
	}
	days := int(t.UTC().Sub(epoch1990).Hours() / 24)
	if days < 0 || days > 0xffff {
		return ports.Value{}, &OutOfRangeError{S7Type: DATE, Value: h, Reason: "day count overflows 16 bits"}
	}
	return ports.Uint16Value(uint16(days)), nil
}

// --- TIME_OF_DAY / LTIME_OF_DAY -----------------------------------------

// timeOfDayCodec converts TIME_OF_DAY: an unsigned 32-bit millisecond
// count since midnight to a duration. Negative or >= 24h is rejected.
type timeOfDayCodec struct{}

func (timeOfDayCodec) TargetType() string { return "duration since midnight (ms)" }

const dayMillis = 24 * 60 * 60 * 1000

func (timeOfDayCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	u, err := w.AsUint64()
	if err != nil || u > 0xffffffff {
		return nil, &TypeMismatchError{S7Type: TIME_OF_DAY, Expected: "unsigned 32-bit", Wire: &w}
	}
	if u >= dayMillis {
		return nil, &OutOfRangeError{S7Type: TIME_OF_DAY, Value: u, Reason: "must be < 24h"}
	}
	return time.Duration(u) * time.Millisecond, nil
}

func (timeOfDayCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	d, ok := h.(time.Duration)
	if !ok {
		return ports.Value{}, &TypeMismatchError{S7Type: TIME_OF_DAY, Expected: "time.Duration", Host: h}
	}
	if d < 0 || d >= dayMillis*time.Millisecond {
		return ports.Value{}, &OutOfRangeError{S7Type: TIME_OF_DAY, Value: h, Reason: "must be in [0, 24h)"}
	}
	return ports.Uint32Value(uint32(d / time.Millisecond)), nil
}

// ltimeOfDayCodec converts LTIME_OF_DAY: an unsigned 64-bit nanosecond
// count since midnight to a duration.
type ltimeOfDayCodec struct{}

func (ltimeOfDayCodec) TargetType() string { return "duration since midnight (ns)" }

const dayNanos = int64(24 * time.Hour)

func (ltimeOfDayCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	u, err := w.AsUint64()
	if err != nil {
		return nil, &TypeMismatchError{S7Type: LTIME_OF_DAY, Expected: "unsigned 64-bit", Wire: &w}
	}
	if u >= uint64(dayNanos) {
		return nil, &OutOfRangeError{S7Type: LTIME_OF_DAY, Value: u, Reason: "must be < 24h"}
	}
	return time.Duration(u), nil
}

func (ltimeOfDayCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	d, ok := h.(time.Duration)
	if !ok {
		return ports.Value{}, &TypeMismatchError{S7Type: LTIME_OF_DAY, Expected: "time.Duration", Host: h}
	}
	if d < 0 || int64(d) >= dayNanos {
		return ports.Value{}, &OutOfRangeError{S7Type: LTIME_OF_DAY, Value: h, Reason: "must be in [0, 24h)"}
	}
	return ports.Uint64Value(uint64(d)), nil
}

// --- TIME / LTIME --------------------------------------------------------

// timeCodec converts TIME: a signed 32-bit millisecond duration.
type timeCodec struct{}

func (timeCodec) TargetType() string { return "signed duration (ms)" }

func (timeCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	i, err := w.AsInt64()
	if err != nil || i < -(1<<31) || i > (1<<31-1) {
		return nil, &TypeMismatchError{S7Type: TIME, Expected: "signed 32-bit", Wire: &w}
	}
	return time.Duration(i) * time.Millisecond, nil
}

func (timeCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	d, ok := h.(time.Duration)
	if !ok {
		return ports.Value{}, &TypeMismatchError{S7Type: TIME, Expected: "time.Duration", Host: h}
	}
	ms := d / time.Millisecond
	if ms < -(1<<31) || ms > (1<<31-1) {
		return ports.Value{}, &OutOfRangeError{S7Type: TIME, Value: h, Reason: "overflows signed 32-bit milliseconds"}
	}
	return ports.Int32Value(int32(ms)), nil
}

// ltimeCodec converts LTIME: a signed 64-bit nanosecond duration.
type ltimeCodec struct{}

func (ltimeCodec) TargetType() string { return "signed duration (ns)" }

func (ltimeCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	i, err := w.AsInt64()
	if err != nil {
		return nil, &TypeMismatchError{S7Type: LTIME, Expected: "signed 64-bit", Wire: &w}
	}
	return time.Duration(i), nil
}

func (ltimeCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	d, ok := h.(time.Duration)
	if !ok {
		return ports.Value{}, &TypeMismatchError{S7Type: LTIME, Expected: "time.Duration", Host: h}
	}
	return ports.Int64Value(int64(d)), nil
}

// --- S5TIME --------------------------------------------------------------

// s5TimeCodec converts S5TIME: a 2-bit base code plus a 3-digit BCD
// magnitude packed into an unsigned 16-bit word (spec.md §4.1).
type s5TimeCodec struct{}

func (s5TimeCodec) TargetType() string { return "duration (S5TIME)" }

// s5 time bases, in ascending granularity order, matched against the
// 2-bit base code stored in the top bits of the wire word.
var s5Bases = [4]time.Duration{
	0: 10 * time.Millisecond,
	1: 100 * time.Millisecond,
	2: 1 * time.Second,
	3: 10 * time.Second,
}

func (s5TimeCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	u, err := w.AsUint64()
	if err != nil || u > 0xffff {
		return nil, &TypeMismatchError{S7Type: S5TIME, Expected: "unsigned 16-bit", Wire: &w}
	}
	word := uint16(u)
	base := s5Bases[(word>>12)&0x3]
	magnitude, err := decodeBCD12(word, "S5TIME")
	if err != nil {
		return nil, err
	}
	return time.Duration(magnitude) * base, nil
}

const maxS5Time = 9990 * time.Second

func (s5TimeCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	d, ok := h.(time.Duration)
	if !ok {
		return ports.Value{}, &TypeMismatchError{S7Type: S5TIME, Expected: "time.Duration", Host: h}
	}
	if d < 0 || d > maxS5Time {
		return ports.Value{}, &OutOfRangeError{S7Type: S5TIME, Value: h, Reason: "must be in [0s, 9990s]"}
	}

	// pick the smallest base that represents the value without loss
	for code := 0; code < 3; code++ {
		base := s5Bases[code]
		if d%base == 0 && d/base <= 999 {
			word := uint16(code)<<12 | encodeBCD12(int(d/base))
			return ports.Uint16Value(word), nil
		}
	}
	// beyond exact representation: 10s base, round to nearest
	units := int((d + s5Bases[3]/2) / s5Bases[3])
	if units > 999 {
		units = 999
	}
	word := uint16(3)<<12 | encodeBCD12(units)
	return ports.Uint16Value(word), nil
}

// --- COUNTER ---------------------------------------------------------------

// counterCodec converts COUNTER: a 3-digit BCD magnitude (0-999) packed
// into the low 12 bits of an unsigned 16-bit word; the upper 4 bits are
// ignored on decode.
type counterCodec struct{}

func (counterCodec) TargetType() string { return "uint16" }

func (counterCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	u, err := w.AsUint64()
	if err != nil || u > 0xffff {
		return nil, &TypeMismatchError{S7Type: COUNTER, Expected: "unsigned 16-bit", Wire: &w}
	}
	v, err := decodeBCD12(uint16(u), "COUNTER")
	if err != nil {
		return nil, err
	}
	return uint16(v), nil
}

func (counterCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	v, ok := asInt(h)
	if !ok {
		return ports.Value{}, &TypeMismatchError{S7Type: COUNTER, Expected: "integer", Host: h}
	}
	if v < 0 || v > 999 {
		return ports.Value{}, &OutOfRangeError{S7Type: COUNTER, Value: h, Reason: "must be in [0, 999]"}
	}
	return ports.Uint16Value(encodeBCD12(v)), nil
}

// asInt narrows common host integer types to int for range checking.
func asInt(h any) (int, bool) {
	switch v := h.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}

