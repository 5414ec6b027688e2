package s7type

import (
	"time"

	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua/ports"
)

// dateAndTimeCodec converts DATE_AND_TIME: an 8-byte BCD timestamp to a
// calendar moment with millisecond precision (spec.md §4.1, scenario 1).
//
// Layout: byte 0 year (BCD, <90 => +2000 else +1900), bytes 1-5
// month/day/hour/minute/second (BCD), byte 6 hundreds+tens of
// milliseconds (BCD), byte 7 high nibble ones-of-ms, low nibble
// ISO-day-of-week+1.
type dateAndTimeCodec struct {
	log *zap.SugaredLogger
}

func (dateAndTimeCodec) TargetType() string { return "date and time" }

func (c dateAndTimeCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	b, err := w.AsBytes()
	if err != nil || len(b) != 8 {
		return nil, mismatchDecode(DATE_AND_TIME, "8-byte BCD", w)
	}

	yy, err := decodeDigitPair(b[0], "DATE_AND_TIME year")
	if err != nil {
		return nil, err
	}
	month, err := decodeDigitPair(b[1], "DATE_AND_TIME month")
	if err != nil {
		return nil, err
	}
	day, err := decodeDigitPair(b[2], "DATE_AND_TIME day")
	if err != nil {
		return nil, err
	}
	hour, err := decodeDigitPair(b[3], "DATE_AND_TIME hour")
	if err != nil {
		return nil, err
	}
	minute, err := decodeDigitPair(b[4], "DATE_AND_TIME minute")
	if err != nil {
		return nil, err
	}
	second, err := decodeDigitPair(b[5], "DATE_AND_TIME second")
	if err != nil {
		return nil, err
	}
	msHiTens, err := decodeDigitPair(b[6], "DATE_AND_TIME millisecond")
	if err != nil {
		return nil, err
	}
	msOnes, dow, err := decodeByte7(b[7])
	if err != nil {
		return nil, err
	}

	year := 1900 + yy
	if yy < 90 {
		year = 2000 + yy
	}
	if c.log != nil && (year < 1990 || year > 2089) {
		c.log.Warnw("DATE_AND_TIME year outside expected range", "year", year, "wire", b)
	}

	millis := msHiTens*10 + msOnes
	t := time.Date(year, time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), time.UTC)

	// dow is ISO weekday+1 from the wire; validated but not otherwise
	// consulted, since time.Date already derives the weekday.
	_ = dow
	return t, nil
}

func (c dateAndTimeCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	t, ok := h.(time.Time)
	if !ok {
		return ports.Value{}, mismatchEncode(DATE_AND_TIME, "time.Time", h)
	}
	t = t.UTC()

	yy := t.Year() % 100
	if c.log != nil && (t.Year() < 1990 || t.Year() > 2089) {
		c.log.Warnw("DATE_AND_TIME year outside expected range", "year", t.Year())
	}

	ms := t.Nanosecond() / int(time.Millisecond)
	dow := sundayOneWeekday(t)

	b := make([]byte, 8)
	b[0] = encodeDigitPair(yy)
	b[1] = encodeDigitPair(int(t.Month()))
	b[2] = encodeDigitPair(t.Day())
	b[3] = encodeDigitPair(t.Hour())
	b[4] = encodeDigitPair(t.Minute())
	b[5] = encodeDigitPair(t.Second())
	b[6] = encodeDigitPair(ms / 10)
	b[7] = byte(ms%10)<<4 | byte(dow)
	return ports.BytesValue(b), nil
}

// sundayOneWeekday implements the spec's redesigned day-of-week mapping
// (spec.md §9): Sunday = 1 .. Saturday = 7, shared by DATE_AND_TIME's byte 7
// low nibble and DTL's byte 4. Go's time.Weekday already runs Sunday = 0 ..
// Saturday = 6, so the wire value is just one more than that.
func sundayOneWeekday(t time.Time) int {
	return int(t.Weekday()) + 1
}

// decodeDigitPair reads a two-decimal-digit BCD byte as a single integer
// (e.g. 0x24 -> 24), rejecting nibbles > 9.
func decodeDigitPair(b byte, field string) (int, error) {
	tens, ones, err := decodeBCDByte(b, field)
	if err != nil {
		return 0, err
	}
	return tens*10 + ones, nil
}

func encodeDigitPair(v int) byte {
	return encodeBCDByte(v/10, v%10)
}

// decodeByte7 splits DATE_AND_TIME's final byte into the ones-of-ms digit
// (high nibble) and the ISO-day-of-week+1 value (low nibble).
func decodeByte7(b byte) (msOnes, dow int, err error) {
	hi, lo, err := decodeBCDByte(b, "DATE_AND_TIME day-of-week/ms")
	if err != nil {
		return 0, 0, err
	}
	return hi, lo, nil
}
