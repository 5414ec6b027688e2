package s7type

import (
	"encoding/binary"
	"time"

	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua/ports"
)

// DTLTypeID is the stable OPC UA extension-object type id S7 servers use
// to tag a DTL payload (spec.md §6).
const DTLTypeID = "nsu=http://www.siemens.com/simatic-s7-opcua;s=TE_DTL"

// dtlCodec converts DTL ("date-and-time long"): a 12-byte little-endian
// payload wrapped in an extension object, good to nanosecond precision
// (spec.md §4.1).
//
// Layout: bytes 0-1 year (uint16 LE), byte 2 month, byte 3 day, byte 4
// day-of-week (1=Sun..7=Sat), bytes 5-7 hour/minute/second, bytes 8-11
// nanosecond-of-second (uint32 LE).
type dtlCodec struct {
	log *zap.SugaredLogger
}

func (dtlCodec) TargetType() string { return "date and time" }

func (c dtlCodec) Decode(w ports.Value) (any, error) {
	if w.Null() {
		return nil, nil
	}
	if w.Kind != ports.KindExtensionObject || w.Ext == nil {
		return nil, mismatchDecode(DTL, "DTL extension object", w)
	}
	if w.Ext.TypeID != "" && w.Ext.TypeID != DTLTypeID {
		return nil, mismatchDecode(DTL, "DTL extension object ("+DTLTypeID+")", w)
	}
	b := w.Ext.Body
	if len(b) != 12 {
		return nil, mismatchDecode(DTL, "12-byte DTL payload", w)
	}

	year := int(binary.LittleEndian.Uint16(b[0:2]))
	month := time.Month(b[2])
	day := int(b[3])
	dow := int(b[4])
	hour := int(b[5])
	minute := int(b[6])
	second := int(b[7])
	nanos := int(binary.LittleEndian.Uint32(b[8:12]))

	if c.log != nil && (year < 1970 || year > 2262) {
		c.log.Warnw("DTL year outside expected range", "year", year, "wire", b)
	}
	if dow < 1 || dow > 7 {
		return nil, &BCDError{Byte: b[4], Field: "DTL day-of-week"}
	}

	return time.Date(year, month, day, hour, minute, second, nanos, time.UTC), nil
}

func (c dtlCodec) Encode(h any) (ports.Value, error) {
	if h == nil {
		return ports.NullValue, nil
	}
	t, ok := h.(time.Time)
	if !ok {
		return ports.Value{}, mismatchEncode(DTL, "time.Time", h)
	}
	t = t.UTC()

	if c.log != nil && (t.Year() < 1970 || t.Year() > 2262) {
		c.log.Warnw("DTL year outside expected range", "year", t.Year())
	}

	b := make([]byte, 12)
	binary.LittleEndian.PutUint16(b[0:2], uint16(t.Year()))
	b[2] = byte(t.Month())
	b[3] = byte(t.Day())
	b[4] = byte(sundayOneWeekday(t))
	b[5] = byte(t.Hour())
	b[6] = byte(t.Minute())
	b[7] = byte(t.Second())
	binary.LittleEndian.PutUint32(b[8:12], uint32(t.Nanosecond()))

	return ports.ExtValue(&ports.ExtensionObject{TypeID: DTLTypeID, Body: b}), nil
}
