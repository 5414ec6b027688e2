package s7type

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s7ua-go/s7ua/ports"
)

func TestDateAndTimeDecode(t *testing.T) {
	// spec scenario 1: 0x24 0x05 0x21 0x13 0x45 0x30 0x12 0x33 -> 2024-05-21 13:45:30.123
	reg := NewRegistry(nil)
	c := reg.For(DATE_AND_TIME)

	got, err := c.Decode(ports.BytesValue([]byte{0x24, 0x05, 0x21, 0x13, 0x45, 0x30, 0x12, 0x33}))
	require.NoError(t, err)

	want := time.Date(2024, time.May, 21, 13, 45, 30, 123*int(time.Millisecond), time.UTC)
	assert.True(t, want.Equal(got.(time.Time)))
}

func TestDateAndTimeRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(DATE_AND_TIME)

	want := time.Date(2031, time.December, 2, 23, 59, 1, 456*int(time.Millisecond), time.UTC)
	wire, err := c.Encode(want)
	require.NoError(t, err)

	got, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, want.Equal(got.(time.Time)))
}

func TestLTimeOfDayDecode(t *testing.T) {
	// spec scenario 2: nanoseconds 37230123456700 -> 10:20:30.1234567
	reg := NewRegistry(nil)
	c := reg.For(LTIME_OF_DAY)

	got, err := c.Decode(ports.Uint64Value(37230123456700))
	require.NoError(t, err)

	want := 10*time.Hour + 20*time.Minute + 30*time.Second + 123456700*time.Nanosecond
	assert.Equal(t, want, got.(time.Duration))
}

func TestS5TimeEncode(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(S5TIME)

	cases := []struct {
		name string
		in   time.Duration
		want uint16
	}{
		{"45600ms exact 100ms base", 45600 * time.Millisecond, 0x1456},
		{"12345ms rounds to 10s base", 12345 * time.Millisecond, 0x3001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wire, err := c.Encode(tc.in)
			require.NoError(t, err)
			u, err := wire.AsUint64()
			require.NoError(t, err)
			assert.Equal(t, tc.want, uint16(u))
		})
	}
}

func TestCounterEncode(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(COUNTER)

	wire, err := c.Encode(999)
	require.NoError(t, err)
	u, err := wire.AsUint64()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0999), uint16(u))

	_, err = c.Encode(1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCounterDecodeRejectsBadNibble(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(COUNTER)

	_, err := c.Decode(ports.Uint16Value(0x0ffa))
	require.Error(t, err)
	var bcdErr *BCDError
	assert.ErrorAs(t, err, &bcdErr)
}

func TestDTLRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(DTL)

	want := time.Date(2024, time.May, 21, 13, 45, 30, 123456789, time.UTC)
	wire, err := c.Encode(want)
	require.NoError(t, err)
	require.Equal(t, ports.KindExtensionObject, wire.Kind)
	require.Equal(t, DTLTypeID, wire.Ext.TypeID)
	require.Len(t, wire.Ext.Body, 12)
	assert.EqualValues(t, 3, wire.Ext.Body[4]) // Tuesday => Sunday=1 mapping

	got, err := c.Decode(wire)
	require.NoError(t, err)
	assert.True(t, want.Equal(got.(time.Time)))
}

func TestDTLRejectsWrongTypeID(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(DTL)

	_, err := c.Decode(ports.ExtValue(&ports.ExtensionObject{TypeID: "nsu=bogus", Body: make([]byte, 12)}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestArrayCodecRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.ForArray(INT)

	in := []any{int16(1), int16(2), int16(3)}
	wire, err := c.Encode(in)
	require.NoError(t, err)
	require.Equal(t, ports.KindArray, wire.Kind)
	require.Len(t, wire.Array, 3)

	got, err := c.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, []any{int16(1), int16(2), int16(3)}, got)
}

func TestArrayCodecEmptyEncodesNull(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.ForArray(INT)

	wire, err := c.Encode([]any{})
	require.NoError(t, err)
	assert.True(t, wire.Null())
}

func TestMatrixCodecRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	matrixCodec := reg.ForArray(INT)

	rows := [][]any{
		{int16(1), int16(2)},
		{int16(3), int16(4)},
	}
	wire, err := matrixCodec.Encode(rows)
	require.NoError(t, err)
	require.Equal(t, ports.KindMatrix, wire.Kind)
	require.Equal(t, []int{2, 2}, wire.Mat.Dims)

	got, err := matrixCodec.Decode(wire)
	require.NoError(t, err)
	out, ok := got.([][]any)
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, []any{int16(1), int16(2)}, out[0])
	assert.Equal(t, []any{int16(3), int16(4)}, out[1])
}

func TestUnknownResolvesPassthrough(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(UNKNOWN)

	in := ports.Uint32Value(42)
	got, err := c.Decode(in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestBoolRoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(BOOL)

	wire, err := c.Encode(true)
	require.NoError(t, err)
	got, err := c.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}

func TestRealEncodeTypeMismatch(t *testing.T) {
	reg := NewRegistry(nil)
	c := reg.For(REAL)

	_, err := c.Encode("not a float")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
