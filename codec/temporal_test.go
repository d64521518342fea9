package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/T45K/go-mysql-session/mysql"
)

func datetimeField() *mysql.Field {
	return &mysql.Field{Type: mysql.MYSQL_TYPE_DATETIME}
}

func TestEncodeBinaryDateTime(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	v := time.Date(2021, 5, 3, 15, 2, 7, 123456000, time.UTC)
	p, err := reg.Encode(v, ctx)
	require.NoError(t, err)
	require.Equal(t, mysql.MYSQL_TYPE_TIMESTAMP, p.Type())

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))
	require.Equal(t, []byte{
		0x0B, 0xE5, 0x07, 0x05, 0x03, 0x0F, 0x02, 0x07, 0x40, 0xE2, 0x01, 0x00,
	}, buf.Bytes())
}

func TestEncodeDateTimeShortForms(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	// no sub-second part selects the 7-byte layout
	p, err := reg.Encode(time.Date(2021, 5, 3, 15, 2, 7, 0, time.UTC), ctx)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))
	require.Equal(t, byte(7), buf.Bytes()[0])

	// midnight selects the 4-byte layout
	p, err = reg.Encode(time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC), ctx)
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, p.WriteBinary(&buf))
	require.Equal(t, []byte{4, 0xE5, 0x07, 0x05, 0x03}, buf.Bytes())
}

func TestDecodeBinaryDateTime(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	payload := []byte{0xE5, 0x07, 0x05, 0x03, 0x0F, 0x02, 0x07, 0x40, 0xE2, 0x01, 0x00}
	v, err := reg.Decode(payload, datetimeField(), TargetTime, true, ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 5, 3, 15, 2, 7, 123456000, time.UTC), v)

	// 4-byte form carries only the date
	v, err = reg.Decode(payload[:4], datetimeField(), TargetTime, true, ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC), v)

	// zero-length payload is the zero date; the default policy decodes it to
	// the null marker
	v, err = reg.Decode([]byte{}, datetimeField(), TargetTime, true, ctx)
	require.NoError(t, err)
	require.Nil(t, v)

	// odd length is protocol corruption
	_, err = reg.Decode(payload[:5], datetimeField(), TargetTime, true, ctx)
	require.ErrorIs(t, cause(err), ErrProtocolCorrupt)
}

func TestDecodeTextDateTime(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	v, err := reg.Decode([]byte("2021-05-03 15:02:07.123456"), datetimeField(), TargetTime, false, ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 5, 3, 15, 2, 7, 123456000, time.UTC), v)

	// trailing zeros of the fraction may be dropped
	v, err = reg.Decode([]byte("2021-05-03 15:02:07.5"), datetimeField(), TargetTime, false, ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 5, 3, 15, 2, 7, 500000000, time.UTC), v)

	v, err = reg.Decode([]byte("2021-05-03"), &mysql.Field{Type: mysql.MYSQL_TYPE_DATE}, TargetTime, false, ctx)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 5, 3, 0, 0, 0, 0, time.UTC), v)

	// zero date decodes to the null marker by default
	v, err = reg.Decode([]byte("0000-00-00 00:00:00"), datetimeField(), TargetTime, false, ctx)
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = reg.Decode([]byte("garbage"), datetimeField(), TargetTime, false, ctx)
	require.ErrorIs(t, cause(err), ErrDecodeSyntax)
}

func TestZeroDatePolicyError(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	ctx.ZeroDate = ZeroDateError

	_, err := reg.Decode([]byte("0000-00-00"), datetimeField(), TargetTime, false, ctx)
	require.ErrorIs(t, cause(err), ErrZeroDate)
}

func TestServerZoneAttachment(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	ctx.ServerZone = time.FixedZone("+08:00", 8*3600)

	v, err := reg.Decode([]byte("2021-05-03 15:02:07"), datetimeField(), TargetTime, false, ctx)
	require.NoError(t, err)

	got := v.(time.Time)
	require.Equal(t, "+08:00", got.Location().String())

	// encoding converts to the server zone keeping the instant
	utc := time.Date(2021, 5, 3, 7, 2, 7, 0, time.UTC)
	p, err := reg.Encode(utc, ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))
	// 07:02:07 UTC is 15:02:07 at +08:00
	require.Equal(t, []byte{7, 0xE5, 0x07, 0x05, 0x03, 0x0F, 0x02, 0x07}, buf.Bytes())
}

func TestPreserveInstants(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	ctx.ServerZone = time.FixedZone("+08:00", 8*3600)
	ctx.ClientZone = time.UTC
	ctx.PreserveInstants = true

	v, err := reg.Decode([]byte("2021-05-03 15:02:07"), datetimeField(), TargetTime, false, ctx)
	require.NoError(t, err)

	got := v.(time.Time)
	require.Equal(t, time.UTC, got.Location())
	require.Equal(t, time.Date(2021, 5, 3, 7, 2, 7, 0, time.UTC), got)
}

func TestDurationRoundTrip(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	f := &mysql.Field{Type: mysql.MYSQL_TYPE_TIME}

	for _, d := range []time.Duration{
		0,
		90*time.Minute + 30*time.Second,
		-(26*time.Hour + 3*time.Minute),
		49*time.Hour + 123456*time.Microsecond,
	} {
		p, err := reg.Encode(d, ctx)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, p.WriteBinary(&buf))

		// strip the length prefix the execute packet carries
		payload := buf.Bytes()[1:]
		got, err := reg.Decode(payload, f, TargetDuration, true, ctx)
		require.NoError(t, err)
		require.Equal(t, d, got, "duration %s", d)
	}
}

func TestDecodeTextDuration(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	f := &mysql.Field{Type: mysql.MYSQL_TYPE_TIME}

	v, err := reg.Decode([]byte("838:59:59"), f, TargetDuration, false, ctx)
	require.NoError(t, err)
	require.Equal(t, 838*time.Hour+59*time.Minute+59*time.Second, v)

	v, err = reg.Decode([]byte("-01:02:03.5"), f, TargetDuration, false, ctx)
	require.NoError(t, err)
	require.Equal(t, -(time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond), v)
}

func TestDurationText(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.Encode(-(26*time.Hour + 3*time.Minute), NewContext())
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, p.WriteText(&sb))
	require.Equal(t, "'-26:03:00'", sb.String())
}

func TestYearDecode(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	f := &mysql.Field{Type: mysql.MYSQL_TYPE_YEAR, Flag: mysql.UNSIGNED_FLAG}

	v, err := reg.Decode([]byte{0xE5, 0x07}, f, TargetYear, true, ctx)
	require.NoError(t, err)
	require.Equal(t, int16(2021), v)

	v, err = reg.Decode([]byte("2021"), f, TargetYear, false, ctx)
	require.NoError(t, err)
	require.Equal(t, int16(2021), v)
}

func TestParameterReuse(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.Encode(int64(7), NewContext())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))
	require.ErrorIs(t, cause(p.WriteBinary(&buf)), ErrParameterReused)

	// the text channel is tracked separately
	var sb strings.Builder
	require.NoError(t, p.WriteText(&sb))
	require.ErrorIs(t, cause(p.WriteText(&sb)), ErrParameterReused)
}

func TestParameterEquality(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	a, err := reg.Encode(int64(7), ctx)
	require.NoError(t, err)
	b, err := reg.Encode(int64(7), ctx)
	require.NoError(t, err)
	c, err := reg.Encode(int64(8), ctx)
	require.NoError(t, err)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))

	// equality is by (type, payload): a bool true and an integer 1 both
	// collapse to the same TINYINT bind
	d, err := reg.Encode(true, ctx)
	require.NoError(t, err)
	one, err := reg.Encode(int64(1), ctx)
	require.NoError(t, err)
	require.True(t, d.Equal(one))
}
