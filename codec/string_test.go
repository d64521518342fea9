package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/T45K/go-mysql-session/mysql"
)

func TestEncodeStringText(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	p, err := reg.Encode("it's a \\ test\nline", ctx)
	require.NoError(t, err)
	require.Equal(t, mysql.MYSQL_TYPE_VAR_STRING, p.Type())

	var sb strings.Builder
	require.NoError(t, p.WriteText(&sb))
	require.Equal(t, `'it\'s a \\ test\nline'`, sb.String())
}

func TestEncodeStringBinary(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.Encode("abc", NewContext())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))
	// length-encoded string payload
	require.Equal(t, []byte{3, 'a', 'b', 'c'}, buf.Bytes())
}

func TestEncodeBytesHexLiteral(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.Encode([]byte{0xDE, 0xAD}, NewContext())
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, p.WriteText(&sb))
	require.Equal(t, "x'dead'", sb.String())
}

func TestDecodeString(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	f := &mysql.Field{Type: mysql.MYSQL_TYPE_VAR_STRING, Charset: 33}
	v, err := reg.Decode([]byte("hello"), f, TargetString, false, ctx)
	require.NoError(t, err)
	require.Equal(t, "hello", v)

	// BINARY-family columns decode as raw bytes, not strings
	bin := &mysql.Field{Type: mysql.MYSQL_TYPE_VAR_STRING, Charset: uint16(mysql.BINARY_COLLATION_ID)}
	_, err = reg.Decode([]byte{0x01}, bin, TargetString, false, ctx)
	require.ErrorIs(t, cause(err), ErrUnsupportedConversion)

	v, err = reg.Decode([]byte{0x01, 0x02}, bin, TargetBytes, false, ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, v)
}

func TestNullBind(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.Encode(nil, NewContext())
	require.NoError(t, err)
	require.True(t, p.IsNull())

	var sb strings.Builder
	require.NoError(t, p.WriteText(&sb))
	require.Equal(t, "NULL", sb.String())
}

func TestNoCodecForUnknownType(t *testing.T) {
	reg := NewRegistry()

	type odd struct{}
	_, err := reg.Encode(odd{}, NewContext())
	require.ErrorIs(t, cause(err), ErrNoCodec)
}

func TestBoolDecode(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	ctx.TinyIntIsBool = true

	f := &mysql.Field{Type: mysql.MYSQL_TYPE_TINY, ColumnLength: 1}
	v, err := reg.Decode([]byte{0x01}, f, TargetBool, true, ctx)
	require.NoError(t, err)
	require.Equal(t, true, v)

	v, err = reg.Decode([]byte("0"), f, TargetBool, false, ctx)
	require.NoError(t, err)
	require.Equal(t, false, v)

	bit := &mysql.Field{Type: mysql.MYSQL_TYPE_BIT, ColumnLength: 1}
	v, err = reg.Decode([]byte{0x01}, bit, TargetBool, true, ctx)
	require.NoError(t, err)
	require.Equal(t, true, v)
}

func TestDecimalRoundTrip(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	f := &mysql.Field{Type: mysql.MYSQL_TYPE_NEWDECIMAL}

	d := decimal.RequireFromString("-1234.56789")
	p, err := reg.Encode(d, ctx)
	require.NoError(t, err)
	require.Equal(t, mysql.MYSQL_TYPE_NEWDECIMAL, p.Type())

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))

	// DECIMAL stays ASCII on the wire; strip the length prefix
	payload, _, _, err := mysql.LengthEncodedString(buf.Bytes())
	require.NoError(t, err)

	v, err := reg.Decode(payload, f, TargetDecimal, true, ctx)
	require.NoError(t, err)
	require.True(t, d.Equal(v.(decimal.Decimal)))
}

func TestFloatRoundTrip(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	p, err := reg.Encode(float64(3.25), ctx)
	require.NoError(t, err)
	require.Equal(t, mysql.MYSQL_TYPE_DOUBLE, p.Type())

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))

	f := &mysql.Field{Type: mysql.MYSQL_TYPE_DOUBLE}
	v, err := reg.Decode(buf.Bytes(), f, TargetFloat64, true, ctx)
	require.NoError(t, err)
	require.Equal(t, 3.25, v)

	// text mode
	v, err = reg.Decode([]byte("3.25"), f, TargetFloat64, false, ctx)
	require.NoError(t, err)
	require.Equal(t, 3.25, v)

	// float32 narrows
	p32, err := reg.Encode(float32(1.5), ctx)
	require.NoError(t, err)
	require.Equal(t, mysql.MYSQL_TYPE_FLOAT, p32.Type())
}
