package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/T45K/go-mysql-session/mysql"
)

func TestBitSetEncode(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()

	p, err := reg.Encode(BitSet(0x8D567C913B4F61A2), ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))
	require.Equal(t, []byte{0xA2, 0x61, 0x4F, 0x3B, 0x91, 0x7C, 0x56, 0x8D}, buf.Bytes())

	var sb strings.Builder
	require.NoError(t, p.WriteText(&sb))
	require.Equal(t, "10184874622288687010", sb.String())
}

func TestBitSetEncodeEmpty(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.Encode(BitSet(0), NewContext())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteBinary(&buf))
	require.Equal(t, []byte{0x00}, buf.Bytes())
}

func TestBitSetDecode(t *testing.T) {
	reg := NewRegistry()
	ctx := NewContext()
	f := &mysql.Field{Type: mysql.MYSQL_TYPE_BIT, ColumnLength: 64}

	// BIT columns arrive big-endian
	v, err := reg.Decode([]byte{0x8D, 0x56, 0x7C, 0x91, 0x3B, 0x4F, 0x61, 0xA2}, f, TargetBitSet, true, ctx)
	require.NoError(t, err)
	require.Equal(t, BitSet(0x8D567C913B4F61A2), v)

	// bit 0 is the LSB of the last byte
	v, err = reg.Decode([]byte{0x01}, f, TargetBitSet, true, ctx)
	require.NoError(t, err)
	require.True(t, v.(BitSet).Test(0))
	require.False(t, v.(BitSet).Test(1))

	// empty buffer decodes to the empty set
	v, err = reg.Decode([]byte{}, f, TargetBitSet, true, ctx)
	require.NoError(t, err)
	require.True(t, v.(BitSet).IsEmpty())

	// wider than 64 bits cannot be represented
	_, err = BitSetFromBytes(make([]byte, 9))
	require.ErrorIs(t, cause(err), ErrValueOutOfRange)
}

func TestBitSetBytes(t *testing.T) {
	require.Equal(t, []byte{0x00}, BitSet(0).Bytes())
	require.Equal(t, []byte{0x01}, BitSet(1).Bytes())
	require.Equal(t, []byte{0x00, 0x01}, BitSet(0x100).Bytes())
	require.Equal(t, "0", BitSet(0).String())
}
