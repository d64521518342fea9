package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringByteSliceConversions(t *testing.T) {
	require.Equal(t, []byte("hello"), StringToByteSlice("hello"))
	require.Equal(t, "hello", ByteSliceToString([]byte("hello")))
	require.Equal(t, "", ByteSliceToString(nil))
	require.Empty(t, StringToByteSlice(""))
}

func TestBytesBufferPool(t *testing.T) {
	buf := BytesBufferGet()
	buf.WriteString("scratch")
	BytesBufferPut(buf)

	buf = BytesBufferGet()
	require.Equal(t, 0, buf.Len())
	BytesBufferPut(buf)

	// nil is tolerated
	BytesBufferPut(nil)
}
