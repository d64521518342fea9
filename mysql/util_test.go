package mysql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"db", "`db`"},
		{"some table", "`some table`"},
		{"with`tick", "`with``tick`"},
		{"``", "`" + "````" + "`"},
	}

	for _, cs := range cases {
		require.Equal(t, cs.want, QuoteIdentifier(cs.in), "input %q", cs.in)
	}
}

func TestQuoteIdentifierRoundTrip(t *testing.T) {
	for _, s := range []string{"a", "some table", "with`tick", "``", "posix/UTC", ""} {
		require.Equal(t, s, UnquoteIdentifier(QuoteIdentifier(s)), "input %q", s)
	}
}

func TestLengthEncodedIntRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 250, 251, 0xffff, 0x10000, 0xffffff, 0x1000000, 1 << 40, 1<<64 - 1} {
		b := PutLengthEncodedInt(v)
		got, isNull, n := LengthEncodedInt(b)
		require.False(t, isNull)
		require.Equal(t, len(b), n)
		require.Equal(t, v, got, "value %d", v)
	}
}

func TestLengthEncodedIntNull(t *testing.T) {
	_, isNull, n := LengthEncodedInt([]byte{0xfb})
	require.True(t, isNull)
	require.Equal(t, 1, n)
}

func TestLengthEncodedStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "hello world"} {
		b := PutLengthEncodedString([]byte(s))
		got, isNull, n, err := LengthEncodedString(b)
		require.NoError(t, err)
		require.False(t, isNull)
		require.Equal(t, len(b), n)
		require.Equal(t, s, string(got))
	}
}

func TestEscape(t *testing.T) {
	require.Equal(t, `a\'b`, Escape("a'b"))
	require.Equal(t, `a\\b`, Escape(`a\b`))
	require.Equal(t, `a\nb`, Escape("a\nb"))
	require.Equal(t, `a\rb`, Escape("a\rb"))
	require.Equal(t, `a\0b`, Escape("a\x00b"))
	require.Equal(t, `a\Zb`, Escape("a\x1ab"))
	require.Equal(t, `a\"b`, Escape(`a"b`))
	require.Equal(t, "plain", Escape("plain"))
}

func TestCompareServerVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"8.0.33", "8.0.33", 0},
		{"8.0.33", "5.7.44", 1},
		{"5.6.2", "8.0.2", -1},
		{"8.0.33-log", "8.0.33", 0},
	}

	for _, cs := range cases {
		got, err := CompareServerVersions(cs.a, cs.b)
		require.NoError(t, err)
		require.Equal(t, cs.want, got, "%s vs %s", cs.a, cs.b)
	}
}

func TestParseServerVersionMariaDB(t *testing.T) {
	v, err := ParseServerVersion("5.5.5-10.6.12-MariaDB")
	require.NoError(t, err)
	require.True(t, v.MariaDB)
	require.Equal(t, 10, v.Major)
	require.Equal(t, 6, v.Minor)
	require.Equal(t, 12, v.Patch)

	v, err = ParseServerVersion("8.0.33")
	require.NoError(t, err)
	require.False(t, v.MariaDB)
	require.True(t, v.AtLeast(8, 0, 3))
	require.True(t, v.Less(8, 1, 0))
}
