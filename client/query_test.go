package client

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/T45K/go-mysql-session/codec"
)

func TestParseQuerySimple(t *testing.T) {
	q := ParseQuery("SELECT 1")
	require.True(t, q.IsSimple())
	require.Equal(t, 0, q.ParamCount())
}

func TestParseQueryMarkers(t *testing.T) {
	q := ParseQuery("SELECT * FROM t WHERE a = ? AND b = ?")
	require.False(t, q.IsSimple())
	require.Equal(t, 2, q.ParamCount())
	require.Equal(t, []int{26, 36}, q.MarkerOffsets())
}

func TestParseQuerySkipsLiteralsAndComments(t *testing.T) {
	cases := []struct {
		sql   string
		count int
	}{
		{`SELECT '?'`, 0},
		{`SELECT "?"`, 0},
		{"SELECT `a?b` FROM t", 0},
		{`SELECT 'it''s ?' , ?`, 1},
		{`SELECT 'esc\'?' , ?`, 1},
		{"SELECT 1 -- is it ?\n", 0},
		{"SELECT 1 # is it ?\n", 0},
		{"SELECT /* ? */ ?", 1},
		{"SELECT ?, '?', ?", 2},
	}

	for _, cs := range cases {
		require.Equal(t, cs.count, ParseQuery(cs.sql).ParamCount(), "sql %q", cs.sql)
	}
}

func TestQueryFormat(t *testing.T) {
	reg := codec.NewRegistry()
	ctx := codec.NewContext()

	q := ParseQuery("SELECT * FROM t WHERE a = ? AND b = ?")
	binding, err := reg.EncodeBinding([]interface{}{int64(7), "x"}, ctx)
	require.NoError(t, err)

	sql, err := q.Format(binding)
	require.NoError(t, err)
	require.Equal(t, "SELECT * FROM t WHERE a = 7 AND b = 'x'", sql)
}

func TestQueryFormatBindingMismatch(t *testing.T) {
	q := ParseQuery("SELECT ?")

	_, err := q.Format(nil)
	require.Error(t, err)
}

func TestQueryFormatNullBind(t *testing.T) {
	reg := codec.NewRegistry()
	q := ParseQuery("UPDATE t SET a = ?")

	binding, err := reg.EncodeBinding([]interface{}{nil}, codec.NewContext())
	require.NoError(t, err)

	sql, err := q.Format(binding)
	require.NoError(t, err)
	require.Equal(t, "UPDATE t SET a = NULL", sql)
}

func TestQueryCacheSharesParsedQueries(t *testing.T) {
	qc := NewQueryCache(4)

	a := qc.Get("SELECT ?")
	b := qc.Get("SELECT ?")
	require.Same(t, a, b)

	// bounded: old entries fall out
	for i := 0; i < 8; i++ {
		qc.Get("SELECT " + strings.Repeat("x", i))
	}
	c := qc.Get("SELECT ?")
	require.NotNil(t, c)
}
