package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func factoryConn(prepare func(string) bool) *Conn {
	return &Conn{
		queryCache: NewQueryCache(16),
		prepare:    prepare,
	}
}

func TestStatementFactoryPolicy(t *testing.T) {
	always := func(string) bool { return true }
	never := func(string) bool { return false }

	cases := []struct {
		sql     string
		prepare func(string) bool
		want    interface{}
	}{
		{"SELECT 1", nil, &textSimpleStatement{}},
		{"SELECT 1", always, &prepareSimpleStatement{}},
		{"SELECT 1", never, &textSimpleStatement{}},
		{"SELECT ?", nil, &textParametrizedStatement{}},
		{"SELECT ?", always, &prepareParametrizedStatement{}},
		{"SELECT ?", never, &prepareParametrizedStatement{}},
	}

	for _, cs := range cases {
		c := factoryConn(cs.prepare)
		stmt, err := c.CreateStatement(cs.sql)
		require.NoError(t, err)
		require.IsType(t, cs.want, stmt, "sql %q", cs.sql)
	}
}

func TestCreateStatementEmptySQL(t *testing.T) {
	c := factoryConn(nil)

	_, err := c.CreateStatement("")
	require.Error(t, err)
}

func TestFetchSizeValidation(t *testing.T) {
	c := factoryConn(nil)

	stmt, err := c.CreateStatement("SELECT ?")
	require.NoError(t, err)

	require.NoError(t, stmt.FetchSize(0))
	require.NoError(t, stmt.FetchSize(100))
	require.Error(t, stmt.FetchSize(-1))
}
