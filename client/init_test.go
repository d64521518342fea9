package client

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/T45K/go-mysql-session/mysql"
)

func version(t *testing.T, s string) mysql.ServerVersion {
	v, err := mysql.ParseServerVersion(s)
	require.NoError(t, err)
	return v
}

func TestTransactionIsolationColumn(t *testing.T) {
	cases := []struct {
		version string
		want    string
	}{
		{"11.0.5-MariaDB", "@@tx_isolation AS i"},
		{"11.1.1-MariaDB", "@@transaction_isolation AS i"},
		{"5.5.5-10.6.12-MariaDB", "@@tx_isolation AS i"},
		{"5.7.21", "@@transaction_isolation AS i"},
		{"5.7.19", "@@tx_isolation AS i"},
		{"8.0.2", "@@tx_isolation AS i"},
		{"8.0.3", "@@transaction_isolation AS i"},
		{"8.0.33", "@@transaction_isolation AS i"},
		{"5.6.51", "@@tx_isolation AS i"},
	}

	for _, cs := range cases {
		got := transactionIsolationColumn(version(t, cs.version))
		require.Equal(t, cs.want, got, "version %s", cs.version)
	}
}

func TestParseIsolationLevel(t *testing.T) {
	require.Equal(t, LevelReadUncommitted, parseIsolationLevel("READ-UNCOMMITTED"))
	require.Equal(t, LevelReadCommitted, parseIsolationLevel("READ-COMMITTED"))
	require.Equal(t, LevelRepeatableRead, parseIsolationLevel("REPEATABLE-READ"))
	require.Equal(t, LevelSerializable, parseIsolationLevel("SERIALIZABLE"))

	// unknown degrades with a warning instead of failing init
	require.Equal(t, LevelRepeatableRead, parseIsolationLevel("CHAOS"))
}

func TestIsolationLevelSQL(t *testing.T) {
	require.Equal(t, "READ UNCOMMITTED", LevelReadUncommitted.AsSQL())
	require.Equal(t, "SERIALIZABLE", LevelSerializable.AsSQL())
}
