package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeginStatementRendering(t *testing.T) {
	readOnly := true
	readWrite := false

	cases := []struct {
		def  TransactionDefinition
		want string
	}{
		{TransactionDefinition{}, "BEGIN"},
		{TransactionDefinition{ReadOnly: &readOnly}, "START TRANSACTION READ ONLY"},
		{TransactionDefinition{ReadOnly: &readWrite}, "START TRANSACTION READ WRITE"},
		{
			TransactionDefinition{ReadOnly: &readOnly, WithConsistentSnapshot: true},
			"START TRANSACTION READ ONLY, WITH CONSISTENT SNAPSHOT",
		},
		{
			TransactionDefinition{WithConsistentSnapshot: true},
			"START TRANSACTION WITH CONSISTENT SNAPSHOT",
		},
	}

	for _, cs := range cases {
		require.Equal(t, cs.want, cs.def.beginStatement())
	}
}

func TestSavepointNameValidation(t *testing.T) {
	c := &Conn{}

	// empty names are rejected synchronously, before any wire traffic
	require.Error(t, c.CreateSavepoint(""))
	require.Error(t, c.ReleaseSavepoint(""))
	require.Error(t, c.RollbackToSavepoint(""))
}

func TestTransactionDefinitionEmpty(t *testing.T) {
	require.True(t, TransactionDefinition{}.empty())

	readOnly := true
	require.False(t, TransactionDefinition{ReadOnly: &readOnly}.empty())
}
