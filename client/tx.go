package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
)

// TransactionDefinition carries the attributes of one transaction begin
// sequence. The zero value begins a plain transaction.
type TransactionDefinition struct {
	// IsolationLevel overrides the isolation level for this transaction
	// only, emitted as the pre-begin SET TRANSACTION form.
	IsolationLevel *IsolationLevel

	// ReadOnly selects START TRANSACTION READ ONLY / READ WRITE.
	ReadOnly *bool

	// WithConsistentSnapshot starts the transaction with a consistent
	// snapshot.
	WithConsistentSnapshot bool

	// LockWaitTimeout sets innodb_lock_wait_timeout for this transaction;
	// zero leaves it alone.
	LockWaitTimeout time.Duration
}

func (d TransactionDefinition) empty() bool {
	return d.IsolationLevel == nil && d.ReadOnly == nil &&
		!d.WithConsistentSnapshot && d.LockWaitTimeout == 0
}

// beginStatement renders the begin SQL: plain BEGIN, or START TRANSACTION
// with the definition-derived modifiers.
func (d TransactionDefinition) beginStatement() string {
	if d.ReadOnly == nil && !d.WithConsistentSnapshot {
		return "BEGIN"
	}

	var sb strings.Builder
	sb.WriteString("START TRANSACTION")

	if d.ReadOnly != nil {
		if *d.ReadOnly {
			sb.WriteString(" READ ONLY")
		} else {
			sb.WriteString(" READ WRITE")
		}
		if d.WithConsistentSnapshot {
			sb.WriteString(", WITH CONSISTENT SNAPSHOT")
		}
	} else {
		sb.WriteString(" WITH CONSISTENT SNAPSHOT")
	}

	return sb.String()
}

// Begin starts a plain transaction.
func (c *Conn) Begin() error {
	return c.BeginTx(TransactionDefinition{})
}

// BeginTx starts a transaction with the given definition. The statements of
// the begin sequence are batched into one multi-statement exchange when the
// server offers MULTI_STATEMENTS, and executed one-by-one otherwise.
func (c *Conn) BeginTx(def TransactionDefinition) error {
	statements := make([]string, 0, 3)

	if def.LockWaitTimeout > 0 {
		statements = append(statements,
			fmt.Sprintf("SET innodb_lock_wait_timeout=%d", int64(def.LockWaitTimeout/time.Second)))
	}
	if def.IsolationLevel != nil {
		statements = append(statements, "SET TRANSACTION ISOLATION LEVEL "+def.IsolationLevel.AsSQL())
	}
	statements = append(statements, def.beginStatement())

	if len(statements) == 1 {
		if _, err := c.exec(statements[0]); err != nil {
			return errors.Trace(err)
		}
	} else if c.HasCapability(mysql.CLIENT_MULTI_STATEMENTS) {
		if err := c.execMulti(statements); err != nil {
			return errors.Trace(err)
		}
	} else {
		for _, statement := range statements {
			if _, err := c.exec(statement); err != nil {
				return errors.Trace(err)
			}
		}
	}

	if def.IsolationLevel != nil {
		c.currentIsolation = *def.IsolationLevel
	}
	if def.LockWaitTimeout > 0 {
		c.currentLockWaitTimeout = int64(def.LockWaitTimeout / time.Second)
	}

	return nil
}

// Commit ends the transaction. On success the inferred isolation level and
// the transaction lock wait timeout revert to their session values.
func (c *Conn) Commit() error {
	return c.endTransaction(true)
}

// Rollback discards the transaction. State reverts the same way as Commit.
func (c *Conn) Rollback() error {
	return c.endTransaction(false)
}

func (c *Conn) endTransaction(commit bool) error {
	sql := "ROLLBACK"
	if commit {
		sql = "COMMIT"
	}

	if _, err := c.exec(sql); err != nil {
		return errors.Trace(err)
	}

	c.currentIsolation = c.sessionIsolation
	if c.currentLockWaitTimeout != c.sessionLockWaitTimeout {
		c.currentLockWaitTimeout = c.sessionLockWaitTimeout
	}

	return nil
}

// CreateSavepoint issues SAVEPOINT with the quoted identifier.
func (c *Conn) CreateSavepoint(name string) error {
	if name == "" {
		return errors.New("savepoint name must not be empty")
	}

	_, err := c.exec("SAVEPOINT " + mysql.QuoteIdentifier(name))
	return errors.Trace(err)
}

// ReleaseSavepoint issues RELEASE SAVEPOINT with the quoted identifier.
func (c *Conn) ReleaseSavepoint(name string) error {
	if name == "" {
		return errors.New("savepoint name must not be empty")
	}

	_, err := c.exec("RELEASE SAVEPOINT " + mysql.QuoteIdentifier(name))
	return errors.Trace(err)
}

// RollbackToSavepoint issues ROLLBACK TO SAVEPOINT with the quoted
// identifier.
func (c *Conn) RollbackToSavepoint(name string) error {
	if name == "" {
		return errors.New("savepoint name must not be empty")
	}

	_, err := c.exec("ROLLBACK TO SAVEPOINT " + mysql.QuoteIdentifier(name))
	return errors.Trace(err)
}

// BeginSavepoint creates a savepoint with a generated identifier and returns
// the name, for nested-transaction style usage.
func (c *Conn) BeginSavepoint() (string, error) {
	name := "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	if err := c.CreateSavepoint(name); err != nil {
		return "", errors.Trace(err)
	}
	return name, nil
}
