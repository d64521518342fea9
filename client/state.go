package client

import (
	"fmt"
	"time"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
)

// Status returns the latest server-status word. Every completion packet the
// server sends refreshes it.
func (c *Conn) Status() uint16 {
	return uint16(c.status.Load())
}

// InTransaction reports whether the server-status word carries the
// in-transaction bit.
func (c *Conn) InTransaction() bool {
	return c.Status()&mysql.SERVER_STATUS_IN_TRANS > 0
}

// IsSessionAutoCommit reports the session autocommit mode from the
// server-status word.
func (c *Conn) IsSessionAutoCommit() bool {
	return c.Status()&mysql.SERVER_STATUS_AUTOCOMMIT > 0
}

// IsAutoCommit reports the effective autocommit mode: within a transaction
// autocommit remains disabled until COMMIT or ROLLBACK ends it.
func (c *Conn) IsAutoCommit() bool {
	return !c.InTransaction() && c.IsSessionAutoCommit()
}

// TransactionIsolation returns the isolation level inferred for the current
// transaction.
//
// MySQL has no way to query the isolation level of the running transaction,
// it is only inferred from past statements; changes made by SQL text sent
// through this connection or by other sessions are invisible, so the value
// is advisory. See https://bugs.mysql.com/bug.php?id=53341
func (c *Conn) TransactionIsolation() IsolationLevel {
	return c.currentIsolation
}

// SessionTransactionIsolation returns the isolation level set at session
// scope.
func (c *Conn) SessionTransactionIsolation() IsolationLevel {
	return c.sessionIsolation
}

// SetTransactionIsolation changes the isolation level.
//
// Outside a transaction it issues SET SESSION TRANSACTION ISOLATION LEVEL
// and, on confirmed success, moves both the session and the current level.
// Inside a transaction the server rejects session-characteristic changes, so
// only the inferred current level is updated; it reverts to the session
// level when the transaction ends.
func (c *Conn) SetTransactionIsolation(level IsolationLevel) error {
	if c.InTransaction() {
		c.currentIsolation = level
		return nil
	}

	if _, err := c.exec("SET SESSION TRANSACTION ISOLATION LEVEL " + level.AsSQL()); err != nil {
		return errors.Trace(err)
	}

	c.sessionIsolation = level
	c.currentIsolation = level
	return nil
}

// LockWaitTimeout returns the session lock wait timeout in seconds.
func (c *Conn) LockWaitTimeout() int64 {
	return c.sessionLockWaitTimeout
}

// CurrentLockWaitTimeout returns the lock wait timeout effective for the
// current transaction.
func (c *Conn) CurrentLockWaitTimeout() int64 {
	return c.currentLockWaitTimeout
}

// SetLockWaitTimeout sets the session innodb_lock_wait_timeout. The
// in-memory state commits only on confirmed server success.
func (c *Conn) SetLockWaitTimeout(timeout time.Duration) error {
	seconds := int64(timeout / time.Second)

	if _, err := c.exec(fmt.Sprintf("SET innodb_lock_wait_timeout=%d", seconds)); err != nil {
		return errors.Trace(err)
	}

	c.sessionLockWaitTimeout = seconds
	c.currentLockWaitTimeout = seconds
	return nil
}

// SetAutoCommit changes the session autocommit mode. Requesting the mode the
// session already has is a no-op without wire traffic.
func (c *Conn) SetAutoCommit(autoCommit bool) error {
	if autoCommit == c.IsSessionAutoCommit() {
		return nil
	}

	v := 0
	if autoCommit {
		v = 1
	}

	_, err := c.exec(fmt.Sprintf("SET autocommit=%d", v))
	return errors.Trace(err)
}

// SetStatementTimeout records the requested per-statement timeout. The
// timeout is not yet propagated to the server; this is the extension point
// for max_execution_time support.
func (c *Conn) SetStatementTimeout(timeout time.Duration) error {
	if timeout < 0 {
		return errors.New("statement timeout must not be negative")
	}

	c.statementTimeout = timeout
	return nil
}

// StatementTimeout returns the recorded per-statement timeout.
func (c *Conn) StatementTimeout() time.Duration {
	return c.statementTimeout
}

// PostAllocate is the pool hook run after the connection is handed out.
func (c *Conn) PostAllocate() error {
	return nil
}

// PreRelease is the pool hook run before the connection returns to its pool:
// a transaction still open is rolled back, otherwise nothing happens.
func (c *Conn) PreRelease() error {
	if !c.InTransaction() {
		return nil
	}
	return c.Rollback()
}
