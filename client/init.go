package client

import (
	"strings"
	"time"

	"github.com/pingcap/errors"
	"github.com/siddontang/go-log/log"

	"github.com/T45K/go-mysql-session/codec"
	"github.com/T45K/go-mysql-session/mysql"
)

const defaultLockWaitTimeout = 50

// init runs the post-handshake discovery sequence: one query reading the
// session isolation level, the lock wait timeout, the product string and,
// when server-zone resolution is on, the server time zone variables; then
// the optional database selection. The connection is IDLE once it returns.
func (c *Conn) init() error {
	var query strings.Builder
	query.Grow(128)
	query.WriteString("SELECT ")
	query.WriteString(transactionIsolationColumn(c.serverVersion))
	query.WriteString(",@@innodb_lock_wait_timeout AS l,@@version_comment AS v")
	if c.resolveServerZone {
		query.WriteString(",@@system_time_zone AS s,@@time_zone AS t")
	}

	r, err := c.exec(query.String())
	if err != nil {
		return errors.Trace(err)
	}
	if !r.HasResultset() || r.RowNumber() == 0 {
		return errors.Trace(mysql.ErrMalformPacket)
	}

	level, err := c.initIsolation(r)
	if err != nil {
		return errors.Trace(err)
	}
	c.sessionIsolation = level
	c.currentIsolation = level

	timeout := c.initLockWaitTimeout(r)
	c.sessionLockWaitTimeout = timeout
	c.currentLockWaitTimeout = timeout

	c.product, _ = r.GetStringByName(0, "v")

	if c.resolveServerZone {
		c.codecCtx.ServerZone = c.initServerZone(r)
		log.Debugf("set server time zone to %s from init query", c.codecCtx.ServerZone)
	}

	if c.db != "" {
		if err := c.useDatabase(c.db); err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}

func (c *Conn) initIsolation(r *mysql.Result) (IsolationLevel, error) {
	isNull, err := r.IsNullByName(0, "i")
	if err != nil {
		return 0, errors.Trace(err)
	}
	if isNull {
		log.Warn("isolation level is null in current session, fallback to repeatable read")
		return LevelRepeatableRead, nil
	}

	name, err := r.GetStringByName(0, "i")
	if err != nil {
		return 0, errors.Trace(err)
	}
	return parseIsolationLevel(name), nil
}

func (c *Conn) initLockWaitTimeout(r *mysql.Result) int64 {
	isNull, err := r.IsNullByName(0, "l")
	if err == nil && !isNull {
		if timeout, err := r.GetIntByName(0, "l"); err == nil {
			return timeout
		}
	}

	log.Errorf("lock wait timeout is null, fallback to %d seconds", defaultLockWaitTimeout)
	return defaultLockWaitTimeout
}

// initServerZone resolves the effective server zone: @@time_zone unless it
// is empty or SYSTEM, then @@system_time_zone, then the process default.
func (c *Conn) initServerZone(r *mysql.Result) *time.Location {
	timeZone, _ := r.GetStringByName(0, "t")
	systemTimeZone, _ := r.GetStringByName(0, "s")

	if timeZone == "" || strings.EqualFold(timeZone, "SYSTEM") {
		if systemTimeZone == "" {
			log.Warn("server did not return any timezone, trying to use process default timezone")
			return time.Local
		}
		return codec.ConvertZoneID(systemTimeZone)
	}

	return codec.ConvertZoneID(timeZone)
}

// useDatabase selects the database through an InitDB message. A missing
// database is created with CREATE DATABASE IF NOT EXISTS and selected again;
// the second failure is fatal.
func (c *Conn) useDatabase(dbName string) error {
	if err := c.initDB(dbName); err == nil {
		return nil
	} else if mysql.ErrorCode(err) == 0 {
		// transport or protocol failure, not a server rejection
		return errors.Trace(err)
	} else {
		log.Debugf("use database failed: %s", err)
	}

	if _, err := c.exec("CREATE DATABASE IF NOT EXISTS " + mysql.QuoteIdentifier(dbName)); err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(c.initDB(dbName))
}

// initDB issues the InitDB protocol message, not an SQL USE text.
func (c *Conn) initDB(dbName string) error {
	if err := c.writeCommandStr(mysql.COM_INIT_DB, dbName); err != nil {
		return errors.Trace(err)
	}

	if _, err := c.readOK(); err != nil {
		return errors.Trace(err)
	}

	c.db = dbName
	return nil
}

// UseDB selects another database on an initialized connection.
func (c *Conn) UseDB(dbName string) error {
	if c.db == dbName {
		return nil
	}

	return c.useDatabase(dbName)
}

// transactionIsolationColumn resolves the session-isolation column;
// @@tx_isolation is deprecated and dropped by newer servers.
//
// MariaDB uses @@transaction_isolation starting from 11.1.1. MySQL uses it
// starting from 8.0.3, or between 5.7.20 and 8.0.0 (exclusive).
func transactionIsolationColumn(v mysql.ServerVersion) string {
	if v.MariaDB {
		if v.AtLeast(11, 1, 1) {
			return "@@transaction_isolation AS i"
		}
		return "@@tx_isolation AS i"
	}

	if v.AtLeast(8, 0, 3) || (v.AtLeast(5, 7, 20) && v.Less(8, 0, 0)) {
		return "@@transaction_isolation AS i"
	}
	return "@@tx_isolation AS i"
}
