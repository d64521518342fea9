package client

import (
	"github.com/pingcap/errors"
	"github.com/siddontang/go-log/log"

	"github.com/T45K/go-mysql-session/mysql"
)

// ValidationDepth selects how far Validate probes the connection.
type ValidationDepth int

const (
	// ValidationLocal checks only client-side transport liveness.
	ValidationLocal ValidationDepth = iota
	// ValidationRemote round-trips a server PING.
	ValidationRemote
)

// Ping sends COM_PING and waits for the OK frame.
func (c *Conn) Ping() error {
	if err := c.writeCommand(mysql.COM_PING); err != nil {
		return errors.Trace(err)
	}

	if _, err := c.readOK(); err != nil {
		return errors.Trace(err)
	}

	return nil
}

// Validate reports connection health. At local depth it is the transport
// liveness; at remote depth it is a server PING that answers false on any
// ERR or transport failure and never propagates an error.
func (c *Conn) Validate(depth ValidationDepth) bool {
	if c.closed.Load() {
		return false
	}

	if depth == ValidationLocal {
		return true
	}

	if err := c.Ping(); err != nil {
		log.Debugf("remote validate failed: %s", err)
		return false
	}

	return true
}
