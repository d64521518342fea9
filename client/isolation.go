package client

import (
	"github.com/siddontang/go-log/log"
)

// IsolationLevel is a MySQL transaction isolation level.
type IsolationLevel int

const (
	LevelReadUncommitted IsolationLevel = iota
	LevelReadCommitted
	LevelRepeatableRead
	LevelSerializable
)

// AsSQL renders the level the way SET TRANSACTION ISOLATION LEVEL wants it.
func (l IsolationLevel) AsSQL() string {
	switch l {
	case LevelReadUncommitted:
		return "READ UNCOMMITTED"
	case LevelReadCommitted:
		return "READ COMMITTED"
	case LevelSerializable:
		return "SERIALIZABLE"
	default:
		return "REPEATABLE READ"
	}
}

func (l IsolationLevel) String() string {
	return l.AsSQL()
}

// parseIsolationLevel converts the server's hyphenated variable value. An
// unknown value degrades to REPEATABLE READ with a warning instead of
// failing init.
func parseIsolationLevel(name string) IsolationLevel {
	switch name {
	case "READ-UNCOMMITTED":
		return LevelReadUncommitted
	case "READ-COMMITTED":
		return LevelReadCommitted
	case "REPEATABLE-READ":
		return LevelRepeatableRead
	case "SERIALIZABLE":
		return LevelSerializable
	}

	log.Warnf("unknown isolation level %q in current session, fallback to repeatable read", name)

	return LevelRepeatableRead
}
