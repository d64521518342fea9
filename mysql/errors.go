package mysql

import (
	"errors"
	"fmt"
)

var (
	// ErrBadConn is returned when the transport failed, the connection is no
	// longer usable and every further operation returns the same error.
	ErrBadConn = errors.New("connection was bad")

	// ErrMalformPacket is returned when a server packet cannot be parsed,
	// the connection must be closed.
	ErrMalformPacket = errors.New("malform packet error")
)

const (
	ER_DBACCESS_DENIED_ERROR uint16 = 1044
	ER_ACCESS_DENIED_ERROR   uint16 = 1045
	ER_NO_DB_ERROR           uint16 = 1046
	ER_BAD_DB_ERROR          uint16 = 1049
	ER_UNKNOWN_ERROR         uint16 = 1105
	ER_LOCK_WAIT_TIMEOUT     uint16 = 1205
	ER_UNKNOWN_STMT_HANDLER  uint16 = 1243
)

const DEFAULT_MYSQL_STATE = "HY000"

// MyError is the error struct for a server ERR packet, carrying the MySQL
// error code, SQLSTATE and message.
type MyError struct {
	Code    uint16
	Message string
	State   string
}

func (e *MyError) Error() string {
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.State, e.Message)
}

// NewError creates a MyError with the default SQLSTATE.
func NewError(errCode uint16, message string) *MyError {
	return &MyError{Code: errCode, Message: message, State: DEFAULT_MYSQL_STATE}
}

// ErrorCode returns the MySQL error code of the error, or 0 if it is not a
// server error.
func ErrorCode(err error) uint16 {
	var e *MyError
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// ErrorEqual returns a boolean indicating whether err1 is equal to err2.
func ErrorEqual(err1, err2 error) bool {
	if err1 == err2 {
		return true
	}

	if err1 == nil || err2 == nil {
		return err1 == err2
	}

	return err1.Error() == err2.Error()
}
