package codec

import (
	"time"

	"github.com/T45K/go-mysql-session/mysql"
)

// ZeroDateOption selects what a `0000-00-00` date payload decodes to.
type ZeroDateOption int

const (
	// ZeroDateUseNull decodes zero dates to the null marker.
	ZeroDateUseNull ZeroDateOption = iota
	// ZeroDateError rejects zero dates as a decode error.
	ZeroDateError
)

// Context is the immutable view the codecs consume. It is produced by the
// connection after init and threaded through every encode/decode call, so
// parameters never need a back-reference to the connection.
type Context struct {
	// ServerZone is the server's effective time zone, used to interpret
	// naive DATETIME/TIMESTAMP values. Resolved during connection init.
	ServerZone *time.Location

	// ClientZone is the application-side zone instant-preserving conversions
	// target.
	ClientZone *time.Location

	// PreserveInstants converts decoded date-times to ClientZone keeping the
	// instant, instead of leaving them in ServerZone.
	PreserveInstants bool

	// TinyIntIsBool decodes TINYINT(1) columns as bool.
	TinyIntIsBool bool

	// DefaultCharset is the charset used when encoding strings.
	DefaultCharset string

	// ZeroDate selects the zero-date policy.
	ZeroDate ZeroDateOption

	// ServerVersion of the connected server.
	ServerVersion mysql.ServerVersion
}

// NewContext returns a context with driver defaults: UTC server zone, local
// client zone, utf8mb4.
func NewContext() *Context {
	return &Context{
		ServerZone:     time.UTC,
		ClientZone:     time.Local,
		DefaultCharset: "utf8mb4",
	}
}

// DecodeZone is the location decoded temporal values carry.
func (c *Context) DecodeZone() *time.Location {
	if c.PreserveInstants && c.ClientZone != nil {
		return c.ClientZone
	}
	return c.ServerZone
}
