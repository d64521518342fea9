// Package client implements the session layer of the driver: connection
// lifecycle, transaction and isolation tracking, statement dispatch and the
// prepared-statement and query caches.
package client

import (
	"context"
	"crypto/tls"
	"net"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pingcap/errors"
	"github.com/siddontang/go-log/log"

	"github.com/T45K/go-mysql-session/codec"
	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/packet"
	"github.com/T45K/go-mysql-session/utils"
)

const defaultBufferSize = 65536 // 64kb

// Option configures a Conn before the handshake runs.
type Option func(*Conn) error

// Conn is one MySQL session. Requests on a connection are strictly
// serialised in submission order; the connection owns its transport and its
// caches.
type Conn struct {
	*packet.Conn

	user      string
	password  string
	db        string
	tlsConfig *tls.Config
	proto     string

	// Connection read and write timeouts to set on the connection
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// The buffer size to use in the packet connection
	BufferSize int

	serverVersion mysql.ServerVersion
	// product string from @@version_comment, read during init
	product string
	// server capabilities
	capability uint32
	// client-set capabilities only
	ccaps uint32

	attributes map[string]string

	// status holds the 16-bit server-status word from the latest completion
	// packet. The I/O path is the single writer; state accessors load it.
	status atomic.Uint32

	charset string

	salt           []byte
	authPluginName string

	connectionID uint32

	codecs   *codec.Registry
	codecCtx *codec.Context

	// session state tracked by the state machine; see state.go
	sessionIsolation IsolationLevel
	currentIsolation IsolationLevel

	sessionLockWaitTimeout int64
	currentLockWaitTimeout int64

	statementTimeout time.Duration

	// prepare decides whether a simple statement goes through the server
	// prepare path; nil keeps simple statements textual.
	prepare func(sql string) bool

	stmtCache  *stmtCache
	queryCache *QueryCache

	resolveServerZone bool
	clientZone        *time.Location
	preserveInstants  bool
	tinyIntIsBool     bool

	stmtCacheSize  int
	queryCacheSize int

	closed atomic.Bool
}

func getNetProto(addr string) string {
	proto := "tcp"
	if strings.Contains(addr, "/") {
		proto = "unix"
	}
	return proto
}

// Connect opens a session to a MySQL server, addr can be ip:port, or a unix
// socket domain like /var/sock. Accepts a series of configuration functions
// as a variadic argument. The returned connection already ran the init
// discovery query and selected the database.
func Connect(addr, user, password, dbName string, options ...Option) (*Conn, error) {
	return ConnectWithTimeout(addr, user, password, dbName, time.Second*10, options...)
}

// ConnectWithTimeout opens a session using a dial timeout.
func ConnectWithTimeout(addr, user, password, dbName string, timeout time.Duration, options ...Option) (*Conn, error) {
	return ConnectWithContext(context.Background(), addr, user, password, dbName, timeout, options...)
}

// ConnectWithContext opens a session using the provided context.
func ConnectWithContext(ctx context.Context, addr, user, password, dbName string, timeout time.Duration, options ...Option) (*Conn, error) {
	dialer := &net.Dialer{Timeout: timeout}
	return ConnectWithDialer(ctx, "", addr, user, password, dbName, dialer.DialContext, options...)
}

// Dialer connects to the address on the named network using the provided
// context.
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

// ConnectWithDialer opens a session using the given Dialer.
func ConnectWithDialer(ctx context.Context, network, addr, user, password, dbName string, dialer Dialer, options ...Option) (*Conn, error) {
	c := new(Conn)

	c.BufferSize = defaultBufferSize
	c.stmtCacheSize = defaultStmtCacheSize
	c.queryCacheSize = defaultQueryCacheSize
	c.resolveServerZone = true
	c.clientZone = time.Local
	c.attributes = map[string]string{
		"_client_name":     "go-mysql-session",
		"_os":              runtime.GOOS,
		"_platform":        runtime.GOARCH,
		"_runtime_version": runtime.Version(),
	}

	if network == "" {
		network = getNetProto(addr)
	}

	conn, err := dialer(ctx, network, addr)
	if err != nil {
		return nil, errors.Trace(err)
	}

	c.user = user
	c.password = password
	c.db = dbName
	c.proto = network

	// use default charset here, utf-8
	c.charset = mysql.DEFAULT_CHARSET

	// Apply configuration functions.
	for _, option := range options {
		if err := option(c); err != nil {
			// must close the connection in the event the provided configuration is not valid
			_ = conn.Close()
			return nil, err
		}
	}

	c.Conn = packet.NewConnWithTimeout(conn, c.ReadTimeout, c.WriteTimeout, c.BufferSize)

	if err = c.handshake(); err != nil {
		// in the event of an error c.handshake() will close the connection
		return nil, errors.Trace(err)
	}

	c.codecs = codec.NewRegistry()
	c.codecCtx = codec.NewContext()
	c.codecCtx.ClientZone = c.clientZone
	c.codecCtx.PreserveInstants = c.preserveInstants
	c.codecCtx.TinyIntIsBool = c.tinyIntIsBool
	c.codecCtx.DefaultCharset = c.charset
	c.codecCtx.ServerVersion = c.serverVersion

	c.stmtCache = newStmtCache(c, c.stmtCacheSize)
	if c.queryCache == nil {
		c.queryCache = NewQueryCache(c.queryCacheSize)
	}

	if err := c.init(); err != nil {
		c.Close()
		return nil, errors.Trace(err)
	}

	return c, nil
}

func (c *Conn) handshake() error {
	var err error
	if err = c.readInitialHandshake(); err != nil {
		c.Close()
		return errors.Annotate(err, "readInitialHandshake")
	}

	if err := c.writeAuthHandshake(); err != nil {
		c.Close()
		return errors.Annotate(err, "writeAuthHandshake")
	}

	if err := c.handleAuthResult(); err != nil {
		c.Close()
		return errors.Annotate(err, "handleAuthResult")
	}

	return nil
}

// Close directly closes the transport. Use Quit() to first send COM_QUIT to
// the server and then close the connection.
func (c *Conn) Close() error {
	c.closed.Store(true)
	return c.Conn.Close()
}

// Quit sends COM_QUIT to the server and then closes the connection. This is
// the graceful teardown path.
func (c *Conn) Quit() error {
	if err := c.writeCommand(mysql.COM_QUIT); err != nil {
		return err
	}
	return c.Close()
}

// SetCapability marks the specified flag as explicitly enabled by the client.
func (c *Conn) SetCapability(cap uint32) {
	c.ccaps |= cap
}

// UnsetCapability marks the specified flag as explicitly disabled by the client.
func (c *Conn) UnsetCapability(cap uint32) {
	c.ccaps &^= cap
}

// HasCapability returns true if the connection has the specific capability
func (c *Conn) HasCapability(cap uint32) bool {
	return c.capability&cap > 0
}

// UseSSL: use default SSL
// pass to options when connect
func (c *Conn) UseSSL(insecureSkipVerify bool) {
	c.tlsConfig = &tls.Config{InsecureSkipVerify: insecureSkipVerify}
}

// SetTLSConfig: use user-specified TLS config
// pass to options when connect
func (c *Conn) SetTLSConfig(config *tls.Config) {
	c.tlsConfig = config
}

func (c *Conn) GetDB() string {
	return c.db
}

// ServerVersion returns the parsed version of the server as reported in the
// initial greeting.
func (c *Conn) ServerVersion() mysql.ServerVersion {
	return c.serverVersion
}

// ServerProduct returns the @@version_comment string read during init.
func (c *Conn) ServerProduct() string {
	return c.product
}

// CompareServerVersion compares version v against the version of the server
// and returns 0 if they are equal, 1 if the server version is higher and -1
// if the server version is lower.
func (c *Conn) CompareServerVersion(v string) (int, error) {
	return mysql.CompareServerVersions(c.serverVersion.String(), v)
}

// CodecContext returns the immutable codec view of this session.
func (c *Conn) CodecContext() *codec.Context {
	return c.codecCtx
}

// Codecs returns the codec registry the session encodes and decodes with.
func (c *Conn) Codecs() *codec.Registry {
	return c.codecs
}

// Execute runs a statement through the statement factory: a text query when
// there are no arguments and the prepare predicate does not claim it, a
// server-prepared one otherwise.
func (c *Conn) Execute(command string, args ...interface{}) (*mysql.Result, error) {
	stmt, err := c.CreateStatement(command)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return stmt.Execute(args...)
}

func (c *Conn) SetAttributes(attributes map[string]string) {
	for k, v := range attributes {
		c.attributes[k] = v
	}
}

func (c *Conn) SetCharset(charset string) error {
	if c.charset == charset {
		return nil
	}

	if _, err := c.exec("SET NAMES " + charset); err != nil {
		return errors.Trace(err)
	}

	c.charset = charset
	return nil
}

func (c *Conn) GetCharset() string {
	return c.charset
}

func (c *Conn) GetConnectionID() uint32 {
	return c.connectionID
}

// exec sends COM_QUERY and reads the full text-protocol result.
func (c *Conn) exec(query string) (*mysql.Result, error) {
	if err := c.execSend(query); err != nil {
		return nil, errors.Trace(err)
	}
	return c.readResult(false)
}

// execSend sends COM_QUERY
// https://dev.mysql.com/doc/dev/mysql-server/latest/page_protocol_com_query.html
func (c *Conn) execSend(query string) error {
	log.Debugf("executing direct query: %s", query)
	return errors.Trace(c.writeCommandBuf(mysql.COM_QUERY, utils.StringToByteSlice(query)))
}

// execMulti sends statements as one multi-statement exchange and drains
// every completion. All statements must succeed.
func (c *Conn) execMulti(statements []string) error {
	if err := c.execSend(strings.Join(statements, ";")); err != nil {
		return errors.Trace(err)
	}

	for {
		result, err := c.readResult(false)
		if err != nil {
			return errors.Trace(err)
		}
		if result.Status&mysql.SERVER_MORE_RESULTS_EXISTS == 0 {
			return nil
		}
	}
}

func (c *Conn) writeCommand(command byte) error {
	c.ResetSequence()

	return c.WritePacket([]byte{
		0x01, // 1 byte long
		0x00,
		0x00,
		0x00, // sequence
		command,
	})
}

func (c *Conn) writeCommandBuf(command byte, arg []byte) error {
	c.ResetSequence()

	data := utils.BytesBufferGet()
	defer utils.BytesBufferPut(data)

	data.Grow(len(arg) + 5)
	data.Write([]byte{0, 0, 0, 0, command})
	data.Write(arg)

	return c.WritePacket(data.Bytes())
}

func (c *Conn) writeCommandStr(command byte, arg string) error {
	return c.writeCommandBuf(command, utils.StringToByteSlice(arg))
}

func (c *Conn) writeCommandUint32(command byte, arg uint32) error {
	c.ResetSequence()

	return c.WritePacket([]byte{
		0x05, // 5 bytes long
		0x00,
		0x00,
		0x00, // sequence

		command,

		byte(arg),
		byte(arg >> 8),
		byte(arg >> 16),
		byte(arg >> 24),
	})
}
