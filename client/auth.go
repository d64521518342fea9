package client

import (
	"bytes"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"encoding/pem"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/packet"
)

// See: http://dev.mysql.com/doc/internals/en/connection-phase-packets.html#packet-Protocol::Handshake
func (c *Conn) readInitialHandshake() error {
	data, err := c.ReadPacket()
	if err != nil {
		return errors.Trace(err)
	}

	if data[0] == mysql.ERR_HEADER {
		return errors.Trace(c.handleErrorPacket(data))
	}

	if data[0] < mysql.MinProtocolVersion {
		return errors.Errorf("invalid protocol version %d, must >= 10", data[0])
	}

	// server version string, null terminated
	end := bytes.IndexByte(data[1:], 0x00)
	if end == -1 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	version := string(data[1 : 1+end])
	if c.serverVersion, err = mysql.ParseServerVersion(version); err != nil {
		return errors.Trace(err)
	}
	pos := 1 + end + 1

	// connection id length is 4
	c.connectionID = binary.LittleEndian.Uint32(data[pos : pos+4])
	pos += 4

	c.salt = []byte{}
	c.salt = append(c.salt, data[pos:pos+8]...)

	// skip filler
	pos += 8 + 1

	// capability lower 2 bytes
	c.capability = uint32(binary.LittleEndian.Uint16(data[pos : pos+2]))
	if c.capability&mysql.CLIENT_PROTOCOL_41 == 0 {
		return errors.New("the MySQL server can not support protocol 41 and above required by the client")
	}
	if c.capability&mysql.CLIENT_SSL == 0 && c.tlsConfig != nil {
		return errors.New("the MySQL Server does not support TLS required by the client")
	}
	pos += 2

	if len(data) > pos {
		// skip server charset
		pos++

		c.status.Store(uint32(binary.LittleEndian.Uint16(data[pos : pos+2])))
		pos += 2

		// capability flags (upper 2 bytes)
		c.capability = uint32(binary.LittleEndian.Uint16(data[pos:pos+2]))<<16 | c.capability
		pos += 2

		// skip auth data len or [00]
		// skip reserved (all [00])
		pos += 10 + 1

		// The documentation is ambiguous about the length; the official
		// clients use the fixed length 12.
		if c.capability&mysql.CLIENT_SECURE_CONNECTION != 0 {
			c.salt = append(c.salt, data[pos:pos+12]...)
			pos += 13
		}

		// auth plugin
		if c.capability&mysql.CLIENT_PLUGIN_AUTH != 0 {
			if end := bytes.IndexByte(data[pos:], 0x00); end != -1 {
				c.authPluginName = string(data[pos : pos+end])
			} else {
				c.authPluginName = string(data[pos:])
			}
		}
	}

	if c.authPluginName == "" {
		c.authPluginName = mysql.AUTH_NATIVE_PASSWORD
	}

	return nil
}

// calcAuthData computes the auth response for the current plugin. The second
// return value reports whether the response is complete or the server will
// continue with an auth-more-data exchange.
func (c *Conn) calcAuthData() ([]byte, error) {
	switch c.authPluginName {
	case mysql.AUTH_NATIVE_PASSWORD:
		return mysql.CalcNativePassword(c.salt[:20], []byte(c.password)), nil
	case mysql.AUTH_CACHING_SHA2_PASSWORD:
		return mysql.CalcCachingSha2Password(c.salt, []byte(c.password)), nil
	case mysql.AUTH_CLEAR_PASSWORD:
		return []byte(c.password), nil
	case mysql.AUTH_MARIADB_ED25519:
		return mysql.CalcEd25519Password(c.salt, c.password)
	case mysql.AUTH_SHA256_PASSWORD:
		if len(c.password) == 0 {
			return nil, nil
		}
		if c.tlsConfig != nil || c.proto == "unix" {
			// cleartext over a secured transport
			return []byte(c.password), nil
		}
		// request the server public key
		// see: https://dev.mysql.com/doc/internals/en/public-key-retrieval.html
		return []byte{1}, nil
	default:
		return nil, errors.Errorf("unknown auth plugin name %q", c.authPluginName)
	}
}

// See: http://dev.mysql.com/doc/internals/en/connection-phase-packets.html#packet-Protocol::HandshakeResponse
func (c *Conn) writeAuthHandshake() error {
	auth, err := c.calcAuthData()
	if err != nil {
		return errors.Trace(err)
	}

	// Adjust client capability flags based on server support
	capability := mysql.CLIENT_PROTOCOL_41 | mysql.CLIENT_SECURE_CONNECTION |
		mysql.CLIENT_LONG_PASSWORD | mysql.CLIENT_TRANSACTIONS | mysql.CLIENT_PLUGIN_AUTH |
		(c.capability & mysql.CLIENT_LONG_FLAG)

	// carry multi-statements when the server offers it, transaction
	// definitions batch their begin sequence through it
	capability |= c.capability & mysql.CLIENT_MULTI_STATEMENTS
	capability |= c.capability & mysql.CLIENT_MULTI_RESULTS
	capability |= c.ccaps & c.capability

	if c.tlsConfig != nil {
		capability |= mysql.CLIENT_SSL
	}

	// packet length
	// capability 4
	// max-packet size 4
	// charset 1
	// reserved all[0] 23
	// username
	// auth
	// plugin name + null-terminated
	length := 4 + 4 + 1 + 23 + len(c.user) + 1 + 1 + len(auth) + len(c.authPluginName) + 1

	// db name
	if len(c.db) > 0 {
		capability |= mysql.CLIENT_CONNECT_WITH_DB
		length += len(c.db) + 1
	}

	var attrData []byte
	if c.capability&mysql.CLIENT_CONNECT_ATTRS != 0 && len(c.attributes) > 0 {
		capability |= mysql.CLIENT_CONNECT_ATTRS
		attrData = c.encodeAttributes()
		length += len(attrData)
	}

	data := make([]byte, length+4)

	// capability [32 bit]
	data[4] = byte(capability)
	data[5] = byte(capability >> 8)
	data[6] = byte(capability >> 16)
	data[7] = byte(capability >> 24)

	// MaxPacketSize [32 bit] (none)
	data[8] = 0x00
	data[9] = 0x00
	data[10] = 0x00
	data[11] = 0x00

	// Charset [1 byte]
	data[12] = mysql.DEFAULT_COLLATION_ID

	// SSL Connection Request Packet
	// http://dev.mysql.com/doc/internals/en/connection-phase-packets.html#packet-Protocol::SSLRequest
	if c.tlsConfig != nil {
		// Send TLS / SSL request packet
		if err := c.WritePacket(data[:(4+4+1+23)+4]); err != nil {
			return errors.Trace(err)
		}

		// Switch to TLS
		tlsConn := tls.Client(c.Conn.Conn, c.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			return errors.Trace(err)
		}

		currentSequence := c.Sequence
		c.Conn = packet.NewConnWithTimeout(tlsConn, c.ReadTimeout, c.WriteTimeout, c.BufferSize)
		c.Sequence = currentSequence
	}

	// Filler [23 bytes] (all 0x00)
	pos := 13 + 23

	// User [null terminated string]
	if len(c.user) > 0 {
		pos += copy(data[pos:], c.user)
	}
	data[pos] = 0x00
	pos++

	// auth [length encoded]
	if auth == nil {
		data[pos] = 0x00
		pos++
	} else {
		data[pos] = byte(len(auth))
		pos += 1 + copy(data[pos+1:], auth)
	}

	// db [null terminated string]
	if len(c.db) > 0 {
		pos += copy(data[pos:], c.db)
		data[pos] = 0x00
		pos++
	}

	// plugin name [null terminated string]
	pos += copy(data[pos:], c.authPluginName)
	data[pos] = 0x00
	pos++

	if attrData != nil {
		copy(data[pos:], attrData)
	}

	return errors.Trace(c.WritePacket(data))
}

func (c *Conn) encodeAttributes() []byte {
	var kv []byte
	for k, v := range c.attributes {
		kv = append(kv, mysql.PutLengthEncodedString([]byte(k))...)
		kv = append(kv, mysql.PutLengthEncodedString([]byte(v))...)
	}

	out := mysql.PutLengthEncodedInt(uint64(len(kv)))
	return append(out, kv...)
}

// handleAuthResult drives the post-response auth exchanges: auth switch,
// caching_sha2 fast/full paths, RSA public key retrieval.
func (c *Conn) handleAuthResult() error {
	data, err := c.readAuthResult()
	if err != nil {
		return errors.Trace(err)
	}

	// auth switch request
	if data != nil && data[0] == mysql.EOF_HEADER {
		if err = c.handleAuthSwitch(data); err != nil {
			return errors.Trace(err)
		}
		data, err = c.readAuthResult()
		if err != nil {
			return errors.Trace(err)
		}
	}

	if data == nil {
		// already got the final OK
		return nil
	}

	switch c.authPluginName {
	case mysql.AUTH_CACHING_SHA2_PASSWORD:
		switch data[1] {
		case mysql.CACHE_SHA2_FAST_AUTH:
			_, err = c.readOK()
			return errors.Trace(err)
		case mysql.CACHE_SHA2_FULL_AUTH:
			if c.tlsConfig != nil || c.proto == "unix" {
				if err = c.writeClearAuthPacket(); err != nil {
					return errors.Trace(err)
				}
			} else if err = c.writePublicKeyAuthPacket(); err != nil {
				return errors.Trace(err)
			}
			_, err = c.readOK()
			return errors.Trace(err)
		}
		return errors.Trace(mysql.ErrMalformPacket)

	case mysql.AUTH_SHA256_PASSWORD:
		// data holds the server public key
		block, _ := pem.Decode(data[1:])
		if block == nil {
			return errors.New("no pem data found in server response")
		}
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return errors.Trace(err)
		}
		enc, err := mysql.EncryptPassword(c.password, c.salt, pub.(*rsa.PublicKey))
		if err != nil {
			return errors.Trace(err)
		}
		if err = c.WritePacket(append(make([]byte, 4), enc...)); err != nil {
			return errors.Trace(err)
		}
		_, err = c.readOK()
		return errors.Trace(err)
	}

	return errors.Trace(mysql.ErrMalformPacket)
}

// readAuthResult reads one auth-phase packet; nil means the final OK arrived.
func (c *Conn) readAuthResult() ([]byte, error) {
	data, err := c.ReadPacket()
	if err != nil {
		return nil, errors.Trace(err)
	}

	switch data[0] {
	case mysql.OK_HEADER:
		if _, err := c.handleOKPacket(data); err != nil {
			return nil, errors.Trace(err)
		}
		return nil, nil
	case mysql.ERR_HEADER:
		return nil, errors.Trace(c.handleErrorPacket(data))
	case mysql.MORE_DATE_HEADER, mysql.EOF_HEADER:
		return data, nil
	}

	return nil, errors.Trace(mysql.ErrMalformPacket)
}

func (c *Conn) handleAuthSwitch(data []byte) error {
	// EOF_HEADER, plugin name, 0x00, auth data
	rest := data[1:]
	idx := bytes.IndexByte(rest, 0x00)
	if idx == -1 {
		return errors.Trace(mysql.ErrMalformPacket)
	}

	c.authPluginName = string(rest[:idx])
	salt := rest[idx+1:]
	if n := bytes.IndexByte(salt, 0x00); n != -1 {
		salt = salt[:n]
	}
	if len(salt) > 0 {
		c.salt = salt
	}

	auth, err := c.calcAuthData()
	if err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(c.WritePacket(append(make([]byte, 4), auth...)))
}

func (c *Conn) writeClearAuthPacket() error {
	// password as null terminated string
	data := make([]byte, 4, 4+len(c.password)+1)
	data = append(data, c.password...)
	data = append(data, 0x00)

	return errors.Trace(c.WritePacket(data))
}

func (c *Conn) writePublicKeyAuthPacket() error {
	// request the server public key
	if err := c.WritePacket([]byte{0, 0, 0, 0, 2}); err != nil {
		return errors.Trace(err)
	}

	data, err := c.ReadPacket()
	if err != nil {
		return errors.Trace(err)
	}

	block, _ := pem.Decode(data[1:])
	if block == nil {
		return errors.New("no pem data found in server response")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return errors.Trace(err)
	}

	enc, err := mysql.EncryptPassword(c.password, c.salt, pub.(*rsa.PublicKey))
	if err != nil {
		return errors.Trace(err)
	}

	return errors.Trace(c.WritePacket(append(make([]byte, 4), enc...)))
}
