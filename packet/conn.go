// Package packet implements the MySQL packet framing layer: 4-byte headers,
// sequence tracking and 16 MiB payload splitting. Everything above it deals
// in whole payloads.
package packet

import (
	"bufio"
	"io"
	"net"
	"time"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
)

// Conn wraps a net.Conn with MySQL packet framing.
type Conn struct {
	net.Conn

	br     *bufio.Reader
	reader io.Reader

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Sequence uint8
}

func NewConn(conn net.Conn) *Conn {
	return NewConnWithTimeout(conn, 0, 0, 4096)
}

func NewConnWithTimeout(conn net.Conn, readTimeout, writeTimeout time.Duration, bufferSize int) *Conn {
	c := &Conn{
		Conn:         conn,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	c.br = bufio.NewReaderSize(conn, bufferSize)
	c.reader = c.br

	return c
}

// ReadPacket reads one full payload, reassembling packets split at the
// 16 MiB boundary.
func (c *Conn) ReadPacket() ([]byte, error) {
	var prevData []byte
	for {
		if c.ReadTimeout != 0 {
			if err := c.Conn.SetReadDeadline(time.Now().Add(c.ReadTimeout)); err != nil {
				return nil, mysql.ErrBadConn
			}
		}

		// read packet header
		header := []byte{0, 0, 0, 0}
		if _, err := io.ReadFull(c.reader, header); err != nil {
			return nil, mysql.ErrBadConn
		}

		// packet length [24 bit]
		length := int(uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16)

		// check packet sync [8 bit]
		sequence := header[3]
		if sequence != c.Sequence {
			return nil, errors.Errorf("invalid sequence %d != %d", sequence, c.Sequence)
		}
		c.Sequence++

		// packets with length 0 terminate a previous packet which is a
		// multiple of (2^24)-1 bytes long
		if length == 0 {
			// there was no previous packet
			if prevData == nil {
				return nil, errors.Errorf("invalid payload length %d", length)
			}
			return prevData, nil
		}

		// read packet body [length bytes]
		data := make([]byte, length)
		if _, err := io.ReadFull(c.reader, data); err != nil {
			return nil, mysql.ErrBadConn
		}

		// return data if this was the last packet
		if length < mysql.MaxPayloadLen {
			// zero allocations for non-split packets
			if prevData == nil {
				return data, nil
			}

			return append(prevData, data...), nil
		}
		prevData = append(prevData, data...)
	}
}

// WritePacket writes data, which already has the 4 bytes header reserved,
// splitting payloads at the 16 MiB boundary. It modifies data in place.
func (c *Conn) WritePacket(data []byte) error {
	length := len(data) - 4

	for {
		var size int
		if length >= mysql.MaxPayloadLen {
			data[0] = 0xff
			data[1] = 0xff
			data[2] = 0xff
			size = mysql.MaxPayloadLen
		} else {
			data[0] = byte(length)
			data[1] = byte(length >> 8)
			data[2] = byte(length >> 16)
			size = length
		}
		data[3] = c.Sequence

		if c.WriteTimeout != 0 {
			if err := c.Conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout)); err != nil {
				return mysql.ErrBadConn
			}
		}

		n, err := c.Write(data[:4+size])
		switch {
		case err != nil:
			return mysql.ErrBadConn
		case n != 4+size:
			return mysql.ErrBadConn
		default:
			c.Sequence++
			if size != mysql.MaxPayloadLen {
				return nil
			}
			length -= size
			data = data[size:]
		}
	}
}

func (c *Conn) ResetSequence() {
	c.Sequence = 0
}

func (c *Conn) Close() error {
	c.Sequence = 0
	if c.Conn != nil {
		return c.Conn.Close()
	}
	return nil
}
