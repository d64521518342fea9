package client

import (
	"encoding/binary"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/utils"
)

func (c *Conn) readUntilEOF() error {
	for {
		data, err := c.ReadPacket()
		if err != nil {
			return errors.Trace(err)
		}

		// EOF Packet
		if c.isEOFPacket(data) {
			return nil
		}
	}
}

func (c *Conn) isEOFPacket(data []byte) bool {
	return data[0] == mysql.EOF_HEADER && len(data) <= 5
}

// handleOKPacket parses an OK packet and publishes the server-status word it
// carries; the word drives the transaction and autocommit state accessors.
func (c *Conn) handleOKPacket(data []byte) (*mysql.Result, error) {
	var n int
	pos := 1

	r := new(mysql.Result)

	r.AffectedRows, _, n = mysql.LengthEncodedInt(data[pos:])
	pos += n
	r.InsertId, _, n = mysql.LengthEncodedInt(data[pos:])
	pos += n

	if c.capability&mysql.CLIENT_PROTOCOL_41 > 0 {
		r.Status = binary.LittleEndian.Uint16(data[pos:])
		c.status.Store(uint32(r.Status))
		pos += 2

		r.Warnings = binary.LittleEndian.Uint16(data[pos:])
		// pos += 2
	} else if c.capability&mysql.CLIENT_TRANSACTIONS > 0 {
		r.Status = binary.LittleEndian.Uint16(data[pos:])
		c.status.Store(uint32(r.Status))
		// pos += 2
	}

	// skip info
	return r, nil
}

// handleErrorPacket surfaces a server ERR packet as a MyError. The
// connection remains usable unless the error is state-fatal.
func (c *Conn) handleErrorPacket(data []byte) error {
	e := new(mysql.MyError)

	pos := 1

	e.Code = binary.LittleEndian.Uint16(data[pos:])
	pos += 2

	if c.capability&mysql.CLIENT_PROTOCOL_41 > 0 {
		// skip '#'
		pos++
		e.State = string(data[pos : pos+5])
		pos += 5
	}

	e.Message = string(data[pos:])

	return e
}

func (c *Conn) readOK() (*mysql.Result, error) {
	data, err := c.ReadPacket()
	if err != nil {
		return nil, errors.Trace(err)
	}

	switch {
	case data[0] == mysql.OK_HEADER:
		return c.handleOKPacket(data)
	case data[0] == mysql.ERR_HEADER:
		return nil, c.handleErrorPacket(data)
	default:
		return nil, errors.New("invalid ok packet")
	}
}

func (c *Conn) readResult(binary bool) (*mysql.Result, error) {
	data, err := c.ReadPacket()
	if err != nil {
		return nil, errors.Trace(err)
	}

	switch {
	case data[0] == mysql.OK_HEADER:
		return c.handleOKPacket(data)
	case data[0] == mysql.ERR_HEADER:
		return nil, c.handleErrorPacket(data)
	case data[0] == mysql.LocalInFile_HEADER:
		return nil, errors.Trace(mysql.ErrMalformPacket)
	}

	return c.readResultset(data, binary)
}

func (c *Conn) readResultset(data []byte, binary bool) (*mysql.Result, error) {
	// column count
	count, _, n := mysql.LengthEncodedInt(data)

	if n-len(data) != 0 {
		return nil, errors.Trace(mysql.ErrMalformPacket)
	}

	result := mysql.NewResult(mysql.NewResultset(int(count)))
	result.Binary = binary

	if err := c.readResultColumns(result); err != nil {
		return nil, errors.Trace(err)
	}

	if err := c.readResultRows(result, binary); err != nil {
		return nil, errors.Trace(err)
	}

	return result, nil
}

func (c *Conn) readResultColumns(result *mysql.Result) error {
	i := 0

	for {
		data, err := c.ReadPacket()
		if err != nil {
			return errors.Trace(err)
		}

		// EOF Packet
		if c.isEOFPacket(data) {
			if c.capability&mysql.CLIENT_PROTOCOL_41 > 0 {
				result.Status = binary.LittleEndian.Uint16(data[3:])
				c.status.Store(uint32(result.Status))
			}

			if i != len(result.Fields) {
				return errors.Trace(mysql.ErrMalformPacket)
			}

			return nil
		}

		if result.Fields[i], err = mysql.FieldData(data).Parse(); err != nil {
			return errors.Trace(err)
		}

		result.FieldNames[utils.ByteSliceToString(result.Fields[i].Name)] = i

		i++
	}
}

func (c *Conn) readResultRows(result *mysql.Result, isBinary bool) error {
	for {
		data, err := c.ReadPacket()
		if err != nil {
			return errors.Trace(err)
		}

		// EOF Packet
		if c.isEOFPacket(data) {
			if c.capability&mysql.CLIENT_PROTOCOL_41 > 0 {
				result.Status = binary.LittleEndian.Uint16(data[3:])
				c.status.Store(uint32(result.Status))
			}

			break
		}

		if data[0] == mysql.ERR_HEADER {
			return c.handleErrorPacket(data)
		}

		result.RowDatas = append(result.RowDatas, data)
	}

	result.Values = make([][]mysql.FieldValue, len(result.RowDatas))

	var err error
	for i := range result.Values {
		result.Values[i], err = result.RowDatas[i].Parse(result.Fields, isBinary, result.Values[i])
		if err != nil {
			return errors.Trace(err)
		}
	}

	return nil
}
