package client

import (
	"encoding/binary"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/codec"
	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/utils"
)

// Stmt is a server-prepared statement handle: the server-assigned id plus
// the parameter-slot and column counts from the prepare response.
type Stmt struct {
	conn *Conn
	id   uint32
	sql  string

	params   int
	columns  int
	warnings int
}

func (s *Stmt) ParamNum() int {
	return s.params
}

func (s *Stmt) ColumnNum() int {
	return s.columns
}

func (s *Stmt) WarningsNum() int {
	return s.warnings
}

// Execute encodes args through the codec registry and runs the statement
// over the binary protocol.
func (s *Stmt) Execute(args ...interface{}) (*mysql.Result, error) {
	binding, err := s.conn.codecs.EncodeBinding(args, s.conn.codecCtx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.ExecuteBinding(binding)
}

// ExecuteBinding runs the statement with an already-encoded binding.
func (s *Stmt) ExecuteBinding(binding codec.Binding) (*mysql.Result, error) {
	if err := s.write(binding); err != nil {
		return nil, errors.Trace(err)
	}

	return s.conn.readResult(true)
}

// Close releases the server-side handle.
func (s *Stmt) Close() error {
	return errors.Trace(s.closeServer())
}

// closeServer sends COM_STMT_CLOSE; the command has no response.
func (s *Stmt) closeServer() error {
	return s.conn.writeCommandUint32(mysql.COM_STMT_CLOSE, s.id)
}

// https://dev.mysql.com/doc/dev/mysql-server/latest/page_protocol_com_stmt_execute.html
func (s *Stmt) write(binding codec.Binding) error {
	paramsNum := s.params

	if len(binding) != paramsNum {
		return errors.Errorf("binding mismatch, need %d parameters but got %d", paramsNum, len(binding))
	}

	// NULL-bitmap, length: (num-params+7)/8
	nullBitmap := make([]byte, (paramsNum+7)>>3)

	paramTypes := make([]byte, 0, paramsNum*2)
	paramValues := utils.BytesBufferGet()
	defer utils.BytesBufferPut(paramValues)

	for i, p := range binding {
		if p == nil || p.IsNull() {
			nullBitmap[i/8] |= 1 << (uint(i) % 8)
			paramTypes = append(paramTypes, mysql.MYSQL_TYPE_NULL, 0)
			continue
		}

		var flag byte
		if p.Unsigned() {
			flag = mysql.PARAM_UNSIGNED
		}
		paramTypes = append(paramTypes, p.Type(), flag)

		if err := p.WriteBinary(paramValues); err != nil {
			return errors.Trace(err)
		}
	}

	data := utils.BytesBufferGet()
	defer utils.BytesBufferPut(data)

	data.Grow(4 + 1 + 4 + 1 + 4 + len(nullBitmap) + 1 + len(paramTypes) + paramValues.Len())

	data.Write([]byte{0, 0, 0, 0})
	data.WriteByte(mysql.COM_STMT_EXECUTE)
	data.Write([]byte{byte(s.id), byte(s.id >> 8), byte(s.id >> 16), byte(s.id >> 24)})

	// flags, no cursor
	data.WriteByte(mysql.CURSOR_TYPE_NO_CURSOR)

	// iteration-count, always 1
	data.Write([]byte{1, 0, 0, 0})

	if paramsNum > 0 {
		data.Write(nullBitmap)

		// new-params-bound-flag
		data.WriteByte(1)

		data.Write(paramTypes)
		data.Write(paramValues.Bytes())
	}

	s.conn.ResetSequence()

	return errors.Trace(s.conn.WritePacket(data.Bytes()))
}

// Prepare sends COM_STMT_PREPARE and parses the prepare response. The handle
// is not cached; statement factories go through the prepared-statement cache
// instead.
func (c *Conn) Prepare(query string) (*Stmt, error) {
	if err := c.writeCommandStr(mysql.COM_STMT_PREPARE, query); err != nil {
		return nil, errors.Trace(err)
	}

	data, err := c.ReadPacket()
	if err != nil {
		return nil, errors.Trace(err)
	}

	if data[0] == mysql.ERR_HEADER {
		return nil, c.handleErrorPacket(data)
	} else if data[0] != mysql.OK_HEADER {
		return nil, errors.Trace(mysql.ErrMalformPacket)
	}

	s := new(Stmt)
	s.conn = c
	s.sql = query

	pos := 1

	// statement id
	s.id = binary.LittleEndian.Uint32(data[pos:])
	pos += 4

	// number columns
	s.columns = int(binary.LittleEndian.Uint16(data[pos:]))
	pos += 2

	// number params
	s.params = int(binary.LittleEndian.Uint16(data[pos:]))
	pos += 2

	// warnings
	pos++
	s.warnings = int(binary.LittleEndian.Uint16(data[pos:]))

	if s.params > 0 {
		if err := s.conn.readUntilEOF(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if s.columns > 0 {
		if err := s.conn.readUntilEOF(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	return s, nil
}
