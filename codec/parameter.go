package codec

import (
	"bytes"
	"strings"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
)

// Parameter is an encoder-backed bind value. It carries its nominal MySQL
// type tag and can serialise itself once as binary payload bytes and once as
// a text literal. Parameters are immutable apart from the consumption marks;
// two parameters are equal when type tag and binary payload match.
type Parameter struct {
	typ      byte
	unsigned bool

	// payload is the canonical binary form, written verbatim by WriteBinary.
	// For length-prefixed types it includes the length prefix.
	payload []byte

	// text emits the text-protocol literal, quoting included where the type
	// needs it.
	text func(*strings.Builder)

	binaryDone bool
	textDone   bool
}

func newParameter(typ byte, unsigned bool, payload []byte, text func(*strings.Builder)) *Parameter {
	return &Parameter{typ: typ, unsigned: unsigned, payload: payload, text: text}
}

// Type returns the nominal MySQL column type tag of the bind value.
func (p *Parameter) Type() byte {
	return p.typ
}

// Unsigned reports whether the bind carries the unsigned parameter flag.
func (p *Parameter) Unsigned() bool {
	return p.unsigned
}

// WriteBinary appends the binary payload to buf. A parameter can be emitted
// at most once per channel; a second call returns ErrParameterReused.
func (p *Parameter) WriteBinary(buf *bytes.Buffer) error {
	if p.binaryDone {
		return errors.Trace(ErrParameterReused)
	}
	p.binaryDone = true

	buf.Write(p.payload)
	return nil
}

// WriteText appends the text literal to sb. A parameter can be emitted at
// most once per channel; a second call returns ErrParameterReused.
func (p *Parameter) WriteText(sb *strings.Builder) error {
	if p.textDone {
		return errors.Trace(ErrParameterReused)
	}
	p.textDone = true

	p.text(sb)
	return nil
}

// Equal implements value equality by (type, payload bytes).
func (p *Parameter) Equal(o *Parameter) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.typ == o.typ && p.unsigned == o.unsigned && bytes.Equal(p.payload, o.payload)
}

// NullParameter is the bind for SQL NULL.
func NullParameter() *Parameter {
	return newParameter(mysql.MYSQL_TYPE_NULL, false, nil, func(sb *strings.Builder) {
		sb.WriteString("NULL")
	})
}

// IsNull reports whether the parameter is the SQL NULL bind.
func (p *Parameter) IsNull() bool {
	return p.typ == mysql.MYSQL_TYPE_NULL
}

// Binding is the ordered tuple of parameters for one execute.
type Binding []*Parameter
