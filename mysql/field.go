package mysql

import (
	"encoding/binary"

	"github.com/pingcap/errors"
)

// FieldData is the raw column-definition payload of one column.
type FieldData []byte

// Field is the metadata of one result-set column, alive for the duration of
// the result set.
type Field struct {
	Data         FieldData
	Schema       []byte
	Table        []byte
	OrgTable     []byte
	Name         []byte
	OrgName      []byte
	Charset      uint16
	ColumnLength uint32
	Type         byte
	Flag         uint16
	Decimal      uint8

	DefaultValueLength uint64
	DefaultValue       []byte
}

// IsUnsigned reports whether the column carries the UNSIGNED flag.
func (f *Field) IsUnsigned() bool {
	return f.Flag&UNSIGNED_FLAG != 0
}

// IsBinary reports whether the column is of the BINARY family rather than a
// character column, judged by its collation.
func (f *Field) IsBinary() bool {
	return f.Charset == uint16(BINARY_COLLATION_ID)
}

// IsNumeric reports whether the column type belongs to the numeric family.
func (f *Field) IsNumeric() bool {
	return IsNumericType(f.Type)
}

// IsNumericType returns true if the given type is numeric.
func IsNumericType(typ byte) bool {
	switch typ {
	case MYSQL_TYPE_TINY,
		MYSQL_TYPE_SHORT,
		MYSQL_TYPE_INT24,
		MYSQL_TYPE_LONG,
		MYSQL_TYPE_LONGLONG,
		MYSQL_TYPE_YEAR,
		MYSQL_TYPE_FLOAT,
		MYSQL_TYPE_DOUBLE,
		MYSQL_TYPE_DECIMAL,
		MYSQL_TYPE_NEWDECIMAL:
		return true

	default:
		return false
	}
}

// IsTemporalType returns true for DATE/TIME/DATETIME/TIMESTAMP columns.
func IsTemporalType(typ byte) bool {
	switch typ {
	case MYSQL_TYPE_DATE, MYSQL_TYPE_NEWDATE, MYSQL_TYPE_TIME,
		MYSQL_TYPE_DATETIME, MYSQL_TYPE_TIMESTAMP:
		return true
	default:
		return false
	}
}

// Parse decodes a protocol 4.1 column definition packet.
func (p FieldData) Parse() (f *Field, err error) {
	f = new(Field)

	f.Data = p

	var n int
	pos := 0
	// skip "def"
	n, err = SkipLengthEncodedString(p)
	if err != nil {
		return nil, errors.Trace(err)
	}
	pos += n

	// schema
	f.Schema, _, n, err = LengthEncodedString(p[pos:])
	if err != nil {
		return nil, errors.Trace(err)
	}
	pos += n

	// table
	f.Table, _, n, err = LengthEncodedString(p[pos:])
	if err != nil {
		return nil, errors.Trace(err)
	}
	pos += n

	// org_table
	f.OrgTable, _, n, err = LengthEncodedString(p[pos:])
	if err != nil {
		return nil, errors.Trace(err)
	}
	pos += n

	// name
	f.Name, _, n, err = LengthEncodedString(p[pos:])
	if err != nil {
		return nil, errors.Trace(err)
	}
	pos += n

	// org_name
	f.OrgName, _, n, err = LengthEncodedString(p[pos:])
	if err != nil {
		return nil, errors.Trace(err)
	}
	pos += n

	// skip fixed-length fields count 0x0c
	pos++

	// charset
	f.Charset = binary.LittleEndian.Uint16(p[pos:])
	pos += 2

	// column length
	f.ColumnLength = binary.LittleEndian.Uint32(p[pos:])
	pos += 4

	// type
	f.Type = p[pos]
	pos++

	// flag
	f.Flag = binary.LittleEndian.Uint16(p[pos:])
	pos += 2

	// decimals 1
	f.Decimal = p[pos]
	pos++

	// filler [2]
	pos += 2

	// if more data, command was field list
	if len(p) > pos {
		// length of default value lenenc-int
		f.DefaultValueLength, _, n = LengthEncodedInt(p[pos:])
		pos += n

		if pos+int(f.DefaultValueLength) > len(p) {
			err = ErrMalformPacket
			return nil, errors.Trace(err)
		}

		// default value string[$len]
		f.DefaultValue = p[pos:(pos + int(f.DefaultValueLength))]
	}

	return f, nil
}
