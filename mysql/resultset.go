package mysql

import (
	"strconv"

	"github.com/T45K/go-mysql-session/utils"
	"github.com/pingcap/errors"
)

// RowData is the raw payload of one row packet. Splitting into per-column
// payloads happens here; interpreting a single column payload as a typed
// value is the codec package's job.
type RowData []byte

func (p RowData) Parse(f []*Field, binary bool, dst []FieldValue) ([]FieldValue, error) {
	if binary {
		return p.ParseBinary(f, dst)
	}
	return p.ParseText(f, dst)
}

// SplitText cuts a text-protocol row into per-column payloads. A nil slice
// marks SQL NULL.
func (p RowData) SplitText(f []*Field) ([][]byte, error) {
	cols := make([][]byte, len(f))

	var pos int
	for i := range f {
		v, isNull, n, err := LengthEncodedString(p[pos:])
		if err != nil {
			return nil, errors.Trace(err)
		}
		pos += n

		if isNull {
			cols[i] = nil
		} else if v == nil {
			cols[i] = []byte{}
		} else {
			cols[i] = v
		}
	}

	return cols, nil
}

// SplitBinary cuts a binary-protocol row into per-column payloads, using the
// column types to find each fixed or length-prefixed payload. A nil slice
// marks SQL NULL. Length prefixes of DATE/TIME/DATETIME payloads are
// consumed; the returned payload starts at the first content byte.
func (p RowData) SplitBinary(f []*Field) ([][]byte, error) {
	if len(p) == 0 || p[0] != OK_HEADER {
		return nil, errors.Trace(ErrMalformPacket)
	}

	cols := make([][]byte, len(f))

	pos := 1 + ((len(f) + 7 + 2) >> 3)
	if pos > len(p) {
		return nil, errors.Trace(ErrMalformPacket)
	}
	nullBitmap := p[1:pos]

	take := func(n int) ([]byte, error) {
		if pos+n > len(p) {
			return nil, errors.Trace(ErrMalformPacket)
		}
		v := p[pos : pos+n : pos+n]
		pos += n
		return v, nil
	}

	var err error
	for i := range f {
		if nullBitmap[(i+2)/8]&(1<<(uint(i+2)%8)) > 0 {
			cols[i] = nil
			continue
		}

		switch f[i].Type {
		case MYSQL_TYPE_NULL:
			cols[i] = nil

		case MYSQL_TYPE_TINY:
			if cols[i], err = take(1); err != nil {
				return nil, err
			}

		case MYSQL_TYPE_SHORT, MYSQL_TYPE_YEAR:
			if cols[i], err = take(2); err != nil {
				return nil, err
			}

		case MYSQL_TYPE_INT24, MYSQL_TYPE_LONG, MYSQL_TYPE_FLOAT:
			if cols[i], err = take(4); err != nil {
				return nil, err
			}

		case MYSQL_TYPE_LONGLONG, MYSQL_TYPE_DOUBLE:
			if cols[i], err = take(8); err != nil {
				return nil, err
			}

		case MYSQL_TYPE_DATE, MYSQL_TYPE_NEWDATE, MYSQL_TYPE_TIME,
			MYSQL_TYPE_TIMESTAMP, MYSQL_TYPE_DATETIME:
			num, isNull, n := LengthEncodedInt(p[pos:])
			pos += n
			if isNull {
				cols[i] = nil
				continue
			}
			if cols[i], err = take(int(num)); err != nil {
				return nil, err
			}

		case MYSQL_TYPE_DECIMAL, MYSQL_TYPE_NEWDECIMAL, MYSQL_TYPE_VARCHAR,
			MYSQL_TYPE_BIT, MYSQL_TYPE_ENUM, MYSQL_TYPE_SET, MYSQL_TYPE_TINY_BLOB,
			MYSQL_TYPE_MEDIUM_BLOB, MYSQL_TYPE_LONG_BLOB, MYSQL_TYPE_BLOB,
			MYSQL_TYPE_VAR_STRING, MYSQL_TYPE_STRING, MYSQL_TYPE_JSON,
			MYSQL_TYPE_GEOMETRY:
			v, isNull, n, err := LengthEncodedString(p[pos:])
			if err != nil {
				return nil, errors.Trace(err)
			}
			pos += n
			if isNull {
				cols[i] = nil
			} else {
				cols[i] = v
			}

		default:
			return nil, errors.Errorf("unknown field type %d %s", f[i].Type, f[i].Name)
		}
	}

	return cols, nil
}

func (p RowData) ParseText(f []*Field, dst []FieldValue) ([]FieldValue, error) {
	for len(dst) < len(f) {
		dst = append(dst, FieldValue{})
	}
	data := dst[:len(f)]

	var err error
	var v []byte
	var isNull bool
	var pos, n int

	for i := range f {
		v, isNull, n, err = LengthEncodedString(p[pos:])
		if err != nil {
			return nil, errors.Trace(err)
		}

		pos += n

		if isNull {
			data[i].Type = FieldValueTypeNull
		} else {
			isUnsigned := f[i].Flag&UNSIGNED_FLAG != 0

			switch f[i].Type {
			case MYSQL_TYPE_TINY, MYSQL_TYPE_SHORT, MYSQL_TYPE_INT24,
				MYSQL_TYPE_LONGLONG, MYSQL_TYPE_LONG, MYSQL_TYPE_YEAR:
				if isUnsigned {
					data[i].Type = FieldValueTypeUnsigned
					data[i].Uint64, err = strconv.ParseUint(utils.ByteSliceToString(v), 10, 64)
				} else {
					data[i].Type = FieldValueTypeSigned
					data[i].Int64, err = strconv.ParseInt(utils.ByteSliceToString(v), 10, 64)
				}
			case MYSQL_TYPE_FLOAT, MYSQL_TYPE_DOUBLE:
				data[i].Type = FieldValueTypeFloat
				data[i].Float, err = strconv.ParseFloat(utils.ByteSliceToString(v), 64)
			default:
				data[i].Type = FieldValueTypeString
				data[i].String = append(data[i].String[:0], v...)
			}

			if err != nil {
				return nil, errors.Trace(err)
			}
		}
	}

	return data, nil
}

// ParseBinary parses the binary format of data
// see https://dev.mysql.com/doc/internals/en/binary-protocol-value.html
func (p RowData) ParseBinary(f []*Field, dst []FieldValue) ([]FieldValue, error) {
	for len(dst) < len(f) {
		dst = append(dst, FieldValue{})
	}
	data := dst[:len(f)]

	if p[0] != OK_HEADER {
		return nil, errors.Trace(ErrMalformPacket)
	}

	pos := 1 + ((len(f) + 7 + 2) >> 3)

	nullBitmap := p[1:pos]

	var isNull bool
	var n int
	var err error
	var v []byte
	for i := range data {
		if nullBitmap[(i+2)/8]&(1<<(uint(i+2)%8)) > 0 {
			data[i].Type = FieldValueTypeNull
			continue
		}

		isUnsigned := f[i].Flag&UNSIGNED_FLAG != 0

		switch f[i].Type {
		case MYSQL_TYPE_NULL:
			data[i].Type = FieldValueTypeNull
			continue

		case MYSQL_TYPE_TINY:
			if isUnsigned {
				data[i].Type = FieldValueTypeUnsigned
				data[i].Uint64 = ParseBinaryUint8(p[pos : pos+1])
			} else {
				data[i].Type = FieldValueTypeSigned
				data[i].Int64 = ParseBinaryInt8(p[pos : pos+1])
			}
			pos++
			continue

		case MYSQL_TYPE_SHORT, MYSQL_TYPE_YEAR:
			if isUnsigned {
				data[i].Type = FieldValueTypeUnsigned
				data[i].Uint64 = ParseBinaryUint16(p[pos : pos+2])
			} else {
				data[i].Type = FieldValueTypeSigned
				data[i].Int64 = ParseBinaryInt16(p[pos : pos+2])
			}
			pos += 2
			continue

		case MYSQL_TYPE_INT24, MYSQL_TYPE_LONG:
			if isUnsigned {
				data[i].Type = FieldValueTypeUnsigned
				data[i].Uint64 = ParseBinaryUint32(p[pos : pos+4])
			} else {
				data[i].Type = FieldValueTypeSigned
				data[i].Int64 = ParseBinaryInt32(p[pos : pos+4])
			}
			pos += 4
			continue

		case MYSQL_TYPE_LONGLONG:
			if isUnsigned {
				data[i].Type = FieldValueTypeUnsigned
				data[i].Uint64 = ParseBinaryUint64(p[pos : pos+8])
			} else {
				data[i].Type = FieldValueTypeSigned
				data[i].Int64 = ParseBinaryInt64(p[pos : pos+8])
			}
			pos += 8
			continue

		case MYSQL_TYPE_FLOAT:
			data[i].Type = FieldValueTypeFloat
			data[i].Float = ParseBinaryFloat32(p[pos : pos+4])
			pos += 4
			continue

		case MYSQL_TYPE_DOUBLE:
			data[i].Type = FieldValueTypeFloat
			data[i].Float = ParseBinaryFloat64(p[pos : pos+8])
			pos += 8
			continue

		case MYSQL_TYPE_DECIMAL, MYSQL_TYPE_NEWDECIMAL, MYSQL_TYPE_VARCHAR,
			MYSQL_TYPE_BIT, MYSQL_TYPE_ENUM, MYSQL_TYPE_SET, MYSQL_TYPE_TINY_BLOB,
			MYSQL_TYPE_MEDIUM_BLOB, MYSQL_TYPE_LONG_BLOB, MYSQL_TYPE_BLOB,
			MYSQL_TYPE_VAR_STRING, MYSQL_TYPE_STRING, MYSQL_TYPE_JSON,
			MYSQL_TYPE_GEOMETRY:
			v, isNull, n, err = LengthEncodedString(p[pos:])
			pos += n
			if err != nil {
				return nil, errors.Trace(err)
			}

			if !isNull {
				data[i].Type = FieldValueTypeString
				data[i].String = append(data[i].String[:0], v...)
			} else {
				data[i].Type = FieldValueTypeNull
			}
			continue

		case MYSQL_TYPE_DATE, MYSQL_TYPE_NEWDATE:
			var num uint64
			num, isNull, n = LengthEncodedInt(p[pos:])

			pos += n

			if isNull {
				data[i].Type = FieldValueTypeNull
				continue
			}

			data[i].Type = FieldValueTypeString
			data[i].String, err = FormatBinaryDate(int(num), p[pos:])
			pos += int(num)

			if err != nil {
				return nil, errors.Trace(err)
			}

		case MYSQL_TYPE_TIMESTAMP, MYSQL_TYPE_DATETIME:
			var num uint64
			num, isNull, n = LengthEncodedInt(p[pos:])

			pos += n

			if isNull {
				data[i].Type = FieldValueTypeNull
				continue
			}

			data[i].Type = FieldValueTypeString
			data[i].String, err = FormatBinaryDateTime(int(num), p[pos:])
			pos += int(num)

			if err != nil {
				return nil, errors.Trace(err)
			}

		case MYSQL_TYPE_TIME:
			var num uint64
			num, isNull, n = LengthEncodedInt(p[pos:])

			pos += n

			if isNull {
				data[i].Type = FieldValueTypeNull
				continue
			}

			data[i].Type = FieldValueTypeString
			data[i].String, err = FormatBinaryTime(int(num), p[pos:])
			pos += int(num)

			if err != nil {
				return nil, errors.Trace(err)
			}

		default:
			return nil, errors.Errorf("unknown field type %d %s", f[i].Type, f[i].Name)
		}
	}

	return data, nil
}

// Resultset holds the columns and decoded rows of one statement response.
type Resultset struct {
	Fields     []*Field
	FieldNames map[string]int
	Values     [][]FieldValue

	RowDatas []RowData

	// Binary records which wire encoding the rows arrived in, so typed
	// accessors can re-decode cells through the codec layer.
	Binary bool
}

func NewResultset(fieldsCount int) *Resultset {
	return &Resultset{
		Fields:     make([]*Field, fieldsCount),
		FieldNames: make(map[string]int, fieldsCount),
	}
}

func (r *Resultset) RowNumber() int {
	return len(r.Values)
}

func (r *Resultset) ColumnNumber() int {
	return len(r.Fields)
}

func (r *Resultset) GetValue(row, column int) (interface{}, error) {
	if row >= len(r.Values) || row < 0 {
		return nil, errors.Errorf("invalid row index %d", row)
	}

	if column >= len(r.Fields) || column < 0 {
		return nil, errors.Errorf("invalid column index %d", column)
	}

	return r.Values[row][column].Value(), nil
}

func (r *Resultset) NameIndex(name string) (int, error) {
	if column, ok := r.FieldNames[name]; ok {
		return column, nil
	}
	return 0, errors.Errorf("invalid field name %s", name)
}

func (r *Resultset) GetValueByName(row int, name string) (interface{}, error) {
	column, err := r.NameIndex(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return r.GetValue(row, column)
}

func (r *Resultset) IsNull(row, column int) (bool, error) {
	d, err := r.GetValue(row, column)
	if err != nil {
		return false, err
	}

	return d == nil, nil
}

func (r *Resultset) IsNullByName(row int, name string) (bool, error) {
	column, err := r.NameIndex(name)
	if err != nil {
		return false, err
	}
	return r.IsNull(row, column)
}

func (r *Resultset) GetUint(row, column int) (uint64, error) {
	d, err := r.GetValue(row, column)
	if err != nil {
		return 0, err
	}

	switch v := d.(type) {
	case uint64:
		return v, nil
	case int64:
		return uint64(v), nil
	case float64:
		return uint64(v), nil
	case string:
		return strconv.ParseUint(v, 10, 64)
	case []byte:
		return strconv.ParseUint(string(v), 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, errors.Errorf("data type is %T", v)
	}
}

func (r *Resultset) GetUintByName(row int, name string) (uint64, error) {
	column, err := r.NameIndex(name)
	if err != nil {
		return 0, err
	}
	return r.GetUint(row, column)
}

func (r *Resultset) GetInt(row, column int) (int64, error) {
	d, err := r.GetValue(row, column)
	if err != nil {
		return 0, err
	}

	switch v := d.(type) {
	case uint64:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, errors.Errorf("data type is %T", v)
	}
}

func (r *Resultset) GetIntByName(row int, name string) (int64, error) {
	column, err := r.NameIndex(name)
	if err != nil {
		return 0, err
	}
	return r.GetInt(row, column)
}

func (r *Resultset) GetFloat(row, column int) (float64, error) {
	d, err := r.GetValue(row, column)
	if err != nil {
		return 0, err
	}

	switch v := d.(type) {
	case uint64:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case nil:
		return 0, nil
	default:
		return 0, errors.Errorf("data type is %T", v)
	}
}

func (r *Resultset) GetFloatByName(row int, name string) (float64, error) {
	column, err := r.NameIndex(name)
	if err != nil {
		return 0, err
	}
	return r.GetFloat(row, column)
}

func (r *Resultset) GetString(row, column int) (string, error) {
	d, err := r.GetValue(row, column)
	if err != nil {
		return "", err
	}

	switch v := d.(type) {
	case string:
		return v, nil
	case []byte:
		return utils.ByteSliceToString(v), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", errors.Errorf("data type is %T", v)
	}
}

func (r *Resultset) GetStringByName(row int, name string) (string, error) {
	column, err := r.NameIndex(name)
	if err != nil {
		return "", err
	}
	return r.GetString(row, column)
}
