package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"

	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/utils"
)

// intCodec decodes any numeric column into one integer target type, and
// encodes the matching Go type. There is one instance per width/signedness
// combination plus the platform-int umbrella.
type intCodec struct {
	target TargetType
}

func (c intCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	return target == c.target && f.IsNumeric()
}

func (c intCodec) Decode(data []byte, f *mysql.Field, _ TargetType, binary bool, _ *Context) (interface{}, error) {
	if f.IsUnsigned() {
		v, err := decodeWideUint(data, f, binary)
		if err != nil {
			return nil, err
		}
		return narrowUnsigned(v, c.target)
	}

	v, err := decodeWideInt(data, f, binary)
	if err != nil {
		return nil, err
	}
	return narrowSigned(v, c.target)
}

func (c intCodec) CanEncode(value interface{}) bool {
	switch value.(type) {
	case int8:
		return c.target == TargetInt8
	case uint8:
		return c.target == TargetUint8
	case int16:
		return c.target == TargetInt16
	case uint16:
		return c.target == TargetUint16
	case int32:
		return c.target == TargetInt32
	case uint32:
		return c.target == TargetUint32
	case int64:
		return c.target == TargetInt64
	case uint64:
		return c.target == TargetUint64
	case int, uint:
		return c.target == TargetInt
	default:
		return false
	}
}

func (c intCodec) Encode(value interface{}, _ *Context) *Parameter {
	switch v := value.(type) {
	case int8:
		return signedParameter(mysql.MYSQL_TYPE_TINY, int64(v), []byte{byte(v)})
	case uint8:
		return unsignedParameter(mysql.MYSQL_TYPE_TINY, uint64(v), []byte{v})
	case int16:
		return signedParameter(mysql.MYSQL_TYPE_SHORT, int64(v), mysql.Uint16ToBytes(uint16(v)))
	case uint16:
		return unsignedParameter(mysql.MYSQL_TYPE_SHORT, uint64(v), mysql.Uint16ToBytes(v))
	case int32:
		return signedParameter(mysql.MYSQL_TYPE_LONG, int64(v), mysql.Uint32ToBytes(uint32(v)))
	case uint32:
		return unsignedParameter(mysql.MYSQL_TYPE_LONG, uint64(v), mysql.Uint32ToBytes(v))
	case int64:
		return encodeNarrowedInt(v)
	case uint64:
		return encodeNarrowedUint(v)
	case int:
		return encodeNarrowedInt(int64(v))
	case uint:
		return encodeNarrowedUint(uint64(v))
	}

	// CanEncode guards the switch above.
	return nil
}

// encodeNarrowedInt picks the smallest on-wire type that losslessly
// represents the value, preferring the unsigned variant when the value fits
// it one width earlier. This keeps bind packets small.
func encodeNarrowedInt(v int64) *Parameter {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return signedParameter(mysql.MYSQL_TYPE_TINY, v, []byte{byte(int8(v))})
	case v >= 0 && v <= math.MaxUint8:
		return unsignedParameter(mysql.MYSQL_TYPE_TINY, uint64(v), []byte{byte(v)})
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return signedParameter(mysql.MYSQL_TYPE_SHORT, v, mysql.Uint16ToBytes(uint16(int16(v))))
	case v >= 0 && v <= math.MaxUint16:
		return unsignedParameter(mysql.MYSQL_TYPE_SHORT, uint64(v), mysql.Uint16ToBytes(uint16(v)))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return signedParameter(mysql.MYSQL_TYPE_LONG, v, mysql.Uint32ToBytes(uint32(int32(v))))
	case v >= 0 && v <= math.MaxUint32:
		return unsignedParameter(mysql.MYSQL_TYPE_LONG, uint64(v), mysql.Uint32ToBytes(uint32(v)))
	default:
		return signedParameter(mysql.MYSQL_TYPE_LONGLONG, v, mysql.Uint64ToBytes(uint64(v)))
	}
}

func encodeNarrowedUint(v uint64) *Parameter {
	if v <= math.MaxInt64 {
		return encodeNarrowedInt(int64(v))
	}
	return unsignedParameter(mysql.MYSQL_TYPE_LONGLONG, v, mysql.Uint64ToBytes(v))
}

func signedParameter(typ byte, v int64, payload []byte) *Parameter {
	return newParameter(typ, false, payload, func(sb *strings.Builder) {
		sb.WriteString(strconv.FormatInt(v, 10))
	})
}

func unsignedParameter(typ byte, v uint64, payload []byte) *Parameter {
	return newParameter(typ, true, payload, func(sb *strings.Builder) {
		sb.WriteString(strconv.FormatUint(v, 10))
	})
}

// decodeWideInt reads the column payload as a signed 64-bit value, whatever
// the column width.
func decodeWideInt(data []byte, f *mysql.Field, binary bool) (int64, error) {
	if !binary {
		return parseTextInt(data, f)
	}

	switch f.Type {
	case mysql.MYSQL_TYPE_TINY:
		if len(data) < 1 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryInt8(data), nil
	case mysql.MYSQL_TYPE_SHORT, mysql.MYSQL_TYPE_YEAR:
		if len(data) < 2 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryInt16(data), nil
	case mysql.MYSQL_TYPE_INT24, mysql.MYSQL_TYPE_LONG:
		// MySQL transmits MEDIUMINT as 32-bit two's complement.
		if len(data) < 4 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryInt32(data), nil
	case mysql.MYSQL_TYPE_LONGLONG:
		if len(data) < 8 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryInt64(data), nil
	case mysql.MYSQL_TYPE_FLOAT:
		if len(data) < 4 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return int64(mysql.ParseBinaryFloat32(data)), nil
	case mysql.MYSQL_TYPE_DOUBLE:
		if len(data) < 8 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return int64(mysql.ParseBinaryFloat64(data)), nil
	case mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
		// DECIMAL stays ASCII in both wire modes.
		return decimalToInt(data)
	}

	return 0, errors.Annotatef(ErrUnsupportedConversion, "column type %d as integer", f.Type)
}

func decodeWideUint(data []byte, f *mysql.Field, binary bool) (uint64, error) {
	if !binary {
		return parseTextUint(data, f)
	}

	switch f.Type {
	case mysql.MYSQL_TYPE_TINY:
		if len(data) < 1 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryUint8(data), nil
	case mysql.MYSQL_TYPE_SHORT, mysql.MYSQL_TYPE_YEAR:
		if len(data) < 2 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryUint16(data), nil
	case mysql.MYSQL_TYPE_INT24, mysql.MYSQL_TYPE_LONG:
		if len(data) < 4 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryUint32(data), nil
	case mysql.MYSQL_TYPE_LONGLONG:
		if len(data) < 8 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return mysql.ParseBinaryUint64(data), nil
	case mysql.MYSQL_TYPE_FLOAT:
		if len(data) < 4 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return uint64(mysql.ParseBinaryFloat32(data)), nil
	case mysql.MYSQL_TYPE_DOUBLE:
		if len(data) < 8 {
			return 0, errors.Trace(ErrProtocolCorrupt)
		}
		return uint64(mysql.ParseBinaryFloat64(data)), nil
	case mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
		v, err := decimalToInt(data)
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return 0, errors.Trace(ErrValueOutOfRange)
		}
		return uint64(v), nil
	}

	return 0, errors.Annotatef(ErrUnsupportedConversion, "column type %d as unsigned integer", f.Type)
}

func parseTextInt(data []byte, f *mysql.Field) (int64, error) {
	switch f.Type {
	case mysql.MYSQL_TYPE_FLOAT, mysql.MYSQL_TYPE_DOUBLE:
		v, err := strconv.ParseFloat(utils.ByteSliceToString(data), 64)
		if err != nil {
			return 0, errors.Annotate(ErrDecodeSyntax, err.Error())
		}
		return int64(v), nil
	case mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
		return decimalToInt(data)
	}

	s := utils.ByteSliceToString(data)
	if s == "" {
		return 0, errors.Annotate(ErrDecodeSyntax, "empty integer payload")
	}
	if s[0] == '+' {
		s = s[1:]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, errors.Trace(ErrValueOutOfRange)
		}
		return 0, errors.Annotate(ErrDecodeSyntax, err.Error())
	}
	return v, nil
}

func parseTextUint(data []byte, f *mysql.Field) (uint64, error) {
	switch f.Type {
	case mysql.MYSQL_TYPE_FLOAT, mysql.MYSQL_TYPE_DOUBLE,
		mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
		v, err := parseTextInt(data, f)
		if err != nil {
			return 0, err
		}
		if v < 0 {
			return 0, errors.Trace(ErrValueOutOfRange)
		}
		return uint64(v), nil
	}

	s := utils.ByteSliceToString(data)
	if s == "" {
		return 0, errors.Annotate(ErrDecodeSyntax, "empty integer payload")
	}
	if s[0] == '+' {
		s = s[1:]
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, errors.Trace(ErrValueOutOfRange)
		}
		return 0, errors.Annotate(ErrDecodeSyntax, err.Error())
	}
	return v, nil
}

// decimalToInt truncates a DECIMAL payload toward zero.
func decimalToInt(data []byte) (int64, error) {
	d, err := decimal.NewFromString(utils.ByteSliceToString(data))
	if err != nil {
		return 0, errors.Annotate(ErrDecodeSyntax, err.Error())
	}
	return d.Truncate(0).IntPart(), nil
}

// narrowSigned down-casts a wide signed value to the target; overflow is a
// decode error.
func narrowSigned(v int64, target TargetType) (interface{}, error) {
	switch target {
	case TargetInt8:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return int8(v), nil
	case TargetUint8:
		if v < 0 || v > math.MaxUint8 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return uint8(v), nil
	case TargetInt16:
		if v < math.MinInt16 || v > math.MaxInt16 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return int16(v), nil
	case TargetUint16:
		if v < 0 || v > math.MaxUint16 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return uint16(v), nil
	case TargetInt32:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return int32(v), nil
	case TargetUint32:
		if v < 0 || v > math.MaxUint32 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return uint32(v), nil
	case TargetInt64:
		return v, nil
	case TargetUint64:
		if v < 0 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return uint64(v), nil
	case TargetInt:
		if v < math.MinInt || v > math.MaxInt {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return int(v), nil
	}

	return nil, errors.Trace(ErrUnsupportedConversion)
}

func narrowUnsigned(v uint64, target TargetType) (interface{}, error) {
	switch target {
	case TargetUint64:
		return v, nil
	case TargetUint32:
		if v > math.MaxUint32 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return uint32(v), nil
	case TargetUint16:
		if v > math.MaxUint16 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return uint16(v), nil
	case TargetUint8:
		if v > math.MaxUint8 {
			return nil, errors.Trace(ErrValueOutOfRange)
		}
		return uint8(v), nil
	}

	if v > math.MaxInt64 {
		return nil, errors.Trace(ErrValueOutOfRange)
	}
	return narrowSigned(int64(v), target)
}
