package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/utils"
)

// floatCodec decodes numeric columns into float32 or float64 and encodes the
// matching Go type. FLOAT binary is 4 bytes LE IEEE-754, DOUBLE is 8 bytes
// LE; text is ASCII with full precision.
type floatCodec struct {
	double bool
}

func (c floatCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	if c.double {
		return target == TargetFloat64 && f.IsNumeric()
	}
	return target == TargetFloat32 && f.IsNumeric()
}

func (c floatCodec) Decode(data []byte, f *mysql.Field, _ TargetType, binary bool, _ *Context) (interface{}, error) {
	var v float64
	var err error

	if binary {
		switch f.Type {
		case mysql.MYSQL_TYPE_FLOAT:
			if len(data) < 4 {
				return nil, errors.Trace(ErrProtocolCorrupt)
			}
			v = mysql.ParseBinaryFloat32(data)
		case mysql.MYSQL_TYPE_DOUBLE:
			if len(data) < 8 {
				return nil, errors.Trace(ErrProtocolCorrupt)
			}
			v = mysql.ParseBinaryFloat64(data)
		case mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
			v, err = parseTextFloat(data)
			if err != nil {
				return nil, err
			}
		default:
			var i int64
			i, err = decodeWideInt(data, f, true)
			if err != nil {
				return nil, err
			}
			v = float64(i)
		}
	} else {
		v, err = parseTextFloat(data)
		if err != nil {
			return nil, err
		}
	}

	if c.double {
		return v, nil
	}

	if v > math.MaxFloat32 || v < -math.MaxFloat32 {
		return nil, errors.Trace(ErrValueOutOfRange)
	}
	return float32(v), nil
}

func (c floatCodec) CanEncode(value interface{}) bool {
	switch value.(type) {
	case float32:
		return !c.double
	case float64:
		return c.double
	default:
		return false
	}
}

func (c floatCodec) Encode(value interface{}, _ *Context) *Parameter {
	if v, ok := value.(float32); ok {
		payload := mysql.Uint32ToBytes(math.Float32bits(v))
		return newParameter(mysql.MYSQL_TYPE_FLOAT, false, payload, func(sb *strings.Builder) {
			sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		})
	}

	v := value.(float64)
	payload := mysql.Uint64ToBytes(math.Float64bits(v))
	return newParameter(mysql.MYSQL_TYPE_DOUBLE, false, payload, func(sb *strings.Builder) {
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	})
}

func parseTextFloat(data []byte) (float64, error) {
	s := utils.ByteSliceToString(data)
	if s == "" {
		return 0, errors.Annotate(ErrDecodeSyntax, "empty float payload")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Annotate(ErrDecodeSyntax, err.Error())
	}
	return v, nil
}
