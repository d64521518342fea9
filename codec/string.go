package codec

import (
	"encoding/hex"
	"strings"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/utils"
)

// stringCodec handles CHARACTER-family columns. BINARY-family columns of the
// same type tags are left to bytesCodec, judged by the column collation.
type stringCodec struct{}

func isStringType(typ byte) bool {
	switch typ {
	case mysql.MYSQL_TYPE_VARCHAR, mysql.MYSQL_TYPE_VAR_STRING, mysql.MYSQL_TYPE_STRING,
		mysql.MYSQL_TYPE_ENUM, mysql.MYSQL_TYPE_SET, mysql.MYSQL_TYPE_JSON,
		mysql.MYSQL_TYPE_TINY_BLOB, mysql.MYSQL_TYPE_MEDIUM_BLOB,
		mysql.MYSQL_TYPE_LONG_BLOB, mysql.MYSQL_TYPE_BLOB,
		mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
		return true
	default:
		return false
	}
}

func (stringCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	return target == TargetString && isStringType(f.Type) && !f.IsBinary()
}

func (stringCodec) Decode(data []byte, _ *mysql.Field, _ TargetType, _ bool, _ *Context) (interface{}, error) {
	// Both wire modes carry the column text; the length prefix was consumed
	// upstream.
	return string(data), nil
}

func (stringCodec) CanEncode(value interface{}) bool {
	_, ok := value.(string)
	return ok
}

func (stringCodec) Encode(value interface{}, _ *Context) *Parameter {
	v := value.(string)

	payload := mysql.PutLengthEncodedString(utils.StringToByteSlice(v))
	return newParameter(mysql.MYSQL_TYPE_VAR_STRING, false, payload, func(sb *strings.Builder) {
		sb.WriteByte('\'')
		sb.WriteString(mysql.Escape(v))
		sb.WriteByte('\'')
	})
}

// bytesCodec handles BINARY-family columns and raw []byte binds. The text
// literal is a hex blob so no escaping ambiguity can arise.
type bytesCodec struct{}

func (bytesCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	if target != TargetBytes {
		return false
	}
	return isStringType(f.Type) || f.Type == mysql.MYSQL_TYPE_GEOMETRY || f.Type == mysql.MYSQL_TYPE_BIT
}

func (bytesCodec) Decode(data []byte, _ *mysql.Field, _ TargetType, _ bool, _ *Context) (interface{}, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (bytesCodec) CanEncode(value interface{}) bool {
	_, ok := value.([]byte)
	return ok
}

func (bytesCodec) Encode(value interface{}, _ *Context) *Parameter {
	v := value.([]byte)

	payload := mysql.PutLengthEncodedString(v)
	return newParameter(mysql.MYSQL_TYPE_STRING, false, payload, func(sb *strings.Builder) {
		sb.WriteString("x'")
		sb.WriteString(hex.EncodeToString(v))
		sb.WriteByte('\'')
	})
}

// boolCodec maps TINYINT(1) and BIT(1) columns to bool when the context asks
// for tiny-as-boolean, and encodes Go bools as TINYINT 0/1.
type boolCodec struct{}

func (boolCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	if target != TargetBool {
		return false
	}
	switch f.Type {
	case mysql.MYSQL_TYPE_TINY:
		return true
	case mysql.MYSQL_TYPE_BIT:
		return f.ColumnLength == 1
	default:
		return false
	}
}

func (boolCodec) Decode(data []byte, f *mysql.Field, _ TargetType, binary bool, ctx *Context) (interface{}, error) {
	if f.Type == mysql.MYSQL_TYPE_BIT {
		b, err := BitSetFromBytes(data)
		if err != nil {
			return nil, err
		}
		return !b.IsEmpty(), nil
	}

	if !ctx.TinyIntIsBool && f.ColumnLength != 1 {
		return nil, errors.Annotate(ErrUnsupportedConversion, "tinyint column is not boolean")
	}

	v, err := decodeWideInt(data, f, binary)
	if err != nil {
		return nil, err
	}
	return v != 0, nil
}

func (boolCodec) CanEncode(value interface{}) bool {
	_, ok := value.(bool)
	return ok
}

func (boolCodec) Encode(value interface{}, _ *Context) *Parameter {
	var b byte
	var lit string
	if value.(bool) {
		b, lit = 1, "1"
	} else {
		b, lit = 0, "0"
	}

	return newParameter(mysql.MYSQL_TYPE_TINY, false, []byte{b}, func(sb *strings.Builder) {
		sb.WriteString(lit)
	})
}
