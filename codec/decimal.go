package codec

import (
	"strings"

	"github.com/pingcap/errors"
	"github.com/shopspring/decimal"

	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/utils"
)

// decimalCodec handles DECIMAL columns, which are ASCII on the wire in both
// protocol modes, through arbitrary-precision parsing.
type decimalCodec struct{}

func (decimalCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	return target == TargetDecimal && f.IsNumeric()
}

func (decimalCodec) Decode(data []byte, f *mysql.Field, _ TargetType, binary bool, _ *Context) (interface{}, error) {
	switch f.Type {
	case mysql.MYSQL_TYPE_DECIMAL, mysql.MYSQL_TYPE_NEWDECIMAL:
		d, err := decimal.NewFromString(utils.ByteSliceToString(data))
		if err != nil {
			return nil, errors.Annotate(ErrDecodeSyntax, err.Error())
		}
		return d, nil

	case mysql.MYSQL_TYPE_FLOAT, mysql.MYSQL_TYPE_DOUBLE:
		if !binary {
			d, err := decimal.NewFromString(utils.ByteSliceToString(data))
			if err != nil {
				return nil, errors.Annotate(ErrDecodeSyntax, err.Error())
			}
			return d, nil
		}
		var v float64
		if f.Type == mysql.MYSQL_TYPE_FLOAT {
			if len(data) < 4 {
				return nil, errors.Trace(ErrProtocolCorrupt)
			}
			v = mysql.ParseBinaryFloat32(data)
		} else {
			if len(data) < 8 {
				return nil, errors.Trace(ErrProtocolCorrupt)
			}
			v = mysql.ParseBinaryFloat64(data)
		}
		return decimal.NewFromFloat(v), nil
	}

	v, err := decodeWideInt(data, f, binary)
	if err != nil {
		return nil, err
	}
	return decimal.NewFromInt(v), nil
}

func (decimalCodec) CanEncode(value interface{}) bool {
	_, ok := value.(decimal.Decimal)
	return ok
}

func (decimalCodec) Encode(value interface{}, _ *Context) *Parameter {
	v := value.(decimal.Decimal)
	s := v.String()

	// DECIMAL is ASCII on the wire in both modes; binary form is the
	// length-encoded string of the plain representation.
	payload := mysql.PutLengthEncodedString([]byte(s))
	return newParameter(mysql.MYSQL_TYPE_NEWDECIMAL, false, payload, func(sb *strings.Builder) {
		sb.WriteString(s)
	})
}
