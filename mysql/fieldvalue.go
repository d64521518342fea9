package mysql

import (
	"fmt"
	"strconv"

	"github.com/T45K/go-mysql-session/utils"
)

type FieldValueType uint8

const (
	FieldValueTypeNull FieldValueType = iota
	FieldValueTypeUnsigned
	FieldValueTypeSigned
	FieldValueTypeFloat
	FieldValueTypeString
)

// FieldValue is one decoded cell of a result row, before any target-typed
// codec conversion.
type FieldValue struct {
	Type FieldValueType

	Int64  int64
	Uint64 uint64
	Float  float64
	String []byte
}

// Value returns the cell as an interface value: int64, uint64, float64,
// []byte or nil.
func (fv *FieldValue) Value() interface{} {
	switch fv.Type {
	case FieldValueTypeUnsigned:
		return fv.Uint64
	case FieldValueTypeSigned:
		return fv.Int64
	case FieldValueTypeFloat:
		return fv.Float
	case FieldValueTypeString:
		return fv.String
	default: // FieldValueTypeNull
		return nil
	}
}

func (fv *FieldValue) AsString() string {
	switch fv.Type {
	case FieldValueTypeUnsigned:
		return strconv.FormatUint(fv.Uint64, 10)
	case FieldValueTypeSigned:
		return strconv.FormatInt(fv.Int64, 10)
	case FieldValueTypeFloat:
		return strconv.FormatFloat(fv.Float, 'f', -1, 64)
	case FieldValueTypeString:
		return utils.ByteSliceToString(fv.String)
	default:
		return ""
	}
}

func (fv *FieldValue) GoString() string {
	return fmt.Sprintf("%v", fv.Value())
}
