package mysql

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func textRow(cols ...interface{}) RowData {
	var row []byte
	for _, c := range cols {
		if c == nil {
			row = append(row, 0xfb)
			continue
		}
		row = append(row, PutLengthEncodedString([]byte(c.(string)))...)
	}
	return row
}

func TestRowDataParseText(t *testing.T) {
	fields := []*Field{
		{Name: []byte("a"), Type: MYSQL_TYPE_LONG},
		{Name: []byte("b"), Type: MYSQL_TYPE_VAR_STRING},
		{Name: []byte("c"), Type: MYSQL_TYPE_DOUBLE},
		{Name: []byte("d"), Type: MYSQL_TYPE_LONGLONG, Flag: UNSIGNED_FLAG},
		{Name: []byte("e"), Type: MYSQL_TYPE_VAR_STRING},
	}

	row := textRow("-7", "hello", "1.5", "18446744073709551615", nil)

	values, err := row.ParseText(fields, nil)
	require.NoError(t, err)

	require.Equal(t, FieldValueTypeSigned, values[0].Type)
	require.Equal(t, int64(-7), values[0].Int64)
	require.Equal(t, FieldValueTypeString, values[1].Type)
	require.Equal(t, "hello", string(values[1].String))
	require.Equal(t, FieldValueTypeFloat, values[2].Type)
	require.Equal(t, 1.5, values[2].Float)
	require.Equal(t, FieldValueTypeUnsigned, values[3].Type)
	require.Equal(t, uint64(18446744073709551615), values[3].Uint64)
	require.Equal(t, FieldValueTypeNull, values[4].Type)
}

func TestRowDataParseBinary(t *testing.T) {
	fields := []*Field{
		{Name: []byte("a"), Type: MYSQL_TYPE_LONG},
		{Name: []byte("b"), Type: MYSQL_TYPE_VAR_STRING},
	}

	// header 0x00, null bitmap (1 byte, offset 2), int32 -1, "hi"
	row := RowData{0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0x02, 'h', 'i'}

	values, err := row.ParseBinary(fields, nil)
	require.NoError(t, err)

	require.Equal(t, int64(-1), values[0].Int64)
	require.Equal(t, "hi", string(values[1].String))
}

func TestRowDataSplitText(t *testing.T) {
	fields := []*Field{
		{Name: []byte("a"), Type: MYSQL_TYPE_LONG},
		{Name: []byte("b"), Type: MYSQL_TYPE_VAR_STRING},
	}

	cols, err := textRow("42", nil).SplitText(fields)
	require.NoError(t, err)
	require.Equal(t, []byte("42"), cols[0])
	require.Nil(t, cols[1])
}

func TestRowDataSplitBinary(t *testing.T) {
	fields := []*Field{
		{Name: []byte("a"), Type: MYSQL_TYPE_LONG},
		{Name: []byte("b"), Type: MYSQL_TYPE_DATETIME},
		{Name: []byte("c"), Type: MYSQL_TYPE_VAR_STRING},
	}

	row := RowData{
		0x00,                   // ok header
		0x00,                   // null bitmap
		0x2A, 0x00, 0x00, 0x00, // int32 42
		0x04, 0xE5, 0x07, 0x05, 0x03, // 4-byte date, length prefix consumed by split
		0x02, 'h', 'i',
	}

	cols, err := row.SplitBinary(fields)
	require.NoError(t, err)
	require.Equal(t, []byte{0x2A, 0x00, 0x00, 0x00}, cols[0])
	require.Equal(t, []byte{0xE5, 0x07, 0x05, 0x03}, cols[1])
	require.Equal(t, []byte("hi"), cols[2])
}

func TestRowDataSplitBinaryUnderrun(t *testing.T) {
	fields := []*Field{{Name: []byte("a"), Type: MYSQL_TYPE_LONGLONG}}

	_, err := RowData{0x00, 0x00, 0x01, 0x02}.SplitBinary(fields)
	require.Error(t, err)
}

func TestResultsetAccessors(t *testing.T) {
	rs := NewResultset(2)
	rs.Fields[0] = &Field{Name: []byte("id"), Type: MYSQL_TYPE_LONG}
	rs.Fields[1] = &Field{Name: []byte("name"), Type: MYSQL_TYPE_VAR_STRING}
	rs.FieldNames["id"] = 0
	rs.FieldNames["name"] = 1
	rs.Values = [][]FieldValue{
		{
			{Type: FieldValueTypeSigned, Int64: 7},
			{Type: FieldValueTypeString, String: []byte("seven")},
		},
	}

	v, err := rs.GetIntByName(0, "id")
	require.NoError(t, err)
	require.Equal(t, int64(7), v)

	s, err := rs.GetStringByName(0, "name")
	require.NoError(t, err)
	require.Equal(t, "seven", s)

	isNull, err := rs.IsNull(0, 0)
	require.NoError(t, err)
	require.False(t, isNull)

	_, err = rs.GetValue(2, 0)
	require.Error(t, err)
	_, err = rs.NameIndex("missing")
	require.Error(t, err)
}

func TestFormatBinaryTimeDays(t *testing.T) {
	// 2 days 3:04:05 => 51:04:05
	data := []byte{0, 2, 0, 0, 0, 3, 4, 5}
	out, err := FormatBinaryTime(8, data)
	require.NoError(t, err)
	require.Equal(t, "51:04:05", string(out))

	// negative with microseconds
	data = []byte{1, 0, 0, 0, 0, 1, 2, 3, 0x40, 0xE2, 0x01, 0x00}
	out, err = FormatBinaryTime(12, data)
	require.NoError(t, err)
	require.Equal(t, "-01:02:03.123456", string(out))
}

func TestFormatBinaryDateTimeForms(t *testing.T) {
	out, err := FormatBinaryDateTime(0, nil)
	require.NoError(t, err)
	require.Equal(t, "0000-00-00 00:00:00", string(out))

	data := []byte{0xE5, 0x07, 0x05, 0x03, 0x0F, 0x02, 0x07, 0x40, 0xE2, 0x01, 0x00}
	out, err = FormatBinaryDateTime(11, data)
	require.NoError(t, err)
	require.Equal(t, "2021-05-03 15:02:07.123456", string(out))

	_, err = FormatBinaryDateTime(5, data)
	require.Error(t, err)
}
