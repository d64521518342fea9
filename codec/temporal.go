package codec

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
	"github.com/T45K/go-mysql-session/utils"
)

// timeCodec decodes DATE/DATETIME/TIMESTAMP columns into time.Time. Naive
// server values are interpreted in the server zone resolved at init; when
// the context preserves instants the value is converted to the client zone
// keeping the instant.
type timeCodec struct{}

func (timeCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	if target != TargetTime {
		return false
	}
	switch f.Type {
	case mysql.MYSQL_TYPE_DATE, mysql.MYSQL_TYPE_NEWDATE,
		mysql.MYSQL_TYPE_DATETIME, mysql.MYSQL_TYPE_TIMESTAMP:
		return true
	default:
		return false
	}
}

func (timeCodec) Decode(data []byte, f *mysql.Field, _ TargetType, binary bool, ctx *Context) (interface{}, error) {
	if binary {
		return decodeBinaryDateTime(data, ctx)
	}
	return decodeTextDateTime(data, ctx)
}

func (timeCodec) CanEncode(value interface{}) bool {
	_, ok := value.(time.Time)
	return ok
}

func (timeCodec) Encode(value interface{}, ctx *Context) *Parameter {
	// Same instant in the server zone; the wire carries naive local fields.
	v := value.(time.Time).In(ctx.ServerZone)

	payload := encodeBinaryDateTime(v)
	return newParameter(mysql.MYSQL_TYPE_TIMESTAMP, false, payload, func(sb *strings.Builder) {
		sb.WriteByte('\'')
		sb.WriteString(formatDateTime(v))
		sb.WriteByte('\'')
	})
}

// decodeBinaryDateTime reads the 0/4/7/11-byte DATETIME/TIMESTAMP (or 0/4
// DATE) payload, length prefix already stripped.
func decodeBinaryDateTime(data []byte, ctx *Context) (interface{}, error) {
	switch len(data) {
	case 0:
		return zeroDate(ctx)
	case 4, 7, 11:
	default:
		return nil, errors.Annotatef(ErrProtocolCorrupt, "datetime payload length %d", len(data))
	}

	year := int(binary.LittleEndian.Uint16(data[:2]))
	month := int(data[2])
	day := int(data[3])

	if year == 0 && month == 0 && day == 0 {
		return zeroDate(ctx)
	}

	var hour, minute, sec, micro int
	if len(data) >= 7 {
		hour = int(data[4])
		minute = int(data[5])
		sec = int(data[6])
	}
	if len(data) == 11 {
		micro = int(binary.LittleEndian.Uint32(data[7:11]))
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, micro*1000, ctx.ServerZone)
	if ctx.PreserveInstants && ctx.ClientZone != nil {
		t = t.In(ctx.ClientZone)
	}
	return t, nil
}

func decodeTextDateTime(data []byte, ctx *Context) (interface{}, error) {
	s := utils.ByteSliceToString(data)

	if strings.HasPrefix(s, "0000-00-00") {
		return zeroDate(ctx)
	}

	var t time.Time
	var err error
	switch {
	case len(s) == len("2006-01-02"):
		t, err = time.ParseInLocation("2006-01-02", s, ctx.ServerZone)
	case strings.ContainsRune(s, '.'):
		t, err = time.ParseInLocation("2006-01-02 15:04:05.999999", s, ctx.ServerZone)
	default:
		t, err = time.ParseInLocation("2006-01-02 15:04:05", s, ctx.ServerZone)
	}
	if err != nil {
		return nil, errors.Annotate(ErrDecodeSyntax, err.Error())
	}

	if ctx.PreserveInstants && ctx.ClientZone != nil {
		t = t.In(ctx.ClientZone)
	}
	return t, nil
}

// encodeBinaryDateTime emits the length-prefixed binary form, choosing the
// shortest of the 4/7/11-byte layouts that keeps every non-zero field.
func encodeBinaryDateTime(v time.Time) []byte {
	year, month, day := v.Date()
	hour, minute, sec := v.Clock()
	micro := v.Nanosecond() / 1000

	switch {
	case micro != 0:
		out := make([]byte, 0, 12)
		out = append(out, 11, byte(year), byte(year>>8), byte(month), byte(day),
			byte(hour), byte(minute), byte(sec))
		return append(out, byte(micro), byte(micro>>8), byte(micro>>16), byte(micro>>24))
	case hour != 0 || minute != 0 || sec != 0:
		return []byte{7, byte(year), byte(year >> 8), byte(month), byte(day),
			byte(hour), byte(minute), byte(sec)}
	default:
		return []byte{4, byte(year), byte(year >> 8), byte(month), byte(day)}
	}
}

func formatDateTime(v time.Time) string {
	if v.Nanosecond() != 0 {
		return v.Format("2006-01-02 15:04:05.000000")
	}
	return v.Format("2006-01-02 15:04:05")
}

func zeroDate(ctx *Context) (interface{}, error) {
	if ctx.ZeroDate == ZeroDateError {
		return nil, errors.Trace(ErrZeroDate)
	}
	return nil, nil
}

// durationCodec decodes TIME columns into a signed time.Duration and encodes
// time.Duration values.
type durationCodec struct{}

func (durationCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	return target == TargetDuration && f.Type == mysql.MYSQL_TYPE_TIME
}

func (durationCodec) Decode(data []byte, _ *mysql.Field, _ TargetType, binary bool, _ *Context) (interface{}, error) {
	if binary {
		return decodeBinaryDuration(data)
	}
	return parseTextDuration(utils.ByteSliceToString(data))
}

func (durationCodec) CanEncode(value interface{}) bool {
	_, ok := value.(time.Duration)
	return ok
}

func (durationCodec) Encode(value interface{}, _ *Context) *Parameter {
	v := value.(time.Duration)

	payload := encodeBinaryDuration(v)
	return newParameter(mysql.MYSQL_TYPE_TIME, false, payload, func(sb *strings.Builder) {
		sb.WriteByte('\'')
		sb.WriteString(formatDuration(v))
		sb.WriteByte('\'')
	})
}

// decodeBinaryDuration reads the 0/8/12-byte TIME payload:
// sign(1) days(4 LE) hours minutes seconds [micros(4 LE)].
func decodeBinaryDuration(data []byte) (interface{}, error) {
	switch len(data) {
	case 0:
		return time.Duration(0), nil
	case 8, 12:
	default:
		return nil, errors.Annotatef(ErrProtocolCorrupt, "time payload length %d", len(data))
	}

	days := time.Duration(binary.LittleEndian.Uint32(data[1:5]))
	d := days*24*time.Hour +
		time.Duration(data[5])*time.Hour +
		time.Duration(data[6])*time.Minute +
		time.Duration(data[7])*time.Second

	if len(data) == 12 {
		d += time.Duration(binary.LittleEndian.Uint32(data[8:12])) * time.Microsecond
	}

	if data[0] == 1 {
		return -d, nil
	}
	return d, nil
}

func encodeBinaryDuration(v time.Duration) []byte {
	if v == 0 {
		return []byte{0}
	}

	var sign byte
	if v < 0 {
		sign = 1
		v = -v
	}

	days := uint32(v / (24 * time.Hour))
	v -= time.Duration(days) * 24 * time.Hour
	hours := byte(v / time.Hour)
	v -= time.Duration(hours) * time.Hour
	minutes := byte(v / time.Minute)
	v -= time.Duration(minutes) * time.Minute
	seconds := byte(v / time.Second)
	v -= time.Duration(seconds) * time.Second
	micros := uint32(v / time.Microsecond)

	out := []byte{
		12, sign,
		byte(days), byte(days >> 8), byte(days >> 16), byte(days >> 24),
		hours, minutes, seconds,
	}
	if micros == 0 {
		out[0] = 8
		return out
	}
	return append(out, byte(micros), byte(micros>>8), byte(micros>>16), byte(micros>>24))
}

// parseTextDuration parses [-]HHH:MM:SS[.ffffff], tolerating dropped
// trailing zeros in the fraction.
func parseTextDuration(s string) (interface{}, error) {
	if s == "" {
		return nil, errors.Annotate(ErrDecodeSyntax, "empty time payload")
	}

	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var hours, minutes, seconds, micros int
	body, frac, hasFrac := strings.Cut(s, ".")

	if _, err := fmt.Sscanf(body, "%d:%d:%d", &hours, &minutes, &seconds); err != nil {
		return nil, errors.Annotate(ErrDecodeSyntax, err.Error())
	}
	if hasFrac {
		if len(frac) > 6 {
			frac = frac[:6]
		}
		for len(frac) < 6 {
			frac += "0"
		}
		if _, err := fmt.Sscanf(frac, "%d", &micros); err != nil {
			return nil, errors.Annotate(ErrDecodeSyntax, err.Error())
		}
	}

	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(micros)*time.Microsecond

	if neg {
		return -d, nil
	}
	return d, nil
}

func formatDuration(v time.Duration) string {
	var sb strings.Builder
	if v < 0 {
		sb.WriteByte('-')
		v = -v
	}

	hours := v / time.Hour
	v -= hours * time.Hour
	minutes := v / time.Minute
	v -= minutes * time.Minute
	seconds := v / time.Second
	v -= seconds * time.Second
	micros := v / time.Microsecond

	fmt.Fprintf(&sb, "%02d:%02d:%02d", hours, minutes, seconds)
	if micros != 0 {
		fmt.Fprintf(&sb, ".%06d", micros)
	}
	return sb.String()
}

// yearCodec decodes YEAR columns, which the server transmits as a 2-byte
// integer in the binary protocol.
type yearCodec struct{}

func (yearCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	return target == TargetYear && f.Type == mysql.MYSQL_TYPE_YEAR
}

func (yearCodec) Decode(data []byte, f *mysql.Field, _ TargetType, binary bool, _ *Context) (interface{}, error) {
	v, err := decodeWideInt(data, f, binary)
	if err != nil {
		return nil, err
	}
	n, err := narrowSigned(v, TargetInt16)
	if err != nil {
		return nil, err
	}
	return n.(int16), nil
}

func (yearCodec) CanEncode(interface{}) bool {
	return false
}

func (yearCodec) Encode(interface{}, *Context) *Parameter {
	return nil
}
