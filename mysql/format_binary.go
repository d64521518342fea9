package mysql

import (
	"encoding/binary"
	"fmt"

	"github.com/pingcap/errors"
)

// FormatBinaryDate renders the 0- or 4-byte binary DATE payload as the
// canonical text form.
func FormatBinaryDate(n int, data []byte) ([]byte, error) {
	switch n {
	case 0:
		return []byte("0000-00-00"), nil
	case 4:
		return []byte(fmt.Sprintf("%04d-%02d-%02d",
			binary.LittleEndian.Uint16(data[:2]),
			data[2],
			data[3])), nil
	default:
		return nil, errors.Errorf("invalid date packet length %d", n)
	}
}

// FormatBinaryDateTime renders the 0/4/7/11-byte binary DATETIME/TIMESTAMP
// payload as the canonical text form.
func FormatBinaryDateTime(n int, data []byte) ([]byte, error) {
	switch n {
	case 0:
		return []byte("0000-00-00 00:00:00"), nil
	case 4:
		return []byte(fmt.Sprintf("%04d-%02d-%02d 00:00:00",
			binary.LittleEndian.Uint16(data[:2]),
			data[2],
			data[3])), nil
	case 7:
		return []byte(fmt.Sprintf(
			"%04d-%02d-%02d %02d:%02d:%02d",
			binary.LittleEndian.Uint16(data[:2]),
			data[2],
			data[3],
			data[4],
			data[5],
			data[6])), nil
	case 11:
		return []byte(fmt.Sprintf(
			"%04d-%02d-%02d %02d:%02d:%02d.%06d",
			binary.LittleEndian.Uint16(data[:2]),
			data[2],
			data[3],
			data[4],
			data[5],
			data[6],
			binary.LittleEndian.Uint32(data[7:11]))), nil
	default:
		return nil, errors.Errorf("invalid datetime packet length %d", n)
	}
}

// FormatBinaryTime renders the 0/8/12-byte binary TIME payload as the
// canonical [-]HHH:MM:SS[.ffffff] text form.
func FormatBinaryTime(n int, data []byte) ([]byte, error) {
	if n == 0 {
		return []byte("00:00:00"), nil
	}

	var sign byte
	if data[0] == 1 {
		sign = byte('-')
	}

	days := binary.LittleEndian.Uint32(data[1:5])

	var b []byte
	switch n {
	case 8:
		b = []byte(fmt.Sprintf(
			"%c%02d:%02d:%02d",
			sign,
			days*24+uint32(data[5]),
			data[6],
			data[7],
		))
	case 12:
		b = []byte(fmt.Sprintf(
			"%c%02d:%02d:%02d.%06d",
			sign,
			days*24+uint32(data[5]),
			data[6],
			data[7],
			binary.LittleEndian.Uint32(data[8:12]),
		))
	default:
		return nil, errors.Errorf("invalid time packet length %d", n)
	}
	if b[0] == 0 {
		return b[1:], nil
	}
	return b, nil
}
