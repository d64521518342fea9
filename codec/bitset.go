package codec

import (
	"strconv"

	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
)

// BitSet is the decoded value of a BIT(n) column. MySQL bounds BIT columns
// at 64 bits, so a single word holds any column; bit 0 is the LSB of the
// last wire byte.
type BitSet uint64

// Test reports whether bit i is set.
func (b BitSet) Test(i int) bool {
	if i < 0 || i > 63 {
		return false
	}
	return b&(1<<uint(i)) != 0
}

// IsEmpty reports whether no bit is set.
func (b BitSet) IsEmpty() bool {
	return b == 0
}

// String is the unsigned decimal of the value.
func (b BitSet) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// Bytes returns the smallest little-endian byte array preserving the highest
// set bit. The empty set yields [0x00] for wire compatibility.
func (b BitSet) Bytes() []byte {
	if b == 0 {
		return []byte{0}
	}

	out := make([]byte, 0, 8)
	for v := uint64(b); v != 0; v >>= 8 {
		out = append(out, byte(v))
	}
	return out
}

// BitSetFromBytes interprets a big-endian BIT column payload, whose length
// is ceil(declared_bits/8). An empty buffer is the empty set.
func BitSetFromBytes(data []byte) (BitSet, error) {
	if len(data) > 8 {
		return 0, errors.Annotatef(ErrValueOutOfRange, "bit column wider than 64 bits (%d bytes)", len(data))
	}
	return BitSet(mysql.BFixedLengthInt(data)), nil
}

// bitSetCodec maps BIT columns to BitSet values.
type bitSetCodec struct{}

func (bitSetCodec) CanDecode(f *mysql.Field, target TargetType) bool {
	return target == TargetBitSet && f.Type == mysql.MYSQL_TYPE_BIT
}

// Decode reads the raw big-endian bytes; both wire modes transmit the same
// form.
func (bitSetCodec) Decode(data []byte, _ *mysql.Field, _ TargetType, _ bool, _ *Context) (interface{}, error) {
	b, err := BitSetFromBytes(data)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (bitSetCodec) CanEncode(value interface{}) bool {
	_, ok := value.(BitSet)
	return ok
}

// Encode picks the smallest integer wire type that preserves the highest set
// bit, so the bind packet stays minimal; the empty set still emits one zero
// byte for wire compatibility.
func (bitSetCodec) Encode(value interface{}, _ *Context) *Parameter {
	return encodeNarrowedUint(uint64(value.(BitSet)))
}
