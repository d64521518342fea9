package codec

import "github.com/pingcap/errors"

var (
	// ErrNoCodec is returned when encoding a value whose runtime type no
	// codec claims.
	ErrNoCodec = errors.New("no codec claims the value type")

	// ErrUnsupportedConversion is returned when a column type cannot be
	// decoded into the requested target type.
	ErrUnsupportedConversion = errors.New("unsupported column conversion")

	// ErrProtocolCorrupt is returned on a buffer under-run while decoding a
	// binary column payload. The connection is no longer trustworthy.
	ErrProtocolCorrupt = errors.New("protocol corrupt: column payload under-run")

	// ErrDecodeSyntax is returned when a text-protocol payload does not parse
	// as the column's declared type.
	ErrDecodeSyntax = errors.New("cannot parse text column payload")

	// ErrValueOutOfRange is returned when narrowing a decoded value to the
	// target type would lose information.
	ErrValueOutOfRange = errors.New("value out of range for target type")

	// ErrParameterReused is returned when a parameter is asked to serialise
	// itself twice on the same channel.
	ErrParameterReused = errors.New("parameter already consumed")

	// ErrZeroDate is returned for `0000-00-00` payloads when the codec
	// context forbids both the null marker and a sentinel.
	ErrZeroDate = errors.New("zero date cannot be represented")
)
