// Package codec translates between MySQL column payloads and native Go
// values, across both the text and binary wire encodings.
package codec

import (
	"github.com/pingcap/errors"

	"github.com/T45K/go-mysql-session/mysql"
)

// TargetType names the Go type a decode call wants back. Target types are
// known at call sites, so resolution is a tag comparison instead of
// reflection.
type TargetType int

const (
	TargetNone TargetType = iota
	TargetBool
	TargetInt8
	TargetUint8
	TargetInt16
	TargetUint16
	TargetInt32
	TargetUint32
	TargetInt64
	TargetUint64
	TargetInt
	TargetFloat32
	TargetFloat64
	TargetDecimal
	TargetBitSet
	TargetString
	TargetBytes
	TargetTime
	TargetDuration
	TargetYear
)

// Codec decodes one family of column payloads into one target type, and
// encodes one family of Go values into parameters.
//
// Decode is handed the column payload with any length prefix already
// stripped; data == nil never reaches a codec (SQL NULL is handled by the
// registry). Codecs must not read past the payload.
type Codec interface {
	CanDecode(f *mysql.Field, target TargetType) bool
	Decode(data []byte, f *mysql.Field, target TargetType, binary bool, ctx *Context) (interface{}, error)

	CanEncode(value interface{}) bool
	Encode(value interface{}, ctx *Context) *Parameter
}

// Registry resolves codecs. Resolution is deterministic and
// order-independent for callers: the registry scans its fixed priority list
// and picks the first codec whose predicate matches. Primitive-typed codecs
// come before object-typed ones, exact-type before widening.
type Registry struct {
	codecs []Codec
}

// NewRegistry builds the default registry covering all supported column
// types (about 30 codec entries, scanned linearly).
func NewRegistry() *Registry {
	return &Registry{
		codecs: []Codec{
			boolCodec{},
			intCodec{target: TargetInt8},
			intCodec{target: TargetUint8},
			intCodec{target: TargetInt16},
			intCodec{target: TargetUint16},
			intCodec{target: TargetInt32},
			intCodec{target: TargetUint32},
			intCodec{target: TargetInt64},
			intCodec{target: TargetUint64},
			intCodec{target: TargetInt},
			yearCodec{},
			floatCodec{double: false},
			floatCodec{double: true},
			decimalCodec{},
			bitSetCodec{},
			timeCodec{},
			durationCodec{},
			stringCodec{},
			bytesCodec{},
		},
	}
}

// Decode converts one column payload into the target type. A nil payload is
// the upstream SQL NULL signal and decodes to nil without consulting codecs.
func (r *Registry) Decode(data []byte, f *mysql.Field, target TargetType, binary bool, ctx *Context) (interface{}, error) {
	if data == nil {
		return nil, nil
	}

	for _, c := range r.codecs {
		if c.CanDecode(f, target) {
			return c.Decode(data, f, target, binary, ctx)
		}
	}

	return nil, errors.Annotatef(ErrUnsupportedConversion, "column type %d to target %d", f.Type, target)
}

// Encode converts a Go value into a Parameter. nil encodes to the SQL NULL
// bind.
func (r *Registry) Encode(value interface{}, ctx *Context) (*Parameter, error) {
	if value == nil {
		return NullParameter(), nil
	}

	for _, c := range r.codecs {
		if c.CanEncode(value) {
			return c.Encode(value, ctx), nil
		}
	}

	return nil, errors.Annotatef(ErrNoCodec, "value type %T", value)
}

// EncodeBinding encodes one argument list into a Binding.
func (r *Registry) EncodeBinding(args []interface{}, ctx *Context) (Binding, error) {
	binding := make(Binding, len(args))
	for i, arg := range args {
		p, err := r.Encode(arg, ctx)
		if err != nil {
			return nil, errors.Trace(err)
		}
		binding[i] = p
	}
	return binding, nil
}
