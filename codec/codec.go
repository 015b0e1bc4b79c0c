// Package codec implements the fixed-width wire encoding used by block
// headers and seals. Every field has a fixed size and a fixed order; the
// format is a protocol parameter and must never change without a
// coordinated fork.
package codec

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrDecode is the base error for malformed wire bytes.
	ErrDecode = errors.New("codec: decode error")
)

func decodeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

// Encode serializes the given object into wire bytes.
func Encode(obj Marshaler) []byte {
	buffer := bytes.NewBuffer(nil)
	encoder := NewEncoder(buffer)
	obj.MarshalWire(encoder)
	return buffer.Bytes()
}

// Decode deserializes wire bytes into the given object. It fails on
// truncated input and on trailing bytes.
func Decode(inp []byte, obj Unmarshaler) error {
	decoder := NewDecoder(bytes.NewReader(inp))
	if err := obj.UnmarshalWire(decoder); err != nil {
		return err
	}
	return decoder.Close()
}

// Marshaler is the interface for types with a fixed-width wire form.
type Marshaler interface {
	MarshalWire(e *Encoder)
}

// Unmarshaler is the decoding counterpart of Marshaler.
type Unmarshaler interface {
	UnmarshalWire(d *Decoder) error
}
