package codec

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/holiman/uint256"
)

// Encoder writes fixed-width fields to a given io.Writer.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates a new encoder with the given writer.
func NewEncoder(writer io.Writer) *Encoder {
	return &Encoder{w: writer}
}

// NewBufferEncoder creates an encoder backed by a fresh in-memory buffer.
func NewBufferEncoder() (*Encoder, *bytes.Buffer) {
	buf := bytes.NewBuffer(nil)
	return &Encoder{w: buf}, buf
}

// Byte writes a single byte, used for option tags.
func (e *Encoder) Byte(b byte) {
	e.w.Write([]byte{b})
}

// Uint64 writes a fixed 8-byte little-endian integer.
func (e *Encoder) Uint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	e.w.Write(buf[:])
}

// Bytes writes raw bytes with no length prefix; the width is fixed by the
// wire format of the enclosing type.
func (e *Encoder) Bytes(b []byte) {
	e.w.Write(b)
}

// U256 writes a fixed 32-byte big-endian unsigned integer.
func (e *Encoder) U256(v *uint256.Int) {
	buf := v.Bytes32()
	e.w.Write(buf[:])
}
