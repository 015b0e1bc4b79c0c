package codec

import (
	"encoding/binary"
	"io"

	"github.com/holiman/uint256"
)

// Decoder reads fixed-width fields from a given io.Reader.
type Decoder struct {
	r io.Reader
}

// NewDecoder creates a new decoder with the given reader.
func NewDecoder(reader io.Reader) *Decoder {
	return &Decoder{r: reader}
}

// Byte reads a single byte, used for option tags.
func (d *Decoder) Byte() (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, decodeErrorf("truncated byte: %v", err)
	}
	return buf[0], nil
}

// Uint64 reads a fixed 8-byte little-endian integer.
func (d *Decoder) Uint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, decodeErrorf("truncated uint64: %v", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Bytes reads exactly len(dst) bytes into dst.
func (d *Decoder) Bytes(dst []byte) error {
	if _, err := io.ReadFull(d.r, dst); err != nil {
		return decodeErrorf("truncated field of %d bytes: %v", len(dst), err)
	}
	return nil
}

// U256 reads a fixed 32-byte big-endian unsigned integer.
func (d *Decoder) U256() (*uint256.Int, error) {
	var buf [32]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return nil, decodeErrorf("truncated u256: %v", err)
	}
	return new(uint256.Int).SetBytes(buf[:]), nil
}

// Close verifies that the input has been fully consumed; trailing bytes are
// a decode error.
func (d *Decoder) Close() error {
	var buf [1]byte
	if n, _ := d.r.Read(buf[:]); n != 0 {
		return decodeErrorf("trailing bytes after value")
	}
	return nil
}
