package codec

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	e, buf := NewBufferEncoder()
	e.Byte(1)
	e.Uint64(0xdeadbeef01020304)
	e.Bytes([]byte{9, 8, 7})
	e.U256(uint256.NewInt(123456789))

	d := NewDecoder(bytes.NewReader(buf.Bytes()))

	b, err := d.Byte()
	require.NoError(t, err)
	assert.Equal(t, byte(1), b)

	u, err := d.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdeadbeef01020304), u)

	raw := make([]byte, 3)
	require.NoError(t, d.Bytes(raw))
	assert.Equal(t, []byte{9, 8, 7}, raw)

	v, err := d.U256()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(123456789), v)

	assert.NoError(t, d.Close())
}

func TestDecodeTruncated(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte{1, 2, 3}))
	_, err := d.Uint64()
	assert.ErrorIs(t, err, ErrDecode)

	d = NewDecoder(bytes.NewReader(nil))
	_, err = d.Byte()
	assert.ErrorIs(t, err, ErrDecode)

	d = NewDecoder(bytes.NewReader(make([]byte, 31)))
	_, err = d.U256()
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeTrailing(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0xff}))
	_, err := d.Uint64()
	require.NoError(t, err)
	assert.ErrorIs(t, d.Close(), ErrDecode)
}

func TestU256FixedWidth(t *testing.T) {
	e, buf := NewBufferEncoder()
	e.U256(uint256.NewInt(1))
	assert.Equal(t, 32, buf.Len(), "u256 must always occupy 32 bytes")
	assert.Equal(t, byte(1), buf.Bytes()[31], "u256 is big-endian")
}
