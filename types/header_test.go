package types

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderchain/cinder/common"
)

func testHeader() *Header {
	return &Header{
		ParentHash:     common.Blake2Hash([]byte("parent")),
		Number:         42,
		StateRoot:      common.Blake2Hash([]byte("state")),
		ExtrinsicsRoot: common.Blake2Hash([]byte("ext")),
		Timestamp:      1767225660,
		Difficulty:     uint256.NewInt(1_000_000),
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := testHeader()

	decoded, err := DecodeHeader(h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
	assert.Nil(t, decoded.Seal)

	h.Seal = testSeal(t)
	decoded, err = DecodeHeader(h.Encode())
	require.NoError(t, err)
	assert.Equal(t, h, decoded)
}

func TestPreSealBytesExcludeSeal(t *testing.T) {
	h := testHeader()
	before := h.PreSealBytes()

	h.Seal = testSeal(t)
	after := h.PreSealBytes()

	assert.Equal(t, before, after, "sealing must not change the pre-seal commitment")
	assert.Equal(t, common.Blake2Hash(before), h.PreSealHash())
}

func TestHeaderHashCommitsToSeal(t *testing.T) {
	h := testHeader()
	unsealed := h.Hash()

	h.Seal = testSeal(t)
	sealed := h.Hash()

	assert.NotEqual(t, unsealed, sealed)
}

func TestHeaderCopy(t *testing.T) {
	h := testHeader()
	h.Seal = testSeal(t)

	c := h.Copy()
	require.Equal(t, h, c)

	c.Difficulty.AddUint64(c.Difficulty, 1)
	c.Seal.Nonce[0] ^= 0xff
	assert.NotEqual(t, h.Difficulty, c.Difficulty, "copy must not share difficulty")
	assert.NotEqual(t, h.Seal.Nonce, c.Seal.Nonce, "copy must not share seal")
}
