package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinderchain/cinder/codec"
	"github.com/cinderchain/cinder/common"
)

func testSeal(t *testing.T) *Seal {
	t.Helper()
	key, err := MiningKeyFromSeed(make([]byte, 32))
	require.NoError(t, err)

	preSealHash := common.Blake2Hash([]byte("header"))
	nonce := HexToNonce("0x01")
	return &Seal{
		Nonce:     nonce,
		Work:      common.Blake2Hash([]byte("work")),
		Signature: key.Sign(preSealHash, nonce),
		Author:    key.Public,
	}
}

func TestSealRoundTrip(t *testing.T) {
	s := testSeal(t)

	encoded := s.Encode()
	assert.Equal(t, SealSize, len(encoded), "seal wire size is fixed")

	decoded, err := DecodeSeal(encoded)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestSealDecodeMalformed(t *testing.T) {
	encoded := testSeal(t).Encode()

	for _, n := range []int{0, 1, SealSize - 1} {
		_, err := DecodeSeal(encoded[:n])
		assert.ErrorIs(t, err, codec.ErrDecode, "truncated to %d bytes", n)
	}

	extended := append(append([]byte{}, encoded...), 0x00)
	_, err := DecodeSeal(extended)
	assert.ErrorIs(t, err, codec.ErrDecode, "trailing byte")
}

func TestSealSignatureBinding(t *testing.T) {
	key, err := MiningKeyFromSeed(make([]byte, 32))
	require.NoError(t, err)

	preSealHash := common.Blake2Hash([]byte("header"))
	nonce := HexToNonce("0x2a")
	sig := key.Sign(preSealHash, nonce)

	assert.True(t, VerifySealSignature(key.Public, preSealHash, nonce, sig))

	// Changing the nonce invalidates the signature: the work is bound to
	// this exact (pre-seal, nonce) pair.
	otherNonce := HexToNonce("0x2b")
	assert.False(t, VerifySealSignature(key.Public, preSealHash, otherNonce, sig))

	// Another author cannot claim the same signature.
	otherKey, err := MiningKeyFromSeed(append([]byte{1}, make([]byte, 31)...))
	require.NoError(t, err)
	assert.False(t, VerifySealSignature(otherKey.Public, preSealHash, nonce, sig))
}
