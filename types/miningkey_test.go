package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiningKeyFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 7

	a, err := MiningKeyFromSeed(seed)
	require.NoError(t, err)
	b, err := MiningKeyFromSeed(seed)
	require.NoError(t, err)

	assert.Equal(t, a.Public, b.Public)
}

func TestMiningKeyImportRejectsBadSeed(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33} {
		_, err := MiningKeyFromSeed(make([]byte, n))
		assert.ErrorIs(t, err, ErrKeyImport, "seed of %d bytes", n)
	}
}

func TestMiningKeySaveLoad(t *testing.T) {
	dir := t.TempDir()

	key, err := GenerateMiningKey()
	require.NoError(t, err)
	require.NoError(t, key.Save(dir))

	loaded, err := LoadMiningKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key.Public, loaded.Public)

	// The reloaded key must produce signatures the original key's public
	// identifier accepts.
	preSealHash := testHeader().PreSealHash()
	nonce := HexToNonce("0x05")
	sig := loaded.Sign(preSealHash, nonce)
	assert.True(t, VerifySealSignature(key.Public, preSealHash, nonce, sig))
}

func TestLoadMiningKeyMissing(t *testing.T) {
	_, err := LoadMiningKey(t.TempDir())
	assert.Error(t, err)
}
