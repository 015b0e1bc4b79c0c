package types

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/cinderchain/cinder/common"
)

const (
	Ed25519PubkeySize     = 32
	Ed25519PrivateKeySize = 64 // 32 byte seed + 32 byte pub concatenated
	Ed25519SignatureSize  = 64 // 32 byte R + 32 byte S

	// Domain prefix mixed into key derivation so a mining key can never
	// collide with keys derived for other purposes from the same seed.
	miningKeyDomain = "cinder_mining_key_ed25519"
)

type Ed25519Key common.Hash
type Ed25519Signature [Ed25519SignatureSize]byte

func (k Ed25519Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(common.Bytes2Hex(k[:]))
}

func (k *Ed25519Signature) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	*k = HexToEd25519Sig(hexStr)
	return nil
}

func (k Ed25519Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(common.Hash(k).Hex())
}

func (k *Ed25519Key) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	*k = Ed25519Key(common.HexToHash(hexStr))
	return nil
}

func (k Ed25519Key) String() string {
	return common.Hash(k).Hex()
}

func (k Ed25519Key) Bytes() []byte {
	return k[:]
}

func (k Ed25519Key) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(k[:])
}

func (s Ed25519Signature) Bytes() []byte {
	return s[:]
}

func HexToEd25519Sig(hexStr string) Ed25519Signature {
	b := common.Hex2Bytes(hexStr)
	var signature Ed25519Signature
	copy(signature[:], b)
	return signature
}

func HexToEd25519Key(hexStr string) Ed25519Key {
	b := common.FromHex(hexStr)
	var pubkey Ed25519Key
	copy(pubkey[:], b)
	return pubkey
}

// InitEd25519Key derives a mining keypair from a 32-byte seed. The seed is
// stretched through a domain-separated hash before key generation.
func InitEd25519Key(seed []byte) (Ed25519Key, ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return Ed25519Key{}, nil, fmt.Errorf("seed length must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	secret := common.ComputeHash(append([]byte(miningKeyDomain), seed...))
	priv := ed25519.NewKeyFromSeed(secret)
	pub := priv.Public().(ed25519.PublicKey)
	return Ed25519Key(common.BytesToHash(pub)), priv, nil
}
