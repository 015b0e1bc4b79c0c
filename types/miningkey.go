package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cinderchain/cinder/common"
)

// ErrKeyImport marks a malformed secret seed supplied to key import.
var ErrKeyImport = errors.New("mining key import failed")

// MiningKey is the node operator's signing identity for signed mining.
// It is generated or imported once and held in memory for the process
// lifetime; the secret seed is never transmitted.
type MiningKey struct {
	Public Ed25519Key
	priv   ed25519.PrivateKey
	seed   [ed25519.SeedSize]byte
}

// GenerateMiningKey creates a new mining key from system randomness.
func GenerateMiningKey() (*MiningKey, error) {
	var seed [ed25519.SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("reading randomness: %w", err)
	}
	return MiningKeyFromSeed(seed[:])
}

// MiningKeyFromSeed derives a mining key from an externally supplied
// 32-byte secret seed.
func MiningKeyFromSeed(seed []byte) (*MiningKey, error) {
	pub, priv, err := InitEd25519Key(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	k := &MiningKey{Public: pub, priv: priv}
	copy(k.seed[:], seed)
	return k, nil
}

// Sign signs the seal binding for the given pre-seal hash and nonce.
func (k *MiningKey) Sign(preSealHash common.Hash, nonce Nonce) Ed25519Signature {
	return SignSeal(k.priv, preSealHash, nonce)
}

type keystoreFile struct {
	Public Ed25519Key `json:"public"`
	Seed   string     `json:"seed"`
}

const keystoreFileName = "mining_key.json"

// Save persists the key under dir with owner-only permissions.
func (k *MiningKey) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating keystore dir: %w", err)
	}
	data, err := json.MarshalIndent(keystoreFile{
		Public: k.Public,
		Seed:   common.Bytes2Hex(k.seed[:]),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, keystoreFileName), data, 0600)
}

// LoadMiningKey reads a previously saved key from dir.
func LoadMiningKey(dir string) (*MiningKey, error) {
	data, err := os.ReadFile(filepath.Join(dir, keystoreFileName))
	if err != nil {
		return nil, fmt.Errorf("reading keystore: %w", err)
	}
	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyImport, err)
	}
	k, err := MiningKeyFromSeed(common.Hex2Bytes(ks.Seed))
	if err != nil {
		return nil, err
	}
	if k.Public != ks.Public {
		return nil, fmt.Errorf("%w: keystore public key does not match derived key", ErrKeyImport)
	}
	return k, nil
}
