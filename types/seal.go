package types

import (
	"crypto/ed25519"

	"github.com/cinderchain/cinder/codec"
	"github.com/cinderchain/cinder/common"
)

const (
	NonceSize = 32

	// SealSize is the fixed wire size of a seal: nonce, work hash,
	// signature, author public key.
	SealSize = NonceSize + common.HashSize + Ed25519SignatureSize + Ed25519PubkeySize
)

// Nonce is the 256-bit search counter embedded in a seal.
type Nonce [NonceSize]byte

func (n Nonce) Bytes() []byte {
	return n[:]
}

func HexToNonce(hexStr string) Nonce {
	var n Nonce
	copy(n[:], common.FromHex(hexStr))
	return n
}

// Seal is the proof-of-work evidence embedded in a block header. It is
// immutable once the enclosing block has been accepted.
type Seal struct {
	Nonce     Nonce            `json:"nonce"`
	Work      common.Hash      `json:"work"`
	Signature Ed25519Signature `json:"signature"`
	Author    Ed25519Key       `json:"author"`
}

func (s *Seal) Copy() *Seal {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *Seal) MarshalWire(e *codec.Encoder) {
	e.Bytes(s.Nonce[:])
	e.Bytes(s.Work.Bytes())
	e.Bytes(s.Signature[:])
	e.Bytes(s.Author[:])
}

func (s *Seal) UnmarshalWire(d *codec.Decoder) error {
	if err := d.Bytes(s.Nonce[:]); err != nil {
		return err
	}
	var work [common.HashSize]byte
	if err := d.Bytes(work[:]); err != nil {
		return err
	}
	s.Work = common.BytesToHash(work[:])
	if err := d.Bytes(s.Signature[:]); err != nil {
		return err
	}
	var author [Ed25519PubkeySize]byte
	if err := d.Bytes(author[:]); err != nil {
		return err
	}
	s.Author = Ed25519Key(common.BytesToHash(author[:]))
	return nil
}

// Encode returns the fixed-width wire form of the seal.
func (s *Seal) Encode() []byte {
	return codec.Encode(s)
}

// DecodeSeal decodes a seal from wire bytes, failing on truncated or
// trailing input.
func DecodeSeal(b []byte) (*Seal, error) {
	s := &Seal{}
	if err := codec.Decode(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SealSigningMessage is the message a miner signs to bind a proof of work
// to its own key: without the binding, a third party could resubmit the
// same work under a different author.
func SealSigningMessage(preSealHash common.Hash, nonce Nonce) []byte {
	buf := make([]byte, 0, common.HashSize+NonceSize)
	buf = append(buf, preSealHash.Bytes()...)
	buf = append(buf, nonce[:]...)
	return common.ComputeHash(buf)
}

// SignSeal signs the (pre-seal hash, nonce) binding with the given key.
func SignSeal(priv ed25519.PrivateKey, preSealHash common.Hash, nonce Nonce) Ed25519Signature {
	var sig Ed25519Signature
	copy(sig[:], ed25519.Sign(priv, SealSigningMessage(preSealHash, nonce)))
	return sig
}

// VerifySealSignature checks the author's signature over the
// (pre-seal hash, nonce) binding.
func VerifySealSignature(author Ed25519Key, preSealHash common.Hash, nonce Nonce, sig Ed25519Signature) bool {
	return ed25519.Verify(author.PublicKey(), SealSigningMessage(preSealHash, nonce), sig[:])
}
