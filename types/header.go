package types

import (
	"github.com/holiman/uint256"

	"github.com/cinderchain/cinder/codec"
	"github.com/cinderchain/cinder/common"
)

// Header is a block header. The seal is nil while the block is being mined
// and set once a valid nonce has been found.
type Header struct {
	ParentHash     common.Hash  `json:"parentHash"`
	Number         uint64       `json:"number"`
	StateRoot      common.Hash  `json:"stateRoot"`
	ExtrinsicsRoot common.Hash  `json:"extrinsicsRoot"`
	Timestamp      uint64       `json:"timestamp"` // seconds since unix epoch
	Difficulty     *uint256.Int `json:"difficulty"`
	Seal           *Seal        `json:"seal,omitempty"`
}

func (h *Header) Copy() *Header {
	if h == nil {
		return nil
	}
	c := *h
	if h.Difficulty != nil {
		c.Difficulty = new(uint256.Int).Set(h.Difficulty)
	}
	c.Seal = h.Seal.Copy()
	return &c
}

// PreSealBytes returns the fixed-width encoding of every header field
// except the seal. This is the input the work hash and the seal signature
// commit to.
func (h *Header) PreSealBytes() []byte {
	e, buf := codec.NewBufferEncoder()
	h.marshalPreSeal(e)
	return buf.Bytes()
}

func (h *Header) marshalPreSeal(e *codec.Encoder) {
	e.Bytes(h.ParentHash.Bytes())
	e.Uint64(h.Number)
	e.Bytes(h.StateRoot.Bytes())
	e.Bytes(h.ExtrinsicsRoot.Bytes())
	e.Uint64(h.Timestamp)
	e.U256(h.Difficulty)
}

// PreSealHash is the 32-byte digest of PreSealBytes.
func (h *Header) PreSealHash() common.Hash {
	return common.Blake2Hash(h.PreSealBytes())
}

// Hash is the block hash: the digest of the fully sealed header.
func (h *Header) Hash() common.Hash {
	return common.Blake2Hash(h.Encode())
}

func (h *Header) MarshalWire(e *codec.Encoder) {
	h.marshalPreSeal(e)
	if h.Seal != nil {
		e.Byte(1)
		h.Seal.MarshalWire(e)
	} else {
		e.Byte(0)
	}
}

func (h *Header) UnmarshalWire(d *codec.Decoder) error {
	var parent, stateRoot, extRoot [common.HashSize]byte
	if err := d.Bytes(parent[:]); err != nil {
		return err
	}
	h.ParentHash = common.BytesToHash(parent[:])
	num, err := d.Uint64()
	if err != nil {
		return err
	}
	h.Number = num
	if err := d.Bytes(stateRoot[:]); err != nil {
		return err
	}
	h.StateRoot = common.BytesToHash(stateRoot[:])
	if err := d.Bytes(extRoot[:]); err != nil {
		return err
	}
	h.ExtrinsicsRoot = common.BytesToHash(extRoot[:])
	ts, err := d.Uint64()
	if err != nil {
		return err
	}
	h.Timestamp = ts
	diff, err := d.U256()
	if err != nil {
		return err
	}
	h.Difficulty = diff
	hasSeal, err := d.Byte()
	if err != nil {
		return err
	}
	if hasSeal != 0 {
		h.Seal = &Seal{}
		if err := h.Seal.UnmarshalWire(d); err != nil {
			return err
		}
	}
	return nil
}

// Encode returns the full wire form of the header, seal included.
func (h *Header) Encode() []byte {
	return codec.Encode(h)
}

// DecodeHeader decodes a header from wire bytes.
func DecodeHeader(b []byte) (*Header, error) {
	h := &Header{}
	if err := codec.Decode(b, h); err != nil {
		return nil, err
	}
	return h, nil
}
