package powhash

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/types"
)

// Compute evaluates the work hash for a (pre-seal hash, nonce) pair
// against the given dataset. Pure and deterministic: no I/O, no shared
// state. One call is the unit of cancellation granularity for mining.
func (o *Oracle) Compute(ds *Dataset, preSealHash common.Hash, nonce types.Nonce) common.Hash {
	state := blake2b.Sum512(append(preSealHash.Bytes(), nonce[:]...))

	n := uint64(ds.NumItems())
	buf := make([]byte, 0, len(state)+ds.itemSize)
	for r := 0; r < o.cfg.Rounds; r++ {
		idx := binary.LittleEndian.Uint64(state[:8]) % n
		buf = append(buf[:0], state[:]...)
		buf = append(buf, ds.Item(int(idx))...)
		state = blake2b.Sum512(buf)
	}

	return common.Keccak256(state[:])
}
